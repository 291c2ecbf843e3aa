// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package scan

import "github.com/vortexdb/vortex/layout"

// EventKind names one point in a segment's request lifecycle (spec
// §4.8 "Segment events").
type EventKind uint8

const (
	// Requested fires when a new logical requester asks for a segment,
	// whether or not a physical read is issued.
	Requested EventKind = iota
	// Polled fires once a segment's Future is actually being driven
	// toward completion (queued for or undergoing physical I/O).
	Polled
	// Dropped fires when a segment's read completes and no requester
	// holds its Future any longer, including a segment that was read
	// only because it was coalesced with a requested one.
	Dropped
	// Resolved fires once a segment's bytes are available, whether
	// served from cache or from a physical read.
	Resolved
)

func (k EventKind) String() string {
	switch k {
	case Requested:
		return "requested"
	case Polled:
		return "polled"
	case Dropped:
		return "dropped"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Event is one point-in-time occurrence in a segment's lifecycle,
// delivered to an EventSink.
type Event struct {
	Kind EventKind
	ID   layout.SegmentId
}

// EventSink receives segment lifecycle events. Implementations must
// not block for long, since Emit is called from the driver's request
// path and worker goroutines.
type EventSink interface {
	Emit(Event)
}

// EventFunc adapts a plain function to EventSink.
type EventFunc func(Event)

func (f EventFunc) Emit(e Event) { f(e) }

// nopSink is an EventSink that discards every event.
type nopSink struct{}

func (nopSink) Emit(Event) {}

func emit(sink EventSink, kind EventKind, id layout.SegmentId) {
	if sink == nil {
		return
	}
	sink.Emit(Event{Kind: kind, ID: id})
}
