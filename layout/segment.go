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

// Package layout implements the Layout tree: the recursive on-disk
// description of how an array is physically arranged into segments
// (spec §4.7).
package layout

import (
	"sort"

	"github.com/vortexdb/vortex/internal/segio"
)

// SegmentId globally numbers a Segment within one file. Segment ids
// are assigned sequentially as a writer emits segments and are stable
// for the life of the file.
type SegmentId uint32

// Segment locates one compressed byte range within a file: its
// (offset, length) in the file plus the alignment the decompressed
// bytes require and the compression algorithm used, if any. Zero-
// length segments are permitted and resolve to an empty aligned
// buffer without I/O (spec §4.7 "Segments").
type Segment struct {
	Offset    uint64
	Length    uint32
	Alignment uint8
	Algo      segio.Algo
	RawLength uint32 // decompressed length; equals Length when Algo is AlgoNone
}

// Empty reports whether s denotes a zero-length segment.
func (s Segment) Empty() bool { return s.Length == 0 }

// SegmentMap is the footer's segment table: every Segment in the
// file, indexed by SegmentId. Segments are stored in id order;
// SortedByOffset sorts the ids by offset on each call.
type SegmentMap struct {
	segments []Segment
}

// NewSegmentMap returns an empty, appendable SegmentMap.
func NewSegmentMap() *SegmentMap { return &SegmentMap{} }

// Add appends seg and returns its newly assigned SegmentId.
func (m *SegmentMap) Add(seg Segment) SegmentId {
	id := SegmentId(len(m.segments))
	m.segments = append(m.segments, seg)
	return id
}

// Get returns the Segment registered for id.
func (m *SegmentMap) Get(id SegmentId) Segment {
	return m.segments[id]
}

// Len returns the number of registered segments.
func (m *SegmentMap) Len() int { return len(m.segments) }

// All returns every (id, Segment) pair, ordered by id.
func (m *SegmentMap) All() []Segment {
	return m.segments
}

// SortedByOffset returns segment ids ordered by their file offset, the
// order the footer persists them in.
func (m *SegmentMap) SortedByOffset() []SegmentId {
	ids := make([]SegmentId, len(m.segments))
	for i := range ids {
		ids[i] = SegmentId(i)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.segments[ids[i]].Offset < m.segments[ids[j]].Offset
	})
	return ids
}
