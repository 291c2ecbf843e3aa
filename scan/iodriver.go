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

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/layout"
	"github.com/vortexdb/vortex/vortexerr"
)

// DefaultCoalesceGap is the maximum byte gap between two segments'
// ranges that still get merged into one physical read, absent an
// explicit Options.CoalesceGap (spec §4.8 "configurable gap (default
// 1 MiB)").
const DefaultCoalesceGap = 1 << 20

// DefaultConcurrency bounds parallel physical reads absent an
// explicit Options.Concurrency.
const DefaultConcurrency = 4

// Future is a segment resolution that may still be in flight, shared
// by every requester of the same segment. Every requester must pair a
// Request with a Drop. Dropping cancels nothing: the physical read
// for a Future is issued and completed whether or not a requester
// remains, and IoDriver.resolveGroup reports a Dropped event for a
// Future that has no live requester when its read completes.
type Future struct {
	done chan struct{}
	buf  buffer.ByteBuffer
	err  error
	refs int32
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Wait blocks until the segment is resolved and returns its bytes.
func (f *Future) Wait() (buffer.ByteBuffer, error) {
	<-f.done
	return f.buf, f.err
}

// Drop releases the caller's interest in f. It does not cancel or
// skip the segment's read.
func (f *Future) Drop() {
	atomic.AddInt32(&f.refs, -1)
}

func (f *Future) addRef() { atomic.AddInt32(&f.refs, 1) }

func (f *Future) live() bool { return atomic.LoadInt32(&f.refs) > 0 }

func (f *Future) complete(buf buffer.ByteBuffer, err error) {
	f.buf, f.err = buf, err
	close(f.done)
}

// Options configures an IoDriver. The zero value selects
// DefaultConcurrency, DefaultCoalesceGap, a fresh private
// SegmentCache and no event reporting.
type Options struct {
	Concurrency int
	CoalesceGap int64
	Cache       *SegmentCache
	Events      EventSink
}

// IoDriver implements layout.SegmentResolver against a FileSource: it
// deduplicates in-flight requests, coalesces nearby segment reads
// into a single range read, bounds read concurrency, and
// checks/populates a SegmentCache (spec §4.8 "Segment source & I/O
// driver").
type IoDriver struct {
	src         FileSource
	concurrency int
	coalesceGap int64
	cache       *SegmentCache
	events      EventSink

	sem chan struct{}

	mu       sync.Mutex
	inflight map[layout.SegmentId]*Future
}

// NewIoDriver returns an IoDriver reading from src per opts.
func NewIoDriver(src FileSource, opts Options) *IoDriver {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	gap := opts.CoalesceGap
	if gap <= 0 {
		gap = DefaultCoalesceGap
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewSegmentCache()
	}
	return &IoDriver{
		src:         src,
		concurrency: concurrency,
		coalesceGap: gap,
		cache:       cache,
		events:      opts.Events,
		sem:         make(chan struct{}, concurrency),
		inflight:    make(map[layout.SegmentId]*Future),
	}
}

// Request returns a Future for id, joining an in-flight request or a
// cache hit when one already exists, otherwise scheduling a new
// (possibly coalesced) physical read. Every returned Future must
// eventually be paired with a Drop.
func (d *IoDriver) Request(id layout.SegmentId) *Future {
	emit(d.events, Requested, id)

	seg := d.src.Segments().Get(id)
	if seg.Empty() {
		f := newFuture()
		f.addRef()
		f.complete(buffer.Empty(int(seg.Alignment)), nil)
		emit(d.events, Resolved, id)
		return f
	}
	if buf, ok := d.cache.Get(id); ok {
		f := newFuture()
		f.addRef()
		f.complete(buf, nil)
		emit(d.events, Resolved, id)
		return f
	}

	d.mu.Lock()
	if f, ok := d.inflight[id]; ok {
		f.addRef()
		d.mu.Unlock()
		return f
	}
	f := newFuture()
	f.addRef()
	d.inflight[id] = f
	d.mu.Unlock()

	emit(d.events, Polled, id)
	group := d.coalesceGroup(id)
	d.sem <- struct{}{}
	go func() {
		defer func() { <-d.sem }()
		d.resolveGroup(group)
	}()
	return f
}

// Resolve implements layout.SegmentResolver.
func (d *IoDriver) Resolve(id layout.SegmentId) (buffer.ByteBuffer, error) {
	f := d.Request(id)
	buf, err := f.Wait()
	f.Drop()
	return buf, err
}

// ResolveMany resolves every id (deduplicated), sharing coalesced
// physical reads and the concurrency bound across all of them.
func (d *IoDriver) ResolveMany(ids []layout.SegmentId) (map[layout.SegmentId]buffer.ByteBuffer, error) {
	futures := make(map[layout.SegmentId]*Future, len(ids))
	for _, id := range ids {
		if _, ok := futures[id]; ok {
			continue
		}
		futures[id] = d.Request(id)
	}
	out := make(map[layout.SegmentId]buffer.ByteBuffer, len(ids))
	var firstErr error
	for id, f := range futures {
		buf, err := f.Wait()
		f.Drop()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		out[id] = buf
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// coalesceGroup returns id plus every not-yet-in-flight, not-yet-
// cached segment whose range lies within d.coalesceGap of the
// expanding [start,end) window anchored at id's own range, and
// reserves a Future for each of them. The caller must not hold d.mu.
func (d *IoDriver) coalesceGroup(id layout.SegmentId) []layout.SegmentId {
	segs := d.src.Segments()
	all := segs.SortedByOffset()
	pos := sort.Search(len(all), func(i int) bool {
		return segs.Get(all[i]).Offset >= segs.Get(id).Offset
	})

	d.mu.Lock()
	defer d.mu.Unlock()

	eligible := func(sid layout.SegmentId) bool {
		if sid == id {
			return true
		}
		if _, ok := d.inflight[sid]; ok {
			return false
		}
		if _, ok := d.cache.Get(sid); ok {
			return false
		}
		return !segs.Get(sid).Empty()
	}

	group := []layout.SegmentId{id}
	start, end := segs.Get(id).Offset, segs.Get(id).Offset+uint64(segs.Get(id).Length)

	for i := pos + 1; i < len(all); i++ {
		s := segs.Get(all[i])
		if int64(s.Offset)-int64(end) > d.coalesceGap {
			break
		}
		if !eligible(all[i]) {
			continue
		}
		group = append(group, all[i])
		if e := s.Offset + uint64(s.Length); e > end {
			end = e
		}
	}
	for i := pos - 1; i >= 0; i-- {
		s := segs.Get(all[i])
		if int64(start)-int64(s.Offset+uint64(s.Length)) > d.coalesceGap {
			break
		}
		if !eligible(all[i]) {
			continue
		}
		group = append(group, all[i])
		if s.Offset < start {
			start = s.Offset
		}
	}

	for _, sid := range group {
		if sid == id {
			continue
		}
		d.inflight[sid] = newFuture()
	}
	return group
}

// resolveGroup issues one physical ReadRange spanning every segment in
// group and completes each one's Future from its slice of the result.
func (d *IoDriver) resolveGroup(group []layout.SegmentId) {
	segmap := d.src.Segments()
	segs := make([]layout.Segment, len(group))
	lo, hi := ^uint64(0), uint64(0)
	for i, id := range group {
		s := segmap.Get(id)
		segs[i] = s
		if s.Offset < lo {
			lo = s.Offset
		}
		if e := s.Offset + uint64(s.Length); e > hi {
			hi = e
		}
	}

	raw, readErr := d.src.ReadRange(int64(lo), int64(hi-lo))

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, id := range group {
		f, ok := d.inflight[id]
		if !ok {
			continue
		}
		delete(d.inflight, id)
		if !f.live() {
			emit(d.events, Dropped, id)
		}
		if readErr != nil {
			f.complete(buffer.ByteBuffer{}, fmt.Errorf("scan: reading segment %d: %w: %v", id, vortexerr.Io, readErr))
			continue
		}
		s := segs[i]
		compressed := raw[s.Offset-lo : s.Offset-lo+uint64(s.Length)]
		out := make([]byte, s.RawLength)
		if derr := segio.Decompress(s.Algo, compressed, out); derr != nil {
			f.complete(buffer.ByteBuffer{}, fmt.Errorf("scan: decompressing segment %d: %w", id, derr))
			continue
		}
		buf := buffer.New(out, int(s.Alignment))
		d.cache.Put(id, buf)
		f.complete(buf, nil)
		emit(d.events, Resolved, id)
	}
}
