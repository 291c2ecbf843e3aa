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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/layout"
)

// memSource is a FileSource backed by a plain in-memory byte slice,
// counting how many physical reads it actually served so tests can
// assert on coalescing.
type memSource struct {
	data  []byte
	segs  *layout.SegmentMap
	mu    sync.Mutex
	reads int32
}

func newMemSource(chunks [][]byte) *memSource {
	var data []byte
	segs := layout.NewSegmentMap()
	for _, c := range chunks {
		segs.Add(layout.Segment{
			Offset:    uint64(len(data)),
			Length:    uint32(len(c)),
			Alignment: 1,
			Algo:      segio.AlgoNone,
			RawLength: uint32(len(c)),
		})
		data = append(data, c...)
	}
	return &memSource{data: data, segs: segs}
}

func (s *memSource) Segments() *layout.SegmentMap { return s.segs }

func (s *memSource) ReadRange(offset, length int64) ([]byte, error) {
	atomic.AddInt32(&s.reads, 1)
	if offset < 0 || offset+length > int64(len(s.data)) {
		return nil, fmt.Errorf("memSource: out of range [%d,%d)", offset, offset+length)
	}
	out := make([]byte, length)
	copy(out, s.data[offset:offset+length])
	return out, nil
}

func TestIoDriverResolvesSegment(t *testing.T) {
	src := newMemSource([][]byte{[]byte("hello"), []byte("world!")})
	d := NewIoDriver(src, Options{})
	buf, err := d.Resolve(0)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf.Bytes()) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", buf.Bytes())
	}
	buf, err = d.Resolve(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf.Bytes()) != "world!" {
		t.Fatalf("expected %q, got %q", "world!", buf.Bytes())
	}
}

func TestIoDriverZeroLengthSegmentSkipsIO(t *testing.T) {
	src := newMemSource([][]byte{{}})
	d := NewIoDriver(src, Options{})
	buf, err := d.Resolve(0)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", buf.Len())
	}
	if atomic.LoadInt32(&src.reads) != 0 {
		t.Fatalf("expected no physical reads for a zero-length segment, got %d", src.reads)
	}
}

func TestIoDriverCachesAcrossRequests(t *testing.T) {
	src := newMemSource([][]byte{[]byte("abc")})
	d := NewIoDriver(src, Options{})
	if _, err := d.Resolve(0); err != nil {
		t.Fatal(err)
	}
	reads := atomic.LoadInt32(&src.reads)
	if _, err := d.Resolve(0); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&src.reads) != reads {
		t.Fatalf("expected the second Resolve to be served from cache, read count grew from %d to %d", reads, src.reads)
	}
	if d.cache.Len() != 1 {
		t.Fatalf("expected 1 cached segment, got %d", d.cache.Len())
	}
}

func TestIoDriverCoalescesAdjacentSegments(t *testing.T) {
	src := newMemSource([][]byte{[]byte("aaa"), []byte("bbb"), []byte("ccc")})
	d := NewIoDriver(src, Options{CoalesceGap: 1024})
	out, err := d.ResolveMany([]layout.SegmentId{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(out[0].Bytes()) != "aaa" || string(out[1].Bytes()) != "bbb" || string(out[2].Bytes()) != "ccc" {
		t.Fatalf("unexpected resolved bytes: %v", out)
	}
	if n := atomic.LoadInt32(&src.reads); n != 1 {
		t.Fatalf("expected adjacent segments to coalesce into 1 physical read, got %d", n)
	}
}

func TestIoDriverDeduplicatesInFlightRequests(t *testing.T) {
	src := newMemSource([][]byte{[]byte("xyz")})
	d := NewIoDriver(src, Options{})
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = d.Resolve(0)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&src.reads); n != 1 {
		t.Fatalf("expected concurrent requests for the same segment to dedup into 1 physical read, got %d", n)
	}
}

func TestIoDriverEmitsLifecycleEvents(t *testing.T) {
	src := newMemSource([][]byte{[]byte("abc")})
	var mu sync.Mutex
	var kinds []EventKind
	sink := EventFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, e.Kind)
	})
	d := NewIoDriver(src, Options{Events: sink})
	if _, err := d.Resolve(0); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	saw := map[EventKind]bool{}
	for _, k := range kinds {
		saw[k] = true
	}
	for _, want := range []EventKind{Requested, Polled, Resolved} {
		if !saw[want] {
			t.Errorf("expected a %s event, got %v", want, kinds)
		}
	}
}
