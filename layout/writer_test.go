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

package layout

import (
	"fmt"
	"testing"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
)

// memSink is a SegmentSink/SegmentResolver backed by a plain slice,
// for round-tripping a LayoutWriter's output through Decode in tests.
type memSink struct {
	segs []Segment
	raw  [][]byte // compressed bytes, parallel to segs
}

func (m *memSink) Put(compressed []byte, rawLen int, alignment uint8, algo segio.Algo) (SegmentId, error) {
	id := SegmentId(len(m.segs))
	m.segs = append(m.segs, Segment{Length: uint32(len(compressed)), RawLength: uint32(rawLen), Alignment: alignment, Algo: algo})
	cp := append([]byte(nil), compressed...)
	m.raw = append(m.raw, cp)
	return id, nil
}

func (m *memSink) Resolve(id SegmentId) (buffer.ByteBuffer, error) {
	if int(id) >= len(m.segs) {
		return buffer.ByteBuffer{}, fmt.Errorf("memSink: unknown segment %d", id)
	}
	seg := m.segs[id]
	out := make([]byte, seg.RawLength)
	if err := segio.Decompress(seg.Algo, m.raw[id], out); err != nil {
		return buffer.ByteBuffer{}, err
	}
	return buffer.New(out, 1), nil
}

func TestChunkedLayoutWriterRoundtrip(t *testing.T) {
	sink := &memSink{}
	w := NewChunkedLayoutWriter(sink, NewBtrBlocksCompressor(segio.AlgoZstd), segio.AlgoZstd, dtype.Primitive(dtype.I64, dtype.NonNullable), 0)

	chunk1 := i64Array([]int64{1, 2, 3})
	chunk2 := i64Array([]int64{4, 5})
	if err := w.Push(chunk1); err != nil {
		t.Fatal(err)
	}
	if err := w.Push(chunk2); err != nil {
		t.Fatal(err)
	}
	lay, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	chunked, ok := lay.(*ChunkedLayout)
	if !ok {
		t.Fatalf("expected *ChunkedLayout, got %T", lay)
	}
	if chunked.Len() != 5 {
		t.Fatalf("expected length 5, got %d", chunked.Len())
	}

	ctx := array.Default()
	for i, ch := range chunked.Children() {
		if ch.Kind != Chunk {
			continue
		}
		fl, ok := ch.Layout.(*FlatLayout)
		if !ok {
			t.Fatalf("chunk %d: expected *FlatLayout, got %T", i, ch.Layout)
		}
		got, err := fl.Decode(ctx, sink)
		if err != nil {
			t.Fatalf("chunk %d: decode: %v", i, err)
		}
		if got.Len() != fl.Len() {
			t.Fatalf("chunk %d: expected len %d, got %d", i, fl.Len(), got.Len())
		}
	}
}

func TestChunkedLayoutWriterWithStats(t *testing.T) {
	sink := &memSink{}
	w := NewChunkedLayoutWriter(sink, NewBtrBlocksCompressor(segio.AlgoNone), segio.AlgoNone, dtype.Primitive(dtype.I64, dtype.NonNullable), 1024)

	if err := w.Push(i64Array([]int64{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	if err := w.Push(i64Array([]int64{10, 20})); err != nil {
		t.Fatal(err)
	}
	lay, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	st, ok := lay.(*StatsLayout)
	if !ok {
		t.Fatalf("expected *StatsLayout, got %T", lay)
	}
	if st.ZoneCount() != 2 {
		t.Fatalf("expected 2 zones, got %d", st.ZoneCount())
	}
	if st.Child().Len() != 5 {
		t.Fatalf("expected child length 5, got %d", st.Child().Len())
	}
}

func TestFlatLayoutWriterRejectsSecondPush(t *testing.T) {
	sink := &memSink{}
	w := NewFlatLayoutWriter(sink, NewBtrBlocksCompressor(segio.AlgoNone), segio.AlgoNone)
	if err := w.Push(i64Array([]int64{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	if err := w.Push(i64Array([]int64{4})); err == nil {
		t.Fatal("expected second Push to a Flat writer to fail")
	}
}
