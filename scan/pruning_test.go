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
	"testing"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/expr"
	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/layout"
	"github.com/vortexdb/vortex/scalar"
)

func i64Array(vals []int64) array.Array {
	buf := buffer.FromSlice(vals)
	return array.NewPrimitive(dtype.I64, buf, len(vals), dtype.NonNullable, array.AllValid(len(vals)))
}

func TestScalarLess(t *testing.T) {
	cases := []struct {
		a, b scalar.Scalar
		want bool
	}{
		{scalar.NewI64(1), scalar.NewI64(2), true},
		{scalar.NewI64(2), scalar.NewI64(1), false},
		{scalar.NewUtf8("a", dtype.NonNullable), scalar.NewUtf8("b", dtype.NonNullable), true},
	}
	for _, c := range cases {
		got, ok := scalarLess(c.a, c.b)
		if !ok {
			t.Fatalf("scalarLess(%v, %v): expected ok", c.a, c.b)
		}
		if got != c.want {
			t.Errorf("scalarLess(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestScalarLessNullIsUnsupported(t *testing.T) {
	_, ok := scalarLess(scalar.NewNull(dtype.Primitive(dtype.I64, dtype.Nullable)), scalar.NewI64(1))
	if ok {
		t.Fatal("expected scalarLess to refuse comparing a null scalar")
	}
}

func TestZoneExcludedByGreaterThan(t *testing.T) {
	n := expr.BinaryExpr{Lhs: expr.Identity{}, Op: expr.OpGt, Rhs: expr.Literal{Value: scalar.NewI64(10)}}
	// Zone [1,5]: every value <= 5 < 10, so "> 10" can select nothing.
	if !zoneExcludedBy(n, scalar.NewI64(1), scalar.NewI64(5)) {
		t.Fatal("expected zone [1,5] to be excluded by identity > 10")
	}
	// Zone [1,20]: 20 > 10, so some row could satisfy the filter.
	if zoneExcludedBy(n, scalar.NewI64(1), scalar.NewI64(20)) {
		t.Fatal("did not expect zone [1,20] to be excluded by identity > 10")
	}
}

func TestZoneExcludedByBetween(t *testing.T) {
	n := expr.Between{
		Value: expr.Identity{},
		Lower: expr.Literal{Value: scalar.NewI64(10)},
		Upper: expr.Literal{Value: scalar.NewI64(20)},
	}
	if !zoneExcludedBy(n, scalar.NewI64(0), scalar.NewI64(5)) {
		t.Fatal("expected zone [0,5] to be excluded by Between(10,20)")
	}
	if !zoneExcludedBy(n, scalar.NewI64(21), scalar.NewI64(30)) {
		t.Fatal("expected zone [21,30] to be excluded by Between(10,20)")
	}
	if zoneExcludedBy(n, scalar.NewI64(15), scalar.NewI64(25)) {
		t.Fatal("did not expect zone [15,25] to be excluded by Between(10,20)")
	}
}

func TestZoneExcludedByUnrecognizedShapeNeverPrunes(t *testing.T) {
	// Not, and anything referencing a struct field rather than the
	// scope's own Identity, fall through to "cannot prune" — this is
	// the soundness-preserving conservative fallback.
	n := expr.Not{Child: expr.BinaryExpr{Lhs: expr.Identity{}, Op: expr.OpGt, Rhs: expr.Literal{Value: scalar.NewI64(10)}}}
	if zoneExcludedBy(n, scalar.NewI64(0), scalar.NewI64(1)) {
		t.Fatal("expected an unrecognized expression shape never to be reported as excluded")
	}
}

// memStatsSink is a minimal layout.SegmentSink/SegmentResolver backed
// by a plain slice, used to round-trip a ChunkedLayoutWriter's output
// through pruningEvaluation.
type memStatsSink struct {
	segs []layout.Segment
	raw  [][]byte
}

func (m *memStatsSink) Put(compressed []byte, rawLen int, alignment uint8, algo segio.Algo) (layout.SegmentId, error) {
	id := layout.SegmentId(len(m.segs))
	m.segs = append(m.segs, layout.Segment{Length: uint32(len(compressed)), RawLength: uint32(rawLen), Alignment: alignment, Algo: algo})
	m.raw = append(m.raw, append([]byte(nil), compressed...))
	return id, nil
}

func (m *memStatsSink) Resolve(id layout.SegmentId) (buffer.ByteBuffer, error) {
	seg := m.segs[id]
	out := make([]byte, seg.RawLength)
	if err := segio.Decompress(seg.Algo, m.raw[id], out); err != nil {
		return buffer.ByteBuffer{}, err
	}
	return buffer.New(out, 1), nil
}

func TestPruneStatsSoundness(t *testing.T) {
	sink := &memStatsSink{}
	w := layout.NewChunkedLayoutWriter(sink, layout.NewBtrBlocksCompressor(segio.AlgoNone), segio.AlgoNone, dtype.Primitive(dtype.I64, dtype.NonNullable), 3)

	zones := [][]int64{{1, 2, 3}, {10, 11, 12}, {20, 21, 22}}
	for _, z := range zones {
		if err := w.Push(i64Array(z)); err != nil {
			t.Fatal(err)
		}
	}
	lay, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	st, ok := lay.(*layout.StatsLayout)
	if !ok {
		t.Fatalf("expected *layout.StatsLayout, got %T", lay)
	}

	ctx := array.Default()
	filter := expr.BinaryExpr{Lhs: expr.Identity{}, Op: expr.OpGt, Rhs: expr.Literal{Value: scalar.NewI64(15)}}
	mask, err := pruningEvaluation(st, ctx, sink, 0, int64(st.Len()), filter)
	if err != nil {
		t.Fatal(err)
	}

	// Soundness check: for every row the filter actually selects, the
	// pruning mask must keep it (it may keep extra rows, never drop a
	// true one).
	full, err := decodeRange(st, ctx, sink, 0, int64(st.Len()), nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := filter.Evaluate(full)
	if err != nil {
		t.Fatal(err)
	}
	bits := mask.Bools()
	for i := 0; i < st.Len(); i++ {
		sc, err := array.ScalarAt(result, i)
		if err != nil {
			t.Fatal(err)
		}
		if !sc.IsNull() && sc.Value.Bool && !bits[i] {
			t.Fatalf("row %d: filter selected it but pruning excluded it (unsound)", i)
		}
	}
	// The first zone ([1,2,3], all <= 15) must be prunable.
	if bits[0] || bits[1] || bits[2] {
		t.Fatalf("expected the first zone to be pruned entirely, got bits %v", bits[:3])
	}
}
