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

// drainInts pulls every chunk out of st and flattens the result into
// a single []int64, for assertions that don't care about chunk
// boundaries in the output stream.
func drainInts(t *testing.T, st *Stream) []int64 {
	t.Helper()
	var out []int64
	for {
		a, ok, err := st.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			return out
		}
		for i := 0; i < a.Len(); i++ {
			sc, err := array.ScalarAt(a, i)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, sc.Value.Primitive.AsI64())
		}
	}
}

func i32Flat(sink *memStatsSink, vals []int32) layout.Layout {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		for k := 0; k < 4; k++ {
			buf[i*4+k] = byte(uint32(v) >> (8 * k))
		}
	}
	a := array.NewPrimitive(dtype.I32, buffer.New(buf, 4), len(vals), dtype.NonNullable, array.AllValid(len(vals)))
	fl, err := layout.WriteFlat(sink, layout.NewBtrBlocksCompressor(segio.AlgoNone), segio.AlgoNone, a)
	if err != nil {
		panic(err)
	}
	return fl
}

func TestScanFlatFull(t *testing.T) {
	sink := &memStatsSink{}
	root := i32Flat(sink, []int32{1, 2, 3, 4, 5})
	s := New(root, sink, array.Default())
	got := drainInts(t, s.IntoArrayStream())
	want := []int64{1, 2, 3, 4, 5}
	assertInts(t, got, want)
}

func TestScanFlatFilter(t *testing.T) {
	sink := &memStatsSink{}
	root := i32Flat(sink, []int32{1, 2, 3, 4, 5})
	filter := expr.BinaryExpr{Lhs: expr.Identity{}, Op: expr.OpGt, Rhs: expr.Literal{Value: scalar.NewI64(3)}}
	s := New(root, sink, array.Default()).Filter(filter)
	got := drainInts(t, s.IntoArrayStream())
	want := []int64{4, 5}
	assertInts(t, got, want)
}

func TestScanFlatFilterAndProject(t *testing.T) {
	sink := &memStatsSink{}
	root := i32Flat(sink, []int32{1, 2, 3, 4, 5})
	filter := expr.BinaryExpr{Lhs: expr.Identity{}, Op: expr.OpGt, Rhs: expr.Literal{Value: scalar.NewI64(3)}}
	projection := expr.BinaryExpr{Lhs: expr.Identity{}, Op: expr.OpLt, Rhs: expr.Literal{Value: scalar.NewI64(5)}}
	s := New(root, sink, array.Default()).Filter(filter).Project(projection)

	st := s.IntoArrayStream()
	var got []bool
	for {
		a, ok, err := st.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		for i := 0; i < a.Len(); i++ {
			sc, err := array.ScalarAt(a, i)
			if err != nil {
				t.Fatal(err)
			}
			got = append(got, sc.Value.Bool)
		}
	}
	want := []bool{true, false}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestScanChunkedSelectionAcrossBoundary(t *testing.T) {
	sink := &memStatsSink{}
	w := layout.NewChunkedLayoutWriter(sink, layout.NewBtrBlocksCompressor(segio.AlgoNone), segio.AlgoNone, dtype.Primitive(dtype.I64, dtype.NonNullable), 0)
	for _, chunk := range [][]int64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}} {
		if err := w.Push(i64Array(chunk)); err != nil {
			t.Fatal(err)
		}
	}
	lay, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}

	sel := IncludeByIndex([]uint64{0, 4, 8})
	s := New(lay, sink, array.Default()).Select(sel)
	got := drainInts(t, s.IntoArrayStream())
	want := []int64{1, 5, 9}
	assertInts(t, got, want)
}

func TestScanEmptyStreamOnAllFalseSelection(t *testing.T) {
	sink := &memStatsSink{}
	root := i32Flat(sink, []int32{1, 2, 3})
	s := New(root, sink, array.Default()).Select(ExcludeByIndex([]uint64{0, 1, 2}))
	got := drainInts(t, s.IntoArrayStream())
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %v", got)
	}
}

func assertInts(t *testing.T, got, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %d want %d", i, got[i], want[i])
		}
	}
}
