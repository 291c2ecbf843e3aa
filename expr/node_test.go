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

package expr

import (
	"testing"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
)

func u64Array(vals []uint64) array.Array {
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		for k := 0; k < 8; k++ {
			buf[i*8+k] = byte(v >> (8 * k))
		}
	}
	return array.NewPrimitive(dtype.U64, buffer.New(buf, 8), len(vals), dtype.NonNullable, array.AllValid(len(vals)))
}

func TestBinaryExprCompare(t *testing.T) {
	scope := u64Array([]uint64{1, 2, 3, 4, 5})
	expr := BinaryExpr{Lhs: Identity{}, Op: OpGt, Rhs: Literal{Value: scalar.NewU64(3)}}
	out, err := expr.Evaluate(scope)
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, false, false, true, true}
	for i, w := range want {
		sc, err := array.ScalarAt(out, i)
		if err != nil {
			t.Fatal(err)
		}
		if sc.Value.Bool != w {
			t.Errorf("row %d: got %v want %v", i, sc.Value.Bool, w)
		}
	}
}

func TestMatchBetween(t *testing.T) {
	n := BinaryExpr{
		Lhs: BinaryExpr{Lhs: Identity{}, Op: OpGte, Rhs: Literal{Value: scalar.NewU64(2)}},
		Op:  OpAnd,
		Rhs: BinaryExpr{Lhs: Identity{}, Op: OpLt, Rhs: Literal{Value: scalar.NewU64(5)}},
	}
	out, changed := ApplyBottomUp(MatchBetween(), n)
	if !changed {
		t.Fatal("expected MatchBetween to report a change")
	}
	b, ok := out.(Between)
	if !ok {
		t.Fatalf("expected Between node, got %T", out)
	}
	scope := u64Array([]uint64{1, 2, 3, 4, 5, 6})
	result, err := b.Evaluate(scope)
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, true, true, true, false, false}
	for i, w := range want {
		sc, err := array.ScalarAt(result, i)
		if err != nil {
			t.Fatal(err)
		}
		if sc.Value.Bool != w {
			t.Errorf("row %d: got %v want %v", i, sc.Value.Bool, w)
		}
	}
}

func TestSplitConjunction(t *testing.T) {
	n := BinaryExpr{
		Lhs: BinaryExpr{Lhs: Identity{}, Op: OpGt, Rhs: Literal{Value: scalar.NewU64(1)}},
		Op:  OpAnd,
		Rhs: BinaryExpr{Lhs: Identity{}, Op: OpLt, Rhs: Literal{Value: scalar.NewU64(9)}},
	}
	parts := SplitConjunction(n)
	if len(parts) != 2 {
		t.Fatalf("expected 2 conjuncts, got %d", len(parts))
	}
}
