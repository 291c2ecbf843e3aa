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
	"sort"
	"testing"

	"github.com/vortexdb/vortex/expr"
	"github.com/vortexdb/vortex/scalar"
)

func TestRequiredFieldsBareIdentity(t *testing.T) {
	if got := requiredFields(expr.Identity{}); got != nil {
		t.Fatalf("expected nil (need all) for a bare Identity, got %v", got)
	}
}

func TestRequiredFieldsGetItem(t *testing.T) {
	n := expr.GetItem{Field: "a", Child: expr.Identity{}}
	got := requiredFields(n)
	want := []string{"a"}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRequiredFieldsBinaryExprUnion(t *testing.T) {
	n := expr.BinaryExpr{
		Lhs: expr.GetItem{Field: "a", Child: expr.Identity{}},
		Op:  expr.OpGt,
		Rhs: expr.GetItem{Field: "b", Child: expr.Identity{}},
	}
	got := requiredFields(n)
	sort.Strings(got)
	want := []string{"a", "b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRequiredFieldsPack(t *testing.T) {
	n := expr.Pack{
		Names: []string{"x", "y"},
		Children: []expr.Node{
			expr.GetItem{Field: "x", Child: expr.Identity{}},
			expr.GetItem{Field: "y", Child: expr.Identity{}},
		},
	}
	got := requiredFields(n)
	sort.Strings(got)
	want := []string{"x", "y"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRequiredFieldsSelectInclude(t *testing.T) {
	n := expr.Select{Mode: expr.SelectInclude, Fields: []string{"p", "q"}}
	got := requiredFields(n)
	sort.Strings(got)
	want := []string{"p", "q"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRequiredFieldsSelectExcludeNeedsAll(t *testing.T) {
	n := expr.Select{Mode: expr.SelectExclude, Fields: []string{"p"}}
	if got := requiredFields(n); got != nil {
		t.Fatalf("expected nil (need all) for a Select in Exclude mode, got %v", got)
	}
}

func TestRequiredFieldsNestedGetItemForcesWholeOuterField(t *testing.T) {
	// GetItem{Field: "inner", Child: GetItem{Field: "outer", ...}} reads
	// off a nested struct, not the top-level scope directly: the outer
	// field must be decoded whole since this package only prunes the
	// scope's own top-level fields.
	n := expr.GetItem{Field: "inner", Child: expr.GetItem{Field: "outer", Child: expr.Identity{}}}
	got := requiredFields(n)
	want := []string{"outer"}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRequiredFieldsNil(t *testing.T) {
	got := requiredFields(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty, non-nil slice for a nil node, got %v", got)
	}
}

func TestRequiredFieldsBetween(t *testing.T) {
	n := expr.Between{
		Value: expr.GetItem{Field: "v", Child: expr.Identity{}},
		Lower: expr.Literal{Value: scalar.NewI64(1)},
		Upper: expr.Literal{Value: scalar.NewI64(9)},
	}
	got := requiredFields(n)
	want := []string{"v"}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
