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

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/layout"
)

func flatStub(dt dtype.DType, length int) *layout.FlatLayout {
	return layout.NewFlat(dt, length, nil, nil)
}

func TestPartitionFlatNoSelection(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	root := flatStub(dt, 10)
	ranges := partition(root, All())
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d: %v", len(ranges), ranges)
	}
	if ranges[0] != (RowRange{Start: 0, End: 10}) {
		t.Fatalf("expected [0,10), got %v", ranges[0])
	}
}

func TestPartitionChunkBoundaries(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	root := layout.NewChunked(dt, []layout.Layout{
		flatStub(dt, 3),
		flatStub(dt, 3),
		flatStub(dt, 3),
	}, nil)
	ranges := partition(root, All())
	want := []RowRange{{0, 3}, {3, 6}, {6, 9}}
	if len(ranges) != len(want) {
		t.Fatalf("expected %v, got %v", want, ranges)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d: got %v want %v", i, ranges[i], want[i])
		}
	}
}

func TestPartitionUnionsSelectionBoundaries(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	root := flatStub(dt, 10)
	sel := IncludeByIndex([]uint64{4})
	ranges := partition(root, sel)
	// The selection boundary at row 4 (and 5) must split the otherwise
	// single [0,10) flat range.
	want := []RowRange{{0, 4}, {4, 5}, {5, 10}}
	if len(ranges) != len(want) {
		t.Fatalf("expected %v, got %v", want, ranges)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d: got %v want %v", i, ranges[i], want[i])
		}
	}
}

func TestPartitionEmptyLayout(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	root := flatStub(dt, 0)
	if ranges := partition(root, All()); ranges != nil {
		t.Fatalf("expected no ranges for an empty layout, got %v", ranges)
	}
}

func TestRowRangeLen(t *testing.T) {
	r := RowRange{Start: 3, End: 9}
	if r.Len() != 6 {
		t.Fatalf("expected Len 6, got %d", r.Len())
	}
}
