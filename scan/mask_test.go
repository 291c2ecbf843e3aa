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

import "testing"

func TestRowMaskAllTrueSentinel(t *testing.T) {
	m := newAllTrue(10, 5)
	if m.Len() != 5 {
		t.Fatalf("expected Len 5, got %d", m.Len())
	}
	if !m.IsAllTrue() {
		t.Fatal("expected all-true sentinel to report IsAllTrue")
	}
	if m.IsAllFalse() {
		t.Fatal("did not expect all-true sentinel to report IsAllFalse")
	}
	if m.TrueCount() != 5 {
		t.Fatalf("expected TrueCount 5, got %d", m.TrueCount())
	}
	bools := m.Bools()
	if len(bools) != 5 {
		t.Fatalf("expected 5 bools, got %d", len(bools))
	}
	for i, b := range bools {
		if !b {
			t.Fatalf("bit %d: expected true", i)
		}
	}
}

func TestRowMaskAllFalse(t *testing.T) {
	m := allFalse(0, 3)
	if m.Len() != 3 {
		t.Fatalf("expected Len 3, got %d", m.Len())
	}
	if !m.IsAllFalse() {
		t.Fatal("expected IsAllFalse")
	}
	if m.IsAllTrue() {
		t.Fatal("did not expect IsAllTrue")
	}
	if m.TrueCount() != 0 {
		t.Fatalf("expected TrueCount 0, got %d", m.TrueCount())
	}
}

func TestRowMaskAnd(t *testing.T) {
	a := RowMask{Start: 0, n: 4, bits: []bool{true, true, false, true}}
	b := RowMask{Start: 0, n: 4, bits: []bool{true, false, false, true}}
	got := a.and(b)
	want := []bool{true, false, false, true}
	for i, w := range want {
		if got.Bools()[i] != w {
			t.Errorf("bit %d: got %v want %v", i, got.Bools()[i], w)
		}
	}

	// All-true sentinel on either side is the identity of `and`.
	allTrue := newAllTrue(0, 4)
	if sum := allTrue.and(a); sum.TrueCount() != a.TrueCount() {
		t.Fatalf("expected allTrue.and(a) == a, got TrueCount %d want %d", sum.TrueCount(), a.TrueCount())
	}
	if sum := a.and(allTrue); sum.TrueCount() != a.TrueCount() {
		t.Fatalf("expected a.and(allTrue) == a, got TrueCount %d want %d", sum.TrueCount(), a.TrueCount())
	}
}

func TestMaskFromSelectionInclude(t *testing.T) {
	sel := IncludeByIndex([]uint64{2, 5, 9})
	m := maskFromSelection(sel, 0, 10)
	want := map[int]bool{2: true, 5: true, 9: true}
	bools := m.Bools()
	for i, b := range bools {
		if b != want[i] {
			t.Errorf("row %d: got %v want %v", i, b, want[i])
		}
	}
}

func TestMaskFromSelectionIncludeWindowed(t *testing.T) {
	// A window starting mid-range should translate absolute indices to
	// range-relative bit positions correctly.
	sel := IncludeByIndex([]uint64{2, 5, 9, 12})
	m := maskFromSelection(sel, 5, 5) // covers absolute rows [5,10)
	bools := m.Bools()
	want := []bool{true, false, false, false, true} // rows 5 and 9
	for i, w := range want {
		if bools[i] != w {
			t.Errorf("row %d (abs %d): got %v want %v", i, 5+i, bools[i], w)
		}
	}
}

func TestMaskFromSelectionExclude(t *testing.T) {
	sel := ExcludeByIndex([]uint64{1, 3})
	m := maskFromSelection(sel, 0, 5)
	want := []bool{true, false, true, false, true}
	bools := m.Bools()
	for i, w := range want {
		if bools[i] != w {
			t.Errorf("row %d: got %v want %v", i, bools[i], w)
		}
	}
}

func TestMaskFromSelectionAll(t *testing.T) {
	m := maskFromSelection(All(), 100, 3)
	if !m.IsAllTrue() {
		t.Fatal("expected All() selection to produce an all-true mask")
	}
	if m.Start != 100 || m.Len() != 3 {
		t.Fatalf("expected Start=100 Len=3, got Start=%d Len=%d", m.Start, m.Len())
	}
}
