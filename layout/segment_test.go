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
	"testing"

	"github.com/vortexdb/vortex/internal/segio"
)

func TestSegmentMapAddGet(t *testing.T) {
	m := NewSegmentMap()
	id1 := m.Add(Segment{Offset: 0, Length: 10, Algo: segio.AlgoNone, RawLength: 10})
	id2 := m.Add(Segment{Offset: 10, Length: 20, Algo: segio.AlgoZstd, RawLength: 40})
	if id1 == id2 {
		t.Fatal("expected distinct segment ids")
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d", m.Len())
	}
	got := m.Get(id2)
	if got.Offset != 10 || got.Length != 20 {
		t.Fatalf("unexpected segment: %+v", got)
	}
}

func TestSegmentMapSortedByOffset(t *testing.T) {
	m := NewSegmentMap()
	idA := m.Add(Segment{Offset: 100})
	idB := m.Add(Segment{Offset: 10})
	idC := m.Add(Segment{Offset: 50})
	order := m.SortedByOffset()
	if len(order) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(order))
	}
	if order[0] != idB || order[1] != idC || order[2] != idA {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestSegmentEmpty(t *testing.T) {
	var s Segment
	if !s.Empty() {
		t.Fatal("expected zero-value Segment to be Empty")
	}
	s.Length = 1
	if s.Empty() {
		t.Fatal("expected non-zero length Segment not to be Empty")
	}
}
