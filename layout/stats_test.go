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

	"github.com/vortexdb/vortex/dtype"
)

func TestStatsLayoutZoneCount(t *testing.T) {
	i64 := dtype.Primitive(dtype.I64, dtype.NonNullable)
	child := flatStub(i64, 20000)
	table := flatStub(dtype.Struct(nil, nil, dtype.NonNullable), 3)
	s := NewStats(child, table, DefaultZoneSize)

	if s.ZoneSize() != DefaultZoneSize {
		t.Fatalf("expected zone size %d, got %d", DefaultZoneSize, s.ZoneSize())
	}
	want := (20000 + DefaultZoneSize - 1) / DefaultZoneSize
	if s.ZoneCount() != want {
		t.Fatalf("expected %d zones, got %d", want, s.ZoneCount())
	}
	if s.Len() != 20000 {
		t.Fatalf("expected length 20000, got %d", s.Len())
	}
}

func TestStatsLayoutMetadataRoundtrip(t *testing.T) {
	i64 := dtype.Primitive(dtype.I64, dtype.NonNullable)
	child := flatStub(i64, 100)
	table := flatStub(dtype.Struct(nil, nil, dtype.NonNullable), 1)
	s := NewStats(child, table, 4096)

	metadata := s.Metadata()
	children := []ChildRef{
		{Kind: Transparent, Name: "data", Layout: child},
		{Kind: Auxiliary, Name: "stats", Layout: table},
	}
	rebuilt, err := buildStats(i64, 100, metadata, children, nil)
	if err != nil {
		t.Fatal(err)
	}
	rs, ok := rebuilt.(*StatsLayout)
	if !ok {
		t.Fatalf("expected *StatsLayout, got %T", rebuilt)
	}
	if rs.ZoneSize() != 4096 {
		t.Fatalf("expected zone size 4096, got %d", rs.ZoneSize())
	}
}

func TestBuildStatsMissingDataChild(t *testing.T) {
	i64 := dtype.Primitive(dtype.I64, dtype.NonNullable)
	children := []ChildRef{
		{Kind: Auxiliary, Name: "stats", Layout: flatStub(i64, 1)},
	}
	if _, err := buildStats(i64, 100, nil, children, nil); err == nil {
		t.Fatal("expected an error when no data child is present")
	}
}
