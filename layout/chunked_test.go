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

func flatStub(dt dtype.DType, length int) *FlatLayout {
	return NewFlat(dt, length, nil, nil)
}

func TestChunkedLayoutLocate(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	chunks := []Layout{flatStub(dt, 10), flatStub(dt, 5), flatStub(dt, 20)}
	c := NewChunked(dt, chunks, nil)
	if c.Len() != 35 {
		t.Fatalf("expected length 35, got %d", c.Len())
	}

	cases := []struct {
		row       int64
		wantChunk int
		wantRow   int64
	}{
		{0, 0, 0},
		{9, 0, 9},
		{10, 1, 0},
		{14, 1, 4},
		{15, 2, 0},
		{34, 2, 19},
	}
	for _, tc := range cases {
		gotChunk, gotRow := c.Locate(tc.row)
		if gotChunk != tc.wantChunk || gotRow != tc.wantRow {
			t.Errorf("Locate(%d) = (%d, %d), want (%d, %d)", tc.row, gotChunk, gotRow, tc.wantChunk, tc.wantRow)
		}
	}
}

func TestChunkedLayoutSplitPoints(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	c := NewChunked(dt, []Layout{flatStub(dt, 10), flatStub(dt, 5), flatStub(dt, 20)}, nil)
	got := c.SplitPoints()
	want := []int64{10, 15}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestChunkedLayoutMetadataRoundtrip(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	stats := flatStub(dtype.Struct(nil, nil, dtype.NonNullable), 1)
	c := NewChunked(dt, []Layout{flatStub(dt, 3)}, stats)

	metadata := c.Metadata()
	children := []ChildRef{
		{Kind: Chunk, Index: 0, RowOffset: 0, Layout: flatStub(dt, 3)},
		{Kind: Auxiliary, Name: "stats", Layout: stats},
	}
	rebuilt, err := buildChunked(dt, 3, metadata, children, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc, ok := rebuilt.(*ChunkedLayout)
	if !ok {
		t.Fatalf("expected *ChunkedLayout, got %T", rebuilt)
	}
	if rc.Stats() == nil {
		t.Fatal("expected stats to survive metadata roundtrip")
	}
}

func TestChunkedLayoutMetadataRoundtripNoStats(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	c := NewChunked(dt, []Layout{flatStub(dt, 3)}, nil)
	metadata := c.Metadata()
	children := []ChildRef{
		{Kind: Chunk, Index: 0, RowOffset: 0, Layout: flatStub(dt, 3)},
	}
	rebuilt, err := buildChunked(dt, 3, metadata, children, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc := rebuilt.(*ChunkedLayout)
	if rc.Stats() != nil {
		t.Fatal("expected no stats")
	}
}
