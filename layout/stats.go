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

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/ion"
)

// ZoneStatColumn names one optional column of a Stats layout's side
// table. The side table's own dtype is Struct{<present columns>},
// one row per zone (spec §4.7 "Stats").
type ZoneStatColumn string

const (
	ZoneMin                     ZoneStatColumn = "min"
	ZoneMax                     ZoneStatColumn = "max"
	ZoneSum                     ZoneStatColumn = "sum"
	ZoneNullCount               ZoneStatColumn = "null_count"
	ZoneUncompressedSizeInBytes ZoneStatColumn = "uncompressed_size_in_bytes"
)

// DefaultZoneSize is the default row count per zone (spec §4.7
// "configured zone size (e.g., 8192 rows)").
const DefaultZoneSize = 8192

// StatsLayout wraps a child layout and adds an auxiliary side-table
// layout holding per-zone statistics for the child at ZoneSize rows
// per zone.
type StatsLayout struct {
	child    Layout
	table    Layout
	zoneSize int
}

// NewStats wraps child with a per-zone statistics table built at
// zoneSize rows per zone.
func NewStats(child Layout, table Layout, zoneSize int) *StatsLayout {
	return &StatsLayout{child: child, table: table, zoneSize: zoneSize}
}

func (s *StatsLayout) EncodingID() string    { return EncodingStats }
func (s *StatsLayout) DType() dtype.DType    { return s.child.DType() }
func (s *StatsLayout) Len() int              { return s.child.Len() }
func (s *StatsLayout) Segments() []SegmentId { return nil }
func (s *StatsLayout) SplitPoints() []int64  { return s.child.SplitPoints() }

func (s *StatsLayout) Children() []ChildRef {
	return []ChildRef{
		{Kind: Transparent, Name: "data", Layout: s.child},
		{Kind: Auxiliary, Name: "stats", Layout: s.table},
	}
}

// Child returns the wrapped data layout.
func (s *StatsLayout) Child() Layout { return s.child }

// Table returns the per-zone statistics side-table layout.
func (s *StatsLayout) Table() Layout { return s.table }

// ZoneSize returns the configured row count per zone.
func (s *StatsLayout) ZoneSize() int { return s.zoneSize }

// ZoneCount returns the number of zones the child is divided into.
func (s *StatsLayout) ZoneCount() int {
	n := s.child.Len()
	if n == 0 {
		return 0
	}
	return (n + s.zoneSize - 1) / s.zoneSize
}

func (s *StatsLayout) Metadata() []byte {
	var st ion.Symtab
	var body ion.Buffer
	body.BeginStruct(-1)
	body.BeginField(st.Intern("zone_size"))
	body.WriteUint(uint64(s.zoneSize))
	body.EndStruct()

	var out ion.Buffer
	st.Marshal(&out, true)
	out.UnsafeAppend(body.Bytes())
	return out.Bytes()
}

func buildStats(dt dtype.DType, length int, metadata []byte, children []ChildRef, segments []SegmentId) (Layout, error) {
	zoneSize := DefaultZoneSize
	if len(metadata) > 0 {
		st := new(ion.Symtab)
		rest, err := st.Unmarshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("layout: stats: symtab: %w", err)
		}
		datum, _, err := ion.ReadDatum(st, rest)
		if err != nil {
			return nil, fmt.Errorf("layout: stats: datum: %w", err)
		}
		if s, ok := datum.Struct(); ok {
			if f, ok := s.FieldByName("zone_size"); ok {
				if v, ok := f.Value.Uint(); ok {
					zoneSize = int(v)
				}
			}
		}
	}
	var child, table Layout
	for _, ch := range children {
		switch ch.Kind {
		case Transparent:
			child = ch.Layout
		case Auxiliary:
			table = ch.Layout
		}
	}
	if child == nil {
		return nil, fmt.Errorf("layout: stats: missing data child")
	}
	return NewStats(child, table, zoneSize), nil
}
