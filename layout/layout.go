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
	"github.com/vortexdb/vortex/dtype"
)

// ChildKind tags how a child Layout relates to its parent (spec §4.7
// "Layout child types").
type ChildKind uint8

const (
	// Transparent children share the parent's schema and row offset,
	// e.g. an identity wrapper.
	Transparent ChildKind = iota
	// Auxiliary children are side data: a stats table, dictionary
	// values, zone maps. They do not carry a slice of the parent's own
	// rows.
	Auxiliary
	// Chunk children are disjoint, in-order row ranges of the parent.
	Chunk
	// Field children are a single struct field, sharing the parent's
	// row count.
	Field
)

func (k ChildKind) String() string {
	switch k {
	case Transparent:
		return "transparent"
	case Auxiliary:
		return "auxiliary"
	case Chunk:
		return "chunk"
	case Field:
		return "field"
	default:
		return "unknown"
	}
}

// ChildRef names one child Layout and the relationship it holds to
// its parent. Name is the field name for Field children, empty
// otherwise; Index/RowOffset are meaningful only for Chunk children.
type ChildRef struct {
	Kind      ChildKind
	Name      string
	Index     int
	RowOffset int64
	Layout    Layout
}

// Layout is the structural contract every standard layout (Flat,
// Chunked, Struct, Stats) and any future layout encoding satisfies: a
// node declares its own encoding id, dtype, row count, ordered
// children and referenced segments, plus an opaque metadata blob
// (spec §4.7).
type Layout interface {
	// EncodingID is the globally unique layout-encoding identifier
	// persisted in the file's layout-encoding registry.
	EncodingID() string
	// DType is the logical type this layout's rows decode to.
	DType() dtype.DType
	// Len is the layout's own row count.
	Len() int
	// Children returns this layout's ordered child references.
	Children() []ChildRef
	// Segments returns the SegmentIds this layout node directly
	// references (not including descendants').
	Segments() []SegmentId
	// Metadata returns the layout's opaque encoding-specific metadata.
	Metadata() []byte
	// SplitPoints returns the row offsets, relative to this layout's
	// own first row, at which the physical granularity changes (chunk
	// or zone boundaries) — see spec §4.8 "Row-range partitioning".
	// The returned offsets are strictly ascending and exclude 0 and
	// Len().
	SplitPoints() []int64
}

// Builder reconstructs a Layout of one encoding from its serialized
// parts, resolving child layouts (already reconstructed, in Children
// order) and segment ids.
type Builder func(dt dtype.DType, length int, metadata []byte, children []ChildRef, segments []SegmentId) (Layout, error)
