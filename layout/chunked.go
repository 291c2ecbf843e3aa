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

	"golang.org/x/exp/slices"

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/ion"
)

// ChunkedLayout's children are Chunks in row order, with a
// stats-table auxiliary optionally attached (spec §4.7 "Chunked").
// Offsets is the prefix-sum row-offset table, the layout-tree
// counterpart of array.ChunkedArray.ChunkOffsets.
type ChunkedLayout struct {
	dt      dtype.DType
	chunks  []Layout
	offsets []int64 // len(chunks)+1, offsets[0]==0
	stats   Layout  // optional auxiliary stats-table child, nil if absent
}

// NewChunked builds a ChunkedLayout from same-dtype chunk layouts and
// an optional stats-table layout (nil if none).
func NewChunked(dt dtype.DType, chunks []Layout, stats Layout) *ChunkedLayout {
	offsets := make([]int64, len(chunks)+1)
	var total int64
	for i, c := range chunks {
		total += int64(c.Len())
		offsets[i+1] = total
	}
	return &ChunkedLayout{dt: dt, chunks: chunks, offsets: offsets, stats: stats}
}

func (c *ChunkedLayout) EncodingID() string  { return EncodingChunked }
func (c *ChunkedLayout) DType() dtype.DType  { return c.dt }
func (c *ChunkedLayout) Len() int            { return int(c.offsets[len(c.offsets)-1]) }
func (c *ChunkedLayout) Segments() []SegmentId { return nil }

func (c *ChunkedLayout) Children() []ChildRef {
	refs := make([]ChildRef, 0, len(c.chunks)+1)
	for i, ch := range c.chunks {
		refs = append(refs, ChildRef{Kind: Chunk, Index: i, RowOffset: c.offsets[i], Layout: ch})
	}
	if c.stats != nil {
		refs = append(refs, ChildRef{Kind: Auxiliary, Name: "stats", Layout: c.stats})
	}
	return refs
}

// SplitPoints reports every chunk boundary strictly between 0 and
// Len().
func (c *ChunkedLayout) SplitPoints() []int64 {
	if len(c.offsets) <= 2 {
		return nil
	}
	return append([]int64(nil), c.offsets[1:len(c.offsets)-1]...)
}

// Locate maps a logical row to (chunkIndex, rowWithinChunk) by binary
// search over the prefix sums, mirroring array.ChunkedArray.Locate.
func (c *ChunkedLayout) Locate(row int64) (chunkIndex int, rowInChunk int64) {
	idx, found := slices.BinarySearch(c.offsets, row)
	if !found {
		idx--
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.chunks) {
		idx = len(c.chunks) - 1
	}
	return idx, row - c.offsets[idx]
}

// Stats returns the auxiliary stats-table layout, or nil if absent.
func (c *ChunkedLayout) Stats() Layout { return c.stats }

func (c *ChunkedLayout) Metadata() []byte {
	var st ion.Symtab
	var body ion.Buffer
	body.BeginStruct(-1)
	body.BeginField(st.Intern("has_stats"))
	body.WriteBool(c.stats != nil)
	body.EndStruct()

	var out ion.Buffer
	st.Marshal(&out, true)
	out.UnsafeAppend(body.Bytes())
	return out.Bytes()
}

func buildChunked(dt dtype.DType, length int, metadata []byte, children []ChildRef, segments []SegmentId) (Layout, error) {
	hasStats := false
	if len(metadata) > 0 {
		st := new(ion.Symtab)
		rest, err := st.Unmarshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("layout: chunked: symtab: %w", err)
		}
		datum, _, err := ion.ReadDatum(st, rest)
		if err != nil {
			return nil, fmt.Errorf("layout: chunked: datum: %w", err)
		}
		if s, ok := datum.Struct(); ok {
			if f, ok := s.FieldByName("has_stats"); ok {
				hasStats, _ = f.Value.Bool()
			}
		}
	}
	var chunks []Layout
	var stats Layout
	for _, ch := range children {
		switch ch.Kind {
		case Chunk:
			chunks = append(chunks, ch.Layout)
		case Auxiliary:
			stats = ch.Layout
		}
	}
	if !hasStats {
		stats = nil
	}
	return NewChunked(dt, chunks, stats), nil
}
