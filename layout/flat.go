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

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/ion"
)

// FlatLayout is a leaf layout: it owns one or more segments holding
// an array subtree's buffers, framed by a preorder MessageNode list
// (spec §4.7 "Flat"). Decoding is lazy — Decode only runs when a
// caller actually needs the array.
type FlatLayout struct {
	dt       dtype.DType
	length   int
	nodes    []array.MessageNode
	segments []SegmentId
}

// NewFlat builds a FlatLayout directly from an already-frozen array
// subtree (see array.Freeze) and the SegmentIds its buffers were
// written to, in the same order.
func NewFlat(dt dtype.DType, length int, nodes []array.MessageNode, segments []SegmentId) *FlatLayout {
	return &FlatLayout{dt: dt, length: length, nodes: nodes, segments: segments}
}

func (f *FlatLayout) EncodingID() string    { return EncodingFlat }
func (f *FlatLayout) DType() dtype.DType    { return f.dt }
func (f *FlatLayout) Len() int              { return f.length }
func (f *FlatLayout) Children() []ChildRef  { return nil }
func (f *FlatLayout) Segments() []SegmentId { return f.segments }
func (f *FlatLayout) SplitPoints() []int64  { return nil }

// Metadata encodes the node list as an ion symtab followed by the
// datum it describes, the same two-part layout sneller's own trailer
// encoding uses (symtab marshaled first so Unmarshal can hand back
// the remaining datum bytes in one call).
func (f *FlatLayout) Metadata() []byte {
	var st ion.Symtab
	var body ion.Buffer
	array.EncodeMessageNodes(&body, &st, f.nodes)

	var out ion.Buffer
	st.Marshal(&out, true)
	out.UnsafeAppend(body.Bytes())
	return out.Bytes()
}

func decodeFlatMetadata(metadata []byte) ([]array.MessageNode, error) {
	st := new(ion.Symtab)
	rest, err := st.Unmarshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("layout: flat: symtab: %w", err)
	}
	datum, _, err := ion.ReadDatum(st, rest)
	if err != nil {
		return nil, fmt.Errorf("layout: flat: datum: %w", err)
	}
	return array.DecodeMessageNodes(datum)
}

func buildFlat(dt dtype.DType, length int, metadata []byte, children []ChildRef, segments []SegmentId) (Layout, error) {
	nodes, err := decodeFlatMetadata(metadata)
	if err != nil {
		return nil, err
	}
	return NewFlat(dt, length, nodes, segments), nil
}

// Decode reconstructs the array this layout describes, resolving its
// segments through res.
func (f *FlatLayout) Decode(ctx *array.Context, res SegmentResolver) (array.Array, error) {
	bufs := make([]buffer.ByteBuffer, len(f.segments))
	for i, id := range f.segments {
		b, err := res.Resolve(id)
		if err != nil {
			return nil, fmt.Errorf("layout: flat: resolving segment %d: %w", id, err)
		}
		bufs[i] = b
	}
	return array.Thaw(ctx, f.nodes, bufs)
}
