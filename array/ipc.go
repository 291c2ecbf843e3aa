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

package array

import (
	"fmt"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
)

// MessageNode describes one node of an array subtree serialized in
// preorder, the unit a Flat layout decodes lazily (spec §4.7
// "IPC-style message framing"). It names everything a Context.Build
// call needs except the node's own buffers/children, which are
// recovered positionally from the flat buffer list and the remainder
// of the node list.
type MessageNode struct {
	EncodingID string
	DType      dtype.DType
	Length     int
	Metadata   []byte
	NBuffers   int
	NChildren  int
}

// Freeze walks a in preorder, returning one MessageNode per array in
// the subtree (a itself first, then each child's subtree in order)
// and the flat concatenation of every node's owned buffers in the
// same order. The result is everything a Flat layout needs to place
// into segments.
func Freeze(a Array) ([]MessageNode, []buffer.ByteBuffer) {
	var nodes []MessageNode
	var buffers []buffer.ByteBuffer
	freeze(a, &nodes, &buffers)
	return nodes, buffers
}

func freeze(a Array, nodes *[]MessageNode, buffers *[]buffer.ByteBuffer) {
	*nodes = append(*nodes, MessageNode{
		EncodingID: a.EncodingID(),
		DType:      a.DType(),
		Length:     a.Len(),
		Metadata:   a.Metadata(),
		NBuffers:   a.NBuffers(),
		NChildren:  a.NChildren(),
	})
	for i := 0; i < a.NBuffers(); i++ {
		*buffers = append(*buffers, a.Buffer(i))
	}
	for i := 0; i < a.NChildren(); i++ {
		freeze(a.Child(i), nodes, buffers)
	}
}

// Thaw reconstructs the array subtree previously produced by Freeze,
// resolving each node's encoding against ctx. It consumes nodes and
// buffers from the front as it recurses, so it must be called once
// with the full slices returned by Freeze (or read back from a file
// in the same order).
func Thaw(ctx *Context, nodes []MessageNode, buffers []buffer.ByteBuffer) (Array, error) {
	a, _, _, err := thaw(ctx, nodes, buffers)
	return a, err
}

func thaw(ctx *Context, nodes []MessageNode, buffers []buffer.ByteBuffer) (Array, []MessageNode, []buffer.ByteBuffer, error) {
	if len(nodes) == 0 {
		return nil, nil, nil, fmt.Errorf("array: Thaw: ran out of message nodes")
	}
	n := nodes[0]
	nodes = nodes[1:]
	if len(buffers) < n.NBuffers {
		return nil, nil, nil, fmt.Errorf("array: Thaw: ran out of buffers for %s", n.EncodingID)
	}
	ownBuffers := buffers[:n.NBuffers]
	buffers = buffers[n.NBuffers:]

	children := make([]Array, n.NChildren)
	for i := 0; i < n.NChildren; i++ {
		var child Array
		var err error
		child, nodes, buffers, err = thaw(ctx, nodes, buffers)
		if err != nil {
			return nil, nil, nil, err
		}
		children[i] = child
	}
	a, err := ctx.Build(n.EncodingID, n.DType, n.Length, n.Metadata, ownBuffers, children)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, nodes, buffers, nil
}
