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

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/ion"
)

// EncodeMessageNodes appends the ion encoding of nodes to dst, for
// storage as a Flat layout's metadata blob.
func EncodeMessageNodes(dst *ion.Buffer, st *ion.Symtab, nodes []MessageNode) {
	dst.BeginList(-1)
	for _, n := range nodes {
		dst.BeginStruct(-1)
		dst.BeginField(st.Intern("encoding_id"))
		dst.WriteString(n.EncodingID)
		dst.BeginField(st.Intern("dtype"))
		dtype.Encode(dst, st, n.DType)
		dst.BeginField(st.Intern("length"))
		dst.WriteUint(uint64(n.Length))
		dst.BeginField(st.Intern("metadata"))
		dst.WriteBlob(n.Metadata)
		dst.BeginField(st.Intern("n_buffers"))
		dst.WriteUint(uint64(n.NBuffers))
		dst.BeginField(st.Intern("n_children"))
		dst.WriteUint(uint64(n.NChildren))
		dst.EndStruct()
	}
	dst.EndList()
}

// DecodeMessageNodes parses a node list previously written by
// EncodeMessageNodes.
func DecodeMessageNodes(d ion.Datum) ([]MessageNode, error) {
	list, ok := d.List()
	if !ok {
		return nil, fmt.Errorf("array: DecodeMessageNodes: expected a list, got %v", d.Type())
	}
	var nodes []MessageNode
	var outerErr error
	err := list.Each(func(item ion.Datum) bool {
		s, ok := item.Struct()
		if !ok {
			outerErr = fmt.Errorf("array: DecodeMessageNodes: entry is not a struct")
			return false
		}
		var n MessageNode
		if f, ok := s.FieldByName("encoding_id"); ok {
			n.EncodingID, _ = f.Value.String()
		}
		if f, ok := s.FieldByName("dtype"); ok {
			dt, derr := dtype.Decode(f.Value)
			if derr != nil {
				outerErr = derr
				return false
			}
			n.DType = dt
		}
		if f, ok := s.FieldByName("length"); ok {
			l, _ := f.Value.Uint()
			n.Length = int(l)
		}
		if f, ok := s.FieldByName("metadata"); ok {
			n.Metadata, _ = f.Value.Blob()
		}
		if f, ok := s.FieldByName("n_buffers"); ok {
			v, _ := f.Value.Uint()
			n.NBuffers = int(v)
		}
		if f, ok := s.FieldByName("n_children"); ok {
			v, _ := f.Value.Uint()
			n.NChildren = int(v)
		}
		nodes = append(nodes, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	if outerErr != nil {
		return nil, outerErr
	}
	return nodes, nil
}
