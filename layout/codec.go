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

// EncodeTree writes l and its entire subtree as one ion struct value,
// the "root Layout (flatbuffer tree)" component of the footer (spec
// §4.7). Every node records its own encoding id, dtype, length,
// metadata, segment ids and children, so DecodeTree need never consult
// anything beyond the datum itself and a Context.
func EncodeTree(dst *ion.Buffer, st *ion.Symtab, l Layout) {
	dst.BeginStruct(-1)

	dst.BeginField(st.Intern("encoding"))
	dst.WriteString(l.EncodingID())

	dst.BeginField(st.Intern("dtype"))
	dtype.Encode(dst, st, l.DType())

	dst.BeginField(st.Intern("length"))
	dst.WriteUint(uint64(l.Len()))

	dst.BeginField(st.Intern("metadata"))
	dst.WriteBlob(l.Metadata())

	dst.BeginField(st.Intern("segments"))
	dst.BeginList(-1)
	for _, id := range l.Segments() {
		dst.WriteUint(uint64(id))
	}
	dst.EndList()

	dst.BeginField(st.Intern("children"))
	dst.BeginList(-1)
	for _, ch := range l.Children() {
		dst.BeginStruct(-1)
		dst.BeginField(st.Intern("kind"))
		dst.WriteString(ch.Kind.String())
		dst.BeginField(st.Intern("name"))
		dst.WriteString(ch.Name)
		dst.BeginField(st.Intern("index"))
		dst.WriteInt(int64(ch.Index))
		dst.BeginField(st.Intern("row_offset"))
		dst.WriteInt(ch.RowOffset)
		dst.BeginField(st.Intern("layout"))
		EncodeTree(dst, st, ch.Layout)
		dst.EndStruct()
	}
	dst.EndList()

	dst.EndStruct()
}

// DecodeTree reconstructs a Layout subtree from a datum produced by
// EncodeTree, resolving each node's encoding id against ctx.
func DecodeTree(ctx *Context, d ion.Datum) (Layout, error) {
	s, ok := d.Struct()
	if !ok {
		return nil, fmt.Errorf("layout: codec: expected struct, got %s", d.Type())
	}
	encodingField, ok := s.FieldByName("encoding")
	if !ok {
		return nil, fmt.Errorf("layout: codec: missing \"encoding\" field")
	}
	encodingID, _ := encodingField.Value.String()

	dtypeField, ok := s.FieldByName("dtype")
	if !ok {
		return nil, fmt.Errorf("layout: codec: missing \"dtype\" field")
	}
	dt, err := dtype.Decode(dtypeField.Value)
	if err != nil {
		return nil, fmt.Errorf("layout: codec: dtype: %w", err)
	}

	var length uint64
	if f, ok := s.FieldByName("length"); ok {
		length, _ = f.Value.Uint()
	}

	var metadata []byte
	if f, ok := s.FieldByName("metadata"); ok {
		metadata, _ = f.Value.Blob()
	}

	var segments []SegmentId
	if f, ok := s.FieldByName("segments"); ok {
		if list, ok := f.Value.List(); ok {
			var outerErr error
			list.Each(func(item ion.Datum) bool {
				v, ok := item.Uint()
				if !ok {
					outerErr = fmt.Errorf("layout: codec: segment id is not an integer")
					return false
				}
				segments = append(segments, SegmentId(v))
				return true
			})
			if outerErr != nil {
				return nil, outerErr
			}
		}
	}

	var children []ChildRef
	if f, ok := s.FieldByName("children"); ok {
		if list, ok := f.Value.List(); ok {
			var outerErr error
			list.Each(func(item ion.Datum) bool {
				cs, ok := item.Struct()
				if !ok {
					outerErr = fmt.Errorf("layout: codec: child is not a struct")
					return false
				}
				ref := ChildRef{}
				if kf, ok := cs.FieldByName("kind"); ok {
					kind, _ := kf.Value.String()
					ref.Kind, outerErr = parseChildKind(kind)
					if outerErr != nil {
						return false
					}
				}
				if nf, ok := cs.FieldByName("name"); ok {
					ref.Name, _ = nf.Value.String()
				}
				if ixf, ok := cs.FieldByName("index"); ok {
					idx, _ := ixf.Value.Int()
					ref.Index = int(idx)
				}
				if rf, ok := cs.FieldByName("row_offset"); ok {
					ref.RowOffset, _ = rf.Value.Int()
				}
				lf, ok := cs.FieldByName("layout")
				if !ok {
					outerErr = fmt.Errorf("layout: codec: child missing \"layout\" field")
					return false
				}
				childLayout, err := DecodeTree(ctx, lf.Value)
				if err != nil {
					outerErr = err
					return false
				}
				ref.Layout = childLayout
				children = append(children, ref)
				return true
			})
			if outerErr != nil {
				return nil, outerErr
			}
		}
	}

	return ctx.Build(encodingID, dt, int(length), metadata, children, segments)
}

func parseChildKind(s string) (ChildKind, error) {
	switch s {
	case "transparent":
		return Transparent, nil
	case "auxiliary":
		return Auxiliary, nil
	case "chunk":
		return Chunk, nil
	case "field":
		return Field, nil
	default:
		return 0, fmt.Errorf("layout: codec: unknown child kind %q", s)
	}
}
