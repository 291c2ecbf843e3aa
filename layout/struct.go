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
)

// StructLayout's children are Fields sharing the parent's row count;
// a validity child may additionally be present as an Auxiliary (spec
// §4.7 "Struct").
type StructLayout struct {
	dt       dtype.DType
	length   int
	names    []string
	fields   []Layout
	validity Layout // optional Auxiliary validity-mask child, nil if non-nullable
}

// NewStruct builds a StructLayout from field names/layouts sharing
// length rows, and an optional validity-mask layout.
func NewStruct(dt dtype.DType, length int, names []string, fields []Layout, validity Layout) *StructLayout {
	return &StructLayout{dt: dt, length: length, names: names, fields: fields, validity: validity}
}

func (s *StructLayout) EncodingID() string    { return EncodingStruct }
func (s *StructLayout) DType() dtype.DType    { return s.dt }
func (s *StructLayout) Len() int              { return s.length }
func (s *StructLayout) Segments() []SegmentId { return nil }
func (s *StructLayout) SplitPoints() []int64  { return nil }

func (s *StructLayout) Children() []ChildRef {
	refs := make([]ChildRef, 0, len(s.fields)+1)
	for i, f := range s.fields {
		refs = append(refs, ChildRef{Kind: Field, Name: s.names[i], Layout: f})
	}
	if s.validity != nil {
		refs = append(refs, ChildRef{Kind: Auxiliary, Name: "validity", Layout: s.validity})
	}
	return refs
}

// Validity returns the optional auxiliary validity-mask child, or nil
// if the struct is non-nullable.
func (s *StructLayout) Validity() Layout { return s.validity }

// Field returns the layout for the named field, or nil if absent.
func (s *StructLayout) Field(name string) Layout {
	for i, n := range s.names {
		if n == name {
			return s.fields[i]
		}
	}
	return nil
}

func (s *StructLayout) Metadata() []byte { return nil }

func buildStruct(dt dtype.DType, length int, metadata []byte, children []ChildRef, segments []SegmentId) (Layout, error) {
	var names []string
	var fields []Layout
	var validity Layout
	for _, ch := range children {
		switch ch.Kind {
		case Field:
			names = append(names, ch.Name)
			fields = append(fields, ch.Layout)
		case Auxiliary:
			if ch.Name == "validity" {
				validity = ch.Layout
			}
		default:
			return nil, fmt.Errorf("layout: struct: unexpected child kind %s", ch.Kind)
		}
	}
	return NewStruct(dt, length, names, fields, validity), nil
}
