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
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
)

// StructArray is the canonical encoding for dtype.Struct: an ordered
// list of equal-length field arrays plus struct-level validity.
type StructArray struct {
	base
	names  []string
	fields []Array
}

// NewStruct constructs a StructArray. All fields must share the same
// length, which becomes the struct's length.
func NewStruct(names []string, fields []Array, n dtype.Nullability, valid Validity) *StructArray {
	if len(names) != len(fields) {
		panic("array: struct names/fields length mismatch")
	}
	length := 0
	if len(fields) > 0 {
		length = fields[0].Len()
		for _, f := range fields[1:] {
			if f.Len() != length {
				panic("array: struct fields must share length")
			}
		}
	}
	types := make([]dtype.DType, len(fields))
	for i, f := range fields {
		types[i] = f.DType()
	}
	dt := dtype.Struct(names, types, n)
	return &StructArray{base: newBase(dt, length, valid), names: names, fields: fields}
}

func (s *StructArray) EncodingID() string        { return EncodingStruct }
func (s *StructArray) NChildren() int             { return len(s.fields) }
func (s *StructArray) Child(i int) Array          { return s.fields[i] }
func (s *StructArray) ToCanonical() (Array, error) { return s, nil }

func (s *StructArray) Metadata() []byte { return []byte{encodeValidityTag(s.valid)} }

func buildStruct(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	fields, valid := splitValidityChild(metadata[0], length, children)
	return &StructArray{base: newBase(dt, length, valid), names: dt.Struct.Names, fields: fields}, nil
}

// Field returns the named field array, or nil if absent.
func (s *StructArray) Field(name string) Array {
	for i, n := range s.names {
		if n == name {
			return s.fields[i]
		}
	}
	return nil
}

func (s *StructArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	vals := make([]scalar.ScalarValue, len(s.fields))
	for k, f := range s.fields {
		sc, err := ScalarAt(f, i)
		if err != nil {
			return scalar.Scalar{}, err
		}
		vals[k] = sc.Value
	}
	return scalar.Scalar{DType: s.dt, Value: scalar.ScalarValue{Kind: scalar.ValueStruct, Struct: vals}}, nil
}

func (s *StructArray) SliceKernel(start, stop int) (Array, error) {
	newFields := make([]Array, len(s.fields))
	for i, f := range s.fields {
		sliced, err := Slice(f, start, stop)
		if err != nil {
			return nil, err
		}
		newFields[i] = sliced
	}
	return &StructArray{base: newBase(s.dt, stop-start, s.valid.Slice(start, stop)), names: s.names, fields: newFields}, nil
}

func (s *StructArray) TakeKernel(indices Array) (Array, error) {
	newFields := make([]Array, len(s.fields))
	for i, f := range s.fields {
		taken, err := Take(f, indices)
		if err != nil {
			return nil, err
		}
		newFields[i] = taken
	}
	v := AllValid(indices.Len())
	if s.dt.Nullable() {
		validOut := make([]bool, indices.Len())
		for j := 0; j < indices.Len(); j++ {
			sc, err := ScalarAt(indices, j)
			if err != nil {
				return nil, err
			}
			if !sc.IsNull() {
				idx := int(sc.Value.Primitive.AsU64())
				validOut[j] = s.valid.IsValid(idx)
			}
		}
		v = validityFromBools(validOut)
	}
	return &StructArray{base: newBase(s.dt, indices.Len(), v), names: s.names, fields: newFields}, nil
}

func (s *StructArray) FilterKernel(mask Array) (Array, error) {
	newFields := make([]Array, len(s.fields))
	for i, f := range s.fields {
		filtered, err := Filter(f, mask)
		if err != nil {
			return nil, err
		}
		newFields[i] = filtered
	}
	n := popcount(mask)
	v := AllValid(n)
	if s.dt.Nullable() {
		vmask, err := Filter(validityArrayOf(s.valid, s.n), mask)
		if err == nil {
			v = FromBoolArray(vmask)
		}
	}
	return &StructArray{base: newBase(s.dt, n, v), names: s.names, fields: newFields}, nil
}

func validityArrayOf(v Validity, length int) Array {
	if m, ok := v.MaskArray(); ok {
		return m
	}
	valid := make([]bool, length)
	for i := range valid {
		valid[i] = v.IsValid(i)
	}
	return NewBoolFromBools(valid, dtype.NonNullable, AllValid(length))
}
