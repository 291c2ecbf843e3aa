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

// ListArray is the canonical encoding for dtype.List: a monotonic i64
// offsets buffer (length+1 entries) plus a flat element array.
type ListArray struct {
	base
	offsets buffer.ByteBuffer // []int64, length n+1
	values  Array
}

// NewList constructs a ListArray from int64 offsets (length n+1) and a
// flat values array.
func NewList(offsets []int64, values Array, n dtype.Nullability, valid Validity) *ListArray {
	length := len(offsets) - 1
	dt := dtype.List(values.DType(), n)
	return &ListArray{base: newBase(dt, length, valid), offsets: buffer.FromSlice(offsets), values: values}
}

func (l *ListArray) offsetSlice() []int64 { return buffer.Typed[int64](l.offsets) }

func (l *ListArray) EncodingID() string        { return EncodingList }
func (l *ListArray) NChildren() int             { return 1 }
func (l *ListArray) Child(i int) Array          { return l.values }
func (l *ListArray) ToCanonical() (Array, error) { return l, nil }

func (l *ListArray) Metadata() []byte { return []byte{encodeValidityTag(l.valid)} }

func (l *ListArray) NBuffers() int                    { return 1 }
func (l *ListArray) Buffer(i int) buffer.ByteBuffer    { return l.offsets }

func buildList(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	fixed, valid := splitValidityChild(metadata[0], length, children)
	offs := buffer.Typed[int64](buffers[0])
	return &ListArray{base: newBase(dt, length, valid), offsets: buffer.FromSlice(offs), values: fixed[0]}, nil
}

func (l *ListArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	offs := l.offsetSlice()
	start, stop := offs[i], offs[i+1]
	vals := make([]scalar.ScalarValue, 0, stop-start)
	for j := start; j < stop; j++ {
		sc, err := ScalarAt(l.values, int(j))
		if err != nil {
			return scalar.Scalar{}, err
		}
		vals = append(vals, sc.Value)
	}
	return scalar.Scalar{DType: l.dt, Value: scalar.ScalarValue{Kind: scalar.ValueList, List: vals}}, nil
}

func (l *ListArray) SliceKernel(start, stop int) (Array, error) {
	offs := l.offsetSlice()
	newOffsets := append([]int64(nil), offs[start:stop+1]...)
	return &ListArray{
		base:    newBase(l.dt, stop-start, l.valid.Slice(start, stop)),
		offsets: buffer.FromSlice(newOffsets),
		values:  l.values,
	}, nil
}

func (l *ListArray) TakeKernel(indices Array) (Array, error) {
	offs := l.offsetSlice()
	newOffsets := make([]int64, indices.Len()+1)
	var newValues []int
	for j := 0; j < indices.Len(); j++ {
		sc, err := ScalarAt(indices, j)
		if err != nil {
			return nil, err
		}
		newOffsets[j] = int64(len(newValues))
		if sc.IsNull() {
			continue
		}
		idx := int(sc.Value.Primitive.AsU64())
		for k := offs[idx]; k < offs[idx+1]; k++ {
			newValues = append(newValues, int(k))
		}
	}
	newOffsets[indices.Len()] = int64(len(newValues))
	idxArr := make([]uint64, len(newValues))
	for i, v := range newValues {
		idxArr[i] = uint64(v)
	}
	gathered, err := Take(l.values, NewPrimitive(dtype.U64, buffer.FromSlice(idxArr), len(idxArr), dtype.NonNullable, AllValid(len(idxArr))))
	if err != nil {
		return nil, err
	}
	return &ListArray{base: newBase(l.dt, indices.Len(), AllValid(indices.Len())), offsets: buffer.FromSlice(newOffsets), values: gathered}, nil
}
