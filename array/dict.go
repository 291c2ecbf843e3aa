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

	"github.com/dchest/siphash"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/vortexerr"
)

// DictArray is (codes, values): codes is an unsigned-integer array
// indexing into values, which may itself be any array of the dict's
// dtype (spec §4.3 Dict).
type DictArray struct {
	base
	codes  Array
	values Array
}

// NewDict constructs a DictArray. codes must be an unsigned integer
// array; every code must address a valid position in values.
func NewDict(codes, values Array) *DictArray {
	if codes.DType().Kind != dtype.KindPrimitive || codes.DType().Primitive.IsSigned() || codes.DType().Primitive.IsFloat() {
		panic("array: dict codes must be an unsigned integer array")
	}
	dt := values.DType()
	if codes.DType().Nullable() {
		dt = dt.AsNullable()
	}
	return &DictArray{base: newBase(dt, codes.Len(), codes.Validity()), codes: codes, values: values}
}

func (d *DictArray) EncodingID() string        { return EncodingDict }
func (d *DictArray) NChildren() int             { return 2 }
func (d *DictArray) Child(i int) Array {
	if i == 0 {
		return d.codes
	}
	return d.values
}

func (d *DictArray) ToCanonical() (Array, error) {
	vals := make([]scalar.Scalar, d.n)
	for i := 0; i < d.n; i++ {
		sc, err := ScalarAt(d, i)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return scalarsToArray(d.dt, vals), nil
}

func (d *DictArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	codeSc, err := ScalarAt(d.codes, i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if codeSc.IsNull() {
		return scalar.NewNull(d.dt), nil
	}
	idx := int(codeSc.Value.Primitive.AsU64())
	if idx < 0 || idx >= d.values.Len() {
		return scalar.Scalar{}, fmt.Errorf("array: dict code %d out of bounds: %w", idx, vortexerr.OutOfBounds)
	}
	return ScalarAt(d.values, idx)
}

func (d *DictArray) SliceKernel(start, stop int) (Array, error) {
	slicedCodes, err := Slice(d.codes, start, stop)
	if err != nil {
		return nil, err
	}
	return NewDict(slicedCodes, d.values), nil
}

func (d *DictArray) TakeKernel(indices Array) (Array, error) {
	takenCodes, err := Take(d.codes, indices)
	if err != nil {
		return nil, err
	}
	return NewDict(takenCodes, d.values), nil
}

func (d *DictArray) FilterKernel(mask Array) (Array, error) {
	filteredCodes, err := Filter(d.codes, mask)
	if err != nil {
		return nil, err
	}
	return NewDict(filteredCodes, d.values), nil
}

// dictHashKey hashes a string value with siphash under a fixed key,
// for deduplicating values when building a dictionary. Nothing in the
// module calls it; layout/strategy.go deduplicates by scalar.Marshal
// bytes instead.
func dictHashKey(s string) uint64 {
	return siphash.Hash(0x0ddc0ffeebadf00d, 0x1234567890abcdef, []byte(s))
}

func (d *DictArray) Metadata() []byte { return nil }

func buildDict(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("array: dict expects 2 children, got %d: %w", len(children), vortexerr.InvalidArgument)
	}
	return NewDict(children[0], children[1]), nil
}
