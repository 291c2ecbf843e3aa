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
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/vortexerr"
)

// FoRArray is frame-of-reference encoding: every logical value equals
// reference + encoded[i], where encoded is a narrower-width primitive
// child chosen so that reference+encoded never overflows the logical
// dtype (spec §4.3 FoR).
type FoRArray struct {
	base
	encoded   Array // unsigned primitive, same length
	reference scalar.Scalar
}

func NewFoR(encoded Array, reference scalar.Scalar, dt dtype.DType) *FoRArray {
	return &FoRArray{base: newBase(dt, encoded.Len(), encoded.Validity()), encoded: encoded, reference: reference}
}

func (f *FoRArray) EncodingID() string { return EncodingFoR }
func (f *FoRArray) NChildren() int      { return 1 }
func (f *FoRArray) Child(i int) Array   { return f.encoded }

func (f *FoRArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	sc, err := ScalarAt(f.encoded, i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if sc.IsNull() {
		return scalar.NewNull(f.dt), nil
	}
	return addReference(sc, f.reference, f.dt)
}

func addReference(encoded, reference scalar.Scalar, dt dtype.DType) (scalar.Scalar, error) {
	pt := dt.Primitive
	if pt.IsFloat() {
		return scalar.NewF64(encoded.Value.Primitive.AsF64() + reference.Value.Primitive.AsF64()).Cast(dt)
	}
	if pt.IsSigned() {
		v := reference.Value.Primitive.AsI64() + encoded.Value.Primitive.AsI64()
		return scalar.NewI64(v).Cast(dt)
	}
	v := reference.Value.Primitive.AsU64() + encoded.Value.Primitive.AsU64()
	return scalar.NewU64(v).Cast(dt)
}

func (f *FoRArray) ToCanonical() (Array, error) {
	w := f.dt.Primitive.ByteWidth()
	out := make([]byte, f.n*w)
	for i := 0; i < f.n; i++ {
		sc, err := ScalarAt(f, i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			continue
		}
		bits := sc.Value.Primitive.Bits
		for k := 0; k < w; k++ {
			out[i*w+k] = byte(bits >> (8 * k))
		}
	}
	return NewPrimitive(f.dt.Primitive, buffer.New(out, w), f.n, f.dt.Null, f.valid), nil
}

// SliceKernel is O(1): the child is re-sliced (typically itself an
// O(1) BitPacked slice) and the shared reference is untouched.
func (f *FoRArray) SliceKernel(start, stop int) (Array, error) {
	sliced, err := Slice(f.encoded, start, stop)
	if err != nil {
		return nil, err
	}
	return NewFoR(sliced, f.reference, f.dt), nil
}

func (f *FoRArray) TakeKernel(indices Array) (Array, error) {
	taken, err := Take(f.encoded, indices)
	if err != nil {
		return nil, err
	}
	return NewFoR(taken, f.reference, f.dt), nil
}

func (f *FoRArray) FilterKernel(mask Array) (Array, error) {
	filtered, err := Filter(f.encoded, mask)
	if err != nil {
		return nil, err
	}
	return NewFoR(filtered, f.reference, f.dt), nil
}

func (f *FoRArray) IsSortedKernel(strict bool) (bool, error) {
	if strict {
		return IsStrictSorted(f.encoded)
	}
	return IsSorted(f.encoded)
}

func (f *FoRArray) Metadata() []byte {
	return scalar.Marshal(f.reference)
}

func buildFoR(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("array: for expects 1 child, got %d: %w", len(children), vortexerr.InvalidArgument)
	}
	ref, err := scalar.Unmarshal(dt, metadata)
	if err != nil {
		return nil, err
	}
	return NewFoR(children[0], ref, dt), nil
}
