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
	"sort"

	"golang.org/x/exp/slices"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/vortexerr"
)

// RoaringBoolArray stores the sorted positions of the true bits of a
// (non-nullable) boolean column; membership tests are a binary search
// rather than a bit scan, which wins when true bits are sparse (spec
// §4.3 RoaringBool). Treated as a black-box index structure: the
// positions are kept as a plain sorted slice rather than an actual
// roaring bitmap container format.
type RoaringBoolArray struct {
	base
	trueBits []uint32
}

func NewRoaringBool(trueBits []uint32, length int) *RoaringBoolArray {
	return &RoaringBoolArray{base: newBase(dtype.Bool(dtype.NonNullable), length, AllValid(length)), trueBits: trueBits}
}

func (r *RoaringBoolArray) EncodingID() string { return EncodingRoaringBool }

func (r *RoaringBoolArray) isSet(i int) bool {
	_, found := slices.BinarySearch(r.trueBits, uint32(i))
	return found
}

func (r *RoaringBoolArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	return scalar.NewBool(r.isSet(i), dtype.NonNullable), nil
}

func (r *RoaringBoolArray) ToCanonical() (Array, error) {
	bools := make([]bool, r.n)
	for _, b := range r.trueBits {
		if int(b) < r.n {
			bools[b] = true
		}
	}
	return NewBoolFromBools(bools, dtype.NonNullable, AllValid(r.n)), nil
}

func (r *RoaringBoolArray) SliceKernel(start, stop int) (Array, error) {
	lo := sort.Search(len(r.trueBits), func(i int) bool { return r.trueBits[i] >= uint32(start) })
	hi := sort.Search(len(r.trueBits), func(i int) bool { return r.trueBits[i] >= uint32(stop) })
	out := make([]uint32, hi-lo)
	for k := lo; k < hi; k++ {
		out[k-lo] = r.trueBits[k] - uint32(start)
	}
	return NewRoaringBool(out, stop-start), nil
}

func (r *RoaringBoolArray) SumKernel() (scalar.Scalar, error) {
	return scalar.NewU64(uint64(len(r.trueBits))), nil
}

func (r *RoaringBoolArray) Metadata() []byte { return nil }
func (r *RoaringBoolArray) NBuffers() int     { return 1 }
func (r *RoaringBoolArray) Buffer(i int) buffer.ByteBuffer {
	u32 := make([]uint32, len(r.trueBits))
	copy(u32, r.trueBits)
	return buffer.FromSlice(u32)
}

func buildRoaringBool(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	bits := buffer.Typed[uint32](buffers[0])
	return NewRoaringBool(append([]uint32(nil), bits...), length), nil
}

// RoaringIntArray stores a sorted unsigned-integer column as a sorted
// positions-style container: values are monotonic and searched
// directly, avoiding a decode pass for membership/search_sorted (spec
// §4.3 RoaringInt). Black-box per spec's codec-internals non-goal.
type RoaringIntArray struct {
	base
	pt     dtype.PType
	values []uint64
}

func NewRoaringInt(pt dtype.PType, values []uint64, n dtype.Nullability) *RoaringIntArray {
	return &RoaringIntArray{base: newBase(dtype.Primitive(pt, n), len(values), AllValid(len(values))), pt: pt, values: values}
}

func (r *RoaringIntArray) EncodingID() string { return EncodingRoaringInt }

func (r *RoaringIntArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	return scalar.NewPrimitive(scalar.PValue{PType: r.pt, Bits: r.values[i]}, r.dt.Null), nil
}

func (r *RoaringIntArray) ToCanonical() (Array, error) {
	w := r.pt.ByteWidth()
	out := make([]byte, r.n*w)
	for i, v := range r.values {
		for k := 0; k < w; k++ {
			out[i*w+k] = byte(v >> (8 * k))
		}
	}
	return NewPrimitive(r.pt, buffer.New(out, w), r.n, r.dt.Null, r.valid), nil
}

func (r *RoaringIntArray) SliceKernel(start, stop int) (Array, error) {
	return NewRoaringInt(r.pt, r.values[start:stop], r.dt.Null), nil
}

func (r *RoaringIntArray) IsSortedKernel(strict bool) (bool, error) {
	for i := 1; i < len(r.values); i++ {
		if strict && r.values[i] <= r.values[i-1] {
			return false, nil
		}
		if !strict && r.values[i] < r.values[i-1] {
			return false, nil
		}
	}
	return true, nil
}

func (r *RoaringIntArray) SearchSortedKernel(value scalar.Scalar, side SearchSortedSide) (SearchSortedResult, error) {
	target := value.Value.Primitive.AsU64()
	idx := sort.Search(len(r.values), func(i int) bool {
		if side == SearchLeft {
			return r.values[i] >= target
		}
		return r.values[i] > target
	})
	found := idx < len(r.values) && r.values[idx] == target
	return SearchSortedResult{Found: found, Index: idx}, nil
}

func (r *RoaringIntArray) Metadata() []byte { return []byte{byte(r.pt)} }
func (r *RoaringIntArray) NBuffers() int     { return 1 }
func (r *RoaringIntArray) Buffer(i int) buffer.ByteBuffer { return buffer.FromSlice(r.values) }

func buildRoaringInt(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	if len(metadata) < 1 {
		return nil, fmt.Errorf("array: roaring_int metadata too short: %w", vortexerr.MalformedFile)
	}
	pt := dtype.PType(metadata[0])
	vals := buffer.Typed[uint64](buffers[0])
	return NewRoaringInt(pt, append([]uint64(nil), vals...), dt.Null), nil
}
