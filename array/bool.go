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

// BoolArray is the canonical encoding for dtype.Bool: a packed bit
// buffer plus an in-first-byte bit offset, which lets Slice be O(1)
// without ever re-packing the buffer.
type BoolArray struct {
	base
	buf       buffer.ByteBuffer // packed bits, LSB-first within each byte
	bitOffset int
}

// NewBool constructs a BoolArray backed by a packed bit buffer. buf
// must contain at least bitOffset+length bits.
func NewBool(buf buffer.ByteBuffer, bitOffset, length int, n dtype.Nullability, valid Validity) *BoolArray {
	if buf.Len()*8 < bitOffset+length {
		panic(fmt.Sprintf("array: bool buffer too small for %d bits at offset %d", length, bitOffset))
	}
	return &BoolArray{base: newBase(dtype.Bool(n), length, valid), buf: buf, bitOffset: bitOffset}
}

// NewBoolFromBools packs a []bool into a fresh BoolArray.
func NewBoolFromBools(vals []bool, n dtype.Nullability, valid Validity) *BoolArray {
	packed := make([]byte, (len(vals)+7)/8)
	for i, v := range vals {
		if v {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	return NewBool(buffer.New(packed, 1), 0, len(vals), n, valid)
}

func (b *BoolArray) EncodingID() string { return EncodingBool }

func (b *BoolArray) Metadata() []byte {
	return []byte{encodeValidityTag(b.valid), byte(b.bitOffset)}
}

func (b *BoolArray) NBuffers() int                    { return 1 }
func (b *BoolArray) Buffer(i int) buffer.ByteBuffer    { return b.buf }

func buildBool(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	children, valid := splitValidityChild(metadata[0], length, children)
	_ = children
	bitOffset := int(metadata[1])
	return NewBool(buffers[0], bitOffset, length, dt.Null, valid), nil
}

func (b *BoolArray) bitAt(i int) bool {
	pos := b.bitOffset + i
	return b.buf.Bytes()[pos/8]&(1<<uint(pos%8)) != 0
}

func (b *BoolArray) ToCanonical() (Array, error) { return b, nil }

func (b *BoolArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	return scalar.NewBool(b.bitAt(i), b.dt.Null), nil
}

func (b *BoolArray) SliceKernel(start, stop int) (Array, error) {
	return NewBool(b.buf, b.bitOffset+start, stop-start, b.dt.Null, b.valid.Slice(start, stop)), nil
}

func (b *BoolArray) TakeKernel(indices Array) (Array, error) {
	out := make([]bool, indices.Len())
	validOut := make([]bool, indices.Len())
	for j := 0; j < indices.Len(); j++ {
		sc, err := ScalarAt(indices, j)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			validOut[j] = false
			continue
		}
		idx := int(sc.Value.Primitive.AsU64())
		if idx < 0 || idx >= b.n {
			return nil, fmt.Errorf("array: bool take index %d out of bounds: %w", idx, vortexerr.OutOfBounds)
		}
		out[j] = b.bitAt(idx)
		validOut[j] = b.valid.IsValid(idx)
	}
	n := b.dt.Null
	if indices.DType().Nullable() {
		n = dtype.Nullable
	}
	return NewBoolFromBools(out, n, validityFromBools(validOut)), nil
}

func (b *BoolArray) FilterKernel(mask Array) (Array, error) {
	out := make([]bool, 0, b.n)
	validOut := make([]bool, 0, b.n)
	for i := 0; i < b.n; i++ {
		sc, err := ScalarAt(mask, i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() || !sc.Value.Bool {
			continue
		}
		out = append(out, b.bitAt(i))
		validOut = append(validOut, b.valid.IsValid(i))
	}
	return NewBoolFromBools(out, b.dt.Null, validityFromBools(validOut)), nil
}

func (b *BoolArray) SumKernel() (scalar.Scalar, error) {
	var count uint64
	for i := 0; i < b.n; i++ {
		if b.valid.IsValid(i) && b.bitAt(i) {
			count++
		}
	}
	return scalar.NewPrimitive(scalar.PValue{PType: dtype.U64, Bits: count}, dtype.Nullable), nil
}

func (b *BoolArray) IsConstantKernel() (bool, error) {
	if b.n == 0 {
		return true, nil
	}
	first := b.bitAt(0)
	for i := 1; i < b.n; i++ {
		if b.bitAt(i) != first {
			return false, nil
		}
	}
	return true, nil
}

func validityFromBools(valid []bool) Validity {
	allValid := true
	for _, v := range valid {
		if !v {
			allValid = false
			break
		}
	}
	if allValid {
		return AllValid(len(valid))
	}
	return FromBoolArray(NewBoolFromBools(valid, dtype.NonNullable, AllValid(len(valid))))
}
