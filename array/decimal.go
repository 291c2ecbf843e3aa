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

// DecimalArray stores fixed-point decimal values as unscaled integers
// in a native-width buffer whose integer PType is given explicitly by
// the caller, not derived from the (precision, scale) pair (spec §4.3
// Decimal). It is its own canonical encoding, distinct from Primitive.
type DecimalArray struct {
	base
	pt  dtype.PType // storage width: I32, I64 or I128-as-two-I64 (I64 used here)
	buf buffer.ByteBuffer
}

func NewDecimal(dt dtype.DecimalDType, storage dtype.PType, buf buffer.ByteBuffer, length int, n dtype.Nullability, valid Validity) *DecimalArray {
	return &DecimalArray{base: newBase(dtype.Decimal(dt.Precision, dt.Scale, n), length, valid), pt: storage, buf: buf}
}

func (d *DecimalArray) EncodingID() string { return EncodingDecimal }

func (d *DecimalArray) unscaledAt(i int) int64 {
	w := d.pt.ByteWidth()
	raw := d.buf.Bytes()[i*w : i*w+w]
	var v uint64
	for k := 0; k < w; k++ {
		v |= uint64(raw[k]) << (8 * k)
	}
	if w < 8 {
		shift := uint(64 - 8*w)
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

func (d *DecimalArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	if !d.valid.IsValid(i) {
		return scalar.NewNull(d.dt), nil
	}
	return scalar.NewPrimitive(scalar.PValue{PType: d.pt, Bits: uint64(d.unscaledAt(i))}, d.dt.Null), nil
}

func (d *DecimalArray) ToCanonical() (Array, error) { return d, nil }

func (d *DecimalArray) SliceKernel(start, stop int) (Array, error) {
	w := d.pt.ByteWidth()
	return &DecimalArray{base: newBase(d.dt, stop-start, d.valid.Slice(start, stop)), pt: d.pt, buf: d.buf.Slice(start*w, stop*w)}, nil
}

func (d *DecimalArray) NBuffers() int                 { return 1 }
func (d *DecimalArray) Buffer(i int) buffer.ByteBuffer { return d.buf }
func (d *DecimalArray) Metadata() []byte {
	return []byte{encodeValidityTag(d.valid), byte(d.pt), d.dt.Decimal.Precision, byte(d.dt.Decimal.Scale)}
}

func buildDecimal(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	if len(metadata) < 4 {
		return nil, fmt.Errorf("array: decimal metadata too short: %w", vortexerr.MalformedFile)
	}
	_, valid := splitValidityChild(metadata[0], length, children)
	pt := dtype.PType(metadata[1])
	return NewDecimal(dt.Decimal, pt, buffers[0], length, dt.Null, valid), nil
}

// ByteBoolArray stores one full byte (0 or non-zero) per boolean
// value, trading density for the ability to reinterpret the buffer as
// a native []byte without bit manipulation (spec §4.3 ByteBool).
type ByteBoolArray struct {
	base
	buf buffer.ByteBuffer
}

func NewByteBool(buf buffer.ByteBuffer, length int, n dtype.Nullability, valid Validity) *ByteBoolArray {
	return &ByteBoolArray{base: newBase(dtype.Bool(n), length, valid), buf: buf}
}

func (b *ByteBoolArray) EncodingID() string { return EncodingByteBool }

func (b *ByteBoolArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	if !b.valid.IsValid(i) {
		return scalar.NewNull(b.dt), nil
	}
	return scalar.NewBool(b.buf.Bytes()[i] != 0, b.dt.Null), nil
}

func (b *ByteBoolArray) ToCanonical() (Array, error) {
	bools := make([]bool, b.n)
	for i, v := range b.buf.Bytes()[:b.n] {
		bools[i] = v != 0
	}
	return NewBoolFromBools(bools, b.dt.Null, b.valid), nil
}

func (b *ByteBoolArray) SliceKernel(start, stop int) (Array, error) {
	return NewByteBool(b.buf.Slice(start, stop), stop-start, b.dt.Null, b.valid.Slice(start, stop)), nil
}

func (b *ByteBoolArray) NBuffers() int                 { return 1 }
func (b *ByteBoolArray) Buffer(i int) buffer.ByteBuffer { return b.buf }
func (b *ByteBoolArray) Metadata() []byte               { return []byte{encodeValidityTag(b.valid)} }

func buildByteBool(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	if len(metadata) < 1 {
		return nil, fmt.Errorf("array: bytebool metadata too short: %w", vortexerr.MalformedFile)
	}
	_, valid := splitValidityChild(metadata[0], length, children)
	return NewByteBool(buffers[0], length, dt.Null, valid), nil
}

// ExtensionArray wraps a storage array with the logical ExtDType
// identity; its public contract (scalar_at, slice, ...) always
// reports the extension dtype while every kernel delegates to the
// storage array (spec §4.3 Extension, §2 "logical vs physical").
type ExtensionArray struct {
	base
	storage Array
}

func NewExtension(dt dtype.DType, storage Array) *ExtensionArray {
	return &ExtensionArray{base: newBase(dt, storage.Len(), storage.Validity()), storage: storage}
}

func (e *ExtensionArray) EncodingID() string { return EncodingExtension }
func (e *ExtensionArray) NChildren() int      { return 1 }
func (e *ExtensionArray) Child(i int) Array   { return e.storage }

// Storage returns the underlying physical array.
func (e *ExtensionArray) Storage() Array { return e.storage }

func (e *ExtensionArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	sc, err := ScalarAt(e.storage, i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	sc.DType = e.dt
	return sc, nil
}

func (e *ExtensionArray) ToCanonical() (Array, error) {
	canonStorage, err := Canonicalize(e.storage)
	if err != nil {
		return nil, err
	}
	return NewExtension(e.dt, canonStorage), nil
}

func (e *ExtensionArray) SliceKernel(start, stop int) (Array, error) {
	sliced, err := Slice(e.storage, start, stop)
	if err != nil {
		return nil, err
	}
	return NewExtension(e.dt, sliced), nil
}

func (e *ExtensionArray) TakeKernel(indices Array) (Array, error) {
	taken, err := Take(e.storage, indices)
	if err != nil {
		return nil, err
	}
	return NewExtension(e.dt, taken), nil
}

func (e *ExtensionArray) FilterKernel(mask Array) (Array, error) {
	filtered, err := Filter(e.storage, mask)
	if err != nil {
		return nil, err
	}
	return NewExtension(e.dt, filtered), nil
}

func (e *ExtensionArray) IsSortedKernel(strict bool) (bool, error) {
	if strict {
		return IsStrictSorted(e.storage)
	}
	return IsSorted(e.storage)
}

func (e *ExtensionArray) Metadata() []byte { return nil }

func buildExtension(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("array: extension expects 1 child, got %d: %w", len(children), vortexerr.InvalidArgument)
	}
	return NewExtension(dt, children[0]), nil
}
