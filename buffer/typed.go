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

package buffer

import (
	"fmt"
	"unsafe"
)

// NativePType is implemented by the Go types that may back a typed
// Buffer[T]: the fixed-width native representations of dtype.PType.
type NativePType interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// Typed reinterprets a ByteBuffer as a slice of T without copying. It
// panics if the buffer's length is not a multiple of sizeof(T) or if
// the buffer's address does not satisfy the buffer's own declared
// alignment (T's alignment is not checked separately); both are
// programmer-invariant violations in a correctly constructed array,
// matching the "fatal" category of the error design (spec §7).
func Typed[T NativePType](b ByteBuffer) []T {
	var zero T
	width := int(unsafe.Sizeof(zero))
	if len(b.data)%width != 0 {
		panic(fmt.Sprintf("buffer: length %d is not a multiple of element width %d", len(b.data), width))
	}
	if !b.IsAligned() {
		panic("buffer: underlying memory does not satisfy declared alignment for typed reinterpretation")
	}
	n := len(b.data) / width
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), n)
}

// FromSlice packs a slice of T into a ByteBuffer, copying the bytes.
// The resulting buffer is aligned to sizeof(T).
func FromSlice[T NativePType](vals []T) ByteBuffer {
	var zero T
	width := int(unsafe.Sizeof(zero))
	if len(vals) == 0 {
		return Empty(width)
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*width)
	out := make([]byte, len(raw))
	copy(out, raw)
	return New(out, width)
}
