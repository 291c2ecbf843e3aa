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

// fastLanesChunkLen is the fixed chunk size FastLanes-style bit
// packing operates over (spec §4.3 BitPacked).
const fastLanesChunkLen = 1024

// BitPackedArray packs fixed-width, sub-byte-width values into a
// dense bit buffer, 1024 elements per logical chunk, with an optional
// out-of-range Patches side array. Offset supports O(1) re-slicing
// without repacking (spec §4.3).
type BitPackedArray struct {
	base
	pt      dtype.PType
	bits    uint8
	buf     buffer.ByteBuffer // bit-packed little-endian, starting at bit 0
	offset  int               // in-chunk-buffer element offset
	patches *SparseArray       // optional out-of-range overrides, nil if none
}

// NewBitPacked constructs a BitPackedArray. buf must hold at least
// offset+length values at bits-per-value width.
func NewBitPacked(pt dtype.PType, bits uint8, buf buffer.ByteBuffer, offset, length int, n dtype.Nullability, valid Validity, patches *SparseArray) *BitPackedArray {
	return &BitPackedArray{base: newBase(dtype.Primitive(pt, n), length, valid), pt: pt, bits: bits, buf: buf, offset: offset, patches: patches}
}

func (b *BitPackedArray) EncodingID() string { return EncodingBitPacked }

func (b *BitPackedArray) rawAt(i int) uint64 {
	pos := (b.offset + i) * int(b.bits)
	var v uint64
	bitsLeft := int(b.bits)
	bitPos := 0
	byteIdx := pos / 8
	bitOff := uint(pos % 8)
	raw := b.buf.Bytes()
	for bitsLeft > 0 {
		avail := 8 - int(bitOff)
		take := avail
		if take > bitsLeft {
			take = bitsLeft
		}
		chunk := (uint64(raw[byteIdx]) >> bitOff) & ((1 << uint(take)) - 1)
		v |= chunk << uint(bitPos)
		bitPos += take
		bitsLeft -= take
		byteIdx++
		bitOff = 0
	}
	return v
}

func (b *BitPackedArray) patchAt(i int) (scalar.Scalar, bool) {
	if b.patches == nil {
		return scalar.Scalar{}, false
	}
	pos, ok := b.patches.patchPositionFor(i)
	if !ok {
		return scalar.Scalar{}, false
	}
	sc, err := ScalarAt(b.patches.values, pos)
	if err != nil {
		return scalar.Scalar{}, false
	}
	return sc, true
}

func (b *BitPackedArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	if sc, ok := b.patchAt(i); ok {
		return sc, nil
	}
	return scalar.NewPrimitive(scalar.PValue{PType: b.pt, Bits: b.rawAt(i)}, b.dt.Null), nil
}

func (b *BitPackedArray) ToCanonical() (Array, error) {
	w := b.pt.ByteWidth()
	out := make([]byte, b.n*w)
	for i := 0; i < b.n; i++ {
		sc, err := ScalarAt(b, i)
		if err != nil {
			return nil, err
		}
		bits := sc.Value.Primitive.Bits
		for k := 0; k < w; k++ {
			out[i*w+k] = byte(bits >> (8 * k))
		}
	}
	return NewPrimitive(b.pt, buffer.New(out, w), b.n, b.dt.Null, b.valid), nil
}

// SliceKernel is O(1): it only adjusts the in-chunk offset and length,
// never touching the packed buffer.
func (b *BitPackedArray) SliceKernel(start, stop int) (Array, error) {
	var slicedPatches *SparseArray
	if b.patches != nil {
		p, err := Slice(b.patches, start, stop)
		if err != nil {
			return nil, err
		}
		slicedPatches = p.(*SparseArray)
	}
	return NewBitPacked(b.pt, b.bits, b.buf, b.offset+start, stop-start, b.dt.Null, b.valid.Slice(start, stop), slicedPatches), nil
}

func (b *BitPackedArray) IsConstantKernel() (bool, error) {
	if b.n == 0 {
		return true, nil
	}
	if b.patches != nil {
		return false, nil
	}
	first := b.rawAt(0)
	for i := 1; i < b.n; i++ {
		if b.rawAt(i) != first {
			return false, nil
		}
	}
	return true, nil
}

func (b *BitPackedArray) Metadata() []byte {
	return []byte{encodeValidityTag(b.valid), byte(b.pt), b.bits, byte(b.offset)}
}

func (b *BitPackedArray) NBuffers() int                 { return 1 }
func (b *BitPackedArray) Buffer(i int) buffer.ByteBuffer { return b.buf }
func (b *BitPackedArray) NChildren() int {
	if b.patches != nil {
		return 1
	}
	return 0
}
func (b *BitPackedArray) Child(i int) Array { return b.patches }

func buildBitPacked(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	if len(metadata) < 4 {
		return nil, fmt.Errorf("array: bitpacked metadata too short: %w", vortexerr.MalformedFile)
	}
	fixed, valid := splitValidityChild(metadata[0], length, children)
	pt := dtype.PType(metadata[1])
	bits := metadata[2]
	offset := int(metadata[3])
	var patches *SparseArray
	if len(fixed) > 0 {
		patches = fixed[0].(*SparseArray)
	}
	return NewBitPacked(pt, bits, buffers[0], offset, length, dt.Null, valid, patches), nil
}
