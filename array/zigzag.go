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

// ZigZagArray maps signed integers to their unsigned zigzag encoding
// so that small-magnitude values (positive or negative) pack densely
// under a downstream encoding such as BitPacked (spec §4.3 ZigZag).
type ZigZagArray struct {
	base
	encoded Array // unsigned integer child, same width class
	pt      dtype.PType
}

func NewZigZag(encoded Array, pt dtype.PType, n dtype.Nullability) *ZigZagArray {
	return &ZigZagArray{base: newBase(dtype.Primitive(pt, n), encoded.Len(), encoded.Validity()), encoded: encoded, pt: pt}
}

func (z *ZigZagArray) EncodingID() string { return EncodingZigZag }
func (z *ZigZagArray) NChildren() int      { return 1 }
func (z *ZigZagArray) Child(i int) Array   { return z.encoded }

func zigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func (z *ZigZagArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	sc, err := ScalarAt(z.encoded, i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if sc.IsNull() {
		return scalar.NewNull(z.dt), nil
	}
	signed := zigzagDecode(sc.Value.Primitive.AsU64())
	return scalar.NewI64(signed).Cast(z.dt)
}

func (z *ZigZagArray) ToCanonical() (Array, error) {
	w := z.pt.ByteWidth()
	out := make([]byte, z.n*w)
	for i := 0; i < z.n; i++ {
		sc, err := ScalarAt(z, i)
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
	return NewPrimitive(z.pt, buffer.New(out, w), z.n, z.dt.Null, z.valid), nil
}

func (z *ZigZagArray) SliceKernel(start, stop int) (Array, error) {
	sliced, err := Slice(z.encoded, start, stop)
	if err != nil {
		return nil, err
	}
	return NewZigZag(sliced, z.pt, z.dt.Null), nil
}

func (z *ZigZagArray) TakeKernel(indices Array) (Array, error) {
	taken, err := Take(z.encoded, indices)
	if err != nil {
		return nil, err
	}
	return NewZigZag(taken, z.pt, z.dt.Null), nil
}

func (z *ZigZagArray) FilterKernel(mask Array) (Array, error) {
	filtered, err := Filter(z.encoded, mask)
	if err != nil {
		return nil, err
	}
	return NewZigZag(filtered, z.pt, z.dt.Null), nil
}

func (z *ZigZagArray) Metadata() []byte { return []byte{byte(z.pt)} }

func buildZigZag(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("array: zigzag expects 1 child, got %d: %w", len(children), vortexerr.InvalidArgument)
	}
	return NewZigZag(children[0], dt.Primitive, dt.Null), nil
}
