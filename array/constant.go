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

// ConstantArray is (scalar, length): every position holds the same
// logical value. Most kernels are O(1). It is the array broadcast
// side permitted by Compare/Between (spec §4.2).
type ConstantArray struct {
	base
	Scalar scalar.Scalar
}

// NewConstant constructs a ConstantArray of the given length.
func NewConstant(s scalar.Scalar, length int) *ConstantArray {
	v := AllValid(length)
	if s.IsNull() {
		v = AllInvalid(length)
	}
	return &ConstantArray{base: newBase(s.DType.AsNullable(), length, v), Scalar: s}
}

func (c *ConstantArray) EncodingID() string { return EncodingConstant }

func (c *ConstantArray) Metadata() []byte { return scalar.Marshal(c.Scalar) }

func buildConstant(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	sc, err := scalar.Unmarshal(dt, metadata)
	if err != nil {
		return nil, err
	}
	return NewConstant(sc, length), nil
}

func (c *ConstantArray) ToCanonical() (Array, error) {
	switch c.dt.Kind {
	case dtype.KindBool:
		vals := make([]bool, c.n)
		if !c.Scalar.IsNull() {
			for i := range vals {
				vals[i] = c.Scalar.Value.Bool
			}
		}
		return NewBoolFromBools(vals, c.dt.Null, c.valid), nil
	case dtype.KindPrimitive:
		w := c.dt.Primitive.ByteWidth()
		buf := make([]byte, c.n*w)
		if !c.Scalar.IsNull() {
			one := make([]byte, w)
			bits := c.Scalar.Value.Primitive.Bits
			for k := 0; k < w; k++ {
				one[k] = byte(bits >> (8 * k))
			}
			for i := 0; i < c.n; i++ {
				copy(buf[i*w:(i+1)*w], one)
			}
		}
		return NewPrimitive(c.dt.Primitive, buffer.New(buf, w), c.n, c.dt.Null, c.valid), nil
	case dtype.KindUtf8, dtype.KindBinary:
		s := ""
		var b []byte
		if !c.Scalar.IsNull() {
			if c.dt.Kind == dtype.KindUtf8 {
				s = c.Scalar.Value.Str
			} else {
				b = c.Scalar.Value.Buffer
			}
		}
		if c.dt.Kind == dtype.KindBinary {
			s = string(b)
		}
		vals := make([]string, c.n)
		for i := range vals {
			vals[i] = s
		}
		return NewVarBinView(vals, c.dt.Kind, c.dt.Null, c.valid), nil
	default:
		return nil, notImplementedCanonical(c)
	}
}

func (c *ConstantArray) ScalarAtKernel(i int) (scalar.Scalar, error) { return c.Scalar, nil }

func (c *ConstantArray) SliceKernel(start, stop int) (Array, error) {
	return NewConstant(c.Scalar, stop-start), nil
}

func (c *ConstantArray) TakeKernel(indices Array) (Array, error) {
	return NewConstant(c.Scalar, indices.Len()), nil
}

func (c *ConstantArray) FilterKernel(mask Array) (Array, error) {
	n := popcount(mask)
	return NewConstant(c.Scalar, n), nil
}

func (c *ConstantArray) IsConstantKernel() (bool, error) { return true, nil }

func (c *ConstantArray) IsSortedKernel(strict bool) (bool, error) {
	if strict {
		return c.n <= 1, nil
	}
	return true, nil
}
