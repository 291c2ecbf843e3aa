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

// NullArray is the canonical encoding for dtype.NullType: a length
// with no backing storage at all.
type NullArray struct {
	base
}

// NewNull constructs a NullArray of the given length.
func NewNull(length int) *NullArray {
	return &NullArray{base: newBase(dtype.NullType, length, AllInvalid(length))}
}

func (n *NullArray) EncodingID() string { return EncodingNull }

func (n *NullArray) ToCanonical() (Array, error) { return n, nil }

func (n *NullArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	return scalar.NewNull(dtype.NullType), nil
}

func (n *NullArray) SliceKernel(start, stop int) (Array, error) {
	return NewNull(stop - start), nil
}

func (n *NullArray) IsConstantKernel() (bool, error) { return true, nil }

func buildNull(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	return NewNull(length), nil
}
