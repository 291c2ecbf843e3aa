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
	"github.com/vortexdb/vortex/stats"
)

// base holds the fields common to every encoding: its logical dtype,
// length, validity and lazily-populated statistics. Encodings embed
// base by value and get Len/DType/Stats/Validity for free; they are
// responsible for NChildren/Child/NBuffers/Buffer/Metadata/EncodingID/
// ToCanonical and whichever compute kernels they support.
type base struct {
	dt    dtype.DType
	n     int
	valid Validity
	st    stats.Set
}

func newBase(dt dtype.DType, n int, valid Validity) base {
	return base{dt: dt, n: n, valid: valid}
}

func (b *base) Len() int             { return b.n }
func (b *base) DType() dtype.DType   { return b.dt }
func (b *base) Stats() *stats.Set    { return &b.st }
func (b *base) Validity() Validity   { return b.valid }
func (b *base) Metadata() []byte     { return nil }
func (b *base) NChildren() int       { return 0 }
func (b *base) Child(i int) Array    { panic("array: child index out of bounds") }
func (b *base) NBuffers() int        { return 0 }
func (b *base) Buffer(i int) buffer.ByteBuffer {
	panic("array: buffer index out of bounds")
}
