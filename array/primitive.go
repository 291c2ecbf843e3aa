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
	"math"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/vortexerr"
)

// PrimitiveArray is the canonical encoding for dtype.Primitive: one
// fixed-width buffer plus validity.
type PrimitiveArray struct {
	base
	buf buffer.ByteBuffer
}

// NewPrimitive constructs a PrimitiveArray. buf must hold
// length*pt.ByteWidth() bytes.
func NewPrimitive(pt dtype.PType, buf buffer.ByteBuffer, length int, n dtype.Nullability, valid Validity) *PrimitiveArray {
	if buf.Len() != length*pt.ByteWidth() {
		panic(fmt.Sprintf("array: primitive buffer len %d != %d*%d", buf.Len(), length, pt.ByteWidth()))
	}
	return &PrimitiveArray{base: newBase(dtype.Primitive(pt, n), length, valid), buf: buf}
}

func (p *PrimitiveArray) EncodingID() string   { return EncodingPrimitive }
func (p *PrimitiveArray) NBuffers() int        { return 1 }
func (p *PrimitiveArray) Buffer(i int) buffer.ByteBuffer { return p.buf }
func (p *PrimitiveArray) ToCanonical() (Array, error) { return p, nil }

func (p *PrimitiveArray) Metadata() []byte {
	return []byte{encodeValidityTag(p.valid), byte(p.dt.Primitive)}
}

func buildPrimitive(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	_, valid := splitValidityChild(metadata[0], length, children)
	pt := dtype.PType(metadata[1])
	return NewPrimitive(pt, buffers[0], length, dt.Null, valid), nil
}

// bitsAt returns the raw 64-bit-zero-extended element bits at i.
func (p *PrimitiveArray) bitsAt(i int) uint64 {
	w := p.dt.Primitive.ByteWidth()
	off := i * w
	buf := p.buf.Bytes()[off : off+w]
	switch w {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(buf[0]) | uint64(buf[1])<<8
	case 4:
		return uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16 | uint64(buf[3])<<24
	case 8:
		var v uint64
		for k := 0; k < 8; k++ {
			v |= uint64(buf[k]) << (8 * k)
		}
		return v
	default:
		panic("array: unsupported primitive width")
	}
}

func (p *PrimitiveArray) pvalueAt(i int) scalar.PValue {
	bits := p.bitsAt(i)
	if p.dt.Primitive == dtype.F16 {
		bits = math.Float64bits(float16ToFloat64(uint16(bits)))
		return scalar.PValue{PType: dtype.F64, Bits: bits}
	}
	return scalar.PValue{PType: p.dt.Primitive, Bits: bits}
}

func float16ToFloat64(h uint16) float64 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff
	var f32 uint32
	switch {
	case exp == 0 && frac == 0:
		f32 = sign << 31
	case exp == 0x1f:
		f32 = sign<<31 | 0xff<<23 | frac<<13
	default:
		if exp == 0 {
			for frac&0x400 == 0 {
				frac <<= 1
				exp--
			}
			exp++
			frac &= 0x3ff
		}
		f32 = sign<<31 | (exp+112)<<23 | frac<<13
	}
	return float64(math.Float32frombits(f32))
}

func (p *PrimitiveArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	return scalar.NewPrimitive(p.pvalueAt(i), p.dt.Null), nil
}

func (p *PrimitiveArray) SliceKernel(start, stop int) (Array, error) {
	w := p.dt.Primitive.ByteWidth()
	return NewPrimitive(p.dt.Primitive, p.buf.Slice(start*w, stop*w), stop-start, p.dt.Null, p.valid.Slice(start, stop)), nil
}

func (p *PrimitiveArray) TakeKernel(indices Array) (Array, error) {
	w := p.dt.Primitive.ByteWidth()
	out := make([]byte, indices.Len()*w)
	validOut := make([]bool, indices.Len())
	for j := 0; j < indices.Len(); j++ {
		sc, err := ScalarAt(indices, j)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			continue
		}
		idx := int(sc.Value.Primitive.AsU64())
		if idx < 0 || idx >= p.n {
			return nil, fmt.Errorf("array: primitive take index %d out of bounds: %w", idx, vortexerr.OutOfBounds)
		}
		copy(out[j*w:(j+1)*w], p.buf.Bytes()[idx*w:(idx+1)*w])
		validOut[j] = p.valid.IsValid(idx)
	}
	n := p.dt.Null
	if indices.DType().Nullable() {
		n = dtype.Nullable
	}
	return NewPrimitive(p.dt.Primitive, buffer.New(out, w), indices.Len(), n, validityFromBools(validOut)), nil
}

func (p *PrimitiveArray) FilterKernel(mask Array) (Array, error) {
	w := p.dt.Primitive.ByteWidth()
	out := make([]byte, 0, p.n*w)
	validOut := make([]bool, 0, p.n)
	for i := 0; i < p.n; i++ {
		sc, err := ScalarAt(mask, i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() || !sc.Value.Bool {
			continue
		}
		out = append(out, p.buf.Bytes()[i*w:(i+1)*w]...)
		validOut = append(validOut, p.valid.IsValid(i))
	}
	return NewPrimitive(p.dt.Primitive, buffer.New(out, w), len(out)/w, p.dt.Null, validityFromBools(validOut)), nil
}

func (p *PrimitiveArray) CompareKernel(op CompareOp, rhs Array) (Array, error) {
	n := p.dt.Null
	if rhs.DType().Nullable() {
		n = dtype.Nullable
	}
	out := make([]bool, p.n)
	validOut := make([]bool, p.n)
	for i := 0; i < p.n; i++ {
		lv, err := ScalarAt(p, i)
		if err != nil {
			return nil, err
		}
		var rv scalar.Scalar
		if c, ok := rhs.(*ConstantArray); ok {
			rv = c.Scalar
		} else {
			rv, err = ScalarAt(rhs, i)
			if err != nil {
				return nil, err
			}
		}
		if lv.IsNull() || rv.IsNull() {
			continue
		}
		out[i] = evalCompare(op, lv, rv)
		validOut[i] = true
	}
	return NewBoolFromBools(out, n, validityFromBools(validOut)), nil
}

func evalCompare(op CompareOp, lv, rv scalar.Scalar) bool {
	switch op {
	case CompareEq:
		return scalar.Equal(lv, rv)
	case CompareNotEq:
		return !scalar.Equal(lv, rv)
	case CompareLt:
		return scalar.Less(lv, rv)
	case CompareLte:
		return !scalar.Less(rv, lv)
	case CompareGt:
		return scalar.Less(rv, lv)
	case CompareGte:
		return !scalar.Less(lv, rv)
	default:
		return false
	}
}

func (p *PrimitiveArray) BetweenKernel(lower, upper scalar.Scalar, opts BetweenOptions) (Array, error) {
	out := make([]bool, p.n)
	validOut := make([]bool, p.n)
	for i := 0; i < p.n; i++ {
		v, err := ScalarAt(p, i)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			continue
		}
		lowOK := scalar.Less(lower, v) || (opts.LowerStrict == BoundInclusive && scalar.Equal(lower, v))
		highOK := scalar.Less(v, upper) || (opts.UpperStrict == BoundInclusive && scalar.Equal(v, upper))
		out[i] = lowOK && highOK
		validOut[i] = true
	}
	return NewBoolFromBools(out, p.dt.Null, validityFromBools(validOut)), nil
}

func (p *PrimitiveArray) SumKernel() (scalar.Scalar, error) {
	rt := SumDType(p.dt)
	switch {
	case rt.Primitive == dtype.F64:
		var sum float64
		for i := 0; i < p.n; i++ {
			if p.valid.IsValid(i) {
				sum += p.pvalueAt(i).AsF64()
			}
		}
		return scalar.NewPrimitive(scalar.PValue{PType: dtype.F64, Bits: math.Float64bits(sum)}, dtype.Nullable), nil
	case rt.Primitive == dtype.I64:
		var sum int64
		for i := 0; i < p.n; i++ {
			if !p.valid.IsValid(i) {
				continue
			}
			v, overflow := addOverflowI64(sum, p.pvalueAt(i).AsI64())
			if overflow {
				return scalar.NewNull(rt), nil
			}
			sum = v
		}
		return scalar.NewPrimitive(scalar.PValue{PType: dtype.I64, Bits: uint64(sum)}, dtype.Nullable), nil
	default:
		var sum uint64
		for i := 0; i < p.n; i++ {
			if !p.valid.IsValid(i) {
				continue
			}
			v, overflow := addOverflowU64(sum, p.pvalueAt(i).AsU64())
			if overflow {
				return scalar.NewNull(rt), nil
			}
			sum = v
		}
		return scalar.NewPrimitive(scalar.PValue{PType: dtype.U64, Bits: sum}, dtype.Nullable), nil
	}
}

func addOverflowI64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, true
	}
	return s, false
}

func addOverflowU64(a, b uint64) (uint64, bool) {
	s := a + b
	if s < a {
		return 0, true
	}
	return s, false
}

func (p *PrimitiveArray) IsSortedKernel(strict bool) (bool, error) { return denseIsSorted(p, strict) }

func (p *PrimitiveArray) MinMaxKernel() (MinMaxResult, error) {
	var min, max scalar.Scalar
	have := false
	for i := 0; i < p.n; i++ {
		if !p.valid.IsValid(i) {
			continue
		}
		v, _ := ScalarAt(p, i)
		if !have {
			min, max = v, v
			have = true
			continue
		}
		if scalar.Less(v, min) {
			min = v
		}
		if scalar.Less(max, v) {
			max = v
		}
	}
	return MinMaxResult{Min: min, Max: max}, nil
}

func (p *PrimitiveArray) IsConstantKernel() (bool, error) {
	if p.n == 0 {
		return true, nil
	}
	first := p.bitsAt(0)
	for i := 1; i < p.n; i++ {
		if p.bitsAt(i) != first {
			return false, nil
		}
	}
	return true, nil
}
