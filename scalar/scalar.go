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

// Package scalar implements Scalar, the single-value counterpart to an
// array position, and the typed views used to construct and read one.
package scalar

import (
	"fmt"
	"math"

	"github.com/vortexdb/vortex/dtype"
)

// ValueKind tags which alternative of ScalarValue is populated.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueBool
	ValuePrimitive
	ValueBuffer
	ValueBufferString
	ValueList
	ValueStruct
)

// PValue holds a primitive scalar's bits, tagged by dtype.PType so
// that integer, float and unsigned values are kept distinct even
// though they all fit in 8 bytes.
type PValue struct {
	PType dtype.PType
	Bits  uint64
}

// AsU64 reinterprets the stored bits as an unsigned integer.
func (p PValue) AsU64() uint64 { return p.Bits }

// AsI64 reinterprets the stored bits as a signed integer.
func (p PValue) AsI64() int64 { return int64(p.Bits) }

// AsF64 reinterprets the stored bits as a float64, widening F32 bits;
// the bits of any other PType (F16 included) are read as a float64
// unchanged.
func (p PValue) AsF64() float64 {
	switch p.PType {
	case dtype.F32:
		return float64(math.Float32frombits(uint32(p.Bits)))
	case dtype.F64:
		return math.Float64frombits(p.Bits)
	default:
		return math.Float64frombits(p.Bits)
	}
}

// ScalarValue is the closed sum of value representations a Scalar may
// hold, mirroring spec §3.
type ScalarValue struct {
	Kind      ValueKind
	Bool      bool
	Primitive PValue
	Buffer    []byte
	Str       string
	List      []ScalarValue
	Struct    []ScalarValue
}

// Null is the shared null ScalarValue.
var Null = ScalarValue{Kind: ValueNull}

// Scalar is (DType, ScalarValue): a single logical value.
type Scalar struct {
	DType dtype.DType
	Value ScalarValue
}

// IsNull reports whether the scalar's value is null.
func (s Scalar) IsNull() bool { return s.Value.Kind == ValueNull }

// NewNull constructs a null scalar of the given (forced-nullable)
// dtype, matching scalar_at's contract of returning a null scalar of
// dtype.AsNullable() for invalid positions.
func NewNull(dt dtype.DType) Scalar {
	return Scalar{DType: dt.AsNullable(), Value: Null}
}

// NewBool constructs a non-null Bool scalar.
func NewBool(v bool, n dtype.Nullability) Scalar {
	return Scalar{DType: dtype.Bool(n), Value: ScalarValue{Kind: ValueBool, Bool: v}}
}

// NewPrimitive constructs a non-null Primitive scalar.
func NewPrimitive(p PValue, n dtype.Nullability) Scalar {
	return Scalar{DType: dtype.Primitive(p.PType, n), Value: ScalarValue{Kind: ValuePrimitive, Primitive: p}}
}

// NewU64 is a convenience constructor for an unsigned 64-bit scalar.
func NewU64(v uint64) Scalar {
	return NewPrimitive(PValue{PType: dtype.U64, Bits: v}, dtype.NonNullable)
}

// NewI64 is a convenience constructor for a signed 64-bit scalar.
func NewI64(v int64) Scalar {
	return NewPrimitive(PValue{PType: dtype.I64, Bits: uint64(v)}, dtype.NonNullable)
}

// NewF64 is a convenience constructor for a float64 scalar.
func NewF64(v float64) Scalar {
	return NewPrimitive(PValue{PType: dtype.F64, Bits: math.Float64bits(v)}, dtype.NonNullable)
}

// NewUtf8 constructs a non-null Utf8 scalar.
func NewUtf8(s string, n dtype.Nullability) Scalar {
	return Scalar{DType: dtype.Utf8(n), Value: ScalarValue{Kind: ValueBufferString, Str: s}}
}

// NewBinary constructs a non-null Binary scalar.
func NewBinary(b []byte, n dtype.Nullability) Scalar {
	return Scalar{DType: dtype.Binary(n), Value: ScalarValue{Kind: ValueBuffer, Buffer: b}}
}

func (s Scalar) String() string {
	if s.IsNull() {
		return fmt.Sprintf("null::%s", s.DType)
	}
	switch s.Value.Kind {
	case ValueBool:
		return fmt.Sprintf("%v", s.Value.Bool)
	case ValuePrimitive:
		p := s.Value.Primitive
		switch {
		case p.PType.IsFloat():
			return fmt.Sprintf("%v", p.AsF64())
		case p.PType.IsSigned():
			return fmt.Sprintf("%v", p.AsI64())
		default:
			return fmt.Sprintf("%v", p.AsU64())
		}
	case ValueBufferString:
		return s.Value.Str
	case ValueBuffer:
		return fmt.Sprintf("%x", s.Value.Buffer)
	default:
		return fmt.Sprintf("%v", s.Value)
	}
}
