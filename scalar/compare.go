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

package scalar

import "bytes"

// Equal reports value equality for two scalars whose dtypes are equal
// ignoring nullability. It panics if the dtypes are incomparable; call
// Comparable first if that is not already known.
func Equal(a, b Scalar) bool {
	if !a.DType.EqualIgnoringNullability(b.DType) {
		panic("scalar: Equal called on incomparable dtypes")
	}
	if a.IsNull() || b.IsNull() {
		return a.IsNull() == b.IsNull()
	}
	switch a.Value.Kind {
	case ValueBool:
		return a.Value.Bool == b.Value.Bool
	case ValuePrimitive:
		return primitiveEqual(a.Value.Primitive, b.Value.Primitive)
	case ValueBufferString:
		return a.Value.Str == b.Value.Str
	case ValueBuffer:
		return bytes.Equal(a.Value.Buffer, b.Value.Buffer)
	case ValueList:
		if len(a.Value.List) != len(b.Value.List) {
			return false
		}
		for i := range a.Value.List {
			if !Equal(Scalar{DType: a.DType, Value: a.Value.List[i]}, Scalar{DType: b.DType, Value: b.Value.List[i]}) {
				return false
			}
		}
		return true
	case ValueStruct:
		if len(a.Value.Struct) != len(b.Value.Struct) {
			return false
		}
		for i := range a.Value.Struct {
			fa := a.DType.Struct.Types[i]
			if !Equal(Scalar{DType: fa, Value: a.Value.Struct[i]}, Scalar{DType: fa, Value: b.Value.Struct[i]}) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func primitiveEqual(a, b PValue) bool {
	switch {
	case a.PType.IsFloat() || b.PType.IsFloat():
		return a.AsF64() == b.AsF64()
	case a.PType.IsSigned() || b.PType.IsSigned():
		return a.AsI64() == b.AsI64()
	default:
		return a.AsU64() == b.AsU64()
	}
}

// Comparable reports whether a and b may be compared at all: their
// dtypes must be equal ignoring nullability.
func Comparable(a, b Scalar) bool {
	return a.DType.EqualIgnoringNullability(b.DType)
}

// Less implements a partial order over comparable scalars. Nulls sort
// last. It panics if a and b are incomparable.
func Less(a, b Scalar) bool {
	if !Comparable(a, b) {
		panic("scalar: Less called on incomparable dtypes")
	}
	if a.IsNull() || b.IsNull() {
		return !a.IsNull() && b.IsNull()
	}
	switch a.Value.Kind {
	case ValueBool:
		return !a.Value.Bool && b.Value.Bool
	case ValuePrimitive:
		return primitiveLess(a.Value.Primitive, b.Value.Primitive)
	case ValueBufferString:
		return a.Value.Str < b.Value.Str
	case ValueBuffer:
		return bytes.Compare(a.Value.Buffer, b.Value.Buffer) < 0
	default:
		return false
	}
}

func primitiveLess(a, b PValue) bool {
	switch {
	case a.PType.IsFloat() || b.PType.IsFloat():
		return a.AsF64() < b.AsF64()
	case a.PType.IsSigned() || b.PType.IsSigned():
		return a.AsI64() < b.AsI64()
	default:
		return a.AsU64() < b.AsU64()
	}
}
