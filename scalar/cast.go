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

import (
	"fmt"
	"math"

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/vortexerr"
)

// Cast converts s to the target dtype, following the same rules array
// casts use. Casting a null scalar to a NonNullable target fails with
// vortexerr.InvalidArgument.
func (s Scalar) Cast(target dtype.DType) (Scalar, error) {
	if s.IsNull() {
		if target.Null == dtype.NonNullable {
			return Scalar{}, fmt.Errorf("scalar: cast null to non-nullable %s: %w", target, vortexerr.InvalidArgument)
		}
		return NewNull(target), nil
	}
	switch target.Kind {
	case dtype.KindPrimitive:
		return s.castToPrimitive(target)
	case dtype.KindBool:
		if s.Value.Kind != ValueBool {
			return Scalar{}, fmt.Errorf("scalar: cannot cast %s to bool: %w", s.DType, vortexerr.TypeMismatch)
		}
		return NewBool(s.Value.Bool, target.Null), nil
	case dtype.KindUtf8:
		if s.Value.Kind != ValueBufferString {
			return Scalar{}, fmt.Errorf("scalar: cannot cast %s to utf8: %w", s.DType, vortexerr.TypeMismatch)
		}
		return NewUtf8(s.Value.Str, target.Null), nil
	case dtype.KindBinary:
		if s.Value.Kind != ValueBuffer {
			return Scalar{}, fmt.Errorf("scalar: cannot cast %s to binary: %w", s.DType, vortexerr.TypeMismatch)
		}
		return NewBinary(s.Value.Buffer, target.Null), nil
	default:
		return Scalar{}, fmt.Errorf("scalar: unsupported cast target %s: %w", target, vortexerr.NotImplemented)
	}
}

func (s Scalar) castToPrimitive(target dtype.DType) (Scalar, error) {
	if s.Value.Kind != ValuePrimitive {
		return Scalar{}, fmt.Errorf("scalar: cannot cast %s to %s: %w", s.DType, target, vortexerr.TypeMismatch)
	}
	p := s.Value.Primitive
	pt := target.Primitive
	var out PValue
	switch {
	case pt.IsFloat():
		f := p.AsF64()
		if pt == dtype.F32 {
			out = PValue{PType: pt, Bits: uint64(math.Float32bits(float32(f)))}
		} else {
			out = PValue{PType: pt, Bits: math.Float64bits(f)}
		}
	case pt.IsSigned():
		out = PValue{PType: pt, Bits: uint64(p.AsI64())}
	default:
		out = PValue{PType: pt, Bits: p.AsU64()}
	}
	return NewPrimitive(out, target.Null), nil
}
