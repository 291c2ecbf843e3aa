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
	"encoding/binary"
	"fmt"

	"github.com/vortexdb/vortex/dtype"
)

// Marshal encodes a scalar's value (not its dtype, which the caller
// already knows from context — metadata, footer stats schema, …) as a
// small POD byte sequence. It is the wire form used by Constant
// array metadata, Sparse fill values, the FoR reference value and the
// footer's root statistics values.
func Marshal(s Scalar) []byte {
	if s.IsNull() {
		return []byte{0}
	}
	switch s.Value.Kind {
	case ValueBool:
		if s.Value.Bool {
			return []byte{1, 1}
		}
		return []byte{1, 0}
	case ValuePrimitive:
		buf := make([]byte, 10)
		buf[0] = 2
		buf[1] = byte(s.Value.Primitive.PType)
		binary.LittleEndian.PutUint64(buf[2:], s.Value.Primitive.Bits)
		return buf
	case ValueBufferString:
		b := []byte(s.Value.Str)
		buf := make([]byte, 5+len(b))
		buf[0] = 3
		binary.LittleEndian.PutUint32(buf[1:], uint32(len(b)))
		copy(buf[5:], b)
		return buf
	case ValueBuffer:
		buf := make([]byte, 5+len(s.Value.Buffer))
		buf[0] = 4
		binary.LittleEndian.PutUint32(buf[1:], uint32(len(s.Value.Buffer)))
		copy(buf[5:], s.Value.Buffer)
		return buf
	default:
		return []byte{0}
	}
}

// Unmarshal decodes a Marshal-encoded value against the given dtype.
func Unmarshal(dt dtype.DType, data []byte) (Scalar, error) {
	if len(data) == 0 {
		return Scalar{}, fmt.Errorf("scalar: empty encoding")
	}
	switch data[0] {
	case 0:
		return NewNull(dt), nil
	case 1:
		return NewBool(data[1] != 0, dt.Null), nil
	case 2:
		if len(data) < 10 {
			return Scalar{}, fmt.Errorf("scalar: truncated primitive encoding")
		}
		pt := dtype.PType(data[1])
		bits := binary.LittleEndian.Uint64(data[2:10])
		return NewPrimitive(PValue{PType: pt, Bits: bits}, dt.Null), nil
	case 3:
		if len(data) < 5 {
			return Scalar{}, fmt.Errorf("scalar: truncated string encoding")
		}
		n := binary.LittleEndian.Uint32(data[1:5])
		return NewUtf8(string(data[5:5+n]), dt.Null), nil
	case 4:
		if len(data) < 5 {
			return Scalar{}, fmt.Errorf("scalar: truncated buffer encoding")
		}
		n := binary.LittleEndian.Uint32(data[1:5])
		b := make([]byte, n)
		copy(b, data[5:5+n])
		return NewBinary(b, dt.Null), nil
	default:
		return Scalar{}, fmt.Errorf("scalar: unknown tag %d", data[0])
	}
}
