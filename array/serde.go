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

// Every encoding's Metadata() begins with one validity tag byte so
// that Builder can reconstruct Validity without a separate side
// channel. When the tag is validityTagArray, the encoding's explicit
// boolean mask is appended as that encoding's *last* child — callers
// of Builder must split it off before interpreting the remaining,
// encoding-specific children.
const (
	validityTagNonNullable byte = 0
	validityTagAllValid    byte = 1
	validityTagAllInvalid  byte = 2
	validityTagArray       byte = 3
)

func encodeValidityTag(v Validity) byte {
	switch v.Kind {
	case ValidityNonNullable:
		return validityTagNonNullable
	case ValidityAllValid:
		return validityTagAllValid
	case ValidityAllInvalid:
		return validityTagAllInvalid
	default:
		return validityTagArray
	}
}

// splitValidityChild inspects tag and, if it is validityTagArray, pops
// the mask array off the end of children and returns the remaining
// fixed children alongside the reconstructed Validity.
func splitValidityChild(tag byte, length int, children []Array) ([]Array, Validity) {
	switch tag {
	case validityTagNonNullable:
		return children, NonNullable(length)
	case validityTagAllValid:
		return children, AllValid(length)
	case validityTagAllInvalid:
		return children, AllInvalid(length)
	case validityTagArray:
		n := len(children)
		return children[:n-1], FromBoolArray(children[n-1])
	default:
		return children, AllValid(length)
	}
}

// appendValidityChild appends the explicit mask array to children when
// v is backed by one, leaving children untouched otherwise. Used by
// each encoding's VisitChildren/serialize path.
func appendValidityChild(children []Array, v Validity) []Array {
	if m, ok := v.MaskArray(); ok {
		return append(children, m)
	}
	return children
}
