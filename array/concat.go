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

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/vortexerr"
)

// Concat concatenates same-dtype arrays into one array of dt's
// canonical encoding, in argument order. Used by the scan engine to
// reassemble a Chunked layout's per-chunk results into a single array
// for a row range spanning more than one chunk.
func Concat(dt dtype.DType, parts []Array) (Array, error) {
	canon := make([]Array, len(parts))
	for i, p := range parts {
		c, err := p.ToCanonical()
		if err != nil {
			return nil, err
		}
		canon[i] = c
	}
	return concatCanonical(dt, canon)
}

// concatCanonical concatenates same-dtype canonical arrays into one
// array of the canonical encoding for dt. Used to flatten a Chunked
// array's ToCanonical result into a single value, which the
// scan engine relies on when a Flat reader caches its decoded array.
func concatCanonical(dt dtype.DType, parts []Array) (Array, error) {
	total := 0
	for _, p := range parts {
		total += p.Len()
	}
	switch dt.Kind {
	case dtype.KindNull:
		return NewNull(total), nil
	case dtype.KindBool, dtype.KindPrimitive, dtype.KindUtf8, dtype.KindBinary:
		vals := make([]scalar.Scalar, 0, total)
		for _, p := range parts {
			for i := 0; i < p.Len(); i++ {
				sc, err := ScalarAt(p, i)
				if err != nil {
					return nil, err
				}
				vals = append(vals, sc)
			}
		}
		return scalarsToArray(dt, vals), nil
	case dtype.KindStruct:
		fields := make([]Array, len(dt.Struct.Names))
		for fi, fname := range dt.Struct.Names {
			ft := dt.Struct.Types[fi]
			sub := make([]Array, len(parts))
			for pi, p := range parts {
				sa, ok := p.(*StructArray)
				if !ok {
					return nil, fmt.Errorf("array: concat expected struct part: %w", vortexerr.InvalidArgument)
				}
				f := sa.Field(fname)
				if f == nil {
					return nil, fmt.Errorf("array: concat missing field %q: %w", fname, vortexerr.InvalidArgument)
				}
				sub[pi] = f
			}
			concatenated, err := concatCanonical(ft, sub)
			if err != nil {
				return nil, err
			}
			fields[fi] = concatenated
		}
		return NewStruct(dt.Struct.Names, fields, dt.Null, AllValid(total)), nil
	default:
		return nil, fmt.Errorf("array: concat unsupported for dtype %s: %w", dt, vortexerr.NotImplemented)
	}
}
