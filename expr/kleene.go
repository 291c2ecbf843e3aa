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

package expr

import (
	"fmt"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
)

// kleeneTri is a three-valued truth value used to combine AND/OR under
// Kleene logic: null acts as "unknown", not as false (spec §4.6 "Arrow
// semantics").
type kleeneTri uint8

const (
	triFalse kleeneTri = iota
	triTrue
	triUnknown
)

func boolTri(sc scalar.Scalar) kleeneTri {
	if sc.IsNull() {
		return triUnknown
	}
	if sc.Value.Bool {
		return triTrue
	}
	return triFalse
}

func kleeneAnd(a, b kleeneTri) kleeneTri {
	if a == triFalse || b == triFalse {
		return triFalse
	}
	if a == triUnknown || b == triUnknown {
		return triUnknown
	}
	return triTrue
}

func kleeneOr(a, b kleeneTri) kleeneTri {
	if a == triTrue || b == triTrue {
		return triTrue
	}
	if a == triUnknown || b == triUnknown {
		return triUnknown
	}
	return triFalse
}

// kleeneCombine applies op (OpAnd or OpOr) elementwise to two boolean
// arrays under Kleene logic.
func kleeneCombine(op BinaryOp, lhs, rhs array.Array) (array.Array, error) {
	n := lhs.Len()
	out := make([]bool, n)
	validOut := make([]bool, n)
	for i := 0; i < n; i++ {
		lsc, err := array.ScalarAt(lhs, i)
		if err != nil {
			return nil, err
		}
		rsc, err := array.ScalarAt(rhs, i)
		if err != nil {
			return nil, err
		}
		var tri kleeneTri
		switch op {
		case OpAnd:
			tri = kleeneAnd(boolTri(lsc), boolTri(rsc))
		case OpOr:
			tri = kleeneOr(boolTri(lsc), boolTri(rsc))
		default:
			return nil, fmt.Errorf("expr: kleeneCombine: unsupported op %s", op)
		}
		if tri == triUnknown {
			continue
		}
		out[i] = tri == triTrue
		validOut[i] = true
	}
	return array.NewBoolFromBools(out, dtype.Nullable, boolValidity(validOut)), nil
}

// kleeneNot negates a boolean array; null stays null.
func kleeneNot(v array.Array) (array.Array, error) {
	n := v.Len()
	out := make([]bool, n)
	validOut := make([]bool, n)
	for i := 0; i < n; i++ {
		sc, err := array.ScalarAt(v, i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			continue
		}
		out[i] = !sc.Value.Bool
		validOut[i] = true
	}
	return array.NewBoolFromBools(out, dtype.Nullable, boolValidity(validOut)), nil
}

func boolValidity(valid []bool) array.Validity {
	return array.FromBoolArray(boolArrayFrom(valid))
}

func boolArrayFrom(valid []bool) array.Array {
	return array.NewBoolFromBools(valid, dtype.NonNullable, array.AllValid(len(valid)))
}
