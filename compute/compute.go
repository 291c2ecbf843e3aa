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

// Package compute re-exports the array package's generic compute
// entry points under the name the rest of the system (expr kernels,
// scan pruning) addresses them by, keeping "where a kernel dispatches"
// (array) separate from "who calls a kernel" (everything else).
package compute

import (
	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/scalar"
)

func Slice(a array.Array, start, stop int) (array.Array, error) { return array.Slice(a, start, stop) }

func Take(a, indices array.Array) (array.Array, error) { return array.Take(a, indices) }

func Filter(a, mask array.Array) (array.Array, error) { return array.Filter(a, mask) }

func ScalarAt(a array.Array, i int) (scalar.Scalar, error) { return array.ScalarAt(a, i) }

func Compare(lhs, rhs array.Array, op array.CompareOp) (array.Array, error) {
	return array.Compare(lhs, rhs, op)
}

func Between(value array.Array, lower, upper scalar.Scalar, opts array.BetweenOptions) (array.Array, error) {
	return array.Between(value, lower, upper, opts)
}

func Sum(a array.Array) (scalar.Scalar, error) { return array.Sum(a) }

func IsSorted(a array.Array) (bool, error) { return array.IsSorted(a) }

func IsStrictSorted(a array.Array) (bool, error) { return array.IsStrictSorted(a) }

func SearchSorted(a array.Array, value scalar.Scalar, side array.SearchSortedSide) (array.SearchSortedResult, error) {
	return array.SearchSorted(a, value, side)
}

func Canonicalize(a array.Array) (array.Array, error) { return array.Canonicalize(a) }
