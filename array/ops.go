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
	"log"

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/stats"
	"github.com/vortexdb/vortex/vortexerr"
)

// Downgrades, when non-nil, receives one message per canonicalization
// fallback (spec §4.1 "log a downgrade"). Tests and callers that care
// about fallback counts can swap in their own sink; production code
// leaves it nil and relies on the default log.Printf path below.
var Downgrades func(op, encodingID string)

func downgrade(op string, a Array) {
	if Downgrades != nil {
		Downgrades(op, a.EncodingID())
		return
	}
	log.Printf("vortex: %s not supported by encoding %q, falling back to canonicalize", op, a.EncodingID())
}

// Slice returns an array of the same dtype covering logical positions
// [start, stop) of a.
func Slice(a Array, start, stop int) (Array, error) {
	if start < 0 || stop > a.Len() || start > stop {
		return nil, fmt.Errorf("array: slice(%d,%d) out of bounds for len %d: %w", start, stop, a.Len(), vortexerr.OutOfBounds)
	}
	var out Array
	var err error
	if s, ok := a.(Slicer); ok {
		out, err = s.SliceKernel(start, stop)
	} else {
		downgrade("slice", a)
		canon, cerr := a.ToCanonical()
		if cerr != nil {
			return nil, cerr
		}
		if s, ok := canon.(Slicer); ok {
			out, err = s.SliceKernel(start, stop)
		} else {
			return nil, fmt.Errorf("array: slice unsupported even on canonical encoding %q: %w", canon.EncodingID(), vortexerr.NotImplemented)
		}
	}
	if err != nil {
		return nil, err
	}
	if out.Len() != stop-start {
		return nil, fmt.Errorf("array: slice kernel returned len %d, want %d: %w", out.Len(), stop-start, vortexerr.InvalidArgument)
	}
	propagateSliceStats(a.Stats(), out.Stats())
	return out, nil
}

func propagateSliceStats(from, to *stats.Set) {
	if from == nil || to == nil {
		return
	}
	for _, st := range []stats.Stat{stats.Min, stats.Max} {
		if p, ok := from.Get(st); ok {
			to.SetInexact(st, p.Value)
		}
	}
}

// Take gathers the positions of a named by indices (an integer array)
// and returns an array of length indices.Len().
func Take(a Array, indices Array) (Array, error) {
	if indices.DType().Kind != dtype.KindPrimitive || indices.DType().Primitive.IsFloat() {
		return nil, fmt.Errorf("array: take indices must be an integer array: %w", vortexerr.InvalidArgument)
	}
	if allNull(indices) {
		return constantNullArray(a.DType().AsNullable(), indices.Len()), nil
	}
	var out Array
	var err error
	if t, ok := a.(Taker); ok {
		out, err = t.TakeKernel(indices)
	} else {
		downgrade("take", a)
		canon, cerr := a.ToCanonical()
		if cerr != nil {
			return nil, cerr
		}
		if t, ok := canon.(Taker); ok {
			out, err = t.TakeKernel(indices)
		} else {
			return nil, fmt.Errorf("array: take unsupported even on canonical encoding %q: %w", canon.EncodingID(), vortexerr.NotImplemented)
		}
	}
	if err != nil {
		return nil, err
	}
	if out.Len() != indices.Len() {
		return nil, fmt.Errorf("array: take kernel returned len %d, want %d: %w", out.Len(), indices.Len(), vortexerr.InvalidArgument)
	}
	if _, isConst := a.(*ConstantArray); isConst {
		out.Stats().SetExact(stats.IsConstant, scalar.NewBool(true, dtype.NonNullable))
	}
	return out, nil
}

func allNull(a Array) bool {
	v := a.Validity()
	return v.Kind == ValidityAllInvalid
}

// Filter returns the subsequence of a selected by mask, a boolean
// array of length a.Len().
func Filter(a Array, mask Array) (Array, error) {
	if mask.Len() != a.Len() {
		return nil, fmt.Errorf("array: filter mask len %d != array len %d: %w", mask.Len(), a.Len(), vortexerr.InvalidArgument)
	}
	trueCount := popcount(mask)
	if trueCount == a.Len() {
		return a, nil
	}
	if trueCount == 0 {
		return Slice(a, 0, 0)
	}
	var out Array
	var err error
	if f, ok := a.(Filterer); ok {
		out, err = f.FilterKernel(mask)
	} else {
		downgrade("filter", a)
		canon, cerr := a.ToCanonical()
		if cerr != nil {
			return nil, cerr
		}
		if f, ok := canon.(Filterer); ok {
			out, err = f.FilterKernel(mask)
		} else {
			return nil, fmt.Errorf("array: filter unsupported even on canonical encoding %q: %w", canon.EncodingID(), vortexerr.NotImplemented)
		}
	}
	if err != nil {
		return nil, err
	}
	if out.Len() != trueCount {
		return nil, fmt.Errorf("array: filter kernel returned len %d, want popcount %d: %w", out.Len(), trueCount, vortexerr.InvalidArgument)
	}
	propagateSliceStats(a.Stats(), out.Stats())
	return out, nil
}

func popcount(mask Array) int {
	n := 0
	for i := 0; i < mask.Len(); i++ {
		v := mask.Validity()
		if !v.IsValid(i) {
			continue
		}
		sc, err := ScalarAt(mask, i)
		if err == nil && !sc.IsNull() && sc.Value.Bool {
			n++
		}
	}
	return n
}

// ScalarAt returns the scalar value at logical position i, respecting
// validity: invalid positions yield a null scalar of a.DType().AsNullable().
func ScalarAt(a Array, i int) (scalar.Scalar, error) {
	if i < 0 || i >= a.Len() {
		return scalar.Scalar{}, fmt.Errorf("array: scalar_at(%d) out of bounds for len %d: %w", i, a.Len(), vortexerr.OutOfBounds)
	}
	if !a.Validity().IsValid(i) {
		return scalar.NewNull(a.DType()), nil
	}
	if s, ok := a.(ScalarAtter); ok {
		return s.ScalarAtKernel(i)
	}
	downgrade("scalar_at", a)
	canon, err := a.ToCanonical()
	if err != nil {
		return scalar.Scalar{}, err
	}
	if s, ok := canon.(ScalarAtter); ok {
		return s.ScalarAtKernel(i)
	}
	return scalar.Scalar{}, fmt.Errorf("array: scalar_at unsupported even on canonical encoding %q: %w", canon.EncodingID(), vortexerr.NotImplemented)
}

// Compare evaluates lhs OP rhs elementwise. Broadcasting is supported
// only when one side is a *ConstantArray.
func Compare(lhs, rhs Array, op CompareOp) (Array, error) {
	if err := checkBroadcastCompatible(lhs, rhs); err != nil {
		return nil, err
	}
	if c, ok := lhs.(Comparer); ok {
		out, err := c.CompareKernel(op, rhs)
		if err == nil {
			return out, nil
		}
	}
	downgrade("compare", lhs)
	lc, err := lhs.ToCanonical()
	if err != nil {
		return nil, err
	}
	if c, ok := lc.(Comparer); ok {
		return c.CompareKernel(op, rhs)
	}
	return nil, fmt.Errorf("array: compare unsupported even on canonical encoding %q: %w", lc.EncodingID(), vortexerr.NotImplemented)
}

func checkBroadcastCompatible(lhs, rhs Array) error {
	if lhs.Len() == rhs.Len() {
		return nil
	}
	_, lConst := lhs.(*ConstantArray)
	_, rConst := rhs.(*ConstantArray)
	if lConst || rConst {
		return nil
	}
	return fmt.Errorf("array: length mismatch %d vs %d without a constant side: %w", lhs.Len(), rhs.Len(), vortexerr.InvalidArgument)
}

// Between evaluates lower OP1 value OP2 upper per opts, elementwise.
func Between(value Array, lower, upper scalar.Scalar, opts BetweenOptions) (Array, error) {
	if b, ok := value.(Betweener); ok {
		return b.BetweenKernel(lower, upper, opts)
	}
	downgrade("between", value)
	canon, err := value.ToCanonical()
	if err != nil {
		return nil, err
	}
	if b, ok := canon.(Betweener); ok {
		return b.BetweenKernel(lower, upper, opts)
	}
	return nil, fmt.Errorf("array: between unsupported even on canonical encoding %q: %w", canon.EncodingID(), vortexerr.NotImplemented)
}

// SumDType returns the fixed result dtype of Stat.Sum for source, per
// spec §4.2.
func SumDType(source dtype.DType) dtype.DType {
	switch source.Kind {
	case dtype.KindBool:
		return dtype.Primitive(dtype.U64, dtype.Nullable)
	case dtype.KindPrimitive:
		switch {
		case source.Primitive.IsFloat():
			return dtype.Primitive(dtype.F64, dtype.Nullable)
		case source.Primitive.IsSigned():
			return dtype.Primitive(dtype.I64, dtype.Nullable)
		default:
			return dtype.Primitive(dtype.U64, dtype.Nullable)
		}
	case dtype.KindExtension:
		return SumDType(source.StorageDType())
	default:
		return dtype.Primitive(dtype.I64, dtype.Nullable)
	}
}

// Sum returns the single nullable scalar sum of a, per spec §4.2.
func Sum(a Array) (scalar.Scalar, error) {
	rt := SumDType(a.DType())
	if a.Len() == 0 || allNull(a) {
		return zeroOf(rt), nil
	}
	if c, ok := a.(*ConstantArray); ok {
		return sumConstant(c, rt)
	}
	if cached, ok := a.Stats().GetExact(stats.Sum); ok {
		return cached, nil
	}
	var out scalar.Scalar
	var err error
	if s, ok := a.(Summer); ok {
		out, err = s.SumKernel()
	} else {
		downgrade("sum", a)
		canon, cerr := a.ToCanonical()
		if cerr != nil {
			return scalar.Scalar{}, cerr
		}
		if s, ok := canon.(Summer); ok {
			out, err = s.SumKernel()
		} else {
			return scalar.Scalar{}, fmt.Errorf("array: sum unsupported even on canonical encoding %q: %w", canon.EncodingID(), vortexerr.NotImplemented)
		}
	}
	if err != nil {
		return scalar.Scalar{}, err
	}
	if !out.IsNull() {
		a.Stats().SetExact(stats.Sum, out)
	}
	return out, nil
}

func zeroOf(dt dtype.DType) scalar.Scalar {
	switch {
	case dt.Primitive.IsFloat():
		return scalar.NewPrimitive(scalar.PValue{PType: dt.Primitive, Bits: 0}, dtype.Nullable)
	default:
		return scalar.NewPrimitive(scalar.PValue{PType: dt.Primitive, Bits: 0}, dtype.Nullable)
	}
}

func sumConstant(c *ConstantArray, rt dtype.DType) (scalar.Scalar, error) {
	if c.Scalar.IsNull() {
		return zeroOf(rt), nil
	}
	n := uint64(c.Len())
	switch {
	case rt.Primitive.IsFloat():
		v := c.Scalar.Value.Primitive.AsF64() * float64(n)
		return scalar.NewPrimitive(scalar.PValue{PType: dtype.F64, Bits: mathFloat64bits(v)}, dtype.Nullable), nil
	case rt.Primitive == dtype.I64:
		base := c.Scalar.Value.Primitive.AsI64()
		v, overflow := mulOverflowI64(base, int64(n))
		if overflow {
			return scalar.NewNull(rt), nil
		}
		return scalar.NewPrimitive(scalar.PValue{PType: dtype.I64, Bits: uint64(v)}, dtype.Nullable), nil
	default:
		base := c.Scalar.Value.Primitive.AsU64()
		v, overflow := mulOverflowU64(base, n)
		if overflow {
			return scalar.NewNull(rt), nil
		}
		return scalar.NewPrimitive(scalar.PValue{PType: dtype.U64, Bits: v}, dtype.Nullable), nil
	}
}

// IsSorted reports whether a's logical values are non-decreasing.
// Struct arrays are always unsorted, per spec §4.2.
func IsSorted(a Array) (bool, error) { return isSortedImpl(a, false) }

// IsStrictSorted reports whether a's logical values are strictly
// increasing, allowing at most one leading null.
func IsStrictSorted(a Array) (bool, error) { return isSortedImpl(a, true) }

func isSortedImpl(a Array, strict bool) (bool, error) {
	if a.DType().Kind == dtype.KindStruct {
		return false, nil
	}
	st := stats.IsSorted
	if strict {
		st = stats.IsStrictSorted
	}
	if cached, ok := a.Stats().GetExact(st); ok {
		return !cached.IsNull() && cached.Value.Bool, nil
	}
	var result bool
	var err error
	if s, ok := a.(IsSorteder); ok {
		result, err = s.IsSortedKernel(strict)
	} else {
		downgrade("is_sorted", a)
		canon, cerr := a.ToCanonical()
		if cerr != nil {
			return false, cerr
		}
		if s, ok := canon.(IsSorteder); ok {
			result, err = s.IsSortedKernel(strict)
		} else {
			result, err = denseIsSorted(canon, strict)
		}
	}
	if err != nil {
		return false, err
	}
	a.Stats().SetExact(st, scalar.NewBool(result, dtype.NonNullable))
	return result, nil
}

func denseIsSorted(a Array, strict bool) (bool, error) {
	nullsSeen := 0
	var prev scalar.Scalar
	havePrev := false
	for i := 0; i < a.Len(); i++ {
		cur, err := ScalarAt(a, i)
		if err != nil {
			return false, err
		}
		if cur.IsNull() {
			nullsSeen++
			if strict && (nullsSeen > 1 || i != 0) {
				return false, nil
			}
			continue
		}
		if havePrev {
			if strict {
				if !scalar.Less(prev, cur) {
					return false, nil
				}
			} else if scalar.Less(cur, prev) {
				return false, nil
			}
		}
		prev = cur
		havePrev = true
	}
	return true, nil
}

// SearchSorted locates value in a presumed-sorted array a.
func SearchSorted(a Array, value scalar.Scalar, side SearchSortedSide) (SearchSortedResult, error) {
	if s, ok := a.(SearchSorteder); ok {
		return s.SearchSortedKernel(value, side)
	}
	downgrade("search_sorted", a)
	canon, err := a.ToCanonical()
	if err != nil {
		return SearchSortedResult{}, err
	}
	if s, ok := canon.(SearchSorteder); ok {
		return s.SearchSortedKernel(value, side)
	}
	return denseSearchSorted(canon, value, side)
}

func denseSearchSorted(a Array, value scalar.Scalar, side SearchSortedSide) (SearchSortedResult, error) {
	lo, hi := 0, a.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		cur, err := ScalarAt(a, mid)
		if err != nil {
			return SearchSortedResult{}, err
		}
		less := false
		if !cur.IsNull() {
			if side == SearchLeft {
				less = scalar.Less(cur, value)
			} else {
				less = !scalar.Less(value, cur)
			}
		}
		if less {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if side == SearchRight && lo > 0 {
		cur, err := ScalarAt(a, lo-1)
		if err == nil && !cur.IsNull() && scalar.Equal(cur, value) {
			return SearchSortedResult{Found: true, Index: lo}, nil
		}
	}
	if lo < a.Len() {
		cur, err := ScalarAt(a, lo)
		if err == nil && !cur.IsNull() && scalar.Equal(cur, value) {
			return SearchSortedResult{Found: true, Index: lo}, nil
		}
	}
	return SearchSortedResult{Found: false, Index: lo}, nil
}

// Canonicalize is the public entry point for spec §4.2's
// "canonicalize": it lowers a to its dtype's canonical encoding.
func Canonicalize(a Array) (Array, error) { return a.ToCanonical() }

func constantNullArray(dt dtype.DType, length int) Array {
	return NewConstant(scalar.NewNull(dt), length)
}
