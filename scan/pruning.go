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

package scan

import (
	"bytes"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/expr"
	"github.com/vortexdb/vortex/layout"
	"github.com/vortexdb/vortex/scalar"
)

// pruningEvaluation returns a RowMask over [start,end) whose AllFalse
// bits are zones the stats side-tables prove filter cannot select;
// every other bit stays true (spec §4.8 step 2, "Pruning"). A nil
// filter or the absence of any Stats layout in the tree yields an
// all-true mask: pruning is a best-effort narrowing, never a
// replacement for filter_evaluation.
func pruningEvaluation(l layout.Layout, ctx *array.Context, res layout.SegmentResolver, start, end int64, filter expr.Node) (RowMask, error) {
	if filter == nil {
		return newAllTrue(start, end-start), nil
	}
	switch t := l.(type) {
	case *layout.StatsLayout:
		return pruneStats(t, ctx, res, start, end, filter)
	case *layout.ChunkedLayout:
		return pruneChunked(t, ctx, res, start, end, filter)
	default:
		return newAllTrue(start, end-start), nil
	}
}

func pruneChunked(t *layout.ChunkedLayout, ctx *array.Context, res layout.SegmentResolver, start, end int64, filter expr.Node) (RowMask, error) {
	refs := t.Children()
	chunkByIndex := make(map[int]layout.Layout, len(refs))
	for _, r := range refs {
		if r.Kind == layout.Chunk {
			chunkByIndex[r.Index] = r.Layout
		}
	}
	startChunk, startRow := t.Locate(start)
	endChunk, endRow := t.Locate(end - 1)

	bits := make([]bool, end-start)
	anyFalse := false
	for ci := startChunk; ci <= endChunk; ci++ {
		child, ok := chunkByIndex[ci]
		if !ok {
			continue
		}
		localStart := int64(0)
		if ci == startChunk {
			localStart = startRow
		}
		localEnd := int64(child.Len())
		if ci == endChunk {
			localEnd = endRow + 1
		}
		sub, err := pruningEvaluation(child, ctx, res, localStart, localEnd, filter)
		if err != nil {
			return RowMask{}, err
		}
		subBits := sub.Bools()
		// translate this chunk's local [localStart,localEnd) back to the
		// caller's absolute [start,end) index space.
		chunkAbsStart := localStart
		for _, r := range refs {
			if r.Kind == layout.Chunk && r.Index == ci {
				chunkAbsStart = r.RowOffset + localStart
				break
			}
		}
		for i, b := range subBits {
			absRow := chunkAbsStart + int64(i)
			if absRow < start || absRow >= end {
				continue
			}
			if !b {
				anyFalse = true
			}
			bits[absRow-start] = b
		}
	}
	if !anyFalse {
		return newAllTrue(start, end-start), nil
	}
	return RowMask{Start: start, n: end - start, bits: bits}, nil
}

func pruneStats(s *layout.StatsLayout, ctx *array.Context, res layout.SegmentResolver, start, end int64, filter expr.Node) (RowMask, error) {
	table := s.Table()
	if table == nil {
		return newAllTrue(start, end-start), nil
	}
	zoneSize := int64(s.ZoneSize())
	if zoneSize <= 0 {
		return newAllTrue(start, end-start), nil
	}
	firstZone := start / zoneSize
	lastZone := (end - 1) / zoneSize

	bits := make([]bool, end-start)
	for i := range bits {
		bits[i] = true
	}
	anyPruned := false
	for z := firstZone; z <= lastZone; z++ {
		canPrune, err := zoneCanPrune(table, ctx, res, z, filter)
		if err != nil {
			return RowMask{}, err
		}
		if !canPrune {
			continue
		}
		anyPruned = true
		lo := z * zoneSize
		hi := lo + zoneSize
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		for r := lo; r < hi; r++ {
			bits[r-start] = false
		}
	}
	if !anyPruned {
		return newAllTrue(start, end-start), nil
	}
	return RowMask{Start: start, n: end - start, bits: bits}, nil
}

// zoneCanPrune decodes zone z's single-row statistics and asks
// whether filter provably selects no row in it.
func zoneCanPrune(table layout.Layout, ctx *array.Context, res layout.SegmentResolver, zone int64, filter expr.Node) (bool, error) {
	row, err := decodeRange(table, ctx, res, zone, zone+1, nil)
	if err != nil {
		return false, err
	}
	sa, ok := row.(*array.StructArray)
	if !ok {
		return false, nil
	}
	minField := sa.Field(string(layout.ZoneMin))
	maxField := sa.Field(string(layout.ZoneMax))
	if minField == nil || maxField == nil {
		return false, nil
	}
	minSc, err := array.ScalarAt(minField, 0)
	if err != nil || minSc.IsNull() {
		return false, nil
	}
	maxSc, err := array.ScalarAt(maxField, 0)
	if err != nil || maxSc.IsNull() {
		return false, nil
	}
	return zoneExcludedBy(filter, minSc, maxSc), nil
}

// zoneExcludedBy reports whether filter can be proven false for every
// value in [zoneMin, zoneMax]. It recognizes direct comparisons and
// Between against the scope's own value (Identity); any other shape,
// a GetItem included, is treated
// conservatively as "cannot prune" (spec §9 Open questions note the
// exact scope of pushdown pruning is an implementation choice, and
// soundness — never pruning a row the filter would keep — always
// wins over completeness here).
func zoneExcludedBy(n expr.Node, zoneMin, zoneMax scalar.Scalar) bool {
	switch t := n.(type) {
	case expr.BinaryExpr:
		return binaryExcludedBy(t, zoneMin, zoneMax)
	case expr.Between:
		lit, lok := t.Lower.(expr.Literal)
		uit, uok := t.Upper.(expr.Literal)
		if !isScopeRef(t.Value) || !lok || !uok {
			return false
		}
		// Zone excluded if zoneMax < lower or zoneMin > upper.
		if lt, ok := scalarLess(zoneMax, lit.Value); ok && lt {
			return true
		}
		if lt, ok := scalarLess(uit.Value, zoneMin); ok && lt {
			return true
		}
		return false
	default:
		return false
	}
}

func binaryExcludedBy(b expr.BinaryExpr, zoneMin, zoneMax scalar.Scalar) bool {
	lhsLit, lIsLit := b.Lhs.(expr.Literal)
	rhsLit, rIsLit := b.Rhs.(expr.Literal)
	lhsRef := isScopeRef(b.Lhs)
	rhsRef := isScopeRef(b.Rhs)

	// Normalize to "scope OP literal" form, flipping the operator when
	// the literal was on the left.
	op := b.Op
	var lit scalar.Scalar
	switch {
	case lhsRef && rIsLit:
		lit = rhsLit.Value
	case rhsRef && lIsLit:
		lit = lhsLit.Value
		op = flip(op)
	default:
		return false
	}

	switch op {
	case expr.OpGt, expr.OpGte:
		// scope > lit / scope >= lit: excluded if zoneMax < lit (or <=
		// for strict GT, conservatively treated identically since a
		// false negative here is unsound; only the strict "< " case is
		// used for both to stay conservative).
		lt, ok := scalarLess(zoneMax, lit)
		return ok && lt
	case expr.OpLt, expr.OpLte:
		lt, ok := scalarLess(lit, zoneMin)
		return ok && lt
	case expr.OpEq:
		ltMax, okMax := scalarLess(zoneMax, lit)
		ltMin, okMin := scalarLess(lit, zoneMin)
		return (okMax && ltMax) || (okMin && ltMin)
	default:
		return false
	}
}

func flip(op expr.BinaryOp) expr.BinaryOp {
	switch op {
	case expr.OpGt:
		return expr.OpLt
	case expr.OpGte:
		return expr.OpLte
	case expr.OpLt:
		return expr.OpGt
	case expr.OpLte:
		return expr.OpGte
	default:
		return op
	}
}

func isScopeRef(n expr.Node) bool {
	switch n.(type) {
	case expr.Identity:
		return true
	default:
		return false
	}
}

// scalarLess reports whether a < b for two same-dtype-kind scalars,
// or ok=false if the comparison is not supported by this
// pruning-only helper (anything beyond primitive/utf8/binary
// ordering falls back to "cannot prune").
func scalarLess(a, b scalar.Scalar) (less bool, ok bool) {
	if a.IsNull() || b.IsNull() {
		return false, false
	}
	switch a.Value.Kind {
	case scalar.ValuePrimitive:
		if b.Value.Kind != scalar.ValuePrimitive {
			return false, false
		}
		pt := a.Value.Primitive.PType
		switch {
		case pt.IsFloat():
			return a.Value.Primitive.AsF64() < b.Value.Primitive.AsF64(), true
		case pt.IsSigned():
			return a.Value.Primitive.AsI64() < b.Value.Primitive.AsI64(), true
		default:
			return a.Value.Primitive.AsU64() < b.Value.Primitive.AsU64(), true
		}
	case scalar.ValueBufferString:
		if b.Value.Kind != scalar.ValueBufferString {
			return false, false
		}
		return a.Value.Str < b.Value.Str, true
	case scalar.ValueBuffer:
		if b.Value.Kind != scalar.ValueBuffer {
			return false, false
		}
		return bytes.Compare(a.Value.Buffer, b.Value.Buffer) < 0, true
	default:
		return false, false
	}
}
