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
	"fmt"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/expr"
	"github.com/vortexdb/vortex/layout"
)

// Scan is a lazy, builder-configured request against one file's root
// Layout: a projection, an optional filter and a row Selection (spec
// §6 "Scan API (conceptual)"). A Scan is immutable; every builder
// method returns a new value.
type Scan struct {
	root       layout.Layout
	resolver   layout.SegmentResolver
	arrayCtx   *array.Context
	projection expr.Node
	filter     expr.Node
	selection  Selection
}

// New starts a Scan over root, resolving segments through resolver
// (typically an *IoDriver) and decoding arrays through arrayCtx. The
// default projection is Identity (the whole row), no filter and
// Selection All.
func New(root layout.Layout, resolver layout.SegmentResolver, arrayCtx *array.Context) *Scan {
	return &Scan{
		root:       root,
		resolver:   resolver,
		arrayCtx:   arrayCtx,
		projection: expr.Identity{},
		selection:  All(),
	}
}

// Project sets the projection expression, replacing the default
// Identity.
func (s *Scan) Project(e expr.Node) *Scan {
	out := *s
	out.projection = e
	return &out
}

// Filter sets the filter expression. A nil filter (the default)
// selects every row per the Selection alone.
func (s *Scan) Filter(e expr.Node) *Scan {
	out := *s
	out.filter = e
	return &out
}

// Select sets the row Selection, replacing the default All.
func (s *Scan) Select(sel Selection) *Scan {
	out := *s
	out.selection = sel
	return &out
}

// IntoArrayStream partitions the scan domain and returns a
// pull-driven, non-restartable Stream of result arrays honoring the
// configured projection, filter and selection (spec §6, §9 "Lazy
// sequences").
func (s *Scan) IntoArrayStream() *Stream {
	return &Stream{scan: s, ranges: partition(s.root, s.selection)}
}

// Stream yields successive result chunks in strictly ascending row
// order (spec §4.8 "Ordering guarantees"). Each chunk corresponds to
// one partitioned row range that was not entirely pruned or filtered
// away.
type Stream struct {
	scan   *Scan
	ranges []RowRange
	idx    int
}

// Next returns the next non-empty result chunk, or ok=false once the
// stream is exhausted. A single bad range fails the whole stream
// (spec §7 "scans fail fast").
func (st *Stream) Next() (result array.Array, ok bool, err error) {
	for st.idx < len(st.ranges) {
		r := st.ranges[st.idx]
		st.idx++
		out, skipped, err := st.scan.evaluateRange(r)
		if err != nil {
			return nil, false, fmt.Errorf("scan: evaluating range [%d,%d): %w", r.Start, r.End, err)
		}
		if skipped {
			continue
		}
		return out, true, nil
	}
	return nil, false, nil
}

// evaluateRange runs the six-step per-range pipeline of spec §4.8.
func (s *Scan) evaluateRange(r RowRange) (array.Array, bool, error) {
	mask := maskFromSelection(s.selection, r.Start, r.Len())

	pruned, err := pruningEvaluation(s.root, s.arrayCtx, s.resolver, r.Start, r.End, s.filter)
	if err != nil {
		return nil, false, fmt.Errorf("pruning: %w", err)
	}
	mask = mask.and(pruned)
	if mask.IsAllFalse() {
		return nil, true, nil
	}

	mask, scope, err := s.filterEvaluation(r, mask)
	if err != nil {
		return nil, false, fmt.Errorf("filter: %w", err)
	}
	if mask.IsAllFalse() {
		return nil, true, nil
	}

	out, err := s.projectionEvaluation(r, mask, scope)
	if err != nil {
		return nil, false, fmt.Errorf("projection: %w", err)
	}
	return out, false, nil
}

// filterEvaluation reads the fields s.filter needs, evaluates it and
// refines mask. It returns the decoded scope too, so projection can
// reuse it when the projection names only fields the filter already
// decoded; a projection that needs the whole scope (a bare Identity)
// decodes it again.
func (s *Scan) filterEvaluation(r RowRange, mask RowMask) (RowMask, array.Array, error) {
	if s.filter == nil {
		return mask, nil, nil
	}
	fields := requiredFields(s.filter)
	scope, err := decodeRange(s.root, s.arrayCtx, s.resolver, r.Start, r.End, fields)
	if err != nil {
		return RowMask{}, nil, err
	}
	result, err := s.filter.Evaluate(scope)
	if err != nil {
		return RowMask{}, nil, err
	}
	refined, err := maskFromBoolArray(mask, result)
	if err != nil {
		return RowMask{}, nil, err
	}
	return refined, scope, nil
}

// projectionEvaluation reads the fields s.projection needs (reusing
// scope from filterEvaluation when it already covers them), evaluates
// the projection and applies mask.
func (s *Scan) projectionEvaluation(r RowRange, mask RowMask, scope array.Array) (array.Array, error) {
	fields := requiredFields(s.projection)
	if scope == nil || !fieldsSatisfied(scope, fields) {
		var err error
		scope, err = decodeRange(s.root, s.arrayCtx, s.resolver, r.Start, r.End, fields)
		if err != nil {
			return nil, err
		}
	}
	projected, err := s.projection.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	if mask.IsAllTrue() {
		return projected, nil
	}
	maskArr := array.NewBoolFromBools(mask.Bools(), dtype.NonNullable, array.AllValid(mask.Len()))
	return array.Filter(projected, maskArr)
}

// fieldsSatisfied reports whether scope already carries every one of
// fields. nil fields means "all", for which it always reports false.
func fieldsSatisfied(scope array.Array, fields []string) bool {
	if fields == nil {
		return false
	}
	sa, ok := scope.(*array.StructArray)
	if !ok {
		return len(fields) == 0
	}
	for _, f := range fields {
		if sa.Field(f) == nil {
			return false
		}
	}
	return true
}

// maskFromBoolArray refines prior by intersecting it with result's
// Kleene-true positions (null treated as false, per spec §4.2
// "is_null stats path" and standard SQL WHERE semantics).
func maskFromBoolArray(prior RowMask, result array.Array) (RowMask, error) {
	bits := make([]bool, result.Len())
	for i := range bits {
		sc, err := array.ScalarAt(result, i)
		if err != nil {
			return RowMask{}, err
		}
		bits[i] = !sc.IsNull() && sc.Value.Bool
	}
	refined := RowMask{Start: prior.Start, n: prior.n, bits: bits}
	return prior.and(refined), nil
}
