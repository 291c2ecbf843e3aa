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

// Package scan implements the scan engine: it turns a
// (layout, projection, filter, selection) request into a pull-driven
// sequence of result chunks, pruning and coalescing I/O along the way
// (spec §4.8).
package scan

import "golang.org/x/exp/slices"

// SelectionKind tags one of Selection's three forms (spec §4.8
// "Inputs").
type SelectionKind uint8

const (
	SelectAll SelectionKind = iota
	SelectIncludeByIndex
	SelectExcludeByIndex
)

// Selection is a row-domain predicate supplied by the caller,
// independent of any filter expression: All, an explicit sorted set
// of row indices to include, or a sorted set to exclude.
type Selection struct {
	Kind    SelectionKind
	Indices []uint64 // sorted ascending; meaningful for Include/ExcludeByIndex
}

// All selects every row.
func All() Selection { return Selection{Kind: SelectAll} }

// IncludeByIndex selects exactly the given sorted, absolute row
// indices.
func IncludeByIndex(sorted []uint64) Selection {
	return Selection{Kind: SelectIncludeByIndex, Indices: sorted}
}

// ExcludeByIndex selects every row except the given sorted, absolute
// row indices.
func ExcludeByIndex(sorted []uint64) Selection {
	return Selection{Kind: SelectExcludeByIndex, Indices: sorted}
}

// splitPoints returns the absolute row offsets at which sel's
// membership can change, used to fold the selection's own boundaries
// into the layout-derived partition (spec §4.8 "Row-range
// partitioning").
func (s Selection) splitPoints() []int64 {
	if s.Kind == SelectAll {
		return nil
	}
	pts := make([]int64, 0, len(s.Indices)*2)
	for _, idx := range s.Indices {
		pts = append(pts, int64(idx), int64(idx)+1)
	}
	return pts
}

// RowMask is a boolean selection over a contiguous row range, named
// by its absolute starting row offset (spec §4.8 "Row mask"). A nil
// bits slice is a sentinel meaning "every row of the range is
// selected" and avoids allocating a dense mask for the common case.
type RowMask struct {
	Start int64
	n     int64
	bits  []bool // len == n when non-nil; nil means all-true
}

// newAllTrue returns a RowMask over [start, start+n) with every bit
// set, without allocating a backing slice.
func newAllTrue(start int64, n int64) RowMask {
	return RowMask{Start: start, n: n}
}

// allFalse returns a RowMask over [start, start+n) with every bit
// clear.
func allFalse(start int64, n int64) RowMask {
	return RowMask{Start: start, n: n, bits: make([]bool, n)}
}

// Len reports the number of rows the mask covers.
func (m RowMask) Len() int {
	return int(m.n)
}

// IsAllFalse reports whether every row in the mask's range is
// excluded.
func (m RowMask) IsAllFalse() bool {
	if m.bits == nil {
		return m.n == 0
	}
	for _, b := range m.bits {
		if b {
			return false
		}
	}
	return true
}

// IsAllTrue reports whether no row has been excluded (either the
// sentinel all-true mask, or an explicit mask with every bit set).
func (m RowMask) IsAllTrue() bool {
	if m.bits == nil {
		return true
	}
	for _, b := range m.bits {
		if !b {
			return false
		}
	}
	return true
}

// TrueCount returns the number of selected rows.
func (m RowMask) TrueCount() int {
	if m.bits == nil {
		return int(m.n)
	}
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Bools materializes the mask as a dense []bool of length m.Len(),
// treating the all-true sentinel as every-true.
func (m RowMask) Bools() []bool {
	if m.bits == nil {
		out := make([]bool, m.n)
		for i := range out {
			out[i] = true
		}
		return out
	}
	return m.bits
}

// and returns the elementwise conjunction of m and other, which must
// cover the same range.
func (m RowMask) and(other RowMask) RowMask {
	if m.bits == nil {
		return other
	}
	if other.bits == nil {
		return m
	}
	out := make([]bool, len(m.bits))
	for i := range out {
		out[i] = m.bits[i] && other.bits[i]
	}
	return RowMask{Start: m.Start, n: m.n, bits: out}
}

// maskFromSelection derives a RowMask over [start, start+n) from sel.
func maskFromSelection(sel Selection, start, n int64) RowMask {
	switch sel.Kind {
	case SelectAll:
		return newAllTrue(start, n)
	case SelectIncludeByIndex:
		bits := make([]bool, n)
		lo, _ := slices.BinarySearch(sel.Indices, uint64(start))
		for _, idx := range sel.Indices[lo:] {
			if int64(idx) >= start+n {
				break
			}
			bits[int64(idx)-start] = true
		}
		return RowMask{Start: start, n: n, bits: bits}
	case SelectExcludeByIndex:
		bits := make([]bool, n)
		for i := range bits {
			bits[i] = true
		}
		lo, _ := slices.BinarySearch(sel.Indices, uint64(start))
		for _, idx := range sel.Indices[lo:] {
			if int64(idx) >= start+n {
				break
			}
			bits[int64(idx)-start] = false
		}
		return RowMask{Start: start, n: n, bits: bits}
	default:
		return newAllTrue(start, n)
	}
}
