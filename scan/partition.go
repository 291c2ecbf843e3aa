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
	"sort"

	"github.com/vortexdb/vortex/layout"
)

// RowRange is one disjoint, ascending slice of the scan domain
// produced by partition (spec §4.8 "Row-range partitioning").
type RowRange struct {
	Start int64
	End   int64
}

// Len reports the number of rows in r.
func (r RowRange) Len() int64 { return r.End - r.Start }

// partition unions root's own split points with sel's boundaries to
// produce an ordered sequence of disjoint row ranges covering
// [0, root.Len()).
func partition(root layout.Layout, sel Selection) []RowRange {
	n := int64(root.Len())
	if n == 0 {
		return nil
	}
	cuts := map[int64]struct{}{0: {}, n: {}}
	for _, p := range root.SplitPoints() {
		if p > 0 && p < n {
			cuts[p] = struct{}{}
		}
	}
	for _, p := range sel.splitPoints() {
		if p > 0 && p < n {
			cuts[p] = struct{}{}
		}
	}
	sorted := make([]int64, 0, len(cuts))
	for p := range cuts {
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	ranges := make([]RowRange, 0, len(sorted)-1)
	for i := 0; i+1 < len(sorted); i++ {
		ranges = append(ranges, RowRange{Start: sorted[i], End: sorted[i+1]})
	}
	return ranges
}
