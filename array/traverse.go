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

// Visit performs a depth-first preorder traversal of a, calling fn on
// a itself and then recursively on each child (spec §4.1 "Array tree
// traversal"). Traversal stops and returns the first error fn produces.
func Visit(a Array, fn func(Array) error) error {
	if err := fn(a); err != nil {
		return err
	}
	for i := 0; i < a.NChildren(); i++ {
		if err := Visit(a.Child(i), fn); err != nil {
			return err
		}
	}
	return nil
}

// CountNodes returns the number of arrays in a's tree, including a
// itself.
func CountNodes(a Array) int {
	n := 0
	Visit(a, func(Array) error { n++; return nil })
	return n
}

// Depth returns the maximum number of edges from a to any leaf in its
// tree; a leaf array has depth 0.
func Depth(a Array) int {
	if a.NChildren() == 0 {
		return 0
	}
	max := 0
	for i := 0; i < a.NChildren(); i++ {
		if d := Depth(a.Child(i)); d > max {
			max = d
		}
	}
	return max + 1
}
