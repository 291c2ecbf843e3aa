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

// SplitConjunction returns the top-level AND conjuncts of n as
// independent expressions, so each can be pushed down (e.g. to
// different layout children) without re-evaluating the others (spec
// §4.6 "Splitting"). A non-AND expression returns a single-element
// slice containing itself.
func SplitConjunction(n Node) []Node {
	b, ok := n.(BinaryExpr)
	if !ok || b.Op != OpAnd {
		return []Node{n}
	}
	return append(SplitConjunction(b.Lhs), SplitConjunction(b.Rhs)...)
}
