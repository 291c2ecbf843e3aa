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

import "github.com/vortexdb/vortex/array"

// TransformResult is a MutNodeVisitor step's outcome: the
// (possibly-unchanged) replacement node and whether it actually
// changed, so callers can fixed-point iterate until no transform in a
// pipeline reports a change (spec §4.6 "Transforms").
type TransformResult struct {
	Node    Node
	Changed bool
}

// MutNodeVisitor rewrites one node at a time, given its already-
// rewritten children; ApplyBottomUp drives a single bottom-up pass.
type MutNodeVisitor interface {
	VisitMut(n Node) TransformResult
}

// ApplyBottomUp rewrites every node of n in post-order using v,
// returning the final node and whether any node in the tree changed.
func ApplyBottomUp(v MutNodeVisitor, n Node) (Node, bool) {
	changedAny := false
	rewritten := Rewrite(bottomUpRewriter{v: v, changed: &changedAny}, n)
	return rewritten, changedAny
}

type bottomUpRewriter struct {
	v       MutNodeVisitor
	changed *bool
}

func (r bottomUpRewriter) Walk(Node) Rewriter { return r }

func (r bottomUpRewriter) Rewrite(n Node) Node {
	res := r.v.VisitMut(n)
	if res.Changed {
		*r.changed = true
	}
	return res.Node
}

// matchBetween recognizes (x >= a) AND (x < b), in either orientation
// and with either inequality strict or not, and rewrites it to a
// Between node (spec §4.6 "MatchBetween").
type matchBetween struct{}

// MatchBetween returns a MutNodeVisitor that performs the MatchBetween
// rewrite described by spec §4.6.
func MatchBetween() MutNodeVisitor { return matchBetween{} }

func (matchBetween) VisitMut(n Node) TransformResult {
	b, ok := n.(BinaryExpr)
	if !ok || b.Op != OpAnd {
		return TransformResult{Node: n}
	}
	lb, lok := asBound(b.Lhs)
	rb, rok := asBound(b.Rhs)
	if !lok || !rok {
		return TransformResult{Node: n}
	}
	if lb.isLower && rb.isUpper && sameValue(lb.value, rb.value) {
		return TransformResult{Node: buildBetween(lb, rb), Changed: true}
	}
	if rb.isLower && lb.isUpper && sameValue(lb.value, rb.value) {
		return TransformResult{Node: buildBetween(rb, lb), Changed: true}
	}
	return TransformResult{Node: n}
}

type bound struct {
	value   Node
	bound   Node
	strict  array.StrictComparison
	isLower bool
	isUpper bool
}

func strictOf(isStrict bool) array.StrictComparison {
	if isStrict {
		return array.BoundExclusive
	}
	return array.BoundInclusive
}

// asBound recognizes `value OP literal` as a lower or upper bound:
// Gte/Gt on the left establish a lower bound; Lt/Lte establish an
// upper bound. The left operand is always taken as the value, so
// `literal OP value` orientations are not recognized.
func asBound(n Node) (bound, bool) {
	b, ok := n.(BinaryExpr)
	if !ok {
		return bound{}, false
	}
	switch b.Op {
	case OpGte, OpGt:
		return bound{value: b.Lhs, bound: b.Rhs, strict: strictOf(b.Op == OpGt), isLower: true}, true
	case OpLt, OpLte:
		return bound{value: b.Lhs, bound: b.Rhs, strict: strictOf(b.Op == OpLt), isUpper: true}, true
	default:
		return bound{}, false
	}
}

func sameValue(a, b Node) bool {
	return a.String() == b.String()
}

func buildBetween(lower, upper bound) Node {
	return Between{
		Value: lower.value,
		Lower: lower.bound,
		Upper: upper.bound,
		Options: array.BetweenOptions{
			LowerStrict: lower.strict,
			UpperStrict: upper.strict,
		},
	}
}
