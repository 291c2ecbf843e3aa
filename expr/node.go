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

// Package expr implements Vortex's expression IR: a small tree of
// pushdown-capable operations that evaluate directly against arrays,
// used by the scan engine for pruning, filtering and projection.
package expr

import (
	"fmt"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
)

// Node is the common interface of every expression tree node (spec
// §4.6). Each Node evaluates against a scope array of its own length
// and computes its result dtype statically from the scope's dtype.
type Node interface {
	// Evaluate computes this expression's value over scope, returning
	// an array whose length equals scope.Len().
	Evaluate(scope array.Array) (array.Array, error)

	// ReturnDType computes this expression's result dtype given the
	// dtype of scope, without evaluating any data.
	ReturnDType(scopeDType dtype.DType) (dtype.DType, error)

	walk(w Visitor)
	rewrite(r Rewriter) Node
}

// Visitor is satisfied by the argument to Walk. Visit is invoked for
// every node; if the returned Visitor is non-nil, Walk descends into
// the node's children with it, followed by a closing Visit(nil).
type Visitor interface {
	Visit(Node) Visitor
}

// Walk traverses n in depth-first order, calling v.Visit at every
// node (see go/ast.Walk).
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	w := v.Visit(n)
	if w != nil {
		n.walk(w)
		w.Visit(nil)
	}
}

// Rewriter rewrites nodes bottom-up. Walk controls whether (and with
// which Rewriter) traversal continues into a node's children.
type Rewriter interface {
	Rewrite(Node) Node
	Walk(Node) Rewriter
}

// Rewrite recursively applies r to n in depth-first order, replacing
// each node with r.Rewrite's result.
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return nil
	}
	if rc := r.Walk(n); rc != nil {
		n = n.rewrite(rc)
	}
	return r.Rewrite(n)
}

// Identity is the scope itself: Evaluate returns scope unchanged.
type Identity struct{}

func (Identity) Evaluate(scope array.Array) (array.Array, error) { return scope, nil }
func (Identity) ReturnDType(scopeDType dtype.DType) (dtype.DType, error) { return scopeDType, nil }
func (Identity) walk(Visitor)             {}
func (n Identity) rewrite(Rewriter) Node { return n }
func (Identity) String() string           { return "$" }

// Literal is a constant scalar value, broadcast to scope's length.
type Literal struct {
	Value scalar.Scalar
}

func (l Literal) Evaluate(scope array.Array) (array.Array, error) {
	return array.NewConstant(l.Value, scope.Len()), nil
}

func (l Literal) ReturnDType(dtype.DType) (dtype.DType, error) { return l.Value.DType, nil }
func (Literal) walk(Visitor)                                   {}
func (l Literal) rewrite(Rewriter) Node                        { return l }
func (l Literal) String() string                                { return l.Value.String() }

// GetItem projects a single named struct field out of Child's result.
type GetItem struct {
	Field string
	Child Node
}

func (g GetItem) Evaluate(scope array.Array) (array.Array, error) {
	v, err := g.Child.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	sa, ok := v.(*array.StructArray)
	if !ok {
		return nil, fmt.Errorf("expr: GetItem(%q) on non-struct array", g.Field)
	}
	f := sa.Field(g.Field)
	if f == nil {
		return nil, fmt.Errorf("expr: GetItem: no such field %q", g.Field)
	}
	return f, nil
}

func (g GetItem) ReturnDType(scopeDType dtype.DType) (dtype.DType, error) {
	cdt, err := g.Child.ReturnDType(scopeDType)
	if err != nil {
		return dtype.DType{}, err
	}
	if cdt.Kind != dtype.KindStruct {
		return dtype.DType{}, fmt.Errorf("expr: GetItem(%q) on non-struct dtype %s", g.Field, cdt)
	}
	ft, ok := cdt.Struct.Field(g.Field)
	if !ok {
		return dtype.DType{}, fmt.Errorf("expr: GetItem: no such field %q", g.Field)
	}
	return ft, nil
}

func (g GetItem) walk(w Visitor) { Walk(w, g.Child) }
func (g GetItem) rewrite(r Rewriter) Node {
	g.Child = Rewrite(r, g.Child)
	return g
}
func (g GetItem) String() string { return fmt.Sprintf("%s.%s", g.Child, g.Field) }

// BinaryOp enumerates BinaryExpr's operators (spec §4.6).
type BinaryOp uint8

const (
	OpEq BinaryOp = iota
	OpNotEq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNotEq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return "?"
	}
}

func (op BinaryOp) compareOp() (array.CompareOp, bool) {
	switch op {
	case OpEq:
		return array.CompareEq, true
	case OpNotEq:
		return array.CompareNotEq, true
	case OpLt:
		return array.CompareLt, true
	case OpLte:
		return array.CompareLte, true
	case OpGt:
		return array.CompareGt, true
	case OpGte:
		return array.CompareGte, true
	default:
		return 0, false
	}
}

// BinaryExpr applies a binary comparison or boolean operator to two
// sub-expressions' results.
type BinaryExpr struct {
	Lhs Node
	Op  BinaryOp
	Rhs Node
}

func (b BinaryExpr) Evaluate(scope array.Array) (array.Array, error) {
	lv, err := b.Lhs.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	rv, err := b.Rhs.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	if b.Op == OpAnd || b.Op == OpOr {
		return kleeneCombine(b.Op, lv, rv)
	}
	cop, ok := b.Op.compareOp()
	if !ok {
		return nil, fmt.Errorf("expr: unsupported binary operator %s", b.Op)
	}
	return array.Compare(lv, rv, cop)
}

func (b BinaryExpr) ReturnDType(scopeDType dtype.DType) (dtype.DType, error) {
	n := dtype.NonNullable
	if ld, err := b.Lhs.ReturnDType(scopeDType); err == nil && ld.Nullable() {
		n = dtype.Nullable
	}
	if rd, err := b.Rhs.ReturnDType(scopeDType); err == nil && rd.Nullable() {
		n = dtype.Nullable
	}
	return dtype.Bool(n), nil
}

func (b BinaryExpr) walk(w Visitor) {
	Walk(w, b.Lhs)
	Walk(w, b.Rhs)
}

func (b BinaryExpr) rewrite(r Rewriter) Node {
	b.Lhs = Rewrite(r, b.Lhs)
	b.Rhs = Rewrite(r, b.Rhs)
	return b
}

func (b BinaryExpr) String() string { return fmt.Sprintf("(%s %s %s)", b.Lhs, b.Op, b.Rhs) }

// Not negates its child's boolean result, using Kleene logic (null
// stays null).
type Not struct {
	Child Node
}

func (n Not) Evaluate(scope array.Array) (array.Array, error) {
	v, err := n.Child.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	return kleeneNot(v)
}

func (n Not) ReturnDType(scopeDType dtype.DType) (dtype.DType, error) {
	return n.Child.ReturnDType(scopeDType)
}

func (n Not) walk(w Visitor)          { Walk(w, n.Child) }
func (n Not) rewrite(r Rewriter) Node { n.Child = Rewrite(r, n.Child); return n }
func (n Not) String() string          { return fmt.Sprintf("NOT %s", n.Child) }

// Between tests value against [Lower, Upper] per Options, using the
// fast between kernel when both bounds are constant (spec §4.2, §4.6).
type Between struct {
	Value   Node
	Lower   Node
	Upper   Node
	Options array.BetweenOptions
}

func (b Between) Evaluate(scope array.Array) (array.Array, error) {
	v, err := b.Value.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	lowerNode, ok := b.Lower.(Literal)
	upperNode, ok2 := b.Upper.(Literal)
	if ok && ok2 {
		return array.Between(v, lowerNode.Value, upperNode.Value, b.Options)
	}
	lv, err := b.Lower.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	uv, err := b.Upper.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	ge, err := array.Compare(v, lv, array.CompareGte)
	if err != nil {
		return nil, err
	}
	le, err := array.Compare(v, uv, array.CompareLte)
	if err != nil {
		return nil, err
	}
	return kleeneCombine(OpAnd, ge, le)
}

func (b Between) ReturnDType(scopeDType dtype.DType) (dtype.DType, error) {
	return dtype.Bool(dtype.Nullable), nil
}

func (b Between) walk(w Visitor) {
	Walk(w, b.Value)
	Walk(w, b.Lower)
	Walk(w, b.Upper)
}

func (b Between) rewrite(r Rewriter) Node {
	b.Value = Rewrite(r, b.Value)
	b.Lower = Rewrite(r, b.Lower)
	b.Upper = Rewrite(r, b.Upper)
	return b
}

func (b Between) String() string { return fmt.Sprintf("%s BETWEEN %s AND %s", b.Value, b.Lower, b.Upper) }

// Pack assembles several named sub-expressions' results into a single
// Struct array (the counterpart to GetItem).
type Pack struct {
	Names    []string
	Children []Node
}

func (p Pack) Evaluate(scope array.Array) (array.Array, error) {
	fields := make([]array.Array, len(p.Children))
	for i, c := range p.Children {
		v, err := c.Evaluate(scope)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	n := scope.Len()
	return array.NewStruct(p.Names, fields, dtype.NonNullable, array.AllValid(n)), nil
}

func (p Pack) ReturnDType(scopeDType dtype.DType) (dtype.DType, error) {
	types := make([]dtype.DType, len(p.Children))
	for i, c := range p.Children {
		t, err := c.ReturnDType(scopeDType)
		if err != nil {
			return dtype.DType{}, err
		}
		types[i] = t
	}
	return dtype.Struct(p.Names, types, dtype.NonNullable), nil
}

func (p Pack) walk(w Visitor) {
	for _, c := range p.Children {
		Walk(w, c)
	}
}

func (p Pack) rewrite(r Rewriter) Node {
	out := make([]Node, len(p.Children))
	for i, c := range p.Children {
		out[i] = Rewrite(r, c)
	}
	p.Children = out
	return p
}

func (p Pack) String() string { return fmt.Sprintf("PACK%v", p.Names) }

// SelectMode distinguishes Select's Include/Exclude variants.
type SelectMode uint8

const (
	SelectInclude SelectMode = iota
	SelectExclude
)

// Select keeps (Include) or drops (Exclude) the named fields of a
// struct scope, preserving the order of the remaining fields.
type Select struct {
	Mode   SelectMode
	Fields []string
}

func (s Select) fieldSet() map[string]bool {
	m := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		m[f] = true
	}
	return m
}

func (s Select) Evaluate(scope array.Array) (array.Array, error) {
	sa, ok := scope.(*array.StructArray)
	if !ok {
		return nil, fmt.Errorf("expr: Select on non-struct array")
	}
	set := s.fieldSet()
	dt := scope.DType()
	var names []string
	var fields []array.Array
	for _, name := range dt.Struct.Names {
		keep := set[name]
		if s.Mode == SelectExclude {
			keep = !keep
		}
		if !keep {
			continue
		}
		names = append(names, name)
		fields = append(fields, sa.Field(name))
	}
	return array.NewStruct(names, fields, dt.Null, scope.Validity()), nil
}

func (s Select) ReturnDType(scopeDType dtype.DType) (dtype.DType, error) {
	if scopeDType.Kind != dtype.KindStruct {
		return dtype.DType{}, fmt.Errorf("expr: Select on non-struct dtype %s", scopeDType)
	}
	set := s.fieldSet()
	var names []string
	var types []dtype.DType
	for i, name := range scopeDType.Struct.Names {
		keep := set[name]
		if s.Mode == SelectExclude {
			keep = !keep
		}
		if !keep {
			continue
		}
		names = append(names, name)
		types = append(types, scopeDType.Struct.Types[i])
	}
	return dtype.Struct(names, types, scopeDType.Null), nil
}

func (s Select) walk(Visitor)           {}
func (s Select) rewrite(Rewriter) Node { return s }
func (s Select) String() string {
	if s.Mode == SelectExclude {
		return fmt.Sprintf("EXCLUDE%v", s.Fields)
	}
	return fmt.Sprintf("INCLUDE%v", s.Fields)
}
