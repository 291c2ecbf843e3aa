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

package layout

import (
	"testing"

	"github.com/vortexdb/vortex/dtype"
)

func TestStructLayoutFieldLookup(t *testing.T) {
	i64 := dtype.Primitive(dtype.I64, dtype.NonNullable)
	f64 := dtype.Primitive(dtype.F64, dtype.Nullable)
	dt := dtype.Struct([]string{"a", "b"}, []dtype.DType{i64, f64}, dtype.NonNullable)
	a := flatStub(i64, 3)
	b := flatStub(f64, 3)
	s := NewStruct(dt, 3, []string{"a", "b"}, []Layout{a, b}, nil)

	if s.Field("a") != a {
		t.Fatal("expected Field(\"a\") to return the a layout")
	}
	if s.Field("b") != b {
		t.Fatal("expected Field(\"b\") to return the b layout")
	}
	if s.Field("missing") != nil {
		t.Fatal("expected Field on an unknown name to return nil")
	}
}

func TestStructLayoutChildrenWithValidity(t *testing.T) {
	i64 := dtype.Primitive(dtype.I64, dtype.Nullable)
	dt := dtype.Struct([]string{"a"}, []dtype.DType{i64}, dtype.NonNullable)
	a := flatStub(i64, 3)
	validity := flatStub(dtype.Bool(dtype.NonNullable), 3)
	s := NewStruct(dt, 3, []string{"a"}, []Layout{a}, validity)

	refs := s.Children()
	if len(refs) != 2 {
		t.Fatalf("expected 2 children, got %d", len(refs))
	}
	if refs[0].Kind != Field || refs[0].Name != "a" {
		t.Fatalf("unexpected first child: %+v", refs[0])
	}
	if refs[1].Kind != Auxiliary || refs[1].Name != "validity" {
		t.Fatalf("unexpected second child: %+v", refs[1])
	}
}

func TestBuildStructRejectsUnknownChildKind(t *testing.T) {
	i64 := dtype.Primitive(dtype.I64, dtype.NonNullable)
	dt := dtype.Struct([]string{"a"}, []dtype.DType{i64}, dtype.NonNullable)
	children := []ChildRef{{Kind: Chunk, Layout: flatStub(i64, 3)}}
	if _, err := buildStruct(dt, 3, nil, children, nil); err == nil {
		t.Fatal("expected an error for an unexpected child kind")
	}
}
