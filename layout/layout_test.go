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

func TestChildKindString(t *testing.T) {
	cases := map[ChildKind]string{
		Transparent: "transparent",
		Auxiliary:   "auxiliary",
		Chunk:       "chunk",
		Field:       "field",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("ChildKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestDefaultContextHasStandardEncodings(t *testing.T) {
	ctx := Default()
	for _, id := range []string{EncodingFlat, EncodingChunked, EncodingStruct, EncodingStats} {
		if _, ok := ctx.Lookup(id); !ok {
			t.Errorf("expected %q to be registered", id)
		}
	}
}

func TestContextBuildUnknownEncoding(t *testing.T) {
	ctx := NewContext()
	_, err := ctx.Build("bogus", dtype.Primitive(dtype.I64, dtype.NonNullable), 0, nil, nil, nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered encoding")
	}
}

func TestContextCloneIsIndependent(t *testing.T) {
	ctx := NewContext()
	ctx.Register(EncodingFlat, buildFlat)
	clone := ctx.Clone()
	clone.Register(EncodingChunked, buildChunked)

	if _, ok := ctx.Lookup(EncodingChunked); ok {
		t.Fatal("expected mutating the clone not to affect the original")
	}
	if _, ok := clone.Lookup(EncodingFlat); !ok {
		t.Fatal("expected the clone to retain entries present at clone time")
	}
}

func TestFlatLayoutBuildViaContext(t *testing.T) {
	ctx := Default()
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	fl := NewFlat(dt, 3, nil, nil)
	rebuilt, err := ctx.Build(EncodingFlat, dt, 3, fl.Metadata(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.Len() != 3 {
		t.Fatalf("expected length 3, got %d", rebuilt.Len())
	}
}
