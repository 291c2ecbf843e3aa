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

package dtype

import (
	"testing"

	"github.com/vortexdb/vortex/ion"
)

func roundtrip(t *testing.T, d DType) DType {
	t.Helper()
	var buf ion.Buffer
	var st ion.Symtab
	Encode(&buf, &st, d)
	datum, _, err := ion.ReadDatum(&st, buf.Bytes())
	if err != nil {
		t.Fatalf("ReadDatum: %v", err)
	}
	out, err := Decode(datum)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return out
}

func TestCodecPrimitive(t *testing.T) {
	d := Primitive(I32, Nullable)
	got := roundtrip(t, d)
	if !got.Equal(d) {
		t.Errorf("got %s want %s", got, d)
	}
}

func TestCodecStruct(t *testing.T) {
	d := Struct([]string{"a", "b"}, []DType{Primitive(U64, NonNullable), Utf8(Nullable)}, NonNullable)
	got := roundtrip(t, d)
	if !got.Equal(d) {
		t.Errorf("got %s want %s", got, d)
	}
}

func TestCodecListAndExtension(t *testing.T) {
	inner := List(Primitive(F64, Nullable), NonNullable)
	got := roundtrip(t, inner)
	if !got.Equal(inner) {
		t.Errorf("got %s want %s", got, inner)
	}

	ext := Extension("vortex.timestamp", []byte{1, 2, 3}, Primitive(I64, NonNullable), Nullable)
	got2 := roundtrip(t, ext)
	if !got2.Equal(ext) {
		t.Errorf("got %s want %s", got2, ext)
	}
}

func TestCodecDecimal(t *testing.T) {
	d := Decimal(18, 4, Nullable)
	got := roundtrip(t, d)
	if !got.Equal(d) {
		t.Errorf("got %s want %s", got, d)
	}
}
