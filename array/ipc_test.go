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

import (
	"testing"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/ion"
)

func u64Buf(vals []uint64) buffer.ByteBuffer {
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		for k := 0; k < 8; k++ {
			buf[i*8+k] = byte(v >> (8 * k))
		}
	}
	return buffer.New(buf, 8)
}

func TestFreezeThawPrimitive(t *testing.T) {
	a := NewPrimitive(dtype.U64, u64Buf([]uint64{1, 2, 3}), 3, dtype.NonNullable, AllValid(3))
	nodes, bufs := Freeze(a)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	got, err := Thaw(Default(), nodes, bufs)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		sc, err := ScalarAt(got, i)
		if err != nil {
			t.Fatal(err)
		}
		want, _ := ScalarAt(a, i)
		if sc.Value.Primitive.AsU64() != want.Value.Primitive.AsU64() {
			t.Errorf("row %d mismatch", i)
		}
	}
}

func TestFreezeThawStruct(t *testing.T) {
	col1 := NewPrimitive(dtype.U64, u64Buf([]uint64{10, 20}), 2, dtype.NonNullable, AllValid(2))
	col2 := NewPrimitive(dtype.U64, u64Buf([]uint64{30, 40}), 2, dtype.NonNullable, AllValid(2))
	st := NewStruct([]string{"a", "b"}, []Array{col1, col2}, dtype.NonNullable, AllValid(2))

	nodes, bufs := Freeze(st)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes (struct + 2 fields), got %d", len(nodes))
	}
	got, err := Thaw(Default(), nodes, bufs)
	if err != nil {
		t.Fatal(err)
	}
	gotStruct, ok := got.(*StructArray)
	if !ok {
		t.Fatalf("expected *StructArray, got %T", got)
	}
	field := gotStruct.Field("b")
	sc, err := ScalarAt(field, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Value.Primitive.AsU64() != 40 {
		t.Errorf("got %d want 40", sc.Value.Primitive.AsU64())
	}
}

func TestMessageNodeCodecRoundtrip(t *testing.T) {
	a := NewPrimitive(dtype.U64, u64Buf([]uint64{1, 2, 3}), 3, dtype.NonNullable, AllValid(3))
	nodes, _ := Freeze(a)

	var buf ion.Buffer
	var symtab ion.Symtab
	EncodeMessageNodes(&buf, &symtab, nodes)
	datum, _, err := ion.ReadDatum(&symtab, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeMessageNodes(datum)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].EncodingID != EncodingPrimitive || got[0].Length != 3 {
		t.Fatalf("unexpected roundtrip result: %+v", got)
	}
}
