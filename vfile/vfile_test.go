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

package vfile

import (
	"bytes"
	"testing"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/layout"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/stats"
)

func i64Array(vals []int64) array.Array {
	buf := buffer.FromSlice(vals)
	return array.NewPrimitive(dtype.I64, buf, len(vals), dtype.NonNullable, array.AllValid(len(vals)))
}

// byteReaderAt adapts a []byte to io.ReaderAt for Open.
type byteReaderAt []byte

func (b byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(b).ReadAt(p, off)
}

func TestWriterReaderFlatRoundtrip(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	a := i64Array([]int64{1, 2, 3, 4, 5})

	var buf bytes.Buffer
	w := NewWriter(&buf)
	lw := layout.NewFlatLayoutWriter(w, layout.NewBtrBlocksCompressor(segio.AlgoZstd), segio.AlgoZstd)
	if err := lw.Push(a); err != nil {
		t.Fatal(err)
	}
	root, err := lw.Finish()
	if err != nil {
		t.Fatal(err)
	}

	rootStats := new(stats.Set)
	rootStats.SetExact(stats.NullCount, scalar.NewU64(0))

	if err := w.Finish(dt, root, array.Default().IDs(), layout.Default().IDs(), rootStats); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	r, err := Open(byteReaderAt(data), int64(len(data)), nil)
	if err != nil {
		t.Fatal(err)
	}

	if r.DType().Kind != dtype.KindPrimitive || r.DType().Primitive != dtype.I64 {
		t.Fatalf("unexpected dtype: %+v", r.DType())
	}
	fl, ok := r.Root().(*layout.FlatLayout)
	if !ok {
		t.Fatalf("expected *layout.FlatLayout, got %T", r.Root())
	}
	if fl.Len() != 5 {
		t.Fatalf("expected length 5, got %d", fl.Len())
	}

	decoded, err := fl.Decode(r.ArrayContext(), r)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Len() != 5 {
		t.Fatalf("expected decoded length 5, got %d", decoded.Len())
	}
	for i, want := range []int64{1, 2, 3, 4, 5} {
		sc, err := array.ScalarAt(decoded, i)
		if err != nil {
			t.Fatal(err)
		}
		if sc.Value.Primitive.AsI64() != want {
			t.Fatalf("row %d: expected %d, got %d", i, want, sc.Value.Primitive.AsI64())
		}
	}

	if r.RootStats() == nil {
		t.Fatal("expected a root stats set")
	}
	if v, ok := r.RootStats().GetExact(stats.NullCount); !ok || v.Value.Primitive.AsU64() != 0 {
		t.Fatalf("unexpected root null_count stat: %+v ok=%v", v, ok)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	data := make([]byte, MinInitialReadSize)
	marker := encodeEOFMarker(Version, 4)
	copy(data[len(data)-len(marker):], marker)
	// corrupt the magic bytes.
	data[len(data)-4] = 'X'
	if _, err := Open(byteReaderAt(data), int64(len(data)), nil); err == nil {
		t.Fatal("expected an error for corrupted magic bytes")
	}
}

func TestOpenRejectsUnsupportedVersion(t *testing.T) {
	data := make([]byte, MinInitialReadSize)
	marker := encodeEOFMarker(Version+1, 4)
	copy(data[len(data)-len(marker):], marker)
	if _, err := Open(byteReaderAt(data), int64(len(data)), nil); err == nil {
		t.Fatal("expected an error for an unsupported version")
	}
}

func TestWriterRejectsDoubleFinish(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	dt := dtype.Primitive(dtype.I64, dtype.NonNullable)
	lw := layout.NewFlatLayoutWriter(w, layout.NewBtrBlocksCompressor(segio.AlgoNone), segio.AlgoNone)
	if err := lw.Push(i64Array([]int64{1})); err != nil {
		t.Fatal(err)
	}
	root, err := lw.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(dt, root, nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(dt, root, nil, nil, nil); err == nil {
		t.Fatal("expected the second Finish call to fail")
	}
}
