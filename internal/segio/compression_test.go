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

package segio

import (
	"bytes"
	"testing"
)

func TestRoundtrip(t *testing.T) {
	for _, algo := range []Algo{AlgoNone, AlgoZstd, AlgoZstdBetter, AlgoS2} {
		src := bytes.Repeat([]byte("vortex segment payload "), 64)
		compressed, used, err := Compress(algo, src, nil)
		if err != nil {
			t.Fatalf("%s: compress: %v", algo, err)
		}
		if used != algo {
			t.Fatalf("%s: got algo %s", algo, used)
		}
		dst := make([]byte, len(src))
		if err := Decompress(used, compressed, dst); err != nil {
			t.Fatalf("%s: decompress: %v", algo, err)
		}
		if !bytes.Equal(src, dst) {
			t.Fatalf("%s: roundtrip mismatch", algo)
		}
	}
}

func TestUnknownAlgo(t *testing.T) {
	_, _, err := Compress(Algo("bogus"), []byte("x"), nil)
	if err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}
