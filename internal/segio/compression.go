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

// Package segio compresses and decompresses the segments that make up
// a vortex file, wrapping the same third-party codecs the rest of the
// module uses for ion blocks.
package segio

import (
	"fmt"

	"github.com/vortexdb/vortex/compr"
)

// Algo names a segment compression algorithm, stored verbatim in the
// footer's segment map so a reader can pick the matching decompressor
// without guessing.
type Algo string

const (
	AlgoNone       Algo = "none"
	AlgoZstd       Algo = "zstd"
	AlgoZstdBetter Algo = "zstd-better"
	AlgoS2         Algo = "s2"
)

// Compress appends the compressed form of src to dst and returns the
// result along with the algorithm actually used (AlgoNone when algo
// is empty or AlgoNone, i.e. for a segment the caller chose not to
// compress). An algo with no associated Compressor is an error.
func Compress(algo Algo, src, dst []byte) ([]byte, Algo, error) {
	if algo == "" || algo == AlgoNone {
		return append(dst, src...), AlgoNone, nil
	}
	c := compr.Compression(string(algo))
	if c == nil {
		return nil, "", fmt.Errorf("segio: unknown compression algorithm %q", algo)
	}
	return c.Compress(src, dst), algo, nil
}

// Decompress decompresses src (compressed with algo) into dst, which
// must already be sized to the uncompressed length.
func Decompress(algo Algo, src, dst []byte) error {
	if algo == "" || algo == AlgoNone {
		if len(src) != len(dst) {
			return fmt.Errorf("segio: uncompressed segment length mismatch: got %d want %d", len(src), len(dst))
		}
		copy(dst, src)
		return nil
	}
	d := compr.Decompression(string(algo))
	if d == nil {
		return fmt.Errorf("segio: unknown compression algorithm %q", algo)
	}
	return d.Decompress(src, dst)
}
