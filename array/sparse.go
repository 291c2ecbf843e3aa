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
	"fmt"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/vortexerr"
)

// SparseArray represents an array that is fillValue everywhere except
// at the positions named by indices (strictly increasing, relative to
// offset), which take the corresponding value from values (spec §4.3
// Sparse). Used as the Patches side-array of BitPacked/ALP/ALPRD and,
// standalone, for highly-repetitive columns with rare exceptions.
type SparseArray struct {
	base
	indices   []int64 // strictly increasing logical positions, relative to offset
	values    Array   // len(values) == len(indices)
	fillValue scalar.Scalar
	offset    int // logical offset subtracted from caller-visible indices before lookup
}

// NewSparse constructs a SparseArray of the given length. indices must
// be strictly increasing and index into values 1:1.
func NewSparse(indices []int64, values Array, fillValue scalar.Scalar, length, offset int) *SparseArray {
	if len(indices) != values.Len() {
		panic("array: sparse indices/values length mismatch")
	}
	return &SparseArray{base: newBase(values.DType(), length, AllValid(length)), indices: indices, values: values, fillValue: fillValue, offset: offset}
}

func (s *SparseArray) EncodingID() string { return EncodingSparse }
func (s *SparseArray) NChildren() int      { return 1 }
func (s *SparseArray) Child(i int) Array   { return s.values }

// indicesArray exposes the patch position buffer as a searchable U64
// array. The positions are not offset-adjusted; callers add offset to
// the logical row before searching (see patchPositionFor).
func (s *SparseArray) indicesArray() Array {
	rel := make([]uint64, len(s.indices))
	for i, idx := range s.indices {
		rel[i] = uint64(idx)
	}
	return NewPrimitive(dtype.U64, buffer.FromSlice(rel), len(rel), dtype.NonNullable, AllValid(len(rel)))
}

func (s *SparseArray) patchPositionFor(i int) (int, bool) {
	target := int64(i + s.offset)
	res, err := SearchSorted(s.indicesArray(), scalar.NewU64(uint64(target)), SearchLeft)
	if err != nil || !res.Found {
		return 0, false
	}
	if res.Index >= len(s.indices) || s.indices[res.Index] != target {
		return 0, false
	}
	return res.Index, true
}

func (s *SparseArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	if pos, ok := s.patchPositionFor(i); ok {
		return ScalarAt(s.values, pos)
	}
	return s.fillValue, nil
}

func (s *SparseArray) ToCanonical() (Array, error) {
	vals := make([]scalar.Scalar, s.n)
	for i := 0; i < s.n; i++ {
		sc, err := ScalarAt(s, i)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return scalarsToArray(s.dt, vals), nil
}

// SliceKernel narrows the logical window and adjusts offset so that
// patch lookups in the slice remain fill-relative to the original
// array, per the SUPPLEMENTED search_sorted behavior (spec §4.3/SPEC_FULL).
func (s *SparseArray) SliceKernel(start, stop int) (Array, error) {
	return NewSparse(s.indices, s.values, s.fillValue, stop-start, s.offset+start), nil
}

// SearchSortedKernel binary-searches the logical value space (fill
// positions included) through ScalarAt, exactly like the dense
// fallback. It does not consult the patch index, and it assumes the
// logical values are sorted.
func (s *SparseArray) SearchSortedKernel(value scalar.Scalar, side SearchSortedSide) (SearchSortedResult, error) {
	return denseSearchSorted(s, value, side)
}

func (s *SparseArray) IsConstantKernel() (bool, error) {
	return len(s.indices) == 0, nil
}

func (s *SparseArray) Metadata() []byte {
	fv := scalar.Marshal(s.fillValue)
	hdr := make([]byte, 0, 8+len(fv))
	hdr = appendUvarint(hdr, uint64(s.offset))
	hdr = appendUvarint(hdr, uint64(len(fv)))
	hdr = append(hdr, fv...)
	return hdr
}

func appendUvarint(b []byte, v uint64) []byte {
	var tmp [10]byte
	n := 0
	for v >= 0x80 {
		tmp[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	tmp[n] = byte(v)
	n++
	return append(b, tmp[:n]...)
}

func readUvarint(b []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, c := range b {
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return v, len(b)
}

func (s *SparseArray) NBuffers() int                 { return 1 }
func (s *SparseArray) Buffer(i int) buffer.ByteBuffer { return buffer.FromSlice(s.indices) }

func buildSparse(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	offset, n1 := readUvarint(metadata)
	rest := metadata[n1:]
	flen, n2 := readUvarint(rest)
	rest = rest[n2:]
	if uint64(len(rest)) < flen {
		return nil, fmt.Errorf("array: sparse metadata truncated: %w", vortexerr.MalformedFile)
	}
	fv, err := scalar.Unmarshal(dt, rest[:flen])
	if err != nil {
		return nil, err
	}
	indices := buffer.Typed[int64](buffers[0])
	return NewSparse(append([]int64(nil), indices...), children[0], fv, length, int(offset)), nil
}
