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

	"golang.org/x/exp/slices"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/vortexerr"
)

// ChunkedArray is an ordered sequence of same-dtype sub-arrays,
// exposing a prefix-sum chunk_offsets buffer used to map a logical row
// to (chunk_id, chunk_row) by binary search (spec §4.3 Chunked).
type ChunkedArray struct {
	base
	chunks  []Array
	offsets []int64 // len(chunks)+1 prefix sums, offsets[0]==0
}

// NewChunked constructs a ChunkedArray from same-dtype chunks.
func NewChunked(dt dtype.DType, chunks []Array) *ChunkedArray {
	offsets := make([]int64, len(chunks)+1)
	total := 0
	for i, c := range chunks {
		total += c.Len()
		offsets[i+1] = int64(total)
	}
	return &ChunkedArray{base: newBase(dt, total, AllValid(total)), chunks: chunks, offsets: offsets}
}

func (c *ChunkedArray) EncodingID() string        { return EncodingChunked }
func (c *ChunkedArray) NChildren() int              { return len(c.chunks) }
func (c *ChunkedArray) Child(i int) Array           { return c.chunks[i] }
func (c *ChunkedArray) ToCanonical() (Array, error) { return canonicalizeChunked(c) }

// ChunkOffsets returns the prefix-sum offsets buffer (len(chunks)+1).
func (c *ChunkedArray) ChunkOffsets() []int64 { return c.offsets }

// Locate maps a logical row to (chunkIndex, rowWithinChunk) by binary
// search over the prefix sums.
func (c *ChunkedArray) Locate(row int) (chunkIndex, rowInChunk int) {
	idx, found := slices.BinarySearch(c.offsets, int64(row))
	if !found {
		idx--
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.chunks) {
		idx = len(c.chunks) - 1
	}
	return idx, row - int(c.offsets[idx])
}

func canonicalizeChunked(c *ChunkedArray) (Array, error) {
	if len(c.chunks) == 0 {
		return buildEmptyCanonical(c.dt), nil
	}
	canon := make([]Array, len(c.chunks))
	for i, ch := range c.chunks {
		cc, err := ch.ToCanonical()
		if err != nil {
			return nil, err
		}
		canon[i] = cc
	}
	return concatCanonical(c.dt, canon)
}

func buildEmptyCanonical(dt dtype.DType) Array {
	switch dt.Kind {
	case dtype.KindNull:
		return NewNull(0)
	case dtype.KindBool:
		return NewBoolFromBools(nil, dt.Null, AllValid(0))
	case dtype.KindPrimitive:
		return NewPrimitive(dt.Primitive, buffer.Empty(dt.Primitive.ByteWidth()), 0, dt.Null, AllValid(0))
	case dtype.KindUtf8, dtype.KindBinary:
		return NewVarBinView(nil, dt.Kind, dt.Null, AllValid(0))
	case dtype.KindStruct:
		fields := make([]Array, len(dt.Struct.Types))
		for i, ft := range dt.Struct.Types {
			fields[i] = buildEmptyCanonical(ft)
		}
		return NewStruct(dt.Struct.Names, fields, dt.Null, AllValid(0))
	default:
		return NewNull(0)
	}
}

func (c *ChunkedArray) ScalarAtKernel(i int) (scalar.Scalar, error) {
	ci, ri := c.Locate(i)
	return ScalarAt(c.chunks[ci], ri)
}

func (c *ChunkedArray) SliceKernel(start, stop int) (Array, error) {
	startChunk, startRow := c.Locate(start)
	endChunk, endRow := c.Locate(stop - 1)
	if startChunk == endChunk {
		sliced, err := Slice(c.chunks[startChunk], startRow, endRow+1)
		if err != nil {
			return nil, err
		}
		return NewChunked(c.dt, []Array{sliced}), nil
	}
	out := make([]Array, 0, endChunk-startChunk+1)
	first, err := Slice(c.chunks[startChunk], startRow, c.chunks[startChunk].Len())
	if err != nil {
		return nil, err
	}
	out = append(out, first)
	for i := startChunk + 1; i < endChunk; i++ {
		out = append(out, c.chunks[i])
	}
	last, err := Slice(c.chunks[endChunk], 0, endRow+1)
	if err != nil {
		return nil, err
	}
	out = append(out, last)
	return NewChunked(c.dt, out), nil
}

func (c *ChunkedArray) FilterKernel(mask Array) (Array, error) {
	out := make([]Array, 0, len(c.chunks))
	for i, ch := range c.chunks {
		m, err := Slice(mask, int(c.offsets[i]), int(c.offsets[i+1]))
		if err != nil {
			return nil, err
		}
		filtered, err := Filter(ch, m)
		if err != nil {
			return nil, err
		}
		if filtered.Len() > 0 {
			out = append(out, filtered)
		}
	}
	if len(out) == 0 {
		return NewChunked(c.dt, nil), nil
	}
	return NewChunked(c.dt, out), nil
}

func (c *ChunkedArray) TakeKernel(indices Array) (Array, error) {
	out := make([]uint64, indices.Len())
	for j := 0; j < indices.Len(); j++ {
		sc, err := ScalarAt(indices, j)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			return nil, fmt.Errorf("array: chunked take does not support null indices directly: %w", vortexerr.NotImplemented)
		}
		out[j] = sc.Value.Primitive.AsU64()
	}
	results := make([]scalar.Scalar, indices.Len())
	for j, idx := range out {
		sc, err := c.ScalarAtKernel(int(idx))
		if err != nil {
			return nil, err
		}
		results[j] = sc
	}
	return scalarsToArray(c.dt, results), nil
}

func scalarsToArray(dt dtype.DType, vals []scalar.Scalar) Array {
	switch dt.Kind {
	case dtype.KindPrimitive:
		buf := make([]byte, len(vals)*dt.Primitive.ByteWidth())
		validOut := make([]bool, len(vals))
		w := dt.Primitive.ByteWidth()
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			bits := v.Value.Primitive.Bits
			for k := 0; k < w; k++ {
				buf[i*w+k] = byte(bits >> (8 * k))
			}
			validOut[i] = true
		}
		return NewPrimitive(dt.Primitive, buffer.New(buf, w), len(vals), dt.Null, validityFromBools(validOut))
	case dtype.KindUtf8, dtype.KindBinary:
		strs := make([]string, len(vals))
		validOut := make([]bool, len(vals))
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			if dt.Kind == dtype.KindUtf8 {
				strs[i] = v.Value.Str
			} else {
				strs[i] = string(v.Value.Buffer)
			}
			validOut[i] = true
		}
		return NewVarBinView(strs, dt.Kind, dt.Null, validityFromBools(validOut))
	case dtype.KindBool:
		bools := make([]bool, len(vals))
		validOut := make([]bool, len(vals))
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			bools[i] = v.Value.Bool
			validOut[i] = true
		}
		return NewBoolFromBools(bools, dt.Null, validityFromBools(validOut))
	default:
		return NewNull(len(vals))
	}
}

func (c *ChunkedArray) Metadata() []byte { return nil }

func buildChunked(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	return NewChunked(dt, children), nil
}
