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
	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/scalar"
)

// intIndexArray builds a non-nullable I64 PrimitiveArray from rows,
// suitable as the indices argument to array.Take.
func intIndexArray(rows []int) array.Array {
	vals := make([]int64, len(rows))
	for i, r := range rows {
		vals[i] = int64(r)
	}
	buf := buffer.FromSlice(vals)
	return array.NewPrimitive(dtype.I64, buf, len(vals), dtype.NonNullable, array.NonNullable(len(vals)))
}

// uintIndexArray builds a non-nullable U32 PrimitiveArray from codes,
// suitable as the codes argument to array.NewDict.
func uintIndexArray(codes []int) array.Array {
	vals := make([]uint32, len(codes))
	for i, c := range codes {
		vals[i] = uint32(c)
	}
	buf := buffer.FromSlice(vals)
	return array.NewPrimitive(dtype.U32, buf, len(vals), dtype.NonNullable, array.NonNullable(len(vals)))
}

// Compressor picks a physical encoding (and a segment-compression
// algorithm) for one canonical chunk before it is frozen into
// segments. Two named strategies are provided (spec §4.7 "Writer");
// both are lightweight heuristics, not the cost-based BtrBlocks/
// sampling-compressor search the names reference — see DESIGN.md.
type Compressor interface {
	// Compress returns the array to actually persist for chunk
	// (possibly chunk itself, unmodified) along with the segment
	// compression algorithm to use for its buffers.
	Compress(chunk array.Array) (array.Array, segio.Algo, error)
}

// btrBlocksCompressor re-evaluates its encoding choice independently
// for every chunk pushed to it: cheap per-chunk heuristics (run-length
// and distinct-value sampling) pick among RunEnd, Dict or leaving the
// chunk in its canonical encoding. Suits wide tables where column
// distributions vary chunk to chunk.
type btrBlocksCompressor struct {
	segAlgo segio.Algo
}

// NewBtrBlocksCompressor returns a Compressor that re-samples every
// chunk (spec's "BtrBlocks" strategy).
func NewBtrBlocksCompressor(segAlgo segio.Algo) Compressor {
	return btrBlocksCompressor{segAlgo: segAlgo}
}

func (c btrBlocksCompressor) Compress(chunk array.Array) (array.Array, segio.Algo, error) {
	best, err := chooseLightweightEncoding(chunk)
	if err != nil {
		return nil, "", err
	}
	return best, c.segAlgo, nil
}

// samplingCompressor examines only the first chunk it sees to pick an
// encoding, then reuses that choice for every subsequent chunk pushed
// to the same writer. Suits long, homogeneous tables, avoiding
// per-chunk re-analysis cost.
type samplingCompressor struct {
	segAlgo segio.Algo
	decided bool
	runEnd  bool
	dict    bool
}

// NewSamplingCompressor returns a Compressor that decides its encoding
// once, from the first chunk pushed to it (spec's "Sampling"
// strategy).
func NewSamplingCompressor(segAlgo segio.Algo) Compressor {
	return &samplingCompressor{segAlgo: segAlgo}
}

func (c *samplingCompressor) Compress(chunk array.Array) (array.Array, segio.Algo, error) {
	canon, err := array.Canonicalize(chunk)
	if err != nil {
		return nil, "", err
	}
	if !c.decided {
		c.runEnd = isLowCardinalityRuns(canon)
		c.dict = !c.runEnd && isLowCardinalityValues(canon)
		c.decided = true
	}
	switch {
	case c.runEnd:
		out, err := applyRunEnd(canon)
		return out, c.segAlgo, err
	case c.dict:
		out, err := applyDict(canon)
		return out, c.segAlgo, err
	default:
		return canon, c.segAlgo, nil
	}
}

func chooseLightweightEncoding(chunk array.Array) (array.Array, error) {
	canon, err := array.Canonicalize(chunk)
	if err != nil {
		return nil, err
	}
	if isLowCardinalityRuns(canon) {
		return applyRunEnd(canon)
	}
	if isLowCardinalityValues(canon) {
		return applyDict(canon)
	}
	return canon, nil
}

// sampleSize bounds how many rows the heuristics below inspect, so
// picking an encoding never costs more than a small constant scan.
const sampleSize = 256

// isLowCardinalityRuns reports whether the first min(sampleSize, len)
// rows of a contain long runs of equal values, making RunEnd a good
// fit.
func isLowCardinalityRuns(a array.Array) bool {
	n := a.Len()
	if n < 2 {
		return false
	}
	limit := n
	if limit > sampleSize {
		limit = sampleSize
	}
	runs := 0
	prev, err := array.ScalarAt(a, 0)
	if err != nil {
		return false
	}
	for i := 1; i < limit; i++ {
		cur, err := array.ScalarAt(a, i)
		if err != nil {
			return false
		}
		if !scalar.Equal(prev, cur) {
			runs++
		}
		prev = cur
	}
	// fewer than a quarter of sampled rows start a new run: runs are
	// long, RunEnd will shrink this chunk substantially.
	return runs*4 < limit
}

// isLowCardinalityValues reports whether the sampled rows contain few
// distinct values relative to the sample, making Dict a good fit.
func isLowCardinalityValues(a array.Array) bool {
	n := a.Len()
	if n == 0 {
		return false
	}
	limit := n
	if limit > sampleSize {
		limit = sampleSize
	}
	seen := make(map[string]struct{}, limit)
	for i := 0; i < limit; i++ {
		sc, err := array.ScalarAt(a, i)
		if err != nil {
			return false
		}
		seen[string(scalar.Marshal(sc))] = struct{}{}
	}
	return len(seen)*3 < limit
}

// applyRunEnd builds a RunEndArray over a's distinct-value runs.
func applyRunEnd(a array.Array) (array.Array, error) {
	n := a.Len()
	if n == 0 {
		return a, nil
	}
	var ends []int64
	var valueRows []int
	prev, err := array.ScalarAt(a, 0)
	if err != nil {
		return a, nil
	}
	valueRows = append(valueRows, 0)
	for i := 1; i < n; i++ {
		cur, err := array.ScalarAt(a, i)
		if err != nil {
			return a, nil
		}
		if !scalar.Equal(prev, cur) {
			ends = append(ends, int64(i))
			valueRows = append(valueRows, i)
		}
		prev = cur
	}
	ends = append(ends, int64(n))
	indices := make([]int, len(valueRows))
	copy(indices, valueRows)
	values, err := array.Take(a, intIndexArray(indices))
	if err != nil {
		return a, nil
	}
	return array.NewRunEnd(ends, values), nil
}

// applyDict builds a DictArray over a's distinct values.
func applyDict(a array.Array) (array.Array, error) {
	n := a.Len()
	if n == 0 {
		return a, nil
	}
	keyToCode := make(map[string]int)
	var distinctRows []int
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		sc, err := array.ScalarAt(a, i)
		if err != nil {
			return a, nil
		}
		key := string(scalar.Marshal(sc))
		code, ok := keyToCode[key]
		if !ok {
			code = len(distinctRows)
			keyToCode[key] = code
			distinctRows = append(distinctRows, i)
		}
		codes[i] = code
	}
	values, err := array.Take(a, intIndexArray(distinctRows))
	if err != nil {
		return a, nil
	}
	return array.NewDict(uintIndexArray(codes), values), nil
}
