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

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
)

func i64Array(vals []int64) array.Array {
	buf := buffer.FromSlice(vals)
	return array.NewPrimitive(dtype.I64, buf, len(vals), dtype.NonNullable, array.AllValid(len(vals)))
}

func TestIsLowCardinalityRuns(t *testing.T) {
	runny := i64Array([]int64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3})
	if !isLowCardinalityRuns(runny) {
		t.Fatal("expected long runs to be detected as low-run-cardinality")
	}
	jittery := i64Array([]int64{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2})
	if isLowCardinalityRuns(jittery) {
		t.Fatal("expected alternating values not to be detected as low-run-cardinality")
	}
}

func TestIsLowCardinalityValues(t *testing.T) {
	repeated := i64Array([]int64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 9, 9})
	if !isLowCardinalityValues(repeated) {
		t.Fatal("expected mostly-repeated values to be detected as low-value-cardinality")
	}
	unique := make([]int64, 100)
	for i := range unique {
		unique[i] = int64(i)
	}
	if isLowCardinalityValues(i64Array(unique)) {
		t.Fatal("expected all-unique values not to be detected as low-value-cardinality")
	}
}

func TestApplyRunEnd(t *testing.T) {
	a := i64Array([]int64{1, 1, 1, 2, 2, 3})
	out, err := applyRunEnd(a)
	if err != nil {
		t.Fatal(err)
	}
	re, ok := out.(*array.RunEndArray)
	if !ok {
		t.Fatalf("expected *array.RunEndArray, got %T", out)
	}
	if re.Len() != 6 {
		t.Fatalf("expected length 6, got %d", re.Len())
	}
}

func TestApplyDict(t *testing.T) {
	a := i64Array([]int64{5, 5, 6, 5, 7, 6})
	out, err := applyDict(a)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := out.(*array.DictArray)
	if !ok {
		t.Fatalf("expected *array.DictArray, got %T", out)
	}
	if d.Len() != 6 {
		t.Fatalf("expected length 6, got %d", d.Len())
	}
}

func TestBtrBlocksCompressorChoosesRunEnd(t *testing.T) {
	c := NewBtrBlocksCompressor(segio.AlgoZstd)
	a := i64Array([]int64{1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2})
	out, algo, err := c.Compress(a)
	if err != nil {
		t.Fatal(err)
	}
	if algo != segio.AlgoZstd {
		t.Fatalf("expected algo to be passed through, got %v", algo)
	}
	if _, ok := out.(*array.RunEndArray); !ok {
		t.Fatalf("expected RunEnd encoding, got %T", out)
	}
}

func TestSamplingCompressorDecidesOnce(t *testing.T) {
	c := NewSamplingCompressor(segio.AlgoS2)
	runny := i64Array([]int64{1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2})
	out1, _, err := c.Compress(runny)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out1.(*array.RunEndArray); !ok {
		t.Fatalf("expected first chunk to pick RunEnd, got %T", out1)
	}
	// subsequent chunk with a different shape still gets RunEnd applied,
	// since the decision was locked in by the first chunk.
	jittery := i64Array([]int64{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2})
	out2, _, err := c.Compress(jittery)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out2.(*array.RunEndArray); !ok {
		t.Fatalf("expected sampling compressor to reuse its first decision, got %T", out2)
	}
}
