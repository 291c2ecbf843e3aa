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
	"encoding/binary"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/scalar"
)

// statsAccumulator builds the per-zone side table a StatsLayout
// attaches to a chunked column (spec §4.7 "Stats"). One zone is
// recorded per pushed chunk: ChunkedLayoutWriter already splits a
// column at whatever granularity its caller chooses, so rather than
// re-slicing a chunk into ZoneSize-row pieces here, each chunk simply
// *is* a zone. A writer wanting the configured zone size to be exact
// should push chunks of that size.
type statsAccumulator struct {
	zoneSize int
	dt       dtype.DType
	haveDT   bool
	mins     []scalar.Scalar
	maxs     []scalar.Scalar
	nulls    []int64
	sizes    []int64
}

func newStatsAccumulator(zoneSize int) *statsAccumulator {
	return &statsAccumulator{zoneSize: zoneSize}
}

func (s *statsAccumulator) observe(a array.Array) {
	if !s.haveDT {
		s.dt = a.DType().AsNonNullable()
		s.haveDT = true
	}
	min, max, ok := zoneMinMax(a)
	if ok {
		s.mins = append(s.mins, min)
		s.maxs = append(s.maxs, max)
	} else {
		s.mins = append(s.mins, scalar.NewNull(s.dt))
		s.maxs = append(s.maxs, scalar.NewNull(s.dt))
	}
	s.nulls = append(s.nulls, int64(a.Validity().NullCount()))
	s.sizes = append(s.sizes, zoneUncompressedSize(a))
}

func zoneMinMax(a array.Array) (min, max scalar.Scalar, ok bool) {
	n := a.Len()
	for i := 0; i < n; i++ {
		if !a.Validity().IsValid(i) {
			continue
		}
		sc, err := array.ScalarAt(a, i)
		if err != nil || sc.IsNull() {
			continue
		}
		if !ok {
			min, max, ok = sc, sc, true
			continue
		}
		if scalar.Less(sc, min) {
			min = sc
		}
		if scalar.Less(max, sc) {
			max = sc
		}
	}
	return min, max, ok
}

// zoneUncompressedSize estimates an array's in-memory footprint as
// the sum of its frozen buffer lengths, the same quantity the
// UncompressedSizeInBytes stat (stats/stats.go) tracks elsewhere.
func zoneUncompressedSize(a array.Array) int64 {
	_, buffers := array.Freeze(a)
	var total int64
	for _, b := range buffers {
		total += int64(b.Len())
	}
	return total
}

// finish materializes the accumulated per-zone columns into a single
// Flat layout of a Struct array and writes it through sink.
func (s *statsAccumulator) finish(sink SegmentSink, compressor Compressor, segAlgo segio.Algo) (Layout, error) {
	minArr := scalarsToArray(s.mins, s.dt)
	maxArr := scalarsToArray(s.maxs, s.dt)
	nullArr := int64PrimitiveArray(s.nulls)
	sizeArr := int64PrimitiveArray(s.sizes)

	names := []string{string(ZoneMin), string(ZoneMax), string(ZoneNullCount), string(ZoneUncompressedSizeInBytes)}
	fields := []array.Array{minArr, maxArr, nullArr, sizeArr}
	table := array.NewStruct(names, fields, dtype.NonNullable, array.NonNullable(len(s.mins)))
	return WriteFlat(sink, compressor, segAlgo, table)
}

func int64PrimitiveArray(vals []int64) array.Array {
	buf := buffer.FromSlice(vals)
	return array.NewPrimitive(dtype.I64, buf, len(vals), dtype.NonNullable, array.NonNullable(len(vals)))
}

// scalarsToArray packs one Min/Max column for a Stats side table. It
// covers the dtype kinds a zone map actually needs a faithful min/max
// for — Primitive, Bool, Utf8/Binary; any other kind's min/max is
// stored as an all-null column, since a Struct/List zone bound has no
// useful canonical representation and pruning never consults it.
func scalarsToArray(vals []scalar.Scalar, dt dtype.DType) array.Array {
	n := len(vals)
	nullable := dt.AsNullable()
	switch dt.Kind {
	case dtype.KindPrimitive:
		width := dt.Primitive.ByteWidth()
		buf := make([]byte, n*width)
		valids := make([]bool, n)
		var tmp [8]byte
		for i, sc := range vals {
			if sc.IsNull() {
				continue
			}
			valids[i] = true
			binary.LittleEndian.PutUint64(tmp[:], sc.Value.Primitive.Bits)
			copy(buf[i*width:], tmp[:width])
		}
		valid := array.FromBoolArray(array.NewBoolFromBools(valids, dtype.NonNullable, array.NonNullable(n)))
		return array.NewPrimitive(dt.Primitive, buffer.New(buf, dt.Primitive.ByteWidth()), n, nullable.Null, valid)
	case dtype.KindBool:
		bools := make([]bool, n)
		valids := make([]bool, n)
		for i, sc := range vals {
			if sc.IsNull() {
				continue
			}
			valids[i] = true
			bools[i] = sc.Value.Bool
		}
		valid := array.FromBoolArray(array.NewBoolFromBools(valids, dtype.NonNullable, array.NonNullable(n)))
		return array.NewBoolFromBools(bools, nullable.Null, valid)
	case dtype.KindUtf8, dtype.KindBinary:
		strs := make([]string, n)
		for i, sc := range vals {
			if sc.IsNull() {
				continue
			}
			switch sc.Value.Kind {
			case scalar.ValueBufferString:
				strs[i] = sc.Value.Str
			case scalar.ValueBuffer:
				strs[i] = string(sc.Value.Buffer)
			}
		}
		return array.NewVarBinView(strs, dt.Kind, nullable.Null, allValidExcept(vals, n))
	default:
		return array.NewConstant(scalar.NewNull(dt), n)
	}
}

func allValidExcept(vals []scalar.Scalar, n int) array.Validity {
	valids := make([]bool, n)
	for i, sc := range vals {
		valids[i] = !sc.IsNull()
	}
	return array.FromBoolArray(array.NewBoolFromBools(valids, dtype.NonNullable, array.NonNullable(n)))
}
