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
	"fmt"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
)

// SegmentSink accumulates raw, already-compressed segment bytes (one
// buffer at a time, in the order they are offered) and assigns each
// one a SegmentId, deferring the decision of where in the file those
// bytes actually land to the caller (vfile's footer/body assembly).
type SegmentSink interface {
	Put(compressed []byte, rawLen int, alignment uint8, algo segio.Algo) (SegmentId, error)
}

// LayoutWriter accepts a stream of arrays sharing one dtype and
// accumulates them into a persisted Layout tree (spec §4.7 "Writer").
type LayoutWriter interface {
	// Push compresses and writes one array's worth of rows.
	Push(a array.Array) error
	// Finish returns the completed layout. The writer must not be
	// used again afterward.
	Finish() (Layout, error)
}

// WriteFlat compresses a (compressor will pick the encoding) and
// writes its frozen buffers to sink, returning a FlatLayout framing
// them. This is the unit both FlatLayoutWriter and ChunkedLayoutWriter
// build each of their chunks from.
func WriteFlat(sink SegmentSink, compressor Compressor, segAlgo segio.Algo, a array.Array) (*FlatLayout, error) {
	chosen, algo, err := compressor.Compress(a)
	if err != nil {
		return nil, fmt.Errorf("layout: writeFlat: %w", err)
	}
	if algo == "" {
		algo = segAlgo
	}
	nodes, buffers := array.Freeze(chosen)
	segments := make([]SegmentId, len(buffers))
	var scratch []byte
	for i, buf := range buffers {
		raw := buf.Bytes()
		compressed, usedAlgo, err := segio.Compress(algo, raw, scratch[:0])
		if err != nil {
			return nil, fmt.Errorf("layout: writeFlat: compressing buffer %d: %w", i, err)
		}
		align := uint8(1)
		if a := buf.Alignment(); a > 0 && a <= 255 {
			align = uint8(a)
		}
		id, err := sink.Put(compressed, len(raw), align, usedAlgo)
		if err != nil {
			return nil, fmt.Errorf("layout: writeFlat: %w", err)
		}
		segments[i] = id
	}
	return NewFlat(chosen.DType(), chosen.Len(), nodes, segments), nil
}

// FlatLayoutWriter writes the one array pushed to it as a single Flat
// layout; a second Push is an error (a Flat layout has no Chunk
// children to append to). Use ChunkedLayoutWriter when more than one
// array will be pushed.
type FlatLayoutWriter struct {
	sink       SegmentSink
	compressor Compressor
	segAlgo    segio.Algo
	pushed     bool
	result     *FlatLayout
}

// NewFlatLayoutWriter returns a LayoutWriter that writes exactly one
// pushed array as a Flat layout.
func NewFlatLayoutWriter(sink SegmentSink, compressor Compressor, segAlgo segio.Algo) *FlatLayoutWriter {
	return &FlatLayoutWriter{sink: sink, compressor: compressor, segAlgo: segAlgo}
}

func (w *FlatLayoutWriter) Push(a array.Array) error {
	if w.pushed {
		return fmt.Errorf("layout: flat writer: a Flat layout accepts only one Push")
	}
	fl, err := WriteFlat(w.sink, w.compressor, w.segAlgo, a)
	if err != nil {
		return err
	}
	w.result = fl
	w.pushed = true
	return nil
}

func (w *FlatLayoutWriter) Finish() (Layout, error) {
	if !w.pushed {
		return nil, fmt.Errorf("layout: flat writer: Finish called with no Push")
	}
	return w.result, nil
}

// ChunkedLayoutWriter writes each pushed array as its own Chunk child
// of a ChunkedLayout, optionally collecting per-zone statistics
// alongside it (spec §4.7 "Chunked", "Stats").
type ChunkedLayoutWriter struct {
	sink       SegmentSink
	compressor Compressor
	segAlgo    segio.Algo
	dt         dtype.DType
	chunks     []Layout
	zoneSize   int
	stats      *statsAccumulator // nil if stats collection disabled
}

// NewChunkedLayoutWriter returns a LayoutWriter that writes each
// pushed array as a chunk of dt. If zoneSize > 0, a StatsLayout is
// attached collecting per-zone statistics at zoneSize rows per zone.
func NewChunkedLayoutWriter(sink SegmentSink, compressor Compressor, segAlgo segio.Algo, dt dtype.DType, zoneSize int) *ChunkedLayoutWriter {
	w := &ChunkedLayoutWriter{sink: sink, compressor: compressor, segAlgo: segAlgo, dt: dt, zoneSize: zoneSize}
	if zoneSize > 0 {
		w.stats = newStatsAccumulator(zoneSize)
	}
	return w
}

func (w *ChunkedLayoutWriter) Push(a array.Array) error {
	fl, err := WriteFlat(w.sink, w.compressor, w.segAlgo, a)
	if err != nil {
		return err
	}
	w.chunks = append(w.chunks, fl)
	if w.stats != nil {
		w.stats.observe(a)
	}
	return nil
}

func (w *ChunkedLayoutWriter) Finish() (Layout, error) {
	var statsLayout Layout
	if w.stats != nil {
		table, err := w.stats.finish(w.sink, w.compressor, w.segAlgo)
		if err != nil {
			return nil, err
		}
		statsLayout = table
	}
	chunked := NewChunked(w.dt, w.chunks, statsLayout)
	if w.stats == nil {
		return chunked, nil
	}
	return NewStats(chunked, statsLayout, w.zoneSize), nil
}

// StructLayoutWriter fans each pushed Struct array's fields out into
// their own per-field LayoutWriters (spec §4.7 "Struct"), so a
// column's chunks are stored contiguously rather than interleaved row
// by row.
type StructLayoutWriter struct {
	dt      dtype.DType
	names   []string
	writers []LayoutWriter
}

// NewStructLayoutWriter returns a LayoutWriter that writes Struct
// arrays by delegating each field to its own writer, in field order.
func NewStructLayoutWriter(dt dtype.DType, names []string, fieldWriters []LayoutWriter) *StructLayoutWriter {
	return &StructLayoutWriter{dt: dt, names: names, writers: fieldWriters}
}

func (w *StructLayoutWriter) Push(a array.Array) error {
	sa, ok := a.(*array.StructArray)
	if !ok {
		return fmt.Errorf("layout: struct writer: expected *array.StructArray, got %T", a)
	}
	for i, name := range w.names {
		field := sa.Field(name)
		if field == nil {
			return fmt.Errorf("layout: struct writer: missing field %q", name)
		}
		if err := w.writers[i].Push(field); err != nil {
			return fmt.Errorf("layout: struct writer: field %q: %w", name, err)
		}
	}
	return nil
}

func (w *StructLayoutWriter) Finish() (Layout, error) {
	fields := make([]Layout, len(w.writers))
	for i, fw := range w.writers {
		fl, err := fw.Finish()
		if err != nil {
			return nil, fmt.Errorf("layout: struct writer: field %q: %w", w.names[i], err)
		}
		fields[i] = fl
	}
	length := 0
	if len(fields) > 0 {
		length = fields[0].Len()
	}
	return NewStruct(w.dt, length, w.names, fields, nil), nil
}
