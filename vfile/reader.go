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
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/ion"
	"github.com/vortexdb/vortex/layout"
	"github.com/vortexdb/vortex/stats"
	"github.com/vortexdb/vortex/vortexerr"
)

// Options configures Open. The zero value is valid: it selects
// DefaultInitialReadSize and the process-wide default array/layout
// contexts.
type Options struct {
	// InitialReadSize is the size of the first tail read (spec §4.7
	// "Reader (Open path)" step 1). Clamped up to MinInitialReadSize.
	InitialReadSize int
	// ArrayContext resolves the footer's array-encoding registry.
	// Defaults to array.Default().
	ArrayContext *array.Context
	// LayoutContext resolves the footer's layout-encoding registry
	// and decodes the root Layout tree. Defaults to layout.Default().
	LayoutContext *layout.Context
}

func (o *Options) initialReadSize() int {
	if o == nil || o.InitialReadSize <= 0 {
		return DefaultInitialReadSize
	}
	if o.InitialReadSize < MinInitialReadSize {
		return MinInitialReadSize
	}
	return o.InitialReadSize
}

func (o *Options) arrayContext() *array.Context {
	if o == nil || o.ArrayContext == nil {
		return array.Default()
	}
	return o.ArrayContext
}

func (o *Options) layoutContext() *layout.Context {
	if o == nil || o.LayoutContext == nil {
		return layout.Default()
	}
	return o.LayoutContext
}

// Reader is an opened vortex file: its DType, its root Layout tree
// and a SegmentResolver backed by src. Reader itself performs no
// concurrency control or coalescing — that is the scan package's
// IoDriver's job (spec §4.8); Reader only guarantees correct,
// synchronous segment resolution plus the tail-read cache populated
// at Open time.
type Reader struct {
	src       io.ReaderAt
	size      int64
	id        uuid.UUID
	dt        dtype.DType
	root      layout.Layout
	segments  *layout.SegmentMap
	arrayCtx  *array.Context
	rootStats *stats.Set
	cache     map[layout.SegmentId][]byte // raw (still-compressed) bytes covered by the initial tail read
}

// Open implements the six-step Open path of spec §4.7.
func Open(src io.ReaderAt, size int64, opts *Options) (*Reader, error) {
	initial := int64(opts.initialReadSize())
	if initial > size {
		initial = size
	}
	tailStart := size - initial
	tail, err := readAt(src, tailStart, initial)
	if err != nil {
		return nil, fmt.Errorf("vfile: open: reading tail: %w", err)
	}

	marker, err := decodeEOFMarker(tail)
	if err != nil {
		return nil, fmt.Errorf("vfile: open: %w", err)
	}

	psEnd := size - eofMarkerSize
	psStart := psEnd - int64(marker.postscriptLength)
	if psStart < 0 {
		return nil, fmt.Errorf("vfile: open: postscript extends before start of file: %w", vortexerr.MalformedFile)
	}
	if psStart < tailStart {
		tailStart = psStart
		tail, err = readAt(src, tailStart, size-tailStart)
		if err != nil {
			return nil, fmt.Errorf("vfile: open: re-reading for postscript: %w", err)
		}
	}
	ps, err := decodePostscript(tail[psStart-tailStart : psEnd-tailStart])
	if err != nil {
		return nil, fmt.Errorf("vfile: open: %w", err)
	}

	dtypeStart := int64(ps.dtypeOffset)
	footerStart := int64(ps.footerOffset)
	footerEnd := footerStart + int64(ps.footerLength)
	needed := dtypeStart
	if footerStart < needed {
		needed = footerStart
	}
	if needed < tailStart {
		tailStart = needed
		tail, err = readAt(src, tailStart, size-tailStart)
		if err != nil {
			return nil, fmt.Errorf("vfile: open: reading dtype/footer: %w", err)
		}
	}

	dtypeBytes := tail[dtypeStart-tailStart : dtypeStart-tailStart+int64(ps.dtypeLength)]
	dt, err := decodeDType(dtypeBytes)
	if err != nil {
		return nil, fmt.Errorf("vfile: open: dtype: %w", err)
	}

	layoutCtx := opts.layoutContext()
	footerBytes := tail[footerStart-tailStart : footerEnd-tailStart]
	footerDatum, err := readFrame(footerBytes)
	if err != nil {
		return nil, fmt.Errorf("vfile: open: footer: %w", err)
	}
	f, err := decodeFooter(layoutCtx, footerDatum)
	if err != nil {
		return nil, fmt.Errorf("vfile: open: footer: %w", err)
	}

	arrayCtx := opts.arrayContext()
	for _, id := range f.arrayEncodings {
		if _, ok := arrayCtx.Lookup(id); !ok {
			return nil, fmt.Errorf("vfile: open: array encoding %q: %w", id, vortexerr.EncodingNotFound)
		}
	}
	for _, id := range f.layoutEncodings {
		if _, ok := layoutCtx.Lookup(id); !ok {
			return nil, fmt.Errorf("vfile: open: layout encoding %q: %w", id, vortexerr.LayoutNotFound)
		}
	}

	r := &Reader{
		src:       src,
		size:      size,
		id:        f.id,
		dt:        dt,
		root:      f.root,
		segments:  f.segments,
		arrayCtx:  arrayCtx,
		rootStats: f.rootStats,
		cache:     make(map[layout.SegmentId][]byte),
	}
	for _, id := range r.segments.SortedByOffset() {
		seg := r.segments.Get(id)
		segStart := int64(seg.Offset)
		segEnd := segStart + int64(seg.Length)
		if segStart >= tailStart && segEnd <= size {
			r.cache[id] = append([]byte(nil), tail[segStart-tailStart:segEnd-tailStart]...)
		}
	}
	return r, nil
}

func decodeDType(data []byte) (dtype.DType, error) {
	d, err := readFrame(data)
	if err != nil {
		return dtype.DType{}, err
	}
	return dtype.Decode(d)
}

// readFrame decodes the shared "symtab then one datum" two-part
// encoding used for every ion-framed section of the file (DType
// segment, Footer), the same scheme sneller's own trailer encoding
// uses.
func readFrame(data []byte) (ion.Datum, error) {
	st := new(ion.Symtab)
	rest, err := st.Unmarshal(data)
	if err != nil {
		return ion.Datum{}, fmt.Errorf("symtab: %w", err)
	}
	d, _, err := ion.ReadDatum(st, rest)
	if err != nil {
		return ion.Datum{}, fmt.Errorf("datum: %w", err)
	}
	return d, nil
}

func readAt(src io.ReaderAt, offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := src.ReadAt(buf, offset)
	if n == len(buf) {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// DType returns the file's root logical type.
func (r *Reader) DType() dtype.DType { return r.dt }

// Root returns the root Layout tree.
func (r *Reader) Root() layout.Layout { return r.root }

// ArrayContext returns the array.Context resolved against the
// footer's array-encoding registry, suitable for Layout.Decode calls.
func (r *Reader) ArrayContext() *array.Context { return r.arrayCtx }

// RootStats returns the file's root-level statistics set, or nil if
// the writer did not attach one.
func (r *Reader) RootStats() *stats.Set { return r.rootStats }

// ID returns the file's identifier, as embedded by Writer.
func (r *Reader) ID() uuid.UUID { return r.id }

// Segments returns the file's segment map, the scan package's
// IoDriver needs it to compute coalescing groups and alignments
// without re-deriving them from the Layout tree.
func (r *Reader) Segments() *layout.SegmentMap { return r.segments }

// ReadRange performs one physical ranged read against the underlying
// source, bypassing the tail-read cache. Exposed so an IoDriver can
// issue its own coalesced multi-segment reads instead of resolving
// one segment at a time.
func (r *Reader) ReadRange(offset, length int64) ([]byte, error) {
	return readAt(r.src, offset, length)
}

// Resolve implements layout.SegmentResolver, serving bytes from the
// Open-time tail-read cache when possible and otherwise issuing a
// direct ReadAt.
func (r *Reader) Resolve(id layout.SegmentId) (buffer.ByteBuffer, error) {
	seg := r.segments.Get(id)
	if seg.Empty() {
		return buffer.Empty(int(seg.Alignment)), nil
	}
	compressed, ok := r.cache[id]
	if !ok {
		var err error
		compressed, err = readAt(r.src, int64(seg.Offset), int64(seg.Length))
		if err != nil {
			return buffer.ByteBuffer{}, fmt.Errorf("vfile: resolving segment %d: %w: %v", id, vortexerr.Io, err)
		}
	}
	out := make([]byte, seg.RawLength)
	if err := segio.Decompress(seg.Algo, compressed, out); err != nil {
		return buffer.ByteBuffer{}, fmt.Errorf("vfile: resolving segment %d: %w", id, err)
	}
	return buffer.New(out, int(seg.Alignment)), nil
}
