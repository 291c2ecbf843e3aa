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

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/ion"
	"github.com/vortexdb/vortex/layout"
	"github.com/vortexdb/vortex/stats"
)

// Writer assembles a vortex file by accepting compressed segment
// bytes (as the file format's layout.SegmentSink) and finally
// emitting the DType segment, Footer, Postscript and EOF marker (spec
// §4.7 "File layout"). It writes sequentially to w and never seeks,
// so any io.Writer works, including a network upload stream.
//
// Writer itself does not know how to build a Layout tree: callers
// drive one or more layout.LayoutWriters against a Writer (as their
// SegmentSink), then pass the resulting root Layout to Finish.
type Writer struct {
	w       io.Writer
	offset  uint64
	segs    *layout.SegmentMap
	id      uuid.UUID
	written bool
}

// NewWriter returns a Writer that appends to w starting at the
// current (assumed-zero) stream position.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, segs: layout.NewSegmentMap(), id: uuid.New()}
}

// Put implements layout.SegmentSink: it pads the stream to alignment,
// writes compressed verbatim and records a Segment for it.
func (w *Writer) Put(compressed []byte, rawLen int, alignment uint8, algo segio.Algo) (layout.SegmentId, error) {
	if w.written {
		return 0, fmt.Errorf("vfile: writer: Put called after Finish")
	}
	if err := w.pad(alignment); err != nil {
		return 0, err
	}
	off := w.offset
	if err := w.write(compressed); err != nil {
		return 0, err
	}
	seg := layout.Segment{
		Offset:    off,
		Length:    uint32(len(compressed)),
		Alignment: alignment,
		Algo:      algo,
		RawLength: uint32(rawLen),
	}
	return w.segs.Add(seg), nil
}

func (w *Writer) pad(alignment uint8) error {
	if alignment <= 1 {
		return nil
	}
	a := uint64(alignment)
	rem := w.offset % a
	if rem == 0 {
		return nil
	}
	return w.write(make([]byte, a-rem))
}

func (w *Writer) write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.w.Write(p)
	w.offset += uint64(n)
	if err != nil {
		return fmt.Errorf("vfile: writer: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf("vfile: writer: short write (%d of %d bytes)", n, len(p))
	}
	return nil
}

// Finish writes the DType segment, Footer, Postscript and EOF marker
// after every segment has been Put, completing the file. rootStats
// may be nil if the caller has no root-level statistics to persist.
func (w *Writer) Finish(dt dtype.DType, root layout.Layout, arrayEncodings, layoutEncodings []string, rootStats *stats.Set) error {
	if w.written {
		return fmt.Errorf("vfile: writer: Finish called twice")
	}
	w.written = true

	dtypeOff := w.offset
	var dtSt ion.Symtab
	var dtBody ion.Buffer
	dtype.Encode(&dtBody, &dtSt, dt)
	var dtOut ion.Buffer
	dtSt.Marshal(&dtOut, true)
	dtOut.UnsafeAppend(dtBody.Bytes())
	dtBytes := dtOut.Bytes()
	if err := w.write(dtBytes); err != nil {
		return err
	}
	dtypeLen := w.offset - dtypeOff

	footerOff := w.offset
	f := &footer{
		id:              w.id,
		root:            root,
		segments:        w.segs,
		arrayEncodings:  arrayEncodings,
		layoutEncodings: layoutEncodings,
		rootStats:       rootStats,
	}
	var ftSt ion.Symtab
	var ftBody ion.Buffer
	encodeFooter(&ftBody, &ftSt, f)
	var ftOut ion.Buffer
	ftSt.Marshal(&ftOut, true)
	ftOut.UnsafeAppend(ftBody.Bytes())
	ftBytes := ftOut.Bytes()
	if err := w.write(ftBytes); err != nil {
		return err
	}
	footerLen := w.offset - footerOff

	ps := postscript{
		dtypeOffset:  dtypeOff,
		dtypeLength:  dtypeLen,
		footerOffset: footerOff,
		footerLength: footerLen,
	}
	psBytes := ps.encode()
	if err := w.write(psBytes); err != nil {
		return err
	}
	if len(psBytes) > 0xffff {
		return fmt.Errorf("vfile: writer: postscript too large (%d bytes)", len(psBytes))
	}

	marker := encodeEOFMarker(Version, uint16(len(psBytes)))
	return w.write(marker)
}

// ID returns the file's per-write identifier, embedded in the footer
// for cache namespacing by consumers that key on it (e.g. a
// SegmentCache keyed by (file id, SegmentId) rather than by path).
func (w *Writer) ID() uuid.UUID { return w.id }
