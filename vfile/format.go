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

// Package vfile implements the on-disk Vortex file format (spec
// §4.7 "File layout"): segments, a DType section, a Footer, a
// Postscript and a fixed-size EOF marker, in that trailing order.
package vfile

import (
	"encoding/binary"
	"fmt"

	"github.com/vortexdb/vortex/vortexerr"
)

// Magic is the fixed ASCII sequence every Vortex file ends with.
const Magic = "VRTX"

// Version is the only file-format version this package writes or
// reads.
const Version uint16 = 1

// eofMarkerSize is len(version) + len(postscript_length) + len(Magic):
// "u16 version | u16 postscript_length | 4 magic bytes" (spec §4.7).
const eofMarkerSize = 2 + 2 + len(Magic)

// MinInitialReadSize is the smallest tail read Open will accept.
const MinInitialReadSize = 8 * 1024

// DefaultInitialReadSize is the tail read size used when the caller
// does not override it; large enough that the EOF marker, postscript,
// dtype and footer typically all land in one read (spec §4.7 "Reader
// (Open path)" step 1).
const DefaultInitialReadSize = 1024 * 1024

// eofMarker is the fixed 8-byte trailer described by spec §4.7's file
// layout diagram.
type eofMarker struct {
	version          uint16
	postscriptLength uint16
}

func encodeEOFMarker(version, postscriptLength uint16) []byte {
	buf := make([]byte, eofMarkerSize)
	binary.LittleEndian.PutUint16(buf[0:2], version)
	binary.LittleEndian.PutUint16(buf[2:4], postscriptLength)
	copy(buf[4:], Magic)
	return buf
}

func decodeEOFMarker(tail []byte) (eofMarker, error) {
	if len(tail) < eofMarkerSize {
		return eofMarker{}, fmt.Errorf("vfile: tail shorter than EOF marker (%d < %d): %w", len(tail), eofMarkerSize, vortexerr.MalformedFile)
	}
	m := tail[len(tail)-eofMarkerSize:]
	if string(m[4:]) != Magic {
		return eofMarker{}, fmt.Errorf("vfile: bad magic %q: %w", m[4:], vortexerr.MalformedFile)
	}
	version := binary.LittleEndian.Uint16(m[0:2])
	if version != Version {
		return eofMarker{}, fmt.Errorf("vfile: unsupported version %d: %w", version, vortexerr.MalformedFile)
	}
	pslen := binary.LittleEndian.Uint16(m[2:4])
	return eofMarker{version: version, postscriptLength: pslen}, nil
}
