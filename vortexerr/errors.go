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

// Package vortexerr defines the stable error taxonomy shared by every
// Vortex component: array compute, the file format and the scan
// engine all wrap one of these sentinels so callers can distinguish
// recoverable operation failures with errors.Is.
package vortexerr

import "errors"

// Sentinel errors. Wrap with fmt.Errorf("...: %w", Sentinel) to attach
// operation-specific context; never return these bare when context is
// available.
var (
	// InvalidArgument marks a structural invariant violation caught at
	// construction time (e.g. mismatched child lengths).
	InvalidArgument = errors.New("invalid argument")
	// OutOfBounds marks an index outside an array's valid range.
	OutOfBounds = errors.New("index out of bounds")
	// TypeMismatch marks an operation applied to incompatible dtypes.
	TypeMismatch = errors.New("type mismatch")
	// EncodingNotFound marks a missing array-encoding registration on open.
	EncodingNotFound = errors.New("encoding not found")
	// LayoutNotFound marks a missing layout-encoding registration on open.
	LayoutNotFound = errors.New("layout not found")
	// MalformedFile marks a corrupt or truncated file (bad magic, bad
	// version, truncated trailer).
	MalformedFile = errors.New("malformed file")
	// Io wraps an underlying I/O failure while reading a segment.
	Io = errors.New("i/o error")
	// NotImplemented marks a kernel or codec path intentionally left
	// unsupported.
	NotImplemented = errors.New("not implemented")
)
