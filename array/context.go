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

	"golang.org/x/exp/maps"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/vortexerr"
)

// Builder reconstructs an array of one encoding from its serialized
// parts: dtype, length, encoding-specific metadata, owned buffers and
// already-reconstructed children.
type Builder func(dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error)

// Context is a process-wide, immutable-after-construction registry
// mapping encoding identifiers to Builders (spec §4.1 "Encoding
// registry"). A file persists the identifiers it used so that readers
// can fail fast with EncodingNotFound rather than silently guessing.
type Context struct {
	builders map[string]Builder
}

// NewContext returns a Context with no encodings registered.
func NewContext() *Context {
	return &Context{builders: make(map[string]Builder)}
}

// Register adds (or replaces) the Builder for id. Intended to be
// called during process initialization, before the Context is shared
// across goroutines.
func (c *Context) Register(id string, b Builder) {
	c.builders[id] = b
}

// Lookup returns the Builder registered for id.
func (c *Context) Lookup(id string) (Builder, bool) {
	b, ok := c.builders[id]
	return b, ok
}

// Build reconstructs an array using the Builder registered for id,
// returning EncodingNotFound if none is registered.
func (c *Context) Build(id string, dt dtype.DType, length int, metadata []byte, buffers []buffer.ByteBuffer, children []Array) (Array, error) {
	b, ok := c.builders[id]
	if !ok {
		return nil, fmt.Errorf("array: encoding %q: %w", id, vortexerr.EncodingNotFound)
	}
	return b(dt, length, metadata, buffers, children)
}

// IDs returns every registered encoding identifier, in no particular
// order, used to populate the file format's encoding registry on
// write.
func (c *Context) IDs() []string {
	return maps.Keys(c.builders)
}

// Clone returns an independent copy of the context (builders map
// only; Builder values themselves are shared, which is safe since
// they are pure functions).
func (c *Context) Clone() *Context {
	return &Context{builders: maps.Clone(c.builders)}
}

// Default returns a Context with every encoding defined in this
// package registered under its canonical identifier.
func Default() *Context {
	c := NewContext()
	c.Register(EncodingNull, buildNull)
	c.Register(EncodingBool, buildBool)
	c.Register(EncodingPrimitive, buildPrimitive)
	c.Register(EncodingVarBinView, buildVarBinView)
	c.Register(EncodingStruct, buildStruct)
	c.Register(EncodingList, buildList)
	c.Register(EncodingConstant, buildConstant)
	c.Register(EncodingChunked, buildChunked)
	c.Register(EncodingDict, buildDict)
	c.Register(EncodingRunEnd, buildRunEnd)
	c.Register(EncodingBitPacked, buildBitPacked)
	c.Register(EncodingFoR, buildFoR)
	c.Register(EncodingDelta, buildDelta)
	c.Register(EncodingSparse, buildSparse)
	c.Register(EncodingZigZag, buildZigZag)
	c.Register(EncodingFSST, buildFSST)
	c.Register(EncodingALP, buildALP)
	c.Register(EncodingALPRD, buildALPRD)
	c.Register(EncodingRoaringBool, buildRoaringBool)
	c.Register(EncodingRoaringInt, buildRoaringInt)
	c.Register(EncodingDateTime, buildDateTimeParts)
	c.Register(EncodingDecimal, buildDecimal)
	c.Register(EncodingByteBool, buildByteBool)
	c.Register(EncodingExtension, buildExtension)
	return c
}

// CanonicalEncodingID returns the encoding identifier that is
// canonical for dt's kind, per spec §3.
func CanonicalEncodingID(dt dtype.DType) string {
	switch dt.Kind {
	case dtype.KindNull:
		return EncodingNull
	case dtype.KindBool:
		return EncodingBool
	case dtype.KindPrimitive:
		return EncodingPrimitive
	case dtype.KindDecimal:
		return EncodingDecimal
	case dtype.KindUtf8, dtype.KindBinary:
		return EncodingVarBinView
	case dtype.KindStruct:
		return EncodingStruct
	case dtype.KindList:
		return EncodingList
	case dtype.KindExtension:
		return CanonicalEncodingID(dt.StorageDType())
	default:
		panic("array: unknown dtype kind")
	}
}
