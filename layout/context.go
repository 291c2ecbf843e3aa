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

	"golang.org/x/exp/maps"

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/vortexerr"
)

// Context is a process-wide, immutable-after-construction registry
// mapping layout-encoding identifiers to Builders, the layout-tree
// counterpart of array.Context (spec §4.7 "Layout-encoding registry").
type Context struct {
	builders map[string]Builder
}

// NewContext returns a Context with no encodings registered.
func NewContext() *Context {
	return &Context{builders: make(map[string]Builder)}
}

// Register adds (or replaces) the Builder for id.
func (c *Context) Register(id string, b Builder) {
	c.builders[id] = b
}

// Lookup returns the Builder registered for id.
func (c *Context) Lookup(id string) (Builder, bool) {
	b, ok := c.builders[id]
	return b, ok
}

// Build reconstructs a layout using the Builder registered for id,
// returning LayoutNotFound if none is registered.
func (c *Context) Build(id string, dt dtype.DType, length int, metadata []byte, children []ChildRef, segments []SegmentId) (Layout, error) {
	b, ok := c.builders[id]
	if !ok {
		return nil, fmt.Errorf("layout: encoding %q: %w", id, vortexerr.LayoutNotFound)
	}
	return b(dt, length, metadata, children, segments)
}

// IDs returns every registered layout-encoding identifier.
func (c *Context) IDs() []string {
	return maps.Keys(c.builders)
}

// Clone returns an independent copy of the context.
func (c *Context) Clone() *Context {
	return &Context{builders: maps.Clone(c.builders)}
}

// Default returns a Context with every standard layout registered
// under its canonical identifier.
func Default() *Context {
	c := NewContext()
	c.Register(EncodingFlat, buildFlat)
	c.Register(EncodingChunked, buildChunked)
	c.Register(EncodingStruct, buildStruct)
	c.Register(EncodingStats, buildStats)
	return c
}
