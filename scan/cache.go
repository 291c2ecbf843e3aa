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

package scan

import (
	"sync"

	"github.com/vortexdb/vortex/buffer"
	"github.com/vortexdb/vortex/layout"
)

// SegmentCache is an in-process, per-file associative store of
// already-resolved segment bytes, shared across all concurrent scans
// of one file (spec §5 "Shared resources"). Eviction policy is
// pluggable and out of scope; the zero value is a cache with no
// eviction at all.
type SegmentCache struct {
	mu      sync.RWMutex
	entries map[layout.SegmentId]buffer.ByteBuffer
}

// NewSegmentCache returns an empty SegmentCache.
func NewSegmentCache() *SegmentCache {
	return &SegmentCache{entries: make(map[layout.SegmentId]buffer.ByteBuffer)}
}

// Get returns the cached buffer for id, if present.
func (c *SegmentCache) Get(id layout.SegmentId) (buffer.ByteBuffer, bool) {
	if c == nil {
		return buffer.ByteBuffer{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[id]
	return b, ok
}

// Put stores buf for id. Mutations are idempotent: storing the same
// id twice is harmless, matching the spec's ArrayStats commutativity
// note applied to cache population races between coalesced reads.
func (c *SegmentCache) Put(id layout.SegmentId, buf buffer.ByteBuffer) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[layout.SegmentId]buffer.ByteBuffer)
	}
	c.entries[id] = buf
}

// Len reports the number of cached entries.
func (c *SegmentCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
