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

import "github.com/vortexdb/vortex/buffer"

// SegmentResolver supplies already-decompressed bytes for a segment
// id. A layout's own decode path only needs synchronous access to
// bytes; scheduling the underlying reads (deduplication, coalescing,
// bounded concurrency, caching) is the scan package's IoDriver's job,
// which implements this interface by waiting on its futures. Keeping
// the dependency direction this way lets layout decode stay ignorant
// of I/O concurrency entirely (spec §4.7's reader is purely
// structural; spec §4.8 "Segment source & I/O driver" is where the
// asynchrony lives).
type SegmentResolver interface {
	Resolve(id SegmentId) (buffer.ByteBuffer, error)
}

// StaticResolver is a SegmentResolver backed by an in-memory slice
// indexed by SegmentId.
type StaticResolver []buffer.ByteBuffer

func (r StaticResolver) Resolve(id SegmentId) (buffer.ByteBuffer, error) {
	return r[id], nil
}
