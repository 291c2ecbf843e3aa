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

import "github.com/vortexdb/vortex/layout"

// FileSource is the minimal contract an IoDriver needs from an opened
// file: the segment map (for offsets, lengths, alignment and
// compression hints) and a raw ranged read, bypassing any read-side
// caching of its own. *vfile.Reader satisfies this directly (spec
// §6 "Segment source contract").
type FileSource interface {
	Segments() *layout.SegmentMap
	ReadRange(offset, length int64) ([]byte, error)
}
