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
	"fmt"
	"sort"

	"github.com/vortexdb/vortex/array"
	"github.com/vortexdb/vortex/expr"
	"github.com/vortexdb/vortex/layout"
	"github.com/vortexdb/vortex/vortexerr"
)

// decodeRange materializes l's rows over [start, end), dispatching
// per concrete layout kind (spec §4.8 "Expression → layout
// dispatch"). fields restricts which struct fields are decoded when l
// (or, for Stats/Chunked, the layout they wrap) is a StructLayout;
// nil means every field.
func decodeRange(l layout.Layout, ctx *array.Context, res layout.SegmentResolver, start, end int64, fields []string) (array.Array, error) {
	if start < 0 || end > int64(l.Len()) || start > end {
		return nil, fmt.Errorf("scan: row range [%d,%d) out of bounds for layout len %d: %w", start, end, l.Len(), vortexerr.OutOfBounds)
	}
	switch t := l.(type) {
	case *layout.FlatLayout:
		full, err := t.Decode(ctx, res)
		if err != nil {
			return nil, fmt.Errorf("scan: decoding flat layout: %w", err)
		}
		return array.Slice(full, int(start), int(end))
	case *layout.ChunkedLayout:
		return decodeChunkedRange(t, ctx, res, start, end, fields)
	case *layout.StructLayout:
		return decodeStructRange(t, ctx, res, start, end, fields)
	case *layout.StatsLayout:
		return decodeRange(t.Child(), ctx, res, start, end, fields)
	default:
		return nil, fmt.Errorf("scan: unsupported layout kind %q: %w", l.EncodingID(), vortexerr.NotImplemented)
	}
}

// decodeChunkedRange decodes [start,end) by locating the overlapping
// chunks, decoding each one's local sub-range and concatenating the
// results in order (spec §4.8 "A Chunked reader splits the mask per
// chunk and fans out in order, concatenating results").
func decodeChunkedRange(t *layout.ChunkedLayout, ctx *array.Context, res layout.SegmentResolver, start, end int64, fields []string) (array.Array, error) {
	refs := t.Children()
	chunkByIndex := make(map[int]layout.Layout, len(refs))
	for _, r := range refs {
		if r.Kind == layout.Chunk {
			chunkByIndex[r.Index] = r.Layout
		}
	}

	startChunk, startRow := t.Locate(start)
	endChunk, endRow := t.Locate(end - 1)

	var parts []array.Array
	for ci := startChunk; ci <= endChunk; ci++ {
		child, ok := chunkByIndex[ci]
		if !ok {
			return nil, fmt.Errorf("scan: chunked layout missing chunk %d", ci)
		}
		localStart := int64(0)
		if ci == startChunk {
			localStart = startRow
		}
		localEnd := int64(child.Len())
		if ci == endChunk {
			localEnd = endRow + 1
		}
		part, err := decodeRange(child, ctx, res, localStart, localEnd, fields)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return array.Concat(t.DType(), parts)
}

// decodeStructRange decodes only the requested fields (nil meaning
// every field), reassembling a Struct array and its own validity
// mask, if any (spec §4.8 "A Struct reader dispatches GetItem/Select
// expressions to the named field child").
func decodeStructRange(t *layout.StructLayout, ctx *array.Context, res layout.SegmentResolver, start, end int64, fields []string) (array.Array, error) {
	names := fields
	if names == nil {
		names = t.DType().Struct.Names
	}
	var outNames []string
	var outFields []array.Array
	for _, name := range names {
		fl := t.Field(name)
		if fl == nil {
			return nil, fmt.Errorf("scan: struct layout missing field %q: %w", name, vortexerr.InvalidArgument)
		}
		fa, err := decodeRange(fl, ctx, res, start, end, nil)
		if err != nil {
			return nil, fmt.Errorf("scan: decoding struct field %q: %w", name, err)
		}
		outNames = append(outNames, name)
		outFields = append(outFields, fa)
	}

	n := int(end - start)
	var valid array.Validity
	if vl := t.Validity(); vl != nil {
		vArr, err := decodeRange(vl, ctx, res, start, end, nil)
		if err != nil {
			return nil, fmt.Errorf("scan: decoding struct validity: %w", err)
		}
		valid = array.FromBoolArray(vArr)
	} else if t.DType().Nullable() {
		valid = array.AllValid(n)
	} else {
		valid = array.NonNullable(n)
	}
	return array.NewStruct(outNames, outFields, t.DType().Null, valid), nil
}

// collectFields walks n, recording every top-level struct field name
// it reads directly off its scope and reporting whether the whole
// scope is needed regardless (a bare Identity not wrapped in
// GetItem, or a Select in Exclude mode, which cannot be resolved
// without the full field list).
func collectFields(n expr.Node, fields map[string]bool) (needAll bool) {
	switch t := n.(type) {
	case expr.Identity:
		return true
	case expr.Literal:
		return false
	case expr.GetItem:
		if _, ok := t.Child.(expr.Identity); ok {
			fields[t.Field] = true
			return false
		}
		return collectFields(t.Child, fields)
	case expr.BinaryExpr:
		a := collectFields(t.Lhs, fields)
		b := collectFields(t.Rhs, fields)
		return a || b
	case expr.Not:
		return collectFields(t.Child, fields)
	case expr.Between:
		a := collectFields(t.Value, fields)
		b := collectFields(t.Lower, fields)
		c := collectFields(t.Upper, fields)
		return a || b || c
	case expr.Pack:
		any := false
		for _, c := range t.Children {
			if collectFields(c, fields) {
				any = true
			}
		}
		return any
	case expr.Select:
		if t.Mode == expr.SelectExclude {
			return true
		}
		for _, f := range t.Fields {
			fields[f] = true
		}
		return false
	default:
		return true
	}
}

// requiredFields returns the sorted struct field names n reads
// directly off its scope, or nil if the whole scope must be decoded
// (spec §4.8's Struct-reader dispatch, restricted to the scope's own
// top-level fields — a GetItem reaching through a nested expression
// still forces that outer field to decode in full).
func requiredFields(n expr.Node) []string {
	if n == nil {
		return []string{}
	}
	fields := make(map[string]bool)
	if collectFields(n, fields) {
		return nil
	}
	out := make([]string, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
