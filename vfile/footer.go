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

	"github.com/google/uuid"

	"github.com/vortexdb/vortex/dtype"
	"github.com/vortexdb/vortex/internal/segio"
	"github.com/vortexdb/vortex/ion"
	"github.com/vortexdb/vortex/layout"
	"github.com/vortexdb/vortex/scalar"
	"github.com/vortexdb/vortex/stats"
	"github.com/vortexdb/vortex/vortexerr"
)

// footer is the fully-decoded "Footer flatbuffer" of spec §4.7: the
// root Layout tree, the segment map, the two encoding registries used
// while writing, and an optional root-level statistics set.
type footer struct {
	id              uuid.UUID
	root            layout.Layout
	segments        *layout.SegmentMap
	arrayEncodings  []string
	layoutEncodings []string
	rootStats       *stats.Set // nil if the writer did not attach one
}

func encodeFooter(dst *ion.Buffer, st *ion.Symtab, f *footer) {
	dst.BeginStruct(-1)

	dst.BeginField(st.Intern("id"))
	idBytes := f.id
	dst.WriteBlob(idBytes[:])

	dst.BeginField(st.Intern("root"))
	layout.EncodeTree(dst, st, f.root)

	dst.BeginField(st.Intern("segments"))
	dst.BeginList(-1)
	for _, seg := range f.segments.All() {
		dst.BeginStruct(-1)
		dst.BeginField(st.Intern("offset"))
		dst.WriteUint(seg.Offset)
		dst.BeginField(st.Intern("length"))
		dst.WriteUint(uint64(seg.Length))
		dst.BeginField(st.Intern("alignment"))
		dst.WriteUint(uint64(seg.Alignment))
		dst.BeginField(st.Intern("algo"))
		dst.WriteString(string(seg.Algo))
		dst.BeginField(st.Intern("raw_length"))
		dst.WriteUint(uint64(seg.RawLength))
		dst.EndStruct()
	}
	dst.EndList()

	dst.BeginField(st.Intern("array_encodings"))
	dst.BeginList(-1)
	for _, id := range f.arrayEncodings {
		dst.WriteString(id)
	}
	dst.EndList()

	dst.BeginField(st.Intern("layout_encodings"))
	dst.BeginList(-1)
	for _, id := range f.layoutEncodings {
		dst.WriteString(id)
	}
	dst.EndList()

	if f.rootStats != nil {
		dst.BeginField(st.Intern("stats"))
		dst.BeginList(-1)
		f.rootStats.Range(func(stat stats.Stat, p stats.Precision) {
			dst.BeginStruct(-1)
			dst.BeginField(st.Intern("stat"))
			dst.WriteString(stat.String())
			dst.BeginField(st.Intern("exact"))
			dst.WriteBool(p.Exact)
			dst.BeginField(st.Intern("dtype"))
			dtype.Encode(dst, st, p.Value.DType)
			dst.BeginField(st.Intern("value"))
			dst.WriteBlob(scalar.Marshal(p.Value))
			dst.EndStruct()
		})
		dst.EndList()
	}

	dst.EndStruct()
}

func decodeFooter(ctx *layout.Context, d ion.Datum) (*footer, error) {
	s, ok := d.Struct()
	if !ok {
		return nil, fmt.Errorf("vfile: footer: expected struct, got %s: %w", d.Type(), vortexerr.MalformedFile)
	}

	f := &footer{}
	if idf, ok := s.FieldByName("id"); ok {
		b, _ := idf.Value.Blob()
		if len(b) == 16 {
			copy(f.id[:], b)
		}
	}

	rootField, ok := s.FieldByName("root")
	if !ok {
		return nil, fmt.Errorf("vfile: footer: missing \"root\" field: %w", vortexerr.MalformedFile)
	}
	root, err := layout.DecodeTree(ctx, rootField.Value)
	if err != nil {
		return nil, fmt.Errorf("vfile: footer: root: %w", err)
	}
	f.root = root

	f.segments = layout.NewSegmentMap()
	if sf, ok := s.FieldByName("segments"); ok {
		list, ok := sf.Value.List()
		if !ok {
			return nil, fmt.Errorf("vfile: footer: \"segments\" is not a list: %w", vortexerr.MalformedFile)
		}
		var outerErr error
		list.Each(func(item ion.Datum) bool {
			ss, ok := item.Struct()
			if !ok {
				outerErr = fmt.Errorf("vfile: footer: segment entry is not a struct: %w", vortexerr.MalformedFile)
				return false
			}
			var seg layout.Segment
			if of, ok := ss.FieldByName("offset"); ok {
				seg.Offset, _ = of.Value.Uint()
			}
			if lf, ok := ss.FieldByName("length"); ok {
				v, _ := lf.Value.Uint()
				seg.Length = uint32(v)
			}
			if af, ok := ss.FieldByName("alignment"); ok {
				v, _ := af.Value.Uint()
				seg.Alignment = uint8(v)
			}
			if algof, ok := ss.FieldByName("algo"); ok {
				v, _ := algof.Value.String()
				seg.Algo = segio.Algo(v)
			}
			if rf, ok := ss.FieldByName("raw_length"); ok {
				v, _ := rf.Value.Uint()
				seg.RawLength = uint32(v)
			}
			f.segments.Add(seg)
			return true
		})
		if outerErr != nil {
			return nil, outerErr
		}
	}

	if aef, ok := s.FieldByName("array_encodings"); ok {
		if list, ok := aef.Value.List(); ok {
			var outerErr error
			list.Each(func(item ion.Datum) bool {
				v, _ := item.String()
				f.arrayEncodings = append(f.arrayEncodings, v)
				return true
			})
			if outerErr != nil {
				return nil, outerErr
			}
		}
	}

	if lef, ok := s.FieldByName("layout_encodings"); ok {
		if list, ok := lef.Value.List(); ok {
			var outerErr error
			list.Each(func(item ion.Datum) bool {
				v, _ := item.String()
				f.layoutEncodings = append(f.layoutEncodings, v)
				return true
			})
			if outerErr != nil {
				return nil, outerErr
			}
		}
	}

	if stf, ok := s.FieldByName("stats"); ok {
		list, ok := stf.Value.List()
		if !ok {
			return nil, fmt.Errorf("vfile: footer: \"stats\" is not a list: %w", vortexerr.MalformedFile)
		}
		set := new(stats.Set)
		var outerErr error
		list.Each(func(item ion.Datum) bool {
			es, ok := item.Struct()
			if !ok {
				outerErr = fmt.Errorf("vfile: footer: stats entry is not a struct: %w", vortexerr.MalformedFile)
				return false
			}
			statField, ok := es.FieldByName("stat")
			if !ok {
				outerErr = fmt.Errorf("vfile: footer: stats entry missing \"stat\": %w", vortexerr.MalformedFile)
				return false
			}
			statName, _ := statField.Value.String()
			stat, ok := stats.ParseStat(statName)
			if !ok {
				outerErr = fmt.Errorf("vfile: footer: unknown stat %q: %w", statName, vortexerr.MalformedFile)
				return false
			}
			var exact bool
			if ef, ok := es.FieldByName("exact"); ok {
				exact, _ = ef.Value.Bool()
			}
			dtypeField, ok := es.FieldByName("dtype")
			if !ok {
				outerErr = fmt.Errorf("vfile: footer: stats entry missing \"dtype\": %w", vortexerr.MalformedFile)
				return false
			}
			dt, derr := dtype.Decode(dtypeField.Value)
			if derr != nil {
				outerErr = fmt.Errorf("vfile: footer: stats entry dtype: %w", derr)
				return false
			}
			valueField, ok := es.FieldByName("value")
			if !ok {
				outerErr = fmt.Errorf("vfile: footer: stats entry missing \"value\": %w", vortexerr.MalformedFile)
				return false
			}
			raw, _ := valueField.Value.Blob()
			v, serr := scalar.Unmarshal(dt, raw)
			if serr != nil {
				outerErr = fmt.Errorf("vfile: footer: stats entry value: %w", serr)
				return false
			}
			set.Set(stat, stats.Precision{Exact: exact, Value: v})
			return true
		})
		if outerErr != nil {
			return nil, outerErr
		}
		f.rootStats = set
	}

	return f, nil
}
