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

	"github.com/vortexdb/vortex/ion"
	"github.com/vortexdb/vortex/vortexerr"
)

// postscript records where the DType segment and the Footer segment
// live in the file (spec §4.7 "Postscript flatbuffer"). It is small
// and fixed-shape by construction, so it is always covered by even
// the minimum initial tail read.
type postscript struct {
	dtypeOffset, dtypeLength   uint64
	footerOffset, footerLength uint64
}

func (p postscript) encode() []byte {
	var st ion.Symtab
	var body ion.Buffer
	symDtypeOff := st.Intern("dtype_offset")
	symDtypeLen := st.Intern("dtype_length")
	symFooterOff := st.Intern("footer_offset")
	symFooterLen := st.Intern("footer_length")

	body.BeginStruct(-1)
	body.BeginField(symDtypeOff)
	body.WriteUint(p.dtypeOffset)
	body.BeginField(symDtypeLen)
	body.WriteUint(p.dtypeLength)
	body.BeginField(symFooterOff)
	body.WriteUint(p.footerOffset)
	body.BeginField(symFooterLen)
	body.WriteUint(p.footerLength)
	body.EndStruct()

	var out ion.Buffer
	st.Marshal(&out, true)
	out.UnsafeAppend(body.Bytes())
	return out.Bytes()
}

func decodePostscript(data []byte) (postscript, error) {
	st := new(ion.Symtab)
	rest, err := st.Unmarshal(data)
	if err != nil {
		return postscript{}, fmt.Errorf("vfile: postscript: symtab: %w", err)
	}
	d, _, err := ion.ReadDatum(st, rest)
	if err != nil {
		return postscript{}, fmt.Errorf("vfile: postscript: datum: %w", err)
	}
	s, ok := d.Struct()
	if !ok {
		return postscript{}, fmt.Errorf("vfile: postscript: expected a struct, got %s: %w", d.Type(), vortexerr.MalformedFile)
	}
	var p postscript
	if f, ok := s.FieldByName("dtype_offset"); ok {
		p.dtypeOffset, _ = f.Value.Uint()
	}
	if f, ok := s.FieldByName("dtype_length"); ok {
		p.dtypeLength, _ = f.Value.Uint()
	}
	if f, ok := s.FieldByName("footer_offset"); ok {
		p.footerOffset, _ = f.Value.Uint()
	}
	if f, ok := s.FieldByName("footer_length"); ok {
		p.footerLength, _ = f.Value.Uint()
	}
	return p, nil
}
