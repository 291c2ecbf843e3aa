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

package dtype

import (
	"fmt"

	"github.com/vortexdb/vortex/ion"
)

// Encode appends d's ion encoding to dst, interning any field names it
// needs in st. This is the "DType segment" of the file format (spec
// §4.7): a single self-describing ion value, read back with Decode.
func Encode(dst *ion.Buffer, st *ion.Symtab, d DType) {
	dst.BeginStruct(-1)
	dst.BeginField(st.Intern("kind"))
	dst.WriteString(kindName(d.Kind))
	dst.BeginField(st.Intern("nullable"))
	dst.WriteBool(d.Null == Nullable)
	switch d.Kind {
	case KindPrimitive:
		dst.BeginField(st.Intern("ptype"))
		dst.WriteString(d.Primitive.String())
	case KindDecimal:
		dst.BeginField(st.Intern("precision"))
		dst.WriteUint(uint64(d.Decimal.Precision))
		dst.BeginField(st.Intern("scale"))
		dst.WriteInt(int64(d.Decimal.Scale))
	case KindStruct:
		dst.BeginField(st.Intern("fields"))
		dst.BeginList(-1)
		for i, name := range d.Struct.Names {
			dst.BeginStruct(-1)
			dst.BeginField(st.Intern("name"))
			dst.WriteString(name)
			dst.BeginField(st.Intern("type"))
			Encode(dst, st, d.Struct.Types[i])
			dst.EndStruct()
		}
		dst.EndList()
	case KindList:
		dst.BeginField(st.Intern("element"))
		Encode(dst, st, *d.ListElement)
	case KindExtension:
		dst.BeginField(st.Intern("ext_id"))
		dst.WriteString(d.Ext.ID)
		dst.BeginField(st.Intern("ext_metadata"))
		dst.WriteBlob(d.Ext.Metadata)
		dst.BeginField(st.Intern("storage"))
		Encode(dst, st, *d.Ext.Storage)
	}
	dst.EndStruct()
}

// Decode parses one DType previously written by Encode.
func Decode(d ion.Datum) (DType, error) {
	s, ok := d.Struct()
	if !ok {
		return DType{}, fmt.Errorf("dtype: Decode: expected a struct, got %v", d.Type())
	}
	kindField, ok := s.FieldByName("kind")
	if !ok {
		return DType{}, fmt.Errorf("dtype: Decode: missing kind field")
	}
	kindStr, ok := kindField.Value.String()
	if !ok {
		return DType{}, fmt.Errorf("dtype: Decode: kind field is not a string")
	}
	kind, err := parseKindName(kindStr)
	if err != nil {
		return DType{}, err
	}
	n := NonNullable
	if nf, ok := s.FieldByName("nullable"); ok {
		if b, ok := nf.Value.Bool(); ok && b {
			n = Nullable
		}
	}
	out := DType{Kind: kind, Null: n}
	switch kind {
	case KindPrimitive:
		pf, ok := s.FieldByName("ptype")
		if !ok {
			return DType{}, fmt.Errorf("dtype: Decode: primitive dtype missing ptype")
		}
		pstr, _ := pf.Value.String()
		pt, err := parsePType(pstr)
		if err != nil {
			return DType{}, err
		}
		out.Primitive = pt
	case KindDecimal:
		pf, _ := s.FieldByName("precision")
		sf, _ := s.FieldByName("scale")
		prec, _ := pf.Value.Uint()
		scale, _ := sf.Value.Int()
		out.Decimal = DecimalDType{Precision: uint8(prec), Scale: int8(scale)}
	case KindStruct:
		ff, ok := s.FieldByName("fields")
		if !ok {
			return DType{}, fmt.Errorf("dtype: Decode: struct dtype missing fields")
		}
		list, ok := ff.Value.List()
		if !ok {
			return DType{}, fmt.Errorf("dtype: Decode: fields is not a list")
		}
		var names []string
		var types []DType
		var err error
		err = list.Each(func(item ion.Datum) bool {
			fs, ok := item.Struct()
			if !ok {
				err = fmt.Errorf("dtype: Decode: field entry is not a struct")
				return false
			}
			nameField, _ := fs.FieldByName("name")
			name, _ := nameField.Value.String()
			typeField, _ := fs.FieldByName("type")
			ft, derr := Decode(typeField.Value)
			if derr != nil {
				err = derr
				return false
			}
			names = append(names, name)
			types = append(types, ft)
			return true
		})
		if err != nil {
			return DType{}, err
		}
		out.Struct = &StructDType{Names: names, Types: types}
	case KindList:
		ef, ok := s.FieldByName("element")
		if !ok {
			return DType{}, fmt.Errorf("dtype: Decode: list dtype missing element")
		}
		elem, err := Decode(ef.Value)
		if err != nil {
			return DType{}, err
		}
		out.ListElement = &elem
	case KindExtension:
		idField, _ := s.FieldByName("ext_id")
		id, _ := idField.Value.String()
		metaField, _ := s.FieldByName("ext_metadata")
		meta, _ := metaField.Value.Blob()
		storageField, ok := s.FieldByName("storage")
		if !ok {
			return DType{}, fmt.Errorf("dtype: Decode: extension dtype missing storage")
		}
		storage, err := Decode(storageField.Value)
		if err != nil {
			return DType{}, err
		}
		out.Ext = &ExtDType{ID: id, Metadata: meta, Storage: &storage}
	}
	return out, nil
}

func kindName(k Kind) string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindPrimitive:
		return "primitive"
	case KindDecimal:
		return "decimal"
	case KindUtf8:
		return "utf8"
	case KindBinary:
		return "binary"
	case KindStruct:
		return "struct"
	case KindList:
		return "list"
	case KindExtension:
		return "extension"
	default:
		panic(fmt.Sprintf("dtype: unknown kind %d", k))
	}
}

func parseKindName(s string) (Kind, error) {
	switch s {
	case "null":
		return KindNull, nil
	case "bool":
		return KindBool, nil
	case "primitive":
		return KindPrimitive, nil
	case "decimal":
		return KindDecimal, nil
	case "utf8":
		return KindUtf8, nil
	case "binary":
		return KindBinary, nil
	case "struct":
		return KindStruct, nil
	case "list":
		return KindList, nil
	case "extension":
		return KindExtension, nil
	default:
		return 0, fmt.Errorf("dtype: Decode: unknown kind %q", s)
	}
}

func parsePType(s string) (PType, error) {
	for _, pt := range []PType{U8, U16, U32, U64, I8, I16, I32, I64, F16, F32, F64} {
		if pt.String() == s {
			return pt, nil
		}
	}
	return 0, fmt.Errorf("dtype: Decode: unknown ptype %q", s)
}
