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

// Package dtype implements Vortex's logical type system: a closed sum
// of Null, Bool, Primitive, Decimal, Utf8, Binary, Struct, List and
// Extension, each carrying a Nullability tag.
package dtype

import (
	"fmt"
	"strings"
)

// Nullability tags whether a DType may carry null values.
type Nullability bool

const (
	NonNullable Nullability = false
	Nullable    Nullability = true
)

func (n Nullability) String() string {
	if n == Nullable {
		return "?"
	}
	return ""
}

// Kind identifies which variant of the DType sum a value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindPrimitive
	KindDecimal
	KindUtf8
	KindBinary
	KindStruct
	KindList
	KindExtension
)

// DecimalDType carries the precision and scale of a Decimal dtype.
type DecimalDType struct {
	Precision uint8
	Scale     int8
}

// StructDType is an ordered mapping from unique field name to field
// DType. Order is significant: it determines positional child layout.
type StructDType struct {
	Names []string
	Types []DType
}

// Field returns the DType of the named field and whether it exists.
func (s *StructDType) Field(name string) (DType, bool) {
	for i, n := range s.Names {
		if n == name {
			return s.Types[i], true
		}
	}
	return DType{}, false
}

// FieldIndex returns the positional index of the named field, or -1.
func (s *StructDType) FieldIndex(name string) int {
	for i, n := range s.Names {
		if n == name {
			return i
		}
	}
	return -1
}

func (s *StructDType) equalIgnoringNullability(o *StructDType) bool {
	if len(s.Names) != len(o.Names) {
		return false
	}
	for i := range s.Names {
		if s.Names[i] != o.Names[i] {
			return false
		}
		if !s.Types[i].EqualIgnoringNullability(o.Types[i]) {
			return false
		}
	}
	return true
}

// ExtDType wraps a storage DType with an identifier and opaque
// metadata. The array built atop an ExtDType must honor the logical
// contract implied by ID/Metadata; its bytes are addressed only
// through Storage.
type ExtDType struct {
	ID       string
	Metadata []byte
	Storage  *DType
}

// DType is the logical type of an array or scalar. Only the field
// matching Kind is meaningful; the others are zero.
type DType struct {
	Kind        Kind
	Null        Nullability
	Primitive   PType
	Decimal     DecimalDType
	Struct      *StructDType
	ListElement *DType
	Ext         *ExtDType
}

// NullType is the singular Null dtype (always "nullable": every
// position is null).
var NullType = DType{Kind: KindNull, Null: Nullable}

// Bool constructs a Bool dtype with the given nullability.
func Bool(n Nullability) DType { return DType{Kind: KindBool, Null: n} }

// Primitive constructs a Primitive dtype of the given PType.
func Primitive(p PType, n Nullability) DType {
	return DType{Kind: KindPrimitive, Null: n, Primitive: p}
}

// Decimal constructs a Decimal dtype.
func Decimal(precision uint8, scale int8, n Nullability) DType {
	return DType{Kind: KindDecimal, Null: n, Decimal: DecimalDType{Precision: precision, Scale: scale}}
}

// Utf8 constructs a Utf8 dtype.
func Utf8(n Nullability) DType { return DType{Kind: KindUtf8, Null: n} }

// Binary constructs a Binary dtype.
func Binary(n Nullability) DType { return DType{Kind: KindBinary, Null: n} }

// Struct constructs a Struct dtype from field names and types.
func Struct(names []string, types []DType, n Nullability) DType {
	return DType{Kind: KindStruct, Null: n, Struct: &StructDType{Names: names, Types: types}}
}

// List constructs a List dtype with the given element type.
func List(element DType, n Nullability) DType {
	return DType{Kind: KindList, Null: n, ListElement: &element}
}

// Extension constructs an Extension dtype. Per spec, the outer
// Nullability always wins over the storage dtype's nullability.
func Extension(id string, metadata []byte, storage DType, n Nullability) DType {
	return DType{Kind: KindExtension, Null: n, Ext: &ExtDType{ID: id, Metadata: metadata, Storage: &storage}}
}

// Nullable reports whether this dtype may carry nulls.
func (d DType) Nullable() bool { return d.Null == Nullable }

// AsNullable returns d with nullability forced to Nullable.
func (d DType) AsNullable() DType {
	d.Null = Nullable
	return d
}

// AsNonNullable returns d with nullability forced to NonNullable. The
// caller is responsible for ensuring no null value survives.
func (d DType) AsNonNullable() DType {
	d.Null = NonNullable
	return d
}

// StorageDType resolves extension wrappers to their physical storage
// dtype, recursively. Non-extension dtypes return themselves.
func (d DType) StorageDType() DType {
	for d.Kind == KindExtension {
		d = *d.Ext.Storage
	}
	return d
}

// EqualIgnoringNullability reports whether d and o are the same
// variant with the same shape, ignoring the Nullability tag at every
// level.
func (d DType) EqualIgnoringNullability(o DType) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case KindNull, KindBool, KindUtf8, KindBinary:
		return true
	case KindPrimitive:
		return d.Primitive == o.Primitive
	case KindDecimal:
		return d.Decimal == o.Decimal
	case KindStruct:
		return d.Struct.equalIgnoringNullability(o.Struct)
	case KindList:
		return d.ListElement.EqualIgnoringNullability(*o.ListElement)
	case KindExtension:
		return d.Ext.ID == o.Ext.ID &&
			string(d.Ext.Metadata) == string(o.Ext.Metadata) &&
			d.Ext.Storage.EqualIgnoringNullability(*o.Ext.Storage)
	default:
		return false
	}
}

// Equal reports full equality, including nullability at every level.
func (d DType) Equal(o DType) bool {
	return d.Null == o.Null && d.EqualIgnoringNullability(o)
}

func (d DType) String() string {
	switch d.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return "bool" + d.Null.String()
	case KindPrimitive:
		return d.Primitive.String() + d.Null.String()
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)%s", d.Decimal.Precision, d.Decimal.Scale, d.Null)
	case KindUtf8:
		return "utf8" + d.Null.String()
	case KindBinary:
		return "binary" + d.Null.String()
	case KindStruct:
		var b strings.Builder
		b.WriteString("struct{")
		for i, n := range d.Struct.Names {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", n, d.Struct.Types[i])
		}
		b.WriteString("}")
		b.WriteString(d.Null.String())
		return b.String()
	case KindList:
		return fmt.Sprintf("list(%s)%s", d.ListElement, d.Null)
	case KindExtension:
		return fmt.Sprintf("ext<%s>(%s)%s", d.Ext.ID, d.Ext.Storage, d.Null)
	default:
		return "invalid"
	}
}
