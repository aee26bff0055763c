// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package types implements evscript's small type system: primitive integers,
// pointers, and structs, plus the table that resolves type names to them.
package types

import (
	"fmt"
	"strings"
)

// Type is any evscript type: a Primitive, a Pointer, or a Struct.
type Type interface {
	fmt.Stringer

	// Size returns the number of bytes a value of this type occupies.
	Size() uint8
}

// Primitive is a signed or unsigned integer of 1-4 bytes.
type Primitive struct {
	Signed bool
	Width  uint8
}

// DefaultInteger is the type of an untyped integer literal: unsigned, 1 byte.
func DefaultInteger() Primitive {
	return Primitive{Signed: false, Width: 1}
}

// PointerSize is the primitive type used to hold a pointer value.
func PointerSize() Primitive {
	return Primitive{Signed: false, Width: 2}
}

// Promote computes the result type of a binary operation between l and r:
// the wider of the two sizes, signed if either operand is signed. The result
// names the opcode suffix only; no widening instruction is ever emitted.
func Promote(l, r Primitive) Primitive {
	width := l.Width
	if r.Width > width {
		width = r.Width
	}

	return Primitive{Signed: l.Signed || r.Signed, Width: width}
}

// Size implements Type.
func (p Primitive) Size() uint8 { return p.Width }

// String implements Type, rendering e.g. "u8", "i16".
func (p Primitive) String() string {
	prefix := "u"
	if p.Signed {
		prefix = "i"
	}

	return fmt.Sprintf("%s%d", prefix, p.Width*8)
}

// Pointer is a pointer to another type, always 2 bytes wide.
type Pointer struct {
	Target Type
}

// Size implements Type.
func (Pointer) Size() uint8 { return 2 }

// String implements Type.
func (p Pointer) String() string {
	return fmt.Sprintf("%s*", p.Target)
}

// StructField is one named, typed member of a Struct, in declaration order.
type StructField struct {
	Name string
	Type Type
}

// Struct is a named aggregate of fields, laid out in declaration order with
// no padding; the byte-addressed pool has no alignment requirements.
type Struct struct {
	Name   string
	Fields []StructField
}

// Size implements Type: the sum of all field sizes.
func (s Struct) Size() uint8 {
	var total uint8
	for _, f := range s.Fields {
		total += f.Type.Size()
	}

	return total
}

// String implements Type.
func (s Struct) String() string {
	return s.Name
}

// FieldOffset returns the byte offset of the named field within this struct,
// and the field's type. ok is false if no such field exists.
func (s Struct) FieldOffset(name string) (offset uint8, t Type, ok bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return offset, f.Type, true
		}

		offset += f.Type.Size()
	}

	return 0, nil, false
}

// FieldAtByteOffset finds the field occupying byte offset, descending into
// nested structs, and returns it together with the field's own base offset
// within s. ok is false if offset falls outside any field (a struct's total
// size never leaves gaps, but a scalar field's interior bytes beyond its
// first do not resolve to a narrower type).
func (s Struct) FieldAtByteOffset(offset uint8) (base uint8, t Type, ok bool) {
	var cursor uint8

	for _, f := range s.Fields {
		size := f.Type.Size()
		if offset < cursor+size {
			if nested, isStruct := f.Type.(Struct); isStruct {
				nestedBase, nestedType, nestedOK := nested.FieldAtByteOffset(offset - cursor)
				return cursor + nestedBase, nestedType, nestedOK
			}

			if offset == cursor {
				return cursor, f.Type, true
			}

			return 0, nil, false
		}

		cursor += size
	}

	return 0, nil, false
}

// Field looks up a (possibly dotted) member path within this struct, e.g.
// "position.x" for a nested struct field, returning the cumulative offset
// and the leaf type.
func (s Struct) Field(path string) (offset uint8, t Type, ok bool) {
	head, rest, hasRest := strings.Cut(path, ".")

	fieldOffset, fieldType, ok := s.FieldOffset(head)
	if !ok {
		return 0, nil, false
	}

	if !hasRest {
		return fieldOffset, fieldType, true
	}

	nested, ok := fieldType.(Struct)
	if !ok {
		return 0, nil, false
	}

	innerOffset, innerType, ok := nested.Field(rest)
	if !ok {
		return 0, nil, false
	}

	return fieldOffset + innerOffset, innerType, true
}

// Table resolves type names (primitives, structs, and typedefs) to Types.
// Only "u8" and "u16" are builtin; every other name enters the table through
// a typedef or struct declaration.
type Table struct {
	entries map[string]Type
}

// NewTable constructs a type table seeded with the builtin u8 and u16 types.
func NewTable() *Table {
	return &Table{entries: map[string]Type{
		"u8":  Primitive{Signed: false, Width: 1},
		"u16": Primitive{Signed: false, Width: 2},
	}}
}

// Define registers a named type (a typedef or struct declaration). It
// returns false without modifying the table if the name is already bound.
func (t *Table) Define(name string, typ Type) bool {
	if _, exists := t.entries[name]; exists {
		return false
	}

	t.entries[name] = typ

	return true
}

// Lookup resolves a bare type name, or a type name followed by any number of
// trailing "*" pointer markers (e.g. "Entity**").
func (t *Table) Lookup(name string) (Type, bool) {
	base := strings.TrimRight(name, "*")
	stars := len(name) - len(base)

	typ, ok := t.entries[base]
	if !ok {
		return nil, false
	}

	for i := 0; i < stars; i++ {
		typ = Pointer{Target: typ}
	}

	return typ, true
}

// LookupPrimitive resolves a name to a Primitive, failing if the name
// resolves to a Pointer or Struct instead.
func (t *Table) LookupPrimitive(name string) (Primitive, bool) {
	typ, ok := t.Lookup(name)
	if !ok {
		return Primitive{}, false
	}

	prim, ok := typ.(Primitive)

	return prim, ok
}
