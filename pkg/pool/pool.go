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

// Package pool implements the 256-slot variable allocator: one instance per
// function compilation, tracking live variables, peak usage, and scope
// nesting.
package pool

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/evie-calico/evscript/pkg/types"
)

const size = 256

// entry describes one live variable occupying the pool, recorded only at
// its base offset. Name is nil for temporaries (eligible for Autofree).
type entry struct {
	name       *string
	typ        types.Type
	scopeLevel uint32
}

// Table is the fixed 256-byte variable pool belonging to one function
// compilation. The zero value is not usable; construct with NewTable.
type Table struct {
	slots      [size]*entry
	scopeLevel uint32
	peakUsage  uint16
}

// NewTable constructs an empty pool at scope level 0.
func NewTable() *Table {
	return &Table{}
}

// PeakUsage returns the highest byte offset ever occupied, plus one: the
// high-water mark compared against an environment's declared pool size.
func (t *Table) PeakUsage() uint16 {
	return t.peakUsage
}

// Alloc scans the pool from offset 0, jumping past each occupied slot by its
// occupant's size, and places a new unnamed variable of type typ in the
// first free run of typ.Size() bytes. It fails if the scan reaches the end
// of the pool without finding space.
func (t *Table) Alloc(typ types.Type) (uint8, error) {
	requested := typ.Size()

	i := 0
	for i < size {
		if occ := t.slots[i]; occ != nil {
			i += int(occ.typ.Size())
			continue
		}

		if i+int(requested) > size {
			break
		}

		run := 1
		for run < int(requested) && t.slots[i+run] == nil {
			run++
		}

		if run < int(requested) {
			i += run
			continue
		}

		t.slots[i] = &entry{typ: typ, scopeLevel: t.scopeLevel}

		if peak := uint16(i) + uint16(requested); peak > t.peakUsage {
			t.peakUsage = peak
		}

		return uint8(i), nil
	}

	return 0, fmt.Errorf("variable pool is full (%d bytes requested)", requested)
}

// Name assigns a name to the variable allocated at offset, making it
// ineligible for Autofree.
func (t *Table) Name(offset uint8, name string) {
	if occ := t.slots[offset]; occ != nil {
		occ.name = &name
	}
}

// Free clears the slot at offset unconditionally. The caller is responsible
// for only freeing named variables it knows are no longer live; Autofree is
// the safe alternative for temporaries.
func (t *Table) Free(offset uint8) error {
	if t.slots[offset] == nil {
		return fmt.Errorf("pool offset %d is not occupied", offset)
	}

	t.slots[offset] = nil

	return nil
}

// Autofree clears the slot at offset only if its variable is unnamed. It is
// always safe to call, including on a slot that isn't occupied or whose
// variable is named.
func (t *Table) Autofree(offset uint8) {
	if occ := t.slots[offset]; occ != nil && occ.name == nil {
		t.slots[offset] = nil
	}
}

// Lookup resolves a variable name, which may be a dotted struct-member path
// such as "a.b.c", to its byte offset and type.
func (t *Table) Lookup(name string) (offset uint8, typ types.Type, ok bool) {
	head, rest, dotted := strings.Cut(name, ".")

	for i := 0; i < size; i++ {
		occ := t.slots[i]
		if occ == nil || occ.name == nil || *occ.name != head {
			continue
		}

		if !dotted {
			return uint8(i), occ.typ, true
		}

		st, isStruct := occ.typ.(types.Struct)
		if !isStruct {
			return 0, nil, false
		}

		memberOffset, memberType, found := st.Field(rest)
		if !found {
			return 0, nil, false
		}

		return uint8(i) + memberOffset, memberType, true
	}

	return 0, nil, false
}

// NameOf returns the name of the variable based at offset, or "" if it is
// unnamed or unoccupied.
func (t *Table) NameOf(offset uint8) string {
	if occ := t.slots[offset]; occ != nil && occ.name != nil {
		return *occ.name
	}

	return ""
}

// TypeOf resolves the type of whatever value lives at offset, including
// offsets that fall in the interior of a struct-typed variable: it scans
// backwards to find the struct's base and descends into its fields to find
// the one occupying offset.
func (t *Table) TypeOf(offset uint8) (types.Type, bool) {
	if occ := t.slots[offset]; occ != nil {
		if _, isPointer := occ.typ.(types.Pointer); isPointer {
			return types.PointerSize(), true
		}

		return occ.typ, true
	}

	for base := int(offset) - 1; base >= 0; base-- {
		occ := t.slots[base]
		if occ == nil {
			continue
		}

		st, isStruct := occ.typ.(types.Struct)
		if !isStruct {
			return nil, false
		}

		if offset >= uint8(base)+st.Size() {
			return nil, false
		}

		_, fieldType, found := st.FieldAtByteOffset(offset - uint8(base))

		return fieldType, found
	}

	return nil, false
}

// PushScope opens a new nested scope. Every variable allocated before the
// matching PopScope is swept away when it returns.
func (t *Table) PushScope() {
	t.scopeLevel++
}

// PopScope closes the innermost open scope, clearing every variable
// allocated since the matching PushScope. Callers must guarantee PopScope
// runs on every exit path (including early returns) of whatever lowering
// called PushScope.
func (t *Table) PopScope() {
	t.scopeLevel--

	for i := range t.slots {
		if occ := t.slots[i]; occ != nil && occ.scopeLevel > t.scopeLevel {
			t.slots[i] = nil
		}
	}
}

// Occupancy renders a diagnostic snapshot of which bytes are currently live,
// for the --report-usage-json output. It is purely informational: Alloc's
// own scan never consults it.
func (t *Table) Occupancy() *bitset.BitSet {
	occ := bitset.New(size)

	for i, slot := range t.slots {
		if slot == nil {
			continue
		}

		for b := 0; b < int(slot.typ.Size()); b++ {
			occ.Set(uint(i + b))
		}
	}

	return occ
}
