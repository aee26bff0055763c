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

// Package codegen lowers a function body (pkg/ast.Statement/Rpn trees) into
// rgbasm text: the expression lowerer and the statement / control-flow
// lowerer, sharing one pool.Table, one interned string list, and one
// local-label counter per function compilation.
package codegen

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/evie-calico/evscript/pkg/env"
	"github.com/evie-calico/evscript/pkg/pool"
	"github.com/evie-calico/evscript/pkg/source"
	"github.com/evie-calico/evscript/pkg/types"
)

// function holds everything threaded through statement and expression
// lowering for the compilation of a single function body.
type function struct {
	file    *source.File
	env     *env.Environment
	types   *types.Table
	pool    *pool.Table
	strings []string
	labels  int
	log     *logrus.Logger
	out     io.Writer
}

// newLabel returns the next fresh local-label id, used to build this
// function's `.__{kind}{id}` labels.
func (f *function) newLabel() int {
	id := f.labels
	f.labels++

	return id
}

// internString appends s to this function's string table and returns its
// index, used to build the `.__string{idx}` label emitted at the function's
// epilogue. Each occurrence is appended separately; strings are never
// deduplicated.
func (f *function) internString(s string) int {
	idx := len(f.strings)
	f.strings = append(f.strings, s)

	return idx
}

// emit writes one `db` instruction line built from opcode and operands,
// joined with ", ".
func (f *function) emit(opcode string, operands ...string) {
	if len(operands) == 0 {
		fmt.Fprintf(f.out, "\tdb %s\n", opcode)

		return
	}

	fmt.Fprintf(f.out, "\tdb %s, %s\n", opcode, strings.Join(operands, ", "))
}

// emitLabel writes a bare local label line, e.g. ".__else3:".
func (f *function) emitLabel(kind string, id int) {
	fmt.Fprintf(f.out, ".__%s%d:\n", kind, id)
}

// emitJump writes an unconditional `jmp` to the named local label.
func (f *function) emitJump(kind string, id int) {
	fmt.Fprintf(f.out, "\tdb jmp, LOW(.__%s%d), HIGH(.__%s%d)\n", kind, id, kind, id)
}

// emitJumpIf writes a conditional jump (jmp_if_true / jmp_if_false) gated on
// the value at cond, to the named local label.
func (f *function) emitJumpIf(mnemonic string, cond uint8, kind string, id int) {
	fmt.Fprintf(f.out, "\tdb %s, %d, LOW(.__%s%d), HIGH(.__%s%d)\n", mnemonic, cond, kind, id, kind, id)
}

// byteOperand formats a pool offset as the decimal operand text used in
// every emitted instruction.
func byteOperand(offset uint8) string {
	return fmt.Sprintf("%d", offset)
}

// asPrimitive reduces t to the Primitive used to name an opcode suffix:
// Primitive unchanged, Pointer to its default 2-byte u16 representation.
// Structs have no scalar opcode suffix.
func asPrimitive(t types.Type) (types.Primitive, bool) {
	switch v := t.(type) {
	case types.Primitive:
		return v, true
	case types.Pointer:
		return types.PointerSize(), true
	default:
		return types.Primitive{}, false
	}
}
