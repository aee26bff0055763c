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

package ast

import "fmt"

// Rpn is an expression tree node, named for the reverse-polish shape the
// parser builds it in. It is a closed tagged union: every concrete node type
// below implements it, and every consumer is expected to exhaustively switch
// over the full set.
type Rpn interface {
	isRpn()
}

// Variable references a name: either a local pool variable, or (if no such
// variable exists) an externally-defined assembler symbol.
type Variable struct {
	Name string
}

func (Variable) isRpn() {}

// Address takes the address of an external assembler symbol. It is an error
// to take the address of a local variable (pool offsets are meaningless to
// the host).
type Address struct {
	Name string
}

func (Address) isRpn() {}

// Signed is an integer literal.
type Signed struct {
	Value int64
}

func (Signed) isRpn() {}

// String is a string literal; each occurrence is interned separately (no
// deduplication across a function body).
type String struct {
	Value string
}

func (String) isRpn() {}

// Call invokes a Definition (a Def, Alias, or Macro) by name with a list of
// argument expressions.
type Call struct {
	Name string
	Args []Rpn
}

func (Call) isRpn() {}

// Negate computes a two's-complement negation of its operand.
type Negate struct {
	Operand Rpn
}

func (Negate) isRpn() {}

// Not computes a bitwise complement of its operand.
type Not struct {
	Operand Rpn
}

func (Not) isRpn() {}

// Deref dereferences a pointer-typed operand.
type Deref struct {
	Operand Rpn
}

func (Deref) isRpn() {}

// BinaryOperator enumerates every binary Rpn operator. A single BinaryOp
// node carries the operator as a field rather than allocating one node type
// per operator.
type BinaryOperator int

const (
	Mul BinaryOperator = iota
	Div
	Mod
	Add
	Sub
	ShiftLeft
	ShiftRight
	BinaryAnd
	BinaryXor
	BinaryOr
	Equ
	NotEqu
	LessThan
	GreaterThan
	LessThanEqu
	GreaterThanEqu
	LogicalAnd
	LogicalOr
)

// Mnemonic returns the opcode-name fragment for this operator, e.g. "add" for
// Add, used to build names like "add_u8".
func (op BinaryOperator) Mnemonic() string {
	switch op {
	case Mul:
		return "mul"
	case Div:
		return "div"
	case Mod:
		return "mod"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case ShiftLeft:
		return "shl"
	case ShiftRight:
		return "shr"
	case BinaryAnd:
		return "and"
	case BinaryXor:
		return "xor"
	case BinaryOr:
		return "or"
	case Equ:
		return "equ"
	case NotEqu:
		return "neq"
	case LessThan:
		return "lt"
	case GreaterThan:
		return "gt"
	case LessThanEqu:
		return "lte"
	case GreaterThanEqu:
		return "gte"
	case LogicalAnd:
		return "land"
	case LogicalOr:
		return "lor"
	default:
		return fmt.Sprintf("op%d", int(op))
	}
}

// BinaryOp applies a BinaryOperator to a left and right operand.
type BinaryOp struct {
	Operator BinaryOperator
	Left     Rpn
	Right    Rpn
}

func (BinaryOp) isRpn() {}

// Set assigns Value to the existing variable named Name. Set cannot declare
// a new variable; its target must already exist in the pool.
type Set struct {
	Name  string
	Value Rpn
}

func (Set) isRpn() {}
