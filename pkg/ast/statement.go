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

import "github.com/evie-calico/evscript/pkg/source"

// Statement pairs a StatementType with the source span it was parsed from.
// Every error that originates while lowering a Statement is attached to this
// span; Rpn nodes carry no span of their own and inherit their enclosing
// Statement's.
type Statement struct {
	Type StatementType
	Span source.Span
}

// StatementType is the tagged union of everything a Statement may contain.
type StatementType interface {
	isStatementType()
}

// Use copies every definition from another environment into the one being
// built.
type Use struct {
	Name string
}

func (Use) isStatementType() {}

// DefinitionStatement registers a new Definition under Name in the
// environment being built.
type DefinitionStatement struct {
	Name       string
	Definition Definition
}

func (DefinitionStatement) isStatementType() {}

// Pool sets the enclosing environment's pool size to the value Expr reduces
// to via EvalConst.
type Pool struct {
	Expr Rpn
}

func (Pool) isStatementType() {}

// Asm passes an inline-assembly block (the text between #asm and #end)
// through to the output verbatim.
type Asm struct {
	Text string
}

func (Asm) isStatementType() {}

// Expression evaluates Expr purely for its side effects, discarding any
// result slot.
type Expression struct {
	Expr Rpn
}

func (Expression) isStatementType() {}

// Declaration allocates a new named variable of the named type.
type Declaration struct {
	TypeName string
	Name     string
}

func (Declaration) isStatementType() {}

// PointerDeclaration allocates a new named pointer-to-TypeName variable.
type PointerDeclaration struct {
	TypeName string
	Name     string
}

func (PointerDeclaration) isStatementType() {}

// DeclareAssign allocates Name as TypeName and initializes it from Expr.
type DeclareAssign struct {
	TypeName string
	Name     string
	Expr     Rpn
}

func (DeclareAssign) isStatementType() {}

// PointerDeclareAssign allocates Name as a pointer to TypeName and
// initializes it from Expr.
type PointerDeclareAssign struct {
	TypeName string
	Name     string
	Expr     Rpn
}

func (PointerDeclareAssign) isStatementType() {}

// If compiles Then when Cond is true, and Else (which may be nil) otherwise.
type If struct {
	Cond Rpn
	Then []Statement
	Else []Statement
}

func (If) isStatementType() {}

// While checks Cond before each iteration of Body. The emitted code places
// the check at the bottom of the loop, but it is logically a pre-condition
// loop.
type While struct {
	Cond Rpn
	Body []Statement
}

func (While) isStatementType() {}

// Do runs Body once, then checks Cond before each subsequent iteration.
type Do struct {
	Cond Rpn
	Body []Statement
}

func (Do) isStatementType() {}

// For runs Prologue once, then repeats Body/Epilogue while Cond holds.
// Prologue and Epilogue are themselves Statements (typically a Declaration
// or an Expression), matching the original grammar's `for` shape.
type For struct {
	Prologue *Statement
	Cond     Rpn
	Epilogue *Statement
	Body     []Statement
}

func (For) isStatementType() {}

// Repeat runs Body exactly Count times.
type Repeat struct {
	Count Rpn
	Body  []Statement
}

func (Repeat) isStatementType() {}

// Loop runs Body forever (until a Return or Fail elsewhere breaks control
// flow at the host level; evscript itself has no break/continue).
type Loop struct {
	Body []Statement
}

func (Loop) isStatementType() {}
