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

// Definition is a named handle for an operation within an Environment: a
// direct opcode (Def), a rewrite to another call with reshuffled arguments
// (Alias), or a textual passthrough to the assembler (Macro).
type Definition interface {
	isDefinition()
}

// Def is a direct opcode definition: Bytecode is the one-byte opcode index
// assigned when the definition is registered (at definition time, or
// rewritten by Use when copied into another environment).
type Def struct {
	Bytecode uint8
	Args     []Param
}

func (Def) isDefinition() {}

// Alias rewrites a call into a call to Target, substituting TargetArgs for
// the caller's own argument list.
type Alias struct {
	Args       []Param
	Target     string
	TargetArgs []AliasParam
}

func (Alias) isDefinition() {}

// Macro passes a call straight through to the assembler as a macro
// invocation, with no opcode of its own.
type Macro struct {
	Args   []Param
	Target string
}

func (Macro) isDefinition() {}

// Param is one formal parameter of a Definition.
type Param interface {
	isParam()
}

// TypeParam is a positional parameter whose argument is compiled as an
// ordinary expression and whose type is checked (with a warning, not an
// error, on mismatch) against TypeName.
type TypeParam struct {
	TypeName string
}

func (TypeParam) isParam() {}

// ConstParam is a positional parameter whose argument must be a compile-time
// literal, emitted as TypeName's byte width of little-endian literal bytes
// rather than compiled to a pool slot.
type ConstParam struct {
	TypeName string
}

func (ConstParam) isParam() {}

// ReturnParam is the (at most one) parameter that receives the call's result
// slot; TypeName names its type.
type ReturnParam struct {
	TypeName string
}

func (ReturnParam) isParam() {}

// AliasParam is one entry of an Alias's TargetArgs list, describing how to
// produce one argument of the rewritten call.
type AliasParam interface {
	isAliasParam()
}

// ArgId forwards the caller's Index'th argument (1-based) verbatim.
type ArgId struct {
	Index int
}

func (ArgId) isAliasParam() {}

// AliasExpression compiles Value as an ordinary expression and forwards the
// resulting slot.
type AliasExpression struct {
	Value Rpn
}

func (AliasExpression) isAliasParam() {}

// AliasConst forwards Value to the aliased target as a literal operand: an
// integer literal (must lie in -128 through 255), a string literal (forwarded
// as its interned symbol's low/high byte pair), or a bare variable name.
// Unlike a Def or Macro's own ConstParam, an alias target arg has no
// declared type to decompose the literal against.
type AliasConst struct {
	Value Rpn
}

func (AliasConst) isAliasParam() {}
