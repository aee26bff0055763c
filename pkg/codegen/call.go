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

package codegen

import (
	"fmt"
	"strings"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/types"
)

// compileCall resolves n.Name to a Definition in the active environment and
// dispatches on its variant.
func (f *function) compileCall(n ast.Call) (value, bool, error) {
	def, ok := f.env.Lookup(n.Name)
	if !ok {
		return value{}, false, fmt.Errorf("%q: not found", n.Name)
	}

	switch d := def.(type) {
	case ast.Def:
		symbol, err := f.env.Expand(n.Name)
		if err != nil {
			return value{}, false, err
		}

		return f.compileOpcodeCall(n, d.Args, symbol)
	case ast.Alias:
		return f.compileAliasCall(n, d)
	case ast.Macro:
		return f.compileMacroCall(n, d)
	default:
		return value{}, false, fmt.Errorf("%q: unrecognized definition kind %T", n.Name, def)
	}
}

// argBinding is one positional, non-Return parameter's resolved operand: a
// pool offset (for a TypeParam) or a sequence of literal byte expressions
// (for a ConstParam), in the order they must be autofreed and emitted.
type argBinding struct {
	offset   uint8
	isOffset bool
	literal  []string
}

// bindArgs walks params positionally against call.Args, compiling TypeParam
// arguments and decomposing ConstParam literals, and returns one argBinding
// per non-Return parameter plus the allocated Return slot (if any). It does
// not emit the call's own instruction line; callers build that from the
// bindings plus the resolved target symbol.
func (f *function) bindArgs(call ast.Call, params []ast.Param) ([]argBinding, *value, error) {
	var returnCount int

	for _, p := range params {
		if _, ok := p.(ast.ReturnParam); ok {
			returnCount++
		}
	}

	if returnCount > 1 {
		return nil, nil, fmt.Errorf("%q declares more than one Return parameter", call.Name)
	}

	nonReturn := 0
	for _, p := range params {
		if _, ok := p.(ast.ReturnParam); !ok {
			nonReturn++
		}
	}

	if len(call.Args) > nonReturn {
		return nil, nil, fmt.Errorf("too many arguments to %q: expected %d, got %d", call.Name, nonReturn, len(call.Args))
	} else if len(call.Args) < nonReturn {
		return nil, nil, fmt.Errorf("too few arguments to %q: expected %d, got %d", call.Name, nonReturn, len(call.Args))
	}

	var (
		bindings []argBinding
		ret      *value
		argIdx   int
	)

	for _, p := range params {
		switch param := p.(type) {
		case ast.TypeParam:
			arg := call.Args[argIdx]
			argIdx++

			v, ok, err := f.compileExpr(arg)
			if err != nil {
				return nil, nil, err
			}

			if !ok {
				return nil, nil, fmt.Errorf("argument %d of %q does not produce a value", argIdx, call.Name)
			}

			f.checkArgType(call.Name, argIdx, param.TypeName, v.typ)

			bindings = append(bindings, argBinding{offset: v.offset, isOffset: true})
		case ast.ConstParam:
			arg := call.Args[argIdx]
			argIdx++

			literal, err := f.constLiteral(param.TypeName, arg)
			if err != nil {
				return nil, nil, err
			}

			bindings = append(bindings, argBinding{literal: literal})
		case ast.ReturnParam:
			t, err := f.lookupType(param.TypeName)
			if err != nil {
				return nil, nil, err
			}

			offset, err := f.pool.Alloc(t)
			if err != nil {
				return nil, nil, err
			}

			ret = &value{offset, t}
		}
	}

	return bindings, ret, nil
}

// checkArgType warns (never fails) when a compiled argument's primitive type
// does not match the declared parameter type.
func (f *function) checkArgType(callName string, argNum int, declaredName string, got types.Type) {
	declared, err := f.lookupType(declaredName)
	if err != nil {
		return
	}

	dp, dok := asPrimitive(declared)
	gp, gok := asPrimitive(got)

	if dok && gok && dp != gp {
		f.log.Warnf("argument %d type does not match definition %q: declared %s, got %s", argNum, callName, declared, got)
	}
}

func (f *function) lookupType(name string) (types.Type, error) {
	t, ok := f.types.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}

	return t, nil
}

// constLiteral resolves arg as a compile-time literal (Signed, String, or a
// bare Variable identifier forwarded verbatim) and decomposes it into
// paramType's byte width of little-endian rgbasm expressions.
func (f *function) constLiteral(paramTypeName string, arg ast.Rpn) ([]string, error) {
	paramType, err := f.lookupType(paramTypeName)
	if err != nil {
		return nil, err
	}

	prim, ok := asPrimitive(paramType)
	if !ok {
		return nil, fmt.Errorf("const parameter of type %s has no literal representation", paramType)
	}

	var expr string

	switch v := arg.(type) {
	case ast.Signed:
		expr = fmt.Sprintf("%d", v.Value)
	case ast.Variable:
		expr = v.Name
	case ast.String:
		if prim.Width != 2 {
			return nil, fmt.Errorf("string constant is 2 bytes wide but const parameter declares %d", prim.Width)
		}

		idx := f.internString(v.Value)
		expr = fmt.Sprintf(".__string%d", idx)
	default:
		return nil, fmt.Errorf("expression used where a constant is required")
	}

	return emitConstBytes(expr, int(prim.Width)), nil
}

// emitConstBytes decomposes expr into n little-endian byte expressions using
// rgbasm's `& $FF` / `>> k` syntax, one branch per supported width.
func emitConstBytes(expr string, n int) []string {
	switch n {
	case 1:
		return []string{fmt.Sprintf("(%s) & $FF", expr)}
	case 2:
		return []string{
			fmt.Sprintf("(%s) & $FF", expr),
			fmt.Sprintf("((%s) >> 8) & $FF", expr),
		}
	case 3:
		return []string{
			fmt.Sprintf("(%s) & $FF", expr),
			fmt.Sprintf("((%s) >> 8) & $FF", expr),
			fmt.Sprintf("((%s) >> 16) & $FF", expr),
		}
	default:
		return []string{
			fmt.Sprintf("(%s) & $FF", expr),
			fmt.Sprintf("((%s) >> 8) & $FF", expr),
			fmt.Sprintf("((%s) >> 16) & $FF", expr),
			fmt.Sprintf("((%s) >> 24) & $FF", expr),
		}
	}
}

// aliasConstOperands resolves an Alias target arg's `const` expression to
// the operand(s) it forwards verbatim to the target symbol. Unlike
// constLiteral (used for a Def/Macro's own ConstParam, where the declared
// parameter type's width is known and the literal is decomposed into that
// many little-endian bytes), an alias target arg carries no type of its
// own: only Signed, String, and bare Variable forwarding are supported, each
// producing exactly the operand shape the target opcode expects a single
// byte argument to look like.
func (f *function) aliasConstOperands(arg ast.Rpn) ([]string, error) {
	switch v := arg.(type) {
	case ast.Signed:
		if v.Value >= 256 || v.Value < -128 {
			return nil, fmt.Errorf("integer constants can only be 8 bits")
		}

		return []string{fmt.Sprintf("%d", v.Value)}, nil
	case ast.String:
		idx := f.internString(v.Value)

		return []string{
			fmt.Sprintf("LOW(.__string%d)", idx),
			fmt.Sprintf("HIGH(.__string%d)", idx),
		}, nil
	case ast.Variable:
		return []string{v.Name}, nil
	default:
		return nil, fmt.Errorf("alias const argument must be a literal integer, string, or variable")
	}
}

// operandStrings flattens bindings into the final operand list for a `db`
// line: each TypeParam contributes its pool offset, each ConstParam its
// literal bytes, in declared-parameter order.
func operandStrings(bindings []argBinding) []string {
	var out []string

	for _, b := range bindings {
		if b.isOffset {
			out = append(out, byteOperand(b.offset))
		} else {
			out = append(out, b.literal...)
		}
	}

	return out
}

func (f *function) autofreeBindings(bindings []argBinding) {
	for _, b := range bindings {
		if b.isOffset {
			f.pool.Autofree(b.offset)
		}
	}
}

// compileOpcodeCall emits a Def call: `db {symbol}, {args...}, {return}`.
func (f *function) compileOpcodeCall(n ast.Call, params []ast.Param, symbol string) (value, bool, error) {
	bindings, ret, err := f.bindArgs(n, params)
	if err != nil {
		return value{}, false, err
	}

	operands := operandStrings(bindings)
	if ret != nil {
		operands = append(operands, byteOperand(ret.offset))
	}

	f.emit(symbol, operands...)
	f.autofreeBindings(bindings)

	if ret != nil {
		return *ret, true, nil
	}

	return value{}, false, nil
}

// compileMacroCall emits a macro invocation: the macro's target name
// followed by a space-separated, comma-terminated operand list, passed
// through verbatim to the assembler's own macro syntax rather than a `db`
// line.
func (f *function) compileMacroCall(n ast.Call, d ast.Macro) (value, bool, error) {
	bindings, ret, err := f.bindArgs(n, d.Args)
	if err != nil {
		return value{}, false, err
	}

	operands := operandStrings(bindings)
	if ret != nil {
		operands = append(operands, byteOperand(ret.offset))
	}

	if len(operands) > 0 {
		fmt.Fprintf(f.out, "\t%s %s,\n", d.Target, strings.Join(operands, ", "))
	} else {
		fmt.Fprintf(f.out, "\t%s\n", d.Target)
	}

	f.autofreeBindings(bindings)

	if ret != nil {
		return *ret, true, nil
	}

	return value{}, false, nil
}

// compileAliasCall binds the caller's own arguments against d.Args (so
// AliasParam.ArgId can forward one of them by position), then rewrites the
// call by walking d.TargetArgs to build the operand list actually emitted
// against d.Target.
func (f *function) compileAliasCall(n ast.Call, d ast.Alias) (value, bool, error) {
	bindings, ret, err := f.bindArgs(n, d.Args)
	if err != nil {
		return value{}, false, err
	}

	symbol, err := f.env.Expand(d.Target)
	if err != nil {
		return value{}, false, err
	}

	var (
		operands   []string
		toAutofree []uint8
	)

	for _, ta := range d.TargetArgs {
		switch t := ta.(type) {
		case ast.ArgId:
			if t.Index < 1 || t.Index > len(bindings) {
				return value{}, false, fmt.Errorf("alias %q: arg id %d out of range (%d arguments)", n.Name, t.Index, len(bindings))
			}

			b := bindings[t.Index-1]
			if !b.isOffset {
				return value{}, false, fmt.Errorf("alias %q: arg id %d refers to a const parameter, which has no offset", n.Name, t.Index)
			}

			operands = append(operands, byteOperand(b.offset))
		case ast.AliasExpression:
			v, ok, err := f.compileExpr(t.Value)
			if err != nil {
				return value{}, false, err
			}

			if !ok {
				return value{}, false, fmt.Errorf("alias %q: target expression does not produce a value", n.Name)
			}

			operands = append(operands, byteOperand(v.offset))
			toAutofree = append(toAutofree, v.offset)
		case ast.AliasConst:
			lits, err := f.aliasConstOperands(t.Value)
			if err != nil {
				return value{}, false, err
			}

			operands = append(operands, lits...)
		default:
			return value{}, false, fmt.Errorf("alias %q: unrecognized target arg kind %T", n.Name, ta)
		}
	}

	if ret != nil {
		operands = append(operands, byteOperand(ret.offset))
	}

	f.emit(symbol, operands...)
	f.autofreeBindings(bindings)

	for _, o := range toAutofree {
		f.pool.Autofree(o)
	}

	if ret != nil {
		return *ret, true, nil
	}

	return value{}, false, nil
}
