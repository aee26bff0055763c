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

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/types"
)

// value is the result of compiling an Rpn node that produces a value: its
// pool offset and the type that lives there. A void Call has no value.
type value struct {
	offset uint8
	typ    types.Type
}

// compileExpr lowers e, emitting zero or more `db` lines, and returns the
// value it produces. ok is false only for a void Call.
func (f *function) compileExpr(e ast.Rpn) (value, bool, error) {
	switch n := e.(type) {
	case ast.Variable:
		return f.compileVariable(n)
	case ast.Address:
		return f.compileAddress(n)
	case ast.Signed:
		return f.compileSigned(n)
	case ast.String:
		return f.compileString(n)
	case ast.Call:
		return f.compileCall(n)
	case ast.Negate:
		return f.compileNegate(n)
	case ast.Not:
		return f.compileNot(n)
	case ast.Deref:
		return f.compileDeref(n)
	case ast.BinaryOp:
		return f.compileBinaryOp(n)
	case ast.Set:
		return f.compileSet(n)
	default:
		return value{}, false, fmt.Errorf("expression contains an unsupported node %T", e)
	}
}

func (f *function) compileVariable(n ast.Variable) (value, bool, error) {
	if offset, typ, ok := f.pool.Lookup(n.Name); ok {
		return value{offset, typ}, true, nil
	}

	// Not a local: treat it as an externally-defined assembler symbol and
	// materialize it into a fresh default-integer temporary.
	t := types.DefaultInteger()

	offset, err := f.pool.Alloc(t)
	if err != nil {
		return value{}, false, err
	}

	f.emit("put_"+t.String(), byteOperand(offset), n.Name)

	return value{offset, t}, true, nil
}

func (f *function) compileAddress(n ast.Address) (value, bool, error) {
	if _, _, ok := f.pool.Lookup(n.Name); ok {
		return value{}, false, fmt.Errorf("cannot take the address of local variable %q: pool offsets are meaningless to the host", n.Name)
	}

	ptr := types.Pointer{Target: types.DefaultInteger()}

	offset, err := f.pool.Alloc(ptr)
	if err != nil {
		return value{}, false, err
	}

	f.emit("put_u8", byteOperand(offset), n.Name+" & $FF")
	f.emit("put_u8", byteOperand(offset+1), n.Name+" >> 8")

	return value{offset, ptr}, true, nil
}

func (f *function) compileSigned(n ast.Signed) (value, bool, error) {
	t := types.DefaultInteger()

	offset, err := f.pool.Alloc(t)
	if err != nil {
		return value{}, false, err
	}

	f.emit("put_"+t.String(), byteOperand(offset), fmt.Sprintf("%d", n.Value))

	return value{offset, t}, true, nil
}

func (f *function) compileString(n ast.String) (value, bool, error) {
	ptr := types.Pointer{Target: types.DefaultInteger()}

	offset, err := f.pool.Alloc(ptr)
	if err != nil {
		return value{}, false, err
	}

	idx := f.internString(n.Value)

	f.emit("put_u8", byteOperand(offset), fmt.Sprintf("LOW(.__string%d)", idx))
	f.emit("put_u8", byteOperand(offset+1), fmt.Sprintf("HIGH(.__string%d)", idx))

	return value{offset, ptr}, true, nil
}

func (f *function) compileNegate(n ast.Negate) (value, bool, error) {
	operand, ok, err := f.compileExpr(n.Operand)
	if err != nil {
		return value{}, false, err
	}

	if !ok {
		return value{}, false, fmt.Errorf("negate requires a value-producing expression")
	}

	t, ok := asPrimitive(operand.typ)
	if !ok {
		return value{}, false, fmt.Errorf("cannot negate a value of type %s", operand.typ)
	}

	zero, err := f.pool.Alloc(t)
	if err != nil {
		return value{}, false, err
	}

	result, err := f.pool.Alloc(t)
	if err != nil {
		return value{}, false, err
	}

	f.emit("put_"+t.String(), byteOperand(zero), "0")
	f.emit("sub_"+t.String(), byteOperand(zero), byteOperand(operand.offset), byteOperand(result))

	if err := f.pool.Free(zero); err != nil {
		return value{}, false, err
	}

	f.pool.Autofree(operand.offset)

	return value{result, t}, true, nil
}

func (f *function) compileNot(n ast.Not) (value, bool, error) {
	operand, ok, err := f.compileExpr(n.Operand)
	if err != nil {
		return value{}, false, err
	}

	if !ok {
		return value{}, false, fmt.Errorf("not requires a value-producing expression")
	}

	t, ok := asPrimitive(operand.typ)
	if !ok {
		return value{}, false, fmt.Errorf("cannot complement a value of type %s", operand.typ)
	}

	mask, err := f.pool.Alloc(t)
	if err != nil {
		return value{}, false, err
	}

	result, err := f.pool.Alloc(t)
	if err != nil {
		return value{}, false, err
	}

	f.emit("put_"+t.String(), byteOperand(mask), "$FF")
	f.emit("xor_"+t.String(), byteOperand(operand.offset), byteOperand(mask), byteOperand(result))

	if err := f.pool.Free(mask); err != nil {
		return value{}, false, err
	}

	f.pool.Autofree(operand.offset)

	return value{result, t}, true, nil
}

func (f *function) compileDeref(n ast.Deref) (value, bool, error) {
	operand, ok, err := f.compileExpr(n.Operand)
	if err != nil {
		return value{}, false, err
	}

	if !ok {
		return value{}, false, fmt.Errorf("deref requires a value-producing expression")
	}

	ptr, isPointer := operand.typ.(types.Pointer)
	if !isPointer {
		return value{}, false, fmt.Errorf(
			"cannot dereference a value of type %s: it is not a pointer (note: address-of returns %s, not %s ptr)",
			operand.typ, types.PointerSize(), operand.typ)
	}

	pointee, ok := asPrimitive(ptr.Target)
	if !ok {
		return value{}, false, fmt.Errorf("cannot dereference a pointer to aggregate type %s", ptr.Target)
	}

	dest, err := f.pool.Alloc(pointee)
	if err != nil {
		return value{}, false, err
	}

	f.emit("deref_"+pointee.String(), byteOperand(dest), byteOperand(operand.offset))

	f.pool.Autofree(operand.offset)

	return value{dest, pointee}, true, nil
}

func (f *function) compileBinaryOp(n ast.BinaryOp) (value, bool, error) {
	left, ok, err := f.compileExpr(n.Left)
	if err != nil {
		return value{}, false, err
	}

	if !ok {
		return value{}, false, fmt.Errorf("left operand of %s does not produce a value", n.Operator.Mnemonic())
	}

	right, ok, err := f.compileExpr(n.Right)
	if err != nil {
		return value{}, false, err
	}

	if !ok {
		return value{}, false, fmt.Errorf("right operand of %s does not produce a value", n.Operator.Mnemonic())
	}

	lp, ok := asPrimitive(left.typ)
	if !ok {
		return value{}, false, fmt.Errorf("left operand of %s has non-scalar type %s", n.Operator.Mnemonic(), left.typ)
	}

	rp, ok := asPrimitive(right.typ)
	if !ok {
		return value{}, false, fmt.Errorf("right operand of %s has non-scalar type %s", n.Operator.Mnemonic(), right.typ)
	}

	result := types.Promote(lp, rp)

	dest, err := f.pool.Alloc(result)
	if err != nil {
		return value{}, false, err
	}

	f.emit(n.Operator.Mnemonic()+"_"+result.String(), byteOperand(left.offset), byteOperand(right.offset), byteOperand(dest))

	f.pool.Autofree(left.offset)
	f.pool.Autofree(right.offset)

	return value{dest, result}, true, nil
}

func (f *function) compileSet(n ast.Set) (value, bool, error) {
	dest, destType, ok := f.pool.Lookup(n.Name)
	if !ok {
		return value{}, false, fmt.Errorf("cannot assign to undeclared variable %q", n.Name)
	}

	src, ok, err := f.compileExpr(n.Value)
	if err != nil {
		return value{}, false, err
	}

	if !ok {
		return value{}, false, fmt.Errorf("right-hand side of assignment to %q does not produce a value", n.Name)
	}

	destPrim, ok := asPrimitive(destType)
	if !ok {
		return value{}, false, fmt.Errorf("cannot assign to %q: aggregate type %s has no mov opcode", n.Name, destType)
	}

	f.emit("mov_"+destPrim.String(), byteOperand(dest), byteOperand(src.offset))

	f.pool.Autofree(src.offset)

	return value{dest, destType}, true, nil
}
