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
	"errors"
	"fmt"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/source"
	"github.com/evie-calico/evscript/pkg/types"
)

// compileBlock lowers a sequence of statements in order, wrapping any error
// in the originating Statement's source span.
func (f *function) compileBlock(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := f.compileStatement(stmt); err != nil {
			return f.located(stmt.Span, err)
		}
	}

	return nil
}

// located attaches span to err unless it already carries one (the innermost
// statement's span wins; Rpn errors inherit their enclosing Statement's).
func (f *function) located(span source.Span, err error) error {
	var ce *source.CompileError
	if errors.As(err, &ce) {
		return ce.WithSpan(f.file, span)
	}

	return f.file.Error(span, err.Error())
}

func (f *function) compileStatement(stmt ast.Statement) error {
	switch st := stmt.Type.(type) {
	case ast.Asm:
		fmt.Fprintln(f.out, st.Text)

		return nil
	case ast.Expression:
		_, _, err := f.compileExpr(st.Expr)

		return err
	case ast.Declaration:
		return f.compileDeclaration(st)
	case ast.PointerDeclaration:
		return f.compilePointerDeclaration(st)
	case ast.DeclareAssign:
		return f.compileDeclareAssign(st)
	case ast.PointerDeclareAssign:
		return f.compilePointerDeclareAssign(st)
	case ast.If:
		return f.compileIf(st)
	case ast.While:
		return f.compileWhile(st)
	case ast.Do:
		return f.compileDo(st)
	case ast.For:
		return f.compileFor(st)
	case ast.Repeat:
		return f.compileRepeat(st)
	case ast.Loop:
		return f.compileLoop(st)
	default:
		return fmt.Errorf("statement not permitted inside a function body: %T", stmt.Type)
	}
}

func (f *function) compileDeclaration(st ast.Declaration) error {
	t, err := f.lookupType(st.TypeName)
	if err != nil {
		return err
	}

	offset, err := f.pool.Alloc(t)
	if err != nil {
		return err
	}

	f.pool.Name(offset, st.Name)

	return nil
}

func (f *function) compilePointerDeclaration(st ast.PointerDeclaration) error {
	target, err := f.lookupType(st.TypeName)
	if err != nil {
		return err
	}

	offset, err := f.pool.Alloc(types.Pointer{Target: target})
	if err != nil {
		return err
	}

	f.pool.Name(offset, st.Name)

	return nil
}

// compileDeclareAssign allocates Name and initializes it from Expr. If Expr
// is a bare Variable reference it emits an explicit `mov`; otherwise the
// expression's own result slot is renamed to Name in place, avoiding a
// redundant move.
func (f *function) compileDeclareAssign(st ast.DeclareAssign) error {
	t, err := f.lookupType(st.TypeName)
	if err != nil {
		return err
	}

	if _, isStruct := t.(types.Struct); isStruct {
		return fmt.Errorf("cannot initialize struct-typed variable %q with an expression", st.Name)
	}

	if _, isVariable := st.Expr.(ast.Variable); isVariable {
		src, ok, err := f.compileExpr(st.Expr)
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("right-hand side of %q does not produce a value", st.Name)
		}

		prim, ok := asPrimitive(t)
		if !ok {
			return fmt.Errorf("cannot declare %q: type %s has no mov opcode", st.Name, t)
		}

		dest, err := f.pool.Alloc(t)
		if err != nil {
			return err
		}

		f.emit("mov_"+prim.String(), byteOperand(dest), byteOperand(src.offset))
		f.pool.Autofree(src.offset)
		f.pool.Name(dest, st.Name)

		return nil
	}

	v, ok, err := f.compileExpr(st.Expr)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("right-hand side of %q does not produce a value", st.Name)
	}

	f.pool.Name(v.offset, st.Name)

	return nil
}

func (f *function) compilePointerDeclareAssign(st ast.PointerDeclareAssign) error {
	target, err := f.lookupType(st.TypeName)
	if err != nil {
		return err
	}

	dest, err := f.pool.Alloc(types.Pointer{Target: target})
	if err != nil {
		return err
	}

	f.pool.Name(dest, st.Name)

	src, ok, err := f.compileExpr(st.Expr)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("right-hand side of %q does not produce a value", st.Name)
	}

	f.emit("mov_u16", byteOperand(dest), byteOperand(src.offset))
	f.pool.Autofree(src.offset)

	return nil
}

// compileIf lowers If: a conditional jump to the else label, the then-body,
// a jump over the else branch (only when there is one), the else label, the
// else-body, and the end label.
func (f *function) compileIf(st ast.If) error {
	cond, ok, err := f.compileExpr(st.Cond)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("if condition does not produce a value")
	}

	id := f.newLabel()

	f.emitJumpIf("jmp_if_false", cond.offset, "else", id)
	f.pool.Autofree(cond.offset)

	f.pool.PushScope()
	err = f.compileBlock(st.Then)
	f.pool.PopScope()

	if err != nil {
		return err
	}

	if st.Else != nil {
		f.emitJump("end", id)
	}

	f.emitLabel("else", id)

	if st.Else != nil {
		f.pool.PushScope()
		err = f.compileBlock(st.Else)
		f.pool.PopScope()

		if err != nil {
			return err
		}
	}

	f.emitLabel("end", id)

	return nil
}

// compileWhile lowers While: the condition is checked at the
// bottom of the loop, reached first via an initial jump past the body.
func (f *function) compileWhile(st ast.While) error {
	id := f.newLabel()

	f.emitJump("end", id)
	f.emitLabel("while", id)

	f.pool.PushScope()
	err := f.compileBlock(st.Body)
	f.pool.PopScope()

	if err != nil {
		return err
	}

	f.emitLabel("end", id)

	cond, ok, err := f.compileExpr(st.Cond)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("while condition does not produce a value")
	}

	f.emitJumpIf("jmp_if_true", cond.offset, "while", id)
	f.pool.Autofree(cond.offset)

	return nil
}

// compileDo lowers Do: runs Body once unconditionally, then
// re-checks Cond at the bottom before each subsequent iteration.
func (f *function) compileDo(st ast.Do) error {
	id := f.newLabel()

	f.emitLabel("while", id)

	f.pool.PushScope()
	err := f.compileBlock(st.Body)
	f.pool.PopScope()

	if err != nil {
		return err
	}

	f.emitLabel("end", id)

	cond, ok, err := f.compileExpr(st.Cond)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("do-while condition does not produce a value")
	}

	f.emitJumpIf("jmp_if_true", cond.offset, "while", id)
	f.pool.Autofree(cond.offset)

	return nil
}

// compileFor lowers For: prologue once, then body/epilogue
// repeated while the condition holds, condition checked at the bottom.
func (f *function) compileFor(st ast.For) error {
	if st.Prologue != nil {
		if err := f.compileStatement(*st.Prologue); err != nil {
			return f.located(st.Prologue.Span, err)
		}
	}

	id := f.newLabel()

	f.emitJump("end", id)
	f.emitLabel("for", id)

	f.pool.PushScope()
	err := f.compileBlock(st.Body)
	f.pool.PopScope()

	if err != nil {
		return err
	}

	if st.Epilogue != nil {
		if err := f.compileStatement(*st.Epilogue); err != nil {
			return f.located(st.Epilogue.Span, err)
		}
	}

	f.emitLabel("end", id)

	cond, ok, err := f.compileExpr(st.Cond)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("for condition does not produce a value")
	}

	f.emitJumpIf("jmp_if_true", cond.offset, "for", id)
	f.pool.Autofree(cond.offset)

	return nil
}

// compileRepeat lowers Repeat: a private decrementing copy of
// Count (so a named source variable is never mutated), tested against zero
// at the bottom with a one-byte scratch.
func (f *function) compileRepeat(st ast.Repeat) error {
	count, ok, err := f.compileExpr(st.Count)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("repeat count does not produce a value")
	}

	n := count.offset

	if name := f.pool.NameOf(count.offset); name != "" {
		prim, primOK := asPrimitive(count.typ)
		if !primOK {
			return fmt.Errorf("repeat count has non-scalar type %s", count.typ)
		}

		private, err := f.pool.Alloc(count.typ)
		if err != nil {
			return err
		}

		f.emit("mov_"+prim.String(), byteOperand(private), byteOperand(count.offset))
		n = private
	}

	id := f.newLabel()

	f.emitLabel("repeat", id)

	f.pool.PushScope()
	err = f.compileBlock(st.Body)
	f.pool.PopScope()

	if err != nil {
		return err
	}

	scratch, err := f.pool.Alloc(types.DefaultInteger())
	if err != nil {
		return err
	}

	f.emit("put_u8", byteOperand(scratch), "1")
	f.emit("sub_u8", byteOperand(n), byteOperand(scratch), byteOperand(n))

	f.emitLabel("end", id)

	f.emit("put_u8", byteOperand(scratch), "0")
	f.emit("equ_u8", byteOperand(n), byteOperand(scratch), byteOperand(scratch))
	f.emitJumpIf("jmp_if_false", scratch, "repeat", id)

	f.pool.Autofree(scratch)
	f.pool.Autofree(n)

	return nil
}

// compileLoop lowers Loop: an unconditional backward jump,
// with a trailing (unreachable) end label kept for consistency with the
// other control-flow constructs.
func (f *function) compileLoop(st ast.Loop) error {
	id := f.newLabel()

	f.emitLabel("loop", id)

	f.pool.PushScope()
	err := f.compileBlock(st.Body)
	f.pool.PopScope()

	if err != nil {
		return err
	}

	f.emitJump("loop", id)
	f.emitLabel("end", id)

	return nil
}
