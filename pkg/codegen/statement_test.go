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
	"testing"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/types"
)

func pointType() types.Struct {
	return types.Struct{Name: "Point", Fields: []types.StructField{
		{Name: "x", Type: types.Primitive{Width: 1}},
		{Name: "y", Type: types.Primitive{Width: 1}},
	}}
}

// TestCompileIfElseSequence locks in the if/else shape: a
// comparison temp, a jmp_if_false to .__else0, the then-body, an
// unconditional jmp to .__end0, the else label, the else-body, the end label.
func TestCompileIfElseSequence(t *testing.T) {
	f, out := testFunction()

	body := []ast.Statement{
		{Type: ast.Declaration{TypeName: "u8", Name: "x"}},
		{Type: ast.Declaration{TypeName: "u8", Name: "y"}},
		{Type: ast.If{
			Cond: ast.BinaryOp{Operator: ast.Equ, Left: ast.Variable{Name: "x"}, Right: ast.Signed{Value: 1}},
			Then: []ast.Statement{{Type: ast.Expression{Expr: ast.Set{Name: "y", Value: ast.Signed{Value: 2}}}}},
			Else: []ast.Statement{{Type: ast.Expression{Expr: ast.Set{Name: "y", Value: ast.Signed{Value: 3}}}}},
		}},
	}

	if err := f.compileBlock(body); err != nil {
		t.Fatalf("compileBlock: %v", err)
	}

	// x at 0, y at 1; literal 1 at 2, comparison result at 3.
	want := "\tdb put_u8, 2, 1\n" +
		"\tdb equ_u8, 0, 2, 3\n" +
		"\tdb jmp_if_false, 3, LOW(.__else0), HIGH(.__else0)\n" +
		"\tdb put_u8, 2, 2\n" +
		"\tdb mov_u8, 1, 2\n" +
		"\tdb jmp, LOW(.__end0), HIGH(.__end0)\n" +
		".__else0:\n" +
		"\tdb put_u8, 2, 3\n" +
		"\tdb mov_u8, 1, 2\n" +
		".__end0:\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}
}

// TestCompileWhileChecksConditionAtBottom locks in the While shape: an
// initial jump past the body to the condition, with the back-edge taken on a
// true condition.
func TestCompileWhileChecksConditionAtBottom(t *testing.T) {
	f, out := testFunction()

	body := []ast.Statement{
		{Type: ast.Declaration{TypeName: "u8", Name: "x"}},
		{Type: ast.While{
			Cond: ast.Variable{Name: "x"},
			Body: []ast.Statement{{Type: ast.Expression{Expr: ast.Set{Name: "x", Value: ast.Signed{Value: 0}}}}},
		}},
	}

	if err := f.compileBlock(body); err != nil {
		t.Fatalf("compileBlock: %v", err)
	}

	want := "\tdb jmp, LOW(.__end0), HIGH(.__end0)\n" +
		".__while0:\n" +
		"\tdb put_u8, 1, 0\n" +
		"\tdb mov_u8, 0, 1\n" +
		".__end0:\n" +
		"\tdb jmp_if_true, 0, LOW(.__while0), HIGH(.__while0)\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}
}

// TestCompileLoopShape locks in the Loop shape: label, body, unconditional
// back jump, trailing end label.
func TestCompileLoopShape(t *testing.T) {
	f, out := testFunction()

	if err := f.compileStatement(ast.Statement{Type: ast.Loop{Body: nil}}); err != nil {
		t.Fatalf("compileStatement: %v", err)
	}

	want := ".__loop0:\n" +
		"\tdb jmp, LOW(.__loop0), HIGH(.__loop0)\n" +
		".__end0:\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}
}

// TestDeclareAssignConsumesExpressionInPlace locks in the DeclareAssign
// rule: a value-producing RHS is renamed in place (no mov),
// while a bare Variable RHS gets an explicit mov into a fresh slot.
func TestDeclareAssignConsumesExpressionInPlace(t *testing.T) {
	f, out := testFunction()

	body := []ast.Statement{
		{Type: ast.DeclareAssign{TypeName: "u8", Name: "a", Expr: ast.Signed{Value: 3}}},
		{Type: ast.DeclareAssign{TypeName: "u8", Name: "b", Expr: ast.Variable{Name: "a"}}},
	}

	if err := f.compileBlock(body); err != nil {
		t.Fatalf("compileBlock: %v", err)
	}

	want := "\tdb put_u8, 0, 3\n" +
		"\tdb mov_u8, 1, 0\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}

	if offset, _, ok := f.pool.Lookup("a"); !ok || offset != 0 {
		t.Errorf("a at %d (ok=%t), want 0", offset, ok)
	}

	if offset, _, ok := f.pool.Lookup("b"); !ok || offset != 1 {
		t.Errorf("b at %d (ok=%t), want 1", offset, ok)
	}
}

// TestScopedBlocksFreeInnerVariables locks in that a variable declared
// inside a control-flow body is swept when the block's scope pops, so the
// next allocation reuses its offset.
func TestScopedBlocksFreeInnerVariables(t *testing.T) {
	f, _ := testFunction()

	body := []ast.Statement{
		{Type: ast.Declaration{TypeName: "u8", Name: "outer"}},
		{Type: ast.Loop{Body: []ast.Statement{
			{Type: ast.Declaration{TypeName: "u8", Name: "inner"}},
		}}},
		{Type: ast.Declaration{TypeName: "u8", Name: "after"}},
	}

	if err := f.compileBlock(body); err != nil {
		t.Fatalf("compileBlock: %v", err)
	}

	if _, _, ok := f.pool.Lookup("inner"); ok {
		t.Error("inner should have been swept when the loop scope popped")
	}

	if offset, _, ok := f.pool.Lookup("after"); !ok || offset != 1 {
		t.Errorf("after at %d (ok=%t), want 1 (reusing inner's slot)", offset, ok)
	}
}

// TestCompileAsmPassthrough locks in that an inline-assembly statement is
// written to the output verbatim, with no db framing.
func TestCompileAsmPassthrough(t *testing.T) {
	f, out := testFunction()

	if err := f.compileStatement(ast.Statement{Type: ast.Asm{Text: "\tld a, [hl+]"}}); err != nil {
		t.Fatalf("compileStatement: %v", err)
	}

	if got, want := out.String(), "\tld a, [hl+]\n"; got != want {
		t.Errorf("emitted %q, want %q", got, want)
	}
}

// TestCompileSetDottedMember locks in assignment through a struct member
// path: the mov targets the member's resolved offset and width.
func TestCompileSetDottedMember(t *testing.T) {
	f, out := testFunction()

	if !f.types.Define("Point", pointType()) {
		t.Fatal("Define(Point) failed")
	}

	body := []ast.Statement{
		{Type: ast.Declaration{TypeName: "Point", Name: "p"}},
		{Type: ast.Expression{Expr: ast.Set{Name: "p.y", Value: ast.Signed{Value: 7}}}},
	}

	if err := f.compileBlock(body); err != nil {
		t.Fatalf("compileBlock: %v", err)
	}

	// p occupies [0,2); p.y is at 1; the literal lands at 2.
	want := "\tdb put_u8, 2, 7\n" +
		"\tdb mov_u8, 1, 2\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}
}
