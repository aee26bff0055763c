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
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/pool"
	"github.com/evie-calico/evscript/pkg/source"
	"github.com/evie-calico/evscript/pkg/types"
)

func testFunction() (*function, *bytes.Buffer) {
	var out bytes.Buffer

	var logBuf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&logBuf)

	f := &function{
		file:  source.NewFile("test.ev", nil),
		pool:  pool.NewTable(),
		types: types.NewTable(),
		log:   logger,
		out:   &out,
	}

	return f, &out
}

func TestCompileSignedLiteral(t *testing.T) {
	f, out := testFunction()

	v, ok, err := f.compileExpr(ast.Signed{Value: 42})
	if err != nil {
		t.Fatalf("compileExpr: %v", err)
	}

	if !ok {
		t.Fatal("Signed literal should produce a value")
	}

	if v.offset != 0 {
		t.Fatalf("offset = %d, want 0", v.offset)
	}

	if got, want := out.String(), "\tdb put_u8, 0, 42\n"; got != want {
		t.Errorf("emitted %q, want %q", got, want)
	}
}

func TestCompileBinaryOpOperandOrder(t *testing.T) {
	f, out := testFunction()

	// 2 + 3: Left, Right, Destination operand order.
	e := ast.BinaryOp{Operator: ast.Add, Left: ast.Signed{Value: 2}, Right: ast.Signed{Value: 3}}

	v, ok, err := f.compileExpr(e)
	if err != nil {
		t.Fatalf("compileExpr: %v", err)
	}

	if !ok {
		t.Fatal("BinaryOp should produce a value")
	}

	want := "\tdb put_u8, 0, 2\n" +
		"\tdb put_u8, 1, 3\n" +
		"\tdb add_u8, 0, 1, 2\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}

	if v.offset != 2 {
		t.Fatalf("result offset = %d, want 2", v.offset)
	}
}

func TestCompileNegateSequence(t *testing.T) {
	f, out := testFunction()

	_, ok, err := f.compileExpr(ast.Negate{Operand: ast.Signed{Value: 5}})
	if err != nil {
		t.Fatalf("compileExpr: %v", err)
	}

	if !ok {
		t.Fatal("Negate should produce a value")
	}

	want := "\tdb put_u8, 0, 5\n" +
		"\tdb put_u8, 1, 0\n" +
		"\tdb sub_u8, 1, 0, 2\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}
}

func TestCompileNotSequence(t *testing.T) {
	f, out := testFunction()

	_, ok, err := f.compileExpr(ast.Not{Operand: ast.Signed{Value: 5}})
	if err != nil {
		t.Fatalf("compileExpr: %v", err)
	}

	if !ok {
		t.Fatal("Not should produce a value")
	}

	want := "\tdb put_u8, 0, 5\n" +
		"\tdb put_u8, 1, $FF\n" +
		"\tdb xor_u8, 0, 1, 2\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}
}

// TestStringInterningDoesNotDedup locks in that two occurrences of the same string literal each get their own
// .__string index rather than being deduplicated.
func TestStringInterningDoesNotDedup(t *testing.T) {
	f, _ := testFunction()

	if _, _, err := f.compileExpr(ast.String{Value: "hi"}); err != nil {
		t.Fatalf("compileExpr: %v", err)
	}

	if _, _, err := f.compileExpr(ast.String{Value: "hi"}); err != nil {
		t.Fatalf("compileExpr: %v", err)
	}

	if len(f.strings) != 2 {
		t.Fatalf("len(f.strings) = %d, want 2 (no cross-occurrence dedup)", len(f.strings))
	}
}

// TestCompileRepeatLiteralCount locks in the lowering of
// `repeat 3 { }` against an empty body.
func TestCompileRepeatLiteralCount(t *testing.T) {
	f, out := testFunction()

	st := ast.Repeat{Count: ast.Signed{Value: 3}, Body: nil}

	if err := f.compileStatement(ast.Statement{Type: st}); err != nil {
		t.Fatalf("compileStatement: %v", err)
	}

	want := "\tdb put_u8, 0, 3\n" +
		".__repeat0:\n" +
		"\tdb put_u8, 1, 1\n" +
		"\tdb sub_u8, 0, 1, 0\n" +
		".__end0:\n" +
		"\tdb put_u8, 1, 0\n" +
		"\tdb equ_u8, 0, 1, 1\n" +
		"\tdb jmp_if_false, 1, LOW(.__repeat0), HIGH(.__repeat0)\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitZeroOperandsHasNoTrailingComma(t *testing.T) {
	f, out := testFunction()

	f.emit("ret")

	if got, want := out.String(), "\tdb ret\n"; got != want {
		t.Errorf("emit(\"ret\") = %q, want %q", got, want)
	}

	if strings.Contains(out.String(), ",") {
		t.Errorf("zero-operand emit should not contain a comma: %q", out.String())
	}
}
