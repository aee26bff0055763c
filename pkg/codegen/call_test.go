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
	"github.com/evie-calico/evscript/pkg/env"
	"github.com/evie-calico/evscript/pkg/source"
)

func testFunctionWithEnv(t *testing.T, decl ast.Environment) (*function, *bytes.Buffer) {
	t.Helper()

	f, out := testFunction()

	file := source.NewFile("test.ev", nil)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	var defOut bytes.Buffer

	e, err := env.Build(file, decl, env.NewTable(), logger, &defOut)
	if err != nil {
		t.Fatalf("env.Build: %v", err)
	}

	f.env = e

	return f, out
}

func envDecl(name string, stmts ...ast.StatementType) ast.Environment {
	body := make([]ast.Statement, len(stmts))
	for i, s := range stmts {
		body[i] = ast.Statement{Type: s}
	}

	return ast.Environment{Name: name, Body: body}
}

func defStmt(name string, d ast.Definition) ast.StatementType {
	return ast.DefinitionStatement{Name: name, Definition: d}
}

// TestCompileAliasCallConstIntForwardsLiteral locks in that an Alias's
// `const <int>` target arg forwards the literal decimal value directly,
// without the per-width byte decomposition a Def/Macro's own ConstParam
// gets (that decomposition requires a declared parameter type an alias
// target arg does not carry).
func TestCompileAliasCallConstIntForwardsLiteral(t *testing.T) {
	decl := envDecl("e",
		defStmt("add", ast.Def{Args: []ast.Param{
			ast.TypeParam{TypeName: "u8"},
			ast.TypeParam{TypeName: "u8"},
		}}),
		defStmt("inc", ast.Alias{
			Args:   []ast.Param{ast.TypeParam{TypeName: "u8"}},
			Target: "add",
			TargetArgs: []ast.AliasParam{
				ast.ArgId{Index: 1},
				ast.AliasConst{Value: ast.Signed{Value: 1}},
			},
		}),
	)

	f, out := testFunctionWithEnv(t, decl)

	call := ast.Call{Name: "inc", Args: []ast.Rpn{ast.Variable{Name: "x"}}}

	u8, err := f.lookupType("u8")
	if err != nil {
		t.Fatalf("lookupType: %v", err)
	}

	if _, err := f.pool.Alloc(u8); err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	f.pool.Name(0, "x")

	if _, _, err := f.compileCall(call); err != nil {
		t.Fatalf("compileCall: %v", err)
	}

	if got, want := out.String(), "\tdb e@add, 0, 1\n"; got != want {
		t.Errorf("emitted %q, want %q", got, want)
	}
}

// TestCompileAliasCallConstIntRejectsOutOfRange locks in the original
// compiler's 8-bit range check on an alias's integer const target arg.
func TestCompileAliasCallConstIntRejectsOutOfRange(t *testing.T) {
	decl := envDecl("e",
		defStmt("add", ast.Def{Args: []ast.Param{ast.TypeParam{TypeName: "u8"}}}),
		defStmt("big", ast.Alias{
			Target: "add",
			TargetArgs: []ast.AliasParam{
				ast.AliasConst{Value: ast.Signed{Value: 1000}},
			},
		}),
	)

	f, _ := testFunctionWithEnv(t, decl)

	if _, _, err := f.compileCall(ast.Call{Name: "big"}); err == nil {
		t.Fatal("expected an error for an out-of-range alias const literal")
	}
}

// TestCompileAliasCallConstStringForwardsLowHigh locks in that an Alias's
// `const "..."` target arg interns the string and forwards a two-operand
// LOW/HIGH pair, matching how the rest of the compiler addresses interned
// strings.
func TestCompileAliasCallConstStringForwardsLowHigh(t *testing.T) {
	decl := envDecl("e",
		defStmt("put_str", ast.Def{Args: []ast.Param{
			ast.TypeParam{TypeName: "u8"},
			ast.TypeParam{TypeName: "u8"},
		}}),
		defStmt("greet", ast.Alias{
			Target: "put_str",
			TargetArgs: []ast.AliasParam{
				ast.AliasConst{Value: ast.String{Value: "hi"}},
			},
		}),
	)

	f, out := testFunctionWithEnv(t, decl)

	if _, _, err := f.compileCall(ast.Call{Name: "greet"}); err != nil {
		t.Fatalf("compileCall: %v", err)
	}

	if !strings.Contains(out.String(), "LOW(.__string0), HIGH(.__string0)") {
		t.Errorf("expected a LOW/HIGH string operand pair, got %q", out.String())
	}

	if len(f.strings) != 1 || f.strings[0] != "hi" {
		t.Errorf("f.strings = %v, want [\"hi\"]", f.strings)
	}
}

// TestCompileAliasCallConstVariableForwardsName locks in that an Alias's
// `const <identifier>` target arg forwards the bare name verbatim (an
// externally-defined assembler symbol, not a pool variable).
func TestCompileAliasCallConstVariableForwardsName(t *testing.T) {
	decl := envDecl("e",
		defStmt("add", ast.Def{Args: []ast.Param{ast.TypeParam{TypeName: "u8"}}}),
		defStmt("bump", ast.Alias{
			Target: "add",
			TargetArgs: []ast.AliasParam{
				ast.AliasConst{Value: ast.Variable{Name: "SOME_CONSTANT"}},
			},
		}),
	)

	f, out := testFunctionWithEnv(t, decl)

	if _, _, err := f.compileCall(ast.Call{Name: "bump"}); err != nil {
		t.Fatalf("compileCall: %v", err)
	}

	if got, want := out.String(), "\tdb e@add, SOME_CONSTANT\n"; got != want {
		t.Errorf("emitted %q, want %q", got, want)
	}
}
