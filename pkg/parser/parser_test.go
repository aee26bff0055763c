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

package parser

import (
	"testing"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/source"
)

func parse(t *testing.T, src string) []ast.Root {
	t.Helper()

	file := source.NewFile("test.ev", []byte(src))

	roots, err := Parse(file)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}

	return roots
}

func TestParseEnvironmentDefAliasMacroPool(t *testing.T) {
	src := `env e {
		pool = 16;
		def add(u8, u8, return u8);
		alias inc(u8) = add($1, const 1);
		mac raw(u8) = emit_raw;
	}`

	roots := parse(t, src)
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}

	e, ok := roots[0].(ast.Environment)
	if !ok {
		t.Fatalf("expected ast.Environment, got %T", roots[0])
	}

	if e.Name != "e" {
		t.Fatalf("Name = %q, want %q", e.Name, "e")
	}

	if len(e.Body) != 4 {
		t.Fatalf("expected 4 body statements, got %d", len(e.Body))
	}

	if _, ok := e.Body[0].Type.(ast.Pool); !ok {
		t.Fatalf("body[0] = %T, want ast.Pool", e.Body[0].Type)
	}

	def, ok := e.Body[1].Type.(ast.DefinitionStatement)
	if !ok {
		t.Fatalf("body[1] = %T, want ast.DefinitionStatement", e.Body[1].Type)
	}

	if def.Name != "add" {
		t.Fatalf("def.Name = %q, want %q", def.Name, "add")
	}

	d, ok := def.Definition.(ast.Def)
	if !ok {
		t.Fatalf("def.Definition = %T, want ast.Def", def.Definition)
	}

	if len(d.Args) != 3 {
		t.Fatalf("len(d.Args) = %d, want 3", len(d.Args))
	}

	if _, ok := d.Args[2].(ast.ReturnParam); !ok {
		t.Fatalf("d.Args[2] = %T, want ast.ReturnParam", d.Args[2])
	}

	aliasStmt, ok := e.Body[2].Type.(ast.DefinitionStatement)
	if !ok {
		t.Fatalf("body[2] = %T, want ast.DefinitionStatement", e.Body[2].Type)
	}

	alias, ok := aliasStmt.Definition.(ast.Alias)
	if !ok {
		t.Fatalf("alias.Definition = %T, want ast.Alias", aliasStmt.Definition)
	}

	if alias.Target != "add" {
		t.Fatalf("alias.Target = %q, want %q", alias.Target, "add")
	}

	if len(alias.TargetArgs) != 2 {
		t.Fatalf("len(alias.TargetArgs) = %d, want 2", len(alias.TargetArgs))
	}

	if argID, ok := alias.TargetArgs[0].(ast.ArgId); !ok || argID.Index != 1 {
		t.Fatalf("alias.TargetArgs[0] = %#v, want ArgId{1}", alias.TargetArgs[0])
	}

	if _, ok := alias.TargetArgs[1].(ast.AliasConst); !ok {
		t.Fatalf("alias.TargetArgs[1] = %T, want ast.AliasConst", alias.TargetArgs[1])
	}

	macStmt, ok := e.Body[3].Type.(ast.DefinitionStatement)
	if !ok {
		t.Fatalf("body[3] = %T, want ast.DefinitionStatement", e.Body[3].Type)
	}

	mac, ok := macStmt.Definition.(ast.Macro)
	if !ok {
		t.Fatalf("mac.Definition = %T, want ast.Macro", macStmt.Definition)
	}

	if mac.Target != "emit_raw" {
		t.Fatalf("mac.Target = %q, want %q", mac.Target, "emit_raw")
	}
}

func TestParseFunctionDeclareAssignAndIf(t *testing.T) {
	src := `e fn main {
		u8 x = 1 + 2 * 3;
		if (x > 2) {
			x = 0;
		} else {
			x = 1;
		}
	}`

	roots := parse(t, src)
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}

	fn, ok := roots[0].(ast.Function)
	if !ok {
		t.Fatalf("expected ast.Function, got %T", roots[0])
	}

	if fn.EnvironmentName != "e" || fn.Name != "main" {
		t.Fatalf("fn = %+v, want EnvironmentName=e Name=main", fn)
	}

	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body))
	}

	decl, ok := fn.Body[0].Type.(ast.DeclareAssign)
	if !ok {
		t.Fatalf("body[0] = %T, want ast.DeclareAssign", fn.Body[0].Type)
	}

	// Precedence: 1 + 2*3 should parse as Add(1, Mul(2,3)), not Mul(Add(1,2),3).
	bin, ok := decl.Expr.(ast.BinaryOp)
	if !ok || bin.Operator != ast.Add {
		t.Fatalf("top-level operator = %#v, want Add", decl.Expr)
	}

	rhs, ok := bin.Right.(ast.BinaryOp)
	if !ok || rhs.Operator != ast.Mul {
		t.Fatalf("right operand = %#v, want a Mul", bin.Right)
	}

	ifStmt, ok := fn.Body[1].Type.(ast.If)
	if !ok {
		t.Fatalf("body[1] = %T, want ast.If", fn.Body[1].Type)
	}

	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("if Then/Else = %d/%d statements, want 1/1", len(ifStmt.Then), len(ifStmt.Else))
	}
}

func TestParseRepeatAndLoop(t *testing.T) {
	src := `e fn main {
		repeat 3 {
			loop {
			}
		}
	}`

	roots := parse(t, src)

	fn := roots[0].(ast.Function)

	repeat, ok := fn.Body[0].Type.(ast.Repeat)
	if !ok {
		t.Fatalf("body[0] = %T, want ast.Repeat", fn.Body[0].Type)
	}

	if _, ok := repeat.Count.(ast.Signed); !ok {
		t.Fatalf("repeat.Count = %T, want ast.Signed", repeat.Count)
	}

	if len(repeat.Body) != 1 {
		t.Fatalf("expected 1 nested statement, got %d", len(repeat.Body))
	}

	if _, ok := repeat.Body[0].Type.(ast.Loop); !ok {
		t.Fatalf("repeat.Body[0] = %T, want ast.Loop", repeat.Body[0].Type)
	}
}

func TestParseDottedMemberAccess(t *testing.T) {
	src := `e fn main {
		pos.x = 1;
		u8 y = pos.y + 2;
	}`

	roots := parse(t, src)

	fn := roots[0].(ast.Function)
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body))
	}

	expr, ok := fn.Body[0].Type.(ast.Expression)
	if !ok {
		t.Fatalf("body[0] = %T, want ast.Expression", fn.Body[0].Type)
	}

	set, ok := expr.Expr.(ast.Set)
	if !ok || set.Name != "pos.x" {
		t.Fatalf("body[0] expr = %#v, want Set{pos.x}", expr.Expr)
	}

	decl, ok := fn.Body[1].Type.(ast.DeclareAssign)
	if !ok {
		t.Fatalf("body[1] = %T, want ast.DeclareAssign", fn.Body[1].Type)
	}

	bin, ok := decl.Expr.(ast.BinaryOp)
	if !ok {
		t.Fatalf("decl.Expr = %T, want ast.BinaryOp", decl.Expr)
	}

	if v, ok := bin.Left.(ast.Variable); !ok || v.Name != "pos.y" {
		t.Fatalf("bin.Left = %#v, want Variable{pos.y}", bin.Left)
	}
}

func TestParseInlineAssemblyStatement(t *testing.T) {
	src := `e fn main {
		#asm
	ld a, [hl+]
#end
	}`

	roots := parse(t, src)

	fn := roots[0].(ast.Function)
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fn.Body))
	}

	asm, ok := fn.Body[0].Type.(ast.Asm)
	if !ok {
		t.Fatalf("body[0] = %T, want ast.Asm", fn.Body[0].Type)
	}

	if asm.Text != "\tld a, [hl+]" {
		t.Fatalf("asm.Text = %q, want the verbatim block body", asm.Text)
	}
}

func TestParseIncludeAndTypedefAndStruct(t *testing.T) {
	src := `include "other.ev";
	typedef Byte = u8;
	struct Point {
		u8 x;
		u8 y;
	}`

	roots := parse(t, src)
	if len(roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(roots))
	}

	inc, ok := roots[0].(ast.Include)
	if !ok || inc.Path != "other.ev" {
		t.Fatalf("roots[0] = %#v, want Include{Path: other.ev}", roots[0])
	}

	td, ok := roots[1].(ast.Typedef)
	if !ok || td.Name != "Byte" || td.Underlying != "u8" {
		t.Fatalf("roots[1] = %#v, want Typedef{Byte,u8}", roots[1])
	}

	sd, ok := roots[2].(ast.StructDecl)
	if !ok || sd.Name != "Point" || len(sd.Members) != 2 {
		t.Fatalf("roots[2] = %#v, want StructDecl Point with 2 members", roots[2])
	}
}
