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
	"github.com/evie-calico/evscript/pkg/types"
)

// TestCompileFunctionTrivialBody locks in that a
// function with an empty body compiles to a bare section/label/terminator.
func TestCompileFunctionTrivialBody(t *testing.T) {
	file := source.NewFile("test.ev", nil)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	fn := ast.Function{EnvironmentName: "e", Name: "main", Body: nil}
	environment := env.Environment{Name: "e", Pool: 16}

	var out bytes.Buffer

	if _, err := CompileFunction(file, fn, &environment, types.NewTable(), logger, &out); err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	want := "section \"main evscript fn\", romx\n" +
		"main::\n" +
		"\tdb 0\n"

	if got := out.String(); got != want {
		t.Errorf("emitted:\n%s\nwant:\n%s", got, want)
	}
}

// TestCompileFunctionPoolOveruseWarns locks in that a function whose peak
// pool usage exceeds the declared pool size warns
// rather than erroring.
func TestCompileFunctionPoolOveruseWarns(t *testing.T) {
	file := source.NewFile("test.ev", nil)

	var logBuf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&logBuf)

	body := []ast.Statement{
		{Type: ast.Declaration{TypeName: "u8", Name: "a"}},
		{Type: ast.Declaration{TypeName: "u8", Name: "b"}},
		{Type: ast.Declaration{TypeName: "u8", Name: "c"}},
	}

	fn := ast.Function{EnvironmentName: "e", Name: "main", Body: body}
	environment := env.Environment{Name: "e", Pool: 2}

	var out bytes.Buffer

	if _, err := CompileFunction(file, fn, &environment, types.NewTable(), logger, &out); err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	if !strings.Contains(logBuf.String(), "peak=3 > pool=2") {
		t.Errorf("expected a pool-overuse warning, got:\n%s", logBuf.String())
	}
}

// TestCompileFunctionEmitsInternedStrings locks in that string literals
// are emitted verbatim, once per occurrence,
// at the function's epilogue.
func TestCompileFunctionEmitsInternedStrings(t *testing.T) {
	file := source.NewFile("test.ev", nil)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	body := []ast.Statement{
		{Type: ast.Expression{Expr: ast.String{Value: "hi"}}},
	}

	fn := ast.Function{EnvironmentName: "e", Name: "main", Body: body}
	environment := env.Environment{Name: "e", Pool: 16}

	var out bytes.Buffer

	if _, err := CompileFunction(file, fn, &environment, types.NewTable(), logger, &out); err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}

	if !strings.Contains(out.String(), `.__string0 db "hi", 0`) {
		t.Errorf("expected an interned string epilogue line, got:\n%s", out.String())
	}
}
