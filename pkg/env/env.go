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

// Package env builds and resolves Environments: the per-environment mapping
// from a definition name to its opcode, alias, or macro, and the symbol each
// one expands to.
package env

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/source"
)

// Entry is one named Definition inside an Environment, in the order it was
// inserted (either directly or via Use).
type Entry struct {
	Name       string
	Definition ast.Definition
}

// Environment is a fully-built, immutable-after-construction mapping from
// definition name to Definition, plus the pool size declared by `pool =
// <expr>`.
type Environment struct {
	Name    string
	Pool    uint16
	entries []Entry
	byName  map[string]ast.Definition
}

func newEnvironment(name string) *Environment {
	return &Environment{Name: name, byName: make(map[string]ast.Definition)}
}

// insert records a Definition under name, reporting whether name was already
// bound. The existing entry is overwritten regardless; duplicates warn at
// the caller, they are not errors.
func (e *Environment) insert(name string, def ast.Definition) bool {
	_, duplicate := e.byName[name]
	if !duplicate {
		e.entries = append(e.entries, Entry{Name: name, Definition: def})
	} else {
		for i := range e.entries {
			if e.entries[i].Name == name {
				e.entries[i].Definition = def
				break
			}
		}
	}

	e.byName[name] = def

	return duplicate
}

// Entries returns every Definition in this Environment in insertion order.
func (e *Environment) Entries() []Entry {
	return e.entries
}

// Lookup resolves name to a Definition within this Environment directly
// (no alias following).
func (e *Environment) Lookup(name string) (ast.Definition, bool) {
	d, ok := e.byName[name]

	return d, ok
}

// Expand follows name's alias chain (if any) to the single concrete
// assembler symbol "{env}@{name}" the later assembler resolves to an opcode
// byte. It fails if name is unbound, resolves to a Macro (macros have no
// opcode symbol of their own), or its alias chain cycles.
func (e *Environment) Expand(name string) (string, error) {
	return e.expand(name, make(map[string]bool))
}

func (e *Environment) expand(name string, seen map[string]bool) (string, error) {
	if seen[name] {
		return "", fmt.Errorf("alias chain starting at %q is cyclic", name)
	}

	seen[name] = true

	def, ok := e.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%q: not found", name)
	}

	switch d := def.(type) {
	case ast.Def:
		return e.Name + "@" + name, nil
	case ast.Alias:
		return e.expand(d.Target, seen)
	case ast.Macro:
		return "", fmt.Errorf("%q may not be a macro", name)
	default:
		return "", fmt.Errorf("%q: unrecognized definition kind %T", name, def)
	}
}

// Table maps environment names to their built Environment, owned
// exclusively by the top-level driver for the duration of a compilation run.
type Table struct {
	environments map[string]*Environment
}

// NewTable constructs an empty environment table.
func NewTable() *Table {
	return &Table{environments: make(map[string]*Environment)}
}

// Get looks up a previously built Environment by name.
func (t *Table) Get(name string) (*Environment, bool) {
	e, ok := t.environments[name]

	return e, ok
}

// Build processes decl's statements in source order against table and
// writes every `def ... equ ...` directive a definition or use produces to
// out, registering the finished Environment in table before returning it.
func Build(file *source.File, decl ast.Environment, table *Table, log *logrus.Logger, out io.Writer) (*Environment, error) {
	e := newEnvironment(decl.Name)

	counter := 0

	for _, stmt := range decl.Body {
		var err error

		switch st := stmt.Type.(type) {
		case ast.Use:
			counter, err = applyUse(e, table, st, counter, out, log)
		case ast.DefinitionStatement:
			counter, err = applyDefinition(e, st, counter, out, log)
		case ast.Pool:
			err = applyPool(e, st)
		default:
			err = fmt.Errorf("statement not permitted inside an environment body")
		}

		if err != nil {
			return nil, file.Error(stmt.Span, err.Error())
		}
	}

	table.environments[decl.Name] = e

	return e, nil
}

func applyUse(e *Environment, table *Table, st ast.Use, counter int, out io.Writer, log *logrus.Logger) (int, error) {
	src, ok := table.Get(st.Name)
	if !ok {
		return counter, fmt.Errorf("unknown environment %q", st.Name)
	}

	maxBytecode := -1

	for _, entry := range src.Entries() {
		var duplicate bool

		switch d := entry.Definition.(type) {
		case ast.Def:
			newBytecode := counter + int(d.Bytecode)
			if newBytecode > 255 {
				return counter, fmt.Errorf("environment %q: bytecode counter overflow while using %q", e.Name, st.Name)
			}

			duplicate = e.insert(entry.Name, ast.Def{Bytecode: uint8(newBytecode), Args: d.Args})
			fmt.Fprintf(out, "def %s@%s equ %d\n", e.Name, entry.Name, newBytecode)

			if newBytecode > maxBytecode {
				maxBytecode = newBytecode
			}
		default:
			duplicate = e.insert(entry.Name, entry.Definition)
		}

		if duplicate {
			log.Warnf("duplicate definition %q in environment %q (via use %s)", entry.Name, e.Name, st.Name)
		}
	}

	// The counter lands on the greatest bytecode this use emitted, not one
	// past it; a local def that follows reuses that index.
	if maxBytecode >= 0 {
		counter = maxBytecode
	}

	return counter, nil
}

func applyDefinition(e *Environment, st ast.DefinitionStatement, counter int, out io.Writer, log *logrus.Logger) (int, error) {
	var duplicate bool

	switch d := st.Definition.(type) {
	case ast.Def:
		if counter > 255 {
			return counter, fmt.Errorf("environment %q: bytecode counter overflow at %q", e.Name, st.Name)
		}

		bytecode := uint8(counter)
		duplicate = e.insert(st.Name, ast.Def{Bytecode: bytecode, Args: d.Args})
		fmt.Fprintf(out, "def %s@%s equ %d\n", e.Name, st.Name, bytecode)
		counter++
	default:
		duplicate = e.insert(st.Name, st.Definition)
	}

	if duplicate {
		log.Warnf("duplicate definition %q in environment %q", st.Name, e.Name)
	}

	return counter, nil
}

func applyPool(e *Environment, st ast.Pool) error {
	v, err := ast.EvalConst(st.Expr)
	if err != nil {
		return fmt.Errorf("pool size: %w", err)
	}

	if v < 0 || v > 256 {
		return fmt.Errorf("pool size %d out of range [0,256]", v)
	}

	e.Pool = uint16(v)

	return nil
}
