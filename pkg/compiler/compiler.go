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

// Package compiler implements the top-level driver: it iterates a file's
// Roots in source order, builds
// Environments before the Functions that reference them, recurses into
// Includes, and owns the single EnvironmentTable and TypeTable for an entire
// compilation run.
package compiler

import (
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bits-and-blooms/bitset"
	"github.com/sirupsen/logrus"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/codegen"
	"github.com/evie-calico/evscript/pkg/env"
	"github.com/evie-calico/evscript/pkg/parser"
	"github.com/evie-calico/evscript/pkg/source"
	"github.com/evie-calico/evscript/pkg/types"
)

// Options gates the driver's optional diagnostics, independent of the
// pool-overflow warning that codegen always issues regardless of these
// flags.
type Options struct {
	// ReportUsage prints "(<fn>) Peak usage: <n>" to Diagnostics after each
	// function compiles.
	ReportUsage bool
	// ReportUsageJSON additionally accumulates a machine-readable usage
	// report per function, retrievable via Compiler.UsageReports after the
	// run completes.
	ReportUsageJSON bool
	// Diagnostics receives ReportUsage's human-readable lines; if nil,
	// nothing is printed for ReportUsage (ReportUsageJSON is unaffected).
	Diagnostics io.Writer
}

// UsageReport is one function's pool-usage snapshot, emitted as JSON by the
// CLI's --report-usage-json flag.
type UsageReport struct {
	Function  string `json:"function"`
	Peak      int    `json:"peak"`
	Pool      int    `json:"pool"`
	Occupancy string `json:"occupancy"`
}

// Compiler owns the environment and type tables for one compilation run;
// they accumulate across every file the run touches, includes included.
type Compiler struct {
	Environments *env.Table
	Types        *types.Table
	Log          *logrus.Logger
	Options      Options
	UsageReports []UsageReport
}

// New constructs a Compiler with fresh Environment and Type tables, the
// latter preseeded with the builtin integer types (types.NewTable).
func New(log *logrus.Logger, opts Options) *Compiler {
	return &Compiler{
		Environments: env.NewTable(),
		Types:        types.NewTable(),
		Log:          log,
		Options:      opts,
	}
}

// CompileFile parses and compiles path as the root input file, writing
// assembler text to out.
func (c *Compiler) CompileFile(path string, out io.Writer) error {
	return c.compileFile(path, out, true)
}

func (c *Compiler) compileFile(path string, out io.Writer, isRoot bool) error {
	file, err := source.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	c.Log.Debugf("compiling %s (root=%t)", path, isRoot)

	roots, err := parser.Parse(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "def __EVSCRIPT_FILE__ equs %q\n", path)

	dir := filepath.Dir(path)

	for _, root := range roots {
		if err := c.compileRoot(file, root, out, isRoot, dir); err != nil {
			return err
		}
	}

	return nil
}

func (c *Compiler) compileRoot(file *source.File, root ast.Root, out io.Writer, isRoot bool, dir string) error {
	switch r := root.(type) {
	case ast.Environment:
		return c.compileEnvironment(file, r, out, isRoot)
	case ast.Function:
		return c.compileFunction(file, r, out)
	case ast.Assembly:
		fmt.Fprintln(out, r.Text)

		return nil
	case ast.Include:
		return c.compileInclude(file, r, out, dir)
	case ast.Typedef:
		return c.compileTypedef(r)
	case ast.StructDecl:
		return c.compileStructDecl(r)
	default:
		return fmt.Errorf("unrecognized root declaration %T", root)
	}
}

func (c *Compiler) compileEnvironment(file *source.File, r ast.Environment, out io.Writer, isRoot bool) error {
	e, err := env.Build(file, r, c.Environments, c.Log, out)
	if err != nil {
		return err
	}

	if isRoot {
		fmt.Fprintf(out, "def %s__pool_size equ %d\n", r.Name, e.Pool)
		fmt.Fprintf(out, "export %s__pool_size\n", r.Name)
	}

	return nil
}

func (c *Compiler) compileFunction(file *source.File, r ast.Function, out io.Writer) error {
	environment, ok := c.Environments.Get(r.EnvironmentName)
	if !ok {
		return file.Error(r.Span, fmt.Sprintf("unknown environment %q", r.EnvironmentName))
	}

	table, err := codegen.CompileFunction(file, r, environment, c.Types, c.Log, out)
	if err != nil {
		return err
	}

	if c.Options.ReportUsage && c.Options.Diagnostics != nil {
		fmt.Fprintf(c.Options.Diagnostics, "(%s) Peak usage: %d\n", r.Name, table.PeakUsage())
	}

	if c.Options.ReportUsageJSON {
		c.UsageReports = append(c.UsageReports, UsageReport{
			Function:  r.Name,
			Peak:      int(table.PeakUsage()),
			Pool:      int(environment.Pool),
			Occupancy: occupancyHex(table),
		})
	}

	return nil
}

func (c *Compiler) compileInclude(file *source.File, r ast.Include, out io.Writer, dir string) error {
	path := filepath.Join(dir, r.Path)

	if err := c.compileFile(path, out, false); err != nil {
		return file.Error(r.Span, fmt.Sprintf("%s: %s", path, err.Error()))
	}

	return nil
}

func (c *Compiler) compileTypedef(r ast.Typedef) error {
	underlying, ok := c.Types.Lookup(r.Underlying)
	if !ok {
		return fmt.Errorf("unknown type %q", r.Underlying)
	}

	if !c.Types.Define(r.Name, underlying) {
		c.Log.Warnf("redefinition of type %q", r.Name)
	}

	return nil
}

func (c *Compiler) compileStructDecl(r ast.StructDecl) error {
	fields := make([]types.StructField, 0, len(r.Members))

	for _, m := range r.Members {
		t, ok := c.Types.Lookup(m.TypeName)
		if !ok {
			return fmt.Errorf("struct %q: unknown member type %q", r.Name, m.TypeName)
		}

		fields = append(fields, types.StructField{Name: m.Name, Type: t})
	}

	if !c.Types.Define(r.Name, types.Struct{Name: r.Name, Fields: fields}) {
		c.Log.Warnf("redefinition of type %q", r.Name)
	}

	return nil
}

// occupancyTable is the part of *pool.Table's surface occupancyHex needs.
type occupancyTable interface {
	Occupancy() *bitset.BitSet
}

// occupancyHex renders a pool.Table's live-byte bitmap as a 32-byte hex
// string (1 bit per pool offset, MSB-first within each byte), for
// --report-usage-json.
func occupancyHex(table occupancyTable) string {
	bs := table.Occupancy()

	var buf [32]byte

	for i := 0; i < 256; i++ {
		if bs.Test(uint(i)) {
			buf[i/8] |= 1 << (7 - uint(i%8))
		}
	}

	return hex.EncodeToString(buf[:])
}
