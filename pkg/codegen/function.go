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
	"io"

	"github.com/sirupsen/logrus"

	"github.com/evie-calico/evscript/pkg/ast"
	"github.com/evie-calico/evscript/pkg/env"
	"github.com/evie-calico/evscript/pkg/pool"
	"github.com/evie-calico/evscript/pkg/source"
	"github.com/evie-calico/evscript/pkg/types"
)

// CompileFunction lowers fn's body against env and typeTable, writing its
// assembler section to out. It
// returns the live pool.Table so the caller can read PeakUsage/Occupancy for
// --report-usage without this package needing to know the diagnostic
// format.
func CompileFunction(file *source.File, fn ast.Function, environment *env.Environment, typeTable *types.Table, log *logrus.Logger, out io.Writer) (*pool.Table, error) {
	f := &function{
		file:  file,
		env:   environment,
		types: typeTable,
		pool:  pool.NewTable(),
		log:   log,
		out:   out,
	}

	fmt.Fprintf(out, "section %q, romx\n", fn.Name+" evscript fn")
	fmt.Fprintf(out, "%s::\n", fn.Name)

	if err := f.compileBlock(fn.Body); err != nil {
		return nil, err
	}

	fmt.Fprintln(out, "\tdb 0")

	for i, s := range f.strings {
		fmt.Fprintf(out, ".__string%d db %q, 0\n", i, s)
	}

	if peak := f.pool.PeakUsage(); peak > environment.Pool {
		log.Warnf("(%s) peak=%d > pool=%d", fn.Name, peak, environment.Pool)
	}

	return f.pool, nil
}
