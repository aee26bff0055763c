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

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/segmentio/encoding/json"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/term"

	"github.com/evie-calico/evscript/pkg/cmdutil"
	"github.com/evie-calico/evscript/pkg/compiler"
	"github.com/evie-calico/evscript/pkg/source"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <input>",
	Short: "compile an evscript source file into rgbasm source.",
	Long:  "Compile a single evscript source file (and any files it includes) into a textual rgbasm source file.",
	Args:  cobra.ExactArgs(1),
	Run:   runCompileCmd,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output .asm path (required)")
	compileCmd.Flags().Bool("report-usage", false, "print each function's peak pool usage to stderr")
	compileCmd.Flags().Bool("report-usage-json", false, "write a JSON pool-usage report per function to stderr")

	if err := compileCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(compileCmd)
}

func runCompileCmd(cmd *cobra.Command, args []string) {
	if cmdutil.GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}

	input := args[0]
	output := cmdutil.GetString(cmd, "output")

	logger := log.StandardLogger()

	c := compiler.New(logger, compiler.Options{
		ReportUsage:     cmdutil.GetFlag(cmd, "report-usage"),
		ReportUsageJSON: cmdutil.GetFlag(cmd, "report-usage-json"),
		Diagnostics:     os.Stderr,
	})

	var buf bytes.Buffer

	if err := c.CompileFile(input, &buf); err != nil {
		reportError(err)
		os.Exit(1)
	}

	if err := writeOutput(output, buf.Bytes()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if c.Options.ReportUsageJSON {
		encoded, err := json.Marshal(c.UsageReports)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Fprintln(os.Stderr, string(encoded))
	}
}

// writeOutput writes data to path, combining the write and close errors of
// the output sink into a single error rather than silently dropping
// whichever one isn't checked first.
func writeOutput(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	_, writeErr := f.Write(data)
	closeErr := f.Close()

	return multierr.Combine(writeErr, closeErr)
}

// reportError prints err with span highlighting if it carries one.
func reportError(err error) {
	if ce, ok := err.(*source.CompileError); ok {
		fmt.Fprintln(os.Stderr, ce.Render(term.IsTerminal(int(os.Stderr.Fd()))))

		return
	}

	fmt.Fprintln(os.Stderr, err)
}
