// Copyright Consensys Software Inc.
//
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
package cmd

import (
	"fmt"
	"os"

	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir/parser"
	"github.com/consensys/go-mau/pkg/util/source"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Exit codes used by all commands.
const (
	exitDiagnostics = 1
	exitFailure     = 2
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitFailure)
	}

	return r
}

// GetString gets an expected string flag, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitFailure)
	}

	return r
}

// Apply the logging level selected on the command line.
func configureLogging(cmd *cobra.Command) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
}

// Determine the target device, either a descriptor file given with --device
// or a built-in target given with --target.
func getDevice(cmd *cobra.Command) device.Device {
	var (
		dev device.Device
		err error
	)
	//
	if filename := GetString(cmd, "device"); filename != "" {
		dev, err = device.LoadFile(filename)
	} else {
		dev, err = device.Lookup(GetString(cmd, "target"))
	}
	//
	if err != nil {
		fmt.Println(err)
		os.Exit(exitFailure)
	}
	//
	log.Debugf("using target device %s", dev.Name)
	//
	return dev
}

// A parsed source file.
type unit struct {
	srcfile *source.File
	program *parser.Program
}

// Read and parse the given source files, printing syntax errors and exiting
// when any file fails to parse.
func readSourceFiles(filenames []string) []unit {
	srcfiles, err := source.ReadFiles(filenames...)
	if err != nil {
		fmt.Println(err)
		os.Exit(exitFailure)
	}
	//
	var (
		units  []unit
		failed bool
	)
	//
	for i := range srcfiles {
		srcfile := &srcfiles[i]
		prog, errs := parser.Parse(srcfile)
		//
		for _, e := range errs {
			printSyntaxError(&e)
		}
		//
		failed = failed || len(errs) > 0
		units = append(units, unit{srcfile, prog})
	}
	//
	if failed {
		os.Exit(exitFailure)
	}
	//
	return units
}

// Print a syntax error with the enclosing line and highlighting.
func printSyntaxError(err *source.SyntaxError) {
	fmt.Println(err.Format(terminalWidth()))
}

// Print the diagnostics of a compilation, returning true if any of them was
// an error.
func printDiagnostics(srcfile *source.File, sink *diag.Sink) bool {
	for _, d := range sink.Diagnostics() {
		if d.Span == nil {
			fmt.Printf("%s: %s\n", srcfile.Filename(), d.Error())
		} else {
			printSyntaxError(srcfile.SyntaxError(*d.Span, d.Error()))
		}
	}
	//
	return sink.ErrorCount() > 0
}

// Determine the width of the terminal attached to stdout, or zero (i.e. no
// limit) if stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	//
	if !term.IsTerminal(fd) {
		return 0
	}
	//
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	//
	return width
}
