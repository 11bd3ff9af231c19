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
package util

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/consensys/go-mau/pkg/compiler"
	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir/parser"
	"github.com/consensys/go-mau/pkg/salu"
	"github.com/consensys/go-mau/pkg/util/source"
)

// TestDir determines the (relative) location of the test directory.  That is
// where the test programs and their expectations are found.
const TestDir = "../../testdata"

// CheckValid checks that a given test program compiles without errors, and
// that all of its lookup, unit and code directives hold.
func CheckValid(t *testing.T, test string) {
	var (
		srcfile, directives = readTestFile(t, test)
		result, sink, errs  = compileTestFile(t, srcfile, directives)
	)
	//
	if len(errs) > 0 || sink.ErrorCount() > 0 {
		t.Fatalf("%s should have compiled:\n%s", srcfile.Filename(), report(errs, sink))
	}
	//
	checkDiagnostics(t, srcfile, directives, nil, sink)
	//
	for _, d := range directives {
		switch d.Kind {
		case LookupDirective:
			checkLookup(t, srcfile, d, result)
		case UnitDirective:
			checkUnit(t, srcfile, d, result)
		case CodeDirective:
			checkCode(t, srcfile, d, result, targetOf(t, directives))
		}
	}
}

// CheckInvalid checks that a given test program fails to compile, and that
// the errors reported are exactly those expected.
func CheckInvalid(t *testing.T, test string) {
	var (
		srcfile, directives = readTestFile(t, test)
		_, sink, errs       = compileTestFile(t, srcfile, directives)
	)
	//
	if len(errs) == 0 && sink.ErrorCount() == 0 {
		t.Fatalf("%s should not have compiled", srcfile.Filename())
	}
	//
	checkDiagnostics(t, srcfile, directives, errs, sink)
}

func readTestFile(t *testing.T, test string) (*source.File, []Directive) {
	var filename = fmt.Sprintf("%s/%s.mau", TestDir, test)
	// Enable testing each program in parallel
	t.Parallel()
	// Read program file
	bytes, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	// Package up as source file
	srcfile := source.NewSourceFile(filename, bytes)
	// Extract directives
	directives, errs := ExtractAttributes(srcfile, extractDirective)
	if len(errs) > 0 {
		t.Fatal(errors.Join(errs...))
	}
	//
	return srcfile, directives
}

// Determine the target device named by the test file, or the default target.
func targetOf(t *testing.T, directives []Directive) *device.Device {
	var name = device.DefaultTarget
	//
	for _, d := range directives {
		if d.Kind == TargetDirective {
			name = d.Text
		}
	}
	//
	dev, err := device.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	//
	return &dev
}

func compileTestFile(t *testing.T, srcfile *source.File, directives []Directive) (compiler.Result, *diag.Sink,
	[]source.SyntaxError) {
	var sink = diag.NewSink()
	//
	prog, errs := parser.Parse(srcfile)
	if len(errs) > 0 {
		return compiler.Result{}, sink, errs
	}
	//
	return compiler.Compile(prog, targetOf(t, directives), sink), sink, nil
}

// Check the syntax errors or diagnostics reported match, in order, the error
// and warning directives.
func checkDiagnostics(t *testing.T, srcfile *source.File, directives []Directive, errs []source.SyntaxError,
	sink *diag.Sink) {
	var (
		expected []Directive
		actual   []string
		kinds    []DirectiveKind
	)
	//
	for _, d := range directives {
		if d.Kind == ErrorDirective || d.Kind == WarningDirective {
			expected = append(expected, d)
		}
	}
	//
	for _, e := range errs {
		actual = append(actual, e.Message())
		kinds = append(kinds, ErrorDirective)
	}
	//
	for _, d := range sink.Diagnostics() {
		actual = append(actual, d.Error())
		//
		if d.IsError() {
			kinds = append(kinds, ErrorDirective)
		} else {
			kinds = append(kinds, WarningDirective)
		}
	}
	//
	ok := len(expected) == len(actual)
	//
	for i := 0; ok && i < len(expected); i++ {
		ok = expected[i].Kind == kinds[i] && strings.Contains(actual[i], expected[i].Text)
	}
	//
	if !ok {
		var msg strings.Builder
		//
		fmt.Fprintf(&msg, "%s\n", srcfile.Filename())
		//
		for _, e := range expected {
			fmt.Fprintf(&msg, "expected (line %d): %s\n", e.Line, e.Text)
		}
		//
		for _, a := range actual {
			fmt.Fprintf(&msg, "actual: %s\n", a)
		}
		//
		t.Fatal(msg.String())
	}
}

func checkLookup(t *testing.T, srcfile *source.File, d Directive, result compiler.Result) {
	lookup, err := d.Lookup()
	if err != nil {
		t.Fatal(err)
	}
	//
	table := result.Gateway(lookup.Gateway)
	if table == nil {
		t.Fatalf("%s:%d: gateway %s not compiled", srcfile.Filename(), d.Line, lookup.Gateway)
	}
	//
	if next := table.Lookup(lookup.Fields, lookup.Valid); next != lookup.Next {
		t.Errorf("%s:%d: gateway %s chose %s, expected %s\n%s", srcfile.Filename(), d.Line, lookup.Gateway, next,
			lookup.Next, table.String())
	}
}

func checkUnit(t *testing.T, srcfile *source.File, d Directive, result compiler.Result) {
	var (
		words   = strings.Fields(d.Text)
		actions []string
	)
	//
	if len(words) == 0 {
		t.Fatalf("%s:%d: malformed unit directive", srcfile.Filename(), d.Line)
	}
	//
	unit := result.Unit(words[0])
	if unit == nil {
		t.Fatalf("%s:%d: register %s not compiled", srcfile.Filename(), d.Line, words[0])
	}
	//
	for _, a := range unit.Actions {
		actions = append(actions, a.Name)
	}
	//
	if !slices.Equal(actions, words[1:]) {
		t.Errorf("%s:%d: register %s has actions %v, expected %v", srcfile.Filename(), d.Line, words[0], actions,
			words[1:])
	}
}

func checkCode(t *testing.T, srcfile *source.File, d Directive, result compiler.Result, dev *device.Device) {
	register, action, instr, err := d.Code()
	if err != nil {
		t.Fatal(err)
	}
	//
	unit := result.Unit(register)
	if unit == nil {
		t.Fatalf("%s:%d: register %s not compiled", srcfile.Filename(), d.Line, register)
	}
	//
	code := unit.Action(action)
	if code == nil {
		t.Fatalf("%s:%d: register %s has no action %s", srcfile.Filename(), d.Line, register, action)
	}
	//
	if listing := formatCode(code, dev.Salu.CmpUnits); !slices.Contains(listing, instr) {
		t.Errorf("%s:%d: action %s has no instruction \"%s\"\n%s", srcfile.Filename(), d.Line, action, instr,
			strings.Join(listing, "\n"))
	}
}

func formatCode(code *salu.Code, units []string) []string {
	var listing []string
	//
	for _, in := range code.Instructions {
		listing = append(listing, in.Format(units))
	}
	//
	return listing
}

func report(errs []source.SyntaxError, sink *diag.Sink) string {
	var msg strings.Builder
	//
	for _, e := range errs {
		msg.WriteString(e.Format(0))
		msg.WriteString("\n")
	}
	//
	for _, d := range sink.Diagnostics() {
		msg.WriteString(d.Error())
		msg.WriteString("\n")
	}
	//
	return msg.String()
}
