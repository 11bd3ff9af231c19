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
	"fmt"
	"strconv"
	"strings"

	"github.com/consensys/go-mau/pkg/util/source"
)

// DirectiveKind identifies what a directive line in a test file expects.
type DirectiveKind uint8

const (
	// TargetDirective selects the device to compile for.
	TargetDirective DirectiveKind = iota
	// ErrorDirective expects an error (or syntax error) containing some text.
	ErrorDirective
	// WarningDirective expects a warning containing some text.
	WarningDirective
	// LookupDirective expects a gateway to choose a given successor.
	LookupDirective
	// UnitDirective expects a register to be compiled with exactly the given
	// actions.
	UnitDirective
	// CodeDirective expects an action to contain a given instruction.
	CodeDirective
)

var directiveNames = map[string]DirectiveKind{
	"target":  TargetDirective,
	"error":   ErrorDirective,
	"warning": WarningDirective,
	"lookup":  LookupDirective,
	"unit":    UnitDirective,
	"code":    CodeDirective,
}

// Directive is an expectation given in a comment at the start of a test file,
// such as:
//
//	// lookup: t1 hdr.f1=5 +hdr.ipv4 -> hit
type Directive struct {
	Kind DirectiveKind
	// Line on which this directive was given (counting from 1).
	Line int
	// Text of this directive (following the colon).
	Text string
}

// Lookup is the decoded form of a lookup directive.
type Lookup struct {
	Gateway string
	Fields  map[string]uint64
	Valid   map[string]bool
	Next    string
}

// Extract a directive from a given line of the source file.
func extractDirective(lineno int, lines []source.Line, _ *source.File) (bool, Directive, error) {
	var (
		line     = lines[lineno]
		contents = strings.TrimSpace(line.String())
	)
	//
	if !strings.HasPrefix(contents, "//") {
		return false, Directive{}, nil
	}
	//
	key, text, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(contents, "//")), ":")
	if !ok {
		return false, Directive{}, nil
	}
	//
	kind, ok := directiveNames[key]
	if !ok {
		return true, Directive{}, fmt.Errorf("line %d: unknown directive \"%s\"", line.Number(), key)
	}
	//
	return true, Directive{kind, line.Number(), strings.TrimSpace(text)}, nil
}

// Lookup decodes a lookup directive of the form "gateway [name=value|+header]*
// -> next".
func (p *Directive) Lookup() (Lookup, error) {
	lhs, next, ok := strings.Cut(p.Text, "->")
	words := strings.Fields(lhs)
	//
	if !ok || len(words) == 0 {
		return Lookup{}, fmt.Errorf("line %d: malformed lookup \"%s\"", p.Line, p.Text)
	}
	//
	lookup := Lookup{words[0], make(map[string]uint64), make(map[string]bool), strings.TrimSpace(next)}
	//
	for _, w := range words[1:] {
		if header, ok := strings.CutPrefix(w, "+"); ok {
			lookup.Valid[header] = true
			continue
		}
		//
		name, value, ok := strings.Cut(w, "=")
		if !ok {
			return Lookup{}, fmt.Errorf("line %d: malformed binding \"%s\"", p.Line, w)
		}
		//
		v, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return Lookup{}, fmt.Errorf("line %d: invalid value \"%s\" (%s)", p.Line, value, err.Error())
		}
		//
		lookup.Fields[name] = v
	}
	//
	return lookup, nil
}

// Code decodes a code directive of the form "register action instruction".
func (p *Directive) Code() (register string, action string, instr string, err error) {
	words := strings.SplitN(p.Text, " ", 3)
	//
	if len(words) != 3 {
		return "", "", "", fmt.Errorf("line %d: malformed code \"%s\"", p.Line, p.Text)
	}
	//
	return words[0], words[1], words[2], nil
}
