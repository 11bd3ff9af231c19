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
package diag

import (
	"fmt"
	"strings"

	"github.com/consensys/go-mau/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// Category classifies a diagnostic.  Everything except Warning counts as an
// error and causes the enclosing compilation to be marked as failed.
type Category uint8

const (
	// Overlimit indicates some hardware budget (bytes, bits, comparators,
	// register file rows, instruction slots) was exceeded.
	Overlimit Category = iota
	// Unsupported indicates an expression or statement shape which cannot be
	// encoded at all.
	Unsupported
	// UnsupportedOnTarget indicates a construct which is fine in general, but
	// not on the selected device.
	UnsupportedOnTarget
	// Invalid indicates a malformed input (e.g. mismatched widths).
	Invalid
	// NotFound indicates a reference to something which does not exist.
	NotFound
	// Warning indicates a suspicious but legal construct.
	Warning
)

var categoryNames = [...]string{"overlimit", "unsupported", "unsupported on target", "invalid", "not found", "warning"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	//
	return fmt.Sprintf("category(%d)", c)
}

// Diagnostic is a single user-facing message.
type Diagnostic struct {
	Category Category
	// Context names the table or action being compiled when this arose.
	Context string
	Message string
	// Span is optional, and nil when the message has no source location.
	Span *source.Span
}

// Errorf constructs a diagnostic of a given category.
func Errorf(cat Category, format string, args ...any) Diagnostic {
	return Diagnostic{Category: cat, Message: fmt.Sprintf(format, args...)}
}

// Warnf constructs a warning.
func Warnf(format string, args ...any) Diagnostic {
	return Errorf(Warning, format, args...)
}

// IsError returns true for anything which is not a warning.
func (d Diagnostic) IsError() bool {
	return d.Category != Warning
}

// In returns a copy of this diagnostic attributed to a given context.
func (d Diagnostic) In(context string) Diagnostic {
	if d.Context == "" {
		d.Context = context
	}
	//
	return d
}

// At returns a copy of this diagnostic with a source location.
func (d Diagnostic) At(span source.Span) Diagnostic {
	d.Span = &span
	return d
}

func (d Diagnostic) Error() string {
	var builder strings.Builder
	//
	if d.Context != "" {
		builder.WriteString(d.Context)
		builder.WriteString(": ")
	}
	//
	builder.WriteString(d.Category.String())
	builder.WriteString(": ")
	builder.WriteString(d.Message)
	//
	return builder.String()
}

// HasErrors checks whether a list of diagnostics contains at least one error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	//
	return false
}

// Sink accumulates diagnostics for a whole compilation.  Passes keep going
// after reporting an error, so that as many problems as possible are surfaced
// in one run; callers check ErrorCount() between phases.
type Sink struct {
	diags  []Diagnostic
	errors uint
}

// NewSink constructs an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Report adds zero or more diagnostics to this sink.
func (p *Sink) Report(diags ...Diagnostic) {
	for _, d := range diags {
		if d.IsError() {
			p.errors++
			log.Debugf("error: %s", d.Error())
		} else {
			log.Warn(d.Error())
		}
		//
		p.diags = append(p.diags, d)
	}
}

// ReportIn adds diagnostics attributed to a given context.
func (p *Sink) ReportIn(context string, diags ...Diagnostic) {
	for _, d := range diags {
		p.Report(d.In(context))
	}
}

// ErrorCount returns the number of errors (i.e. excluding warnings) reported so
// far.
func (p *Sink) ErrorCount() uint {
	return p.errors
}

// Diagnostics returns everything reported so far, in order.
func (p *Sink) Diagnostics() []Diagnostic {
	return p.diags
}

// Errors returns only those diagnostics which are errors.
func (p *Sink) Errors() []Diagnostic {
	var errs []Diagnostic
	//
	for _, d := range p.diags {
		if d.IsError() {
			errs = append(errs, d)
		}
	}
	//
	return errs
}
