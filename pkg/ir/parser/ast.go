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
package parser

import (
	"math/big"

	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/util/source"
)

// Program is the collection of declarations found in one source file.
type Program struct {
	Source    *source.File
	Fields    []*ir.Field
	Headers   []string
	Params    []*ir.Param
	Gateways  []*Gateway
	Tables    []*Table
	Registers []*Register
	MathUnits []*MathUnit
	Actions   []*Action
}

// Gateway is a named list of conditional rows terminated by a default.
type Gateway struct {
	Name    string
	Rows    []Row
	Default string
	Span    source.Span
}

// Row is a single "condition : label" entry of a gateway.
type Row struct {
	Cond ir.Expr
	Next string
	Span source.Span
}

// Table is a small match table whose entries are all given as constants.
type Table struct {
	Name    string
	Keys    []Key
	Entries []Entry
	Default string
	Span    source.Span
}

// Key is a single match key of a table, such as "hdr.f1 : exact".
type Key struct {
	Expr ir.Expr
	Kind string
}

// Entry is one constant entry of a table.
type Entry struct {
	Patterns []Pattern
	Next     string
	Span     source.Span
}

// PatternKind identifies the shape of a constant pattern within an entry.
type PatternKind uint8

const (
	// Any matches everything ("_").
	Any PatternKind = iota
	// Exact matches a single value.
	Exact
	// Masked matches "value &&& mask".
	Masked
	// Interval matches "lo .. hi" (inclusive).
	Interval
)

// Pattern is one element of an entry, whose interpretation depends on its
// kind.  For Masked, Arg is the mask and for Interval it is the upper bound.
type Pattern struct {
	Kind  PatternKind
	Value big.Int
	Arg   big.Int
}

// Register declares a stateful register, which is either a single value of
// a given width or (when Dual) a pair of such values.
type Register struct {
	Name   string
	Width  uint
	Signed bool
	Dual   bool
	Span   source.Span
}

// MathUnit declares a math unit bound to a given mathematical function.
type MathUnit struct {
	Name string
	Op   string
	Span source.Span
}

// Action is a register action, such as "RegisterAction count(r1) apply(value,
// rv) { ... }".
type Action struct {
	Extern   string
	Name     string
	Register string
	Method   string
	Params   []*ir.Field
	Body     []ir.Stmt
	Span     source.Span
}

// Lookup a register by name, returning nil if none exists.
func (p *Program) Lookup(name string) *Register {
	for _, r := range p.Registers {
		if r.Name == name {
			return r
		}
	}
	//
	return nil
}

// LookupMathUnit returns the math unit of a given name, or nil.
func (p *Program) LookupMathUnit(name string) *MathUnit {
	for _, m := range p.MathUnits {
		if m.Name == name {
			return m
		}
	}
	//
	return nil
}
