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
package gateway

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	log "github.com/sirupsen/logrus"
)

// Table is a gateway compiled for a given device.
type Table struct {
	Name       string     `json:"name"`
	Rows       []MatchRow `json:"rows"`
	Default    string     `json:"default"`
	Layout     *Layout    `json:"layout"`
	Successors []string   `json:"successors"`
}

// MatchRow is a single compiled row of a gateway.
type MatchRow struct {
	// Canonical condition matched by this row.
	Cond  ir.Expr     `json:"-"`
	Match TernaryWord `json:"match"`
	Next  string      `json:"next"`
}

// Compile a gateway for a given device.  The rows are canonicalised, their
// uses of fields are laid out in the search word and, finally, each row is
// turned into a ternary match.  Rows which can never match are dropped.
func Compile(name string, rows []Row, spec *device.GatewaySpec) (*Table, []diag.Diagnostic) {
	canon, diags := CanonicalizeRows(rows)
	//
	if diag.HasErrors(diags) {
		return nil, diags
	}
	//
	var (
		body  = canon[:len(canon)-1]
		conds = make([]ir.Expr, len(body))
		table = &Table{Name: name, Default: canon[len(canon)-1].Next}
	)
	//
	if uint(len(body)) > spec.MaxRows {
		return nil, append(diags, diag.Errorf(diag.Overlimit, "gateway %s needs %d rows, limit is %d", name,
			len(body), spec.MaxRows))
	}
	//
	for i, r := range body {
		conds[i] = r.Cond
	}
	//
	layout, errs := AllocateLayout(CollectUsage(conds...), spec)
	//
	if len(errs) > 0 {
		return nil, append(diags, errs...)
	}
	//
	table.Layout = layout
	//
	for _, r := range body {
		if word, ok := BuildMatch(r.Cond, layout); ok {
			table.Rows = append(table.Rows, MatchRow{r.Cond, word, r.Next})
		} else {
			log.Debugf("gateway %s row %s never matches", name, r.Cond.String())
		}
	}
	//
	table.Successors = successors(table.Rows, table.Default)
	//
	for _, r := range rows {
		if !slices.Contains(table.Successors, r.Next) {
			log.Debugf("gateway %s no longer reaches %s", name, r.Next)
		}
	}
	//
	return table, diags
}

func successors(rows []MatchRow, deflt string) []string {
	labels := []string{deflt}
	//
	for _, r := range rows {
		labels = append(labels, r.Next)
	}
	//
	slices.Sort(labels)
	//
	return slices.Compact(labels)
}

// Lookup determines the next stage chosen by the gateway for given field
// values and header validities.
func (p *Table) Lookup(fields map[string]uint64, valid map[string]bool) string {
	word := p.Layout.Encode(fields, valid)
	//
	for _, r := range p.Rows {
		if r.Match.Matches(word) {
			return r.Next
		}
	}
	//
	return p.Default
}

func (p *Table) String() string {
	var builder strings.Builder
	//
	builder.WriteString(fmt.Sprintf("gateway %s (%d bytes, %d bits)\n", p.Name, p.Layout.Bytes, p.Layout.Bits))
	//
	for _, s := range p.Layout.Slots {
		builder.WriteString(fmt.Sprintf("  input %s\n", s.String()))
	}
	//
	for i, r := range p.Rows {
		builder.WriteString(fmt.Sprintf("  %d: %s -> %s   # %s\n", i, r.Match.String(), r.Next, r.Cond.String()))
	}
	//
	builder.WriteString(fmt.Sprintf("  default -> %s\n", p.Default))
	//
	return builder.String()
}

// ============================================================================
// Tables as gateways
// ============================================================================

// MatchKind identifies how a table key is matched.
type MatchKind uint8

const (
	// MatchExact matches keys against values.
	MatchExact MatchKind = iota
	// MatchTernary matches keys against masked values.
	MatchTernary
	// MatchLpm matches keys against prefixes.
	MatchLpm
	// MatchRange matches keys against intervals.
	MatchRange
)

// ParseMatchKind converts the name of a match kind (e.g. "exact").
func ParseMatchKind(name string) (MatchKind, bool) {
	switch name {
	case "exact":
		return MatchExact, true
	case "ternary":
		return MatchTernary, true
	case "lpm":
		return MatchLpm, true
	case "range":
		return MatchRange, true
	default:
		return MatchExact, false
	}
}

// Key is a match key of a table.
type Key struct {
	Expr ir.Expr
	Kind MatchKind
}

// PatternKind identifies the shape of a pattern within a table entry.
type PatternKind uint8

const (
	// PatternAny matches everything.
	PatternAny PatternKind = iota
	// PatternExact matches a single value.
	PatternExact
	// PatternMasked matches a value under a mask.
	PatternMasked
	// PatternInterval matches an inclusive interval.
	PatternInterval
)

// Pattern is a constant pattern for one key.  For masked patterns, Arg holds
// the mask whilst for intervals it holds the upper bound.
type Pattern struct {
	Kind  PatternKind
	Value big.Int
	Arg   big.Int
}

// Entry is a constant entry of a table.
type Entry struct {
	Patterns []Pattern
	Next     string
}

// FromConstEntries constructs the gateway rows equivalent to a table whose
// entries are all constant.
func FromConstEntries(keys []Key, entries []Entry, deflt string) ([]Row, []diag.Diagnostic) {
	var (
		rows  []Row
		diags []diag.Diagnostic
	)
	//
	for i, e := range entries {
		if len(e.Patterns) != len(keys) {
			diags = append(diags, diag.Errorf(diag.Invalid, "entry %d has %d patterns, expected %d", i,
				len(e.Patterns), len(keys)))
			//
			continue
		}
		//
		var terms []ir.Expr
		//
		for j, p := range e.Patterns {
			if t, ok := keyCondition(keys[j], p); !ok {
				diags = append(diags, diag.Errorf(diag.Invalid, "pattern not permitted for key %s", keys[j].Expr.String()))
			} else if t != nil {
				terms = append(terms, t)
			}
		}
		//
		rows = append(rows, Row{ir.And(terms...), e.Next})
	}
	//
	return append(rows, Row{nil, deflt}), diags
}

func keyCondition(key Key, p Pattern) (ir.Expr, bool) {
	switch {
	case p.Kind == PatternAny:
		return nil, true
	case p.Kind == PatternExact:
		return ir.NewBinary(ir.Eq, key.Expr, ir.BigConst(&p.Value, 0, false)), true
	case p.Kind == PatternMasked && key.Kind != MatchExact && key.Kind != MatchRange:
		masked := ir.NewBinary(ir.BAnd, key.Expr, ir.BigConst(&p.Arg, 0, false))
		//
		return ir.NewBinary(ir.Eq, masked, ir.BigConst(&p.Value, 0, false)), true
	case p.Kind == PatternInterval && key.Kind == MatchRange:
		lo := ir.NewBinary(ir.Ge, key.Expr, ir.BigConst(&p.Value, 0, false))
		hi := ir.NewBinary(ir.Le, key.Expr, ir.BigConst(&p.Arg, 0, false))
		//
		return ir.And(lo, hi), true
	}
	//
	return nil, false
}

// FitsGateway checks whether a table whose entries are all constant can be
// executed entirely by a gateway on the given device.
func FitsGateway(keys []Key, entries []Entry, deflt string, spec *device.GatewaySpec) bool {
	usage, diags := CollectKeyUsage(keys)
	// Keys must, at least, fit on their own.
	if len(diags) > 0 {
		return false
	} else if _, diags = AllocateLayout(usage, spec); len(diags) > 0 {
		return false
	}
	//
	rows, diags := FromConstEntries(keys, entries, deflt)
	//
	if diag.HasErrors(diags) {
		return false
	}
	//
	_, diags = Compile("", rows, spec)
	//
	return !diag.HasErrors(diags)
}
