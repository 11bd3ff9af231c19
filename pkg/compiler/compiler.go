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
package compiler

import (
	"fmt"

	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/gateway"
	"github.com/consensys/go-mau/pkg/ir/parser"
	"github.com/consensys/go-mau/pkg/salu"
	"github.com/consensys/go-mau/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// Result holds everything generated from a program.  Gateways and stateful
// ALUs which could not be generated are absent, with the reasons reported
// through the sink.
type Result struct {
	Gateways []*gateway.Table `json:"gateways"`
	Units    []*salu.Unit     `json:"-"`
}

// Unit returns the stateful ALU generated for a given register, or nil.
func (p *Result) Unit(register string) *salu.Unit {
	for _, u := range p.Units {
		if u.Register.Name == register {
			return u
		}
	}
	//
	return nil
}

// Gateway returns the gateway generated with a given name, or nil.
func (p *Result) Gateway(name string) *gateway.Table {
	for _, t := range p.Gateways {
		if t.Name == name {
			return t
		}
	}
	//
	return nil
}

// Compile generates code for every gateway, constant table and register
// action of a program.  A failure in one does not prevent the remainder being
// generated.
func Compile(prog *parser.Program, dev *device.Device, sink *diag.Sink) Result {
	return NewCompiler(prog, dev, sink).Compile()
}

// Compiler packages up everything needed to generate code for a program on a
// given device.
type Compiler struct {
	prog *parser.Program
	dev  *device.Device
	// All diagnostics are reported here
	sink *diag.Sink
	// Gateways can be disabled (e.g. by the CLI)
	gateways bool
	// Stateful ALUs can be disabled (e.g. by the CLI)
	units bool
}

// NewCompiler constructs a compiler for a given program and device.
func NewCompiler(prog *parser.Program, dev *device.Device, sink *diag.Sink) *Compiler {
	return &Compiler{prog, dev, sink, true, true}
}

// Only restricts the compiler to generating gateways and/or stateful ALUs.
func (p *Compiler) Only(gateways bool, units bool) *Compiler {
	p.gateways = gateways
	p.units = units
	//
	return p
}

// Compile the program.
func (p *Compiler) Compile() Result {
	var result Result
	//
	if p.gateways {
		for _, gw := range p.prog.Gateways {
			if table := p.compileGateway(gw); table != nil {
				result.Gateways = append(result.Gateways, table)
			}
		}
		//
		for _, tbl := range p.prog.Tables {
			if table := p.compileTable(tbl); table != nil {
				result.Gateways = append(result.Gateways, table)
			}
		}
	}
	//
	if p.units {
		p.checkActions()
		//
		for _, reg := range p.prog.Registers {
			if unit := p.compileRegister(reg); unit != nil {
				result.Units = append(result.Units, unit)
			}
		}
	}
	//
	return result
}

func (p *Compiler) compileGateway(gw *parser.Gateway) *gateway.Table {
	var (
		context = fmt.Sprintf("gateway %s", gw.Name)
		rows    = make([]gateway.Row, 0, len(gw.Rows)+1)
	)
	//
	for _, r := range gw.Rows {
		rows = append(rows, gateway.Row{Cond: r.Cond, Next: r.Next})
	}
	//
	rows = append(rows, gateway.Row{Next: gw.Default})
	//
	table, diags := gateway.Compile(gw.Name, rows, &p.dev.Gateway)
	p.report(context, gw.Span, diags)
	//
	if diag.HasErrors(diags) {
		return nil
	}
	//
	log.Debugf("%s uses %d rows", context, len(table.Rows))
	//
	return table
}

// compileTable generates a gateway for a table with constant entries, when
// this is possible.  Otherwise, it is left for a match table.
func (p *Compiler) compileTable(tbl *parser.Table) *gateway.Table {
	var (
		context = fmt.Sprintf("table %s", tbl.Name)
		keys    []gateway.Key
		entries []gateway.Entry
		diags   []diag.Diagnostic
	)
	//
	for _, k := range tbl.Keys {
		if kind, ok := gateway.ParseMatchKind(k.Kind); ok {
			keys = append(keys, gateway.Key{Expr: k.Expr, Kind: kind})
		} else {
			diags = append(diags, diag.Errorf(diag.Invalid, "unknown match kind %s", k.Kind))
		}
	}
	//
	for _, e := range tbl.Entries {
		entries = append(entries, convertEntry(e))
	}
	//
	if diag.HasErrors(diags) {
		p.report(context, tbl.Span, diags)
		return nil
	} else if !gateway.FitsGateway(keys, entries, tbl.Default, &p.dev.Gateway) {
		p.report(context, tbl.Span, []diag.Diagnostic{diag.Warnf("does not fit in a gateway")})
		return nil
	}
	//
	rows, diags := gateway.FromConstEntries(keys, entries, tbl.Default)
	//
	if !diag.HasErrors(diags) {
		var table *gateway.Table
		//
		table, diags = gateway.Compile(tbl.Name, rows, &p.dev.Gateway)
		//
		if !diag.HasErrors(diags) {
			p.report(context, tbl.Span, diags)
			return table
		}
	}
	//
	p.report(context, tbl.Span, diags)
	//
	return nil
}

func convertEntry(e parser.Entry) gateway.Entry {
	var entry = gateway.Entry{Next: e.Next}
	//
	for _, pat := range e.Patterns {
		var kind gateway.PatternKind
		//
		switch pat.Kind {
		case parser.Any:
			kind = gateway.PatternAny
		case parser.Exact:
			kind = gateway.PatternExact
		case parser.Masked:
			kind = gateway.PatternMasked
		default:
			kind = gateway.PatternInterval
		}
		//
		entry.Patterns = append(entry.Patterns, gateway.Pattern{Kind: kind, Value: pat.Value, Arg: pat.Arg})
	}
	//
	return entry
}

// checkActions reports any action on an undeclared register.
func (p *Compiler) checkActions() {
	for _, a := range p.prog.Actions {
		if p.prog.Lookup(a.Register) == nil {
			p.report(fmt.Sprintf("register action %s", a.Name), a.Span,
				[]diag.Diagnostic{diag.Errorf(diag.NotFound, "unknown register %s", a.Register)})
		}
	}
}

// compileRegister generates the stateful ALU for a register, by adding each of
// its actions in turn.
func (p *Compiler) compileRegister(reg *parser.Register) *salu.Unit {
	var (
		actions []*parser.Action
		units   []salu.MathUnitDecl
		r       = salu.Register{Name: reg.Name, Width: reg.Width, Signed: reg.Signed, Dual: reg.Dual}
	)
	//
	for _, a := range p.prog.Actions {
		if a.Register == reg.Name {
			actions = append(actions, a)
			r.Selector = r.Selector || a.Extern == "SelectorAction"
		}
	}
	//
	if len(actions) == 0 {
		log.Debugf("register %s has no actions", reg.Name)
		return nil
	}
	//
	for _, m := range p.prog.MathUnits {
		units = append(units, salu.MathUnitDecl{Name: m.Name, Op: m.Op})
	}
	//
	builder := salu.NewBuilder(&p.dev.Salu, r, units...)
	//
	for _, a := range actions {
		diags := builder.AddAction(salu.Action{
			Extern: a.Extern, Name: a.Name, Method: a.Method, Params: a.Params, Body: a.Body, Span: a.Span,
		})
		p.report(fmt.Sprintf("register action %s", a.Name), a.Span, diags)
	}
	//
	unit, diags := builder.Finalize()
	p.report(fmt.Sprintf("register %s", reg.Name), reg.Span, diags)
	//
	if diag.HasErrors(diags) {
		return nil
	}
	//
	return unit
}

// report diagnostics in a given context, attributing those without a location
// to the enclosing declaration.
func (p *Compiler) report(context string, span source.Span, diags []diag.Diagnostic) {
	for _, d := range diags {
		if d.Span == nil {
			d = d.At(span)
		}
		//
		p.sink.ReportIn(context, d)
	}
}
