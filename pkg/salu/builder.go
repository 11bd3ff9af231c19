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
package salu

import (
	"fmt"

	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	log "github.com/sirupsen/logrus"
)

// Builder accumulates the register actions executed by a single stateful ALU.
// Actions are added one at a time, where an action which cannot be
// implemented is reported and discarded without affecting those already
// added.
type Builder struct {
	spec *device.SaluSpec
	// math units declared in the enclosing program
	units     []MathUnitDecl
	unit      Unit
	finalized bool
}

// NewBuilder constructs a builder for a given register on a stateful ALU with
// the given characteristics.
func NewBuilder(spec *device.SaluSpec, reg Register, units ...MathUnitDecl) *Builder {
	return &Builder{
		spec:  spec,
		units: units,
		unit:  Unit{Register: reg, comparators: spec.CmpUnits},
	}
}

// Register returns the register being built for.
func (p *Builder) Register() Register {
	return p.unit.Register
}

// snapshot of the state shared between actions
type snapshot struct {
	regfile RegFile
	math    *MathUnit
	inputs  []Input
}

func (p *Builder) save() snapshot {
	return snapshot{p.unit.RegFile.clone(), p.unit.Math, append([]Input(nil), p.unit.Inputs...)}
}

func (p *Builder) restore(s snapshot) {
	p.unit.RegFile = s.regfile
	p.unit.Math = s.math
	p.unit.Inputs = s.inputs
}

// AddAction synthesises the instruction for a given register action.  If this
// fails, the returned diagnostics contain at least one error and the builder
// is left as it was before the call.
func (p *Builder) AddAction(action Action) []diag.Diagnostic {
	diag.Check(!p.finalized, "action %s added to finalized stateful ALU %s", action.Name, p.unit.Register.Name)
	//
	var (
		context = fmt.Sprintf("register action %s", action.Name)
		saved   = p.save()
		diags   []diag.Diagnostic
		code    *Code
	)
	//
	if errs := checkRegister(p.unit.Register, p.spec); len(errs) > 0 {
		diags = errs
	} else if p.unit.Action(action.Name) != nil {
		diags = append(diags, diag.Errorf(diag.Invalid, "duplicate register action").At(action.Span))
	} else {
		code, diags = newSynth(p, action).run()
	}
	// Shared resources are checked here so the action can be rolled back.
	if !diag.HasErrors(diags) {
		diags = append(diags, checkResources(&p.unit, p.spec)...)
	}
	//
	for i := range diags {
		diags[i] = diags[i].In(context)
	}
	//
	if diag.HasErrors(diags) {
		p.restore(saved)
		//
		log.Debugf("discarded %s on %s", context, p.unit.Register.Name)
		//
		return diags
	}
	//
	p.unit.Actions = append(p.unit.Actions, code)
	//
	log.Debugf("added %s to %s (%d instructions)", context, p.unit.Register.Name, len(code.Instructions))
	//
	return diags
}

// Finalize completes the stateful ALU, adding any implicit actions, and checks
// it against the limits of the device.  The builder cannot be used afterwards.
func (p *Builder) Finalize() (*Unit, []diag.Diagnostic) {
	diag.Check(!p.finalized, "stateful ALU %s finalized twice", p.unit.Register.Name)
	//
	p.finalized = true
	//
	if reg := p.unit.Register; reg.Width == 1 && !reg.Dual {
		if reg.Selector {
			p.inject("$set_bit", OpSetBit)
		}
		//
		if reg.Selector || p.spec.FastClear {
			p.inject("$clr_bit", OpClrBit)
		}
	}
	//
	return &p.unit, Check(&p.unit, p.spec)
}

// inject an implicit one-bit action, unless an equivalent action exists
// already.
func (p *Builder) inject(name string, op Opcode) {
	for _, c := range p.unit.Actions {
		if alus := c.Alus(); len(alus) == 1 && alus[0].Opcode == op && len(c.Outputs()) == 0 {
			return
		}
	}
	//
	instr := Instruction{Unit: UnitAluLo, Opcode: op, Pred: Always(p.spec.Comparators()), Dest: p.unit.Register.Name}
	p.unit.Actions = append(p.unit.Actions, &Code{Name: name, Instructions: []Instruction{instr}})
}

// input returns the PHV input word holding a given field, allocating one if
// necessary.
func (p *Builder) input(field string, width uint) uint {
	var next uint
	//
	for _, in := range p.unit.Inputs {
		if in.Field == field {
			return in.Word
		}
		//
		next = max(next, in.Word+in.Words())
	}
	//
	p.unit.Inputs = append(p.unit.Inputs, Input{field, next, width})
	//
	return next
}

func (p *Builder) mathUnit(name string) (MathUnitDecl, bool) {
	for _, u := range p.units {
		if u.Name == name {
			return u, true
		}
	}
	//
	return MathUnitDecl{}, false
}
