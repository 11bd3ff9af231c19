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
	"strings"

	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/util/source"
)

// Register describes the register accessed by a stateful ALU.
type Register struct {
	Name   string
	Width  uint
	Signed bool
	// Dual indicates each entry is a pair of values, each of the given width.
	Dual bool
	// Selector indicates the register holds the members of an action selector,
	// whose bits are set and cleared by the control plane.
	Selector bool
}

// Words returns the number of ALU words occupied by one entry of this
// register.
func (r Register) Words() uint {
	if r.Dual {
		return 2
	}
	//
	return (r.Width + device.AluWidth - 1) / device.AluWidth
}

func (r Register) String() string {
	var kind = "bit"
	//
	if r.Signed {
		kind = "int"
	}
	//
	if r.Dual {
		return fmt.Sprintf("pair<%s<%d>>", kind, r.Width)
	}
	//
	return fmt.Sprintf("%s<%d>", kind, r.Width)
}

// Action is a register action, whose body is executed atomically against one
// entry of a register.
type Action struct {
	// Extern is the type of the action, such as "RegisterAction".
	Extern string
	Name   string
	// Method is the method implemented, such as "apply".
	Method string
	// Params are the parameters of the method, the first being the register
	// value itself.
	Params []*ir.Field
	Body   []ir.Stmt
	Span   source.Span
}

// Input is a PHV field presented to a stateful ALU.
type Input struct {
	Field string
	// Word is the first PHV input word occupied.
	Word  uint
	Width uint
}

// Words returns the number of PHV input words occupied.
func (p Input) Words() uint {
	return (p.Width + device.AluWidth - 1) / device.AluWidth
}

// Code is the instruction generated for one register action, made up from
// the operations of each unit involved.
type Code struct {
	Name         string
	Instructions []Instruction
}

// Filter returns those instructions executed by a given unit (or units).
func (p *Code) Filter(units ...string) []Instruction {
	var instrs []Instruction
	//
	for _, instr := range p.Instructions {
		for _, u := range units {
			if instr.Unit == u {
				instrs = append(instrs, instr)
				break
			}
		}
	}
	//
	return instrs
}

// Comparators returns the comparator operations of this instruction.
func (p *Code) Comparators() []Instruction {
	var instrs []Instruction
	//
	for _, instr := range p.Instructions {
		if instr.IsComparator() {
			instrs = append(instrs, instr)
		}
	}
	//
	return instrs
}

// Outputs returns the output operations of this instruction.
func (p *Code) Outputs() []Instruction {
	return p.Filter(UnitOutput)
}

// Alus returns the ALU operations of this instruction.
func (p *Code) Alus() []Instruction {
	return p.Filter(UnitAluLo, UnitAluHi)
}

// Unit is a stateful ALU together with everything allocated to it by the
// register actions executed on it.
type Unit struct {
	Register Register
	Actions  []*Code
	RegFile  RegFile
	Math     *MathUnit
	Inputs   []Input
	// names of the comparator units
	comparators []string
}

// Action returns the code generated for a given register action, or nil.
func (p *Unit) Action(name string) *Code {
	for _, c := range p.Actions {
		if c.Name == name {
			return c
		}
	}
	//
	return nil
}

func (p *Unit) String() string {
	var builder strings.Builder
	//
	builder.WriteString(fmt.Sprintf("stateful %s : %s\n", p.Register.Name, p.Register.String()))
	//
	for _, in := range p.Inputs {
		builder.WriteString(fmt.Sprintf("  input phv%s: %s\n", half(in.Word), in.Field))
	}
	//
	if p.RegFile.Len() > 0 {
		builder.WriteString(fmt.Sprintf("  regfile: %s\n", p.RegFile.String()))
	}
	//
	if p.Math != nil {
		builder.WriteString(fmt.Sprintf("  math: %s\n", p.Math.String()))
	}
	//
	for _, c := range p.Actions {
		builder.WriteString(fmt.Sprintf("  action %s:\n", c.Name))
		//
		for _, instr := range c.Instructions {
			builder.WriteString("    ")
			builder.WriteString(instr.Format(p.comparators))
			builder.WriteString("\n")
		}
	}
	//
	return builder.String()
}
