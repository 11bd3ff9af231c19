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
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
)

// output assigns a value to an output parameter.
func (p *synth) output(f *ir.Field, rhs ir.Expr, pred Predicate) {
	p.mode = modeOutput
	//
	switch call, _ := rhs.(*ir.Call); {
	case ir.IsBoolean(rhs):
		if q, ok := p.condition(rhs); ok && !pred.And(q).IsNever() {
			p.emitOutput(f, Operand{Kind: Immediate, Value: 1, Width: 1}, pred.And(q))
		}
	case call != nil && ir.IsMinMaxVector(call.Func):
		p.vector(f, call, pred)
	case p.isOperand(rhs):
		if o, ok := p.operand(rhs); ok {
			p.emitOutput(f, o, pred)
		}
	default:
		p.computedOutput(f, rhs, pred)
	}
}

func (p *synth) emitOutput(f *ir.Field, o Operand, pred Predicate) {
	p.emit(&p.outputs, Instruction{
		Unit: UnitOutput, Opcode: OpOutput, Operands: []Operand{o}, Pred: pred, Dest: f.Name,
	})
}

// computedOutput outputs a value computed by the upper ALU, which is only
// available when the register occupies the lower ALU alone.
func (p *synth) computedOutput(f *ir.Field, rhs ir.Expr, pred Predicate) {
	p.mode = modeValue
	//
	if p.reg.Dual || p.reg.Words() > 1 {
		p.fail(diag.Unsupported, "computed output %s requires a single register of at most 32 bits", rhs)
		return
	}
	//
	c, ok := p.compute(rhs)
	//
	if !ok {
		return
	}
	//
	instr := Instruction{Opcode: c.op, Signed: c.signed, Operands: c.operands, Pred: pred, Word: 1}
	//
	for _, e := range p.alus {
		if e.Dest == "" && !e.SameOperation(&instr) {
			p.fail(diag.Overlimit, "only one computed output per register action")
			return
		}
	}
	//
	p.emit(&p.alus, instr)
	p.emitOutput(f, Operand{Kind: AluResult, Word: 1, Width: p.reg.Width}, pred)
}

// vector outputs the index selected by a vector min/max operation over the
// register.
func (p *synth) vector(f *ir.Field, call *ir.Call, pred Predicate) {
	p.mode = modeMinMaxSrc
	//
	if !p.spec.MinMax {
		p.fail(diag.UnsupportedOnTarget, "%s not supported on this target", call.Func)
		return
	} else if len(call.Args) < 1 || len(call.Args) > 2 {
		p.fail(diag.Invalid, "%s expects one or two arguments", call.Func)
		return
	}
	//
	var operands []Operand
	//
	for i, arg := range call.Args {
		if !p.isOperand(arg) {
			p.fail(diag.Unsupported, "%s argument %s too complex", call.Func, arg)
			return
		}
		//
		o, ok := p.operand(arg)
		//
		switch {
		case !ok:
			return
		case i == 0 && o.Kind != Memory:
			p.fail(diag.Unsupported, "%s must be applied to the register", call.Func)
			return
		case i == 1 && !o.IsB():
			p.fail(diag.Unsupported, "%s mask %s not supported", call.Func, arg)
			return
		}
		//
		operands = append(operands, o)
	}
	//
	instr := Instruction{Unit: UnitMinMax, Opcode: Opcode(call.Func), Operands: operands, Pred: pred}
	//
	if p.minmax == nil {
		p.minmax = &instr
	} else if p.minmax.SameOperation(&instr) {
		p.minmax.Pred = p.minmax.Pred.Or(pred)
	} else {
		p.fail(diag.Overlimit, "only one min/max operation per register action")
		return
	}
	//
	p.mode = modeMinMaxIdx
	p.emitOutput(f, Operand{Kind: MinMaxIndex, Width: f.Width}, pred)
}

// oneBit translates an action on a one-bit register, which is limited to
// setting, clearing or reading the bit and optionally outputting its previous
// value (or its complement).
func (p *synth) oneBit() {
	var (
		op       = OpReadBit
		updated  bool
		negated  []bool
		outputs  []*ir.Field
		value, _ = p.valueParam()
	)
	//
	for _, s := range p.action.Body {
		p.span = s.Span()
		//
		assign, ok := s.(*ir.Assign)
		//
		if !ok {
			p.fail(diag.Unsupported, "conditional update of one-bit register")
			continue
		}
		//
		f, ok := assign.Lhs.(*ir.Field)
		//
		if !ok {
			p.fail(diag.Unsupported, "assignment to %s not supported", assign.Lhs)
			continue
		}
		//
		switch b, ok := p.params[f.Name]; {
		case !ok:
			p.fail(diag.Invalid, "cannot assign to %s", f.Name)
		case b.dir == DirValue:
			k, ok := assign.Rhs.(*ir.Constant)
			//
			if updated || !ok || k.Value.Sign() < 0 || k.Value.BitLen() > 1 {
				p.fail(diag.Unsupported, "one-bit register update %s not supported", assign.Rhs)
			} else if k.Value.Sign() == 0 {
				op = OpClrBit
			} else {
				op = OpSetBit
			}
			//
			updated = true
		case b.dir == DirOutput && !updated:
			if c, ok := bitOf(assign.Rhs, value); ok {
				negated = append(negated, c)
				outputs = append(outputs, f)
			} else {
				p.fail(diag.Unsupported, "one-bit register output %s not supported", assign.Rhs)
			}
		default:
			p.fail(diag.Unsupported, "output of one-bit register after its update")
		}
	}
	//
	for _, c := range negated {
		if c != negated[0] {
			p.fail(diag.Unsupported, "one-bit register output both inverted and not")
			return
		}
	}
	//
	if len(negated) > 0 && negated[0] {
		op, _ = bitComplement(op)
	}
	//
	all := Always(p.n)
	p.alus = []Instruction{{Unit: UnitAluLo, Opcode: op, Pred: all, Dest: p.reg.Name}}
	//
	for _, f := range outputs {
		p.emitOutput(f, Operand{Kind: AluResult, Width: 1}, all)
	}
}

func (p *synth) valueParam() (string, bool) {
	for name, b := range p.params {
		if b.dir == DirValue {
			return name, true
		}
	}
	//
	return "", false
}

// bitOf checks whether an expression reads the (previous) register bit,
// reporting whether it is inverted.
func bitOf(e ir.Expr, value string) (bool, bool) {
	switch e := e.(type) {
	case *ir.Field:
		return false, e.Name == value
	case *ir.Unary:
		if e.Op == ir.BNot || e.Op == ir.LNot {
			negated, ok := bitOf(e.Expr, value)
			return !negated, ok
		}
	}
	//
	return false, false
}

func bitComplement(op Opcode) (Opcode, bool) {
	switch op {
	case OpSetBit:
		return OpSetBitC, true
	case OpClrBit:
		return OpClrBitC, true
	case OpReadBit:
		return OpReadBitC, true
	default:
		return op, false
	}
}

// ============================================================================
// Allocation
// ============================================================================

// allocate ALUs to the computed values.  A register spanning two words uses
// one ALU per word, otherwise both ALUs are available for computing the new
// value with the upper ALU also used for computed outputs.
func (p *synth) allocate() {
	if p.reg.Width == 1 && !p.reg.Dual {
		return
	}
	//
	if p.reg.Dual || p.reg.Words() > 1 {
		for i := range p.alus {
			for j := 0; j < i; j++ {
				if p.alus[j].Word == p.alus[i].Word {
					p.fail(diag.Overlimit, "more than one computed value for %s", p.alus[i].Dest)
					return
				}
			}
			//
			p.alus[i].Unit = aluUnit(p.alus[i].Word)
		}
		//
		return
	}
	//
	var (
		values   []int
		computed = -1
	)
	//
	for i, instr := range p.alus {
		if instr.Dest == "" {
			computed = i
		} else {
			values = append(values, i)
		}
	}
	//
	if n := len(values) + min(1, computed+1); n > 2 {
		p.fail(diag.Overlimit, "needs %d ALUs, limit is 2", n)
		return
	}
	//
	for i, index := range values {
		p.alus[index].Unit = aluUnit(uint(i))
	}
	//
	if computed >= 0 {
		p.alus[computed].Unit = UnitAluHi
	}
	// Lower ALU first
	if len(p.alus) == 2 && p.alus[0].Unit == UnitAluHi {
		p.alus[0], p.alus[1] = p.alus[1], p.alus[0]
	}
}

func aluUnit(word uint) string {
	if word == 0 {
		return UnitAluLo
	}
	//
	return UnitAluHi
}

// assignOutputs allocates output words to the outputs of the action.  Writing
// zero is elided, since this is what an output holds when not written.  Two
// distinct values written to the same destination occupy two words which are
// or'd together, whilst destinations given identical values share words.
func (p *synth) assignOutputs() {
	type part struct {
		dest string
		word uint
	}
	//
	var (
		parts   []part
		byPart  = make(map[part][]Instruction)
		outputs []Instruction
		next    uint
	)
	//
	for _, instr := range p.outputs {
		if o := instr.Operands[0]; o.Kind == Immediate && o.Value == 0 {
			continue
		}
		//
		key := part{instr.Dest, instr.Word}
		//
		if _, ok := byPart[key]; !ok {
			parts = append(parts, key)
		}
		//
		byPart[key] = append(byPart[key], instr)
	}
	//
	var assigned [][]Instruction
	//
	for _, key := range parts {
		instrs := byPart[key]
		//
		if len(instrs) > 2 {
			p.fail(diag.Overlimit, "%d values written to %s, limit is 2", len(instrs), key.dest)
			return
		}
		//
		shared := -1
		//
		for i, other := range assigned {
			if sameOutputs(instrs, other) {
				shared = i
				break
			}
		}
		//
		for i := range instrs {
			instrs[i].Combine = len(instrs) == 2
			//
			if shared >= 0 {
				instrs[i].Word = assigned[shared][i].Word
			} else {
				instrs[i].Word = next
				next++
			}
		}
		//
		assigned = append(assigned, instrs)
		outputs = append(outputs, instrs...)
	}
	//
	if next > p.spec.OutputWords {
		p.fail(diag.Overlimit, "needs %d output words, limit is %d", next, p.spec.OutputWords)
		return
	}
	//
	p.outputs = outputs
}

// sameOutputs checks whether two sets of output operations output the same
// values under the same predicates.
func sameOutputs(lhs []Instruction, rhs []Instruction) bool {
	if len(lhs) != len(rhs) {
		return false
	}
	//
	for i := range lhs {
		l, r := lhs[i], rhs[i]
		//
		if l.Pred != r.Pred || len(l.Operands) != 1 || len(r.Operands) != 1 || l.Operands[0] != r.Operands[0] {
			return false
		}
	}
	//
	return true
}
