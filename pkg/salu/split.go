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
	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
)

// split operations on values wider than an ALU word into one operation per
// word.  Only copies can be split in this way.
func (p *synth) split() {
	var (
		alus    []Instruction
		outputs []Instruction
	)
	//
	if !p.reg.Dual && p.reg.Words() > 1 {
		for _, instr := range p.alus {
			words, ok := p.splitCopy(instr)
			//
			if !ok {
				return
			}
			//
			alus = append(alus, words...)
		}
		//
		p.alus = alus
	}
	//
	for _, instr := range p.outputs {
		words, ok := p.splitOutput(instr)
		//
		if !ok {
			return
		}
		//
		outputs = append(outputs, words...)
	}
	//
	p.outputs = outputs
}

// splitCopy splits a copy into a wide register, where words beyond the width
// of the source are cleared.
func (p *synth) splitCopy(instr Instruction) ([]Instruction, bool) {
	if instr.Opcode != OpCopyA && instr.Opcode != OpCopyB {
		return nil, p.fail(diag.Unsupported, "%s of %d-bit register not supported", instr.Opcode, p.reg.Width)
	}
	//
	var (
		words  []Instruction
		source = instr.Operands[0]
	)
	//
	for i, n := uint(0), p.reg.Words(); i < n; i++ {
		var (
			word = instr
			o    = source
		)
		//
		switch o.Kind {
		case Memory, Phv, AluResult:
			if o.Width <= i*device.AluWidth {
				o = Operand{Kind: Immediate}
			} else {
				o.Word += i
				o.Width = min(device.AluWidth, o.Width-i*device.AluWidth)
			}
		case Immediate:
			// sign extension
			o.Value = int64(int32(source.Value >> (i * device.AluWidth)))
		default:
			return nil, p.fail(diag.Unsupported, "%d-bit copy of %s not supported", p.reg.Width, o)
		}
		//
		if o.IsA() {
			word.Opcode = OpCopyA
		} else {
			word.Opcode = OpCopyB
		}
		//
		word.Word, word.Operands = i, []Operand{o}
		words = append(words, word)
	}
	//
	return words, true
}

// splitOutput splits an output wider than an ALU word into parts, whose Word
// identifies the part prior to the allocation of output words.
func (p *synth) splitOutput(instr Instruction) ([]Instruction, bool) {
	var o = instr.Operands[0]
	//
	if o.SliceWidth != 0 {
		first, last := o.SliceLo/device.AluWidth, (o.SliceLo+o.SliceWidth-1)/device.AluWidth
		//
		if first != last {
			return nil, p.fail(diag.Unsupported, "output %s crosses a %d-bit word boundary", o, device.AluWidth)
		}
		//
		o.Word += first
		o.SliceLo -= first * device.AluWidth
		instr.Operands = []Operand{o}
		//
		return []Instruction{instr}, true
	} else if o.Width <= device.AluWidth {
		return []Instruction{instr}, true
	}
	//
	switch o.Kind {
	case Memory, Phv, AluResult:
	default:
		return nil, p.fail(diag.Unsupported, "%d-bit output of %s not supported", o.Width, o)
	}
	//
	var (
		parts []Instruction
		words = (o.Width + device.AluWidth - 1) / device.AluWidth
	)
	// Limit to the width of the destination
	if b, ok := p.params[instr.Dest]; ok && b.width > 0 {
		words = min(words, (b.width+device.AluWidth-1)/device.AluWidth)
	}
	//
	for i := uint(0); i < words; i++ {
		part, w := instr, o
		w.Word += i
		w.Width = min(device.AluWidth, o.Width-i*device.AluWidth)
		part.Operands, part.Word = []Operand{w}, i
		parts = append(parts, part)
	}
	//
	return parts, true
}
