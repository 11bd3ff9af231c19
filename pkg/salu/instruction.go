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
)

// Opcode identifies the operation performed by an instruction.
type Opcode string

// ALU operations
const (
	OpAdd   Opcode = "add"
	OpSub   Opcode = "sub"
	OpSubr  Opcode = "subr"
	OpSaddU Opcode = "saddu"
	OpSaddS Opcode = "sadds"
	OpSsubU Opcode = "ssubu"
	OpSsubS Opcode = "ssubs"
	OpAnd   Opcode = "and"
	OpOr    Opcode = "or"
	OpXor   Opcode = "xor"
	OpNand  Opcode = "nand"
	OpNor   Opcode = "nor"
	OpXnor  Opcode = "xnor"
	OpAndCA Opcode = "andca"
	OpAndCB Opcode = "andcb"
	OpOrCA  Opcode = "orca"
	OpOrCB  Opcode = "orcb"
	OpNotA  Opcode = "nota"
	OpNotB  Opcode = "notb"
	OpCopyA Opcode = "alu_a"
	OpCopyB Opcode = "alu_b"
	OpMinU  Opcode = "minu"
	OpMinS  Opcode = "mins"
	OpMaxU  Opcode = "maxu"
	OpMaxS  Opcode = "maxs"
	OpDiv   Opcode = "div"
	OpMod   Opcode = "mod"
)

// One-bit register operations
const (
	OpSetBit   Opcode = "set_bit"
	OpClrBit   Opcode = "clr_bit"
	OpReadBit  Opcode = "read_bit"
	OpSetBitC  Opcode = "set_bitc"
	OpClrBitC  Opcode = "clr_bitc"
	OpReadBitC Opcode = "read_bitc"
)

// Comparator operations
const (
	OpEqu Opcode = "equ"
	OpNeq Opcode = "neq"
	OpGrt Opcode = "grt"
	OpGeq Opcode = "geq"
	OpLss Opcode = "lss"
	OpLeq Opcode = "leq"
)

// Output and vector operations
const (
	OpOutput Opcode = "output"
	OpMin8   Opcode = "min8"
	OpMax8   Opcode = "max8"
	OpMin16  Opcode = "min16"
	OpMax16  Opcode = "max16"
)

// Complemented forms of some operations, given as the forms obtained by
// complementing the A operand, the B operand or the result.
var complemented = map[Opcode][3]Opcode{
	OpAnd:   {OpAndCA, OpAndCB, OpNand},
	OpOr:    {OpOrCA, OpOrCB, OpNor},
	OpXor:   {OpXnor, OpXnor, OpXnor},
	OpNand:  {"", "", OpAnd},
	OpNor:   {"", "", OpOr},
	OpXnor:  {OpXor, OpXor, OpXor},
	OpCopyA: {OpNotA, "", OpNotA},
	OpCopyB: {"", OpNotB, OpNotB},
	OpNotA:  {OpCopyA, "", OpCopyA},
	OpNotB:  {"", OpCopyB, OpCopyB},
}

// Complement determines the operation equivalent to complementing either an
// operand (0 for A, 1 for B) or (2) the result of a given operation, if one
// exists.
func Complement(op Opcode, which int) (Opcode, bool) {
	if forms, ok := complemented[op]; ok && forms[which] != "" {
		return forms[which], true
	}
	//
	return "", false
}

// Negate returns the comparison which holds exactly when a given comparison
// does not.
func Negate(op Opcode) Opcode {
	switch op {
	case OpEqu:
		return OpNeq
	case OpNeq:
		return OpEqu
	case OpGrt:
		return OpLeq
	case OpLeq:
		return OpGrt
	case OpGeq:
		return OpLss
	default:
		return OpGeq
	}
}

// Swap returns the comparison obtained by exchanging its operands.
func Swap(op Opcode) Opcode {
	switch op {
	case OpGrt:
		return OpLss
	case OpLss:
		return OpGrt
	case OpGeq:
		return OpLeq
	case OpLeq:
		return OpGeq
	default:
		return op
	}
}

// OperandKind identifies where the value of an operand comes from.
type OperandKind uint8

const (
	// Memory is a word of the register (as it was before the action).
	Memory OperandKind = iota
	// Phv is a PHV input word.
	Phv
	// Immediate is a constant embedded in the instruction.
	Immediate
	// RegisterFile is a row of the register file.
	RegisterFile
	// MathOutput is the output of the math unit.
	MathOutput
	// HashInput is the hash digest.
	HashInput
	// LearnInput is the learn flag.
	LearnInput
	// AluResult is the value computed by an ALU (i.e. the new value of a
	// register word).
	AluResult
	// MinMaxIndex is the index produced by a vector min/max operation.
	MinMaxIndex
)

// Operand is an input to an instruction.
type Operand struct {
	Kind OperandKind
	// Word is the word index for memory, PHV and ALU operands (0 for lo, 1 for
	// hi).
	Word uint
	// Value is the constant for immediates, or the row for register file
	// operands.
	Value int64
	// Width of the operand, which is used when splitting.
	Width uint
	// Slice of the operand, where a SliceWidth of zero means the whole word.
	SliceLo, SliceWidth uint
	// Mask applied to the operand by a comparator, where zero means none.
	Mask uint64
}

// IsA checks whether this operand can be the A (i.e. first) operand of an ALU.
func (o Operand) IsA() bool {
	return o.Kind == Memory || o.Kind == Phv
}

// IsB checks whether this operand can be the B (i.e. second) operand of an
// ALU.
func (o Operand) IsB() bool {
	return o.Kind != Memory && o.Kind != AluResult && o.Kind != MinMaxIndex
}

func (o Operand) String() string {
	var name string
	//
	switch o.Kind {
	case Memory:
		name = "mem" + half(o.Word)
	case Phv:
		name = "phv" + half(o.Word)
	case Immediate:
		name = fmt.Sprintf("%d", o.Value)
	case RegisterFile:
		name = fmt.Sprintf("regfile(%d)", o.Value)
	case MathOutput:
		name = "math_unit"
	case HashInput:
		name = "hash"
	case LearnInput:
		name = "learn"
	case AluResult:
		name = "alu" + half(o.Word)
	default:
		name = "minmax_index"
	}
	//
	if o.SliceWidth != 0 {
		name = fmt.Sprintf("%s[%d:%d]", name, o.SliceLo+o.SliceWidth-1, o.SliceLo)
	}
	//
	if o.Mask != 0 {
		name = fmt.Sprintf("%s & 0x%x", name, o.Mask)
	}
	//
	return name
}

func half(word uint) string {
	if word == 0 {
		return "_lo"
	}
	//
	return "_hi"
}

// Unit names within an instruction, besides the comparators.
const (
	UnitAluLo  = "alu_lo"
	UnitAluHi  = "alu_hi"
	UnitOutput = "output"
	UnitMinMax = "minmax"
)

// Instruction is a single operation of one unit of a stateful ALU, executed
// when its predicate holds.
type Instruction struct {
	// Unit executing this operation, such as "alu_lo", "output" or the name of
	// a comparator.
	Unit     string
	Opcode   Opcode
	Signed   bool
	Operands []Operand
	// Predicate guarding this instruction (unused by comparators).
	Pred Predicate
	// Dest is the register word or output parameter written.  ALUs computing
	// a value only for output have no destination.
	Dest string
	// Word is the register word written by an ALU, or the output word of an
	// output operation.
	Word uint
	// Combine indicates the result is or'd with that of the other ALU writing
	// the same destination.
	Combine bool
}

// IsComparator checks whether this instruction is executed by a comparator.
func (p *Instruction) IsComparator() bool {
	switch p.Opcode {
	case OpEqu, OpNeq, OpGrt, OpGeq, OpLss, OpLeq:
		return true
	default:
		return false
	}
}

// SameOperation checks whether two instructions perform the same operation,
// ignoring their predicates.
func (p *Instruction) SameOperation(o *Instruction) bool {
	if p.Unit != o.Unit || p.Opcode != o.Opcode || p.Signed != o.Signed || p.Dest != o.Dest ||
		p.Word != o.Word || p.Combine != o.Combine || len(p.Operands) != len(o.Operands) {
		return false
	}
	//
	for i := range p.Operands {
		if p.Operands[i] != o.Operands[i] {
			return false
		}
	}
	//
	return true
}

// Format renders this instruction, using the given comparator names for its
// predicate.
func (p *Instruction) Format(units []string) string {
	var (
		builder  strings.Builder
		operands []string
		opcode   = string(p.Opcode)
	)
	//
	if p.IsComparator() {
		if p.Signed {
			opcode += ".s"
		} else {
			opcode += ".u"
		}
	}
	//
	unit := p.Unit
	//
	if p.Opcode == OpOutput {
		unit = fmt.Sprintf("%s%d", p.Unit, p.Word)
	}
	//
	builder.WriteString(fmt.Sprintf("%s: %s", unit, opcode))
	//
	if pred := p.Pred.Format(units); pred != "" && !p.IsComparator() {
		builder.WriteString(" pred(" + pred + ")")
	}
	//
	for _, o := range p.Operands {
		operands = append(operands, o.String())
	}
	//
	if len(operands) > 0 {
		builder.WriteString(" ")
		builder.WriteString(strings.Join(operands, ", "))
	}
	//
	if p.Combine {
		builder.WriteString(" (or)")
	}
	//
	if p.Dest != "" {
		builder.WriteString(" -> ")
		builder.WriteString(p.Dest)
	}
	//
	return builder.String()
}
