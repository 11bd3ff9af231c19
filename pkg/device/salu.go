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
package device

// SaluSpec describes a stateful ALU, which executes one of a small number of
// VLIW instructions against a register (memory) word on every access.
type SaluSpec struct {
	// CmpMask indicates comparators can mask their memory operand.
	CmpMask bool `json:"cmp_mask"`
	// CmpUnits names the comparator units, in order.  The number of units
	// determines the width of predicates.
	CmpUnits []string `json:"cmp_units"`
	// MaxSize is the widest single (i.e. non-dual) register.
	MaxSize uint `json:"max_size"`
	// MaxDualSize is the widest dual (i.e. lo/hi pair) register.
	MaxDualSize uint `json:"max_dual_size"`
	// MaxPhvInputWidth is the total width of the PHV inputs.
	MaxPhvInputWidth uint `json:"max_phv_input_width"`
	// MaxInstructions is the number of VLIW instructions (register actions)
	// per stateful ALU.
	MaxInstructions uint `json:"max_instructions"`
	// MaxInstructionConstWidth is the width of the (signed) constant embedded in
	// a comparator instruction.
	MaxInstructionConstWidth uint `json:"max_instruction_const_width"`
	// MinInstructionConstValue is the smallest immediate for ALU or output
	// instructions.
	MinInstructionConstValue int64 `json:"min_instruction_const_value"`
	// MaxInstructionConstValue is the largest immediate for ALU or output
	// instructions.
	MaxInstructionConstValue int64 `json:"max_instruction_const_value"`
	// OutputWords is the number of output words.
	OutputWords uint `json:"output_words"`
	// DivModUnit indicates a divide/modulus unit is available.
	DivModUnit bool `json:"div_mod_unit"`
	// FastClear indicates one-bit registers supports a fast clear operation.
	FastClear bool `json:"fast_clear"`
	// MaxRegfileRows is the number of register file rows.
	MaxRegfileRows uint `json:"max_regfile_rows"`
	// MinMax indicates min/max ALU operations are available.
	MinMax bool `json:"min_max"`
}

// AluWidth is the width of a single ALU word.  Anything wider is split into
// multiple words.
const AluWidth = 32

// Comparators returns the number of comparator units.
func (p *SaluSpec) Comparators() uint {
	return uint(len(p.CmpUnits))
}

// FitsInstruction checks whether a constant can be encoded directly as the
// immediate of an ALU or output instruction.
func (p *SaluSpec) FitsInstruction(c int64) bool {
	return c >= p.MinInstructionConstValue && c <= p.MaxInstructionConstValue
}

// FitsComparator checks whether a constant can be encoded directly in a
// comparator instruction.
func (p *SaluSpec) FitsComparator(c int64) bool {
	if p.MaxInstructionConstWidth == 0 {
		return false
	}
	//
	limit := int64(1) << (p.MaxInstructionConstWidth - 1)
	//
	return c >= -limit && c < limit
}
