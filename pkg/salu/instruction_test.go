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
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Instruction_01(t *testing.T) {
	for _, c := range []struct {
		op    Opcode
		which int
		res   Opcode
	}{
		{OpAnd, 0, OpAndCA}, {OpAnd, 1, OpAndCB}, {OpAnd, 2, OpNand}, {OpOr, 2, OpNor},
		{OpXor, 0, OpXnor}, {OpNand, 2, OpAnd}, {OpCopyA, 2, OpNotA}, {OpNotB, 1, OpCopyB},
	} {
		res, ok := Complement(c.op, c.which)
		assert.True(t, ok)
		assert.Equal(t, c.res, res)
	}
	//
	_, ok := Complement(OpAdd, 2)
	assert.False(t, ok)
	_, ok = Complement(OpCopyA, 1)
	assert.False(t, ok)
}

func Test_Instruction_02(t *testing.T) {
	for _, op := range []Opcode{OpEqu, OpNeq, OpGrt, OpGeq, OpLss, OpLeq} {
		assert.Equal(t, op, Negate(Negate(op)))
		assert.Equal(t, op, Swap(Swap(op)))
	}
	//
	assert.Equal(t, OpLss, Negate(OpGeq))
	assert.Equal(t, OpLeq, Swap(OpGeq))
	assert.Equal(t, OpEqu, Swap(OpEqu))
}

func Test_Instruction_03(t *testing.T) {
	assert.Equal(t, "mem_hi", Operand{Kind: Memory, Word: 1}.String())
	assert.Equal(t, "-3", Operand{Kind: Immediate, Value: -3}.String())
	assert.Equal(t, "regfile(2)", Operand{Kind: RegisterFile, Value: 2}.String())
	assert.Equal(t, "phv_lo[7:4]", Operand{Kind: Phv, SliceLo: 4, SliceWidth: 4}.String())
	assert.Equal(t, "hash", Operand{Kind: HashInput}.String())
	// Operand roles
	assert.True(t, Operand{Kind: Phv}.IsA())
	assert.True(t, Operand{Kind: Phv}.IsB())
	assert.False(t, Operand{Kind: Memory}.IsB())
	assert.False(t, Operand{Kind: AluResult}.IsA())
	assert.False(t, Operand{Kind: AluResult}.IsB())
}

func Test_Instruction_04(t *testing.T) {
	var (
		units = []string{"cmplo", "cmphi"}
		lhs   = Instruction{Unit: UnitAluLo, Opcode: OpAdd, Operands: []Operand{{Kind: Memory}}, Pred: 0xa, Dest: "r"}
		rhs   = lhs
	)
	//
	rhs.Pred = 0x5
	assert.True(t, lhs.SameOperation(&rhs))
	rhs.Operands = []Operand{{Kind: Phv}}
	assert.False(t, lhs.SameOperation(&rhs))
	//
	cmp := Instruction{Unit: "cmphi", Opcode: OpLss, Signed: true, Operands: []Operand{{Kind: Phv}, {Kind: Immediate}}}
	assert.Equal(t, "cmphi: lss.s phv_lo, 0", cmp.Format(units))
	assert.Equal(t, "alu_lo: add pred(cmplo) mem_lo -> r", lhs.Format(units))
}
