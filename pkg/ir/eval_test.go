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
package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	f8  = NewField("f", 8)
	g8  = NewField("g", 8)
	s8  = NewSignedField("s", 8)
	w40 = NewField("w", 40)
)

func Test_Eval_01(t *testing.T) {
	env := NewEnv().Set("f", 5).Set("g", 3)
	//
	checkEval(t, env, Equals(f8, Const(5, 8)), 1)
	checkEval(t, env, NotEquals(g8, Const(3, 8)), 0)
	checkEval(t, env, And(Equals(f8, Const(5, 8)), NotEquals(g8, Const(3, 8))), 0)
	checkEval(t, env, Or(Equals(f8, Const(5, 8)), NotEquals(g8, Const(3, 8))), 1)
}

func Test_Eval_02(t *testing.T) {
	env := NewEnv().Set("f", 250).Set("g", 10)
	// Addition wraps at the field width.
	checkEval(t, env, Bin(Add, f8, g8), 4)
	checkEval(t, env, Bin(Sub, g8, f8), 16)
	// Saturating unsigned arithmetic clamps.
	checkEval(t, env, Bin(SatAdd, f8, g8), 255)
	checkEval(t, env, Bin(SatSub, g8, f8), 0)
}

func Test_Eval_03(t *testing.T) {
	// -3 in 8-bit two's complement
	env := NewEnv().Set("s", 0xfd)
	//
	checkEval(t, env, LessThan(s8, SignedConst(0, 8)), 1)
	checkEval(t, env, GreaterThan(s8, SignedConst(-4, 8)), 1)
	checkEval(t, env, Bin(SatSub, s8, SignedConst(127, 8)), 0x80)
	checkEval(t, env, Bin(SatAdd, s8, SignedConst(127, 8)), 124)
}

func Test_Eval_04(t *testing.T) {
	env := NewEnv().Set("w", 0x12_3456_789a)
	//
	checkEval(t, env, NewSlice(w40, 39, 32), 0x12)
	checkEval(t, env, NewSlice(w40, 31, 0), 0x3456_789a)
	checkEval(t, env, NewSlice(NewSlice(w40, 31, 8), 7, 0), 0x78)
	checkEval(t, env, Equals(w40, Const(0x12_3456_789a, 40)), 1)
}

func Test_Eval_05(t *testing.T) {
	env := NewEnv().SetValid("ipv4", true)
	//
	checkEval(t, env, &Valid{"ipv4"}, 1)
	checkEval(t, env, &Valid{"ipv6"}, 0)
	checkEval(t, env, Not(&Valid{"ipv6"}), 1)
	checkEval(t, env, Bin(LXor, &Valid{"ipv4"}, &Valid{"ipv6"}), 1)
}

func Test_Eval_06(t *testing.T) {
	var (
		n4  = NewField("n", 4)
		env = NewEnv()
		// values 0..2 accepted
		table = Const(0b0111, 16)
	)
	//
	for i := uint64(0); i < 16; i++ {
		env.Set("n", i)
		checkEval(t, env, &Call{FnRange, []Expr{n4, table}, 0}, boolToUint(i < 3))
	}
}

func Test_Eval_07(t *testing.T) {
	env := NewEnv().Set("f", 7).Set("g", 9)
	//
	checkEval(t, env, &Call{FnMin, []Expr{f8, g8}, 0}, 7)
	checkEval(t, env, &Call{FnMax, []Expr{f8, g8}, 0}, 9)
	checkEval(t, env, Complement(f8), 0xf8)
	checkEval(t, env, Bin(Div, g8, Const(0, 8)), 0)
	checkEval(t, env, Bin(Shl, f8, Const(5, 8)), 0xe0)
}

func checkEval(t *testing.T, env *Env, e Expr, expected uint64) {
	t.Helper()
	//
	v := Eval(e, env)
	assert.Equal(t, expected, v.Uint64(), "evaluating %s", e.String())
}

func boolToUint(b bool) uint64 {
	if b {
		return 1
	}
	//
	return 0
}
