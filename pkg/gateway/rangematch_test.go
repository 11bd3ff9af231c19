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
	"testing"

	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Range_01(t *testing.T) {
	checkLowerRange(t, 8, false)
}

func Test_Range_02(t *testing.T) {
	checkLowerRange(t, 8, true)
}

func Test_Range_03(t *testing.T) {
	checkLowerRange(t, 4, false)
	checkLowerRange(t, 4, true)
}

func Test_Range_04(t *testing.T) {
	checkLowerRange(t, 6, false)
	checkLowerRange(t, 6, true)
}

func Test_Range_05(t *testing.T) {
	checkLowerRange(t, 3, true)
	checkLowerRange(t, 1, false)
}

func Test_Range_06(t *testing.T) {
	// Boundaries fold away entirely
	r, diags := LowerRange(f8, 0, false, true)
	require.Empty(t, diags)
	assert.True(t, ir.Equal(r, ir.False), r.String())
	//
	r, _ = LowerRange(f8, 0, false, false)
	assert.True(t, ir.Equal(r, ir.True), r.String())
	//
	r, _ = LowerRange(s8, 0x80, true, false)
	assert.True(t, ir.Equal(r, ir.True), r.String())
}

func Test_Range_07(t *testing.T) {
	// f < 100 uses one disjunct per nibble
	r, _ := LowerRange(f8, 100, false, true)
	//
	var (
		top = ir.NewSlice(f8, 7, 4)
		bot = ir.NewSlice(f8, 3, 0)
		e1  = &ir.Call{Func: ir.FnRange, Args: []ir.Expr{top, ir.Const(0x003f, 16)}}
		e2  = &ir.Call{Func: ir.FnRange, Args: []ir.Expr{top, ir.Const(0x0040, 16)}}
		e3  = &ir.Call{Func: ir.FnRange, Args: []ir.Expr{bot, ir.Const(0x000f, 16)}}
	)
	//
	disjuncts := ir.Disjuncts(r)
	require.Len(t, disjuncts, 2)
	//
	for _, d := range disjuncts {
		switch len(ir.Conjuncts(d)) {
		case 1:
			assert.True(t, ir.Equal(d, e1), d.String())
		case 2:
			assert.True(t, ir.Equal(d, ir.And(e3, e2)), d.String())
		default:
			assert.Fail(t, "unexpected disjunct", d.String())
		}
	}
}

func Test_Range_08(t *testing.T) {
	// Only slices can be range matched
	_, diags := LowerRange(ir.Bin(ir.Add, f8, g8), 3, false, true)
	require.True(t, diag.HasErrors(diags))
	assert.Equal(t, diag.Unsupported, diags[0].Category)
}

func Test_Range_09(t *testing.T) {
	// No ordering remains after lowering
	in := []Row{{ir.LessThan(f8, ir.Const(100, 8)), "A"},
		{ir.NewBinary(ir.Ge, s8, ir.SignedConst(-3, 0)), "B"}, {nil, "C"}}
	rows, diags := LowerRows(in)
	//
	require.False(t, diag.HasErrors(diags))
	//
	for _, r := range rows {
		if r.Cond != nil {
			ir.Visit(r.Cond, func(e ir.Expr) bool {
				b, ok := e.(*ir.Binary)
				assert.False(t, ok && b.Op.IsInequality(), r.String())
				//
				return true
			})
		}
	}
	//
	env := ir.NewEnv()
	//
	for f := uint64(0); f < 256; f++ {
		for _, s := range []uint64{0, 0x7f, 0x80, 0xfd, 0xfc, 0xfe, 0xff, 0x10} {
			env.Set("f", f).Set("s", s)
			assert.Equal(t, firstMatch(in, env), firstMatch(rows, env), "f=%d, s=%d", f, s)
		}
	}
}

func Test_Range_10(t *testing.T) {
	assert.Equal(t, uint16(0x5555), expandNibble(0b0101, 2))
	assert.Equal(t, uint16(0xaaaa), expandNibble(0b10, 1))
	assert.Equal(t, uint16(0x1234), expandNibble(0x1234, 4))
}

// ===================================================================
// Helpers
// ===================================================================

// Exhaustively check x < k and x >= k for every k of a given width.
func checkLowerRange(t *testing.T, w uint, signed bool) {
	x := ir.NewField("x", w)
	env := ir.NewEnv()
	//
	for k := uint64(0); k < 1<<w; k++ {
		for _, less := range []bool{true, false} {
			r, diags := LowerRange(x, k, signed, less)
			require.Empty(t, diags)
			//
			for v := uint64(0); v < 1<<w; v++ {
				var (
					lhs      = toInt(v, w, signed)
					rhs      = toInt(k, w, signed)
					expected = (lhs < rhs) == less
				)
				//
				env.Set("x", v)
				//
				if ir.EvalBool(r, env) != expected {
					t.Fatalf("%s (%d < %d is %t) fails for x=%d", r.String(), lhs, rhs, less, v)
				}
			}
		}
	}
}
