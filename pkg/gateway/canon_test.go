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

	"github.com/brianvoe/gofakeit/v6"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	f8  = ir.NewField("f", 8)
	g8  = ir.NewField("g", 8)
	s8  = ir.NewSignedField("s", 8)
	h4  = ir.NewField("h", 4)
	w40 = ir.NewField("w", 40)
)

func Test_Canon_01(t *testing.T) {
	checkCanon(t, ir.Equals(f8, f8), ir.True)
	checkCanon(t, ir.NotEquals(f8, f8), ir.False)
	checkCanon(t, ir.LessThan(f8, f8), ir.False)
	checkCanon(t, ir.NewBinary(ir.Ge, f8, f8), ir.True)
}

func Test_Canon_02(t *testing.T) {
	// constant moved to the right
	checkCanon(t, ir.NewBinary(ir.Eq, ir.Const(5, 0), f8), ir.Equals(f8, ir.Const(5, 8)))
	checkCanon(t, ir.NewBinary(ir.Eq, ir.Const(5, 8), ir.Const(5, 8)), ir.True)
	checkCanon(t, ir.NewBinary(ir.Lt, ir.Const(7, 8), ir.Const(5, 8)), ir.False)
}

func Test_Canon_03(t *testing.T) {
	// Folding at the extremes
	checkCanon(t, ir.NewBinary(ir.Le, f8, ir.Const(255, 0)), ir.True)
	checkCanon(t, ir.NewBinary(ir.Gt, f8, ir.Const(255, 0)), ir.False)
	checkCanon(t, ir.NewBinary(ir.Lt, f8, ir.Const(0, 0)), ir.False)
	checkCanon(t, ir.NewBinary(ir.Ge, f8, ir.Const(0, 0)), ir.True)
	checkCanon(t, ir.NewBinary(ir.Gt, s8, ir.SignedConst(127, 0)), ir.False)
	checkCanon(t, ir.NewBinary(ir.Ge, s8, ir.SignedConst(-128, 0)), ir.True)
}

func Test_Canon_04(t *testing.T) {
	// x < 2^n is a test of the upper bits
	checkCanon(t, ir.NewBinary(ir.Lt, f8, ir.Const(16, 0)), ir.Equals(ir.NewSlice(f8, 7, 4), ir.Const(0, 4)))
	checkCanon(t, ir.NewBinary(ir.Le, f8, ir.Const(15, 0)), ir.Equals(ir.NewSlice(f8, 7, 4), ir.Const(0, 4)))
	checkCanon(t, ir.NewBinary(ir.Lt, f8, ir.Const(1, 0)), ir.Equals(f8, ir.Const(0, 8)))
}

func Test_Canon_05(t *testing.T) {
	// signed x < 0 is a sign bit test
	sign := ir.NewSlice(ir.NewField("s", 8), 7, 7)
	checkCanon(t, ir.NewBinary(ir.Lt, s8, ir.SignedConst(0, 0)), ir.Equals(sign, ir.Const(1, 1)))
	checkCanon(t, ir.NewBinary(ir.Ge, s8, ir.SignedConst(0, 0)), ir.Equals(sign, ir.Const(0, 1)))
}

func Test_Canon_06(t *testing.T) {
	// Every relation against every constant
	for _, op := range []ir.BinaryOp{ir.Eq, ir.Neq, ir.Lt, ir.Le, ir.Gt, ir.Ge} {
		for k := uint64(0); k < 256; k++ {
			checkSoundOver(t, ir.NewBinary(op, f8, ir.Const(k, 0)), "f", 8)
			checkSoundOver(t, ir.NewBinary(op, s8, ir.SignedConst(toInt(k, 8, true), 0)), "s", 8)
		}
	}
}

func Test_Canon_07(t *testing.T) {
	// masked comparison which can never match
	e := ir.NewBinary(ir.Eq, ir.NewBinary(ir.BAnd, f8, ir.Const(0x0f, 0)), ir.Const(0x10, 0))
	r, diags := Canonicalize(e)
	//
	require.False(t, diag.HasErrors(diags))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Warning, diags[0].Category)
	assert.True(t, ir.Equal(r, ir.False), r.String())
	//
	e = ir.NewBinary(ir.Neq, ir.NewBinary(ir.BAnd, f8, ir.Const(0x0f, 0)), ir.Const(0x10, 0))
	r, _ = Canonicalize(e)
	assert.True(t, ir.Equal(r, ir.True), r.String())
}

func Test_Canon_08(t *testing.T) {
	// masked comparisons
	and := ir.NewBinary(ir.BAnd, f8, ir.Const(0x3c, 0))
	checkCanon(t, ir.NewBinary(ir.Eq, and, ir.Const(0x14, 0)), ir.Equals(ir.NewSlice(f8, 5, 2), ir.Const(5, 4)))
	//
	sparse := ir.NewBinary(ir.BAnd, f8, ir.Const(0x34, 0))
	checkCanon(t, ir.NewBinary(ir.Eq, sparse, ir.Const(0x14, 0)),
		ir.Equals(ir.Bin(ir.BAnd, ir.NewSlice(f8, 5, 2), ir.Const(0xd, 4)), ir.Const(5, 4)))
	//
	for _, op := range []ir.BinaryOp{ir.Eq, ir.Neq} {
		for k := uint64(0); k < 256; k += 3 {
			checkSoundOver(t, ir.NewBinary(op, and, ir.Const(k, 0)), "f", 8)
			checkSoundOver(t, ir.NewBinary(op, sparse, ir.Const(k, 0)), "f", 8)
			checkSoundOver(t, ir.NewBinary(op, ir.NewBinary(ir.BOr, f8, ir.Const(0x0f, 0)), ir.Const(k, 0)), "f", 8)
			checkSoundOver(t, ir.NewBinary(op, ir.NewBinary(ir.BXor, f8, ir.Const(0x5a, 0)), ir.Const(k, 0)), "f", 8)
			checkSoundOver(t, ir.NewBinary(op, ir.Complement(f8), ir.Const(k, 8)), "f", 8)
			checkSoundOver(t, ir.NewBinary(op, ir.Bin(ir.Shl, f8, ir.Const(3, 0)), ir.Const(k, 8)), "f", 8)
		}
	}
}

func Test_Canon_09(t *testing.T) {
	// shifted comparisons
	for _, op := range []ir.BinaryOp{ir.Eq, ir.Neq, ir.Lt, ir.Le, ir.Gt, ir.Ge} {
		for k := uint64(0); k < 256; k += 5 {
			checkSoundOver(t, ir.NewBinary(op, ir.Bin(ir.Shr, f8, ir.Const(3, 0)), ir.Const(k, 8)), "f", 8)
		}
	}
}

func Test_Canon_10(t *testing.T) {
	// 40-bit equality splits into a conjunction of two comparisons
	var (
		k = uint64(0x12_3456_789a)
		e = ir.NewBinary(ir.Eq, w40, ir.Const(k, 0))
		r = canonicalize(t, e)
	)
	//
	conjuncts := ir.Conjuncts(r)
	require.Len(t, conjuncts, 2, r.String())
	//
	for _, c := range conjuncts {
		assert.LessOrEqual(t, ir.Width(c.(*ir.Binary).Lhs), uint(32))
	}
	//
	checkSoundAt(t, e, r, "w", wideSamples(k))
}

func Test_Canon_11(t *testing.T) {
	// 40-bit non-equality splits into a disjunction
	var (
		k = uint64(0xff_0000_0001)
		e = ir.NewBinary(ir.Neq, w40, ir.Const(k, 0))
		r = canonicalize(t, e)
	)
	//
	require.Len(t, ir.Disjuncts(r), 2, r.String())
	checkSoundAt(t, e, r, "w", wideSamples(k))
}

func Test_Canon_12(t *testing.T) {
	// 40-bit orderings
	for _, k := range []uint64{1, 0x1_0000_0000, 0x12_3456_789a, 0xff_ffff_fffe} {
		for _, op := range []ir.BinaryOp{ir.Lt, ir.Le, ir.Gt, ir.Ge} {
			e := ir.NewBinary(op, w40, ir.Const(k, 0))
			checkSoundAt(t, e, canonicalize(t, e), "w", wideSamples(k))
		}
	}
}

func Test_Canon_13(t *testing.T) {
	// De Morgan
	e := ir.Not(ir.And(ir.Equals(f8, ir.Const(1, 8)), ir.Equals(g8, ir.Const(2, 8))))
	r := canonicalize(t, e)
	//
	require.Len(t, ir.Disjuncts(r), 2, r.String())
	checkSoundRandom(t, e, r, 1, 200)
}

func Test_Canon_14(t *testing.T) {
	// Comparing the results of comparisons
	var (
		a = ir.Equals(f8, ir.Const(1, 8))
		b = ir.NewBinary(ir.Lt, g8, ir.Const(2, 0))
	)
	//
	for _, e := range []ir.Expr{ir.Equals(a, b), ir.NotEquals(a, b), ir.Equals(a, ir.True), ir.Bin(ir.LXor, a, b)} {
		checkSoundRandom(t, e, canonicalize(t, e), 2, 200)
	}
}

func Test_Canon_15(t *testing.T) {
	// Field comparisons
	e := ir.NotEquals(f8, g8)
	checkSoundRandom(t, e, canonicalize(t, e), 3, 200)
	// Mismatched widths
	_, diags := Canonicalize(ir.Equals(f8, h4))
	require.True(t, diag.HasErrors(diags))
	assert.Equal(t, diag.Invalid, diags[0].Category)
}

func Test_Canon_16(t *testing.T) {
	// Exceeding the disjunct limit
	var terms []ir.Expr
	//
	for i := 0; i < 6; i++ {
		f, g := ir.NewField(fieldName("a", i), 8), ir.NewField(fieldName("b", i), 8)
		terms = append(terms, ir.Or(ir.Equals(f, ir.Const(1, 8)), ir.Equals(g, ir.Const(1, 8))))
	}
	//
	_, diags := Canonicalize(ir.And(terms...))
	require.True(t, diag.HasErrors(diags))
	assert.Equal(t, diag.Overlimit, diags[0].Category)
}

func Test_Canon_17(t *testing.T) {
	// Validity
	e := ir.Or(&ir.Valid{Header: "hdr"}, ir.Not(&ir.Valid{Header: "hdr"}))
	checkCanon(t, e, ir.True)
	//
	e = ir.And(&ir.Valid{Header: "hdr"}, ir.Equals(f8, ir.Const(1, 8)))
	checkSoundRandom(t, e, canonicalize(t, e), 4, 100)
}

func Test_Canon_18(t *testing.T) {
	// Randomised soundness
	faker := gofakeit.New(1)
	//
	for i := 0; i < 500; i++ {
		e := randomCond(faker, 3)
		//
		if r, diags := Canonicalize(e); !diag.HasErrors(diags) {
			checkSoundRandom(t, e, r, int64(i), 50)
		}
	}
}

func Test_Canon_19(t *testing.T) {
	// Unsupported conditions
	_, diags := Canonicalize(ir.NewBinary(ir.Lt, f8, g8))
	require.True(t, diag.HasErrors(diags))
	assert.Equal(t, diag.Unsupported, diags[0].Category)
}

// ===================================================================
// Helpers
// ===================================================================

func canonicalize(t *testing.T, e ir.Expr) ir.Expr {
	r, diags := Canonicalize(e)
	require.False(t, diag.HasErrors(diags), "%v", diags)
	//
	return r
}

func checkCanon(t *testing.T, e ir.Expr, expected ir.Expr) {
	r := canonicalize(t, e)
	//
	assert.True(t, ir.Equal(r, expected), "canonicalising %s gave %s, expected %s", e.String(), r.String(),
		expected.String())
}

// Check canonicalisation is sound for every value of a given field.
func checkSoundOver(t *testing.T, e ir.Expr, field string, width uint) {
	r := canonicalize(t, e)
	//
	for v := uint64(0); v < 1<<width; v++ {
		env := ir.NewEnv().Set(field, v)
		//
		if ir.EvalBool(e, env) != ir.EvalBool(r, env) {
			t.Fatalf("%s is not %s for %s=%d", e.String(), r.String(), field, v)
		}
	}
}

func checkSoundAt(t *testing.T, e ir.Expr, r ir.Expr, field string, values []uint64) {
	for _, v := range values {
		env := ir.NewEnv().Set(field, v)
		//
		if ir.EvalBool(e, env) != ir.EvalBool(r, env) {
			t.Fatalf("%s is not %s for %s=0x%x", e.String(), r.String(), field, v)
		}
	}
}

func checkSoundRandom(t *testing.T, e ir.Expr, r ir.Expr, seed int64, n int) {
	faker := gofakeit.New(seed)
	//
	for i := 0; i < n; i++ {
		fields, valid := randomValues(faker)
		env := toEnv(fields, valid)
		//
		if ir.EvalBool(e, env) != ir.EvalBool(r, env) {
			t.Fatalf("%s is not %s for %s", e.String(), r.String(), spew.Sdump(fields, valid))
		}
	}
}

// Samples for a 40-bit value around a given constant.
func wideSamples(k uint64) []uint64 {
	samples := []uint64{0, k, k - 1, k + 1, 1<<40 - 1, 1 << 39}
	//
	for i := uint(0); i < 40; i++ {
		samples = append(samples, k^(1<<i), k&^(1<<i)-1)
	}
	//
	for i := range samples {
		samples[i] &= 1<<40 - 1
	}
	//
	return samples
}

func fieldName(prefix string, i int) string {
	return prefix + string(rune('0'+i))
}

var relations = []ir.BinaryOp{ir.Eq, ir.Neq, ir.Lt, ir.Le, ir.Gt, ir.Ge}

// Generate a random condition over the fields f, g, s and h, and the header
// hdr.
func randomCond(faker *gofakeit.Faker, depth int) ir.Expr {
	if depth == 0 || faker.Number(0, 2) == 0 {
		return randomAtom(faker)
	}
	//
	switch faker.Number(0, 4) {
	case 0:
		return ir.NewBinary(ir.LAnd, randomCond(faker, depth-1), randomCond(faker, depth-1))
	case 1:
		return ir.NewBinary(ir.LOr, randomCond(faker, depth-1), randomCond(faker, depth-1))
	case 2:
		return ir.Not(randomCond(faker, depth-1))
	case 3:
		return ir.NewBinary(ir.LXor, randomAtom(faker), randomAtom(faker))
	default:
		return ir.NewBinary(ir.Eq, randomAtom(faker), randomAtom(faker))
	}
}

func randomAtom(faker *gofakeit.Faker) ir.Expr {
	op := relations[faker.Number(0, len(relations)-1)]
	//
	switch faker.Number(0, 6) {
	case 0:
		return ir.NewBinary(op, f8, ir.Const(uint64(faker.Number(0, 255)), 0))
	case 1:
		return ir.NewBinary(op, g8, ir.Const(uint64(faker.Number(0, 255)), 0))
	case 2:
		return ir.NewBinary(op, s8, ir.SignedConst(int64(faker.Number(-128, 127)), 0))
	case 3:
		return ir.NewBinary(op, h4, ir.Const(uint64(faker.Number(0, 15)), 0))
	case 4:
		mask := ir.NewBinary(ir.BAnd, f8, ir.Const(uint64(faker.Number(0, 255)), 0))
		return ir.NewBinary(ir.Eq, mask, ir.Const(uint64(faker.Number(0, 255)), 0))
	case 5:
		if faker.Bool() {
			return ir.Equals(f8, g8)
		}
		//
		return ir.NotEquals(f8, g8)
	default:
		return &ir.Valid{Header: "hdr"}
	}
}

// Generate random values for the fields used by random conditions.
func randomValues(faker *gofakeit.Faker) (map[string]uint64, map[string]bool) {
	fields := map[string]uint64{
		"f": uint64(faker.Number(0, 255)),
		"g": uint64(faker.Number(0, 255)),
		"s": uint64(faker.Number(0, 255)),
		"h": uint64(faker.Number(0, 15)),
	}
	// Bias towards interesting cases
	if faker.Number(0, 3) == 0 {
		fields["g"] = fields["f"]
	}
	//
	return fields, map[string]bool{"hdr": faker.Bool()}
}

func toEnv(fields map[string]uint64, valid map[string]bool) *ir.Env {
	env := ir.NewEnv()
	//
	for name, v := range fields {
		env.Set(name, v)
	}
	//
	for header, v := range valid {
		env.SetValid(header, v)
	}
	//
	return env
}
