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
	"math/big"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A device with a generous gateway
var wideGateway = device.GatewaySpec{
	PhvBytes: 4, HashBits: 32, MaxRows: MaxRows,
	SupportXor: true, SupportRange: true, ExactShifts: 1, ByteSwizzle: true,
	XorByteSlots: 0xf,
}

func Test_Gateway_01(t *testing.T) {
	var (
		f1 = ir.NewField("hdr.f1", 8)
		f2 = ir.NewField("hdr.f2", 8)
		e  = ir.And(ir.Equals(f1, ir.Const(5, 8)), ir.NotEquals(f2, ir.Const(3, 8)))
	)
	//
	table := compile(t, "gen1", Row{e, "hit"}, Row{nil, "miss"})
	//
	require.Len(t, table.Rows, 2)
	assert.Equal(t, uint(2), table.Layout.Bytes)
	assert.Equal(t, "miss", table.Rows[0].Next)
	assert.Equal(t, uint64(0xffff), table.Rows[0].Match.Mask)
	assert.Equal(t, uint64(0x0305), table.Rows[0].Match.Value)
	assert.Equal(t, "hit", table.Rows[1].Next)
	assert.Equal(t, uint64(0xff), table.Rows[1].Match.Mask)
	assert.Equal(t, uint64(0x05), table.Rows[1].Match.Value)
	assert.Equal(t, "miss", table.Default)
	assert.Equal(t, []string{"hit", "miss"}, table.Successors)
	//
	assert.Equal(t, "hit", table.Lookup(map[string]uint64{"hdr.f1": 5, "hdr.f2": 4}, nil))
	assert.Equal(t, "miss", table.Lookup(map[string]uint64{"hdr.f1": 5, "hdr.f2": 3}, nil))
	assert.Equal(t, "miss", table.Lookup(map[string]uint64{"hdr.f1": 6, "hdr.f2": 4}, nil))
}

func Test_Gateway_02(t *testing.T) {
	// Range matching
	table := compile(t, "gen1", Row{ir.LessThan(f8, ir.Const(100, 8)), "A"}, Row{nil, "B"})
	//
	assert.Equal(t, uint(8), table.Layout.Bits)
	assert.Equal(t, uint(0), table.Layout.Bytes)
	//
	for f := uint64(0); f < 256; f++ {
		expected := "B"
		//
		if f < 100 {
			expected = "A"
		}
		//
		assert.Equal(t, expected, table.Lookup(map[string]uint64{"f": f}, nil), "f=%d", f)
	}
}

func Test_Gateway_03(t *testing.T) {
	// Too many rows
	var rows []Row
	//
	for i := 0; i < 5; i++ {
		rows = append(rows, Row{ir.Equals(f8, ir.Const(uint64(i+1), 8)), fieldName("L", i)})
	}
	//
	_, diags := Compile("g", append(rows, Row{nil, "D"}), gatewaySpec(t, "gen1"))
	//
	require.True(t, diag.HasErrors(diags))
	assert.Equal(t, diag.Overlimit, diags[0].Category)
	assert.Equal(t, "gateway g needs 5 rows, limit is 4", diags[0].Message)
	//
	_, diags = Compile("g", append(rows, Row{nil, "D"}), &wideGateway)
	require.False(t, diag.HasErrors(diags))
}

func Test_Gateway_04(t *testing.T) {
	// Signed ordering and validity
	var (
		cond  = ir.And(&ir.Valid{Header: "hdr"}, ir.NewBinary(ir.Ge, s8, ir.SignedConst(-3, 0)))
		table = compile(t, "gen1", Row{cond, "A"}, Row{nil, "B"})
		env   = ir.NewEnv()
	)
	//
	for s := uint64(0); s < 256; s++ {
		for _, valid := range []bool{false, true} {
			env.Set("s", s).SetValid("hdr", valid)
			expected := firstMatch([]Row{{cond, "A"}, {nil, "B"}}, env)
			//
			assert.Equal(t, expected, table.Lookup(map[string]uint64{"s": s}, map[string]bool{"hdr": valid}))
		}
	}
}

func Test_Gateway_05(t *testing.T) {
	// Randomised end-to-end equivalence
	var (
		faker    = gofakeit.New(5)
		labels   = []string{"A", "B", "C"}
		compiled = 0
	)
	//
	for i := 0; i < 300; i++ {
		var in []Row
		//
		for j := faker.Number(1, 3); j > 0; j-- {
			in = append(in, Row{randomCond(faker, 1), labels[faker.Number(0, 2)]})
		}
		//
		in = append(in, Row{nil, labels[faker.Number(0, 2)]})
		//
		table, diags := Compile("g", in, &wideGateway)
		//
		if diag.HasErrors(diags) {
			continue
		}
		//
		compiled++
		//
		for k := 0; k < 50; k++ {
			fields, valid := randomValues(faker)
			//
			if expected, actual := firstMatch(in, toEnv(fields, valid)), table.Lookup(fields, valid); expected != actual {
				t.Fatalf("rows %v gave %s, but gateway gave %s for %s\n%s", in, expected, actual,
					spew.Sdump(fields, valid), table.String())
			}
		}
	}
	//
	assert.NotZero(t, compiled)
}

func Test_Gateway_06(t *testing.T) {
	keys := []Key{{f8, MatchExact}, {g8, MatchTernary}}
	entries := []Entry{
		{[]Pattern{exact(5), masked(0x10, 0xf0)}, "A"},
		{[]Pattern{{Kind: PatternAny}, {Kind: PatternAny}}, "B"},
	}
	//
	rows, diags := FromConstEntries(keys, entries, "C")
	//
	require.Empty(t, diags)
	require.Len(t, rows, 3)
	assert.True(t, ir.Equal(rows[1].Cond, ir.True))
	//
	table := compile(t, "gen1", rows...)
	assert.Equal(t, "A", table.Lookup(map[string]uint64{"f": 5, "g": 0x1f}, nil))
	assert.Equal(t, "B", table.Lookup(map[string]uint64{"f": 5, "g": 0x2f}, nil))
	assert.Equal(t, "B", table.Lookup(map[string]uint64{"f": 4, "g": 0x1f}, nil))
	assert.True(t, FitsGateway(keys, entries, "C", gatewaySpec(t, "gen1")))
}

func Test_Gateway_07(t *testing.T) {
	keys := []Key{{f8, MatchExact}}
	// Wrong number of patterns
	_, diags := FromConstEntries(keys, []Entry{{[]Pattern{exact(1), exact(2)}, "A"}}, "B")
	require.True(t, diag.HasErrors(diags))
	assert.Equal(t, diag.Invalid, diags[0].Category)
	// Masks are not permitted for exact keys
	_, diags = FromConstEntries(keys, []Entry{{[]Pattern{masked(1, 3)}, "A"}}, "B")
	require.True(t, diag.HasErrors(diags))
	assert.Equal(t, "pattern not permitted for key f", diags[0].Message)
	//
	assert.False(t, FitsGateway(keys, []Entry{{[]Pattern{masked(1, 3)}, "A"}}, "B", gatewaySpec(t, "gen1")))
}

func Test_Gateway_08(t *testing.T) {
	// Range keys
	var (
		keys    = []Key{{f8, MatchRange}}
		entries = []Entry{{[]Pattern{interval(10, 20)}, "A"}}
	)
	//
	assert.True(t, FitsGateway(keys, entries, "B", gatewaySpec(t, "gen1")))
	assert.False(t, FitsGateway(keys, entries, "B", gatewaySpec(t, "gen3")))
	//
	rows, diags := FromConstEntries(keys, entries, "B")
	require.Empty(t, diags)
	//
	table := compile(t, "gen1", rows...)
	//
	for f := uint64(0); f < 256; f++ {
		expected := "B"
		//
		if 10 <= f && f <= 20 {
			expected = "A"
		}
		//
		assert.Equal(t, expected, table.Lookup(map[string]uint64{"f": f}, nil), "f=%d", f)
	}
}

func Test_Gateway_09(t *testing.T) {
	// Keys which cannot fit
	keys := []Key{{w40, MatchExact}}
	assert.False(t, FitsGateway(keys, []Entry{{[]Pattern{exact(1)}, "A"}}, "B", gatewaySpec(t, "gen1")))
	//
	kind, ok := ParseMatchKind("lpm")
	assert.True(t, ok)
	assert.Equal(t, MatchLpm, kind)
	//
	_, ok = ParseMatchKind("selector")
	assert.False(t, ok)
}

// ===================================================================
// Helpers
// ===================================================================

func compile(t *testing.T, target string, rows ...Row) *Table {
	table, diags := Compile("g", rows, gatewaySpec(t, target))
	require.False(t, diag.HasErrors(diags), "%v", diags)
	//
	return table
}

func exact(v int64) Pattern {
	return Pattern{Kind: PatternExact, Value: *big.NewInt(v)}
}

func masked(v int64, m int64) Pattern {
	return Pattern{Kind: PatternMasked, Value: *big.NewInt(v), Arg: *big.NewInt(m)}
}

func interval(lo int64, hi int64) Pattern {
	return Pattern{Kind: PatternInterval, Value: *big.NewInt(lo), Arg: *big.NewInt(hi)}
}
