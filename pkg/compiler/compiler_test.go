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
package compiler

import (
	"testing"

	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir/parser"
	"github.com/consensys/go-mau/pkg/salu"
	"github.com/consensys/go-mau/pkg/util/source"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = `
field hdr.f1 : bit<8>;
field hdr.f2 : bit<8>;

gateway t1 {
    hdr.f1 == 5 && hdr.f2 != 3 : hit;
    default : miss;
}

gateway big {
    hdr.f1 == 1 : a;
    hdr.f1 == 2 : b;
    hdr.f1 == 3 : c;
    hdr.f1 == 4 : d;
    hdr.f1 == 5 : e;
    default : miss;
}

table t2 {
    key = { hdr.f1 : exact; }
    entries = {
        (5) : hit;
    }
    default : miss;
}

register r1 : bit<16>;
register r2 : bit<64>;
register r3 : bit<8>;

RegisterAction count(r1) apply(value, rv) {
    if (value > 100) { value = value - 10; rv = 1; } else { rv = 0; }
}

RegisterAction bad(r1) apply(value, rv) {
    value = value + value + 1;
}

RegisterAction wide(r2) apply(value) {
    value = value + 1;
}
`

func Test_Compiler_01(t *testing.T) {
	result, sink := compile(t, "gen1", program)
	// Gateways
	require.Len(t, result.Gateways, 2)
	assert.Nil(t, result.Gateway("big"))
	//
	t1 := result.Gateway("t1")
	require.NotNil(t, t1)
	assert.Equal(t, "hit", t1.Lookup(map[string]uint64{"hdr.f1": 5, "hdr.f2": 4}, nil))
	assert.Equal(t, "miss", t1.Lookup(map[string]uint64{"hdr.f1": 5, "hdr.f2": 3}, nil))
	//
	t2 := result.Gateway("t2")
	require.NotNil(t, t2)
	assert.Equal(t, "hit", t2.Lookup(map[string]uint64{"hdr.f1": 5}, nil))
	assert.Equal(t, "miss", t2.Lookup(map[string]uint64{"hdr.f1": 6}, nil))
	// Stateful ALUs
	require.Len(t, result.Units, 1)
	//
	unit := result.Unit("r1")
	require.NotNil(t, unit)
	require.Len(t, unit.Actions, 1)
	assert.Equal(t, "count", unit.Actions[0].Name)
	assert.Equal(t, uint(1), unit.RegFile.Len())
	// Every failure is reported
	assert.Equal(t, []string{"gateway big", "register action bad", "register action wide", "register r2"},
		contexts(sink))
	//
	for _, d := range sink.Errors() {
		assert.NotNil(t, d.Span, d.Error())
	}
}

func Test_Compiler_02(t *testing.T) {
	// Restricting to gateways
	var (
		prog = parse(t, program)
		sink = diag.NewSink()
		dev  = target(t, "gen1")
	)
	//
	result := NewCompiler(prog, dev, sink).Only(true, false).Compile()
	assert.Len(t, result.Gateways, 2)
	assert.Empty(t, result.Units)
	assert.Equal(t, uint(1), sink.ErrorCount())
}

func Test_Compiler_03(t *testing.T) {
	// Actions on unknown registers
	var (
		prog = &parser.Program{Actions: []*parser.Action{{Extern: "RegisterAction", Name: "a", Register: "r",
			Method: "apply"}}}
		sink = diag.NewSink()
	)
	//
	Compile(prog, target(t, "gen1"), sink)
	//
	errs := sink.Errors()
	require.Len(t, errs, 1, spew.Sdump(errs))
	assert.Equal(t, diag.NotFound, errs[0].Category)
	assert.Equal(t, "register action a", errs[0].Context)
}

func Test_Compiler_04(t *testing.T) {
	// Selectors are inferred from their actions
	const text = `
register sel : bit<1>;
SelectorAction pick(sel) apply(value, rv) {
    rv = value;
}
`
	result, sink := compile(t, "gen1", text)
	require.Zero(t, sink.ErrorCount(), spew.Sdump(sink.Diagnostics()))
	//
	unit := result.Unit("sel")
	require.NotNil(t, unit)
	assert.True(t, unit.Register.Selector)
	assert.Len(t, unit.Actions, 3)
	assert.Equal(t, salu.OpReadBit, unit.Actions[0].Alus()[0].Opcode)
}

// ============================================================================
// Helpers
// ============================================================================

func target(t *testing.T, name string) *device.Device {
	dev, err := device.Lookup(name)
	require.NoError(t, err)
	//
	return &dev
}

func parse(t *testing.T, text string) *parser.Program {
	prog, errs := parser.Parse(source.NewSourceFile("test", []byte(text)))
	require.Empty(t, errs)
	//
	return prog
}

func compile(t *testing.T, name string, text string) (Result, *diag.Sink) {
	var sink = diag.NewSink()
	//
	return Compile(parse(t, text), target(t, name), sink), sink
}

func contexts(sink *diag.Sink) []string {
	var names []string
	//
	for _, d := range sink.Errors() {
		names = append(names, d.Context)
	}
	//
	return names
}
