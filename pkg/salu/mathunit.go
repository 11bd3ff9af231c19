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
	"math"
	"slices"
	"strings"
)

// MathTableSize is the number of entries in the lookup table of a math unit.
const MathTableSize = 16

// MathOps lists the functions supported by a math unit.
var MathOps = []string{"sqr", "sqrt", "rsqr", "rsqrt", "rcp", "log"}

// MathUnitDecl declares a math unit, available to the actions of a stateful
// ALU through "name.execute(x)".
type MathUnitDecl struct {
	Name string
	Op   string
}

// MathUnit is the math unit used by a stateful ALU.  This approximates a
// function by looking up the four most significant bits of its input in a
// table of eight bit values.
type MathUnit struct {
	Name  string
	Op    string
	Input Operand
	Table [MathTableSize]uint8
}

// MathTable computes the lookup table for a given function, where entry i is
// the function applied to i scaled into eight bits.
func MathTable(op string) ([MathTableSize]uint8, bool) {
	var (
		table [MathTableSize]uint8
		fn    func(float64) float64
	)
	//
	switch op {
	case "sqr":
		fn = func(x float64) float64 { return x * x }
	case "sqrt":
		fn = func(x float64) float64 { return 16 * math.Sqrt(x) }
	case "rsqr":
		fn = func(x float64) float64 { return 255 / (x * x) }
	case "rsqrt":
		fn = func(x float64) float64 { return 255 / math.Sqrt(x) }
	case "rcp":
		fn = func(x float64) float64 { return 255 / x }
	case "log":
		fn = func(x float64) float64 { return 16 * math.Log2(x) }
	default:
		return table, false
	}
	//
	for i := range table {
		v := fn(float64(i))
		// Clamp, which also covers the poles at zero
		switch {
		case math.IsNaN(v) || v < 0:
			v = 0
		case v > math.MaxUint8:
			v = math.MaxUint8
		}
		//
		table[i] = uint8(math.Round(v))
	}
	//
	return table, true
}

// IsMathOp checks whether a given function is supported by math units.
func IsMathOp(op string) bool {
	return slices.Contains(MathOps, op)
}

func (p *MathUnit) String() string {
	var entries []string
	//
	for _, v := range p.Table {
		entries = append(entries, fmt.Sprintf("%d", v))
	}
	//
	return fmt.Sprintf("%s(%s, %s) [%s]", p.Name, p.Op, p.Input, strings.Join(entries, " "))
}
