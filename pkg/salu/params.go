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

// Direction identifies the role of a positional parameter of a register
// action method.
type Direction uint8

const (
	// DirValue is the register value itself, which may be read and written.
	DirValue Direction = iota
	// DirOutput is a value returned from the stateful ALU.
	DirOutput
	// DirHash is the hash digest presented to the stateful ALU.
	DirHash
	// DirLearn is the learn flag of a learning action.
	DirLearn
)

func (d Direction) String() string {
	switch d {
	case DirValue:
		return "value"
	case DirOutput:
		return "output"
	case DirHash:
		return "hash"
	default:
		return "learn"
	}
}

type method struct {
	extern string
	name   string
}

var (
	outputs4 = []Direction{DirValue, DirOutput, DirOutput, DirOutput, DirOutput}
	output1  = []Direction{DirValue, DirOutput}
)

// Parameter directions for each supported extern method.
var directions = map[method][]Direction{
	{"RegisterAction", "apply"}:       outputs4,
	{"DirectRegisterAction", "apply"}: outputs4,
	{"RegisterAction", "overflow"}:    output1,
	{"RegisterAction", "underflow"}:   output1,
	{"LearnAction", "apply"}:          {DirValue, DirHash, DirLearn, DirOutput, DirOutput, DirOutput, DirOutput},
	{"MinMaxAction", "apply"}:         outputs4,
	{"SelectorAction", "apply"}:       output1,
}

// Directions returns the parameter directions of a given extern method (e.g.
// "RegisterAction" and "apply").
func Directions(extern string, name string) ([]Direction, bool) {
	dirs, ok := directions[method{extern, name}]
	return dirs, ok
}
