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

import (
	"fmt"
	"os"
	"slices"

	"github.com/segmentio/encoding/json"
)

// Device combines the capability descriptors of a given target.
type Device struct {
	Name    string      `json:"name"`
	Gateway GatewaySpec `json:"gateway"`
	Salu    SaluSpec    `json:"salu"`
}

var targets = map[string]Device{
	"gen1": {
		Name: "gen1",
		Gateway: GatewaySpec{
			PhvBytes: 4, HashBits: 12, MaxRows: 4,
			SupportXor: true, SupportRange: true, ExactShifts: 1, ByteSwizzle: true,
			XorByteSlots: 0xf,
		},
		Salu: SaluSpec{
			CmpUnits: []string{"cmplo", "cmphi"},
			MaxSize:  32, MaxDualSize: 64, MaxPhvInputWidth: 64, MaxInstructions: 4,
			MaxInstructionConstWidth: 4, MinInstructionConstValue: -32, MaxInstructionConstValue: 31,
			OutputWords: 1, MaxRegfileRows: 4,
		},
	},
	"gen2": {
		Name: "gen2",
		Gateway: GatewaySpec{
			PhvBytes: 4, HashBits: 12, MaxRows: 4,
			SupportXor: true, SupportRange: true, ExactShifts: 5, ByteSwizzle: true,
			XorByteSlots: 0xf,
		},
		Salu: SaluSpec{
			CmpMask:  true,
			CmpUnits: []string{"cmp0", "cmp1", "cmp2", "cmp3"},
			MaxSize:  64, MaxDualSize: 64, MaxPhvInputWidth: 64, MaxInstructions: 4,
			MaxInstructionConstWidth: 4, MinInstructionConstValue: -32, MaxInstructionConstValue: 31,
			OutputWords: 4, FastClear: true, MaxRegfileRows: 4, MinMax: true,
		},
	},
	"gen3": {
		Name: "gen3",
		Gateway: GatewaySpec{
			PhvBytes: 4, HashBits: 8, PredicateBits: 4, MaxRows: 8,
			ExactShifts: 1, PerByteMatch: 4,
		},
		Salu: SaluSpec{
			CmpMask:  true,
			CmpUnits: []string{"cmp0", "cmp1", "cmp2", "cmp3"},
			MaxSize:  64, MaxDualSize: 64, MaxPhvInputWidth: 64, MaxInstructions: 4,
			MaxInstructionConstWidth: 8, MinInstructionConstValue: -128, MaxInstructionConstValue: 127,
			OutputWords: 4, DivModUnit: true, FastClear: true, MaxRegfileRows: 4, MinMax: true,
		},
	},
}

// DefaultTarget is used when no target is specified.
const DefaultTarget = "gen1"

// Targets returns the names of all built-in targets, sorted.
func Targets() []string {
	var names []string
	//
	for n := range targets {
		names = append(names, n)
	}
	//
	slices.Sort(names)
	//
	return names
}

// Lookup returns the built-in device with a given name.
func Lookup(name string) (Device, error) {
	if dev, ok := targets[name]; ok {
		// Clone the comparator units to prevent aliasing
		dev.Salu.CmpUnits = slices.Clone(dev.Salu.CmpUnits)
		return dev, nil
	}
	//
	return Device{}, fmt.Errorf("unknown target \"%s\" (expected one of %v)", name, Targets())
}

// Parse a device descriptor from its JSON representation.  If the descriptor
// names a "base" target, then fields not given in the descriptor are taken
// from that target.
func Parse(bytes []byte) (Device, error) {
	var (
		dev    Device
		header struct {
			Base string `json:"base"`
		}
	)
	//
	if err := json.Unmarshal(bytes, &header); err != nil {
		return dev, err
	} else if header.Base != "" {
		base, err := Lookup(header.Base)
		if err != nil {
			return dev, err
		}
		//
		dev = base
	}
	//
	if err := json.Unmarshal(bytes, &dev); err != nil {
		return dev, err
	}
	//
	return dev, dev.Validate()
}

// LoadFile reads a device descriptor from a JSON file.
func LoadFile(filename string) (Device, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return Device{}, err
	}
	//
	return Parse(bytes)
}

// Validate sanity checks a device descriptor.
func (p *Device) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("device has no name")
	case p.Gateway.PhvBytes > 8:
		return fmt.Errorf("device %s: at most 8 gateway bytes supported (got %d)", p.Name, p.Gateway.PhvBytes)
	case p.Gateway.SearchBits() > 64:
		return fmt.Errorf("device %s: gateway search word exceeds 64 bits", p.Name)
	case len(p.Salu.CmpUnits) > 4:
		return fmt.Errorf("device %s: at most 4 comparator units supported (got %d)", p.Name, len(p.Salu.CmpUnits))
	case p.Salu.OutputWords == 0 || p.Salu.OutputWords > 4:
		return fmt.Errorf("device %s: between 1 and 4 output words required (got %d)", p.Name, p.Salu.OutputWords)
	case p.Salu.MinInstructionConstValue > p.Salu.MaxInstructionConstValue:
		return fmt.Errorf("device %s: invalid instruction constant range", p.Name)
	}
	//
	return nil
}

// Marshal produces the JSON representation of a device descriptor.
func (p *Device) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
