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
	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
)

// Check a stateful ALU against the limits of a given device, returning any
// limits exceeded.
func Check(unit *Unit, spec *device.SaluSpec) []diag.Diagnostic {
	var (
		name  = unit.Register.Name
		diags = checkRegister(unit.Register, spec)
	)
	//
	if n := uint(len(unit.Actions)); n > spec.MaxInstructions {
		diags = append(diags, diag.Errorf(diag.Overlimit, "stateful ALU %s needs %d instructions, limit is %d", name,
			n, spec.MaxInstructions))
	}
	//
	for _, d := range checkResources(unit, spec) {
		diags = append(diags, d.In("stateful ALU "+name))
	}
	//
	for _, code := range unit.Actions {
		for _, d := range checkCode(code, spec) {
			diags = append(diags, d.In("register action "+code.Name))
		}
	}
	//
	return diags
}

func checkRegister(reg Register, spec *device.SaluSpec) []diag.Diagnostic {
	switch {
	case reg.Width == 0:
		return []diag.Diagnostic{diag.Errorf(diag.Invalid, "register %s has no width", reg.Name)}
	case reg.Dual && 2*reg.Width > spec.MaxDualSize:
		return []diag.Diagnostic{diag.Errorf(diag.Overlimit, "dual register %s of %d bits exceeds limit of %d",
			reg.Name, 2*reg.Width, spec.MaxDualSize)}
	case !reg.Dual && reg.Width > spec.MaxSize:
		return []diag.Diagnostic{diag.Errorf(diag.Overlimit, "register %s of %d bits exceeds limit of %d",
			reg.Name, reg.Width, spec.MaxSize)}
	default:
		return nil
	}
}

// checkResources checks the resources shared by all actions of a stateful ALU.
func checkResources(unit *Unit, spec *device.SaluSpec) []diag.Diagnostic {
	var (
		diags []diag.Diagnostic
		width uint
		words uint
	)
	//
	if n := unit.RegFile.Len(); n > spec.MaxRegfileRows {
		diags = append(diags, diag.Errorf(diag.Overlimit, "needs %d register file rows, limit is %d", n,
			spec.MaxRegfileRows))
	}
	//
	for _, in := range unit.Inputs {
		width += in.Width
		words = max(words, in.Word+in.Words())
	}
	//
	if words > 2 {
		diags = append(diags, diag.Errorf(diag.Overlimit, "needs %d PHV input words, limit is 2", words))
	} else if width > spec.MaxPhvInputWidth {
		diags = append(diags, diag.Errorf(diag.Overlimit, "needs %d bits of PHV input, limit is %d", width,
			spec.MaxPhvInputWidth))
	}
	//
	return diags
}

// checkCode checks the units used by a single instruction.
func checkCode(code *Code, spec *device.SaluSpec) []diag.Diagnostic {
	var (
		diags []diag.Diagnostic
		words = make(map[uint]bool)
	)
	//
	if n := uint(len(code.Comparators())); n > spec.Comparators() {
		diags = append(diags, diag.Errorf(diag.Overlimit, "needs %d comparators, limit is %d", n, spec.Comparators()))
	}
	//
	if n := len(code.Alus()); n > 2 {
		diags = append(diags, diag.Errorf(diag.Overlimit, "needs %d ALUs, limit is 2", n))
	}
	//
	for _, o := range code.Outputs() {
		words[o.Word] = true
	}
	//
	if n := uint(len(words)); n > spec.OutputWords {
		diags = append(diags, diag.Errorf(diag.Overlimit, "needs %d output words, limit is %d", n, spec.OutputWords))
	}
	//
	if n := len(code.Filter(UnitMinMax)); n > 0 && !spec.MinMax {
		diags = append(diags, diag.Errorf(diag.UnsupportedOnTarget, "min/max not supported on this target"))
	}
	//
	return diags
}
