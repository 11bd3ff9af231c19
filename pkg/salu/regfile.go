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
	"strings"
)

// RegFileRow is a single row of the register file attached to a stateful ALU,
// which holds either a constant too large for an instruction or a parameter
// set by the control plane.
type RegFileRow struct {
	// Param is the name of the register parameter held, or empty for a
	// constant.
	Param string
	Value int64
}

func (r RegFileRow) String() string {
	if r.Param != "" {
		return r.Param
	}
	//
	return fmt.Sprintf("%d", r.Value)
}

// RegFile is the set of rows used by a stateful ALU, shared between all of its
// instructions.
type RegFile struct {
	rows []RegFileRow
}

// Constant returns the row holding a given constant, allocating one if none
// exists.
func (p *RegFile) Constant(value int64) uint {
	return p.find(RegFileRow{Value: value})
}

// Param returns the row holding a given register parameter, allocating one if
// none exists.
func (p *RegFile) Param(name string) uint {
	return p.find(RegFileRow{Param: name})
}

func (p *RegFile) find(row RegFileRow) uint {
	for i, r := range p.rows {
		if r == row {
			return uint(i)
		}
	}
	//
	p.rows = append(p.rows, row)
	//
	return uint(len(p.rows) - 1)
}

// Len returns the number of allocated rows.
func (p *RegFile) Len() uint {
	return uint(len(p.rows))
}

// Rows returns the allocated rows.
func (p *RegFile) Rows() []RegFileRow {
	return p.rows
}

func (p *RegFile) clone() RegFile {
	return RegFile{append([]RegFileRow(nil), p.rows...)}
}

func (p *RegFile) String() string {
	var rows []string
	//
	for _, r := range p.rows {
		rows = append(rows, r.String())
	}
	//
	return "[" + strings.Join(rows, ", ") + "]"
}
