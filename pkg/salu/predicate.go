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

// Predicate is a truth table over the outputs of the comparators used by a
// single instruction.  Bit i of the table is set when the predicate holds for
// the combination of comparator outputs given by the bits of i, where bit j of
// i is the output of comparator j.  At most four comparators are supported.
type Predicate uint16

// Always returns the predicate which holds for every combination of n
// comparator outputs.
func Always(n uint) Predicate {
	return Predicate(uint32(1)<<(1<<n) - 1)
}

// Compare returns the predicate which holds exactly when comparator i (of n)
// holds.
func Compare(i uint, n uint) Predicate {
	var p Predicate
	//
	for v := uint(0); v < 1<<n; v++ {
		if v&(1<<i) != 0 {
			p |= 1 << v
		}
	}
	//
	return p
}

// And returns the conjunction of two predicates.
func (p Predicate) And(q Predicate) Predicate {
	return p & q
}

// Or returns the disjunction of two predicates.
func (p Predicate) Or(q Predicate) Predicate {
	return p | q
}

// Not returns the negation of a predicate over n comparators.
func (p Predicate) Not(n uint) Predicate {
	return Always(n) &^ p
}

// Overlaps checks whether two predicates can hold at the same time.
func (p Predicate) Overlaps(q Predicate) bool {
	return p&q != 0
}

// Covers checks whether this predicate holds whenever another does.
func (p Predicate) Covers(q Predicate) bool {
	return q&^p == 0
}

// IsNever checks whether this predicate can never hold.
func (p Predicate) IsNever() bool {
	return p == 0
}

// Format renders a predicate as a sum of products over the names of the
// comparator units, where a predicate which always holds is rendered as the
// empty string.
func (p Predicate) Format(units []string) string {
	var (
		n     = uint(len(units))
		terms []string
	)
	//
	if p == Always(n) {
		return ""
	} else if p == 0 {
		return "never"
	}
	// Try single comparators first
	for i := uint(0); i < n; i++ {
		if p == Compare(i, n) {
			return units[i]
		} else if p == Compare(i, n).Not(n) {
			return "!" + units[i]
		}
	}
	//
	for v := uint(0); v < 1<<n; v++ {
		if p&(1<<v) == 0 {
			continue
		}
		//
		var lits []string
		//
		for i := uint(0); i < n; i++ {
			if v&(1<<i) != 0 {
				lits = append(lits, units[i])
			} else {
				lits = append(lits, "!"+units[i])
			}
		}
		//
		terms = append(terms, strings.Join(lits, " & "))
	}
	//
	return strings.Join(terms, " | ")
}

func (p Predicate) String() string {
	return fmt.Sprintf("0x%04x", uint16(p))
}
