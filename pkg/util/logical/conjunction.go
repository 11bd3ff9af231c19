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
package logical

import (
	"slices"
	"strings"
)

// Conjunction represents a conjunction of zero or more atoms, where the empty
// conjunction is logical truth.
type Conjunction[A Atom[A]] struct {
	atoms sortedSet[A]
}

// NewConjunction constructs a conjunction from a given set of atoms, returning
// false if they are contradictory.
func NewConjunction[A Atom[A]](atoms ...A) (Conjunction[A], bool) {
	c := Conjunction[A]{newSortedSet(slices.Clone(atoms)...)}
	//
	return c, c.simplify()
}

// Atoms returns the atoms making up this conjunction.
func (p Conjunction[A]) Atoms() []A {
	return p.atoms
}

// Len returns the number of atoms in this conjunction.
func (p Conjunction[A]) Len() int {
	return len(p.atoms)
}

// Cmp implementation for the Comparable interface.
func (p Conjunction[A]) Cmp(o Conjunction[A]) int {
	return compare(p.atoms, o.atoms)
}

// Contains checks whether a given atom is one of the conjuncts.
func (p Conjunction[A]) Contains(atom A) bool {
	return p.atoms.contains(atom)
}

// Remove a given atom from this conjunction, returning the result and an
// indication of whether it was present.
func (p Conjunction[A]) Remove(atom A) (Conjunction[A], bool) {
	atoms, ok := p.atoms.remove(atom)
	return Conjunction[A]{atoms}, ok
}

// And returns the conjunction of two conjunctions, or false if the result is
// contradictory.
func (p Conjunction[A]) And(o Conjunction[A]) (Conjunction[A], bool) {
	c := Conjunction[A]{p.atoms.union(o.atoms)}
	//
	return c, c.simplify()
}

// Implies checks whether this conjunction (syntactically) implies another.
// That is, whether every atom of the other conjunction is present in this
// conjunction.
func (p Conjunction[A]) Implies(other Conjunction[A]) bool {
	return other.atoms.subset(p.atoms)
}

// String returns a human-readable representation of this conjunction,
// optionally bracketed.
func (p Conjunction[A]) String(braces bool) string {
	var builder strings.Builder
	//
	braces = braces && len(p.atoms) > 1
	//
	if len(p.atoms) == 0 {
		return "⊤"
	} else if braces {
		builder.WriteString("(")
	}
	//
	for i, c := range p.atoms {
		if i != 0 {
			builder.WriteString(" ∧ ")
		}
		//
		builder.WriteString(c.String())
	}
	//
	if braces {
		builder.WriteString(")")
	}
	//
	return builder.String()
}

// Simplify this conjunction by closing over all pairs of atoms.  This returns
// false if a contradiction is found.
func (p *Conjunction[A]) simplify() bool {
	var (
		done    = false
		changed = false
	)
	//
	for !done {
		done = true
		// This is an O(n^2) operation, but we just assume the number of
		// conjunctions (i.e. n) is small.
		for i, ci := range p.atoms {
			if ci.Is(false) {
				return false
			}
			//
			for j, cj := range p.atoms {
				if i == j {
					continue
				} else if cj.Cmp(ci.Negate()) == 0 {
					// a ∧ ¬a
					return false
				}
				//
				cij := ci.CloseOver(cj)
				//
				if cij.Is(false) {
					return false
				} else if ci.Cmp(cij) != 0 {
					p.atoms[i] = cij
					ci = cij
					changed = true
					done = false
				}
			}
		}
	}
	//
	if changed || slices.ContainsFunc(p.atoms, func(a A) bool { return a.Is(true) }) {
		// Remove any T values and resort, as things may have been disturbed
		atoms := slices.DeleteFunc(p.atoms, func(a A) bool { return a.Is(true) })
		p.atoms = newSortedSet(atoms...)
	}
	//
	return true
}
