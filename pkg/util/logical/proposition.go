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
	"math"
	"slices"
	"strings"
)

// Atom represents the fundamental unit of a proposition, such as an equality
// "x == 1".  Atoms are totally ordered, closed under negation and can be
// combined with one another to expose contradictions.
type Atom[A any] interface {
	Comparable[A]
	// Return the logical negation of this atom
	Negate() A
	// Check whether this atom is equivalent to logical truth or falsehood.
	Is(bool) bool
	// CloseOver this term and another, producing a potentially updated version
	// of this term.  For example, closing over "x==1" and "x==2" might give
	// "false", whilst closing over "x!=2" and "x==1" might give "true".
	// Closing an atom over itself must return that atom.
	CloseOver(o A) A
	// String returns a human-readable representation
	String() string
}

// Proposition represents a logical formula in disjunctive normal form.  That
// is, a disjunction of zero or more conjunctions of atoms.  The empty
// disjunction is logical falsehood, whilst a disjunction holding the empty
// conjunction is logical truth.
type Proposition[A Atom[A]] struct {
	conjuncts sortedSet[Conjunction[A]]
}

// Truth returns a proposition representing either logical truth or falsehood.
func Truth[A Atom[A]](val bool) Proposition[A] {
	if val {
		return Proposition[A]{sortedSet[Conjunction[A]]{{}}}
	}
	//
	return Proposition[A]{}
}

// NewProposition constructs a proposition from a single atom.
func NewProposition[A Atom[A]](atom A) Proposition[A] {
	if atom.Is(true) {
		return Truth[A](true)
	} else if atom.Is(false) {
		return Truth[A](false)
	}
	//
	return Proposition[A]{sortedSet[Conjunction[A]]{{sortedSet[A]{atom}}}}
}

// Conjuncts returns the disjuncts of this proposition, each of which is a
// conjunction of atoms.
func (p Proposition[A]) Conjuncts() []Conjunction[A] {
	return p.conjuncts
}

// Equals checks whether two propositions are (syntactically) identical.
func (p Proposition[A]) Equals(other Proposition[A]) bool {
	return compare(p.conjuncts, other.conjuncts) == 0
}

// IsTrue checks whether this proposition is logical truth.
func (p Proposition[A]) IsTrue() bool {
	return len(p.conjuncts) == 1 && len(p.conjuncts[0].atoms) == 0
}

// IsFalse checks whether this proposition is logical falsehood.
func (p Proposition[A]) IsFalse() bool {
	return len(p.conjuncts) == 0
}

// And returns the conjunction of two propositions, distributing over their
// disjuncts.
func (p Proposition[A]) And(other Proposition[A]) Proposition[A] {
	r, _ := p.AndBounded(other, math.MaxUint)
	return r
}

// AndBounded returns the conjunction of two propositions, or fails if the
// result would have more than limit disjuncts.  Distribution is the one step
// whose size can grow combinatorially.
func (p Proposition[A]) AndBounded(other Proposition[A], limit uint) (Proposition[A], bool) {
	var disjuncts []Conjunction[A]
	//
	if p.IsFalse() || other.IsFalse() {
		return Truth[A](false), true
	} else if p.IsTrue() {
		return other, true
	} else if other.IsTrue() {
		return p, true
	}
	//
	for _, ci := range p.conjuncts {
		for _, cj := range other.conjuncts {
			if cij, ok := ci.And(cj); ok {
				disjuncts = append(disjuncts, cij)
			}
		}
		// Re-simplify as we go to limit growth.
		if uint(len(disjuncts)) > limit {
			disjuncts = simplify(disjuncts).conjuncts
			//
			if uint(len(disjuncts)) > limit {
				return Truth[A](false), false
			}
		}
	}
	//
	r := simplify(disjuncts)
	//
	return r, uint(len(r.conjuncts)) <= limit
}

// Or returns the disjunction of two propositions.
func (p Proposition[A]) Or(other Proposition[A]) Proposition[A] {
	if p.IsTrue() || other.IsTrue() {
		return Truth[A](true)
	} else if p.IsFalse() {
		return other
	} else if other.IsFalse() {
		return p
	}
	//
	return simplify(p.conjuncts.union(other.conjuncts))
}

// Negate returns the logical negation of this proposition, as determined by
// De Morgan's laws.
func (p Proposition[A]) Negate() Proposition[A] {
	r, _ := p.NegateBounded(math.MaxUint)
	return r
}

// NegateBounded returns the logical negation of this proposition, or fails if
// the result would have more than limit disjuncts.
func (p Proposition[A]) NegateBounded(limit uint) (Proposition[A], bool) {
	var (
		r  = Truth[A](true)
		ok = true
	)
	//
	for _, c := range p.conjuncts {
		if r, ok = r.AndBounded(negateConjunct(c), limit); !ok {
			break
		}
	}
	//
	return r, ok
}

// String returns a human-readable representation of this proposition.
func (p Proposition[A]) String() string {
	var (
		builder strings.Builder
		braces  = len(p.conjuncts) > 1
	)
	// check for true or false
	if p.IsFalse() {
		return "⊥"
	} else if p.IsTrue() {
		return "⊤"
	}
	//
	for i, c := range p.conjuncts {
		if i != 0 {
			builder.WriteString(" ∨ ")
		}
		//
		builder.WriteString(c.String(braces))
	}
	//
	return builder.String()
}

// Simplify a disjunction by applying absorption (i.e. "a ∨ (a ∧ b)" becomes
// "a") and unit propagation (i.e. "a ∨ (¬a ∧ b)" becomes "a ∨ b").
func simplify[A Atom[A]](disjuncts []Conjunction[A]) Proposition[A] {
	var changed = true
	//
	for changed {
		changed = false
		//
	outer:
		for i := 0; i < len(disjuncts); i++ {
			ith := disjuncts[i]
			//
			if len(ith.atoms) == 0 {
				return Truth[A](true)
			}
			//
			for j := 0; j < len(disjuncts); j++ {
				if i == j {
					continue
				}
				//
				jth := disjuncts[j]
				// absorption
				if jth.Implies(ith) {
					disjuncts = slices.Delete(disjuncts, j, j+1)
					changed = true
					//
					break outer
				} else if len(ith.atoms) != 1 {
					continue
				} else if atoms, ok := jth.atoms.remove(ith.atoms[0].Negate()); ok {
					disjuncts[j] = Conjunction[A]{atoms}
					changed = true
					//
					break outer
				}
			}
		}
	}
	//
	return Proposition[A]{newSortedSet(disjuncts...)}
}

// Negate a conjunction which, by De Morgan's law, gives the disjunction of the
// negated atoms.
func negateConjunct[A Atom[A]](c Conjunction[A]) Proposition[A] {
	var r = Truth[A](false)
	//
	for _, a := range c.atoms {
		r = r.Or(NewProposition(a.Negate()))
	}
	//
	return r
}
