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
	"cmp"
	"fmt"
	"testing"
)

func Test_Prop_01(t *testing.T) {
	checkProp(t, "x=1", eq("x", 1))
}

func Test_Prop_02(t *testing.T) {
	checkProp(t, "⊥", eq("x", 1).And(eq("x", 2)))
}

func Test_Prop_03(t *testing.T) {
	checkProp(t, "x=1", eq("x", 1).And(neq("x", 2)))
}

func Test_Prop_04(t *testing.T) {
	checkProp(t, "⊥", eq("x", 1).And(neq("x", 1)))
}

func Test_Prop_05(t *testing.T) {
	checkProp(t, "x=1 ∧ y≠1", eq("x", 1).And(neq("y", 1)))
}

func Test_Prop_06(t *testing.T) {
	checkProp(t, "⊥", truth(false).And(eq("x", 1)))
	checkProp(t, "x=1", truth(true).And(eq("x", 1)))
	checkProp(t, "x=1", eq("x", 1).And(truth(true)))
}

func Test_Prop_10(t *testing.T) {
	checkProp(t, "x=1 ∨ y=2", eq("x", 1).Or(eq("y", 2)))
}

func Test_Prop_11(t *testing.T) {
	checkProp(t, "⊤", eq("x", 1).Or(neq("x", 1)))
}

func Test_Prop_12(t *testing.T) {
	// absorption
	checkProp(t, "x=1", eq("x", 1).Or(eq("x", 1).And(eq("y", 2))))
}

func Test_Prop_13(t *testing.T) {
	// unit propagation
	checkProp(t, "x=1 ∨ y=2", eq("x", 1).Or(neq("x", 1).And(eq("y", 2))))
}

func Test_Prop_14(t *testing.T) {
	checkProp(t, "⊤", truth(true).Or(eq("x", 1)))
	checkProp(t, "x=1", truth(false).Or(eq("x", 1)))
}

func Test_Prop_20(t *testing.T) {
	p := eq("x", 1).Or(eq("y", 2)).And(eq("z", 3))
	checkProp(t, "(x=1 ∧ z=3) ∨ (y=2 ∧ z=3)", p)
}

func Test_Prop_21(t *testing.T) {
	p := eq("x", 1).Or(eq("y", 2)).And(eq("x", 3))
	checkProp(t, "x=3 ∧ y=2", p)
}

func Test_Prop_30(t *testing.T) {
	p := eq("x", 1).And(eq("y", 2))
	checkProp(t, "x≠1 ∨ y≠2", p.Negate())
}

func Test_Prop_31(t *testing.T) {
	checkProp(t, "⊥", truth(true).Negate())
	checkProp(t, "⊤", truth(false).Negate())
}

func Test_Prop_32(t *testing.T) {
	p := eq("x", 1).Or(eq("y", 2))
	checkProp(t, "x≠1 ∧ y≠2", p.Negate())
}

func Test_Prop_40(t *testing.T) {
	var (
		lhs = eq("a", 1).Or(eq("b", 1)).Or(eq("c", 1))
		rhs = eq("d", 1).Or(eq("e", 1)).Or(eq("f", 1))
	)
	//
	if _, ok := lhs.AndBounded(rhs, 4); ok {
		t.Errorf("expected distribution to exceed bound")
	}
	//
	if p, ok := lhs.AndBounded(rhs, 9); !ok || len(p.Conjuncts()) != 9 {
		t.Errorf("expected 9 disjuncts, got %s", p.String())
	}
}

func Test_Conj_01(t *testing.T) {
	c, ok := NewConjunction(testAtom{"x", 1, true}, testAtom{"y", 2, true})
	//
	if !ok || c.Len() != 2 {
		t.Fatalf("unexpected conjunction %s", c.String(false))
	}
	//
	d, _ := NewConjunction(testAtom{"x", 1, true})
	//
	if !c.Implies(d) || d.Implies(c) {
		t.Errorf("incorrect implication between %s and %s", c.String(false), d.String(false))
	}
}

func Test_Conj_02(t *testing.T) {
	if c, ok := NewConjunction(testAtom{"x", 1, true}, testAtom{"x", 2, true}); ok {
		t.Errorf("expected contradiction, got %s", c.String(false))
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func checkProp(t *testing.T, expected string, actual Proposition[testAtom]) {
	t.Helper()
	//
	if actual.String() != expected {
		t.Errorf("expected %s, got %s", expected, actual.String())
	}
}

func eq(v string, c int) Proposition[testAtom] {
	return NewProposition(testAtom{v, c, true})
}

func neq(v string, c int) Proposition[testAtom] {
	return NewProposition(testAtom{v, c, false})
}

func truth(b bool) Proposition[testAtom] {
	return Truth[testAtom](b)
}

// testAtom is an equality "v = c" or non-equality "v ≠ c".  An empty variable
// represents a constant, whose sign gives its truth.
type testAtom struct {
	v    string
	c    int
	sign bool
}

func (p testAtom) Cmp(o testAtom) int {
	if c := cmp.Compare(p.v, o.v); c != 0 {
		return c
	} else if c := cmp.Compare(p.c, o.c); c != 0 {
		return c
	}
	//
	return cmpBool(p.sign, o.sign)
}

func (p testAtom) Negate() testAtom {
	return testAtom{p.v, p.c, !p.sign}
}

func (p testAtom) Is(b bool) bool {
	return p.v == "" && p.sign == b
}

func (p testAtom) CloseOver(o testAtom) testAtom {
	if p.v != o.v || p.v == "" || !o.sign {
		return p
	} else if p.sign && p.c != o.c {
		// x=1 ∧ x=2
		return testAtom{"", 0, false}
	} else if !p.sign && p.c != o.c {
		// x≠1 ∧ x=2
		return testAtom{"", 0, true}
	} else if !p.sign {
		return testAtom{"", 0, false}
	}
	//
	return p
}

func (p testAtom) String() string {
	if p.sign {
		return fmt.Sprintf("%s=%d", p.v, p.c)
	}
	//
	return fmt.Sprintf("%s≠%d", p.v, p.c)
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
