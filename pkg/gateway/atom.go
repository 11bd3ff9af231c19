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
package gateway

import (
	"cmp"
	"fmt"
	"math/bits"

	"github.com/consensys/go-mau/pkg/ir"
)

// Ref identifies a contiguous run of bits [Hi:Lo] of a named field.
type Ref struct {
	Field string
	// Width of the field as a whole
	FieldWidth uint
	Hi, Lo     uint
}

// Width returns the number of bits covered by this reference.
func (r Ref) Width() uint {
	return r.Hi - r.Lo + 1
}

// Sub returns the slice [hi:lo] of this reference, where hi and lo are
// relative to the start of this reference.
func (r Ref) Sub(hi, lo uint) Ref {
	return Ref{r.Field, r.FieldWidth, r.Lo + hi, r.Lo + lo}
}

// Overlaps checks whether two references share any bits.
func (r Ref) Overlaps(o Ref) bool {
	return r.Field == o.Field && r.Lo <= o.Hi && o.Lo <= r.Hi
}

// Contains checks whether this reference covers all bits of another.
func (r Ref) Contains(o Ref) bool {
	return r.Field == o.Field && r.Lo <= o.Lo && o.Hi <= r.Hi
}

// Cmp implementation for the Comparable interface.
func (r Ref) Cmp(o Ref) int {
	if c := cmp.Compare(r.Field, o.Field); c != 0 {
		return c
	} else if c := cmp.Compare(r.Lo, o.Lo); c != 0 {
		return c
	}
	//
	return cmp.Compare(r.Hi, o.Hi)
}

// Expr converts this reference back into an expression.
func (r Ref) Expr() ir.Expr {
	return ir.NewSlice(ir.NewField(r.Field, r.FieldWidth), r.Hi, r.Lo)
}

func (r Ref) String() string {
	if r.Lo == 0 && r.Hi+1 == r.FieldWidth {
		return r.Field
	}
	//
	return fmt.Sprintf("%s[%d:%d]", r.Field, r.Hi, r.Lo)
}

// Determine the reference (if any) for a given expression.  This only
// succeeds for fields and slices of fields.
func refOf(e ir.Expr) (Ref, bool) {
	switch e := e.(type) {
	case *ir.Field:
		return Ref{e.Name, e.Width, e.Width - 1, 0}, e.Width > 0
	case *ir.Slice:
		if f, lo, ok := ir.Base(e); ok {
			return Ref{f.Name, f.Width, lo + e.Hi - e.Lo, lo}, true
		}
	}
	//
	return Ref{}, false
}

type atomKind uint8

const (
	// constant truth, where the sign determines the value
	truthAtom atomKind = iota
	// header validity test, where the value determines the expected validity.
	validAtom
	// masked equality "(a & mask) == value"
	eqAtom
	// field comparison "(a ^ b) == value", where value is only ever non-zero
	// for single bits.
	xorAtom
	// ordering "a < value" (or "a >= value" when negated)
	rangeAtom
	// range match of a nibble "a in mask", where bit i of the mask indicates
	// value i matches.
	nibbleAtom
)

// atom is the fundamental unit of a canonical gateway condition.  Every atom
// is over at most 32 bits of a single field (or two fields for xor atoms).
type atom struct {
	kind atomKind
	// sign is false for a negated atom.  Only eq, xor and range atoms can
	// be negated; the others are normalised so that sign is always true.
	sign   bool
	signed bool
	a, b   Ref
	header string
	mask   uint64
	value  uint64
}

var (
	trueAtom  = atom{kind: truthAtom, sign: true}
	falseAtom = atom{kind: truthAtom, sign: false}
)

func truth(b bool) atom {
	if b {
		return trueAtom
	}
	//
	return falseAtom
}

func newValid(header string, valid bool) atom {
	return atom{kind: validAtom, sign: true, header: header, value: boolValue(valid)}
}

// Construct a masked equality, normalising the mask so that its lowest and
// highest bits are set by narrowing the reference.  Single bit non-equalities
// are turned into equalities against the flipped bit.
func newEq(r Ref, mask, value uint64, sign bool) atom {
	mask &= ones(r.Width())
	//
	if value&^mask != 0 {
		return truth(!sign)
	} else if mask == 0 {
		return truth(sign)
	}
	//
	var (
		tz = uint(bits.TrailingZeros64(mask))
		hi = uint(bits.Len64(mask)) - 1
	)
	//
	r, mask, value = r.Sub(hi, tz), mask>>tz, value>>tz
	//
	if r.Width() == 1 && !sign {
		value, sign = value^1, true
	}
	//
	return atom{kind: eqAtom, sign: sign, a: r, mask: mask, value: value}
}

// Construct a field comparison a == b.  The operands are ordered to give a
// canonical form, and single bit non-equalities become "(a ^ b) == 1".
func newXor(a, b Ref, sign bool) atom {
	var value uint64
	//
	if b.Cmp(a) < 0 {
		a, b = b, a
	}
	//
	if a.Cmp(b) == 0 {
		return truth(sign)
	} else if a.Width() == 1 && !sign {
		value, sign = 1, true
	}
	//
	return atom{kind: xorAtom, sign: sign, a: a, b: b, value: value}
}

// Construct an ordering a < k (or a >= k when sign is false).
func newRange(r Ref, k uint64, signed bool, sign bool) atom {
	return atom{kind: rangeAtom, sign: sign, signed: signed, a: r, value: k}
}

// Construct a range match of a reference (of at most 4 bits) against a set of
// values.
func newNibble(r Ref, set uint64) atom {
	set &= ones(1 << r.Width())
	//
	if set == 0 {
		return falseAtom
	} else if set == ones(1<<r.Width()) {
		return trueAtom
	}
	//
	return atom{kind: nibbleAtom, sign: true, a: r, mask: set}
}

// Cmp implementation for the Comparable interface.
func (p atom) Cmp(o atom) int {
	if c := cmp.Compare(p.kind, o.kind); c != 0 {
		return c
	} else if c := p.a.Cmp(o.a); c != 0 {
		return c
	} else if c := p.b.Cmp(o.b); c != 0 {
		return c
	} else if c := cmp.Compare(p.header, o.header); c != 0 {
		return c
	} else if c := cmp.Compare(p.mask, o.mask); c != 0 {
		return c
	} else if c := cmp.Compare(p.value, o.value); c != 0 {
		return c
	} else if c := cmpBool(p.signed, o.signed); c != 0 {
		return c
	}
	//
	return cmpBool(p.sign, o.sign)
}

// Negate implementation for the Atom interface.
func (p atom) Negate() atom {
	switch p.kind {
	case validAtom:
		p.value ^= 1
	case nibbleAtom:
		return newNibble(p.a, ^p.mask)
	case eqAtom:
		if p.a.Width() == 1 && p.mask == 1 {
			p.value ^= 1
			return p
		}
		//
		p.sign = !p.sign
	case xorAtom:
		if p.a.Width() == 1 {
			p.value ^= 1
			return p
		}
		//
		p.sign = !p.sign
	default:
		p.sign = !p.sign
	}
	//
	return p
}

// Is implementation for the Atom interface.
func (p atom) Is(b bool) bool {
	return p.kind == truthAtom && p.sign == b
}

// IsNegative checks whether this atom needs negation elimination before it can
// be matched in hardware.
func (p atom) IsNegative() bool {
	return !p.sign && (p.kind == eqAtom || p.kind == xorAtom)
}

// CloseOver implementation for the Atom interface.  This only ever reduces an
// atom to truth or falsehood in the context of another, which guarantees
// termination when closing over a conjunction.
func (p atom) CloseOver(o atom) atom {
	if p.kind == truthAtom || o.kind == truthAtom || p.a.Cmp(o.a) != 0 {
		return p
	}
	//
	switch {
	case p.kind == eqAtom && o.kind == eqAtom && o.sign:
		common := p.mask & o.mask
		//
		if p.sign && p.value&common != o.value&common {
			// x == 1 ∧ x == 2
			return falseAtom
		} else if !p.sign && p.mask&^o.mask == 0 {
			// x != c ∧ x == d
			return truth(o.value&p.mask != p.value)
		}
	case p.kind == rangeAtom && o.kind == eqAtom && o.sign && o.mask == ones(o.a.Width()):
		// x < k ∧ x == c
		return truth(p.holds(o.value))
	case p.kind == rangeAtom && o.kind == rangeAtom && p.signed == o.signed:
		return p.closeOverRange(o)
	case p.kind == nibbleAtom && o.kind == nibbleAtom:
		if p.mask&o.mask == 0 {
			return falseAtom
		} else if o.mask&^p.mask == 0 {
			return trueAtom
		}
	case p.kind == nibbleAtom && o.kind == eqAtom && o.sign && o.mask == ones(o.a.Width()):
		return truth(p.mask&(1<<o.value) != 0)
	}
	//
	return p
}

func (p atom) closeOverRange(o atom) atom {
	var (
		w  = p.a.Width()
		pk = toInt(p.value, w, p.signed)
		ok = toInt(o.value, w, o.signed)
	)
	//
	switch {
	case p.sign && o.sign && ok <= pk:
		// x < 5 ∧ x < 3
		return trueAtom
	case !p.sign && !o.sign && ok >= pk:
		// x >= 3 ∧ x >= 5
		return trueAtom
	case p.sign && !o.sign && ok >= pk:
		// x < 3 ∧ x >= 5
		return falseAtom
	case !p.sign && o.sign && ok <= pk:
		// x >= 5 ∧ x < 3
		return falseAtom
	}
	//
	return p
}

// Check whether a given value satisfies this range atom.
func (p atom) holds(v uint64) bool {
	var (
		w  = p.a.Width()
		lt = toInt(v, w, p.signed) < toInt(p.value, w, p.signed)
	)
	//
	return lt == p.sign
}

// Expr converts this atom back into an expression.
func (p atom) Expr() ir.Expr {
	var e ir.Expr
	//
	switch p.kind {
	case truthAtom:
		return ir.NewBool(p.sign)
	case validAtom:
		if p.value == 0 {
			return ir.Not(&ir.Valid{Header: p.header})
		}
		//
		return &ir.Valid{Header: p.header}
	case eqAtom:
		var lhs = p.a.Expr()
		//
		if p.mask != ones(p.a.Width()) {
			lhs = ir.Bin(ir.BAnd, lhs, ir.Const(p.mask, p.a.Width()))
		}
		//
		e = ir.Equals(lhs, ir.Const(p.value, p.a.Width()))
	case xorAtom:
		if p.value != 0 {
			return ir.NotEquals(p.a.Expr(), p.b.Expr())
		}
		//
		e = ir.Equals(p.a.Expr(), p.b.Expr())
	case rangeAtom:
		var (
			w   = p.a.Width()
			lhs = p.a.Expr()
			k   = p.value
			op  = ir.Lt
		)
		// Signed orderings are rendered by flipping the sign bit.
		if p.signed {
			top := uint64(1) << (w - 1)
			lhs, k = ir.Bin(ir.BXor, lhs, ir.Const(top, w)), k^top
		}
		//
		if !p.sign {
			op = ir.Ge
		}
		//
		return ir.Bin(op, lhs, ir.Const(k, w))
	case nibbleAtom:
		return &ir.Call{Func: ir.FnRange, Args: []ir.Expr{p.a.Expr(), ir.Const(p.mask, 16)}}
	}
	//
	if !p.sign {
		return ir.Not(e)
	}
	//
	return e
}

func (p atom) String() string {
	return p.Expr().String()
}

func ones(w uint) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	//
	return (1 << w) - 1
}

// Interpret the lowest w bits of a value, optionally as two's complement.
func toInt(v uint64, w uint, signed bool) int64 {
	v &= ones(w)
	//
	if signed && w < 64 && v&(1<<(w-1)) != 0 {
		return int64(v) - int64(1<<w)
	}
	//
	return int64(v)
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}
	//
	return 0
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
