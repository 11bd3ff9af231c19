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
	"math/big"

	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/util/logical"
	log "github.com/sirupsen/logrus"
)

// Prop is a canonical gateway condition in disjunctive normal form.
type Prop = logical.Proposition[atom]

// MaxDisjuncts bounds the number of disjuncts produced when canonicalising a
// single condition.
const MaxDisjuncts = 32

// Comparisons wider than this are split into several narrower comparisons.
const maxCompareWidth = 32

// Canonicalize rewrites a boolean condition into a logically equivalent
// disjunction of conjunctions of simple comparisons.  Every comparison in the
// result has a field (or field slice) of at most 32 bits on its left-hand side
// and a constant or another field on its right-hand side.
func Canonicalize(e ir.Expr) (ir.Expr, []diag.Diagnostic) {
	c := canonicalizer{limit: MaxDisjuncts}
	//
	if p, ok := c.prop(e, true); ok {
		return render(p), c.diags
	}
	//
	return nil, c.diags
}

// canonicalizer carries the state needed whilst converting a single condition
// into a proposition.
type canonicalizer struct {
	// limit on the number of disjuncts
	limit uint
	// diagnostics (including warnings) arising
	diags []diag.Diagnostic
}

func (c *canonicalizer) fail(cat diag.Category, format string, args ...any) (Prop, bool) {
	c.diags = append(c.diags, diag.Errorf(cat, format, args...))
	return logical.Truth[atom](false), false
}

func (c *canonicalizer) warn(format string, args ...any) {
	c.diags = append(c.diags, diag.Warnf(format, args...))
}

// Convert a boolean expression (or its negation, when sign is false) into a
// proposition.  Negations are pushed inwards using De Morgan's laws.
func (c *canonicalizer) prop(e ir.Expr, sign bool) (Prop, bool) {
	switch e := e.(type) {
	case *ir.Bool:
		return logical.Truth[atom](e.Value == sign), true
	case *ir.Valid:
		return logical.NewProposition(newValid(e.Header, sign)), true
	case *ir.Unary:
		if e.Op == ir.LNot {
			return c.prop(e.Expr, !sign)
		}
	case *ir.Binary:
		switch {
		case e.Op == ir.LAnd && sign, e.Op == ir.LOr && !sign:
			return c.connect(e.Lhs, e.Rhs, sign, true)
		case e.Op == ir.LOr && sign, e.Op == ir.LAnd && !sign:
			return c.connect(e.Lhs, e.Rhs, sign, false)
		case e.Op == ir.LXor:
			return c.xor(e.Lhs, e.Rhs, sign)
		case e.Op.IsRelational():
			op := e.Op
			//
			if !sign {
				op = op.Negate()
			}
			//
			return c.relation(op, e.Lhs, e.Rhs)
		}
	case *ir.Call:
		if e.Func != ir.FnRange || len(e.Args) != 2 {
			break
		} else if r, ok := refOf(e.Args[0]); ok && r.Width() <= 4 {
			if k, ok := e.Args[1].(*ir.Constant); ok {
				p := logical.NewProposition(newNibble(r, k.Value.Uint64()))
				//
				if !sign {
					return p.Negate(), true
				}
				//
				return p, true
			}
		}
	}
	//
	return c.fail(diag.Unsupported, "unsupported condition %s", e.String())
}

// Combine two conditions by conjunction (when and holds) or disjunction.
func (c *canonicalizer) connect(lhs, rhs ir.Expr, sign bool, and bool) (Prop, bool) {
	l, ok := c.prop(lhs, sign)
	if !ok {
		return l, false
	}
	//
	r, ok := c.prop(rhs, sign)
	if !ok {
		return r, false
	}
	//
	return c.combine(l, r, and)
}

func (c *canonicalizer) combine(l, r Prop, and bool) (Prop, bool) {
	if !and {
		p := l.Or(r)
		//
		if uint(len(p.Conjuncts())) > c.limit {
			return c.fail(diag.Overlimit, "condition too complex")
		}
		//
		return p, true
	} else if p, ok := l.AndBounded(r, c.limit); ok {
		return p, true
	}
	//
	return c.fail(diag.Overlimit, "condition too complex")
}

// Logical exclusive-or arises from comparing the results of two comparisons.
// Thus, "l ^^ r" becomes "(l ∧ ¬r) ∨ (¬l ∧ r)" and its negation becomes "(l ∧
// r) ∨ (¬l ∧ ¬r)".
func (c *canonicalizer) xor(lhs, rhs ir.Expr, sign bool) (Prop, bool) {
	var ps [4]Prop
	//
	for i, e := range []ir.Expr{lhs, rhs} {
		var ok bool
		//
		if ps[2*i], ok = c.prop(e, true); !ok {
			return ps[2*i], false
		} else if ps[2*i+1], ok = c.prop(e, false); !ok {
			return ps[2*i+1], false
		}
	}
	// Select whether r or ¬r accompanies l.
	var (
		r, nr  = ps[3], ps[2]
		first  Prop
		second Prop
		ok     bool
	)
	//
	if !sign {
		r, nr = ps[2], ps[3]
	}
	//
	if first, ok = c.combine(ps[0], r, true); !ok {
		return first, false
	} else if second, ok = c.combine(ps[1], nr, true); !ok {
		return second, false
	}
	//
	return c.combine(first, second, false)
}

// Translate a relation "lhs op rhs" into a proposition.
func (c *canonicalizer) relation(op ir.BinaryOp, lhs, rhs ir.Expr) (Prop, bool) {
	// Comparisons of comparisons
	if ir.IsBoolean(lhs) || ir.IsBoolean(rhs) {
		return c.booleanRelation(op, lhs, rhs)
	} else if ir.Equal(lhs, rhs) {
		// x == x, x < x, etc.
		return logical.Truth[atom](op == ir.Eq || op == ir.Le || op == ir.Ge), true
	}
	//
	lc, lok := lhs.(*ir.Constant)
	rc, rok := rhs.(*ir.Constant)
	//
	switch {
	case lok && rok:
		env := ir.NewEnv()
		return logical.Truth[atom](ir.EvalBool(ir.NewBinary(op, lc, rc), env)), true
	case lok:
		// Ensure constant is on the right-hand side.
		return c.constRelation(op.Swap(), rhs, lc)
	case rok:
		return c.constRelation(op, lhs, rc)
	}
	// Comparison of two fields
	lr, lok := refOf(lhs)
	rr, rok := refOf(rhs)
	//
	if !lok || !rok {
		return c.fail(diag.Unsupported, "cannot compare %s with %s", lhs.String(), rhs.String())
	} else if op != ir.Eq && op != ir.Neq {
		return c.fail(diag.Unsupported, "fields %s and %s can only be compared for equality", lr, rr)
	} else if lr.Width() != rr.Width() {
		return c.fail(diag.Invalid, "comparison of %s and %s with differing widths", lr, rr)
	}
	//
	return c.fieldEquality(lr, rr, op == ir.Eq)
}

func (c *canonicalizer) booleanRelation(op ir.BinaryOp, lhs, rhs ir.Expr) (Prop, bool) {
	if op != ir.Eq && op != ir.Neq {
		return c.fail(diag.Unsupported, "ordering of boolean values %s and %s", lhs.String(), rhs.String())
	}
	// Treat 1-bit constants as booleans
	lhs, rhs = asBool(lhs), asBool(rhs)
	//
	if !ir.IsBoolean(lhs) || !ir.IsBoolean(rhs) {
		return c.fail(diag.Invalid, "comparison of boolean and non-boolean values")
	}
	// l == r is ¬(l ^^ r)
	return c.xor(lhs, rhs, op == ir.Neq)
}

func asBool(e ir.Expr) ir.Expr {
	if k, ok := e.(*ir.Constant); ok {
		return ir.NewBool(k.Value.Sign() != 0)
	}
	//
	return e
}

// Split a field comparison wider than 32 bits into a conjunction (or
// disjunction for non-equality) of narrower comparisons.
func (c *canonicalizer) fieldEquality(a, b Ref, sign bool) (Prop, bool) {
	if a.Width() <= maxCompareWidth {
		return logical.NewProposition(newXor(a, b, sign)), true
	}
	//
	n := splitPoint(a)
	//
	lo, ok := c.fieldEquality(a.Sub(n-1, 0), b.Sub(n-1, 0), sign)
	if !ok {
		return lo, false
	}
	//
	hi, ok := c.fieldEquality(a.Sub(a.Width()-1, n), b.Sub(b.Width()-1, n), sign)
	if !ok {
		return hi, false
	}
	//
	return c.combine(lo, hi, sign)
}

// Translate a relation "lhs op k" for a constant k.
func (c *canonicalizer) constRelation(op ir.BinaryOp, lhs ir.Expr, k *ir.Constant) (Prop, bool) {
	var (
		w     = ir.Width(lhs)
		value = constant(k, w)
		eq    = op == ir.Eq || op == ir.Neq
	)
	//
	switch l := lhs.(type) {
	case *ir.Field, *ir.Slice:
		if r, ok := refOf(l); ok && k.Width > w {
			return c.widened(op, r, k, ir.IsSigned(l) || k.Signed)
		} else if ok {
			return c.ordered(op, r, &value.Value, ir.IsSigned(l) || k.Signed)
		}
	case *ir.Unary:
		if l.Op == ir.BNot && eq && k.Width <= w {
			// ~x == k is x == ~k
			return c.constRelation(op, l.Expr, complement(value, w))
		}
	case *ir.Binary:
		if k.Width <= w {
			return c.constBinary(op, l, value)
		}
	}
	//
	return c.fail(diag.Unsupported, "condition %s %s %s too complex", lhs.String(), op.Symbol(), k.String())
}

// Compare a reference against a constant wider than it.  The reference is
// zero extended, hence the comparison is fixed when the constant lies outside
// its range.
func (c *canonicalizer) widened(op ir.BinaryOp, r Ref, k *ir.Constant, signed bool) (Prop, bool) {
	var (
		kbits  = constant(k, k.Width)
		kv     = interpret(&kbits.Value, k.Width, signed)
		_, upper = bounds(r.Width(), false)
	)
	//
	switch {
	case kv.Sign() < 0:
		return logical.Truth[atom](op == ir.Neq || op == ir.Gt || op == ir.Ge), true
	case kv.Cmp(&upper) > 0:
		return logical.Truth[atom](op == ir.Neq || op == ir.Lt || op == ir.Le), true
	}
	//
	return c.ordered(op, r, &kv, false)
}

func (c *canonicalizer) constBinary(op ir.BinaryOp, l *ir.Binary, value *ir.Constant) (Prop, bool) {
	var (
		w      = ir.Width(l)
		eq     = op == ir.Eq || op == ir.Neq
		x, m   = l.Lhs, l.Rhs
		mc, ok = m.(*ir.Constant)
	)
	// Look for a constant operand
	if !ok && l.Op.IsCommutative() {
		x, m = m, x
		mc, ok = m.(*ir.Constant)
	}
	//
	switch {
	case l.Op == ir.BXor && !ok && eq && value.Value.Sign() == 0:
		// x ^ y == 0 is x == y
		return c.relation(op, l.Lhs, l.Rhs)
	case !ok:
		break
	case l.Op == ir.BAnd && eq:
		return c.masked(op, x, &constant(mc, w).Value, &value.Value)
	case l.Op == ir.BOr && eq:
		// (x | m) == k requires the bits of m to be set in k.
		var (
			mask, k big.Int
			bits    = constant(mc, w)
		)
		//
		if mask.AndNot(&bits.Value, &value.Value); mask.Sign() != 0 {
			c.warn("masked comparison %s can never match", l.String())
			return logical.Truth[atom](op == ir.Neq), true
		}
		//
		full := ir.Mask(w)
		mask.AndNot(&full, &bits.Value)
		k.And(&value.Value, &mask)
		//
		return c.masked(op, x, &mask, &k)
	case l.Op == ir.BXor && eq:
		// x ^ c == k is x == k ^ c
		var k big.Int
		//
		k.Xor(&value.Value, &constant(mc, w).Value)
		//
		return c.constRelation(op, x, ir.BigConst(&k, w, false))
	case l.Op == ir.Shr && !value.Signed:
		return c.shiftRight(op, x, uint(mc.Value.Uint64()), value)
	case l.Op == ir.Shl && eq:
		return c.shiftLeft(op, x, uint(mc.Value.Uint64()), value)
	}
	//
	return c.fail(diag.Unsupported, "condition %s %s %s too complex", l.String(), op.Symbol(), value.String())
}

// (x >> s) op k is x[w-1:s] op k, provided k fits.
func (c *canonicalizer) shiftRight(op ir.BinaryOp, x ir.Expr, s uint, k *ir.Constant) (Prop, bool) {
	var (
		r, ok = refOf(x)
		w     = ir.Width(x)
	)
	//
	if !ok || s >= w || ir.IsSigned(x) {
		return c.fail(diag.Unsupported, "cannot compare %s >> %d", x.String(), s)
	} else if uint(k.Value.BitLen()) > w-s {
		// Shifted value is always smaller than k.
		return logical.Truth[atom](op == ir.Neq || op == ir.Lt || op == ir.Le), true
	}
	//
	return c.ordered(op, r.Sub(w-1, s), &k.Value, false)
}

// (x << s) == k is x[w-1-s:0] == k >> s, provided the low bits of k are zero.
func (c *canonicalizer) shiftLeft(op ir.BinaryOp, x ir.Expr, s uint, k *ir.Constant) (Prop, bool) {
	var (
		r, ok = refOf(x)
		w     = ir.Width(x)
		low   big.Int
		high  big.Int
	)
	//
	if !ok || s >= w {
		return c.fail(diag.Unsupported, "cannot compare %s << %d", x.String(), s)
	}
	//
	lowMask := ir.Mask(s)
	//
	if low.And(&k.Value, &lowMask); low.Sign() != 0 {
		c.warn("shifted comparison %s << %d == %s can never match", x.String(), s, k.String())
		return logical.Truth[atom](op == ir.Neq), true
	}
	//
	high.Rsh(&k.Value, s)
	//
	return c.ordered(op, r.Sub(w-1-s, 0), &high, false)
}

// (x & m) == k, where bits of k outside of m can never match.
func (c *canonicalizer) masked(op ir.BinaryOp, x ir.Expr, m, k *big.Int) (Prop, bool) {
	var (
		outside big.Int
		r, ok   = refOf(x)
		bits    = ir.Mask(ir.Width(x))
	)
	// Bits of the mask beyond x are always zero
	m = new(big.Int).And(m, &bits)
	//
	if !ok {
		return c.fail(diag.Unsupported, "masked comparison of %s too complex", x.String())
	} else if outside.AndNot(k, m); outside.Sign() != 0 {
		c.warn("masked comparison (%s & %s) == %s can never match", x.String(), m.String(), k.String())
		return logical.Truth[atom](op == ir.Neq), true
	}
	//
	log.Debugf("masked comparison (%s & 0x%s) %s 0x%s", r, m.Text(16), op.Symbol(), k.Text(16))
	//
	return c.equality(r, m, k, op == ir.Eq)
}

// Translate r op k, where k is given as w unsigned bits.
func (c *canonicalizer) ordered(op ir.BinaryOp, r Ref, k *big.Int, signed bool) (Prop, bool) {
	var (
		w            = r.Width()
		kv           = interpret(k, w, signed)
		lower, upper = bounds(w, signed)
	)
	//
	switch op {
	case ir.Eq, ir.Neq:
		full := ir.Mask(w)
		return c.equality(r, &full, k, op == ir.Eq)
	case ir.Le:
		// x <= max is true, otherwise x < k+1
		if kv.Cmp(&upper) == 0 {
			return logical.Truth[atom](true), true
		}
		//
		kv.Add(&kv, big.NewInt(1))
		op = ir.Lt
	case ir.Gt:
		// x > max is false, otherwise x >= k+1
		if kv.Cmp(&upper) == 0 {
			return logical.Truth[atom](false), true
		}
		//
		kv.Add(&kv, big.NewInt(1))
		op = ir.Ge
	}
	// x < min is false whilst x >= min is true
	if kv.Cmp(&lower) == 0 {
		return logical.Truth[atom](op == ir.Ge), true
	}
	//
	kbits := truncateInt(&kv, w)
	//
	switch {
	case signed && kv.Sign() == 0:
		// x < 0 is a sign bit test
		return c.equality(r.Sub(w-1, w-1), big.NewInt(1), big.NewInt(int64(boolValue(op == ir.Lt))), true)
	case !signed && isPowerOfTwo(&kv):
		// x < 2^n is x[w-1:n] == 0
		n := uint(kv.BitLen() - 1)
		//
		if n >= w {
			return logical.Truth[atom](op == ir.Lt), true
		}
		//
		top := r.Sub(w-1, n)
		full := ir.Mask(w - n)
		//
		return c.equality(top, &full, new(big.Int), op == ir.Lt)
	case w > maxCompareWidth:
		return c.splitOrdered(op, r, &kbits, signed)
	}
	//
	return logical.NewProposition(newRange(r, kbits.Uint64(), signed, op == ir.Lt)), true
}

// Split an ordering wider than 32 bits.  With x = hi:lo and k = khi:klo, this
// gives x < k as "hi < khi ∨ (hi == khi ∧ lo < klo)" and x >= k as "hi > khi ∨
// (hi == khi ∧ lo >= klo)".
func (c *canonicalizer) splitOrdered(op ir.BinaryOp, r Ref, k *big.Int, signed bool) (Prop, bool) {
	var (
		n        = splitPoint(r)
		lo, hi   = r.Sub(n-1, 0), r.Sub(r.Width()-1, n)
		klo, khi big.Int
		strict   = ir.Gt
	)
	//
	klo.And(k, ptr(ir.Mask(n)))
	khi.Rsh(k, n)
	//
	if op == ir.Lt {
		strict = ir.Lt
	}
	//
	outer, ok := c.ordered(strict, hi, &khi, signed)
	if !ok {
		return outer, false
	}
	//
	same, ok := c.ordered(ir.Eq, hi, &khi, false)
	if !ok {
		return same, false
	}
	//
	inner, ok := c.ordered(op, lo, &klo, false)
	if !ok {
		return inner, false
	}
	//
	if inner, ok = c.combine(same, inner, true); !ok {
		return inner, false
	}
	//
	return c.combine(outer, inner, false)
}

// Translate (r & m) == k (or its negation).  Comparisons wider than 32 bits are
// split into an AND of equalities (or an OR of non-equalities).
func (c *canonicalizer) equality(r Ref, m, k *big.Int, sign bool) (Prop, bool) {
	w := r.Width()
	//
	if w <= maxCompareWidth {
		return logical.NewProposition(newEq(r, m.Uint64(), k.Uint64(), sign)), true
	}
	//
	var (
		n        = splitPoint(r)
		lowMask  = ir.Mask(n)
		mlo, mhi big.Int
		klo, khi big.Int
	)
	//
	mlo.And(m, &lowMask)
	mhi.Rsh(m, n)
	klo.And(k, &lowMask)
	khi.Rsh(k, n)
	//
	log.Debugf("splitting %d-bit comparison %s at bit %d", w, r, r.Lo+n)
	//
	lo, ok := c.equality(r.Sub(n-1, 0), &mlo, &klo, sign)
	if !ok {
		return lo, false
	}
	//
	hi, ok := c.equality(r.Sub(w-1, n), &mhi, &khi, sign)
	if !ok {
		return hi, false
	}
	//
	return c.combine(lo, hi, sign)
}

// Determine where to split a comparison wider than 32 bits.  This is the highest
// byte boundary (relative to the field) within 32 bits of the start of the
// reference, returned relative to that start.
func splitPoint(r Ref) uint {
	b := ((r.Lo + maxCompareWidth) / 8) * 8
	//
	return b - r.Lo
}

// ============================================================================
// Helpers
// ============================================================================

// Render a proposition as an expression.
func render(p Prop) ir.Expr {
	var disjuncts []ir.Expr
	//
	for _, c := range p.Conjuncts() {
		disjuncts = append(disjuncts, renderConjunction(c))
	}
	//
	return ir.Or(disjuncts...)
}

func renderConjunction(c logical.Conjunction[atom]) ir.Expr {
	var conjuncts []ir.Expr
	//
	for _, a := range c.Atoms() {
		conjuncts = append(conjuncts, a.Expr())
	}
	//
	return ir.And(conjuncts...)
}

// Determine the value of a constant, as seen by a comparison of width w.  The
// constant is first truncated to its own width, hence a narrow signed constant
// is zero extended.
func constant(k *ir.Constant, w uint) *ir.Constant {
	var (
		v = ir.Eval(k, ir.NewEnv())
		t = truncateInt(&v, w)
	)
	//
	return ir.BigConst(&t, w, k.Signed)
}

// Truncate a value to w bits, where zero means no truncation.
func truncateInt(v *big.Int, w uint) big.Int {
	var (
		r    big.Int
		mask = ir.Mask(w)
	)
	//
	if w == 0 {
		r.Set(v)
	} else {
		r.And(v, &mask)
	}
	//
	return r
}

// Complement the lowest w bits of a value.
func complement(k *ir.Constant, w uint) *ir.Constant {
	var (
		r    big.Int
		mask = ir.Mask(w)
	)
	//
	r.Xor(&k.Value, &mask)
	//
	return ir.BigConst(&r, w, false)
}

// Interpret w bits as an integer, optionally using two's complement.
func interpret(k *big.Int, w uint, signed bool) big.Int {
	var r big.Int
	//
	r.Set(k)
	//
	if signed && k.Bit(int(w-1)) == 1 {
		r.Sub(&r, new(big.Int).Lsh(big.NewInt(1), w))
	}
	//
	return r
}

// Determine the smallest and largest values of a given width.
func bounds(w uint, signed bool) (big.Int, big.Int) {
	var lo, hi big.Int
	//
	if signed {
		hi.Lsh(big.NewInt(1), w-1)
		lo.Neg(&hi)
		hi.Sub(&hi, big.NewInt(1))
	} else {
		hi = ir.Mask(w)
	}
	//
	return lo, hi
}

func isPowerOfTwo(v *big.Int) bool {
	return v.Sign() > 0 && v.BitLen()-1 == int(v.TrailingZeroBits())
}

func ptr[T any](v T) *T {
	return &v
}
