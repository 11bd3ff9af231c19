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
package ir

import (
	"math/big"
)

// NewField constructs an unsigned field reference.
func NewField(name string, width uint) *Field {
	return &Field{name, width, false}
}

// NewSignedField constructs a signed field reference.
func NewSignedField(name string, width uint) *Field {
	return &Field{name, width, true}
}

// NewSlice constructs the slice e[hi:lo].  Slices of slices are collapsed.
func NewSlice(e Expr, hi, lo uint) Expr {
	if s, ok := e.(*Slice); ok {
		return &Slice{s.Expr, s.Lo + hi, s.Lo + lo}
	} else if lo == 0 && hi+1 == Width(e) {
		return e
	}
	//
	return &Slice{e, hi, lo}
}

// Const constructs an unsigned constant of a given width (where zero means
// unsized).
func Const(value uint64, width uint) *Constant {
	var c Constant
	//
	c.Value.SetUint64(value)
	c.Width = width
	//
	return &c
}

// SignedConst constructs a signed constant of a given width.
func SignedConst(value int64, width uint) *Constant {
	var c Constant
	//
	c.Value.SetInt64(value)
	c.Width = width
	c.Signed = true
	//
	return &c
}

// BigConst constructs a constant from an arbitrary-sized integer.
func BigConst(value *big.Int, width uint, signed bool) *Constant {
	var c Constant
	//
	c.Value.Set(value)
	c.Width = width
	c.Signed = signed
	//
	return &c
}

// True is logical truth
var True = &Bool{true}

// False is logical falsehood
var False = &Bool{false}

// NewBool constructs a boolean literal.
func NewBool(b bool) *Bool {
	if b {
		return True
	}
	//
	return False
}

// Bin constructs an arbitrary binary expression.
func Bin(op BinaryOp, lhs, rhs Expr) *Binary {
	return &Binary{op, lhs, rhs}
}

// Equals constructs lhs == rhs
func Equals(lhs, rhs Expr) *Binary {
	return &Binary{Eq, lhs, rhs}
}

// NotEquals constructs lhs != rhs
func NotEquals(lhs, rhs Expr) *Binary {
	return &Binary{Neq, lhs, rhs}
}

// LessThan constructs lhs < rhs
func LessThan(lhs, rhs Expr) *Binary {
	return &Binary{Lt, lhs, rhs}
}

// GreaterThan constructs lhs > rhs
func GreaterThan(lhs, rhs Expr) *Binary {
	return &Binary{Gt, lhs, rhs}
}

// Not constructs !e
func Not(e Expr) *Unary {
	return &Unary{LNot, e}
}

// Complement constructs ~e
func Complement(e Expr) *Unary {
	return &Unary{BNot, e}
}

// And constructs the conjunction of zero or more terms, associated to the
// right.  The empty conjunction is logical truth.
func And(terms ...Expr) Expr {
	return connect(LAnd, True, terms)
}

// Or constructs the disjunction of zero or more terms, associated to the
// right.  The empty disjunction is logical falsehood.
func Or(terms ...Expr) Expr {
	return connect(LOr, False, terms)
}

func connect(op BinaryOp, unit Expr, terms []Expr) Expr {
	switch len(terms) {
	case 0:
		return unit
	case 1:
		return terms[0]
	}
	//
	return &Binary{op, terms[0], connect(op, unit, terms[1:])}
}

// Conjuncts flattens a (possibly nested) conjunction into its terms.
func Conjuncts(e Expr) []Expr {
	return flatten(LAnd, e, nil)
}

// Disjuncts flattens a (possibly nested) disjunction into its terms.
func Disjuncts(e Expr) []Expr {
	return flatten(LOr, e, nil)
}

func flatten(op BinaryOp, e Expr, terms []Expr) []Expr {
	if b, ok := e.(*Binary); ok && b.Op == op {
		terms = flatten(op, b.Lhs, terms)
		return flatten(op, b.Rhs, terms)
	}
	//
	return append(terms, e)
}

// NewBinary constructs a binary expression where any unsized constant operand
// is given the width (and signedness) of the other operand.  The right-hand
// side of a shift is left alone.
func NewBinary(op BinaryOp, lhs, rhs Expr) *Binary {
	if op != Shl && op != Shr && !op.IsLogical() {
		lhs, rhs = sized(lhs, rhs), sized(rhs, lhs)
	}
	//
	return &Binary{op, lhs, rhs}
}

func sized(e Expr, other Expr) Expr {
	c, ok := e.(*Constant)
	//
	if !ok || c.Width != 0 || IsBoolean(other) {
		return e
	} else if w := Width(other); w != 0 {
		return BigConst(&c.Value, w, IsSigned(other) || c.Signed)
	}
	//
	return e
}
