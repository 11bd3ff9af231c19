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
	"fmt"
	"math/big"
)

// Env provides values for the fields, headers and parameters referenced by an
// expression.  Fields which are not given a value are assumed to be zero, and
// headers not mentioned are assumed to be invalid.
type Env struct {
	fields  map[string]*big.Int
	headers map[string]bool
}

// NewEnv constructs an empty environment.
func NewEnv() *Env {
	return &Env{make(map[string]*big.Int), make(map[string]bool)}
}

// Set assigns a value to a given field (or parameter).
func (p *Env) Set(name string, value uint64) *Env {
	p.fields[name] = new(big.Int).SetUint64(value)
	return p
}

// SetBig assigns an arbitrary-sized value to a given field (or parameter).
func (p *Env) SetBig(name string, value *big.Int) *Env {
	p.fields[name] = new(big.Int).Set(value)
	return p
}

// SetValid marks a given header as valid (or not).
func (p *Env) SetValid(header string, valid bool) *Env {
	p.headers[header] = valid
	return p
}

// Eval evaluates an expression in a given environment.  Values are returned
// in their unsigned (two's complement) representation at the width of the
// expression, except for unsized constants which are returned as is.  Booleans
// evaluate to 0 or 1.
func Eval(e Expr, env *Env) big.Int {
	switch e := e.(type) {
	case *Field:
		return truncate(env.lookup(e.Name), e.Width)
	case *Param:
		return truncate(env.lookup(e.Name), e.Width)
	case *Slice:
		v := Eval(e.Expr, env)
		v.Rsh(&v, e.Lo)
		//
		return truncate(&v, e.Hi-e.Lo+1)
	case *Constant:
		return truncate(&e.Value, e.Width)
	case *Bool:
		return boolean(e.Value)
	case *Valid:
		return boolean(env.headers[e.Header])
	case *Unary:
		return evalUnary(e, env)
	case *Binary:
		return evalBinary(e, env)
	case *Call:
		return evalCall(e, env)
	}
	//
	panic(fmt.Sprintf("unknown expression %T", e))
}

// EvalBool evaluates a boolean expression in a given environment.
func EvalBool(e Expr, env *Env) bool {
	v := Eval(e, env)
	return v.Sign() != 0
}

func (p *Env) lookup(name string) *big.Int {
	if v, ok := p.fields[name]; ok {
		return v
	}
	//
	return new(big.Int)
}

func evalUnary(e *Unary, env *Env) big.Int {
	var (
		v = Eval(e.Expr, env)
		w = Width(e)
	)
	//
	switch e.Op {
	case LNot:
		return boolean(v.Sign() == 0)
	case BNot:
		v.Not(&v)
	case Neg:
		v.Neg(&v)
	}
	//
	return truncate(&v, w)
}

func evalBinary(e *Binary, env *Env) big.Int {
	var (
		r big.Int
		w = Width(e)
	)
	// Logical connectives are evaluated first, since these don't need both
	// operands evaluated.
	switch e.Op {
	case LAnd:
		return boolean(EvalBool(e.Lhs, env) && EvalBool(e.Rhs, env))
	case LOr:
		return boolean(EvalBool(e.Lhs, env) || EvalBool(e.Rhs, env))
	case LXor:
		return boolean(EvalBool(e.Lhs, env) != EvalBool(e.Rhs, env))
	}
	//
	lhs, rhs := Eval(e.Lhs, env), Eval(e.Rhs, env)
	//
	if e.Op.IsRelational() {
		return boolean(compare(e.Op, e.Lhs, e.Rhs, &lhs, &rhs))
	}
	//
	switch e.Op {
	case BAnd:
		r.And(&lhs, &rhs)
	case BOr:
		r.Or(&lhs, &rhs)
	case BXor:
		r.Xor(&lhs, &rhs)
	case Add, SatAdd:
		r.Add(&lhs, &rhs)
	case Sub, SatSub:
		r.Sub(&lhs, &rhs)
	case Mul:
		r.Mul(&lhs, &rhs)
	case Div, Mod:
		if rhs.Sign() == 0 {
			return r
		} else if e.Op == Div {
			r.Quo(&lhs, &rhs)
		} else {
			r.Rem(&lhs, &rhs)
		}
	case Shl:
		r.Lsh(&lhs, uint(rhs.Uint64()))
	case Shr:
		r.Rsh(&lhs, uint(rhs.Uint64()))
	}
	//
	if e.Op == SatAdd || e.Op == SatSub {
		return saturate(e, &r, w, env)
	}
	//
	return truncate(&r, w)
}

// Saturating arithmetic clamps to the range of the operand type.  Observe that
// the operands must be reinterpreted as signed when appropriate.
func saturate(e *Binary, r *big.Int, w uint, env *Env) big.Int {
	if w == 0 {
		return *r
	}
	//
	var (
		lo, hi big.Int
		one    = big.NewInt(1)
	)
	//
	if IsSigned(e) {
		var (
			lhs = Eval(e.Lhs, env)
			rhs = Eval(e.Rhs, env)
		)
		//
		lhs, rhs = signed(&lhs, w), signed(&rhs, w)
		//
		if e.Op == SatAdd {
			r.Add(&lhs, &rhs)
		} else {
			r.Sub(&lhs, &rhs)
		}
		//
		hi.Lsh(one, w-1)
		lo.Neg(&hi)
		hi.Sub(&hi, one)
	} else {
		hi.Lsh(one, w)
		hi.Sub(&hi, one)
	}
	//
	if r.Cmp(&lo) < 0 {
		r.Set(&lo)
	} else if r.Cmp(&hi) > 0 {
		r.Set(&hi)
	}
	//
	return truncate(r, w)
}

func evalCall(e *Call, env *Env) big.Int {
	switch e.Func {
	case FnMin, FnMax:
		var (
			lhs = Eval(e.Args[0], env)
			rhs = Eval(e.Args[1], env)
		)
		//
		less := compare(Lt, e.Args[0], e.Args[1], &lhs, &rhs)
		if less == (e.Func == FnMin) {
			return lhs
		}
		//
		return rhs
	case FnRange:
		var (
			v     = Eval(e.Args[0], env)
			table = Eval(e.Args[1], env)
		)
		//
		return boolean(table.Bit(int(v.Uint64())) == 1)
	}
	//
	panic(fmt.Sprintf("cannot evaluate intrinsic %s", e.Func))
}

// Compare two values according to a relational operator, where the
// signedness and width are determined by the operand expressions.
func compare(op BinaryOp, l, r Expr, lhs, rhs *big.Int) bool {
	var (
		w = max(Width(l), Width(r))
		a = *lhs
		b = *rhs
	)
	//
	if w > 0 {
		a, b = truncate(&a, w), truncate(&b, w)
		//
		if IsSigned(l) || IsSigned(r) {
			a, b = signed(&a, w), signed(&b, w)
		}
	}
	//
	c := a.Cmp(&b)
	//
	switch op {
	case Eq:
		return c == 0
	case Neq:
		return c != 0
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	default:
		return c >= 0
	}
}

// Truncate a value to a given width, producing its unsigned representation.
// A width of zero means no truncation.
func truncate(v *big.Int, w uint) big.Int {
	var r big.Int
	//
	if w == 0 {
		r.Set(v)
		return r
	}
	//
	mask := Mask(w)
	// Observe And() on a negative value operates on its (infinite) two's
	// complement representation.
	r.And(v, &mask)
	//
	return r
}

// Reinterpret the unsigned representation of a value as signed.
func signed(v *big.Int, w uint) big.Int {
	var r big.Int
	//
	r.Set(v)
	//
	if v.Bit(int(w-1)) == 1 {
		var m big.Int
		m.Lsh(big.NewInt(1), w)
		r.Sub(&r, &m)
	}
	//
	return r
}

// Mask returns the value with the lowest w bits set.
func Mask(w uint) big.Int {
	var m big.Int
	//
	m.Lsh(big.NewInt(1), w)
	m.Sub(&m, big.NewInt(1))
	//
	return m
}

func boolean(b bool) big.Int {
	var r big.Int
	//
	if b {
		r.SetUint64(1)
	}
	//
	return r
}
