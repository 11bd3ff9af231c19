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

// Expr represents an (immutable) expression tree.  The set of node types is
// closed: every function over expressions is an exhaustive type switch over the
// types declared in this file.
type Expr interface {
	fmt.Stringer
	expr()
}

func (*Field) expr()    {}
func (*Slice) expr()    {}
func (*Constant) expr() {}
func (*Bool) expr()     {}
func (*Valid) expr()    {}
func (*Param) expr()    {}
func (*Unary) expr()    {}
func (*Binary) expr()   {}
func (*Call) expr()     {}

// Field is a reference to a named value, such as a PHV field (e.g.
// "hdr.ipv4.ttl") or a parameter of a register action (e.g. "value").
type Field struct {
	Name   string
	Width  uint
	Signed bool
}

// Slice extracts bits Hi down to Lo (inclusive) from an expression.
type Slice struct {
	Expr Expr
	Hi   uint
	Lo   uint
}

// Constant is an integer literal.  A width of zero indicates the literal is
// unsized, and takes the width of whatever it is combined with.
type Constant struct {
	Value  big.Int
	Width  uint
	Signed bool
}

// Bool is a boolean literal.
type Bool struct {
	Value bool
}

// Valid is a header validity check, i.e. "h.isValid()".
type Valid struct {
	Header string
}

// Param is a register parameter.  This is a value set by the control plane,
// and held in a register file row.
type Param struct {
	Name  string
	Width uint
}

// Unary is a unary operation.
type Unary struct {
	Op   UnaryOp
	Expr Expr
}

// Binary is a binary operation.
type Binary struct {
	Op  BinaryOp
	Lhs Expr
	Rhs Expr
}

// Call is an intrinsic function call, such as "min(x,y)".
type Call struct {
	Func string
	Args []Expr
	// Width of result, or zero if this is determined by the arguments.
	Width uint
}

// Intrinsic function names.
const (
	// FnMin is the minimum of two values
	FnMin = "min"
	// FnMax is the maximum of two values
	FnMax = "max"
	// FnRange is a range match of a slice (of at most 4 bits) against a 16-bit
	// lookup table.  The first argument is the slice, the second the table.
	FnRange = "range"
	// FnExecute executes a math unit against its argument.
	FnExecute = "execute"
)

// IsMinMaxVector checks for one of the vector min/max functions, "min8",
// "max8", "min16" and "max16".
func IsMinMaxVector(fn string) bool {
	switch fn {
	case "min8", "max8", "min16", "max16":
		return true
	default:
		return false
	}
}

// Width determines the bit width of an expression.  Booleans have width one,
// whilst unsized constants have width zero.
func Width(e Expr) uint {
	switch e := e.(type) {
	case *Field:
		return e.Width
	case *Slice:
		return e.Hi - e.Lo + 1
	case *Constant:
		return e.Width
	case *Bool, *Valid:
		return 1
	case *Param:
		return e.Width
	case *Unary:
		if e.Op == LNot {
			return 1
		}
		//
		return Width(e.Expr)
	case *Binary:
		if e.Op.IsBoolean() {
			return 1
		} else if e.Op == Shl || e.Op == Shr {
			return Width(e.Lhs)
		}
		//
		return max(Width(e.Lhs), Width(e.Rhs))
	case *Call:
		if e.Width != 0 {
			return e.Width
		} else if e.Func == FnRange {
			return 1
		}
		//
		var w uint
		for _, arg := range e.Args {
			w = max(w, Width(arg))
		}
		//
		return w
	}
	//
	panic(fmt.Sprintf("unknown expression %T", e))
}

// IsBoolean checks whether an expression produces a boolean value.
func IsBoolean(e Expr) bool {
	switch e := e.(type) {
	case *Bool, *Valid:
		return true
	case *Unary:
		return e.Op == LNot
	case *Binary:
		return e.Op.IsBoolean()
	case *Call:
		return e.Func == FnRange
	default:
		return false
	}
}

// IsSigned checks whether an expression should be interpreted as a signed
// (two's complement) value.
func IsSigned(e Expr) bool {
	switch e := e.(type) {
	case *Field:
		return e.Signed
	case *Constant:
		return e.Signed
	case *Unary:
		return e.Op != LNot && IsSigned(e.Expr)
	case *Binary:
		return !e.Op.IsBoolean() && (IsSigned(e.Lhs) || IsSigned(e.Rhs))
	default:
		return false
	}
}

// IsConstant checks whether an expression is an integer literal.
func IsConstant(e Expr) bool {
	_, ok := e.(*Constant)
	return ok
}

// Children returns the immediate subexpressions of a given expression.
func Children(e Expr) []Expr {
	switch e := e.(type) {
	case *Slice:
		return []Expr{e.Expr}
	case *Unary:
		return []Expr{e.Expr}
	case *Binary:
		return []Expr{e.Lhs, e.Rhs}
	case *Call:
		return e.Args
	default:
		return nil
	}
}

// Visit calls a given function on every node of an expression in pre-order.
// Traversal of the children of a node is skipped when the function returns
// false.
func Visit(e Expr, fn func(Expr) bool) {
	if fn(e) {
		for _, c := range Children(e) {
			Visit(c, fn)
		}
	}
}

// Equal checks whether two expressions are structurally identical.
func Equal(a, b Expr) bool {
	switch a := a.(type) {
	case *Field:
		b, ok := b.(*Field)
		return ok && *a == *b
	case *Slice:
		b, ok := b.(*Slice)
		return ok && a.Hi == b.Hi && a.Lo == b.Lo && Equal(a.Expr, b.Expr)
	case *Constant:
		b, ok := b.(*Constant)
		return ok && a.Width == b.Width && a.Signed == b.Signed && a.Value.Cmp(&b.Value) == 0
	case *Bool:
		b, ok := b.(*Bool)
		return ok && a.Value == b.Value
	case *Valid:
		b, ok := b.(*Valid)
		return ok && a.Header == b.Header
	case *Param:
		b, ok := b.(*Param)
		return ok && *a == *b
	case *Unary:
		b, ok := b.(*Unary)
		return ok && a.Op == b.Op && Equal(a.Expr, b.Expr)
	case *Binary:
		b, ok := b.(*Binary)
		return ok && a.Op == b.Op && Equal(a.Lhs, b.Lhs) && Equal(a.Rhs, b.Rhs)
	case *Call:
		b, ok := b.(*Call)
		if !ok || a.Func != b.Func || a.Width != b.Width || len(a.Args) != len(b.Args) {
			return false
		}
		//
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		//
		return true
	}
	//
	return false
}

// Base strips any slices from an expression, returning the underlying field (if
// there is one) and the offset of the slice within it.
func Base(e Expr) (*Field, uint, bool) {
	switch e := e.(type) {
	case *Field:
		return e, 0, true
	case *Slice:
		if f, lo, ok := Base(e.Expr); ok {
			return f, lo + e.Lo, true
		}
	}
	//
	return nil, 0, false
}
