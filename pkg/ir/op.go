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

// UnaryOp identifies a unary operator.
type UnaryOp uint8

const (
	// LNot is logical negation (!e)
	LNot UnaryOp = iota
	// BNot is bitwise complement (~e)
	BNot
	// Neg is arithmetic negation (-e)
	Neg
)

var unarySymbols = [...]string{"!", "~", "-"}

// Symbol returns the concrete syntax for this operator.
func (op UnaryOp) Symbol() string {
	return unarySymbols[op]
}

// BinaryOp identifies a binary operator.
type BinaryOp uint8

const (
	// LAnd is logical conjunction
	LAnd BinaryOp = iota
	// LOr is logical disjunction
	LOr
	// LXor is logical exclusive-or, which arises when comparing the results of
	// two comparisons against each other.
	LXor
	// Eq is equality
	Eq
	// Neq is non-equality
	Neq
	// Lt is strictly less than
	Lt
	// Le is less than or equal
	Le
	// Gt is strictly greater than
	Gt
	// Ge is greater than or equal
	Ge
	// BAnd is bitwise and
	BAnd
	// BOr is bitwise or
	BOr
	// BXor is bitwise exclusive or
	BXor
	// Add is wrapping addition
	Add
	// Sub is wrapping subtraction
	Sub
	// SatAdd is saturating addition (|+|)
	SatAdd
	// SatSub is saturating subtraction (|-|)
	SatSub
	// Mul is wrapping multiplication
	Mul
	// Div is (unsigned) division
	Div
	// Mod is (unsigned) remainder
	Mod
	// Shl is left shift
	Shl
	// Shr is right shift
	Shr
)

var binarySymbols = [...]string{
	"&&", "||", "^^", "==", "!=", "<", "<=", ">", ">=", "&", "|", "^", "+", "-", "|+|", "|-|", "*", "/", "%", "<<", ">>",
}

// Symbol returns the concrete syntax for this operator.
func (op BinaryOp) Symbol() string {
	return binarySymbols[op]
}

// IsLogical checks for one of the logical connectives.
func (op BinaryOp) IsLogical() bool {
	return op <= LXor
}

// IsRelational checks for a comparison operator.
func (op BinaryOp) IsRelational() bool {
	return op >= Eq && op <= Ge
}

// IsInequality checks for one of the ordering comparisons (i.e. <, <=, > or
// >=).
func (op BinaryOp) IsInequality() bool {
	return op >= Lt && op <= Ge
}

// IsBitwise checks for a bitwise operator.
func (op BinaryOp) IsBitwise() bool {
	return op >= BAnd && op <= BXor
}

// IsBoolean checks whether this operator produces a boolean.
func (op BinaryOp) IsBoolean() bool {
	return op <= Ge
}

// IsCommutative checks whether the operands can be swapped freely.
func (op BinaryOp) IsCommutative() bool {
	switch op {
	case LAnd, LOr, LXor, Eq, Neq, BAnd, BOr, BXor, Add, SatAdd, Mul:
		return true
	default:
		return false
	}
}

// Negate returns the relational operator giving the logical negation of this
// operator.  This is only defined for relational operators.
func (op BinaryOp) Negate() BinaryOp {
	switch op {
	case Eq:
		return Neq
	case Neq:
		return Eq
	case Lt:
		return Ge
	case Le:
		return Gt
	case Gt:
		return Le
	case Ge:
		return Lt
	}
	//
	panic("negation of non-relational operator " + op.Symbol())
}

// Swap returns the relational operator resulting from swapping its operands
// (i.e. x < y becomes y > x).  This is only defined for relational operators.
func (op BinaryOp) Swap() BinaryOp {
	switch op {
	case Eq, Neq:
		return op
	case Lt:
		return Gt
	case Le:
		return Ge
	case Gt:
		return Lt
	case Ge:
		return Le
	}
	//
	panic("swap of non-relational operator " + op.Symbol())
}

// Precedence determines how tightly an operator binds, where larger binds more
// tightly.  This follows C.
func (op BinaryOp) Precedence() int {
	switch op {
	case LOr:
		return 1
	case LXor:
		return 2
	case LAnd:
		return 3
	case BOr:
		return 4
	case BXor:
		return 5
	case BAnd:
		return 6
	case Eq, Neq:
		return 7
	case Lt, Le, Gt, Ge:
		return 8
	case Shl, Shr:
		return 9
	case Add, Sub, SatAdd, SatSub:
		return 10
	default:
		return 11
	}
}
