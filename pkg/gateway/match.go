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
	"fmt"
	"strings"

	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
)

// RangeNibble is a range match of the four hash bits at a given offset, where
// bit v of the bitmap is set when value v matches.
type RangeNibble struct {
	Offset uint
	Bitmap uint16
}

// TernaryWord is a ternary match of the gateway search word.  Bits cleared in
// the mask are "don't care", and only bits from Lo up to (but excluding) Hi are
// meaningful.
type TernaryWord struct {
	Value  uint64
	Mask   uint64
	Lo, Hi uint
	Ranges []RangeNibble
}

// Width returns the number of bits in the search word.
func (w TernaryWord) Width() uint {
	return w.Hi - w.Lo
}

// Matches checks whether a given search word (together with the nibbles used
// for range matching) is matched.
func (w TernaryWord) Matches(word uint64) bool {
	if word&w.Mask != w.Value {
		return false
	}
	//
	for _, r := range w.Ranges {
		if r.Bitmap&(1<<((word>>r.Offset)&0xf)) == 0 {
			return false
		}
	}
	//
	return true
}

// String renders the word most significant bit first, using '*' for don't
// care bits.
func (w TernaryWord) String() string {
	var builder strings.Builder
	//
	for i := int(w.Hi) - 1; i >= int(w.Lo); i-- {
		switch {
		case w.Mask&(1<<i) == 0:
			builder.WriteByte('*')
		case w.Value&(1<<i) != 0:
			builder.WriteByte('1')
		default:
			builder.WriteByte('0')
		}
	}
	//
	for _, r := range w.Ranges {
		builder.WriteString(fmt.Sprintf(" range@%d=0x%04x", r.Offset, r.Bitmap))
	}
	//
	return builder.String()
}

// BuildMatch constructs the ternary match for a canonical gateway condition
// under a given layout.  This returns false when the condition can never
// match.  Every field bit of the condition must have been placed by the layout.
func BuildMatch(cond ir.Expr, layout *Layout) (TernaryWord, bool) {
	b := matcher{layout: layout, andmask: ^uint64(0)}
	b.word.Lo, b.word.Hi = layout.Bounds()
	//
	if b.visit(cond) {
		return b.word, true
	}
	//
	return b.word, false
}

type matcher struct {
	layout *Layout
	word   TernaryWord
	// masks arising from constants above a comparison, consumed by the next leaf.
	andmask, ormask uint64
}

func (p *matcher) visit(e ir.Expr) bool {
	switch e := e.(type) {
	case *ir.Bool:
		return e.Value
	case *ir.Valid:
		return p.valid(e.Header, true)
	case *ir.Unary:
		if v, ok := e.Expr.(*ir.Valid); ok && e.Op == ir.LNot {
			return p.valid(v.Header, false)
		}
	case *ir.Binary:
		switch e.Op {
		case ir.LAnd:
			return p.visit(e.Lhs) && p.visit(e.Rhs)
		case ir.Eq, ir.Neq:
			return p.relation(e)
		}
	case *ir.Call:
		if e.Func == ir.FnRange && len(e.Args) == 2 {
			r, rok := refOf(e.Args[0])
			k, kok := e.Args[1].(*ir.Constant)
			//
			if rok && kok {
				return p.nibble(r, k.Value.Uint64())
			}
		}
	}
	//
	diag.Bug("unexpected gateway condition %s", e.String())
	//
	return false
}

func (p *matcher) relation(e *ir.Binary) bool {
	var lhs = e.Lhs
	//
	if m, ok := lhs.(*ir.Binary); ok && (m.Op == ir.BAnd || m.Op == ir.BOr) {
		if k, ok := m.Rhs.(*ir.Constant); ok && m.Op == ir.BAnd {
			p.andmask, lhs = k.Value.Uint64(), m.Lhs
		} else if ok {
			p.ormask, lhs = k.Value.Uint64(), m.Lhs
		}
	}
	//
	var (
		a, aok = refOf(lhs)
		mask   = p.andmask &^ p.ormask
	)
	// Consume masks
	p.andmask, p.ormask = ^uint64(0), 0
	//
	if !aok {
		diag.Bug("unexpected gateway comparison %s", e.String())
	} else if b, ok := refOf(e.Rhs); ok {
		return p.xor(a, b, e.Op == ir.Neq)
	}
	//
	k, ok := e.Rhs.(*ir.Constant)
	diag.Check(ok, "unexpected gateway comparison %s", e.String())
	//
	value := k.Value.Uint64()
	//
	if e.Op == ir.Neq {
		diag.Check(a.Width() == 1, "non-equality %s in gateway row", e.String())
		value ^= 1
	}
	//
	return p.equality(a, mask&ones(a.Width()), value)
}

// Match bits of a field against a constant.  A slice which is range matched is
// matched through its nibble instead.
func (p *matcher) equality(r Ref, mask, value uint64) bool {
	if _, ok := p.layout.Nibble(r); ok {
		var set uint64
		//
		for v := uint64(0); v < 1<<r.Width(); v++ {
			if v&mask == value&mask {
				set |= 1 << v
			}
		}
		//
		return p.nibble(r, set)
	}
	//
	for i := uint(0); i < r.Width(); i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		//
		pos, ok := p.layout.Position(r.Field, r.Lo+i)
		//
		if !ok {
			diag.Bug("bit %d of %s not placed in gateway layout", r.Lo+i, r.Field)
		} else if !p.set(pos, value&(1<<i) != 0) {
			return false
		}
	}
	//
	return true
}

// Match the exclusive-or of two slices against zero (or one for single bit
// non-equalities).
func (p *matcher) xor(a, b Ref, neq bool) bool {
	diag.Check(!neq || a.Width() == 1, "non-equality of %s and %s in gateway row", a, b)
	//
	for i := uint(0); i < a.Width(); i++ {
		pos, ok := p.layout.XorPosition(a, b, i)
		//
		if !ok {
			diag.Bug("bit %d of %s ^ %s not placed in gateway layout", i, a, b)
		} else if !p.set(pos, neq) {
			return false
		}
	}
	//
	return true
}

func (p *matcher) valid(header string, valid bool) bool {
	pos, ok := p.layout.ValidPosition(header)
	//
	if !ok {
		diag.Bug("valid bit of %s not placed in gateway layout", header)
	}
	//
	return p.set(pos, valid)
}

// Set a bit of the match, returning false if this conflicts with an earlier
// setting of the same bit.
func (p *matcher) set(pos uint, bit bool) bool {
	var b = uint64(1) << pos
	//
	if p.word.Mask&b != 0 {
		return (p.word.Value&b != 0) == bit
	}
	//
	p.word.Mask |= b
	//
	if bit {
		p.word.Value |= b
	}
	//
	return true
}

// Restrict the values matched by a range matched nibble, returning false when
// no value remains.
func (p *matcher) nibble(r Ref, set uint64) bool {
	offset, ok := p.layout.Nibble(r)
	//
	if !ok {
		diag.Bug("range match of %s not placed in gateway layout", r)
	}
	//
	bitmap := expandNibble(set, r.Width())
	//
	for i, n := range p.word.Ranges {
		if n.Offset == offset {
			p.word.Ranges[i].Bitmap &= bitmap
			return p.word.Ranges[i].Bitmap != 0
		}
	}
	//
	p.word.Ranges = append(p.word.Ranges, RangeNibble{offset, bitmap})
	//
	return bitmap != 0
}
