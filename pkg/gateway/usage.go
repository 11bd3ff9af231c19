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
	"slices"

	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	log "github.com/sirupsen/logrus"
)

// UseKind classifies how a field slice is used by a gateway.
type UseKind uint8

const (
	// UseEquality indicates a slice is compared against a constant.
	UseEquality UseKind = iota
	// UseRange indicates a slice is range matched.
	UseRange
	// UseValid indicates a header validity test.
	UseValid
	// UseXor indicates a slice is compared against another slice.
	UseXor
)

func (k UseKind) String() string {
	switch k {
	case UseEquality:
		return "equality"
	case UseRange:
		return "range"
	case UseValid:
		return "valid"
	default:
		return "xor"
	}
}

// Use records how a given field slice (or header) is used.
type Use struct {
	Kind  UseKind
	Slice Ref
	// Partner is the slice compared against, for xor uses.
	Partner Ref
	// Header being tested, for valid uses.
	Header string
}

// Cmp implementation for sorting.
func (u Use) Cmp(o Use) int {
	if c := cmp.Compare(u.Kind, o.Kind); c != 0 {
		return c
	} else if c := cmp.Compare(u.Header, o.Header); c != 0 {
		return c
	} else if c := u.Slice.Cmp(o.Slice); c != 0 {
		return c
	}
	//
	return u.Partner.Cmp(o.Partner)
}

func (u Use) String() string {
	switch u.Kind {
	case UseValid:
		return fmt.Sprintf("valid(%s)", u.Header)
	case UseXor:
		return fmt.Sprintf("xor(%s,%s)", u.Slice, u.Partner)
	default:
		return fmt.Sprintf("%s(%s)", u.Kind, u.Slice)
	}
}

// Usage is the set of uses made by a gateway.  Each (field, bit range) has
// exactly one use.
type Usage struct {
	Uses []Use
	// Source text for each use, for debugging.
	aliases map[Use][]string
}

// Aliases returns the source expressions responsible for a given use.
func (p *Usage) Aliases(u Use) []string {
	return p.aliases[u]
}

// Equalities returns the equality uses, ordered largest first.
func (p *Usage) Equalities() []Use {
	var uses []Use
	//
	for _, u := range p.Uses {
		if u.Kind == UseEquality {
			uses = append(uses, u)
		}
	}
	//
	slices.SortStableFunc(uses, func(a, b Use) int {
		return cmp.Compare(b.Slice.Width(), a.Slice.Width())
	})
	//
	return uses
}

// Filter returns all uses of a given kind.
func (p *Usage) Filter(kind UseKind) []Use {
	var uses []Use
	//
	for _, u := range p.Uses {
		if u.Kind == kind {
			uses = append(uses, u)
		}
	}
	//
	return uses
}

// CollectUsage determines how each field slice referenced by a set of canonical
// gateway conditions is used.
func CollectUsage(conds ...ir.Expr) *Usage {
	c := collector{aliases: make(map[Use][]string)}
	//
	for _, e := range conds {
		if e != nil {
			c.visit(e)
		}
	}
	//
	return c.finish()
}

// CollectKeyUsage determines the uses made by the match keys of a table when
// executed as a gateway.  Exact and ternary keys are equalities, whilst range
// keys are range matches of each nibble.
func CollectKeyUsage(keys []Key) (*Usage, []diag.Diagnostic) {
	var (
		c     = collector{aliases: make(map[Use][]string)}
		diags []diag.Diagnostic
	)
	//
	for _, k := range keys {
		r, ok := refOf(k.Expr)
		//
		switch {
		case !ok:
			diags = append(diags, diag.Errorf(diag.Unsupported, "match key %s is not a field", k.Expr.String()))
		case k.Kind == MatchRange:
			for lo := uint(0); lo < r.Width(); lo += NibbleWidth {
				c.add(Use{Kind: UseRange, Slice: r.Sub(min(lo+NibbleWidth, r.Width())-1, lo)}, k.Expr)
			}
		default:
			c.add(Use{Kind: UseEquality, Slice: r}, k.Expr)
		}
	}
	//
	return c.finish(), diags
}

type collector struct {
	uses    []Use
	aliases map[Use][]string
}

func (c *collector) visit(e ir.Expr) {
	switch e := e.(type) {
	case *ir.Valid:
		c.add(Use{Kind: UseValid, Header: e.Header}, e)
		return
	case *ir.Call:
		if e.Func == ir.FnRange && len(e.Args) == 2 {
			if r, ok := refOf(e.Args[0]); ok {
				c.add(Use{Kind: UseRange, Slice: r}, e)
				return
			}
		}
	case *ir.Binary:
		if e.Op.IsRelational() {
			c.relation(e)
			return
		}
	}
	//
	for _, child := range ir.Children(e) {
		c.visit(child)
	}
}

func (c *collector) relation(e *ir.Binary) {
	var (
		lhs      = e.Lhs
		a, aok   = refOf(lhs)
		b, bok   = refOf(e.Rhs)
		equality = e.Op == ir.Eq || e.Op == ir.Neq
	)
	// Look through masks
	if m, ok := lhs.(*ir.Binary); ok && (m.Op == ir.BAnd || m.Op == ir.BOr) {
		a, aok = refOf(m.Lhs)
	}
	//
	switch {
	case aok && bok && equality:
		c.add(Use{Kind: UseXor, Slice: a, Partner: b}, e)
	case aok && equality:
		c.add(Use{Kind: UseEquality, Slice: a}, e)
	case aok:
		c.add(Use{Kind: UseRange, Slice: a}, e)
	default:
		for _, child := range ir.Children(e) {
			c.visit(child)
		}
	}
}

func (c *collector) add(u Use, source ir.Expr) {
	c.uses = append(c.uses, u)
	c.aliases[u] = append(c.aliases[u], source.String())
}

// Merge overlapping equalities on the same field, remove duplicates and drop
// any equality subsumed by a range match of exactly the same slice.
func (c *collector) finish() *Usage {
	var (
		uses    []Use
		ranges  = make(map[Ref]bool)
		aliases = make(map[Use][]string)
	)
	//
	for _, u := range c.uses {
		if u.Kind == UseRange {
			ranges[u.Slice] = true
		}
	}
	//
	for _, u := range c.uses {
		var removed []Use
		//
		switch {
		case u.Kind == UseEquality && ranges[u.Slice] && u.Slice.Width() <= NibbleWidth:
			log.Debugf("matching %s through range match", u.Slice)
			// Attribute to the range use instead
			removed, u = []Use{u}, Use{Kind: UseRange, Slice: u.Slice}
		case u.Kind == UseEquality:
			u, uses, removed = mergeEquality(u, uses)
		}
		//
		if !slices.Contains(uses, u) {
			uses = append(uses, u)
		}
		//
		aliases[u] = append(aliases[u], c.aliases[u]...)
		//
		for _, r := range removed {
			aliases[u] = append(aliases[u], aliases[r]...)
			aliases[u] = append(aliases[u], c.aliases[r]...)
			delete(aliases, r)
		}
	}
	//
	slices.SortFunc(uses, Use.Cmp)
	//
	for _, u := range uses {
		slices.Sort(aliases[u])
		aliases[u] = slices.Compact(aliases[u])
		log.Debugf("gateway uses %s from %v", u, aliases[u])
	}
	//
	return &Usage{uses, aliases}
}

// Merge an equality use with any existing equality uses of overlapping slices
// of the same field.  The overlapping uses are removed, and the use covering
// all of them is returned.
func mergeEquality(u Use, uses []Use) (Use, []Use, []Use) {
	var removed []Use
	//
	for changed := true; changed; {
		changed = false
		//
		for i, o := range uses {
			if o.Kind == UseEquality && o != u && o.Slice.Overlaps(u.Slice) {
				u.Slice.Lo, u.Slice.Hi = min(u.Slice.Lo, o.Slice.Lo), max(u.Slice.Hi, o.Slice.Hi)
				uses = slices.Delete(slices.Clone(uses), i, i+1)
				removed = append(removed, o)
				changed = true
				//
				break
			}
		}
	}
	//
	return u, uses, removed
}
