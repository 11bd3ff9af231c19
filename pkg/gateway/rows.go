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
	"slices"

	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/util/logical"
	"github.com/oleiade/lane"
	log "github.com/sirupsen/logrus"
)

// MaxRows is the largest number of rows a canonical gateway may have.
const MaxRows = 32

// Row is a single row of a gateway.  Rows are evaluated in order, and the
// first whose condition holds determines the next stage.  A nil condition marks
// the unconditional default row which terminates the list.
type Row struct {
	Cond ir.Expr
	Next string
}

func (r Row) String() string {
	if r.Cond == nil {
		return "default : " + r.Next
	}
	//
	return r.Cond.String() + " : " + r.Next
}

// CanonicalizeRows rewrites a gateway into an equivalent list of rows, each of
// whose conditions is a conjunction of positive comparisons that the gateway
// can match directly.  Unreachable rows are removed, ordering comparisons are
// lowered into range matches and non-equalities are eliminated.  The returned
// list always ends with a default row.
func CanonicalizeRows(rows []Row) ([]Row, []diag.Diagnostic) {
	var (
		c    = canonicalizer{limit: MaxDisjuncts}
		list = c.rows(rows)
	)
	//
	if diag.HasErrors(c.diags) {
		return nil, c.diags
	}
	//
	list.lowerRanges(&c)
	//
	if !diag.HasErrors(c.diags) {
		list.eliminateNegations(&c)
	}
	//
	if diag.HasErrors(c.diags) {
		return nil, c.diags
	}
	//
	return list.render(), c.diags
}

// rowList is a gateway in canonical form.
type rowList struct {
	rows  []row
	deflt string
}

// row is a single canonical gateway row.
type row struct {
	cond logical.Conjunction[atom]
	next string
}

// Canonicalise each condition in turn, splitting disjunctions into consecutive
// rows with the same label.  A failed row is skipped, so that diagnostics for
// all rows are reported together.
func (c *canonicalizer) rows(rows []Row) rowList {
	var list rowList
	//
	for i, r := range rows {
		if r.Cond == nil {
			list.deflt = r.Next
			//
			if i+1 != len(rows) {
				c.warn("rows following default row are unreachable")
			}
			//
			break
		}
		//
		if p, ok := c.prop(r.Cond, true); ok {
			for _, conj := range p.Conjuncts() {
				list.rows = append(list.rows, row{conj, r.Next})
			}
		}
	}
	//
	list.simplify()
	//
	return list
}

// Successors returns the set of distinct labels reachable from the gateway,
// sorted.
func (p *rowList) successors() []string {
	var labels []string
	//
	for _, r := range p.rows {
		labels = append(labels, r.next)
	}
	//
	labels = append(labels, p.deflt)
	slices.Sort(labels)
	//
	return slices.Compact(labels)
}

// Simplify the row list by reordering consecutive rows with the same label,
// removing rows which can never be reached and removing trailing rows that lead
// to the default.
func (p *rowList) simplify() {
	var (
		kept   []row
		before = len(p.rows)
	)
	// Put more general rows first within each group
	for i := 0; i < len(p.rows); {
		j := i + 1
		//
		for j < len(p.rows) && p.rows[j].next == p.rows[i].next {
			j++
		}
		//
		slices.SortStableFunc(p.rows[i:j], func(a, b row) int {
			return a.cond.Len() - b.cond.Len()
		})
		//
		i = j
	}
	//
	for _, r := range p.rows {
		if r.cond.Len() == 0 {
			// Always matches, hence becomes the default.
			p.deflt = r.next
			break
		} else if !p.dominated(r, kept) {
			kept = append(kept, r)
		}
	}
	// Trailing rows leading to the default are redundant
	for len(kept) > 0 && kept[len(kept)-1].next == p.deflt {
		kept = kept[:len(kept)-1]
	}
	//
	if len(kept) != before {
		log.Debugf("removed %d unreachable gateway rows", before-len(kept))
	}
	//
	p.rows = kept
}

// A row is dominated when it can only match inputs which an earlier row must
// already have matched.
func (p *rowList) dominated(r row, earlier []row) bool {
	for _, e := range earlier {
		if r.cond.Implies(e.cond) {
			return true
		}
	}
	//
	return false
}

// Lower every range atom into one or more range matches against nibbles.
func (p *rowList) lowerRanges(c *canonicalizer) {
	var rows []row
	//
	for _, r := range p.rows {
		var (
			prop  = logical.Truth[atom](true)
			ok    = true
			atoms = r.cond.Atoms()
		)
		//
		for i := 0; i < len(atoms) && ok; i++ {
			a := atoms[i]
			//
			if a.kind == rangeAtom {
				prop, ok = c.combine(prop, lowerRange(a.a, a.value, a.signed, a.sign), true)
			} else {
				prop, ok = c.combine(prop, logical.NewProposition(a), true)
			}
		}
		//
		if !ok {
			return
		}
		//
		for _, conj := range prop.Conjuncts() {
			rows = append(rows, row{conj, r.next})
		}
	}
	//
	p.rows = rows
	p.simplify()
}

// Eliminate negated atoms, which the gateway cannot match directly.  The rows
// are processed bottom up, such that the rows following a given row never
// contain negations.  Then, a row "¬a₁ ∧ … ∧ ¬aₖ ∧ R → L" followed by rows T and
// default D is replaced by the rows "aₘ ∧ R ∧ cⱼ → lⱼ" (for each "cⱼ → lⱼ" in T)
// and "aₘ ∧ R → D" for each m, followed by "R → L" and then T.
func (p *rowList) eliminateNegations(c *canonicalizer) {
	var (
		stack = lane.NewStack()
		tail  []row
	)
	//
	for _, r := range p.rows {
		stack.Push(r)
	}
	//
	for !stack.Empty() {
		var (
			r          = stack.Pop().(row)
			negs, rest = r.split()
			rows       []row
		)
		//
		if len(negs) == 0 {
			tail = append([]row{r}, tail...)
			continue
		}
		//
		log.Debugf("eliminating %d negations from gateway row %s", len(negs), r.cond.String(false))
		//
		for _, a := range negs {
			base, ok := rest.And(unit(a.Negate()))
			//
			if !ok {
				continue
			}
			//
			for _, t := range tail {
				if cond, ok := base.And(t.cond); ok {
					rows = append(rows, row{cond, t.next})
				}
			}
			//
			rows = append(rows, row{base, p.deflt})
		}
		//
		rows = append(rows, row{rest, r.next})
		// Nothing following an unconditional row is reachable
		if rest.Len() == 0 {
			tail = rows
		} else {
			tail = append(rows, tail...)
		}
		//
		if len(tail) > MaxRows {
			c.fail(diag.Overlimit, "gateway condition too complex")
			return
		}
	}
	//
	p.rows = tail
	p.simplify()
}

// Split a row into its negated atoms and the conjunction of the rest.
func (r row) split() ([]atom, logical.Conjunction[atom]) {
	var negs, rest []atom
	//
	for _, a := range r.cond.Atoms() {
		if a.IsNegative() {
			negs = append(negs, a)
		} else {
			rest = append(rest, a)
		}
	}
	//
	conj, ok := logical.NewConjunction(rest...)
	// Subset of a satisfiable conjunction must be satisfiable.
	diag.Check(ok, "inconsistent gateway row %s", r.cond.String(false))
	//
	return negs, conj
}

func unit(a atom) logical.Conjunction[atom] {
	conj, _ := logical.NewConjunction(a)
	return conj
}

func (p *rowList) render() []Row {
	var rows []Row
	//
	for _, r := range p.rows {
		rows = append(rows, Row{renderConjunction(r.cond), r.next})
	}
	//
	return append(rows, Row{nil, p.deflt})
}
