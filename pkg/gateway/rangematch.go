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
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/util/logical"
)

// NibbleWidth is the widest slice which can be matched by a single range match.
const NibbleWidth = 4

// LowerRange constructs a condition equivalent to "x < k" (or "x >= k" when
// less is false) built entirely from range matches against the nibbles of x.
// The constant k is given by its two's complement bit pattern.
func LowerRange(x ir.Expr, k uint64, signed bool, less bool) (ir.Expr, []diag.Diagnostic) {
	r, ok := refOf(x)
	//
	if !ok {
		return nil, []diag.Diagnostic{diag.Errorf(diag.Unsupported, "cannot range match %s", x.String())}
	} else if r.Width() > maxCompareWidth {
		return nil, []diag.Diagnostic{diag.Errorf(diag.Unsupported, "range match of %s wider than %d bits", x.String(), maxCompareWidth)}
	}
	//
	return render(lowerRange(r, k, signed, less)), nil
}

// LowerRows canonicalises the conditions of a gateway and lowers any remaining
// ordering comparisons into range matches.  Unlike CanonicalizeRows, the
// resulting rows may still contain non-equalities.
func LowerRows(rows []Row) ([]Row, []diag.Diagnostic) {
	var (
		c    = canonicalizer{limit: MaxDisjuncts}
		list = c.rows(rows)
	)
	//
	if !diag.HasErrors(c.diags) {
		list.lowerRanges(&c)
	}
	//
	if diag.HasErrors(c.diags) {
		return nil, c.diags
	}
	//
	return list.render(), c.diags
}

// Lower an ordering of r against k.  Working from the most significant nibble
// downwards, x < k holds when the first nibble at which x and k differ is
// smaller in x.  Thus, each nibble contributes one disjunct made up from the
// "equal so far" prefix and a range match for the values below that nibble of
// k.  Only the topmost nibble is signed, and it may be narrower than the rest.
// Similarly, x >= k is x > k-1 and uses the values above each nibble.
func lowerRange(r Ref, k uint64, signed bool, less bool) Prop {
	var (
		w      = r.Width()
		n      = (w + NibbleWidth - 1) / NibbleWidth
		result = logical.Truth[atom](false)
		prefix = logical.Truth[atom](true)
	)
	//
	if kv := toInt(k, w, signed); kv == minInt(w, signed) {
		// x < min is false, and x >= min is true
		return logical.Truth[atom](!less)
	} else if !less {
		k = (k - 1) & ones(w)
	}
	//
	for i := int(n) - 1; i >= 0; i-- {
		var (
			lo     = uint(i) * NibbleWidth
			hi     = min(lo+NibbleWidth, w) - 1
			nibble = r.Sub(hi, lo)
			digit  = (k >> lo) & ones(nibble.Width())
			set    = nibbleSet(nibble.Width(), digit, signed && i == int(n)-1, less)
			term   = prefix.And(logical.NewProposition(newNibble(nibble, set)))
		)
		//
		result = result.Or(term)
		prefix = prefix.And(logical.NewProposition(newNibble(nibble, 1<<digit)))
	}
	//
	return result
}

// Determine the set of w-bit values strictly below (or above) a given digit.
func nibbleSet(w uint, digit uint64, signed bool, less bool) uint64 {
	var (
		set uint64
		d   = toInt(digit, w, signed)
	)
	//
	for v := uint64(0); v < 1<<w; v++ {
		x := toInt(v, w, signed)
		//
		if (less && x < d) || (!less && x > d) {
			set |= 1 << v
		}
	}
	//
	return set
}

func minInt(w uint, signed bool) int64 {
	if signed {
		return -(1 << (w - 1))
	}
	//
	return 0
}

// Expand a range match on a slice narrower than a nibble to cover the whole
// nibble, where the unused upper bits are ignored.
func expandNibble(set uint64, w uint) uint16 {
	var bitmap uint16
	//
	for v := uint64(0); v < 1<<NibbleWidth; v++ {
		if set&(1<<(v&ones(w))) != 0 {
			bitmap |= 1 << v
		}
	}
	//
	return bitmap
}
