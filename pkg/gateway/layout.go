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

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	log "github.com/sirupsen/logrus"
)

// SlotKind identifies what a slot of the search word holds.
type SlotKind uint8

const (
	// SlotField holds bits of a field, matched against constants.
	SlotField SlotKind = iota
	// SlotXor holds bits of one field exclusive-or'd with bits of another.
	SlotXor
	// SlotValid holds the validity bit of a header.
	SlotValid
	// SlotRange holds a nibble of a field, matched using a range match table.
	SlotRange
)

// Slot assigns a run of bits in the gateway search word.  The lowest bit of
// the source slice is placed at the offset, where offsets below 32 are byte
// addressed inputs and offsets from 32 upwards are hash bits.
type Slot struct {
	Kind   SlotKind
	Offset uint
	Source Ref
	// Partner slice for xor slots, aligned with the source.
	Partner Ref
	// Header for valid slots.
	Header string
}

// Width returns the number of search word bits occupied by this slot.
func (s Slot) Width() uint {
	switch s.Kind {
	case SlotValid:
		return 1
	case SlotRange:
		return NibbleWidth
	default:
		return s.Source.Width()
	}
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotValid:
		return fmt.Sprintf("%d: %s.$valid", s.Offset, s.Header)
	case SlotXor:
		return fmt.Sprintf("%d: %s ^ %s", s.Offset, s.Source, s.Partner)
	case SlotRange:
		return fmt.Sprintf("%d: range(%s)", s.Offset, s.Source)
	default:
		return fmt.Sprintf("%d: %s", s.Offset, s.Source)
	}
}

// Layout is an assignment of field slices to positions in the search word of
// a gateway.
type Layout struct {
	Slots []Slot
	// Bytes is the number of byte inputs used.
	Bytes uint
	// Bits is the number of hash bits used.
	Bits uint
}

// Position determines where a given bit of a field is placed for matching
// against a constant.
func (p *Layout) Position(field string, bit uint) (uint, bool) {
	for _, s := range p.Slots {
		if s.Kind == SlotField && s.Source.Field == field && s.Source.Lo <= bit && bit <= s.Source.Hi {
			return s.Offset + bit - s.Source.Lo, true
		}
	}
	//
	return 0, false
}

// XorPosition determines where a given bit of one field is placed alongside
// the corresponding bit of another.
func (p *Layout) XorPosition(a Ref, b Ref, bit uint) (uint, bool) {
	for _, s := range p.Slots {
		if s.Kind != SlotXor {
			continue
		}
		//
		for _, pair := range [2][2]Ref{{s.Source, s.Partner}, {s.Partner, s.Source}} {
			x, y := pair[0], pair[1]
			//
			if x.Field == a.Field && y.Field == b.Field && x.Lo <= a.Lo+bit && a.Lo+bit <= x.Hi &&
				a.Lo-x.Lo == b.Lo-y.Lo {
				return s.Offset + a.Lo + bit - x.Lo, true
			}
		}
	}
	//
	return 0, false
}

// ValidPosition determines where the valid bit of a header is placed.
func (p *Layout) ValidPosition(header string) (uint, bool) {
	for _, s := range p.Slots {
		if s.Kind == SlotValid && s.Header == header {
			return s.Offset, true
		}
	}
	//
	return 0, false
}

// Nibble determines where a range matched slice is placed.
func (p *Layout) Nibble(r Ref) (uint, bool) {
	for _, s := range p.Slots {
		if s.Kind == SlotRange && s.Source == r {
			return s.Offset, true
		}
	}
	//
	return 0, false
}

// Encode constructs the search word presented to a gateway for given field
// values and header validities.
func (p *Layout) Encode(fields map[string]uint64, valid map[string]bool) uint64 {
	var word uint64
	//
	for _, s := range p.Slots {
		var bits uint64
		//
		switch s.Kind {
		case SlotValid:
			bits = boolValue(valid[s.Header])
		case SlotXor:
			bits = extract(fields, s.Source) ^ extract(fields, s.Partner)
		default:
			bits = extract(fields, s.Source)
		}
		//
		word |= bits << s.Offset
	}
	//
	return word
}

func extract(fields map[string]uint64, r Ref) uint64 {
	return (fields[r.Field] >> r.Lo) & ones(r.Width())
}

// Bounds returns the lowest assigned offset, and one past the highest.
func (p *Layout) Bounds() (uint, uint) {
	if len(p.Slots) == 0 {
		return 0, 0
	}
	//
	lo, hi := p.Slots[0].Offset, uint(0)
	//
	for _, s := range p.Slots {
		lo, hi = min(lo, s.Offset), max(hi, s.Offset+s.Width())
	}
	//
	return lo, hi
}

// Width returns the number of bits spanned by the assigned offsets.
func (p *Layout) Width() uint {
	lo, hi := p.Bounds()
	return hi - lo
}

func (p *Layout) String() string {
	var builder strings.Builder
	//
	builder.WriteString(fmt.Sprintf("%d bytes, %d bits", p.Bytes, p.Bits))
	//
	for _, s := range p.Slots {
		builder.WriteString("\n  ")
		builder.WriteString(s.String())
	}
	//
	return builder.String()
}

// AllocateLayout assigns every use of a gateway to a position in its search
// word.  Xor pairs are placed first in xor capable bytes, then valid bits and
// range matches in the hash bits.  Finally, equalities are packed into bytes
// largest first, with single bits falling back to the hash bits once the bytes
// are exhausted.
func AllocateLayout(usage *Usage, spec *device.GatewaySpec) (*Layout, []diag.Diagnostic) {
	a := allocator{
		spec:  spec,
		bytes: bitset.New(spec.PhvBytes),
		bits:  bitset.New(spec.HashBits),
	}
	//
	if diags := a.allocate(usage); len(diags) > 0 {
		return nil, diags
	}
	//
	a.layout.Bytes, a.layout.Bits = a.bytes.Count(), a.bits.Count()
	//
	log.Debugf("gateway layout: %s", a.layout.String())
	//
	return &a.layout, nil
}

type allocator struct {
	spec *device.GatewaySpec
	// byte offsets in use
	bytes *bitset.BitSet
	// hash bits in use
	bits *bitset.BitSet
	// number of single bit placements
	single uint
	// number of range nibbles placed
	nibbles uint
	layout  Layout
}

func (a *allocator) allocate(usage *Usage) []diag.Diagnostic {
	if xors := usage.Filter(UseXor); len(xors) > 0 && !a.spec.SupportXor {
		return a.unsupported("comparison of %s with %s", xors[0].Slice, xors[0].Partner)
	} else if ranges := usage.Filter(UseRange); len(ranges) > 0 && !a.spec.SupportRange {
		return a.unsupported("range match of %s", ranges[0].Slice)
	}
	//
	for _, u := range usage.Filter(UseXor) {
		if u.Slice.Width() != u.Partner.Width() {
			return []diag.Diagnostic{diag.Errorf(diag.Invalid, "comparison of %s and %s with differing widths", u.Slice, u.Partner)}
		} else if ok, diags := a.placeXor(u.Slice, u.Partner); len(diags) > 0 {
			return diags
		} else if !ok {
			return a.overlimit(u)
		}
	}
	//
	for _, u := range usage.Filter(UseValid) {
		if !a.placeBits(Slot{Kind: SlotValid, Header: u.Header}, 1) {
			return a.overlimit(u)
		}
		//
		a.single++
	}
	//
	for _, u := range usage.Filter(UseRange) {
		for lo := uint(0); lo < u.Slice.Width(); lo += NibbleWidth {
			nibble := u.Slice.Sub(min(lo+NibbleWidth, u.Slice.Width())-1, lo)
			//
			if !a.placeNibble(nibble) {
				return a.overlimit(u)
			}
		}
	}
	//
	for _, u := range usage.Equalities() {
		if !a.placeEquality(u.Slice) {
			return a.overlimit(u)
		}
	}
	//
	if a.single > a.spec.SingleBitLimit() {
		log.Debugf("gateway needs %d single bits, limit %d", a.single, a.spec.SingleBitLimit())
		return a.overlimit(Use{})
	}
	//
	return nil
}

func (a *allocator) unsupported(format string, args ...any) []diag.Diagnostic {
	return []diag.Diagnostic{diag.Errorf(diag.UnsupportedOnTarget, format, args...)}
}

func (a *allocator) overlimit(u Use) []diag.Diagnostic {
	log.Debugf("gateway layout failed placing %s", u)
	//
	if a.spec.HashBits == 0 {
		return []diag.Diagnostic{diag.Errorf(diag.Overlimit, "condition too complex, limit of %d bytes exceeded",
			a.spec.PhvBytes)}
	}
	//
	return []diag.Diagnostic{diag.Errorf(diag.Overlimit, "condition too complex, limit of %d bytes (+ %d bits) exceeded",
		a.spec.PhvBytes, a.spec.HashBits)}
}

// Place an equality, either in bytes or (for slices which can only be matched
// as whole bytes, or single bits when bytes are exhausted) in hash bits.
func (a *allocator) placeEquality(r Ref) bool {
	partial := r.Lo%8 != 0 || (r.Hi+1)%8 != 0
	//
	if a.spec.PerByteMatch > 0 && partial {
		if r.Width() == 1 {
			a.single++
		}
		//
		return a.placeBits(Slot{Kind: SlotField, Source: r}, r.Width())
	} else if a.placeBytes(SlotField, r, Ref{}, a.start(r.Lo)) {
		return true
	} else if r.Width() == 1 {
		log.Debugf("spilling %s into hash bits", r)
		a.single++
		//
		return a.placeBits(Slot{Kind: SlotField, Source: r}, 1)
	}
	//
	return false
}

// Place an xor pair.  The bits of both slices must sit at the same position
// within their bytes, either by shifting both down or by using the natural
// alignment.
func (a *allocator) placeXor(x, y Ref) (bool, []diag.Diagnostic) {
	xs, ys := a.start(x.Lo), a.start(y.Lo)
	//
	if x.Lo-xs != y.Lo-ys {
		// Try natural alignment for both
		xs, ys = x.Lo&^7, y.Lo&^7
		//
		if x.Lo-xs != y.Lo-ys {
			return false, []diag.Diagnostic{diag.Errorf(diag.Unsupported, "cannot align %s with %s", x, y)}
		}
	}
	//
	return a.placeBytes(SlotXor, x, Ref{y.Field, y.FieldWidth, y.Hi, ys}, xs), nil
}

// Determine the first field bit of a byte for a slice beginning at a given
// bit, given the available shifts.
func (a *allocator) start(lo uint) uint {
	if lo%8 < max(a.spec.ExactShifts, 1) {
		return lo
	}
	//
	return lo &^ 7
}

// Place the bytes covering a slice, beginning at a given field bit.  Bytes
// already holding the same bits are reused.
func (a *allocator) placeBytes(kind SlotKind, r Ref, partner Ref, start uint) bool {
	var (
		n     = (r.Hi - start + 8) / 8
		slots = make([]Slot, n)
	)
	//
	for i := range slots {
		lo := start + uint(i)*8
		slots[i] = Slot{Kind: kind, Source: Ref{r.Field, r.FieldWidth, min(lo+7, r.FieldWidth-1), lo}}
		//
		if kind == SlotXor {
			plo := partner.Lo + uint(i)*8
			phi := min(plo+slots[i].Source.Width()-1, partner.FieldWidth-1)
			slots[i].Partner = Ref{partner.Field, partner.FieldWidth, phi, plo}
		}
	}
	//
	offsets, ok := a.findBytes(slots)
	//
	if !ok {
		return false
	}
	//
	for i, o := range offsets {
		if !a.bytes.Test(o) {
			a.bytes.Set(o)
			slots[i].Offset = 8 * o
			a.layout.Slots = append(a.layout.Slots, slots[i])
		}
	}
	//
	return true
}

// Find byte offsets for a sequence of byte slots.  Without byte swizzling, the
// offsets must be consecutive.
func (a *allocator) findBytes(slots []Slot) ([]uint, bool) {
	var offsets = make([]uint, len(slots))
	//
	if a.spec.ByteSwizzle {
		used := a.bytes.Clone()
		//
		for i, s := range slots {
			if o, ok := a.existing(s); ok {
				offsets[i] = o
			} else if o, ok := a.freeByte(used, s.Kind); ok {
				offsets[i] = o
				used.Set(o)
			} else {
				return nil, false
			}
		}
		//
		return offsets, true
	}
	//
	for base := uint(0); base+uint(len(slots)) <= a.spec.PhvBytes; base++ {
		ok := true
		//
		for i, s := range slots {
			o := base + uint(i)
			offsets[i] = o
			//
			if existing, found := a.existing(s); found && existing == o {
				continue
			} else if a.bytes.Test(o) || (s.Kind == SlotXor && !a.spec.IsXorSlot(o)) {
				ok = false
				break
			}
		}
		//
		if ok {
			return offsets, true
		}
	}
	//
	return nil, false
}

// Find a byte already holding exactly the same slot.
func (a *allocator) existing(s Slot) (uint, bool) {
	for _, t := range a.layout.Slots {
		if t.Offset < a.spec.ByteBits() && t.Kind == s.Kind && t.Source == s.Source && t.Partner == s.Partner {
			log.Debugf("reusing byte %d for %s", t.Offset/8, s.Source)
			return t.Offset / 8, true
		}
	}
	//
	return 0, false
}

func (a *allocator) freeByte(used *bitset.BitSet, kind SlotKind) (uint, bool) {
	for o := uint(0); o < a.spec.PhvBytes; o++ {
		if !used.Test(o) && (kind != SlotXor || a.spec.IsXorSlot(o)) {
			return o, true
		}
	}
	//
	return 0, false
}

// Place a range matched nibble, reusing an existing placement of the same
// nibble.
func (a *allocator) placeNibble(r Ref) bool {
	if _, ok := a.layout.Nibble(r); ok {
		return true
	} else if a.nibbles >= a.spec.RangeNibbles() {
		return false
	}
	//
	for j := uint(0); j+NibbleWidth <= a.spec.HashBits; j += NibbleWidth {
		if a.free(j, NibbleWidth) {
			a.claim(j, NibbleWidth)
			a.nibbles++
			a.layout.Slots = append(a.layout.Slots, Slot{Kind: SlotRange, Offset: a.spec.ByteBits() + j, Source: r})
			//
			return true
		}
	}
	//
	return false
}

// Place a run of w hash bits, working down from the highest bit so as to leave
// nibble aligned bits free for range matches.
func (a *allocator) placeBits(s Slot, w uint) bool {
	for j := int(a.spec.HashBits) - int(w); j >= 0; j-- {
		if a.free(uint(j), w) {
			a.claim(uint(j), w)
			s.Offset = a.spec.ByteBits() + uint(j)
			a.layout.Slots = append(a.layout.Slots, s)
			//
			return true
		}
	}
	//
	return false
}

func (a *allocator) free(j uint, w uint) bool {
	for i := j; i < j+w; i++ {
		if a.bits.Test(i) {
			return false
		}
	}
	//
	return true
}

func (a *allocator) claim(j uint, w uint) {
	for i := j; i < j+w; i++ {
		a.bits.Set(i)
	}
}
