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
package device

// GatewaySpec describes the gateway (conditional) unit attached to every
// match-action table.  A gateway matches a small search word, made up from a
// handful of bytes taken directly from the PHV plus a handful of bits produced
// by the hash unit, against a few ternary rows.
type GatewaySpec struct {
	// PhvBytes is the number of byte-addressed inputs to the gateway.
	PhvBytes uint `json:"phv_bytes"`
	// HashBits is the number of hash-derived bits available.
	HashBits uint `json:"hash_bits"`
	// PredicateBits limits how many of the hash bits may be used as single-bit
	// placements (valid bits and spilled single-bit equalities).  Zero means
	// there is no separate limit.
	PredicateBits uint `json:"predicate_bits"`
	// MaxRows is the number of ternary rows in a gateway.
	MaxRows uint `json:"max_rows"`
	// SupportXor indicates fields can be compared against each other.
	SupportXor bool `json:"support_xor"`
	// SupportRange indicates the hash bits can be matched with 4-bit range
	// match lookup tables.
	SupportRange bool `json:"support_range"`
	// ExactShifts is the number of distinct bit shifts supported by the input
	// crossbar for byte-placed slices.
	ExactShifts uint `json:"exact_shifts"`
	// ByteSwizzle indicates any byte of a field can be placed at any byte
	// offset.  Without this, the bytes of a slice must be consecutive.
	ByteSwizzle bool `json:"byte_swizzle"`
	// PerByteMatch, when non-zero, means bytes can only be matched as whole
	// units.
	PerByteMatch uint `json:"per_byte_match"`
	// XorByteSlots is a bitmask of those byte offsets which can be compared
	// against a second (XOR) operand.
	XorByteSlots uint `json:"xor_byte_slots"`
}

// ByteBits returns the number of bits in the byte-addressed part of the search
// word.  Hash bits are numbered from here onwards.
func (p *GatewaySpec) ByteBits() uint {
	return 8 * p.PhvBytes
}

// SearchBits returns the total width of the gateway search word.
func (p *GatewaySpec) SearchBits() uint {
	return p.ByteBits() + p.HashBits
}

// SingleBitLimit returns the maximum number of single-bit placements.
func (p *GatewaySpec) SingleBitLimit() uint {
	if p.PredicateBits == 0 {
		return p.HashBits
	}
	//
	return min(p.PredicateBits, p.HashBits)
}

// RangeNibbles returns the number of range-match nibbles available.
func (p *GatewaySpec) RangeNibbles() uint {
	if !p.SupportRange {
		return 0
	}
	//
	return p.HashBits / 4
}

// IsXorSlot checks whether a given byte offset can anchor an XOR pair.
func (p *GatewaySpec) IsXorSlot(byteOffset uint) bool {
	return p.XorByteSlots&(1<<byteOffset) != 0
}
