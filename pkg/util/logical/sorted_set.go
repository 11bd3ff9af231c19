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
package logical

import (
	"slices"
	"sort"
)

// Comparable provides an interface which types used in a sortedSet must
// implement.
type Comparable[T any] interface {
	// Cmp returns < 0 if this is less than other, or 0 if they are equal, or >
	// 0 if this is greater than other.
	Cmp(other T) int
}

// sortedSet is an array of unique sorted values (i.e. no duplicates).
type sortedSet[T Comparable[T]] []T

// newSortedSet creates a sorted set from a given array without first cloning
// it.  That means the array may well be mutated by this function.
func newSortedSet[T Comparable[T]](items ...T) sortedSet[T] {
	slices.SortFunc(items, func(a, b T) int { return a.Cmp(b) })
	// Remove duplicates
	return slices.CompactFunc(items, func(a, b T) bool { return a.Cmp(b) == 0 })
}

// find returns the index at which a given element either does occur, or
// should occur, along with whether it was present.
func (p sortedSet[T]) find(element T) (int, bool) {
	i := sort.Search(len(p), func(i int) bool {
		// element <= data[i]
		return element.Cmp(p[i]) <= 0
	})
	//
	return i, i < len(p) && p[i].Cmp(element) == 0
}

// contains returns true if a given element is in the set.
func (p sortedSet[T]) contains(element T) bool {
	_, ok := p.find(element)
	return ok
}

// insert an element into this sorted set.
func (p *sortedSet[T]) insert(element T) {
	if i, ok := p.find(element); !ok {
		*p = slices.Insert(*p, i, element)
	}
}

// union returns a fresh set containing the elements of both sets.
func (p sortedSet[T]) union(q sortedSet[T]) sortedSet[T] {
	var (
		r    = make([]T, 0, len(p)+len(q))
		i, j int
	)
	// Merge overlap of both sets
	for i < len(p) && j < len(q) {
		switch c := p[i].Cmp(q[j]); {
		case c == 0:
			r = append(r, p[i])
			i, j = i+1, j+1
		case c < 0:
			r = append(r, p[i])
			i++
		default:
			r = append(r, q[j])
			j++
		}
	}
	// Handle anything left
	r = append(r, p[i:]...)
	//
	return append(r, q[j:]...)
}

// subset checks whether every element of this set is in another.
func (p sortedSet[T]) subset(q sortedSet[T]) bool {
	if len(p) > len(q) {
		return false
	}
	//
	for _, a := range p {
		if !q.contains(a) {
			return false
		}
	}
	//
	return true
}

// remove an element from this sorted set, returning a fresh set.
func (p sortedSet[T]) remove(element T) (sortedSet[T], bool) {
	if i, ok := p.find(element); ok {
		return slices.Delete(slices.Clone(p), i, i+1), true
	}
	//
	return p, false
}

// compare two sets, where shorter sets come first.
func compare[T Comparable[T]](lhs []T, rhs []T) int {
	if len(lhs) != len(rhs) {
		return len(lhs) - len(rhs)
	}
	//
	for i := range lhs {
		if c := lhs[i].Cmp(rhs[i]); c != 0 {
			return c
		}
	}
	//
	return 0
}
