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
package salu

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func Test_Predicate_01(t *testing.T) {
	assert.Equal(t, Predicate(0x3), Always(1))
	assert.Equal(t, Predicate(0xf), Always(2))
	assert.Equal(t, Predicate(0xffff), Always(4))
	assert.Equal(t, Predicate(0xa), Compare(0, 2))
	assert.Equal(t, Predicate(0xc), Compare(1, 2))
	assert.Equal(t, Predicate(0x5), Compare(0, 2).Not(2))
}

func Test_Predicate_02(t *testing.T) {
	units := []string{"cmplo", "cmphi"}
	//
	assert.Equal(t, "", Always(2).Format(units))
	assert.Equal(t, "never", Predicate(0).Format(units))
	assert.Equal(t, "cmphi", Compare(1, 2).Format(units))
	assert.Equal(t, "!cmplo", Compare(0, 2).Not(2).Format(units))
	assert.Equal(t, "cmplo & cmphi", Compare(0, 2).And(Compare(1, 2)).Format(units))
	assert.Equal(t, "!cmplo & !cmphi | cmplo & cmphi", Predicate(0x9).Format(units))
	assert.Equal(t, "0x000a", Compare(0, 2).String())
}

func Test_Predicate_03(t *testing.T) {
	// Boolean laws over random predicates
	var faker = gofakeit.New(3)
	//
	for k := 0; k < 500; k++ {
		var (
			n = uint(faker.Number(1, 4))
			p = Predicate(faker.Uint16()) & Always(n)
			q = Predicate(faker.Uint16()) & Always(n)
		)
		//
		assert.Equal(t, p.And(q).Not(n), p.Not(n).Or(q.Not(n)))
		assert.Equal(t, p, p.Not(n).Not(n))
		assert.True(t, p.Or(q).Covers(p))
		assert.True(t, p.Covers(p.And(q)))
		assert.Equal(t, p.Overlaps(q), !p.And(q).IsNever())
		assert.False(t, p.Overlaps(p.Not(n)))
	}
}

func Test_Predicate_04(t *testing.T) {
	// Comparator predicates hold exactly when their comparator does
	for n := uint(1); n <= 4; n++ {
		for i := uint(0); i < n; i++ {
			var p = Compare(i, n)
			//
			for v := uint(0); v < 1<<n; v++ {
				assert.Equal(t, v&(1<<i) != 0, p&(1<<v) != 0)
			}
		}
	}
}
