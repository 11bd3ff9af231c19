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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MathUnit_01(t *testing.T) {
	var checks = map[string][]uint8{
		"sqr":  {0, 1, 4, 9, 16},
		"sqrt": {0, 16, 23, 28, 32},
		"rcp":  {255, 255, 128, 85, 64},
		"log":  {0, 0, 16, 25, 32},
	}
	//
	for op, prefix := range checks {
		table, ok := MathTable(op)
		require.True(t, ok, op)
		assert.Equal(t, prefix, table[:len(prefix)], op)
	}
	//
	_, ok := MathTable("exp")
	assert.False(t, ok)
	assert.True(t, IsMathOp("rsqrt"))
	assert.False(t, IsMathOp("exp"))
}

func Test_MathUnit_02(t *testing.T) {
	for _, op := range MathOps {
		table, ok := MathTable(op)
		require.True(t, ok, op)
		// Tables are monotonic in one direction or the other
		var inc, dec = true, true
		//
		for i := 2; i < MathTableSize; i++ {
			inc = inc && table[i] >= table[i-1]
			dec = dec && table[i] <= table[i-1]
		}
		//
		assert.True(t, inc || dec, op)
	}
}

func Test_Params_01(t *testing.T) {
	dirs, ok := Directions("LearnAction", "apply")
	require.True(t, ok)
	assert.Equal(t, []Direction{DirValue, DirHash, DirLearn, DirOutput, DirOutput, DirOutput, DirOutput}, dirs)
	//
	dirs, ok = Directions("RegisterAction", "underflow")
	require.True(t, ok)
	assert.Equal(t, []Direction{DirValue, DirOutput}, dirs)
	//
	_, ok = Directions("RegisterAction", "execute")
	assert.False(t, ok)
	assert.Equal(t, "hash", DirHash.String())
}

func Test_RegFile_01(t *testing.T) {
	var rf RegFile
	//
	assert.Equal(t, uint(0), rf.Constant(100))
	assert.Equal(t, uint(1), rf.Param("limit"))
	assert.Equal(t, uint(0), rf.Constant(100))
	assert.Equal(t, uint(2), rf.Constant(-7))
	assert.Equal(t, uint(3), rf.Len())
	assert.Equal(t, "[100, limit, -7]", rf.String())
	// Clones are independent
	c := rf.clone()
	c.Constant(5)
	assert.Equal(t, uint(3), rf.Len())
	assert.Equal(t, uint(4), c.Len())
}
