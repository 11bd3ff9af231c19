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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Device_01(t *testing.T) {
	assert.Equal(t, []string{"gen1", "gen2", "gen3"}, Targets())
	//
	for _, name := range Targets() {
		dev, err := Lookup(name)
		require.NoError(t, err)
		assert.NoError(t, dev.Validate())
	}
}

func Test_Device_02(t *testing.T) {
	_, err := Lookup("gen9")
	assert.Error(t, err)
}

func Test_Device_03(t *testing.T) {
	dev, err := Parse([]byte(`{"name":"mine","base":"gen1","gateway":{"phv_bytes":2}}`))
	require.NoError(t, err)
	assert.Equal(t, uint(2), dev.Gateway.PhvBytes)
	// Unmentioned fields inherited from base
	assert.Equal(t, uint(12), dev.Gateway.HashBits)
	assert.Equal(t, []string{"cmplo", "cmphi"}, dev.Salu.CmpUnits)
}

func Test_Device_04(t *testing.T) {
	_, err := Parse([]byte(`{"name":"bad","base":"gen1","salu":{"output_words":0}}`))
	assert.Error(t, err)
}

func Test_Device_05(t *testing.T) {
	dev, _ := Lookup("gen1")
	bytes, err := dev.Marshal()
	require.NoError(t, err)
	//
	other, err := Parse(bytes)
	require.NoError(t, err)
	assert.Equal(t, dev, other)
}

func Test_Device_06(t *testing.T) {
	dev, _ := Lookup("gen1")
	assert.True(t, dev.Salu.FitsComparator(7))
	assert.False(t, dev.Salu.FitsComparator(8))
	assert.True(t, dev.Salu.FitsComparator(-8))
	assert.True(t, dev.Salu.FitsInstruction(10))
	assert.False(t, dev.Salu.FitsInstruction(100))
	assert.Equal(t, uint(44), dev.Gateway.SearchBits())
	assert.Equal(t, uint(3), dev.Gateway.RangeNibbles())
}
