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
package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SourceFile_01(t *testing.T) {
	srcfile := NewSourceFile("test", []byte("ab\n\ncde"))
	lines := srcfile.Lines()
	//
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ab", "", "cde"}, lineStrings(lines))
	assert.Equal(t, 4, lines[2].Start())
	assert.Equal(t, 3, lines[2].Number())
}

func Test_SourceFile_02(t *testing.T) {
	srcfile := NewSourceFile("test", []byte("field f : bit<8>;\ngateway g { f == 1 : x; }"))
	err := srcfile.SyntaxError(NewSpan(30, 36), "unknown variable")
	//
	line := err.FirstEnclosingLine()
	assert.Equal(t, 2, line.Number())
	assert.Equal(t, "test:2: unknown variable\ngateway g { f == 1 : x; }\n            ^^^^^^", err.Format(0))
	assert.Equal(t, "test:2: unknown variable\ngateway g { f == 1 : x; }\n          ", err.Format(10))
}

// ===================================================================
// Helpers
// ===================================================================

func lineStrings(lines []Line) []string {
	var strs []string
	//
	for _, l := range lines {
		strs = append(strs, l.String())
	}
	//
	return strs
}
