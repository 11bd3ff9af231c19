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
package cmd

import (
	"testing"

	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/ir/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Eval_01(t *testing.T) {
	fields, env, err := parseBindings([]string{"hdr.f1:8=5", "hdr.d:s16=-3", "x=0x10"})
	require.NoError(t, err)
	require.Len(t, fields, 3)
	//
	assert.Equal(t, ir.Field{Name: "hdr.f1", Width: 8}, *fields[0])
	assert.Equal(t, ir.Field{Name: "hdr.d", Width: 16, Signed: true}, *fields[1])
	assert.Equal(t, ir.Field{Name: "x", Width: 32}, *fields[2])
	//
	checkEval(t, "hdr.f1 == 5 && x > 15", true, fields, env)
	checkEval(t, "hdr.d < 0", true, fields, env)
	checkEval(t, "hdr.f1 != 5 || x == 0", false, fields, env)
}

func Test_Eval_02(t *testing.T) {
	for _, arg := range []string{"x", "x:0=1", "x:abc=1", "x=ten"} {
		_, _, err := parseBindings([]string{arg})
		assert.Error(t, err, arg)
	}
}

// ===================================================================
// Helpers
// ===================================================================

func checkEval(t *testing.T, text string, expected bool, fields []*ir.Field, env *ir.Env) {
	expr, errs := parser.ParseExpr(text, fields...)
	require.Empty(t, errs, text)
	assert.Equal(t, expected, ir.EvalBool(expr, env), text)
}
