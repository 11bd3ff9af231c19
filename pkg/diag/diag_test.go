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
package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Sink_01(t *testing.T) {
	sink := NewSink()
	sink.Report(Warnf("masked comparison can never match"))
	sink.ReportIn("t1", Errorf(Overlimit, "limit of %d bytes exceeded", 4))
	//
	require.Len(t, sink.Diagnostics(), 2)
	assert.Equal(t, uint(1), sink.ErrorCount())
	assert.Equal(t, "t1: overlimit: limit of 4 bytes exceeded", sink.Errors()[0].Error())
}

func Test_Sink_02(t *testing.T) {
	d := Errorf(Unsupported, "x").In("a").In("b")
	assert.Equal(t, "a", d.Context)
	assert.True(t, HasErrors([]Diagnostic{Warnf("w"), d}))
	assert.False(t, HasErrors([]Diagnostic{Warnf("w")}))
}

func Test_Bug_01(t *testing.T) {
	err := func() (err error) {
		defer Recover(&err)
		Check(1+1 == 3, "arithmetic is broken (%d)", 2)
		//
		return nil
	}()
	//
	var bug *BugError
	require.True(t, errors.As(err, &bug))
	assert.Equal(t, "compiler bug: arithmetic is broken (2)", err.Error())
}

func Test_Bug_02(t *testing.T) {
	assert.PanicsWithValue(t, "other", func() {
		var err error
		defer Recover(&err)
		panic("other")
	})
}
