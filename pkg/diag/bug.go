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

import "fmt"

// BugError is the panic value used for internal-consistency violations.  These
// indicate a defect in this compiler (or an earlier pass), rather than a
// problem with the user's program.
type BugError struct {
	Message string
}

func (e *BugError) Error() string {
	return "compiler bug: " + e.Message
}

// Bug aborts with an internal-consistency violation.
func Bug(format string, args ...any) {
	panic(&BugError{fmt.Sprintf(format, args...)})
}

// Check aborts with an internal-consistency violation if a condition is false.
func Check(cond bool, format string, args ...any) {
	if !cond {
		Bug(format, args...)
	}
}

// Recover converts a BugError panic into an ordinary error, leaving any other
// kind of panic untouched.  It is intended for use in a deferred call at the
// outermost layer (e.g. the CLI), as in:
//
//	defer diag.Recover(&err)
func Recover(err *error) {
	if r := recover(); r != nil {
		if bug, ok := r.(*BugError); ok {
			*err = bug
			return
		}
		//
		panic(r)
	}
}
