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
package ir

import (
	"fmt"
	"strings"
)

func (e *Field) String() string {
	return e.Name
}

func (e *Slice) String() string {
	return fmt.Sprintf("%s[%d:%d]", wrap(e.Expr, 13), e.Hi, e.Lo)
}

func (e *Constant) String() string {
	if e.Value.Sign() >= 0 && e.Value.BitLen() > 8 {
		return "0x" + e.Value.Text(16)
	}
	//
	return e.Value.String()
}

func (e *Bool) String() string {
	if e.Value {
		return "true"
	}
	//
	return "false"
}

func (e *Valid) String() string {
	return e.Header + ".isValid()"
}

func (e *Param) String() string {
	return e.Name
}

func (e *Unary) String() string {
	return e.Op.Symbol() + wrap(e.Expr, 12)
}

func (e *Binary) String() string {
	var (
		prec = e.Op.Precedence()
		lhs  = wrap(e.Lhs, prec)
		// operators are left-associative, hence the right-hand side needs
		// braces at equal precedence.
		rhs = wrap(e.Rhs, prec+1)
	)
	//
	return fmt.Sprintf("%s %s %s", lhs, e.Op.Symbol(), rhs)
}

func (e *Call) String() string {
	var builder strings.Builder
	//
	builder.WriteString(e.Func)
	builder.WriteString("(")
	//
	for i, arg := range e.Args {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		builder.WriteString(arg.String())
	}
	//
	builder.WriteString(")")
	//
	return builder.String()
}

// Add braces around an expression when it binds less tightly than the given
// precedence.
func wrap(e Expr, prec int) string {
	if b, ok := e.(*Binary); ok && b.Op.Precedence() < prec {
		return "(" + b.String() + ")"
	} else if _, ok := e.(*Unary); ok && prec > 12 {
		return "(" + e.String() + ")"
	}
	//
	return e.String()
}
