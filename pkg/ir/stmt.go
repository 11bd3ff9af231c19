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

	"github.com/consensys/go-mau/pkg/util/source"
)

// Stmt represents a statement within the body of a register action.
type Stmt interface {
	// Span returns the source location of this statement.
	Span() source.Span
	stmt()
}

func (*Assign) stmt() {}
func (*If) stmt()     {}

// Assign is an assignment "lhs = rhs".
type Assign struct {
	Lhs  Expr
	Rhs  Expr
	span source.Span
}

// NewAssign constructs a new assignment.
func NewAssign(lhs, rhs Expr, span source.Span) *Assign {
	return &Assign{lhs, rhs, span}
}

// Span implementation for Stmt interface.
func (s *Assign) Span() source.Span {
	return s.span
}

// If is a conditional statement, where Else may be empty.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
	span source.Span
}

// NewIf constructs a new conditional.
func NewIf(cond Expr, then []Stmt, els []Stmt, span source.Span) *If {
	return &If{cond, then, els, span}
}

// Span implementation for Stmt interface.
func (s *If) Span() source.Span {
	return s.span
}

// FormatStmts renders a list of statements at a given indentation.
func FormatStmts(stmts []Stmt, indent int) string {
	var builder strings.Builder
	//
	for _, s := range stmts {
		formatStmt(&builder, s, indent)
	}
	//
	return builder.String()
}

func formatStmt(builder *strings.Builder, s Stmt, indent int) {
	tab := strings.Repeat("    ", indent)
	//
	switch s := s.(type) {
	case *Assign:
		fmt.Fprintf(builder, "%s%s = %s;\n", tab, s.Lhs, s.Rhs)
	case *If:
		fmt.Fprintf(builder, "%sif (%s) {\n", tab, s.Cond)
		//
		for _, t := range s.Then {
			formatStmt(builder, t, indent+1)
		}
		//
		if len(s.Else) > 0 {
			fmt.Fprintf(builder, "%s} else {\n", tab)
			//
			for _, t := range s.Else {
				formatStmt(builder, t, indent+1)
			}
		}
		//
		fmt.Fprintf(builder, "%s}\n", tab)
	}
}
