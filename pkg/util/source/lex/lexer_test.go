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
package lex

import (
	"slices"
	"testing"

	"github.com/consensys/go-mau/pkg/util/source"
)

const (
	END_OF uint = iota
	WSPACE
	LBRACE
	RBRACE
	NUMBER
	LESS
	LESS_EQ
	IDENT
)

var rules = []LexRule[rune]{
	lex(Unit('('), LBRACE),
	lex(Unit(')'), RBRACE),
	// Deliberately listed before "<=" to check longest match wins.
	lex(Unit('<'), LESS),
	lex(String("<="), LESS_EQ),
	lex(Many(Or(Unit(' '), Unit('\t'))), WSPACE),
	lex(Many(Within('0', '9')), NUMBER),
	lex(And(Within('a', 'z'), Many(Within('a', 'z'))), IDENT),
	lex(Eof[rune](), END_OF),
}

func lex(s Scanner[rune], tag uint) LexRule[rune] {
	return Rule(s, tag)
}

func TestLexer_00(t *testing.T) {
	checkLexer(t, "", 0, Token{END_OF, source.NewSpan(0, 0)})
}

func TestLexer_01(t *testing.T) {
	checkLexer(t, "(", 0,
		Token{LBRACE, source.NewSpan(0, 1)},
		Token{END_OF, source.NewSpan(1, 1)})
}

func TestLexer_02(t *testing.T) {
	checkLexer(t, "( )", 0,
		Token{LBRACE, source.NewSpan(0, 1)},
		Token{WSPACE, source.NewSpan(1, 2)},
		Token{RBRACE, source.NewSpan(2, 3)},
		Token{END_OF, source.NewSpan(3, 3)})
}

func TestLexer_03(t *testing.T) {
	checkLexer(t, "#", 1)
}

func TestLexer_04(t *testing.T) {
	checkLexer(t, "x<=10", 0,
		Token{IDENT, source.NewSpan(0, 1)},
		Token{LESS_EQ, source.NewSpan(1, 3)},
		Token{NUMBER, source.NewSpan(3, 5)},
		Token{END_OF, source.NewSpan(5, 5)})
}

func TestLexer_05(t *testing.T) {
	checkLexer(t, "abc<1", 0,
		Token{IDENT, source.NewSpan(0, 3)},
		Token{LESS, source.NewSpan(3, 4)},
		Token{NUMBER, source.NewSpan(4, 5)},
		Token{END_OF, source.NewSpan(5, 5)})
}

func TestLexer_06(t *testing.T) {
	checkLexer(t, "12 #", 1,
		Token{NUMBER, source.NewSpan(0, 2)},
		Token{WSPACE, source.NewSpan(2, 3)})
}

func checkLexer(t *testing.T, input string, remaining uint, expected ...Token) {
	lexer := NewLexer([]rune(input), rules...)
	tokens := lexer.Collect()
	//
	if lexer.Remaining() != remaining {
		t.Errorf("expected %d characters remaining, got %d", remaining, lexer.Remaining())
	}
	//
	if !slices.Equal(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}
