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
package parser

import (
	"github.com/consensys/go-mau/pkg/util/source"
	"github.com/consensys/go-mau/pkg/util/source/lex"
)

// END_OF signals "end of file"
const END_OF uint = 0

// WHITESPACE signals whitespace
const WHITESPACE uint = 1

// COMMENT signals "// ... \n"
const COMMENT uint = 2

// LBRACE signals "("
const LBRACE uint = 3

// RBRACE signals ")"
const RBRACE uint = 4

// LCURLY signals "{"
const LCURLY uint = 5

// RCURLY signals "}"
const RCURLY uint = 6

// LSQUARE signals "["
const LSQUARE uint = 7

// RSQUARE signals "]"
const RSQUARE uint = 8

// COMMA signals ","
const COMMA uint = 9

// COLON signals ":"
const COLON uint = 10

// SEMICOLON signals ";"
const SEMICOLON uint = 11

// NUMBER signals an integer number
const NUMBER uint = 12

// IDENTIFIER signals a (possibly dotted) name
const IDENTIFIER uint = 13

// KEYWORD_FIELD signals a field declaration
const KEYWORD_FIELD uint = 20

// KEYWORD_HEADER signals a header declaration
const KEYWORD_HEADER uint = 21

// KEYWORD_PARAM signals a register parameter declaration
const KEYWORD_PARAM uint = 22

// KEYWORD_GATEWAY signals a gateway declaration
const KEYWORD_GATEWAY uint = 23

// KEYWORD_TABLE signals a table declaration
const KEYWORD_TABLE uint = 24

// KEYWORD_REGISTER signals a register declaration
const KEYWORD_REGISTER uint = 25

// KEYWORD_MATHUNIT signals a math unit declaration
const KEYWORD_MATHUNIT uint = 26

// KEYWORD_DEFAULT signals a default row
const KEYWORD_DEFAULT uint = 27

// KEYWORD_IF signals a conditional
const KEYWORD_IF uint = 28

// KEYWORD_ELSE signals the false branch of a conditional
const KEYWORD_ELSE uint = 29

// KEYWORD_TRUE signals logical truth
const KEYWORD_TRUE uint = 30

// KEYWORD_FALSE signals logical falsehood
const KEYWORD_FALSE uint = 31

// EQUALS signals "="
const EQUALS uint = 40

// EQUALS_EQUALS signals "=="
const EQUALS_EQUALS uint = 41

// NOT_EQUALS signals "!="
const NOT_EQUALS uint = 42

// LESS_THAN signals "<"
const LESS_THAN uint = 43

// LESS_THAN_EQUALS signals "<="
const LESS_THAN_EQUALS uint = 44

// GREATER_THAN signals ">"
const GREATER_THAN uint = 45

// GREATER_THAN_EQUALS signals ">="
const GREATER_THAN_EQUALS uint = 46

// ADD signals "+"
const ADD uint = 47

// SUB signals "-"
const SUB uint = 48

// MUL signals "*"
const MUL uint = 49

// DIV signals "/"
const DIV uint = 50

// REM signals "%"
const REM uint = 51

// SAT_ADD signals "|+|"
const SAT_ADD uint = 52

// SAT_SUB signals "|-|"
const SAT_SUB uint = 53

// BITWISE_AND signals "&"
const BITWISE_AND uint = 54

// BITWISE_OR signals "|"
const BITWISE_OR uint = 55

// BITWISE_XOR signals "^"
const BITWISE_XOR uint = 56

// BITWISE_NOT signals "~"
const BITWISE_NOT uint = 57

// LOGICAL_AND signals "&&"
const LOGICAL_AND uint = 58

// LOGICAL_OR signals "||"
const LOGICAL_OR uint = 59

// LOGICAL_XOR signals "^^"
const LOGICAL_XOR uint = 60

// LOGICAL_NOT signals "!"
const LOGICAL_NOT uint = 61

// SHIFT_LEFT signals "<<"
const SHIFT_LEFT uint = 62

// SHIFT_RIGHT signals ">>"
const SHIFT_RIGHT uint = 63

// MASK signals "&&&"
const MASK uint = 64

// DOTDOT signals ".."
const DOTDOT uint = 65

// UNDERSCORE signals "_"
const UNDERSCORE uint = 66

// Rule for describing whitespace
var whitespace lex.Scanner[rune] = lex.Many(lex.Or(lex.Unit(' '), lex.Unit('\t'), lex.Unit('\r'), lex.Unit('\n')))

// Rule for describing numbers.  A number is either a hexadecimal, binary, or
// decimal one, optionally prefixed with a P4-style width (e.g. 8w5 or 8s5).
var (
	decimal = lex.And(lex.Within('0', '9'), lex.Many(lex.Or(lex.Within('0', '9'), lex.Unit('_'))))
	hex     = lex.Many(lex.Or(lex.Within('0', '9'), lex.Within('a', 'f'), lex.Within('A', 'F'), lex.Unit('_')))
	binary  = lex.Many(lex.Or(lex.Within('0', '1'), lex.Unit('_')))
	//
	unsized = lex.Or(
		lex.Sequence(lex.String("0x"), hex),
		lex.Sequence(lex.String("0b"), binary),
		decimal,
	)
	sized = lex.Sequence(decimal, lex.Or(lex.Unit('w'), lex.Unit('s')), unsized)
	//
	number = lex.Or(sized, unsized)
)

var identifierStart lex.Scanner[rune] = lex.Or(
	lex.Unit('_'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z'))

var identifierRest lex.Scanner[rune] = lex.Many(lex.Or(
	lex.Unit('_'),
	lex.Unit('.'),
	lex.Within('0', '9'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z')))

// Rule for describing identifiers.  Identifiers may contain dots, so that
// "hdr.ipv4.ttl" is a single token.
var identifier lex.Scanner[rune] = lex.And(identifierStart, identifierRest)

var comment lex.Scanner[rune] = lex.And(lex.String("//"), lex.Until('\n'))

// lexing rules
var rules []lex.LexRule[rune] = []lex.LexRule[rune]{
	lex.Rule(comment, COMMENT),
	lex.Rule(lex.Unit('('), LBRACE),
	lex.Rule(lex.Unit(')'), RBRACE),
	lex.Rule(lex.Unit('{'), LCURLY),
	lex.Rule(lex.Unit('}'), RCURLY),
	lex.Rule(lex.Unit('['), LSQUARE),
	lex.Rule(lex.Unit(']'), RSQUARE),
	lex.Rule(lex.Unit(','), COMMA),
	lex.Rule(lex.Unit(':'), COLON),
	lex.Rule(lex.Unit(';'), SEMICOLON),
	lex.Rule(lex.Unit('='), EQUALS),
	lex.Rule(lex.String("=="), EQUALS_EQUALS),
	lex.Rule(lex.String("!="), NOT_EQUALS),
	lex.Rule(lex.Unit('<'), LESS_THAN),
	lex.Rule(lex.String("<="), LESS_THAN_EQUALS),
	lex.Rule(lex.Unit('>'), GREATER_THAN),
	lex.Rule(lex.String(">="), GREATER_THAN_EQUALS),
	lex.Rule(lex.Unit('+'), ADD),
	lex.Rule(lex.Unit('-'), SUB),
	lex.Rule(lex.Unit('*'), MUL),
	lex.Rule(lex.Unit('/'), DIV),
	lex.Rule(lex.Unit('%'), REM),
	lex.Rule(lex.String("|+|"), SAT_ADD),
	lex.Rule(lex.String("|-|"), SAT_SUB),
	lex.Rule(lex.Unit('&'), BITWISE_AND),
	lex.Rule(lex.Unit('|'), BITWISE_OR),
	lex.Rule(lex.Unit('^'), BITWISE_XOR),
	lex.Rule(lex.Unit('~'), BITWISE_NOT),
	lex.Rule(lex.String("&&"), LOGICAL_AND),
	lex.Rule(lex.String("||"), LOGICAL_OR),
	lex.Rule(lex.String("^^"), LOGICAL_XOR),
	lex.Rule(lex.Unit('!'), LOGICAL_NOT),
	lex.Rule(lex.String("<<"), SHIFT_LEFT),
	lex.Rule(lex.String(">>"), SHIFT_RIGHT),
	lex.Rule(lex.String("&&&"), MASK),
	lex.Rule(lex.String(".."), DOTDOT),
	lex.Rule(lex.Unit('_'), UNDERSCORE),
	lex.Rule(whitespace, WHITESPACE),
	lex.Rule(number, NUMBER),
	lex.Rule(lex.String("field"), KEYWORD_FIELD),
	lex.Rule(lex.String("header"), KEYWORD_HEADER),
	lex.Rule(lex.String("param"), KEYWORD_PARAM),
	lex.Rule(lex.String("gateway"), KEYWORD_GATEWAY),
	lex.Rule(lex.String("table"), KEYWORD_TABLE),
	lex.Rule(lex.String("register"), KEYWORD_REGISTER),
	lex.Rule(lex.String("mathunit"), KEYWORD_MATHUNIT),
	lex.Rule(lex.String("default"), KEYWORD_DEFAULT),
	lex.Rule(lex.String("if"), KEYWORD_IF),
	lex.Rule(lex.String("else"), KEYWORD_ELSE),
	lex.Rule(lex.String("true"), KEYWORD_TRUE),
	lex.Rule(lex.String("false"), KEYWORD_FALSE),
	lex.Rule(identifier, IDENTIFIER),
	lex.Rule(lex.Eof[rune](), END_OF),
}

// Lex a given source file into a sequence of zero or more tokens, along with
// any syntax errors arising.  Whitespace and comments are removed.
func Lex(srcfile *source.File) ([]lex.Token, []source.SyntaxError) {
	var (
		lexer = lex.NewLexer(srcfile.Contents(), rules...)
		// Lex as many tokens as possible
		tokens = lexer.Collect()
	)
	// Check whether anything was left (if so this is an error)
	if lexer.Remaining() != 0 {
		start, end := lexer.Index(), lexer.Index()+lexer.Remaining()
		err := srcfile.SyntaxError(source.NewSpan(int(start), int(end)), "unknown text encountered")
		// errors
		return nil, []source.SyntaxError{*err}
	}
	//
	filtered := tokens[:0]
	//
	for _, t := range tokens {
		if t.Kind != WHITESPACE && t.Kind != COMMENT {
			filtered = append(filtered, t)
		}
	}
	//
	return filtered, nil
}
