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
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/util/source"
	"github.com/consensys/go-mau/pkg/util/source/lex"
)

// Parse accepts a given source file and parses it into a program, or some
// number of syntax errors.
func Parse(srcfile *source.File) (*Program, []source.SyntaxError) {
	parser := NewParser(srcfile)
	// Parse declarations
	return parser.Parse()
}

// ParseExpr parses a single expression over a given set of fields.  This is
// useful for testing, and for tools which accept conditions on the command
// line.
func ParseExpr(text string, fields ...*ir.Field) (ir.Expr, []source.SyntaxError) {
	var (
		srcfile = source.NewSourceFile("<expr>", []byte(text))
		parser  = NewParser(srcfile)
		errs    []source.SyntaxError
		expr    ir.Expr
	)
	//
	if parser.tokens, errs = Lex(srcfile); len(errs) > 0 {
		return nil, errs
	}
	//
	for _, f := range fields {
		parser.fields[f.Name] = f
	}
	//
	parser.permissive = true
	//
	if expr, errs = parser.parseExpr(0); len(errs) > 0 {
		return nil, errs
	} else if _, errs = parser.expect(END_OF); len(errs) > 0 {
		return nil, errs
	}
	//
	return expr, nil
}

// Parser is a parser for the textual program format.
type Parser struct {
	srcfile *source.File
	tokens  []lex.Token
	// Position within the tokens
	index int
	// Global declarations
	fields  map[string]*ir.Field
	headers map[string]bool
	params  map[string]*ir.Param
	units   map[string]bool
	// Names in scope within the current action body (if any).
	locals map[string]*ir.Field
	// Permissive parsers declare unknown headers on demand.
	permissive bool
}

// NewParser constructs a new parser for a given source file.
func NewParser(srcfile *source.File) *Parser {
	return &Parser{
		srcfile: srcfile,
		fields:  make(map[string]*ir.Field),
		headers: make(map[string]bool),
		params:  make(map[string]*ir.Param),
		units:   make(map[string]bool),
	}
}

// Parse the given source file into a program and/or some number of syntax
// errors.
func (p *Parser) Parse() (*Program, []source.SyntaxError) {
	var (
		prog = &Program{Source: p.srcfile}
		errs []source.SyntaxError
	)
	// Convert source file into tokens
	if p.tokens, errs = Lex(p.srcfile); len(errs) > 0 {
		return nil, errs
	}
	// Continue going until all consumed
	for p.lookahead().Kind != END_OF {
		lookahead := p.lookahead()
		// Determine type of declaration
		switch lookahead.Kind {
		case KEYWORD_FIELD:
			errs = p.parseField(prog)
		case KEYWORD_HEADER:
			errs = p.parseHeader(prog)
		case KEYWORD_PARAM:
			errs = p.parseParam(prog)
		case KEYWORD_GATEWAY:
			errs = p.parseGateway(prog)
		case KEYWORD_TABLE:
			errs = p.parseTable(prog)
		case KEYWORD_REGISTER:
			errs = p.parseRegister(prog)
		case KEYWORD_MATHUNIT:
			errs = p.parseMathUnit(prog)
		case IDENTIFIER:
			errs = p.parseAction(prog)
		default:
			errs = p.syntaxErrors(lookahead, "unknown declaration")
		}
		//
		if len(errs) > 0 {
			return nil, errs
		}
	}
	//
	return prog, nil
}

// ============================================================================
// Declarations
// ============================================================================

func (p *Parser) parseField(prog *Program) []source.SyntaxError {
	p.match(KEYWORD_FIELD)
	//
	lookahead := p.lookahead()
	//
	name, errs := p.parseIdentifier()
	if len(errs) > 0 {
		return errs
	} else if errs = p.declare(lookahead, name); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(COLON); len(errs) > 0 {
		return errs
	}
	//
	width, signed, errs := p.parseType()
	if len(errs) > 0 {
		return errs
	}
	//
	field := &ir.Field{Name: name, Width: width, Signed: signed}
	p.fields[name] = field
	prog.Fields = append(prog.Fields, field)
	//
	_, errs = p.expect(SEMICOLON)
	//
	return errs
}

func (p *Parser) parseHeader(prog *Program) []source.SyntaxError {
	p.match(KEYWORD_HEADER)
	//
	lookahead := p.lookahead()
	//
	name, errs := p.parseIdentifier()
	if len(errs) > 0 {
		return errs
	} else if errs = p.declare(lookahead, name); len(errs) > 0 {
		return errs
	}
	//
	p.headers[name] = true
	prog.Headers = append(prog.Headers, name)
	//
	_, errs = p.expect(SEMICOLON)
	//
	return errs
}

func (p *Parser) parseParam(prog *Program) []source.SyntaxError {
	p.match(KEYWORD_PARAM)
	//
	lookahead := p.lookahead()
	//
	name, errs := p.parseIdentifier()
	if len(errs) > 0 {
		return errs
	} else if errs = p.declare(lookahead, name); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(COLON); len(errs) > 0 {
		return errs
	}
	//
	width, _, errs := p.parseType()
	if len(errs) > 0 {
		return errs
	}
	//
	param := &ir.Param{Name: name, Width: width}
	p.params[name] = param
	prog.Params = append(prog.Params, param)
	//
	_, errs = p.expect(SEMICOLON)
	//
	return errs
}

func (p *Parser) parseGateway(prog *Program) []source.SyntaxError {
	var (
		start   = p.index
		gateway Gateway
		errs    []source.SyntaxError
	)
	//
	p.match(KEYWORD_GATEWAY)
	//
	if gateway.Name, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(LCURLY); len(errs) > 0 {
		return errs
	}
	// Parse rows until the default
	for !p.match(KEYWORD_DEFAULT) {
		var (
			row   Row
			first = p.index
		)
		//
		if row.Cond, errs = p.parseCondition(); len(errs) > 0 {
			return errs
		} else if _, errs = p.expect(COLON); len(errs) > 0 {
			return errs
		} else if row.Next, errs = p.parseIdentifier(); len(errs) > 0 {
			return errs
		}
		//
		row.Span = p.spanOf(first, p.index-1)
		gateway.Rows = append(gateway.Rows, row)
		//
		if _, errs = p.expect(SEMICOLON); len(errs) > 0 {
			return errs
		}
	}
	//
	if gateway.Default, errs = p.parseDefault(); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(RCURLY); len(errs) > 0 {
		return errs
	}
	//
	gateway.Span = p.spanOf(start, p.index-1)
	prog.Gateways = append(prog.Gateways, &gateway)
	//
	return nil
}

// Parse ": label ;" following a "default" keyword.
func (p *Parser) parseDefault() (string, []source.SyntaxError) {
	if _, errs := p.expect(COLON); len(errs) > 0 {
		return "", errs
	}
	//
	label, errs := p.parseIdentifier()
	if len(errs) > 0 {
		return "", errs
	}
	//
	_, errs = p.expect(SEMICOLON)
	//
	return label, errs
}

func (p *Parser) parseTable(prog *Program) []source.SyntaxError {
	var (
		start = p.index
		table Table
		errs  []source.SyntaxError
	)
	//
	p.match(KEYWORD_TABLE)
	//
	if table.Name, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(LCURLY); len(errs) > 0 {
		return errs
	} else if table.Keys, errs = p.parseKeys(); len(errs) > 0 {
		return errs
	} else if table.Entries, errs = p.parseEntries(len(table.Keys)); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(KEYWORD_DEFAULT); len(errs) > 0 {
		return errs
	} else if table.Default, errs = p.parseDefault(); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(RCURLY); len(errs) > 0 {
		return errs
	}
	//
	table.Span = p.spanOf(start, p.index-1)
	prog.Tables = append(prog.Tables, &table)
	//
	return nil
}

func (p *Parser) parseKeys() ([]Key, []source.SyntaxError) {
	var keys []Key
	//
	if errs := p.parseKeyword("key"); len(errs) > 0 {
		return nil, errs
	} else if _, errs = p.expect(EQUALS); len(errs) > 0 {
		return nil, errs
	} else if _, errs = p.expect(LCURLY); len(errs) > 0 {
		return nil, errs
	}
	//
	for !p.match(RCURLY) {
		var (
			key  Key
			errs []source.SyntaxError
		)
		//
		if key.Expr, errs = p.parseExpr(0); len(errs) > 0 {
			return nil, errs
		} else if _, errs = p.expect(COLON); len(errs) > 0 {
			return nil, errs
		}
		//
		lookahead := p.lookahead()
		//
		if key.Kind, errs = p.parseIdentifier(); len(errs) > 0 {
			return nil, errs
		}
		//
		switch key.Kind {
		case "exact", "ternary", "lpm", "range":
		default:
			return nil, p.syntaxErrors(lookahead, "unknown match kind")
		}
		//
		keys = append(keys, key)
		//
		if _, errs = p.expect(SEMICOLON); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	return keys, nil
}

func (p *Parser) parseEntries(nkeys int) ([]Entry, []source.SyntaxError) {
	var entries []Entry
	//
	if errs := p.parseKeyword("entries"); len(errs) > 0 {
		return nil, errs
	} else if _, errs = p.expect(EQUALS); len(errs) > 0 {
		return nil, errs
	} else if _, errs = p.expect(LCURLY); len(errs) > 0 {
		return nil, errs
	}
	//
	for !p.match(RCURLY) {
		var (
			entry Entry
			first = p.index
			errs  []source.SyntaxError
		)
		//
		if _, errs = p.expect(LBRACE); len(errs) > 0 {
			return nil, errs
		}
		//
		for len(entry.Patterns) == 0 || p.match(COMMA) {
			var pattern Pattern
			//
			if pattern, errs = p.parsePattern(); len(errs) > 0 {
				return nil, errs
			}
			//
			entry.Patterns = append(entry.Patterns, pattern)
		}
		//
		if _, errs = p.expect(RBRACE); len(errs) > 0 {
			return nil, errs
		} else if len(entry.Patterns) != nkeys {
			return nil, p.syntaxErrors(p.tokens[first], "incorrect number of patterns")
		} else if _, errs = p.expect(COLON); len(errs) > 0 {
			return nil, errs
		} else if entry.Next, errs = p.parseIdentifier(); len(errs) > 0 {
			return nil, errs
		}
		//
		entry.Span = p.spanOf(first, p.index-1)
		entries = append(entries, entry)
		//
		if _, errs = p.expect(SEMICOLON); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	return entries, nil
}

func (p *Parser) parsePattern() (Pattern, []source.SyntaxError) {
	var pattern Pattern
	//
	if p.match(UNDERSCORE) {
		return pattern, nil
	}
	//
	tok, errs := p.expect(NUMBER)
	if len(errs) > 0 {
		return pattern, errs
	}
	//
	pattern.Kind = Exact
	pattern.Value = p.number(tok).Value
	//
	switch {
	case p.match(MASK):
		pattern.Kind = Masked
	case p.match(DOTDOT):
		pattern.Kind = Interval
	default:
		return pattern, nil
	}
	//
	if tok, errs = p.expect(NUMBER); len(errs) > 0 {
		return pattern, errs
	}
	//
	pattern.Arg = p.number(tok).Value
	//
	return pattern, nil
}

func (p *Parser) parseRegister(prog *Program) []source.SyntaxError {
	var (
		start = p.index
		reg   Register
		errs  []source.SyntaxError
	)
	//
	p.match(KEYWORD_REGISTER)
	//
	lookahead := p.lookahead()
	//
	if reg.Name, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	} else if errs = p.declare(lookahead, reg.Name); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(COLON); len(errs) > 0 {
		return errs
	}
	// Check for a dual register.
	if p.follows(IDENTIFIER, LESS_THAN) && p.string(p.lookahead()) == "pair" {
		p.index += 2
		reg.Dual = true
		//
		if reg.Width, reg.Signed, errs = p.parseWidth(true); len(errs) > 0 {
			return errs
		}
	} else if reg.Width, reg.Signed, errs = p.parseType(); len(errs) > 0 {
		return errs
	}
	//
	reg.Span = p.spanOf(start, p.index-1)
	prog.Registers = append(prog.Registers, &reg)
	//
	_, errs = p.expect(SEMICOLON)
	//
	return errs
}

func (p *Parser) parseMathUnit(prog *Program) []source.SyntaxError {
	var (
		start = p.index
		unit  MathUnit
		errs  []source.SyntaxError
	)
	//
	p.match(KEYWORD_MATHUNIT)
	//
	lookahead := p.lookahead()
	//
	if unit.Name, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	} else if errs = p.declare(lookahead, unit.Name); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(COLON); len(errs) > 0 {
		return errs
	} else if unit.Op, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	}
	//
	unit.Span = p.spanOf(start, p.index-1)
	p.units[unit.Name] = true
	prog.MathUnits = append(prog.MathUnits, &unit)
	//
	_, errs = p.expect(SEMICOLON)
	//
	return errs
}

func (p *Parser) parseAction(prog *Program) []source.SyntaxError {
	var (
		start  = p.index
		action Action
		errs   []source.SyntaxError
	)
	//
	if action.Extern, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	} else if action.Name, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	} else if _, errs = p.expect(LBRACE); len(errs) > 0 {
		return errs
	}
	//
	lookahead := p.lookahead()
	//
	if action.Register, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	}
	//
	reg := prog.Lookup(action.Register)
	//
	if reg == nil {
		return p.syntaxErrors(lookahead, "unknown register")
	} else if _, errs = p.expect(RBRACE); len(errs) > 0 {
		return errs
	} else if action.Method, errs = p.parseIdentifier(); len(errs) > 0 {
		return errs
	} else if action.Params, errs = p.parseActionParams(reg); len(errs) > 0 {
		return errs
	}
	//
	action.Body, errs = p.parseBlock()
	p.locals = nil
	//
	if len(errs) > 0 {
		return errs
	}
	//
	action.Span = p.spanOf(start, p.index-1)
	prog.Actions = append(prog.Actions, &action)
	//
	return nil
}

// Parse the parameter list of an action, where each parameter has an optional
// type defaulting to that of the register.  The first parameter of an action
// on a dual register exposes both halves.
func (p *Parser) parseActionParams(reg *Register) ([]*ir.Field, []source.SyntaxError) {
	var params []*ir.Field
	//
	p.locals = make(map[string]*ir.Field)
	//
	if _, errs := p.expect(LBRACE); len(errs) > 0 {
		return nil, errs
	}
	//
	for !p.match(RBRACE) {
		var (
			width  = reg.Width
			signed = reg.Signed
			errs   []source.SyntaxError
		)
		//
		if len(params) != 0 {
			if _, errs = p.expect(COMMA); len(errs) > 0 {
				return nil, errs
			}
		}
		// Optional type
		if p.follows(IDENTIFIER, LESS_THAN) {
			if width, signed, errs = p.parseType(); len(errs) > 0 {
				return nil, errs
			}
		}
		//
		name, errs := p.parseIdentifier()
		if len(errs) > 0 {
			return nil, errs
		}
		//
		param := &ir.Field{Name: name, Width: width, Signed: signed}
		params = append(params, param)
		//
		if len(params) == 1 && reg.Dual {
			p.locals[name+".lo"] = &ir.Field{Name: name + ".lo", Width: width, Signed: signed}
			p.locals[name+".hi"] = &ir.Field{Name: name + ".hi", Width: width, Signed: signed}
		} else {
			p.locals[name] = param
		}
	}
	//
	return params, nil
}

// ============================================================================
// Statements
// ============================================================================

func (p *Parser) parseBlock() ([]ir.Stmt, []source.SyntaxError) {
	var stmts []ir.Stmt
	//
	if _, errs := p.expect(LCURLY); len(errs) > 0 {
		return nil, errs
	}
	//
	for !p.match(RCURLY) {
		stmt, errs := p.parseStmt()
		if len(errs) > 0 {
			return nil, errs
		}
		//
		stmts = append(stmts, stmt)
	}
	//
	return stmts, nil
}

func (p *Parser) parseStmt() (ir.Stmt, []source.SyntaxError) {
	switch p.lookahead().Kind {
	case KEYWORD_IF:
		return p.parseIf()
	case IDENTIFIER:
		return p.parseAssign()
	}
	//
	return nil, p.syntaxErrors(p.lookahead(), "expected statement")
}

// Parse a branch of a conditional, which is either a block or a single
// statement.
func (p *Parser) parseBranch() ([]ir.Stmt, []source.SyntaxError) {
	if p.lookahead().Kind == LCURLY {
		return p.parseBlock()
	}
	//
	stmt, errs := p.parseStmt()
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return []ir.Stmt{stmt}, nil
}

func (p *Parser) parseIf() (ir.Stmt, []source.SyntaxError) {
	var (
		start     = p.index
		cond      ir.Expr
		then, els []ir.Stmt
		errs      []source.SyntaxError
	)
	//
	p.match(KEYWORD_IF)
	//
	if _, errs = p.expect(LBRACE); len(errs) > 0 {
		return nil, errs
	} else if cond, errs = p.parseCondition(); len(errs) > 0 {
		return nil, errs
	} else if _, errs = p.expect(RBRACE); len(errs) > 0 {
		return nil, errs
	} else if then, errs = p.parseBranch(); len(errs) > 0 {
		return nil, errs
	}
	//
	if p.match(KEYWORD_ELSE) {
		if els, errs = p.parseBranch(); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	return ir.NewIf(cond, then, els, p.spanOf(start, p.index-1)), nil
}

func (p *Parser) parseAssign() (ir.Stmt, []source.SyntaxError) {
	var (
		start    = p.index
		lhs, rhs ir.Expr
		errs     []source.SyntaxError
	)
	//
	if lhs, errs = p.parsePostfix(); len(errs) > 0 {
		return nil, errs
	} else if _, ok := lhs.(*ir.Field); !ok {
		if _, ok := lhs.(*ir.Slice); !ok {
			return nil, p.syntaxErrors(p.tokens[start], "invalid assignment target")
		}
	}
	//
	if _, errs = p.expect(EQUALS); len(errs) > 0 {
		return nil, errs
	} else if rhs, errs = p.parseExpr(0); len(errs) > 0 {
		return nil, errs
	} else if _, errs = p.expect(SEMICOLON); len(errs) > 0 {
		return nil, errs
	}
	//
	return ir.NewAssign(lhs, rhs, p.spanOf(start, p.index-1)), nil
}

// ============================================================================
// Expressions
// ============================================================================

func (p *Parser) parseCondition() (ir.Expr, []source.SyntaxError) {
	start := p.lookahead()
	//
	cond, errs := p.parseExpr(0)
	if len(errs) > 0 {
		return nil, errs
	} else if !ir.IsBoolean(cond) {
		return nil, p.syntaxErrors(start, "expected boolean condition")
	}
	//
	return cond, nil
}

// Parse an expression using precedence climbing, where only operators binding
// at least as tightly as the given precedence are consumed.
func (p *Parser) parseExpr(prec int) (ir.Expr, []source.SyntaxError) {
	lhs, errs := p.parseUnary()
	//
	for len(errs) == 0 {
		op, ok := binaryOps[p.lookahead().Kind]
		//
		if !ok || op.Precedence() < prec {
			break
		}
		//
		var rhs ir.Expr
		//
		p.index++
		//
		if rhs, errs = p.parseExpr(op.Precedence() + 1); len(errs) == 0 {
			lhs = ir.NewBinary(op, lhs, rhs)
		}
	}
	//
	return lhs, errs
}

var binaryOps = map[uint]ir.BinaryOp{
	LOGICAL_OR:          ir.LOr,
	LOGICAL_XOR:         ir.LXor,
	LOGICAL_AND:         ir.LAnd,
	BITWISE_OR:          ir.BOr,
	BITWISE_XOR:         ir.BXor,
	BITWISE_AND:         ir.BAnd,
	EQUALS_EQUALS:       ir.Eq,
	NOT_EQUALS:          ir.Neq,
	LESS_THAN:           ir.Lt,
	LESS_THAN_EQUALS:    ir.Le,
	GREATER_THAN:        ir.Gt,
	GREATER_THAN_EQUALS: ir.Ge,
	SHIFT_LEFT:          ir.Shl,
	SHIFT_RIGHT:         ir.Shr,
	ADD:                 ir.Add,
	SUB:                 ir.Sub,
	SAT_ADD:             ir.SatAdd,
	SAT_SUB:             ir.SatSub,
	MUL:                 ir.Mul,
	DIV:                 ir.Div,
	REM:                 ir.Mod,
}

func (p *Parser) parseUnary() (ir.Expr, []source.SyntaxError) {
	var op ir.UnaryOp
	//
	switch {
	case p.match(LOGICAL_NOT):
		op = ir.LNot
	case p.match(BITWISE_NOT):
		op = ir.BNot
	case p.follows(SUB, NUMBER):
		// Negative literal
		p.index++
		c := p.number(p.lookahead())
		p.index++
		c.Value.Neg(&c.Value)
		c.Signed = true
		//
		return c, nil
	case p.match(SUB):
		op = ir.Neg
	default:
		return p.parsePostfix()
	}
	//
	arg, errs := p.parseUnary()
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return &ir.Unary{Op: op, Expr: arg}, nil
}

func (p *Parser) parsePostfix() (ir.Expr, []source.SyntaxError) {
	expr, errs := p.parsePrimary()
	//
	for len(errs) == 0 && p.lookahead().Kind == LSQUARE {
		expr, errs = p.parseSlice(expr)
	}
	//
	return expr, errs
}

func (p *Parser) parseSlice(expr ir.Expr) (ir.Expr, []source.SyntaxError) {
	var (
		start  = p.lookahead()
		hi, lo uint
		errs   []source.SyntaxError
	)
	//
	p.match(LSQUARE)
	//
	if hi, errs = p.parseUint(); len(errs) > 0 {
		return nil, errs
	}
	//
	lo = hi
	//
	if p.match(COLON) {
		if lo, errs = p.parseUint(); len(errs) > 0 {
			return nil, errs
		}
	}
	//
	if _, errs = p.expect(RSQUARE); len(errs) > 0 {
		return nil, errs
	} else if hi < lo || hi >= ir.Width(expr) {
		return nil, p.syntaxErrors(start, "invalid slice")
	}
	//
	return ir.NewSlice(expr, hi, lo), nil
}

func (p *Parser) parsePrimary() (ir.Expr, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	switch lookahead.Kind {
	case NUMBER:
		p.index++
		return p.number(lookahead), nil
	case KEYWORD_TRUE:
		p.index++
		return ir.True, nil
	case KEYWORD_FALSE:
		p.index++
		return ir.False, nil
	case LBRACE:
		p.index++
		//
		expr, errs := p.parseExpr(0)
		if len(errs) > 0 {
			return nil, errs
		}
		//
		_, errs = p.expect(RBRACE)
		//
		return expr, errs
	case IDENTIFIER:
		if p.follows(IDENTIFIER, LBRACE) {
			return p.parseCall()
		}
		//
		return p.parseVariable()
	}
	//
	return nil, p.syntaxErrors(lookahead, "expected expression")
}

func (p *Parser) parseVariable() (ir.Expr, []source.SyntaxError) {
	lookahead := p.lookahead()
	name := p.string(lookahead)
	p.index++
	//
	if f, ok := p.locals[name]; ok {
		return f, nil
	} else if f, ok := p.fields[name]; ok {
		return f, nil
	} else if c, ok := p.params[name]; ok {
		return c, nil
	}
	//
	return nil, p.syntaxErrors(lookahead, "unknown variable")
}

func (p *Parser) parseCall() (ir.Expr, []source.SyntaxError) {
	var (
		lookahead = p.lookahead()
		name      = p.string(lookahead)
		args      []ir.Expr
	)
	//
	p.index += 2
	//
	for !p.match(RBRACE) {
		if len(args) != 0 {
			if _, errs := p.expect(COMMA); len(errs) > 0 {
				return nil, errs
			}
		}
		//
		arg, errs := p.parseExpr(0)
		if len(errs) > 0 {
			return nil, errs
		}
		//
		args = append(args, arg)
	}
	//
	switch {
	case strings.HasSuffix(name, ".isValid") && len(args) == 0:
		header := strings.TrimSuffix(name, ".isValid")
		//
		if !p.headers[header] && !p.permissive {
			return nil, p.syntaxErrors(lookahead, "unknown header")
		}
		//
		return &ir.Valid{Header: header}, nil
	case strings.HasSuffix(name, "."+ir.FnExecute) && len(args) == 1:
		unit := strings.TrimSuffix(name, "."+ir.FnExecute)
		//
		if !p.units[unit] {
			return nil, p.syntaxErrors(lookahead, "unknown math unit")
		}
		//
		return &ir.Call{Func: ir.FnExecute, Args: []ir.Expr{&ir.Field{Name: unit}, args[0]},
			Width: ir.Width(args[0])}, nil
	case (name == ir.FnMin || name == ir.FnMax) && len(args) == 2:
		return &ir.Call{Func: name, Args: args}, nil
	case ir.IsMinMaxVector(name) && len(args) >= 1 && len(args) <= 2:
		return &ir.Call{Func: name, Args: args}, nil
	}
	//
	return nil, p.syntaxErrors(lookahead, "unknown function")
}

// ============================================================================
// Helpers
// ============================================================================

// Parse a type, such as "bit<8>" or "int<16>".
func (p *Parser) parseType() (uint, bool, []source.SyntaxError) {
	return p.parseWidth(false)
}

// Parse a type whose closing angle bracket may be fused with that of an
// enclosing type (i.e. "pair<bit<16>>").
func (p *Parser) parseWidth(nested bool) (uint, bool, []source.SyntaxError) {
	var (
		lookahead = p.lookahead()
		signed    bool
	)
	//
	name, errs := p.parseIdentifier()
	if len(errs) > 0 {
		return 0, false, errs
	}
	//
	switch name {
	case "bit":
	case "int":
		signed = true
	default:
		return 0, false, p.syntaxErrors(lookahead, "unknown type")
	}
	//
	if _, errs = p.expect(LESS_THAN); len(errs) > 0 {
		return 0, false, errs
	}
	//
	width, errs := p.parseUint()
	//
	if len(errs) > 0 {
		return 0, false, errs
	} else if width == 0 {
		return 0, false, p.syntaxErrors(lookahead, "invalid width")
	} else if nested && p.match(SHIFT_RIGHT) {
		return width, signed, nil
	} else if _, errs = p.expect(GREATER_THAN); len(errs) > 0 {
		return 0, false, errs
	} else if nested {
		_, errs = p.expect(GREATER_THAN)
	}
	//
	return width, signed, errs
}

func (p *Parser) parseUint() (uint, []source.SyntaxError) {
	tok, errs := p.expect(NUMBER)
	if len(errs) > 0 {
		return 0, errs
	}
	//
	n, err := strconv.ParseUint(p.string(tok), 0, 32)
	if err != nil {
		return 0, p.syntaxErrors(tok, "invalid number")
	}
	//
	return uint(n), nil
}

func (p *Parser) parseKeyword(keyword string) []source.SyntaxError {
	tok, errs := p.expect(IDENTIFIER)
	//
	if len(errs) > 0 {
		return errs
	} else if p.string(tok) != keyword {
		return p.syntaxErrors(tok, fmt.Sprintf("expected \"%s\"", keyword))
	}
	//
	return nil
}

func (p *Parser) parseIdentifier() (string, []source.SyntaxError) {
	tok, errs := p.expect(IDENTIFIER)
	//
	if len(errs) > 0 {
		return "", errs
	}
	//
	return p.string(tok), nil
}

// Check a global name has not already been declared.
func (p *Parser) declare(token lex.Token, name string) []source.SyntaxError {
	_, f := p.fields[name]
	_, c := p.params[name]
	//
	if f || c || p.headers[name] || p.units[name] {
		return p.syntaxErrors(token, "duplicate declaration")
	}
	//
	return nil
}

// Get the text representing the given token as a string.
func (p *Parser) string(token lex.Token) string {
	return p.srcfile.Text(token.Span)
}

// Get the constant represented by a given number token.  Sized literals
// (e.g. 8w5) produce constants of that width, whilst others are unsized.
func (p *Parser) number(token lex.Token) *ir.Constant {
	var (
		text   = p.string(token)
		width  uint64
		signed bool
		value  big.Int
	)
	//
	if i := strings.IndexAny(text, "ws"); i > 0 && !strings.HasPrefix(text, "0x") {
		width, _ = strconv.ParseUint(text[:i], 10, 32)
		signed = text[i] == 's'
		text = text[i+1:]
	}
	//
	value.SetString(text, 0)
	//
	return ir.BigConst(&value, uint(width), signed)
}

// Lookahead returns the next token.  This must exist because EOF is always
// appended at the end of the token stream.
func (p *Parser) lookahead() lex.Token {
	return p.tokens[p.index]
}

// Expect returns an error if the next token is not what was expected.
func (p *Parser) expect(kind uint) (lex.Token, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	if lookahead.Kind != kind {
		errs := p.syntaxErrors(lookahead, "unexpected token")
		return lookahead, errs
	}
	//
	p.index++
	//
	return lookahead, nil
}

// Match attempts to match the given token.
func (p *Parser) match(kind uint) bool {
	if p.lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

// Follows attempts to check what follows the current position.
func (p *Parser) follows(kinds ...uint) bool {
	for i, kind := range kinds {
		n := i + p.index
		if n >= len(p.tokens) {
			return false
		} else if p.tokens[n].Kind != kind {
			return false
		}
	}
	//
	return true
}

func (p *Parser) spanOf(firstToken, lastToken int) source.Span {
	start := p.tokens[firstToken].Span.Start()
	end := p.tokens[lastToken].Span.End()
	//
	return source.NewSpan(start, end)
}

func (p *Parser) syntaxErrors(token lex.Token, msg string) []source.SyntaxError {
	return []source.SyntaxError{*p.srcfile.SyntaxError(token.Span, msg)}
}
