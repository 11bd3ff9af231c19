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
package salu

import (
	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/util/source"
	"github.com/oleiade/lane"
)

// etype identifies what the expression being synthesised is used for.
type etype uint8

const (
	modeNone etype = iota
	// condition of an if statement
	modeIf
	// operand of an ALU operation
	modeValue
	// source of an output parameter
	modeOutput
	// source of a vector min/max
	modeMinMaxSrc
	// index written by a vector min/max
	modeMinMaxIdx
)

func (m etype) String() string {
	switch m {
	case modeIf:
		return "condition"
	case modeValue:
		return "ALU operation"
	case modeOutput:
		return "output"
	case modeMinMaxSrc, modeMinMaxIdx:
		return "min/max operation"
	default:
		return "statement"
	}
}

// binding of a method parameter
type binding struct {
	dir   Direction
	word  uint
	width uint
}

// slot is an entry on the operand stack used when classifying computations.
type slot struct {
	Operand
	complement bool
}

// computation is a single ALU operation prior to allocation.
type computation struct {
	op       Opcode
	signed   bool
	operands []Operand
}

// Comparison operators and the corresponding comparator operations.
var cmpOps = map[ir.BinaryOp]Opcode{
	ir.Eq: OpEqu, ir.Neq: OpNeq, ir.Lt: OpLss, ir.Le: OpLeq, ir.Gt: OpGrt, ir.Ge: OpGeq,
}

// Binary operators and the corresponding ALU operations.
var aluOps = map[ir.BinaryOp]Opcode{
	ir.Add: OpAdd, ir.Sub: OpSub, ir.BAnd: OpAnd, ir.BOr: OpOr, ir.BXor: OpXor, ir.SatAdd: OpSaddU,
	ir.SatSub: OpSsubU, ir.Div: OpDiv, ir.Mod: OpMod,
}

// synth translates the body of a single register action into an instruction.
type synth struct {
	builder *Builder
	spec    *device.SaluSpec
	reg     Register
	action  Action
	// number of comparators
	n      uint
	params map[string]binding
	mode   etype
	// span of the statement being translated
	span    source.Span
	cmps    []Instruction
	alus    []Instruction
	outputs []Instruction
	minmax  *Instruction
	// register words written so far
	written [2]bool
	diags   []diag.Diagnostic
}

func newSynth(builder *Builder, action Action) *synth {
	return &synth{
		builder: builder,
		spec:    builder.spec,
		reg:     builder.unit.Register,
		action:  action,
		n:       builder.spec.Comparators(),
		params:  make(map[string]binding),
		span:    action.Span,
	}
}

func (p *synth) run() (*Code, []diag.Diagnostic) {
	if !p.bind() {
		return nil, p.diags
	}
	//
	if p.reg.Width == 1 && !p.reg.Dual {
		p.oneBit()
	} else {
		p.stmts(p.action.Body, Always(p.n))
	}
	//
	p.span = p.action.Span
	//
	if !diag.HasErrors(p.diags) {
		p.split()
	}
	//
	if !diag.HasErrors(p.diags) {
		p.allocate()
		p.assignOutputs()
	}
	//
	if diag.HasErrors(p.diags) {
		return nil, p.diags
	}
	//
	code := &Code{Name: p.action.Name}
	code.Instructions = append(code.Instructions, p.cmps...)
	code.Instructions = append(code.Instructions, p.alus...)
	//
	if p.minmax != nil {
		code.Instructions = append(code.Instructions, *p.minmax)
	}
	//
	code.Instructions = append(code.Instructions, p.outputs...)
	//
	return code, p.diags
}

func (p *synth) fail(cat diag.Category, format string, args ...any) bool {
	p.diags = append(p.diags, diag.Errorf(cat, format, args...).At(p.span))
	return false
}

// bind the parameters of the action to their roles.
func (p *synth) bind() bool {
	dirs, ok := Directions(p.action.Extern, p.action.Method)
	//
	if !ok {
		return p.fail(diag.NotFound, "unknown method %s.%s", p.action.Extern, p.action.Method)
	} else if len(p.action.Params) > len(dirs) {
		return p.fail(diag.Invalid, "method %s.%s has at most %d parameters", p.action.Extern, p.action.Method,
			len(dirs))
	}
	//
	for i, param := range p.action.Params {
		if dirs[i] == DirValue && p.reg.Dual {
			p.params[param.Name+".lo"] = binding{DirValue, 0, p.reg.Width}
			p.params[param.Name+".hi"] = binding{DirValue, 1, p.reg.Width}
		} else {
			p.params[param.Name] = binding{dirs[i], 0, param.Width}
		}
	}
	//
	return true
}

// dest returns the name of a given register word.
func (p *synth) dest(word uint) string {
	if !p.reg.Dual {
		return p.reg.Name
	} else if word == 0 {
		return p.reg.Name + ".lo"
	}
	//
	return p.reg.Name + ".hi"
}

func (p *synth) stmts(stmts []ir.Stmt, pred Predicate) {
	for _, s := range stmts {
		p.span = s.Span()
		//
		switch s := s.(type) {
		case *ir.Assign:
			p.assign(s, pred)
		case *ir.If:
			if q, ok := p.condition(s.Cond); ok {
				p.stmts(s.Then, pred.And(q))
				p.stmts(s.Else, pred.And(q.Not(p.n)))
			}
		default:
			diag.Bug("unknown statement %s", s)
		}
	}
}

func (p *synth) assign(s *ir.Assign, pred Predicate) {
	f, ok := s.Lhs.(*ir.Field)
	//
	if !ok {
		p.fail(diag.Unsupported, "assignment to %s not supported", s.Lhs)
		return
	}
	//
	b, ok := p.params[f.Name]
	//
	if !ok || (b.dir != DirValue && b.dir != DirOutput) {
		p.fail(diag.Invalid, "cannot assign to %s", f.Name)
		return
	} else if pred.IsNever() {
		return
	}
	//
	if b.dir == DirValue {
		p.update(b.word, s.Rhs, pred)
	} else {
		p.output(f, s.Rhs, pred)
	}
}

// update a register word.
func (p *synth) update(word uint, rhs ir.Expr, pred Predicate) {
	p.mode = modeValue
	//
	comps, ok := p.computations(rhs)
	//
	if !ok {
		return
	}
	//
	var instrs []Instruction
	//
	for _, c := range comps {
		instrs = append(instrs, Instruction{
			Opcode: c.op, Signed: c.signed, Operands: c.operands, Pred: pred, Dest: p.dest(word), Word: word,
			Combine: len(comps) > 1,
		})
	}
	//
	if p.emit(&p.alus, instrs...) {
		p.written[word] = true
	}
}

// emit instructions into a given list, merging each with any instruction
// performing the same operation.  Writes to the same destination under
// overlapping predicates are rejected.
func (p *synth) emit(list *[]Instruction, instrs ...Instruction) bool {
	for _, instr := range instrs {
		for _, e := range *list {
			if e.Dest == "" || e.Dest != instr.Dest || e.SameOperation(&instr) || (e.Combine && instr.Combine) {
				continue
			} else if e.Pred.Overlaps(instr.Pred) {
				return p.fail(diag.Invalid, "conflicting writes to %s", instr.Dest)
			}
		}
	}
	//
	for _, instr := range instrs {
		merged := false
		//
		for i := range *list {
			if (*list)[i].SameOperation(&instr) {
				(*list)[i].Pred = (*list)[i].Pred.Or(instr.Pred)
				merged = true
				//
				break
			}
		}
		//
		if !merged {
			*list = append(*list, instr)
		}
	}
	//
	return true
}

// ============================================================================
// Conditions
// ============================================================================

func (p *synth) condition(e ir.Expr) (Predicate, bool) {
	var mode = p.mode
	//
	p.mode = modeIf
	defer func() { p.mode = mode }()
	//
	switch e := e.(type) {
	case *ir.Bool:
		if e.Value {
			return Always(p.n), true
		}
		//
		return 0, true
	case *ir.Unary:
		if e.Op == ir.LNot {
			q, ok := p.condition(e.Expr)
			return q.Not(p.n), ok
		}
	case *ir.Binary:
		if e.Op.IsLogical() || (ir.IsBoolean(e.Lhs) && (e.Op == ir.Eq || e.Op == ir.Neq)) {
			l, lok := p.condition(e.Lhs)
			r, rok := p.condition(e.Rhs)
			//
			switch e.Op {
			case ir.LAnd:
				return l.And(r), lok && rok
			case ir.LOr:
				return l.Or(r), lok && rok
			case ir.Eq:
				return (l ^ r).Not(p.n), lok && rok
			default:
				return l ^ r, lok && rok
			}
		} else if e.Op.IsRelational() {
			return p.compare(e)
		}
	}
	//
	return 0, p.fail(diag.Unsupported, "condition %s not supported", e)
}

// masked strips a constant mask from an operand of a comparison.
func (p *synth) masked(e ir.Expr) (ir.Expr, uint64) {
	if b, ok := e.(*ir.Binary); ok && b.Op == ir.BAnd {
		if k, ok := b.Rhs.(*ir.Constant); ok && k.Value.IsUint64() {
			return b.Lhs, k.Value.Uint64()
		} else if k, ok := b.Lhs.(*ir.Constant); ok && k.Value.IsUint64() {
			return b.Rhs, k.Value.Uint64()
		}
	}
	//
	return e, 0
}

// compare allocates (or reuses) a comparator for a given comparison, returning
// the predicate which holds when the comparison does.
func (p *synth) compare(e *ir.Binary) (Predicate, bool) {
	var (
		op         = cmpOps[e.Op]
		signed     = ir.IsSigned(e.Lhs) || ir.IsSigned(e.Rhs)
		lhs, lmask = p.masked(e.Lhs)
		rhs, rmask = p.masked(e.Rhs)
		negated    bool
		a, aok     = p.comparand(lhs)
		b, bok     = p.comparand(rhs)
	)
	//
	if !aok || !bok {
		return 0, false
	} else if !(a.IsA() && b.IsB()) && b.IsA() && a.IsB() {
		a, b, lmask, rmask, op = b, a, rmask, lmask, Swap(op)
	}
	//
	switch {
	case !a.IsA() || !b.IsB() || rmask != 0:
		return 0, p.fail(diag.Unsupported, "comparison %s not supported", e)
	case a.Width > device.AluWidth || b.Width > device.AluWidth:
		return 0, p.fail(diag.Unsupported, "comparison %s wider than %d bits", e, device.AluWidth)
	case lmask != 0 && !p.spec.CmpMask:
		return 0, p.fail(diag.UnsupportedOnTarget, "masked comparison %s not supported on this target", e)
	}
	//
	a.Mask = lmask
	// Comparators are held in positive form
	if op == OpNeq || op == OpLss || op == OpLeq {
		op, negated = Negate(op), true
	}
	//
	instr := Instruction{Opcode: op, Signed: signed, Operands: []Operand{a, b}}
	index, ok := p.comparator(instr)
	//
	if !ok {
		return 0, p.fail(diag.Overlimit, "too many comparisons, limit of %d comparators", p.n)
	} else if negated {
		return Compare(index, p.n).Not(p.n), true
	}
	//
	return Compare(index, p.n), true
}

func (p *synth) comparand(e ir.Expr) (Operand, bool) {
	if !p.isOperand(e) {
		return Operand{}, p.fail(diag.Unsupported, "condition %s too complex", e)
	}
	//
	o, ok := p.operand(e)
	//
	if ok && o.Kind == AluResult {
		return o, p.fail(diag.Unsupported, "condition cannot read updated register value")
	}
	//
	return o, ok
}

func (p *synth) comparator(instr Instruction) (uint, bool) {
	for i, c := range p.cmps {
		instr.Unit = c.Unit
		//
		if c.SameOperation(&instr) {
			return uint(i), true
		}
	}
	//
	if uint(len(p.cmps)) >= p.n {
		return 0, false
	}
	//
	instr.Unit = p.spec.CmpUnits[len(p.cmps)]
	p.cmps = append(p.cmps, instr)
	//
	return uint(len(p.cmps) - 1), true
}

// ============================================================================
// Operands
// ============================================================================

func (p *synth) isOperand(e ir.Expr) bool {
	switch e := e.(type) {
	case *ir.Field, *ir.Constant, *ir.Param:
		return true
	case *ir.Slice:
		_, _, ok := ir.Base(e)
		return ok
	case *ir.Call:
		return e.Func == ir.FnExecute
	default:
		return false
	}
}

func (p *synth) operand(e ir.Expr) (Operand, bool) {
	switch e := e.(type) {
	case *ir.Field:
		return p.field(e)
	case *ir.Constant:
		return p.constant(e)
	case *ir.Param:
		row := p.builder.unit.RegFile.Param(e.Name)
		return Operand{Kind: RegisterFile, Value: int64(row), Width: e.Width}, true
	case *ir.Slice:
		if p.mode != modeOutput {
			return Operand{}, p.fail(diag.Unsupported, "slice %s not supported in %s", e, p.mode)
		}
		//
		f, lo, _ := ir.Base(e)
		o, ok := p.field(f)
		o.SliceLo, o.SliceWidth = lo, e.Hi-e.Lo+1
		//
		return o, ok
	case *ir.Call:
		return p.execute(e)
	default:
		diag.Bug("unknown operand %s", e)
		return Operand{}, false
	}
}

func (p *synth) field(f *ir.Field) (Operand, bool) {
	b, ok := p.params[f.Name]
	//
	if !ok {
		word := p.builder.input(f.Name, f.Width)
		return Operand{Kind: Phv, Word: word, Width: f.Width}, true
	}
	//
	switch b.dir {
	case DirValue:
		if p.written[b.word] {
			return Operand{Kind: AluResult, Word: b.word, Width: p.reg.Width}, true
		}
		//
		return Operand{Kind: Memory, Word: b.word, Width: p.reg.Width}, true
	case DirHash:
		return Operand{Kind: HashInput, Width: f.Width}, true
	case DirLearn:
		return Operand{Kind: LearnInput, Width: f.Width}, true
	default:
		return Operand{}, p.fail(diag.Unsupported, "cannot read output parameter %s", f.Name)
	}
}

// constant is an immediate when it fits, and otherwise held in the register
// file.
func (p *synth) constant(k *ir.Constant) (Operand, bool) {
	if !k.Value.IsInt64() {
		return Operand{}, p.fail(diag.Overlimit, "constant %s too large", k)
	}
	//
	var (
		value = k.Value.Int64()
		fits  = p.spec.FitsInstruction(value)
	)
	//
	if p.mode == modeIf {
		fits = p.spec.FitsComparator(value)
	}
	//
	if fits {
		return Operand{Kind: Immediate, Value: value, Width: k.Width}, true
	}
	//
	row := p.builder.unit.RegFile.Constant(value)
	//
	return Operand{Kind: RegisterFile, Value: int64(row), Width: k.Width}, true
}

// execute a math unit against its input.
func (p *synth) execute(call *ir.Call) (Operand, bool) {
	var unit, ok = call.Args[0].(*ir.Field)
	//
	diag.Check(ok && len(call.Args) == 2, "malformed math unit call %s", call)
	//
	decl, ok := p.builder.mathUnit(unit.Name)
	//
	if !ok {
		return Operand{}, p.fail(diag.NotFound, "unknown math unit %s", unit.Name)
	}
	//
	table, ok := MathTable(decl.Op)
	//
	if !ok {
		return Operand{}, p.fail(diag.Invalid, "math unit %s has unknown function %s", decl.Name, decl.Op)
	} else if !p.isOperand(call.Args[1]) {
		return Operand{}, p.fail(diag.Unsupported, "math unit input %s too complex", call.Args[1])
	}
	//
	input, ok := p.operand(call.Args[1])
	//
	if !ok {
		return Operand{}, false
	} else if !input.IsA() {
		return Operand{}, p.fail(diag.Unsupported, "math unit input %s must be the register or a PHV field",
			call.Args[1])
	}
	//
	mu := &MathUnit{decl.Name, decl.Op, input, table}
	//
	if cur := p.builder.unit.Math; cur != nil && (cur.Name != mu.Name || cur.Input != mu.Input) {
		return Operand{}, p.fail(diag.Overlimit, "only one math unit per stateful ALU")
	}
	//
	p.builder.unit.Math = mu
	//
	return Operand{Kind: MathOutput, Width: 8}, true
}

// ============================================================================
// Computations
// ============================================================================

// computations determines the ALU operations needed to compute a given value.
// This is normally one, except for the or of two computed values.
func (p *synth) computations(e ir.Expr) ([]computation, bool) {
	if b, ok := e.(*ir.Binary); ok && b.Op == ir.BOr && !p.isSimple(b.Lhs) && !p.isSimple(b.Rhs) {
		l, lok := p.compute(b.Lhs)
		r, rok := p.compute(b.Rhs)
		//
		return []computation{l, r}, lok && rok
	}
	//
	c, ok := p.compute(e)
	//
	return []computation{c}, ok
}

// simple expressions are operands, or their complement.
func (p *synth) isSimple(e ir.Expr) bool {
	if u, ok := e.(*ir.Unary); ok && u.Op == ir.BNot {
		e = u.Expr
	}
	//
	return p.isOperand(e)
}

func (p *synth) compute(e ir.Expr) (computation, bool) {
	var (
		stack      = lane.NewStack()
		op, signed = opcodeOf(e)
		ok         = p.classify(e, stack, &op)
	)
	//
	if !ok {
		return computation{}, false
	}
	//
	switch stack.Size() {
	case 1:
		return p.copy(e, op, stack.Pop().(slot))
	case 2:
		r := stack.Pop().(slot)
		l := stack.Pop().(slot)
		//
		return p.binary(e, op, signed, l, r)
	default:
		diag.Bug("operand stack holds %d operands for %s", stack.Size(), e)
		return computation{}, false
	}
}

// opcodeOf gives the initial operation for an expression, along with its
// signedness.
func opcodeOf(e ir.Expr) (Opcode, bool) {
	var signed = ir.IsSigned(e)
	//
	switch e := e.(type) {
	case *ir.Binary:
		switch {
		case e.Op == ir.SatAdd && signed:
			return OpSaddS, signed
		case e.Op == ir.SatSub && signed:
			return OpSsubS, signed
		}
		//
		return aluOps[e.Op], signed
	case *ir.Call:
		switch {
		case e.Func == ir.FnMin && signed:
			return OpMinS, signed
		case e.Func == ir.FnMin:
			return OpMinU, signed
		case e.Func == ir.FnMax && signed:
			return OpMaxS, signed
		case e.Func == ir.FnMax:
			return OpMaxU, signed
		}
	}
	//
	return OpCopyA, signed
}

// classify pushes the operands of a computation onto the stack, updating the
// operation for any complement applied to its result.
func (p *synth) classify(e ir.Expr, stack *lane.Stack, op *Opcode) bool {
	if p.isSimple(e) {
		return p.push(stack, e)
	}
	//
	switch e := e.(type) {
	case *ir.Unary:
		if e.Op != ir.BNot {
			break
		}
		//
		*op, _ = opcodeOf(e.Expr)
		//
		if !p.classify(e.Expr, stack, op) {
			return false
		} else if c, ok := Complement(*op, 2); ok {
			*op = c
			return true
		}
		//
		return p.fail(diag.Unsupported, "complement of %s not supported", e.Expr)
	case *ir.Binary:
		if _, ok := aluOps[e.Op]; !ok {
			break
		} else if (e.Op == ir.Div || e.Op == ir.Mod) && !p.spec.DivModUnit {
			return p.fail(diag.UnsupportedOnTarget, "operator %s not supported on this target", e.Op.Symbol())
		}
		//
		return p.push(stack, e.Lhs) && p.push(stack, e.Rhs)
	case *ir.Call:
		if (e.Func == ir.FnMin || e.Func == ir.FnMax) && len(e.Args) == 2 {
			return p.push(stack, e.Args[0]) && p.push(stack, e.Args[1])
		}
	}
	//
	return p.fail(diag.Unsupported, "expression %s not supported", e)
}

func (p *synth) push(stack *lane.Stack, e ir.Expr) bool {
	var complement bool
	//
	if u, ok := e.(*ir.Unary); ok && u.Op == ir.BNot {
		e, complement = u.Expr, true
	}
	//
	if !p.isOperand(e) {
		return p.fail(diag.Unsupported, "expression %s too complex", e)
	}
	//
	o, ok := p.operand(e)
	//
	if ok {
		stack.Push(slot{o, complement})
	}
	//
	return ok
}

func (p *synth) copy(e ir.Expr, op Opcode, x slot) (computation, bool) {
	var negated = x.complement != (op == OpNotA)
	//
	switch {
	case x.IsA() && negated:
		op = OpNotA
	case x.IsA():
		op = OpCopyA
	case x.IsB() && negated:
		op = OpNotB
	case x.IsB():
		op = OpCopyB
	default:
		return computation{}, p.fail(diag.Unsupported, "updated register value cannot be used in %s", e)
	}
	//
	return computation{op, false, []Operand{x.Operand}}, true
}

func (p *synth) binary(e ir.Expr, op Opcode, signed bool, l, r slot) (computation, bool) {
	var ok = true
	//
	if !l.IsA() || !r.IsB() {
		switch {
		case r.IsA() && l.IsB() && isCommutative(op):
			l, r = r, l
		case r.IsA() && l.IsB() && op == OpSub:
			l, r, op = r, l, OpSubr
		case l.Kind == AluResult || r.Kind == AluResult:
			return computation{}, p.fail(diag.Unsupported, "updated register value cannot be used in %s", e)
		default:
			return computation{}, p.fail(diag.Unsupported, "operands of %s not supported", e)
		}
	}
	//
	if l.Width > device.AluWidth || r.Width > device.AluWidth {
		return computation{}, p.fail(diag.Unsupported, "operation %s wider than %d bits", e, device.AluWidth)
	}
	//
	if l.complement {
		op, ok = Complement(op, 0)
	}
	//
	if ok && r.complement {
		op, ok = Complement(op, 1)
	}
	//
	if !ok {
		return computation{}, p.fail(diag.Unsupported, "complement within %s not supported", e)
	}
	//
	return computation{op, signed, []Operand{l.Operand, r.Operand}}, true
}

func isCommutative(op Opcode) bool {
	switch op {
	case OpAdd, OpSaddU, OpSaddS, OpAnd, OpOr, OpXor, OpMinU, OpMinS, OpMaxU, OpMaxS:
		return true
	default:
		return false
	}
}
