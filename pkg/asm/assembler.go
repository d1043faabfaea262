package asm

import (
	"strconv"
	"strings"

	"vesper/pkg/program"
)

// entryLabel cannot collide with user labels, which never start with a dot.
const entryLabel = ".entry"

type statement struct {
	pos   Position
	label string  // optional label defined on the line
	head  Token   // directive or mnemonic, zero when the line is only a label
	args  []Token // operands with separators removed
}

type function struct {
	name   string
	slot   int32
	locals int32
}

// Assembler turns assembly text into a program.Program.
//
// A source file is a sequence of lines. Each line holds an optional label
// ("loop:") followed by a directive or an instruction. Instruction operands
// are comma separated; directive arguments are space separated:
//
//	.state name
//	.global name
//	.func name params locals [generator] [state=name]
//	.end
//	.entry
//
// A function owned by a state may share its name with a stateless one; slot
// operands address it as name.state.
type Assembler struct {
	file    string
	lines   []string
	errs    ErrorList
	b       *program.Builder
	stmts   []statement
	labels  map[string]bool
	funcs   map[string]function
	states  map[string]int32
	globals map[string]int32
	fn      *function
}

// Assemble is a convenience wrapper around NewAssembler and Run.
func Assemble(file, source string) (*program.Program, error) {
	return NewAssembler(file, source).Run()
}

func NewAssembler(file, source string) *Assembler {
	a := &Assembler{
		file:    file,
		lines:   strings.Split(source, "\n"),
		errs:    ErrorList{File: file},
		b:       program.NewBuilder(file).Source(source),
		labels:  make(map[string]bool),
		funcs:   make(map[string]function),
		states:  make(map[string]int32),
		globals: make(map[string]int32),
	}
	a.parse(NewLexer(source))
	return a
}

func (a *Assembler) errorf(pos Position, format string, args ...any) {
	src := ""
	if pos.Line > 0 && pos.Line <= len(a.lines) {
		src = strings.TrimRight(a.lines[pos.Line-1], "\r")
	}
	a.errs.add(pos, src, format, args...)
}

// parse splits the token stream into statements
func (a *Assembler) parse(l *Lexer) {
	var cur statement
	var line []Token

	flush := func() {
		if cur.label != "" || cur.head.Type != EOF || len(line) > 0 {
			a.statement(cur, line)
		}
		cur = statement{}
		line = nil
	}

	for {
		tok := l.NextToken()
		switch tok.Type {
		case EOF:
			flush()
			return
		case NEWLINE:
			flush()
		case ILLEGAL:
			a.errorf(tok.Pos, "illegal token %q", tok.Lexeme)
		case LABEL:
			if cur.label == "" && cur.head.Type == EOF && len(line) == 0 {
				cur.label = tok.Literal
				cur.pos = tok.Pos
				continue
			}
			a.errorf(tok.Pos, "unexpected label %q", tok.Literal)
		default:
			if cur.head.Type == EOF && len(line) == 0 {
				if tok.Type != DIRECTIVE && tok.Type != IDENT {
					a.errorf(tok.Pos, "expected instruction or directive, found %s", tok.Type)
					continue
				}
				cur.head = tok
				if cur.label == "" {
					cur.pos = tok.Pos
				}
				continue
			}
			line = append(line, tok)
		}
	}
}

func (a *Assembler) statement(st statement, raw []Token) {
	if st.head.Type == IDENT {
		// instruction operands alternate with commas
		for i, tok := range raw {
			if (i%2 == 1) != (tok.Type == COMMA) {
				if tok.Type == COMMA {
					a.errorf(tok.Pos, "unexpected ','")
				} else {
					a.errorf(tok.Pos, "missing ',' before %s", tok.Type)
				}
				return
			}
		}
		if len(raw) > 0 && raw[len(raw)-1].Type == COMMA {
			a.errorf(raw[len(raw)-1].Pos, "trailing ','")
			return
		}
		for _, tok := range raw {
			if tok.Type != COMMA {
				st.args = append(st.args, tok)
			}
		}
	} else {
		st.args = raw
	}
	a.stmts = append(a.stmts, st)
}

// Run assembles the parsed statements. All errors found are returned
// together as an *ErrorList.
func (a *Assembler) Run() (*program.Program, error) {
	a.declare()
	if len(a.errs.Errors) == 0 {
		for _, st := range a.stmts {
			a.emit(st)
		}
		if a.fn != nil {
			a.errorf(Position{Line: len(a.lines), Column: 1}, "function %s has no .end", a.fn.name)
		}
	}

	if len(a.errs.Errors) > 0 {
		return nil, &a.errs
	}
	return a.b.Build()
}

// declare records labels, states, globals and function slots so that
// operands may refer to them before their definition.
func (a *Assembler) declare() {
	var slot int32
	for _, st := range a.stmts {
		if st.label != "" {
			if a.labels[st.label] {
				a.errorf(st.pos, "label %q redefined", st.label)
			}
			a.labels[st.label] = true
		}
		if st.head.Type != DIRECTIVE {
			continue
		}

		switch st.head.Literal {
		case "state":
			if name, ok := a.nameArg(st); ok {
				a.states[name] = a.b.State(name)
			}
		case "global":
			if name, ok := a.nameArg(st); ok {
				a.globals[name] = a.b.Global(name)
			}
		case "func":
			if len(st.args) == 0 || st.args[0].Type != IDENT {
				continue // reported by emit
			}
			name := st.args[0].Lexeme
			key := funcKey(st.args)
			if _, ok := a.funcs[key]; ok {
				a.errorf(st.args[0].Pos, "function %q redefined", key)
				continue
			}
			a.funcs[key] = function{name: name, slot: slot}
			slot++
		}
	}
}

// funcKey names a .func declaration. A function owned by a state may reuse
// the name of a stateless one, so the owner is part of the key.
func funcKey(args []Token) string {
	name := args[0].Lexeme
	for i := 1; i+2 < len(args); i++ {
		if args[i].Lexeme == "state" && args[i+1].Type == ASSIGN && args[i+2].Type == IDENT {
			return name + "@" + args[i+2].Lexeme
		}
	}
	return name
}

func (a *Assembler) nameArg(st statement) (string, bool) {
	if len(st.args) != 1 || st.args[0].Type != IDENT {
		a.errorf(st.head.Pos, ".%s expects a single name", st.head.Literal)
		return "", false
	}
	return st.args[0].Lexeme, true
}

func (a *Assembler) emit(st statement) {
	a.b.At(int32(st.pos.Line), int32(st.pos.Column))
	if st.label != "" {
		a.b.Label(st.label)
	}

	switch st.head.Type {
	case EOF:
	case DIRECTIVE:
		a.directive(st)
	default:
		a.b.At(int32(st.head.Pos.Line), int32(st.head.Pos.Column))
		a.instruction(st)
	}
}

func (a *Assembler) directive(st statement) {
	switch st.head.Literal {
	case "state", "global":
	case "func":
		a.function(st)
	case "end":
		if a.fn == nil {
			a.errorf(st.head.Pos, ".end outside of a function")
		}
		a.fn = nil
	case "entry":
		if a.fn != nil {
			a.errorf(st.head.Pos, ".entry inside function %s", a.fn.name)
			return
		}
		if a.labels[entryLabel] {
			a.errorf(st.head.Pos, ".entry defined twice")
			return
		}
		a.labels[entryLabel] = true
		a.b.Label(entryLabel).Entry(entryLabel)
	default:
		a.errorf(st.head.Pos, "unknown directive .%s", st.head.Literal)
	}
}

// function handles ".func name params locals [generator] [state=name]"
func (a *Assembler) function(st statement) {
	if a.fn != nil {
		a.errorf(st.head.Pos, "function %s is missing .end", a.fn.name)
		return
	}
	args := st.args
	if len(args) < 3 || args[0].Type != IDENT || args[1].Type != INT || args[2].Type != INT {
		a.errorf(st.head.Pos, ".func expects name, parameter count and local count")
		return
	}

	name := args[0].Lexeme
	params, _ := strconv.Atoi(args[1].Lexeme)
	locals, _ := strconv.Atoi(args[2].Lexeme)
	if params < 0 || locals < params {
		a.errorf(args[2].Pos, "function %s needs at least %d locals", name, params)
		return
	}

	generator := false
	state := int32(-1)
	for i := 3; i < len(args); i++ {
		switch {
		case args[i].Type == IDENT && args[i].Lexeme == "generator":
			generator = true
		case args[i].Type == IDENT && args[i].Lexeme == "state" &&
			i+2 < len(args) && args[i+1].Type == ASSIGN && args[i+2].Type == IDENT:
			idx, ok := a.states[args[i+2].Lexeme]
			if !ok {
				a.errorf(args[i+2].Pos, "unknown state %q", args[i+2].Lexeme)
				return
			}
			state = idx
			i += 2
		default:
			a.errorf(args[i].Pos, "unexpected .func option %q", args[i].Lexeme)
			return
		}
	}

	sym := a.b.Function(name, int32(params), int32(locals), generator)
	if state >= 0 {
		a.b.Own(sym, state)
	}
	fn := a.funcs[funcKey(args)]
	fn.locals = int32(locals)
	a.fn = &fn
}

func (a *Assembler) instruction(st statement) {
	op, ok := program.Lookup(st.head.Lexeme)
	if !ok {
		a.errorf(st.head.Pos, "unknown instruction %q", st.head.Lexeme)
		return
	}
	info, _ := op.Info()
	if len(st.args) != len(info.Operands) {
		a.errorf(st.head.Pos, "%s expects %d operands, got %d", op, len(info.Operands), len(st.args))
		return
	}

	ins := program.Instruction{Op: op}
	var ints []int32
	target := ""
	for i, kind := range info.Operands {
		tok := st.args[i]
		switch kind {
		case program.OperandFloat:
			f, ok := a.float(tok)
			if !ok {
				return
			}
			ins.F = f
		case program.OperandString:
			if tok.Type != STRING {
				a.errorf(tok.Pos, "expected string, found %s", tok.Type)
				return
			}
			ins.S = tok.Literal
		case program.OperandTarget:
			if tok.Type != IDENT {
				a.errorf(tok.Pos, "expected label, found %s", tok.Type)
				return
			}
			if !a.labels[tok.Lexeme] {
				a.errorf(tok.Pos, "undefined label %q", tok.Lexeme)
				return
			}
			target = tok.Lexeme
		default:
			v, ok := a.integer(kind, tok)
			if !ok {
				return
			}
			ints = append(ints, v)
		}
	}

	if target != "" {
		a.b.Branch(op, target, ints...)
		return
	}
	for i, v := range ints {
		switch i {
		case 0:
			ins.A = v
		case 1:
			ins.B = v
		case 2:
			ins.C = v
		}
	}
	a.b.Emit(ins)
}

func (a *Assembler) float(tok Token) (float32, bool) {
	if tok.Type != FLOAT && tok.Type != INT {
		a.errorf(tok.Pos, "expected number, found %s", tok.Type)
		return 0, false
	}
	f, err := strconv.ParseFloat(tok.Lexeme, 32)
	if err != nil {
		a.errorf(tok.Pos, "bad float %q", tok.Lexeme)
		return 0, false
	}
	return float32(f), true
}

// index parses the numeric suffix of r3, l0, g1 and f2 operands
func index(tok Token) int32 {
	n, _ := strconv.Atoi(tok.Lexeme[1:])
	return int32(n)
}

func (a *Assembler) integer(kind program.Operand, tok Token) (int32, bool) {
	switch kind {
	case program.OperandReg:
		if tok.Type != REGISTER {
			break
		}
		if n := index(tok); n < program.Registers {
			return n, true
		}
		a.errorf(tok.Pos, "register %s out of range", tok.Lexeme)
		return 0, false

	case program.OperandLocal:
		if tok.Type != LOCAL {
			break
		}
		n := index(tok)
		if a.fn == nil {
			a.errorf(tok.Pos, "local %s used outside of a function", tok.Lexeme)
			return 0, false
		}
		if n >= a.fn.locals {
			a.errorf(tok.Pos, "local %s out of range, %s has %d locals", tok.Lexeme, a.fn.name, a.fn.locals)
			return 0, false
		}
		return n, true

	case program.OperandGlobal:
		switch tok.Type {
		case GLOBAL:
			return index(tok), true
		case IDENT:
			if slot, ok := a.globals[tok.Lexeme]; ok {
				return slot, true
			}
			a.errorf(tok.Pos, "undefined global %q", tok.Lexeme)
			return 0, false
		}

	case program.OperandSlot:
		switch tok.Type {
		case SLOT:
			return index(tok), true
		case IDENT:
			if fn, ok := a.funcs[tok.Lexeme]; ok {
				return fn.slot, true
			}
			if fn, ok := a.funcs[strings.ReplaceAll(tok.Lexeme, ".", "@")]; ok {
				return fn.slot, true
			}
			a.errorf(tok.Pos, "undefined function %q", tok.Lexeme)
			return 0, false
		}

	case program.OperandState:
		if tok.Type != IDENT {
			break
		}
		if tok.Lexeme == "none" {
			return -1, true
		}
		if idx, ok := a.states[tok.Lexeme]; ok {
			return idx, true
		}
		a.errorf(tok.Pos, "unknown state %q", tok.Lexeme)
		return 0, false

	case program.OperandInt, program.OperandCount:
		if tok.Type != INT {
			break
		}
		n, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil || (kind == program.OperandCount && n < 0) {
			a.errorf(tok.Pos, "bad integer %q", tok.Lexeme)
			return 0, false
		}
		return int32(n), true
	}

	a.errorf(tok.Pos, "unexpected %s %q", tok.Type, tok.Lexeme)
	return 0, false
}

