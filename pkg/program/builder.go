package program

import (
	"errors"
	"fmt"
)

type fixup struct {
	at     int
	slot   int
	label  string
	line   int32
	column int32
}

// Builder assembles a Program instruction by instruction. Branch targets may
// reference labels defined later; they are resolved by Build.
type Builder struct {
	prog   Program
	labels map[string]int32
	fixups []fixup
	entry  string
	line   int32
	column int32
	errs   []error
}

func NewBuilder(file string) *Builder {
	return &Builder{
		prog:   Program{File: file},
		labels: make(map[string]int32),
	}
}

// Source attaches the text used for diagnostics
func (b *Builder) Source(text string) *Builder {
	b.prog.Source = text
	return b
}

// At sets the source position recorded on the following instructions
func (b *Builder) At(line, column int32) *Builder {
	b.line, b.column = line, column
	return b
}

// PC returns the index the next instruction will occupy
func (b *Builder) PC() int32 {
	return int32(len(b.prog.Instructions))
}

func (b *Builder) errorf(format string, args ...any) {
	err := fmt.Errorf(format, args...)
	if b.line > 0 {
		err = fmt.Errorf("%d:%d: %w", b.line, b.column, err)
	}
	b.errs = append(b.errs, err)
}

// Label binds name to the current PC
func (b *Builder) Label(name string) *Builder {
	if _, ok := b.labels[name]; ok {
		b.errorf("label %q redefined", name)
		return b
	}
	b.labels[name] = b.PC()
	return b
}

// Entry makes the global scope start at the label
func (b *Builder) Entry(label string) *Builder {
	b.entry = label
	return b
}

// Emit appends an instruction, stamping the current position if it has none
func (b *Builder) Emit(ins Instruction) int32 {
	if ins.Line == 0 {
		ins.Line, ins.Column = b.line, b.column
	}
	b.prog.Instructions = append(b.prog.Instructions, ins)
	return int32(len(b.prog.Instructions) - 1)
}

// Op emits an instruction whose integer operands fill A, B and C in order
func (b *Builder) Op(op Opcode, operands ...int32) int32 {
	ins := Instruction{Op: op}
	b.fill(&ins, operands)
	return b.Emit(ins)
}

// OpS emits an instruction carrying a string immediate
func (b *Builder) OpS(op Opcode, s string, operands ...int32) int32 {
	ins := Instruction{Op: op, S: s}
	b.fill(&ins, operands)
	return b.Emit(ins)
}

// LoadFloat emits a float immediate load into dst
func (b *Builder) LoadFloat(dst int32, f float32) int32 {
	return b.Emit(Instruction{Op: OpLoadFloat, A: dst, F: f})
}

// Branch emits an instruction whose target operand, placed after the given
// operands, is the address of label.
func (b *Builder) Branch(op Opcode, label string, operands ...int32) int32 {
	pc := b.Op(op, operands...)
	if len(operands) > 2 {
		b.errorf("%s: no operand slot left for target", op)
		return pc
	}
	b.fixups = append(b.fixups, fixup{
		at:     int(pc),
		slot:   len(operands),
		label:  label,
		line:   b.line,
		column: b.column,
	})
	return pc
}

func (b *Builder) fill(ins *Instruction, operands []int32) {
	if len(operands) > 3 {
		b.errorf("%s: too many operands", ins.Op)
		operands = operands[:3]
	}
	for i, v := range operands {
		setSlot(ins, i, v)
	}
}

func setSlot(ins *Instruction, slot int, v int32) {
	switch slot {
	case 0:
		ins.A = v
	case 1:
		ins.B = v
	case 2:
		ins.C = v
	}
}

// Function declares a function starting at the current PC and binds it to
// the next free function-table slot. It returns the symbol index.
func (b *Builder) Function(name string, params, locals int32, generator bool) int32 {
	if locals < params {
		locals = params
	}
	b.prog.Symbols = append(b.prog.Symbols, Symbol{
		Kind:      SymbolFunction,
		Name:      name,
		Index:     b.prog.Functions,
		Entry:     b.PC(),
		Params:    params,
		Locals:    locals,
		Generator: generator,
		State:     -1,
		Line:      b.line,
		Column:    b.column,
	})
	b.prog.Functions++
	return int32(len(b.prog.Symbols) - 1)
}

// State returns the symbol index of the named state, declaring it if needed
func (b *Builder) State(name string) int32 {
	if idx, ok := b.prog.Find(SymbolState, name); ok {
		return idx
	}
	b.prog.Symbols = append(b.prog.Symbols, Symbol{Kind: SymbolState, Name: name, State: -1})
	return int32(len(b.prog.Symbols) - 1)
}

// Own assigns a function symbol to a state
func (b *Builder) Own(fn, state int32) *Builder {
	if fn < 0 || int(fn) >= len(b.prog.Symbols) || !b.prog.Symbols[fn].IsFunction() {
		b.errorf("symbol %d is not a function", fn)
		return b
	}
	b.prog.Symbols[fn].State = state
	return b
}

// Global returns the slot of the named global, declaring it if needed
func (b *Builder) Global(name string) int32 {
	if idx, ok := b.prog.Find(SymbolVariable, name); ok {
		return b.prog.Symbols[idx].Index
	}
	b.prog.Symbols = append(b.prog.Symbols, Symbol{
		Kind:  SymbolVariable,
		Name:  name,
		Index: b.prog.Globals,
		State: -1,
	})
	b.prog.Globals++
	return b.prog.Globals - 1
}

// Build resolves labels and returns the finished program
func (b *Builder) Build() (*Program, error) {
	for _, fx := range b.fixups {
		target, ok := b.labels[fx.label]
		if !ok {
			b.errs = append(b.errs, fmt.Errorf("%d:%d: undefined label %q", fx.line, fx.column, fx.label))
			continue
		}
		setSlot(&b.prog.Instructions[fx.at], fx.slot, target)
	}

	if b.entry != "" {
		if target, ok := b.labels[b.entry]; ok {
			b.prog.Entry = target
		} else {
			b.errs = append(b.errs, fmt.Errorf("undefined entry label %q", b.entry))
		}
	}

	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	prog := b.prog
	prog.Instructions = append([]Instruction(nil), b.prog.Instructions...)
	prog.Symbols = append([]Symbol(nil), b.prog.Symbols...)
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return &prog, nil
}
