package interpreter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"vesper/pkg/program"
	"vesper/pkg/stack"
	"vesper/pkg/value"

	"github.com/charmbracelet/log"
)

// Status reports why Run returned.
type Status int

const (
	StatusIdle    Status = iota // call stack empty
	StatusYielded               // time slice exhausted with work left
	StatusHalted                // fatal error, see the returned error
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusYielded:
		return "yielded"
	case StatusHalted:
		return "halted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// deadline checks are amortised over this many instructions
const clockEvery = 64

// Context is one independent script thread: a call stack, a parameter stack,
// globals and the collector pools. A Context is not safe for concurrent use.
type Context struct {
	prog    *program.Program
	code    []program.Instruction
	symbols []program.Symbol

	globals []value.Value
	funcs   []value.Value
	frames  *stack.Stack[*Frame]
	params  *stack.Stack[value.Value]
	result  value.Value // host return slot
	state   int32

	gens      []*value.Generation
	suspended map[*Generator]struct{}
	counter   uint64
	lastGC    uint64
	gc        GCConfig
	stats     Stats

	natives *Registry
	out     io.Writer
	log     *log.Logger

	maxSteps uint64
	halted   error
	closed   bool
}

type Option func(*Context)

// WithWriter sets the writer natives print to
func WithWriter(w io.Writer) Option {
	return func(c *Context) { c.out = w }
}

// WithLogger sets the logger used for diagnostics and collector traces
func WithLogger(l *log.Logger) Option {
	return func(c *Context) { c.log = l }
}

// WithGC overrides the collector schedule
func WithGC(cfg GCConfig) Option {
	return func(c *Context) { c.gc = cfg.normalize() }
}

// WithMaxSteps caps the number of instructions a context may execute
// before it halts with ErrMaxStepsExceeded. Zero means unlimited.
func WithMaxSteps(n uint64) Option {
	return func(c *Context) { c.maxSteps = n }
}

// NewContext creates an execution context for p with the global scope
// ready to run from the program entry point. natives may be nil.
func NewContext(p *program.Program, natives *Registry, opts ...Option) *Context {
	c := &Context{
		prog:      p,
		code:      append([]program.Instruction(nil), p.Instructions...),
		symbols:   append([]program.Symbol(nil), p.Symbols...),
		globals:   make([]value.Value, p.Globals),
		funcs:     make([]value.Value, p.Functions),
		frames:    stack.New[*Frame](),
		params:    stack.New[value.Value](),
		state:     -1,
		suspended: make(map[*Generator]struct{}),
		gc:        DefaultGCConfig(),
		natives:   natives,
	}

	for _, o := range opts {
		o(c)
	}

	if c.natives == nil {
		c.natives = NewRegistry()
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.log == nil {
		c.log = log.Default()
	}

	c.gens = make([]*value.Generation, c.gc.Generations)
	for i := range c.gens {
		c.gens[i] = value.NewGeneration(i)
	}

	for i := range c.symbols {
		if sym := &c.symbols[i]; sym.IsFunction() {
			c.funcs[sym.Index] = value.Function(int32(i))
		}
	}

	if len(c.code) > 0 {
		c.frames.Push(&Frame{PC: p.Entry, Symbol: -1})
	}

	return c
}

// Program returns the program the context was created from
func (c *Context) Program() *program.Program {
	return c.prog
}

// Output returns the writer natives print to
func (c *Context) Output() io.Writer {
	return c.out
}

// Logger returns the context logger
func (c *Context) Logger() *log.Logger {
	return c.log
}

// Depth returns the number of frames on the call stack
func (c *Context) Depth() int {
	return c.frames.Size()
}

// Params returns the number of values on the parameter stack
func (c *Context) Params() int {
	return c.params.Size()
}

// Halted returns the fatal error that stopped the context, if any
func (c *Context) Halted() error {
	return c.halted
}

// Live reports whether the context has work left and can run it
func (c *Context) Live() bool {
	return !c.closed && c.halted == nil && c.frames.Size() > 0
}

// State returns the current state symbol, or -1
func (c *Context) State() int32 {
	return c.state
}

// Global returns the value of the named global variable
func (c *Context) Global(name string) (value.Value, bool) {
	idx, ok := c.prog.Find(program.SymbolVariable, name)
	if !ok {
		return value.Null, false
	}
	return c.globals[c.symbols[idx].Index], true
}

// Frame returns the frame i positions below the top of the call stack
func (c *Context) Frame(i int) (*Frame, bool) {
	return c.frames.FromTop(i)
}

// PC returns the program counter of the active frame, or -1 when idle
func (c *Context) PC() int32 {
	if f, ok := c.frames.Peek(); ok {
		return f.PC
	}
	return -1
}

// SetPC moves the program counter of the active frame
func (c *Context) SetPC(pc int32) {
	if f, ok := c.frames.Peek(); ok {
		f.PC = pc
	}
}

// Step executes a single instruction, returning (halted, error). halted is
// true once the call stack is empty or the context stopped on an error.
func (c *Context) Step() (bool, error) {
	if c.closed {
		return true, ErrClosed
	}
	if c.halted != nil {
		return true, c.halted
	}

	f, ok := c.frames.Peek()
	if !ok {
		return true, nil
	}

	if c.maxSteps > 0 && c.counter >= c.maxSteps {
		c.halted = fmt.Errorf("%w: %d instructions", ErrMaxStepsExceeded, c.maxSteps)
		c.log.Warn("step limit reached", "file", c.prog.File, "steps", c.counter)
		return true, c.halted
	}

	if f.PC < 0 || int(f.PC) >= len(c.code) {
		return true, c.fail(f.PC, program.Instruction{}, fmt.Errorf("%w: pc %d outside %d instructions in %s", ErrOpcode, f.PC, len(c.code), f.Name()))
	}

	pc := f.PC
	in := c.code[pc]
	f.PC++
	c.counter++

	if err := c.execute(f, in); err != nil {
		return true, c.fail(pc, in, err)
	}

	if c.counter%c.gc.CheckEvery == 0 {
		if err := c.collectScheduled(); err != nil {
			return true, c.fail(pc, in, err)
		}
	}

	return c.frames.Size() == 0, nil
}

// execute runs one instruction. Out of range operands surface as runtime
// panics; they are reported as opcode errors.
func (c *Context) execute(f *Frame, in program.Instruction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("%w: malformed %s: %v", ErrOpcode, in.Op, re)
		}
	}()
	return coreStep(c, f, in)
}

// Run executes until the call stack is empty, the budget is exhausted or a
// fatal error stops the context. A budget of zero or less runs until empty.
func (c *Context) Run(budget time.Duration) (Status, error) {
	var deadline time.Time
	if budget > 0 {
		deadline = time.Now().Add(budget)
	}

	for n := 1; ; n++ {
		halted, err := c.Step()
		if err != nil {
			return StatusHalted, err
		}
		if halted {
			return StatusIdle, nil
		}
		if budget > 0 && n%clockEvery == 0 && time.Now().After(deadline) {
			return StatusYielded, nil
		}
	}
}

// fail turns err into a RuntimeError, halts the context and logs the
// diagnostic. Errors already reported by a nested run are passed through.
func (c *Context) fail(pc int32, in program.Instruction, err error) error {
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		c.halted = rerr
		return rerr
	}

	rerr = &RuntimeError{
		Kind:       classify(err),
		File:       c.prog.File,
		Line:       int(in.Line),
		Column:     int(in.Column),
		SourceLine: c.prog.SourceLine(in.Line),
		PC:         pc,
		Message:    err.Error(),
		Err:        err,
	}
	c.halted = rerr
	c.log.Error(rerr.Diagnostic(), "pc", pc, "op", in.Op.String())
	return rerr
}

// Close tears the context down: the call stack is disposed, suspended
// generators drop their frames and every generation is swept without a
// liveness check.
func (c *Context) Close() {
	if c.closed {
		return
	}

	for c.frames.Size() > 0 {
		f, _ := c.frames.Pop()
		f.release()
	}
	c.params.Drop(c.params.Size())

	for g := range c.suspended {
		g.dispose()
	}

	for i, v := range c.globals {
		value.Release(v)
		c.globals[i] = value.Null
	}
	for i, v := range c.funcs {
		value.Release(v)
		c.funcs[i] = value.Null
	}
	c.result = value.Null

	for _, gen := range c.gens {
		for o := gen.Front(); o != nil; o = gen.Front() {
			c.free(gen, o)
		}
	}

	c.closed = true
}
