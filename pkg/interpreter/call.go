package interpreter

import (
	"fmt"

	"vesper/pkg/program"
	"vesper/pkg/value"
)

// call invokes callee with the top argc parameters. Natives and callable
// objects complete immediately and their result lands in the caller's
// return register; script functions push a frame.
func (c *Context) call(caller *Frame, callee value.Value, argc int) error {
	if argc < 0 || argc > c.params.Size() {
		return fmt.Errorf("%w: call with %d arguments, %d pushed", ErrArity, argc, c.params.Size())
	}

	switch callee.Kind {
	case value.KindFunction:
		gen, pushed, err := c.enter(callee.Index, argc, false)
		if err != nil {
			return err
		}
		if !pushed {
			caller.Registers[program.RegReturn] = c.hold(gen)
		}
		return nil

	case value.KindNative:
		v, err := c.callNative(callee.Index, argc)
		if err != nil {
			return err
		}
		caller.Registers[program.RegReturn] = c.hold(v)
		return nil

	case value.KindObject:
		if callee.Obj == nil {
			break
		}
		args := make([]value.Value, argc)
		for i := range args {
			args[i], _ = c.params.FromTop(argc - 1 - i)
		}
		v, err := callee.Obj.Invoke(args)
		c.params.Drop(argc)
		if err != nil {
			return err
		}
		caller.Registers[program.RegReturn] = c.hold(v)
		return nil
	}

	c.params.Drop(argc)
	return fmt.Errorf("%w: %s is not callable", ErrType, callee.TypeName())
}

// enter builds the frame for a script function. The parameter count must
// match the declared arity exactly; the check happens before the callee
// runs. Generator functions are not pushed: enter returns the Generator
// holding the unstarted frame and pushed is false.
func (c *Context) enter(symbol int32, argc int, host bool) (value.Value, bool, error) {
	if symbol < 0 || int(symbol) >= len(c.symbols) || !c.symbols[symbol].IsFunction() {
		c.params.Drop(argc)
		return value.Null, false, fmt.Errorf("%w: symbol %d is not a function", ErrType, symbol)
	}

	sym := &c.symbols[symbol]
	if argc != int(sym.Params) {
		c.params.Drop(argc)
		return value.Null, false, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArity, sym.Name, sym.Params, argc)
	}

	f := &Frame{
		PC:       sym.Entry,
		Locals:   make([]value.Value, sym.Locals),
		Function: sym,
		Symbol:   symbol,
		host:     host,
	}
	for i := 0; i < argc; i++ {
		v, _ := c.params.FromTop(argc - 1 - i)
		c.holdAt(v, c.depth())
		value.Retain(v)
		f.Locals[i] = v
	}
	c.params.Drop(argc)

	if sym.Generator {
		return value.Obj(c.newGenerator(f)), false, nil
	}

	c.frames.Push(f)
	return value.Null, true, nil
}

// ret pops the active frame. The value goes to the return register of the
// frame below, or to the host slot when the frame was pushed by the host or
// was the last one on the stack. A generator body returning finishes its
// generator instead.
func (c *Context) ret(v value.Value) error {
	f, ok := c.frames.Pop()
	if !ok {
		return fmt.Errorf("%w: return with an empty call stack", ErrOpcode)
	}
	f.release()

	if f.Generator != nil {
		f.Generator.finish()
		return nil
	}

	top, ok := c.frames.Peek()
	if f.host || !ok {
		c.holdAt(v, 0)
		c.result = v
		return nil
	}

	top.Registers[program.RegReturn] = c.hold(v)
	return nil
}

// yield suspends the active generator frame with v as the produced value
func (c *Context) yield(v value.Value) error {
	f, ok := c.frames.Peek()
	if !ok || f.Generator == nil {
		return fmt.Errorf("%w: yield outside of a generator", ErrOpcode)
	}
	c.frames.Pop()
	c.hold(v)
	f.Generator.suspend(f, v)
	return nil
}
