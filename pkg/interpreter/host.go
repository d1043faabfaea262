package interpreter

import (
	"fmt"

	"vesper/pkg/value"
)

// PushParam pushes an argument for the next host call
func (c *Context) PushParam(v value.Value) {
	c.holdAt(v, 0)
	c.params.Push(v)
}

// ReturnValue returns the value left in the host return slot by the last
// host call, or by the global scope when it returned.
func (c *Context) ReturnValue() value.Value {
	return c.result
}

// CallFunction calls a script function by name with the top argc
// parameters and runs it to completion. The name resolves against the
// current state first. An unknown name is reported without halting the
// context; the pushed parameters are discarded.
func (c *Context) CallFunction(name string, argc int) (value.Value, error) {
	if c.closed {
		return value.Null, ErrClosed
	}
	if c.halted != nil {
		return value.Null, c.halted
	}

	idx, ok := c.prog.FindFunction(name, c.state)
	if !ok {
		c.params.Drop(min(argc, c.params.Size()))
		return value.Null, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return c.CallSymbol(idx, argc)
}

// CallSymbol calls the function at symbol index idx. Calling a generator
// function returns the generator without running its body.
//
// A returned object is only protected while it sits in the host return
// slot, which the next call overwrites. Hosts that keep it longer must
// value.Retain it and value.Release it when done.
func (c *Context) CallSymbol(idx int32, argc int) (value.Value, error) {
	if c.closed {
		return value.Null, ErrClosed
	}
	if c.halted != nil {
		return value.Null, c.halted
	}
	if argc < 0 || argc > c.params.Size() {
		return value.Null, c.hostFail(fmt.Errorf("%w: call with %d arguments, %d pushed", ErrArity, argc, c.params.Size()))
	}

	base := c.frames.Size()
	c.result = value.Null
	gen, pushed, err := c.enter(idx, argc, true)
	if err != nil {
		return value.Null, c.hostFail(err)
	}
	if !pushed {
		c.holdAt(gen, 0)
		c.result = gen
		return gen, nil
	}

	if err := c.drain(base); err != nil {
		return value.Null, err
	}
	return c.result, nil
}

// CallEvent calls an event handler by name. When the handler is already on
// the call stack and stackable is false the call is refused, the parameters
// are discarded and false is returned. With async the handler runs to
// completion before CallEvent returns; otherwise its frame is only pushed
// and runs with the rest of the context on the next Run.
func (c *Context) CallEvent(name string, argc int, async, stackable bool) (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	if c.halted != nil {
		return false, c.halted
	}

	idx, ok := c.prog.FindFunction(name, c.state)
	if !ok {
		c.params.Drop(min(argc, c.params.Size()))
		return false, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}

	if !stackable && c.active(idx) {
		c.params.Drop(min(argc, c.params.Size()))
		c.log.Debug("event refused", "event", name, "reason", "already running")
		return false, nil
	}

	if async {
		if _, err := c.CallSymbol(idx, argc); err != nil {
			return false, err
		}
		return true, nil
	}

	if argc < 0 || argc > c.params.Size() {
		return false, c.hostFail(fmt.Errorf("%w: call with %d arguments, %d pushed", ErrArity, argc, c.params.Size()))
	}
	gen, pushed, err := c.enter(idx, argc, true)
	if err != nil {
		return false, c.hostFail(err)
	}
	if !pushed {
		c.holdAt(gen, 0)
	}
	return true, nil
}

// active reports whether the function at symbol idx has a frame on the call
// stack
func (c *Context) active(idx int32) bool {
	for _, f := range c.frames.Array() {
		if f.Symbol == idx {
			return true
		}
	}
	return false
}

// hostFail halts the context on an error raised before any instruction of
// the called function ran. The diagnostic points at the function itself.
func (c *Context) hostFail(err error) error {
	rerr := &RuntimeError{
		Kind:    classify(err),
		File:    c.prog.File,
		PC:      -1,
		Message: err.Error(),
		Err:     err,
	}
	c.halted = rerr
	c.log.Error(rerr.Error())
	return rerr
}
