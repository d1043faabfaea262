package interpreter

import (
	"fmt"

	"vesper/pkg/value"
)

// Generator is the heap object returned by calling a generator function. It
// owns the function's frame while the body is not running: unstarted at
// first, then suspended after each yield.
type Generator struct {
	value.Base
	ctx      *Context
	name     string
	frame    *Frame
	running  bool
	finished bool
	yielded  value.Value
}

func (c *Context) newGenerator(f *Frame) *Generator {
	g := &Generator{ctx: c, name: f.Name(), frame: f}
	f.Generator = g
	c.suspended[g] = struct{}{}
	return g
}

func (g *Generator) TypeName() string { return "generator" }

func (g *Generator) ToString() (string, bool) {
	return fmt.Sprintf("<generator %s>", g.name), true
}

func (g *Generator) ToBool() (bool, bool) { return true, true }

// Finished reports whether the body has returned. It never resumes it.
func (g *Generator) Finished() bool { return g.finished }

// Iterate returns a fresh iterator driving the generator
func (g *Generator) Iterate() (value.Iterator, error) {
	value.Retain(value.Obj(g))
	return &GeneratorIterator{gen: g}, nil
}

// Next resumes the body until its next yield or return. After the body has
// returned, Next does nothing and reports no value.
func (g *Generator) Next() (value.Value, bool, error) {
	if g.finished {
		return value.Null, false, nil
	}
	if g.running {
		return value.Null, false, fmt.Errorf("%w: generator %s resumed while running", ErrIteration, g.name)
	}
	return g.ctx.resume(g)
}

func (g *Generator) suspend(f *Frame, v value.Value) {
	g.frame = f
	g.yielded = v
	g.ctx.suspended[g] = struct{}{}
}

func (g *Generator) finish() {
	g.finished = true
	g.frame = nil
	g.yielded = value.Null
	delete(g.ctx.suspended, g)
}

// dispose drops a suspended frame without running it
func (g *Generator) dispose() {
	if g.frame != nil {
		g.frame.release()
		g.frame.Generator = nil
		g.frame = nil
	}
	g.finished = true
	delete(g.ctx.suspended, g)
}

func (g *Generator) Finalize() {
	if !g.running {
		g.dispose()
	}
}

// resume pushes the generator frame and runs the context until the frame
// leaves the stack again.
func (c *Context) resume(g *Generator) (value.Value, bool, error) {
	f := g.frame
	g.frame = nil
	g.yielded = value.Null
	g.running = true
	delete(c.suspended, g)

	base := c.frames.Size()
	c.frames.Push(f)
	for _, r := range f.Registers {
		c.hold(r)
	}

	err := c.drain(base)
	g.running = false
	if err != nil {
		return value.Null, false, err
	}
	if g.finished {
		return value.Null, false, nil
	}
	return g.yielded, true, nil
}

// drain steps until the call stack is back to base frames
func (c *Context) drain(base int) error {
	for c.frames.Size() > base {
		if _, err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// GeneratorIterator walks a generator. Unlike the list and dict iterators it
// holds a reference on what it walks, since the generator is usually only
// reachable through it.
type GeneratorIterator struct {
	value.Base
	gen *Generator
}

func (it *GeneratorIterator) TypeName() string { return "iterator" }

func (it *GeneratorIterator) ToBool() (bool, bool) { return !it.Finished(), true }

func (it *GeneratorIterator) Finished() bool { return it.gen == nil || it.gen.Finished() }

func (it *GeneratorIterator) Next() (value.Value, bool, error) {
	if it.gen == nil {
		return value.Null, false, nil
	}
	return it.gen.Next()
}

func (it *GeneratorIterator) Iterate() (value.Iterator, error) { return it, nil }

func (it *GeneratorIterator) Each(fn func(value.Value)) {
	if it.gen != nil {
		fn(value.Obj(it.gen))
	}
}

func (it *GeneratorIterator) Finalize() {
	if it.gen != nil {
		value.Release(value.Obj(it.gen))
		it.gen = nil
	}
}
