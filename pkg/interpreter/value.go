package interpreter

import (
	"fmt"

	"vesper/pkg/value"
)

// depth is the index of the active frame, 0 for the global scope
func (c *Context) depth() int {
	if n := c.frames.Size(); n > 0 {
		return n - 1
	}
	return 0
}

// hold prepares a value for a register of the active frame. New objects are
// registered with generation 0; known objects have their allocation depth
// lowered so the liveness scan still finds them from this frame.
func (c *Context) hold(v value.Value) value.Value {
	c.holdAt(v, c.depth())
	return v
}

func (c *Context) holdAt(v value.Value, depth int) {
	if !v.IsObject() {
		return
	}
	h := v.Obj.Header()
	if h.Tracked() || h.Finalized() {
		h.LowerDepth(depth)
		return
	}
	c.adopt(v, depth)
}

// adopt registers an untracked object and every untracked value it holds
func (c *Context) adopt(v value.Value, depth int) {
	if !v.IsObject() {
		return
	}
	o := v.Obj
	h := o.Header()
	if h.Tracked() || h.Finalized() {
		return
	}

	c.gens[0].Add(o)
	h.SetDepth(depth)
	c.stats.Allocated++

	if ct, ok := o.(value.Container); ok {
		ct.Each(func(child value.Value) { c.adopt(child, depth) })
	}
}

// store writes v into a durable slot, moving the reference from the old
// value to the new one.
func (c *Context) store(slot *value.Value, v value.Value) {
	c.hold(v)
	value.Retain(v)
	value.Release(*slot)
	*slot = v
}

func truthy(v value.Value) (bool, error) {
	b, ok := value.ToBool(v)
	if !ok {
		return false, fmt.Errorf("%w: %s has no truth value", ErrType, v.TypeName())
	}
	return b, nil
}
