package interpreter

import (
	"errors"
	"slices"
	"time"

	"vesper/pkg/program"
)

// Machine owns a native registry and the contexts sharing it, and
// schedules them cooperatively on the calling goroutine.
type Machine struct {
	natives  *Registry
	contexts []*Context
	opts     []Option
}

// NewMachine creates a machine. opts are applied to every context it loads.
func NewMachine(natives *Registry, opts ...Option) *Machine {
	if natives == nil {
		natives = NewRegistry()
	}
	return &Machine{natives: natives, opts: opts}
}

// Natives returns the registry shared by the machine's contexts
func (m *Machine) Natives() *Registry {
	return m.natives
}

// Load creates a context for p, ready to run its global scope
func (m *Machine) Load(p *program.Program, opts ...Option) *Context {
	c := NewContext(p, m.natives, append(slices.Clone(m.opts), opts...)...)
	m.contexts = append(m.contexts, c)
	return c
}

// Contexts returns the contexts owned by the machine
func (m *Machine) Contexts() []*Context {
	return slices.Clone(m.contexts)
}

// Run gives every live context an equal share of budget and returns the
// number of contexts still live. Contexts that halt report their error; the
// errors of one pass are joined. A budget of zero or less runs each context
// until it is idle.
func (m *Machine) Run(budget time.Duration) (int, error) {
	var live []*Context
	for _, c := range m.contexts {
		if c.Live() {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		return 0, nil
	}

	slice := budget / time.Duration(len(live))
	if budget > 0 && slice <= 0 {
		slice = 1
	}

	var errs []error
	remaining := 0
	for _, c := range live {
		status, err := c.Run(slice)
		if err != nil {
			errs = append(errs, err)
		}
		if status == StatusYielded {
			remaining++
		}
	}
	return remaining, errors.Join(errs...)
}

// Remove closes c and forgets it
func (m *Machine) Remove(c *Context) bool {
	i := slices.Index(m.contexts, c)
	if i < 0 {
		return false
	}
	c.Close()
	m.contexts = slices.Delete(m.contexts, i, i+1)
	return true
}

// Close tears down every context
func (m *Machine) Close() {
	for _, c := range m.contexts {
		c.Close()
	}
	m.contexts = nil
}
