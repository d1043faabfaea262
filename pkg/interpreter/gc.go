package interpreter

import (
	"fmt"

	"vesper/pkg/value"
)

// GCConfig is the collector schedule. Generation g is collected when it is
// dirty and the instruction counter passes a multiple of
// BaseInterval * 10^g. The schedule is checked every CheckEvery
// instructions.
type GCConfig struct {
	BaseInterval uint64
	Generations  int
	CheckEvery   uint64
}

func DefaultGCConfig() GCConfig {
	return GCConfig{BaseInterval: 1000, Generations: 3, CheckEvery: 100}
}

func (cfg GCConfig) normalize() GCConfig {
	def := DefaultGCConfig()
	if cfg.BaseInterval == 0 {
		cfg.BaseInterval = def.BaseInterval
	}
	if cfg.Generations <= 0 {
		cfg.Generations = def.Generations
	}
	if cfg.CheckEvery == 0 {
		cfg.CheckEvery = def.CheckEvery
	}
	return cfg
}

// Interval returns the instruction interval of generation g
func (cfg GCConfig) Interval(g int) uint64 {
	n := cfg.BaseInterval
	for i := 0; i < g; i++ {
		n *= 10
	}
	return n
}

// Stats are cumulative collector counters
type Stats struct {
	Allocated uint64 // objects registered with generation 0
	Passes    uint64 // generation scans
	Promoted  uint64
	Freed     uint64
	Live      []int // objects per generation at the time of the call
}

// Stats returns the collector counters
func (c *Context) Stats() Stats {
	s := c.stats
	s.Live = make([]int, len(c.gens))
	for i, g := range c.gens {
		s.Live[i] = g.Len()
	}
	return s
}

// Counter returns the number of instructions executed
func (c *Context) Counter() uint64 {
	return c.counter
}

// collectScheduled runs the generations that are due
func (c *Context) collectScheduled() error {
	for g, gen := range c.gens {
		interval := c.gc.Interval(g)
		if gen.Dirty && c.counter/interval > c.lastGC/interval {
			if err := c.collect(g); err != nil {
				return err
			}
		}
	}
	c.lastGC = c.counter
	return nil
}

// Collect scans every generation once, youngest first. A failed pass halts
// the context.
func (c *Context) Collect() error {
	for g := range c.gens {
		if err := c.collect(g); err != nil {
			return c.hostFail(err)
		}
	}
	c.lastGC = c.counter
	return nil
}

// CollectGeneration scans a single generation
func (c *Context) CollectGeneration(g int) error {
	if g < 0 || g >= len(c.gens) {
		return fmt.Errorf("no generation %d", g)
	}
	if err := c.collect(g); err != nil {
		return c.hostFail(err)
	}
	return nil
}

// collect scans generation g. Objects with a positive count are promoted.
// Objects with a zero count survive, and are promoted, only if a register
// still points at them; otherwise they are finalized and unlinked.
func (c *Context) collect(g int) error {
	gen := c.gens[g]
	dst := gen
	if g+1 < len(c.gens) {
		dst = c.gens[g+1]
	}

	gen.Dirty = false
	c.stats.Passes++

	var promoted, freed uint64
	for o := gen.Front(); o != nil; {
		next := o.Header().Next()

		refs := o.Header().Refs()
		switch {
		case refs < 0:
			return fmt.Errorf("%w: %s has reference count %d", ErrAssertion, o.TypeName(), refs)
		case refs > 0 || c.reachable(o):
			gen.MoveTo(o, dst)
			promoted++
		default:
			c.free(gen, o)
			freed++
		}

		o = next
	}

	c.stats.Promoted += promoted
	c.stats.Freed += freed
	c.log.Debug("gc pass", "generation", g, "promoted", promoted, "freed", freed, "live", gen.Len(), "counter", c.counter)
	return nil
}

// reachable scans the registers of every frame from the object's allocation
// depth upward, the registers of suspended generator frames, the parameter
// stack and the host return slot.
func (c *Context) reachable(o value.Object) bool {
	frames := c.frames.Array()
	for i := o.Header().Depth(); i < len(frames); i++ {
		if frames[i].holds(o) {
			return true
		}
	}

	for g := range c.suspended {
		if g.frame != nil && g.frame.holds(o) {
			return true
		}
	}

	for _, v := range c.params.Array() {
		if v.Kind == value.KindObject && v.Obj == o {
			return true
		}
	}

	return c.result.Kind == value.KindObject && c.result.Obj == o
}

func (c *Context) free(gen *value.Generation, o value.Object) {
	gen.Remove(o)
	h := o.Header()
	if h.Finalized() {
		return
	}
	h.MarkFinalized()
	o.Finalize()
}
