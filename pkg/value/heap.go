package value

// Header is the bookkeeping every object carries for the collector.
type Header struct {
	refs      int32
	gen       int
	prev      Object
	next      Object
	depth     int
	finalized bool
	pool      *Generation
}

// Refs returns the durable reference count
func (h *Header) Refs() int32 { return h.refs }

// Generation returns the index of the generation holding the object
func (h *Header) Generation() int { return h.gen }

// Depth returns the call-stack depth the object was allocated at
func (h *Header) Depth() int { return h.depth }

// SetDepth records the call-stack depth the object is reachable from
func (h *Header) SetDepth(d int) { h.depth = d }

// LowerDepth moves the allocation depth down when the object escapes to a
// shallower frame.
func (h *Header) LowerDepth(d int) {
	if d < h.depth {
		h.depth = d
	}
}

// Finalized reports whether the object has been torn down
func (h *Header) Finalized() bool { return h.finalized }

// MarkFinalized flags the object as torn down
func (h *Header) MarkFinalized() { h.finalized = true }

// Tracked reports whether the object belongs to a generation
func (h *Header) Tracked() bool { return h.pool != nil }

// Next returns the following object in the generation list
func (h *Header) Next() Object { return h.next }

// Retain increments the reference count of an object value. Non-object
// values are ignored.
func Retain(v Value) {
	if v.IsObject() {
		v.Obj.Header().refs++
	}
}

// Release decrements the reference count of an object value and marks its
// generation dirty.
func Release(v Value) {
	if !v.IsObject() {
		return
	}

	h := v.Obj.Header()
	h.refs--
	if h.pool != nil {
		h.pool.Dirty = true
	}
}

// Generation is an intrusive doubly linked list of objects of one age class.
type Generation struct {
	Index int
	Dirty bool

	head  Object
	tail  Object
	count int
}

// NewGeneration creates an empty generation with the given index
func NewGeneration(index int) *Generation {
	return &Generation{Index: index}
}

// Len returns the number of objects in the generation
func (g *Generation) Len() int { return g.count }

// Front returns the first object, or nil when empty
func (g *Generation) Front() Object { return g.head }

// Add appends an object and marks the generation dirty. The object must not
// belong to another generation.
func (g *Generation) Add(o Object) {
	h := o.Header()
	h.pool = g
	h.gen = g.Index
	h.prev = g.tail
	h.next = nil

	if g.tail != nil {
		g.tail.Header().next = o
	} else {
		g.head = o
	}

	g.tail = o
	g.count++
	g.Dirty = true
}

// Remove unlinks an object from the generation
func (g *Generation) Remove(o Object) {
	h := o.Header()
	if h.pool != g {
		return
	}

	if h.prev != nil {
		h.prev.Header().next = h.next
	} else {
		g.head = h.next
	}

	if h.next != nil {
		h.next.Header().prev = h.prev
	} else {
		g.tail = h.prev
	}

	h.prev = nil
	h.next = nil
	h.pool = nil
	g.count--
}

// MoveTo unlinks an object and appends it to another generation
func (g *Generation) MoveTo(o Object, dst *Generation) {
	if g == dst {
		return
	}
	g.Remove(o)
	dst.Add(o)
}
