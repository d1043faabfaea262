package value

import "fmt"

// Method is a built-in member bound to its receiver. It holds a reference on
// the receiver for as long as it lives.
type Method struct {
	Base
	name  string
	recv  Value
	arity int
	fn    func(args []Value) (Value, error)
}

// NewMethod binds fn to recv. arity is the exact argument count, or -1 for
// variadic methods.
func NewMethod(name string, recv Value, arity int, fn func(args []Value) (Value, error)) *Method {
	Retain(recv)
	return &Method{name: name, recv: recv, arity: arity, fn: fn}
}

func (m *Method) TypeName() string { return "method" }

// Name returns the member name the method was bound under
func (m *Method) Name() string { return m.name }

func (m *Method) ToString() (string, bool) {
	return fmt.Sprintf("<method %s.%s>", m.recv.TypeName(), m.name), true
}

func (m *Method) ToBool() (bool, bool) { return true, true }

func (m *Method) Invoke(args []Value) (Value, error) {
	if m.arity >= 0 && len(args) != m.arity {
		return Null, fmt.Errorf("%w: %s expects %d, got %d", ErrArgumentCount, m.name, m.arity, len(args))
	}
	return m.fn(args)
}

func (m *Method) Each(fn func(Value)) { fn(m.recv) }

func (m *Method) Finalize() {
	Release(m.recv)
	m.recv = Null
}
