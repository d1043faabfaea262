package interpreter

import (
	"fmt"
	"sort"
	"strings"

	"vesper/pkg/value"
)

// NativeFunc is a host callback. It reads its arguments and returns its
// result through the NativeCall accessors.
type NativeFunc func(call *NativeCall) error

// Native is a registered host callback. Arity is the exact argument count,
// or -1 when the native accepts any number of arguments.
type Native struct {
	Name  string
	Arity int
	Fn    NativeFunc
}

// Registry maps case-insensitive names to natives. It is owned by the
// machine that runs the contexts using it.
type Registry struct {
	natives []Native
	index   map[string]int32
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int32)}
}

// Register adds a native, replacing any native registered under the same
// name. It returns the native's index.
func (r *Registry) Register(name string, arity int, fn NativeFunc) int32 {
	key := strings.ToLower(name)
	n := Native{Name: name, Arity: arity, Fn: fn}
	if idx, ok := r.index[key]; ok {
		r.natives[idx] = n
		return idx
	}
	r.natives = append(r.natives, n)
	idx := int32(len(r.natives) - 1)
	r.index[key] = idx
	return idx
}

// Lookup resolves a name, ignoring case
func (r *Registry) Lookup(name string) (int32, bool) {
	idx, ok := r.index[strings.ToLower(name)]
	return idx, ok
}

// At returns the native stored at idx
func (r *Registry) At(idx int32) (Native, bool) {
	if idx < 0 || int(idx) >= len(r.natives) {
		return Native{}, false
	}
	return r.natives[idx], true
}

// Len returns the number of registered natives
func (r *Registry) Len() int {
	return len(r.natives)
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.natives))
	for _, n := range r.natives {
		names = append(names, n.Name)
	}
	sort.Strings(names)
	return names
}

// NativeCall is the window a native gets onto the parameter stack. Argument
// 0 is the first value pushed by the caller.
type NativeCall struct {
	ctx  *Context
	name string
	argc int
	ret  value.Value
}

// Context returns the context running the call
func (n *NativeCall) Context() *Context { return n.ctx }

// Name returns the name the native was registered under
func (n *NativeCall) Name() string { return n.name }

// Count returns the number of arguments passed
func (n *NativeCall) Count() int { return n.argc }

// Arg returns argument i, or null when out of range
func (n *NativeCall) Arg(i int) value.Value {
	if i < 0 || i >= n.argc {
		return value.Null
	}
	v, _ := n.ctx.params.FromTop(n.argc - 1 - i)
	return v
}

func (n *NativeCall) argError(i int, want string) error {
	return fmt.Errorf("%w: %s: argument %d is %s, not %s", ErrType, n.name, i, n.Arg(i).TypeName(), want)
}

// Int coerces argument i to an integer
func (n *NativeCall) Int(i int) (int32, error) {
	v, ok := value.ToInt(n.Arg(i))
	if !ok {
		return 0, n.argError(i, "an int")
	}
	return v, nil
}

// Float coerces argument i to a float
func (n *NativeCall) Float(i int) (float32, error) {
	v, ok := value.ToFloat(n.Arg(i))
	if !ok {
		return 0, n.argError(i, "a float")
	}
	return v, nil
}

// String coerces argument i to text
func (n *NativeCall) String(i int) (string, error) {
	v, ok := value.ToText(n.Arg(i))
	if !ok {
		return "", n.argError(i, "a string")
	}
	return v, nil
}

// Object returns argument i as an object reference
func (n *NativeCall) Object(i int) (value.Object, error) {
	v := n.Arg(i)
	if !v.IsObject() {
		return nil, n.argError(i, "an object")
	}
	return v.Obj, nil
}

// Return sets the value placed in the caller's return register
func (n *NativeCall) Return(v value.Value) {
	n.ret = v
}

func (n *NativeCall) ReturnInt(i int32) { n.Return(value.Int(i)) }

func (n *NativeCall) ReturnFloat(f float32) { n.Return(value.Float(f)) }

func (n *NativeCall) ReturnString(s string) { n.Return(value.NewStringValue(s)) }

func (n *NativeCall) ReturnObject(o value.Object) { n.Return(value.Obj(o)) }

// callNative runs a native with the top argc parameters as its arguments.
// The arguments are popped once the native returns.
func (c *Context) callNative(idx int32, argc int) (value.Value, error) {
	native, ok := c.natives.At(idx)
	if !ok {
		c.params.Drop(argc)
		return value.Null, fmt.Errorf("%w: no native at index %d", ErrType, idx)
	}
	if native.Arity >= 0 && native.Arity != argc {
		c.params.Drop(argc)
		return value.Null, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArity, native.Name, native.Arity, argc)
	}

	call := &NativeCall{ctx: c, name: native.Name, argc: argc}
	err := native.Fn(call)
	c.params.Drop(argc)
	if err != nil {
		return value.Null, fmt.Errorf("%s: %w", native.Name, err)
	}
	return call.ret, nil
}
