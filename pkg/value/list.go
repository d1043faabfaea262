package value

import (
	"fmt"
)

// List is an ordered sequence of values. Every element slot holds a
// reference on its object.
type List struct {
	Base
	items []Value
}

// NewList creates a list holding items, retaining each of them
func NewList(items ...Value) *List {
	l := &List{items: make([]Value, 0, len(items))}
	for _, v := range items {
		l.Append(v)
	}
	return l
}

func (l *List) TypeName() string { return "list" }

// Len returns the number of elements
func (l *List) Len() int { return len(l.items) }

// At returns the element at index i
func (l *List) At(i int) Value { return l.items[i] }

// Items returns a copy of the elements
func (l *List) Items() []Value {
	return append([]Value(nil), l.items...)
}

// Append adds v at the end of the list
func (l *List) Append(v Value) {
	Retain(v)
	l.items = append(l.items, v)
}

// Set replaces the element at index i
func (l *List) Set(i int, v Value) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: %d (length %d)", ErrIndex, i, len(l.items))
	}
	Retain(v)
	Release(l.items[i])
	l.items[i] = v
	return nil
}

// Insert places v before index i; i == Len appends.
func (l *List) Insert(i int, v Value) error {
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("%w: %d (length %d)", ErrIndex, i, len(l.items))
	}
	Retain(v)
	l.items = append(l.items, Null)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	return nil
}

// RemoveAt deletes and returns the element at index i. The returned value
// no longer carries the list's reference.
func (l *List) RemoveAt(i int) (Value, error) {
	if i < 0 || i >= len(l.items) {
		return Null, fmt.Errorf("%w: %d (length %d)", ErrIndex, i, len(l.items))
	}
	v := l.items[i]
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = Null
	l.items = l.items[:len(l.items)-1]
	Release(v)
	return v, nil
}

func (l *List) Each(fn func(Value)) {
	for _, v := range l.items {
		fn(v)
	}
}

func (l *List) ToString() (string, bool) { return Format(Obj(l)), true }

func (l *List) ToBool() (bool, bool) { return len(l.items) > 0, true }

func (l *List) Binary(op Op, rhs Value) (Value, error) {
	other, ok := rhs.Obj.(*List)
	if op != OpAdd || !rhs.IsObject() || !ok {
		return Null, ErrUnsupported
	}

	out := NewList(l.items...)
	for _, v := range other.items {
		out.Append(v)
	}
	return Obj(out), nil
}

func (l *List) index(idx Value) (int, error) {
	i, ok := ToInt(idx)
	if !ok || idx.Kind == KindObject {
		return 0, fmt.Errorf("%w: list index must be int, got %s", ErrUnsupported, idx.TypeName())
	}
	if i < 0 || int(i) >= len(l.items) {
		return 0, fmt.Errorf("%w: %d (length %d)", ErrIndex, i, len(l.items))
	}
	return int(i), nil
}

func (l *List) GetIndex(idx Value) (Value, error) {
	i, err := l.index(idx)
	if err != nil {
		return Null, err
	}
	return l.items[i], nil
}

func (l *List) SetIndex(idx, v Value) error {
	i, err := l.index(idx)
	if err != nil {
		return err
	}
	return l.Set(i, v)
}

func (l *List) GetAttr(name string) (Value, error) {
	recv := Obj(l)
	switch name {
	case "length":
		return Int(int32(len(l.items))), nil
	case "push":
		return Obj(NewMethod(name, recv, 1, func(args []Value) (Value, error) {
			l.Append(args[0])
			return Int(int32(len(l.items))), nil
		})), nil
	case "pop":
		return Obj(NewMethod(name, recv, 0, func([]Value) (Value, error) {
			if len(l.items) == 0 {
				return Null, fmt.Errorf("%w: pop from empty list", ErrIndex)
			}
			return l.RemoveAt(len(l.items) - 1)
		})), nil
	case "insert":
		return Obj(NewMethod(name, recv, 2, func(args []Value) (Value, error) {
			i, ok := ToInt(args[0])
			if !ok {
				return Null, fmt.Errorf("%w: insert position must be int", ErrUnsupported)
			}
			return Null, l.Insert(int(i), args[1])
		})), nil
	case "remove":
		return Obj(NewMethod(name, recv, 1, func(args []Value) (Value, error) {
			i, ok := ToInt(args[0])
			if !ok {
				return Null, fmt.Errorf("%w: remove position must be int", ErrUnsupported)
			}
			return l.RemoveAt(int(i))
		})), nil
	case "contains":
		return Obj(NewMethod(name, recv, 1, func(args []Value) (Value, error) {
			for _, v := range l.items {
				if Equal(v, args[0]) {
					return Int(1), nil
				}
			}
			return Int(0), nil
		})), nil
	}
	return Null, fmt.Errorf("%w: list has no attribute %q", ErrUnsupported, name)
}

func (l *List) Iterate() (Iterator, error) {
	return &ListIterator{list: l}, nil
}

func (l *List) Finalize() {
	for _, v := range l.items {
		Release(v)
	}
	l.items = nil
}

// ListIterator walks a list with a cursor. The list is borrowed, not
// retained; mutating it during the walk has no defined result.
type ListIterator struct {
	Base
	list   *List
	cursor int
}

func (it *ListIterator) TypeName() string { return "iterator" }

func (it *ListIterator) ToBool() (bool, bool) { return !it.Finished(), true }

func (it *ListIterator) Finished() bool {
	return it.cursor >= len(it.list.items)
}

func (it *ListIterator) Next() (Value, bool, error) {
	if it.Finished() {
		return Null, false, nil
	}
	v := it.list.items[it.cursor]
	it.cursor++
	return v, true, nil
}

func (it *ListIterator) Iterate() (Iterator, error) { return it, nil }
