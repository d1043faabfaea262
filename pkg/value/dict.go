package value

import (
	"errors"
	"fmt"
)

// Dict keeps unique keys and their values in parallel slices, in insertion
// order. Lookup is linear.
type Dict struct {
	Base
	keys []Value
	vals []Value
}

// NewDict creates an empty dictionary
func NewDict() *Dict {
	return &Dict{}
}

func (d *Dict) TypeName() string { return "dict" }

// Len returns the number of entries
func (d *Dict) Len() int { return len(d.keys) }

// Keys returns a copy of the keys in insertion order
func (d *Dict) Keys() []Value { return append([]Value(nil), d.keys...) }

// Values returns a copy of the values in insertion order
func (d *Dict) Values() []Value { return append([]Value(nil), d.vals...) }

// sameKey matches keys of the same type only, so 1, 1.0 and "1" are three
// distinct keys.
func sameKey(a, b Value) bool {
	return a.Kind == b.Kind && a.TypeName() == b.TypeName() && Equal(a, b)
}

func (d *Dict) find(k Value) int {
	for i, key := range d.keys {
		if sameKey(key, k) {
			return i
		}
	}
	return -1
}

// Insert adds a new entry. A key already present is rejected with
// ErrDuplicateKey and the dictionary is left unchanged.
func (d *Dict) Insert(k, v Value) error {
	if k.IsNull() {
		return fmt.Errorf("%w: null key", ErrUnsupported)
	}
	if d.find(k) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, k)
	}
	Retain(k)
	Retain(v)
	d.keys = append(d.keys, k)
	d.vals = append(d.vals, v)
	return nil
}

// Lookup returns the value stored under k
func (d *Dict) Lookup(k Value) (Value, bool) {
	if i := d.find(k); i >= 0 {
		return d.vals[i], true
	}
	return Null, false
}

// Set stores v under k, overwriting an existing entry
func (d *Dict) Set(k, v Value) error {
	if i := d.find(k); i >= 0 {
		Retain(v)
		Release(d.vals[i])
		d.vals[i] = v
		return nil
	}
	return d.Insert(k, v)
}

// Delete removes the entry stored under k
func (d *Dict) Delete(k Value) bool {
	i := d.find(k)
	if i < 0 {
		return false
	}
	Release(d.keys[i])
	Release(d.vals[i])
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.vals = append(d.vals[:i], d.vals[i+1:]...)
	return true
}

func (d *Dict) Each(fn func(Value)) {
	for i := range d.keys {
		fn(d.keys[i])
		fn(d.vals[i])
	}
}

func (d *Dict) ToString() (string, bool) { return Format(Obj(d)), true }

func (d *Dict) ToBool() (bool, bool) { return len(d.keys) > 0, true }

func (d *Dict) GetIndex(k Value) (Value, error) {
	if v, ok := d.Lookup(k); ok {
		return v, nil
	}
	return Null, fmt.Errorf("%w: %s", ErrMissingKey, k)
}

func (d *Dict) SetIndex(k, v Value) error {
	return d.Set(k, v)
}

// GetAttr resolves built-in members first and then string keys.
func (d *Dict) GetAttr(name string) (Value, error) {
	recv := Obj(d)
	switch name {
	case "length":
		return Int(int32(len(d.keys))), nil
	case "keys":
		return Obj(NewList(d.keys...)), nil
	case "values":
		return Obj(NewList(d.vals...)), nil
	case "has":
		return Obj(NewMethod(name, recv, 1, func(args []Value) (Value, error) {
			return Bool(d.find(args[0]) >= 0), nil
		})), nil
	case "remove":
		return Obj(NewMethod(name, recv, 1, func(args []Value) (Value, error) {
			return Bool(d.Delete(args[0])), nil
		})), nil
	}

	for i, k := range d.keys {
		if s, ok := k.Obj.(*String); k.IsObject() && ok && s.s == name {
			return d.vals[i], nil
		}
	}
	return Null, fmt.Errorf("%w: %q", ErrMissingKey, name)
}

// SetAttr overwrites an existing string key. Creating a key needs a new
// string object, so absent keys report ErrUnsupported and the caller falls
// back to SetIndex with a key it owns.
func (d *Dict) SetAttr(name string, v Value) error {
	for i, k := range d.keys {
		if s, ok := k.Obj.(*String); k.IsObject() && ok && s.s == name {
			Retain(v)
			Release(d.vals[i])
			d.vals[i] = v
			return nil
		}
	}
	return ErrUnsupported
}

func (d *Dict) Iterate() (Iterator, error) {
	return &DictIterator{dict: d}, nil
}

func (d *Dict) Finalize() {
	for i := range d.keys {
		Release(d.keys[i])
		Release(d.vals[i])
	}
	d.keys = nil
	d.vals = nil
}

// DictIterator walks the keys of a dictionary in insertion order. The
// dictionary is borrowed, not retained.
type DictIterator struct {
	Base
	dict   *Dict
	cursor int
}

func (it *DictIterator) TypeName() string { return "iterator" }

func (it *DictIterator) ToBool() (bool, bool) { return !it.Finished(), true }

func (it *DictIterator) Finished() bool {
	return it.cursor >= len(it.dict.keys)
}

func (it *DictIterator) Next() (Value, bool, error) {
	if it.Finished() {
		return Null, false, nil
	}
	k := it.dict.keys[it.cursor]
	it.cursor++
	return k, true, nil
}

func (it *DictIterator) Iterate() (Iterator, error) { return it, nil }

// IsDuplicateKey reports whether err rejects a duplicate dictionary key
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}
