package value

import (
	"fmt"
	"strconv"
	"strings"
)

// String is an immutable text object.
type String struct {
	Base
	s string
}

// NewString creates a new string object
func NewString(s string) *String {
	return &String{s: s}
}

// NewStringValue wraps a new string object in a Value
func NewStringValue(s string) Value {
	return Obj(NewString(s))
}

// Value returns the Go string held by the object
func (s *String) Value() string { return s.s }

func (s *String) TypeName() string { return "string" }

func (s *String) ToInt() (int32, bool) {
	i, err := strconv.ParseInt(strings.TrimSpace(s.s), 10, 32)
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s.s), 32)
		if ferr != nil {
			return 0, false
		}
		return int32(f), true
	}
	return int32(i), true
}

func (s *String) ToFloat() (float32, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s.s), 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

func (s *String) ToString() (string, bool) { return s.s, true }

func (s *String) ToBool() (bool, bool) { return s.s != "", true }

func (s *String) Binary(op Op, rhs Value) (Value, error) {
	if op != OpAdd {
		return Null, ErrUnsupported
	}

	text, ok := ToText(rhs)
	if !ok {
		return Null, ErrUnsupported
	}
	return NewStringValue(s.s + text), nil
}

func (s *String) Compare(rhs Value) (int, error) {
	text, ok := ToText(rhs)
	if !ok {
		return 0, ErrUnsupported
	}
	return compareOrdered(s.s, text), nil
}

func (s *String) GetIndex(idx Value) (Value, error) {
	i, ok := ToInt(idx)
	if !ok {
		return Null, fmt.Errorf("%w: string index must be int, got %s", ErrUnsupported, idx.TypeName())
	}

	runes := []rune(s.s)
	if i < 0 || int(i) >= len(runes) {
		return Null, fmt.Errorf("%w: %d (length %d)", ErrIndex, i, len(runes))
	}
	return NewStringValue(string(runes[i])), nil
}

func (s *String) SetIndex(Value, Value) error {
	return fmt.Errorf("%w: cannot assign to string element", ErrImmutable)
}

func (s *String) SetAttr(name string, _ Value) error {
	return fmt.Errorf("%w: cannot assign string attribute %q", ErrImmutable, name)
}

func (s *String) GetAttr(name string) (Value, error) {
	recv := Obj(s)
	switch name {
	case "length":
		return Int(int32(len([]rune(s.s)))), nil
	case "upper":
		return Obj(NewMethod(name, recv, 0, func([]Value) (Value, error) {
			return NewStringValue(strings.ToUpper(s.s)), nil
		})), nil
	case "lower":
		return Obj(NewMethod(name, recv, 0, func([]Value) (Value, error) {
			return NewStringValue(strings.ToLower(s.s)), nil
		})), nil
	case "find":
		return Obj(NewMethod(name, recv, 1, func(args []Value) (Value, error) {
			needle, _ := ToText(args[0])
			idx := strings.Index(s.s, needle)
			if idx < 0 {
				return Int(-1), nil
			}
			return Int(int32(len([]rune(s.s[:idx])))), nil
		})), nil
	case "split":
		return Obj(NewMethod(name, recv, 1, func(args []Value) (Value, error) {
			sep, _ := ToText(args[0])
			parts := strings.Split(s.s, sep)
			out := NewList()
			for _, p := range parts {
				out.Append(NewStringValue(p))
			}
			return Obj(out), nil
		})), nil
	}
	return Null, fmt.Errorf("%w: string has no attribute %q", ErrUnsupported, name)
}
