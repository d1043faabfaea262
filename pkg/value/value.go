package value

import (
	"fmt"
	"strconv"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindObject
	KindFunction
	KindNative
	KindSymbol
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindNative:
		return "native"
	case KindSymbol:
		return "symbol"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is the tagged union stored in every register, local, global and
// parameter slot. Only the payload matching Kind is meaningful: I for ints,
// F for floats, Obj for objects and Index for function, native and symbol
// references.
type Value struct {
	Kind  Kind
	I     int32
	F     float32
	Index int32
	Obj   Object
}

// Null is the zero Value.
var Null = Value{}

// Int creates a new integer Value
func Int(i int32) Value {
	return Value{Kind: KindInt, I: i}
}

// Float creates a new float Value
func Float(f float32) Value {
	return Value{Kind: KindFloat, F: f}
}

// Bool creates an integer Value of 1 or 0
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Obj wraps an object reference; a nil object yields Null.
func Obj(o Object) Value {
	if o == nil {
		return Null
	}
	return Value{Kind: KindObject, Obj: o}
}

// Function references a function by its symbol table index
func Function(idx int32) Value {
	return Value{Kind: KindFunction, Index: idx}
}

// Native references an entry of the native registry
func Native(idx int32) Value {
	return Value{Kind: KindNative, Index: idx}
}

// Symbol references an entry of the program symbol table
func Symbol(idx int32) Value {
	return Value{Kind: KindSymbol, Index: idx}
}

// IsNull reports whether the value is null or a nil object reference
func (v Value) IsNull() bool {
	return v.Kind == KindNull || (v.Kind == KindObject && v.Obj == nil)
}

// IsObject reports whether the value holds a live object reference
func (v Value) IsObject() bool {
	return v.Kind == KindObject && v.Obj != nil
}

// TypeName returns the script-visible type name of the value
func (v Value) TypeName() string {
	if v.IsObject() {
		return v.Obj.TypeName()
	}
	if v.Kind == KindObject {
		return KindNull.String()
	}
	return v.Kind.String()
}

// String renders the value the way script code sees it when coerced to text.
func (v Value) String() string {
	if s, ok := ToText(v); ok {
		return s
	}
	return "<" + v.TypeName() + ">"
}

// ToText coerces a value to its canonical text form.
func ToText(v Value) (string, bool) {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(int64(v.I), 10), true
	case KindFloat:
		return formatFloat(v.F), true
	case KindNull:
		return "null", true
	case KindObject:
		if v.Obj == nil {
			return "null", true
		}
		return v.Obj.ToString()
	case KindFunction:
		return fmt.Sprintf("<function %d>", v.Index), true
	case KindNative:
		return fmt.Sprintf("<native %d>", v.Index), true
	case KindSymbol:
		return fmt.Sprintf("<symbol %d>", v.Index), true
	}
	return "", false
}

// ToInt coerces a value to an integer.
func ToInt(v Value) (int32, bool) {
	switch v.Kind {
	case KindInt:
		return v.I, true
	case KindFloat:
		return int32(v.F), true
	case KindObject:
		if v.Obj == nil {
			return 0, false
		}
		return v.Obj.ToInt()
	}
	return 0, false
}

// ToFloat coerces a value to a float.
func ToFloat(v Value) (float32, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F, true
	case KindInt:
		return float32(v.I), true
	case KindObject:
		if v.Obj == nil {
			return 0, false
		}
		return v.Obj.ToFloat()
	}
	return 0, false
}

// ToBool coerces a value to its truthiness. Functions, natives and symbols
// are always true, null is always false.
func ToBool(v Value) (bool, bool) {
	switch v.Kind {
	case KindInt:
		return v.I != 0, true
	case KindFloat:
		return v.F != 0, true
	case KindNull:
		return false, true
	case KindObject:
		if v.Obj == nil {
			return false, true
		}
		return v.Obj.ToBool()
	case KindFunction, KindNative, KindSymbol:
		return true, true
	}
	return false, false
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
