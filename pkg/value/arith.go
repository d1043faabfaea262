package value

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// category orders operands for implicit casts: string outranks float,
// float outranks int.
type category uint8

const (
	catOther category = iota
	catNull
	catInt
	catFloat
	catObject
	catString
)

func categoryOf(v Value) category {
	switch v.Kind {
	case KindInt:
		return catInt
	case KindFloat:
		return catFloat
	case KindNull:
		return catNull
	case KindObject:
		if v.Obj == nil {
			return catNull
		}
		if _, ok := v.Obj.(*String); ok {
			return catString
		}
		return catObject
	}
	return catOther
}

// TypeError reports an operator that no step of the coercion ladder could
// serve. It wraps ErrUnsupported.
func TypeError(op fmt.Stringer, a, b Value) error {
	return fmt.Errorf("%w: %s %s %s", ErrUnsupported, a.TypeName(), op, b.TypeName())
}

// Binary applies a binary operator. Object operators are tried first; when a
// string takes part the other operand is coerced to text, otherwise objects
// are coerced to float and then int before the numeric operator runs.
func Binary(op Op, a, b Value) (Value, error) {
	ca, cb := categoryOf(a), categoryOf(b)

	if ca == catString || ca == catObject {
		r, err := a.Obj.Binary(op, b)
		if !errors.Is(err, ErrUnsupported) {
			return r, err
		}
	}

	if ca == catString || cb == catString {
		if op != OpAdd {
			return Null, TypeError(op, a, b)
		}
		sa, okA := ToText(a)
		sb, okB := ToText(b)
		if !okA || !okB {
			return Null, TypeError(op, a, b)
		}
		return Obj(NewString(sa + sb)), nil
	}

	if ca == catObject || cb == catObject {
		na, okA := demote(a)
		nb, okB := demote(b)
		if !okA || !okB {
			return Null, TypeError(op, a, b)
		}
		return numeric(op, na, nb)
	}

	if (ca != catInt && ca != catFloat) || (cb != catInt && cb != catFloat) {
		return Null, TypeError(op, a, b)
	}

	return numeric(op, a, b)
}

// demote walks an object operand down the ladder, float first so precision
// is kept when the object can provide it.
func demote(v Value) (Value, bool) {
	if !v.IsObject() {
		return v, v.Kind == KindInt || v.Kind == KindFloat
	}

	f, fok := v.Obj.ToFloat()
	i, iok := v.Obj.ToInt()
	switch {
	case iok && (!fok || float32(i) == f):
		return Int(i), true
	case fok:
		return Float(f), true
	}
	return Null, false
}

func numeric(op Op, a, b Value) (Value, error) {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		switch op {
		case OpAdd, OpSub, OpMul, OpDiv:
			r, _ := arith(op, fa, fb)
			return Float(r), nil
		case OpMod:
			return Float(float32(math.Mod(float64(fa), float64(fb)))), nil
		}
		return Null, TypeError(op, a, b)
	}

	ia, ib := a.I, b.I
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		r, ok := arith(op, ia, ib)
		if !ok {
			return Null, ErrDivideByZero
		}
		return Int(r), nil
	case OpMod:
		if ib == 0 {
			return Null, ErrDivideByZero
		}
		return Int(ia % ib), nil
	case OpAnd:
		return Int(ia & ib), nil
	case OpOr:
		return Int(ia | ib), nil
	case OpXor:
		return Int(ia ^ ib), nil
	case OpShl:
		return Int(ia << (uint32(ib) & 31)), nil
	case OpShr:
		return Int(ia >> (uint32(ib) & 31)), nil
	}
	return Null, TypeError(op, a, b)
}

// arith reports false for an integer division by zero; float division
// follows IEEE rules.
func arith[T constraints.Integer | constraints.Float](op Op, a, b T) (T, bool) {
	switch op {
	case OpAdd:
		return a + b, true
	case OpSub:
		return a - b, true
	case OpMul:
		return a * b, true
	case OpDiv:
		var zero T
		if b == zero && isInteger(a) {
			return zero, false
		}
		return a / b, true
	}
	return a, false
}

func isInteger[T constraints.Integer | constraints.Float](v T) bool {
	switch any(v).(type) {
	case float32, float64:
		return false
	}
	return true
}

// Unary applies a unary operator, falling back through the numeric
// coercions for objects that do not implement it.
func Unary(op Op, v Value) (Value, error) {
	if v.IsObject() {
		r, err := v.Obj.Unary(op)
		if !errors.Is(err, ErrUnsupported) {
			return r, err
		}
		if categoryOf(v) == catString {
			return Null, fmt.Errorf("%w: %s %s", ErrUnsupported, op, v.TypeName())
		}
		n, ok := demote(v)
		if !ok {
			return Null, fmt.Errorf("%w: %s %s", ErrUnsupported, op, v.TypeName())
		}
		v = n
	}

	switch v.Kind {
	case KindInt:
		switch op {
		case OpInc:
			return Int(v.I + 1), nil
		case OpDec:
			return Int(v.I - 1), nil
		case OpNeg:
			return Int(-v.I), nil
		case OpAbs:
			return Int(abs(v.I)), nil
		case OpNot:
			return Int(^v.I), nil
		}
	case KindFloat:
		switch op {
		case OpInc:
			return Float(v.F + 1), nil
		case OpDec:
			return Float(v.F - 1), nil
		case OpNeg:
			return Float(-v.F), nil
		case OpAbs:
			return Float(abs(v.F)), nil
		}
	}

	return Null, fmt.Errorf("%w: %s %s", ErrUnsupported, op, v.TypeName())
}

func abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Compare orders two values, returning -1, 0 or 1. Values that cannot be
// ordered compare by identity: 0 when identical, 1 otherwise.
func Compare(a, b Value) (int, error) {
	ca, cb := categoryOf(a), categoryOf(b)

	switch {
	case ca == catString || cb == catString:
		sa, okA := ToText(a)
		sb, okB := ToText(b)
		if !okA || !okB {
			return 1, nil
		}
		return compareOrdered(sa, sb), nil

	case ca == catFloat || cb == catFloat:
		if (ca == catInt || ca == catFloat) && (cb == catInt || cb == catFloat) {
			fa, _ := ToFloat(a)
			fb, _ := ToFloat(b)
			return compareOrdered(fa, fb), nil
		}

	case ca == catInt && cb == catInt:
		return compareOrdered(a.I, b.I), nil

	case ca == catNull && cb == catNull:
		return 0, nil

	case ca == catObject:
		r, err := a.Obj.Compare(b)
		if !errors.Is(err, ErrUnsupported) {
			return r, err
		}
		if b.IsObject() && a.Obj == b.Obj {
			return 0, nil
		}
		return 1, nil

	case a.Kind == b.Kind && (a.Kind == KindFunction || a.Kind == KindNative || a.Kind == KindSymbol):
		return compareOrdered(a.Index, b.Index), nil
	}

	if a.IsObject() && b.IsObject() && a.Obj == b.Obj {
		return 0, nil
	}
	return 1, nil
}

// Equal reports whether two values compare equal
func Equal(a, b Value) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
