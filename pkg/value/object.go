package value

import "errors"

var (
	ErrUnsupported   = errors.New("operation not supported")
	ErrIndex         = errors.New("index out of range")
	ErrMissingKey    = errors.New("key not found")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrImmutable     = errors.New("value is immutable")
	ErrNotIterable   = errors.New("value is not iterable")
	ErrDivideByZero  = errors.New("division by zero")
	ErrArgumentCount = errors.New("wrong number of arguments")
)

// Op names an operator of the fixed operator table.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr

	OpInc
	OpDec
	OpNeg
	OpAbs
	OpNot
)

var opNames = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpAnd: "&", OpOr: "|", OpXor: "^", OpShl: "<<", OpShr: ">>",
	OpInc: "++", OpDec: "--", OpNeg: "neg", OpAbs: "abs", OpNot: "~",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// Object is the capability surface every heap value answers. Coercions
// report failure through their boolean result; operators report
// ErrUnsupported when the variant does not implement them.
type Object interface {
	Header() *Header
	TypeName() string

	ToInt() (int32, bool)
	ToFloat() (float32, bool)
	ToString() (string, bool)
	ToBool() (bool, bool)

	Binary(op Op, rhs Value) (Value, error)
	Unary(op Op) (Value, error)
	Compare(rhs Value) (int, error)

	GetIndex(idx Value) (Value, error)
	SetIndex(idx, v Value) error
	GetAttr(name string) (Value, error)
	SetAttr(name string, v Value) error

	Iterate() (Iterator, error)
	Invoke(args []Value) (Value, error)

	// Finalize releases every reference the object holds. It is called once,
	// by the collector or at context teardown.
	Finalize()
}

// Iterator walks a sequence. Finished never advances the walk.
type Iterator interface {
	Object
	Next() (Value, bool, error)
	Finished() bool
}

// Container is implemented by objects holding other values, so that freshly
// created children can be registered with the collector alongside their parent.
type Container interface {
	Each(fn func(Value))
}

// Base provides the unsupported default for the whole capability surface.
// Variants embed it and override what they support.
type Base struct {
	header Header
}

func (b *Base) Header() *Header { return &b.header }

func (b *Base) TypeName() string { return "object" }

func (b *Base) ToInt() (int32, bool) { return 0, false }
func (b *Base) ToFloat() (float32, bool) { return 0, false }
func (b *Base) ToString() (string, bool) { return "", false }
func (b *Base) ToBool() (bool, bool) { return false, false }

func (b *Base) Binary(Op, Value) (Value, error) { return Null, ErrUnsupported }
func (b *Base) Unary(Op) (Value, error) { return Null, ErrUnsupported }
func (b *Base) Compare(Value) (int, error) { return 0, ErrUnsupported }

func (b *Base) GetIndex(Value) (Value, error) { return Null, ErrUnsupported }
func (b *Base) SetIndex(Value, Value) error { return ErrUnsupported }
func (b *Base) GetAttr(string) (Value, error) { return Null, ErrUnsupported }
func (b *Base) SetAttr(string, Value) error { return ErrUnsupported }
func (b *Base) Iterate() (Iterator, error) { return nil, ErrNotIterable }
func (b *Base) Invoke([]Value) (Value, error) { return Null, ErrUnsupported }
func (b *Base) Finalize() {}
