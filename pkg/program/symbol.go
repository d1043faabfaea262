package program

import "fmt"

type SymbolKind uint8

const (
	SymbolFunction SymbolKind = iota
	SymbolVariable
	SymbolState
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolVariable:
		return "variable"
	case SymbolState:
		return "state"
	default:
		return fmt.Sprintf("SymbolKind(%d)", uint8(k))
	}
}

// Symbol is an entry of the compiled symbol table. Index is the global slot
// of a variable or the function-table slot of a function. The remaining
// fields only apply to functions.
type Symbol struct {
	Kind      SymbolKind `cbor:"1,keyasint"`
	Name      string     `cbor:"2,keyasint"`
	Index     int32      `cbor:"3,keyasint"`
	Entry     int32      `cbor:"4,keyasint,omitempty"`
	Params    int32      `cbor:"5,keyasint,omitempty"`
	Locals    int32      `cbor:"6,keyasint,omitempty"`
	Generator bool       `cbor:"7,keyasint,omitempty"`
	// State is the owning state symbol, or -1
	State  int32 `cbor:"8,keyasint"`
	Line   int32 `cbor:"9,keyasint,omitempty"`
	Column int32 `cbor:"10,keyasint,omitempty"`
}

func (s Symbol) IsFunction() bool { return s.Kind == SymbolFunction }

func (s Symbol) String() string {
	switch s.Kind {
	case SymbolFunction:
		kind := "func"
		if s.Generator {
			kind = "generator"
		}
		return fmt.Sprintf("%s %s(%d) locals=%d entry=%d", kind, s.Name, s.Params, s.Locals, s.Entry)
	case SymbolVariable:
		return fmt.Sprintf("global %s g%d", s.Name, s.Index)
	default:
		return fmt.Sprintf("state %s", s.Name)
	}
}
