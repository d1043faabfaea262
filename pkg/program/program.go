package program

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidProgram = errors.New("invalid program")

// Program is the compiled input handed to an execution context. It is
// treated as read-only once built.
type Program struct {
	File         string        `cbor:"1,keyasint"`
	Source       string        `cbor:"2,keyasint,omitempty"`
	Instructions []Instruction `cbor:"3,keyasint"`
	Symbols      []Symbol      `cbor:"4,keyasint"`
	Globals      int32         `cbor:"5,keyasint"`
	Functions    int32         `cbor:"6,keyasint"`
	Entry        int32         `cbor:"7,keyasint"`
}

// Find returns the index of the first symbol with the given name and kind
func (p *Program) Find(kind SymbolKind, name string) (int32, bool) {
	for i, sym := range p.Symbols {
		if sym.Kind == kind && sym.Name == name {
			return int32(i), true
		}
	}
	return -1, false
}

// FindFunction resolves a function by name. A function owned by state wins
// over a stateless one; functions owned by other states are invisible.
func (p *Program) FindFunction(name string, state int32) (int32, bool) {
	found := int32(-1)
	for i, sym := range p.Symbols {
		if sym.Kind != SymbolFunction || sym.Name != name {
			continue
		}
		switch {
		case state >= 0 && sym.State == state:
			return int32(i), true
		case sym.State < 0 && found < 0:
			found = int32(i)
		}
	}
	return found, found >= 0
}

// SourceLine returns the 1-based line of the source text, or "" when the
// program carries no source.
func (p *Program) SourceLine(line int32) string {
	if line <= 0 || p.Source == "" {
		return ""
	}
	lines := strings.Split(p.Source, "\n")
	if int(line) > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// Validate checks the structural references between the symbol table and
// the instruction array. Operand well-formedness is not checked.
func (p *Program) Validate() error {
	n := int32(len(p.Instructions))
	if p.Globals < 0 || p.Functions < 0 {
		return fmt.Errorf("%w: %d globals, %d functions", ErrInvalidProgram, p.Globals, p.Functions)
	}
	if p.Entry < 0 || (n > 0 && p.Entry >= n) {
		return fmt.Errorf("%w: entry %d outside %d instructions", ErrInvalidProgram, p.Entry, n)
	}

	for i, sym := range p.Symbols {
		switch sym.Kind {
		case SymbolFunction:
			if sym.Entry < 0 || sym.Entry >= n {
				return fmt.Errorf("%w: function %s entry %d out of range", ErrInvalidProgram, sym.Name, sym.Entry)
			}
			if sym.Index < 0 || sym.Index >= p.Functions {
				return fmt.Errorf("%w: function %s slot %d out of range", ErrInvalidProgram, sym.Name, sym.Index)
			}
			if sym.Params < 0 || sym.Locals < sym.Params {
				return fmt.Errorf("%w: function %s has %d locals for %d params", ErrInvalidProgram, sym.Name, sym.Locals, sym.Params)
			}
			if sym.State >= 0 && (int(sym.State) >= len(p.Symbols) || p.Symbols[sym.State].Kind != SymbolState) {
				return fmt.Errorf("%w: function %s owned by non-state symbol %d", ErrInvalidProgram, sym.Name, sym.State)
			}
		case SymbolVariable:
			if sym.Index < 0 || sym.Index >= p.Globals {
				return fmt.Errorf("%w: global %s slot %d out of range", ErrInvalidProgram, sym.Name, sym.Index)
			}
		case SymbolState:
		default:
			return fmt.Errorf("%w: symbol %d has unknown kind %d", ErrInvalidProgram, i, sym.Kind)
		}
	}
	return nil
}
