package interpreter

import (
	"vesper/pkg/program"
	"vesper/pkg/value"
)

// Frame is one activation record: a program counter, the register file and
// the locals of the function being executed.
type Frame struct {
	PC        int32
	Registers [program.Registers]value.Value
	Locals    []value.Value
	Function  *program.Symbol // nil for the global scope
	Symbol    int32           // index of Function in the symbol table, -1 for the global scope
	Generator *Generator      // set while the frame runs a generator body

	host bool // pushed by a host call; its return value goes to the host slot
}

func (f *Frame) Name() string {
	if f.Function == nil {
		return "<global>"
	}
	return f.Function.Name
}

// holds reports whether any register of the frame references o
func (f *Frame) holds(o value.Object) bool {
	for i := range f.Registers {
		if r := f.Registers[i]; r.Kind == value.KindObject && r.Obj == o {
			return true
		}
	}
	return false
}

// release drops the references held by the locals
func (f *Frame) release() {
	for i, v := range f.Locals {
		value.Release(v)
		f.Locals[i] = value.Null
	}
	f.Locals = nil
}
