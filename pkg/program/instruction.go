package program

import (
	"fmt"
	"strconv"
	"strings"
)

// Instruction is one entry of the flat instruction array. Line and Column
// point at the token the instruction was generated from.
type Instruction struct {
	Op     Opcode  `cbor:"1,keyasint"`
	A      int32   `cbor:"2,keyasint,omitempty"`
	B      int32   `cbor:"3,keyasint,omitempty"`
	C      int32   `cbor:"4,keyasint,omitempty"`
	F      float32 `cbor:"5,keyasint,omitempty"`
	S      string  `cbor:"6,keyasint,omitempty"`
	Line   int32   `cbor:"7,keyasint,omitempty"`
	Column int32   `cbor:"8,keyasint,omitempty"`
}

// Operands renders the operands of the instruction in assembler syntax.
// symbols resolves state operands to their names and may be nil.
func (ins Instruction) Operands(symbols []Symbol) string {
	info, ok := ins.Op.Info()
	if !ok {
		return fmt.Sprintf("%d, %d, %d", ins.A, ins.B, ins.C)
	}

	ints := [3]int32{ins.A, ins.B, ins.C}
	next := 0
	parts := make([]string, 0, len(info.Operands))
	for _, kind := range info.Operands {
		switch kind {
		case OperandFloat:
			parts = append(parts, strconv.FormatFloat(float64(ins.F), 'g', -1, 32))
			continue
		case OperandString:
			parts = append(parts, strconv.Quote(ins.S))
			continue
		}

		v := ints[next]
		next++
		switch kind {
		case OperandReg:
			parts = append(parts, fmt.Sprintf("r%d", v))
		case OperandLocal:
			parts = append(parts, fmt.Sprintf("l%d", v))
		case OperandGlobal:
			parts = append(parts, fmt.Sprintf("g%d", v))
		case OperandSlot:
			parts = append(parts, fmt.Sprintf("f%d", v))
		case OperandTarget:
			parts = append(parts, fmt.Sprintf("@%d", v))
		case OperandState:
			if v >= 0 && int(v) < len(symbols) {
				parts = append(parts, symbols[v].Name)
			} else {
				parts = append(parts, "none")
			}
		default:
			parts = append(parts, strconv.Itoa(int(v)))
		}
	}
	return strings.Join(parts, ", ")
}

func (ins Instruction) String() string {
	ops := ins.Operands(nil)
	if ops == "" {
		return ins.Op.String()
	}
	return ins.Op.String() + " " + ops
}
