package program

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble writes a listing of the program: the symbol table, then one
// line per instruction with its address and source line. Function entries
// and the global entry point are labelled.
func Disassemble(w io.Writer, p *Program) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "; %s: %d instructions, %d globals, %d function slots\n",
		p.File, len(p.Instructions), p.Globals, p.Functions)
	for i, sym := range p.Symbols {
		owner := ""
		if sym.State >= 0 && int(sym.State) < len(p.Symbols) {
			owner = " state=" + p.Symbols[sym.State].Name
		}
		fmt.Fprintf(&sb, "; #%d %s%s\n", i, sym, owner)
	}

	entries := make(map[int32][]string)
	entries[p.Entry] = append(entries[p.Entry], "<entry>")
	for _, sym := range p.Symbols {
		if sym.IsFunction() {
			entries[sym.Entry] = append(entries[sym.Entry], sym.Name)
		}
	}

	for pc, ins := range p.Instructions {
		for _, name := range entries[int32(pc)] {
			fmt.Fprintf(&sb, "%s:\n", name)
		}
		fmt.Fprintf(&sb, "  %04d %4d  %-8s %s\n", pc, ins.Line, ins.Op, ins.Operands(p.Symbols))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
