package asm_test

import (
	"errors"
	"strings"
	"testing"

	"vesper/pkg/asm"
	"vesper/pkg/color"
	"vesper/pkg/program"

	"github.com/google/go-cmp/cmp"
)

const addSource = `; add(a, b)
.global total

.func add 2 2
	ldloc r2, l0
	ldloc r3, l1
	add r2, r2, r3
	retv r2
.end

.entry
	loadi r2, 2
	push r2
	loadi r2, 3
	push r2
	ldfunc r4, add
	call r4, 2
	stglob r0, total
	ret
`

func TestAssemble(t *testing.T) {
	p, err := asm.Assemble("add.vasm", addSource)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	fn, ok := p.FindFunction("add", -1)
	if !ok {
		t.Fatal("add not declared")
	}
	sym := p.Symbols[fn]
	if sym.Params != 2 || sym.Locals != 2 || sym.Entry != 0 || sym.Index != 0 {
		t.Errorf("unexpected symbol %+v", sym)
	}

	if p.Entry != 4 || p.Globals != 1 || p.Functions != 1 {
		t.Errorf("unexpected layout: entry=%d globals=%d functions=%d", p.Entry, p.Globals, p.Functions)
	}

	var ops []program.Opcode
	for _, ins := range p.Instructions[p.Entry:] {
		ops = append(ops, ins.Op)
	}
	expected := []program.Opcode{
		program.OpLoadInt, program.OpPushParam, program.OpLoadInt, program.OpPushParam,
		program.OpLoadFunc, program.OpCall, program.OpStoreGlobal, program.OpReturn,
	}
	if diff := cmp.Diff(expected, ops); diff != "" {
		t.Errorf("entry code (-want +got):\n%s", diff)
	}

	call := p.Instructions[p.Entry+5]
	if call.A != 4 || call.B != 2 || call.Line != 17 || call.Column != 2 {
		t.Errorf("unexpected call instruction %+v", call)
	}
	if p.SourceLine(call.Line) != "\tcall r4, 2" {
		t.Errorf("source line not kept: %q", p.SourceLine(call.Line))
	}
}

func TestAssembleLoopsAndStates(t *testing.T) {
	source := `.state idle
.func count 1 2 generator state=idle
	loadi r2, 0
	stloc r2, l1
top:
	ldloc r2, l1
	ldloc r3, l0
	cmp r2, r3
	jge done
	yield r2
	inc r2, r2
	stloc r2, l1
	jmp top
done:
	ret
.end
.entry
	state idle
	loadf r2, 1.5
	getattr r3, r2, "length"
	ret
`
	p, err := asm.Assemble("gen.vasm", source)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	idle, _ := p.Find(program.SymbolState, "idle")
	fn, ok := p.FindFunction("count", idle)
	if !ok || !p.Symbols[fn].Generator || p.Symbols[fn].State != idle {
		t.Fatalf("generator symbol not declared correctly: %+v", p.Symbols)
	}

	jge := p.Instructions[5]
	if jge.Op != program.OpJumpGe || jge.A != 10 {
		t.Errorf("expected jge to 10, got %s", jge)
	}
	jmp := p.Instructions[9]
	if jmp.Op != program.OpJump || jmp.A != 2 {
		t.Errorf("expected jmp to 2, got %s", jmp)
	}

	entry := p.Instructions[p.Entry]
	if entry.Op != program.OpSetState || entry.A != idle {
		t.Errorf("expected state switch, got %s", entry)
	}
	if f := p.Instructions[p.Entry+1]; f.F != 1.5 {
		t.Errorf("expected float immediate, got %s", f)
	}
	if s := p.Instructions[p.Entry+2]; s.S != "length" {
		t.Errorf("expected string immediate, got %s", s)
	}
}

func TestAssembleErrors(t *testing.T) {
	color.EnableColor(false)

	tests := []struct {
		source   string
		expected string
	}{
		{"bogus r1", `1:1: unknown instruction "bogus"`},
		{"add r1, r2", "1:1: add expects 3 operands, got 2"},
		{"move r1 r2", "1:9: missing ',' before register"},
		{"loadi r99, 1", "1:7: register r99 out of range"},
		{"ldloc r2, l0", "1:11: local l0 used outside of a function"},
		{"jmp nowhere", `1:5: undefined label "nowhere"`},
		{".func f 2 1\nret\n.end", "1:11: function f needs at least 2 locals"},
		{".func f 0 0\nret", "function f has no .end"},
		{"x:\nx:\nret", `2:1: label "x" redefined`},
		{"loads r2, 5", "1:11: expected string, found integer"},
		{".bogus", "1:1: unknown directive .bogus"},
		{"nop @", `1:5: illegal token "@"`},
	}

	for _, test := range tests {
		_, err := asm.Assemble("bad.vasm", test.source)
		var list *asm.ErrorList
		if !errors.As(err, &list) {
			t.Errorf("%q: expected *asm.ErrorList, got %v", test.source, err)
			continue
		}
		if !strings.Contains(list.Error(), test.expected) {
			t.Errorf("%q: expected %q in %q", test.source, test.expected, list.Error())
		}
	}
}

func TestErrorReportHasCaret(t *testing.T) {
	color.EnableColor(false)

	_, err := asm.Assemble("bad.vasm", "nop\n  loadi r2, x")
	var list *asm.ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("expected *asm.ErrorList, got %v", err)
	}

	expected := "Error at bad.vasm:2:13: unexpected identifier \"x\"\n" +
		"   2 |   loadi r2, x\n" +
		"     |             ^"
	if diff := cmp.Diff(expected, list.Report()); diff != "" {
		t.Errorf("report (-want +got):\n%s", diff)
	}
}
