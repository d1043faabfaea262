package asm_test

import (
	"testing"

	"vesper/pkg/asm"
)

func TestComments(t *testing.T) {
	input := `; leading comment
loop: add r2, r2, r3 // trailing comment
	loads r4, "a;b" ; quoted semicolon stays`

	mylexer := asm.NewLexer(input)
	expectedTokens := []asm.TokenType{
		asm.NEWLINE,
		asm.LABEL, asm.IDENT, asm.REGISTER, asm.COMMA, asm.REGISTER, asm.COMMA, asm.REGISTER, asm.NEWLINE,
		asm.IDENT, asm.REGISTER, asm.COMMA, asm.STRING,
		asm.EOF,
	}

	for i, expected := range expectedTokens {
		token := mylexer.NextToken()
		if token.Type != expected {
			t.Errorf("Token %d: expected %s, got %s", i, expected, token.Type)
		}
	}
}

func TestOperandTokens(t *testing.T) {
	tests := []struct {
		input       string
		expected    asm.TokenType
		literal     string
		description string
	}{
		{"r15", asm.REGISTER, "r15", "register"},
		{"l0", asm.LOCAL, "l0", "local"},
		{"g3", asm.GLOBAL, "g3", "global"},
		{"f2", asm.SLOT, "f2", "function slot"},
		{"r3x", asm.IDENT, "r3x", "register-like identifier"},
		{"42", asm.INT, "42", "integer"},
		{"-7", asm.INT, "-7", "negative integer"},
		{"2.5", asm.FLOAT, "2.5", "float"},
		{"1e-3", asm.FLOAT, "1e-3", "exponent"},
		{`"a\tb"`, asm.STRING, "a\tb", "escaped string"},
		{"done:", asm.LABEL, "done", "label"},
		{".FUNC", asm.DIRECTIVE, "func", "directive"},
		{"=", asm.ASSIGN, "=", "assign"},
		{"#", asm.ILLEGAL, "", "illegal"},
	}

	for _, test := range tests {
		token := asm.NewLexer(test.input).NextToken()
		if token.Type != test.expected {
			t.Errorf("%s: expected %s, got %s", test.description, test.expected, token.Type)
			continue
		}
		if test.literal != "" && token.Literal != test.literal {
			t.Errorf("%s: expected literal %q, got %q", test.description, test.literal, token.Literal)
		}
	}
}

func TestPositions(t *testing.T) {
	tokens := asm.NewLexer("nop\n  ret r2").Tokens()
	ret := tokens[2]
	if ret.Lexeme != "ret" || ret.Pos.Line != 2 || ret.Pos.Column != 3 {
		t.Errorf("unexpected position for %s", ret)
	}
}
