package asm

import "fmt"

type TokenType int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual text from the source
	Literal string    // Decoded value for strings and labels, the lexeme otherwise
	Pos     Position  // Position in source
}

const (
	EOF     TokenType = iota // End of input
	NEWLINE                  // end of a statement

	DIRECTIVE // .func, .state, .global, .entry, .end
	LABEL     // name:
	IDENT     // mnemonic or symbol name
	REGISTER  // r3
	LOCAL     // l0
	GLOBAL    // g1
	SLOT      // f2
	INT       // -12
	FLOAT     // 2.5e3
	STRING    // "text"
	COMMA     // ,
	ASSIGN    // =

	ILLEGAL // illegal token
)

var tokenNames = map[TokenType]string{
	EOF:       "end of input",
	NEWLINE:   "newline",
	DIRECTIVE: "directive",
	LABEL:     "label",
	IDENT:     "identifier",
	REGISTER:  "register",
	LOCAL:     "local",
	GLOBAL:    "global",
	SLOT:      "function slot",
	INT:       "integer",
	FLOAT:     "float",
	STRING:    "string",
	COMMA:     "','",
	ASSIGN:    "'='",
	ILLEGAL:   "illegal token",
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := tokenNames[t]; ok {
		return str
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// String returns a string representation of the Token
func (t Token) String() string {
	return fmt.Sprintf("T_{%s, %q, %s}", t.Type, t.Lexeme, t.Pos)
}

// IsOperandEnd reports whether the token terminates an operand list
func (t Token) IsOperandEnd() bool {
	return t.Type == NEWLINE || t.Type == EOF
}
