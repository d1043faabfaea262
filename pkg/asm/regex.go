package asm

import "regexp"

// Token patterns, tried in order. Fixed-shape operands come before IDENT so
// that r3 is a register while r3x stays an identifier.
var tokenPatterns = []struct {
	Type    TokenType
	Pattern *regexp.Regexp
}{
	{DIRECTIVE, regexp.MustCompile(`^\.[a-zA-Z]+\b`)},
	{LABEL, regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*:`)},
	{REGISTER, regexp.MustCompile(`^r\d+\b`)},
	{LOCAL, regexp.MustCompile(`^l\d+\b`)},
	{GLOBAL, regexp.MustCompile(`^g\d+\b`)},
	{SLOT, regexp.MustCompile(`^f\d+\b`)},
	{FLOAT, regexp.MustCompile(`^[+-]?(\d+\.\d+([eE][+-]?\d+)?|\d+[eE][+-]?\d+)`)},
	{INT, regexp.MustCompile(`^[+-]?\d+\b`)},
	{STRING, regexp.MustCompile(`^"([^"\\\n]|\\.)*"`)},
	{IDENT, regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*`)},
	{COMMA, regexp.MustCompile(`^,`)},
	{ASSIGN, regexp.MustCompile(`^=`)},
}

var (
	blankRegex   = regexp.MustCompile(`^[ \t\r]+`)
	commentRegex = regexp.MustCompile(`^(;|//)[^\n]*`)
)

// MatchToken matches the first token at the start of s. Blanks and comments
// match as EOF with a non-empty lexeme so the caller can skip them.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if match := blankRegex.FindString(s); match != "" {
		return EOF, match, true
	} else if match := commentRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, p := range tokenPatterns {
		if match := p.Pattern.FindString(s); match != "" {
			return p.Type, match, true
		}
	}

	return ILLEGAL, s[:1], false
}
