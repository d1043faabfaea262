package asm

import (
	"strconv"
	"strings"
)

type Lexer struct {
	input    string // input being tokenized
	length   int    // length of the input
	position int    // current offset in the input
	line     int    // current line for error reporting
	column   int    // current column for error reporting
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:  s,
		length: len(s),
		line:   1,
		column: 1,
	}
}

// Get the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		pos := l.currentPosition()
		if l.position >= l.length {
			return Token{Type: EOF, Pos: pos}
		}

		if l.input[l.position] == '\n' {
			l.advance(1)
			return Token{Type: NEWLINE, Lexeme: "\n", Pos: pos}
		}

		tokenType, lexeme, matched := MatchToken(l.input[l.position:])
		if !matched {
			l.advance(len(lexeme))
			return Token{Type: ILLEGAL, Lexeme: lexeme, Pos: pos}
		}

		// blanks and comments
		if tokenType == EOF {
			l.advance(len(lexeme))
			continue
		}

		literal := lexeme
		switch tokenType {
		case STRING:
			s, err := strconv.Unquote(lexeme)
			if err != nil {
				l.advance(len(lexeme))
				return Token{Type: ILLEGAL, Lexeme: lexeme, Pos: pos}
			}
			literal = s
		case LABEL:
			literal = strings.TrimSuffix(lexeme, ":")
		case DIRECTIVE:
			literal = strings.ToLower(lexeme[1:])
		}

		l.advance(len(lexeme))
		return Token{Type: tokenType, Lexeme: lexeme, Literal: literal, Pos: pos}
	}
}

// Tokens drains the lexer
func (l *Lexer) Tokens() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// Advance the lexer position by n bytes
func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.position >= l.length {
			break
		}

		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}

		l.position++
	}
}

func (l *Lexer) currentPosition() Position {
	return Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}
