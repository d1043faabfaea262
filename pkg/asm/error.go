package asm

import (
	"fmt"
	"strings"

	"vesper/pkg/color"
)

// Error is an assembly error tied to a source position
type Error struct {
	Pos    Position
	Msg    string
	Source string // text of the offending line
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// ErrorList collects every error of one assembly run
type ErrorList struct {
	File   string
	Errors []*Error
}

func (l *ErrorList) add(pos Position, source, format string, args ...any) {
	l.Errors = append(l.Errors, &Error{Pos: pos, Msg: fmt.Sprintf(format, args...), Source: source})
}

func (l *ErrorList) Error() string {
	if len(l.Errors) == 0 {
		return "no errors"
	}
	first := fmt.Sprintf("%s:%s", l.File, l.Errors[0])
	if len(l.Errors) > 1 {
		first += fmt.Sprintf(" (and %d more)", len(l.Errors)-1)
	}
	return first
}

// Report renders every error with a caret under the offending token
func (l *ErrorList) Report() string {
	var sb strings.Builder
	for i, e := range l.Errors {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(color.Diagnostic("Error", l.File, e.Pos.Line, e.Pos.Column, e.Msg, e.Source))
	}
	return sb.String()
}
