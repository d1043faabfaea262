package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"vesper/pkg/color"
	"vesper/pkg/value"
)

// Fatal error kinds. Every runtime error halts its context and wraps one of
// these, so callers can tell them apart with errors.Is.
var (
	ErrType      = errors.New("type error")
	ErrIndex     = errors.New("index error")
	ErrImmutable = errors.New("immutability error")
	ErrArity     = errors.New("arity error")
	ErrIteration = errors.New("iteration error")
	ErrOpcode    = errors.New("opcode error")
	ErrAssertion = errors.New("assertion failed")
)

// Host-side errors. These are returned to the caller without halting.
var (
	ErrUnknownFunction  = errors.New("unknown function")
	ErrClosed           = errors.New("context closed")
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
)

// RuntimeError describes a fatal error together with the source location of
// the instruction that raised it.
type RuntimeError struct {
	Kind       error
	File       string
	Line       int
	Column     int
	SourceLine string
	PC         int32
	Message    string
	Err        error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Kind, e.Message)
}

func (e *RuntimeError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Diagnostic renders the error with the offending source line and a caret
// under its column.
func (e *RuntimeError) Diagnostic() string {
	return color.Diagnostic(kindTitle(e.Kind), e.File, e.Line, e.Column, e.Message, e.SourceLine)
}

func kindTitle(kind error) string {
	s := kind.Error()
	if s == "" {
		return "Error"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// classify maps an error raised by an object or native onto a fatal kind.
func classify(err error) error {
	for _, kind := range []error{ErrType, ErrIndex, ErrImmutable, ErrArity, ErrIteration, ErrOpcode, ErrAssertion} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	switch {
	case errors.Is(err, value.ErrIndex),
		errors.Is(err, value.ErrMissingKey),
		errors.Is(err, value.ErrDuplicateKey):
		return ErrIndex
	case errors.Is(err, value.ErrImmutable):
		return ErrImmutable
	case errors.Is(err, value.ErrNotIterable):
		return ErrIteration
	case errors.Is(err, value.ErrArgumentCount):
		return ErrArity
	default:
		return ErrType
	}
}
