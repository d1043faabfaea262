// Package natives is the default host library installed into a machine's
// registry by the vesper command.
package natives

import (
	"fmt"
	"io"
	"strings"
	"time"

	"vesper/pkg/interpreter"
	"vesper/pkg/value"
)

var started = time.Now()

// Register installs the default natives into reg
func Register(reg *interpreter.Registry) {
	reg.Register("print", -1, printer(""))
	reg.Register("println", -1, printer("\n"))
	reg.Register("len", 1, length)
	reg.Register("str", 1, str)
	reg.Register("int", 1, toInt)
	reg.Register("float", 1, toFloat)
	reg.Register("typeof", 1, typeOf)
	reg.Register("abs", 1, abs)
	reg.Register("min", -1, extreme("min", -1))
	reg.Register("max", -1, extreme("max", 1))
	reg.Register("clock", 0, clock)
	reg.Register("gc", 0, collect)
	reg.Register("assert", -1, assert)
	reg.Register("parse", 1, parse)
	reg.Register("format", 1, format)
}

func printer(end string) interpreter.NativeFunc {
	return func(call *interpreter.NativeCall) error {
		parts := make([]string, call.Count())
		for i := range parts {
			parts[i] = call.Arg(i).String()
		}
		_, err := io.WriteString(call.Context().Output(), strings.Join(parts, " ")+end)
		return err
	}
}

func length(call *interpreter.NativeCall) error {
	o, err := call.Object(0)
	if err != nil {
		return err
	}
	n, err := o.GetAttr("length")
	if err != nil {
		return fmt.Errorf("%w: %s has no length", interpreter.ErrType, o.TypeName())
	}
	call.Return(n)
	return nil
}

func str(call *interpreter.NativeCall) error {
	s, err := call.String(0)
	if err != nil {
		return err
	}
	call.ReturnString(s)
	return nil
}

func toInt(call *interpreter.NativeCall) error {
	i, err := call.Int(0)
	if err != nil {
		return err
	}
	call.ReturnInt(i)
	return nil
}

func toFloat(call *interpreter.NativeCall) error {
	f, err := call.Float(0)
	if err != nil {
		return err
	}
	call.ReturnFloat(f)
	return nil
}

func typeOf(call *interpreter.NativeCall) error {
	call.ReturnString(call.Arg(0).TypeName())
	return nil
}

func abs(call *interpreter.NativeCall) error {
	v, err := value.Unary(value.OpAbs, call.Arg(0))
	if err != nil {
		return err
	}
	call.Return(v)
	return nil
}

// extreme returns the argument that compares as sign against all others
func extreme(name string, sign int) interpreter.NativeFunc {
	return func(call *interpreter.NativeCall) error {
		if call.Count() == 0 {
			return fmt.Errorf("%w: %s needs at least one argument", interpreter.ErrArity, name)
		}
		best := call.Arg(0)
		for i := 1; i < call.Count(); i++ {
			v := call.Arg(i)
			c, err := value.Compare(v, best)
			if err != nil {
				return err
			}
			if c == sign {
				best = v
			}
		}
		call.Return(best)
		return nil
	}
}

// clock returns the milliseconds elapsed since the process started
func clock(call *interpreter.NativeCall) error {
	call.ReturnInt(int32(time.Since(started).Milliseconds()))
	return nil
}

// collect forces a full collection and returns the number of objects freed
func collect(call *interpreter.NativeCall) error {
	ctx := call.Context()
	before := ctx.Stats().Freed
	if err := ctx.Collect(); err != nil {
		return err
	}
	call.ReturnInt(int32(ctx.Stats().Freed - before))
	return nil
}

func assert(call *interpreter.NativeCall) error {
	if n := call.Count(); n < 1 || n > 2 {
		return fmt.Errorf("%w: assert expects 1 or 2 arguments, got %d", interpreter.ErrArity, n)
	}
	ok, valid := value.ToBool(call.Arg(0))
	if valid && ok {
		return nil
	}
	if call.Count() == 2 {
		return fmt.Errorf("%w: %s", interpreter.ErrAssertion, call.Arg(1))
	}
	return fmt.Errorf("%w: %s", interpreter.ErrAssertion, call.Arg(0))
}

func parse(call *interpreter.NativeCall) error {
	text, err := call.String(0)
	if err != nil {
		return err
	}
	v, err := value.Parse(text)
	if err != nil {
		return fmt.Errorf("%w: %w", interpreter.ErrType, err)
	}
	call.Return(v)
	return nil
}

func format(call *interpreter.NativeCall) error {
	call.ReturnString(value.Format(call.Arg(0)))
	return nil
}
