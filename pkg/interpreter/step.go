package interpreter

import (
	"errors"
	"fmt"

	"vesper/pkg/program"
	"vesper/pkg/value"
)

var binaryOps = map[program.Opcode]value.Op{
	program.OpAdd:    value.OpAdd,
	program.OpSub:    value.OpSub,
	program.OpMul:    value.OpMul,
	program.OpDiv:    value.OpDiv,
	program.OpMod:    value.OpMod,
	program.OpBitAnd: value.OpAnd,
	program.OpBitOr:  value.OpOr,
	program.OpBitXor: value.OpXor,
	program.OpShl:    value.OpShl,
	program.OpShr:    value.OpShr,
}

var unaryOps = map[program.Opcode]value.Op{
	program.OpInc:    value.OpInc,
	program.OpDec:    value.OpDec,
	program.OpNeg:    value.OpNeg,
	program.OpAbs:    value.OpAbs,
	program.OpBitNot: value.OpNot,
}

// coreStep executes one decoded instruction against the active frame. The
// program counter has already been advanced past it.
func coreStep(c *Context, f *Frame, in program.Instruction) error {
	reg := &f.Registers

	switch in.Op {
	case program.OpNop:

	case program.OpLoadInt:
		reg[in.A] = value.Int(in.B)
	case program.OpLoadFloat:
		reg[in.A] = value.Float(in.F)
	case program.OpLoadString:
		reg[in.A] = c.hold(value.NewStringValue(in.S))
	case program.OpLoadNull:
		reg[in.A] = value.Null

	case program.OpLoadLocal:
		reg[in.A] = c.hold(f.Locals[in.B])
	case program.OpStoreLocal:
		c.store(&f.Locals[in.B], reg[in.A])
	case program.OpLoadGlobal:
		reg[in.A] = c.hold(c.globals[in.B])
	case program.OpStoreGlobal:
		c.store(&c.globals[in.B], reg[in.A])
	case program.OpLoadFunc:
		reg[in.A] = c.hold(c.funcs[in.B])
	case program.OpStoreFunc:
		c.store(&c.funcs[in.B], reg[in.A])

	case program.OpLookupFunc:
		reg[in.A] = value.Null
		if idx, ok := c.prog.FindFunction(in.S, c.state); ok {
			reg[in.A] = value.Function(idx)
		}
	case program.OpLookupNative:
		reg[in.A] = value.Null
		if idx, ok := c.natives.Lookup(in.S); ok {
			reg[in.A] = value.Native(idx)
		}

	case program.OpMove:
		reg[in.A] = c.hold(reg[in.B])

	case program.OpAdd, program.OpSub, program.OpMul, program.OpDiv, program.OpMod,
		program.OpBitAnd, program.OpBitOr, program.OpBitXor, program.OpShl, program.OpShr:
		v, err := value.Binary(binaryOps[in.Op], reg[in.B], reg[in.C])
		if err != nil {
			return err
		}
		reg[in.A] = c.hold(v)

	case program.OpInc, program.OpDec, program.OpNeg, program.OpAbs, program.OpBitNot:
		v, err := value.Unary(unaryOps[in.Op], reg[in.B])
		if err != nil {
			return err
		}
		reg[in.A] = c.hold(v)

	case program.OpAnd, program.OpOr:
		lhs, err := truthy(reg[in.B])
		if err != nil {
			return err
		}
		rhs, err := truthy(reg[in.C])
		if err != nil {
			return err
		}
		if in.Op == program.OpAnd {
			reg[in.A] = value.Bool(lhs && rhs)
		} else {
			reg[in.A] = value.Bool(lhs || rhs)
		}
	case program.OpNot:
		b, err := truthy(reg[in.B])
		if err != nil {
			return err
		}
		reg[in.A] = value.Bool(!b)

	case program.OpCompare:
		cmp, err := value.Compare(reg[in.A], reg[in.B])
		if err != nil {
			return err
		}
		reg[program.RegCompare] = value.Int(int32(cmp))
	case program.OpTest:
		b, err := truthy(reg[in.A])
		if err != nil {
			return err
		}
		reg[program.RegCompare] = value.Bool(b)

	case program.OpJump, program.OpJumpEq, program.OpJumpNe, program.OpJumpLt,
		program.OpJumpLe, program.OpJumpGt, program.OpJumpGe:
		taken, err := branch(in.Op, reg[program.RegCompare])
		if err != nil {
			return err
		}
		if taken {
			f.PC = in.A
		}

	case program.OpNewList:
		reg[in.A] = c.hold(value.Obj(value.NewList()))
	case program.OpNewDict:
		reg[in.A] = c.hold(value.Obj(value.NewDict()))
	case program.OpAppend:
		l, ok := reg[in.A].Obj.(*value.List)
		if !reg[in.A].IsObject() || !ok {
			return fmt.Errorf("%w: append to %s", ErrType, reg[in.A].TypeName())
		}
		l.Append(reg[in.B])
	case program.OpInsert:
		d, ok := reg[in.A].Obj.(*value.Dict)
		if !reg[in.A].IsObject() || !ok {
			return fmt.Errorf("%w: insert into %s", ErrType, reg[in.A].TypeName())
		}
		return d.Insert(reg[in.B], reg[in.C])

	case program.OpGetIndex:
		obj := reg[in.B]
		if !obj.IsObject() {
			return fmt.Errorf("%w: %s is not subscriptable", ErrType, obj.TypeName())
		}
		v, err := obj.Obj.GetIndex(reg[in.C])
		if err != nil {
			return err
		}
		reg[in.A] = c.hold(v)
	case program.OpSetIndex:
		obj := reg[in.A]
		if !obj.IsObject() {
			return fmt.Errorf("%w: %s is not subscriptable", ErrType, obj.TypeName())
		}
		return obj.Obj.SetIndex(reg[in.B], reg[in.C])

	case program.OpGetAttr:
		obj := reg[in.B]
		if !obj.IsObject() {
			return fmt.Errorf("%w: %s has no attribute %q", ErrType, obj.TypeName(), in.S)
		}
		v, err := obj.Obj.GetAttr(in.S)
		if err != nil {
			return err
		}
		reg[in.A] = c.hold(v)
	case program.OpSetAttr:
		obj := reg[in.A]
		if !obj.IsObject() {
			return fmt.Errorf("%w: %s has no attribute %q", ErrType, obj.TypeName(), in.S)
		}
		err := obj.Obj.SetAttr(in.S, reg[in.B])
		if errors.Is(err, value.ErrUnsupported) {
			err = obj.Obj.SetIndex(c.hold(value.NewStringValue(in.S)), reg[in.B])
		}
		return err

	case program.OpPushParam:
		c.params.Push(reg[in.A])
	case program.OpCall:
		return c.call(f, reg[in.A], int(in.B))
	case program.OpReturn:
		return c.ret(value.Null)
	case program.OpReturnValue:
		return c.ret(reg[in.A])
	case program.OpYield:
		return c.yield(reg[in.A])

	case program.OpIterate:
		src := reg[in.B]
		if !src.IsObject() {
			return fmt.Errorf("%w: %s is not iterable", ErrIteration, src.TypeName())
		}
		it, err := src.Obj.Iterate()
		if err != nil {
			return err
		}
		reg[in.A] = c.hold(value.Obj(it))
	case program.OpIterNext:
		it, ok := reg[in.B].Obj.(value.Iterator)
		if !reg[in.B].IsObject() || !ok {
			return fmt.Errorf("%w: %s is not an iterator", ErrIteration, reg[in.B].TypeName())
		}
		if it.Finished() {
			f.PC = in.C
			return nil
		}
		v, more, err := it.Next()
		if err != nil {
			return err
		}
		if !more {
			f.PC = in.C
			return nil
		}
		reg[in.A] = c.hold(v)

	case program.OpTypeOf:
		reg[in.A] = c.hold(value.NewStringValue(reg[in.B].TypeName()))
	case program.OpIsType:
		reg[in.A] = value.Bool(reg[in.B].TypeName() == in.S)
	case program.OpCast:
		v, err := cast(reg[in.B], in.S)
		if err != nil {
			return err
		}
		reg[in.A] = c.hold(v)

	case program.OpSetState:
		if in.A >= 0 && (int(in.A) >= len(c.symbols) || c.symbols[in.A].Kind != program.SymbolState) {
			return fmt.Errorf("%w: symbol %d is not a state", ErrOpcode, in.A)
		}
		c.state = max(in.A, -1)
		c.log.Debug("state change", "state", c.stateName(), "frame", f.Name())

	default:
		return fmt.Errorf("%w: unknown opcode %d", ErrOpcode, uint8(in.Op))
	}

	return nil
}

// branch decides a conditional jump from the comparison register
func branch(op program.Opcode, cmp value.Value) (bool, error) {
	if op == program.OpJump {
		return true, nil
	}
	if cmp.Kind != value.KindInt {
		return false, fmt.Errorf("%w: comparison register holds %s", ErrType, cmp.TypeName())
	}

	switch op {
	case program.OpJumpEq:
		return cmp.I == 0, nil
	case program.OpJumpNe:
		return cmp.I != 0, nil
	case program.OpJumpLt:
		return cmp.I < 0, nil
	case program.OpJumpLe:
		return cmp.I <= 0, nil
	case program.OpJumpGt:
		return cmp.I > 0, nil
	default:
		return cmp.I >= 0, nil
	}
}

func cast(v value.Value, to string) (value.Value, error) {
	switch to {
	case "int":
		if i, ok := value.ToInt(v); ok {
			return value.Int(i), nil
		}
	case "float":
		if f, ok := value.ToFloat(v); ok {
			return value.Float(f), nil
		}
	case "string":
		if s, ok := value.ToText(v); ok {
			return value.NewStringValue(s), nil
		}
	default:
		return value.Null, fmt.Errorf("%w: unknown cast target %q", ErrOpcode, to)
	}
	return value.Null, fmt.Errorf("%w: cannot cast %s to %s", ErrType, v.TypeName(), to)
}

func (c *Context) stateName() string {
	if c.state < 0 {
		return "none"
	}
	return c.symbols[c.state].Name
}
