package program

import (
	"fmt"
	"strings"
)

// Register file layout shared by code generators and the interpreter.
const (
	Registers  = 16
	RegReturn  = 0
	RegCompare = 1
)

// Opcode identifies an instruction. Operands are positional: integer-like
// operands fill A, B and C in order, a float operand fills F and a string
// operand fills S.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Loads and stores
	OpLoadInt      // A=dst B=immediate
	OpLoadFloat    // A=dst F=immediate
	OpLoadString   // A=dst S=immediate
	OpLoadNull     // A=dst
	OpLoadLocal    // A=dst B=local
	OpStoreLocal   // A=src B=local
	OpLoadGlobal   // A=dst B=global
	OpStoreGlobal  // A=src B=global
	OpLoadFunc     // A=dst B=function slot
	OpStoreFunc    // A=src B=function slot
	OpLookupFunc   // A=dst S=name, resolved against the current state first
	OpLookupNative // A=dst S=name
	OpMove         // A=dst B=src

	// Binary arithmetic and bitwise: A=dst B=lhs C=rhs
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr

	// Unary: A=dst B=src
	OpInc
	OpDec
	OpNeg
	OpAbs
	OpBitNot

	// Logic on truthiness, both sides always evaluated
	OpAnd // A=dst B=lhs C=rhs
	OpOr  // A=dst B=lhs C=rhs
	OpNot // A=dst B=src

	// Comparison and branches. Compare and Test write the comparison
	// register; conditional jumps test its sign.
	OpCompare // A=lhs B=rhs
	OpTest    // A=src, comparison register = truthy ? 1 : 0
	OpJump    // A=target
	OpJumpEq  // A=target, taken when comparison == 0
	OpJumpNe  // A=target, taken when comparison != 0
	OpJumpLt  // A=target, taken when comparison < 0
	OpJumpLe  // A=target, taken when comparison <= 0
	OpJumpGt  // A=target, taken when comparison > 0
	OpJumpGe  // A=target, taken when comparison >= 0

	// Containers, subscripts and attributes
	OpNewList  // A=dst
	OpNewDict  // A=dst
	OpAppend   // A=list B=src
	OpInsert   // A=dict B=key C=src
	OpGetIndex // A=dst B=object C=index
	OpSetIndex // A=object B=index C=src
	OpGetAttr  // A=dst B=object S=name
	OpSetAttr  // A=object B=src S=name

	// Calls
	OpPushParam   // A=src
	OpCall        // A=callee B=argument count; result lands in the return register
	OpReturn      // no value
	OpReturnValue // A=src
	OpYield       // A=src

	// Iteration
	OpIterate  // A=dst B=src
	OpIterNext // A=dst B=iterator C=target taken when finished

	// Type queries
	OpTypeOf // A=dst B=src
	OpIsType // A=dst B=src S=type name
	OpCast   // A=dst B=src S=int|float|string

	OpSetState // A=state symbol, -1 leaves every state

	opcodeCount
)

// Operand classifies one positional operand of an instruction.
type Operand uint8

const (
	OperandReg Operand = iota
	OperandLocal
	OperandGlobal
	OperandSlot
	OperandInt
	OperandFloat
	OperandString
	OperandTarget
	OperandCount
	OperandState
)

// Info describes an opcode's mnemonic and operand layout.
type Info struct {
	Name     string
	Operands []Operand
}

const (
	r = OperandReg
	l = OperandLocal
	g = OperandGlobal
	f = OperandSlot
	i = OperandInt
	x = OperandFloat
	s = OperandString
	j = OperandTarget
	n = OperandCount
	t = OperandState
)

var infos = [opcodeCount]Info{
	OpNop:          {"nop", nil},
	OpLoadInt:      {"loadi", []Operand{r, i}},
	OpLoadFloat:    {"loadf", []Operand{r, x}},
	OpLoadString:   {"loads", []Operand{r, s}},
	OpLoadNull:     {"loadn", []Operand{r}},
	OpLoadLocal:    {"ldloc", []Operand{r, l}},
	OpStoreLocal:   {"stloc", []Operand{r, l}},
	OpLoadGlobal:   {"ldglob", []Operand{r, g}},
	OpStoreGlobal:  {"stglob", []Operand{r, g}},
	OpLoadFunc:     {"ldfunc", []Operand{r, f}},
	OpStoreFunc:    {"stfunc", []Operand{r, f}},
	OpLookupFunc:   {"lookup", []Operand{r, s}},
	OpLookupNative: {"native", []Operand{r, s}},
	OpMove:         {"move", []Operand{r, r}},

	OpAdd:    {"add", []Operand{r, r, r}},
	OpSub:    {"sub", []Operand{r, r, r}},
	OpMul:    {"mul", []Operand{r, r, r}},
	OpDiv:    {"div", []Operand{r, r, r}},
	OpMod:    {"mod", []Operand{r, r, r}},
	OpBitAnd: {"band", []Operand{r, r, r}},
	OpBitOr:  {"bor", []Operand{r, r, r}},
	OpBitXor: {"bxor", []Operand{r, r, r}},
	OpShl:    {"shl", []Operand{r, r, r}},
	OpShr:    {"shr", []Operand{r, r, r}},

	OpInc:    {"inc", []Operand{r, r}},
	OpDec:    {"dec", []Operand{r, r}},
	OpNeg:    {"neg", []Operand{r, r}},
	OpAbs:    {"abs", []Operand{r, r}},
	OpBitNot: {"bnot", []Operand{r, r}},

	OpAnd: {"and", []Operand{r, r, r}},
	OpOr:  {"or", []Operand{r, r, r}},
	OpNot: {"not", []Operand{r, r}},

	OpCompare: {"cmp", []Operand{r, r}},
	OpTest:    {"test", []Operand{r}},
	OpJump:    {"jmp", []Operand{j}},
	OpJumpEq:  {"jeq", []Operand{j}},
	OpJumpNe:  {"jne", []Operand{j}},
	OpJumpLt:  {"jlt", []Operand{j}},
	OpJumpLe:  {"jle", []Operand{j}},
	OpJumpGt:  {"jgt", []Operand{j}},
	OpJumpGe:  {"jge", []Operand{j}},

	OpNewList:  {"newlist", []Operand{r}},
	OpNewDict:  {"newdict", []Operand{r}},
	OpAppend:   {"append", []Operand{r, r}},
	OpInsert:   {"insert", []Operand{r, r, r}},
	OpGetIndex: {"getidx", []Operand{r, r, r}},
	OpSetIndex: {"setidx", []Operand{r, r, r}},
	OpGetAttr:  {"getattr", []Operand{r, r, s}},
	OpSetAttr:  {"setattr", []Operand{r, r, s}},

	OpPushParam:   {"push", []Operand{r}},
	OpCall:        {"call", []Operand{r, n}},
	OpReturn:      {"ret", nil},
	OpReturnValue: {"retv", []Operand{r}},
	OpYield:       {"yield", []Operand{r}},

	OpIterate:  {"iter", []Operand{r, r}},
	OpIterNext: {"next", []Operand{r, r, j}},

	OpTypeOf: {"typeof", []Operand{r, r}},
	OpIsType: {"is", []Operand{r, r, s}},
	OpCast:   {"cast", []Operand{r, r, s}},

	OpSetState: {"state", []Operand{t}},
}

var byName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(infos))
	for op, info := range infos {
		m[info.Name] = Opcode(op)
	}
	return m
}()

// Info returns the operand layout of the opcode
func (op Opcode) Info() (Info, bool) {
	if op >= opcodeCount {
		return Info{}, false
	}
	return infos[op], true
}

// Valid reports whether op is a known opcode
func (op Opcode) Valid() bool {
	return op < opcodeCount
}

func (op Opcode) String() string {
	if op < opcodeCount {
		return infos[op].Name
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// IsJump reports whether the opcode branches on its A operand
func (op Opcode) IsJump() bool {
	return op >= OpJump && op <= OpJumpGe
}

// Lookup finds an opcode by its mnemonic
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := byName[strings.ToLower(mnemonic)]
	return op, ok
}
