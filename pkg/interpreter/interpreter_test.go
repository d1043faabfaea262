package interpreter_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"vesper/pkg/asm"
	"vesper/pkg/color"
	"vesper/pkg/interpreter"
	"vesper/pkg/program"
	"vesper/pkg/value"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

func quiet() interpreter.Option {
	return interpreter.WithLogger(log.New(io.Discard))
}

func load(t *testing.T, file, source string, natives *interpreter.Registry, opts ...interpreter.Option) *interpreter.Context {
	t.Helper()
	p, err := asm.Assemble(file, source)
	if err != nil {
		t.Fatalf("assemble %s: %v", file, err)
	}
	c := interpreter.NewContext(p, natives, append([]interpreter.Option{quiet()}, opts...)...)
	t.Cleanup(c.Close)
	return c
}

func run(t *testing.T, c *interpreter.Context) {
	t.Helper()
	status, err := c.Run(0)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if status != interpreter.StatusIdle {
		t.Fatalf("expected idle context, got %s", status)
	}
}

func global(t *testing.T, c *interpreter.Context, name string) value.Value {
	t.Helper()
	v, ok := c.Global(name)
	if !ok {
		t.Fatalf("global %s not declared", name)
	}
	return v
}

const addSource = `.global total
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

func TestAddFromScript(t *testing.T) {
	c := load(t, "add.vasm", addSource, nil)
	run(t, c)

	if total := global(t, c, "total"); total.Kind != value.KindInt || total.I != 5 {
		t.Errorf("expected total 5, got %s", total)
	}
	if c.Depth() != 0 || c.Params() != 0 {
		t.Errorf("stacks not balanced: depth=%d params=%d", c.Depth(), c.Params())
	}
}

func TestCallFunctionFromHost(t *testing.T) {
	c := load(t, "add.vasm", addSource, nil)
	run(t, c)

	c.PushParam(value.Int(2))
	c.PushParam(value.Int(3))
	v, err := c.CallFunction("add", 2)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if v.Kind != value.KindInt || v.I != 5 {
		t.Errorf("expected 5, got %s", v)
	}
	if r := c.ReturnValue(); r.I != 5 {
		t.Errorf("return slot holds %s", r)
	}

	c.PushParam(value.Float(0.5))
	c.PushParam(value.NewStringValue("x"))
	v, err = c.CallFunction("add", 2)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if s, _ := value.ToText(v); s != "0.5x" {
		t.Errorf("expected 0.5x, got %q", s)
	}
}

func TestCallFunctionUnknown(t *testing.T) {
	c := load(t, "add.vasm", addSource, nil)
	run(t, c)

	c.PushParam(value.Int(1))
	_, err := c.CallFunction("nope", 1)
	if !errors.Is(err, interpreter.ErrUnknownFunction) {
		t.Fatalf("expected unknown function, got %v", err)
	}
	if c.Halted() != nil {
		t.Errorf("unknown function must not halt the context: %v", c.Halted())
	}
	if c.Params() != 0 {
		t.Errorf("parameters not discarded: %d left", c.Params())
	}
}

func TestArityCheckedBeforeExecution(t *testing.T) {
	source := `.global touched
.func f 2 2
	loadi r2, 1
	stglob r2, touched
	ret
.end
.entry
	loadi r2, 7
	push r2
	ldfunc r3, f
	call r3, 1
	ret
`
	c := load(t, "arity.vasm", source, nil)

	_, err := c.Run(0)
	if !errors.Is(err, interpreter.ErrArity) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if touched := global(t, c, "touched"); !touched.IsNull() {
		t.Errorf("callee body ran: touched=%s", touched)
	}

	var rerr *interpreter.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a RuntimeError, got %T", err)
	}
	if rerr.Line != 11 || rerr.Column != 2 {
		t.Errorf("expected error at 11:2, got %d:%d", rerr.Line, rerr.Column)
	}

	halted, again := c.Step()
	if !halted || again != err {
		t.Errorf("halted context must keep returning its error, got %v %v", halted, again)
	}
	if c.Live() {
		t.Error("halted context reported live")
	}
}

func TestArityFromHost(t *testing.T) {
	c := load(t, "add.vasm", addSource, nil)
	run(t, c)

	c.PushParam(value.Int(2))
	_, err := c.CallFunction("add", 1)
	if !errors.Is(err, interpreter.ErrArity) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if c.Halted() == nil {
		t.Error("arity error must halt the context")
	}
}

func TestRecursionBalance(t *testing.T) {
	source := `.func fact 1 1
	ldloc r2, l0
	loadi r3, 1
	cmp r2, r3
	jgt recurse
	loadi r2, 1
	retv r2
recurse:
	dec r3, r2
	push r3
	ldfunc r4, fact
	call r4, 1
	mul r2, r2, r0
	retv r2
.end
.entry
	ret
`
	c := load(t, "fact.vasm", source, nil)
	run(t, c)

	for _, tc := range []struct{ n, want int32 }{{1, 1}, {5, 120}, {10, 3628800}} {
		c.PushParam(value.Int(tc.n))
		v, err := c.CallFunction("fact", 1)
		if err != nil {
			t.Fatalf("fact(%d): %v", tc.n, err)
		}
		if v.I != tc.want {
			t.Errorf("fact(%d) = %s, want %d", tc.n, v, tc.want)
		}
		if c.Depth() != 0 || c.Params() != 0 {
			t.Errorf("fact(%d) left depth=%d params=%d", tc.n, c.Depth(), c.Params())
		}
	}
}

const pairSource = `.global out
.func pair 0 0 generator
	loadi r2, 1
	yield r2
	loadi r2, 2
	yield r2
	ret
.end
.entry
	newlist r5
	stglob r5, out
	ldfunc r2, pair
	call r2, 0
	iter r3, r0
loop:
	next r4, r3, done
	append r5, r4
	jmp loop
done:
	ret
`

func ints(t *testing.T, v value.Value) []int32 {
	t.Helper()
	l, ok := v.Obj.(*value.List)
	if !v.IsObject() || !ok {
		t.Fatalf("expected a list, got %s", v.TypeName())
	}
	var out []int32
	for _, item := range l.Items() {
		out = append(out, item.I)
	}
	return out
}

func TestGeneratorFromScript(t *testing.T) {
	c := load(t, "pair.vasm", pairSource, nil)
	run(t, c)

	if diff := cmp.Diff([]int32{1, 2}, ints(t, global(t, c, "out"))); diff != "" {
		t.Errorf("yielded values (-want +got):\n%s", diff)
	}
}

func TestGeneratorFromHost(t *testing.T) {
	c := load(t, "pair.vasm", pairSource, nil)
	run(t, c)

	v, err := c.CallFunction("pair", 0)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	gen, ok := v.Obj.(*interpreter.Generator)
	if !ok {
		t.Fatalf("expected a generator, got %s", v.TypeName())
	}
	it, err := gen.Iterate()
	if err != nil {
		t.Fatal(err)
	}

	if it.Finished() || it.Finished() {
		t.Fatal("unstarted generator reported finished")
	}

	type step struct {
		V        int32
		More     bool
		Finished bool
	}
	var got []step
	for i := 0; i < 4; i++ {
		v, more, err := it.Next()
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		got = append(got, step{v.I, more, it.Finished()})
	}

	want := []step{{1, true, false}, {2, true, false}, {0, false, true}, {0, false, true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("generator steps (-want +got):\n%s", diff)
	}
	if !gen.Finished() || !it.Finished() {
		t.Error("generator not finished after its body returned")
	}
	if c.Depth() != 0 {
		t.Errorf("generator frame left on the stack: depth=%d", c.Depth())
	}
}

func TestGCKeepsRegisterHeldObjects(t *testing.T) {
	source := `.entry
	newlist r2
	nop
	ret
`
	c := load(t, "live.vasm", source, nil)
	for i := 0; i < 2; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}

	f, _ := c.Frame(0)
	list := f.Registers[2].Obj
	if list.Header().Refs() != 0 {
		t.Fatalf("expected a zero count, got %d", list.Header().Refs())
	}

	if err := c.Collect(); err != nil {
		t.Fatal(err)
	}
	if list.Header().Finalized() {
		t.Fatal("register-held object was freed")
	}
	if stats := c.Stats(); stats.Freed != 0 || stats.Live[0] != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestGCFreesUnreachableObjects(t *testing.T) {
	source := `.entry
	newlist r2
	loadn r2
	nop
	ret
`
	c := load(t, "dead.vasm", source, nil)
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	f, _ := c.Frame(0)
	list := f.Registers[2].Obj

	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if err := c.CollectGeneration(0); err != nil {
		t.Fatal(err)
	}

	if !list.Header().Finalized() || list.Header().Tracked() {
		t.Error("unreachable object survived a pass")
	}
	if stats := c.Stats(); stats.Freed != 1 || stats.Allocated != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestGCSchedule(t *testing.T) {
	source := `.entry
	loadi r2, 0
	loadi r3, 100
top:
	loads r4, "garbage"
	inc r2, r2
	cmp r2, r3
	jlt top
	ret
`
	c := load(t, "churn.vasm", source, nil, interpreter.WithGC(interpreter.GCConfig{BaseInterval: 10, CheckEvery: 1}))
	run(t, c)

	stats := c.Stats()
	if stats.Allocated != 100 {
		t.Errorf("expected 100 allocations, got %d", stats.Allocated)
	}
	if stats.Freed < 80 {
		t.Errorf("expected the scheduled passes to free most strings, freed %d", stats.Freed)
	}
	if len(stats.Live) != 3 {
		t.Errorf("expected the default three generations, got %d", len(stats.Live))
	}
}

func TestGCNegativeCount(t *testing.T) {
	c := load(t, "neg.vasm", ".entry\n\tnewlist r2\n\tret\n", nil)
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	f, _ := c.Frame(0)
	value.Release(f.Registers[2])

	if err := c.Collect(); !errors.Is(err, interpreter.ErrAssertion) {
		t.Errorf("expected an assertion failure, got %v", err)
	}
	if !errors.Is(c.Halted(), interpreter.ErrAssertion) || c.Live() {
		t.Errorf("context still runnable after a failed pass: %v", c.Halted())
	}
	if _, err := c.Step(); !errors.Is(err, interpreter.ErrAssertion) {
		t.Errorf("expected the assertion on the next step, got %v", err)
	}
}

func TestGCKeepsReturnedObjects(t *testing.T) {
	reg := interpreter.NewRegistry()
	reg.Register("collect", 0, func(call *interpreter.NativeCall) error {
		return call.Context().Collect()
	})

	source := `.global kept
.func make 0 0
	newlist r2
	loadi r3, 7
	append r2, r3
	retv r2
.end
.entry
	ldfunc r2, make
	call r2, 0
	move r6, r0
	native r5, "collect"
	call r5, 0
	stglob r6, kept
	ret
`
	c := load(t, "returned.vasm", source, reg)
	run(t, c)

	kept := global(t, c, "kept")
	if kept.Obj.Header().Finalized() {
		t.Fatal("object returned into the caller was freed")
	}
	if diff := cmp.Diff([]int32{7}, ints(t, kept)); diff != "" {
		t.Errorf("list contents (-want +got):\n%s", diff)
	}
	if stats := c.Stats(); stats.Freed != 0 {
		t.Errorf("unexpected frees %+v", stats)
	}
}

func TestGCKeepsSuspendedGeneratorRegisters(t *testing.T) {
	reg := interpreter.NewRegistry()
	reg.Register("collect", 0, func(call *interpreter.NativeCall) error {
		return call.Context().Collect()
	})

	source := `.global kept
.func keeper 0 0 generator
	newlist r2
	loadi r3, 1
	append r2, r3
	yield r3
	stglob r2, kept
	ret
.end
.entry
	ldfunc r2, keeper
	call r2, 0
	iter r3, r0
	next r4, r3, done
	native r5, "collect"
	call r5, 0
	next r4, r3, done
done:
	ret
`
	c := load(t, "suspended.vasm", source, reg)
	run(t, c)

	kept := global(t, c, "kept")
	if !kept.IsObject() || kept.Obj.Header().Finalized() {
		t.Fatal("list held by a suspended generator was freed")
	}
	if diff := cmp.Diff([]int32{1}, ints(t, kept)); diff != "" {
		t.Errorf("list contents (-want +got):\n%s", diff)
	}
}

func TestHostRetainsReturnedObjects(t *testing.T) {
	c := load(t, "pair.vasm", pairSource, nil)
	run(t, c)

	v, err := c.CallFunction("pair", 0)
	if err != nil {
		t.Fatal(err)
	}
	value.Retain(v)
	defer value.Release(v)

	if _, err := c.CallFunction("pair", 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Collect(); err != nil {
		t.Fatal(err)
	}

	gen := v.Obj.(*interpreter.Generator)
	if gen.Header().Finalized() {
		t.Fatal("retained generator was freed")
	}
	it, err := gen.Iterate()
	if err != nil {
		t.Fatal(err)
	}
	first, more, err := it.Next()
	if err != nil || !more || first.I != 1 {
		t.Errorf("expected 1 from the kept generator, got %s more=%t err=%v", first, more, err)
	}
}

func TestStoredObjectsOutliveFrames(t *testing.T) {
	source := `.global keep
.func make 0 0
	newlist r2
	loadi r3, 7
	append r2, r3
	stglob r2, keep
	ret
.end
.entry
	ldfunc r2, make
	call r2, 0
	ret
`
	c := load(t, "keep.vasm", source, nil)
	run(t, c)
	if err := c.Collect(); err != nil {
		t.Fatal(err)
	}

	keep := global(t, c, "keep")
	if keep.Obj.Header().Finalized() {
		t.Fatal("global list was freed")
	}
	if diff := cmp.Diff([]int32{7}, ints(t, keep)); diff != "" {
		t.Errorf("list contents (-want +got):\n%s", diff)
	}

	c.Close()
	if !keep.Obj.Header().Finalized() {
		t.Error("close did not sweep the heap")
	}
	if _, err := c.Step(); !errors.Is(err, interpreter.ErrClosed) {
		t.Errorf("expected closed error, got %v", err)
	}
}

func TestDiagnostic(t *testing.T) {
	color.EnableColor(false)

	source := `.entry
	newlist r2
	loadi r3, 1
	sub r4, r2, r3
	ret
`
	c := load(t, "types.vasm", source, nil)
	_, err := c.Run(0)

	var rerr *interpreter.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a RuntimeError, got %v", err)
	}
	if !errors.Is(err, interpreter.ErrType) {
		t.Errorf("expected a type error, got %v", rerr.Kind)
	}

	expected := strings.Join([]string{
		"Type error at types.vasm:4:2: operation not supported: list - int",
		"   4 | \tsub r4, r2, r3",
		"     | \t^",
	}, "\n")
	if diff := cmp.Diff(expected, rerr.Diagnostic()); diff != "" {
		t.Errorf("diagnostic (-want +got):\n%s", diff)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   error
	}{
		{"index", ".entry\n\tnewlist r2\n\tloadi r3, 4\n\tgetidx r4, r2, r3\n\tret\n", interpreter.ErrIndex},
		{"immutable", ".entry\n\tloads r2, \"abc\"\n\tloadi r3, 0\n\tsetidx r2, r3, r3\n\tret\n", interpreter.ErrImmutable},
		{"iteration", ".entry\n\tloadi r2, 4\n\titer r3, r2\n\tret\n", interpreter.ErrIteration},
		{"not callable", ".entry\n\tloadi r2, 4\n\tcall r2, 0\n\tret\n", interpreter.ErrType},
		{"duplicate key", ".entry\n\tnewdict r2\n\tloadi r3, 1\n\tinsert r2, r3, r3\n\tinsert r2, r3, r3\n\tret\n", interpreter.ErrIndex},
		{"string attribute", ".entry\n\tloads r2, \"abc\"\n\tsetattr r2, r2, \"x\"\n\tret\n", interpreter.ErrImmutable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := load(t, tt.name+".vasm", tt.source, nil)
			if _, err := c.Run(0); !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestUnknownOpcode(t *testing.T) {
	p := &program.Program{
		File:         "bad.vbc",
		Instructions: []program.Instruction{{Op: program.Opcode(250), Line: 1, Column: 1}},
	}
	c := interpreter.NewContext(p, nil, quiet())
	defer c.Close()

	_, err := c.Run(0)
	if !errors.Is(err, interpreter.ErrOpcode) {
		t.Fatalf("expected opcode error, got %v", err)
	}
	if _, again := c.Run(0); again != err {
		t.Errorf("expected the same error on the next run, got %v", again)
	}
}

func TestNatives(t *testing.T) {
	reg := interpreter.NewRegistry()
	reg.Register("Double", 1, func(call *interpreter.NativeCall) error {
		n, err := call.Int(0)
		if err != nil {
			return err
		}
		call.ReturnInt(n * 2)
		return nil
	})
	reg.Register("join", -1, func(call *interpreter.NativeCall) error {
		var parts []string
		for i := 0; i < call.Count(); i++ {
			s, err := call.String(i)
			if err != nil {
				return err
			}
			parts = append(parts, s)
		}
		call.ReturnString(strings.Join(parts, "-"))
		return nil
	})

	source := `.global doubled
.global joined
.global missing
.entry
	native r2, "double"
	loadi r3, 21
	push r3
	call r2, 1
	stglob r0, doubled
	native r2, "JOIN"
	loads r3, "a"
	push r3
	loadi r3, 1
	push r3
	loadf r3, 2.5
	push r3
	call r2, 3
	stglob r0, joined
	native r2, "nothing"
	stglob r2, missing
	ret
`
	c := load(t, "natives.vasm", source, reg)
	run(t, c)

	if v := global(t, c, "doubled"); v.I != 42 {
		t.Errorf("expected 42, got %s", v)
	}
	if v := global(t, c, "joined"); v.String() != "a-1-2.5" {
		t.Errorf("expected a-1-2.5, got %s", v)
	}
	if v := global(t, c, "missing"); !v.IsNull() {
		t.Errorf("expected null for a missing native, got %s", v)
	}
	if c.Params() != 0 {
		t.Errorf("arguments left on the parameter stack: %d", c.Params())
	}
}

func TestNativeArity(t *testing.T) {
	reg := interpreter.NewRegistry()
	reg.Register("one", 1, func(call *interpreter.NativeCall) error { return nil })

	c := load(t, "arity.vasm", ".entry\n\tnative r2, \"one\"\n\tcall r2, 0\n\tret\n", reg)
	if _, err := c.Run(0); !errors.Is(err, interpreter.ErrArity) {
		t.Errorf("expected arity error, got %v", err)
	}
}

const tickSource = `.global count
.global inner
.func tick 0 0
	ldglob r2, count
	loadi r3, 1
	add r2, r2, r3
	stglob r2, count
	native r3, "reenter"
	call r3, 0
	stglob r0, inner
	ret
.end
.entry
	loadi r2, 0
	stglob r2, count
	ret
`

func TestCallEvent(t *testing.T) {
	reg := interpreter.NewRegistry()
	reg.Register("reenter", 0, func(call *interpreter.NativeCall) error {
		ran, err := call.Context().CallEvent("tick", 0, true, false)
		if err != nil {
			return err
		}
		call.Return(value.Bool(ran))
		return nil
	})

	c := load(t, "tick.vasm", tickSource, reg)
	run(t, c)

	ran, err := c.CallEvent("tick", 0, true, false)
	if err != nil || !ran {
		t.Fatalf("event did not run: %v %v", ran, err)
	}
	if v := global(t, c, "count"); v.I != 1 {
		t.Errorf("expected count 1, got %s", v)
	}
	if v := global(t, c, "inner"); v.I != 0 {
		t.Errorf("re-entrant event was not refused: inner=%s", v)
	}

	ran, err = c.CallEvent("tick", 0, false, false)
	if err != nil || !ran {
		t.Fatalf("event not queued: %v %v", ran, err)
	}
	if v := global(t, c, "count"); v.I != 1 {
		t.Errorf("deferred event ran early: count=%s", v)
	}
	if !c.Live() {
		t.Fatal("deferred event left no work")
	}
	run(t, c)
	if v := global(t, c, "count"); v.I != 2 {
		t.Errorf("deferred event did not run: count=%s", v)
	}
}

func TestStateScopedLookup(t *testing.T) {
	source := `.state happy
.func greet 0 0
	loadi r2, 1
	retv r2
.end
.func greet 0 0 state=happy
	loadi r2, 2
	retv r2
.end
.entry
	state happy
	ret
`
	c := load(t, "states.vasm", source, nil)

	v, err := c.CallFunction("greet", 0)
	if err != nil || v.I != 1 {
		t.Fatalf("expected stateless greet, got %s %v", v, err)
	}

	run(t, c)
	v, err = c.CallFunction("greet", 0)
	if err != nil || v.I != 2 {
		t.Errorf("expected state greet, got %s %v", v, err)
	}
}

func TestMaxSteps(t *testing.T) {
	c := load(t, "spin.vasm", ".entry\ntop:\n\tjmp top\n", nil, interpreter.WithMaxSteps(50))
	if _, err := c.Run(0); !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Errorf("expected step limit, got %v", err)
	}
	if c.Counter() != 50 {
		t.Errorf("expected 50 steps, got %d", c.Counter())
	}
}

func TestMachine(t *testing.T) {
	spin, err := asm.Assemble("spin.vasm", ".entry\ntop:\n\tjmp top\n")
	if err != nil {
		t.Fatal(err)
	}
	add, err := asm.Assemble("add.vasm", addSource)
	if err != nil {
		t.Fatal(err)
	}
	bad := &program.Program{
		File:         "bad.vbc",
		Instructions: []program.Instruction{{Op: program.Opcode(250)}},
	}

	m := interpreter.NewMachine(nil, quiet())
	defer m.Close()

	spinner := m.Load(spin)
	adder := m.Load(add)

	live, err := m.Run(5 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if live != 1 {
		t.Errorf("expected one live context, got %d", live)
	}
	if total, _ := adder.Global("total"); total.I != 5 {
		t.Errorf("adder did not finish: total=%s", total)
	}

	m.Load(bad)
	live, err = m.Run(5 * time.Millisecond)
	if !errors.Is(err, interpreter.ErrOpcode) {
		t.Errorf("expected the halted context's error, got %v", err)
	}
	if live != 1 {
		t.Errorf("expected one live context, got %d", live)
	}

	if !m.Remove(spinner) {
		t.Fatal("spinner not owned by the machine")
	}
	if live, err = m.Run(5 * time.Millisecond); live != 0 || err != nil {
		t.Errorf("expected an idle machine, got %d %v", live, err)
	}
	if n := len(m.Contexts()); n != 2 {
		t.Errorf("expected two contexts, got %d", n)
	}
}
