package stack_test

import (
	"testing"

	"vesper/pkg/stack"

	"github.com/google/go-cmp/cmp"
)

func TestPushPop(t *testing.T) {
	s := stack.New(1, 2)
	s.Push(3)

	if s.Size() != 3 {
		t.Fatalf("expected size 3, got %d", s.Size())
	}

	top, ok := s.Peek()
	if !ok || top != 3 {
		t.Errorf("expected peek 3, got %d (ok=%v)", top, ok)
	}

	for _, want := range []int{3, 2, 1} {
		got, ok := s.Pop()
		if !ok || got != want {
			t.Errorf("expected pop %d, got %d (ok=%v)", want, got, ok)
		}
	}

	if _, ok := s.Pop(); ok {
		t.Error("expected pop on empty stack to fail")
	}
}

func TestFromTopAndDrop(t *testing.T) {
	var s stack.Stack[string]
	for _, v := range []string{"a", "b", "c", "d"} {
		s.Push(v)
	}

	if v, _ := s.FromTop(0); v != "d" {
		t.Errorf("FromTop(0): expected d, got %s", v)
	}
	if v, _ := s.FromTop(3); v != "a" {
		t.Errorf("FromTop(3): expected a, got %s", v)
	}
	if _, ok := s.FromTop(4); ok {
		t.Error("FromTop(4) should be out of range")
	}

	s.Drop(2)
	if diff := cmp.Diff([]string{"a", "b"}, s.Array()); diff != "" {
		t.Errorf("after Drop(2) (-want +got):\n%s", diff)
	}

	s.Drop(10)
	if s.Size() != 0 {
		t.Errorf("expected empty stack, got %d", s.Size())
	}
}
