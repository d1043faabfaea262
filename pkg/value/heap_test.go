package value_test

import (
	"testing"

	"vesper/pkg/value"
)

func collect(g *value.Generation) []string {
	var out []string
	for o := g.Front(); o != nil; o = o.Header().Next() {
		s, _ := o.ToString()
		out = append(out, s)
	}
	return out
}

func TestGenerationList(t *testing.T) {
	g0 := value.NewGeneration(0)
	g1 := value.NewGeneration(1)

	a, b, c := value.NewString("a"), value.NewString("b"), value.NewString("c")
	g0.Add(a)
	g0.Add(b)
	g0.Add(c)

	if !g0.Dirty || g0.Len() != 3 {
		t.Fatalf("expected dirty generation of 3, got dirty=%v len=%d", g0.Dirty, g0.Len())
	}

	g0.Dirty = false
	g0.MoveTo(b, g1)

	if got := collect(g0); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("unexpected gen0 contents: %v", got)
	}
	if b.Header().Generation() != 1 || !g1.Dirty {
		t.Errorf("expected b promoted into a dirty gen1, got gen=%d dirty=%v", b.Header().Generation(), g1.Dirty)
	}

	g0.Remove(a)
	g0.Remove(c)
	if g0.Len() != 0 || g0.Front() != nil {
		t.Errorf("expected empty gen0")
	}
	if a.Header().Tracked() {
		t.Error("removed object should no longer be tracked")
	}
}

func TestReleaseMarksDirty(t *testing.T) {
	g := value.NewGeneration(0)
	s := value.NewString("s")
	g.Add(s)
	value.Retain(value.Obj(s))
	g.Dirty = false

	value.Release(value.Obj(s))
	if !g.Dirty {
		t.Error("release should mark the generation dirty")
	}
	if s.Header().Refs() != 0 {
		t.Errorf("expected 0 refs, got %d", s.Header().Refs())
	}
}
