package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `
[gc]
base_interval = 500
generations = 4

[scheduler]
time_slice = "25ms"
max_steps = 100000

[log]
level = "debug"
no_color = true
`
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := &Config{
		GC:        GC{BaseInterval: 500, Generations: 4, CheckEvery: 100},
		Scheduler: Scheduler{TimeSlice: 25 * time.Millisecond, MaxSteps: 100000},
		Log:       Log{Level: "debug", NoColor: true},
		Path:      path,
	}
	if diff := cmp.Diff(expected, c); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
	if n := len(c.Options()); n != 2 {
		t.Errorf("expected gc and step options, got %d", n)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("[gc]\nintervals = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "gc.intervals") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != "" && !strings.HasPrefix(c.Path, root) {
		// a vesper.toml above the temp dir would be picked up; only check ours
		t.Skipf("found unrelated %s", c.Path)
	}
	if c.Path == "" {
		if diff := cmp.Diff(Default(), c); diff != "" {
			t.Errorf("defaults (-want +got):\n%s", diff)
		}
	}

	if err := os.WriteFile(filepath.Join(root, FileName), []byte("[log]\nlevel = \"info\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = FindAndLoad(nested)
	if err != nil {
		t.Fatal(err)
	}
	if c.Log.Level != "info" || c.Path != filepath.Join(root, FileName) {
		t.Errorf("expected the root config, got %+v", c)
	}
	if c.Scheduler.TimeSlice != 10*time.Millisecond {
		t.Errorf("defaults not kept under the file: %v", c.Scheduler.TimeSlice)
	}
}
