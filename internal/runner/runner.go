package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vesper/internal/config"
	"vesper/pkg/asm"
	"vesper/pkg/color"
	"vesper/pkg/interpreter"
	"vesper/pkg/natives"
	"vesper/pkg/program"

	"github.com/charmbracelet/log"
)

// ImageExt is the extension of encoded program images
const ImageExt = ".vbc"

type Runner struct {
	Config  *config.Config
	Verbose bool      // dump the loaded programs before running them
	Out     io.Writer // script output, stdout when nil
}

// Load reads a program from an image or an assembly source file, chosen by
// extension.
func Load(path string) (*program.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if filepath.Ext(path) == ImageExt {
		p, err := program.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return p, nil
	}

	p, err := asm.Assemble(path, string(data))
	if err != nil {
		var list *asm.ErrorList
		if errors.As(err, &list) {
			fmt.Fprintln(os.Stderr, color.BrightRedText("=== Assembly Errors ==="))
			fmt.Fprintln(os.Stderr, list.Report())
		}
		return nil, err
	}
	return p, nil
}

// Run loads every file into one machine and schedules the contexts until
// all of them are idle. Contexts that halt are reported and dropped; the
// others keep running.
func (r *Runner) Run(files ...string) error {
	cfg := r.Config
	if cfg == nil {
		cfg = config.Default()
	}
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	reg := interpreter.NewRegistry()
	natives.Register(reg)

	opts := append(cfg.Options(), interpreter.WithWriter(out), interpreter.WithLogger(log.Default()))
	m := interpreter.NewMachine(reg, opts...)
	defer m.Close()

	for _, file := range files {
		log.Info("Loading program", "file", file)
		p, err := Load(file)
		if err != nil {
			return err
		}
		if r.Verbose {
			fmt.Fprintln(os.Stderr, color.GreenText("\n=== "+file+" ==="))
			if err := program.Disassemble(os.Stderr, p); err != nil {
				return err
			}
		}
		m.Load(p)
	}

	var failed []error
	for {
		live, err := m.Run(cfg.Scheduler.TimeSlice)
		if err != nil {
			failed = append(failed, err)
			for _, c := range m.Contexts() {
				if c.Halted() != nil {
					m.Remove(c)
				}
			}
		}
		if live == 0 {
			break
		}
	}

	for _, c := range m.Contexts() {
		stats := c.Stats()
		log.Debug("Context finished", "file", c.Program().File, "steps", c.Counter(),
			"allocated", stats.Allocated, "freed", stats.Freed, "promoted", stats.Promoted)
	}

	return errors.Join(failed...)
}

// Assemble turns an assembly source file into a program image at dst. An
// empty dst replaces the source extension with .vbc.
func Assemble(src, dst string) (string, error) {
	p, err := Load(src)
	if err != nil {
		return "", err
	}
	if dst == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + ImageExt
	}

	data, err := program.Encode(p)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", err
	}
	log.Info("Wrote image", "file", dst, "instructions", len(p.Instructions), "bytes", len(data))
	return dst, nil
}

// Disassemble writes a listing of the program at path to w
func Disassemble(path string, w io.Writer) error {
	p, err := Load(path)
	if err != nil {
		return err
	}
	return program.Disassemble(w, p)
}
