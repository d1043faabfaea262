// Package config handles vesper.toml runtime configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"vesper/pkg/interpreter"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad
const FileName = "vesper.toml"

// Config represents a vesper.toml file.
type Config struct {
	GC        GC        `toml:"gc"`
	Scheduler Scheduler `toml:"scheduler"`
	Log       Log       `toml:"log"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// GC configures the collector schedule of every context.
type GC struct {
	BaseInterval uint64 `toml:"base_interval"`
	Generations  int    `toml:"generations"`
	CheckEvery   uint64 `toml:"check_every"`
}

// Scheduler configures how the machine runs its contexts.
type Scheduler struct {
	TimeSlice time.Duration `toml:"time_slice"`
	MaxSteps  uint64        `toml:"max_steps"`
}

type Log struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	gc := interpreter.DefaultGCConfig()
	return &Config{
		GC: GC{
			BaseInterval: gc.BaseInterval,
			Generations:  gc.Generations,
			CheckEvery:   gc.CheckEvery,
		},
		Scheduler: Scheduler{TimeSlice: 10 * time.Millisecond},
		Log:       Log{Level: "warn"},
	}
}

// Load parses the file at path on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	c.Path = path

	if c.Scheduler.TimeSlice < 0 {
		return nil, fmt.Errorf("%s: scheduler.time_slice must not be negative", path)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for vesper.toml. The defaults
// are returned when no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Options converts the configuration into context options
func (c *Config) Options() []interpreter.Option {
	opts := []interpreter.Option{
		interpreter.WithGC(interpreter.GCConfig{
			BaseInterval: c.GC.BaseInterval,
			Generations:  c.GC.Generations,
			CheckEvery:   c.GC.CheckEvery,
		}),
	}
	if c.Scheduler.MaxSteps > 0 {
		opts = append(opts, interpreter.WithMaxSteps(c.Scheduler.MaxSteps))
	}
	return opts
}
