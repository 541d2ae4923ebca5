// Package config holds the settings of the m6502 command.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// MaxTicks bounds a headless run. Zero runs until the program halts.
	MaxTicks int  `json:"max_ticks"`
	Trace    bool `json:"trace"`

	// LogEcho copies log entries to stderr as they are made. LogTail is
	// how many entries to print when the run ends.
	LogEcho bool `json:"log_echo"`
	LogTail int  `json:"log_tail"`

	// memory printed after a run, [DumpFrom, DumpTo)
	DumpFrom int `json:"dump_from"`
	DumpTo   int `json:"dump_to"`

	UI      UIConfig      `json:"ui"`
	Profile ProfileConfig `json:"profile"`
}

type UIConfig struct {
	Scale int `json:"scale"`
	// TPS is the number of CPU ticks run per second while not paused.
	TPS int `json:"tps"`
}

type ProfileConfig struct {
	Mode string `json:"mode"` // "", "cpu" or "mem"
	Path string `json:"path"`
}

func Default() *Config {
	return &Config{
		MaxTicks: 100000,
		LogTail:  10,
		DumpFrom: 0x0000,
		DumpTo:   0x0100,
		UI: UIConfig{
			Scale: 2,
			TPS:   60,
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.MaxTicks < 0 {
		return fmt.Errorf("%w: max_ticks must not be negative", ErrInvalid)
	}
	if c.LogTail < 0 {
		return fmt.Errorf("%w: log_tail must not be negative", ErrInvalid)
	}
	if c.DumpFrom < 0 || c.DumpTo > 0x10000 || c.DumpFrom > c.DumpTo {
		return fmt.Errorf("%w: dump range [$%X, $%X)", ErrInvalid, c.DumpFrom, c.DumpTo)
	}
	if c.UI.Scale < 1 || c.UI.Scale > 8 {
		return fmt.Errorf("%w: ui.scale %d out of range 1-8", ErrInvalid, c.UI.Scale)
	}
	if c.UI.TPS < 1 {
		return fmt.Errorf("%w: ui.tps must be positive", ErrInvalid)
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("%w: unknown profile mode %q", ErrInvalid, c.Profile.Mode)
	}
	return nil
}
