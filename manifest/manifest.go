// Package manifest handles carbon.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a carbon.toml runtime configuration.
type Manifest struct {
	Runtime Runtime     `toml:"runtime"`
	Trace   TraceConfig `toml:"trace"`
	Store   StoreConfig `toml:"store"`
	Log     LogConfig   `toml:"log"`

	// Path is the file the manifest was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// Runtime bounds the VM's resource use.
type Runtime struct {
	StackCapacity int `toml:"stack-capacity"`
	StdinBuffer   int `toml:"stdin-buffer"`
	MaxCallDepth  int `toml:"max-call-depth"`
}

// TraceConfig configures instruction tracing.
type TraceConfig struct {
	Enabled   bool   `toml:"enabled"`
	Output    string `toml:"output"`
	MaxEvents int    `toml:"max-events"`
}

// StoreConfig configures the run-history database. An empty path disables
// recording.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the stock manifest.
func Default() *Manifest {
	return &Manifest{
		Runtime: Runtime{
			StackCapacity: 256,
			StdinBuffer:   1024,
			MaxCallDepth:  1024,
		},
		Trace: TraceConfig{
			Output:    "trace.cbor",
			MaxEvents: 1 << 20,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load parses a carbon.toml file from the given directory. A missing file
// is not an error: the defaults apply.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, "carbon.toml"))
}

// LoadFile parses a manifest at an explicit path. A missing file yields
// the defaults.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Path = path

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) validate() error {
	if m.Runtime.StackCapacity < 0 {
		return fmt.Errorf("runtime.stack-capacity must not be negative")
	}
	if m.Runtime.StdinBuffer <= 0 {
		return fmt.Errorf("runtime.stdin-buffer must be positive")
	}
	if m.Runtime.MaxCallDepth < 0 {
		return fmt.Errorf("runtime.max-call-depth must not be negative")
	}
	if m.Trace.MaxEvents < 0 {
		return fmt.Errorf("trace.max-events must not be negative")
	}
	switch m.Log.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled", "":
	default:
		return fmt.Errorf("unknown log.level %q", m.Log.Level)
	}
	return nil
}
