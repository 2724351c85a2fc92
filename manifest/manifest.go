// Package manifest handles tether.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "tether.toml"

// Manifest represents a tether.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Runtime Runtime `toml:"runtime"`
	Wrap    Wrap    `toml:"wrap"`

	// Dir is the directory containing the tether.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"`
}

// Runtime configures sessions started by `tether run`.
type Runtime struct {
	// Console is a pointer so that an explicit false survives defaults.
	Console  *bool  `toml:"console"`
	LogLevel string `toml:"log-level"`
	LogFile  string `toml:"log-file"`
}

// Wrap configures `tether wrap`.
type Wrap struct {
	Output   string   `toml:"output"`
	Packages []string `toml:"packages"`
}

// Default values applied by Load.
const (
	DefaultEntry    = "main.js"
	DefaultLogLevel = "info"
	DefaultOutput   = "tether_imports.go"
)

// levels maps level names to commonlog verbosity.
var levels = map[string]int{
	"none":     -4,
	"critical": -3,
	"error":    -2,
	"warning":  -1,
	"notice":   0,
	"info":     1,
	"debug":    2,
}

// Load parses a tether.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if _, ok := levels[m.Runtime.LogLevel]; !ok {
		return nil, fmt.Errorf("%s: unknown log-level %q", path, m.Runtime.LogLevel)
	}

	return &m, nil
}

// Default returns the manifest used when no tether.toml exists.
func Default(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m := &Manifest{Dir: abs}
	m.applyDefaults()
	return m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Project.Entry == "" {
		m.Project.Entry = DefaultEntry
	}
	if m.Runtime.Console == nil {
		console := true
		m.Runtime.Console = &console
	}
	m.Runtime.LogLevel = strings.ToLower(m.Runtime.LogLevel)
	if m.Runtime.LogLevel == "" {
		m.Runtime.LogLevel = DefaultLogLevel
	}
	if m.Wrap.Output == "" {
		m.Wrap.Output = DefaultOutput
	}
}

// FindAndLoad walks up from startDir to find a tether.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the entry module.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Project.Entry) {
		return m.Project.Entry
	}
	return filepath.Join(m.Dir, m.Project.Entry)
}

// ConsoleEnabled reports whether scripts get a console global.
func (m *Manifest) ConsoleEnabled() bool {
	return m.Runtime.Console == nil || *m.Runtime.Console
}

// Verbosity maps the configured log level to a commonlog verbosity.
func (m *Manifest) Verbosity() int {
	return levels[m.Runtime.LogLevel]
}

// LogPath returns the log file path, or nil for stderr.
func (m *Manifest) LogPath() *string {
	if m.Runtime.LogFile == "" {
		return nil
	}
	path := m.Runtime.LogFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}

