// Package config loads the Rurtle YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/rurtle/pkg/capabilities"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "rurtle.yaml"

// Config is the parsed configuration.
type Config struct {
	// Path is the file the configuration was loaded from, or "" for defaults.
	Path string `yaml:"-"`

	Canvas  CanvasConfig     `yaml:"canvas"`
	REPL    REPLConfig       `yaml:"repl"`
	Startup []string         `yaml:"startup"`
	Log     LogConfig        `yaml:"log"`
	Limits  evaluator.Limits `yaml:"limits"`
	Policy  PolicyConfig     `yaml:"policy"`
	// Globals seeds global variables before any program runs.
	Globals map[string]any `yaml:"globals"`
}

// CanvasConfig sizes the drawing surface.
type CanvasConfig struct {
	Width      int       `yaml:"width"`
	Height     int       `yaml:"height"`
	Background []float64 `yaml:"background"`
}

// REPLConfig configures the interactive loop.
type REPLConfig struct {
	Prompt  string `yaml:"prompt"`
	History string `yaml:"history"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PolicyConfig lists allowed and denied capabilities.
type PolicyConfig struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// ValidationError aggregates configuration validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{Width: 640, Height: 640, Background: []float64{1, 1, 1}},
		REPL:   REPLConfig{Prompt: "Rurtle> ", History: ".rurtle_history"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Limits: evaluator.Limits{MaxCallDepth: evaluator.DefaultMaxCallDepth},
	}
}

// Load parses a configuration file. Fields left out keep their defaults;
// unknown fields are an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", absPath, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	cfg.Path = absPath
	return cfg, nil
}

// Parse decodes and validates YAML configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve finds the configuration to use: the explicit path if given, else
// ./rurtle.yaml, else ~/.rurtle/config.yaml, else the defaults.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".rurtle", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs ValidationError
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if len(c.Canvas.Background) != 3 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("canvas.background must have 3 components, got %d", len(c.Canvas.Background)))
	} else {
		for i, v := range c.Canvas.Background {
			if v < 0 || v > 1 {
				errs.Issues = append(errs.Issues, fmt.Sprintf("canvas.background[%d] must be in [0, 1], got %v", i, v))
			}
		}
	}
	if _, err := c.LogLevel(); err != nil {
		errs.Issues = append(errs.Issues, err.Error())
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Limits.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, "limits.max_call_depth must not be negative")
	}
	if c.Limits.MaxIterations < 0 {
		errs.Issues = append(errs.Issues, "limits.max_iterations must not be negative")
	}
	if _, err := c.CapabilityPolicy(); err != nil {
		errs.Issues = append(errs.Issues, "policy: "+err.Error())
	}
	for i, path := range c.Startup {
		if path == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("startup[%d] must be a non-empty path", i))
		}
	}
	if _, err := c.GlobalValues(); err != nil {
		errs.Issues = append(errs.Issues, err.Error())
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return level, nil
}

// NewLogger builds the logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// CapabilityPolicy builds the capability policy from the policy section.
func (c *Config) CapabilityPolicy() (*capabilities.Policy, error) {
	return capabilities.FromLists(c.Policy.Allow, c.Policy.Deny)
}

// StartupFiles returns the startup paths. Relative paths are resolved against
// the directory of the configuration file.
func (c *Config) StartupFiles() []string {
	out := make([]string, len(c.Startup))
	for i, path := range c.Startup {
		if c.Path != "" && !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(c.Path), path)
		}
		out[i] = path
	}
	return out
}

// HistoryFile returns the REPL history path, resolved against the home
// directory when relative. An empty result disables history.
func (c *Config) HistoryFile() string {
	path := c.REPL.History
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path)
}

// Global is one configured global variable.
type Global struct {
	Name  string
	Value evaluator.Value
}

// GlobalValues converts the globals section, sorted by name.
func (c *Config) GlobalValues() ([]Global, error) {
	names := make([]string, 0, len(c.Globals))
	for name := range c.Globals {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Global, 0, len(names))
	for _, name := range names {
		v, err := evaluator.FromGo(c.Globals[name])
		if err != nil {
			return nil, fmt.Errorf("globals.%s: %w", name, err)
		}
		out = append(out, Global{Name: name, Value: v})
	}
	return out, nil
}
