package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/rurtle/pkg/capabilities"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 640 || cfg.REPL.Prompt != "Rurtle> " {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
canvas:
  width: 320
  height: 200
  background: [0, 0, 0]
repl:
  prompt: "> "
startup:
  - lib/shapes.rtl
log:
  level: debug
  format: json
limits:
  max_call_depth: 500
  max_iterations: 1000000
policy:
  deny: [screenshot]
globals:
  size: 50
  name: turtle
  colors: [1, 0.5, 0]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 320 || cfg.Canvas.Height != 200 {
		t.Errorf("unexpected canvas %+v", cfg.Canvas)
	}
	if cfg.REPL.Prompt != "> " || cfg.REPL.History != ".rurtle_history" {
		t.Errorf("unexpected repl %+v", cfg.REPL)
	}
	if cfg.Limits.MaxCallDepth != 500 || cfg.Limits.MaxIterations != 1000000 {
		t.Errorf("unexpected limits %+v", cfg.Limits)
	}
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("unexpected level %v (%v)", level, err)
	}

	startup := cfg.StartupFiles()
	if len(startup) != 1 || startup[0] != filepath.Join(dir, "lib", "shapes.rtl") {
		t.Errorf("startup not resolved against config dir: %v", startup)
	}

	policy, err := cfg.CapabilityPolicy()
	if err != nil {
		t.Fatal(err)
	}
	if policy.IsAllowed(capabilities.Screenshot) || !policy.IsAllowed(capabilities.Draw) {
		t.Errorf("unexpected policy %v", policy.Names())
	}

	globals, err := cfg.GlobalValues()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, g := range globals {
		got = append(got, g.Name+"="+evaluator.Repr(g.Value))
	}
	want := `colors=[1 0.5 0],name="turtle",size=50`
	if strings.Join(got, ",") != want {
		t.Errorf("globals = %s, want %s", strings.Join(got, ","), want)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("canvas:\n  widht: 10\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidationCollectsIssues(t *testing.T) {
	_, err := Parse([]byte(`
canvas: { width: 0, height: 10, background: [2, 0, 0] }
log: { level: loud, format: xml }
policy: { allow: [network] }
globals: { rec: { a: 1 } }
`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 6 {
		t.Errorf("expected 6 issues, got %d: %v", len(verr.Issues), verr.Issues)
	}
	if !strings.Contains(err.Error(), "config validation failed:") {
		t.Errorf("unexpected message %s", err.Error())
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	if _, err := Resolve(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestResolveWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "repl: { prompt: \"wd> \" }\n")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.REPL.Prompt != "wd> " {
		t.Errorf("expected working-directory config, got %q", cfg.REPL.Prompt)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.NewLogger(&buf).Info("hello", "k", 1)
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %s", buf.String())
	}
}
