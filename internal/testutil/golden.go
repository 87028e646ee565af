// Package testutil provides shared test helpers for Rurtle Go tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenariosDir is the relative path from the module root to the scenarios.
const ScenariosDir = "testdata/scenarios"

// Scenario represents a test scenario loaded from a scenario.json file.
type Scenario struct {
	// Cmd is the CLI command line without the program name, for example
	// ["run", "main.rtl"].
	Cmd    []string        `json:"cmd"`
	Stdin  string          `json:"stdin,omitempty"`
	Policy *ScenarioPolicy `json:"policy,omitempty"`
	Limits *ScenarioLimits `json:"limits,omitempty"`
	Meta   *ScenarioMeta   `json:"meta,omitempty"`
	Expect ExpectedResult  `json:"expect"`
}

// ScenarioPolicy defines capability permissions for a scenario.
type ScenarioPolicy struct {
	Allow []string `json:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty"`
}

// ScenarioLimits overrides the session limits.
type ScenarioLimits struct {
	MaxCallDepth  int   `json:"maxCallDepth,omitempty"`
	MaxIterations int64 `json:"maxIterations,omitempty"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Tags []string `json:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode int `json:"exitCode"`
	// StdoutText must match exactly when present; an empty string asserts
	// that nothing was printed.
	StdoutText       *string         `json:"stdoutText,omitempty"`
	StdoutContains   string          `json:"stdoutContains,omitempty"`
	StderrContains   string          `json:"stderrContains,omitempty"`
	StderrJSONSubset json.RawMessage `json:"stderrJsonSubset,omitempty"`
	// ResultJSON is the value of the last chunk's final expression.
	ResultJSON  json.RawMessage `json:"resultJson,omitempty"`
	CanvasCalls []string        `json:"canvasCalls,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.json.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.json"))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	if len(s.Cmd) == 0 {
		return nil, fmt.Errorf("%s: scenario has no cmd", dir)
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root,
// sorted by name.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), "scenario.json")
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ProgramFiles returns the positional arguments of cmd, which name the
// program files relative to the scenario directory.
func ProgramFiles(cmd []string) []string {
	var files []string
	for _, arg := range cmd[1:] {
		if len(arg) > 0 && arg[0] == '-' {
			continue
		}
		files = append(files, arg)
	}
	return files
}

// ReadProgramFile reads one program file of a scenario.
func ReadProgramFile(scenarioDir, name string) (string, error) {
	source, err := os.ReadFile(filepath.Join(scenarioDir, name))
	if err != nil {
		return "", err
	}
	return string(source), nil
}

// HasFlag reports whether cmd contains flag.
func HasFlag(cmd []string, flag string) bool {
	for _, arg := range cmd {
		if arg == flag {
			return true
		}
	}
	return false
}
