package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/rurtle/internal/testutil"
	"github.com/thomasrohde/rurtle/pkg/canvas"
	"github.com/thomasrohde/rurtle/pkg/capabilities"
	"github.com/thomasrohde/rurtle/pkg/console"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
	"github.com/thomasrohde/rurtle/pkg/runtime"
)

// scenarioOutcome is what the CLI would have produced for a scenario.
type scenarioOutcome struct {
	exitCode int
	stdout   string
	stderr   string
	diags    []diagnostics.Diagnostic
	value    evaluator.Value
	calls    []string
}

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, scenarioDir := range dirs {
		scenarioDir := scenarioDir
		t.Run(filepath.Base(scenarioDir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(scenarioDir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			out := runScenario(t, scenarioDir, scenario)
			checkExpectations(t, out, scenario)
		})
	}
}

func newScenarioRuntime(t *testing.T, scenario *testutil.Scenario, stdout *bytes.Buffer, rec *canvas.Recorder) *runtime.Runtime {
	t.Helper()

	policy := capabilities.AllowAll()
	if scenario.Policy != nil {
		p, err := capabilities.FromLists(scenario.Policy.Allow, scenario.Policy.Deny)
		if err != nil {
			t.Fatalf("bad scenario policy: %v", err)
		}
		policy = p
	}

	var limits evaluator.Limits
	if scenario.Limits != nil {
		limits.MaxCallDepth = scenario.Limits.MaxCallDepth
		limits.MaxIterations = scenario.Limits.MaxIterations
	}

	return runtime.New(
		runtime.WithCanvas(rec),
		runtime.WithConsole(console.NewStream(strings.NewReader(scenario.Stdin), stdout)),
		runtime.WithPolicy(policy),
		runtime.WithLimits(limits),
		runtime.WithRunID("test"),
	)
}

func runScenario(t *testing.T, scenarioDir string, scenario *testutil.Scenario) scenarioOutcome {
	t.Helper()

	pretty := !testutil.HasFlag(scenario.Cmd, "--json")
	files := testutil.ProgramFiles(scenario.Cmd)
	if len(files) == 0 {
		t.Fatal("scenario names no program file")
	}

	var stdout bytes.Buffer
	rec := canvas.NewRecorder(canvas.New(canvas.DefaultWidth, canvas.DefaultHeight))
	rt := newScenarioRuntime(t, scenario, &stdout, rec)

	var out scenarioOutcome
	fail := func(diags []diagnostics.Diagnostic, exitCode int) {
		out.diags = diags
		out.stderr = diagnostics.FormatDiagnostics(diags, pretty)
		out.exitCode = exitCode
	}

	switch scenario.Cmd[0] {
	case "run":
		for _, file := range files {
			source, err := testutil.ReadProgramFile(scenarioDir, file)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}
			result, err := rt.Run(context.Background(), source, file)
			if err != nil {
				fail(runtime.Diagnostics(err), exitCodeForError(err))
				break
			}
			out.value = result.Value
		}
		if out.exitCode == 0 && !pretty {
			writeResultJSON(t, &stdout, out.value)
		}

	case "check":
		source, err := testutil.ReadProgramFile(scenarioDir, files[0])
		if err != nil {
			t.Fatalf("failed to read program file: %v", err)
		}
		if diags := rt.Check(source, files[0]); len(diags) > 0 {
			fail(diags, 2)
		} else if pretty {
			stdout.WriteString("No errors found.\n")
		} else {
			stdout.WriteString("[]\n")
		}

	case "fmt":
		source, err := testutil.ReadProgramFile(scenarioDir, files[0])
		if err != nil {
			t.Fatalf("failed to read program file: %v", err)
		}
		formatted, err := rt.Format(source, files[0])
		if err != nil {
			fail(runtime.Diagnostics(err), 2)
		} else {
			stdout.WriteString(formatted)
		}

	default:
		t.Skipf("unsupported command: %s", scenario.Cmd[0])
	}

	out.stdout = stdout.String()
	out.calls = rec.Calls
	return out
}

func checkExpectations(t *testing.T, out scenarioOutcome, scenario *testutil.Scenario) {
	t.Helper()
	expect := scenario.Expect

	if out.exitCode != expect.ExitCode {
		t.Errorf("exit code: got %d, want %d (stderr: %s)", out.exitCode, expect.ExitCode, out.stderr)
	}

	if expect.StdoutText != nil && out.stdout != *expect.StdoutText {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", out.stdout, *expect.StdoutText)
	}
	if expect.StdoutContains != "" && !strings.Contains(out.stdout, expect.StdoutContains) {
		t.Errorf("stdout should contain %q, got: %q", expect.StdoutContains, out.stdout)
	}

	checkStderrExpectations(t, out.stderr, out.diags, scenario)

	if expect.ResultJSON != nil {
		if out.value == nil {
			t.Fatalf("expected a result value, got none")
		}
		actualJSON, err := evaluator.ValueToJSON(out.value)
		if err != nil {
			t.Fatalf("failed to serialize result: %v", err)
		}
		expected := normalizeJSON(t, expect.ResultJSON)
		actual := normalizeJSON(t, json.RawMessage(actualJSON))
		if expected != actual {
			t.Errorf("result JSON:\n  got:  %s\n  want: %s", actual, expected)
		}
	}

	if expect.CanvasCalls != nil {
		if strings.Join(out.calls, "\n") != strings.Join(expect.CanvasCalls, "\n") {
			t.Errorf("canvas calls:\n  got:  %v\n  want: %v", out.calls, expect.CanvasCalls)
		}
	}
}

func checkStderrExpectations(t *testing.T, stderrOutput string, diags []diagnostics.Diagnostic, scenario *testutil.Scenario) {
	t.Helper()

	if scenario.Expect.StderrContains != "" {
		if !strings.Contains(stderrOutput, scenario.Expect.StderrContains) {
			t.Errorf("stderr should contain '%s', got: %s", scenario.Expect.StderrContains, stderrOutput)
		}
	}

	if scenario.Expect.StderrJSONSubset != nil {
		var expectedSubset []map[string]any
		if err := json.Unmarshal(scenario.Expect.StderrJSONSubset, &expectedSubset); err != nil {
			t.Fatalf("failed to parse expected stderr JSON subset: %v", err)
		}

		diagsJSON, _ := json.Marshal(diags)
		var actualDiags []map[string]any
		if err := json.Unmarshal(diagsJSON, &actualDiags); err != nil {
			t.Fatalf("failed to parse actual diagnostics: %v", err)
		}

		for _, expected := range expectedSubset {
			found := false
			for _, actual := range actualDiags {
				if isSubset(expected, actual) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("stderr JSON subset not found: %v (got %s)", expected, diagsJSON)
			}
		}
	}
}

// writeResultJSON mirrors the CLI's --json result line.
func writeResultJSON(t *testing.T, w *bytes.Buffer, v evaluator.Value) {
	t.Helper()
	if _, isNothing := v.(evaluator.Nothing); isNothing || v == nil {
		return
	}
	b, err := evaluator.ValueToJSON(v)
	if err != nil {
		t.Fatalf("failed to serialize result: %v", err)
	}
	w.Write(b)
	w.WriteByte('\n')
}

// exitCodeForError mirrors the CLI's exit codes.
func exitCodeForError(err error) int {
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		return 2
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		switch rtErr.Code {
		case diagnostics.ECapDenied:
			return 3
		case diagnostics.ECancelled:
			return 130
		}
	}
	return 4
}

func normalizeJSON(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("failed to parse JSON: %v (raw: %s)", err, string(raw))
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to re-marshal JSON: %v", err)
	}
	return string(b)
}

// isSubset checks if expected is a subset of actual (for JSON comparison).
func isSubset(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range e {
			av, exists := a[k]
			if !exists {
				return false
			}
			if !isSubset(ev, av) {
				return false
			}
		}
		return true

	case []any:
		a, ok := actual.([]any)
		if !ok {
			return false
		}
		if len(e) > len(a) {
			return false
		}
		for i, ev := range e {
			if !isSubset(ev, a[i]) {
				return false
			}
		}
		return true

	case float64:
		if af, ok := actual.(float64); ok {
			return e == af
		}
		return false

	case string:
		if as, ok := actual.(string); ok {
			return e == as
		}
		return false

	case bool:
		if ab, ok := actual.(bool); ok {
			return e == ab
		}
		return false

	case nil:
		return actual == nil

	default:
		return fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
	}
}

// Verify scenarios directory exists
func TestScenariosExist(t *testing.T) {
	root := testutil.ScenariosDir
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("scenarios directory not found: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("scenarios path is not a directory: %s", root)
	}
}
