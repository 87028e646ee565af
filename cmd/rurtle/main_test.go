package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/thomasrohde/rurtle/pkg/canvas"
	"github.com/thomasrohde/rurtle/pkg/console"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
	"github.com/thomasrohde/rurtle/pkg/runtime"
)

// scriptedInput feeds the REPL a fixed list of lines. A nil entry simulates
// Ctrl-C at the prompt.
type scriptedInput struct {
	lines   []*string
	prompts []string
	history []string
}

func lines(in ...string) []*string {
	out := make([]*string, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func (s *scriptedInput) Prompt(text string) (string, error) {
	s.prompts = append(s.prompts, text)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	next := s.lines[0]
	s.lines = s.lines[1:]
	if next == nil {
		return "", console.ErrInterrupted
	}
	return *next, nil
}

func (s *scriptedInput) AppendHistory(chunk string) {
	s.history = append(s.history, chunk)
}

func newTestRepl(in *scriptedInput) (*repl, *bytes.Buffer, *canvas.Recorder) {
	var out bytes.Buffer
	rec := canvas.NewRecorder(nil)
	rt := runtime.New(
		runtime.WithCanvas(rec),
		runtime.WithConsole(console.NewStream(strings.NewReader(""), &out)),
	)
	return &repl{rt: rt, con: in, out: &out, prompt: "Rurtle> ", pretty: true}, &out, rec
}

func TestReplMultiLineChunk(t *testing.T) {
	in := &scriptedInput{lines: lines(
		"learn sq :s do",
		"  forward :s",
		"end",
		"sq 5",
		"1 + 2",
		":functions",
		":quit",
	)}
	r, out, rec := newTestRepl(in)
	if code := r.loop(); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got := out.String(); got != "= 3\nsq :s\n" {
		t.Errorf("output = %q", got)
	}
	if len(rec.Calls) != 1 || rec.Calls[0] != "Move(5, true)" {
		t.Errorf("unexpected calls %v", rec.Calls)
	}
	wantPrompts := []string{"Rurtle> ", "....... ", "....... ", "Rurtle> ", "Rurtle> ", "Rurtle> ", "Rurtle> "}
	if strings.Join(in.prompts, "|") != strings.Join(wantPrompts, "|") {
		t.Errorf("prompts = %q", in.prompts)
	}
	if len(in.history) != 3 || in.history[0] != "learn sq :s do\n  forward :s\nend\n" {
		t.Errorf("history = %q", in.history)
	}
}

func TestReplJSONResults(t *testing.T) {
	in := &scriptedInput{lines: lines(`[1 "a"]`, "print 2", "3 / 2")}
	r, out, _ := newTestRepl(in)
	r.pretty = false
	if code := r.loop(); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got := out.String(); got != "[1,\"a\"]\n2\n1.5\n\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResult(&buf, evaluator.NewList([]evaluator.Value{evaluator.NewNumber(1), evaluator.NewString("x")})); err != nil {
		t.Fatal(err)
	}
	if err := writeResult(&buf, evaluator.NewNothing()); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[1,\"x\"]\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestReplInterruptDropsPendingInput(t *testing.T) {
	in := &scriptedInput{lines: []*string{}}
	in.lines = append(in.lines, lines("repeat 2 do")...)
	in.lines = append(in.lines, nil)
	in.lines = append(in.lines, lines("print 7")...)
	r, out, rec := newTestRepl(in)
	if code := r.loop(); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if out.String() != "7\n\n" {
		t.Errorf("output = %q", out.String())
	}
	if len(rec.Calls) != 0 {
		t.Errorf("unexpected calls %v", rec.Calls)
	}
}

func TestReplErrorsDoNotEndSession(t *testing.T) {
	in := &scriptedInput{lines: lines(`make "x" 2`, "print (1 / 0)", "print )", "print :x", ":nope", ":q")}
	r, out, _ := newTestRepl(in)
	if code := r.loop(); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if out.String() != "2\nunknown command :nope, try :help\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestReplHelp(t *testing.T) {
	in := &scriptedInput{lines: lines(":help", ":help turtle", ":help forward", ":functions")}
	r, out, _ := newTestRepl(in)
	r.loop()
	got := out.String()
	for _, want := range []string{":functions   list learned functions", "TURTLE", "forward DISTANCE", "no functions learned yet"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestContinuationPrompt(t *testing.T) {
	tests := map[string]string{
		"Rurtle> ": "....... ",
		"> ":       ". ",
		"":         "... ",
		"?":        ".",
	}
	for in, want := range tests {
		if got := continuationPrompt(in); got != want {
			t.Errorf("continuationPrompt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	save := ""
	flags, err := parseFlags([]string{"a.rtl", "--config", "c.yaml", "--save", "o.png", "--json", "b.rtl", "--trace", "t.jsonl"},
		func(args []string, i *int) bool {
			if args[*i] == "--save" {
				*i++
				save = args[*i]
				return true
			}
			return false
		})
	if err != nil {
		t.Fatal(err)
	}
	if flags.config != "c.yaml" || flags.trace != "t.jsonl" || flags.pretty || save != "o.png" {
		t.Errorf("unexpected flags %+v save=%q", flags, save)
	}
	if strings.Join(flags.files, ",") != "a.rtl,b.rtl" {
		t.Errorf("unexpected files %v", flags.files)
	}

	if _, err := parseFlags([]string{"--bogus"}, nil); err == nil {
		t.Error("expected unknown flag error")
	}
	if _, err := parseFlags([]string{"--config"}, nil); err == nil {
		t.Error("expected missing value error")
	}
}

func TestCmdHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cmdHelp(nil, &stdout, &stderr); code != 0 || !strings.Contains(stdout.String(), "quick reference") {
		t.Errorf("quickref: code %d output %q", code, stdout.String())
	}
	stdout.Reset()
	if code := cmdHelp([]string{"builtins"}, &stdout, &stderr); code != 0 || !strings.Contains(stdout.String(), "Total:") {
		t.Errorf("builtins: code %d output %q", code, stdout.String())
	}
	stdout.Reset()
	if code := cmdHelp([]string{"zzz"}, &stdout, &stderr); code != 1 || !strings.Contains(stderr.String(), "Available topics") {
		t.Errorf("unknown: code %d stderr %q", code, stderr.String())
	}
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&runtime.DiagnosticError{Diagnostics: []diagnostics.Diagnostic{{Code: diagnostics.EParse}}}, 2},
		{&runtime.DiagnosticError{Diagnostics: []diagnostics.Diagnostic{{Code: diagnostics.EIO}}}, 1},
		{evaluator.Errorf(diagnostics.ECapDenied, "no"), 3},
		{evaluator.Errorf(diagnostics.EDivZero, "no"), 4},
		{&evaluator.RuntimeError{Code: diagnostics.ECancelled, Fatal: true}, 130},
		{errors.New("boom"), 4},
	}
	for _, tt := range tests {
		if got := exitCodeForError(tt.err); got != tt.want {
			t.Errorf("exitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFormatError(t *testing.T) {
	err := evaluator.Errorf(diagnostics.EThrow, "boom")
	if got := formatError(err, true); got != "E_THROW: boom" {
		t.Errorf("got %q", got)
	}
	if got := formatError(err, false); !strings.HasPrefix(got, `{"code":"E_THROW"`) {
		t.Errorf("got %q", got)
	}
}

func TestComputeTraceSummary(t *testing.T) {
	input := strings.Join([]string{
		`{"ts":"2024-01-01T00:00:00Z","runId":"r1","event":"run_start"}`,
		`{"ts":"2024-01-01T00:00:00Z","runId":"r1","event":"learn","data":{"name":"sq"}}`,
		`{"ts":"2024-01-01T00:00:00Z","runId":"r1","event":"fn_call_start","data":{"fn":"sq"}}`,
		`{"ts":"2024-01-01T00:00:00Z","runId":"r1","event":"builtin_call","data":{"fn":"forward","capability":"draw"}}`,
		`{"ts":"2024-01-01T00:00:00Z","runId":"r1","event":"builtin_call","data":{"fn":"forward","capability":"draw"}}`,
		`not json`,
		``,
		`{"ts":"2024-01-01T00:00:00Z","runId":"r1","event":"try_recovered","data":{"code":"E_THROW"}}`,
		`{"ts":"2024-01-01T00:00:00Z","runId":"r1","event":"error","data":{"code":"E_DIV_ZERO"}}`,
		`{"ts":"2024-01-01T00:00:01.5Z","runId":"r1","event":"run_end"}`,
	}, "\n")
	s := computeTraceSummary(strings.NewReader(input))
	if s.RunID != "r1" || s.TotalEvents != 8 || s.Chunks != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.FunctionCalls != 1 || s.BuiltinCalls != 2 || s.CallsByName["forward"] != 2 || s.Capabilities["draw"] != 2 {
		t.Errorf("unexpected calls %+v", s)
	}
	if s.Learned != 1 || s.Recovered != 1 || s.Errors != 1 {
		t.Errorf("unexpected counters %+v", s)
	}
	if s.DurationMs != 1500 {
		t.Errorf("duration = %v", s.DurationMs)
	}

	var buf bytes.Buffer
	printTraceSummaryText(&buf, s)
	if !strings.Contains(buf.String(), "Errors: 1 (1 recovered)") || !strings.Contains(buf.String(), "  forward: 2") {
		t.Errorf("text summary:\n%s", buf.String())
	}
}
