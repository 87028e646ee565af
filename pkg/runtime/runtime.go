// Package runtime provides the top-level Rurtle runtime orchestrator.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/thomasrohde/rurtle/pkg/ast"
	"github.com/thomasrohde/rurtle/pkg/canvas"
	"github.com/thomasrohde/rurtle/pkg/capabilities"
	"github.com/thomasrohde/rurtle/pkg/console"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
	"github.com/thomasrohde/rurtle/pkg/formatter"
	"github.com/thomasrohde/rurtle/pkg/parser"
	"github.com/thomasrohde/rurtle/pkg/stdlib"
	"github.com/thomasrohde/rurtle/pkg/validator"
)

// Result holds the outcome of one chunk.
type Result struct {
	// Value is the value of the last top-level expression statement.
	Value evaluator.Value
	// Returned is set when the chunk ended with a top-level return.
	Returned bool
}

// Runtime wires together all Rurtle components. It owns one session, so
// functions and globals persist from one Run to the next.
type Runtime struct {
	stdlib  *stdlib.Registry
	canvas  evaluator.Canvas
	console evaluator.Console
	logger  *slog.Logger
	policy  *capabilities.Policy
	limits  evaluator.Limits
	runID   string
	trace   func(event evaluator.TraceEvent)

	session *evaluator.Session
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdlib sets the builtin registry.
func WithStdlib(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.stdlib = r
	}
}

// WithCanvas sets the drawing surface.
func WithCanvas(c evaluator.Canvas) Option {
	return func(rt *Runtime) {
		rt.canvas = c
	}
}

// WithConsole sets the console used by print and prompt.
func WithConsole(c evaluator.Console) Option {
	return func(rt *Runtime) {
		rt.console = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithPolicy sets the capability policy.
func WithPolicy(p *capabilities.Policy) Option {
	return func(rt *Runtime) {
		rt.policy = p
	}
}

// WithLimits sets the resource limits.
func WithLimits(l evaluator.Limits) Option {
	return func(rt *Runtime) {
		rt.limits = l
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default every builtin is registered, every capability is allowed, and
// output goes to a headless canvas and the process's standard streams.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdlib: stdlib.Default(),
		policy: capabilities.AllowAll(),
		runID:  "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.canvas == nil {
		rt.canvas = canvas.New(canvas.DefaultWidth, canvas.DefaultHeight)
	}
	if rt.console == nil {
		rt.console = console.NewStream(os.Stdin, os.Stdout)
	}
	if rt.logger == nil {
		rt.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var allowedCaps map[string]bool
	if rt.policy != nil {
		allowedCaps = rt.policy.Allowed
	}
	rt.session = evaluator.NewSession(evaluator.Options{
		Builtins:            rt.stdlib.Builtins(),
		Canvas:              rt.canvas,
		Console:             rt.console,
		AllowedCapabilities: allowedCaps,
		Limits:              rt.limits,
		Logger:              rt.logger,
		Trace:               rt.trace,
		RunID:               rt.runID,
	})
	return rt
}

// Session exposes the persistent interpreter state.
func (rt *Runtime) Session() *evaluator.Session {
	return rt.session
}

// SetGlobal binds a global variable before or between runs.
func (rt *Runtime) SetGlobal(name string, v evaluator.Value) {
	rt.session.Global().Set(name, v)
}

// load parses and validates a chunk against the names the session knows.
func (rt *Runtime) load(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	program, diags := parser.Parse(source, filename, rt.session.Arities())
	if len(diags) > 0 {
		return nil, diags
	}
	if vDiags := validator.Validate(program); len(vDiags) > 0 {
		return nil, vDiags
	}
	return program, nil
}

// Run parses, validates, and executes one chunk of Rurtle source. Load-time
// failures return a *DiagnosticError and leave the session untouched; a
// runtime failure returns the *evaluator.RuntimeError, keeping the effects of
// statements that ran before it.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	program, diags := rt.load(source, filename)
	if len(diags) > 0 {
		rt.logger.Debug("chunk rejected", "file", filename, "diagnostics", len(diags))
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	rt.logger.Debug("running chunk", "file", filename, "statements", len(program.Statements))

	result, err := rt.session.Execute(ctx, program)
	if err != nil {
		var rtErr *evaluator.RuntimeError
		if errors.As(err, &rtErr) {
			rt.logger.Debug("chunk failed", "file", filename, "code", rtErr.Code)
		}
		return nil, err
	}
	return &Result{Value: result.Value, Returned: result.Returned}, nil
}

// RunFile reads and runs a source file.
func (rt *Runtime) RunFile(ctx context.Context, path string) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", path), nil, "")
		return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{diag}}
	}
	return rt.Run(ctx, string(source), path)
}

// Check parses and validates a chunk without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	_, diags := rt.load(source, filename)
	return diags
}

// Format parses and formats a chunk.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename, rt.session.Arities())
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// DiagnosticError wraps load-time diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Incomplete reports whether err only complains about input that ended too
// early, so an interactive caller can read more lines and retry.
func Incomplete(err error) bool {
	var diagErr *DiagnosticError
	if !errors.As(err, &diagErr) {
		return false
	}
	return parser.Incomplete(diagErr.Diagnostics)
}

// Diagnostics converts any error returned by Run into diagnostics.
func Diagnostics(err error) []diagnostics.Diagnostic {
	var diagErr *DiagnosticError
	if errors.As(err, &diagErr) {
		return diagErr.Diagnostics
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		return []diagnostics.Diagnostic{rtErr.Diagnostic()}
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")}
}
