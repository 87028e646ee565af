package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/thomasrohde/rurtle/pkg/ast"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart     TraceEventType = "run_start"
	TraceRunEnd       TraceEventType = "run_end"
	TraceFnCallStart  TraceEventType = "fn_call_start"
	TraceFnCallEnd    TraceEventType = "fn_call_end"
	TraceBuiltinCall  TraceEventType = "builtin_call"
	TraceLearn        TraceEventType = "learn"
	TraceTryStart     TraceEventType = "try_start"
	TraceTryRecovered TraceEventType = "try_recovered"
	TraceTryEnd       TraceEventType = "try_end"
	TraceError        TraceEventType = "error"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Canvas is the turtle drawing surface the drawing builtins delegate to.
// Headings are in degrees, clockwise from north.
type Canvas interface {
	Move(distance float64, penDown bool) error
	Turn(delta float64) error
	SetHeading(degrees float64) error
	SetColor(r, g, b float64) error
	SetBackground(r, g, b float64) error
	Clear() error
	SetPen(down bool) error
	Home() error
	SetVisible(visible bool) error
	SaveImage(path string) error
}

// Console is the line-oriented front end used by print and prompt.
type Console interface {
	Print(text string) error
	Prompt(text string) (string, error)
}

// Builtin is a natively implemented function with a fixed arity.
type Builtin struct {
	Name  string
	Arity int
	// Capability names the host capability the builtin needs, or "" if it is
	// pure.
	Capability string
	Execute    func(c *Call) (Value, error)
}

// Call is what a builtin sees of the session it runs in.
type Call struct {
	Ctx  context.Context
	Name string
	Args []Value
	Span ast.Span
	s    *Session
}

// Canvas returns the session canvas.
func (c *Call) Canvas() Canvas { return c.s.opts.Canvas }

// Console returns the session console.
func (c *Call) Console() Console { return c.s.opts.Console }

// PenDown reports the evaluator's view of the pen.
func (c *Call) PenDown() bool { return c.s.penDown }

// SetPenDown records a pen change made through the canvas.
func (c *Call) SetPenDown(down bool) { c.s.penDown = down }

// Logger returns the session logger.
func (c *Call) Logger() *slog.Logger { return c.s.logger }

// Options configures a session.
type Options struct {
	Builtins map[string]*Builtin
	Canvas   Canvas
	Console  Console
	// AllowedCapabilities gates builtins by capability; nil allows all.
	AllowedCapabilities map[string]bool
	Limits              Limits
	Logger              *slog.Logger
	Trace               func(event TraceEvent)
	RunID               string
}

// ExecResult holds the result of running one chunk.
type ExecResult struct {
	// Value is the value of the last top-level expression statement, or the
	// value of a top-level return.
	Value    Value
	Returned bool
}

// RuntimeError is the payload of the Erroring state.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
	// Fatal errors abort the chunk and cannot be intercepted by try.
	Fatal bool
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error for reporting.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

// Errorf builds a catchable runtime error.
func Errorf(code, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// State is the evaluator's control state after a statement.
type State int

const (
	Running State = iota
	Returning
	Erroring
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Returning:
		return "returning"
	case Erroring:
		return "erroring"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is the result of executing a statement or block.
type Outcome struct {
	State State
	Value Value
	Err   *RuntimeError
}

func running(v Value) Outcome { return Outcome{State: Running, Value: v} }

func erroring(err *RuntimeError) Outcome { return Outcome{State: Erroring, Err: err} }

// Function is a learned function. Bodies are looked up by name at call time.
type Function struct {
	Name   string
	Params []string
	Body   []ast.Stmt
	Span   ast.Span
}

// Session is the persistent interpreter state: the global scope, the function
// table and the mirrored pen state. Sessions are independent of each other.
type Session struct {
	opts      Options
	global    *Env
	functions map[string]*Function
	penDown   bool
	logger    *slog.Logger
}

// NewSession creates an empty session.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Builtins == nil {
		opts.Builtins = map[string]*Builtin{}
	}
	return &Session{
		opts:      opts,
		global:    NewEnv(nil),
		functions: make(map[string]*Function),
		penDown:   true,
		logger:    logger,
	}
}

// Global returns the global scope.
func (s *Session) Global() *Env { return s.global }

// Function looks up a learned function.
func (s *Session) Function(name string) (*Function, bool) {
	fn, ok := s.functions[name]
	return fn, ok
}

// Functions returns all learned functions sorted by name.
func (s *Session) Functions() []*Function {
	out := make([]*Function, 0, len(s.functions))
	for _, fn := range s.functions {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Arities returns the argument count of every callable name. Learned
// functions shadow builtins of the same name.
func (s *Session) Arities() map[string]int {
	out := make(map[string]int, len(s.opts.Builtins)+len(s.functions))
	for name, b := range s.opts.Builtins {
		out[name] = b.Arity
	}
	for name, fn := range s.functions {
		out[name] = len(fn.Params)
	}
	return out
}

// PenDown reports the mirrored pen state.
func (s *Session) PenDown() bool { return s.penDown }

type evaluator struct {
	ctx     context.Context
	s       *Session
	depth   int
	tracker iterationTracker
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.s.opts.Trace != nil {
		ev.s.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.s.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// Execute runs one parsed chunk against the session. A RuntimeError that
// reaches the top level is returned as the error; effects of statements that
// ran before it are kept.
func (s *Session) Execute(ctx context.Context, program *ast.Program) (*ExecResult, error) {
	ev := &evaluator{ctx: ctx, s: s}
	span := program.Span
	ev.emit(TraceRunStart, &span, nil)

	out := ev.execBlock(program.Statements, s.global)

	switch out.State {
	case Erroring:
		ev.emit(TraceError, out.Err.Span, map[string]string{"code": out.Err.Code, "message": out.Err.Message})
		ev.emit(TraceRunEnd, &span, nil)
		return nil, out.Err
	case Returning:
		ev.emit(TraceRunEnd, &span, nil)
		return &ExecResult{Value: out.Value, Returned: true}, nil
	}
	ev.emit(TraceRunEnd, &span, nil)
	return &ExecResult{Value: out.Value}, nil
}

func (ev *evaluator) checkCancelled(span ast.Span) *RuntimeError {
	if err := ev.ctx.Err(); err != nil {
		return &RuntimeError{
			Code:    diagnostics.ECancelled,
			Message: fmt.Sprintf("execution cancelled: %v", err),
			Span:    &span,
			Fatal:   true,
		}
	}
	return nil
}

func (ev *evaluator) checkIterations(span ast.Span) *RuntimeError {
	ev.tracker.Iterations++
	limit := ev.s.opts.Limits.MaxIterations
	if limit > 0 && ev.tracker.Iterations > limit {
		return &RuntimeError{
			Code:    diagnostics.EBudget,
			Message: fmt.Sprintf("iteration budget exceeded (max %d)", limit),
			Span:    &span,
			Fatal:   true,
		}
	}
	return ev.checkCancelled(span)
}

// toRuntimeError normalizes any error raised while evaluating node.
func toRuntimeError(err error, span ast.Span) *RuntimeError {
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		if rtErr.Span == nil {
			rtErr.Span = &span
		}
		return rtErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &RuntimeError{Code: diagnostics.ECancelled, Message: err.Error(), Span: &span, Fatal: true}
	}
	return &RuntimeError{Code: diagnostics.EValue, Message: err.Error(), Span: &span}
}

// --- Statements ---

func (ev *evaluator) execBlock(stmts []ast.Stmt, env *Env) Outcome {
	var last Value = Nothing{}
	for _, stmt := range stmts {
		out := ev.execStmt(stmt, env)
		if out.State != Running {
			return out
		}
		last = out.Value
	}
	return running(last)
}

func (ev *evaluator) execStmt(stmt ast.Stmt, env *Env) Outcome {
	if err := ev.checkCancelled(stmt.NodeSpan()); err != nil {
		return erroring(err)
	}

	switch s := stmt.(type) {
	case *ast.ExprStmt:
		val, err := ev.evalExpr(s.Expr, env)
		if err != nil {
			return erroring(toRuntimeError(err, s.Span))
		}
		return running(val)

	case *ast.RepeatStmt:
		return ev.execRepeat(s, env)

	case *ast.WhileStmt:
		return ev.execWhile(s, env)

	case *ast.IfStmt:
		cond, err := ev.evalExpr(s.Cond, env)
		if err != nil {
			return erroring(toRuntimeError(err, s.Cond.NodeSpan()))
		}
		if Truthiness(cond) {
			return ev.execBlock(s.ThenBody, env).asStatement()
		}
		return ev.execBlock(s.ElseBody, env).asStatement()

	case *ast.LearnStmt:
		ev.s.functions[s.Name] = &Function{Name: s.Name, Params: s.Params, Body: s.Body, Span: s.Span}
		ev.s.logger.Debug("learned function", slog.String("name", s.Name), slog.Int("params", len(s.Params)))
		span := s.Span
		ev.emit(TraceLearn, &span, map[string]string{"name": s.Name})
		return running(Nothing{})

	case *ast.ReturnStmt:
		var val Value = Nothing{}
		if s.Value != nil {
			v, err := ev.evalExpr(s.Value, env)
			if err != nil {
				return erroring(toRuntimeError(err, s.Span))
			}
			val = v
		}
		return Outcome{State: Returning, Value: val}

	case *ast.TryStmt:
		return ev.execTry(s, env)
	}

	span := stmt.NodeSpan()
	return erroring(&RuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf("unknown statement kind: %s", stmt.Kind()),
		Span:    &span,
	})
}

// asStatement drops the block's last expression value so compound
// statements themselves yield Nothing.
func (o Outcome) asStatement() Outcome {
	if o.State == Running {
		return running(Nothing{})
	}
	return o
}

func (ev *evaluator) execRepeat(s *ast.RepeatStmt, env *Env) Outcome {
	countVal, err := ev.evalExpr(s.Count, env)
	if err != nil {
		return erroring(toRuntimeError(err, s.Count.NodeSpan()))
	}
	num, ok := countVal.(Number)
	if !ok {
		span := s.Count.NodeSpan()
		return erroring(&RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("repeat count must be a number, got %s", TypeName(countVal)),
			Span:    &span,
		})
	}
	count := math.Trunc(num.Value)
	if math.IsNaN(count) || count < 0 {
		count = 0
	}
	for i := 0.0; i < count; i++ {
		if rtErr := ev.checkIterations(s.Span); rtErr != nil {
			return erroring(rtErr)
		}
		out := ev.execBlock(s.Body, env)
		if out.State != Running {
			return out
		}
	}
	return running(Nothing{})
}

func (ev *evaluator) execWhile(s *ast.WhileStmt, env *Env) Outcome {
	for {
		condVal, err := ev.evalExpr(s.Cond, env)
		if err != nil {
			return erroring(toRuntimeError(err, s.Cond.NodeSpan()))
		}
		num, ok := condVal.(Number)
		if !ok {
			span := s.Cond.NodeSpan()
			return erroring(&RuntimeError{
				Code:    diagnostics.EType,
				Message: fmt.Sprintf("while condition must be a number, got %s", TypeName(condVal)),
				Span:    &span,
			})
		}
		if num.Value == 0 {
			return running(Nothing{})
		}
		if rtErr := ev.checkIterations(s.Span); rtErr != nil {
			return erroring(rtErr)
		}
		out := ev.execBlock(s.Body, env)
		if out.State != Running {
			return out
		}
	}
}

func (ev *evaluator) execTry(s *ast.TryStmt, env *Env) Outcome {
	span := s.Span
	ev.emit(TraceTryStart, &span, nil)
	defer ev.emit(TraceTryEnd, &span, nil)

	out := ev.execBlock(s.Body, env)
	if out.State != Erroring || out.Err.Fatal || !diagnostics.Recoverable(out.Err.Code) {
		return out.asStatement()
	}
	ev.s.logger.Debug("try recovered error", slog.String("code", out.Err.Code), slog.String("message", out.Err.Message))
	ev.emit(TraceTryRecovered, &span, map[string]string{"code": out.Err.Code, "message": out.Err.Message})
	return ev.execBlock(s.ElseBody, env).asStatement()
}

// --- Expressions ---

func (ev *evaluator) evalExpr(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return NewNumber(e.Value), nil

	case *ast.StrLiteral:
		return NewString(e.Value), nil

	case *ast.ListExpr:
		items := make([]Value, 0, len(e.Elements))
		for _, elem := range e.Elements {
			v, err := ev.evalExpr(elem, env)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return NewList(items), nil

	case *ast.VarRef:
		if v, ok := env.Get(e.Name); ok {
			return v, nil
		}
		span := e.Span
		return nil, &RuntimeError{
			Code:    diagnostics.EUnbound,
			Message: fmt.Sprintf("variable %s not found", e.Name),
			Span:    &span,
		}

	case *ast.ParenExpr:
		return ev.evalExpr(e.Inner, env)

	case *ast.BinaryExpr:
		left, err := ev.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := ev.evalExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		v, err := Apply(e.Op, left, right)
		if err != nil {
			return nil, toRuntimeError(err, e.Span)
		}
		return v, nil

	case *ast.MakeExpr:
		return ev.evalMake(e, env)

	case *ast.CallExpr:
		return ev.evalCall(e, env)
	}

	span := expr.NodeSpan()
	return nil, &RuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf("unknown expression kind: %s", expr.Kind()),
		Span:    &span,
	}
}

func (ev *evaluator) evalMake(e *ast.MakeExpr, env *Env) (Value, error) {
	nameVal, err := ev.evalExpr(e.Name, env)
	if err != nil {
		return nil, err
	}
	name, ok := nameVal.(String)
	if !ok {
		span := e.Name.NodeSpan()
		verb := "make"
		if e.Global {
			verb = "global"
		}
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("%s expects a string name, got %s", verb, TypeName(nameVal)),
			Span:    &span,
		}
	}
	val, err := ev.evalExpr(e.Value, env)
	if err != nil {
		return nil, err
	}
	if e.Global {
		env.SetGlobal(name.Value, val)
	} else {
		env.Set(name.Value, val)
	}
	return Nothing{}, nil
}

func (ev *evaluator) evalCall(e *ast.CallExpr, env *Env) (Value, error) {
	args := make([]Value, 0, len(e.Args))
	for _, arg := range e.Args {
		v, err := ev.evalExpr(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if fn, ok := ev.s.functions[e.Name]; ok {
		return ev.callFunction(fn, args, e.Span)
	}
	if b, ok := ev.s.opts.Builtins[e.Name]; ok {
		return ev.callBuiltin(b, args, e.Span)
	}

	span := e.Span
	return nil, &RuntimeError{
		Code:    diagnostics.EUnknownFn,
		Message: fmt.Sprintf("function %s not found", e.Name),
		Span:    &span,
	}
}

func (ev *evaluator) callFunction(fn *Function, args []Value, span ast.Span) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args)),
			Span:    &span,
		}
	}
	if ev.depth >= ev.s.opts.Limits.callDepth() {
		return nil, &RuntimeError{
			Code:    diagnostics.EDepth,
			Message: fmt.Sprintf("maximum call depth %d exceeded in %s", ev.s.opts.Limits.callDepth(), fn.Name),
			Span:    &span,
		}
	}

	frame := ev.s.global.Child()
	for i, param := range fn.Params {
		frame.Set(param, args[i])
	}

	ev.depth++
	ev.s.logger.Debug("push stack frame", slog.String("fn", fn.Name), slog.Int("stack-size", ev.depth))
	ev.emit(TraceFnCallStart, &span, map[string]string{"fn": fn.Name})

	out := ev.execBlock(fn.Body, frame)

	ev.depth--
	ev.s.logger.Debug("pop stack frame", slog.String("fn", fn.Name), slog.Int("stack-size", ev.depth), slog.String("state", out.State.String()))
	ev.emit(TraceFnCallEnd, &span, map[string]string{"fn": fn.Name, "state": out.State.String()})

	switch out.State {
	case Erroring:
		return nil, out.Err
	case Returning:
		return out.Value, nil
	}
	return Nothing{}, nil
}

func (ev *evaluator) callBuiltin(b *Builtin, args []Value, span ast.Span) (Value, error) {
	if b.Execute == nil {
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("%s cannot be called as a function", b.Name),
			Span:    &span,
		}
	}
	if b.Capability != "" && ev.s.opts.AllowedCapabilities != nil && !ev.s.opts.AllowedCapabilities[b.Capability] {
		return nil, &RuntimeError{
			Code:    diagnostics.ECapDenied,
			Message: fmt.Sprintf("capability '%s' required by %s is not allowed", b.Capability, b.Name),
			Span:    &span,
		}
	}
	if b.Capability != "" {
		ev.emit(TraceBuiltinCall, &span, map[string]string{"fn": b.Name, "capability": b.Capability})
	}

	result, err := b.Execute(&Call{Ctx: ev.ctx, Name: b.Name, Args: args, Span: span, s: ev.s})
	if err != nil {
		return nil, toRuntimeError(err, span)
	}
	if result == nil {
		return Nothing{}, nil
	}
	return result, nil
}
