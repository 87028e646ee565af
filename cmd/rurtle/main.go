// Command rurtle is the Rurtle CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/thomasrohde/rurtle/pkg/canvas"
	"github.com/thomasrohde/rurtle/pkg/config"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
	"github.com/thomasrohde/rurtle/pkg/formatter"
	"github.com/thomasrohde/rurtle/pkg/help"
	"github.com/thomasrohde/rurtle/pkg/runtime"
	"github.com/thomasrohde/rurtle/pkg/stdlib"
)

const usage = `usage: rurtle <command> [options]
commands: run, repl, check, fmt, trace, help`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "trace":
		os.Exit(cmdTrace(os.Args[2:]))
	case "help", "--help", "-h":
		os.Exit(cmdHelp(os.Args[2:], os.Stdout, os.Stderr))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

// session bundles what one invocation sets up from the configuration.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	rt      *runtime.Runtime
	canvas  *canvas.Canvas
	closers []io.Closer
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// newSession builds a runtime around the configuration. tracePath, when set,
// receives every trace event as NDJSON.
func newSession(cfg *config.Config, tracePath string, con evaluator.Console) (*session, error) {
	s := &session{cfg: cfg, logger: cfg.NewLogger(os.Stderr)}
	if cfg.Path != "" {
		s.logger.Debug("loaded config", "path", cfg.Path)
	}

	s.canvas = canvas.New(cfg.Canvas.Width, cfg.Canvas.Height)
	bg := cfg.Canvas.Background
	if err := s.canvas.SetBackground(bg[0], bg[1], bg[2]); err != nil {
		return nil, err
	}

	policy, err := cfg.CapabilityPolicy()
	if err != nil {
		return nil, err
	}

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	opts := []runtime.Option{
		runtime.WithCanvas(s.canvas),
		runtime.WithLogger(s.logger),
		runtime.WithPolicy(policy),
		runtime.WithLimits(cfg.Limits),
		runtime.WithRunID(runID),
	}
	if con != nil {
		opts = append(opts, runtime.WithConsole(con))
	}
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		s.closers = append(s.closers, f)
		enc := json.NewEncoder(f)
		opts = append(opts, runtime.WithTrace(func(ev evaluator.TraceEvent) {
			if err := enc.Encode(ev); err != nil {
				s.logger.Warn("trace write failed", "err", err)
			}
		}))
	}
	s.rt = runtime.New(opts...)

	globals, err := cfg.GlobalValues()
	if err != nil {
		s.Close()
		return nil, err
	}
	for _, g := range globals {
		s.rt.SetGlobal(g.Name, g.Value)
	}
	return s, nil
}

// runFiles loads each file into the session in order, stopping at the first
// failure. It returns the exit code.
func (s *session) runFiles(ctx context.Context, files []string, pretty bool) int {
	for _, file := range files {
		s.logger.Debug("loading file", "file", file)
		if _, err := s.rt.RunFile(ctx, file); err != nil {
			return reportError(err, pretty)
		}
	}
	return 0
}

// commonFlags holds the options every command accepts.
type commonFlags struct {
	config string
	trace  string
	pretty bool
	files  []string
}

// parseFlags splits args into shared flags, command-specific flags and
// positional arguments. extra handles the command's own flags and reports
// whether it consumed args[i].
func parseFlags(args []string, extra func(args []string, i *int) bool) (commonFlags, error) {
	flags := commonFlags{pretty: true}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "--trace":
			if i+1 >= len(args) {
				return flags, fmt.Errorf("%s requires a value", args[i])
			}
			if args[i] == "--config" {
				flags.config = args[i+1]
			} else {
				flags.trace = args[i+1]
			}
			i++
		case "--json":
			flags.pretty = false
		default:
			if extra != nil && extra(args, &i) {
				continue
			}
			if strings.HasPrefix(args[i], "-") && args[i] != "-" {
				return flags, fmt.Errorf("unknown flag: %s", args[i])
			}
			flags.files = append(flags.files, args[i])
		}
	}
	return flags, nil
}

func cmdRun(args []string) int {
	savePath := ""
	flags, err := parseFlags(args, func(args []string, i *int) bool {
		if args[*i] == "--save" && *i+1 < len(args) {
			*i++
			savePath = args[*i]
			return true
		}
		return false
	})
	if err != nil || len(flags.files) == 0 {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Fprintln(os.Stderr, "usage: rurtle run <file>... [--config <path>] [--trace <out.jsonl>] [--save <out.png>] [--json]")
		return 1
	}

	cfg, err := config.Resolve(flags.config)
	if err != nil {
		return reportConfigError(err, flags.pretty)
	}
	s, err := newSession(cfg, flags.trace, nil)
	if err != nil {
		return reportConfigError(err, flags.pretty)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var last *runtime.Result
	files := append(s.cfg.StartupFiles(), flags.files...)
	for _, file := range files {
		s.logger.Debug("loading file", "file", file)
		if file == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
				return 1
			}
			last, err = s.rt.Run(ctx, string(data), "<stdin>")
			if err != nil {
				return reportError(err, flags.pretty)
			}
			continue
		}
		if last, err = s.rt.RunFile(ctx, file); err != nil {
			return reportError(err, flags.pretty)
		}
	}

	// Machine-readable runs end with the last chunk's value.
	if !flags.pretty && last != nil {
		if err := writeResult(os.Stdout, last.Value); err != nil {
			fmt.Fprintf(os.Stderr, "error serializing result: %s\n", err)
			return 4
		}
	}

	if savePath != "" {
		if err := s.canvas.SaveImage(savePath); err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot save image: %s", err), nil, "")
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, flags.pretty))
			return 1
		}
	}
	return 0
}

// writeResult prints v as one line of JSON. Nothing prints nothing.
func writeResult(w io.Writer, v evaluator.Value) error {
	if _, isNothing := v.(evaluator.Nothing); isNothing || v == nil {
		return nil
	}
	b, err := evaluator.ValueToJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func cmdCheck(args []string) int {
	flags, err := parseFlags(args, nil)
	if err != nil || len(flags.files) != 1 {
		fmt.Fprintln(os.Stderr, "usage: rurtle check <file> [--json]")
		return 1
	}

	source, filename, exitCode := readSource(flags.files[0], flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, flags.pretty))
		return 2
	}

	if flags.pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return 0
}

func cmdFmt(args []string) int {
	write := false
	flags, err := parseFlags(args, func(args []string, i *int) bool {
		if args[*i] == "--write" {
			write = true
			return true
		}
		return false
	})
	if err != nil || len(flags.files) != 1 {
		fmt.Fprintln(os.Stderr, "usage: rurtle fmt <file> [--write]")
		return 1
	}
	file := flags.files[0]

	source, filename, exitCode := readSource(file, flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	formatted, fmtErr := rt.Format(source, filename)
	if fmtErr != nil {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(runtime.Diagnostics(fmtErr), flags.pretty))
		return 2
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(os.Stderr, "warning: comments are not preserved by the formatter")
	}

	if write && file != "-" {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return 1
		}
		return 0
	}
	fmt.Print(formatted)
	return 0
}

func cmdTrace(args []string) int {
	textOutput := false
	flags, err := parseFlags(args, func(args []string, i *int) bool {
		if args[*i] == "--text" {
			textOutput = true
			return true
		}
		return false
	})
	if err != nil || len(flags.files) != 1 {
		fmt.Fprintln(os.Stderr, "usage: rurtle trace <file.jsonl> [--json|--text]")
		return 1
	}
	file := flags.files[0]

	f, err := os.Open(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, false))
		return 1
	}
	defer f.Close()

	summary := computeTraceSummary(f)
	if textOutput {
		printTraceSummaryText(os.Stdout, summary)
	} else {
		b, _ := json.Marshal(summary)
		fmt.Println(string(b))
	}
	return 0
}

func cmdHelp(args []string, stdout, stderr io.Writer) int {
	topic := ""
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	switch topic {
	case "":
		fmt.Fprint(stdout, help.QUICKREF)
		return 0
	case "builtins":
		fmt.Fprint(stdout, help.BuiltinIndex(stdlib.Default()))
		return 0
	}

	if doc, ok := help.Lookup(stdlib.Default(), topic); ok {
		fmt.Fprintln(stdout, doc)
		return 0
	}
	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(stderr, "%s\nAvailable topics: %s, builtins\n", err, strings.Join(help.TopicList, ", "))
		return 1
	}
	fmt.Fprint(stdout, content)
	return 0
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", 1
	}
	return string(source), file, 0
}

// reportError prints the diagnostics for err and returns the exit code.
func reportError(err error, pretty bool) int {
	diags := runtime.Diagnostics(err)
	fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
	return exitCodeForError(err)
}

func reportConfigError(err error, pretty bool) int {
	diag := diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "")
	fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
	return 1
}

func exitCodeForError(err error) int {
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		for _, d := range diagErr.Diagnostics {
			if d.Code == diagnostics.EIO {
				return 1
			}
		}
		return 2
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		return exitCodeForDiag(rtErr.Code)
	}
	return 4
}

func exitCodeForDiag(code string) int {
	switch code {
	case diagnostics.ECapDenied:
		return 3
	case diagnostics.ECancelled:
		return 130
	default:
		return 4
	}
}
