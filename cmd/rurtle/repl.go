package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/thomasrohde/rurtle/pkg/config"
	"github.com/thomasrohde/rurtle/pkg/console"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
	"github.com/thomasrohde/rurtle/pkg/help"
	"github.com/thomasrohde/rurtle/pkg/runtime"
)

var keywords = []string{"learn", "repeat", "while", "if", "else", "try", "do", "end", "return"}

const replHelp = `:quit        leave the REPL (also Ctrl-D)
:functions   list learned functions
:help        this text; :help TOPIC shows a help topic
Ctrl-C cancels a running program or the current input.
`

func cmdRepl(args []string) int {
	flags, err := parseFlags(args, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: rurtle repl [file]... [--config <path>] [--trace <out.jsonl>]")
		return 1
	}

	cfg, err := config.Resolve(flags.config)
	if err != nil {
		return reportConfigError(err, flags.pretty)
	}

	line := console.NewLiner(cfg.HistoryFile())
	defer line.Close()

	s, err := newSession(cfg, flags.trace, line)
	if err != nil {
		return reportConfigError(err, flags.pretty)
	}
	defer s.Close()

	line.SetCompleter(func() []string { return completions(s.rt.Session()) })

	files := append(s.cfg.StartupFiles(), flags.files...)
	if code := s.runFiles(context.Background(), files, flags.pretty); code != 0 {
		s.logger.Warn("startup failed", "exit", code)
	}

	fmt.Printf("Rurtle %s. Type :help for help, :quit to leave.\n", help.Version)
	r := &repl{rt: s.rt, con: line, out: os.Stdout, prompt: s.cfg.REPL.Prompt, pretty: flags.pretty}
	return r.loop()
}

// lineReader is the part of the console the loop needs.
type lineReader interface {
	Prompt(text string) (string, error)
}

type historian interface {
	AppendHistory(chunk string)
}

type repl struct {
	rt     *runtime.Runtime
	con    lineReader
	out    io.Writer
	prompt string
	pretty bool
}

// loop reads chunks until :quit or end of input. Lines are accumulated while
// the parser reports that the input ended inside an open construct.
func (r *repl) loop() int {
	var pending strings.Builder
	for {
		prompt := r.prompt
		if pending.Len() > 0 {
			prompt = continuationPrompt(r.prompt)
		}
		text, err := r.con.Prompt(prompt)
		if errors.Is(err, console.ErrInterrupted) {
			pending.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return 0
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading input: %s\n", err)
			return 1
		}

		if pending.Len() == 0 && strings.HasPrefix(strings.TrimSpace(text), ":") {
			if quit := r.meta(strings.TrimSpace(text)); quit {
				return 0
			}
			continue
		}

		pending.WriteString(text)
		pending.WriteByte('\n')
		source := pending.String()
		if strings.TrimSpace(source) == "" {
			pending.Reset()
			continue
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		res, err := r.rt.Run(ctx, source, "<repl>")
		stop()
		if runtime.Incomplete(err) {
			continue
		}
		if h, ok := r.con.(historian); ok {
			h.AppendHistory(source)
		}
		pending.Reset()

		if err != nil {
			fmt.Fprintln(os.Stderr, formatError(err, r.pretty))
			continue
		}
		if _, isNothing := res.Value.(evaluator.Nothing); isNothing || res.Value == nil {
			continue
		}
		if r.pretty {
			fmt.Fprintf(r.out, "= %s\n", evaluator.Repr(res.Value))
		} else {
			fmt.Fprintln(r.out, evaluator.ValueToJSONString(res.Value))
		}
	}
}

// meta runs a colon command and reports whether the REPL should exit.
func (r *repl) meta(cmd string) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":functions":
		sigs := map[string][]string{}
		for _, fn := range r.rt.Session().Functions() {
			sigs[fn.Name] = fn.Params
		}
		if len(sigs) == 0 {
			fmt.Fprintln(r.out, "no functions learned yet")
			return false
		}
		fmt.Fprint(r.out, help.Learned(sigs))
	case ":help":
		if len(fields) > 1 {
			cmdHelp(fields[1:], r.out, r.out)
			return false
		}
		fmt.Fprint(r.out, replHelp)
	default:
		fmt.Fprintf(r.out, "unknown command %s, try :help\n", fields[0])
	}
	return false
}

func continuationPrompt(prompt string) string {
	width := len(strings.TrimRight(prompt, " "))
	if width == 0 {
		return "... "
	}
	return strings.Repeat(".", width) + strings.Repeat(" ", len(prompt)-width)
}

func completions(sess *evaluator.Session) []string {
	names := append([]string{}, keywords...)
	for name := range sess.Arities() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatError renders errors in the REPL's compact one-line-per-error form.
func formatError(err error, pretty bool) string {
	var b strings.Builder
	for i, d := range runtime.Diagnostics(err) {
		if i > 0 {
			b.WriteString("\n")
		}
		if !pretty {
			b.WriteString(diagnostics.FormatDiagnostic(d, false))
			continue
		}
		b.WriteString(d.Code + ": " + d.Message)
		if d.Span != nil {
			fmt.Fprintf(&b, " (line %d)", d.Span.StartLine)
		}
	}
	return b.String()
}
