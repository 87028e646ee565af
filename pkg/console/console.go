// Package console provides the line-oriented front ends used by print and
// prompt: an interactive terminal backed by liner and a plain stream for
// scripts and tests.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/thomasrohde/rurtle/pkg/evaluator"
	"github.com/thomasrohde/rurtle/pkg/lexer"
)

// ErrInterrupted is returned by Prompt when the user presses Ctrl-C.
var ErrInterrupted = errors.New("input interrupted")

// Stream is a console over an io.Reader and io.Writer.
type Stream struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

var _ evaluator.Console = (*Stream)(nil)

// NewStream creates a console reading from in and writing to out. A nil in
// makes every prompt fail with io.EOF.
func NewStream(in io.Reader, out io.Writer) *Stream {
	s := &Stream{out: out}
	if in != nil {
		s.in = bufio.NewReader(in)
	}
	return s
}

// Print writes text followed by a newline.
func (s *Stream) Print(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.out, text)
	return err
}

// Prompt writes text and reads one line, without its line ending.
func (s *Stream) Prompt(text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.out, text); err != nil {
		return "", err
	}
	if s.in == nil {
		return "", io.EOF
	}
	line, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Liner is an interactive terminal console with line editing and history.
type Liner struct {
	state       *liner.State
	out         io.Writer
	historyPath string
}

var _ evaluator.Console = (*Liner)(nil)

// NewLiner takes over the terminal. History is loaded from historyPath when
// it is not empty and saved back by Close.
func NewLiner(historyPath string) *Liner {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	l := &Liner{state: state, out: os.Stdout, historyPath: historyPath}
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}
	return l
}

// SetCompleter completes the word under the cursor from the names returned
// by names.
func (l *Liner) SetCompleter(names func() []string) {
	l.state.SetCompleter(func(line string) []string {
		start := strings.LastIndexAny(line, " \t[(") + 1
		prefix := lexer.FoldName(line[start:])
		if prefix == "" {
			return nil
		}
		var out []string
		for _, name := range names() {
			if strings.HasPrefix(name, prefix) {
				out = append(out, line[:start]+name)
			}
		}
		return out
	})
}

// Print writes text followed by a newline.
func (l *Liner) Print(text string) error {
	_, err := fmt.Fprintln(l.out, text)
	return err
}

// Prompt reads one line after showing text.
func (l *Liner) Prompt(text string) (string, error) {
	line, err := l.state.Prompt(text)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	return line, err
}

// AppendHistory records an entered chunk. Multi-line chunks are joined.
func (l *Liner) AppendHistory(chunk string) {
	chunk = strings.TrimSpace(strings.ReplaceAll(chunk, "\n", " "))
	if chunk != "" {
		l.state.AppendHistory(chunk)
	}
}

// Close restores the terminal and saves the history.
func (l *Liner) Close() error {
	if l.historyPath != "" {
		if f, err := os.Create(l.historyPath); err == nil {
			_, _ = l.state.WriteHistory(f)
			_ = f.Close()
		}
	}
	return l.state.Close()
}
