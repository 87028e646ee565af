package console

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestStreamPrint(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(nil, &out)
	if err := s.Print("hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.Print("4"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello\n4\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestStreamPrompt(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader("Ada\r\nlast"), &out)

	line, err := s.Prompt("name? ")
	if err != nil {
		t.Fatal(err)
	}
	if line != "Ada" {
		t.Errorf("expected Ada, got %q", line)
	}
	if out.String() != "name? " {
		t.Errorf("prompt text not written, got %q", out.String())
	}

	// Final line without a newline is still returned.
	line, err = s.Prompt("")
	if err != nil || line != "last" {
		t.Errorf("expected last, got %q (%v)", line, err)
	}

	if _, err := s.Prompt(""); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestStreamPromptWithoutInput(t *testing.T) {
	s := NewStream(nil, io.Discard)
	if _, err := s.Prompt("x"); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}
