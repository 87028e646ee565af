// Package diagnostics defines Rurtle diagnostic types for lex, parse and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/rurtle/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex       = "E_LEX"
	EParse     = "E_PARSE"
	EUnknownFn = "E_UNKNOWN_FN"
	EDupParam  = "E_DUP_PARAM"
	EUnbound   = "E_UNBOUND"
	EType      = "E_TYPE"
	EIndex     = "E_INDEX"
	EDivZero   = "E_DIV_ZERO"
	EValue     = "E_VALUE"
	EThrow     = "E_THROW"
	ECanvas    = "E_CANVAS"
	EIO        = "E_IO"
	ECapDenied = "E_CAP_DENIED"
	EDepth     = "E_DEPTH"
	EBudget    = "E_BUDGET"
	ECancelled = "E_CANCELLED"
	EConfig    = "E_CONFIG"
)

// HintIncomplete marks diagnostics caused by input that ended before a
// construct was closed. Interactive front ends read more lines on it.
const HintIncomplete = "input ended before the construct was closed"

// Recoverable reports whether a runtime error with this code may be
// intercepted by a try block. E_UNKNOWN_FN is recoverable: at run time it
// means a learn that the parser saw never ran.
func Recoverable(code string) bool {
	switch code {
	case ELex, EParse, EDupParam, ECancelled, EBudget, EConfig:
		return false
	}
	return true
}

// Diagnostic represents a parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
