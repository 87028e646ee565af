// Package lexer implements the Rurtle tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/thomasrohde/rurtle/pkg/ast"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokLearn TokenType = iota
	TokDo
	TokEnd
	TokRepeat
	TokWhile
	TokIf
	TokElse
	TokReturn
	TokTry

	// Literals
	TokNumber
	TokString

	// Names
	TokIdent
	TokVar // :name

	// Punctuation
	TokLBracket // [
	TokRBracket // ]
	TokLParen   // (
	TokRParen   // )

	// Comparison operators
	TokEq   // =
	TokNeq  // <>
	TokLt   // <
	TokGt   // >
	TokLtEq // <=
	TokGtEq // >=

	// Arithmetic operators
	TokPlus  // +
	TokMinus // -
	TokStar  // *
	TokSlash // /

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokLearn:    "'learn'",
	TokDo:       "'do'",
	TokEnd:      "'end'",
	TokRepeat:   "'repeat'",
	TokWhile:    "'while'",
	TokIf:       "'if'",
	TokElse:     "'else'",
	TokReturn:   "'return'",
	TokTry:      "'try'",
	TokNumber:   "number",
	TokString:   "string literal",
	TokIdent:    "word",
	TokVar:      "variable",
	TokLBracket: "'['",
	TokRBracket: "']'",
	TokLParen:   "'('",
	TokRParen:   "')'",
	TokEq:       "'='",
	TokNeq:      "'<>'",
	TokLt:       "'<'",
	TokGt:       "'>'",
	TokLtEq:     "'<='",
	TokGtEq:     "'>='",
	TokPlus:     "'+'",
	TokMinus:    "'-'",
	TokStar:     "'*'",
	TokSlash:    "'/'",
	TokEOF:      "end of input",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a single lexer token.
type Token struct {
	Type TokenType
	// Value is the literal text for numbers and strings, and the case-folded
	// name for identifiers and keywords. Variable names keep their case.
	Value string
	// Num holds the parsed value of a TokNumber.
	Num  float64
	Span ast.Span
}

var keywords = map[string]TokenType{
	"learn":  TokLearn,
	"do":     TokDo,
	"end":    TokEnd,
	"repeat": TokRepeat,
	"while":  TokWhile,
	"if":     TokIf,
	"else":   TokElse,
	"return": TokReturn,
	"try":    TokTry,
}

// FoldName returns the canonical spelling of a keyword or function name.
// Names are matched case-insensitively.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// Lexer produces tokens on demand.
type Lexer struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
	fold     cases.Caser
	// prev is the type of the last token produced; it decides whether a '-'
	// directly before a digit starts a negative literal or is an operator.
	prev    TokenType
	hasPrev bool
	done    bool
}

// New returns a lexer over source.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
		fold:     cases.Fold(),
	}
}

func (s *Lexer) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *Lexer) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *Lexer) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *Lexer) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	return r
}

func (s *Lexer) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else if ch < utf8.RuneSelf || utf8.RuneStart(ch) {
		s.col++
	}
	return ch
}

func (s *Lexer) advanceRune() {
	_, size := utf8.DecodeRuneInString(s.source[s.pos:])
	for i := 0; i < size; i++ {
		s.advance()
	}
}

func (s *Lexer) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *Lexer) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == ';' {
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else if ch >= utf8.RuneSelf && unicode.IsSpace(s.peekRune()) {
			s.advanceRune()
		} else {
			break
		}
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// endsOperand reports whether a token of type t can close an operand, in
// which case a following '-' is subtraction.
func endsOperand(t TokenType) bool {
	switch t {
	case TokNumber, TokString, TokVar, TokRBracket, TokRParen:
		return true
	}
	return false
}

func (s *Lexer) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "

	start := s.pos
	for !s.atEnd() {
		if s.peek() == '"' {
			text := s.source[start:s.pos]
			s.advance() // consume closing "
			return Token{
				Type:  TokString,
				Value: text,
				Span:  s.span(startLine, startCol),
			}, nil
		}
		s.advance()
	}
	err := s.lexError(startLine, startCol, "unterminated string literal")
	err.Diag.Hint = diagnostics.HintIncomplete
	return Token{}, err
}

func (s *Lexer) scanNumber(negative bool) (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	if negative {
		s.advance() // consume '-'
	}

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance() // consume '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	text := s.source[startPos:s.pos]
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid number: %s", text))
	}
	return Token{
		Type:  TokNumber,
		Value: text,
		Num:   num,
		Span:  s.span(startLine, startCol),
	}, nil
}

func (s *Lexer) scanName() string {
	startPos := s.pos
	for !s.atEnd() && isIdentCont(s.peekRune()) {
		s.advanceRune()
	}
	return s.source[startPos:s.pos]
}

func (s *Lexer) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	name := s.fold.String(s.scanName())

	if tokType, ok := keywords[name]; ok {
		return Token{Type: tokType, Value: name, Span: s.span(startLine, startCol)}
	}
	return Token{Type: TokIdent, Value: name, Span: s.span(startLine, startCol)}
}

func (s *Lexer) scanVar() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume ':'
	if s.atEnd() || !isIdentStart(s.peekRune()) {
		return Token{}, s.lexError(startLine, startCol, "expected a variable name after ':'")
	}
	name := s.scanName()
	return Token{Type: TokVar, Value: name, Span: s.span(startLine, startCol)}, nil
}

func (s *Lexer) lexError(line, col int, msg string) *LexError {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// Next returns the next token. After the end of input it keeps returning
// TokEOF; after an error it keeps returning the same kind of error.
func (s *Lexer) Next() (Token, error) {
	tok, err := s.nextToken()
	if err != nil {
		s.done = true
		return Token{}, err
	}
	s.prev, s.hasPrev = tok.Type, true
	return tok, nil
}

func (s *Lexer) nextToken() (Token, error) {
	if s.done {
		return Token{}, s.lexError(s.line, s.col, "lexer stopped after an earlier error")
	}
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{Type: TokEOF, Span: s.span(s.line, s.col)}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col
	single := func(t TokenType, text string) (Token, error) {
		for range text {
			s.advance()
		}
		return Token{Type: t, Value: text, Span: s.span(startLine, startCol)}, nil
	}

	switch ch {
	case '[':
		return single(TokLBracket, "[")
	case ']':
		return single(TokRBracket, "]")
	case '(':
		return single(TokLParen, "(")
	case ')':
		return single(TokRParen, ")")
	case '+':
		return single(TokPlus, "+")
	case '*':
		return single(TokStar, "*")
	case '/':
		return single(TokSlash, "/")
	case '=':
		return single(TokEq, "=")
	case '-':
		if isDigit(s.peekAt(1)) && !(s.hasPrev && endsOperand(s.prev)) {
			return s.scanNumber(true)
		}
		return single(TokMinus, "-")
	case '<':
		switch s.peekAt(1) {
		case '=':
			return single(TokLtEq, "<=")
		case '>':
			return single(TokNeq, "<>")
		}
		return single(TokLt, "<")
	case '>':
		if s.peekAt(1) == '=' {
			return single(TokGtEq, ">=")
		}
		return single(TokGt, ">")
	case '"':
		return s.scanString()
	case ':':
		return s.scanVar()
	}

	if isDigit(ch) {
		return s.scanNumber(false)
	}
	if isIdentStart(s.peekRune()) {
		return s.scanIdentOrKeyword(), nil
	}

	r := s.peekRune()
	s.advanceRune()
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", r))
}

// Tokenize breaks source code into a slice of tokens ending in TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	lx := New(source, filename)
	var tokens []Token

	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
