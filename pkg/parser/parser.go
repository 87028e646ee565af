// Package parser implements the Rurtle parser.
//
// Calls are written by juxtaposition (`forward size * 2`), so the parser must
// know how many arguments every function takes. Arities come from the caller
// (builtins plus functions learned in earlier chunks) and from `learn`
// statements seen earlier in the same chunk.
package parser

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/rurtle/pkg/ast"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/lexer"
)

// Arities maps case-folded function names to their argument count.
type Arities map[string]int

// Assignment forms handled by the parser rather than the call table.
const (
	MakeName   = "make"
	GlobalName = "global"
)

type parser struct {
	tokens  []lexer.Token
	pos     int
	diags   []diagnostics.Diagnostic
	arities Arities
	learned map[string]int
}

// Parse tokenizes source and parses it into a program. arities may be nil.
func Parse(source, filename string, arities Arities) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	p := &parser{tokens: tokens, arities: arities, learned: map[string]int{}}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

// Learned returns the arity of every function defined by learn statements in
// prog, including nested ones, in source order of definition.
func Learned(prog *ast.Program) Arities {
	out := Arities{}
	var walk func([]ast.Stmt)
	walk = func(stmts []ast.Stmt) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *ast.LearnStmt:
				out[n.Name] = len(n.Params)
				walk(n.Body)
			case *ast.RepeatStmt:
				walk(n.Body)
			case *ast.WhileStmt:
				walk(n.Body)
			case *ast.IfStmt:
				walk(n.ThenBody)
				walk(n.ElseBody)
			case *ast.TryStmt:
				walk(n.Body)
				walk(n.ElseBody)
			}
		}
	}
	if prog != nil {
		walk(prog.Statements)
	}
	return out
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s, got %s", typ, describe(tok)), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(msg string, span *ast.Span) {
	hint := ""
	if p.peek() == lexer.TokEOF {
		hint = diagnostics.HintIncomplete
	}
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, span, hint))
}

// Incomplete reports whether diags only complain about input ending early,
// so that appending more source could make it parse.
func Incomplete(diags []diagnostics.Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	for _, d := range diags {
		if d.Hint != diagnostics.HintIncomplete {
			return false
		}
	}
	return true
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokIdent:
		return fmt.Sprintf("word '%s'", tok.Value)
	case lexer.TokNumber:
		return fmt.Sprintf("number %s", tok.Value)
	case lexer.TokString:
		return fmt.Sprintf("string %q", tok.Value)
	case lexer.TokVar:
		return fmt.Sprintf("variable :%s", tok.Value)
	}
	return tok.Type.String()
}

// arity resolves a function name. Functions learned earlier in this chunk
// shadow the caller's table.
func (p *parser) arity(name string) (int, bool) {
	if n, ok := p.learned[name]; ok {
		return n, true
	}
	n, ok := p.arities[name]
	return n, ok
}

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span
	var stmts []ast.Stmt

	for p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Program{
		Span:       p.spanFromTo(startSpan, p.current().Span),
		Statements: stmts,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokLearn:
		s := p.parseLearn()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokRepeat:
		s := p.parseRepeat()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokWhile:
		s := p.parseWhile()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokIf:
		s := p.parseIf()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokReturn:
		s := p.parseReturn()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokTry:
		s := p.parseTry()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokEnd, lexer.TokElse, lexer.TokDo:
		tok := p.current()
		p.addError(fmt.Sprintf("unexpected %s", describe(tok)), &tok.Span)
		return nil
	default:
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		return &ast.ExprStmt{Span: expr.NodeSpan(), Expr: expr}
	}
}

// parseBody parses statements up to, but not including, 'else' or 'end'.
func (p *parser) parseBody() ([]ast.Stmt, bool) {
	stmts := []ast.Stmt{}
	for {
		switch p.peek() {
		case lexer.TokElse, lexer.TokEnd:
			return stmts, true
		case lexer.TokEOF:
			tok := p.current()
			p.addError("expected 'end', got end of input", &tok.Span)
			return nil, false
		}
		stmt := p.parseStmt()
		if stmt == nil {
			return nil, false
		}
		stmts = append(stmts, stmt)
	}
}

func (p *parser) parseLearn() *ast.LearnStmt {
	start := p.advance() // consume 'learn'
	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if nameTok.Value == MakeName || nameTok.Value == GlobalName {
		p.addError(fmt.Sprintf("cannot redefine '%s'", nameTok.Value), &nameTok.Span)
		return nil
	}

	var params []string
	for p.peek() == lexer.TokVar {
		params = append(params, p.advance().Value)
	}
	if _, ok := p.expect(lexer.TokDo); !ok {
		return nil
	}

	// Registered before the body so the function can call itself.
	p.learned[nameTok.Value] = len(params)

	body, ok := p.parseBody()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.TokEnd)
	if !ok {
		return nil
	}
	return &ast.LearnStmt{
		Span:   p.spanFromTo(start.Span, end.Span),
		Name:   nameTok.Value,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseRepeat() *ast.RepeatStmt {
	start := p.advance() // consume 'repeat'
	count := p.parseExpr()
	if count == nil {
		return nil
	}
	body, end, ok := p.parseDoBlock()
	if !ok {
		return nil
	}
	return &ast.RepeatStmt{Span: p.spanFromTo(start.Span, end.Span), Count: count, Body: body}
}

func (p *parser) parseWhile() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	body, end, ok := p.parseDoBlock()
	if !ok {
		return nil
	}
	return &ast.WhileStmt{Span: p.spanFromTo(start.Span, end.Span), Cond: cond, Body: body}
}

// parseDoBlock parses `do BODY end` and returns the 'end' token.
func (p *parser) parseDoBlock() ([]ast.Stmt, lexer.Token, bool) {
	if _, ok := p.expect(lexer.TokDo); !ok {
		return nil, lexer.Token{}, false
	}
	body, ok := p.parseBody()
	if !ok {
		return nil, lexer.Token{}, false
	}
	end, ok := p.expect(lexer.TokEnd)
	return body, end, ok
}

func (p *parser) parseIf() *ast.IfStmt {
	start := p.advance() // consume 'if'
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokDo); !ok {
		return nil
	}
	thenBody, ok := p.parseBody()
	if !ok {
		return nil
	}
	stmt := &ast.IfStmt{Cond: cond, ThenBody: thenBody}
	if p.peek() == lexer.TokElse {
		p.advance()
		elseBody, ok := p.parseBody()
		if !ok {
			return nil
		}
		stmt.ElseBody = elseBody
		stmt.HasElse = true
	}
	end, ok := p.expect(lexer.TokEnd)
	if !ok {
		return nil
	}
	stmt.Span = p.spanFromTo(start.Span, end.Span)
	return stmt
}

func (p *parser) parseTry() *ast.TryStmt {
	start := p.advance() // consume 'try'
	body, ok := p.parseBody()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokElse); !ok {
		return nil
	}
	elseBody, ok := p.parseBody()
	if !ok {
		return nil
	}
	end, ok := p.expect(lexer.TokEnd)
	if !ok {
		return nil
	}
	return &ast.TryStmt{Span: p.spanFromTo(start.Span, end.Span), Body: body, ElseBody: elseBody}
}

// startsValue reports whether a token can begin an expression.
func startsValue(t lexer.TokenType) bool {
	switch t {
	case lexer.TokNumber, lexer.TokString, lexer.TokVar, lexer.TokIdent,
		lexer.TokLBracket, lexer.TokLParen, lexer.TokMinus, lexer.TokPlus:
		return true
	}
	return false
}

func (p *parser) parseReturn() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	if !startsValue(p.peek()) {
		return &ast.ReturnStmt{Span: start.Span}
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &ast.ReturnStmt{Span: p.spanFromTo(start.Span, value.NodeSpan()), Value: value}
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseComparison()
}

func comparisonOp(t lexer.TokenType) (ast.BinaryOp, bool) {
	switch t {
	case lexer.TokEq:
		return ast.OpEq, true
	case lexer.TokNeq:
		return ast.OpNeq, true
	case lexer.TokLt:
		return ast.OpLt, true
	case lexer.TokGt:
		return ast.OpGt, true
	case lexer.TokLtEq:
		return ast.OpLtEq, true
	case lexer.TokGtEq:
		return ast.OpGtEq, true
	}
	return "", false
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}
	op, ok := comparisonOp(p.peek())
	if !ok {
		return left
	}
	p.advance()
	right := p.parseAdditive()
	if right == nil {
		return nil
	}
	if _, chained := comparisonOp(p.peek()); chained {
		tok := p.current()
		p.addError("comparison operators cannot be chained; use parentheses", &tok.Span)
		return nil
	}
	return &ast.BinaryExpr{
		Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}

	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokPlus:
			op = ast.OpAdd
		case lexer.TokMinus:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parsePrimary()
	if left == nil {
		return nil
	}

	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokStar:
			op = ast.OpMul
		case lexer.TokSlash:
			op = ast.OpDiv
		default:
			return left
		}
		p.advance()
		right := p.parsePrimary()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokLParen:
		start := p.advance()
		inner := p.parseExpr()
		if inner == nil {
			return nil
		}
		end, ok := p.expect(lexer.TokRParen)
		if !ok {
			return nil
		}
		return &ast.ParenExpr{Span: p.spanFromTo(start.Span, end.Span), Inner: inner}

	case lexer.TokLBracket:
		return p.parseListExpr()

	case lexer.TokNumber:
		tok := p.advance()
		return &ast.NumberLiteral{Span: tok.Span, Value: tok.Num, Raw: tok.Value}

	case lexer.TokMinus, lexer.TokPlus:
		// Sign written apart from its number, as in `forward - 10`.
		sign := p.advance()
		num, ok := p.expect(lexer.TokNumber)
		if !ok {
			return nil
		}
		lit := &ast.NumberLiteral{Span: p.spanFromTo(sign.Span, num.Span), Value: num.Num, Raw: num.Value}
		if sign.Type == lexer.TokMinus {
			lit.Value = -lit.Value
			lit.Raw = "-" + num.Value
		}
		return lit

	case lexer.TokString:
		tok := p.advance()
		return &ast.StrLiteral{Span: tok.Span, Value: tok.Value}

	case lexer.TokVar:
		tok := p.advance()
		return &ast.VarRef{Span: tok.Span, Name: tok.Value}

	case lexer.TokIdent:
		return p.parseCall()

	default:
		tok := p.current()
		p.addError(fmt.Sprintf("expected expression, got %s", describe(tok)), &tok.Span)
		return nil
	}
}

// parseArgs reads n arguments, each a single primary. Compound arguments
// need parentheses: `forward 10 + 5` is `(forward 10) + 5`.
func (p *parser) parseArgs(n int) ([]ast.Expr, bool) {
	args := make([]ast.Expr, 0, n)
	for i := 0; i < n; i++ {
		arg := p.parsePrimary()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
	}
	return args, true
}

func (p *parser) parseCall() ast.Expr {
	nameTok := p.advance()
	name := nameTok.Value

	// The assigned value is a whole expression, as in `make "n" :n + 1`.
	if name == MakeName || name == GlobalName {
		target := p.parsePrimary()
		if target == nil {
			return nil
		}
		value := p.parseExpr()
		if value == nil {
			return nil
		}
		return &ast.MakeExpr{
			Span:   p.spanFromTo(nameTok.Span, value.NodeSpan()),
			Name:   target,
			Value:  value,
			Global: name == GlobalName,
		}
	}

	n, ok := p.arity(name)
	if !ok {
		p.diags = append(p.diags, diagnostics.MakeDiag(
			diagnostics.EUnknownFn,
			fmt.Sprintf("unknown function: %s", name),
			&nameTok.Span,
			"define it with learn before using it",
		))
		return nil
	}
	args, ok := p.parseArgs(n)
	if !ok {
		return nil
	}
	span := nameTok.Span
	if n > 0 {
		span = p.spanFromTo(nameTok.Span, args[n-1].NodeSpan())
	}
	return &ast.CallExpr{Span: span, Name: name, Args: args}
}

func (p *parser) parseListExpr() ast.Expr {
	start := p.advance() // consume '['
	elems := []ast.Expr{}
	for p.peek() != lexer.TokRBracket {
		if p.peek() == lexer.TokEOF {
			tok := p.current()
			p.addError("expected ']', got end of input", &tok.Span)
			return nil
		}
		elem := p.parseExpr()
		if elem == nil {
			return nil
		}
		elems = append(elems, elem)
	}
	end := p.advance() // consume ']'
	return &ast.ListExpr{Span: p.spanFromTo(start.Span, end.Span), Elements: elems}
}
