// Package formatter implements the Rurtle source code formatter.
package formatter

import (
	"strings"

	"github.com/thomasrohde/rurtle/pkg/ast"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
	"github.com/thomasrohde/rurtle/pkg/parser"
)

const indent = "  "

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpEq: 1, ast.OpNeq: 1, ast.OpLt: 1, ast.OpGt: 1, ast.OpLtEq: 1, ast.OpGtEq: 1,
	ast.OpAdd: 2, ast.OpSub: 2,
	ast.OpMul: 3, ast.OpDiv: 3,
}

func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	switch c := child.(type) {
	case *ast.BinaryExpr:
		childPrec := precedence[c.Op]
		parentPrec := precedence[parentOp]
		if childPrec < parentPrec {
			return true
		}
		// Operators are left-associative and comparisons do not chain.
		return childPrec == parentPrec && (isRight || parentOp.IsComparison())
	case *ast.CallExpr:
		return greedy(c)
	case *ast.MakeExpr:
		return true
	}
	return false
}

// greedy reports whether e ends in a make value, which would swallow an
// operator written after it.
func greedy(e ast.Expr) bool {
	switch c := e.(type) {
	case *ast.MakeExpr:
		return true
	case *ast.CallExpr:
		return len(c.Args) > 0 && greedy(c.Args[len(c.Args)-1])
	}
	return false
}

// formatArg renders a call argument. Arguments are single primaries, so
// operator expressions need parentheses.
func formatArg(arg ast.Expr, depth int, followsOperand bool) string {
	s := formatExpr(arg, depth)
	if _, ok := arg.(*ast.BinaryExpr); ok {
		return "(" + s + ")"
	}
	return guard(s, followsOperand)
}

// Format pretty-prints a Rurtle AST back to source code. Comments are not
// preserved.
func Format(program *ast.Program) string {
	if program == nil || len(program.Statements) == 0 {
		return ""
	}
	return formatBlock(program.Statements, -1) + "\n"
}

// HasComments checks if a source string contains Rurtle comments (; prefix).
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '"':
			inString = !inString
		case ';':
			if !inString {
				return true
			}
		}
	}
	return false
}

// guard wraps s in parentheses when it starts with a minus sign and follows
// another operand, where the lexer would read the sign as subtraction.
func guard(s string, followsOperand bool) string {
	if followsOperand && strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	return s
}

func formatStmt(s ast.Stmt, depth int, isLast bool) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		return prefix + formatExpr(stmt.Expr, depth)
	case *ast.RepeatStmt:
		return prefix + "repeat " + formatExpr(stmt.Count, depth) + " do" + formatBody(stmt.Body, depth) + "end"
	case *ast.WhileStmt:
		return prefix + "while " + formatExpr(stmt.Cond, depth) + " do" + formatBody(stmt.Body, depth) + "end"
	case *ast.IfStmt:
		out := prefix + "if " + formatExpr(stmt.Cond, depth) + " do" + formatBody(stmt.ThenBody, depth)
		if stmt.HasElse || len(stmt.ElseBody) > 0 {
			out += "else" + formatBody(stmt.ElseBody, depth)
		}
		return out + "end"
	case *ast.LearnStmt:
		var b strings.Builder
		b.WriteString(prefix + "learn " + stmt.Name)
		for _, p := range stmt.Params {
			b.WriteString(" :" + p)
		}
		b.WriteString(" do" + formatBody(stmt.Body, depth) + "end")
		return b.String()
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			if isLast {
				return prefix + "return"
			}
			// A bare return followed by more statements would take the next
			// statement as its value.
			return prefix + "return nothing"
		}
		return prefix + "return " + formatExpr(stmt.Value, depth)
	case *ast.TryStmt:
		return prefix + "try" + formatBody(stmt.Body, depth) + "else" + formatBody(stmt.ElseBody, depth) + "end"
	}
	return ""
}

// formatBody renders a nested block. The result starts with a newline, or a
// space when the block is empty, and ends with the closing indentation.
func formatBody(stmts []ast.Stmt, depth int) string {
	if len(stmts) == 0 {
		return " "
	}
	return "\n" + formatBlock(stmts, depth) + "\n" + strings.Repeat(indent, depth)
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		line := formatStmt(s, depth+1, i == len(stmts)-1)
		if i > 0 {
			trimmed := strings.TrimLeft(line, " ")
			line = line[:len(line)-len(trimmed)] + guard(trimmed, true)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func formatExpr(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		if expr.Raw != "" {
			return expr.Raw
		}
		return evaluator.FormatNumber(expr.Value)
	case *ast.StrLiteral:
		return `"` + expr.Value + `"`
	case *ast.VarRef:
		return ":" + expr.Name
	case *ast.ListExpr:
		return formatList(expr, depth)
	case *ast.ParenExpr:
		return "(" + formatExpr(expr.Inner, depth) + ")"
	case *ast.CallExpr:
		return formatCall(expr.Name, expr.Args, depth)
	case *ast.MakeExpr:
		name := parser.MakeName
		if expr.Global {
			name = parser.GlobalName
		}
		return name + " " + formatArg(expr.Name, depth, false) + " " + formatExpr(expr.Value, depth)
	case *ast.BinaryExpr:
		leftStr := formatExpr(expr.Left, depth)
		rightStr := formatExpr(expr.Right, depth)
		if needsParens(expr.Left, expr.Op, false) {
			leftStr = "(" + leftStr + ")"
		}
		if needsParens(expr.Right, expr.Op, true) {
			rightStr = "(" + rightStr + ")"
		}
		return leftStr + " " + string(expr.Op) + " " + rightStr
	}
	return ""
}

func formatCall(name string, args []ast.Expr, depth int) string {
	var b strings.Builder
	b.WriteString(name)
	for i, arg := range args {
		b.WriteByte(' ')
		b.WriteString(formatArg(arg, depth, i > 0))
	}
	return b.String()
}

func formatList(list *ast.ListExpr, depth int) string {
	if len(list.Elements) == 0 {
		return "[]"
	}

	// Try inline first
	inlineParts := make([]string, len(list.Elements))
	for i, e := range list.Elements {
		inlineParts[i] = guard(formatExpr(e, depth+1), i > 0)
	}
	inline := "[" + strings.Join(inlineParts, " ") + "]"
	if len(inline) <= 72 && !strings.Contains(inline, "\n") {
		return inline
	}

	// Multi-line
	inner := strings.Repeat(indent, depth+2)
	outer := strings.Repeat(indent, depth+1)
	parts := make([]string, len(list.Elements))
	for i := range list.Elements {
		parts[i] = inner + inlineParts[i]
	}
	return "[\n" + strings.Join(parts, "\n") + "\n" + outer + "]"
}
