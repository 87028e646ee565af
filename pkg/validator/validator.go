// Package validator implements semantic checks on parsed Rurtle programs
// that can be decided before anything runs.
package validator

import (
	"fmt"

	"github.com/thomasrohde/rurtle/pkg/ast"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/parser"
)

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate walks the whole program, including function bodies, and returns
// every diagnostic found.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	if program != nil {
		v.validateStatements(program.Statements)
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, span *ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, span, hint))
}

func (v *validator) validateStatements(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		v.validateStmt(stmt)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v.validateExpr(s.Expr)

	case *ast.RepeatStmt:
		v.validateExpr(s.Count)
		v.validateStatements(s.Body)

	case *ast.WhileStmt:
		v.validateExpr(s.Cond)
		v.validateStatements(s.Body)

	case *ast.IfStmt:
		v.validateExpr(s.Cond)
		v.validateStatements(s.ThenBody)
		v.validateStatements(s.ElseBody)

	case *ast.LearnStmt:
		seen := make(map[string]bool, len(s.Params))
		for _, param := range s.Params {
			if seen[param] {
				span := s.Span
				v.addDiag(diagnostics.EDupParam,
					fmt.Sprintf("duplicate parameter :%s in %s", param, s.Name), &span, "")
			}
			seen[param] = true
		}
		v.validateStatements(s.Body)

	case *ast.ReturnStmt:
		if s.Value != nil {
			v.validateExpr(s.Value)
		}

	case *ast.TryStmt:
		v.validateStatements(s.Body)
		v.validateStatements(s.ElseBody)
	}
}

func (v *validator) validateExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.ListExpr:
		for _, elem := range e.Elements {
			v.validateExpr(elem)
		}

	case *ast.BinaryExpr:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)

	case *ast.ParenExpr:
		v.validateExpr(e.Inner)

	case *ast.CallExpr:
		for _, arg := range e.Args {
			v.validateExpr(arg)
		}

	case *ast.MakeExpr:
		verb := parser.MakeName
		if e.Global {
			verb = parser.GlobalName
		}
		switch e.Name.(type) {
		case *ast.NumberLiteral, *ast.ListExpr:
			span := e.Name.NodeSpan()
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("%s expects a string name, got %s", verb, literalType(e.Name)), &span,
				fmt.Sprintf(`write the name as a string: %s "name" value`, verb))
		}
		v.validateExpr(e.Name)
		v.validateExpr(e.Value)
	}
}

func literalType(e ast.Expr) string {
	if _, ok := e.(*ast.ListExpr); ok {
		return "list"
	}
	return "number"
}
