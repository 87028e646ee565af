package ast_test

import (
	"testing"

	"github.com/thomasrohde/rurtle/pkg/ast"
)

func TestNodeKinds(t *testing.T) {
	nodes := []ast.Node{
		&ast.NumberLiteral{Value: 42},
		&ast.StrLiteral{Value: "hello"},
		&ast.ListExpr{},
		&ast.VarRef{Name: "x"},
		&ast.CallExpr{Name: "FORWARD"},
		&ast.MakeExpr{},
		&ast.RepeatStmt{},
		&ast.TryStmt{},
	}

	expected := []string{
		"NumberLiteral", "StrLiteral", "ListExpr", "VarRef",
		"CallExpr", "MakeExpr", "RepeatStmt", "TryStmt",
	}

	for i, node := range nodes {
		if got := node.Kind(); got != expected[i] {
			t.Errorf("node %d: got Kind() = %q, want %q", i, got, expected[i])
		}
	}
}

func TestIsComparison(t *testing.T) {
	cmp := []ast.BinaryOp{ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLtEq, ast.OpGtEq}
	for _, op := range cmp {
		if !op.IsComparison() {
			t.Errorf("%s should be a comparison", op)
		}
	}
	for _, op := range []ast.BinaryOp{ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv} {
		if op.IsComparison() {
			t.Errorf("%s should not be a comparison", op)
		}
	}
}
