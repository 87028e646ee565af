// Package ast defines the Rurtle syntax tree.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpEq   BinaryOp = "="
	OpNeq  BinaryOp = "<>"
	OpLt   BinaryOp = "<"
	OpGt   BinaryOp = ">"
	OpLtEq BinaryOp = "<="
	OpGtEq BinaryOp = ">="
)

// IsComparison reports whether op yields a 1/0 truth value.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpGt, OpLtEq, OpGtEq:
		return true
	}
	return false
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Literals ---

type NumberLiteral struct {
	Span  Span
	Value float64
	// Raw keeps the source text so the formatter can reproduce it.
	Raw string
}

func (n *NumberLiteral) Kind() string   { return "NumberLiteral" }
func (n *NumberLiteral) NodeSpan() Span { return n.Span }
func (n *NumberLiteral) exprNode()      {}

type StrLiteral struct {
	Span  Span
	Value string
}

func (n *StrLiteral) Kind() string   { return "StrLiteral" }
func (n *StrLiteral) NodeSpan() Span { return n.Span }
func (n *StrLiteral) exprNode()      {}

// ListExpr is a bracketed list; elements are evaluated at runtime.
type ListExpr struct {
	Span     Span
	Elements []Expr
}

func (n *ListExpr) Kind() string   { return "ListExpr" }
func (n *ListExpr) NodeSpan() Span { return n.Span }
func (n *ListExpr) exprNode()      {}

// VarRef reads :name.
type VarRef struct {
	Span Span
	Name string
}

func (n *VarRef) Kind() string   { return "VarRef" }
func (n *VarRef) NodeSpan() Span { return n.Span }
func (n *VarRef) exprNode()      {}

// --- Operators and calls ---

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

// ParenExpr preserves explicit grouping for the formatter.
type ParenExpr struct {
	Span  Span
	Inner Expr
}

func (n *ParenExpr) Kind() string   { return "ParenExpr" }
func (n *ParenExpr) NodeSpan() Span { return n.Span }
func (n *ParenExpr) exprNode()      {}

// CallExpr invokes a builtin or learned function. Name is case-folded.
type CallExpr struct {
	Span Span
	Name string
	Args []Expr
}

func (n *CallExpr) Kind() string   { return "CallExpr" }
func (n *CallExpr) NodeSpan() Span { return n.Span }
func (n *CallExpr) exprNode()      {}

// MakeExpr assigns a variable. The name is itself an expression and must
// evaluate to a String.
type MakeExpr struct {
	Span   Span
	Name   Expr
	Value  Expr
	Global bool
}

func (n *MakeExpr) Kind() string   { return "MakeExpr" }
func (n *MakeExpr) NodeSpan() Span { return n.Span }
func (n *MakeExpr) exprNode()      {}

// --- Statements ---

type ExprStmt struct {
	Span Span
	Expr Expr
}

func (n *ExprStmt) Kind() string   { return "ExprStmt" }
func (n *ExprStmt) NodeSpan() Span { return n.Span }
func (n *ExprStmt) stmtNode()      {}

type RepeatStmt struct {
	Span  Span
	Count Expr
	Body  []Stmt
}

func (n *RepeatStmt) Kind() string   { return "RepeatStmt" }
func (n *RepeatStmt) NodeSpan() Span { return n.Span }
func (n *RepeatStmt) stmtNode()      {}

type WhileStmt struct {
	Span Span
	Cond Expr
	Body []Stmt
}

func (n *WhileStmt) Kind() string   { return "WhileStmt" }
func (n *WhileStmt) NodeSpan() Span { return n.Span }
func (n *WhileStmt) stmtNode()      {}

type IfStmt struct {
	Span     Span
	Cond     Expr
	ThenBody []Stmt
	// ElseBody is nil when there is no else branch.
	ElseBody []Stmt
	HasElse  bool
}

func (n *IfStmt) Kind() string   { return "IfStmt" }
func (n *IfStmt) NodeSpan() Span { return n.Span }
func (n *IfStmt) stmtNode()      {}

// LearnStmt defines a function.
type LearnStmt struct {
	Span   Span
	Name   string
	Params []string
	Body   []Stmt
}

func (n *LearnStmt) Kind() string   { return "LearnStmt" }
func (n *LearnStmt) NodeSpan() Span { return n.Span }
func (n *LearnStmt) stmtNode()      {}

type ReturnStmt struct {
	Span  Span
	Value Expr // nil for a bare return
}

func (n *ReturnStmt) Kind() string   { return "ReturnStmt" }
func (n *ReturnStmt) NodeSpan() Span { return n.Span }
func (n *ReturnStmt) stmtNode()      {}

type TryStmt struct {
	Span     Span
	Body     []Stmt
	ElseBody []Stmt
}

func (n *TryStmt) Kind() string   { return "TryStmt" }
func (n *TryStmt) NodeSpan() Span { return n.Span }
func (n *TryStmt) stmtNode()      {}

// --- Program ---

// Program is one parsed chunk.
type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
