package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/thomasrohde/rurtle/pkg/ast"
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
)

type kind uint8

const (
	kindNothing kind = iota
	kindNumber
	kindString
	kindList
)

var allKinds = []kind{kindNothing, kindNumber, kindString, kindList}

func kindOf(v Value) kind {
	switch v.(type) {
	case Number:
		return kindNumber
	case String:
		return kindString
	case List:
		return kindList
	}
	return kindNothing
}

type opKey struct {
	op          ast.BinaryOp
	left, right kind
}

type binaryFn func(a, b Value) (Value, error)

// maxReplicated bounds the size of a string or list built by `*`.
const maxReplicated = 1 << 24

// operators holds every defined (operator, left kind, right kind) triple.
// Missing entries are type errors.
var operators = map[opKey]binaryFn{
	{ast.OpAdd, kindNumber, kindNumber}: func(a, b Value) (Value, error) {
		return NewNumber(a.(Number).Value + b.(Number).Value), nil
	},
	{ast.OpAdd, kindString, kindString}: func(a, b Value) (Value, error) {
		return NewString(a.(String).Value + b.(String).Value), nil
	},
	{ast.OpAdd, kindString, kindNumber}: func(a, b Value) (Value, error) {
		return NewString(a.(String).Value + FormatNumber(b.(Number).Value)), nil
	},
	{ast.OpAdd, kindList, kindList}: func(a, b Value) (Value, error) {
		l, r := a.(List).Items, b.(List).Items
		items := make([]Value, 0, len(l)+len(r))
		items = append(items, l...)
		return NewList(append(items, r...)), nil
	},
	{ast.OpSub, kindNumber, kindNumber}: func(a, b Value) (Value, error) {
		return NewNumber(a.(Number).Value - b.(Number).Value), nil
	},
	{ast.OpMul, kindNumber, kindNumber}: func(a, b Value) (Value, error) {
		return NewNumber(a.(Number).Value * b.(Number).Value), nil
	},
	{ast.OpMul, kindString, kindNumber}: func(a, b Value) (Value, error) {
		s := a.(String).Value
		n, err := replicateCount(b.(Number).Value, len(s))
		if err != nil {
			return nil, err
		}
		return NewString(strings.Repeat(s, n)), nil
	},
	{ast.OpMul, kindList, kindNumber}: func(a, b Value) (Value, error) {
		l := a.(List).Items
		n, err := replicateCount(b.(Number).Value, len(l))
		if err != nil {
			return nil, err
		}
		items := make([]Value, 0, n*len(l))
		for i := 0; i < n; i++ {
			items = append(items, l...)
		}
		return NewList(items), nil
	},
	{ast.OpDiv, kindNumber, kindNumber}: func(a, b Value) (Value, error) {
		d := b.(Number).Value
		if d == 0 {
			return nil, &RuntimeError{Code: diagnostics.EDivZero, Message: "division by zero"}
		}
		return NewNumber(a.(Number).Value / d), nil
	},
}

func init() {
	// List + anything that is not a list appends it as one element.
	for _, k := range allKinds {
		if k == kindList {
			continue
		}
		operators[opKey{ast.OpAdd, kindList, k}] = func(a, b Value) (Value, error) {
			l := a.(List).Items
			items := make([]Value, 0, len(l)+1)
			items = append(items, l...)
			return NewList(append(items, b)), nil
		}
	}

	cmps := map[ast.BinaryOp]func(c int) bool{
		ast.OpEq:   func(c int) bool { return c == 0 },
		ast.OpNeq:  func(c int) bool { return c != 0 },
		ast.OpLt:   func(c int) bool { return c < 0 },
		ast.OpGt:   func(c int) bool { return c > 0 },
		ast.OpLtEq: func(c int) bool { return c <= 0 },
		ast.OpGtEq: func(c int) bool { return c >= 0 },
	}
	for op, test := range cmps {
		test := test
		operators[opKey{op, kindNumber, kindNumber}] = func(a, b Value) (Value, error) {
			return NewBool(test(compareNumbers(a.(Number).Value, b.(Number).Value))), nil
		}
		operators[opKey{op, kindString, kindString}] = func(a, b Value) (Value, error) {
			return NewBool(test(strings.Compare(a.(String).Value, b.(String).Value))), nil
		}
	}
}

func compareNumbers(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func replicateCount(f float64, unit int) (int, error) {
	if math.IsNaN(f) || f <= 0 {
		return 0, nil
	}
	if unit > 0 && f*float64(unit) > maxReplicated {
		return 0, &RuntimeError{
			Code:    diagnostics.EValue,
			Message: fmt.Sprintf("cannot replicate %d elements %s times", unit, FormatNumber(math.Trunc(f))),
		}
	}
	if unit == 0 {
		return 0, nil
	}
	return int(f), nil
}

// Apply evaluates a binary operator on two values.
func Apply(op ast.BinaryOp, a, b Value) (Value, error) {
	fn, ok := operators[opKey{op, kindOf(a), kindOf(b)}]
	if !ok {
		verb := "apply " + string(op) + " to"
		if op.IsComparison() {
			verb = "compare"
		}
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("cannot %s %s and %s", verb, TypeName(a), TypeName(b)),
		}
	}
	return fn(a, b)
}
