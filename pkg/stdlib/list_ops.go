package stdlib

import (
	"math"
	"unicode/utf8"

	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// head LIST → first element, or Nothing for an empty list
func stdlibHead(c *evaluator.Call) (evaluator.Value, error) {
	items, err := argList(c, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return evaluator.NewNothing(), nil
	}
	return items[0], nil
}

// tail LIST → all but the first element, or Nothing for an empty list
func stdlibTail(c *evaluator.Call) (evaluator.Value, error) {
	items, err := argList(c, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return evaluator.NewNothing(), nil
	}
	rest := make([]evaluator.Value, len(items)-1)
	copy(rest, items[1:])
	return evaluator.NewList(rest), nil
}

// length LIST-OR-STRING → number
func stdlibLength(c *evaluator.Call) (evaluator.Value, error) {
	switch v := c.Args[0].(type) {
	case evaluator.List:
		return evaluator.NewNumber(float64(len(v.Items))), nil
	case evaluator.String:
		return evaluator.NewNumber(float64(utf8.RuneCountInString(v.Value))), nil
	}
	return nil, typeError(c, 0, "list or string")
}

// isempty LIST-OR-STRING → 1 or 0
func stdlibIsEmpty(c *evaluator.Call) (evaluator.Value, error) {
	switch v := c.Args[0].(type) {
	case evaluator.List:
		return evaluator.NewBool(len(v.Items) == 0), nil
	case evaluator.String:
		return evaluator.NewBool(v.Value == ""), nil
	}
	return nil, typeError(c, 0, "list or string")
}

// getindex LIST INDEX → element at the zero-based INDEX
func stdlibGetIndex(c *evaluator.Call) (evaluator.Value, error) {
	items, err := argList(c, 0)
	if err != nil {
		return nil, err
	}
	n, err := argNumber(c, 1)
	if err != nil {
		return nil, err
	}
	if n != math.Trunc(n) {
		return nil, evaluator.Errorf(diagnostics.EValue, "getindex: index must be a whole number, got %s", evaluator.FormatNumber(n))
	}
	if n < 0 {
		return nil, evaluator.Errorf(diagnostics.EIndex, "Index out of bounds: %s < 0", evaluator.FormatNumber(n))
	}
	if n >= float64(len(items)) {
		return nil, evaluator.Errorf(diagnostics.EIndex, "Index out of bounds: %s >= %d", evaluator.FormatNumber(n), len(items))
	}
	return items[int(n)], nil
}

// find LIST VALUE → lowest index of VALUE, or -1
func stdlibFind(c *evaluator.Call) (evaluator.Value, error) {
	items, err := argList(c, 0)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if evaluator.DeepEqual(item, c.Args[1]) {
			return evaluator.NewNumber(float64(i)), nil
		}
	}
	return evaluator.NewNumber(-1), nil
}
