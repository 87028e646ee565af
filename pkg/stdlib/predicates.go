package stdlib

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// not VALUE → 1 if VALUE is falsy, else 0
func stdlibNot(c *evaluator.Call) (evaluator.Value, error) {
	return evaluator.NewBool(!evaluator.Truthiness(c.Args[0])), nil
}

// tonumber STRING → number
func stdlibToNumber(c *evaluator.Call) (evaluator.Value, error) {
	switch v := c.Args[0].(type) {
	case evaluator.Number:
		return v, nil
	case evaluator.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return nil, evaluator.Errorf(diagnostics.EValue, "tonumber: cannot convert %q to a number", v.Value)
		}
		return evaluator.NewNumber(n), nil
	}
	return nil, typeError(c, 0, "string")
}

// tostring VALUE → its display form
func stdlibToString(c *evaluator.Call) (evaluator.Value, error) {
	return evaluator.NewString(evaluator.Format(c.Args[0])), nil
}
