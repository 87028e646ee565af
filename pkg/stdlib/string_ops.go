package stdlib

import (
	"strings"

	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// replace STRING OLD NEW → STRING with every OLD replaced by NEW
func stdlibReplace(c *evaluator.Call) (evaluator.Value, error) {
	s, err := argString(c, 0)
	if err != nil {
		return nil, err
	}
	old, err := argString(c, 1)
	if err != nil {
		return nil, err
	}
	repl, err := argString(c, 2)
	if err != nil {
		return nil, err
	}
	return evaluator.NewString(strings.ReplaceAll(s, old, repl)), nil
}

// contains STRING PATTERN → 1 or 0
func stdlibContains(c *evaluator.Call) (evaluator.Value, error) {
	s, err := argString(c, 0)
	if err != nil {
		return nil, err
	}
	pattern, err := argString(c, 1)
	if err != nil {
		return nil, err
	}
	return evaluator.NewBool(strings.Contains(s, pattern)), nil
}

// chars STRING → list of one-character strings
func stdlibChars(c *evaluator.Call) (evaluator.Value, error) {
	s, err := argString(c, 0)
	if err != nil {
		return nil, err
	}
	items := make([]evaluator.Value, 0, len(s))
	for _, r := range s {
		items = append(items, evaluator.NewString(string(r)))
	}
	return evaluator.NewList(items), nil
}

// split STRING SEPARATOR → list of strings
func stdlibSplit(c *evaluator.Call) (evaluator.Value, error) {
	s, err := argString(c, 0)
	if err != nil {
		return nil, err
	}
	sep, err := argString(c, 1)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	items := make([]evaluator.Value, len(parts))
	for i, p := range parts {
		items[i] = evaluator.NewString(p)
	}
	return evaluator.NewList(items), nil
}
