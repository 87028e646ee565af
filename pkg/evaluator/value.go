// Package evaluator implements the Rurtle runtime evaluator.
package evaluator

import (
	"math"
	"strconv"
	"strings"
)

// Value is the interface for all Rurtle runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	rvalue() // sealed marker
}

// Nothing is the unit value returned by statements and by functions that
// fall off their end.
type Nothing struct{}

func (Nothing) rvalue() {}

// Number is the only numeric type.
type Number struct {
	Value float64
}

func (Number) rvalue() {}

// String is an immutable text value.
type String struct {
	Value string
}

func (String) rvalue() {}

// List is an ordered, heterogeneous list. Items is never mutated after
// construction; operations that change a list build a new slice.
type List struct {
	Items []Value
}

func (List) rvalue() {}

// NewNothing creates the Nothing value.
func NewNothing() Value {
	return Nothing{}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewBool creates the Number 1 or 0.
func NewBool(b bool) Value {
	if b {
		return Number{Value: 1}
	}
	return Number{Value: 0}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// NewList creates a list value. A nil slice is normalized to an empty list.
func NewList(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return List{Items: items}
}

// Truthiness returns the boolean interpretation of a value.
// Nonzero numbers and non-empty strings and lists are true.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Number:
		return val.Value != 0
	case String:
		return val.Value != ""
	case List:
		return len(val.Items) > 0
	default:
		return false
	}
}

// TypeName returns the user-facing name of v's type.
func TypeName(v Value) string {
	switch v.(type) {
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Nothing, nil:
		return "nothing"
	}
	return "unknown"
}

// FormatNumber renders n the way print and tostring show it: integral values
// have no fractional part, everything else uses the shortest representation
// that round-trips.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Format renders a value for display. Top-level strings are shown raw;
// strings nested inside lists are quoted.
func Format(v Value) string {
	if s, ok := v.(String); ok {
		return s.Value
	}
	var b strings.Builder
	writeRepr(&b, v)
	return b.String()
}

// Repr renders a value with strings quoted, as it would appear in source.
func Repr(v Value) string {
	var b strings.Builder
	writeRepr(&b, v)
	return b.String()
}

func writeRepr(b *strings.Builder, v Value) {
	switch val := v.(type) {
	case Number:
		b.WriteString(FormatNumber(val.Value))
	case String:
		b.WriteByte('"')
		b.WriteString(val.Value)
		b.WriteByte('"')
	case List:
		b.WriteByte('[')
		for i, item := range val.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeRepr(b, item)
		}
		b.WriteByte(']')
	default:
		b.WriteString("nothing")
	}
}

// DeepEqual compares two values structurally.
func DeepEqual(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value
	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value
	case List:
		bv, ok := b.(List)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !DeepEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case Nothing:
		_, ok := b.(Nothing)
		return ok
	}
	return false
}
