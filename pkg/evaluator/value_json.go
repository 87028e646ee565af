package evaluator

import (
	"encoding/json"
	"fmt"
	"math"
)

// ValueToJSON marshals a value to JSON bytes. Nothing becomes null and
// integral numbers are written without a decimal point.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case Number:
		if val.Value == math.Trunc(val.Value) && math.Abs(val.Value) < 1<<53 {
			return int64(val.Value)
		}
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return FormatNumber(val.Value)
		}
		return val.Value
	case String:
		return val.Value
	case List:
		items := make([]any, len(val.Items))
		for i, item := range val.Items {
			items[i] = valueToRaw(item)
		}
		return items
	}
	return nil
}

// FromGo converts a decoded JSON or YAML value into a Rurtle value. Booleans
// become 1 or 0; maps are rejected since Rurtle has no record type.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return NewNothing(), nil
	case bool:
		return NewBool(val), nil
	case int:
		return NewNumber(float64(val)), nil
	case int64:
		return NewNumber(float64(val)), nil
	case uint64:
		return NewNumber(float64(val)), nil
	case float64:
		return NewNumber(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, err
		}
		return NewNumber(f), nil
	case string:
		return NewString(val), nil
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			conv, err := FromGo(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = conv
		}
		return NewList(items), nil
	}
	return nil, fmt.Errorf("unsupported value of type %T", v)
}
