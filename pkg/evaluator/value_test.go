package evaluator_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

func TestNewValues(t *testing.T) {
	values := []evaluator.Value{
		evaluator.NewNothing(),
		evaluator.NewBool(true),
		evaluator.NewNumber(42),
		evaluator.NewString("hello"),
		evaluator.NewList(nil),
	}
	for i, v := range values {
		if v == nil {
			t.Errorf("value %d: got nil", i)
		}
	}
	if l := evaluator.NewList(nil).(evaluator.List); l.Items == nil {
		t.Error("nil items should be normalized to an empty slice")
	}
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected bool
	}{
		{evaluator.NewNothing(), false},
		{evaluator.NewBool(false), false},
		{evaluator.NewBool(true), true},
		{evaluator.NewNumber(0), false},
		{evaluator.NewNumber(-1), true},
		{evaluator.NewString(""), false},
		{evaluator.NewString("0"), true},
		{evaluator.NewList(nil), false},
		{evaluator.NewList([]evaluator.Value{evaluator.NewNumber(0)}), true},
	}
	for i, tt := range tests {
		if got := evaluator.Truthiness(tt.value); got != tt.expected {
			t.Errorf("test %d: Truthiness(%s) = %v, want %v", i, evaluator.Repr(tt.value), got, tt.expected)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{4, "4"},
		{-3, "-3"},
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{2.5, "2.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1e21, "1e+21"},
		{1e-7, "1e-07"},
		{123456789, "123456789"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		if got := evaluator.FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAndRepr(t *testing.T) {
	list := evaluator.NewList([]evaluator.Value{
		evaluator.NewNumber(1),
		evaluator.NewString("a"),
		evaluator.NewList([]evaluator.Value{evaluator.NewNumber(2)}),
		evaluator.NewNothing(),
	})
	if got := evaluator.Format(list); got != `[1 "a" [2] nothing]` {
		t.Errorf("Format(list) = %s", got)
	}
	if got := evaluator.Format(evaluator.NewString("hi")); got != "hi" {
		t.Errorf("Format(string) = %s", got)
	}
	if got := evaluator.Repr(evaluator.NewString("hi")); got != `"hi"` {
		t.Errorf("Repr(string) = %s", got)
	}
	if got := evaluator.Format(evaluator.NewNothing()); got != "nothing" {
		t.Errorf("Format(nothing) = %s", got)
	}
}

func TestTypeName(t *testing.T) {
	names := map[string]evaluator.Value{
		"number":  evaluator.NewNumber(1),
		"string":  evaluator.NewString(""),
		"list":    evaluator.NewList(nil),
		"nothing": evaluator.NewNothing(),
	}
	for want, v := range names {
		if got := evaluator.TypeName(v); got != want {
			t.Errorf("TypeName = %s, want %s", got, want)
		}
	}
}

func TestDeepEqual(t *testing.T) {
	a := evaluator.NewList([]evaluator.Value{evaluator.NewNumber(1), evaluator.NewString("x")})
	b := evaluator.NewList([]evaluator.Value{evaluator.NewNumber(1), evaluator.NewString("x")})
	c := evaluator.NewList([]evaluator.Value{evaluator.NewNumber(1)})
	if !evaluator.DeepEqual(a, b) {
		t.Error("equal lists should compare equal")
	}
	if evaluator.DeepEqual(a, c) {
		t.Error("lists of different length should differ")
	}
	if evaluator.DeepEqual(evaluator.NewNumber(1), evaluator.NewString("1")) {
		t.Error("number and string should differ")
	}
	if !evaluator.DeepEqual(evaluator.NewNothing(), evaluator.NewNothing()) {
		t.Error("nothing equals nothing")
	}
}

func TestValueToJSON(t *testing.T) {
	v := evaluator.NewList([]evaluator.Value{
		evaluator.NewNumber(1),
		evaluator.NewNumber(2.5),
		evaluator.NewString("a"),
		evaluator.NewNothing(),
	})
	if got := evaluator.ValueToJSONString(v); got != `[1,2.5,"a",null]` {
		t.Errorf("got %s", got)
	}
}

func TestFromGo(t *testing.T) {
	var decoded any
	if err := json.Unmarshal([]byte(`[1, "two", true, null, [3.5]]`), &decoded); err != nil {
		t.Fatal(err)
	}
	v, err := evaluator.FromGo(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if got := evaluator.Repr(v); got != `[1 "two" 1 nothing [3.5]]` {
		t.Errorf("got %s", got)
	}

	if _, err := evaluator.FromGo(map[string]any{"a": 1}); err == nil {
		t.Error("maps should be rejected")
	}
}
