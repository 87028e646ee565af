package lexer

import (
	"testing"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics.
func FuzzTokenize(f *testing.F) {
	seeds := []string{
		`learn do end repeat while if else return try`,
		`LEARN Square :size DO repeat 4 do forward :size right 90 end END`,
		`42 3.14 -1 0 5-3`,
		`"hello" "multi
line"`,
		`= <> < > <= >= + - * /`,
		`[ ] ( )`,
		`; comment only`,
		`make "x" [1 2 [3 "a"]]`,
		``,
		"\t\n\r",
		`"unterminated`,
		`@#$^&`,
		`:`,
		`-`,
		`1.`,
		"größe :wert",
		"\xff\xfe",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Tokenize panicked on input %q: %v", input, r)
				}
			}()
			Tokenize(input, "fuzz.rtl")
		}()
	})
}
