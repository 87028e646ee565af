package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/parser"
	"github.com/thomasrohde/rurtle/pkg/validator"
)

var arities = parser.Arities{"print": 1, "forward": 1, "right": 1}

// helper parses source and validates, returning diagnostics from validation only.
// It fatals on parse errors so test cases focus on validator behavior.
func mustParseAndValidate(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	prog, parseErrs := parser.Parse(source, "test.rtl", arities)
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse error: %s", parseErrs[0].Message)
	}
	return validator.Validate(prog)
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertCodes asserts the diagnostics carry exactly these codes, in order.
func assertCodes(t *testing.T, diags []diagnostics.Diagnostic, codes ...string) {
	t.Helper()
	var got []string
	for _, d := range diags {
		got = append(got, d.Code)
	}
	if strings.Join(got, ",") != strings.Join(codes, ",") {
		t.Errorf("expected codes %v, got %v", codes, got)
	}
}

func TestValidProgram(t *testing.T) {
	diags := mustParseAndValidate(t, `
learn square :size do
  repeat 4 do forward :size right 90 end
end
make "n" 10
global "g" [1 2]
try print 1 / 0 else print "oops" end
`)
	assertNoDiags(t, diags)
}

func TestNilProgram(t *testing.T) {
	assertNoDiags(t, validator.Validate(nil))
}

func TestDuplicateParam(t *testing.T) {
	diags := mustParseAndValidate(t, `learn f :a :b :a do end`)
	assertCodes(t, diags, diagnostics.EDupParam)
	if !strings.Contains(diags[0].Message, ":a") || diags[0].Span == nil {
		t.Errorf("unexpected diagnostic %+v", diags[0])
	}
}

func TestDuplicateParamInNestedLearn(t *testing.T) {
	diags := mustParseAndValidate(t, `repeat 1 do learn g :x :x do end end`)
	assertCodes(t, diags, diagnostics.EDupParam)
}

func TestLiteralMakeName(t *testing.T) {
	diags := mustParseAndValidate(t, `make 5 1 global [1] 2`)
	assertCodes(t, diags, diagnostics.EType, diagnostics.EType)
	if !strings.Contains(diags[0].Message, "make expects a string name, got number") {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
	if !strings.Contains(diags[1].Message, "global expects a string name, got list") {
		t.Errorf("unexpected message %q", diags[1].Message)
	}
	if diags[0].Hint == "" {
		t.Error("expected a hint")
	}
}

func TestComputedMakeNameAllowed(t *testing.T) {
	diags := mustParseAndValidate(t, `make "a" "x" make :a 1 make ("p" + "q") 2`)
	assertNoDiags(t, diags)
}

func TestMakeInsideExpressions(t *testing.T) {
	diags := mustParseAndValidate(t, `learn f do if 1 do return [make 3 4] end end`)
	assertCodes(t, diags, diagnostics.EType)
}

func TestCollectsAll(t *testing.T) {
	diags := mustParseAndValidate(t, `learn f :x :x do make 1 2 end try make [] 3 else end`)
	assertCodes(t, diags, diagnostics.EDupParam, diagnostics.EType, diagnostics.EType)
}
