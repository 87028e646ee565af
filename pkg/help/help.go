// Package help holds the reference text shown by `rurtle help` and the REPL
// :help command.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomasrohde/rurtle/pkg/lexer"
	"github.com/thomasrohde/rurtle/pkg/stdlib"
)

// Version is the language version reported in the quick reference.
const Version = "v0.4"

// TopicList is the display order of help topics.
var TopicList = []string{"syntax", "types", "turtle", "lists", "flow", "errors", "caps", "config", "examples"}

// QUICKREF is printed by `rurtle help` without a topic.
var QUICKREF = `Rurtle ` + Version + ` quick reference

  forward 100 right 90         statements run left to right
  make "size" 50               local variable, read back as :size
  global "count" 0             variable in the global scope
  learn square :n do ... end   define a function
  repeat 4 do ... end          counted loop
  while :i < 10 do ... end     conditional loop
  if :x > 1 do ... else ... end
  try ... else ... end         recover from runtime errors
  ; comment to end of line

Topics: ` + strings.Join(TopicList, ", ") + `
Run "rurtle help <topic>" for details, "rurtle help builtins" for every builtin.
`

// Topics maps each topic name to its text.
var Topics = map[string]string{
	"syntax": `SYNTAX

Programs are whitespace-separated statements. Newlines carry no meaning.
Keywords and function names ignore case; variable names do not.

  learn NAME :P1 :P2 do BODY end
  repeat COUNT do BODY end
  while COND do BODY end
  if COND do BODY [else BODY] end
  try BODY else BODY end
  return [VALUE]

A call takes exactly as many arguments as the function has parameters, so
no parentheses or separators are needed: forward 10 right 90.
Each argument is a single value, variable, list, call or parenthesized
expression, so forward 10 + 5 is (forward 10) + 5. Write forward (10 + 5).
The value of make and global and of return is a whole expression.
Operators: * / bind tighter than + -, which bind tighter than
= <> < > <= >=. Comparisons cannot be chained; use parentheses.
Write a negative number as -5. After a value, "-" means subtraction, so
use (0 - 5) or (-5) there.
`,
	"types": `TYPES

  number    64-bit float: 10, 2.5, -3
  string    "text" (no escapes; a string ends at the next quote)
  list      [1 "a" [2 3]], elements are evaluated expressions
  nothing   the result of statements and of a bare return

+ adds numbers, concatenates strings, and appends lists.
Comparisons yield 1 or 0. = and <> compare any two values structurally.
Conditions are true unless they are 0, "", [] or nothing.
`,
	"turtle": `TURTLE

The turtle starts at the center facing up with the pen down.

  forward D   backward D   left DEG   right DEG   realign DEG
  penup   pendown   home   clear   hide   show
  color R G B   bgcolor R G B      components between 0 and 1
  screenshot "out.png"

Headings are in degrees, clockwise, with 0 pointing up.
`,
	"lists": `LISTS

  head L / first L        first element, nothing for []
  tail L / butfirst L     all but the first element, nothing for []
  length L                element count (characters for a string)
  isempty L               1 for an empty list or string
  getindex L I            element at zero-based index I
  find L V                index of the first element equal to V, or -1
`,
	"flow": `FLOW

Functions see their own locals and the global scope, never the caller's
locals. make writes the local scope; global writes the global scope.
A function ends at its last statement or at return. Functions may call
themselves and may be redefined; the newest definition wins, including
over builtins.
`,
	"errors": `ERRORS

Errors raised while running can be caught:

  try
    print getindex :l 10
  else
    print "no such element"
  end

throw MESSAGE raises an error of your own. Syntax errors, including a
call to a name that is never learned, reject the whole program and cannot
be caught. Neither can interruptions (Ctrl-C).
`,
	"caps": `CAPABILITIES

Builtins that reach outside the interpreter need a capability:

  draw         turtle and color commands
  prompt       prompt TEXT
  screenshot   screenshot PATH

A denied capability raises E_CAP_DENIED. Grant or deny them with the policy
section of the configuration file.
`,
	"config": `CONFIG

rurtle reads --config FILE, else ./rurtle.yaml, else ~/.rurtle/config.yaml.

  canvas:  { width: 640, height: 640, background: [1, 1, 1] }
  repl:    { prompt: "Rurtle> ", history: .rurtle_history }
  startup: [lib/shapes.rtl]
  log:     { level: info, format: text }
  limits:  { max_call_depth: 10000, max_iterations: 0 }
  policy:  { allow: [], deny: [screenshot] }
  globals: { size: 50 }
`,
	"examples": `EXAMPLES

  learn square :size do
    repeat 4 do forward :size right 90 end
  end
  square 100

  learn mean :l do
    make "sum" 0
    make "i" 0
    while :i < length :l do
      make "sum" :sum + getindex :l :i
      make "i" :i + 1
    end
    return :sum / length :l
  end
  print mean [1 2 3 4 5 6 7]
`,
}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown help topic: %s", query)
	case 1:
		return matches[0], Topics[matches[0]], nil
	}
	return "", "", fmt.Errorf("ambiguous help topic %q matches %s", query, strings.Join(matches, ", "))
}

// BuiltinIndex lists every builtin in the registry with its usage line.
func BuiltinIndex(reg *stdlib.Registry) string {
	var b strings.Builder
	b.WriteString("BUILTINS\n\n")
	names := reg.Names()
	width := 0
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}
	for _, name := range names {
		fn := reg.Get(name)
		fmt.Fprintf(&b, "  %-*s  %s", width, name, fn.Doc)
		if fn.Capability != "" {
			fmt.Fprintf(&b, "  [%s]", fn.Capability)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nTotal: %d functions\n", len(names))
	return b.String()
}

// Lookup returns the usage line of one builtin. Names match the way the
// lexer folds them.
func Lookup(reg *stdlib.Registry, name string) (string, bool) {
	fn := reg.Get(lexer.FoldName(strings.TrimSpace(name)))
	if fn == nil {
		return "", false
	}
	return fn.Doc, true
}

// Learned formats user-defined function signatures, sorted by name.
func Learned(sigs map[string][]string) string {
	names := make([]string, 0, len(sigs))
	for name := range sigs {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		for _, p := range sigs[name] {
			b.WriteString(" :" + p)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
