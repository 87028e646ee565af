package stdlib

import (
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// RegisterDefaults adds all builtins.
func RegisterDefaults(r *Registry) {
	// Drawing
	r.Register(Fn{Name: "forward", Arity: 1, Capability: CapDraw, Doc: "forward DISTANCE", Execute: stdlibForward})
	r.Register(Fn{Name: "backward", Arity: 1, Capability: CapDraw, Doc: "backward DISTANCE", Execute: stdlibBackward})
	r.Register(Fn{Name: "left", Arity: 1, Capability: CapDraw, Doc: "left DEGREES", Execute: stdlibLeft})
	r.Register(Fn{Name: "right", Arity: 1, Capability: CapDraw, Doc: "right DEGREES", Execute: stdlibRight})
	r.Register(Fn{Name: "color", Arity: 3, Capability: CapDraw, Doc: "color R G B (each 0..1)", Execute: stdlibColor})
	r.Register(Fn{Name: "bgcolor", Arity: 3, Capability: CapDraw, Doc: "bgcolor R G B (each 0..1)", Execute: stdlibBgColor})
	r.Register(Fn{Name: "clear", Arity: 0, Capability: CapDraw, Doc: "clear", Execute: stdlibClear})
	r.Register(Fn{Name: "penup", Arity: 0, Capability: CapDraw, Doc: "penup", Execute: stdlibPenUp})
	r.Register(Fn{Name: "pendown", Arity: 0, Capability: CapDraw, Doc: "pendown", Execute: stdlibPenDown})
	r.Register(Fn{Name: "home", Arity: 0, Capability: CapDraw, Doc: "home", Execute: stdlibHome})
	r.Register(Fn{Name: "realign", Arity: 1, Capability: CapDraw, Doc: "realign DEGREES", Execute: stdlibRealign})
	r.Register(Fn{Name: "hide", Arity: 0, Capability: CapDraw, Doc: "hide", Execute: stdlibHide})
	r.Register(Fn{Name: "show", Arity: 0, Capability: CapDraw, Doc: "show", Execute: stdlibShow})

	// Environment
	r.Register(Fn{Name: "make", Arity: 2, Doc: `make "NAME VALUE`})
	r.Register(Fn{Name: "global", Arity: 2, Doc: `global "NAME VALUE`})
	r.Register(Fn{Name: "prompt", Arity: 1, Capability: CapPrompt, Doc: "prompt TEXT", Execute: stdlibPrompt})
	r.Register(Fn{Name: "screenshot", Arity: 1, Capability: CapScreenshot, Doc: "screenshot PATH", Execute: stdlibScreenshot})
	r.Register(Fn{Name: "throw", Arity: 1, Doc: "throw MESSAGE", Execute: stdlibThrow})
	r.Register(Fn{Name: "print", Arity: 1, Doc: "print VALUE", Execute: stdlibPrint})

	// Lists
	r.Register(Fn{Name: "head", Arity: 1, Doc: "head LIST", Execute: stdlibHead})
	r.Register(Fn{Name: "first", Arity: 1, Doc: "first LIST", Execute: stdlibHead})
	r.Register(Fn{Name: "tail", Arity: 1, Doc: "tail LIST", Execute: stdlibTail})
	r.Register(Fn{Name: "butfirst", Arity: 1, Doc: "butfirst LIST", Execute: stdlibTail})
	r.Register(Fn{Name: "length", Arity: 1, Doc: "length LIST-OR-STRING", Execute: stdlibLength})
	r.Register(Fn{Name: "isempty", Arity: 1, Doc: "isempty LIST", Execute: stdlibIsEmpty})
	r.Register(Fn{Name: "getindex", Arity: 2, Doc: "getindex LIST INDEX", Execute: stdlibGetIndex})
	r.Register(Fn{Name: "find", Arity: 2, Doc: "find LIST VALUE", Execute: stdlibFind})

	// Boolean and conversion
	r.Register(Fn{Name: "not", Arity: 1, Doc: "not VALUE", Execute: stdlibNot})
	r.Register(Fn{Name: "tonumber", Arity: 1, Doc: "tonumber STRING", Execute: stdlibToNumber})
	r.Register(Fn{Name: "tostring", Arity: 1, Doc: "tostring VALUE", Execute: stdlibToString})
	r.Register(Fn{Name: "nothing", Arity: 0, Doc: "nothing", Execute: stdlibNothing})

	// Strings
	r.Register(Fn{Name: "replace", Arity: 3, Doc: "replace STRING OLD NEW", Execute: stdlibReplace})
	r.Register(Fn{Name: "contains", Arity: 2, Doc: "contains STRING PATTERN", Execute: stdlibContains})
	r.Register(Fn{Name: "chars", Arity: 1, Doc: "chars STRING", Execute: stdlibChars})
	r.Register(Fn{Name: "split", Arity: 2, Doc: "split STRING SEPARATOR", Execute: stdlibSplit})
}

func typeError(c *evaluator.Call, i int, want string) error {
	return evaluator.Errorf(diagnostics.EType, "%s: argument %d must be a %s, got %s",
		c.Name, i+1, want, evaluator.TypeName(c.Args[i]))
}

func argNumber(c *evaluator.Call, i int) (float64, error) {
	n, ok := c.Args[i].(evaluator.Number)
	if !ok {
		return 0, typeError(c, i, "number")
	}
	return n.Value, nil
}

func argString(c *evaluator.Call, i int) (string, error) {
	s, ok := c.Args[i].(evaluator.String)
	if !ok {
		return "", typeError(c, i, "string")
	}
	return s.Value, nil
}

func argList(c *evaluator.Call, i int) ([]evaluator.Value, error) {
	l, ok := c.Args[i].(evaluator.List)
	if !ok {
		return nil, typeError(c, i, "list")
	}
	return l.Items, nil
}

// print VALUE
func stdlibPrint(c *evaluator.Call) (evaluator.Value, error) {
	con := c.Console()
	if con == nil {
		return nil, evaluator.Errorf(diagnostics.EIO, "print: no console attached")
	}
	if err := con.Print(evaluator.Format(c.Args[0])); err != nil {
		return nil, evaluator.Errorf(diagnostics.EIO, "print: %v", err)
	}
	return evaluator.NewNothing(), nil
}

// prompt TEXT → the line the user entered
func stdlibPrompt(c *evaluator.Call) (evaluator.Value, error) {
	con := c.Console()
	if con == nil {
		return nil, evaluator.Errorf(diagnostics.EIO, "prompt: no console attached")
	}
	line, err := con.Prompt(evaluator.Format(c.Args[0]))
	if err != nil {
		if c.Ctx.Err() != nil {
			return nil, c.Ctx.Err()
		}
		return nil, evaluator.Errorf(diagnostics.EIO, "prompt: %v", err)
	}
	return evaluator.NewString(line), nil
}

// screenshot PATH
func stdlibScreenshot(c *evaluator.Call) (evaluator.Value, error) {
	path, err := argString(c, 0)
	if err != nil {
		return nil, err
	}
	cv := c.Canvas()
	if cv == nil {
		return nil, evaluator.Errorf(diagnostics.ECanvas, "screenshot: no canvas attached")
	}
	if err := cv.SaveImage(path); err != nil {
		return nil, evaluator.Errorf(diagnostics.EIO, "screenshot: %v", err)
	}
	c.Logger().Info("saved screenshot", "path", path)
	return evaluator.NewNothing(), nil
}

// throw MESSAGE
func stdlibThrow(c *evaluator.Call) (evaluator.Value, error) {
	return nil, evaluator.Errorf(diagnostics.EThrow, "%s", evaluator.Format(c.Args[0]))
}

// nothing → Nothing
func stdlibNothing(c *evaluator.Call) (evaluator.Value, error) {
	return evaluator.NewNothing(), nil
}
