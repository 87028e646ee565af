package stdlib

import (
	"github.com/thomasrohde/rurtle/pkg/diagnostics"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

func canvasOf(c *evaluator.Call) (evaluator.Canvas, error) {
	cv := c.Canvas()
	if cv == nil {
		return nil, evaluator.Errorf(diagnostics.ECanvas, "%s: no canvas attached", c.Name)
	}
	return cv, nil
}

func canvasErr(c *evaluator.Call, err error) error {
	if err == nil {
		return nil
	}
	return evaluator.Errorf(diagnostics.ECanvas, "%s: %v", c.Name, err)
}

// draw runs op against the canvas and yields Nothing.
func draw(c *evaluator.Call, op func(cv evaluator.Canvas) error) (evaluator.Value, error) {
	cv, err := canvasOf(c)
	if err != nil {
		return nil, err
	}
	if err := canvasErr(c, op(cv)); err != nil {
		return nil, err
	}
	return evaluator.NewNothing(), nil
}

func drawNumber(c *evaluator.Call, op func(cv evaluator.Canvas, n float64) error) (evaluator.Value, error) {
	n, err := argNumber(c, 0)
	if err != nil {
		return nil, err
	}
	return draw(c, func(cv evaluator.Canvas) error { return op(cv, n) })
}

func stdlibForward(c *evaluator.Call) (evaluator.Value, error) {
	return drawNumber(c, func(cv evaluator.Canvas, n float64) error { return cv.Move(n, c.PenDown()) })
}

func stdlibBackward(c *evaluator.Call) (evaluator.Value, error) {
	return drawNumber(c, func(cv evaluator.Canvas, n float64) error { return cv.Move(-n, c.PenDown()) })
}

// Positive turns are clockwise.
func stdlibRight(c *evaluator.Call) (evaluator.Value, error) {
	return drawNumber(c, func(cv evaluator.Canvas, n float64) error { return cv.Turn(n) })
}

func stdlibLeft(c *evaluator.Call) (evaluator.Value, error) {
	return drawNumber(c, func(cv evaluator.Canvas, n float64) error { return cv.Turn(-n) })
}

func stdlibRealign(c *evaluator.Call) (evaluator.Value, error) {
	return drawNumber(c, func(cv evaluator.Canvas, n float64) error { return cv.SetHeading(n) })
}

func rgbArgs(c *evaluator.Call) (r, g, b float64, err error) {
	var comps [3]float64
	for i := range comps {
		v, err := argNumber(c, i)
		if err != nil {
			return 0, 0, 0, err
		}
		if v < 0 || v > 1 {
			return 0, 0, 0, evaluator.Errorf(diagnostics.EValue,
				"%s: color component %s out of range [0, 1]", c.Name, evaluator.FormatNumber(v))
		}
		comps[i] = v
	}
	return comps[0], comps[1], comps[2], nil
}

func stdlibColor(c *evaluator.Call) (evaluator.Value, error) {
	r, g, b, err := rgbArgs(c)
	if err != nil {
		return nil, err
	}
	return draw(c, func(cv evaluator.Canvas) error { return cv.SetColor(r, g, b) })
}

func stdlibBgColor(c *evaluator.Call) (evaluator.Value, error) {
	r, g, b, err := rgbArgs(c)
	if err != nil {
		return nil, err
	}
	return draw(c, func(cv evaluator.Canvas) error { return cv.SetBackground(r, g, b) })
}

func stdlibClear(c *evaluator.Call) (evaluator.Value, error) {
	return draw(c, func(cv evaluator.Canvas) error { return cv.Clear() })
}

func setPen(c *evaluator.Call, down bool) (evaluator.Value, error) {
	v, err := draw(c, func(cv evaluator.Canvas) error { return cv.SetPen(down) })
	if err != nil {
		return nil, err
	}
	c.SetPenDown(down)
	return v, nil
}

func stdlibPenUp(c *evaluator.Call) (evaluator.Value, error) {
	return setPen(c, false)
}

func stdlibPenDown(c *evaluator.Call) (evaluator.Value, error) {
	return setPen(c, true)
}

func stdlibHome(c *evaluator.Call) (evaluator.Value, error) {
	return draw(c, func(cv evaluator.Canvas) error { return cv.Home() })
}

func stdlibHide(c *evaluator.Call) (evaluator.Value, error) {
	return draw(c, func(cv evaluator.Canvas) error { return cv.SetVisible(false) })
}

func stdlibShow(c *evaluator.Call) (evaluator.Value, error) {
	return draw(c, func(cv evaluator.Canvas) error { return cv.SetVisible(true) })
}
