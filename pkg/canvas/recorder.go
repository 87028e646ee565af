package canvas

import (
	"fmt"
	"strconv"

	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// Recorder wraps a canvas and logs every call made to it, in order. A nil
// Inner makes it a pure recorder.
type Recorder struct {
	Inner evaluator.Canvas
	Calls []string

	failures map[string]error
}

var _ evaluator.Canvas = (*Recorder)(nil)

// NewRecorder creates a recorder around inner.
func NewRecorder(inner evaluator.Canvas) *Recorder {
	return &Recorder{Inner: inner}
}

// FailOn makes every later call to method return err.
func (r *Recorder) FailOn(method string, err error) {
	if r.failures == nil {
		r.failures = make(map[string]error)
	}
	r.failures[method] = err
}

// Reset forgets the recorded calls.
func (r *Recorder) Reset() { r.Calls = nil }

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func (r *Recorder) record(method, call string, forward func(evaluator.Canvas) error) error {
	r.Calls = append(r.Calls, call)
	if err := r.failures[method]; err != nil {
		return err
	}
	if r.Inner == nil {
		return nil
	}
	return forward(r.Inner)
}

func (r *Recorder) Move(distance float64, penDown bool) error {
	return r.record("Move", fmt.Sprintf("Move(%s, %t)", num(distance), penDown),
		func(c evaluator.Canvas) error { return c.Move(distance, penDown) })
}

func (r *Recorder) Turn(delta float64) error {
	return r.record("Turn", fmt.Sprintf("Turn(%s)", num(delta)),
		func(c evaluator.Canvas) error { return c.Turn(delta) })
}

func (r *Recorder) SetHeading(degrees float64) error {
	return r.record("SetHeading", fmt.Sprintf("SetHeading(%s)", num(degrees)),
		func(c evaluator.Canvas) error { return c.SetHeading(degrees) })
}

func (r *Recorder) SetColor(red, green, blue float64) error {
	return r.record("SetColor", fmt.Sprintf("SetColor(%s, %s, %s)", num(red), num(green), num(blue)),
		func(c evaluator.Canvas) error { return c.SetColor(red, green, blue) })
}

func (r *Recorder) SetBackground(red, green, blue float64) error {
	return r.record("SetBackground", fmt.Sprintf("SetBackground(%s, %s, %s)", num(red), num(green), num(blue)),
		func(c evaluator.Canvas) error { return c.SetBackground(red, green, blue) })
}

func (r *Recorder) Clear() error {
	return r.record("Clear", "Clear()", func(c evaluator.Canvas) error { return c.Clear() })
}

func (r *Recorder) SetPen(down bool) error {
	return r.record("SetPen", fmt.Sprintf("SetPen(%t)", down),
		func(c evaluator.Canvas) error { return c.SetPen(down) })
}

func (r *Recorder) Home() error {
	return r.record("Home", "Home()", func(c evaluator.Canvas) error { return c.Home() })
}

func (r *Recorder) SetVisible(visible bool) error {
	return r.record("SetVisible", fmt.Sprintf("SetVisible(%t)", visible),
		func(c evaluator.Canvas) error { return c.SetVisible(visible) })
}

func (r *Recorder) SaveImage(path string) error {
	return r.record("SaveImage", fmt.Sprintf("SaveImage(%q)", path),
		func(c evaluator.Canvas) error { return c.SaveImage(path) })
}
