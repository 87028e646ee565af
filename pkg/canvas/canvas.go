// Package canvas provides a headless turtle canvas that records the drawing
// and can rasterize it to a PNG file.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/vector"

	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 640
	DefaultHeight = 640
)

const penWidth = 1.5

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Black and White are the default pen and background colors.
var (
	Black = Color{0, 0, 0}
	White = Color{1, 1, 1}
)

func (c Color) rgba() color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(c.R * 255)),
		G: uint8(math.Round(c.G * 255)),
		B: uint8(math.Round(c.B * 255)),
		A: 0xff,
	}
}

// NewColor validates the components of an RGB color.
func NewColor(r, g, b float64) (Color, error) {
	for _, v := range []float64{r, g, b} {
		if !(v >= 0 && v <= 1) {
			return Color{}, fmt.Errorf("color component %v out of range [0, 1]", v)
		}
	}
	return Color{r, g, b}, nil
}

// Point is a position in turtle coordinates. The origin is the center of the
// canvas and y grows towards north.
type Point struct {
	X, Y float64
}

// Segment is a line drawn while the pen was down.
type Segment struct {
	From, To Point
	Color    Color
}

// Canvas is a headless implementation of evaluator.Canvas.
type Canvas struct {
	width, height int

	pos        Point
	heading    float64
	pen        bool
	visible    bool
	color      Color
	background Color
	segments   []Segment
}

var _ evaluator.Canvas = (*Canvas)(nil)

// New creates a canvas of the given size with the turtle at home, pen down.
// Non-positive sizes fall back to the defaults.
func New(width, height int) *Canvas {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Canvas{
		width:      width,
		height:     height,
		pen:        true,
		visible:    true,
		color:      Black,
		background: White,
	}
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (width, height int) { return c.width, c.height }

// Position returns the turtle position.
func (c *Canvas) Position() Point { return c.pos }

// Heading returns the turtle heading in degrees clockwise from north, in [0, 360).
func (c *Canvas) Heading() float64 { return c.heading }

// PenIsDown reports the canvas pen state.
func (c *Canvas) PenIsDown() bool { return c.pen }

// Visible reports whether the turtle marker is drawn.
func (c *Canvas) Visible() bool { return c.visible }

// PenColor returns the current pen color.
func (c *Canvas) PenColor() Color { return c.color }

// Background returns the background color.
func (c *Canvas) Background() Color { return c.background }

// Segments returns a copy of the drawn segments.
func (c *Canvas) Segments() []Segment {
	out := make([]Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite, got %v", name, v)
	}
	return nil
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Move moves the turtle along its heading, drawing when penDown is set.
func (c *Canvas) Move(distance float64, penDown bool) error {
	if err := finite("distance", distance); err != nil {
		return err
	}
	rad := c.heading * math.Pi / 180
	to := Point{
		X: c.pos.X + distance*math.Sin(rad),
		Y: c.pos.Y + distance*math.Cos(rad),
	}
	if penDown && distance != 0 {
		c.segments = append(c.segments, Segment{From: c.pos, To: to, Color: c.color})
	}
	c.pos = to
	return nil
}

// Turn rotates the turtle clockwise by delta degrees.
func (c *Canvas) Turn(delta float64) error {
	if err := finite("angle", delta); err != nil {
		return err
	}
	c.heading = normalize(c.heading + delta)
	return nil
}

// SetHeading sets the absolute heading.
func (c *Canvas) SetHeading(degrees float64) error {
	if err := finite("heading", degrees); err != nil {
		return err
	}
	c.heading = normalize(degrees)
	return nil
}

// SetColor sets the pen color.
func (c *Canvas) SetColor(r, g, b float64) error {
	col, err := NewColor(r, g, b)
	if err != nil {
		return err
	}
	c.color = col
	return nil
}

// SetBackground sets the background color.
func (c *Canvas) SetBackground(r, g, b float64) error {
	col, err := NewColor(r, g, b)
	if err != nil {
		return err
	}
	c.background = col
	return nil
}

// Clear erases the drawing. The turtle keeps its pose.
func (c *Canvas) Clear() error {
	c.segments = nil
	return nil
}

// SetPen records the pen state.
func (c *Canvas) SetPen(down bool) error {
	c.pen = down
	return nil
}

// Home returns the turtle to the origin facing north without drawing.
func (c *Canvas) Home() error {
	c.pos = Point{}
	c.heading = 0
	return nil
}

// SetVisible shows or hides the turtle marker.
func (c *Canvas) SetVisible(visible bool) error {
	c.visible = visible
	return nil
}

// SaveImage writes the drawing to path. Only PNG files are supported.
func (c *Canvas) SaveImage(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return fmt.Errorf("unsupported image format %q: only .png is supported", filepath.Ext(path))
	}
	img := c.Render()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// Render rasterizes the drawing.
func (c *Canvas) Render() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.background.rgba()), image.Point{}, draw.Src)

	for _, seg := range c.segments {
		c.strokeSegment(dst, seg)
	}
	if c.visible {
		c.drawTurtle(dst)
	}
	return dst
}

// toScreen maps turtle coordinates to pixel coordinates.
func (c *Canvas) toScreen(p Point) (float32, float32) {
	return float32(float64(c.width)/2 + p.X), float32(float64(c.height)/2 - p.Y)
}

func (c *Canvas) strokeSegment(dst *image.RGBA, seg Segment) {
	dx, dy := seg.To.X-seg.From.X, seg.To.Y-seg.From.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	// Offset perpendicular to the segment by half the pen width.
	nx, ny := -dy/length*penWidth/2, dx/length*penWidth/2

	z := vector.NewRasterizer(c.width, c.height)
	z.MoveTo(c.toScreen(Point{seg.From.X + nx, seg.From.Y + ny}))
	z.LineTo(c.toScreen(Point{seg.To.X + nx, seg.To.Y + ny}))
	z.LineTo(c.toScreen(Point{seg.To.X - nx, seg.To.Y - ny}))
	z.LineTo(c.toScreen(Point{seg.From.X - nx, seg.From.Y - ny}))
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(seg.Color.rgba()), image.Point{})
}

func (c *Canvas) drawTurtle(dst *image.RGBA) {
	const size = 10.0
	rad := c.heading * math.Pi / 180
	corner := func(angle, dist float64) Point {
		return Point{
			X: c.pos.X + dist*math.Sin(rad+angle),
			Y: c.pos.Y + dist*math.Cos(rad+angle),
		}
	}

	z := vector.NewRasterizer(c.width, c.height)
	z.MoveTo(c.toScreen(corner(0, size)))
	z.LineTo(c.toScreen(corner(2.5, size*0.6)))
	z.LineTo(c.toScreen(corner(-2.5, size*0.6)))
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(c.color.rgba()), image.Point{})
}
