package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// Text is a positioned piece of text.
type Text struct {
	X, Y     float64
	Value    string
	Anchor   string
	FontSize string
	Fill     string
}

// Rect is a rectangle in pixels.
type Rect struct {
	X, Y, W, H float64
}

// BarLayer is a group of bars sharing one fill.
type BarLayer struct {
	Fill    string
	Opacity float64
	Rects   []Rect
}

// Stroke describes how lines are drawn.
type Stroke struct {
	Width    float64
	Linecap  string
	Linejoin string
	Opacity  float64
}

// LineLayer is one line made of disjoint segments.
type LineLayer struct {
	Key      string
	Color    string
	Stroke   Stroke
	Curve    Curve
	Segments [][]Point
}

// Path yields the path data of the line.
func (l LineLayer) Path() string {
	curve := l.Curve
	if curve == nil {
		curve = CurveLinear
	}

	var w strings.Builder
	for _, segment := range l.Segments {
		curve.Path(&w, segment)
	}

	return w.String()
}

// Scene is the static part of a chart: everything but the hover indicators.
type Scene struct {
	Width, Height float64
	Title         string
	Theme         Theme
	Texts         []Text
	Axes          []Axis
	Bars          []BarLayer
	Lines         []LineLayer
}

// BarCount yields the number of bars drawn.
func (s Scene) BarCount() int {
	var n int
	for _, layer := range s.Bars {
		n += len(layer.Rects)
	}

	return n
}

func (s Scene) start(canvas *svg.SVG) {
	canvas.Start(px(s.Width), px(s.Height),
		fmt.Sprintf(`viewBox="0 0 %s %s"`, coord(s.Width), coord(s.Height)),
		`style="max-width: 100%; height: auto; height: intrinsic;"`,
		fmt.Sprintf(`font-family="%s"`, s.Theme.FontFamily),
		fmt.Sprintf(`font-size="%s"`, coord(s.Theme.FontSize)),
	)

	if s.Title != "" {
		canvas.Title(s.Title)
	}
}

func (s Scene) draw(canvas *svg.SVG) {
	for _, t := range s.Texts {
		t.draw(canvas, s.Theme)
	}

	for _, a := range s.Axes {
		a.draw(canvas, s.Theme)
	}

	for _, layer := range s.Bars {
		attrs := []string{fmt.Sprintf(`fill="%s"`, layer.Fill)}
		if layer.Opacity > 0 && layer.Opacity < 1 {
			attrs = append(attrs, fmt.Sprintf(`fill-opacity="%s"`, coord(layer.Opacity)))
		}

		canvas.Group(attrs...)
		for _, r := range layer.Rects {
			r = r.normalized()
			canvas.Rect(px(r.X), px(r.Y), px(r.W), px(r.H))
		}
		canvas.Gend()
	}

	for _, line := range s.Lines {
		if len(line.Segments) == 0 {
			continue
		}

		stroke := line.Stroke
		attrs := []string{
			`fill="none"`,
			fmt.Sprintf(`stroke="%s"`, line.Color),
			fmt.Sprintf(`stroke-width="%s"`, coord(stroke.Width)),
			fmt.Sprintf(`stroke-linecap="%s"`, stroke.Linecap),
			fmt.Sprintf(`stroke-linejoin="%s"`, stroke.Linejoin),
		}
		if stroke.Opacity > 0 && stroke.Opacity < 1 {
			attrs = append(attrs, fmt.Sprintf(`stroke-opacity="%s"`, coord(stroke.Opacity)))
		}

		canvas.Path(line.Path(), attrs...)
	}
}

func (r Rect) normalized() Rect {
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}

	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}

	return r
}

func (t Text) draw(canvas *svg.SVG, theme Theme) {
	if t.Value == "" {
		return
	}

	fill := t.Fill
	if fill == "" {
		fill = theme.Foreground
	}

	attrs := []string{fmt.Sprintf(`fill="%s"`, fill)}
	if t.Anchor != "" {
		attrs = append(attrs, fmt.Sprintf(`text-anchor="%s"`, t.Anchor))
	}
	if t.FontSize != "" {
		attrs = append(attrs, fmt.Sprintf(`font-size="%s"`, t.FontSize))
	}

	canvas.Text(px(t.X), px(t.Y), t.Value, attrs...)
}

// px rounds a pixel position, mapping NaN to 0.
func px(v float64) int {
	if !isFinite(v) {
		return 0
	}

	return int(math.Round(v))
}

// errWriter retains the first write error, since the svg canvas ignores them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}

	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}

	return n, err
}
