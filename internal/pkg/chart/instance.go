// Package chart renders time-series charts as SVG documents, with a pointer hover model
// designating the record nearest to the pointer.
package chart

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
)

// Instance is a rendered chart: its static scene, the projected data and the hover tracker.
type Instance[R any] struct {
	Scene
	*Tracker[R]

	Series Series[R]
}

// Render writes the chart as a standalone SVG document, with hover indicators in their
// current state.
func (c *Instance[R]) Render(w io.Writer) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	c.start(canvas)
	c.draw(canvas)

	canvas.Group(`class="hover"`, `pointer-events="none"`)
	for _, ind := range c.indicators {
		ind.draw(canvas, c.Theme)
	}
	canvas.Gend()

	canvas.End()

	if ew.err != nil {
		return fmt.Errorf("rendering chart: %w", ew.err)
	}

	return nil
}

// Placeholder writes an SVG document showing only message, used when data is unavailable.
func Placeholder(w io.Writer, width, height float64, message string) error {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	s := Scene{
		Width:  width,
		Height: height,
		Theme:  DefaultTheme(),
		Texts: []Text{
			{X: width / 2, Y: height / 2, Value: message, Anchor: "middle", FontSize: "16px"},
		},
	}

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	s.start(canvas)
	s.draw(canvas)
	canvas.End()

	if ew.err != nil {
		return fmt.Errorf("rendering placeholder: %w", ew.err)
	}

	return nil
}
