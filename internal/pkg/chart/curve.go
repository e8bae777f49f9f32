package chart

import (
	"math"
	"strconv"
	"strings"
)

// Point is a position in pixels.
type Point struct {
	X, Y float64
}

// Curve writes the path data of one continuous line segment.
type Curve interface {
	Path(w *strings.Builder, segment []Point)
}

// CurveFunc adapts a function to a [Curve].
type CurveFunc func(*strings.Builder, []Point)

func (fn CurveFunc) Path(w *strings.Builder, segment []Point) {
	fn(w, segment)
}

var (
	// CurveLinear joins points with straight lines.
	CurveLinear Curve = CurveFunc(linearPath)
	// CurveStep changes value at the midpoint between two points.
	CurveStep Curve = CurveFunc(stepPath(0.5))
	// CurveStepAfter changes value after each point.
	CurveStepAfter Curve = CurveFunc(stepPath(1))
	// CurveStepBefore changes value before each point.
	CurveStepBefore Curve = CurveFunc(stepPath(0))
)

var curves = map[string]Curve{
	"linear":     CurveLinear,
	"step":       CurveStep,
	"stepafter":  CurveStepAfter,
	"stepbefore": CurveStepBefore,
}

// CurveByName resolves a curve by its name, case-insensitively.
func CurveByName(name string) (Curve, bool) {
	c, ok := curves[strings.ToLower(strings.ReplaceAll(name, "-", ""))]

	return c, ok
}

func linearPath(w *strings.Builder, segment []Point) {
	for i, p := range segment {
		if i == 0 {
			w.WriteString("M")
		} else {
			w.WriteString("L")
		}

		writePoint(w, p)
	}

	if len(segment) == 1 {
		w.WriteString("Z")
	}
}

func stepPath(t float64) func(*strings.Builder, []Point) {
	return func(w *strings.Builder, segment []Point) {
		for i, p := range segment {
			if i == 0 {
				w.WriteString("M")
				writePoint(w, p)

				continue
			}

			prev := segment[i-1]
			if t == 0 {
				writeLineTo(w, Point{X: prev.X, Y: p.Y})
			} else {
				x := prev.X + (p.X-prev.X)*t
				writeLineTo(w, Point{X: x, Y: prev.Y})
				writeLineTo(w, Point{X: x, Y: p.Y})
			}

			writeLineTo(w, p)
		}

		if len(segment) == 1 {
			w.WriteString("Z")
		}
	}
}

func writeLineTo(w *strings.Builder, p Point) {
	w.WriteString("L")
	writePoint(w, p)
}

func writePoint(w *strings.Builder, p Point) {
	w.WriteString(coord(p.X))
	w.WriteString(",")
	w.WriteString(coord(p.Y))
}

func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// Segments splits the points of a line into maximal runs of consecutive defined points.
//
// The position of point i is given by at.
func Segments(indices []int, defined []bool, at func(int) Point) [][]Point {
	var (
		segments [][]Point
		current  []Point
	)

	for _, i := range indices {
		if !defined[i] {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}

			continue
		}

		p := at(i)
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}

			continue
		}

		current = append(current, p)
	}

	if len(current) > 0 {
		segments = append(segments, current)
	}

	return segments
}
