package chart

import (
	"fmt"
	"math"
	"slices"
	"time"

	svg "github.com/ajstarks/svgo"
)

// State of the hover interaction.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}

	return "idle"
}

// Event notifies the value currently designated by the pointer.
//
// A null event (Index < 0) is emitted when the pointer leaves the chart.
type Event[R any] struct {
	Value R
	Index int
}

// IsNull tells if no record is designated.
func (e Event[R]) IsNull() bool {
	return e.Index < 0
}

// IndicatorKind tells how an indicator is drawn.
type IndicatorKind int

const (
	// IndicatorDot is a dot with a text next to it.
	IndicatorDot IndicatorKind = iota
	// IndicatorGuide is a vertical line across the plot with a text above it.
	IndicatorGuide
)

const dotRadius = 3

// Indicator is a hover mark positioned on the record nearest to the pointer.
type Indicator struct {
	Name    string
	Kind    IndicatorKind
	Color   string
	X, Y    float64
	Text    string
	Anchor  string
	TextX   float64
	TextY   float64
	Y1, Y2  float64
	Visible bool
}

func (ind Indicator) draw(canvas *svg.SVG, theme Theme) {
	attrs := []string{fmt.Sprintf(`class="hover-%s"`, ind.Name)}
	if !ind.Visible {
		attrs = append(attrs, `display="none"`)
	}

	switch ind.Kind {
	case IndicatorGuide:
		attrs = append(attrs, fmt.Sprintf(`transform="translate(%s,0)"`, coord(ind.X)))
		canvas.Group(attrs...)
		canvas.Line(0, px(ind.Y1), 0, px(ind.Y2), fmt.Sprintf(`stroke="%s"`, ind.Color))
		canvas.Text(px(ind.TextX), px(ind.TextY), ind.Text, `text-anchor="middle"`, fmt.Sprintf(`fill="%s"`, theme.Foreground))
	default:
		attrs = append(attrs, fmt.Sprintf(`transform="translate(%s,%s)"`, coord(ind.X), coord(ind.Y)))
		canvas.Group(attrs...)
		canvas.Circle(0, 0, dotRadius, fmt.Sprintf(`fill="%s"`, ind.Color))
		canvas.Text(px(ind.TextX), px(ind.TextY), ind.Text, fmt.Sprintf(`text-anchor="%s"`, ind.Anchor), fmt.Sprintf(`fill="%s"`, theme.Foreground))
	}

	canvas.Gend()
}

// hoverLayout positions the indicators of one chart variant.
type hoverLayout interface {
	size() int
	// distance from the i-th record to the pointer. NaN excludes the record.
	distance(i int, x, y float64) float64
	// locate yields the horizontal pointer position designating t.
	locate(t time.Time) float64
	place(i int, indicators []Indicator)
}

// Tracker maintains the hover state of a chart and notifies listeners of the designated value.
type Tracker[R any] struct {
	state      State
	layout     hoverLayout
	records    []R
	indicators []Indicator
	index      int
	listeners  []func(Event[R])
}

func newTracker[R any](records []R, layout hoverLayout, indicators []Indicator) *Tracker[R] {
	return &Tracker[R]{
		layout:     layout,
		records:    records,
		indicators: indicators,
		index:      -1,
	}
}

// OnInput registers a listener called on every pointer move and leave.
func (t *Tracker[R]) OnInput(fn func(Event[R])) {
	t.listeners = append(t.listeners, fn)
}

// State yields the current hover state.
func (t *Tracker[R]) State() State {
	return t.state
}

// Value yields the designated record, if any.
func (t *Tracker[R]) Value() (R, bool) {
	if t.index < 0 || t.index >= len(t.records) {
		var zero R

		return zero, false
	}

	return t.records[t.index], true
}

// Indicators yields a copy of the current hover indicators.
func (t *Tracker[R]) Indicators() []Indicator {
	return slices.Clone(t.indicators)
}

// PointerEnter shows the indicators.
func (t *Tracker[R]) PointerEnter() {
	t.state = Active
	for i := range t.indicators {
		t.indicators[i].Visible = true
	}
}

// PointerMove designates the record nearest to the pointer at (x, y), in chart pixels.
//
// The indicators are repositioned and listeners are notified. Without any candidate record
// a null event is emitted.
func (t *Tracker[R]) PointerMove(x, y float64) {
	if t.state == Idle {
		t.PointerEnter()
	}

	i := Least(t.layout.size(), func(i int) float64 {
		return t.layout.distance(i, x, y)
	})

	t.index = i
	if i >= 0 {
		t.layout.place(i, t.indicators)
	}

	t.emit()
}

// PointerLeave clears the designated value and notifies listeners with a null event.
//
// Indicators keep their last position and visibility.
func (t *Tracker[R]) PointerLeave() {
	t.state = Idle
	t.index = -1
	t.emit()
}

// HoverAt simulates the pointer entering the chart and moving to the position of date.
func (t *Tracker[R]) HoverAt(date time.Time) {
	t.PointerEnter()
	t.PointerMove(t.layout.locate(date), math.NaN())
}

func (t *Tracker[R]) emit() {
	e := Event[R]{Index: t.index}
	if v, ok := t.Value(); ok {
		e.Value = v
	}

	for _, fn := range t.listeners {
		fn(e)
	}
}

// Least yields the index in [0, n) with the smallest distance, the first one on ties.
//
// NaN distances are skipped. It returns -1 when there is no candidate.
func Least(n int, distance func(int) float64) int {
	best := -1
	bestDistance := math.Inf(1)
	for i := range n {
		d := distance(i)
		if math.IsNaN(d) {
			continue
		}

		if best < 0 || d < bestDistance {
			best, bestDistance = i, d
		}
	}

	return best
}

// Nearest yields the index of the position closest to x.
func Nearest(positions []float64, x float64) int {
	return Least(len(positions), func(i int) float64 {
		return math.Abs(positions[i] - x)
	})
}

// leftSide tells if a position lies in the first quarter of the last record position.
// Texts of indicators in that region are anchored at start to stay inside the chart.
func leftSide(x, last float64) bool {
	return x < last/4
}

// positions yields the pixel position of each x value.
func positions(xs []time.Time, scale func(time.Time) float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = scale(x)
	}

	return out
}

// lastPosition yields the position of the last record, or NaN.
func lastPosition(pos []float64) float64 {
	if len(pos) == 0 {
		return math.NaN()
	}

	return pos[len(pos)-1]
}
