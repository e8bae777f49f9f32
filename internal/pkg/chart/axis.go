package chart

import (
	"fmt"

	svg "github.com/ajstarks/svgo"
)

// Orient is the side of the plot an axis is drawn on.
type Orient int

const (
	OrientBottom Orient = iota
	OrientLeft
	OrientRight
)

const (
	tickSize       = 6
	tickPadding    = 3
	valueTickCount = 5
)

// Tick is a labelled position along an axis.
type Tick struct {
	Pos   float64
	Label string
}

// Axis is a domain line with ticks and an optional label, drawn at Offset pixels from the
// origin across its direction.
type Axis struct {
	Orient        Orient
	Offset        float64
	Range         [2]float64
	Ticks         []Tick
	TickSizeOuter float64
	// Grid is the length of the faint grid lines drawn across the plot from each tick.
	Grid  float64
	Label Text
}

func (a Axis) draw(canvas *svg.SVG, theme Theme) {
	anchor := "middle"
	transform := fmt.Sprintf("translate(0,%s)", coord(a.Offset))
	switch a.Orient {
	case OrientLeft:
		anchor = "end"
		transform = fmt.Sprintf("translate(%s,0)", coord(a.Offset))
	case OrientRight:
		anchor = "start"
		transform = fmt.Sprintf("translate(%s,0)", coord(a.Offset))
	}

	canvas.Group(
		fmt.Sprintf(`transform="%s"`, transform),
		`fill="none"`,
		fmt.Sprintf(`text-anchor="%s"`, anchor),
	)

	canvas.Path(a.domainPath(), fmt.Sprintf(`stroke="%s"`, theme.Foreground))

	for _, tick := range a.Ticks {
		a.drawTick(canvas, tick, theme.Foreground)
	}

	if a.Label.Value != "" {
		label := a.Label
		label.Fill = theme.Foreground
		label.draw(canvas, theme)
	}

	canvas.Gend()
}

func (a Axis) domainPath() string {
	r0, r1 := coord(a.Range[0]), coord(a.Range[1])
	switch a.Orient {
	case OrientLeft:
		outer := coord(-a.TickSizeOuter)

		return fmt.Sprintf("M%s,%sH0V%sH%s", outer, r0, r1, outer)
	case OrientRight:
		outer := coord(a.TickSizeOuter)

		return fmt.Sprintf("M%s,%sH0V%sH%s", outer, r0, r1, outer)
	default:
		outer := coord(a.TickSizeOuter)

		return fmt.Sprintf("M%s,%sV0H%sV%s", r0, outer, r1, outer)
	}
}

func (a Axis) drawTick(canvas *svg.SVG, tick Tick, color string) {
	const spacing = tickSize + tickPadding
	stroke, fill := fmt.Sprintf(`stroke="%s"`, color), fmt.Sprintf(`fill="%s"`, color)

	switch a.Orient {
	case OrientLeft, OrientRight:
		k := 1
		if a.Orient == OrientLeft {
			k = -1
		}

		canvas.Gtransform(fmt.Sprintf("translate(0,%s)", coord(tick.Pos)))
		canvas.Line(0, 0, k*tickSize, 0, stroke)
		if a.Grid != 0 {
			canvas.Line(0, 0, -k*px(a.Grid), 0, stroke, `stroke-opacity="0.1"`)
		}
		canvas.Text(k*spacing, 0, tick.Label, fill, `dy="0.32em"`)
	default:
		canvas.Gtransform(fmt.Sprintf("translate(%s,0)", coord(tick.Pos)))
		canvas.Line(0, 0, 0, tickSize, stroke)
		if a.Grid != 0 {
			canvas.Line(0, 0, 0, -px(a.Grid), stroke, `stroke-opacity="0.1"`)
		}
		canvas.Text(0, spacing, tick.Label, fill, `dy="0.71em"`)
	}

	canvas.Gend()
}

// linearTicks yields about count ticks of a linear scale, labelled with spec.
func linearTicks(s Linear, count int, spec string) []Tick {
	f := tickFormat(spec, s.Domain(), count)
	values := s.Ticks(count)
	out := make([]Tick, 0, len(values))
	for _, v := range values {
		out = append(out, Tick{Pos: s.Scale(v), Label: f.Format(v)})
	}

	return out
}

// timeTickMarks yields about count ticks of a time scale, labelled with f.
func timeTickMarks(s Time, count int, f TimeFormat) []Tick {
	values := s.Ticks(count)
	out := make([]Tick, 0, len(values))
	for _, v := range values {
		out = append(out, Tick{Pos: s.Scale(v), Label: f.Format(v)})
	}

	return out
}

// bandTicks yields one tick every n bands, centered on the band.
func bandTicks(b Band, every int, f TimeFormat) []Tick {
	every = max(1, every)
	out := make([]Tick, 0, len(b.Domain())/every+1)
	for i, v := range b.Domain() {
		if i%every != 0 {
			continue
		}

		out = append(out, Tick{Pos: b.Scale(v) + b.Bandwidth()/2, Label: f.Format(v)})
	}

	return out
}
