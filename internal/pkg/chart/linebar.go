package chart

import (
	"math"
	"time"
)

const (
	lineBarDomainExtension = 50 * 24 * time.Hour
	lineBarBaseOffset      = 0.005
	lineBarTextOffset      = 3
)

// LineBarChart draws one line on a left axis and bars on a right axis, over a time axis
// extended by 50 days on each side.
//
// Bars start half a step before their date and rise from just below the smallest bar value.
// Hovering shows a dot on the line and a dot on the top of the bar.
func LineBarChart[R any](data []R, cfg Config[R]) *Instance[R] {
	cfg = cfg.withDefaults()
	s := Project(data, cfg.Accessors, Projection{
		Channels: []Channel{ChannelBar},
		Required: []Channel{ChannelY},
	})

	xScale := NewTime(timeDomainOr(cfg.XDomain, extendedDomain(s.X, lineBarDomainExtension, lineBarDomainExtension)), cfg.xRange())
	yScale := NewLinear(domainOr(cfg.YDomain, ZeroDomain(s.Y)), cfg.yRange())
	barDomain := domainOr(cfg.BarDomain, OffsetDomain(s.Bar, lineBarBaseOffset))
	barScale := NewLinear(barDomain, cfg.yRange())

	pos := positions(s.X, xScale.Scale)
	offset := 0.0
	if len(pos) > 1 && isFinite(pos[1]-pos[0]) {
		offset = (pos[1] - pos[0]) / 2
	}

	scene := Scene{
		Width:  cfg.Width,
		Height: cfg.Height,
		Title:  cfg.Title,
		Theme:  cfg.Theme,
		Texts:  cfg.titles(cfg.Top/3, cfg.Top-20),
		Axes: []Axis{
			{
				Orient: OrientBottom,
				Offset: cfg.Height - cfg.Bottom,
				Range:  xScale.Range(),
				Ticks:  timeTickMarks(xScale, max(1, len(s.X)-1), cfg.timeFormat(cfg.XFormat)),
			},
			{
				Orient:        OrientLeft,
				Offset:        cfg.Left,
				Range:         yScale.Range(),
				Ticks:         linearTicks(yScale, valueTickCount, cfg.YFormat),
				TickSizeOuter: tickSize,
				Label:         Text{X: -cfg.Left, Y: cfg.Top - 5, Value: cfg.YLabel, Anchor: "start"},
			},
			{
				Orient:        OrientRight,
				Offset:        cfg.Width - cfg.Right,
				Range:         barScale.Range(),
				Ticks:         linearTicks(barScale, valueTickCount, cfg.BarFormat),
				TickSizeOuter: tickSize,
				Label:         Text{X: 120, Y: cfg.Top, Value: cfg.Y2Label, Anchor: "start", FontSize: "24px"},
			},
		},
	}

	bars := BarLayer{Fill: cfg.Theme.Colors.Bar}
	width := cfg.plotWidth() / float64(len(s.Index)+1)
	base := barScale.Scale(barDomain[0])
	for _, i := range s.Index {
		if !s.Defined[i] || math.IsNaN(s.Bar[i]) {
			continue
		}

		y := barScale.Scale(s.Bar[i])
		bars.Rects = append(bars.Rects, Rect{X: pos[i] - offset, Y: y, W: width, H: base - y})
	}
	scene.Bars = []BarLayer{bars}

	scene.Lines = []LineLayer{
		{
			Key:    "y",
			Color:  cfg.Theme.Colors.Y,
			Stroke: cfg.Stroke,
			Curve:  cfg.Curve,
			Segments: Segments(s.Index, s.Defined, func(i int) Point {
				return Point{X: pos[i], Y: yScale.Scale(s.Y[i])}
			}),
		},
	}

	layout := &lineBarHover{
		x:         xScale,
		y:         yScale,
		bar:       barScale,
		pos:       pos,
		last:      lastPosition(pos),
		ys:        s.Y,
		bars:      s.Bar,
		yFormat:   cfg.numberFormat(cfg.YFormat),
		barFormat: cfg.numberFormat(cfg.BarFormat),
		yText:     cfg.YHoverText,
		barText:   cfg.BarHoverText,
	}

	indicators := []Indicator{
		{Name: "y", Kind: IndicatorDot, Color: cfg.Theme.Colors.Y, Anchor: "middle", TextX: lineBarTextOffset, TextY: 6},
		{Name: "bar", Kind: IndicatorDot, Color: cfg.Theme.Colors.BarHover, Anchor: "middle", TextX: lineBarTextOffset, TextY: -lineBarTextOffset},
	}

	return &Instance[R]{
		Scene:   scene,
		Tracker: newTracker(data, layout, indicators),
		Series:  s,
	}
}

type lineBarHover struct {
	x    Time
	y    Linear
	bar  Linear
	pos  []float64
	last float64

	ys   []float64
	bars []float64

	yFormat   NumberFormat
	barFormat NumberFormat
	yText     string
	barText   string
}

func (h *lineBarHover) size() int {
	return len(h.pos)
}

func (h *lineBarHover) distance(i int, x, _ float64) float64 {
	return math.Abs(h.pos[i] - x)
}

func (h *lineBarHover) locate(t time.Time) float64 {
	return h.x.Scale(t)
}

func (h *lineBarHover) place(i int, indicators []Indicator) {
	anchor := "end"
	if leftSide(h.pos[i], h.last) {
		anchor = "start"
	}

	y1, bar := &indicators[0], &indicators[1]

	y1.X, y1.Y = h.pos[i], h.y.Scale(h.ys[i])
	y1.Text = h.yText + h.yFormat.Format(h.ys[i])

	bar.X, bar.Y = h.pos[i], h.bar.Scale(h.bars[i])
	bar.Text = h.barText + h.barFormat.Format(h.bars[i])

	y1.Anchor, bar.Anchor = anchor, anchor
}
