package chart

import (
	"math"
	"time"
)

const (
	barPaddingInner = 0.05
	barDomainPad    = 0.05
	barOpacity      = 0.8
	barColor        = "dodgerblue"
)

// BarChart draws one bar per defined record over a band scale of dates.
//
// Bars rise from slightly below the smallest value. Hovering designates the nearest band.
func BarChart[R any](data []R, cfg Config[R]) *Instance[R] {
	fill := cfg.Theme.Colors.Bar
	if fill == "" {
		fill = barColor
	}

	cfg = cfg.withDefaults()
	s := Project(data, cfg.Accessors, Projection{Required: []Channel{ChannelY}})

	padded := PaddedDomain(s.Y, barDomainPad)
	yScale := NewLinear(domainOr(cfg.YDomain, padded), cfg.yRange())
	xScale := NewBand(s.X, cfg.xRange(), barPaddingInner)
	baseline := yScale.Scale(padded[0])

	scene := Scene{
		Width:  cfg.Width,
		Height: cfg.Height,
		Title:  cfg.Title,
		Theme:  cfg.Theme,
		Texts:  cfg.titles(cfg.Top, cfg.Top+10),
		Axes: []Axis{
			{
				Orient: OrientBottom,
				Offset: cfg.Height - cfg.Bottom,
				Range:  xScale.Range(),
				Ticks:  bandTicks(xScale, cfg.XTickEvery, cfg.timeFormat(cfg.XTickFormat)),
			},
			{
				Orient:        OrientLeft,
				Offset:        cfg.Left,
				Range:         yScale.Range(),
				Ticks:         linearTicks(yScale, valueTickCount, cfg.YFormat),
				TickSizeOuter: tickSize,
				Label:         Text{X: -6, Y: cfg.Top, Value: cfg.YLabel, Anchor: "end"},
			},
		},
	}

	bars := BarLayer{Fill: fill, Opacity: barOpacity}
	for _, i := range s.Index {
		if !s.Defined[i] {
			continue
		}

		y := yScale.Scale(s.Y[i])
		bars.Rects = append(bars.Rects, Rect{
			X: xScale.Scale(s.X[i]),
			Y: y,
			W: xScale.Bandwidth(),
			H: baseline - y,
		})
	}
	scene.Bars = []BarLayer{bars}

	layout := &barHover{
		x:      xScale,
		y:      yScale,
		values: s.Y,
		format: cfg.numberFormat(cfg.YFormat),
		prefix: cfg.YHoverText,
	}
	layout.pos = positions(s.X, layout.locate)

	indicators := []Indicator{
		{Name: "y", Kind: IndicatorDot, Color: cfg.Theme.Colors.Y, Anchor: "middle", TextY: -8},
	}

	return &Instance[R]{
		Scene:   scene,
		Tracker: newTracker(data, layout, indicators),
		Series:  s,
	}
}

type barHover struct {
	x      Band
	y      Linear
	pos    []float64
	values []float64
	format NumberFormat
	prefix string
}

func (h *barHover) size() int {
	return len(h.pos)
}

func (h *barHover) distance(i int, x, _ float64) float64 {
	return math.Abs(h.pos[i] - x)
}

func (h *barHover) locate(t time.Time) float64 {
	return h.x.Scale(t) + h.x.Bandwidth()/2
}

func (h *barHover) place(i int, indicators []Indicator) {
	dot := &indicators[0]
	dot.X = h.pos[i]
	dot.Y = h.y.Scale(h.values[i])
	dot.Text = h.prefix + h.format.Format(h.values[i])
}
