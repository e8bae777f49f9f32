package chart

import (
	"math"
	"time"
)

const (
	dualDomainExtension = 7 * 24 * time.Hour
	dualTickSpacing     = 120
	dotTextOffset       = 5
)

// DualAxisChart draws two lines on a left value axis and bars on a right axis, over a time
// axis extended by one week past the last record.
//
// Y2 is drawn with the left scale, the right scale serves the bars.
// Hovering shows a dot on each line, a label on the bar baseline and a vertical guide
// with the date.
func DualAxisChart[R any](data []R, cfg Config[R]) *Instance[R] {
	cfg = cfg.withDefaults()
	s := Project(data, cfg.Accessors, Projection{
		Channels: []Channel{ChannelY2, ChannelBar},
		Required: []Channel{ChannelY, ChannelY2},
	})

	xScale := NewTime(timeDomainOr(cfg.XDomain, extendedDomain(s.X, 0, dualDomainExtension)), cfg.xRange())
	yScale := NewLinear(domainOr(cfg.YDomain, ZeroDomain(s.Y)), cfg.yRange())
	barScale := NewLinear(domainOr(cfg.BarDomain, ZeroDomain(s.Bar)), cfg.yRange())

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
		Texts:  cfg.titles(cfg.Top/3, cfg.Top+10),
		Axes: []Axis{
			{
				Orient: OrientBottom,
				Offset: cfg.Height - cfg.Bottom,
				Range:  xScale.Range(),
				Ticks:  timeTickMarks(xScale, int(cfg.Width/dualTickSpacing), cfg.timeFormat(cfg.XTickFormat)),
			},
			{
				Orient:        OrientLeft,
				Offset:        cfg.Left,
				Range:         yScale.Range(),
				Ticks:         linearTicks(yScale, valueTickCount, cfg.YFormat),
				TickSizeOuter: tickSize,
				Label:         Text{X: -7, Y: cfg.Top + 5, Value: cfg.YLabel, Anchor: "end"},
			},
			{
				Orient:        OrientRight,
				Offset:        cfg.Width - cfg.Right,
				Range:         barScale.Range(),
				Ticks:         linearTicks(barScale, valueTickCount, cfg.BarFormat),
				TickSizeOuter: tickSize,
				Label:         Text{X: 9, Y: cfg.Top + 5, Value: cfg.Y2Label, Anchor: "start"},
			},
		},
	}

	bars := BarLayer{Fill: cfg.Theme.Colors.Bar}
	if n := len(s.Index); n > 0 {
		width := cfg.plotWidth() / float64(n)
		base := barScale.Scale(0)
		for _, i := range s.Index {
			if !s.Defined[i] || math.IsNaN(s.Bar[i]) {
				continue
			}

			y := barScale.Scale(s.Bar[i])
			bars.Rects = append(bars.Rects, Rect{X: pos[i], Y: y, W: width, H: base - y})
		}
	}
	scene.Bars = []BarLayer{bars}

	lineAt := func(values []float64) func(int) Point {
		return func(i int) Point {
			return Point{X: pos[i] + offset, Y: yScale.Scale(values[i])}
		}
	}
	scene.Lines = []LineLayer{
		{Key: "y", Color: cfg.Theme.Colors.Y, Stroke: cfg.Stroke, Curve: cfg.Curve, Segments: Segments(s.Index, s.Defined, lineAt(s.Y))},
		{Key: "y2", Color: cfg.Theme.Colors.Y2, Stroke: cfg.Stroke, Curve: cfg.Curve, Segments: Segments(s.Index, s.Defined, lineAt(s.Y2))},
	}

	layout := &dualHover{
		x:         xScale,
		y:         yScale,
		bar:       barScale,
		pos:       pos,
		last:      lastPosition(pos),
		offset:    offset,
		xs:        s.X,
		ys:        s.Y,
		y2s:       s.Y2,
		bars:      s.Bar,
		xFormat:   cfg.timeFormat(cfg.XFormat),
		yFormat:   cfg.numberFormat(cfg.YFormat),
		y2Format:  cfg.numberFormat(cfg.Y2Format),
		barFormat: cfg.numberFormat(cfg.BarFormat),
		yText:     cfg.YHoverText,
		y2Text:    cfg.Y2HoverText,
		barText:   cfg.BarHoverText,
	}

	dot := Indicator{Kind: IndicatorDot, Anchor: "end", TextX: -dotTextOffset, TextY: -dotTextOffset}
	y1, y2, bar := dot, dot, dot
	y1.Name, y1.Color = "y", cfg.Theme.Colors.Y
	y2.Name, y2.Color = "y2", cfg.Theme.Colors.Y2
	bar.Name, bar.Color = "bar", cfg.Theme.Colors.BarHover

	indicators := []Indicator{
		y1, y2, bar,
		{
			Name:  "guide",
			Kind:  IndicatorGuide,
			Color: cfg.Theme.Guide,
			Y1:    cfg.Top,
			Y2:    cfg.Height - cfg.Bottom,
			TextY: 3 * cfg.Top / 4,
		},
	}

	return &Instance[R]{
		Scene:   scene,
		Tracker: newTracker(data, layout, indicators),
		Series:  s,
	}
}

type dualHover struct {
	x      Time
	y      Linear
	bar    Linear
	pos    []float64
	last   float64
	offset float64

	xs   []time.Time
	ys   []float64
	y2s  []float64
	bars []float64

	xFormat   TimeFormat
	yFormat   NumberFormat
	y2Format  NumberFormat
	barFormat NumberFormat
	yText     string
	y2Text    string
	barText   string
}

func (h *dualHover) size() int {
	return len(h.pos)
}

func (h *dualHover) distance(i int, x, _ float64) float64 {
	return math.Abs(h.pos[i] - x)
}

func (h *dualHover) locate(t time.Time) float64 {
	return h.x.Scale(t)
}

func (h *dualHover) place(i int, indicators []Indicator) {
	x := h.pos[i] + h.offset

	anchor, dx := "end", -float64(dotTextOffset)
	if leftSide(h.pos[i], h.last) {
		anchor, dx = "start", dotTextOffset
	}

	y1, y2, bar, guide := &indicators[0], &indicators[1], &indicators[2], &indicators[3]

	y1.X, y1.Y = x, h.y.Scale(h.ys[i])
	y1.Text = h.yText + h.yFormat.Format(h.ys[i])

	y2.X, y2.Y = x, h.y.Scale(h.y2s[i])
	y2.Text = h.y2Text + h.y2Format.Format(h.y2s[i])

	bar.X, bar.Y = x, h.bar.Scale(0)-dotTextOffset
	bar.Text = h.barText + h.barFormat.Format(h.bars[i])

	for _, ind := range []*Indicator{y1, y2, bar} {
		ind.Anchor, ind.TextX = anchor, dx
	}

	guide.X = x
	guide.Text = h.xFormat.Format(h.xs[i])
}
