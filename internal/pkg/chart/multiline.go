package chart

import (
	"math"
	"slices"
	"time"
)

const (
	multiTickSpacing  = 80
	multiValueSpacing = 40
)

// MultiLineChart draws one line per series key over a time axis.
//
// The Z accessor yields the series key of each record. The value axis has one tick every 40px
// with grid lines across the plot. Hovering designates the point nearest
// to the pointer in both directions and shows a dot in the color of its series.
func MultiLineChart[R any](data []R, cfg Config[R]) *Instance[R] {
	cfg = cfg.withDefaults()
	s := Project(data, cfg.Accessors, Projection{
		Channels: []Channel{ChannelZ},
		Required: []Channel{ChannelY},
	})
	if s.Z == nil {
		s.Z = make([]string, len(data))
	}

	xDomain := timeDomainOr(cfg.XDomain, extendedDomain(s.X, 0, 0))
	xScale := NewTime(xDomain, cfg.xRange())
	yScale := NewLinear(domainOr(cfg.YDomain, ZeroDomain(s.Y)), cfg.yRange())

	keys := slices.Clone(cfg.Keys)
	for _, z := range s.Z {
		if !slices.Contains(keys, z) {
			keys = append(keys, z)
		}
	}
	colors := NewOrdinal(cfg.Theme.Colors.Series, keys...)

	pos := positions(s.X, xScale.Scale)

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
				Ticks:  timeTickMarks(xScale, int(cfg.Width/multiTickSpacing), cfg.timeFormat(cfg.XTickFormat)),
			},
			{
				Orient:        OrientLeft,
				Offset:        cfg.Left,
				Range:         yScale.Range(),
				Ticks:         linearTicks(yScale, int(cfg.Height/multiValueSpacing), cfg.YFormat),
				TickSizeOuter: tickSize,
				Grid:          cfg.plotWidth(),
				Label:         Text{X: -cfg.Left, Y: cfg.Top - 5, Value: cfg.YLabel, Anchor: "start"},
			},
		},
	}

	at := func(i int) Point {
		return Point{X: pos[i], Y: yScale.Scale(s.Y[i])}
	}

	for _, key := range keys {
		var indices []int
		for _, i := range s.Index {
			if s.Z[i] == key {
				indices = append(indices, i)
			}
		}

		if len(indices) == 0 {
			continue
		}

		scene.Lines = append(scene.Lines, LineLayer{
			Key:      key,
			Color:    colors.Color(key),
			Stroke:   cfg.Stroke,
			Curve:    cfg.Curve,
			Segments: Segments(indices, s.Defined, at),
		})
	}

	layout := &multiHover{
		x:       xScale,
		y:       yScale,
		pos:     pos,
		last:    xScale.Scale(xDomain[1]),
		ys:      s.Y,
		zs:      s.Z,
		defined: s.Defined,
		colors:  colors,
		format:  cfg.numberFormat(cfg.YFormat),
		prefix:  cfg.YHoverText,
	}

	indicators := []Indicator{
		{Name: "y", Kind: IndicatorDot, Anchor: "middle", TextY: -8},
	}

	return &Instance[R]{
		Scene:   scene,
		Tracker: newTracker(data, layout, indicators),
		Series:  s,
	}
}

type multiHover struct {
	x       Time
	y       Linear
	pos     []float64
	last    float64
	ys      []float64
	zs      []string
	defined []bool
	colors  *Ordinal
	format  NumberFormat
	prefix  string
}

func (h *multiHover) size() int {
	return len(h.pos)
}

// distance is euclidean, or horizontal only when y is NaN.
func (h *multiHover) distance(i int, x, y float64) float64 {
	if !h.defined[i] {
		return math.NaN()
	}

	if math.IsNaN(y) {
		return math.Abs(h.pos[i] - x)
	}

	return math.Hypot(h.pos[i]-x, h.y.Scale(h.ys[i])-y)
}

func (h *multiHover) locate(t time.Time) float64 {
	return h.x.Scale(t)
}

func (h *multiHover) place(i int, indicators []Indicator) {
	dot := &indicators[0]
	dot.X, dot.Y = h.pos[i], h.y.Scale(h.ys[i])
	dot.Color = h.colors.Color(h.zs[i])

	prefix := h.prefix
	if prefix == "" && h.zs[i] != "" {
		prefix = h.zs[i] + ": "
	}
	dot.Text = prefix + h.format.Format(h.ys[i])

	dot.Anchor = "end"
	if leftSide(h.pos[i], h.last) {
		dot.Anchor = "start"
	}
}
