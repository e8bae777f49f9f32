package chart

import (
	"time"
)

const (
	defaultWidth      = 640
	defaultHeight     = 400
	defaultXFormat    = "%b %-d, %Y"
	defaultXTick      = "%b %Y"
	defaultXTickEvery = 3
)

// Margins are the distances in pixels between the plot area and the edges of the chart.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins yields the margins used when none are configured.
func DefaultMargins() Margins {
	return Margins{Top: 20, Right: 60, Bottom: 30, Left: 60}
}

// Config holds everything a chart variant needs to know beyond its records.
//
// Zero fields take a default. Domains are inferred from the data unless set.
type Config[R any] struct {
	Accessors[R]
	Margins

	Width  float64
	Height float64

	XDomain   []time.Time
	YDomain   []float64
	BarDomain []float64

	// XFormat formats dates shown on hover. It also labels the x ticks of a line+bar chart.
	XFormat string
	// XTickFormat labels the x ticks of bar and dual-axis charts.
	XTickFormat string
	// XTickEvery keeps one band label out of n on a bar chart.
	XTickEvery int
	YFormat    string
	Y2Format   string
	BarFormat  string

	Title    string
	Subtitle string
	YLabel   string
	Y2Label  string

	YHoverText   string
	Y2HoverText  string
	BarHoverText string

	// Keys orders the series of a multi-line chart. Keys found in the data are appended.
	Keys []string

	Curve  Curve
	Stroke Stroke
	Theme  Theme
}

func (c Config[R]) withDefaults() Config[R] {
	c.Accessors = c.Accessors.withDefaults()

	if c.Margins == (Margins{}) {
		c.Margins = DefaultMargins()
	}
	if c.Width <= 0 {
		c.Width = defaultWidth
	}
	if c.Height <= 0 {
		c.Height = defaultHeight
	}
	if c.XFormat == "" {
		c.XFormat = defaultXFormat
	}
	if c.XTickFormat == "" {
		c.XTickFormat = defaultXTick
	}
	if c.XTickEvery <= 0 {
		c.XTickEvery = defaultXTickEvery
	}
	if c.Y2Format == "" {
		c.Y2Format = c.YFormat
	}
	if c.Curve == nil {
		c.Curve = CurveLinear
	}
	if c.Stroke.Width <= 0 {
		c.Stroke.Width = 1.5
	}
	if c.Stroke.Linecap == "" {
		c.Stroke.Linecap = "round"
	}
	if c.Stroke.Linejoin == "" {
		c.Stroke.Linejoin = "round"
	}
	if c.Stroke.Opacity <= 0 {
		c.Stroke.Opacity = 1
	}
	c.Theme = c.Theme.withDefaults()

	return c
}

func (c Config[R]) xRange() [2]float64 {
	return [2]float64{c.Left, c.Width - c.Right}
}

func (c Config[R]) yRange() [2]float64 {
	return [2]float64{c.Height - c.Bottom, c.Top}
}

func (c Config[R]) plotWidth() float64 {
	return c.Width - c.Left - c.Right
}

func (c Config[R]) timeFormat(pattern string) TimeFormat {
	f, err := ParseTimeFormat(pattern)
	if err != nil {
		return MustTimeFormat(defaultXFormat)
	}

	return f
}

func (c Config[R]) numberFormat(spec string) NumberFormat {
	f, err := ParseNumberFormat(spec)
	if err != nil {
		return MustNumberFormat("")
	}

	return f
}

func (c Config[R]) titles(titleY, subtitleY float64) []Text {
	return []Text{
		{X: c.Width / 2, Y: titleY, Value: c.Title, Anchor: "middle", FontSize: "24px"},
		{X: c.Width / 2, Y: subtitleY, Value: c.Subtitle, Anchor: "middle", FontSize: "8px"},
	}
}

func domainOr(explicit []float64, inferred [2]float64) [2]float64 {
	if len(explicit) == 2 {
		return [2]float64{explicit[0], explicit[1]}
	}

	return inferred
}

func timeDomainOr(explicit []time.Time, inferred [2]time.Time) [2]time.Time {
	if len(explicit) == 2 {
		return [2]time.Time{explicit[0], explicit[1]}
	}

	return inferred
}

// Validate checks the format specifiers of the configuration.
func (c Config[R]) Validate() error {
	for _, spec := range []string{c.YFormat, c.Y2Format, c.BarFormat} {
		if _, err := ParseNumberFormat(spec); err != nil {
			return err
		}
	}

	for _, pattern := range []string{c.XFormat, c.XTickFormat} {
		if _, err := ParseTimeFormat(pattern); err != nil {
			return err
		}
	}

	return nil
}
