package image

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/model"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNotEnoughData is returned when a chart has fewer than two distinct dates to rasterize.
var ErrNotEnoughData = errors.New("not enough data to rasterize")

const (
	defaultRasterHeight = 300
	strokeWidth         = 1.5
	titleFontSize       = 14
	axisFontSize        = 9
	barAlpha            = 160
)

// css colors used by chart configurations.
var namedColors = map[string]string{
	"black":       "000000",
	"white":       "ffffff",
	"silver":      "c0c0c0",
	"gray":        "808080",
	"grey":        "808080",
	"red":         "ff0000",
	"firebrick":   "b22222",
	"orange":      "ffa500",
	"gold":        "ffd700",
	"green":       "008000",
	"forestgreen": "228b22",
	"blue":        "0000ff",
	"royalblue":   "4169e1",
	"dodgerblue":  "1e90ff",
	"steelblue":   "4682b4",
	"purple":      "800080",
}

// Rasterizer draws a chart straight to PNG, without a browser.
//
// Lines are broken on undefined records like their SVG counterpart. Bars are drawn as a filled
// series on the secondary axis.
type Rasterizer struct {
	options

	l *slog.Logger
}

// NewRasterizer builds a [Rasterizer].
func NewRasterizer(opts ...Option) *Rasterizer {
	return &Rasterizer{
		options: optionsWithDefaults(opts),
		l:       slog.Default().With(slog.String("module", "image")),
	}
}

// Rasterize writes the projected series of a chart as a PNG image.
func (r *Rasterizer) Rasterize(w io.Writer, c config.Chart, s chart.Series[model.Record]) error {
	graph, err := r.graph(c, s)
	if err != nil {
		return fmt.Errorf("chart %q: %w", c.ID, err)
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("rasterizing chart %q: %w", c.ID, err)
	}

	r.l.Info("chart rasterized", slog.String("chart_id", c.ID), slog.Int("series", len(graph.Series)))

	return nil
}

func (r *Rasterizer) graph(c config.Chart, s chart.Series[model.Record]) (gochart.Chart, error) {
	width := int(c.Width)
	if width <= 0 {
		width = int(r.Width)
	}
	height := int(c.Height)
	if height <= 0 {
		height = defaultRasterHeight
	}

	xFormat, err := chart.ParseTimeFormat(c.Formats.XTick)
	if err != nil || c.Formats.XTick == "" {
		xFormat = chart.MustTimeFormat("%b %Y")
	}

	graph := gochart.Chart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		TitleStyle: gochart.Style{
			FontSize:  titleFontSize,
			FontColor: drawing.ColorBlack,
		},
		Background: gochart.Style{
			Padding: gochart.Box{
				Top:    int(math.Max(c.Margins.Top, 40)), //nolint:mnd // room for the title
				Left:   int(c.Margins.Left),
				Right:  int(c.Margins.Right),
				Bottom: int(c.Margins.Bottom),
			},
		},
		XAxis: gochart.XAxis{
			Style: gochart.Style{FontSize: axisFontSize},
			ValueFormatter: func(v any) string {
				switch t := v.(type) {
				case time.Time:
					return xFormat.Format(t)
				case float64:
					return xFormat.Format(gochart.TimeFromFloat64(t))
				default:
					return ""
				}
			},
		},
		YAxis: gochart.YAxis{
			Name:  c.Labels.Y,
			Style: gochart.Style{FontSize: axisFontSize},
		},
	}

	switch c.Type {
	case config.ChartTypeMultiLine:
		graph.Series = multiSeries(c, s)
	case config.ChartTypeBar:
		graph.Series = lineSeries(c.Fields.Y, s.X, s.Y, s.Defined, gochart.Style{
			StrokeColor: parseColor(c.Colors.Bar, "1e90ff"),
			FillColor:   parseColor(c.Colors.Bar, "1e90ff").WithAlpha(barAlpha),
			StrokeWidth: strokeWidth,
		}, gochart.YAxisPrimary)
	default:
		graph.Series = lineSeries(c.Fields.Y, s.X, s.Y, s.Defined, lineStyle(c.Colors.Y, "4169e1"), gochart.YAxisPrimary)
		if c.Type == config.ChartTypeDual && s.Y2 != nil {
			graph.Series = append(graph.Series,
				lineSeries(c.Fields.Y2, s.X, s.Y2, s.Defined, lineStyle(c.Colors.Y2, "000000"), gochart.YAxisPrimary)...,
			)
		}
		if s.Bar != nil {
			graph.YAxisSecondary = gochart.YAxis{
				Name:  c.Labels.Y2,
				Style: gochart.Style{FontSize: axisFontSize},
			}
			graph.Series = append(graph.Series,
				lineSeries(c.Fields.Bar, s.X, s.Bar, nil, gochart.Style{
					StrokeColor: parseColor(c.Colors.Bar, "c0c0c0"),
					FillColor:   parseColor(c.Colors.Bar, "c0c0c0").WithAlpha(barAlpha),
					StrokeWidth: 1,
				}, gochart.YAxisSecondary)...,
			)
		}
	}

	if err := checkRanges(graph.Series); err != nil {
		return graph, err
	}

	if yRange := flatRange(graph.Series, gochart.YAxisPrimary); yRange != nil {
		graph.YAxis.Range = yRange
	}
	if yRange := flatRange(graph.Series, gochart.YAxisSecondary); yRange != nil {
		graph.YAxisSecondary.Range = yRange
	}

	return graph, nil
}

func multiSeries(c config.Chart, s chart.Series[model.Record]) []gochart.Series {
	keys := slices.Clone(c.Keys)
	for i := range s.Len() {
		if s.Z != nil && !slices.Contains(keys, s.Z[i]) {
			keys = append(keys, s.Z[i])
		}
	}
	if s.Z == nil {
		keys = []string{""}
	}

	palette := chart.Palette(c.Colors.Series)
	if len(palette) == 0 {
		palette = chart.Category10
	}
	colors := chart.NewOrdinal(palette, keys...)

	var series []gochart.Series
	for _, key := range keys {
		defined := slices.Clone(s.Defined)
		for i := range defined {
			if s.Z != nil && s.Z[i] != key {
				defined[i] = false
			}
		}

		name := key
		if name == "" {
			name = c.Fields.Y
		}
		series = append(series, lineSeries(name, s.X, s.Y, defined, lineStyle(colors.Color(key), "4169e1"), gochart.YAxisPrimary)...)
	}

	return series
}

// lineSeries splits values into one time series per run of consecutive defined points.
func lineSeries(name string, xs []time.Time, ys []float64, defined []bool, style gochart.Style, axis gochart.YAxisType) []gochart.Series {
	var (
		series []gochart.Series
		run    gochart.TimeSeries
	)

	flush := func() {
		if len(run.XValues) > 0 {
			series = append(series, run)
		}
		run = gochart.TimeSeries{Name: name, Style: style, YAxis: axis}
	}
	flush()

	for i := range ys {
		ok := (defined == nil || defined[i]) && !xs[i].IsZero() && !math.IsNaN(ys[i])
		if !ok {
			flush()

			continue
		}

		run.XValues = append(run.XValues, xs[i])
		run.YValues = append(run.YValues, ys[i])
	}
	flush()

	return series
}

func lineStyle(color, fallback string) gochart.Style {
	return gochart.Style{
		StrokeColor: parseColor(color, fallback),
		StrokeWidth: strokeWidth,
	}
}

// checkRanges requires at least two distinct dates over all series.
func checkRanges(series []gochart.Series) error {
	var first time.Time
	for _, s := range series {
		ts, ok := s.(gochart.TimeSeries)
		if !ok {
			continue
		}

		for _, x := range ts.XValues {
			if first.IsZero() {
				first = x

				continue
			}
			if !x.Equal(first) {
				return nil
			}
		}
	}

	return ErrNotEnoughData
}

// flatRange yields an explicit range around a constant value, nil otherwise.
func flatRange(series []gochart.Series, axis gochart.YAxisType) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		ts, ok := s.(gochart.TimeSeries)
		if !ok || ts.YAxis != axis {
			continue
		}

		for _, y := range ts.YValues {
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
		}
	}

	if math.IsInf(lo, 0) || lo != hi {
		return nil
	}

	pad := math.Max(math.Abs(lo)*0.1, 1) / 2 //nolint:mnd

	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// parseColor accepts css color names used in configurations and hex colors.
func parseColor(color, fallback string) drawing.Color {
	color = strings.ToLower(strings.TrimSpace(color))
	if hex, ok := namedColors[color]; ok {
		return drawing.ColorFromHex(hex)
	}

	if hex, ok := strings.CutPrefix(color, "#"); ok && (len(hex) == 6 || len(hex) == 3) { //nolint:mnd
		return drawing.ColorFromHex(hex)
	}

	return drawing.ColorFromHex(fallback)
}
