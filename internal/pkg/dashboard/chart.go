package dashboard

import (
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/loader"
	"github.com/fredbi/housingviz/internal/pkg/model"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"
)

const (
	defaultFontSize = 12
	xAxisLabelAngle = 30
	missingValue    = "-" // echarts breaks lines on this value
	defaultLabel    = "%b %Y"
)

// View is one chart of the dashboard.
//
// A [View] knows how to render as a standalone SVG document with [View.RenderSVG], and how to
// [View.Build] an interactive go-echarts chart for the HTML page.
type View struct {
	Chart    config.Chart
	Instance *chart.Instance[model.Record]
	Err      error

	theme string
}

// Failed tells if the chart has no instance because its data is unavailable.
func (v *View) Failed() bool {
	return v.Instance == nil
}

// RenderSVG writes the chart as an SVG document, or a placeholder when its data is unavailable.
func (v *View) RenderSVG(w io.Writer) error {
	if v.Failed() {
		return chart.Placeholder(w, v.Chart.Width, v.Chart.Height, loader.FailedMessage)
	}

	return v.Instance.Render(w)
}

// Build creates the go-echarts chart for this view.
func (v *View) Build() components.Charter {
	if v.Failed() {
		line := charts.NewLine()
		line.SetGlobalOptions(v.globalOptions(loader.FailedMessage)...)

		return line
	}

	switch v.Chart.Type {
	case config.ChartTypeMultiLine:
		return v.buildMultiLine()
	case config.ChartTypeDual, config.ChartTypeLineBar:
		return v.buildLineBar()
	default:
		return v.buildBar()
	}
}

func (v *View) buildBar() *charts.Bar {
	s := v.Instance.Series
	bar := charts.NewBar()
	bar.SetGlobalOptions(v.globalOptions(v.Chart.Subtitle)...)
	bar.SetXAxis(v.labels(s.X))
	bar.AddSeries(v.seriesName(v.Chart.Hover.Y, v.Chart.Fields.Y), barData(s.Y, s.Defined),
		charts.WithItemStyleOpts(echartsopts.ItemStyle{Color: v.Chart.Colors.Bar}),
	)

	return bar
}

// buildLineBar draws the y (and y2) lines on the left axis, with bars on an extended right axis.
func (v *View) buildLineBar() *charts.Line {
	s := v.Instance.Series
	labels := v.labels(s.X)

	line := charts.NewLine()
	line.SetGlobalOptions(v.globalOptions(v.Chart.Subtitle)...)
	line.SetXAxis(labels)
	line.AddSeries(v.seriesName(v.Chart.Hover.Y, v.Chart.Fields.Y), lineData(s.Y, s.Defined),
		lineStyle(v.Chart.Colors.Y)...,
	)

	if v.Chart.Type == config.ChartTypeDual && s.Y2 != nil {
		line.AddSeries(v.seriesName(v.Chart.Hover.Y2, v.Chart.Fields.Y2), lineData(s.Y2, s.Defined),
			lineStyle(v.Chart.Colors.Y2)...,
		)
	}

	line.ExtendYAxis(echartsopts.YAxis{
		Name:     v.Chart.Labels.Y2,
		Type:     "value",
		Position: "right",
		Scale:    echartsopts.Bool(true),
	})

	if s.Bar != nil {
		bar := charts.NewBar()
		bar.SetXAxis(labels)
		bar.AddSeries(v.seriesName(v.Chart.Hover.Bar, v.Chart.Fields.Bar), barData(s.Bar, nil),
			charts.WithBarChartOpts(echartsopts.BarChart{YAxisIndex: 1}),
			charts.WithItemStyleOpts(echartsopts.ItemStyle{Color: v.Chart.Colors.Bar}),
		)
		line.Overlap(bar)
	}

	return line
}

// buildMultiLine draws one line per key over the union of the dates of all keys.
func (v *View) buildMultiLine() *charts.Line {
	s := v.Instance.Series

	dates := make([]time.Time, 0, s.Len())
	keys := slices.Clone(v.Chart.Keys)
	values := make(map[string]map[int64]float64)

	for i := range s.Len() {
		if !s.Defined[i] {
			continue
		}

		key := ""
		if s.Z != nil {
			key = s.Z[i]
		}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
		if values[key] == nil {
			values[key] = make(map[int64]float64)
		}

		at := s.X[i].UnixNano()
		values[key][at] = s.Y[i]
		if !slices.ContainsFunc(dates, s.X[i].Equal) {
			dates = append(dates, s.X[i])
		}
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	line := charts.NewLine()
	line.SetGlobalOptions(v.globalOptions(v.Chart.Subtitle)...)
	line.SetXAxis(v.labels(dates))

	palette := chart.NewOrdinal(chart.Palette(v.Chart.Colors.Series), keys...)
	for _, key := range keys {
		byDate, ok := values[key]
		if !ok {
			continue
		}

		data := make([]echartsopts.LineData, 0, len(dates))
		for _, d := range dates {
			y, found := byDate[d.UnixNano()]
			data = append(data, lineValue(y, found))
		}

		var styles []charts.SeriesOpts
		if len(v.Chart.Colors.Series) > 0 {
			styles = lineStyle(palette.Color(key))
		}
		line.AddSeries(key, data, styles...)
	}

	return line
}

func (v *View) globalOptions(subtitle string) []charts.GlobalOpts {
	titleOpts := echartsopts.Title{
		Title: v.Chart.Title,
	}
	if subtitle != "" {
		titleOpts.Subtitle = subtitle
		titleOpts.SubtitleStyle = &echartsopts.TextStyle{
			FontStyle: "italic",
			FontSize:  defaultFontSize,
		}
	}

	toolboxOpts := echartsopts.Toolbox{
		Left: "right",
		Feature: &echartsopts.ToolBoxFeature{
			SaveAsImage: &echartsopts.ToolBoxFeatureSaveAsImage{
				Title: "Save as image",
			},
		},
	}

	return []charts.GlobalOpts{
		charts.WithInitializationOpts(echartsopts.Initialization{Theme: v.theme}),
		charts.WithToolboxOpts(toolboxOpts),
		charts.WithTitleOpts(titleOpts),
		charts.WithLegendOpts(echartsopts.Legend{
			Show: echartsopts.Bool(true),
			X:    "right",
			Y:    "bottom",
		}),
		charts.WithGridOpts(echartsopts.Grid{
			Bottom: "100",
			Top:    "100",
		}),
		charts.WithXAxisOpts(echartsopts.XAxis{
			Type: "category",
			AxisLabel: &echartsopts.AxisLabel{
				Rotate:      xAxisLabelAngle,
				HideOverlap: echartsopts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(echartsopts.YAxis{
			Name:  v.Chart.Labels.Y,
			Type:  "value",
			Scale: echartsopts.Bool(true),
		}),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:    echartsopts.Bool(true),
			Trigger: "axis",
		}),
	}
}

// labels formats dates with the x format of a line+bar chart, the x tick format otherwise.
func (v *View) labels(dates []time.Time) []string {
	pattern := v.Chart.Formats.XTick
	if v.Chart.Type == config.ChartTypeLineBar {
		pattern = v.Chart.Formats.X
	}

	f, err := chart.ParseTimeFormat(pattern)
	if err != nil || pattern == "" {
		f = chart.MustTimeFormat(defaultLabel)
	}

	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = f.Format(d)
	}

	return labels
}

func (v *View) seriesName(hover, field string) string {
	if hover == "" {
		return field
	}

	return strings.TrimRight(hover, ": ")
}

func lineStyle(color string) []charts.SeriesOpts {
	if color == "" {
		return nil
	}

	return []charts.SeriesOpts{
		charts.WithItemStyleOpts(echartsopts.ItemStyle{Color: color}),
		charts.WithLineStyleOpts(echartsopts.LineStyle{Color: color}),
	}
}

func lineData(values []float64, defined []bool) []echartsopts.LineData {
	data := make([]echartsopts.LineData, len(values))
	for i, y := range values {
		data[i] = lineValue(y, defined == nil || defined[i])
	}

	return data
}

func lineValue(y float64, ok bool) echartsopts.LineData {
	if !ok || math.IsNaN(y) {
		return echartsopts.LineData{Value: missingValue}
	}

	return echartsopts.LineData{Value: y}
}

func barData(values []float64, defined []bool) []echartsopts.BarData {
	data := make([]echartsopts.BarData, len(values))
	for i, y := range values {
		if (defined != nil && !defined[i]) || math.IsNaN(y) {
			data[i] = echartsopts.BarData{Value: missingValue}

			continue
		}
		data[i] = echartsopts.BarData{Value: y}
	}

	return data
}
