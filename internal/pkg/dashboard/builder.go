package dashboard

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/model"
)

// TilesFile is the name of the SVG file holding the year-over-year tiles.
const TilesFile = "tiles.svg"

// Listener is notified of the hover events of the chart identified by chartID.
type Listener func(chartID string, ev chart.Event[model.Record])

// Builder constructs charts from a scenario.
type Builder struct {
	options

	cfg      *config.Config
	scenario *model.Scenario
	l        *slog.Logger
}

// New creates a new dashboard [Builder], given a [config.Config] and a pre-calculated [model.Scenario].
//
// The builder embeds a [slog.Logger] to croak about warnings and issues.
func New(cfg *config.Config, scenario *model.Scenario, opts ...Option) *Builder {
	return &Builder{
		options:  optionsWithDefaults(opts),
		cfg:      cfg,
		scenario: scenario,
		l:        slog.Default().With(slog.String("module", "dashboard")),
	}
}

// Build a [View] for every chart of the scenario, in configuration order.
//
// Charts with unavailable data yield a [View] without instance, rendered as a placeholder.
func (b *Builder) Build() []*View {
	views := make([]*View, 0, len(b.scenario.Charts))

	for _, data := range b.scenario.Charts {
		view := b.buildView(data)
		views = append(views, view)

		if view.Failed() {
			b.l.Warn("chart data unavailable, rendering placeholder",
				slog.String("chart_id", data.Chart.ID),
				slog.String("error", data.Err.Error()),
			)

			continue
		}

		b.l.Info("added chart",
			slog.String("chart_id", data.Chart.ID),
			slog.String("type", data.Chart.Type.String()),
			slog.Int("records", len(data.Records)),
		)
	}

	b.l.Info("added charts", slog.Int("charts", len(views)))

	return views
}

// BuildPage creates an HTML page with the tiles and all charts.
func (b *Builder) BuildPage(views []*View) *Page {
	title := b.cfg.Render.Title
	if title == "" {
		title = b.scenario.Name
	}

	page := NewPage(title)
	page.Theme = b.theme
	page.Tiles = b.scenario.Tiles
	for _, view := range views {
		page.AddView(view)
	}

	return page
}

// WriteSVG writes every view as a standalone SVG file named after its chart ID into dir,
// followed by the tiles, if any. It returns the written files.
func (b *Builder) WriteSVG(dir string, views []*View) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd,gosec // ordinary output directory
		return nil, fmt.Errorf("creating SVG output directory: %w", err)
	}

	files := make([]string, 0, len(views)+1)
	for _, view := range views {
		file := filepath.Join(dir, view.Chart.ID+".svg")
		if err := writeFile(file, view.RenderSVG); err != nil {
			return files, err
		}
		files = append(files, file)
	}

	if len(b.scenario.Tiles) > 0 {
		file := filepath.Join(dir, TilesFile)
		err := writeFile(file, func(w io.Writer) error {
			return RenderTiles(w, b.scenario.Tiles)
		})
		if err != nil {
			return files, err
		}
		files = append(files, file)
	}

	b.l.Info("SVG charts written", slog.String("dir", dir), slog.Int("files", len(files)))

	return files, nil
}

func (b *Builder) buildView(data model.ChartData) *View {
	view := &View{
		Chart: data.Chart,
		Err:   data.Err,
		theme: b.theme,
	}

	if data.Failed() {
		return view
	}

	cfg := b.chartConfig(data.Chart)
	view.Instance = newInstance(data.Chart.Type, data.Records, cfg)

	chartID := data.Chart.ID
	view.Instance.OnInput(func(ev chart.Event[model.Record]) {
		b.notify(chartID, ev)
	})

	if !b.hover.IsZero() {
		view.Instance.HoverAt(b.hover)
	}

	return view
}

func (b *Builder) notify(chartID string, ev chart.Event[model.Record]) {
	if b.listener != nil {
		b.listener(chartID, ev)

		return
	}

	if ev.IsNull() {
		b.l.Debug("hover cleared", slog.String("chart_id", chartID))

		return
	}

	c, _ := b.cfg.GetChart(chartID)
	b.l.Info("hover",
		slog.String("chart_id", chartID),
		slog.Int("index", ev.Index),
		slog.String("date", ev.Value.String(c.Fields.X)),
	)
}

// chartConfig maps a configured chart onto the configuration of a chart instance over records.
func (b *Builder) chartConfig(c config.Chart) chart.Config[model.Record] {
	pattern := b.cfg.Fields.DatePattern()
	fields := c.Fields

	acc := chart.Accessors[model.Record]{
		X: func(r model.Record) time.Time {
			return r.Time(fields.X, pattern)
		},
		Y: floatField(fields.Y),
	}
	if fields.Y2 != "" {
		acc.Y2 = floatField(fields.Y2)
	}
	if fields.Bar != "" {
		acc.Bar = floatField(fields.Bar)
	}
	if fields.Z != "" {
		acc.Z = func(r model.Record) string {
			return r.String(fields.Z)
		}
	}

	curve, _ := chart.CurveByName(c.Curve)

	return chart.Config[model.Record]{
		Accessors:    acc,
		Margins:      chart.Margins(c.Margins),
		Width:        c.Width,
		Height:       c.Height,
		XFormat:      c.Formats.X,
		XTickFormat:  c.Formats.XTick,
		YFormat:      c.Formats.Y,
		Y2Format:     c.Formats.Y2,
		BarFormat:    c.Formats.Bar,
		Title:        c.Title,
		Subtitle:     c.Subtitle,
		YLabel:       c.Labels.Y,
		Y2Label:      c.Labels.Y2,
		YHoverText:   c.Hover.Y,
		Y2HoverText:  c.Hover.Y2,
		BarHoverText: c.Hover.Bar,
		Keys:         c.Keys,
		Curve:        curve,
		Theme: chart.Theme{
			Colors: chart.Colors{
				Y:        c.Colors.Y,
				Y2:       c.Colors.Y2,
				Bar:      c.Colors.Bar,
				BarHover: c.Colors.BarHover,
				Series:   chart.Palette(c.Colors.Series),
			},
		},
	}
}

func newInstance(t config.ChartType, records []model.Record, cfg chart.Config[model.Record]) *chart.Instance[model.Record] {
	switch t {
	case config.ChartTypeDual:
		return chart.DualAxisChart(records, cfg)
	case config.ChartTypeLineBar:
		return chart.LineBarChart(records, cfg)
	case config.ChartTypeMultiLine:
		return chart.MultiLineChart(records, cfg)
	default:
		return chart.BarChart(records, cfg)
	}
}

func floatField(field string) chart.Accessor[model.Record] {
	return func(r model.Record) float64 {
		return r.Float(field)
	}
}

func writeFile(file string, render func(io.Writer) error) error {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("creating output file %q: %w", file, err)
	}

	if err := render(f); err != nil {
		_ = f.Close()

		return fmt.Errorf("rendering %q: %w", file, err)
	}

	return f.Close()
}
