package dashboard

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/loader"
	"github.com/fredbi/housingviz/internal/pkg/model"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestNew(t *testing.T) {
	cfg := mustLoadConfig(t, testConfig())
	scenario := testScenario(t, cfg)

	b := New(cfg, scenario)
	require.NotNil(t, b)
	assert.EqualT(t, ThemeRoma, b.theme)

	b = New(cfg, scenario, WithTheme("westeros"), WithTheme(""))
	assert.EqualT(t, "westeros", b.theme)
}

func TestBuild(t *testing.T) {
	cfg := mustLoadConfig(t, testConfig())
	scenario := testScenario(t, cfg)

	views := New(cfg, scenario).Build()
	require.Len(t, views, len(scenario.Charts))

	for _, view := range views[:len(views)-1] {
		assert.False(t, view.Failed(), "chart %s", view.Chart.ID)
		require.NotNil(t, view.Instance)
		assert.EqualT(t, len(testRecords()), view.Instance.Series.Len())
	}

	failed := views[len(views)-1]
	assert.True(t, failed.Failed())
	require.Error(t, failed.Err)

	t.Run("bar chart skips the null value", func(t *testing.T) {
		assert.EqualT(t, len(testRecords())-1, views[0].Instance.BarCount())
	})

	t.Run("placeholder for failed data", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, failed.RenderSVG(&buf))
		assert.Contains(t, buf.String(), loader.FailedMessage)
		assert.Contains(t, buf.String(), "<svg")
	})

	t.Run("SVG chart", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, views[0].RenderSVG(&buf))
		svg := buf.String()
		assert.Contains(t, svg, "<svg")
		assert.Contains(t, svg, "Bar Chart")
		assert.Contains(t, svg, `class="hover"`)
	})
}

func TestHover(t *testing.T) {
	cfg := mustLoadConfig(t, testConfig())
	scenario := testScenario(t, cfg)

	type notification struct {
		chartID string
		index   int
	}
	var events []notification

	listener := func(chartID string, ev chart.Event[model.Record]) {
		events = append(events, notification{chartID: chartID, index: ev.Index})
	}

	views := New(cfg, scenario,
		WithListener(listener),
		WithHover(mustDate(t, "2021-03-31")),
	).Build()

	// one event per chart with an instance
	require.Len(t, events, len(views)-1)
	for i, ev := range events {
		assert.EqualT(t, views[i].Chart.ID, ev.chartID)
		assert.EqualT(t, 2, ev.index)
	}

	value, ok := views[0].Instance.Value()
	require.True(t, ok)
	assert.EqualT(t, "2021-03-31", value.String("date"))
	assert.EqualT(t, chart.Active, views[0].Instance.State())

	views[0].Instance.PointerLeave()
	require.Len(t, events, len(views))
	assert.EqualT(t, -1, events[len(events)-1].index)
}

func TestChartConfig(t *testing.T) {
	cfg := mustLoadConfig(t, testConfig())
	b := New(cfg, testScenario(t, cfg))

	c, ok := cfg.GetChart("dual")
	require.True(t, ok)

	cc := b.chartConfig(c)
	r := testRecords()[1]

	assert.EqualT(t, mustDate(t, "2021-02-28"), cc.X(r))
	assert.InDelta(t, 110.0, cc.Y(r), 1e-9)
	assert.InDelta(t, 3.5, cc.Y2(r), 1e-9)
	assert.InDelta(t, 12.0, cc.Bar(r), 1e-9)
	assert.Nil(t, cc.Z)
	assert.EqualT(t, "royalblue", cc.Theme.Colors.Y)
	assert.EqualT(t, 1200.0, cc.Width)

	m, ok := cfg.GetChart("multi")
	require.True(t, ok)
	mc := b.chartConfig(m)
	require.NotNil(t, mc.Z)
	assert.EqualT(t, "b", mc.Z(r))
}

func TestWriteSVG(t *testing.T) {
	cfg := mustLoadConfig(t, testConfig())
	scenario := testScenario(t, cfg)
	b := New(cfg, scenario)
	dir := filepath.Join(t.TempDir(), "svg")

	files, err := b.WriteSVG(dir, b.Build())
	require.NoError(t, err)
	require.Len(t, files, len(scenario.Charts)+1)
	assert.EqualT(t, filepath.Join(dir, TilesFile), files[len(files)-1])

	for _, file := range files {
		content, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(content), "</svg>")
	}

	failed, err := os.ReadFile(filepath.Join(dir, "broken.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(failed), loader.FailedMessage)
}

func TestPageRender(t *testing.T) {
	cfg := mustLoadConfig(t, testConfig())
	scenario := testScenario(t, cfg)
	b := New(cfg, scenario)

	page := b.BuildPage(b.Build())
	require.NotNil(t, page)
	assert.EqualT(t, "Test Dashboard", page.Title)
	assert.Len(t, page.Views, len(scenario.Charts))
	assert.Len(t, page.Tiles, 2)

	var buf bytes.Buffer
	require.NoError(t, page.Render(&buf))
	html := buf.String()
	assert.Contains(t, html, "Test Dashboard")
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Bar Chart")
	assert.Contains(t, html, loader.FailedMessage)
}

func TestRenderTiles(t *testing.T) {
	tiles := []model.Tile{
		{Set: "zhvi", Title: "Home Values", Change: 12.5, Color: "#1a9850"},
		{Set: "new", Title: "New Listings", Change: math.NaN()},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTiles(&buf, tiles))
	svg := buf.String()

	assert.Contains(t, svg, "Home Values")
	assert.Contains(t, svg, "12.5%")
	assert.Contains(t, svg, "fill:#1a9850")
	assert.Contains(t, svg, "n/a")
	assert.Contains(t, svg, "fill:"+invalidTileColor)
	assert.Contains(t, svg, `class="tile tile-zhvi"`)

	t.Run("empty", func(t *testing.T) {
		var empty bytes.Buffer
		require.NoError(t, RenderTiles(&empty, nil))
		assert.Contains(t, empty.String(), "</svg>")
	})
}

func TestSeriesData(t *testing.T) {
	line := lineData([]float64{1, math.NaN(), 3}, []bool{true, true, false})
	require.Len(t, line, 3)
	assert.Equal(t, any(1.0), line[0].Value)
	assert.Equal(t, any(missingValue), line[1].Value)
	assert.Equal(t, any(missingValue), line[2].Value)

	bars := barData([]float64{1, math.NaN()}, nil)
	require.Len(t, bars, 2)
	assert.Equal(t, any(1.0), bars[0].Value)
	assert.Equal(t, any(missingValue), bars[1].Value)
}

func TestLabels(t *testing.T) {
	dates := []time.Time{mustDate(t, "2021-01-31"), mustDate(t, "2021-02-28")}

	bar := &View{Chart: config.Chart{Type: config.ChartTypeBar, Formats: config.Formats{XTick: "%b %Y"}}}
	assert.Equal(t, []string{"Jan 2021", "Feb 2021"}, bar.labels(dates))

	lineBar := &View{Chart: config.Chart{Type: config.ChartTypeLineBar, Formats: config.Formats{X: "%b %-d, %Y", XTick: "%Y"}}}
	assert.Equal(t, []string{"Jan 31, 2021", "Feb 28, 2021"}, lineBar.labels(dates))

	fallback := &View{Chart: config.Chart{Type: config.ChartTypeBar}}
	assert.Equal(t, []string{"Jan 2021", "Feb 2021"}, fallback.labels(dates))
}

func TestSeriesName(t *testing.T) {
	v := &View{}
	assert.EqualT(t, "ZHVI", v.seriesName("ZHVI: ", "trend"))
	assert.EqualT(t, "trend", v.seriesName("", "trend"))
}

func mustLoadConfig(t *testing.T, yamlContent string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(yamlContent), 0o600))
	cfg, err := config.Load(file)
	require.NoError(t, err)
	return cfg
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, value)
	require.NoError(t, err)
	return d
}

func testScenario(t *testing.T, cfg *config.Config) *model.Scenario {
	t.Helper()

	scenario := &model.Scenario{
		Name:      cfg.Name,
		Selection: cfg.Selection,
		Tiles: []model.Tile{
			{Set: "a", Title: "A", Change: 5, Color: "#d9ef8b"},
			{Set: "b", Title: "B", Change: math.NaN()},
		},
	}

	for _, c := range cfg.Charts {
		data := model.ChartData{Chart: c, Records: testRecords()}
		if c.ID == "broken" {
			data.Records = nil
			data.Err = errors.New("unreachable")
		}
		scenario.Charts = append(scenario.Charts, data)
	}

	return scenario
}

func testRecords() []model.Record {
	return []model.Record{
		{"date": "2021-01-31", "value": 100.0, "rate": 3.0, "volume": 10.0, "set": "a"},
		{"date": "2021-02-28", "value": 110.0, "rate": 3.5, "volume": 12.0, "set": "b"},
		{"date": "2021-03-31", "value": 120.0, "rate": 3.2, "volume": 11.0, "set": "a"},
		{"date": "2021-04-30", "value": nil, "rate": 3.1, "volume": 9.0, "set": "b"},
	}
}

func testConfig() string {
	return `
name: test-dashboard
render:
  title: Test Dashboard
fields:
  date: date
sources:
  - id: s1
    location: data.json
charts:
  - id: bar
    title: Bar Chart
    type: bar
    source: s1
    fields:
      y: value
    hover:
      y: 'Value: '
  - id: dual
    type: dual
    source: s1
    fields:
      y: value
      y2: rate
      bar: volume
    colors:
      y: royalblue
      y2: black
      bar: silver
  - id: linebar
    type: linebar
    source: s1
    fields:
      y: rate
      bar: volume
  - id: multi
    type: multiline
    source: s1
    fields:
      y: value
    colors:
      series: [forestgreen, royalblue]
  - id: broken
    type: bar
    source: s1
    fields:
      y: value
`
}
