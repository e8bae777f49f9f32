package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestLoadDefault(t *testing.T) {
	cfg, err := loadDefaults()
	require.NoError(t, err)

	require.NoError(t, dumpConfig(os.Stdout, cfg))

	assert.Equal(t, "roma", cfg.Render.Theme)
	assert.Equal(t, "Obs_Date", cfg.Fields.Date)
	assert.Equal(t, "UnitedStates", cfg.Selection.Region)
	assert.Equal(t, time.Second, cfg.Render.Screenshot.SleepDuration())
	assert.Equal(t, "MT", cfg.Prepare.State)
	assert.Equal(t, "2019-01-01", cfg.Prepare.MinDate)
}

func TestLoadDefaultContent(t *testing.T) {
	cfg, err := Load(filepath.Join(fixturePath(), "housingviz.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Montana Housing Market", cfg.Name)
	assert.Equal(t, 2020, cfg.Selection.Year)

	// verify sources are loaded and indexed
	assert.Len(t, cfg.Sources, 3)
	for _, id := range []string{"zillow", "prices", "fred"} {
		_, ok := cfg.GetSource(id)
		assert.True(t, ok, "expected source %q in index", id)
	}

	// verify charts
	assert.Len(t, cfg.Charts, 5)
	for _, id := range []string{"zhvi", "inventory", "newpending", "price", "mortgage"} {
		_, ok := cfg.GetChart(id)
		assert.True(t, ok, "expected chart %q in index", id)
	}

	// defaults inherited from the embedded config
	assert.Equal(t, "roma", cfg.Render.Theme)
	assert.Equal(t, "set", cfg.Fields.Set)

	price, ok := cfg.GetChart("price")
	require.True(t, ok)
	assert.Equal(t, ChartTypeDual, price.Type)
	assert.Equal(t, "Obs_Date", price.Fields.X)
	assert.InDelta(t, 60.0, price.Margins.Top, 1e-9)
	assert.InDelta(t, 1200.0, price.Width, 1e-9)
	assert.Equal(t, "forestgreen", price.Colors.BarHover)
	assert.Equal(t, "Percent of Listings with Price Reductions: ", price.Hover.Bar)

	mortgage, ok := cfg.GetChart("mortgage")
	require.True(t, ok)
	assert.Equal(t, "DATE", mortgage.Fields.X)

	newpending, ok := cfg.GetChart("newpending")
	require.True(t, ok)
	assert.Equal(t, "set", newpending.Fields.Z, "z field defaults to the set field")

	// verify tiles
	require.Len(t, cfg.Tiles.Items, 4)
	assert.Equal(t, "Inventory", cfg.Tiles.Items[1].Title)
	assert.Equal(t, "value", cfg.Tiles.Field)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yamlContent := minimalValidYAML()

	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(yamlContent), 0o600))

	cfg, err := load(os.DirFS(dir), "config.yaml", &Config{})
	require.NoError(t, err)

	assert.Len(t, cfg.Charts, 1)

	c, ok := cfg.GetChart("c1")
	require.True(t, ok, "expected chart c1 in index")
	assert.Equal(t, "C1", c.Title)
}

func TestLoadAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(minimalValidYAML()), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	c, ok := cfg.GetChart("c1")
	require.True(t, ok, "expected chart c1 in index")
	assert.Equal(t, "Obs_Date", c.Fields.X, "x field defaults to the date field")
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := load(os.DirFS(dir), "nonexistent.yaml", &Config{})
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte(":\n  :\n    - [invalid"), 0o600))

	_, err := load(os.DirFS(dir), "bad.yaml", &Config{})
	require.Error(t, err)
}

func TestChartType(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "dual", ChartTypeDual.String())
	})

	t.Run("IsValid", func(t *testing.T) {
		for _, ct := range AllChartTypes() {
			assert.True(t, ct.IsValid(), "expected %q to be valid", ct)
		}

		invalid := []ChartType{"unknown", "", "Bar", "line"}
		for _, ct := range invalid {
			assert.False(t, ct.IsValid(), "expected %q to be invalid", ct)
		}
	})

	t.Run("HasBarChannel", func(t *testing.T) {
		assert.True(t, ChartTypeDual.HasBarChannel())
		assert.True(t, ChartTypeLineBar.HasBarChannel())
		assert.False(t, ChartTypeBar.HasBarChannel())
		assert.False(t, ChartTypeMultiLine.HasBarChannel())
	})
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		isConfig  bool
		wantError string
	}{
		{
			name: "source with empty ID",
			yaml: `
sources:
  - id: ""
    location: data.json
`,
			isConfig:  true,
			wantError: "empty ID",
		},
		{
			name: "duplicate source",
			yaml: `
sources:
  - id: s1
    location: a.json
  - id: s1
    location: b.json
`,
			isConfig:  true,
			wantError: "duplicate ID",
		},
		{
			name: "source without location",
			yaml: `
sources:
  - id: s1
`,
			isConfig:  true,
			wantError: "empty location",
		},
		{
			name: "unknown chart type",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: pie
    source: s1
    fields: {y: value}
`,
			isConfig:  true,
			wantError: "invalid type",
		},
		{
			name: "unknown chart source",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: bar
    source: nope
    fields: {y: value}
`,
			isConfig:  true,
			wantError: "source ID not found",
		},
		{
			name: "duplicate chart",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: bar
    source: s1
    fields: {y: value}
  - id: c1
    type: bar
    source: s1
    fields: {y: value}
`,
			isConfig:  true,
			wantError: "duplicate ID",
		},
		{
			name: "unknown curve",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: multiline
    source: s1
    curve: spline
    fields: {y: value}
`,
			isConfig:  true,
			wantError: "unknown curve",
		},
		{
			name: "missing y field",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: bar
    source: s1
`,
			isConfig:  true,
			wantError: "missing y field",
		},
		{
			name: "dual axis without y2",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: dual
    source: s1
    fields: {y: a, bar: b}
`,
			isConfig:  true,
			wantError: "missing y2 field",
		},
		{
			name: "line and bar without bar",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: linebar
    source: s1
    fields: {y: a}
`,
			isConfig:  true,
			wantError: "missing bar field",
		},
		{
			name: "invalid number format",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: bar
    source: s1
    fields: {y: a}
    formats: {y: "$,q"}
`,
			wantError: "charts.c1.formats",
		},
		{
			name: "invalid date format",
			yaml: sourceYAML + `
charts:
  - id: c1
    type: bar
    source: s1
    fields: {y: a}
    formats: {x: "%Q"}
`,
			wantError: "charts.c1.formats",
		},
		{
			name: "tiles with unknown source",
			yaml: sourceYAML + `
tiles:
  source: nope
  items:
    - set: zhvi
`,
			isConfig:  true,
			wantError: "tiles.source",
		},
		{
			name: "tiles with duplicate set",
			yaml: sourceYAML + `
tiles:
  source: s1
  items:
    - set: zhvi
    - set: zhvi
`,
			isConfig:  true,
			wantError: "duplicate set",
		},
		{
			name: "prepare with invalid minDate",
			yaml: `
prepare:
  minDate: 01/01/2019
`,
			isConfig:  true,
			wantError: "invalid minDate",
		},
		{
			name: "prepare job without output",
			yaml: `
prepare:
  jobs:
    - inputs: [{file: zhvi.csv, set: zhvi}]
`,
			isConfig:  true,
			wantError: "prepare.jobs[0]",
		},
		{
			name: "prepare job with unknown layout",
			yaml: `
prepare:
  jobs:
    - output: out.json
      layout: melted
      inputs: [{file: zhvi.csv, set: zhvi}]
`,
			isConfig:  true,
			wantError: "unknown layout",
		},
		{
			name: "prepare job without inputs",
			yaml: `
prepare:
  jobs:
    - output: out.json
`,
			isConfig:  true,
			wantError: "no inputs",
		},
		{
			name: "prepare input without set",
			yaml: `
prepare:
  jobs:
    - output: out.json
      inputs: [{file: zhvi.csv}]
`,
			isConfig:  true,
			wantError: "prepare.jobs[0].inputs[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFromString(t, tt.yaml)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantError)

			if tt.isConfig {
				assert.ErrorIs(t, err, ErrConfig)
			}
		})
	}
}

func TestSetLocation(t *testing.T) {
	cfg := mustLoadTestConfig(t, minimalValidYAML())

	require.NoError(t, cfg.SetLocation("s1", "https://example.com/data.json"))

	source, ok := cfg.GetSource("s1")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/data.json", source.Location)
	assert.Equal(t, "https://example.com/data.json", cfg.Sources[0].Location)

	err := cfg.SetLocation("unknown", "x.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestEncodeYAML(t *testing.T) {
	cfg := mustLoadTestConfig(t, minimalValidYAML())
	cfg.IsStrict = true

	var buf bytes.Buffer
	require.NoError(t, cfg.EncodeYAML(&buf))

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &raw))

	assert.Contains(t, raw, "Sources")
	assert.Contains(t, raw, "Charts")
	assert.NotContains(t, raw, "IsStrict")
	assert.NotContains(t, raw, "Outputs")
}

func TestTiles(t *testing.T) {
	cfg := mustLoadTestConfig(t, sourceYAML+`
tiles:
  source: s1
  items:
    - set: new_listings
    - set: zhvi
      title: Home Values
`)

	assert.Equal(t, "value", cfg.Tiles.Field)
	require.Len(t, cfg.Tiles.Items, 2)
	assert.Equal(t, "New Listings", cfg.Tiles.Items[0].Title)
	assert.Equal(t, "Home Values", cfg.Tiles.Items[1].Title)
}

func TestTitleize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"zhvi", "Zhvi"},
		{"new-pending", "New Pending"},
		{"price_cuts", "Price Cuts"},
		{"UnitedStates", "UnitedStates"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, titleize(tt.input))
		})
	}
}

func TestDatePattern(t *testing.T) {
	assert.Equal(t, "%Y-%m-%d", Fields{DateFormat: "%Y-%m-%d"}.DatePattern())
	assert.Equal(t, "%m/%d/%Y", Fields{DateFormat: "%m/%d/%Y"}.DatePattern())
	assert.Equal(t, "%Y-%m-%d", Fields{DateFormat: "%Q"}.DatePattern(), "invalid patterns fall back to ISO dates")
	assert.Equal(t, "%Y-%m-%d", Fields{}.DatePattern())
}

func TestPrepare(t *testing.T) {
	cfg, err := loadFromString(t, `
prepare:
  minDate: "2019-01-01"
  maxDate: "2022-01-01"
  state: ID
  country: United States
  jobs:
    - output: input_data.json
      inputs:
        - {file: zhvi.csv, set: zhvi}
    - output: FRED_input_data.json
      layout: fred
      inputs:
        - {file: MDSP.csv, set: debt2income}
`)
	require.NoError(t, err)

	prep := cfg.Prepare
	assert.Equal(t, "ID", prep.State)
	assert.Equal(t, "United States", prep.Country)
	require.Len(t, prep.Jobs, 2)
	assert.Equal(t, PrepareLayoutRows, prep.Jobs[0].Layout, "rows is the default layout")
	assert.Equal(t, PrepareLayoutFRED, prep.Jobs[1].Layout)
	assert.Equal(t, PrepareInput{File: "MDSP.csv", Set: "debt2income"}, prep.Jobs[1].Inputs[0])

	minDate, maxDate, err := prep.Bounds()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), minDate)
	assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC), maxDate)

	t.Run("blank bounds are zero", func(t *testing.T) {
		minDate, maxDate, err := Preparation{}.Bounds()
		require.NoError(t, err)
		assert.True(t, minDate.IsZero())
		assert.True(t, maxDate.IsZero())
	})

	t.Run("invalid maxDate", func(t *testing.T) {
		_, _, err := Preparation{MaxDate: "2022"}.Bounds()
		require.ErrorIs(t, err, ErrConfig)
	})

	t.Run("layouts", func(t *testing.T) {
		for _, l := range AllPrepareLayouts() {
			assert.True(t, l.IsValid(), l.String())
		}
		assert.False(t, PrepareLayout("melted").IsValid())
	})
}

func TestScreenshotSleepDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, Screenshot{Sleep: "2s"}.SleepDuration())
	assert.Equal(t, time.Duration(0), Screenshot{Sleep: "soon"}.SleepDuration())
	assert.Equal(t, time.Duration(0), Screenshot{}.SleepDuration())
}

func dumpConfig(w io.Writer, cfg *Config) error {
	var raw map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Squash: true,
		Deep:   true,
		Result: &raw,
	})
	if err != nil {
		return err
	}

	err = dec.Decode(cfg)
	if err != nil {
		return err
	}

	return yaml.NewEncoder(w).Encode(raw)
}

func fixturePath() string {
	return filepath.Join("..", "..", "..", "examples", "montana")
}

func loadFromString(t *testing.T, yamlContent string) (*Config, error) {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(yamlContent), 0o600))
	return load(os.DirFS(dir), "config.yaml", &Config{})
}

func mustLoadTestConfig(t *testing.T, yamlContent string) *Config {
	t.Helper()
	cfg, err := loadFromString(t, yamlContent)
	require.NoError(t, err)
	return cfg
}

const sourceYAML = `
sources:
  - id: s1
    location: data.json
`

func minimalValidYAML() string {
	return sourceYAML + `
charts:
  - id: c1
    type: bar
    source: s1
    fields:
      y: trend
`
}
