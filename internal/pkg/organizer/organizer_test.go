package organizer

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/model"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestNew(t *testing.T) {
	cfg := mustLoadConfig(t, minimalConfig())
	o := New(cfg)
	require.NotNil(t, o)
	assert.Equal(t, cfg, o.cfg)
	assert.EqualT(t, "UnitedStates", o.Selection().Region)
}

func TestSelectionOverrides(t *testing.T) {
	cfg := mustLoadConfig(t, minimalConfig())

	t.Run("region and year", func(t *testing.T) {
		o := New(cfg, WithRegion("Billings, MT"), WithYear(2021))
		sel := o.Selection()
		assert.EqualT(t, "Billings, MT", sel.Region)
		assert.EqualT(t, 2021, sel.Year)
	})

	t.Run("empty region keeps configured one", func(t *testing.T) {
		o := New(cfg, WithRegion(""))
		assert.EqualT(t, "UnitedStates", o.Selection().Region)
		assert.EqualT(t, 0, o.Selection().Year)
	})
}

func TestSelect(t *testing.T) {
	cfg := mustLoadConfig(t, minimalConfig())
	records := testRecords()

	tests := []struct {
		name   string
		opts   []Option
		expect int
	}{
		{name: "default region", expect: 5},
		{name: "region and year", opts: []Option{WithYear(2021)}, expect: 2},
		{name: "other region", opts: []Option{WithRegion("Billings, MT")}, expect: 2},
		{name: "other region from 2021", opts: []Option{WithRegion("Billings, MT"), WithYear(2021)}, expect: 1},
		{name: "unknown region", opts: []Option{WithRegion("Nowhere")}, expect: 0},
		{name: "future year", opts: []Option{WithYear(2030)}, expect: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := New(cfg, tc.opts...)
			selected := o.Select(records)
			assert.Len(t, selected, tc.expect)
		})
	}
}

func TestRegionsAndYears(t *testing.T) {
	cfg := mustLoadConfig(t, minimalConfig())
	o := New(cfg)
	records := testRecords()

	assert.Equal(t, []string{"Billings, MT", "UnitedStates"}, o.Regions(records))
	assert.Equal(t, []int{2020, 2021}, o.Years(records))
	assert.Empty(t, o.Regions(nil))
	assert.Empty(t, o.Years(nil))
}

func TestFilterSets(t *testing.T) {
	records := testRecords()

	assert.Len(t, FilterSets(records, "set", nil), len(records))
	assert.Len(t, FilterSets(records, "set", []string{"zhvi"}), 5)
	assert.Len(t, FilterSets(records, "set", []string{"inventory"}), 2)
	assert.Empty(t, FilterSets(records, "set", []string{"unknown"}))
}

func TestFilterRequired(t *testing.T) {
	records := testRecords()

	assert.Len(t, FilterRequired(records, nil), len(records))
	filtered := FilterRequired(records, []string{"trend"})
	assert.Len(t, filtered, 5)
	for _, r := range filtered {
		assert.False(t, r.IsNull("trend"))
	}
	assert.Empty(t, FilterRequired(records, []string{"missing"}))
}

func TestYearOverYear(t *testing.T) {
	t.Run("nearest prior record", func(t *testing.T) {
		records := []model.Record{
			{"date": "2020-01-31", "value": 100.0},
			{"date": "2020-12-31", "value": 110.0},
			{"date": "2021-01-31", "value": 112.5},
			{"date": "2020-06-30", "value": 105.0},
		}

		change, recent, lastYear := YearOverYear(records, "date", "%Y-%m-%d", "value")
		assert.InDelta(t, 12.5, change, 1e-9)
		assert.EqualT(t, mustDate(t, "2021-01-31"), recent)
		assert.EqualT(t, mustDate(t, "2020-01-31"), lastYear)
	})

	t.Run("negative change rounds half up", func(t *testing.T) {
		records := []model.Record{
			{"date": "2020-01-01", "value": 1000.0},
			{"date": "2020-12-31", "value": 999.75},
		}

		change, _, _ := YearOverYear(records, "date", "%Y-%m-%d", "value")
		// -0.025% rounds to zero at one decimal
		assert.InDelta(t, 0, change, 1e-9)
	})

	t.Run("single record", func(t *testing.T) {
		records := []model.Record{
			{"date": "2021-01-31", "value": 100.0},
		}

		change, recent, lastYear := YearOverYear(records, "date", "%Y-%m-%d", "value")
		assert.InDelta(t, 0, change, 1e-9)
		assert.EqualT(t, recent, lastYear)
	})

	t.Run("no dated records", func(t *testing.T) {
		change, recent, _ := YearOverYear([]model.Record{{"value": 1.0}}, "date", "%Y-%m-%d", "value")
		assert.True(t, math.IsNaN(change))
		assert.True(t, recent.IsZero())
	})

	t.Run("null value", func(t *testing.T) {
		records := []model.Record{
			{"date": "2020-01-31", "value": nil},
			{"date": "2021-01-31", "value": 100.0},
		}

		change, _, _ := YearOverYear(records, "date", "%Y-%m-%d", "value")
		assert.True(t, math.IsNaN(change))
	})
}

func TestScenarize(t *testing.T) {
	cfg := mustLoadConfig(t, scenarioConfig())
	o := New(cfg)

	scenario, err := o.Scenarize([]model.Dataset{
		{ID: "s1", Records: testRecords()},
	})
	require.NoError(t, err)
	require.NotNil(t, scenario)

	assert.EqualT(t, "test-scenario", scenario.Name)
	require.Len(t, scenario.Charts, 2)

	t.Run("filtered chart", func(t *testing.T) {
		data := scenario.Charts[0]
		assert.EqualT(t, "c1", data.Chart.ID)
		assert.False(t, data.Failed())
		// UnitedStates zhvi records with a non-null trend
		assert.Len(t, data.Records, 4)
	})

	t.Run("unfiltered chart", func(t *testing.T) {
		data := scenario.Charts[1]
		assert.EqualT(t, "c2", data.Chart.ID)
		assert.Len(t, data.Records, 2)
	})

	t.Run("tiles", func(t *testing.T) {
		require.Len(t, scenario.Tiles, 2)

		zhvi := scenario.Tiles[0]
		assert.EqualT(t, "zhvi", zhvi.Set)
		assert.EqualT(t, "Home Values", zhvi.Title)
		require.True(t, zhvi.Valid())
		assert.InDelta(t, 25.0, zhvi.Change, 1e-9)
		assert.EqualT(t, "25%", zhvi.Text())
		// changes above the domain take the last color stop
		assert.EqualT(t, "#006837", zhvi.Color)

		inventory := scenario.Tiles[1]
		assert.EqualT(t, "inventory", inventory.Set)
		assert.False(t, inventory.Valid(), "inventory records are not in the selected region")
		assert.Empty(t, inventory.Color)
	})
}

func TestScenarizeFailedSource(t *testing.T) {
	cfg := mustLoadConfig(t, scenarioConfig())
	loadErr := errors.New("boom")
	datasets := []model.Dataset{
		{ID: "s1", Err: loadErr},
	}

	t.Run("lenient", func(t *testing.T) {
		scenario, err := New(cfg).Scenarize(datasets)
		require.NoError(t, err)
		require.Len(t, scenario.Charts, 2)
		for _, data := range scenario.Charts {
			assert.True(t, data.Failed())
			assert.ErrorIs(t, data.Err, loadErr)
			assert.Empty(t, data.Records)
		}
	})

	t.Run("missing dataset", func(t *testing.T) {
		scenario, err := New(cfg).Scenarize(nil)
		require.NoError(t, err)
		require.Len(t, scenario.Charts, 2)
		assert.True(t, scenario.Charts[0].Failed())
		assert.ErrorContains(t, scenario.Charts[0].Err, `source "s1" was not loaded`)
	})

	t.Run("strict", func(t *testing.T) {
		strictCfg := *cfg
		strictCfg.IsStrict = true
		_, err := New(&strictCfg).Scenarize(datasets)
		require.Error(t, err)
		assert.ErrorIs(t, err, loadErr)
		assert.ErrorContains(t, err, "strict requirement not met")
	})
}

func TestScenarizeEmptyChart(t *testing.T) {
	cfg := mustLoadConfig(t, scenarioConfig())
	datasets := []model.Dataset{
		{ID: "s1", Records: testRecords()},
	}

	t.Run("lenient", func(t *testing.T) {
		scenario, err := New(cfg, WithRegion("Nowhere")).Scenarize(datasets)
		require.NoError(t, err)
		assert.Empty(t, scenario.Charts[0].Records)
		assert.False(t, scenario.Charts[0].Failed())
	})

	t.Run("strict", func(t *testing.T) {
		strictCfg := *cfg
		strictCfg.IsStrict = true
		_, err := New(&strictCfg, WithRegion("Nowhere")).Scenarize(datasets)
		require.Error(t, err)
		assert.ErrorContains(t, err, "no records selected")
	})
}

func TestScenarizeTileColor(t *testing.T) {
	cfg := mustLoadConfig(t, scenarioConfig())
	o := New(cfg, WithTileColor(func(float64) string { return "purple" }))

	scenario, err := o.Scenarize([]model.Dataset{{ID: "s1", Records: testRecords()}})
	require.NoError(t, err)
	require.NotEmpty(t, scenario.Tiles)
	assert.EqualT(t, "purple", scenario.Tiles[0].Color)
}

func TestDefaultTileColor(t *testing.T) {
	assert.EqualT(t, "#a50026", defaultTileColor(-10))
	assert.EqualT(t, "#a50026", defaultTileColor(-25))
	assert.EqualT(t, "#ffffbf", defaultTileColor(0))
	assert.EqualT(t, "#006837", defaultTileColor(10))
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

func testRecords() []model.Record {
	return []model.Record{
		{"RegionName": "UnitedStates", "Obs_Date": "2020-01-31", "value": 100.0, "trend": nil, "set": "zhvi"},
		{"RegionName": "UnitedStates", "Obs_Date": "2020-06-30", "value": 105.0, "trend": 101.0, "set": "zhvi"},
		{"RegionName": "UnitedStates", "Obs_Date": "2020-12-31", "value": 110.0, "trend": 108.0, "set": "zhvi"},
		{"RegionName": "UnitedStates", "Obs_Date": "2021-01-31", "value": 120.0, "trend": 115.0, "set": "zhvi"},
		{"RegionName": "UnitedStates", "Obs_Date": "2021-02-28", "value": 125.0, "trend": 118.0, "set": "zhvi"},
		{"RegionName": "Billings, MT", "Obs_Date": "2020-12-31", "value": 80.0, "trend": nil, "set": "inventory"},
		{"RegionName": "Billings, MT", "Obs_Date": "2021-03-31", "value": 90.0, "trend": 95.0, "set": "inventory"},
	}
}

func minimalConfig() string {
	return `
name: test-scenario
sources:
  - id: s1
    location: data.json
charts:
  - id: c1
    type: bar
    source: s1
    fields:
      y: trend
`
}

func scenarioConfig() string {
	return `
name: test-scenario
sources:
  - id: s1
    location: data.json
charts:
  - id: c1
    type: bar
    source: s1
    filtered: true
    sets: [zhvi]
    require: [trend]
    fields:
      y: trend
  - id: c2
    type: multiline
    source: s1
    sets: [inventory]
    fields:
      y: value
tiles:
  source: s1
  items:
    - set: zhvi
      title: Home Values
    - set: inventory
`
}
