package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fredbi/housingviz/internal/pkg/config"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	p := New(cfg)
	require.EqualT(t, cfg, p.config)
	assert.Equal(t, defaultTimeout, p.timeout)
	assert.Equal(t, os.Stdin, p.stdin)
	require.NotNil(t, p.client)
}

func TestNewWithOptions(t *testing.T) {
	client := resty.New()
	p := New(&config.Config{},
		WithTimeout(5*time.Second),
		WithBaseURL("https://example.com/output_data/"),
		WithBaseDir("testdata"),
		WithClient(client),
	)

	assert.Equal(t, 5*time.Second, p.timeout)
	assert.Equal(t, "https://example.com/output_data/", p.baseURL)
	assert.Equal(t, "testdata", p.baseDir)
	assert.Equal(t, client, p.client)
	assert.Equal(t, 5*time.Second, client.GetClient().Timeout)

	p = New(&config.Config{}, WithTimeout(0))
	assert.Equal(t, defaultTimeout, p.timeout, "expected a zero timeout to be ignored")
}

func TestDecode(t *testing.T) {
	p := New(&config.Config{})

	t.Run("valid document", func(t *testing.T) {
		records, err := p.Decode(strings.NewReader(`{"data": [{"value": 1}, {"value": null}]}`))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.InDelta(t, 1.0, records[0].Float("value"), 1e-9)
		assert.True(t, records[1].IsNull("value"))
	})

	t.Run("empty data array", func(t *testing.T) {
		records, err := p.Decode(strings.NewReader(`{"data": []}`))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("missing data array", func(t *testing.T) {
		_, err := p.Decode(strings.NewReader(`{"rows": []}`))
		require.ErrorIs(t, err, ErrNoData)
	})

	t.Run("null data array", func(t *testing.T) {
		_, err := p.Decode(strings.NewReader(`{"data": null}`))
		require.ErrorIs(t, err, ErrNoData)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := p.Decode(strings.NewReader(`{"data": [`))
		require.Error(t, err)
	})

	t.Run("records are not objects", func(t *testing.T) {
		_, err := p.Decode(strings.NewReader(`{"data": [1, 2]}`))
		require.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	p := New(&config.Config{}, WithBaseDir("testdata"))

	dataset := p.Load(context.Background(), config.Source{ID: "zillow", Location: "small.json"})
	require.NoError(t, dataset.Err)
	assert.Equal(t, filepath.Join("testdata", "small.json"), dataset.Location)
	assert.Len(t, dataset.Records, 4)

	t.Run("missing file", func(t *testing.T) {
		dataset := p.Load(context.Background(), config.Source{ID: "missing", Location: "nonexistent.json"})
		require.True(t, dataset.Failed())
		require.ErrorIs(t, dataset.Err, ErrLoad)
		assert.Contains(t, dataset.Err.Error(), `source "missing"`)
		assert.Empty(t, dataset.Records)
	})

	t.Run("document without data", func(t *testing.T) {
		dataset := p.Load(context.Background(), config.Source{ID: "nodata", Location: "nodata.json"})
		require.ErrorIs(t, dataset.Err, ErrNoData)
	})

	t.Run("absolute path ignores base dir", func(t *testing.T) {
		abs, err := filepath.Abs(testdataPath("small.json"))
		require.NoError(t, err)

		dataset := p.Load(context.Background(), config.Source{ID: "abs", Location: abs})
		require.NoError(t, dataset.Err)
		assert.Equal(t, abs, dataset.Location)
	})
}

func TestLoadStdin(t *testing.T) {
	p := New(&config.Config{}, WithStdin(strings.NewReader(`{"data": [{"DATE": "2021-01-01", "deliquency": 0.02}]}`)))

	dataset := p.Load(context.Background(), config.Source{ID: "fred", Location: "-"})
	require.NoError(t, dataset.Err)
	require.Len(t, dataset.Records, 1)
	assert.InDelta(t, 0.02, dataset.Records[0].Float("deliquency"), 1e-9)
}

func TestLoadHTTP(t *testing.T) {
	content, err := os.ReadFile(testdataPath("small.json"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/output_data/input_data.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(content)
	})
	mux.HandleFunc("/output_data/broken.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ctx := context.Background()

	t.Run("absolute URL", func(t *testing.T) {
		p := New(&config.Config{})
		dataset := p.Load(ctx, config.Source{ID: "zillow", Location: server.URL + "/output_data/input_data.json"})
		require.NoError(t, dataset.Err)
		assert.Len(t, dataset.Records, 4)
	})

	t.Run("relative to base URL", func(t *testing.T) {
		p := New(&config.Config{}, WithBaseURL(server.URL+"/output_data/"), WithBaseDir("ignored"))
		dataset := p.Load(ctx, config.Source{ID: "zillow", Location: "input_data.json"})
		require.NoError(t, dataset.Err)
		assert.Equal(t, server.URL+"/output_data/input_data.json", dataset.Location)
		assert.Len(t, dataset.Records, 4)
	})

	t.Run("not found", func(t *testing.T) {
		p := New(&config.Config{}, WithBaseURL(server.URL+"/output_data/"))
		dataset := p.Load(ctx, config.Source{ID: "prices", Location: "price_input_data.json"})
		require.ErrorIs(t, dataset.Err, ErrLoad)
		assert.Contains(t, dataset.Err.Error(), "status 404")
	})

	t.Run("not a JSON document", func(t *testing.T) {
		p := New(&config.Config{}, WithBaseURL(server.URL+"/output_data/"))
		dataset := p.Load(ctx, config.Source{ID: "broken", Location: "broken.json"})
		require.Error(t, dataset.Err)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		p := New(&config.Config{})
		dataset := p.Load(canceled, config.Source{ID: "zillow", Location: server.URL + "/output_data/input_data.json"})
		require.ErrorIs(t, dataset.Err, ErrLoad)
	})
}

func TestLoadAll(t *testing.T) {
	sources := []config.Source{
		{ID: "zillow", Location: "small.json"},
		{ID: "prices", Location: "nonexistent.json"},
	}

	t.Run("failed sources are kept", func(t *testing.T) {
		p := New(&config.Config{Sources: sources}, WithBaseDir("testdata"))
		require.NoError(t, p.LoadAll(context.Background()))

		datasets := p.Datasets()
		require.Len(t, datasets, 2)
		assert.False(t, datasets[0].Failed())
		assert.True(t, datasets[1].Failed())

		d, ok := p.Dataset("prices")
		require.True(t, ok)
		assert.True(t, d.Failed())

		_, ok = p.Dataset("unknown")
		assert.False(t, ok)
	})

	t.Run("strict mode fails", func(t *testing.T) {
		p := New(&config.Config{Sources: sources, IsStrict: true}, WithBaseDir("testdata"))
		err := p.LoadAll(context.Background())
		require.ErrorIs(t, err, ErrLoad)
	})
}

func TestReport(t *testing.T) {
	cfg := &config.Config{
		Sources: []config.Source{
			{ID: "zillow", Location: "small.json"},
			{ID: "prices", Location: "nonexistent.json"},
		},
		Fields: config.Fields{
			Region:     "RegionName",
			Date:       "Obs_Date",
			Set:        "set",
			DateFormat: "%Y-%m-%d",
		},
	}

	p := New(cfg, WithBaseDir("testdata"))
	require.NoError(t, p.LoadAll(context.Background()))

	r := p.Report()
	require.Len(t, r.Sources, 2)

	zillow := r.Sources[0]
	assert.Equal(t, "zillow", zillow.ID)
	assert.Equal(t, 4, zillow.Records)
	assert.Empty(t, zillow.Error)
	assert.Equal(t, []string{"Billings, MT", "UnitedStates"}, zillow.Regions)
	assert.Equal(t, []string{"zhvi", "inventory"}, zillow.Sets)

	require.NotNil(t, zillow.Dates)
	assert.Equal(t, "2020-12-31", zillow.Dates.First)
	assert.Equal(t, "2021-03-31", zillow.Dates.Last)

	require.Len(t, zillow.Fields, 2)
	trend := zillow.Fields[0]
	assert.Equal(t, "trend", trend.Field)
	assert.Equal(t, 3, trend.Count)
	assert.Equal(t, 1, trend.Nulls)
	assert.InDelta(t, 85.0, trend.Min, 1e-9)
	assert.InDelta(t, 105.0, trend.Max, 1e-9)

	value := zillow.Fields[1]
	assert.Equal(t, "value", value.Field)
	assert.Equal(t, 4, value.Count)
	assert.InDelta(t, 80.0, value.Min, 1e-9)
	assert.InDelta(t, 110.0, value.Max, 1e-9)

	prices := r.Sources[1]
	assert.NotEmpty(t, prices.Error)
	assert.Empty(t, prices.Fields)
}

func testdataPath(name string) string {
	return filepath.Join("testdata", name)
}
