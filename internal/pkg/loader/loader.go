// Package loader fetches the JSON data documents of a dashboard, from files, stdin or HTTP.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/model"
)

// FailedMessage is displayed in place of a chart when its data could not be loaded.
const FailedMessage = "Failed to load data!"

var (
	// ErrLoad is returned when a data document cannot be fetched.
	ErrLoad = errors.New("failed to load data")
	// ErrNoData is returned when a document has no "data" array.
	ErrNoData = errors.New(`document has no "data" array`)
)

// Loader loads the data sources declared in a [config.Config].
type Loader struct {
	options

	config   *config.Config
	datasets []model.Dataset
	l        *slog.Logger
}

// New [Loader] ready to load the sources of a configuration.
func New(cfg *config.Config, opts ...Option) *Loader {
	return &Loader{
		options: optionsWithDefaults(opts),
		config:  cfg,
		l:       slog.Default().With(slog.String("module", "loader")),
	}
}

// LoadAll loads every configured source.
//
// A source that fails to load is kept as a failed [model.Dataset] and logged. In strict mode
// the first failure is returned instead.
func (p *Loader) LoadAll(ctx context.Context) error {
	for _, source := range p.config.Sources {
		dataset := p.Load(ctx, source)
		if dataset.Failed() {
			if p.config.IsStrict {
				return dataset.Err
			}

			p.l.Warn("data source failed to load",
				slog.String("source_id", source.ID),
				slog.String("location", dataset.Location),
				slog.String("error", dataset.Err.Error()),
			)
		}

		p.datasets = append(p.datasets, dataset)
	}

	p.l.Info("data sources loaded", slog.Int("sources", len(p.datasets)))

	return nil
}

// Load fetches the records of one source.
func (p *Loader) Load(ctx context.Context, source config.Source) model.Dataset {
	location := p.resolve(source.Location)
	dataset := model.Dataset{
		ID:       source.ID,
		Location: location,
	}

	records, err := p.fetch(ctx, location)
	if err != nil {
		dataset.Err = fmt.Errorf("source %q: %w", source.ID, err)

		return dataset
	}

	dataset.Records = records
	p.l.Debug("data source loaded",
		slog.String("source_id", source.ID),
		slog.Int("records", len(records)),
	)

	return dataset
}

// Datasets yields the datasets loaded so far, in configuration order.
func (p *Loader) Datasets() []model.Dataset {
	return p.datasets
}

// Dataset yields a loaded dataset by source ID.
func (p *Loader) Dataset(id string) (model.Dataset, bool) {
	for _, d := range p.datasets {
		if d.ID == id {
			return d, true
		}
	}

	return model.Dataset{}, false
}

// Decode reads a document with a top-level "data" array of records.
func (p *Loader) Decode(r io.Reader) ([]model.Record, error) {
	var doc struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}

	if len(doc.Data) == 0 || bytes.Equal(doc.Data, []byte("null")) {
		return nil, ErrNoData
	}

	var records []model.Record
	if err := json.Unmarshal(doc.Data, &records); err != nil {
		return nil, fmt.Errorf("decoding data array: %w", err)
	}

	return records, nil
}

func (p *Loader) resolve(location string) string {
	if location == "-" || isRemote(location) || filepath.IsAbs(location) {
		return location
	}

	if p.baseURL != "" {
		base, err := url.Parse(p.baseURL)
		if err == nil {
			ref, err := url.Parse(location)
			if err == nil {
				return base.ResolveReference(ref).String()
			}
		}
	}

	if p.baseDir != "" {
		return filepath.Join(p.baseDir, location)
	}

	return location
}

func (p *Loader) fetch(ctx context.Context, location string) ([]model.Record, error) {
	switch {
	case location == "-":
		return p.Decode(p.stdin)
	case isRemote(location):
		return p.fetchRemote(ctx, location)
	default:
		reader, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("input file %q: %w: %w", location, ErrLoad, err)
		}
		defer func() {
			_ = reader.Close()
		}()

		return p.Decode(reader)
	}
}

func (p *Loader) fetchRemote(ctx context.Context, location string) ([]model.Record, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(location)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w: %w", location, ErrLoad, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("fetching %s: status %d: %w", location, resp.StatusCode(), ErrLoad)
	}

	return p.Decode(bytes.NewReader(resp.Body()))
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// LoadingReport allows to inspect the contents of the loaded sources.
type LoadingReport struct {
	Sources []SourceReport `json:"sources"`
}

// SourceReport summarizes one loaded source.
type SourceReport struct {
	ID       string        `json:"id"`
	Location string        `json:"location"`
	Records  int           `json:"records_count"`
	Error    string        `json:"error,omitempty"`
	Regions  []string      `json:"regions,omitempty"`
	Sets     []string      `json:"sets,omitempty"`
	Dates    *DateRange    `json:"dates,omitempty"`
	Fields   []MinMaxRange `json:"numeric_fields,omitempty"`
}

// DateRange is the first and last date found in a source.
type DateRange struct {
	Field string `json:"field"`
	First string `json:"first"`
	Last  string `json:"last"`
}

// MinMaxRange is the range of values of one numeric field.
type MinMaxRange struct {
	Field string  `json:"field"`
	Count int     `json:"values_count"`
	Nulls int     `json:"nulls_count"`
	Min   float64 `json:"min_value"`
	Max   float64 `json:"max_value"`
}

// Report produces a [LoadingReport], which allows for closer inspection of the loaded data.
func (p *Loader) Report() LoadingReport {
	r := LoadingReport{
		Sources: make([]SourceReport, 0, len(p.datasets)),
	}

	for _, dataset := range p.datasets {
		r.Sources = append(r.Sources, p.reportSource(dataset))
	}

	return r
}

func (p *Loader) reportSource(dataset model.Dataset) SourceReport {
	s := SourceReport{
		ID:       dataset.ID,
		Location: dataset.Location,
		Records:  len(dataset.Records),
	}

	if dataset.Failed() {
		s.Error = dataset.Err.Error()

		return s
	}

	fields := p.config.Fields
	dateField := p.dateField(dataset.ID)
	format := chart.MustTimeFormat(fields.DatePattern())
	seenFields := make(map[string]int)
	var first, last time.Time

	for _, record := range dataset.Records {
		if region := record.String(fields.Region); region != "" && !slices.Contains(s.Regions, region) {
			s.Regions = append(s.Regions, region)
		}

		if set := record.String(fields.Set); set != "" && !slices.Contains(s.Sets, set) {
			s.Sets = append(s.Sets, set)
		}

		if date := record.Time(dateField, format.String()); !date.IsZero() {
			if first.IsZero() || date.Before(first) {
				first = date
			}
			if last.IsZero() || date.After(last) {
				last = date
			}
		}

		for field, value := range record {
			if !isNumeric(value) && value != nil {
				continue
			}

			idx, seen := seenFields[field]
			if !seen {
				idx = len(s.Fields)
				seenFields[field] = idx
				s.Fields = append(s.Fields, MinMaxRange{
					Field: field,
					Min:   math.Inf(1),
					Max:   math.Inf(-1),
				})
			}

			previous := s.Fields[idx]
			if value == nil {
				previous.Nulls++
				s.Fields[idx] = previous

				continue
			}

			v := record.Float(field)
			previous.Min = math.Min(previous.Min, v)
			previous.Max = math.Max(previous.Max, v)
			previous.Count++
			s.Fields[idx] = previous
		}
	}

	if !first.IsZero() {
		s.Dates = &DateRange{Field: dateField, First: format.Format(first), Last: format.Format(last)}
	}

	// drop fields that only ever held nulls, and non-numeric fields seen as null first
	s.Fields = slices.DeleteFunc(s.Fields, func(m MinMaxRange) bool {
		return m.Count == 0
	})
	sort.Slice(s.Fields, func(i, j int) bool {
		return s.Fields[i].Field < s.Fields[j].Field
	})
	sort.Strings(s.Regions)

	return s
}

// dateField yields the x field of the first chart using the source, or the configured date field.
func (p *Loader) dateField(sourceID string) string {
	for _, c := range p.config.Charts {
		if c.Source == sourceID && c.Fields.X != "" {
			return c.Fields.X
		}
	}

	return p.config.Fields.Date
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, json.Number:
		return true
	default:
		return false
	}
}
