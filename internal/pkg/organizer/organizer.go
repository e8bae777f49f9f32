// Package organizer selects the records of a dashboard and arranges them into charts and tiles.
package organizer

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/model"
)

const daysPerYear = 365

// Organizer rearranges loaded datasets into a configured visualization scenario.
type Organizer struct {
	options

	cfg *config.Config
	l   *slog.Logger
}

// New builds an [Organizer] ready to select and filter loaded records.
func New(cfg *config.Config, opts ...Option) *Organizer {
	return &Organizer{
		options: optionsWithDefaults(opts),
		cfg:     cfg,
		l:       slog.Default().With(slog.String("module", "organizer")),
	}
}

// Selection yields the region and start year applied by this organizer.
func (v *Organizer) Selection() config.Selection {
	return v.selection(v.cfg.Selection)
}

// Scenarize a set of loaded datasets into a visualization [model.Scenario].
//
// Charts whose source failed to load are kept, with their error, so that a placeholder may be rendered.
func (v *Organizer) Scenarize(datasets []model.Dataset) (*model.Scenario, error) {
	index := make(map[string]model.Dataset, len(datasets))
	for _, ds := range datasets {
		index[ds.ID] = ds
	}

	scenario := &model.Scenario{
		Name:      v.cfg.Name,
		Selection: v.Selection(),
		Charts:    make([]model.ChartData, 0, len(v.cfg.Charts)),
	}

	for _, c := range v.cfg.Charts {
		data, err := v.chartData(c, index)
		if err != nil {
			return nil, err
		}

		scenario.Charts = append(scenario.Charts, data)
	}

	tiles, err := v.tiles(index)
	if err != nil {
		return nil, err
	}
	scenario.Tiles = tiles

	v.l.Info("resolved scenario",
		slog.Int("charts", len(scenario.Charts)),
		slog.Int("tiles", len(scenario.Tiles)),
		slog.String("region", scenario.Selection.Region),
		slog.Int("year", scenario.Selection.Year),
	)

	return scenario, nil
}

func (v *Organizer) chartData(c config.Chart, index map[string]model.Dataset) (model.ChartData, error) {
	data := model.ChartData{Chart: c}

	ds, ok := index[c.Source]
	if !ok {
		data.Err = fmt.Errorf("source %q was not loaded", c.Source)
	} else if ds.Failed() {
		data.Err = ds.Err
	}

	if data.Failed() {
		v.l.Warn("no data for chart", slog.String("chart", c.ID), slog.String("error", data.Err.Error()))
		if v.cfg.IsStrict {
			return data, v.strict(fmt.Errorf("strict requirement not met for chart %q: %w. Stopping here", c.ID, data.Err))
		}

		return data, nil
	}

	records := ds.Records
	if c.Filtered {
		records = v.Select(records)
	}
	records = FilterSets(records, v.cfg.Fields.Set, c.Sets)
	records = FilterRequired(records, c.Require)
	data.Records = records

	if len(records) == 0 {
		v.l.Warn("empty chart", slog.String("chart", c.ID), slog.String("source", c.Source))
		if v.cfg.IsStrict {
			return data, v.strict(fmt.Errorf("strict requirement not met for chart %q: no records selected. Stopping here", c.ID))
		}
	}

	return data, nil
}

func (v *Organizer) tiles(index map[string]model.Dataset) ([]model.Tile, error) {
	items := v.cfg.Tiles.Items
	if len(items) == 0 {
		return nil, nil
	}

	ds, ok := index[v.cfg.Tiles.Source]
	if !ok || ds.Failed() {
		v.l.Warn("no data for tiles", slog.String("source", v.cfg.Tiles.Source))
		if v.cfg.IsStrict {
			return nil, v.strict(fmt.Errorf("strict requirement not met for tiles: source %q unavailable. Stopping here", v.cfg.Tiles.Source))
		}
	}

	selected := v.Select(ds.Records)
	fields := v.cfg.Fields
	pattern := fields.DatePattern()
	tiles := make([]model.Tile, 0, len(items))

	for _, item := range items {
		records := FilterSets(selected, fields.Set, []string{item.Set})
		change, recent, lastYear := YearOverYear(records, fields.Date, pattern, v.cfg.Tiles.Field)
		tile := model.Tile{
			Set:      item.Set,
			Title:    item.Title,
			Change:   change,
			Recent:   recent,
			LastYear: lastYear,
		}

		if tile.Valid() {
			tile.Color = v.tileColor(change)
		} else {
			v.l.Warn("no year-over-year change for tile", slog.String("set", item.Set), slog.Int("records", len(records)))
		}

		tiles = append(tiles, tile)
	}

	return tiles, nil
}

func (v *Organizer) strict(err error) error {
	v.l.Error("strict requirement not met", slog.String("error", err.Error()))

	return err
}

// Select keeps the records matching the region and with a date in or after the start year.
//
// An empty region does not filter on region.
func (v *Organizer) Select(records []model.Record) []model.Record {
	sel := v.Selection()
	fields := v.cfg.Fields
	pattern := fields.DatePattern()
	selected := make([]model.Record, 0, len(records))

	for _, r := range records {
		if sel.Region != "" && r.String(fields.Region) != sel.Region {
			continue
		}

		d := r.Time(fields.Date, pattern)
		if d.IsZero() || d.Year() < sel.Year {
			continue
		}

		selected = append(selected, r)
	}

	return selected
}

// Regions lists the distinct regions found in the records, sorted.
func (v *Organizer) Regions(records []model.Record) []string {
	seen := make(map[string]struct{})
	regions := make([]string, 0)

	for _, r := range records {
		region := r.String(v.cfg.Fields.Region)
		if region == "" {
			continue
		}
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		regions = append(regions, region)
	}

	sort.Strings(regions)

	return regions
}

// Years lists the distinct years of the dates found in the records, in increasing order.
func (v *Organizer) Years(records []model.Record) []int {
	pattern := v.cfg.Fields.DatePattern()
	years := make([]int, 0)

	for _, r := range records {
		d := r.Time(v.cfg.Fields.Date, pattern)
		if d.IsZero() || slices.Contains(years, d.Year()) {
			continue
		}
		years = append(years, d.Year())
	}

	slices.Sort(years)

	return years
}

// FilterSets keeps the records whose set field is one of sets. An empty list keeps all records.
func FilterSets(records []model.Record, field string, sets []string) []model.Record {
	if len(sets) == 0 {
		return records
	}

	filtered := make([]model.Record, 0, len(records))
	for _, r := range records {
		if slices.Contains(sets, r.String(field)) {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// FilterRequired drops the records where any of the fields is null.
func FilterRequired(records []model.Record, fields []string) []model.Record {
	if len(fields) == 0 {
		return records
	}

	filtered := make([]model.Record, 0, len(records))
	for _, r := range records {
		if slices.ContainsFunc(fields, r.IsNull) {
			continue
		}
		filtered = append(filtered, r)
	}

	return filtered
}

// YearOverYear computes the change in percent between the most recent record and the record
// closest to one year (365 days) before it, rounded to one decimal.
//
// On ties, the first record in input order wins. The change is NaN when there are no dated records.
func YearOverYear(records []model.Record, dateField, pattern, valueField string) (change float64, recent, lastYear time.Time) {
	var (
		latest model.Record
		found  bool
	)

	for _, r := range records {
		d := r.Time(dateField, pattern)
		if d.IsZero() {
			continue
		}
		if !found || d.After(recent) {
			latest, recent, found = r, d, true
		}
	}

	if !found {
		return math.NaN(), time.Time{}, time.Time{}
	}

	prior := recent.AddDate(0, 0, -daysPerYear)
	dates := make([]time.Time, len(records))
	for i, r := range records {
		dates[i] = r.Time(dateField, pattern)
	}

	i := chart.Least(len(records), func(i int) float64 {
		if dates[i].IsZero() {
			return math.NaN()
		}

		return math.Abs(dates[i].Sub(prior).Seconds())
	})
	previous := records[i]
	lastYear = dates[i]

	ratio := latest.Float(valueField)/previous.Float(valueField) - 1

	return roundHalfUp(ratio*1000) / 10, recent, lastYear //nolint:mnd // one decimal in percent
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5) //nolint:mnd
}

func defaultTileColor(change float64) string {
	return chart.Sequential{
		Domain: [2]float64{-10, 10},
		Stops:  chart.RdYlGn,
	}.Color(change)
}
