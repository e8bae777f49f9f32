package prepare

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/model"
)

// Zillow export columns.
const (
	regionColumn     = "RegionName"
	stateColumn      = "StateName"
	regionTypeColumn = "RegionType"
	dateField        = "Obs_Date"
	metroRegionType  = "msa"
)

var dateFormat = chart.MustTimeFormat("%Y-%m-%d")

// observation is one value of a region at a date, after the wide-to-long conversion.
type observation struct {
	region string
	state  string
	date   time.Time
	value  float64
}

// zillow converts wide Zillow exports. Rows appends the inputs with a set field; otherwise
// the inputs are joined on region and date.
func (p *Preparer) zillow(ctx context.Context, inputs []config.PrepareInput, rows bool) ([]model.Record, error) {
	var out []model.Record

	for i, input := range inputs {
		observations, err := p.readZillow(ctx, input.File)
		if err != nil {
			return nil, err
		}

		records := p.longRecords(observations, input.Set)
		p.l.Debug("input converted",
			slog.String("file", input.File),
			slog.String("set", input.Set),
			slog.Int("records", len(records)),
		)

		switch {
		case rows:
			out = append(out, records...)
		case i == 0:
			out = asColumns(records, input.Set)
		default:
			out = joinColumns(out, asColumns(records, input.Set))
		}
	}

	return out, nil
}

// readZillow reads a wide export, one row per region and one column per date, into observations
// sorted by region then date.
//
// Only the regions of the configured state and the country are kept. Regions other than metro
// areas get the state appended to their name.
func (p *Preparer) readZillow(ctx context.Context, file string) ([]observation, error) {
	header, rows, err := p.readCSV(ctx, file)
	if err != nil {
		return nil, err
	}

	minDate, maxDate, err := p.config.Prepare.Bounds()
	if err != nil {
		return nil, err
	}

	regionCol := slices.Index(header, regionColumn)
	if regionCol < 0 {
		return nil, fmt.Errorf("no %s column in %q: %w", regionColumn, file, ErrPrepare)
	}
	stateCol := slices.Index(header, stateColumn)
	typeCol := slices.Index(header, regionTypeColumn)

	type dateColumn struct {
		index int
		date  time.Time
	}

	var columns []dateColumn
	for i, name := range header {
		if !strings.Contains(name, "-") {
			continue
		}

		d, err := dateFormat.Parse(name)
		if err != nil {
			continue
		}

		if (!minDate.IsZero() && d.Before(minDate)) || (!maxDate.IsZero() && !d.Before(maxDate)) {
			continue
		}

		columns = append(columns, dateColumn{index: i, date: d})
	}

	prep := p.config.Prepare
	var observations []observation

	for _, row := range rows {
		region, state := cell(row, regionCol), cell(row, stateCol)
		if (prep.State == "" || state != prep.State) && region != prep.Country {
			continue
		}

		if state != "" && !strings.EqualFold(cell(row, typeCol), metroRegionType) && !strings.HasSuffix(region, ", "+state) {
			region += ", " + state
		}

		for _, column := range columns {
			v := number(cell(row, column.index))
			if !isFinite(v) {
				continue
			}

			observations = append(observations, observation{
				region: region,
				state:  state,
				date:   column.date,
				value:  v,
			})
		}
	}

	slices.SortStableFunc(observations, func(a, b observation) int {
		return cmp.Or(strings.Compare(a.region, b.region), a.date.Compare(b.date))
	})

	return observations, nil
}

// longRecords resamples the observations of each region and adds their trend.
func (p *Preparer) longRecords(observations []observation, set string) []model.Record {
	var records []model.Record

	for start := 0; start < len(observations); {
		end := start + 1
		for end < len(observations) && observations[end].region == observations[start].region {
			end++
		}

		group := observations[start:end]
		for _, pt := range trendSeries(group) {
			records = append(records, model.Record{
				regionColumn: group[0].region,
				stateColumn:  group[0].state,
				dateField:    dateFormat.Format(pt.date),
				"value":      nullable(pt.value),
				"trend":      nullable(pt.trend),
				"set":        set,
			})
		}

		start = end
	}

	return records
}

// asColumns renames value and trend after the set, keeping the join keys.
func asColumns(records []model.Record, set string) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		column := model.Record{
			regionColumn: r[regionColumn],
			dateField:    r[dateField],
		}
		column["value_"+set] = r["value"]
		column["trend_"+set] = r["trend"]
		out = append(out, column)
	}

	return out
}

// joinColumns keeps the records of left matching a record of right on region and date, in the
// order of left, with the fields of both.
func joinColumns(left, right []model.Record) []model.Record {
	key := func(r model.Record) string {
		return r.String(regionColumn) + "\x00" + r.String(dateField)
	}

	index := make(map[string]model.Record, len(right))
	for _, r := range right {
		index[key(r)] = r
	}

	out := make([]model.Record, 0, len(left))
	for _, l := range left {
		r, ok := index[key(l)]
		if !ok {
			continue
		}

		merged := make(model.Record, len(l)+len(r))
		maps.Copy(merged, l)
		maps.Copy(merged, r)
		out = append(out, merged)
	}

	return out
}
