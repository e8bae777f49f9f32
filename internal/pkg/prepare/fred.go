package prepare

import (
	"context"
	"fmt"
	"slices"

	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/model"
)

const percent = 100

// fred joins FRED series on their date. Each input has a date column and a value column in
// percent, renamed after its set and converted to a fraction.
//
// Dates missing from a series yield null values. Records are sorted by date.
func (p *Preparer) fred(ctx context.Context, inputs []config.PrepareInput) ([]model.Record, error) {
	var dateColumn string
	byDate := make(map[string]model.Record)
	sets := make([]string, 0, len(inputs))

	for _, input := range inputs {
		header, rows, err := p.readCSV(ctx, input.File)
		if err != nil {
			return nil, err
		}

		if len(header) < 2 { //nolint:mnd // date and value
			return nil, fmt.Errorf("expected a date and a value column in %q: %w", input.File, ErrPrepare)
		}

		if dateColumn == "" {
			dateColumn = header[0]
		}
		sets = append(sets, input.Set)

		for _, row := range rows {
			date := cell(row, 0)
			if date == "" {
				continue
			}

			record, ok := byDate[date]
			if !ok {
				record = model.Record{dateColumn: date}
				byDate[date] = record
			}

			record[input.Set] = nullable(number(cell(row, 1)) / percent)
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	slices.Sort(dates)

	records := make([]model.Record, 0, len(dates))
	for _, date := range dates {
		record := byDate[date]
		for _, set := range sets {
			if _, ok := record[set]; !ok {
				record[set] = nil
			}
		}
		records = append(records, record)
	}

	return records, nil
}
