// Package model holds the records loaded from data documents and the scenario built from them.
package model

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
)

// Record is one item of the "data" array of a document, as decoded from JSON.
type Record map[string]any

// Float yields the numeric value of field, or NaN when it is missing, null or not numeric.
func (r Record) Float(field string) float64 {
	return chart.AsFloat(r[field])
}

// Time yields the date value of field parsed with a strftime pattern, falling back on ISO
// dates. It returns the zero time when the field is missing or unparsable.
func (r Record) Time(field, pattern string) time.Time {
	v, ok := r[field]
	if !ok {
		return time.Time{}
	}

	if s, isString := v.(string); isString && pattern != "" {
		t, err := chart.ParseTime(pattern, s)
		if err == nil {
			return t
		}
	}

	return chart.AsTime(v)
}

// String yields the value of field as a string, the empty string for null.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// IsNull tells if field is missing or null.
func (r Record) IsNull(field string) bool {
	v, ok := r[field]

	return !ok || v == nil
}

// Dataset holds the records loaded from one source.
//
// When loading failed, Err is set and Records is empty.
type Dataset struct {
	ID       string
	Location string
	Records  []Record
	Err      error
}

// Failed tells if the dataset could not be loaded.
func (d Dataset) Failed() bool {
	return d.Err != nil
}

// Scenario is everything a dashboard page displays for one selection.
type Scenario struct {
	Name      string
	Selection config.Selection
	Charts    []ChartData
	Tiles     []Tile
}

// ChartData holds the records of one chart, after selection and filtering.
//
// Err is set when the source of the chart failed to load.
type ChartData struct {
	Chart   config.Chart
	Records []Record
	Err     error
}

// Failed tells if the data of the chart is unavailable.
func (c ChartData) Failed() bool {
	return c.Err != nil
}

// Tile is the year-over-year change of the last value of a set.
type Tile struct {
	Set      string
	Title    string
	Change   float64
	Color    string
	Recent   time.Time
	LastYear time.Time
}

// Valid tells if the change could be computed.
func (t Tile) Valid() bool {
	return !math.IsNaN(t.Change) && !math.IsInf(t.Change, 0)
}

// Text yields the change as displayed on the tile, e.g. "12.5%".
func (t Tile) Text() string {
	if !t.Valid() {
		return "n/a"
	}

	return strconv.FormatFloat(t.Change, 'f', -1, 64) + "%"
}
