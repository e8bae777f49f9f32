package chart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Tuple is a positional record: the first element holds the x value, the second one the y value.
//
// It is the record shape assumed by the default accessors of a [Config].
type Tuple []any

// TimeAccessor maps a record to its x value.
type TimeAccessor[R any] func(R) time.Time

// Accessor maps a record to one numeric channel value.
type Accessor[R any] func(R) float64

// KeyAccessor maps a record to the key of the series it belongs to.
type KeyAccessor[R any] func(R) string

// DefinedFunc overrides the default policy deciding whether the i-th record is drawn.
type DefinedFunc[R any] func(R, int) bool

// Accessors enumerates the channels a chart may read from its records.
//
// X defaults to the first element of a [Tuple], Y, Y2 and Bar default to the second element.
// Z has no default and is only used by [MultiLineChart].
type Accessors[R any] struct {
	X       TimeAccessor[R]
	Y       Accessor[R]
	Y2      Accessor[R]
	Bar     Accessor[R]
	Z       KeyAccessor[R]
	Defined DefinedFunc[R]
}

func (a Accessors[R]) withDefaults() Accessors[R] {
	if a.X == nil {
		a.X = First[R]
	}
	if a.Y == nil {
		a.Y = Second[R]
	}
	if a.Y2 == nil {
		a.Y2 = Second[R]
	}
	if a.Bar == nil {
		a.Bar = Second[R]
	}

	return a
}

// First returns the first element of a positional record as a time.
//
// It returns the zero time when the record is not positional or the element is not a valid date.
func First[R any](r R) time.Time {
	v, ok := element(any(r), 0)
	if !ok {
		return time.Time{}
	}

	return AsTime(v)
}

// Second returns the second element of a positional record as a number.
//
// It returns NaN when the record is not positional or the element is not numeric.
func Second[R any](r R) float64 {
	v, ok := element(any(r), 1)
	if !ok {
		return math.NaN()
	}

	return AsFloat(v)
}

func element(r any, i int) (any, bool) {
	switch t := r.(type) {
	case Tuple:
		if i < len(t) {
			return t[i], true
		}
	case []any:
		if i < len(t) {
			return t[i], true
		}
	case []float64:
		if i < len(t) {
			return t[i], true
		}
	case []string:
		if i < len(t) {
			return t[i], true
		}
	}

	return nil, false
}

// AsFloat converts a loosely typed value (e.g. decoded from JSON) to a float64.
//
// Missing, null and non-numeric values yield NaN.
func AsFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}

		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}

		return f
	default:
		return math.NaN()
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// AsTime converts a loosely typed value to a UTC time.
//
// Strings are parsed as ISO dates, numbers are taken as milliseconds since the epoch.
// Anything else yields the zero time, which charts treat as undefined.
func AsTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case string:
		return ParseDate(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}
		}

		return time.UnixMilli(int64(x)).UTC()
	case int64:
		return time.UnixMilli(x).UTC()
	case int:
		return time.UnixMilli(int64(x)).UTC()
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return time.Time{}
		}

		return time.UnixMilli(n).UTC()
	default:
		return time.Time{}
	}
}

// ParseDate parses a date string with the usual ISO layouts.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}
