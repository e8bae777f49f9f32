package chart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

var errTimeFormat = errors.New("invalid time format")

const (
	// directives accepted in a pattern
	timeDirectives = "aAbBcCdDeFgGhHIjklmMnpPrRsStTuUVwWxXyYzZ%"
	// padding and case flags, such as in "%-d"
	timeFlags = "-_0^#"
)

// TimeFormat formats times with a strftime-like pattern such as "%b %-d, %Y".
type TimeFormat struct {
	pattern string
}

// ParseTimeFormat checks a strftime-like pattern.
func ParseTimeFormat(pattern string) (TimeFormat, error) {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			continue
		}

		i++
		if i >= len(pattern) {
			return TimeFormat{}, fmt.Errorf("dangling %% in %q: %w", pattern, errTimeFormat)
		}

		if strings.IndexByte(timeFlags, pattern[i]) >= 0 {
			i++
			if i >= len(pattern) {
				return TimeFormat{}, fmt.Errorf("dangling flag in %q: %w", pattern, errTimeFormat)
			}
		}

		if strings.IndexByte(timeDirectives, pattern[i]) < 0 {
			return TimeFormat{}, fmt.Errorf("invalid specifier %c in %q: %w", pattern[i], pattern, errTimeFormat)
		}
	}

	return TimeFormat{pattern: pattern}, nil
}

// MustTimeFormat is like [ParseTimeFormat] but panics on an invalid pattern.
func MustTimeFormat(pattern string) TimeFormat {
	f, err := ParseTimeFormat(pattern)
	if err != nil {
		panic(err)
	}

	return f
}

func (f TimeFormat) String() string {
	return f.pattern
}

// Format renders t in UTC.
func (f TimeFormat) Format(t time.Time) string {
	if t.IsZero() {
		return "Invalid Date"
	}

	return timefmt.Format(t.UTC(), f.pattern)
}

// Parse reads value with the pattern, in UTC.
func (f TimeFormat) Parse(value string) (time.Time, error) {
	t, err := timefmt.ParseInLocation(value, f.pattern, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %q with %q: %w", value, f.pattern, err)
	}

	return t.UTC(), nil
}

// ParseTime parses value with a strftime-like pattern, in UTC.
func ParseTime(pattern, value string) (time.Time, error) {
	f, err := ParseTimeFormat(pattern)
	if err != nil {
		return time.Time{}, err
	}

	return f.Parse(value)
}
