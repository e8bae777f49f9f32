package dashboard

import (
	"time"
)

// Theme constants from go-echarts.
const (
	ThemeRoma = "roma"
)

// Option configures a dashboard [Builder].
type Option func(*options)

type options struct {
	theme    string
	hover    time.Time
	listener Listener
}

// WithTheme sets the go-echarts color theme of the HTML page.
func WithTheme(theme string) Option {
	return func(o *options) {
		if theme != "" {
			o.theme = theme
		}
	}
}

// WithHover moves the pointer of every chart to the given date once built,
// so SVG outputs show the hover indicators of that date.
func WithHover(date time.Time) Option {
	return func(o *options) {
		o.hover = date
	}
}

// WithListener registers a callback notified of the hover events of all charts.
//
// By default, hover events are logged.
func WithListener(fn Listener) Option {
	return func(o *options) {
		o.listener = fn
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		theme: ThemeRoma,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
