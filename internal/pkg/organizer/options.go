package organizer

import "github.com/fredbi/housingviz/internal/pkg/config"

// Option configures an [Organizer].
type Option func(*options)

type options struct {
	region    string
	year      int
	hasYear   bool
	tileColor func(float64) string
}

// WithRegion overrides the region of the configured selection.
//
// An empty region leaves the configured one unchanged.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithYear overrides the start year of the configured selection.
func WithYear(year int) Option {
	return func(o *options) {
		o.year = year
		o.hasYear = true
	}
}

// WithTileColor sets the function that colors a tile from its change in percent.
func WithTileColor(fn func(float64) string) Option {
	return func(o *options) {
		if fn != nil {
			o.tileColor = fn
		}
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		tileColor: defaultTileColor,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

func (o options) selection(defaults config.Selection) config.Selection {
	s := defaults
	if o.region != "" {
		s.Region = o.region
	}
	if o.hasYear {
		s.Year = o.year
	}

	return s
}
