package prepare

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// Option configures a [Preparer].
type Option func(*options)

type options struct {
	baseDir   string
	outputDir string
	timeout   time.Duration
	client    *resty.Client
}

// WithBaseDir resolves relative input files against a directory, usually the one holding
// the configuration file.
func WithBaseDir(dir string) Option {
	return func(o *options) {
		o.baseDir = dir
	}
}

// WithOutputDir sets the directory receiving the prepared documents.
//
// Defaults to the current directory.
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.outputDir = dir
	}
}

// WithTimeout sets the timeout of HTTP requests for remote inputs.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithClient sets the HTTP client used for remote inputs.
func WithClient(client *resty.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		outputDir: ".",
		timeout:   defaultTimeout,
	}

	for _, apply := range opts {
		apply(&o)
	}

	if o.client == nil {
		o.client = resty.New()
	}
	o.client.SetTimeout(o.timeout)

	return o
}
