package loader

import (
	"io"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// Option configures a [Loader].
type Option func(*options)

type options struct {
	timeout time.Duration
	baseURL string
	baseDir string
	stdin   io.Reader
	client  *resty.Client
}

// WithTimeout sets the timeout of HTTP requests.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithBaseURL resolves relative source locations against a base URL instead of the file system.
func WithBaseURL(base string) Option {
	return func(o *options) {
		o.baseURL = base
	}
}

// WithBaseDir resolves relative file locations against a directory, usually the one holding
// the configuration file.
func WithBaseDir(dir string) Option {
	return func(o *options) {
		o.baseDir = dir
	}
}

// WithStdin sets the reader used for the "-" location. It defaults to [os.Stdin].
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		o.stdin = r
	}
}

// WithClient sets the HTTP client used for remote locations.
func WithClient(client *resty.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		timeout: defaultTimeout,
		stdin:   os.Stdin,
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
