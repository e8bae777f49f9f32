// Package cmd owns the implementation details of the CLI command.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fredbi/housingviz/internal/pkg/chart"
	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/dashboard"
	"github.com/fredbi/housingviz/internal/pkg/image"
	"github.com/fredbi/housingviz/internal/pkg/loader"
	"github.com/fredbi/housingviz/internal/pkg/organizer"
	"github.com/fredbi/housingviz/internal/pkg/prepare"
)

const (
	defaultConfig = "housingviz.yaml"
	stdio         = "-"
	noYear        = -1
)

// Command holds command line flags and executes the housingviz command.
//
// It knows how to load a configuration file in a [config.Config] and manage CLI flag configuration overrides.
//
// The main purpose of this package is to deal with io's: opening and closing files.
//
// Arguments of the form id=location override the location of the data source with that ID.
type Command struct {
	Config     string
	OutputFile string
	SVGDir     string
	RasterDir  string
	PrepareDir string
	Region     string
	Year       int
	Hover      string
	Report     bool
	Png        bool
	Strict     bool
	L          *slog.Logger

	// Out receives the outputs sent to standard output.
	Out io.Writer

	flags *flag.FlagSet
	env   config.Env
}

// NewCommand builds a CLI command with registered flags and an injected logger.
func NewCommand() *Command {
	// inject a structured logger
	cli := &Command{
		L:     slog.Default().With(slog.String("module", "main")),
		Out:   os.Stdout,
		flags: flag.NewFlagSet("housingviz", flag.ContinueOnError),
	}

	cli.registerFlags()

	return cli
}

// Parse command line flags and arguments.
//
// If no argument is passed, command line arguments (i.e. [os.Args]) are used.
func (c *Command) Parse(args ...string) error {
	if args == nil {
		args = os.Args[1:]
	}

	return c.flags.Parse(args)
}

// Fatalf logs an error message then exits. The output is spewed on both stderr and the structured logger output.
func (c *Command) Fatalf(err error) {
	c.L.Error(err.Error())
	log.Fatalf("%v", err)
}

// Execute the CLI with flags and extra arguments.
//
// If no argument is passed, the arguments left over by [Command.Parse] are used.
func (c *Command) Execute(ctx context.Context, args ...string) error {
	if args == nil && c.flags != nil { // passing explicit args allows for testing Execute without altering [os.Args]
		args = c.flags.Args()
	}

	env, err := config.LoadEnv(ctx)
	if err != nil {
		return err
	}
	c.env = env
	slog.SetLogLoggerLevel(env.Level())

	cfg, cleanup, err := c.prepareConfig(args)
	if err != nil {
		return err
	}
	defer cleanup()

	if c.PrepareDir != "" {
		// convert raw CSV exports, no rendering
		return c.prepare(ctx, cfg)
	}

	// 1. load data sources
	l := loader.New(cfg,
		loader.WithTimeout(c.env.Timeout),
		loader.WithBaseURL(c.env.DataURL),
		loader.WithBaseDir(filepath.Dir(c.Config)),
	)

	t0 := time.Now()
	if err := l.LoadAll(ctx); err != nil {
		return fmt.Errorf("loading data: %w", err)
	}
	c.L.Info("loaded data sources", slog.Duration("duration", time.Since(t0)))

	if c.Report {
		// just want to report about the content of the data sources
		return c.report(l)
	}

	// 2. select and filter records according to the configuration
	views, builder, err := c.buildViews(cfg, l)
	if err != nil {
		return err
	}

	// 3. standalone outputs: SVG documents and rasterized charts
	if cfg.Outputs.SVGDir != "" {
		if _, err := builder.WriteSVG(cfg.Outputs.SVGDir, views); err != nil {
			return fmt.Errorf("writing SVG charts: %w", err)
		}
	}

	if cfg.Outputs.RasterDir != "" {
		if err := c.rasterize(cfg, views); err != nil {
			return err
		}
	}

	if cfg.Outputs.HTMLFile == "" {
		return nil
	}

	// 4. render the page as HTML, possibly to stdout, possibly to temp file
	page := builder.BuildPage(views)
	htmlWriter, htmlCloser, err := c.getWriter(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}

	if err := page.Render(htmlWriter); err != nil {
		htmlCloser()

		return fmt.Errorf("rendering page: %w", err)
	}

	htmlCloser()

	if cfg.Outputs.PngFile == "" {
		// html only: we're done
		return nil
	}

	// 5. convert the HTML page to a PNG image, possibly to stdout
	return c.screenshot(ctx, cfg)
}

func (c *Command) registerFlags() {
	defaults := Command{
		Config:     "",
		OutputFile: "",
		Year:       noYear,
	}

	c.flags.StringVar(&c.Config, "config", defaults.Config, "config file (defaults to $HOUSINGVIZ_CONFIG, then "+defaultConfig+")")
	c.flags.StringVar(&c.Config, "c", defaults.Config, "config file (shorthand)")
	c.flags.StringVar(&c.OutputFile, "output", defaults.OutputFile, "HTML file output or - for standard output")
	c.flags.StringVar(&c.OutputFile, "o", defaults.OutputFile, "HTML file output or - for standard output (shorthand)")
	c.flags.StringVar(&c.SVGDir, "svg", defaults.SVGDir, "directory to write one SVG document per chart")
	c.flags.StringVar(&c.RasterDir, "raster", defaults.RasterDir, "directory to write one PNG image per chart, without a browser")
	c.flags.StringVar(&c.PrepareDir, "prepare", defaults.PrepareDir, "directory to write the JSON documents prepared from the configured CSV exports, no rendering")
	c.flags.StringVar(&c.Region, "region", defaults.Region, "selected region, overriding the configuration")
	c.flags.IntVar(&c.Year, "year", defaults.Year, "selected start year, overriding the configuration")
	c.flags.StringVar(&c.Hover, "hover", defaults.Hover, "render SVG charts with the pointer on this date, e.g. 2021-06-30")
	c.flags.BoolVar(&c.Report, "r", defaults.Report, "report data sources contents only, no rendering (shorthand)")
	c.flags.BoolVar(&c.Report, "report", defaults.Report, "report data sources contents only")
	c.flags.BoolVar(&c.Png, "png", defaults.Png, "enable PNG screenshot output of the HTML page")
	c.flags.BoolVar(&c.Strict, "strict", defaults.Strict, "fail on unavailable data instead of rendering placeholders")
}

func (c *Command) prepareConfig(args []string) (cfg *config.Config, cleanup func(), err error) {
	if c.Config == "" {
		c.Config = c.env.Config
	}
	if c.Config == "" {
		c.Config = defaultConfig
	}

	cfg, err = config.Load(c.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err = c.setLocations(cfg, args); err != nil {
		return nil, nil, fmt.Errorf("preparing config: %w", err)
	}

	if err = c.setConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("preparing config: %w", err)
	}

	if cfg.Outputs.IsTemp && !c.Report && c.PrepareDir == "" {
		cleanup = func() {
			_ = os.Remove(cfg.Outputs.HTMLFile)
		}

		return cfg, cleanup, err
	}

	return cfg, func() {}, err
}

// setLocations applies id=location arguments to the data sources.
func (c *Command) setLocations(cfg *config.Config, args []string) error {
	for _, arg := range args {
		id, location, ok := strings.Cut(arg, "=")
		if !ok || id == "" || location == "" {
			return fmt.Errorf("invalid argument %q: expected id=location: %w", arg, config.ErrConfig)
		}

		if location != stdio && !strings.Contains(location, "://") && !filepath.IsAbs(location) {
			// relative to the working directory, not to the config file
			abs, err := filepath.Abs(location)
			if err != nil {
				return fmt.Errorf("invalid location %q: %w", location, err)
			}
			location = abs
		}

		if err := cfg.SetLocation(id, location); err != nil {
			return err
		}

		c.L.Info("data source location overridden", slog.String("source_id", id), slog.String("location", location))
	}

	return nil
}

// apply CLI flags overrides to YAML config.
func (c *Command) setConfig(cfg *config.Config) error {
	cfg.IsStrict = cfg.IsStrict || c.Strict
	cfg.Outputs.SVGDir = c.SVGDir
	cfg.Outputs.RasterDir = c.RasterDir

	if c.Hover != "" {
		hover := chart.ParseDate(c.Hover)
		if hover.IsZero() {
			return fmt.Errorf("invalid hover date %q: %w", c.Hover, config.ErrConfig)
		}
		cfg.Outputs.Hover = hover
	}

	if c.OutputFile != "" && c.OutputFile != stdio {
		// an outfile is defined: infer the PNG file from the HTML file provided
		cfg.Outputs.HTMLFile = inferHTMLFile(c.OutputFile)
		if cfg.Outputs.PngFile == "" && c.Png {
			cfg.Outputs.PngFile = inferImageFile(cfg.Outputs.HTMLFile)
		}
	}

	if c.Report || c.PrepareDir != "" {
		return nil
	}

	hasFileOutput := cfg.Outputs.SVGDir != "" || cfg.Outputs.RasterDir != ""

	switch {
	case c.OutputFile == stdio:
		cfg.Outputs.HTMLFile = stdio
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile == "" && !hasFileOutput:
		c.L.Info("output sent to standard output as HTML, no PNG image rendered")
		if c.Png {
			c.L.Info("set an output file to render a PNG image")
		}
		cfg.Outputs.HTMLFile = stdio
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile != "":
		c.L.Info("HTML generated as a temporary file to produce PNG")
		tmp, err := os.CreateTemp("", "housingviz.*.html")
		if err != nil {
			return err
		}
		cfg.Outputs.HTMLFile = tmp.Name()
		cfg.Outputs.IsTemp = true
		_ = tmp.Close()
	}

	return nil
}

func (c *Command) buildViews(cfg *config.Config, l *loader.Loader) ([]*dashboard.View, *dashboard.Builder, error) {
	opts := []organizer.Option{organizer.WithRegion(c.Region)}
	if c.Year != noYear {
		opts = append(opts, organizer.WithYear(c.Year))
	}

	o := organizer.New(cfg, opts...)
	scenario, err := o.Scenarize(l.Datasets())
	if err != nil {
		return nil, nil, fmt.Errorf("organizing data: %w", err)
	}

	builder := dashboard.New(cfg, scenario,
		dashboard.WithTheme(cfg.Render.Theme),
		dashboard.WithHover(cfg.Outputs.Hover),
	)

	return builder.Build(), builder, nil
}

// rasterize writes one PNG image per chart with data.
func (c *Command) rasterize(cfg *config.Config, views []*dashboard.View) error {
	if err := os.MkdirAll(cfg.Outputs.RasterDir, 0o755); err != nil { //nolint:mnd,gosec // ordinary output directory
		return fmt.Errorf("creating raster output directory: %w", err)
	}

	r := image.NewRasterizer(image.WithWidth(int64(cfg.Render.Width)))
	for _, view := range views {
		if view.Failed() {
			c.L.Warn("chart not rasterized: no data", slog.String("chart_id", view.Chart.ID))

			continue
		}

		file := filepath.Join(cfg.Outputs.RasterDir, view.Chart.ID+".png")
		w, closer, err := c.getWriter(file, "PNG")
		if err != nil {
			return err
		}

		err = r.Rasterize(w, view.Chart, view.Instance.Series)
		closer()

		switch {
		case errors.Is(err, image.ErrNotEnoughData) && !cfg.IsStrict:
			c.L.Warn("chart not rasterized", slog.String("chart_id", view.Chart.ID), slog.String("error", err.Error()))
			_ = os.Remove(file)
		case err != nil:
			return fmt.Errorf("rendering image: %w", err)
		}
	}

	return nil
}

func (c *Command) screenshot(ctx context.Context, cfg *config.Config) error {
	htmlReader, htmlCloser, err := getReader(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}
	defer htmlCloser()

	pngWriter, pngCloser, err := c.getWriter(cfg.Outputs.PngFile, "PNG")
	if err != nil {
		return err
	}
	defer pngCloser()

	shot := cfg.Render.Screenshot
	r := image.New(
		image.WithWidth(shot.Width),
		image.WithHeight(shot.Height),
		image.WithSleep(shot.SleepDuration()),
	)

	if err = r.Render(ctx, pngWriter, htmlReader); err != nil {
		return fmt.Errorf("rendering image: %w", err)
	}

	return nil
}

// prepare converts the CSV exports of the configuration into JSON documents.
func (c *Command) prepare(ctx context.Context, cfg *config.Config) error {
	p := prepare.New(cfg,
		prepare.WithBaseDir(filepath.Dir(c.Config)),
		prepare.WithOutputDir(c.PrepareDir),
		prepare.WithTimeout(c.env.Timeout),
	)

	t0 := time.Now()
	files, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("preparing data: %w", err)
	}
	c.L.Info("prepared data", slog.Int("files", len(files)), slog.Duration("duration", time.Since(t0)))

	return nil
}

// report produces a report that explores the loaded data sources.
func (c *Command) report(l *loader.Loader) error {
	enc := json.NewEncoder(c.stdout())
	enc.SetIndent("", " ")

	return enc.Encode(l.Report())
}

func (c *Command) stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}

	return c.Out
}

func getReader(file, kind string) (rdr *os.File, cleanup func(), err error) {
	rdr, err = os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = rdr.Close()
	}

	return rdr, cleanup, nil
}

func (c *Command) getWriter(file, kind string) (wrt io.Writer, cleanup func(), err error) {
	if file == stdio {
		return c.stdout(), func() {}, nil
	}

	f, err := os.Create(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file for writing: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = f.Close()
	}

	return f, cleanup, nil
}

func inferHTMLFile(base string) string {
	ext := path.Ext(base)
	name, _ := strings.CutSuffix(base, ext)

	return name + ".html"
}

func inferImageFile(base string) string {
	ext := path.Ext(base)
	name, _ := strings.CutSuffix(base, ext)

	return name + ".png"
}
