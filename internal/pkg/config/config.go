package config

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fredbi/housingviz/internal/pkg/chart"
)

//go:embed default_config.yaml
var efs embed.FS

// Config holds the configuration for housingviz.
type Config struct {
	Name      string
	IsStrict  bool   `mapstructure:"-"`
	Outputs   Output `mapstructure:"-"`
	Env       Env    `mapstructure:"-"`
	Render    Rendering
	Fields    Fields
	Selection Selection
	Sources   []Source
	Charts    []Chart
	Tiles     Tiles
	Prepare   Preparation

	sourceIndex map[string]Source
	chartIndex  map[string]Chart
}

// GetSource retrieves a data source definition by its ID.
func (c Config) GetSource(id string) (Source, bool) {
	v, ok := c.sourceIndex[id]

	return v, ok
}

// GetChart retrieves a chart definition by its ID.
func (c Config) GetChart(id string) (Chart, bool) {
	v, ok := c.chartIndex[id]

	return v, ok
}

// SetLocation overrides the location of a data source.
func (c *Config) SetLocation(id, location string) error {
	for i, source := range c.Sources {
		if source.ID != id {
			continue
		}

		source.Location = location
		c.Sources[i] = source
		c.sourceIndex[id] = source

		return nil
	}

	return fmt.Errorf("unknown source %q: %w", id, ErrConfig)
}

// EncodeYAML serializes a [Config] to YAML into the provided writer.
//
// Runtime-only fields (IsStrict, Outputs, Env) are excluded from the output.
func (c *Config) EncodeYAML(w io.Writer) error {
	var raw map[string]any

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Squash: true,
		Deep:   true,
		Result: &raw,
	})
	if err != nil {
		return fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decoding config to map: %w", err)
	}

	return yaml.NewEncoder(w).Encode(raw)
}

// Rendering holds page-level rendering settings.
type Rendering struct {
	Title      string
	Theme      string
	Width      float64
	Height     float64
	Margins    Margins
	Screenshot Screenshot
}

// Margins around the plot area of a chart, in pixels.
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// IsZero tells if no margin is set.
func (m Margins) IsZero() bool {
	return m == Margins{}
}

// Screenshot configures the headless Chrome screenshot used for PNG rendering.
type Screenshot struct {
	Height int64
	Width  int64
	Sleep  string
}

// SleepDuration parses the Sleep field as a [time.Duration].
func (s Screenshot) SleepDuration() time.Duration {
	d, err := time.ParseDuration(s.Sleep)
	if d == 0 || err != nil {
		return 0
	}

	return d
}

// Fields names the record fields used to select and group records.
type Fields struct {
	Region string
	Date   string
	Set    string
	// DateFormat is the strftime-like pattern of dates in the data, e.g. "%Y-%m-%d".
	DateFormat string
}

const isoDatePattern = "%Y-%m-%d"

// DatePattern yields DateFormat, or the ISO date pattern when DateFormat is invalid.
func (f Fields) DatePattern() string {
	if _, err := chart.ParseTimeFormat(f.DateFormat); err != nil || f.DateFormat == "" {
		return isoDatePattern
	}

	return f.DateFormat
}

// Selection is the default region and start year applied to filtered charts and tiles.
type Selection struct {
	Region string
	Year   int
}

// Output holds the resolved output locations.
type Output struct {
	HTMLFile  string
	PngFile   string
	SVGDir    string
	RasterDir string
	IsTemp    bool
	// Hover, when set, renders SVG charts with the hover indicators on this date.
	Hover time.Time
}

// Source is a JSON document holding records under a top-level "data" key.
type Source struct {
	ID       string
	Title    string
	Location string
}

// Chart describes one chart of the dashboard.
type Chart struct {
	ID       string
	Title    string
	Subtitle string
	Type     ChartType
	Source   string
	// Filtered applies the region and year selection to the records of the chart.
	Filtered bool
	// Sets keeps only the records of these sets.
	Sets []string
	// Require drops records where any of these fields is null.
	Require []string
	Fields  ChartFields
	Formats Formats
	Labels  Labels
	Hover   HoverTexts
	Width   float64
	Height  float64
	Margins Margins
	Colors  Colors
	Curve   string
	Keys    []string
}

// ChartFields maps the channels of a chart to record fields.
type ChartFields struct {
	X   string
	Y   string
	Y2  string
	Bar string
	Z   string
}

// Formats holds the number and date format specifiers of a chart.
type Formats struct {
	X     string
	XTick string
	Y     string
	Y2    string
	Bar   string
}

// Labels holds the axis labels of a chart.
type Labels struct {
	Y  string
	Y2 string
}

// HoverTexts holds the prefixes of the hover texts of a chart.
type HoverTexts struct {
	Y   string
	Y2  string
	Bar string
}

// Colors holds the css colors of the channels of a chart.
type Colors struct {
	Y        string
	Y2       string
	Bar      string
	BarHover string
	Series   []string
}

// Tiles configures the year-over-year change tiles, one per set.
type Tiles struct {
	Source string
	Field  string
	Items  []Tile
}

// Tile is one year-over-year change tile.
type Tile struct {
	Set   string
	Title string
}

// Load a configuration file from the local file system.
func Load(file string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	fsys := os.DirFS(filepath.Dir(file))
	pth := filepath.Join(".", filepath.Base(file))

	return load(fsys, pth, cfg)
}

// LoadDefaults loads the default configuration from the embedded default_config.yaml.
func LoadDefaults() (*Config, error) {
	return loadDefaults()
}

// loadDefaults loads the default configuration from embedded FS.
func loadDefaults() (*Config, error) {
	return load(efs, "default_config.yaml", &Config{})
}

func load(fsys fs.FS, file string, cfg *Config) (*Config, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}

	var raw any
	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, err
	}

	err = mapstructure.Decode(raw, cfg)
	if err != nil {
		return nil, err
	}

	// build indices and validate unique IDs
	cfg.sourceIndex = make(map[string]Source, len(cfg.Sources))
	cfg.chartIndex = make(map[string]Chart, len(cfg.Charts))

	if err = cfg.validateSources(); err != nil {
		return nil, err
	}

	if err = cfg.validateCharts(); err != nil {
		return nil, err
	}

	if err = cfg.validateTiles(); err != nil {
		return nil, err
	}

	if err = cfg.validatePrepare(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateSources() error {
	for i, v := range c.Sources {
		if v.ID == "" {
			return fmt.Errorf("invalid sources: empty ID found: sources[%d]: %w", i, ErrConfig)
		}
		if _, ok := c.sourceIndex[v.ID]; ok {
			return fmt.Errorf("invalid sources: duplicate ID key found: %s: %w", v.ID, ErrConfig)
		}
		if v.Location == "" {
			return fmt.Errorf("invalid sources: empty location: sources.%s: %w", v.ID, ErrConfig)
		}
		if v.Title == "" {
			v.Title = titleize(v.ID)
		}

		c.Sources[i] = v
		c.sourceIndex[v.ID] = v
	}

	return nil
}

func (c *Config) validateCharts() (err error) {
	for i, v := range c.Charts {
		v, err = c.validateChart(v, i)
		if err != nil {
			return err
		}

		c.Charts[i] = v
		c.chartIndex[v.ID] = v
	}

	return nil
}

func (c *Config) validateChart(v Chart, i int) (vv Chart, err error) {
	if v.ID == "" {
		return vv, fmt.Errorf("invalid charts: empty ID found: charts[%d]: %w", i, ErrConfig)
	}

	if _, ok := c.chartIndex[v.ID]; ok {
		return vv, fmt.Errorf("invalid charts: duplicate ID key found: %s: %w", v.ID, ErrConfig)
	}

	if !v.Type.IsValid() {
		return vv, fmt.Errorf("invalid chart: invalid type charts.%s.type=%q (should be one of %v): %w", v.ID, v.Type, AllChartTypes(), ErrConfig)
	}

	if _, ok := c.sourceIndex[v.Source]; !ok {
		return vv, fmt.Errorf("invalid chart: source ID not found charts.%s.source=%s: %w", v.ID, v.Source, ErrConfig)
	}

	if v.Title == "" {
		v.Title = titleize(v.ID)
	}

	if v.Curve != "" {
		if _, ok := chart.CurveByName(v.Curve); !ok {
			return vv, fmt.Errorf("invalid chart: unknown curve charts.%s.curve=%s: %w", v.ID, v.Curve, ErrConfig)
		}
	}

	if v.Fields.X == "" {
		v.Fields.X = c.Fields.Date
	}

	if v.Fields.Y == "" {
		return vv, fmt.Errorf("invalid chart: missing y field charts.%s.fields.y: %w", v.ID, ErrConfig)
	}

	if v.Type == ChartTypeMultiLine && v.Fields.Z == "" {
		v.Fields.Z = c.Fields.Set
	}

	if v.Type.HasBarChannel() && v.Fields.Bar == "" {
		return vv, fmt.Errorf("invalid chart: missing bar field charts.%s.fields.bar: %w", v.ID, ErrConfig)
	}

	if v.Type == ChartTypeDual && v.Fields.Y2 == "" {
		return vv, fmt.Errorf("invalid chart: missing y2 field charts.%s.fields.y2: %w", v.ID, ErrConfig)
	}

	for _, spec := range []string{v.Formats.Y, v.Formats.Y2, v.Formats.Bar} {
		if _, err := chart.ParseNumberFormat(spec); err != nil {
			return vv, fmt.Errorf("invalid chart: charts.%s.formats: %w", v.ID, err)
		}
	}

	for _, pattern := range []string{v.Formats.X, v.Formats.XTick} {
		if _, err := chart.ParseTimeFormat(pattern); err != nil {
			return vv, fmt.Errorf("invalid chart: charts.%s.formats: %w", v.ID, err)
		}
	}

	if v.Width <= 0 {
		v.Width = c.Render.Width
	}

	if v.Height <= 0 {
		v.Height = c.Render.Height
	}

	if v.Margins.IsZero() {
		v.Margins = c.Render.Margins
	}

	return v, nil
}

func (c *Config) validateTiles() error {
	if len(c.Tiles.Items) == 0 {
		return nil
	}

	if _, ok := c.sourceIndex[c.Tiles.Source]; !ok {
		return fmt.Errorf("invalid tiles: source ID not found tiles.source=%s: %w", c.Tiles.Source, ErrConfig)
	}

	if c.Tiles.Field == "" {
		c.Tiles.Field = "value"
	}

	seen := make([]string, 0, len(c.Tiles.Items))
	for i, tile := range c.Tiles.Items {
		if tile.Set == "" {
			return fmt.Errorf("invalid tiles: empty set found: tiles.items[%d]: %w", i, ErrConfig)
		}

		if slices.Contains(seen, tile.Set) {
			return fmt.Errorf("invalid tiles: duplicate set found: %s: %w", tile.Set, ErrConfig)
		}
		seen = append(seen, tile.Set)

		if tile.Title == "" {
			tile.Title = titleize(tile.Set)
		}

		c.Tiles.Items[i] = tile
	}

	return nil
}

type str interface {
	~string
}

func titleize[T str](in T) string {
	caser := cases.Title(language.English, cases.NoLower) // the case is stateful: cannot declare it globally

	return caser.String(strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		default:
			return r
		}
	}, string(in),
	))
}
