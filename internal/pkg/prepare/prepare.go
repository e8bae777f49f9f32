// Package prepare converts raw Zillow and FRED CSV exports into the JSON documents read by the
// data sources.
package prepare

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fredbi/housingviz/internal/pkg/config"
	"github.com/fredbi/housingviz/internal/pkg/model"
)

// ErrPrepare is returned when an input cannot be converted.
var ErrPrepare = errors.New("failed to prepare data")

// Preparer runs the preparation jobs of a [config.Config].
type Preparer struct {
	options

	config *config.Config
	l      *slog.Logger
}

// New [Preparer] for the jobs of a configuration.
func New(cfg *config.Config, opts ...Option) *Preparer {
	return &Preparer{
		options: optionsWithDefaults(opts),
		config:  cfg,
		l:       slog.Default().With(slog.String("module", "prepare")),
	}
}

// Run executes every job and writes its document to the output directory.
//
// It yields the files written.
func (p *Preparer) Run(ctx context.Context) ([]string, error) {
	jobs := p.config.Prepare.Jobs
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no preparation job configured: %w", ErrPrepare)
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil { //nolint:mnd,gosec // ordinary output directory
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	written := make([]string, 0, len(jobs))
	for _, job := range jobs {
		records, err := p.Job(ctx, job)
		if err != nil {
			return written, fmt.Errorf("preparing %s: %w", job.Output, err)
		}

		file := job.Output
		if !filepath.IsAbs(file) {
			file = filepath.Join(p.outputDir, file)
		}

		if err := writeDocument(file, records); err != nil {
			return written, err
		}

		p.l.Info("prepared data written",
			slog.String("file", file),
			slog.String("layout", job.Layout.String()),
			slog.Int("records", len(records)),
		)
		written = append(written, file)
	}

	return written, nil
}

// Job builds the records of one job.
func (p *Preparer) Job(ctx context.Context, job config.PrepareJob) ([]model.Record, error) {
	switch job.Layout {
	case config.PrepareLayoutFRED:
		return p.fred(ctx, job.Inputs)
	case config.PrepareLayoutColumns:
		return p.zillow(ctx, job.Inputs, false)
	default:
		return p.zillow(ctx, job.Inputs, true)
	}
}

// Export writes records as a JSON document with a top-level "data" array.
func Export(w io.Writer, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")

	doc := struct {
		Data []model.Record `json:"data"`
	}{
		Data: records,
	}

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	return nil
}

func writeDocument(file string, records []model.Record) error {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("opening JSON file for writing: %q: %w", file, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Export(f, records)
}

// readCSV reads a whole CSV input, local or remote.
func (p *Preparer) readCSV(ctx context.Context, file string) (header []string, rows [][]string, err error) {
	content, err := p.read(ctx, file)
	if err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV %q: %w", file, err)
	}

	if len(all) == 0 {
		return nil, nil, fmt.Errorf("empty CSV %q: %w", file, ErrPrepare)
	}

	return all[0], all[1:], nil
}

func (p *Preparer) read(ctx context.Context, file string) ([]byte, error) {
	if strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://") {
		resp, err := p.client.R().SetContext(ctx).Get(file)
		if err != nil {
			return nil, fmt.Errorf("fetching %q: %w", file, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("fetching %q: %s: %w", file, resp.Status(), ErrPrepare)
		}

		return resp.Body(), nil
	}

	if !filepath.IsAbs(file) && p.baseDir != "" {
		file = filepath.Join(p.baseDir, file)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}

	return content, nil
}

// cell yields the trimmed value of column i, or the empty string when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

// number parses a CSV value. Blank cells and FRED's "." mark missing values as NaN.
func number(s string) float64 {
	if s == "" || s == "." {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}

	return v
}

// nullable turns NaN into a JSON null.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return v
}
