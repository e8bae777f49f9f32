package config

import (
	"fmt"
	"slices"
	"time"
)

// PrepareLayout tells how the CSV inputs of a preparation job are combined.
type PrepareLayout string

const (
	// PrepareLayoutRows appends the records of every input, tagged with their set.
	PrepareLayoutRows PrepareLayout = "rows"
	// PrepareLayoutColumns joins the inputs on region and date, with value_<set> and trend_<set> fields.
	PrepareLayoutColumns PrepareLayout = "columns"
	// PrepareLayoutFRED joins two-column FRED series on their date, as fractions.
	PrepareLayoutFRED PrepareLayout = "fred"
)

func (l PrepareLayout) String() string {
	return string(l)
}

// IsValid tells if the layout is known.
func (l PrepareLayout) IsValid() bool {
	return slices.Contains(AllPrepareLayouts(), l)
}

// AllPrepareLayouts lists the known preparation layouts.
func AllPrepareLayouts() []PrepareLayout {
	return []PrepareLayout{
		PrepareLayoutRows,
		PrepareLayoutColumns,
		PrepareLayoutFRED,
	}
}

// Preparation converts raw Zillow and FRED CSV exports into the JSON documents read by the sources.
type Preparation struct {
	// MinDate and MaxDate bound the date columns kept from Zillow exports, MaxDate excluded.
	MinDate string
	MaxDate string
	// State keeps the regions of this state, along with Country.
	State   string
	Country string
	Jobs    []PrepareJob
}

// PrepareJob produces one JSON document from a list of CSV files.
type PrepareJob struct {
	Output string
	Layout PrepareLayout
	Inputs []PrepareInput
}

// PrepareInput is one CSV file and the set its values belong to.
type PrepareInput struct {
	File string
	Set  string
}

// Bounds parses MinDate and MaxDate. A blank bound is zero.
func (p Preparation) Bounds() (minDate, maxDate time.Time, err error) {
	if p.MinDate != "" {
		if minDate, err = time.Parse(time.DateOnly, p.MinDate); err != nil {
			return minDate, maxDate, fmt.Errorf("invalid minDate %q: %w", p.MinDate, ErrConfig)
		}
	}

	if p.MaxDate != "" {
		if maxDate, err = time.Parse(time.DateOnly, p.MaxDate); err != nil {
			return minDate, maxDate, fmt.Errorf("invalid maxDate %q: %w", p.MaxDate, ErrConfig)
		}
	}

	return minDate, maxDate, nil
}

func (c *Config) validatePrepare() error {
	if _, _, err := c.Prepare.Bounds(); err != nil {
		return fmt.Errorf("invalid prepare: %w", err)
	}

	for i, job := range c.Prepare.Jobs {
		if job.Output == "" {
			return fmt.Errorf("invalid prepare: empty output: prepare.jobs[%d]: %w", i, ErrConfig)
		}

		if job.Layout == "" {
			job.Layout = PrepareLayoutRows
		}
		if !job.Layout.IsValid() {
			return fmt.Errorf("invalid prepare: unknown layout %q: prepare.jobs[%d]: %w", job.Layout, i, ErrConfig)
		}

		if len(job.Inputs) == 0 {
			return fmt.Errorf("invalid prepare: no inputs: prepare.jobs[%d]: %w", i, ErrConfig)
		}

		for j, input := range job.Inputs {
			if input.File == "" || input.Set == "" {
				return fmt.Errorf("invalid prepare: file and set are required: prepare.jobs[%d].inputs[%d]: %w", i, j, ErrConfig)
			}
		}

		c.Prepare.Jobs[i] = job
	}

	return nil
}
