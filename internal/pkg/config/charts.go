package config

import "errors"

// ErrConfig is returned for invalid configurations.
var ErrConfig = errors.New("invalid configuration")

// ChartType identifies a chart variant.
type ChartType string

// Supported chart variants.
const (
	ChartTypeBar       ChartType = "bar"
	ChartTypeDual      ChartType = "dual"
	ChartTypeLineBar   ChartType = "linebar"
	ChartTypeMultiLine ChartType = "multiline"
)

// String returns the chart type as a plain string.
func (t ChartType) String() string {
	return string(t)
}

// IsValid reports whether the chart type is one of the known variants.
func (t ChartType) IsValid() bool {
	switch t {
	case ChartTypeBar, ChartTypeDual, ChartTypeLineBar, ChartTypeMultiLine:
		return true
	default:
		return false
	}
}

// HasBarChannel reports whether the variant draws bars from a channel of their own, on a
// right axis.
func (t ChartType) HasBarChannel() bool {
	return t == ChartTypeDual || t == ChartTypeLineBar
}

// AllChartTypes returns all known chart types.
func AllChartTypes() []ChartType {
	return []ChartType{
		ChartTypeBar,
		ChartTypeDual,
		ChartTypeLineBar,
		ChartTypeMultiLine,
	}
}
