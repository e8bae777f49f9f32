package prepare

import (
	"math"
	"time"
)

// cadence is the sampling frequency of a series.
type cadence int

const (
	monthly cadence = iota
	weekly
)

// seasonal periods, in samples
const (
	monthlyPeriod = 12
	weeklyPeriod  = 52
)

const (
	daysPerWeek = 7
	week        = daysPerWeek * 24 * time.Hour
)

// point is one sample of a regular series.
type point struct {
	date  time.Time
	value float64
	trend float64
}

// trendSeries puts the observations of one region, sorted by date, on a regular calendar and
// extracts their trend.
//
// Weekly series are sampled on Sundays, each taking the next observation. Monthly series are
// sampled at month ends, each taking the last observation.
func trendSeries(observations []observation) []point {
	if len(observations) == 0 {
		return nil
	}

	c, period := monthly, monthlyPeriod
	if len(observations) > 1 && observations[1].date.Sub(observations[0].date) == week {
		c, period = weekly, weeklyPeriod
	}

	points := resample(observations, c)
	values := make([]float64, len(points))
	for i, pt := range points {
		values[i] = pt.value
	}

	trend := centeredTrend(values, period)
	for i := range points {
		if isFinite(points[i].value) {
			points[i].trend = trend[i]
		} else {
			points[i].trend = math.NaN()
		}
	}

	return points
}

// calendar yields the sampling dates between first and last, included.
func calendar(first, last time.Time, c cadence) []time.Time {
	var dates []time.Time

	switch c {
	case weekly:
		d := first.AddDate(0, 0, (daysPerWeek-int(first.Weekday()))%daysPerWeek)
		for ; !d.After(last); d = d.AddDate(0, 0, daysPerWeek) {
			dates = append(dates, d)
		}
	default:
		for d := monthEnd(first); !d.After(last); d = monthEnd(d.AddDate(0, 0, 1)) {
			dates = append(dates, d)
		}
	}

	return dates
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

func resample(observations []observation, c cadence) []point {
	dates := calendar(observations[0].date, observations[len(observations)-1].date, c)
	points := make([]point, len(dates))

	j := 0
	for i, d := range dates {
		v := math.NaN()

		switch c {
		case weekly:
			for j < len(observations) && observations[j].date.Before(d) {
				j++
			}
			if j < len(observations) {
				v = observations[j].value
			}
		default:
			for j+1 < len(observations) && !observations[j+1].date.After(d) {
				j++
			}
			if !observations[j].date.After(d) {
				v = observations[j].value
			}
		}

		points[i] = point{date: d, value: v}
	}

	return points
}

// centeredTrend is the trend component of an additive seasonal decomposition: a moving average
// over one period centered on each sample, weighted 1/2 at both ends for an even period.
//
// Samples without a full window are NaN. So is every sample of a series shorter than two
// periods or with missing values.
func centeredTrend(values []float64, period int) []float64 {
	trend := make([]float64, len(values))
	for i := range trend {
		trend[i] = math.NaN()
	}

	if period < 2 || len(values) < 2*period {
		return trend
	}
	for _, v := range values {
		if !isFinite(v) {
			return trend
		}
	}

	weights := make([]float64, period)
	for i := range weights {
		weights[i] = 1 / float64(period)
	}
	if period%2 == 0 {
		weights = append(weights, 0)
		weights[0] /= 2
		weights[period] = weights[0]
	}

	half := len(weights) / 2
	for i := half; i < len(values)-half; i++ {
		var sum float64
		for k, w := range weights {
			sum += w * values[i-half+k]
		}
		trend[i] = sum
	}

	return trend
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
