package chart

import (
	"math"
	"slices"
	"time"
)

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// ticks yields round values in [start, stop], about count of them.
func ticks(start, stop float64, count int) []float64 {
	if count <= 0 || !isFinite(start) || !isFinite(stop) {
		return nil
	}

	if start == stop {
		return []float64{start}
	}

	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}

	inc := tickIncrement(start, stop, count)
	if inc == 0 || !isFinite(inc) {
		return nil
	}

	var values []float64
	if inc > 0 {
		r0, r1 := math.Round(start/inc), math.Round(stop/inc)
		if r0*inc < start {
			r0++
		}
		if r1*inc > stop {
			r1--
		}
		for i := r0; i <= r1; i++ {
			values = append(values, i*inc)
		}
	} else {
		inc = -inc
		r0, r1 := math.Round(start*inc), math.Round(stop*inc)
		if r0/inc < start {
			r0++
		}
		if r1/inc > stop {
			r1--
		}
		for i := r0; i <= r1; i++ {
			values = append(values, i/inc)
		}
	}

	if reverse {
		slices.Reverse(values)
	}

	return values
}

// tickIncrement yields the tick step when positive, or the inverse of the step when negative.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(1, float64(count))
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}

	if power >= 0 {
		return factor * math.Pow(10, power)
	}

	return -math.Pow(10, -power) / factor
}

// tickStep yields the absolute distance between two consecutive ticks.
func tickStep(start, stop float64, count int) float64 {
	inc := tickIncrement(math.Min(start, stop), math.Max(start, stop), count)
	if inc < 0 {
		return 1 / -inc
	}

	return inc
}

type intervalUnit int

const (
	unitDay intervalUnit = iota
	unitWeek
	unitMonth
	unitYear
)

type interval struct {
	unit   intervalUnit
	step   int
	approx time.Duration
}

const day = 24 * time.Hour

var timeIntervals = []interval{
	{unit: unitDay, step: 1, approx: day},
	{unit: unitDay, step: 2, approx: 2 * day},
	{unit: unitWeek, step: 1, approx: 7 * day},
	{unit: unitMonth, step: 1, approx: 30 * day},
	{unit: unitMonth, step: 3, approx: 91 * day},
	{unit: unitMonth, step: 6, approx: 182 * day},
	{unit: unitYear, step: 1, approx: 365 * day},
	{unit: unitYear, step: 2, approx: 2 * 365 * day},
	{unit: unitYear, step: 5, approx: 5 * 365 * day},
	{unit: unitYear, step: 10, approx: 10 * 365 * day},
}

// floor yields the latest boundary of the interval at or before t.
func (iv interval) floor(t time.Time) time.Time {
	y, m, d := t.Date()
	switch iv.unit {
	case unitWeek:
		start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

		return start.AddDate(0, 0, -int(start.Weekday()))
	case unitMonth:
		months := int(m) - 1
		months -= months % iv.step

		return time.Date(y, time.Month(months+1), 1, 0, 0, 0, 0, time.UTC)
	case unitYear:
		return time.Date(y-y%iv.step, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

func (iv interval) next(t time.Time) time.Time {
	switch iv.unit {
	case unitWeek:
		return t.AddDate(0, 0, 7*iv.step)
	case unitMonth:
		return t.AddDate(0, iv.step, 0)
	case unitYear:
		return t.AddDate(iv.step, 0, 0)
	default:
		return t.AddDate(0, 0, iv.step)
	}
}

// chooseInterval picks the calendar interval closest to span/count.
func chooseInterval(span time.Duration, count int) interval {
	target := float64(span) / math.Max(1, float64(count))
	best := timeIntervals[0]
	bestErr := math.Inf(1)

	for _, iv := range timeIntervals {
		e := math.Abs(math.Log(float64(iv.approx) / target))
		if e < bestErr {
			best, bestErr = iv, e
		}
	}

	return best
}

func timeTicks(start, stop time.Time, count int) []time.Time {
	if count <= 0 || start.IsZero() || stop.IsZero() || !stop.After(start) {
		return nil
	}

	iv := chooseInterval(stop.Sub(start), count)

	var values []time.Time
	for t := iv.floor(start.UTC()); !t.After(stop); t = iv.next(t) {
		if t.Before(start) {
			continue
		}

		values = append(values, t)
	}

	return values
}
