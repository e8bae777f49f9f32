package chart

import (
	"math"
	"time"
)

const (
	// degenerateRatio is the relative half-width given to a collapsed numeric domain.
	degenerateRatio = 0.05
	// degenerateSpan is the minimal width given to a collapsed numeric domain.
	degenerateSpan = 1.0
)

// Linear maps a continuous numeric domain onto a pixel range.
type Linear struct {
	domain [2]float64
	rng    [2]float64
}

// NewLinear builds a linear scale.
//
// A collapsed domain (min == max) is widened symmetrically so that its single value maps to
// the middle of the range. A domain with NaN bounds collapses to [0, 0] first.
func NewLinear(domain, rng [2]float64) Linear {
	d0, d1 := domain[0], domain[1]
	if !isFinite(d0) || !isFinite(d1) {
		d0, d1 = 0, 0
	}

	if d0 == d1 {
		half := math.Max(math.Abs(d0)*degenerateRatio*2, degenerateSpan) / 2
		d0, d1 = d0-half, d0+half
	}

	return Linear{
		domain: [2]float64{d0, d1},
		rng:    rng,
	}
}

func (s Linear) Domain() [2]float64 {
	return s.domain
}

func (s Linear) Range() [2]float64 {
	return s.rng
}

// Scale maps a domain value to the range. NaN maps to NaN.
func (s Linear) Scale(v float64) float64 {
	t := (v - s.domain[0]) / (s.domain[1] - s.domain[0])

	return s.rng[0] + t*(s.rng[1]-s.rng[0])
}

// Ticks yields about count round values spanning the domain.
func (s Linear) Ticks(count int) []float64 {
	return ticks(s.domain[0], s.domain[1], count)
}

// Time maps a time domain onto a pixel range, in UTC.
type Time struct {
	domain [2]time.Time
	rng    [2]float64
}

// NewTime builds a time scale.
//
// A zero domain collapses to one day starting at the epoch. A collapsed domain is widened by
// half a day on each side.
func NewTime(domain [2]time.Time, rng [2]float64) Time {
	d0, d1 := domain[0].UTC(), domain[1].UTC()
	switch {
	case d0.IsZero() || d1.IsZero():
		d0 = time.Unix(0, 0).UTC()
		d1 = d0.Add(24 * time.Hour)
	case d0.Equal(d1):
		d0 = d0.Add(-12 * time.Hour)
		d1 = d1.Add(12 * time.Hour)
	}

	return Time{
		domain: [2]time.Time{d0, d1},
		rng:    rng,
	}
}

func (s Time) Domain() [2]time.Time {
	return s.domain
}

func (s Time) Range() [2]float64 {
	return s.rng
}

// Scale maps a time to the range. The zero time maps to NaN.
func (s Time) Scale(t time.Time) float64 {
	if t.IsZero() {
		return math.NaN()
	}

	d0, d1 := seconds(s.domain[0]), seconds(s.domain[1])
	f := (seconds(t) - d0) / (d1 - d0)

	return s.rng[0] + f*(s.rng[1]-s.rng[0])
}

// Ticks yields about count calendar-aligned times spanning the domain.
func (s Time) Ticks(count int) []time.Time {
	return timeTicks(s.domain[0], s.domain[1], count)
}

// Band maps discrete times to evenly spaced bands of a pixel range.
type Band struct {
	domain       []time.Time
	index        map[bandKey]int
	rng          [2]float64
	paddingInner float64
	step         float64
	bandwidth    float64
	start        float64
}

type bandKey struct {
	sec  int64
	nsec int
}

func keyOf(t time.Time) bandKey {
	return bandKey{sec: t.Unix(), nsec: t.Nanosecond()}
}

// NewBand builds a band scale over the distinct non-zero values, in order of first appearance.
//
// The outer padding is zero and bands are centered in the range.
func NewBand(values []time.Time, rng [2]float64, paddingInner float64) Band {
	b := Band{
		index:        make(map[bandKey]int, len(values)),
		rng:          rng,
		paddingInner: paddingInner,
	}

	for _, v := range values {
		if v.IsZero() {
			continue
		}

		k := keyOf(v)
		if _, seen := b.index[k]; seen {
			continue
		}

		b.index[k] = len(b.domain)
		b.domain = append(b.domain, v)
	}

	n := float64(len(b.domain))
	width := rng[1] - rng[0]
	b.step = width / math.Max(1, n-paddingInner)
	b.start = rng[0] + (width-b.step*(n-paddingInner))*0.5
	b.bandwidth = b.step * (1 - paddingInner)

	return b
}

func (b Band) Domain() []time.Time {
	return b.domain
}

func (b Band) Range() [2]float64 {
	return b.rng
}

func (b Band) Bandwidth() float64 {
	return b.bandwidth
}

func (b Band) Step() float64 {
	return b.step
}

// Scale yields the start of the band of t, or NaN when t is not in the domain.
func (b Band) Scale(t time.Time) float64 {
	i, ok := b.index[keyOf(t)]
	if !ok {
		return math.NaN()
	}

	return b.start + b.step*float64(i)
}

// Extent yields the minimum and maximum of values, ignoring NaN.
func Extent(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}

		ok = true
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if !ok {
		return 0, 0, false
	}

	return lo, hi, true
}

// TimeExtent yields the earliest and latest of values, ignoring zero times.
func TimeExtent(values []time.Time) (lo, hi time.Time, ok bool) {
	for _, v := range values {
		if v.IsZero() {
			continue
		}

		if !ok || v.Before(lo) {
			lo = v
		}

		if !ok || v.After(hi) {
			hi = v
		}

		ok = true
	}

	return lo, hi, ok
}

// extendedDomain yields the extent of values widened by before and after, or a zero domain
// when there is no valid time.
func extendedDomain(values []time.Time, before, after time.Duration) [2]time.Time {
	lo, hi, ok := TimeExtent(values)
	if !ok {
		return [2]time.Time{}
	}

	return [2]time.Time{lo.Add(-before), hi.Add(after)}
}

// PaddedDomain yields [min - pad*min, max].
func PaddedDomain(values []float64, pad float64) [2]float64 {
	lo, hi, ok := Extent(values)
	if !ok {
		return [2]float64{}
	}

	return [2]float64{lo - pad*lo, hi}
}

// OffsetDomain yields [min - offset, max].
func OffsetDomain(values []float64, offset float64) [2]float64 {
	lo, hi, ok := Extent(values)
	if !ok {
		return [2]float64{}
	}

	return [2]float64{lo - offset, hi}
}

// ZeroDomain yields [0, max].
func ZeroDomain(values []float64) [2]float64 {
	_, hi, ok := Extent(values)
	if !ok {
		return [2]float64{}
	}

	return [2]float64{0, hi}
}

func seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
