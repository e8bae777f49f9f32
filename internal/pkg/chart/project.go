package chart

import (
	"math"
	"time"
)

// Channel identifies one projected data channel.
type Channel int

// Channels a chart may project from its records.
const (
	ChannelX Channel = iota
	ChannelY
	ChannelY2
	ChannelBar
	ChannelZ
)

// Projection tells [Project] which optional channels to compute and which ones must be valid
// for a record to be defined.
//
// X and Y are always computed. X is always required.
type Projection struct {
	Channels []Channel
	Required []Channel
}

// Series holds index-aligned channel arrays, one entry per input record.
//
// Channels that were not requested are nil.
type Series[R any] struct {
	Records []R
	X       []time.Time
	Y       []float64
	Y2      []float64
	Bar     []float64
	Z       []string
	Defined []bool
	Index   []int
}

// Len yields the number of projected records.
func (s Series[R]) Len() int {
	return len(s.Index)
}

// Project extracts parallel channel arrays from data and computes the defined mask.
//
// Unless a [DefinedFunc] is provided, a record is defined when its x value is a valid time and
// every required numeric channel is not NaN.
func Project[R any](data []R, acc Accessors[R], p Projection) Series[R] {
	acc = acc.withDefaults()
	n := len(data)

	s := Series[R]{
		Records: data,
		X:       make([]time.Time, n),
		Y:       make([]float64, n),
		Defined: make([]bool, n),
		Index:   make([]int, n),
	}

	for _, ch := range p.Channels {
		switch ch {
		case ChannelY2:
			s.Y2 = make([]float64, n)
		case ChannelBar:
			s.Bar = make([]float64, n)
		case ChannelZ:
			if acc.Z != nil {
				s.Z = make([]string, n)
			}
		}
	}

	for i, d := range data {
		s.Index[i] = i
		s.X[i] = acc.X(d)
		s.Y[i] = acc.Y(d)
		if s.Y2 != nil {
			s.Y2[i] = acc.Y2(d)
		}
		if s.Bar != nil {
			s.Bar[i] = acc.Bar(d)
		}
		if s.Z != nil {
			s.Z[i] = acc.Z(d)
		}
	}

	for i, d := range data {
		if acc.Defined != nil {
			s.Defined[i] = acc.Defined(d, i)

			continue
		}

		s.Defined[i] = s.isDefined(i, p.Required)
	}

	return s
}

func (s Series[R]) isDefined(i int, required []Channel) bool {
	if s.X[i].IsZero() {
		return false
	}

	for _, ch := range required {
		var values []float64
		switch ch {
		case ChannelY:
			values = s.Y
		case ChannelY2:
			values = s.Y2
		case ChannelBar:
			values = s.Bar
		default:
			continue
		}

		if values == nil || math.IsNaN(values[i]) {
			return false
		}
	}

	return true
}
