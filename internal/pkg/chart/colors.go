package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Palette is an ordered list of css colors.
type Palette []string

var (
	Category10 = splitColorString("1f77b4ff7f0e2ca02cd627289467bd8c564be377c27f7f7fbcbd2217becf")
	Tableau10  = splitColorString("4e79a7f28e2ce1575976b7b259a14fedc949af7aa1ff9da79c755fbab0ab")
	// RdYlGn is the 11-class diverging red-yellow-green scheme.
	RdYlGn = splitColorString("a50026d73027f46d43fdae61fee08bffffbfd9ef8ba6d96a66bd631a9850006837")
)

func splitColorString(str string) Palette {
	var arr Palette
	for i := 0; i+6 <= len(str); i += 6 {
		arr = append(arr, "#"+str[i:i+6])
	}

	return arr
}

// Ordinal assigns palette colors to keys in order of first use, cycling through the palette.
type Ordinal struct {
	palette Palette
	index   map[string]int
}

// NewOrdinal builds an ordinal color scale, with keys registered upfront in the given order.
func NewOrdinal(palette Palette, keys ...string) *Ordinal {
	if len(palette) == 0 {
		palette = Category10
	}

	o := &Ordinal{
		palette: palette,
		index:   make(map[string]int, len(keys)),
	}

	for _, k := range keys {
		o.Color(k)
	}

	return o
}

// Color yields the color of key.
func (o *Ordinal) Color(key string) string {
	i, ok := o.index[key]
	if !ok {
		i = len(o.index)
		o.index[key] = i
	}

	return o.palette[i%len(o.palette)]
}

// Sequential interpolates linearly between evenly spaced color stops over a numeric domain.
//
// Values outside the domain are clamped.
type Sequential struct {
	Domain [2]float64
	Stops  Palette
}

// Color yields the interpolated color of v as a #rrggbb string.
func (s Sequential) Color(v float64) string {
	if len(s.Stops) == 0 {
		return ""
	}

	if len(s.Stops) == 1 || s.Domain[0] == s.Domain[1] || math.IsNaN(v) {
		return s.Stops[len(s.Stops)/2]
	}

	t := (v - s.Domain[0]) / (s.Domain[1] - s.Domain[0])
	t = math.Max(0, math.Min(1, t))

	pos := t * float64(len(s.Stops)-1)
	i := int(math.Floor(pos))
	if i >= len(s.Stops)-1 {
		return s.Stops[len(s.Stops)-1]
	}

	frac := pos - float64(i)
	a := drawing.ColorFromHex(strings.TrimPrefix(s.Stops[i], "#"))
	b := drawing.ColorFromHex(strings.TrimPrefix(s.Stops[i+1], "#"))

	return fmt.Sprintf("#%02x%02x%02x", lerp(a.R, b.R, frac), lerp(a.G, b.G, frac), lerp(a.B, b.B, frac))
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
