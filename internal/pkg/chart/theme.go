package chart

// Theme holds the colors and font of a chart.
type Theme struct {
	Foreground string
	Guide      string
	FontFamily string
	FontSize   float64
	Colors     Colors
}

// Colors assigns colors to the data channels of a chart.
//
// Series is the palette used by [MultiLineChart], one color per key.
type Colors struct {
	Y        string
	Y2       string
	Bar      string
	BarHover string
	Series   Palette
}

// DefaultTheme yields the theme used when none is configured.
func DefaultTheme() Theme {
	return Theme{
		Foreground: "black",
		Guide:      "black",
		FontFamily: "sans-serif",
		FontSize:   10,
		Colors: Colors{
			Y:        Category10[1],
			Y2:       Category10[2],
			Bar:      Category10[3],
			BarHover: Category10[4],
			Series:   Category10,
		},
	}
}

func (t Theme) withDefaults() Theme {
	def := DefaultTheme()
	if t.Foreground == "" {
		t.Foreground = def.Foreground
	}
	if t.Guide == "" {
		t.Guide = def.Guide
	}
	if t.FontFamily == "" {
		t.FontFamily = def.FontFamily
	}
	if t.FontSize <= 0 {
		t.FontSize = def.FontSize
	}
	if t.Colors.Y == "" {
		t.Colors.Y = def.Colors.Y
	}
	if t.Colors.Y2 == "" {
		t.Colors.Y2 = def.Colors.Y2
	}
	if t.Colors.Bar == "" {
		t.Colors.Bar = def.Colors.Bar
	}
	if t.Colors.BarHover == "" {
		t.Colors.BarHover = def.Colors.BarHover
	}
	if len(t.Colors.Series) == 0 {
		t.Colors.Series = def.Colors.Series
	}

	return t
}
