package dashboard

import (
	"io"

	"github.com/fredbi/housingviz/internal/pkg/model"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"
)

const invalidTileColor = "#cccccc"

// Page represents a page containing the tiles and all charts.
//
// A [Page] knows how to [Page.Render] as HTML.
type Page struct {
	Title string
	Theme string
	Tiles []model.Tile
	Views []*View
}

// NewPage creates a new page with the given title.
func NewPage(title string) *Page {
	return &Page{
		Title: title,
		Theme: ThemeRoma,
	}
}

// AddView adds a chart to the page.
func (p *Page) AddView(v *View) {
	p.Views = append(p.Views, v)
}

// Render writes the page HTML to the given writer.
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.SetPageTitle(p.Title)

	if len(p.Tiles) > 0 {
		page.AddCharts(p.buildTiles())
	}

	for _, v := range p.Views {
		page.AddCharts(v.Build())
	}

	return page.Render(w)
}

// buildTiles shows the year-over-year changes as a bar per set, colored like the SVG tiles.
func (p *Page) buildTiles() *charts.Bar {
	names := make([]string, 0, len(p.Tiles))
	data := make([]echartsopts.BarData, 0, len(p.Tiles))

	for _, tile := range p.Tiles {
		names = append(names, tile.Title)
		if !tile.Valid() {
			data = append(data, echartsopts.BarData{Name: tile.Title, Value: missingValue})

			continue
		}

		data = append(data, echartsopts.BarData{
			Name:      tile.Title,
			Value:     tile.Change,
			ItemStyle: &echartsopts.ItemStyle{Color: tileColor(tile)},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(echartsopts.Initialization{Theme: p.Theme}),
		charts.WithTitleOpts(echartsopts.Title{
			Title:    "Year over year",
			Subtitle: p.Title,
		}),
		charts.WithYAxisOpts(echartsopts.YAxis{
			Name: "%",
			Type: "value",
		}),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:    echartsopts.Bool(true),
			Trigger: "item",
		}),
	)
	bar.SetXAxis(names)
	bar.AddSeries("change", data)

	return bar
}

func tileColor(tile model.Tile) string {
	if !tile.Valid() || tile.Color == "" {
		return invalidTileColor
	}

	return tile.Color
}
