package dashboard

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fredbi/housingviz/internal/pkg/model"

	svg "github.com/ajstarks/svgo"
)

const (
	tileWidth   = 180
	tileHeight  = 90
	tileGap     = 10
	tileRadius  = 8
	tileTitleY  = 30
	tileChangeY = 70
)

// RenderTiles writes the year-over-year change tiles as one row of an SVG document.
//
// Each tile shows the title of its set and the change in percent, on a background colored by the change.
func RenderTiles(w io.Writer, tiles []model.Tile) error {
	width := max(len(tiles)*(tileWidth+tileGap)-tileGap, tileWidth)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, tileHeight,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, width, tileHeight),
		`font-family="sans-serif"`,
	)
	canvas.Title("Year over year")

	for i, tile := range tiles {
		x := i * (tileWidth + tileGap)
		canvas.Group(fmt.Sprintf(`class="tile tile-%s"`, tile.Set))
		canvas.Roundrect(x, 0, tileWidth, tileHeight, tileRadius, tileRadius, "fill:"+tileColor(tile))
		canvas.Text(x+tileWidth/2, tileTitleY, tile.Title, "text-anchor:middle;font-size:14px")
		canvas.Text(x+tileWidth/2, tileChangeY, tile.Text(), "text-anchor:middle;font-size:28px;font-weight:bold")
		canvas.Gend()
	}

	canvas.End()

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing tiles: %w", err)
	}

	return nil
}
