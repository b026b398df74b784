package mapview

import (
	"math"

	"github.com/ngmaloney/port-navigator/internal/models"
)

// Terminal cells are about twice as tall as they are wide
const (
	tileSize     = 256.0
	cellWidthPx  = 4.0
	cellHeightPx = 8.0
	maxLatitude  = 85.05112878
)

// Viewport maps coordinates onto a grid of terminal cells using Web Mercator
type Viewport struct {
	Center models.Coordinate
	Zoom   int
	Width  int
	Height int
}

// Project returns the cell for c and whether it falls inside the viewport
func (v Viewport) Project(c models.Coordinate) (col, row int, ok bool) {
	fc, fr := v.projectF(c)
	col, row = int(math.Floor(fc)), int(math.Floor(fr))
	return col, row, col >= 0 && col < v.Width && row >= 0 && row < v.Height
}

// Unproject returns the coordinate at the center of a cell
func (v Viewport) Unproject(col, row int) models.Coordinate {
	cx, cy := v.world(v.Center)
	x := cx + (float64(col)+0.5-float64(v.Width)/2)*cellWidthPx
	y := cy + (float64(row)+0.5-float64(v.Height)/2)*cellHeightPx
	return unproject(x, y, v.Zoom)
}

// MetersPerCell is the approximate horizontal ground distance of one cell
func (v Viewport) MetersPerCell() float64 {
	const earthCircumference = 40075016.686
	lat := v.Center.Lat * math.Pi / 180
	return earthCircumference * math.Cos(lat) / (tileSize * math.Exp2(float64(v.Zoom))) * cellWidthPx
}

func (v Viewport) projectF(c models.Coordinate) (float64, float64) {
	cx, cy := v.world(v.Center)
	x, y := v.world(c)
	col := (x-cx)/cellWidthPx + float64(v.Width)/2
	row := (y-cy)/cellHeightPx + float64(v.Height)/2
	return col, row
}

// world returns Web Mercator pixel coordinates at the viewport zoom
func (v Viewport) world(c models.Coordinate) (float64, float64) {
	scale := tileSize * math.Exp2(float64(v.Zoom))
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, c.Lat)) * math.Pi / 180
	x := (c.Lon + 180) / 360 * scale
	y := (1 - math.Log(math.Tan(lat)+1/math.Cos(lat))/math.Pi) / 2 * scale
	return x, y
}

func unproject(x, y float64, zoom int) models.Coordinate {
	scale := tileSize * math.Exp2(float64(zoom))
	lon := x/scale*360 - 180
	n := math.Pi - 2*math.Pi*y/scale
	lat := math.Atan(math.Sinh(n)) * 180 / math.Pi
	return models.Coordinate{Lat: lat, Lon: lon}
}
