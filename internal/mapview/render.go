package mapview

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ngmaloney/port-navigator/internal/models"
)

// Theme is a map colour scheme
type Theme struct {
	Name        string
	Background  lipgloss.Color
	Grid        lipgloss.Color
	Route       lipgloss.Color
	Traveled    lipgloss.Color
	Congested   lipgloss.Color
	Slow        lipgloss.Color
	Vehicle     lipgloss.Color
	Destination lipgloss.Color
}

var (
	DarkTheme = Theme{
		Name:        "dark",
		Background:  lipgloss.Color("#0B1622"),
		Grid:        lipgloss.Color("#1C2B3A"),
		Route:       lipgloss.Color("#00BFFF"),
		Traveled:    lipgloss.Color("#4A5B6C"),
		Congested:   lipgloss.Color("#FF6B6B"),
		Slow:        lipgloss.Color("#FFD93D"),
		Vehicle:     lipgloss.Color("#FFFFFF"),
		Destination: lipgloss.Color("#6BCF7F"),
	}

	StreetTheme = Theme{
		Name:        "street",
		Background:  lipgloss.Color("#EDE8DF"),
		Grid:        lipgloss.Color("#D3CCBF"),
		Route:       lipgloss.Color("#1A73E8"),
		Traveled:    lipgloss.Color("#9AA5B1"),
		Congested:   lipgloss.Color("#D93025"),
		Slow:        lipgloss.Color("#E37400"),
		Vehicle:     lipgloss.Color("#202124"),
		Destination: lipgloss.Color("#188038"),
	}
)

// Themes lists the schemes in toggle order
var Themes = []Theme{DarkTheme, StreetTheme}

// Layers is everything drawn on the map
type Layers struct {
	Route       []models.Coordinate
	Traveled    int // path points already passed during playback
	Congestion  models.TrafficLevel
	Destination *models.Coordinate
	Vehicle     *models.Position
}

type layer int

const (
	layerBackground layer = iota
	layerGrid
	layerTraveled
	layerRoute
	layerDestination
	layerVehicle
)

type canvas struct {
	w, h  int
	runes [][]rune
	kinds [][]layer
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, runes: make([][]rune, h), kinds: make([][]layer, h)}
	for r := 0; r < h; r++ {
		c.runes[r] = make([]rune, w)
		c.kinds[r] = make([]layer, w)
		for col := range c.runes[r] {
			c.runes[r][col] = ' '
		}
	}
	return c
}

func (c *canvas) set(col, row int, ch rune, k layer) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	if k < c.kinds[row][col] {
		return
	}
	c.runes[row][col] = ch
	c.kinds[row][col] = k
}

// Render draws the layers into a w×h block of styled text
func Render(vp Viewport, layers Layers, theme Theme) string {
	w, h := vp.Width, vp.Height
	if w <= 0 || h <= 0 {
		return ""
	}
	c := newCanvas(w, h)

	drawGrid(c, vp)

	for i := 1; i < len(layers.Route); i++ {
		k := layerRoute
		if i <= layers.Traveled {
			k = layerTraveled
		}
		c0, r0 := vp.projectF(layers.Route[i-1])
		c1, r1 := vp.projectF(layers.Route[i])
		line(c, int(math.Floor(c0)), int(math.Floor(r0)), int(math.Floor(c1)), int(math.Floor(r1)), '•', k)
	}

	if layers.Destination != nil {
		if col, row, ok := vp.Project(*layers.Destination); ok {
			c.set(col, row, '⚑', layerDestination)
		}
	}

	if layers.Vehicle != nil {
		if col, row, ok := vp.Project(layers.Vehicle.Coordinate); ok {
			c.set(col, row, Arrow(layers.Vehicle.HeadingOr(0)), layerVehicle)
		}
	}

	return c.paint(theme, routeColor(theme, layers.Congestion))
}

// drawGrid marks a sparse dot lattice anchored to the map so panning is visible
func drawGrid(c *canvas, vp Viewport) {
	cx, cy := vp.world(vp.Center)
	originCol := int(math.Floor(cx/cellWidthPx)) - c.w/2
	originRow := int(math.Floor(cy/cellHeightPx)) - c.h/2
	for r := 0; r < c.h; r++ {
		if (originRow+r)%4 != 0 {
			continue
		}
		for col := 0; col < c.w; col++ {
			if (originCol+col)%8 == 0 {
				c.set(col, r, '·', layerGrid)
			}
		}
	}
}

// line draws between two cells with Bresenham's algorithm, clipped to the canvas
func line(c *canvas, x0, y0, x1, y1 int, ch rune, k layer) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	// Skip segments far off screen
	if (x0 < 0 && x1 < 0) || (x0 >= c.w && x1 >= c.w) || (y0 < 0 && y1 < 0) || (y0 >= c.h && y1 >= c.h) {
		return
	}

	err := dx + dy
	entered := false
	for {
		in := x0 >= 0 && x0 < c.w && y0 >= 0 && y0 < c.h
		if in {
			entered = true
			c.set(x0, y0, ch, k)
		} else if entered {
			// a straight line never comes back once it leaves
			return
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var arrows = []rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

// Arrow returns the 8-way glyph for a compass heading
func Arrow(heading float64) rune {
	h := math.Mod(heading, 360)
	if h < 0 {
		h += 360
	}
	return arrows[int(math.Floor((h+22.5)/45))%8]
}

func routeColor(t Theme, level models.TrafficLevel) lipgloss.Color {
	switch {
	case level.Congested():
		return t.Congested
	case level == models.TrafficModerate:
		return t.Slow
	}
	return t.Route
}

func (c *canvas) paint(t Theme, route lipgloss.Color) string {
	base := lipgloss.NewStyle().Background(t.Background)
	styles := map[layer]lipgloss.Style{
		layerBackground:  base,
		layerGrid:        base.Foreground(t.Grid),
		layerTraveled:    base.Foreground(t.Traveled),
		layerRoute:       base.Foreground(route).Bold(true),
		layerDestination: base.Foreground(t.Destination).Bold(true),
		layerVehicle:     base.Foreground(t.Vehicle).Bold(true),
	}

	var b strings.Builder
	for r := 0; r < c.h; r++ {
		start := 0
		for col := 1; col <= c.w; col++ {
			if col < c.w && c.kinds[r][col] == c.kinds[r][start] {
				continue
			}
			b.WriteString(styles[c.kinds[r][start]].Render(string(c.runes[r][start:col])))
			start = col
		}
		if r < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
