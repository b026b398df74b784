package mapview

import "github.com/ngmaloney/port-navigator/internal/models"

// CameraMode says whether the viewport tracks the vehicle
type CameraMode int

const (
	Following CameraMode = iota // recenter on every position update
	Free                        // user panned; stay put
)

func (m CameraMode) String() string {
	if m == Free {
		return "free"
	}
	return "following"
}

const (
	MinZoom     = 3
	MaxZoom     = 18
	DefaultZoom = 15
)

// Camera owns the viewport center and the follow/free state
type Camera struct {
	mode   CameraMode
	center models.Coordinate
	zoom   int
}

// NewCamera starts following at center
func NewCamera(center models.Coordinate, zoom int) *Camera {
	return &Camera{mode: Following, center: center, zoom: clampZoom(zoom)}
}

func (c *Camera) Mode() CameraMode          { return c.mode }
func (c *Camera) Center() models.Coordinate { return c.center }
func (c *Camera) Zoom() int                 { return c.zoom }

// Follow moves the view to pos when following. It reports whether the view moved.
func (c *Camera) Follow(pos models.Coordinate) bool {
	if c.mode != Following {
		return false
	}
	c.center = pos
	return true
}

// BeginDrag switches to free mode whatever the current mode is
func (c *Camera) BeginDrag() {
	c.mode = Free
}

// Pan shifts the view by whole terminal cells and leaves following mode
func (c *Camera) Pan(dCol, dRow int) {
	c.mode = Free
	vp := Viewport{Center: c.center, Zoom: c.zoom}
	x, y := vp.world(c.center)
	c.center = unproject(x+float64(dCol)*cellWidthPx, y+float64(dRow)*cellHeightPx, c.zoom)
}

// Recenter returns to following and jumps to pos
func (c *Camera) Recenter(pos models.Coordinate) {
	c.mode = Following
	c.center = pos
}

// ZoomBy changes zoom by delta within the supported range
func (c *Camera) ZoomBy(delta int) {
	c.zoom = clampZoom(c.zoom + delta)
}

// Viewport returns the view for a w×h cell canvas
func (c *Camera) Viewport(w, h int) Viewport {
	return Viewport{Center: c.center, Zoom: c.zoom, Width: w, Height: h}
}

func clampZoom(z int) int {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
