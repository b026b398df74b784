package position

import (
	"context"
	"errors"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

// ErrNoWatcher is reported when live tracking is requested without a location source
var ErrNoWatcher = errors.New("no location source configured")

// Mode says which source currently drives the position
type Mode int

const (
	ModeIdle      Mode = iota // nothing drives the position
	ModeLive                  // device location updates
	ModeSimulated             // route playback
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeSimulated:
		return "simulated"
	}
	return "idle"
}

// Watcher is a continuous location source
type Watcher interface {
	// Watch streams positions until ctx is cancelled. Both channels are closed when it stops.
	Watch(ctx context.Context) (<-chan models.Position, <-chan error)
}

// Subscription is an open live location stream
type Subscription struct {
	Fixes  <-chan models.Position
	Errors <-chan error
	cancel context.CancelFunc
}

// Feed owns the single active position source: a live subscription or a
// simulator, never both. It is driven from one goroutine (the UI loop); the
// watcher goroutine only talks to it through the subscription channels.
type Feed struct {
	watcher Watcher
	mode    Mode
	live    *Subscription
	sim     *Simulator

	current *models.Position
}

// NewFeed creates an idle feed. watcher may be nil when no device location exists.
func NewFeed(watcher Watcher) *Feed {
	return &Feed{watcher: watcher}
}

// Mode returns the active source
func (f *Feed) Mode() Mode {
	return f.mode
}

// Simulating reports whether route playback drives the position
func (f *Feed) Simulating() bool {
	return f.mode == ModeSimulated
}

// Current returns the latest accepted position, or nil before the first one
func (f *Feed) Current() *models.Position {
	return f.current
}

// Live returns the open live subscription, or nil
func (f *Feed) Live() *Subscription {
	return f.live
}

// Simulator returns the active simulator, or nil
func (f *Feed) Simulator() *Simulator {
	if f.mode != ModeSimulated {
		return nil
	}
	return f.sim
}

// StartLive subscribes to the watcher. Without a watcher it returns ErrNoWatcher
// and the feed stays in live mode so ApplyError can supply the fallback.
func (f *Feed) StartLive(ctx context.Context) (*Subscription, error) {
	f.stopLive()
	f.mode = ModeLive

	if f.watcher == nil {
		return nil, ErrNoWatcher
	}

	ctx, cancel := context.WithCancel(ctx)
	fixes, errs := f.watcher.Watch(ctx)
	f.live = &Subscription{Fixes: fixes, Errors: errs, cancel: cancel}
	return f.live, nil
}

// ApplyFix accepts a live fix. It returns false, leaving the position untouched,
// unless the feed is in live mode.
func (f *Feed) ApplyFix(p models.Position) bool {
	if f.mode != ModeLive {
		return false
	}
	p.Source = models.SourceGPS
	f.current = &p
	return true
}

// ApplyError handles a location failure. The first failure before any position
// exists yields the fallback origin so downstream consumers have somewhere to start.
func (f *Feed) ApplyError(err error) (models.Position, bool) {
	if f.current != nil || f.mode == ModeSimulated {
		return models.Position{}, false
	}
	p := models.Position{Coordinate: models.FallbackOrigin, Source: models.SourceFallback}
	f.current = &p
	return p, true
}

// StartSimulation switches to route playback from the first point of path.
// Live consumption stops even if the watcher keeps delivering.
func (f *Feed) StartSimulation(path []models.Coordinate) error {
	sim, err := NewSimulator(path)
	if err != nil {
		return err
	}
	f.stopLive()
	f.sim = sim
	f.mode = ModeSimulated

	start := sim.Last()
	f.current = &start
	return nil
}

// Advance steps the simulation one frame. When playback reaches the end the
// feed goes idle and running is false.
func (f *Feed) Advance(now time.Time) (models.Position, bool) {
	if f.mode != ModeSimulated || f.sim == nil {
		if f.current != nil {
			return *f.current, false
		}
		return models.Position{}, false
	}

	p, running := f.sim.Advance(now)
	f.current = &p
	if !running {
		f.mode = ModeIdle
	}
	return p, running
}

// StopSimulation halts playback, leaving the position where it was
func (f *Feed) StopSimulation() {
	if f.mode == ModeSimulated {
		f.mode = ModeIdle
	}
}

// HasWatcher reports whether live tracking can be resumed
func (f *Feed) HasWatcher() bool {
	return f.watcher != nil
}

// Close releases the live subscription
func (f *Feed) Close() {
	f.stopLive()
	f.mode = ModeIdle
}

func (f *Feed) stopLive() {
	if f.live != nil {
		f.live.cancel()
		f.live = nil
	}
}
