package position

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

// chanWatcher hands out a caller-controlled fix channel
type chanWatcher struct {
	fixes chan models.Position
	errs  chan error
	ctx   context.Context
}

func newChanWatcher() *chanWatcher {
	return &chanWatcher{fixes: make(chan models.Position, 8), errs: make(chan error, 1)}
}

func (w *chanWatcher) Watch(ctx context.Context) (<-chan models.Position, <-chan error) {
	w.ctx = ctx
	return w.fixes, w.errs
}

func fix(lat, lon float64) models.Position {
	return models.Position{Coordinate: models.Coordinate{Lat: lat, Lon: lon}}
}

func TestFeed_LiveFixes(t *testing.T) {
	w := newChanWatcher()
	f := NewFeed(w)

	sub, err := f.StartLive(context.Background())
	if err != nil {
		t.Fatalf("StartLive() error = %v", err)
	}
	if sub == nil || f.Mode() != ModeLive {
		t.Fatalf("mode = %v, want live", f.Mode())
	}

	if !f.ApplyFix(fix(9.93, 76.26)) {
		t.Fatal("live fix should be accepted")
	}
	if cur := f.Current(); cur == nil || cur.Lat != 9.93 || cur.Source != models.SourceGPS {
		t.Errorf("Current() = %+v", cur)
	}
}

func TestFeed_SimulationSuppressesGPS(t *testing.T) {
	w := newChanWatcher()
	f := NewFeed(w)
	f.StartLive(context.Background())
	f.ApplyFix(fix(9.93, 76.26))

	path := testPath(4)
	if err := f.StartSimulation(path); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}

	// The live subscription is torn down
	if w.ctx.Err() == nil {
		t.Error("live watch context should be cancelled when simulation starts")
	}

	// Start position is the route origin
	if f.Current().Coordinate != path[0] {
		t.Errorf("Current() = %v, want route origin %v", f.Current().Coordinate, path[0])
	}

	// GPS fixes still arriving are ignored while simulating
	for i := 0; i < 5; i++ {
		f.Advance(time.Now())
		if f.ApplyFix(fix(50, 50)) {
			t.Fatal("GPS fix accepted while simulating")
		}
		if f.Current().Lat == 50 {
			t.Fatal("GPS fix overwrote simulated position")
		}
	}

	f.StopSimulation()
	if f.Mode() != ModeIdle {
		t.Errorf("mode after stop = %v, want idle", f.Mode())
	}

	// Still suppressed until live is resumed
	if f.ApplyFix(fix(50, 50)) {
		t.Error("fix accepted while idle")
	}

	f.StartLive(context.Background())
	if !f.ApplyFix(fix(50, 50)) {
		t.Error("fix rejected after resuming live")
	}
}

func TestFeed_StopKeepsPosition(t *testing.T) {
	f := NewFeed(nil)
	f.StartSimulation(testPath(3))

	var last models.Position
	for i := 0; i < 7; i++ {
		last, _ = f.Advance(time.Now())
	}
	f.StopSimulation()

	if f.Current().Coordinate != last.Coordinate {
		t.Errorf("position moved on stop: %v -> %v", last.Coordinate, f.Current().Coordinate)
	}

	// Advancing a stopped feed doesn't move
	p, running := f.Advance(time.Now())
	if running || p.Coordinate != last.Coordinate {
		t.Error("stopped feed should not advance")
	}
}

func TestFeed_SimulationEndsIdle(t *testing.T) {
	f := NewFeed(nil)
	if err := f.StartSimulation(testPath(2)); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}

	for i := 0; i < 100; i++ {
		if _, running := f.Advance(time.Now()); !running {
			break
		}
	}

	if f.Simulating() {
		t.Error("feed should stop simulating at the end of the path")
	}
	if f.Mode() != ModeIdle {
		t.Errorf("mode = %v, want idle", f.Mode())
	}
}

func TestFeed_StartSimulationRequiresPath(t *testing.T) {
	f := NewFeed(nil)
	if err := f.StartSimulation(testPath(1)); !errors.Is(err, ErrPathTooShort) {
		t.Errorf("error = %v, want ErrPathTooShort", err)
	}
	if f.Simulating() {
		t.Error("feed should not be simulating")
	}
}

func TestFeed_FallbackOnlyBeforeFirstPosition(t *testing.T) {
	f := NewFeed(nil)
	if _, err := f.StartLive(context.Background()); !errors.Is(err, ErrNoWatcher) {
		t.Fatalf("StartLive() error = %v, want ErrNoWatcher", err)
	}

	p, ok := f.ApplyError(ErrNoWatcher)
	if !ok {
		t.Fatal("first error should emit the fallback")
	}
	if p.Coordinate != models.FallbackOrigin || p.Source != models.SourceFallback {
		t.Errorf("fallback = %+v", p)
	}

	if _, ok := f.ApplyError(errors.New("again")); ok {
		t.Error("fallback emitted twice")
	}

	// A real fix replaces the fallback; later errors keep it
	f.ApplyFix(fix(12, 77))
	if _, ok := f.ApplyError(errors.New("lost")); ok {
		t.Error("fallback emitted after a real fix")
	}
	if f.Current().Lat != 12 {
		t.Errorf("Current().Lat = %v, want 12", f.Current().Lat)
	}
}
