package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ngmaloney/port-navigator/internal/logging"
	"github.com/ngmaloney/port-navigator/internal/models"
)

// fakeRouter records every fetch it receives
type fakeRouter struct {
	mu    sync.Mutex
	calls []models.Coordinate // origins
	err   error
}

func (f *fakeRouter) Route(ctx context.Context, origin, dest models.Coordinate) (*models.Route, error) {
	f.mu.Lock()
	f.calls = append(f.calls, origin)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &models.Route{Path: []models.Coordinate{origin, dest}}, nil
}

func (f *fakeRouter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestPlanner_DebounceCollapsesRequests(t *testing.T) {
	router := &fakeRouter{}
	planner := NewPlanner(router, 40*time.Millisecond, logging.Discard())
	defer planner.Close()

	dest := models.Coordinate{Lat: 13.0827, Lon: 80.2707}

	// Origin updates on every GPS tick within the debounce window
	for i := 0; i < 8; i++ {
		planner.Request(models.Coordinate{Lat: 9.93 + float64(i)*0.001, Lon: 76.26}, dest)
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case res := <-planner.Results():
		if res.Err != nil {
			t.Fatalf("result error = %v", res.Err)
		}
		wantOrigin := models.Coordinate{Lat: 9.93 + 7*0.001, Lon: 76.26}
		if res.Origin != wantOrigin {
			t.Errorf("fetched origin = %v, want final value %v", res.Origin, wantOrigin)
		}
		if res.Destination != dest {
			t.Errorf("result destination = %v, want %v", res.Destination, dest)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for route result")
	}

	time.Sleep(100 * time.Millisecond)
	if got := router.count(); got != 1 {
		t.Errorf("router calls = %d, want exactly 1", got)
	}
}

func TestPlanner_FailureIsDeliveredWithoutRetry(t *testing.T) {
	router := &fakeRouter{err: errors.New("network down")}
	planner := NewPlanner(router, 10*time.Millisecond, logging.Discard())
	defer planner.Close()

	planner.Request(models.Coordinate{Lat: 1, Lon: 1}, models.Coordinate{Lat: 2, Lon: 2})

	select {
	case res := <-planner.Results():
		if res.Err == nil {
			t.Error("expected error result")
		}
		if res.Route != nil {
			t.Error("failed result should carry no route")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for failure result")
	}

	time.Sleep(80 * time.Millisecond)
	if got := router.count(); got != 1 {
		t.Errorf("router calls = %d, want 1 (no retry)", got)
	}
}

func TestPlanner_CloseCancelsPending(t *testing.T) {
	router := &fakeRouter{}
	planner := NewPlanner(router, 30*time.Millisecond, logging.Discard())

	planner.Request(models.Coordinate{}, models.Coordinate{Lat: 1, Lon: 1})
	if !planner.Pending() {
		t.Error("expected pending fetch")
	}
	planner.Close()

	time.Sleep(80 * time.Millisecond)
	if got := router.count(); got != 0 {
		t.Errorf("router calls = %d, want 0 after Close", got)
	}

	// Requests after Close are ignored
	planner.Request(models.Coordinate{}, models.Coordinate{Lat: 1, Lon: 1})
	if planner.Pending() {
		t.Error("closed planner should not schedule fetches")
	}
}

func TestPlanner_CancelDropsPending(t *testing.T) {
	router := &fakeRouter{}
	planner := NewPlanner(router, 30*time.Millisecond, logging.Discard())
	defer planner.Close()

	planner.Request(models.Coordinate{}, models.Coordinate{Lat: 1, Lon: 1})
	planner.Cancel()
	if planner.Pending() {
		t.Error("fetch still pending after Cancel")
	}

	time.Sleep(80 * time.Millisecond)
	if got := router.count(); got != 0 {
		t.Errorf("router calls = %d, want 0 after Cancel", got)
	}

	// The planner stays usable
	planner.Request(models.Coordinate{}, models.Coordinate{Lat: 1, Lon: 1})
	select {
	case <-planner.Results():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for route after Cancel")
	}
}
