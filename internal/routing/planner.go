package routing

import (
	"context"
	"sync"
	"time"

	"github.com/ngmaloney/port-navigator/internal/debounce"
	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long origin/destination must settle before a route fetch
const DefaultDebounce = 300 * time.Millisecond

// Result is the outcome of one debounced route fetch
type Result struct {
	Origin      models.Coordinate
	Destination models.Coordinate
	Route       *models.Route
	Err         error
}

// Planner fetches routes on origin/destination change. Requests within the
// debounce window collapse into a single fetch for the final values; there is
// no retry, so a failed fetch is only superseded by the next change.
type Planner struct {
	router  Router
	timer   *debounce.Timer
	results chan Result
	logger  logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPlanner creates a planner over router with the given debounce delay
func NewPlanner(router Router, delay time.Duration, logger logrus.FieldLogger) *Planner {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Planner{
		router:  router,
		timer:   debounce.New(delay),
		results: make(chan Result, 1),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Results delivers fetch outcomes, successes and failures alike
func (p *Planner) Results() <-chan Result {
	return p.results
}

// Request schedules a fetch, replacing any fetch still waiting out the debounce
func (p *Planner) Request(origin, dest models.Coordinate) {
	if p.ctx.Err() != nil {
		return
	}
	p.timer.Schedule(func() {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		p.wg.Add(1)
		p.mu.Unlock()

		defer p.wg.Done()
		p.fetch(origin, dest)
	})
}

// Pending reports whether a fetch is waiting out the debounce
func (p *Planner) Pending() bool {
	return p.timer.Pending()
}

// Cancel drops a fetch still waiting out the debounce. A fetch already in
// flight still delivers its result.
func (p *Planner) Cancel() {
	p.timer.Stop()
}

func (p *Planner) fetch(origin, dest models.Coordinate) {
	ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
	defer cancel()

	route, err := p.router.Route(ctx, origin, dest)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"origin":      origin.String(),
			"destination": dest.String(),
		}).Warn("route fetch failed")
	}

	select {
	case p.results <- Result{Origin: origin, Destination: dest, Route: route, Err: err}:
	case <-p.ctx.Done():
	}
}

// Close cancels the pending timer and any in-flight fetch
func (p *Planner) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.timer.Stop()
	p.cancel()
	p.wg.Wait()
}
