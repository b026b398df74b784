// Package hud holds the small stateful widgets shown over the map.
package hud

import (
	"fmt"
	"time"
)

const (
	// FreeWaitPeriod is the free time at the gate before demurrage applies
	FreeWaitPeriod = 2 * time.Hour

	// RiskPerSecond is the USD added to the running demurrage estimate each tick
	RiskPerSecond = 0.45
)

// PenaltyClock counts down the free waiting period and accrues demurrage risk
type PenaltyClock struct {
	Remaining time.Duration
	Risk      float64 // USD
}

// NewPenaltyClock starts a full free period with no accrued risk
func NewPenaltyClock() *PenaltyClock {
	return &PenaltyClock{Remaining: FreeWaitPeriod}
}

// Tick advances the clock by one second
func (p *PenaltyClock) Tick() {
	p.Remaining -= time.Second
	if p.Remaining < 0 {
		p.Remaining = 0
	}
	p.Risk += RiskPerSecond
}

// Expired reports whether the free period is used up
func (p *PenaltyClock) Expired() bool {
	return p.Remaining <= 0
}

// Reset restarts the free period and clears accrued risk
func (p *PenaltyClock) Reset() {
	p.Remaining = FreeWaitPeriod
	p.Risk = 0
}

// Format renders the remaining time as HH:MM:SS
func (p *PenaltyClock) Format() string {
	total := int(p.Remaining / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
