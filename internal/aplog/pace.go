package aplog

import (
	"fmt"
	"time"
)

// PaceTracker tracks how frequently an event occurs. Once the frequency
// exceeds the configured threshold, Tick returns an error. StartupSequencer
// uses this to refuse to immediately retry a startup that is failing faster
// than the configured rate (§SPEC_FULL "Supplemented Features").
type PaceTracker struct {
	limit  int
	period time.Duration
	starts []time.Time
}

// NewPaceTracker builds a tracker allowing limit events per period.
func NewPaceTracker(limit int, period time.Duration) *PaceTracker {
	return &PaceTracker{
		limit:  limit,
		period: period,
		starts: make([]time.Time, limit),
	}
}

// Tick records one event occurrence. Returns an error if limit events have
// now occurred within period.
func (p *PaceTracker) Tick() error {
	now := time.Now()
	p.starts = append(p.starts[1:p.limit], now)
	if delta := now.Sub(p.starts[0]); delta < p.period {
		return fmt.Errorf("%d ticks in %v", p.limit, delta)
	}
	return nil
}
