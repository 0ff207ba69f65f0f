// Package testutil holds helpers shared by tests and the scenario harness.
package testutil

import (
	"sync"
	"time"
)

// DefaultStep is the interval between consecutive ticks of a clock built
// with a zero step.
const DefaultStep = time.Minute

// DeterministicClock hands out strictly increasing timestamps starting at
// a fixed instant. Fixtures that omit a recorded time take the next tick,
// so the same scenario always stores the same timestamps.
//
// All methods are safe for concurrent use.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewDeterministicClock creates a clock at start. The first call to Next
// returns start+step.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	if step <= 0 {
		step = DefaultStep
	}
	return &DeterministicClock{start: start.UTC(), step: step}
}

// Next advances the clock one step and returns the new time.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.at(c.ticks)
}

// Current returns the time of the last tick, or the start time if Next
// was never called.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at(c.ticks)
}

// Ticks returns how many times Next has been called since the last Reset.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock to its start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}

func (c *DeterministicClock) at(ticks int64) time.Time {
	return c.start.Add(time.Duration(ticks) * c.step)
}
