// Package sim has a simulated valve, knob and battery that run the real controller without hardware.
// Everything runs on a Clock that only moves when the controller sleeps, so a long simulation finishes
// instantly and always gives the same result
package sim

import (
	"sync"
	"time"
)

// Epoch is the time every Clock starts at
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Clock implements controller.Clock. Sleep moves the time forward immediately
type Clock struct {
	mu    sync.Mutex
	now   time.Time
	hooks []func(time.Time)
}

// NewClock creates a Clock at Epoch
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Elapsed is the time since Epoch
func (c *Clock) Elapsed() time.Duration {
	return c.Now().Sub(Epoch)
}

// Sleep moves the clock forward and then runs every hook with the new time
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	now := c.now
	hooks := c.hooks
	c.mu.Unlock()

	for _, hook := range hooks {
		hook(now)
	}
}

// OnSleep adds a function that runs after every Sleep
func (c *Clock) OnSleep(hook func(time.Time)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}
