package controller

import (
	"time"
)

// fakeClock only moves when something sleeps
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
	// onSleep runs after the clock moves forward, so inputs can change while the controller waits
	onSleep func(now time.Time)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
	if c.onSleep != nil {
		c.onSleep(c.now)
	}
}

type pinChange struct {
	at    time.Time
	value bool
}

// fakePin records every change along with the time it happened
type fakePin struct {
	clock   *fakeClock
	value   bool
	changes []pinChange
}

func (p *fakePin) Set(v bool) {
	p.value = v
	p.changes = append(p.changes, pinChange{at: p.clock.now, value: v})
}

// motor watches a valve and relay pin pair the way the physical motor would. It fails the test if it ever
// sees a direction change while the motor is powered
type motor struct {
	clock *fakeClock
	valve *motorPin
	relay *motorPin

	forward   time.Duration
	reverse   time.Duration
	pulses    []time.Duration
	closes    int
	reversals int

	since time.Time
}

type motorPin struct {
	m     *motor
	value bool
	relay bool
}

func newMotor(clock *fakeClock) *motor {
	m := &motor{clock: clock, since: clock.now}
	m.valve = &motorPin{m: m}
	m.relay = &motorPin{m: m, relay: true}
	return m
}

func (p *motorPin) Set(v bool) {
	m := p.m
	m.account()

	if p.relay && v != p.value && m.valve.value {
		m.reversals++
	}
	if !p.relay && v && !p.value {
		if m.relay.value {
			m.closes++
		} else {
			m.pulses = append(m.pulses, 0)
		}
	}
	p.value = v
}

// account adds the time since the last change to the direction the motor was running in
func (m *motor) account() {
	elapsed := m.clock.now.Sub(m.since)
	m.since = m.clock.now
	if !m.valve.value {
		return
	}
	if m.relay.value {
		m.reverse += elapsed
		return
	}
	m.forward += elapsed
	if len(m.pulses) == 0 {
		m.pulses = append(m.pulses, 0)
	}
	m.pulses[len(m.pulses)-1] += elapsed
}
