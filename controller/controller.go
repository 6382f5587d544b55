package controller

import (
	"context"
	"errors"
	"time"

	"github.com/calvinmclean/autovalve"

	"tinygo.org/x/drivers"
)

// Hardware is the set of pins the Controller owns
type Hardware struct {
	// Valve controls the motor ground and must be on for any movement
	Valve Pin
	// Relay triggers the motor reverse relay. On closes the valve
	Relay Pin
	// Knob is the dash potentiometer, a divider between the ADC reference and ground
	Knob ADC
	// Battery is the supply voltage divider
	Battery ADC
}

// EventSink receives the diagnostic trace. It is called from the control loop, so it should return quickly
type EventSink func(autovalve.Event)

// Option changes how New sets up the Controller
type Option func(*Controller)

// WithClock replaces the real clock, mostly for tests and simulation
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithEventSink sets where the diagnostic trace goes. By default it is discarded
func WithEventSink(sink EventSink) Option {
	return func(c *Controller) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// Controller positions the valve to follow the knob. There is no position sensor, so every move fully
// closes the valve and then opens it for a fraction of the full travel time at the present voltage
type Controller struct {
	cfg      Config
	sampler  *Sampler
	actuator *Actuator
	timing   TimingModel
	clock    Clock
	sink     EventSink

	state autovalve.State

	// valvePosition is where the valve is believed to be. It changes only when a new target is committed
	valvePosition int
	target        int

	// settleStart is the start of the current settle window. It restarts whenever the knob moves
	settleStart time.Time

	// lowVoltage is used to only report the supply dropping out and coming back, not every skipped cycle
	lowVoltage bool

	rehome  bool
	verbose bool
}

// New creates a Controller for the hardware. The valve is assumed to be closed
func New(cfg Config, hw Hardware, opts ...Option) (*Controller, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, errors.New("invalid config: " + err.Error())
	}

	if hw.Valve == nil || hw.Relay == nil || hw.Knob == nil || hw.Battery == nil {
		return nil, errors.New("valve, relay, knob and battery are all required")
	}

	timing, err := NewTimingModel(cfg.Calibration.Low, cfg.Calibration.High)
	if err != nil {
		return nil, errors.New("error creating timing model: " + err.Error())
	}

	c := &Controller{
		cfg:    cfg,
		timing: timing,
		clock:  RealClock,
		sink:   func(autovalve.Event) {},
		state:  autovalve.StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sampler = NewSampler(hw.Knob, hw.Battery, cfg.Sensor)
	c.actuator = NewActuator(hw.Valve, hw.Relay, c.clock, cfg.Loop.RelayDeadTime)

	return c, nil
}

// Run calls Cycle until the context is done, sleeping CycleInterval in between. afterCycle is optional and
// runs after every cycle. The context is only checked between cycles: a move that has started always finishes
func (c *Controller) Run(ctx context.Context, afterCycle func()) error {
	defer c.actuator.Idle()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c.Cycle()
		if afterCycle != nil {
			afterCycle()
		}

		c.clock.Sleep(c.cfg.Loop.CycleInterval)
	}
}

// Cycle runs a single pass of the control loop and reports whether the valve was moved. Nothing is driven
// when the supply is at or below the minimum voltage
func (c *Controller) Cycle() bool {
	mv := c.sampler.Battery()
	if mv <= c.cfg.Calibration.MinMillivolts {
		if !c.lowVoltage {
			c.lowVoltage = true
			c.emit(autovalve.EventLowVoltage, 0, mv, 0)
		}
		return false
	}
	if c.lowVoltage {
		c.lowVoltage = false
		c.emit(autovalve.EventSupplyOK, 0, mv, 0)
	}

	knob := c.sampler.Knob()
	if !c.rehome && !c.moved(knob, c.valvePosition) {
		return false
	}
	c.rehome = false

	c.reposition(knob)
	return true
}

// reposition runs the state machine from StateIdle until it is back in StateIdle
func (c *Controller) reposition(knob int) {
	for {
		switch c.state {
		case autovalve.StateIdle:
			c.startClosing(knob)
		case autovalve.StateClosingAndSettling:
			c.settle()
		case autovalve.StateOpening:
			c.open()
			return
		}
	}
}

func (c *Controller) startClosing(knob int) {
	c.actuator.DriveClosed()
	c.target = knob
	c.settleStart = c.clock.Now()
	c.state = autovalve.StateClosingAndSettling

	c.emit(autovalve.EventClose, knob, 0, 0)
}

// settle polls the knob once while the valve closes. It moves on to StateOpening when the knob has stayed
// put for the whole wait bound
func (c *Controller) settle() {
	mv := c.sampler.Battery()
	bound := c.timing.FullTravelTime(mv)
	if c.cfg.Loop.SettleCap < bound {
		bound = c.cfg.Loop.SettleCap
	}

	elapsed := c.clock.Now().Sub(c.settleStart)
	if elapsed >= bound {
		c.state = autovalve.StateOpening
		return
	}

	knob := c.sampler.Knob()
	if c.moved(knob, c.target) {
		c.target = knob
		c.settleStart = c.clock.Now()
		c.emit(autovalve.EventRetarget, knob, mv, 0)
	} else if c.verbose {
		c.emit(autovalve.EventSample, knob, mv, elapsed)
	}

	c.clock.Sleep(c.cfg.Loop.SettleTick)
}

// open commits the target and times the partial opening from fully closed
func (c *Controller) open() {
	c.valvePosition = c.target

	mv := c.sampler.Battery()
	d := c.timing.FullTravelTime(mv) * time.Duration(c.valvePosition) / 100
	c.emit(autovalve.EventOpen, c.target, mv, d)

	c.actuator.DriveOpenFor(d)

	c.state = autovalve.StateIdle
	c.emit(autovalve.EventIdle, c.target, mv, 0)
}

func (c *Controller) moved(knob, from int) bool {
	diff := knob - from
	if diff < 0 {
		diff = -diff
	}
	return diff > c.cfg.Loop.Hysteresis
}

func (c *Controller) emit(kind autovalve.EventKind, knob, mv int, d time.Duration) {
	c.sink(autovalve.Event{
		Kind:       kind,
		State:      c.state,
		Position:   c.valvePosition,
		Target:     c.target,
		Knob:       knob,
		Millivolts: mv,
		Duration:   d,
	})
}

// Rehome makes the next cycle close the valve fully and open it again even if the knob has not moved.
// This clears any error that has built up from the timing model
func (c *Controller) Rehome() {
	c.rehome = true
}

// SetVerbose enables a trace event for every settle poll
func (c *Controller) SetVerbose(v bool) {
	c.verbose = v
}

// Verbose reports if SetVerbose is enabled
func (c *Controller) Verbose() bool {
	return c.verbose
}

// Status takes fresh readings and returns them along with the controller's state
func (c *Controller) Status() autovalve.Event {
	c.sampler.refresh(drivers.AllMeasurements)
	knob, mv := c.sampler.Readings()

	return autovalve.Event{
		Kind:       autovalve.EventStatus,
		State:      c.state,
		Position:   c.valvePosition,
		Target:     c.target,
		Knob:       knob,
		Millivolts: mv,
	}
}

// Timing returns the full travel time at the present supply voltage
func (c *Controller) Timing() autovalve.Event {
	c.sampler.refresh(drivers.Voltage)
	_, mv := c.sampler.Readings()

	return autovalve.Event{
		Kind:       autovalve.EventTiming,
		State:      c.state,
		Position:   c.valvePosition,
		Target:     c.target,
		Millivolts: mv,
		Duration:   c.timing.FullTravelTime(mv),
	}
}

// TimingModel returns the model derived from the calibration
func (c *Controller) TimingModel() TimingModel {
	return c.timing
}

// Position is the believed valve position as a percentage
func (c *Controller) Position() int {
	return c.valvePosition
}

// State is the current phase of the repositioning cycle
func (c *Controller) State() autovalve.State {
	return c.state
}

// Actuator exposes the driver so its Command can be inspected
func (c *Controller) Actuator() *Actuator {
	return c.actuator
}
