package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calvinmclean/autovalve"
	"github.com/calvinmclean/autovalve/controller"
)

// Options describe a simulation run
type Options struct {
	Profile    Profile
	Millivolts int
	// Duration is how much simulated time to run for. It is extended to include the last Profile step
	Duration time.Duration
	// ModelError scales the simulated motor's travel time, 0 means 1
	ModelError float64
	// Sink gets every Event along with the simulated time it happened at
	Sink func(time.Duration, autovalve.Event)
}

// Result is the state at the end of a simulation
type Result struct {
	Elapsed     time.Duration
	Knob        int
	Believed    int
	Physical    float64
	Moves       int
	Opened      time.Duration
	Closed      time.Duration
	HotSwitches int
}

// Error is the difference between the simulated position and where the controller thinks the valve is
func (r Result) Error() float64 {
	return r.Physical - float64(r.Believed)
}

// Run creates a Controller on simulated hardware and runs it until Duration has passed in simulated time
func Run(ctx context.Context, cfg controller.Config, opts Options) (Result, error) {
	if len(opts.Profile) == 0 {
		return Result{}, errors.New("knob profile is required")
	}
	if opts.ModelError == 0 {
		opts.ModelError = 1
	}
	if opts.ModelError < 0 {
		return Result{}, fmt.Errorf("invalid model error: %v", opts.ModelError)
	}

	timing, err := controller.NewTimingModel(cfg.Calibration.Low, cfg.Calibration.High)
	if err != nil {
		return Result{}, fmt.Errorf("error creating timing model: %w", err)
	}

	clock := NewClock()
	battery := NewBattery(opts.Millivolts, cfg.Sensor)
	knob := NewKnob(clock, opts.Profile, cfg.Sensor)
	valve := NewValve(clock, battery, timing)
	valve.ModelError = opts.ModelError
	clock.OnSleep(func(time.Time) { valve.Update() })

	moves := 0
	sink := func(e autovalve.Event) {
		if e.Kind == autovalve.EventClose {
			moves++
		}
		if opts.Sink != nil {
			opts.Sink(clock.Elapsed(), e)
		}
	}

	c, err := controller.New(cfg, controller.Hardware{
		Valve:   valve.ValvePin(),
		Relay:   valve.RelayPin(),
		Knob:    knob,
		Battery: battery,
	}, controller.WithClock(clock), controller.WithEventSink(sink))
	if err != nil {
		return Result{}, fmt.Errorf("error creating controller: %w", err)
	}

	duration := max(opts.Duration, opts.Profile.Last())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	err = c.Run(runCtx, func() {
		if c.State() == autovalve.StateIdle && c.Actuator().Command() == controller.CommandIdle && clock.Elapsed() >= duration {
			cancel()
		}
	})
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return Result{}, err
	}

	return Result{
		Elapsed:     clock.Elapsed(),
		Knob:        opts.Profile.At(clock.Elapsed()),
		Believed:    c.Position(),
		Physical:    valve.Position(),
		Moves:       moves,
		Opened:      valve.Opened,
		Closed:      valve.Closed,
		HotSwitches: valve.HotSwitches,
	}, nil
}
