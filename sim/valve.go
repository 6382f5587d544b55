package sim

import (
	"time"

	"github.com/calvinmclean/autovalve/controller"
)

// Valve is a physical model of the motorised valve. It moves at the speed given by the timing model for
// the battery voltage, scaled by ModelError so the controller's estimate can be wrong on purpose
type Valve struct {
	clock   *Clock
	battery *Battery
	timing  controller.TimingModel

	// ModelError scales the real travel time. 1.1 is a motor 10% slower than calibrated
	ModelError float64

	valve bool
	relay bool

	position float64
	since    time.Time

	// HotSwitches counts relay changes while the motor was powered
	HotSwitches int
	// Opened and Closed are the total time spent driving each way
	Opened time.Duration
	Closed time.Duration
}

// NewValve creates a closed Valve. The battery is read every time the position is updated
func NewValve(clock *Clock, battery *Battery, timing controller.TimingModel) *Valve {
	return &Valve{
		clock:      clock,
		battery:    battery,
		timing:     timing,
		ModelError: 1,
		since:      clock.Now(),
	}
}

// ValvePin is the motor enable output
func (v *Valve) ValvePin() controller.Pin {
	return valvePin{v}
}

// RelayPin is the reverse relay output
func (v *Valve) RelayPin() controller.Pin {
	return relayPin{v}
}

type valvePin struct{ v *Valve }

func (p valvePin) Set(on bool) {
	p.v.Update()
	p.v.valve = on
}

type relayPin struct{ v *Valve }

func (p relayPin) Set(on bool) {
	p.v.Update()
	if p.v.valve && p.v.relay != on {
		p.v.HotSwitches++
	}
	p.v.relay = on
}

// Position updates and returns the physical position as a percentage
func (v *Valve) Position() float64 {
	v.Update()
	return v.position
}

// Update moves the valve for the time since the last update. It is called on every pin change and can be
// added to Clock.OnSleep to follow the motor while the controller waits
func (v *Valve) Update() {
	now := v.clock.Now()
	elapsed := now.Sub(v.since)
	v.since = now
	if !v.valve || elapsed <= 0 {
		return
	}

	full := float64(v.timing.FullTravelTime(v.battery.Millivolts())) * v.ModelError
	if full <= 0 {
		return
	}
	moved := 100 * float64(elapsed) / full

	if v.relay {
		v.Closed += elapsed
		v.position -= moved
	} else {
		v.Opened += elapsed
		v.position += moved
	}

	switch {
	case v.position < 0:
		v.position = 0
	case v.position > 100:
		v.position = 100
	}
}
