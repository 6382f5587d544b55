package controller

import "time"

// Pin is a digital output such as a machine.Pin
type Pin interface {
	Set(bool)
}

// Command is what the Actuator is currently doing. Only one is ever active
type Command int

const (
	CommandIdle Command = iota
	CommandClose
	CommandOpen
)

func (c Command) String() string {
	switch c {
	case CommandClose:
		return "close"
	case CommandOpen:
		return "open"
	default:
		fallthrough
	case CommandIdle:
		return "idle"
	}
}

// Actuator drives the valve motor. The valve pin switches the motor ground and must be on for any movement.
// The relay pin reverses the motor: on closes the valve, off opens it
type Actuator struct {
	valve    Pin
	relay    Pin
	clock    Clock
	deadTime time.Duration

	command Command
}

// NewActuator creates an Actuator and makes sure both outputs start off
func NewActuator(valve, relay Pin, clock Clock, deadTime time.Duration) *Actuator {
	a := &Actuator{
		valve:    valve,
		relay:    relay,
		clock:    clock,
		deadTime: deadTime,
	}
	a.Idle()
	return a
}

// DriveClosed starts closing the valve and returns immediately. The motor keeps running against the end
// stop until another command is given
func (a *Actuator) DriveClosed() {
	if a.command == CommandClose {
		return
	}
	a.relay.Set(true)
	a.valve.Set(true)
	a.command = CommandClose
}

// DriveOpenFor opens the valve for exactly d and then turns everything off. It blocks for the whole pulse
func (a *Actuator) DriveOpenFor(d time.Duration) {
	if a.command == CommandClose {
		a.Idle()
		a.clock.Sleep(a.deadTime)
	}

	if d <= 0 {
		a.Idle()
		return
	}

	a.relay.Set(false)
	a.valve.Set(true)
	a.command = CommandOpen

	a.clock.Sleep(d)

	a.Idle()
}

// Idle turns off all outputs
func (a *Actuator) Idle() {
	a.valve.Set(false)
	a.relay.Set(false)
	a.command = CommandIdle
}

// Command returns the active command
func (a *Actuator) Command() Command {
	return a.command
}
