//go:build tinygo

package device

import (
	"errors"
	"machine"
	"time"

	"github.com/calvinmclean/autovalve"
	"github.com/calvinmclean/autovalve/controller"
)

// Device runs the valve Controller on a microcontroller and handles the serial diagnostics
type Device struct {
	*controller.Controller

	startTime time.Time
}

// New configures the board's pins and creates the Controller
func New(board BoardConfig, cfg controller.Config) (*Device, error) {
	board.ValvePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	board.RelayPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	machine.InitADC()
	knob := machine.ADC{Pin: board.KnobPin}
	knob.Configure(machine.ADCConfig{})
	battery := machine.ADC{Pin: board.BatteryPin}
	battery.Configure(machine.ADCConfig{})

	d := &Device{startTime: time.Now()}

	c, err := controller.New(cfg, controller.Hardware{
		Valve:   board.ValvePin,
		Relay:   board.RelayPin,
		Knob:    knob,
		Battery: battery,
	}, controller.WithEventSink(d.trace))
	if err != nil {
		return nil, errors.New("error creating controller: " + err.Error())
	}
	d.Controller = c

	println(d.ts(), "Started...")

	return d, nil
}

// trace writes events in the format the host monitor parses
func (d *Device) trace(e autovalve.Event) {
	println(e.TraceLine())
}

// Debug prints out the Controller's state and fresh readings
func (d *Device) Debug() {
	d.trace(d.Status())
}

// Verbose toggles an event for every settle poll
func (d *Device) Verbose() {
	d.SetVerbose(!d.Controller.Verbose())
	if d.Controller.Verbose() {
		println(d.ts(), "Set Verbose Mode")
		return
	}
	println(d.ts(), "Unset Verbose Mode")
}

// Timing prints the full travel time at the present voltage and the model's coefficients
func (d *Device) Timing() {
	d.trace(d.Controller.Timing())
	m := d.TimingModel()
	println(d.ts(), "slope:", m.Slope().String(), "per mV, intercept:", m.Intercept().String())
}

// Rehome schedules a full close and reopen on the next cycle
func (d *Device) Rehome() {
	println(d.ts(), "Rehome")
	d.Controller.Rehome()
}

// Duration returns how long the Device has been running
func (d *Device) Duration() time.Duration {
	return time.Since(d.startTime)
}

// ts returns the duration timestamp for logging
func (d *Device) ts() string {
	return "[" + d.Duration().String() + "]"
}

func (d *Device) ReadByte() (byte, error) {
	return machine.Serial.ReadByte()
}

func (d *Device) Buffered() int {
	return machine.Serial.Buffered()
}
