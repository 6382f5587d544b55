//go:build tinygo

package device

import (
	"machine"
)

// BoardConfig has the pins for a board variant
type BoardConfig struct {
	// ValvePin controls motor ground for the valve and must be on for any movement
	ValvePin machine.Pin
	// RelayPin triggers the motor reverse relay. On closes the valve
	RelayPin machine.Pin
	// KnobPin is the dash knob potentiometer, a divider between 5V and ground
	KnobPin machine.Pin
	// BatteryPin is the voltage divider input used for time adjustment
	BatteryPin machine.Pin
}
