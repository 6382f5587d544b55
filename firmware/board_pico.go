//go:build tinygo && rp2040

package main

import (
	"machine"

	"github.com/calvinmclean/autovalve/controller"
	"github.com/calvinmclean/autovalve/firmware/device"
)

var board = device.BoardConfig{
	ValvePin:   machine.GP16,
	RelayPin:   machine.GP17,
	KnobPin:    machine.ADC0,
	BatteryPin: machine.ADC1,
}

// boardConfig adjusts for the Pico's 3.3V ADC reference. The battery divider has to bring 15V down to 3.3V
func boardConfig() controller.Config {
	cfg := controller.DefaultConfig()
	cfg.Sensor.ReferenceMillivolts = 3300
	cfg.Sensor.VoltageDivider = 4.7
	return cfg
}
