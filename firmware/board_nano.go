//go:build tinygo && arduino_nano

package main

import (
	"machine"

	"github.com/calvinmclean/autovalve/controller"
	"github.com/calvinmclean/autovalve/firmware/device"
)

// Most testing has been done on the Arduino Nano
var board = device.BoardConfig{
	ValvePin:   machine.D2,
	RelayPin:   machine.D3,
	KnobPin:    machine.ADC0,
	BatteryPin: machine.ADC1,
}

func boardConfig() controller.Config {
	return controller.DefaultConfig()
}
