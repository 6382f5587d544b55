package controller

import (
	"errors"
	"strconv"
	"time"
)

// SensorConfig has the values needed to turn raw analog readings into a knob position and a supply voltage
type SensorConfig struct {
	// KnobRawMin and KnobRawMax are the raw readings at the knob's end stops
	KnobRawMin uint16 `toml:"knob_raw_min"`
	KnobRawMax uint16 `toml:"knob_raw_max"`

	// FullScale is the raw reading at the ADC reference voltage. TinyGo's machine.ADC always scales to 16 bits
	FullScale           uint16  `toml:"full_scale"`
	ReferenceMillivolts int     `toml:"reference_millivolts"`
	VoltageDivider      float32 `toml:"voltage_divider"`
}

// CalibrationPoint is a measured time for the valve to travel its whole range at a supply voltage
type CalibrationPoint struct {
	Millivolts int           `toml:"millivolts"`
	CloseTime  time.Duration `toml:"close_time"`
}

// CalibrationConfig has values for the valve motor that have to be measured after final assembly
type CalibrationConfig struct {
	// MinMillivolts is the supply voltage at or below which the motor is never driven
	MinMillivolts int `toml:"min_millivolts"`
	// MaxMillivolts is the top of the operating range. The timing model must stay positive up to here
	MaxMillivolts int `toml:"max_millivolts"`

	Low  CalibrationPoint `toml:"low"`
	High CalibrationPoint `toml:"high"`
}

// LoopConfig has the timing of the control loop and the settle window
type LoopConfig struct {
	// Hysteresis is how many percentage points the knob has to move before anything happens
	Hysteresis    int           `toml:"hysteresis"`
	SettleTick    time.Duration `toml:"settle_tick"`
	SettleCap     time.Duration `toml:"settle_cap"`
	CycleInterval time.Duration `toml:"cycle_interval"`
	// RelayDeadTime is how long the motor is left off while the reverse relay drops out before opening
	RelayDeadTime time.Duration `toml:"relay_dead_time"`
}

// Config is everything the controller needs besides the hardware
type Config struct {
	Sensor      SensorConfig      `toml:"sensor"`
	Calibration CalibrationConfig `toml:"calibration"`
	Loop        LoopConfig        `toml:"loop"`
}

// DefaultConfig returns the values tuned on the first valve with an Arduino Nano running TinyGo
func DefaultConfig() Config {
	return Config{
		Sensor: SensorConfig{
			KnobRawMin:          0,
			KnobRawMax:          65535,
			FullScale:           65535,
			ReferenceMillivolts: 5000,
			VoltageDivider:      3,
		},
		Calibration: CalibrationConfig{
			MinMillivolts: 8000,
			MaxMillivolts: 15000,
			Low:           CalibrationPoint{Millivolts: 10000, CloseTime: 4900 * time.Millisecond},
			High:          CalibrationPoint{Millivolts: 14000, CloseTime: 3400 * time.Millisecond},
		},
		Loop: LoopConfig{
			Hysteresis:    2,
			SettleTick:    50 * time.Millisecond,
			SettleCap:     5000 * time.Millisecond,
			CycleInterval: 10 * time.Millisecond,
			RelayDeadTime: 5 * time.Millisecond,
		},
	}
}

// Validate makes sure the Config can drive a valve. It does not check that the calibration is accurate
func (c Config) Validate() error {
	if c.Sensor.KnobRawMax <= c.Sensor.KnobRawMin {
		return errors.New("knob_raw_max must be greater than knob_raw_min")
	}
	if c.Sensor.FullScale == 0 {
		return errors.New("full_scale must be greater than zero")
	}
	if c.Sensor.ReferenceMillivolts <= 0 {
		return errors.New("reference_millivolts must be greater than zero")
	}
	if c.Sensor.VoltageDivider <= 0 {
		return errors.New("voltage_divider must be greater than zero")
	}

	if c.Calibration.MaxMillivolts <= c.Calibration.MinMillivolts {
		return errors.New("max_millivolts must be greater than min_millivolts")
	}
	model, err := NewTimingModel(c.Calibration.Low, c.Calibration.High)
	if err != nil {
		return errors.New("invalid calibration: " + err.Error())
	}
	for _, mv := range []int{c.Calibration.MinMillivolts, c.Calibration.MaxMillivolts} {
		if model.FullTravelTime(mv) <= 0 {
			return errors.New("calibration gives no travel time at " + strconv.Itoa(mv) + "mV")
		}
	}

	if c.Loop.Hysteresis < 0 || c.Loop.Hysteresis >= 100 {
		return errors.New("hysteresis must be between 0 and 99")
	}
	if c.Loop.SettleTick <= 0 {
		return errors.New("settle_tick must be greater than zero")
	}
	if c.Loop.SettleCap <= 0 {
		return errors.New("settle_cap must be greater than zero")
	}
	if c.Loop.CycleInterval < 0 || c.Loop.RelayDeadTime < 0 {
		return errors.New("cycle_interval and relay_dead_time must not be negative")
	}

	return nil
}
