package controller

import (
	"tinygo.org/x/drivers"
)

// ADC is an analog input such as a machine.ADC
type ADC interface {
	Get() uint16
}

// Sampler reads the knob and battery voltage. Every read is a single fresh sample without any filtering
type Sampler struct {
	knob    ADC
	battery ADC
	cfg     SensorConfig

	lastKnob       int
	lastMillivolts int
}

var _ drivers.Sensor = &Sampler{}

// NewSampler creates a Sampler for the two inputs
func NewSampler(knob, battery ADC, cfg SensorConfig) *Sampler {
	return &Sampler{
		knob:    knob,
		battery: battery,
		cfg:     cfg,
	}
}

// Knob returns the knob position as a percentage between 0 and 100
func (s *Sampler) Knob() int {
	return s.knobPercent(s.knob.Get())
}

// Battery returns the supply voltage in millivolts
func (s *Sampler) Battery() int {
	return s.millivolts(s.battery.Get())
}

func (s *Sampler) knobPercent(raw uint16) int {
	if raw <= s.cfg.KnobRawMin {
		return 0
	}
	if raw >= s.cfg.KnobRawMax {
		return 100
	}
	span := int32(s.cfg.KnobRawMax) - int32(s.cfg.KnobRawMin)
	return int((int32(raw) - int32(s.cfg.KnobRawMin)) * 100 / span)
}

func (s *Sampler) millivolts(raw uint16) int {
	ratio := float32(raw) / float32(s.cfg.FullScale)
	return int(ratio*float32(s.cfg.ReferenceMillivolts)*s.cfg.VoltageDivider + 0.5)
}

// Update implements drivers.Sensor. drivers.Voltage refreshes the battery reading. drivers has no position
// measurement, so any other requested measurement refreshes the knob. Reads can't fail, so it never
// returns an error
func (s *Sampler) Update(which drivers.Measurement) error {
	s.refresh(which)
	return nil
}

func (s *Sampler) refresh(which drivers.Measurement) {
	if which&drivers.Voltage != 0 {
		s.lastMillivolts = s.Battery()
	}
	if which&^drivers.Voltage != 0 {
		s.lastKnob = s.Knob()
	}
}

// Readings returns the knob percentage and millivolts from the last Update
func (s *Sampler) Readings() (int, int) {
	return s.lastKnob, s.lastMillivolts
}
