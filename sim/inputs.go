package sim

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/calvinmclean/autovalve/controller"
)

// Step sets the knob to Percent at a time relative to Epoch
type Step struct {
	At      time.Duration
	Percent int
}

// Profile is a script of knob positions ordered by time
type Profile []Step

// ParseProfile reads a comma-separated list of time=percent pairs like "0s=0,1s=80,6s=40"
func ParseProfile(input string) (Profile, error) {
	var profile Profile
	for entry := range strings.SplitSeq(input, ",") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid knob entry: %q", entry)
		}
		atStr := strings.TrimSpace(parts[0])
		pctStr := strings.TrimSpace(parts[1])

		at, err := time.ParseDuration(atStr)
		if err != nil || at < 0 {
			return nil, fmt.Errorf("invalid knob time: %q", atStr)
		}

		pct, err := strconv.Atoi(pctStr)
		if err != nil || pct < 0 || pct > 100 {
			return nil, fmt.Errorf("invalid knob percent: %q", pctStr)
		}

		profile = append(profile, Step{At: at, Percent: pct})
	}

	if !sort.SliceIsSorted(profile, func(i, j int) bool { return profile[i].At < profile[j].At }) {
		return nil, fmt.Errorf("knob entries must be in time order: %q", input)
	}

	return profile, nil
}

// At is the knob percentage at elapsed. Before the first step the knob is at the first step's position
func (p Profile) At(elapsed time.Duration) int {
	if len(p) == 0 {
		return 0
	}
	pct := p[0].Percent
	for _, step := range p {
		if step.At > elapsed {
			break
		}
		pct = step.Percent
	}
	return pct
}

// Last is the time of the final step
func (p Profile) Last() time.Duration {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].At
}

func (p Profile) String() string {
	entries := make([]string, 0, len(p))
	for _, step := range p {
		entries = append(entries, step.At.String()+"="+strconv.Itoa(step.Percent))
	}
	return strings.Join(entries, ",")
}

// Knob is an ADC that follows a Profile on the Clock. It returns the raw reading the sensor config turns
// back into the scripted percentage
type Knob struct {
	clock   *Clock
	profile Profile
	cfg     controller.SensorConfig
}

var _ controller.ADC = &Knob{}

// NewKnob creates a Knob for the profile
func NewKnob(clock *Clock, profile Profile, cfg controller.SensorConfig) *Knob {
	return &Knob{clock: clock, profile: profile, cfg: cfg}
}

func (k *Knob) Get() uint16 {
	return KnobRaw(k.profile.At(k.clock.Elapsed()), k.cfg)
}

// KnobRaw is the smallest raw reading that maps to pct
func KnobRaw(pct int, cfg controller.SensorConfig) uint16 {
	if pct <= 0 {
		return cfg.KnobRawMin
	}
	if pct >= 100 {
		return cfg.KnobRawMax
	}
	span := int64(cfg.KnobRawMax) - int64(cfg.KnobRawMin)
	return cfg.KnobRawMin + uint16((int64(pct)*span+99)/100)
}

// Battery is an ADC for a supply at a set voltage
type Battery struct {
	millivolts int
	cfg        controller.SensorConfig
}

var _ controller.ADC = &Battery{}

// NewBattery creates a Battery at millivolts
func NewBattery(millivolts int, cfg controller.SensorConfig) *Battery {
	return &Battery{millivolts: millivolts, cfg: cfg}
}

// Set changes the supply voltage
func (b *Battery) Set(millivolts int) {
	b.millivolts = millivolts
}

func (b *Battery) Millivolts() int {
	return b.millivolts
}

func (b *Battery) Get() uint16 {
	return BatteryRaw(b.millivolts, b.cfg)
}

// BatteryRaw is the raw reading for the supply voltage, limited to the ADC's range
func BatteryRaw(millivolts int, cfg controller.SensorConfig) uint16 {
	scale := float64(cfg.ReferenceMillivolts) * float64(cfg.VoltageDivider)
	raw := float64(millivolts)/scale*float64(cfg.FullScale) + 0.5
	switch {
	case raw <= 0:
		return 0
	case raw >= float64(cfg.FullScale):
		return cfg.FullScale
	}
	return uint16(raw)
}
