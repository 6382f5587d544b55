package controller

import (
	"errors"
	"time"
)

// TimingModel estimates how long the valve takes to travel its whole range at a supply voltage. The motor
// runs faster with more voltage, so this is a straight line through two measured points
type TimingModel struct {
	low CalibrationPoint
	// rise and run are kept separately so both calibration points are reproduced exactly
	rise time.Duration
	run  int
}

// NewTimingModel derives the line through the two calibration points
func NewTimingModel(low, high CalibrationPoint) (TimingModel, error) {
	if low.Millivolts == high.Millivolts {
		return TimingModel{}, errors.New("calibration points must have different voltages")
	}

	return TimingModel{
		low:  low,
		rise: high.CloseTime - low.CloseTime,
		run:  high.Millivolts - low.Millivolts,
	}, nil
}

// FullTravelTime is the time for a full 0-100% traversal at the voltage. Voltages outside the calibration
// points are extrapolated and not clamped
func (m TimingModel) FullTravelTime(millivolts int) time.Duration {
	return m.low.CloseTime + m.rise*time.Duration(millivolts-m.low.Millivolts)/time.Duration(m.run)
}

// Slope is the change in travel time per millivolt
func (m TimingModel) Slope() time.Duration {
	return m.rise / time.Duration(m.run)
}

// Intercept is the extrapolated travel time at zero volts
func (m TimingModel) Intercept() time.Duration {
	return m.FullTravelTime(0)
}
