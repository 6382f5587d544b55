package ui

import (
	"image/color"

	"github.com/calvinmclean/autovalve"
)

var (
	colorIdle    = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	colorClosing = color.RGBA{R: 200, G: 140, B: 0, A: 255}
	colorOpening = color.RGBA{R: 0, G: 140, B: 60, A: 255}
	colorLow     = color.RGBA{R: 139, G: 0, B: 0, A: 255}
)

func stateLabel(s autovalve.State, lowVoltage bool) string {
	if lowVoltage {
		return "Low Voltage"
	}
	switch s {
	case autovalve.StateClosingAndSettling:
		return "Closing"
	case autovalve.StateOpening:
		return "Opening"
	default:
		return "Idle"
	}
}

func stateColor(s autovalve.State, lowVoltage bool) color.Color {
	if lowVoltage {
		return colorLow
	}
	switch s {
	case autovalve.StateClosingAndSettling:
		return colorClosing
	case autovalve.StateOpening:
		return colorOpening
	default:
		return colorIdle
	}
}
