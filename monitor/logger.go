package monitor

import (
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/calvinmclean/autovalve"
)

// Logger logs the trace with logrus. The event kind is colored by how it affects the valve
type Logger struct {
	logger *log.Logger
}

var _ Handler = &Logger{}

// NewLogger logs to logger, or the standard logger if it is nil
func NewLogger(logger *log.Logger) *Logger {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Logger{logger: logger}
}

func (l *Logger) HandleEvent(e autovalve.Event) {
	entry := l.logger.WithFields(log.Fields{
		"state":  e.State.String(),
		"pos":    e.Position,
		"target": e.Target,
		"knob":   e.Knob,
	})
	if e.Millivolts != 0 {
		entry = entry.WithField("mv", e.Millivolts)
	}
	if e.Duration != 0 {
		entry = entry.WithField("dur", e.Duration)
	}

	msg := kindColor(e.Kind).Sprint(string(e.Kind))
	switch e.Kind {
	case autovalve.EventSample:
		entry.Debug(msg)
	case autovalve.EventLowVoltage:
		entry.Warn(msg)
	default:
		entry.Info(msg)
	}
}

func (l *Logger) HandleLine(line string) {
	l.logger.Info(line)
}

func kindColor(kind autovalve.EventKind) *color.Color {
	switch kind {
	case autovalve.EventClose:
		return color.New(color.FgYellow)
	case autovalve.EventOpen:
		return color.New(color.FgGreen)
	case autovalve.EventRetarget:
		return color.New(color.FgCyan)
	case autovalve.EventLowVoltage:
		return color.New(color.FgRed, color.Bold)
	case autovalve.EventSupplyOK:
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.Reset)
	}
}
