package autovalve

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// TracePrefix marks a serial line as a machine-readable Event. Anything else is free text
const TracePrefix = '@'

// State is the phase of the repositioning cycle the controller is in
type State int

const (
	StateIdle State = iota
	StateClosingAndSettling
	StateOpening
)

func (s State) String() string {
	switch s {
	case StateClosingAndSettling:
		return "closing"
	case StateOpening:
		return "opening"
	default:
		fallthrough
	case StateIdle:
		return "idle"
	}
}

// ParseState is the inverse of State.String
func ParseState(s string) (State, error) {
	switch s {
	case "idle":
		return StateIdle, nil
	case "closing":
		return StateClosingAndSettling, nil
	case "opening":
		return StateOpening, nil
	}
	return StateIdle, errors.New("unknown state: " + s)
}

// EventKind identifies what happened in an Event
type EventKind string

const (
	// EventClose is sent when a reposition starts and the valve is driven closed
	EventClose EventKind = "close"
	// EventRetarget is sent when the knob moved during the settle window and the timer restarted
	EventRetarget EventKind = "retarget"
	// EventSample is only sent in verbose mode, once per settle poll
	EventSample EventKind = "sample"
	// EventOpen is sent when the target is committed and the valve starts opening for Duration
	EventOpen EventKind = "open"
	// EventIdle is sent when the opening pulse is finished
	EventIdle EventKind = "idle"
	// EventLowVoltage is sent once when the supply drops to or below the minimum
	EventLowVoltage EventKind = "low-voltage"
	// EventSupplyOK is sent once when the supply recovers
	EventSupplyOK EventKind = "supply-ok"
	// EventStatus is a snapshot requested over the diagnostic channel
	EventStatus EventKind = "status"
	// EventTiming reports the timing model, requested over the diagnostic channel
	EventTiming EventKind = "timing"
)

// Event is a single entry of the controller's diagnostic trace
type Event struct {
	Kind       EventKind
	State      State
	Position   int
	Target     int
	Knob       int
	Millivolts int
	Duration   time.Duration
}

// String formats the Event as a trace line without the TracePrefix
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" state=")
	b.WriteString(e.State.String())
	b.WriteString(" pos=")
	b.WriteString(strconv.Itoa(e.Position))
	b.WriteString(" target=")
	b.WriteString(strconv.Itoa(e.Target))
	b.WriteString(" knob=")
	b.WriteString(strconv.Itoa(e.Knob))
	b.WriteString(" mv=")
	b.WriteString(strconv.Itoa(e.Millivolts))
	b.WriteString(" dur=")
	b.WriteString(strconv.FormatInt(e.Duration.Milliseconds(), 10))
	return b.String()
}

// TraceLine formats the Event the way the firmware writes it to serial
func (e Event) TraceLine() string {
	return string(TracePrefix) + e.String()
}

// ParseTraceLine parses a line written by TraceLine. ok is false for free-text lines
func ParseTraceLine(line string) (e Event, ok bool, err error) {
	line = strings.TrimSpace(line)
	if len(line) == 0 || line[0] != TracePrefix {
		return Event{}, false, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return Event{}, true, errors.New("empty trace line")
	}

	e.Kind = EventKind(fields[0])
	for _, field := range fields[1:] {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return Event{}, true, errors.New("invalid trace field: " + field)
		}

		if key == "state" {
			e.State, err = ParseState(value)
			if err != nil {
				return Event{}, true, err
			}
			continue
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return Event{}, true, errors.New("invalid value for " + key + ": " + value)
		}

		switch key {
		case "pos":
			e.Position = n
		case "target":
			e.Target = n
		case "knob":
			e.Knob = n
		case "mv":
			e.Millivolts = n
		case "dur":
			e.Duration = time.Duration(n) * time.Millisecond
		}
	}

	return e, true, nil
}
