package monitor

import (
	"sync"
	"time"

	"github.com/calvinmclean/autovalve"
)

// Snapshot is what is known about the board from its trace
type Snapshot struct {
	State      autovalve.State
	Position   int
	Target     int
	Knob       int
	Millivolts int
	LowVoltage bool

	// FullTravelTime is from the last timing event. It is zero until one is requested
	FullTravelTime time.Duration
	// LastOpen is the length of the most recent opening pulse
	LastOpen  time.Duration
	Moves     int
	Retargets int

	// LastMove is when the last reposition started and Updated is when any event arrived
	LastMove time.Time
	Updated  time.Time
}

// Status keeps a Snapshot up to date. It is safe to read while events are handled
type Status struct {
	mtx      sync.Mutex
	snapshot Snapshot
	now      func() time.Time
}

var _ Handler = &Status{}

// NewStatus creates an empty Status
func NewStatus() *Status {
	return &Status{now: time.Now}
}

func (s *Status) HandleEvent(e autovalve.Event) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := s.now()
	snap := &s.snapshot
	snap.Updated = now
	snap.State = e.State
	snap.Position = e.Position
	snap.Target = e.Target

	switch e.Kind {
	case autovalve.EventClose:
		snap.Moves++
		snap.LastMove = now
		snap.Knob = e.Knob
	case autovalve.EventRetarget:
		snap.Retargets++
		snap.Knob = e.Knob
	case autovalve.EventOpen:
		snap.LastOpen = e.Duration
	case autovalve.EventLowVoltage:
		snap.LowVoltage = true
	case autovalve.EventSupplyOK:
		snap.LowVoltage = false
	case autovalve.EventTiming:
		snap.FullTravelTime = e.Duration
	case autovalve.EventStatus, autovalve.EventSample:
		snap.Knob = e.Knob
	}

	if e.Millivolts != 0 {
		snap.Millivolts = e.Millivolts
	}
}

func (s *Status) HandleLine(string) {}

// Snapshot returns a copy of the current state
func (s *Status) Snapshot() Snapshot {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.snapshot
}
