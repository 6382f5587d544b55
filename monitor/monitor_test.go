package monitor

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/autovalve"
)

type recorder struct {
	events []autovalve.Event
	lines  []string
}

func (r *recorder) HandleEvent(e autovalve.Event) { r.events = append(r.events, e) }
func (r *recorder) HandleLine(line string)        { r.lines = append(r.lines, line) }

const trace = "[1.2s] Started...\r\n" +
	"@close state=closing pos=0 target=80 knob=80 mv=0 dur=0\r\n" +
	"\x00\x00\r\n" +
	"@open state=opening pos=80 target=80 knob=80 mv=12000 dur=3320\r\n" +
	"@open state=sideways\r\n" +
	"@idle state=idle pos=80 target=80 knob=80 mv=12000 dur=0\r\n"

func TestMonitorRead(t *testing.T) {
	r := &recorder{}
	m := New(r, nil)

	err := m.Read(context.Background(), strings.NewReader(trace))
	require.NoError(t, err)

	assert.Equal(t, []string{"[1.2s] Started...", "@open state=sideways"}, r.lines)
	require.Len(t, r.events, 3)
	assert.Equal(t, autovalve.EventClose, r.events[0].Kind)
	assert.Equal(t, autovalve.Event{
		Kind:       autovalve.EventOpen,
		State:      autovalve.StateOpening,
		Position:   80,
		Target:     80,
		Knob:       80,
		Millivolts: 12000,
		Duration:   3320 * time.Millisecond,
	}, r.events[1])
	assert.Equal(t, autovalve.EventIdle, r.events[2].Kind)
}

func TestMonitorReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &recorder{}
	err := New(r).Read(ctx, strings.NewReader(trace))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.events)
}

func TestSendCommands(t *testing.T) {
	var out bytes.Buffer
	err := SendCommands(context.Background(), strings.NewReader("d r\nV\r\nt"), &out)
	require.NoError(t, err)
	assert.Equal(t, "DRVT", out.String())
}

func TestStatus(t *testing.T) {
	s := NewStatus()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.Equal(t, Snapshot{}, s.Snapshot())

	s.HandleEvent(autovalve.Event{Kind: autovalve.EventLowVoltage, Millivolts: 7900})
	assert.True(t, s.Snapshot().LowVoltage)
	assert.Equal(t, 7900, s.Snapshot().Millivolts)

	s.HandleEvent(autovalve.Event{Kind: autovalve.EventSupplyOK, Millivolts: 12000})
	s.HandleEvent(autovalve.Event{Kind: autovalve.EventClose, State: autovalve.StateClosingAndSettling, Target: 50, Knob: 50})
	s.HandleEvent(autovalve.Event{Kind: autovalve.EventRetarget, State: autovalve.StateClosingAndSettling, Target: 80, Knob: 80, Millivolts: 12000})
	s.HandleEvent(autovalve.Event{Kind: autovalve.EventOpen, State: autovalve.StateOpening, Position: 80, Target: 80, Knob: 80, Millivolts: 12000, Duration: 3320 * time.Millisecond})
	s.HandleEvent(autovalve.Event{Kind: autovalve.EventIdle, State: autovalve.StateIdle, Position: 80, Target: 80, Knob: 80, Millivolts: 12000})
	s.HandleEvent(autovalve.Event{Kind: autovalve.EventTiming, State: autovalve.StateIdle, Position: 80, Target: 80, Millivolts: 12000, Duration: 4150 * time.Millisecond})
	s.HandleLine("ignored")

	assert.Equal(t, Snapshot{
		State:          autovalve.StateIdle,
		Position:       80,
		Target:         80,
		Knob:           80,
		Millivolts:     12000,
		FullTravelTime: 4150 * time.Millisecond,
		LastOpen:       3320 * time.Millisecond,
		Moves:          1,
		Retargets:      1,
		LastMove:       now,
		Updated:        now,
	}, s.Snapshot())
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.HandleEvent(autovalve.Event{Kind: autovalve.EventClose, State: autovalve.StateClosingAndSettling, Target: 80, Knob: 80})
	m.HandleEvent(autovalve.Event{Kind: autovalve.EventOpen, State: autovalve.StateOpening, Position: 80, Target: 80, Knob: 80, Millivolts: 12000, Duration: 3320 * time.Millisecond})
	m.HandleEvent(autovalve.Event{Kind: autovalve.EventLowVoltage, State: autovalve.StateIdle, Position: 80, Target: 80, Millivolts: 7500})
	m.HandleLine("free text")

	assert.Equal(t, 80.0, testutil.ToFloat64(m.position))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.knob))
	assert.Equal(t, 7500.0, testutil.ToFloat64(m.millivolts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lowVoltage))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("idle")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("opening")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lines))
	assert.Equal(t, 1, testutil.CollectAndCount(m.openPulse))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestLogger(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&log.TextFormatter{DisableColors: true, DisableTimestamp: true})

	l := NewLogger(logger)
	l.HandleEvent(autovalve.Event{Kind: autovalve.EventOpen, State: autovalve.StateOpening, Position: 80, Target: 80, Knob: 80, Millivolts: 12000, Duration: 3320 * time.Millisecond})
	l.HandleEvent(autovalve.Event{Kind: autovalve.EventSample, State: autovalve.StateClosingAndSettling})
	l.HandleEvent(autovalve.Event{Kind: autovalve.EventLowVoltage, Millivolts: 7500})
	l.HandleLine("[1s] Rehome")

	out := buf.String()
	assert.Contains(t, out, `level=info msg=open dur=3.32s knob=80 mv=12000 pos=80 state=opening target=80`)
	assert.NotContains(t, out, "msg=sample")
	assert.Contains(t, out, "level=warning msg=low-voltage")
	assert.Contains(t, out, `msg="[1s] Rehome"`)
}

type fakeBoard struct {
	io.Reader
	bytes.Buffer
}

func (b *fakeBoard) Read(p []byte) (int, error) { return b.Reader.Read(p) }

func TestRun(t *testing.T) {
	status := NewStatus()
	metrics := NewMetrics()
	history := NewHistory()

	err := Run(context.Background(), Options{
		Board:    &fakeBoard{Reader: strings.NewReader(trace)},
		Metrics:  metrics,
		History:  history,
		Handlers: []Handler{status},
	})
	require.NoError(t, err)

	snap := status.Snapshot()
	assert.Equal(t, 80, snap.Position)
	assert.Equal(t, autovalve.StateIdle, snap.State)
	assert.Equal(t, 1, snap.Moves)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.events.WithLabelValues("close"))+
		testutil.ToFloat64(metrics.events.WithLabelValues("open"))+
		testutil.ToFloat64(metrics.events.WithLabelValues("idle")))

	move, err := history.api.Storage.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 80, move.Target)
}

func TestRunRequiresBoard(t *testing.T) {
	assert.Error(t, Run(context.Background(), Options{}))
}
