package ui

import (
	"bytes"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/autovalve"
	"github.com/calvinmclean/autovalve/monitor"
)

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00", formatElapsed(0, false))
	assert.Equal(t, "01:05", formatElapsed(65*time.Second+300*time.Millisecond, false))
	assert.Equal(t, "01:05.300", formatElapsed(65*time.Second+300*time.Millisecond, true))
}

func TestState(t *testing.T) {
	assert.Equal(t, "Idle", stateLabel(autovalve.StateIdle, false))
	assert.Equal(t, "Closing", stateLabel(autovalve.StateClosingAndSettling, false))
	assert.Equal(t, "Opening", stateLabel(autovalve.StateOpening, false))
	assert.Equal(t, "Low Voltage", stateLabel(autovalve.StateOpening, true))

	assert.Equal(t, colorLow, stateColor(autovalve.StateIdle, true))
	assert.Equal(t, colorOpening, stateColor(autovalve.StateOpening, false))
}

func TestControllerWrapper(t *testing.T) {
	var out bytes.Buffer
	c := &controllerWrapper{writer: &out, lastEventTimer: newTimer(false)}

	c.Debug()
	c.Verbose()
	c.Timing()
	c.Rehome()

	assert.Equal(t, "DVTR", out.String())
	assert.False(t, c.lastEventTimer.startTime.IsZero())
}

func TestCommandButtons(t *testing.T) {
	test.NewApp()

	var out bytes.Buffer
	buttons := commandButtons(&controllerWrapper{writer: &out, lastEventTimer: newTimer(false)})

	var labels []string
	for _, obj := range buttons.Objects {
		button, ok := obj.(*widget.Button)
		require.True(t, ok)
		labels = append(labels, button.Text)
		test.Tap(button)
	}

	assert.Equal(t, []string{"Status", "Timing", "Rehome", "Toggle Verbose"}, labels)
	assert.Equal(t, "DTRV", out.String())

	test.Tap(buttons.Objects[3].(*widget.Button))
	assert.Equal(t, "DTRVV", out.String())
}

func TestConfigFormConnection(t *testing.T) {
	conn, err := configForm{SerialPort: "/dev/ttyUSB0", BaudRate: "9600"}.connection()
	require.NoError(t, err)
	assert.Equal(t, Connection{SerialPort: "/dev/ttyUSB0", BaudRate: 9600}, conn)

	_, err = configForm{SerialPort: monitor.SerialPortNone, BaudRate: "9600"}.connection()
	assert.Error(t, err)

	_, err = configForm{SerialPort: "/dev/ttyUSB0", BaudRate: "fast"}.connection()
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	ui := newValveUI(test.NewApp())

	ui.refresh(monitor.Snapshot{
		State:          autovalve.StateOpening,
		Position:       80,
		Target:         80,
		Knob:           81,
		Millivolts:     12340,
		FullTravelTime: 4150 * time.Millisecond,
		Moves:          3,
	})

	assert.Equal(t, "Opening", ui.stateText.Text)
	assert.Equal(t, 80.0, ui.position.Value)
	assert.Equal(t, "80%", ui.target.Text)
	assert.Equal(t, "81%", ui.knob.Text)
	assert.Equal(t, "12.34 V", ui.battery.Text)
	assert.Equal(t, "4.15s", ui.travel.Text)
	assert.Equal(t, "3", ui.moves.Text)
}
