package main_test

import (
	"bufio"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/calvinmclean/autovalve"
)

// expectTrace sends the command and returns the first trace line of the expected kind
func expectTrace(t *testing.T, port serial.Port, in string, kind autovalve.EventKind) autovalve.Event {
	t.Helper()

	_, err := port.Write([]byte(in))
	require.NoError(t, err)

	require.NoError(t, port.SetReadTimeout(100*time.Millisecond))
	scanner := bufio.NewScanner(port)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !scanner.Scan() {
			// a read timeout ends the scanner, so start a new one
			require.NoError(t, scanner.Err())
			scanner = bufio.NewScanner(port)
			continue
		}

		line := strings.Trim(scanner.Text(), "\r\x00")
		e, ok, err := autovalve.ParseTraceLine(line)
		if !ok {
			continue
		}
		require.NoError(t, err, line)
		if e.Kind == kind {
			return e
		}
	}

	t.Fatalf("no %s event after sending %q", kind, in)
	return autovalve.Event{}
}

func TestSerial(t *testing.T) {
	portName := os.Getenv("AUTOVALVE_SERIAL_PORT")
	if portName == "" {
		t.Skip("AUTOVALVE_SERIAL_PORT is not set")
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: 115200})
	require.NoError(t, err)
	defer port.Close()

	// boards reset when the port opens
	time.Sleep(2 * time.Second)

	t.Run("Status", func(t *testing.T) {
		e := expectTrace(t, port, "D", autovalve.EventStatus)
		assert.GreaterOrEqual(t, e.Knob, 0)
		assert.LessOrEqual(t, e.Knob, 100)
		assert.Greater(t, e.Millivolts, 0)
	})

	t.Run("Timing", func(t *testing.T) {
		e := expectTrace(t, port, "T", autovalve.EventTiming)
		assert.Greater(t, e.Duration, time.Duration(0))
	})
}
