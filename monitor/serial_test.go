package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePort(t *testing.T) {
	list := func() ([]string, error) {
		return []string{"/dev/ttyACM0", "/dev/ttyUSB0"}, nil
	}

	t.Run("Given", func(t *testing.T) {
		port, err := resolvePort("/dev/ttyUSB0", func() ([]string, error) {
			t.Fatal("ports should not be listed")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyUSB0", port)
	})

	t.Run("FirstUSB", func(t *testing.T) {
		port, err := resolvePort("", list)
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyACM0", port)
	})

	t.Run("NoUSB", func(t *testing.T) {
		_, err := resolvePort("", func() ([]string, error) {
			return nil, ErrNoUSBSerial
		})
		assert.ErrorIs(t, err, ErrNoUSBSerial)
	})
}
