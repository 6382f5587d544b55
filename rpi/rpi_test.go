package rpi

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isPi() bool {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "Raspberry Pi")
}

func skipIfNotPi(t *testing.T) {
	if !isPi() || os.Getenv("AUTOVALVE_RPI_TEST") != "true" {
		t.Skip("Skipping non-Pi")
	}
}

func TestMCP3008Request(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x80, 0x00}, mcp3008Request(0))
	assert.Equal(t, []byte{0x01, 0x90, 0x00}, mcp3008Request(1))
	assert.Equal(t, []byte{0x01, 0xF0, 0x00}, mcp3008Request(7))
}

func TestMCP3008Decode(t *testing.T) {
	tests := []struct {
		name     string
		buf      []byte
		expected uint16
	}{
		{"Zero", []byte{0xFF, 0xF8, 0x00}, 0},
		{"FullScale", []byte{0x00, 0x03, 0xFF}, MCP3008FullScale},
		{"Middle", []byte{0x00, 0x02, 0x00}, 512},
		{"IgnoresHighBits", []byte{0x00, 0xFD, 0x01}, 257},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mcp3008Decode(tt.buf))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"SamePins", func(c *Config) { c.RelayPin = c.ValvePin }},
		{"BadPin", func(c *Config) { c.ValvePin = 40 }},
		{"SameChannel", func(c *Config) { c.BatteryChannel = c.KnobChannel }},
		{"BadChannel", func(c *Config) { c.KnobChannel = 8 }},
		{"NoSPISpeed", func(c *Config) { c.SPISpeed = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOpen(t *testing.T) {
	skipIfNotPi(t)

	b, err := Open(DefaultConfig())
	require.NoError(t, err)
	defer b.Close()

	hw := b.Hardware()
	assert.LessOrEqual(t, hw.Knob.Get(), uint16(MCP3008FullScale))
	assert.LessOrEqual(t, hw.Battery.Get(), uint16(MCP3008FullScale))
}
