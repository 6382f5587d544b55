// Package rpi runs the valve controller on a Raspberry Pi. The valve and relay are GPIO outputs and the knob
// and battery divider are read through an MCP3008 on SPI0, since the Pi has no analog inputs
package rpi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/calvinmclean/autovalve/controller"
)

// MCP3008FullScale is the largest reading of the 10-bit ADC. Use it as sensor.full_scale
const MCP3008FullScale = 1023

// Config has the BCM pin numbers and ADC channels
type Config struct {
	ValvePin       int   `toml:"valve_pin"`
	RelayPin       int   `toml:"relay_pin"`
	KnobChannel    uint8 `toml:"knob_channel"`
	BatteryChannel uint8 `toml:"battery_channel"`
	SPISpeed       int   `toml:"spi_speed"`
}

// DefaultConfig returns the wiring used for bench testing
func DefaultConfig() Config {
	return Config{
		ValvePin:       17,
		RelayPin:       27,
		KnobChannel:    0,
		BatteryChannel: 1,
		SPISpeed:       1_000_000,
	}
}

// Validate checks for impossible pins and channels
func (c Config) Validate() error {
	if c.ValvePin < 0 || c.ValvePin > 27 || c.RelayPin < 0 || c.RelayPin > 27 {
		return errors.New("pins must be BCM GPIO numbers between 0 and 27")
	}
	if c.ValvePin == c.RelayPin {
		return errors.New("valve and relay must use different pins")
	}
	if c.KnobChannel > 7 || c.BatteryChannel > 7 {
		return errors.New("MCP3008 channels must be between 0 and 7")
	}
	if c.KnobChannel == c.BatteryChannel {
		return errors.New("knob and battery must use different channels")
	}
	if c.SPISpeed <= 0 {
		return errors.New("spi_speed must be greater than zero")
	}
	return nil
}

// Board holds the open GPIO and SPI devices
type Board struct {
	valve outputPin
	relay outputPin
	spi   *sync.Mutex
	cfg   Config
}

// Open maps GPIO memory and starts SPI. Close must be called to release them
func Open(cfg Config) (*Board, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid rpi config: %w", err)
	}

	err = rpio.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening gpio: %w", err)
	}

	err = rpio.SpiBegin(rpio.Spi0)
	if err != nil {
		_ = rpio.Close()
		return nil, fmt.Errorf("error starting spi: %w", err)
	}
	rpio.SpiSpeed(cfg.SPISpeed)
	rpio.SpiChipSelect(0)

	b := &Board{
		valve: outputPin{rpio.Pin(cfg.ValvePin)},
		relay: outputPin{rpio.Pin(cfg.RelayPin)},
		spi:   &sync.Mutex{},
		cfg:   cfg,
	}
	b.valve.pin.Output()
	b.relay.pin.Output()
	b.valve.Set(false)
	b.relay.Set(false)

	return b, nil
}

// Hardware returns the pins for controller.New
func (b *Board) Hardware() controller.Hardware {
	return controller.Hardware{
		Valve:   b.valve,
		Relay:   b.relay,
		Knob:    adcChannel{b, b.cfg.KnobChannel},
		Battery: adcChannel{b, b.cfg.BatteryChannel},
	}
}

// Close turns the outputs off and releases SPI and GPIO
func (b *Board) Close() error {
	b.valve.Set(false)
	b.relay.Set(false)
	rpio.SpiEnd(rpio.Spi0)
	return rpio.Close()
}

type outputPin struct {
	pin rpio.Pin
}

func (p outputPin) Set(v bool) {
	if v {
		p.pin.High()
		return
	}
	p.pin.Low()
}

type adcChannel struct {
	b       *Board
	channel uint8
}

// Get does a single-ended conversion on the channel
func (a adcChannel) Get() uint16 {
	a.b.spi.Lock()
	defer a.b.spi.Unlock()

	buf := mcp3008Request(a.channel)
	rpio.SpiExchange(buf)
	return mcp3008Decode(buf)
}

// mcp3008Request is the start bit followed by single-ended mode and the channel, then a byte to clock out
// the rest of the result
func mcp3008Request(channel uint8) []byte {
	return []byte{0x01, (0x08 | channel&0x07) << 4, 0x00}
}

func mcp3008Decode(buf []byte) uint16 {
	return uint16(buf[1]&0x03)<<8 | uint16(buf[2])
}
