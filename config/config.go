// Package config loads the host-side TOML configuration. The firmware is configured in Go instead
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/calvinmclean/autovalve/controller"
	"github.com/calvinmclean/autovalve/rpi"
)

// SerialConfig is the connection to a board running the firmware
type SerialConfig struct {
	Port     string `toml:"port"`
	BaudRate int    `toml:"baud_rate"`
}

// File is the layout of the TOML file
type File struct {
	Sensor      controller.SensorConfig      `toml:"sensor"`
	Calibration controller.CalibrationConfig `toml:"calibration"`
	Loop        controller.LoopConfig        `toml:"loop"`
	Serial      SerialConfig                 `toml:"serial"`
	RPi         rpi.Config                   `toml:"rpi"`
}

// Default returns the firmware's defaults. Anything missing from a file keeps these values
func Default() File {
	cfg := controller.DefaultConfig()
	return File{
		Sensor:      cfg.Sensor,
		Calibration: cfg.Calibration,
		Loop:        cfg.Loop,
		Serial: SerialConfig{
			BaudRate: 115200,
		},
		RPi: rpi.DefaultConfig(),
	}
}

// Controller returns the part of the File the controller uses
func (f File) Controller() controller.Config {
	return controller.Config{
		Sensor:      f.Sensor,
		Calibration: f.Calibration,
		Loop:        f.Loop,
	}
}

// Load decodes and validates a configuration. Unknown keys are an error so typos don't silently fall back
// to defaults
func Load(r io.Reader) (File, error) {
	f := Default()

	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return File{}, fmt.Errorf("error decoding config: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return File{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	err = f.Controller().Validate()
	if err != nil {
		return File{}, fmt.Errorf("invalid config: %w", err)
	}

	if f.Serial.BaudRate <= 0 {
		return File{}, fmt.Errorf("invalid config: baud_rate must be greater than zero")
	}

	return f, nil
}

// LoadFile reads a configuration from path. An empty path gives the defaults
func LoadFile(path string) (File, error) {
	if path == "" {
		return Default(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("error opening config: %w", err)
	}
	defer file.Close()

	return Load(file)
}
