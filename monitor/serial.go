package monitor

import (
	"errors"
	"fmt"
	"sort"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrNoUSBSerial is returned when no USB serial device is connected
var ErrNoUSBSerial = errors.New("no USB serial ports found")

// SerialPortNone is offered as a choice to run without a board
const SerialPortNone = "None"

// GetSerialPorts lists the USB serial ports, which is where a board shows up
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, port := range ports {
		if port.IsUSB {
			result = append(result, port.Name)
		}
	}
	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}

	sort.Strings(result)
	return result, nil
}

// OpenSerial opens the port and returns its name. An empty port uses the first USB serial port
func OpenSerial(port string, baudRate int) (serial.Port, string, error) {
	port, err := resolvePort(port, GetSerialPorts)
	if err != nil {
		return nil, "", err
	}

	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, "", fmt.Errorf("error opening serial port %q: %w", port, err)
	}
	return p, port, nil
}

func resolvePort(port string, list func() ([]string, error)) (string, error) {
	if port != "" {
		return port, nil
	}
	ports, err := list()
	if err != nil {
		return "", err
	}
	return ports[0], nil
}
