package ui

import (
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/autovalve/monitor"
)

// Connection is the serial port picked in the ConfigWindow
type Connection struct {
	SerialPort string
	BaudRate   int
}

// ConfigWindow asks for the serial port when none was given on the command line
type ConfigWindow struct {
	app      fyne.App
	OnSubmit func(Connection)
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

type configForm struct {
	SerialPort string
	BaudRate   string
}

func (cw *ConfigWindow) loadConfigFromPreferences(cfg *configForm) {
	prefs := cw.app.Preferences()
	cfg.SerialPort = prefs.StringWithFallback("serialPort", "")
	cfg.BaudRate = prefs.StringWithFallback("baudRate", "115200")
}

func (cw *ConfigWindow) saveConfigToPreferences(cfg *configForm) {
	prefs := cw.app.Preferences()
	prefs.SetString("serialPort", cfg.SerialPort)
	prefs.SetString("baudRate", cfg.BaudRate)
}

func (cfg configForm) connection() (Connection, error) {
	if cfg.SerialPort == "" || cfg.SerialPort == monitor.SerialPortNone {
		return Connection{}, errors.New("a serial port is required")
	}
	baud, err := strconv.Atoi(cfg.BaudRate)
	if err != nil || baud <= 0 {
		return Connection{}, fmt.Errorf("invalid baud rate: %q", cfg.BaudRate)
	}
	return Connection{SerialPort: cfg.SerialPort, BaudRate: baud}, nil
}

func (cw *ConfigWindow) Show() {
	window := cw.app.NewWindow("Auto Valve - Connect")
	window.Resize(fyne.NewSize(400, 150))
	window.SetCloseIntercept(func() {
		// Treat window close as cancel
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	cfg := &configForm{}
	cw.loadConfigFromPreferences(cfg)

	serialPorts, err := monitor.GetSerialPorts()
	if err != nil && !errors.Is(err, monitor.ErrNoUSBSerial) {
		showError(cw.app, window, fmt.Errorf("error getting serial ports: %w", err))
		return
	}

	serialPorts = append(serialPorts, monitor.SerialPortNone)

	serialEntry := widget.NewSelect(serialPorts, nil)
	if cfg.SerialPort == "" {
		cfg.SerialPort = serialPorts[0]
	}
	serialEntry.Bind(binding.BindString(&cfg.SerialPort))

	baudRateEntry := widget.NewEntry()
	baudRateEntry.Bind(binding.BindString(&cfg.BaudRate))

	submitButton := widget.NewButton("Connect", func() {
		conn, err := cfg.connection()
		if err != nil {
			dialog.ShowError(err, window)
			return
		}
		cw.saveConfigToPreferences(cfg)
		cw.OnSubmit(conn)
		window.Close()
	})

	validateForm := func() {
		_, err := cfg.connection()
		if err != nil {
			submitButton.Disable()
			return
		}
		submitButton.Enable()
	}

	serialEntry.OnChanged = func(_ string) { validateForm() }
	baudRateEntry.OnChanged = func(_ string) { validateForm() }

	validateForm()

	form := container.NewVBox(
		widget.NewCard("Board", "", container.NewVBox(
			container.NewGridWithColumns(2,
				widget.NewLabel("Serial Port:"),
				serialEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Baud Rate:"),
				baudRateEntry,
			),
		)),
		container.NewHBox(
			widget.NewButton("Cancel", func() {
				window.Close()
				cw.app.Quit()
			}),
			submitButton,
		),
	)

	window.SetContent(form)
}

func showError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
