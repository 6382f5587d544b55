// Package ui is a desktop dashboard for a board running the valve controller. It is a monitor.Handler, so
// it is fed the same trace as the console logs
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/autovalve"
	"github.com/calvinmclean/autovalve/monitor"
)

const maxLogLines = 200

// ValveUI shows the valve's state and position and has buttons for the diagnostic commands
type ValveUI struct {
	status *monitor.Status

	app            fyne.App
	stateText      *canvas.Text
	position       *widget.ProgressBar
	target         *widget.Label
	knob           *widget.Label
	battery        *widget.Label
	travel         *widget.Label
	moves          *widget.Label
	logContent     *widget.Label
	lastEventTimer *timer

	logMtx sync.Mutex
	logs   []string
}

var _ monitor.Handler = &ValveUI{}

func NewValveUI() *ValveUI {
	return newValveUI(app.NewWithID("com.calvinmclean.autovalve"))
}

func newValveUI(application fyne.App) *ValveUI {
	stateText := canvas.NewText(stateLabel(autovalve.StateIdle, false), stateColor(autovalve.StateIdle, false))
	stateText.TextSize = 24
	stateText.TextStyle = fyne.TextStyle{Bold: true}

	position := widget.NewProgressBar()
	position.Min = 0
	position.Max = 100
	position.TextFormatter = func() string {
		return fmt.Sprintf("%.0f%%", position.Value)
	}

	return &ValveUI{
		status:         monitor.NewStatus(),
		app:            application,
		stateText:      stateText,
		position:       position,
		target:         widget.NewLabel("-"),
		knob:           widget.NewLabel("-"),
		battery:        widget.NewLabel("-"),
		travel:         widget.NewLabel("-"),
		moves:          widget.NewLabel("0"),
		logContent:     widget.NewLabel(""),
		lastEventTimer: newTimer(true),
	}
}

// HandleEvent updates the dashboard from a trace event
func (ui *ValveUI) HandleEvent(e autovalve.Event) {
	ui.status.HandleEvent(e)
	if e.Kind == autovalve.EventClose || e.Kind == autovalve.EventRetarget {
		ui.lastEventTimer.Set(time.Now())
	}

	snap := ui.status.Snapshot()
	fyne.Do(func() {
		ui.refresh(snap)
	})
}

// HandleLine adds free text from the board to the log
func (ui *ValveUI) HandleLine(line string) {
	ui.logMtx.Lock()
	ui.logs = append(ui.logs, line)
	if len(ui.logs) > maxLogLines {
		ui.logs = ui.logs[len(ui.logs)-maxLogLines:]
	}
	text := strings.Join(ui.logs, "\n")
	ui.logMtx.Unlock()

	fyne.Do(func() {
		ui.logContent.SetText(text)
	})
}

func (ui *ValveUI) refresh(snap monitor.Snapshot) {
	ui.stateText.Text = stateLabel(snap.State, snap.LowVoltage)
	ui.stateText.Color = stateColor(snap.State, snap.LowVoltage)
	ui.stateText.Refresh()

	ui.position.SetValue(float64(snap.Position))
	ui.target.SetText(fmt.Sprintf("%d%%", snap.Target))
	ui.knob.SetText(fmt.Sprintf("%d%%", snap.Knob))
	ui.battery.SetText(fmt.Sprintf("%.2f V", float64(snap.Millivolts)/1000))
	if snap.FullTravelTime > 0 {
		ui.travel.SetText(snap.FullTravelTime.String())
	}
	ui.moves.SetText(fmt.Sprintf("%d", snap.Moves))
}

func createLogAccordion(logContent *widget.Label) *widget.Accordion {
	logScroll := container.NewVScroll(logContent)
	logScroll.SetMinSize(fyne.NewSize(300, 100))

	return widget.NewAccordion(
		widget.NewAccordionItem("Logs", logScroll),
	)
}

// Run shows the dashboard until it is closed or the context is done. Commands are written to w. When w is
// nil a ConfigWindow asks for the serial port first and connect is used to open it
func (ui *ValveUI) Run(ctx context.Context, w io.Writer, connect func(Connection) (io.Writer, error)) {
	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	ui.lastEventTimer.Go()
	defer ui.lastEventTimer.Stop()

	if w != nil {
		ui.showMain(w)
		ui.app.Run()
		return
	}

	cw := NewConfigWindow(ui.app)
	cw.OnSubmit = func(conn Connection) {
		w, err := connect(conn)
		if err != nil {
			showError(ui.app, ui.app.NewWindow("Auto Valve"), fmt.Errorf("error connecting: %w", err))
			return
		}
		ui.showMain(w)
	}
	cw.Show()
	ui.app.Run()
}

// commandButtons has one button per board command. The board doesn't report its verbose mode, so Verbose
// is a plain toggle
func commandButtons(c *controllerWrapper) *fyne.Container {
	return container.NewGridWithColumns(4,
		widget.NewButton("Status", c.Debug),
		widget.NewButton("Timing", c.Timing),
		widget.NewButton("Rehome", c.Rehome),
		widget.NewButton("Toggle Verbose", c.Verbose),
	)
}

func (ui *ValveUI) showMain(w io.Writer) {
	window := ui.app.NewWindow("Auto Valve")

	c := &controllerWrapper{writer: w, lastEventTimer: ui.lastEventTimer}

	buttons := commandButtons(c)

	readings := container.NewGridWithColumns(2,
		widget.NewLabel("Target"), ui.target,
		widget.NewLabel("Knob"), ui.knob,
		widget.NewLabel("Battery"), ui.battery,
		widget.NewLabel("Full Travel"), ui.travel,
		widget.NewLabel("Moves"), ui.moves,
	)

	contentContainer := container.NewVBox(
		container.NewHBox(
			container.NewPadded(ui.stateText),
			layout.NewSpacer(),
			container.NewPadded(ui.lastEventTimer.text),
		),
		ui.position,
		readings,
		buttons,
		createLogAccordion(ui.logContent),
	)

	window.SetContent(contentContainer)
	window.Resize(fyne.NewSize(320, 360))
	window.SetMaster()
	window.Show()
}
