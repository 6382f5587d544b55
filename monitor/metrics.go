package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calvinmclean/autovalve"
)

// Metrics exports the trace as Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	position   prometheus.Gauge
	target     prometheus.Gauge
	knob       prometheus.Gauge
	millivolts prometheus.Gauge
	lowVoltage prometheus.Gauge
	state      *prometheus.GaugeVec
	events     *prometheus.CounterVec
	lines      prometheus.Counter
	openPulse  prometheus.Histogram
	fullTravel prometheus.Gauge
}

var _ Handler = &Metrics{}

// NewMetrics creates Metrics with its own registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		position: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autovalve_position_percent",
			Help: "Believed valve position",
		}),
		target: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autovalve_target_percent",
			Help: "Knob position the valve is being moved to",
		}),
		knob: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autovalve_knob_percent",
			Help: "Last knob reading",
		}),
		millivolts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autovalve_battery_millivolts",
			Help: "Last supply voltage reading",
		}),
		lowVoltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autovalve_low_voltage",
			Help: "1 while the supply is too low to drive the valve",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autovalve_state",
			Help: "1 for the controller's current state",
		}, []string{"state"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autovalve_events_total",
			Help: "Trace events by kind",
		}, []string{"kind"}),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autovalve_log_lines_total",
			Help: "Free text lines from the board",
		}),
		openPulse: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "autovalve_open_pulse_seconds",
			Help:    "Length of opening pulses",
			Buckets: prometheus.LinearBuckets(0.5, 0.5, 12),
		}),
		fullTravel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autovalve_full_travel_seconds",
			Help: "Full travel time at the voltage of the last timing request",
		}),
	}

	m.registry.MustRegister(
		m.position,
		m.target,
		m.knob,
		m.millivolts,
		m.lowVoltage,
		m.state,
		m.events,
		m.lines,
		m.openPulse,
		m.fullTravel,
	)

	return m
}

// Registry is used to gather or serve the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) HandleEvent(e autovalve.Event) {
	m.events.WithLabelValues(string(e.Kind)).Inc()
	m.position.Set(float64(e.Position))
	m.target.Set(float64(e.Target))

	for _, s := range []autovalve.State{autovalve.StateIdle, autovalve.StateClosingAndSettling, autovalve.StateOpening} {
		v := 0.0
		if s == e.State {
			v = 1
		}
		m.state.WithLabelValues(s.String()).Set(v)
	}

	if e.Millivolts != 0 {
		m.millivolts.Set(float64(e.Millivolts))
	}

	switch e.Kind {
	case autovalve.EventClose, autovalve.EventRetarget, autovalve.EventSample, autovalve.EventStatus:
		m.knob.Set(float64(e.Knob))
	case autovalve.EventOpen:
		m.openPulse.Observe(e.Duration.Seconds())
	case autovalve.EventLowVoltage:
		m.lowVoltage.Set(1)
	case autovalve.EventSupplyOK:
		m.lowVoltage.Set(0)
	case autovalve.EventTiming:
		m.fullTravel.Set(e.Duration.Seconds())
	}
}

func (m *Metrics) HandleLine(string) {
	m.lines.Inc()
}

// Handler serves the metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
