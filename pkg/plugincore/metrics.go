package plugincore

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for a plugin runtime. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	LoadsTotal         *prometheus.CounterVec
	CommandsRegistered *prometheus.CounterVec
	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugcore_plugin_loads_total",
				Help: "Total number of plugin load attempts by result",
			},
			[]string{"namespace", "result"},
		),
		CommandsRegistered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugcore_commands_registered_total",
				Help: "Total number of commands registered from plugins",
			},
			[]string{"namespace"},
		),
		InvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugcore_command_invocations_total",
				Help: "Total number of command invocations by status",
			},
			[]string{"namespace", "status"},
		),
		InvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plugcore_command_invocation_duration_seconds",
				Help:    "Command invocation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"namespace"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.LoadsTotal,
			m.CommandsRegistered,
			m.InvocationsTotal,
			m.InvocationDuration,
		)
	}

	return m
}

// loadResult maps a load error to a low-cardinality label.
func loadResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyPath):
		return "empty_path"
	case errors.Is(err, ErrPathDenied):
		return "denied"
	case errors.Is(err, ErrOpen):
		return "open_error"
	case errors.Is(err, ErrSymbol):
		return "symbol_error"
	case errors.Is(err, ErrNilManifest):
		return "nil_manifest"
	case errors.Is(err, ErrABIVersion), errors.Is(err, ErrStructSize):
		return "abi_mismatch"
	default:
		return "error"
	}
}

func (m *Metrics) observeLoad(namespace string, registered int, err error) {
	if m == nil {
		return
	}
	m.LoadsTotal.WithLabelValues(namespace, loadResult(err)).Inc()
	if registered > 0 {
		m.CommandsRegistered.WithLabelValues(namespace).Add(float64(registered))
	}
}

func (m *Metrics) observeInvocation(namespace string, status Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.InvocationsTotal.WithLabelValues(namespace, status.String()).Inc()
	m.InvocationDuration.WithLabelValues(namespace).Observe(elapsed.Seconds())
}
