// Package metrics provides Prometheus metrics for system proxy operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultOK        = "ok"
	ResultExitError = "exit_error"
	ResultError     = "error"
)

// Metrics holds all Prometheus metrics for sysproxy.
type Metrics struct {
	// Native command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Registry metrics
	RegistryOpsTotal *prometheus.CounterVec

	// Adapter operation metrics
	OperationsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sysproxy_native_commands_total",
			Help: "Total number of native settings tool invocations",
		},
		[]string{"tool", "result"},
	)

	m.CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sysproxy_native_command_duration_seconds",
			Help:    "Duration of native settings tool invocations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"tool"},
	)

	m.RegistryOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sysproxy_registry_operations_total",
			Help: "Total number of registry value operations",
		},
		[]string{"op", "result"},
	)

	m.OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sysproxy_operations_total",
			Help: "Total number of system proxy get/set operations",
		},
		[]string{"adapter", "op", "result"},
	)

	m.registry.MustRegister(
		m.CommandsTotal,
		m.CommandDuration,
		m.RegistryOpsTotal,
		m.OperationsTotal,
	)

	return m
}

// ObserveCommand records one native command invocation. It is safe on a nil receiver.
func (m *Metrics) ObserveCommand(tool, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(tool, result).Inc()
	m.CommandDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveRegistry records one registry operation. It is safe on a nil receiver.
func (m *Metrics) ObserveRegistry(op string, err error) {
	if m == nil {
		return
	}
	m.RegistryOpsTotal.WithLabelValues(op, resultOf(err)).Inc()
}

// ObserveOperation records one adapter level get/set. It is safe on a nil receiver.
func (m *Metrics) ObserveOperation(adapter, op string, err error) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(adapter, op, resultOf(err)).Inc()
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
