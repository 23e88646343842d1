package sysproxy

import (
	"log/slog"

	"github.com/rennerdo30/sysproxy/internal/logging"
	"github.com/rennerdo30/sysproxy/internal/metrics"
)

type options struct {
	runner  Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func defaultOptions() options {
	return options{}
}

// Option configures the manager returned by New.
type Option func(*options)

// WithRunner replaces the native command runner.
func WithRunner(r Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithMetrics records native command and registry operations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger sets the logger used by the adapters.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o options) commandRunner() Runner {
	if o.runner != nil {
		return o.runner
	}
	return &ExecRunner{Metrics: o.metrics, Logger: o.logger}
}

func (o options) componentLogger(name string) *slog.Logger {
	if o.logger != nil {
		return o.logger.With("component", name)
	}
	return logging.WithComponent(name)
}
