package sysproxy

import (
	"bytes"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rennerdo30/sysproxy/internal/logging"
	"github.com/rennerdo30/sysproxy/internal/metrics"
)

// Runner runs a native command and returns what it wrote to stdout.
//
// An error means the command could not be run at all. A command that runs
// and exits with a non-zero status is not an error.
type Runner interface {
	Output(name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Output implements Runner.
func (r *ExecRunner) Output(name string, args ...string) ([]byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.WithComponent("sysproxy.exec")
	}

	var stderr bytes.Buffer
	cmd := exec.Command(name, args...) //nolint:gosec // G204: arguments are built from fixed subcommands
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	elapsed := time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		r.Metrics.ObserveCommand(name, metrics.ResultOK, elapsed)
		logger.Debug("native command finished", "cmd", name, "args", args, "duration", elapsed)
	case errors.As(err, &exitErr):
		r.Metrics.ObserveCommand(name, metrics.ResultExitError, elapsed)
		logger.Warn("native command exited with non-zero status",
			"cmd", name,
			"args", args,
			"exit_code", exitErr.ExitCode(),
			"stderr", strings.TrimSpace(stderr.String()),
		)
	default:
		r.Metrics.ObserveCommand(name, metrics.ResultError, elapsed)
		return nil, err
	}

	return out, nil
}

// runText runs a command through r and decodes its output as UTF-8.
func runText(r Runner, op, name string, args ...string) (string, error) {
	out, err := r.Output(name, args...)
	if err != nil {
		return "", ioError(op, err)
	}
	if !utf8.Valid(out) {
		return "", parseError(op, errors.New("output is not valid UTF-8"))
	}
	return string(out), nil
}

// run runs a command through r and discards its output.
func run(r Runner, op, name string, args ...string) error {
	if _, err := r.Output(name, args...); err != nil {
		return ioError(op, err)
	}
	return nil
}
