package sysproxy

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by an adapter matches exactly one of
// them with errors.Is.
var (
	// ErrParse is returned when native output or a stored value has an unexpected shape.
	ErrParse = errors.New("failed to parse string")
	// ErrIO is returned when a native command could not be launched or the registry failed.
	ErrIO = errors.New("i/o failure")
	// ErrNetworkInterface is returned when the default network service cannot be resolved.
	ErrNetworkInterface = errors.New("failed to get default network interface")
	// ErrNotSupported is returned when the platform does not support system proxy configuration.
	ErrNotSupported = errors.New("system proxy configuration not supported on this platform")
)

// OpError wraps an error with the operation that produced it.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sysproxy: %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("sysproxy: %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

var errNilConfig = errors.New("nil config")

func newOpError(op string, kind, err error) *OpError {
	return &OpError{Op: op, Kind: kind, Err: err}
}

func parseError(op string, err error) error {
	return newOpError(op, ErrParse, err)
}

func ioError(op string, err error) error {
	return newOpError(op, ErrIO, err)
}

func interfaceError(op string, err error) error {
	return newOpError(op, ErrNetworkInterface, err)
}

// IsParse reports whether err is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsIO reports whether err is an I/O error.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsNetworkInterface reports whether err is a network service resolution error.
func IsNetworkInterface(err error) bool {
	return errors.Is(err, ErrNetworkInterface)
}
