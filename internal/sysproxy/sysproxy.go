// Package sysproxy reads and writes the operating system's global proxy settings.
//
// A single Config value is translated to and from the native store of the
// running OS: gsettings on Linux desktops, networksetup on macOS and the
// per-user Internet Settings registry key on Windows.
package sysproxy

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is the OS-independent system proxy configuration.
//
// A nil port means the protocol is not configured. A nil Bypass means no
// bypass list is configured, which is different from an empty list.
type Config struct {
	Enable    bool    `yaml:"enable" json:"enable"`
	Host      string  `yaml:"host" json:"host"`
	HTTPPort  *uint16 `yaml:"http_port,omitempty" json:"http_port,omitempty"`
	HTTPSPort *uint16 `yaml:"https_port,omitempty" json:"https_port,omitempty"`
	SOCKSPort *uint16 `yaml:"socks_port,omitempty" json:"socks_port,omitempty"`
	// Bypass is a comma-separated list of host patterns that skip the proxy.
	Bypass *string `yaml:"bypass,omitempty" json:"bypass,omitempty"`
}

// Manager reads and writes the system proxy of one platform.
type Manager interface {
	// GetSystemProxy reads the current system proxy settings.
	GetSystemProxy() (*Config, error)
	// SetSystemProxy writes cfg to the system proxy settings.
	SetSystemProxy(cfg *Config) error
}

// New returns the system proxy manager for the current platform.
func New(opts ...Option) Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newPlatformManager(o)
}

// IsSupported reports whether the current platform has a system proxy adapter.
func IsSupported() bool {
	return platformSupported
}

// Ptr returns a pointer to v. It is handy for the optional Config fields.
func Ptr[T any](v T) *T {
	return &v
}

// Protocol identifies one of the proxied protocols.
type Protocol int

// Supported protocols.
const (
	HTTP Protocol = iota
	HTTPS
	SOCKS
)

func (p Protocol) String() string {
	switch p {
	case HTTP:
		return "http"
	case HTTPS:
		return "https"
	case SOCKS:
		return "socks"
	default:
		return "unknown"
	}
}

// Port returns the configured port for p, or nil.
func (c *Config) Port(p Protocol) *uint16 {
	switch p {
	case HTTP:
		return c.HTTPPort
	case HTTPS:
		return c.HTTPSPort
	case SOCKS:
		return c.SOCKSPort
	}
	return nil
}

// SetPort sets the port for p. A nil port clears it.
func (c *Config) SetPort(p Protocol, port *uint16) {
	switch p {
	case HTTP:
		c.HTTPPort = port
	case HTTPS:
		c.HTTPSPort = port
	case SOCKS:
		c.SOCKSPort = port
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := &Config{Enable: c.Enable, Host: c.Host}
	if c.HTTPPort != nil {
		out.HTTPPort = Ptr(*c.HTTPPort)
	}
	if c.HTTPSPort != nil {
		out.HTTPSPort = Ptr(*c.HTTPSPort)
	}
	if c.SOCKSPort != nil {
		out.SOCKSPort = Ptr(*c.SOCKSPort)
	}
	if c.Bypass != nil {
		out.Bypass = Ptr(*c.Bypass)
	}
	return out
}

// Equal reports whether c and o describe the same settings.
func (c *Config) Equal(o *Config) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.Enable == o.Enable &&
		c.Host == o.Host &&
		equalPtr(c.HTTPPort, o.HTTPPort) &&
		equalPtr(c.HTTPSPort, o.HTTPSPort) &&
		equalPtr(c.SOCKSPort, o.SOCKSPort) &&
		equalPtr(c.Bypass, o.Bypass)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// String renders c in a short human readable form.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "enable=%t host=%q", c.Enable, c.Host)
	for _, p := range []Protocol{HTTP, HTTPS, SOCKS} {
		fmt.Fprintf(&b, " %s=%s", p, formatPort(c.Port(p)))
	}
	if c.Bypass != nil {
		fmt.Fprintf(&b, " bypass=%q", *c.Bypass)
	} else {
		b.WriteString(" bypass=unset")
	}
	return b.String()
}

func formatPort(port *uint16) string {
	if port == nil {
		return "unset"
	}
	return strconv.FormatUint(uint64(*port), 10)
}

// normalizePort maps the stores' "unset" value 0 to nil.
func normalizePort(port uint16) *uint16 {
	if port == 0 {
		return nil
	}
	return &port
}

// protocolConfig builds a single-protocol record as returned by the
// per-protocol getters.
func protocolConfig(p Protocol, enable bool, host string, port *uint16) *Config {
	cfg := &Config{Enable: enable, Host: host}
	cfg.SetPort(p, port)
	return cfg
}
