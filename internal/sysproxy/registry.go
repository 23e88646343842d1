package sysproxy

import (
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"strconv"

	"github.com/rennerdo30/sysproxy/internal/metrics"
)

// internetSettingsPath is relative to HKEY_CURRENT_USER.
const internetSettingsPath = `SOFTWARE\Microsoft\Windows\CurrentVersion\Internet Settings`

// Registry value names.
const (
	valueProxyEnable   = "ProxyEnable"
	valueProxyServer   = "ProxyServer"
	valueProxyOverride = "ProxyOverride"
)

// ErrValueNotExist is returned by a Key when the named value is absent.
var ErrValueNotExist = errors.New("registry value does not exist")

// KeyStore opens keys of a hierarchical key-value store such as the
// current user's registry hive.
type KeyStore interface {
	OpenKey(path string, write bool) (Key, error)
}

// Key is an open registry key.
type Key interface {
	GetUint32(name string) (uint32, error)
	GetString(name string) (string, error)
	SetUint32(name string, value uint32) error
	SetString(name string, value string) error
	Close() error
}

// Registry is the Windows adapter. It keeps one combined host:port for all
// protocols, so only the aggregate operations exist.
type Registry struct {
	store   KeyStore
	notify  func() error
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRegistry creates a Registry adapter on store. notify, if non-nil, is
// called after a successful write so running applications reload settings.
func NewRegistry(store KeyStore, notify func() error, opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		store:   store,
		notify:  notify,
		metrics: o.metrics,
		logger:  o.componentLogger("sysproxy.registry"),
	}
}

// GetSystemProxy reads ProxyEnable, ProxyServer and ProxyOverride. The port
// of ProxyServer is reported as SOCKSPort; HTTPPort and HTTPSPort stay unset.
func (r *Registry) GetSystemProxy() (cfg *Config, err error) {
	defer func() { r.metrics.ObserveOperation("registry", "get", err) }()

	key, err := r.open(false)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	enable, err := key.GetUint32(valueProxyEnable)
	r.metrics.ObserveRegistry("get", err)
	if err != nil {
		return nil, ioError("read "+valueProxyEnable, err)
	}

	server, err := key.GetString(valueProxyServer)
	r.metrics.ObserveRegistry("get", err)
	if err != nil {
		return nil, ioError("read "+valueProxyServer, err)
	}

	addr, err := netip.ParseAddrPort(server)
	if err != nil {
		return nil, parseError("parse "+valueProxyServer, err)
	}

	cfg = &Config{
		Enable:    enable == 1,
		Host:      addr.Addr().String(),
		SOCKSPort: normalizePort(addr.Port()),
	}

	bypass, err := key.GetString(valueProxyOverride)
	switch {
	case err == nil:
		r.metrics.ObserveRegistry("get", nil)
		cfg.Bypass = &bypass
	case errors.Is(err, ErrValueNotExist):
		r.metrics.ObserveRegistry("get", nil)
	default:
		r.metrics.ObserveRegistry("get", err)
		return nil, ioError("read "+valueProxyOverride, err)
	}

	return cfg, nil
}

// SetSystemProxy writes ProxyEnable, then ProxyServer if cfg has a socks
// port, then ProxyOverride if cfg has a bypass list. A nil cfg is a parse
// error and leaves the registry untouched.
func (r *Registry) SetSystemProxy(cfg *Config) (err error) {
	defer func() { r.metrics.ObserveOperation("registry", "set", err) }()

	if cfg == nil {
		return parseError("set system proxy", errNilConfig)
	}

	key, err := r.open(true)
	if err != nil {
		return err
	}
	defer key.Close()

	var enable uint32
	if cfg.Enable {
		enable = 1
	}
	if err := r.setUint32(key, valueProxyEnable, enable); err != nil {
		return err
	}

	if cfg.SOCKSPort != nil {
		server := net.JoinHostPort(cfg.Host, strconv.FormatUint(uint64(*cfg.SOCKSPort), 10))
		if err := r.setString(key, valueProxyServer, server); err != nil {
			return err
		}
	}

	if cfg.Bypass != nil {
		if err := r.setString(key, valueProxyOverride, *cfg.Bypass); err != nil {
			return err
		}
	}

	if r.notify != nil {
		if err := r.notify(); err != nil {
			r.logger.Warn("failed to notify settings change", "error", err)
		}
	}
	return nil
}

func (r *Registry) open(write bool) (Key, error) {
	key, err := r.store.OpenKey(internetSettingsPath, write)
	r.metrics.ObserveRegistry("open", err)
	if err != nil {
		return nil, ioError("open "+internetSettingsPath, err)
	}
	return key, nil
}

func (r *Registry) setUint32(key Key, name string, value uint32) error {
	err := key.SetUint32(name, value)
	r.metrics.ObserveRegistry("set", err)
	if err != nil {
		return ioError("write "+name, err)
	}
	return nil
}

func (r *Registry) setString(key Key, name, value string) error {
	err := key.SetString(name, value)
	r.metrics.ObserveRegistry("set", err)
	if err != nil {
		return ioError("write "+name, err)
	}
	return nil
}
