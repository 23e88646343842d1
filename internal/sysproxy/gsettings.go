package sysproxy

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/rennerdo30/sysproxy/internal/metrics"
)

const (
	gsettingsCmd     = "gsettings"
	gnomeProxySchema = "org.gnome.system.proxy"

	// defaultGSettingsPort is used when the stored port cannot be parsed.
	defaultGSettingsPort uint16 = 80
)

// GSettings is the Linux adapter. It stores the proxy in the GNOME
// org.gnome.system.proxy schema through the gsettings tool.
type GSettings struct {
	runner  Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewGSettings creates a GSettings adapter that invokes gsettings through r.
func NewGSettings(r Runner, opts ...Option) *GSettings {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &GSettings{
		runner:  r,
		metrics: o.metrics,
		logger:  o.componentLogger("sysproxy.gsettings"),
	}
}

// GetSystemProxy reads the proxy mode, the three protocol schemas and the
// ignore-hosts list. The socks record is the base; a failed bypass read
// leaves Bypass unset.
func (g *GSettings) GetSystemProxy() (cfg *Config, err error) {
	defer func() { g.metrics.ObserveOperation("gsettings", "get", err) }()

	enable, err := g.GetEnable()
	if err != nil {
		return nil, err
	}

	socks, err := g.GetSOCKS()
	if err != nil {
		return nil, err
	}
	https, err := g.GetHTTPS()
	if err != nil {
		return nil, err
	}
	http, err := g.GetHTTP()
	if err != nil {
		return nil, err
	}

	socks.HTTPPort = http.HTTPPort
	socks.HTTPSPort = https.HTTPSPort
	socks.Enable = enable

	if bypass, err := g.GetBypass(); err == nil {
		socks.Bypass = &bypass
	} else {
		g.logger.Debug("ignoring unreadable ignore-hosts", "error", err)
	}

	return socks, nil
}

// SetSystemProxy writes the mode first. Protocol and bypass values are only
// written when the proxy is enabled, in the order socks, https, http, bypass.
// A nil cfg is a parse error and runs nothing.
func (g *GSettings) SetSystemProxy(cfg *Config) (err error) {
	defer func() { g.metrics.ObserveOperation("gsettings", "set", err) }()

	if cfg == nil {
		return parseError("set system proxy", errNilConfig)
	}

	if err := g.SetEnable(cfg); err != nil {
		return err
	}
	if !cfg.Enable {
		return nil
	}

	if err := g.SetSOCKS(cfg); err != nil {
		return err
	}
	if err := g.SetHTTPS(cfg); err != nil {
		return err
	}
	if err := g.SetHTTP(cfg); err != nil {
		return err
	}
	return g.SetBypass(cfg)
}

// GetEnable reports whether the proxy mode is 'manual'.
func (g *GSettings) GetEnable() (bool, error) {
	mode, err := runText(g.runner, "get mode", gsettingsCmd, "get", gnomeProxySchema, "mode")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(mode) == "'manual'", nil
}

// GetBypass reads ignore-hosts and returns it as a comma-joined list.
func (g *GSettings) GetBypass() (string, error) {
	out, err := runText(g.runner, "get ignore-hosts", gsettingsCmd, "get", gnomeProxySchema, "ignore-hosts")
	if err != nil {
		return "", err
	}
	return parseGSettingsList(out), nil
}

// GetHTTP reads the http schema.
func (g *GSettings) GetHTTP() (*Config, error) {
	return g.getProxy(HTTP)
}

// GetHTTPS reads the https schema.
func (g *GSettings) GetHTTPS() (*Config, error) {
	return g.getProxy(HTTPS)
}

// GetSOCKS reads the socks schema.
func (g *GSettings) GetSOCKS() (*Config, error) {
	return g.getProxy(SOCKS)
}

// SetEnable writes the proxy mode. Host and port values are left untouched.
func (g *GSettings) SetEnable(cfg *Config) error {
	mode := "'none'"
	if cfg.Enable {
		mode = "'manual'"
	}
	return run(g.runner, "set mode", gsettingsCmd, "set", gnomeProxySchema, "mode", mode)
}

// SetBypass writes ignore-hosts when cfg has a bypass list.
func (g *GSettings) SetBypass(cfg *Config) error {
	if cfg.Bypass == nil {
		return nil
	}
	return run(g.runner, "set ignore-hosts", gsettingsCmd, "set", gnomeProxySchema, "ignore-hosts", formatGSettingsList(*cfg.Bypass))
}

// SetHTTP writes the http schema when cfg has an http port.
func (g *GSettings) SetHTTP(cfg *Config) error {
	return g.setProxy(HTTP, cfg)
}

// SetHTTPS writes the https schema when cfg has an https port.
func (g *GSettings) SetHTTPS(cfg *Config) error {
	return g.setProxy(HTTPS, cfg)
}

// SetSOCKS writes the socks schema when cfg has a socks port.
func (g *GSettings) SetSOCKS(cfg *Config) error {
	return g.setProxy(SOCKS, cfg)
}

func (g *GSettings) getProxy(p Protocol) (*Config, error) {
	schema := gnomeProxySchema + "." + p.String()

	host, err := runText(g.runner, "get "+p.String()+" host", gsettingsCmd, "get", schema, "host")
	if err != nil {
		return nil, err
	}

	portText, err := runText(g.runner, "get "+p.String()+" port", gsettingsCmd, "get", schema, "port")
	if err != nil {
		return nil, err
	}

	port, err := strconv.ParseUint(strings.TrimSpace(portText), 10, 16)
	if err != nil {
		g.logger.Debug("unparsable port, using default", "schema", schema, "value", strings.TrimSpace(portText))
		port = uint64(defaultGSettingsPort)
	}

	return protocolConfig(p, false, stripQuotes(strings.TrimSpace(host), '\''), normalizePort(uint16(port))), nil
}

func (g *GSettings) setProxy(p Protocol, cfg *Config) error {
	port := cfg.Port(p)
	if port == nil {
		return nil
	}

	schema := gnomeProxySchema + "." + p.String()
	if err := run(g.runner, "set "+p.String()+" host", gsettingsCmd, "set", schema, "host", "'"+cfg.Host+"'"); err != nil {
		return err
	}
	return run(g.runner, "set "+p.String()+" port", gsettingsCmd, "set", schema, "port", strconv.FormatUint(uint64(*port), 10))
}

// parseGSettingsList turns a GVariant string array such as
// "['a.com', 'b.com']" into "a.com,b.com".
func parseGSettingsList(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(strings.TrimPrefix(text, "@as"))
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")

	entries := strings.Split(text, ",")
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		entry = stripQuotes(entry, '\'')
		entries[i] = stripQuotes(entry, '"')
	}
	return strings.Join(entries, ",")
}

// formatGSettingsList turns "a.com,b.com" into "['a.com', 'b.com']".
// Entries already quoted with single or double quotes are kept as is.
func formatGSettingsList(list string) string {
	var entries []string
	for _, host := range strings.Split(list, ",") {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if !strings.HasPrefix(host, "'") && !strings.HasPrefix(host, `"`) {
			host = "'" + host
		}
		if !strings.HasSuffix(host, "'") && !strings.HasSuffix(host, `"`) {
			host += "'"
		}
		entries = append(entries, host)
	}
	return "[" + strings.Join(entries, ", ") + "]"
}

func stripQuotes(s string, quote byte) string {
	if len(s) > 0 && s[0] == quote {
		s = s[1:]
	}
	if len(s) > 0 && s[len(s)-1] == quote {
		s = s[:len(s)-1]
	}
	return s
}
