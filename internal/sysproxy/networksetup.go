package sysproxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strconv"
	"strings"

	"github.com/rennerdo30/sysproxy/internal/metrics"
)

const networksetupCmd = "networksetup"

// noBypassDomainsPrefix starts the message networksetup prints instead of an
// empty bypass list.
const noBypassDomainsPrefix = "There aren't any bypass domains set"

// NetworkSetup is the macOS adapter. macOS scopes proxy settings per network
// service, so every per-protocol operation takes a service name such as "Wi-Fi".
type NetworkSetup struct {
	runner     Runner
	interfaces InterfaceLister
	outbound   func() (netip.Addr, error)
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewNetworkSetup creates a NetworkSetup adapter. Commands go through r and
// interfaces are enumerated through lister when resolving the default service.
func NewNetworkSetup(r Runner, lister InterfaceLister, opts ...Option) *NetworkSetup {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &NetworkSetup{
		runner:     r,
		interfaces: lister,
		outbound:   outboundAddr,
		metrics:    o.metrics,
		logger:     o.componentLogger("sysproxy.networksetup"),
	}
}

// networksetupTarget is the subcommand stem for p.
func networksetupTarget(p Protocol) string {
	switch p {
	case HTTP:
		return "webproxy"
	case HTTPS:
		return "securewebproxy"
	default:
		return "socksfirewallproxy"
	}
}

// GetSystemProxy reads the proxy of the default network service.
func (n *NetworkSetup) GetSystemProxy() (cfg *Config, err error) {
	defer func() { n.metrics.ObserveOperation("networksetup", "get", err) }()

	service, err := n.DefaultNetworkService()
	if err != nil {
		return nil, err
	}
	return n.GetServiceProxy(service)
}

// GetServiceProxy reads the proxy of service. The socks record is the base,
// so Enable reflects the socks proxy state.
func (n *NetworkSetup) GetServiceProxy(service string) (*Config, error) {
	socks, err := n.GetSOCKS(service)
	if err != nil {
		return nil, err
	}
	http, err := n.GetHTTP(service)
	if err != nil {
		return nil, err
	}
	https, err := n.GetHTTPS(service)
	if err != nil {
		return nil, err
	}
	bypass, err := n.GetBypass(service)
	if err != nil {
		return nil, err
	}

	socks.Bypass = &bypass
	socks.HTTPPort = http.HTTPPort
	socks.HTTPSPort = https.HTTPSPort
	return socks, nil
}

// SetSystemProxy resolves the default network service and writes cfg to it.
// Nothing is written when the service cannot be resolved.
func (n *NetworkSetup) SetSystemProxy(cfg *Config) (err error) {
	defer func() { n.metrics.ObserveOperation("networksetup", "set", err) }()

	if cfg == nil {
		return parseError("set system proxy", errNilConfig)
	}
	service, err := n.DefaultNetworkService()
	if err != nil {
		return err
	}
	return n.SetServiceProxy(service, cfg)
}

// SetServiceProxy writes cfg to service in the order socks, https, http, bypass.
// A nil cfg is a parse error and runs nothing.
func (n *NetworkSetup) SetServiceProxy(service string, cfg *Config) error {
	if cfg == nil {
		return parseError("set proxy of "+service, errNilConfig)
	}
	if err := n.SetSOCKS(service, cfg); err != nil {
		return err
	}
	if err := n.SetHTTPS(service, cfg); err != nil {
		return err
	}
	if err := n.SetHTTP(service, cfg); err != nil {
		return err
	}
	return n.SetBypass(service, cfg)
}

// GetHTTP reads the web proxy of service.
func (n *NetworkSetup) GetHTTP(service string) (*Config, error) {
	return n.getProxy(HTTP, service)
}

// GetHTTPS reads the secure web proxy of service.
func (n *NetworkSetup) GetHTTPS(service string) (*Config, error) {
	return n.getProxy(HTTPS, service)
}

// GetSOCKS reads the SOCKS firewall proxy of service.
func (n *NetworkSetup) GetSOCKS(service string) (*Config, error) {
	return n.getProxy(SOCKS, service)
}

// GetBypass reads the bypass domains of service, one per line, and joins
// them with commas.
func (n *NetworkSetup) GetBypass(service string) (string, error) {
	out, err := runText(n.runner, "get bypass domains", networksetupCmd, "-getproxybypassdomains", service)
	if err != nil {
		return "", err
	}

	var domains []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, noBypassDomainsPrefix) {
			continue
		}
		domains = append(domains, line)
	}
	return strings.Join(domains, ","), nil
}

// SetHTTP writes the web proxy of service when cfg has an http port.
func (n *NetworkSetup) SetHTTP(service string, cfg *Config) error {
	return n.setProxy(HTTP, service, cfg)
}

// SetHTTPS writes the secure web proxy of service when cfg has an https port.
func (n *NetworkSetup) SetHTTPS(service string, cfg *Config) error {
	return n.setProxy(HTTPS, service, cfg)
}

// SetSOCKS writes the SOCKS firewall proxy of service when cfg has a socks port.
func (n *NetworkSetup) SetSOCKS(service string, cfg *Config) error {
	return n.setProxy(SOCKS, service, cfg)
}

// SetBypass writes the bypass domains of service when cfg has a bypass list.
// Each domain is passed as its own argument; an empty list clears the domains.
func (n *NetworkSetup) SetBypass(service string, cfg *Config) error {
	if cfg.Bypass == nil {
		return nil
	}

	args := []string{"-setproxybypassdomains", service}
	for _, domain := range strings.Split(*cfg.Bypass, ",") {
		if domain = strings.TrimSpace(domain); domain != "" {
			args = append(args, domain)
		}
	}
	if len(args) == 2 {
		args = append(args, "Empty")
	}
	return run(n.runner, "set bypass domains", networksetupCmd, args...)
}

// DefaultNetworkService returns the hardware port name of the interface that
// carries the machine's outbound route.
func (n *NetworkSetup) DefaultNetworkService() (string, error) {
	device, err := resolveDevice(n.interfaces, n.outbound)
	if err != nil {
		return "", err
	}

	service, err := n.ServiceByDevice(device)
	if err != nil {
		return "", err
	}
	n.logger.Debug("resolved default network service", "device", device, "service", service)
	return service, nil
}

// ServiceByDevice maps a BSD device name such as en0 to its hardware port name.
// A networksetup launch failure stays an I/O error; only a missing hardware
// port is a network interface error.
func (n *NetworkSetup) ServiceByDevice(device string) (string, error) {
	out, err := runText(n.runner, "list hardware ports", networksetupCmd, "-listallhardwareports")
	if err != nil {
		return "", err
	}

	service, ok := findHardwarePort(out, device)
	if !ok {
		return "", interfaceError("match hardware port", fmt.Errorf("no hardware port for device %s", device))
	}
	return service, nil
}

func (n *NetworkSetup) getProxy(p Protocol, service string) (*Config, error) {
	target := networksetupTarget(p)
	out, err := runText(n.runner, "get "+target, networksetupCmd, "-get"+target, service)
	if err != nil {
		return nil, err
	}

	enable := labeledValue(out, "Enabled:") == "Yes"
	host := labeledValue(out, "Server:")

	portText := labeledValue(out, "Port:")
	port, err := strconv.ParseUint(portText, 10, 16)
	if err != nil {
		return nil, parseError("get "+target, errors.Join(fmt.Errorf("port %q", portText), err))
	}

	return protocolConfig(p, enable, host, normalizePort(uint16(port))), nil
}

func (n *NetworkSetup) setProxy(p Protocol, service string, cfg *Config) error {
	port := cfg.Port(p)
	if port == nil {
		return nil
	}

	target := networksetupTarget(p)
	if err := run(n.runner, "set "+target, networksetupCmd,
		"-set"+target, service, cfg.Host, strconv.FormatUint(uint64(*port), 10)); err != nil {
		return err
	}

	state := "off"
	if cfg.Enable {
		state = "on"
	}
	return run(n.runner, "set "+target+" state", networksetupCmd, "-set"+target+"state", service, state)
}

// labeledValue returns the text following the first occurrence of label up
// to the end of that line, trimmed. A missing label yields "".
func labeledValue(text, label string) string {
	idx := strings.Index(text, label)
	if idx < 0 {
		return ""
	}
	value := text[idx+len(label):]
	if end := strings.IndexByte(value, '\n'); end >= 0 {
		value = value[:end]
	}
	return strings.TrimSpace(value)
}
