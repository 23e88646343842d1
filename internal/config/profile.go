package config

import (
	"strings"

	"github.com/rennerdo30/sysproxy/internal/logging"
	"github.com/rennerdo30/sysproxy/internal/sysproxy"
	"github.com/rennerdo30/sysproxy/internal/util"
)

// Profile is a saved system proxy configuration that can be applied later.
type Profile struct {
	Logging logging.Config `yaml:"logging,omitempty"`
	// Service pins the macOS network service. Empty means the service of
	// the interface carrying the default route. Ignored on other platforms.
	Service string          `yaml:"service,omitempty"`
	Proxy   sysproxy.Config `yaml:"proxy"`
}

// DefaultProfile returns a profile pointing every protocol at a local proxy.
func DefaultProfile() Profile {
	return Profile{
		Logging: logging.DefaultConfig(),
		Proxy: sysproxy.Config{
			Enable:    true,
			Host:      "127.0.0.1",
			HTTPPort:  sysproxy.Ptr[uint16](7890),
			HTTPSPort: sysproxy.Ptr[uint16](7890),
			SOCKSPort: sysproxy.Ptr[uint16](7891),
			Bypass:    sysproxy.Ptr("localhost,127.0.0.1,::1"),
		},
	}
}

// Validate checks that the profile can be applied.
func (p *Profile) Validate() error {
	errs := util.NewMultiError()

	proxy := p.Proxy
	if proxy.Enable {
		if proxy.Host == "" {
			errs.Add(util.WrapError(util.ErrInvalidConfig, "proxy.host is required when the proxy is enabled"))
		}
		if proxy.HTTPPort == nil && proxy.HTTPSPort == nil && proxy.SOCKSPort == nil {
			errs.Add(util.WrapError(util.ErrInvalidConfig, "at least one of proxy.http_port, proxy.https_port or proxy.socks_port is required"))
		}
	}

	if strings.ContainsAny(proxy.Host, "'\" \t\n") {
		errs.Add(util.WrapErrorf(util.ErrInvalidConfig, "proxy.host %q must not contain quotes or whitespace", proxy.Host))
	}

	for _, proto := range []sysproxy.Protocol{sysproxy.HTTP, sysproxy.HTTPS, sysproxy.SOCKS} {
		if port := proxy.Port(proto); port != nil && *port == 0 {
			errs.Add(util.WrapErrorf(util.ErrInvalidConfig, "proxy.%s_port must not be 0, omit it instead", proto))
		}
	}

	if p.Service != "" && strings.TrimSpace(p.Service) != p.Service {
		errs.Add(util.WrapErrorf(util.ErrInvalidConfig, "service %q has surrounding whitespace", p.Service))
	}

	return errs.Err()
}
