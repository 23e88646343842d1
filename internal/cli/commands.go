// Package cli provides the sysproxy command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rennerdo30/sysproxy/internal/bypass"
	"github.com/rennerdo30/sysproxy/internal/config"
	"github.com/rennerdo30/sysproxy/internal/logging"
	"github.com/rennerdo30/sysproxy/internal/sysproxy"
)

// ManagerFactory returns the system proxy manager commands operate on.
type ManagerFactory func() sysproxy.Manager

// serviceResolver is implemented by managers that scope settings per network
// service, which today is only the macOS adapter.
type serviceResolver interface {
	DefaultNetworkService() (string, error)
}

type serviceManager interface {
	GetServiceProxy(service string) (*sysproxy.Config, error)
	SetServiceProxy(service string, cfg *sysproxy.Config) error
}

// Output formats accepted by -o.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// NewCommands creates the proxy commands.
func NewCommands(newManager ManagerFactory) []*cobra.Command {
	return []*cobra.Command{
		newGetCommand(newManager),
		newSetCommand(newManager),
		newApplyCommand(newManager),
		newSnapshotCommand(newManager),
		newServiceCommand(newManager),
		newBypassCommand(newManager),
	}
}

func newGetCommand(newManager ManagerFactory) *cobra.Command {
	var format string
	var service string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the current system proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newManager()

			var cfg *sysproxy.Config
			var err error
			if service != "" {
				sm, ok := m.(serviceManager)
				if !ok {
					return fmt.Errorf("--service: %w", sysproxy.ErrNotSupported)
				}
				cfg, err = sm.GetServiceProxy(service)
			} else {
				cfg, err = m.GetSystemProxy()
			}
			if err != nil {
				return fmt.Errorf("get system proxy: %w", err)
			}
			logging.DebugContext(cmd.Context(), "system proxy read", "proxy", cfg.String(), "service", service)

			return printConfig(cmd.OutOrStdout(), cfg, format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", FormatText, "Output format: text, yaml or json")
	cmd.Flags().StringVar(&service, "service", "", "Network service to read instead of the default one (macOS)")
	return cmd
}

func newSetCommand(newManager ManagerFactory) *cobra.Command {
	var (
		host      string
		httpPort  uint16
		httpsPort uint16
		socksPort uint16
		bypass    string
		disable   bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the system proxy",
		Long: `Set the system proxy. Only the protocols whose port flag is given are written.

Example:
  sysproxy set --host 127.0.0.1 --http-port 7890 --https-port 7890 --socks-port 7891
  sysproxy set --host 127.0.0.1 --socks-port 1080 --bypass "localhost,*.local"
  sysproxy set --disable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg := &sysproxy.Config{Enable: !disable, Host: host}
			if flags.Changed("http-port") {
				cfg.HTTPPort = sysproxy.Ptr(httpPort)
			}
			if flags.Changed("https-port") {
				cfg.HTTPSPort = sysproxy.Ptr(httpsPort)
			}
			if flags.Changed("socks-port") {
				cfg.SOCKSPort = sysproxy.Ptr(socksPort)
			}
			if flags.Changed("bypass") {
				cfg.Bypass = sysproxy.Ptr(bypass)
			}

			p := config.Profile{Proxy: *cfg}
			if err := p.Validate(); err != nil {
				return err
			}

			if err := newManager().SetSystemProxy(cfg); err != nil {
				return fmt.Errorf("set system proxy: %w", err)
			}
			logging.InfoContext(cmd.Context(), "system proxy updated", "proxy", cfg.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Proxy host")
	cmd.Flags().Uint16Var(&httpPort, "http-port", 0, "HTTP proxy port")
	cmd.Flags().Uint16Var(&httpsPort, "https-port", 0, "HTTPS proxy port")
	cmd.Flags().Uint16Var(&socksPort, "socks-port", 0, "SOCKS proxy port")
	cmd.Flags().StringVar(&bypass, "bypass", "", "Comma-separated hosts that bypass the proxy")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the system proxy")
	return cmd
}

func newApplyCommand(newManager ManagerFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a proxy profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var p config.Profile
			if err := config.LoadAndValidate(file, &p); err != nil {
				return fmt.Errorf("load profile: %w", err)
			}

			if p.Logging != (logging.Config{}) && !logFlagsChanged(cmd) {
				if err := logging.Setup(p.Logging); err != nil {
					return fmt.Errorf("profile logging: %w", err)
				}
			}

			if err := applyProfile(newManager(), &p); err != nil {
				return err
			}
			logging.InfoContext(cmd.Context(), "profile applied", "file", file, "service", p.Service)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Profile file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// logFlagsChanged reports whether logging was configured on the command line,
// which takes precedence over a profile's logging section.
func logFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"log-level", "log-format", "log-output"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func applyProfile(m sysproxy.Manager, p *config.Profile) error {
	if p.Service == "" {
		if err := m.SetSystemProxy(&p.Proxy); err != nil {
			return fmt.Errorf("set system proxy: %w", err)
		}
		return nil
	}

	sm, ok := m.(serviceManager)
	if !ok {
		return fmt.Errorf("profile service %q: %w", p.Service, sysproxy.ErrNotSupported)
	}
	if err := sm.SetServiceProxy(p.Service, &p.Proxy); err != nil {
		return fmt.Errorf("set proxy of service %q: %w", p.Service, err)
	}
	return nil
}

func newSnapshotCommand(newManager ManagerFactory) *cobra.Command {
	var output string
	var force bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save the current system proxy as a profile",
		Long: `Save the current system proxy as a profile that can be restored with apply.

Example:
  sysproxy snapshot -o before.yaml
  sysproxy set --host 127.0.0.1 --socks-port 1080
  sysproxy apply -f before.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newManager().GetSystemProxy()
			if err != nil {
				return fmt.Errorf("get system proxy: %w", err)
			}
			p := config.Profile{Proxy: *cfg}

			if output == "-" {
				data, err := config.Marshal(&p)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if _, err := os.Stat(output); err == nil {
				if !force {
					return fmt.Errorf("file %s already exists (use --force to overwrite)", output)
				}
				backup, err := config.Backup(output)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Previous profile saved to %s\n", backup)
			}

			if err := config.Save(output, &p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved system proxy to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "sysproxy-profile.yaml", "Profile file, - for stdout")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file, keeping a backup")
	return cmd
}

func newServiceCommand(newManager ManagerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "service",
		Short: "Show the default network service (macOS)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := newManager().(serviceResolver)
			if !ok {
				return fmt.Errorf("network services only exist on macOS: %w", sysproxy.ErrNotSupported)
			}

			service, err := r.DefaultNetworkService()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), service)
			return nil
		},
	}
}

func newBypassCommand(newManager ManagerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "bypass HOST...",
		Short: "Show whether hosts go through the system proxy",
		Long: `Show whether hosts go through the system proxy under the current settings.
A host is "direct" when the proxy is disabled or the host matches the bypass list.

Example:
  sysproxy bypass localhost 10.1.2.3 api.example.com:443`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newManager().GetSystemProxy()
			if err != nil {
				return fmt.Errorf("get system proxy: %w", err)
			}

			list := &bypass.List{}
			if cfg.Bypass != nil {
				list = bypass.Parse(*cfg.Bypass)
			}
			logging.DebugContext(cmd.Context(), "bypass list loaded", "entries", list.Len(), "enabled", cfg.Enable)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, host := range args {
				route := "proxy"
				if !cfg.Enable || list.Match(host) {
					route = "direct"
				}
				fmt.Fprintf(tw, "%s\t%s\n", host, route)
			}
			return tw.Flush()
		},
	}
}

// printConfig writes cfg to w in the given format.
func printConfig(w io.Writer, cfg *sysproxy.Config, format string) error {
	switch format {
	case FormatText, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Enabled:\t%t\n", cfg.Enable)
		fmt.Fprintf(tw, "Host:\t%s\n", cfg.Host)
		fmt.Fprintf(tw, "HTTP port:\t%s\n", portText(cfg.HTTPPort))
		fmt.Fprintf(tw, "HTTPS port:\t%s\n", portText(cfg.HTTPSPort))
		fmt.Fprintf(tw, "SOCKS port:\t%s\n", portText(cfg.SOCKSPort))
		bypass := "-"
		if cfg.Bypass != nil {
			bypass = *cfg.Bypass
		}
		fmt.Fprintf(tw, "Bypass:\t%s\n", bypass)
		return tw.Flush()
	case FormatYAML:
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown output format %q (want text, yaml or json)", format)
	}
}

func portText(port *uint16) string {
	if port == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*port), 10)
}
