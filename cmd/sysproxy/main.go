// Package main provides the sysproxy command line entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rennerdo30/sysproxy/internal/cli"
	"github.com/rennerdo30/sysproxy/internal/config"
	"github.com/rennerdo30/sysproxy/internal/logging"
	"github.com/rennerdo30/sysproxy/internal/metrics"
	"github.com/rennerdo30/sysproxy/internal/sysproxy"
	"github.com/rennerdo30/sysproxy/internal/util"
	"github.com/rennerdo30/sysproxy/internal/version"
)

type rootOptions struct {
	logLevel    string
	logFormat   string
	logOutput   string
	metricsFile string
}

// newRootCommand builds the command tree. newManager may be nil, in which
// case the platform manager is used.
func newRootCommand(m *metrics.Metrics, newManager cli.ManagerFactory) (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	if newManager == nil {
		newManager = func() sysproxy.Manager {
			return sysproxy.New(
				sysproxy.WithMetrics(m),
				sysproxy.WithLogger(logging.Default()),
			)
		}
	}

	rootCmd := &cobra.Command{
		Use:           "sysproxy",
		Short:         "Read and write the operating system proxy settings",
		Long:          `sysproxy reads and writes the global proxy of the current user: gsettings on Linux, networksetup on macOS and the Internet Settings registry key on Windows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := logging.DefaultConfig()
			cfg.Level = opts.logLevel
			cfg.Format = opts.logFormat
			cfg.Output = opts.logOutput
			if err := logging.Setup(cfg); err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			ctx := logging.WithContext(cmd.Context(), logging.WithComponent("cli"))
			cmd.SetContext(logging.ContextWith(ctx, "command", cmd.Name()))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flags.StringVar(&opts.logOutput, "log-output", "stderr", "log output: stdout, stderr or a file path")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path on exit")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(cli.NewCommands(newManager)...)

	return rootCmd, opts
}

func newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), version.Full())
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(version.GetInfo(sysproxy.IsSupported()))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")
	return cmd
}

func newValidateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a proxy profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p config.Profile
			if err := config.LoadAndValidate(file, &p); err != nil {
				if util.IsInvalidConfig(err) {
					return fmt.Errorf("profile invalid: %w", err)
				}
				return fmt.Errorf("load profile: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile is valid")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "sysproxy-profile.yaml", "profile file path")
	return cmd
}

func newConfigCommand() *cobra.Command {
	var output string
	var force bool

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Profile management commands",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a sample proxy profile",
		Long: `Generate a sample proxy profile pointing every protocol at a local proxy.

Apply it with:
  sysproxy apply -f sysproxy-profile.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("file %s already exists (use --force to overwrite)", output)
				}
			}

			if err := os.WriteFile(output, []byte(config.DefaultProfileTemplate), 0600); err != nil { //nolint:gosec // G306: profile permissions are restricted
				return fmt.Errorf("failed to write profile: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated proxy profile: %s\n\n", output)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  1. Review the host, ports and bypass list")
			fmt.Fprintf(out, "  2. Apply it: sysproxy apply -f %s\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "sysproxy-profile.yaml", "output file path")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}

func main() {
	m := metrics.New()
	rootCmd, opts := newRootCommand(m, nil)

	err := rootCmd.ExecuteContext(context.Background())

	if opts.metricsFile != "" {
		if werr := m.WriteTextfile(opts.metricsFile); werr != nil {
			logging.Warn("failed to write metrics", "path", opts.metricsFile, "error", werr)
		}
	}
	_ = logging.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
