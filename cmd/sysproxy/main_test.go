package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rennerdo30/sysproxy/internal/logging"
	"github.com/rennerdo30/sysproxy/internal/metrics"
	"github.com/rennerdo30/sysproxy/internal/sysproxy"
	"github.com/rennerdo30/sysproxy/internal/version"
)

type staticManager struct {
	cfg *sysproxy.Config
}

func (s *staticManager) GetSystemProxy() (*sysproxy.Config, error) { return s.cfg.Clone(), nil }

func (s *staticManager) SetSystemProxy(cfg *sysproxy.Config) error {
	s.cfg = cfg.Clone()
	return nil
}

func run(t *testing.T, mgr sysproxy.Manager, args ...string) (string, *rootOptions, error) {
	t.Helper()
	t.Cleanup(func() { _ = logging.Setup(logging.DefaultConfig()) })

	var factory func() sysproxy.Manager
	if mgr != nil {
		factory = func() sysproxy.Manager { return mgr }
	}
	cmd, opts := newRootCommand(metrics.New(), factory)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), opts, err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Name)
	assert.Contains(t, out, version.Version)
}

func TestVersionCommand_JSON(t *testing.T) {
	out, _, err := run(t, nil, "version", "--json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Name, info.Name)
	assert.Equal(t, sysproxy.IsSupported(), info.Supported)
}

func TestPersistentFlags(t *testing.T) {
	_, opts, err := run(t, nil, "--log-level", "debug", "--log-format", "json", "--metrics-file", "/tmp/m.prom", "version")
	require.NoError(t, err)
	assert.Equal(t, "debug", opts.logLevel)
	assert.Equal(t, "json", opts.logFormat)
	assert.Equal(t, "/tmp/m.prom", opts.metricsFile)
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := run(t, nil, "--log-level", "verbose", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup logging")
}

func TestCommandTree(t *testing.T) {
	cmd, _ := newRootCommand(metrics.New(), nil)

	names := map[string]*cobra.Command{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = c
	}
	for _, want := range []string{"version", "validate", "config", "get", "set", "apply", "snapshot", "service", "bypass"} {
		assert.Contains(t, names, want)
	}
}

func TestConfigInit(t *testing.T) {
	file := filepath.Join(t.TempDir(), "profile.yaml")

	out, _, err := run(t, nil, "config", "init", "-o", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated proxy profile: "+file)

	_, _, err = run(t, nil, "config", "init", "-o", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = run(t, nil, "config", "init", "-o", file, "--force")
	require.NoError(t, err)

	out, _, err = run(t, nil, "validate", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "Profile is valid\n", out)
}

func TestValidate_Invalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(file, []byte("proxy:\n  enable: true\n  host: 10.0.0.1\n"), 0600))

	_, _, err := run(t, nil, "validate", "-f", file)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "profile invalid"))
}

func TestValidate_Unreadable(t *testing.T) {
	_, _, err := run(t, nil, "validate", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "load profile"), err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigInitThenApply(t *testing.T) {
	file := filepath.Join(t.TempDir(), "profile.yaml")
	_, _, err := run(t, nil, "config", "init", "-o", file)
	require.NoError(t, err)

	mgr := &staticManager{}
	_, _, err = run(t, mgr, "apply", "-f", file)
	require.NoError(t, err)

	require.NotNil(t, mgr.cfg)
	assert.True(t, mgr.cfg.Enable)
	assert.Equal(t, "127.0.0.1", mgr.cfg.Host)
	assert.Equal(t, sysproxy.Ptr[uint16](7891), mgr.cfg.SOCKSPort)
}
