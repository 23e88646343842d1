package sysproxy

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupported(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "darwin", "windows":
		assert.True(t, IsSupported())
	default:
		assert.False(t, IsSupported())
	}
}

func TestNew(t *testing.T) {
	m := New(WithRunner(&mockRunner{}))
	require.NotNil(t, m)

	switch runtime.GOOS {
	case "linux":
		assert.IsType(t, &GSettings{}, m)
	case "darwin":
		assert.IsType(t, &NetworkSetup{}, m)
	case "windows":
		assert.IsType(t, &Registry{}, m)
	default:
		_, err := m.GetSystemProxy()
		assert.ErrorIs(t, err, ErrNotSupported)
		assert.ErrorIs(t, m.SetSystemProxy(&Config{}), ErrNotSupported)
	}
}

func TestConfig_Ports(t *testing.T) {
	var cfg Config
	for _, p := range []Protocol{HTTP, HTTPS, SOCKS} {
		assert.Nil(t, cfg.Port(p), p.String())
	}

	cfg.SetPort(HTTP, Ptr[uint16](80))
	cfg.SetPort(HTTPS, Ptr[uint16](443))
	cfg.SetPort(SOCKS, Ptr[uint16](1080))
	assert.Equal(t, uint16(80), *cfg.HTTPPort)
	assert.Equal(t, uint16(443), *cfg.HTTPSPort)
	assert.Equal(t, uint16(1080), *cfg.SOCKSPort)

	cfg.SetPort(HTTPS, nil)
	assert.Nil(t, cfg.HTTPSPort)
	assert.Nil(t, cfg.Port(Protocol(42)))
}

func TestProtocol_String(t *testing.T) {
	assert.Equal(t, "http", HTTP.String())
	assert.Equal(t, "https", HTTPS.String())
	assert.Equal(t, "socks", SOCKS.String())
	assert.Equal(t, "unknown", Protocol(9).String())
}

func TestConfig_CloneAndEqual(t *testing.T) {
	orig := &Config{
		Enable:    true,
		Host:      "127.0.0.1",
		HTTPPort:  Ptr[uint16](8080),
		SOCKSPort: Ptr[uint16](1080),
		Bypass:    Ptr("localhost"),
	}

	clone := orig.Clone()
	assert.True(t, orig.Equal(clone))

	*clone.HTTPPort = 9090
	*clone.Bypass = "other"
	assert.Equal(t, uint16(8080), *orig.HTTPPort)
	assert.Equal(t, "localhost", *orig.Bypass)
	assert.False(t, orig.Equal(clone))

	var nilCfg *Config
	assert.Nil(t, nilCfg.Clone())
	assert.True(t, nilCfg.Equal(nil))
	assert.False(t, orig.Equal(nil))
}

func TestConfig_EqualDistinguishesUnsetFromEmpty(t *testing.T) {
	a := &Config{Host: "h"}
	b := &Config{Host: "h", Bypass: Ptr("")}
	assert.False(t, a.Equal(b))

	c := &Config{Host: "h", HTTPPort: Ptr[uint16](1)}
	assert.False(t, a.Equal(c))
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{Enable: true, Host: "10.0.0.1", SOCKSPort: Ptr[uint16](1080)}
	assert.Equal(t, `enable=true host="10.0.0.1" http=unset https=unset socks=1080 bypass=unset`, cfg.String())

	cfg.Bypass = Ptr("a.com,b.com")
	assert.Contains(t, cfg.String(), `bypass="a.com,b.com"`)
}

func TestNormalizePort(t *testing.T) {
	assert.Nil(t, normalizePort(0))
	assert.Equal(t, Ptr[uint16](1), normalizePort(1))
	assert.Equal(t, Ptr[uint16](65535), normalizePort(65535))
}

func TestOpError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := ioError("get mode", cause)

	assert.Equal(t, "sysproxy: get mode: i/o failure: exit status 1", err.Error())
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsParse(err))
	assert.False(t, IsNetworkInterface(err))

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "get mode", opErr.Op)

	bare := newOpError("resolve", ErrNetworkInterface, nil)
	assert.Equal(t, "sysproxy: resolve: failed to get default network interface", bare.Error())
	assert.True(t, IsNetworkInterface(bare))
}
