//go:build windows

package sysproxy

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

var (
	modwininet            = windows.NewLazySystemDLL("wininet.dll")
	procInternetSetOption = modwininet.NewProc("InternetSetOptionW")
)

const (
	internetOptionSettingsChanged = 39
	internetOptionRefresh         = 37
)

// currentUserStore opens keys under HKEY_CURRENT_USER.
type currentUserStore struct{}

func (currentUserStore) OpenKey(path string, write bool) (Key, error) {
	access := uint32(registry.QUERY_VALUE)
	if write {
		access = registry.SET_VALUE
	}
	k, err := registry.OpenKey(registry.CURRENT_USER, path, access)
	if err != nil {
		return nil, err
	}
	return registryKey{k}, nil
}

type registryKey struct {
	k registry.Key
}

func (r registryKey) GetUint32(name string) (uint32, error) {
	v, _, err := r.k.GetIntegerValue(name)
	if err != nil {
		return 0, mapRegistryError(err)
	}
	return uint32(v), nil
}

func (r registryKey) GetString(name string) (string, error) {
	v, _, err := r.k.GetStringValue(name)
	if err != nil {
		return "", mapRegistryError(err)
	}
	return v, nil
}

func (r registryKey) SetUint32(name string, value uint32) error {
	return r.k.SetDWordValue(name, value)
}

func (r registryKey) SetString(name string, value string) error {
	return r.k.SetStringValue(name, value)
}

func (r registryKey) Close() error {
	return r.k.Close()
}

func mapRegistryError(err error) error {
	if errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrValueNotExist, err)
	}
	return err
}

// notifySettingsChange tells WinINet that the proxy settings changed so
// running applications pick them up without a restart.
func notifySettingsChange() error {
	if err := procInternetSetOption.Find(); err != nil {
		return err
	}
	for _, option := range []uintptr{internetOptionSettingsChanged, internetOptionRefresh} {
		if ret, _, err := procInternetSetOption.Call(0, option, 0, 0); ret == 0 {
			return fmt.Errorf("InternetSetOptionW(%d): %w", option, err)
		}
	}
	return nil
}
