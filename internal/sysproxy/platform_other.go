//go:build !linux && !darwin && !windows

package sysproxy

const platformSupported = false

type unsupportedManager struct{}

func newPlatformManager(options) Manager {
	return unsupportedManager{}
}

func (unsupportedManager) GetSystemProxy() (*Config, error) {
	return nil, ErrNotSupported
}

func (unsupportedManager) SetSystemProxy(*Config) error {
	return ErrNotSupported
}
