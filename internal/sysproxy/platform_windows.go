//go:build windows

package sysproxy

const platformSupported = true

func newPlatformManager(o options) Manager {
	return NewRegistry(currentUserStore{}, notifySettingsChange,
		WithMetrics(o.metrics), WithLogger(o.logger))
}
