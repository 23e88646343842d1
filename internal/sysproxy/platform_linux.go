//go:build linux

package sysproxy

const platformSupported = true

func newPlatformManager(o options) Manager {
	return NewGSettings(o.commandRunner(), WithMetrics(o.metrics), WithLogger(o.logger))
}
