//go:build darwin

package sysproxy

const platformSupported = true

func newPlatformManager(o options) Manager {
	return NewNetworkSetup(o.commandRunner(), SystemInterfaces{}, WithMetrics(o.metrics), WithLogger(o.logger))
}
