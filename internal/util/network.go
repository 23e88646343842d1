package util

import (
	"fmt"
	"net"
)

// GetOutboundIPVia returns the local IP the OS selects to reach probe.
// The UDP dial only performs route selection; no packet is sent.
func GetOutboundIPVia(probe string) (net.IP, error) {
	conn, err := net.Dial("udp", probe)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	return localAddr.IP, nil
}
