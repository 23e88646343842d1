package sysproxy

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/rennerdo30/sysproxy/internal/util"
)

// outboundProbeAddr is only used to make the OS pick a route; nothing is sent.
const outboundProbeAddr = "1.1.1.1:80"

// Interface is a network interface and the addresses bound to it.
type Interface struct {
	Name  string
	Addrs []netip.Addr
}

// InterfaceLister enumerates the machine's network interfaces.
type InterfaceLister interface {
	Interfaces() ([]Interface, error)
}

// SystemInterfaces lists interfaces through gopsutil.
type SystemInterfaces struct{}

// Interfaces implements InterfaceLister.
func (SystemInterfaces) Interfaces() ([]Interface, error) {
	stats, err := psnet.InterfacesWithContext(context.Background())
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(stats))
	for _, st := range stats {
		iface := Interface{Name: st.Name}
		for _, a := range st.Addrs {
			if addr, ok := parseInterfaceAddr(a.Addr); ok {
				iface.Addrs = append(iface.Addrs, addr)
			}
		}
		out = append(out, iface)
	}
	return out, nil
}

// parseInterfaceAddr accepts both "10.0.0.2/24" and bare "10.0.0.2".
func parseInterfaceAddr(s string) (netip.Addr, bool) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

// outboundAddr returns the local address the OS routes outbound traffic from.
func outboundAddr() (netip.Addr, error) {
	ip, err := util.GetOutboundIPVia(outboundProbeAddr)
	if err != nil {
		return netip.Addr{}, err
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}, fmt.Errorf("invalid local address %v", ip)
	}
	return addr.Unmap(), nil
}

// interfaceForAddr returns the name of the interface that has addr bound.
func interfaceForAddr(ifaces []Interface, addr netip.Addr) (string, bool) {
	for _, iface := range ifaces {
		for _, a := range iface.Addrs {
			if a == addr {
				return iface.Name, true
			}
		}
	}
	return "", false
}

// findHardwarePort scans `networksetup -listallhardwareports` output for the
// block whose Device line equals device and returns its Hardware Port.
func findHardwarePort(listing, device string) (string, bool) {
	for _, block := range strings.Split(listing, "Ethernet Address:") {
		var port, dev string
		var hasPort, hasDev bool

		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimRight(line, "\r")
			if v, ok := strings.CutPrefix(line, "Hardware Port:"); ok {
				port, hasPort = strings.TrimSpace(v), true
			}
			if v, ok := strings.CutPrefix(line, "Device:"); ok {
				dev, hasDev = strings.TrimSpace(v), true
			}
		}

		if hasDev && hasPort && dev == device {
			return port, true
		}
	}
	return "", false
}

var errNoRoute = errors.New("no outbound route")

// resolveDevice finds the interface that carries the default route.
func resolveDevice(lister InterfaceLister, outbound func() (netip.Addr, error)) (string, error) {
	local, err := outbound()
	if err != nil {
		return "", interfaceError("resolve outbound address", errors.Join(errNoRoute, err))
	}

	ifaces, err := lister.Interfaces()
	if err != nil {
		return "", interfaceError("list interfaces", err)
	}

	name, ok := interfaceForAddr(ifaces, local)
	if !ok {
		return "", interfaceError("match interface", fmt.Errorf("no interface has address %s", local))
	}
	return name, nil
}
