// Package netutil carries the small set of address helpers still relevant
// to a plain TCP server: picking a free port for tests, and reporting the
// host's non-loopback address for operator-facing log lines. See DESIGN.md
// for the address helpers that have no home here.
package netutil

import "net"

// GetFreePort asks the OS for an unused TCP port by binding to port 0 and
// immediately releasing it -- useful for tests that need a real listener
// address without a race against a fixed port.
func GetFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, err
	}
	return addr.Port, nil
}

// GetLocalIP returns the host's first non-loopback IPv4 address, or
// "127.0.0.1" if none is found -- used only for operator-facing log lines,
// never for binding.
func GetLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return "127.0.0.1"
}
