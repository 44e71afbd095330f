//go:build !unix

package tcp

import (
	"context"
	"net"
	"net/netip"
)

// listenSocket falls back to the net package; backlog is left to the system.
func listenSocket(ip netip.Addr, port, backlog int) (*net.TCPListener, error) {
	var lc net.ListenConfig

	ln, err := lc.Listen(context.Background(), "tcp",
		netip.AddrPortFrom(ip, uint16(port)).String())
	if err != nil {
		return nil, err
	}

	return ln.(*net.TCPListener), nil
}
