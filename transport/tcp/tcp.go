// Package tcp is the default transport.Connector: it substrates the
// tagged-messaging channel spec §4.A assumes (an RDMA-capable NIC) over
// a plain TCP socket, dialing and listening with net.Dial/net.Listen.
package tcp

import (
	"net"

	"github.com/isamuradli/remotedram/logging"
)

var log = logging.Get("transport/tcp")

// Connector implements transport.Connector over TCP sockets.
type Connector struct {
	// NoDelay disables Nagle's algorithm on accepted/dialed
	// connections when true. Upgrade always applies it, so the zero
	// value (false) turns Nagle's algorithm back on, overriding Go's
	// own default of TCP_NODELAY enabled on new TCP connections.
	NoDelay bool
}

func (c Connector) Name() string { return "tcp" }

func (c Connector) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	log.Infof("listening on %s", addr)
	return ln, nil
}

func (c Connector) Dial(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	if err := c.Upgrade(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c Connector) Upgrade(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return tcpConn.SetNoDelay(c.NoDelay)
}
