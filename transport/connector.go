package transport

import "net"

// Connector abstracts the medium a Manager listens on / dials over, so
// that a different substrate (unix socket, a future RDMA binding, ...)
// can be dropped in without touching Manager. Only a TCP connector
// (package transport/tcp) is registered by default, matching spec
// §6's host:port addressing.
type Connector interface {
	// Name identifies the connector, e.g. "tcp".
	Name() string

	// Listen creates a listener bound to addr (host:port).
	Listen(addr string) (net.Listener, error)

	// Dial connects to addr (host:port).
	Dial(addr string) (net.Conn, error)

	// Upgrade applies connector-specific tuning to a newly
	// established connection (e.g. TCP_NODELAY).
	Upgrade(conn net.Conn) error
}
