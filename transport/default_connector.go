package transport

import "github.com/isamuradli/remotedram/transport/tcp"

// defaultConnector is used whenever a Manager is constructed without an
// explicit Connector (including Default()), matching spec §6's
// host:port addressing over the TCP substrate described in spec §4.C.
func defaultConnector() Connector {
	return tcp.Connector{}
}
