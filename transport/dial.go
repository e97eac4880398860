package transport

import "github.com/isamuradli/remotedram/kverr"

// Dial parses addr and creates a client endpoint (spec §4.C
// "Client endpoint creation (client mode)"). Any failure is surfaced as
// a connection error to the caller; the endpoint is tracked for
// shutdown.
func (m *Manager) Dial(addr string) (*ClientConn, error) {
	if err := m.checkReady(); err != nil {
		return nil, err
	}
	if err := validateHostPort(addr); err != nil {
		return nil, err
	}

	conn, err := m.connectorOrDefault().Dial(addr)
	if err != nil {
		return nil, kverr.Wrap(kverr.Unreachable, err, "failed to connect to %s", addr)
	}

	cc := &ClientConn{
		mgr:    m,
		conn:   conn,
		stopCh: make(chan struct{}),
	}

	m.mu.Lock()
	m.clientConns = append(m.clientConns, cc)
	m.mu.Unlock()

	go cc.readLoop()

	return cc, nil
}
