package transport

import (
	"io"
	"net"
	"sync"

	"github.com/isamuradli/remotedram/wire"
)

// ServerHandler processes one decoded inbound request and is
// responsible for eventually replying on conn (via Manager.Reply).
// Registered by package server; this is the hook component D plugs
// into component C through.
type ServerHandler func(conn net.Conn, msg wire.Message)

// preparedReceives bounds how many requests one connection processes
// concurrently, the TCP-substrate analogue of spec §4.D's fixed pool of
// 10 pre-posted receive buffers: once 10 requests are in flight on a
// connection, the read loop holds the next decoded request until a
// slot frees up and reads nothing further, so unread bytes simply
// queue in the OS socket buffer — "additional inbound messages are
// queued by the transport" (spec §5 "Back-pressure").
const preparedReceives = 10

// serveConn is the per-accepted-connection read loop: read one frame,
// acquire a worker-pool slot, dispatch to a fresh goroutine so the
// handler never re-enters the manager from inside this read loop (spec
// §5's re-entrancy rule), then go back to reading.
func (m *Manager) serveConn(conn net.Conn, handler ServerHandler) {
	defer conn.Close()

	m.trackServerConn(conn)
	defer m.untrackServerConn(conn)

	sem := make(chan struct{}, preparedReceives)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if m.isShuttingDown() {
			return
		}

		buf, fatal, err := readRawFrame(conn, m.codec, m.bufferPool)
		if err != nil {
			if fatal {
				if err != io.EOF {
					m.log.Warningf("server connection closed: %v", err)
				}
				return
			}
			// Non-fatal: drop the malformed message, post a fresh
			// receive (i.e. just keep looping) without tearing down
			// the connection, per spec §4.A's error policy.
			m.log.Warningf("dropping malformed message: %v", err)
			m.metrics.IncDropped()
			continue
		}

		msg, derr := m.codec.Decode(buf)
		releaseFrame(m.bufferPool, buf)
		if derr != nil {
			m.log.Warningf("dropping malformed message: %v", derr)
			m.metrics.IncDropped()
			continue
		}

		// Redesign fix (spec §9 item 5): the connection the request
		// arrived on is handed straight to the handler, so the
		// response goes back to the right client instead of "the
		// most recently registered client endpoint".
		m.metrics.IncRequests()

		sem <- struct{}{}
		wg.Add(1)
		go func(msg wire.Message) {
			defer wg.Done()
			defer func() { <-sem }()
			handler(conn, msg)
		}(msg)
	}
}

func (m *Manager) trackServerConn(conn net.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serverConns = append(m.serverConns, conn)
}

func (m *Manager) untrackServerConn(conn net.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.serverConns {
		if c == conn {
			m.serverConns = append(m.serverConns[:i], m.serverConns[i+1:]...)
			break
		}
	}
}
