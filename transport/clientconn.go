package transport

import (
	"io"
	"net"
	"sync"

	"github.com/isamuradli/remotedram/wire"
)

// ClientConn is one client-mode driver instance's connection handle
// (spec §3 "Client endpoint: one per client-mode driver open").
type ClientConn struct {
	mgr  *Manager
	conn net.Conn

	writeMu sync.Mutex // serializes writes; the read loop runs on its own goroutine

	closeOnce sync.Once
	stopCh    chan struct{}
}

// Send writes an already-encoded request message to the server. The
// caller must have registered the matching pending-table entry before
// calling Send, mirroring spec §4.E's ordering ("Register a Promise ...
// Post a receive ... Send the request").
func (c *ClientConn) Send(msg wire.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeMessage(c.conn, c.mgr.codec, msg)
}

// Close tears down this client endpoint. Idempotent.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stopCh)
		err = c.conn.Close()
	})
	return err
}

// readLoop is the client-side half of component C's progress loop: it
// reads response frames and resolves the matching pending-table entry.
// A completion for an unknown request id is ignored (spec §4.C).
func (c *ClientConn) readLoop() {
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		buf, fatal, err := readRawFrame(c.conn, c.mgr.codec, c.mgr.bufferPool)
		if err != nil {
			if fatal {
				if err != io.EOF {
					c.mgr.log.Warningf("client connection closed: %v", err)
				}
				c.mgr.failAllPendingOnConn(err)
				return
			}
			c.mgr.log.Warningf("dropping malformed response: %v", err)
			c.mgr.metrics.IncDropped()
			continue
		}

		msg, derr := c.mgr.codec.Decode(buf)
		releaseFrame(c.mgr.bufferPool, buf)
		if derr != nil {
			c.mgr.log.Warningf("dropping malformed response: %v", derr)
			c.mgr.metrics.IncDropped()
			continue
		}

		c.mgr.metrics.IncResponses()
		c.mgr.dispatchResponse(msg)
	}
}
