// Package server implements the receive path described by spec §4.D:
// decode an inbound write or read request, apply it to the shared
// storage map, and send the matching response back on the connection
// it arrived on.
package server

import (
	"net"

	"github.com/isamuradli/remotedram/logging"
	"github.com/isamuradli/remotedram/storage"
	"github.com/isamuradli/remotedram/transport"
	"github.com/isamuradli/remotedram/wire"
	golog "github.com/lni/dragonboat/v4/logger"
)

var log golog.ILogger = logging.Get("server")

// Server owns the storage map a transport.Manager's listener serves
// requests against. One Server per server-mode driver open.
type Server struct {
	mgr     *transport.Manager
	storage *storage.Map
}

// New wires a fresh Server on top of mgr and storage. storage is
// exposed separately (rather than created here) so remotedram.Driver's
// ReadLocal/WriteLocal convenience path can share the exact same map.
func New(mgr *transport.Manager, store *storage.Map) *Server {
	return &Server{mgr: mgr, storage: store}
}

// Handler returns the transport.ServerHandler to pass to
// (*transport.Manager).Listen.
func (s *Server) Handler() transport.ServerHandler {
	return s.handle
}

// handle dispatches one decoded request by its wire tag class, matching
// the pre-posted-receive dispatch contract of spec §4.D: decode,
// apply, reply on the originating connection. Routing is by tag/mask
// (wire.MatchesTag) rather than exact Type comparison, once the
// message is confirmed to be request-shaped — a response-shaped
// message is never a valid inbound request, so it's rejected up front
// rather than folded into the tag match.
func (s *Server) handle(conn net.Conn, msg wire.Message) {
	if wire.IsResponse(msg.Header.Type) {
		log.Warningf("dropping response-shaped message 0x%x on the request path", uint32(msg.Header.Type))
		return
	}
	switch {
	case wire.MatchesTag(msg.Header.Type, wire.TypeWriteRequest):
		s.handleWrite(conn, msg)
	case wire.MatchesTag(msg.Header.Type, wire.TypeReadRequest):
		s.handleRead(conn, msg)
	default:
		log.Warningf("dropping request with unexpected type 0x%x", uint32(msg.Header.Type))
	}
}

func (s *Server) handleWrite(conn net.Conn, msg wire.Message) {
	s.storage.Store(string(msg.Key), msg.Value)

	resp := wire.Message{
		Header: wire.Header{
			Magic:     wire.Magic,
			Type:      wire.TypeWriteResponse,
			RequestID: msg.Header.RequestID,
		},
		StatusCode: wire.StatusOK,
	}
	if err := s.mgr.Reply(conn, resp); err != nil {
		log.Warningf("failed to send write response for request %d: %v", msg.Header.RequestID, err)
	}
}

func (s *Server) handleRead(conn net.Conn, msg wire.Message) {
	value, ok := s.storage.Get(string(msg.Key))

	resp := wire.Message{
		Header: wire.Header{
			Magic:     wire.Magic,
			Type:      wire.TypeReadResponse,
			RequestID: msg.Header.RequestID,
		},
	}
	if ok {
		resp.StatusCode = wire.StatusOK
		resp.Value = value
	} else {
		resp.StatusCode = wire.StatusMissing
	}

	if err := s.mgr.Reply(conn, resp); err != nil {
		log.Warningf("failed to send read response for request %d: %v", msg.Header.RequestID, err)
	}
}
