package transport

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"syscall"

	"github.com/isamuradli/remotedram/kverr"
	"github.com/isamuradli/remotedram/wire"
)

// Listener is the handle returned by Manager.Listen for server-mode
// driver opens (spec §3: "Listener: created once per server-mode
// driver open; destroyed on shutdown").
type Listener struct {
	mgr *Manager
	ln  net.Listener
}

// Listen parses addr, validates the port, binds a listener, and starts
// accepting connections — each accepted connection gets its own
// pre-posted-receive-equivalent read loop (serveConn). Errors are
// classified per spec §4.C into distinct kinds.
func (m *Manager) Listen(addr string, handler ServerHandler) (*Listener, error) {
	if err := m.checkReady(); err != nil {
		return nil, err
	}
	if err := validateHostPort(addr); err != nil {
		return nil, err
	}

	connector := m.connectorOrDefault()
	ln, err := connector.Listen(addr)
	if err != nil {
		return nil, classifyListenError(err)
	}

	m.mu.Lock()
	m.listener = ln
	m.mu.Unlock()

	l := &Listener{mgr: m, ln: ln}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if m.isShuttingDown() {
					return
				}
				m.log.Errorf("accept error: %v", err)
				return
			}
			if err := connector.Upgrade(conn); err != nil {
				m.log.Warningf("failed to upgrade accepted connection: %v", err)
			}
			go m.serveConn(conn, handler)
		}
	}()

	return l, nil
}

// Close destroys the listener. Idempotent.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Reply sends a response on conn, fixing the "most recently registered
// client endpoint" bug spec §9 item 5 flags: the caller is the
// ServerHandler, which already received the originating connection
// straight from serveConn's read loop, so there's no separate
// request-id-to-connection lookup involved.
func (m *Manager) Reply(conn net.Conn, msg wire.Message) error {
	return writeMessage(conn, m.codec, msg)
}

func (m *Manager) connectorOrDefault() Connector {
	if m.connector != nil {
		return m.connector
	}
	return defaultConnector()
}

func validateHostPort(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return kverr.Wrap(kverr.InvalidArgument, err, "invalid address %q, want host:port", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return kverr.Wrap(kverr.InvalidArgument, err, "invalid port %q", portStr)
	}
	if port <= 0 || port > 65535 {
		return kverr.New(kverr.InvalidArgument, "port %d out of range (0, 65535]", port)
	}
	if host == "" {
		return kverr.New(kverr.InvalidArgument, "missing host in address %q", addr)
	}
	switch {
	case host == "0.0.0.0", host == "127.0.0.1", host == "localhost":
		return nil
	default:
		if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
			return kverr.New(kverr.InvalidArgument, "host %q is not 0.0.0.0, 127.0.0.1, localhost, or a dotted-quad IPv4 address", host)
		}
	}
	return nil
}

// classifyListenError surfaces the distinct errors spec §4.C requires:
// "address in use", "address unreachable", "transport unsupported", and
// a generic internal error.
func classifyListenError(err error) error {
	msg := err.Error()
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.EADDRINUSE) || strings.Contains(msg, "address already in use") {
			return kverr.Wrap(kverr.ResourceExhausted, err, "listener port in use")
		}
		if errors.Is(opErr.Err, syscall.EADDRNOTAVAIL) || strings.Contains(msg, "cannot assign requested address") {
			return kverr.Wrap(kverr.Unreachable, err, "listener address unreachable")
		}
		if errors.Is(opErr.Err, syscall.EAFNOSUPPORT) || errors.Is(opErr.Err, syscall.EPROTONOSUPPORT) {
			return kverr.Wrap(kverr.Unimplemented, err, "transport unsupported")
		}
	}
	return kverr.Wrap(kverr.Internal, err, "failed to create listener")
}
