// Package client implements the client-mode RPC pair described by
// spec §4.E: allocate a request id, register a pending-table entry,
// send, and block until the transport manager's completion workers
// resolve it (or the caller's context is done).
package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/isamuradli/remotedram/kverr"
	"github.com/isamuradli/remotedram/transport"
	"github.com/isamuradli/remotedram/wire"
)

// WriteResult is returned by a successful Write: a fresh generation
// stamp and the wall-clock time it was minted at (spec §3: "opaque
// string attached to write/read outcomes; no ordering semantics beyond
// being unique per successful write").
type WriteResult struct {
	GenerationStamp string
	Timestamp       time.Time
}

// ReadResult is returned by Read. Found distinguishes a present value
// from a clean miss; TransportErr additively exposes the underlying
// transport failure for callers that want to tell a genuine error
// apart from an absent key, without changing the normalized
// Found=false contract spec §7 documents as the existing behavior.
type ReadResult struct {
	Found           bool
	Value           []byte
	GenerationStamp string
	Timestamp       time.Time
	TransportErr    error
}

// Client is one client-mode driver instance's RPC surface, built on
// top of a single transport.ClientConn (spec §3: "Client endpoint:
// one per client-mode driver open").
type Client struct {
	conn *transport.ClientConn
	mgr  *transport.Manager
}

// Dial creates the client endpoint and wraps it in the Write/Read RPC
// surface.
func Dial(mgr *transport.Manager, addr string) (*Client, error) {
	conn, err := mgr.Dial(addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, mgr: mgr}, nil
}

// Close tears down the underlying client endpoint.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Write performs the Write RPC (spec §4.E "Write RPC"): allocate a
// request id, register a Promise<void>, send, then chain the
// resolved void into a generation stamp and timestamp.
func (c *Client) Write(ctx context.Context, key, value []byte) (WriteResult, error) {
	if value == nil {
		return WriteResult{}, kverr.New(kverr.InvalidArgument, "value must not be nil")
	}

	id := c.mgr.NextRequestID()
	ch := c.mgr.RegisterWrite(id)
	start := time.Now()

	req := wire.Message{
		Header: wire.Header{
			Magic:     wire.Magic,
			Type:      wire.TypeWriteRequest,
			RequestID: id,
		},
		Key:   key,
		Value: value,
	}

	if err := c.conn.Send(req); err != nil {
		c.mgr.DiscardWrite(id)
		return WriteResult{}, kverr.Wrap(kverr.Internal, err, "failed to send write request")
	}

	select {
	case outcome := <-ch:
		if outcome.Err != nil {
			return WriteResult{}, kverr.Wrap(kverr.Internal, outcome.Err, "write failed")
		}
		c.mgr.Metrics().RecordWrite(time.Since(start))
		return WriteResult{
			GenerationStamp: uuid.NewString(),
			Timestamp:       time.Now(),
		}, nil
	case <-ctx.Done():
		return WriteResult{}, kverr.Wrap(kverr.Cancelled, ctx.Err(), "write cancelled")
	}
}

// Read performs the Read RPC (spec §4.E "Read RPC"). A transport
// error is normalized to Found=false per spec §7's documented
// contract, with the underlying error additionally available via
// TransportErr (spec §9 open question 3).
func (c *Client) Read(ctx context.Context, key []byte) (ReadResult, error) {
	id := c.mgr.NextRequestID()
	ch := c.mgr.RegisterRead(id)
	start := time.Now()

	req := wire.Message{
		Header: wire.Header{
			Magic:     wire.Magic,
			Type:      wire.TypeReadRequest,
			RequestID: id,
		},
		Key: key,
	}

	if err := c.conn.Send(req); err != nil {
		c.mgr.DiscardRead(id)
		return ReadResult{Found: false, TransportErr: err}, nil
	}

	select {
	case outcome := <-ch:
		c.mgr.Metrics().RecordRead(time.Since(start))
		if outcome.Err != nil {
			return ReadResult{Found: false, TransportErr: outcome.Err}, nil
		}
		if !outcome.Found {
			return ReadResult{Found: false}, nil
		}
		return ReadResult{
			Found:           true,
			Value:           outcome.Value,
			GenerationStamp: uuid.NewString(),
			Timestamp:       time.Now(),
		}, nil
	case <-ctx.Done():
		return ReadResult{Found: false, TransportErr: ctx.Err()}, nil
	}
}
