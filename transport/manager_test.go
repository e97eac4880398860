package transport

import (
	"net"
	"testing"
	"time"

	"github.com/isamuradli/remotedram/wire"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(nil, wire.Codec{})
	t.Cleanup(m.Shutdown)
	return m
}

func TestNextRequestIDMonotonic(t *testing.T) {
	m := newTestManager(t)
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id := m.NextRequestID()
		if seen[id] {
			t.Fatalf("request id %d reused", id)
		}
		seen[id] = true
	}
}

func TestNextRequestIDStartsAtOne(t *testing.T) {
	m := newTestManager(t)
	if id := m.NextRequestID(); id != 1 {
		t.Fatalf("first request id = %d, want 1", id)
	}
}

func TestCompleteWriteUnknownIDIgnored(t *testing.T) {
	m := newTestManager(t)
	// Should not panic or block.
	m.completeWrite(999, WriteOutcome{})
}

func TestCompleteReadUnknownIDIgnored(t *testing.T) {
	m := newTestManager(t)
	m.completeRead(999, ReadOutcome{})
}

func TestRegisterCompleteWriteRoundTrip(t *testing.T) {
	m := newTestManager(t)
	id := m.NextRequestID()
	ch := m.registerWrite(id)
	m.completeWrite(id, WriteOutcome{})

	select {
	case outcome := <-ch:
		if outcome.Err != nil {
			t.Fatalf("unexpected error: %v", outcome.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write completion")
	}
}

func TestRegisterCompleteReadRoundTrip(t *testing.T) {
	m := newTestManager(t)
	id := m.NextRequestID()
	ch := m.registerRead(id)
	m.completeRead(id, ReadOutcome{Found: true, Value: []byte("v")})

	select {
	case outcome := <-ch:
		if !outcome.Found || string(outcome.Value) != "v" {
			t.Fatalf("unexpected outcome: %+v", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for read completion")
	}
}

func TestShutdownResolvesPendingWritesAsCancelled(t *testing.T) {
	m := NewManager(nil, wire.Codec{})
	id := m.NextRequestID()
	ch := m.registerWrite(id)

	m.Shutdown()

	select {
	case outcome := <-ch:
		if outcome.Err == nil {
			t.Fatal("expected cancellation error on shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown to resolve pending write")
	}
}

func TestShutdownResolvesPendingReadsAsAbsent(t *testing.T) {
	m := NewManager(nil, wire.Codec{})
	id := m.NextRequestID()
	ch := m.registerRead(id)

	m.Shutdown()

	select {
	case outcome := <-ch:
		if outcome.Found {
			t.Fatal("expected absent outcome on shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown to resolve pending read")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	m := NewManager(nil, wire.Codec{})
	m.Shutdown()
	m.Shutdown() // must not panic or double-close stopWorkers
}

func TestDefaultIsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default() returned different managers on successive calls")
	}
}

func TestZeroValueManagerRejectsDialAndListen(t *testing.T) {
	var m Manager
	if _, err := m.Dial("127.0.0.1:1"); err == nil {
		t.Fatal("expected Dial on a zero-value manager to fail")
	}
	if _, err := m.Listen("127.0.0.1:0", func(net.Conn, wire.Message) {}); err == nil {
		t.Fatal("expected Listen on a zero-value manager to fail")
	}
}

func TestDialAfterShutdownRejected(t *testing.T) {
	m := NewManager(nil, wire.Codec{})
	m.Shutdown()
	if _, err := m.Dial("127.0.0.1:1"); err == nil {
		t.Fatal("expected Dial on a shut-down manager to fail")
	}
}
