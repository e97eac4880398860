package server

import (
	"net"
	"testing"

	"github.com/isamuradli/remotedram/storage"
	"github.com/isamuradli/remotedram/transport"
	"github.com/isamuradli/remotedram/wire"
)

// fakeConn is a minimal net.Conn that records what was written to it,
// enough for exercising Server.handle without a real socket.
type fakeConn struct {
	net.Conn
	written [][]byte
}

func (f *fakeConn) Write(b []byte) (int, error) {
	cp := append([]byte(nil), b...)
	f.written = append(f.written, cp)
	return len(b), nil
}

func (f *fakeConn) Close() error { return nil }

func newServerForTest() (*Server, *storage.Map) {
	mgr := transport.NewManager(nil, wire.Codec{})
	store := storage.NewMap()
	return New(mgr, store), store
}

func decodeLast(t *testing.T, conn *fakeConn) wire.Message {
	t.Helper()
	if len(conn.written) == 0 {
		t.Fatal("no response written")
	}
	msg, err := wire.Codec{}.Decode(conn.written[len(conn.written)-1])
	if err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return msg
}

func TestHandleWriteStoresAndAcks(t *testing.T) {
	s, store := newServerForTest()
	conn := &fakeConn{}

	req := wire.Message{Header: wire.Header{
		Magic: wire.Magic, Type: wire.TypeWriteRequest, RequestID: 7,
	}, Key: []byte("a"), Value: []byte("1")}

	s.handle(conn, req)

	value, ok := store.Get("a")
	if !ok || string(value) != "1" {
		t.Fatalf("store.Get(a) = %q, %v, want 1, true", value, ok)
	}

	resp := decodeLast(t, conn)
	if resp.Header.Type != wire.TypeWriteResponse {
		t.Fatalf("response type = 0x%x, want write response", uint32(resp.Header.Type))
	}
	if resp.StatusCode != wire.StatusOK {
		t.Fatalf("response status = %d, want OK", resp.StatusCode)
	}
	if resp.Header.RequestID != 7 {
		t.Fatalf("response request id = %d, want 7", resp.Header.RequestID)
	}
}

func TestHandleReadFound(t *testing.T) {
	s, store := newServerForTest()
	store.Store("a", []byte("1"))
	conn := &fakeConn{}

	req := wire.Message{Header: wire.Header{
		Magic: wire.Magic, Type: wire.TypeReadRequest, RequestID: 9,
	}, Key: []byte("a")}

	s.handle(conn, req)

	resp := decodeLast(t, conn)
	if resp.StatusCode != wire.StatusOK {
		t.Fatalf("response status = %d, want OK", resp.StatusCode)
	}
	if string(resp.Value) != "1" {
		t.Fatalf("response value = %q, want 1", resp.Value)
	}
}

func TestHandleReadMissing(t *testing.T) {
	s, _ := newServerForTest()
	conn := &fakeConn{}

	req := wire.Message{Header: wire.Header{
		Magic: wire.Magic, Type: wire.TypeReadRequest, RequestID: 3,
	}, Key: []byte("missing")}

	s.handle(conn, req)

	resp := decodeLast(t, conn)
	if resp.StatusCode != wire.StatusMissing {
		t.Fatalf("response status = %d, want Missing", resp.StatusCode)
	}
	if len(resp.Value) != 0 {
		t.Fatalf("response value = %q, want empty", resp.Value)
	}
}

func TestHandleDropsResponseShapedMessage(t *testing.T) {
	s, _ := newServerForTest()
	conn := &fakeConn{}

	req := wire.Message{Header: wire.Header{
		Magic: wire.Magic, Type: wire.TypeWriteResponse, RequestID: 1,
	}}

	s.handle(conn, req)

	if len(conn.written) != 0 {
		t.Fatalf("got %d responses, want 0 for a response-shaped inbound message", len(conn.written))
	}
}

func TestHandlerDispatchesThroughTransportShape(t *testing.T) {
	s, _ := newServerForTest()
	var h transport.ServerHandler = s.Handler()
	conn := &fakeConn{}
	h(conn, wire.Message{Header: wire.Header{
		Magic: wire.Magic, Type: wire.TypeWriteRequest, RequestID: 1,
	}, Key: []byte("k"), Value: []byte("v")})

	if len(conn.written) != 1 {
		t.Fatalf("got %d responses, want 1", len(conn.written))
	}
}
