package transport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/isamuradli/remotedram/kverr"
	"github.com/isamuradli/remotedram/wire"
)

// fixedHeaderSize mirrors wire's unexported headerSize; frame_test.go's
// readRawFrame-then-Decode round trip fails if the two drift apart.
const fixedHeaderSize = 28
const statusFieldSize = 4

// readRawFrame reads exactly one self-delimited wire message off conn.
// Unlike the NIC-level tagged messages spec §4.A assumes, TCP gives us a
// continuous byte stream with no intrinsic record boundaries, so the
// wire header's own key_length/value_length fields are used to compute
// how many further bytes belong to this message (no separate
// length-prefix framing layer is needed on top of wire's header).
//
// A bad magic is treated as fatal for the connection: once the first
// four bytes don't match, there is no reliable way to know how many
// bytes to skip to resynchronize the stream, so the caller should close
// the connection. An oversized message is drained and reported back to
// the caller as a plain (non-fatal) error. Other malformations (bad
// type, checksum mismatch) are not checked here: the frame is returned
// as-is and the caller's codec.Decode reports them. Either way the
// bytes are fully consumed from the stream — the connection remains
// usable and the caller can simply post a fresh read, matching spec
// §4.A's error policy.
//
// The returned buf is drawn from pool (the pre-posted-receive-buffer
// pool, the TCP-substrate analogue of the fixed pool of buffers spec
// §4.A/§4.D describe); callers must return it via releaseFrame once
// they're done decoding it.
func readRawFrame(conn net.Conn, codec wire.Codec, pool *sync.Pool) (buf []byte, fatal bool, err error) {
	var hdr [fixedHeaderSize]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return nil, true, err
	}

	magic := binary.LittleEndian.Uint32(hdr[0:4])
	if magic != wire.Magic {
		return nil, true, kverr.New(kverr.Internal, "bad magic 0x%08x, connection desynchronized", magic)
	}

	typ := wire.Type(binary.LittleEndian.Uint32(hdr[4:8]))
	keyLen := binary.LittleEndian.Uint32(hdr[8:12])
	valueLen := binary.LittleEndian.Uint32(hdr[12:16])

	rest := int(keyLen) + int(valueLen)
	if wire.IsResponse(typ) {
		rest += statusFieldSize
	}

	total := fixedHeaderSize + rest
	if total > codec.MaxSize() {
		// The length fields are still trustworthy (they came from a
		// correctly magic-tagged header), so we can safely drain and
		// discard the declared payload to keep the stream in sync.
		if _, derr := io.CopyN(io.Discard, conn, int64(rest)); derr != nil {
			return nil, true, derr
		}
		return nil, false, kverr.New(kverr.Internal, "message size %d exceeds max %d", total, codec.MaxSize())
	}

	raw := pool.Get().([]byte)
	if cap(raw) < total {
		raw = make([]byte, total)
	}
	buf = raw[:total]
	copy(buf[:fixedHeaderSize], hdr[:])
	if _, err := io.ReadFull(conn, buf[fixedHeaderSize:]); err != nil {
		pool.Put(raw[:cap(raw)])
		return nil, true, err
	}

	return buf, false, nil
}

// releaseFrame returns a buffer obtained from readRawFrame to pool.
// Safe to call as soon as codec.Decode has copied out the key/value it
// needs, since Decode never retains a slice into buf itself.
func releaseFrame(pool *sync.Pool, buf []byte) {
	pool.Put(buf[:cap(buf)])
}

// writeMessage encodes m and writes it to conn in one call. Ownership
// of the encoded buffer stays with this function: by the time it
// returns, the buffer has either been fully handed to the kernel or
// discarded on error, matching spec §3's send-buffer lifecycle ("freed
// after the send-completion callback runs").
func writeMessage(conn net.Conn, codec wire.Codec, m wire.Message) error {
	buf, err := codec.Encode(m)
	if err != nil {
		return err
	}
	_, err = conn.Write(buf)
	return err
}
