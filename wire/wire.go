// Package wire implements the on-the-wire framing for the remote_dram
// protocol: the fixed header, the four message variants, the checksum
// rule, and the tag/mask constants used to route responses to the right
// in-flight request.
//
// The transport (see package transport) delivers discrete, length
// delimited byte slices; wire adds record structure on top of that.
package wire

import (
	"encoding/binary"

	"github.com/isamuradli/remotedram/kverr"
)

// Magic is the constant sentinel every well-formed message begins with.
const Magic uint32 = 0x44524D31 // "DRM1"

// Type identifies one of the four message variants.
type Type uint32

const (
	TypeWriteRequest  Type = 0x1000
	TypeWriteResponse Type = 0x1001
	TypeReadRequest   Type = 0x2000
	TypeReadResponse  Type = 0x2001

	// TagMask restricts tag matching to the upper nibble, per spec §6.
	TagMask uint32 = 0xF000
)

// MatchesTag reports whether got and want fall in the same tag class
// under TagMask, mirroring the transport-level tag/mask matching the
// spec describes for a tagged-messaging NIC.
func MatchesTag(got, want Type) bool {
	return uint32(got)&TagMask == uint32(want)&TagMask
}

// IsKnownType reports whether t is one of the four known variants.
func IsKnownType(t Type) bool {
	switch t {
	case TypeWriteRequest, TypeWriteResponse, TypeReadRequest, TypeReadResponse:
		return true
	default:
		return false
	}
}

// IsResponse reports whether t is a response variant (carries a
// status_code field after the header).
func IsResponse(t Type) bool {
	return t == TypeWriteResponse || t == TypeReadResponse
}

// headerSize is the width of the fixed header: magic, type, key_length,
// value_length, request_id, checksum.
const headerSize = 4 + 4 + 4 + 4 + 8 + 4 // 28 bytes

// statusSize is the width of the status_code field appended to response
// variants, immediately after the header.
const statusSize = 4

// DefaultMaxMessageSize is the 64 KiB cap from spec §3 ("maximum on-wire
// payload 64 KiB ... in the current contract").
const DefaultMaxMessageSize = 64 * 1024

// Status codes carried in status_code for response variants.
const (
	StatusOK      uint32 = 0
	StatusMissing uint32 = 1
)

// Header is the fixed prefix every message begins with (spec §3).
type Header struct {
	Magic       uint32
	Type        Type
	KeyLength   uint32
	ValueLength uint32
	RequestID   uint64
	Checksum    uint32
}

// Message is a decoded wire message: header plus the variant-specific
// status_code (zero for requests) and the key/value payload.
type Message struct {
	Header     Header
	StatusCode uint32 // only meaningful when Header.Type IsResponse
	Key        []byte
	Value      []byte
}

// Checksum computes the spec's rolling bit-mix checksum over key||value.
// A result of 0 is a legal checksum value and is interpreted by readers
// as "not checked" (spec §3) — callers that need an enforced checksum
// on an empty payload are out of luck by design, matching the source
// contract.
func Checksum(key, value []byte) uint32 {
	var c uint32
	for _, b := range key {
		c = (c << 1) ^ uint32(b)
	}
	for _, b := range value {
		c = (c << 1) ^ uint32(b)
	}
	return c
}

// Codec encodes and decodes wire messages, enforcing a configurable
// maximum message size (spec §9 open question 5: "make it a
// configurable parameter").
type Codec struct {
	// MaxMessageSize caps header+key+value (and, for responses,
	// +status_code). Zero means DefaultMaxMessageSize.
	MaxMessageSize int
}

func (c Codec) maxSize() int {
	return c.MaxSize()
}

// MaxSize returns the effective maximum message size for this codec,
// substituting DefaultMaxMessageSize when unset.
func (c Codec) MaxSize() int {
	if c.MaxMessageSize <= 0 {
		return DefaultMaxMessageSize
	}
	return c.MaxMessageSize
}

// Encode builds the full wire buffer for m in one allocation: header,
// then (for responses) status_code, then key bytes, then value bytes.
func (c Codec) Encode(m Message) ([]byte, error) {
	total := headerSize + len(m.Key) + len(m.Value)
	if IsResponse(m.Header.Type) {
		total += statusSize
	}
	if total > c.maxSize() {
		return nil, kverr.New(kverr.Internal, "encoded message size %d exceeds max %d", total, c.maxSize())
	}

	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.Header.Type))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(m.Key)))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(m.Value)))
	binary.LittleEndian.PutUint64(buf[16:24], m.Header.RequestID)
	binary.LittleEndian.PutUint32(buf[24:28], Checksum(m.Key, m.Value))

	pos := headerSize
	if IsResponse(m.Header.Type) {
		binary.LittleEndian.PutUint32(buf[pos:pos+statusSize], m.StatusCode)
		pos += statusSize
	}
	copy(buf[pos:pos+len(m.Key)], m.Key)
	pos += len(m.Key)
	copy(buf[pos:pos+len(m.Value)], m.Value)

	return buf, nil
}

// Decode parses buf into a Message. A message is well-formed iff:
// received length >= header size, magic matches, type is one of the
// four known variants, and received length >= header size + key_length
// + value_length (+ status_code for responses). If checksum != 0 it
// must equal the computed payload checksum. Malformed input returns a
// non-nil error; callers (server/client) are expected to drop the
// message and keep the connection alive, per spec §4.A's error policy.
func (c Codec) Decode(buf []byte) (Message, error) {
	var m Message

	if len(buf) < headerSize {
		return m, kverr.New(kverr.Internal, "message too short for header: %d bytes", len(buf))
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != Magic {
		return m, kverr.New(kverr.Internal, "bad magic: 0x%08x", magic)
	}

	typ := Type(binary.LittleEndian.Uint32(buf[4:8]))
	if !IsKnownType(typ) {
		return m, kverr.New(kverr.Internal, "unknown message type: 0x%08x", uint32(typ))
	}

	keyLen := binary.LittleEndian.Uint32(buf[8:12])
	valueLen := binary.LittleEndian.Uint32(buf[12:16])
	reqID := binary.LittleEndian.Uint64(buf[16:24])
	checksum := binary.LittleEndian.Uint32(buf[24:28])

	pos := headerSize
	var statusCode uint32
	if IsResponse(typ) {
		if len(buf) < pos+statusSize {
			return m, kverr.New(kverr.Internal, "message too short for status_code")
		}
		statusCode = binary.LittleEndian.Uint32(buf[pos : pos+statusSize])
		pos += statusSize
	}

	need := pos + int(keyLen) + int(valueLen)
	if need > c.maxSize() {
		return m, kverr.New(kverr.Internal, "message size %d exceeds max %d", need, c.maxSize())
	}
	if len(buf) < need {
		return m, kverr.New(kverr.Internal, "message truncated: need %d have %d", need, len(buf))
	}

	key := append([]byte(nil), buf[pos:pos+int(keyLen)]...)
	pos += int(keyLen)
	value := append([]byte(nil), buf[pos:pos+int(valueLen)]...)

	if checksum != 0 {
		if got := Checksum(key, value); got != checksum {
			return m, kverr.New(kverr.Internal, "checksum mismatch: header=0x%08x computed=0x%08x", checksum, got)
		}
	}

	m.Header = Header{
		Magic:       magic,
		Type:        typ,
		KeyLength:   keyLen,
		ValueLength: valueLen,
		RequestID:   reqID,
		Checksum:    checksum,
	}
	m.StatusCode = statusCode
	m.Key = key
	m.Value = value
	return m, nil
}
