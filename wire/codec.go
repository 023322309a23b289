// Package wire implements the bit-exact binary wire format of the
// membership protocol: a one-byte header tag followed by zero or more
// fixed-size entry records. It has no knowledge of membership tables,
// timers, or merge rules — it only turns bytes into Messages and back.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Type tags the three message kinds. Concrete numeric values must be
// stable across every node in a cluster.
type Type byte

const (
	JoinReq Type = 0
	JoinRep Type = 1
	Ping    Type = 2
)

func (t Type) String() string {
	switch t {
	case JoinReq:
		return "JOINREQ"
	case JoinRep:
		return "JOINREP"
	case Ping:
		return "PING"
	default:
		return fmt.Sprintf("Type(%d)", byte(t))
	}
}

// headerSize is sizeof(Header) — one byte. The original wire format's
// Header is a struct whose only member is the tag; widening it would only
// add padding between the header and the payload, so a single byte is
// layout-equivalent and is what this implementation emits.
const headerSize = 1

// entrySize is the fixed size of one EntryRecord on the wire: 6 bytes of
// address, 1 padding byte, 8 bytes of little-endian heartbeat. The padding
// byte is not decorative — omitting it breaks interoperability with any
// peer that emits it, so it is written as a zero byte and ignored on read.
const entrySize = 6 + 1 + 8

// EntryRecord is one (address, heartbeat) pair as it appears on the wire.
// It carries no timestamp — timestamps are a purely local notion assigned
// by the receiving node's clock when the entry is merged into a table.
type EntryRecord struct {
	ID        uint32
	Port      uint16
	Heartbeat int64
}

// Message is a decoded protocol message: a type tag plus its entry
// records. JOINREQ and JOINREP always carry exactly one entry; PING
// carries zero or more.
type Message struct {
	Type    Type
	Entries []EntryRecord
}

// EncodeError is returned by Encode when a caller-supplied message is
// structurally invalid for its type (e.g. a JOINREQ with no entry).
type EncodeError struct {
	Reason string
}

func (e *EncodeError) Error() string { return "wire: encode: " + e.Reason }

// DecodeError is returned by Decode for a payload that is not shaped like
// a valid message of its declared type, or whose type tag is unrecognized.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "wire: decode: " + e.Reason }

// Truncated reports whether this error was caused by a payload length that
// is not a valid multiple (PING) or exact match (JOINREQ/JOINREP) of
// entrySize.
func (e *DecodeError) Truncated() bool { return e.Reason == truncatedReason }

// UnknownType reports whether this error was caused by an unrecognized
// type tag.
func (e *DecodeError) UnknownType() bool { return e.Reason == unknownTypeReason }

const (
	truncatedReason   = "truncated payload"
	unknownTypeReason = "unknown message type"
)

// EncodeEntry writes one 15-byte entry record to dst, which must be at
// least entrySize bytes long.
func EncodeEntry(dst []byte, e EntryRecord) {
	_ = dst[entrySize-1] // bounds check hint
	binary.LittleEndian.PutUint32(dst[0:4], e.ID)
	binary.LittleEndian.PutUint16(dst[4:6], e.Port)
	dst[6] = 0 // padding byte, preserved byte-identically across peers
	binary.LittleEndian.PutUint64(dst[7:15], uint64(e.Heartbeat))
}

// DecodeEntry reads one 15-byte entry record from src, which must be at
// least entrySize bytes long. The padding byte at src[6] is ignored.
func DecodeEntry(src []byte) EntryRecord {
	return EntryRecord{
		ID:        binary.LittleEndian.Uint32(src[0:4]),
		Port:      binary.LittleEndian.Uint16(src[4:6]),
		Heartbeat: int64(binary.LittleEndian.Uint64(src[7:15])),
	}
}

// Encode serializes a Message to its wire form. JOINREQ/JOINREP must carry
// exactly one entry.
func Encode(m Message) ([]byte, error) {
	switch m.Type {
	case JoinReq, JoinRep:
		if len(m.Entries) != 1 {
			return nil, &EncodeError{Reason: fmt.Sprintf("%s requires exactly one entry, got %d", m.Type, len(m.Entries))}
		}
	case Ping:
		// zero or more entries, nothing to validate
	default:
		return nil, &EncodeError{Reason: fmt.Sprintf("unknown message type %d", byte(m.Type))}
	}

	buf := make([]byte, headerSize+len(m.Entries)*entrySize)
	buf[0] = byte(m.Type)
	off := headerSize
	for _, e := range m.Entries {
		EncodeEntry(buf[off:off+entrySize], e)
		off += entrySize
	}
	return buf, nil
}

// Decode parses a wire message. The payload length must be exactly
// entrySize for JOINREQ/JOINREP, or a multiple of entrySize (possibly
// zero) for PING; any other length yields a Truncated DecodeError. An
// unrecognized header tag yields an UnknownType DecodeError.
func Decode(b []byte) (Message, error) {
	if len(b) < headerSize {
		return Message{}, &DecodeError{Reason: truncatedReason}
	}

	typ := Type(b[0])
	payload := b[headerSize:]

	switch typ {
	case JoinReq, JoinRep:
		if len(payload) != entrySize {
			return Message{}, &DecodeError{Reason: truncatedReason}
		}
		return Message{Type: typ, Entries: []EntryRecord{DecodeEntry(payload)}}, nil

	case Ping:
		if len(payload)%entrySize != 0 {
			return Message{}, &DecodeError{Reason: truncatedReason}
		}
		n := len(payload) / entrySize
		entries := make([]EntryRecord, n)
		for i := 0; i < n; i++ {
			entries[i] = DecodeEntry(payload[i*entrySize : (i+1)*entrySize])
		}
		return Message{Type: typ, Entries: entries}, nil

	default:
		return Message{}, &DecodeError{Reason: unknownTypeReason}
	}
}
