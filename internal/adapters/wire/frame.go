/*
 * file: frame.go
 * package: wire
 * description:
 *     Fixed-header length-prefixed frame codec. Every request, reply, and
 *     notification that crosses a connection is one Header plus a byte
 *     payload whose length the header carries.
 */

package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/juan10024/jeux-server/internal/apperr"
)

// HeaderSize is the fixed on-wire size of a Header, in bytes.
const HeaderSize = 16

// MaxPayloadSize is the largest payload a single frame may carry; it is
// bounded by the 2-byte size field.
const MaxPayloadSize = 1<<16 - 1

// Type identifies the kind of a frame.
type Type byte

const (
	TypeLogin Type = iota + 1
	TypeUsers
	TypeInvite
	TypeRevoke
	TypeDecline
	TypeAccept
	TypeMove
	TypeResign

	TypeAck
	TypeNack

	TypeInvited
	TypeRevoked
	TypeDeclined
	TypeAccepted
	TypeMoved
	TypeResigned
	TypeEnded
)

func (t Type) String() string {
	names := map[Type]string{
		TypeLogin: "LOGIN", TypeUsers: "USERS", TypeInvite: "INVITE",
		TypeRevoke: "REVOKE", TypeDecline: "DECLINE", TypeAccept: "ACCEPT",
		TypeMove: "MOVE", TypeResign: "RESIGN",
		TypeAck: "ACK", TypeNack: "NACK",
		TypeInvited: "INVITED", TypeRevoked: "REVOKED", TypeDeclined: "DECLINED",
		TypeAccepted: "ACCEPTED", TypeMoved: "MOVED", TypeResigned: "RESIGNED",
		TypeEnded: "ENDED",
	}
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Frame is a fully assembled header+payload pair ready to be handed to a
// connection's outbound channel.
type Frame struct {
	Header  Header
	Payload []byte
}

// Header is the fixed 16-byte frame preamble. TimestampSec/TimestampNsec
// are filled by the sender and are opaque to the receiver.
type Header struct {
	Type           Type
	ID             byte
	Role           byte
	Size           uint16
	TimestampSec   uint32
	TimestampNsec  uint32
}

func (h Header) encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	buf[0] = byte(h.Type)
	buf[1] = h.ID
	buf[2] = h.Role
	binary.BigEndian.PutUint16(buf[3:5], h.Size)
	binary.BigEndian.PutUint32(buf[5:9], h.TimestampSec)
	binary.BigEndian.PutUint32(buf[9:13], h.TimestampNsec)
	return buf
}

func decodeHeader(buf [HeaderSize]byte) Header {
	return Header{
		Type:          Type(buf[0]),
		ID:            buf[1],
		Role:          buf[2],
		Size:          binary.BigEndian.Uint16(buf[3:5]),
		TimestampSec:  binary.BigEndian.Uint32(buf[5:9]),
		TimestampNsec: binary.BigEndian.Uint32(buf[9:13]),
	}
}

// WriteFrame encodes header and payload to w. The encoded Size is always
// len(payload); whatever Header.Size the caller passed is ignored.
func WriteFrame(w io.Writer, h Header, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return apperr.New("wire.WriteFrame", apperr.IO)
	}
	h.Size = uint16(len(payload))
	buf := h.encode()
	if _, err := w.Write(buf[:]); err != nil {
		return apperr.Wrap("wire.WriteFrame", apperr.IO, err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return apperr.Wrap("wire.WriteFrame", apperr.IO, err)
		}
	}
	return nil
}

// ReadFrame reads one frame from r. The returned payload carries one
// extra trailing NUL byte beyond Size so callers may treat it as a C
// string when semantics allow; len(payload) == int(header.Size)+1.
//
// io.EOF is returned unmodified when the stream ends cleanly before any
// byte of a new header has been read. Any other short read is reported
// as an apperr.IO error.
func ReadFrame(r *bufio.Reader) (Header, []byte, error) {
	var hbuf [HeaderSize]byte
	n, err := io.ReadFull(r, hbuf[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return Header{}, nil, io.EOF
		}
		return Header{}, nil, apperr.Wrap("wire.ReadFrame", apperr.IO, err)
	}
	h := decodeHeader(hbuf)

	payload := make([]byte, int(h.Size)+1)
	if h.Size > 0 {
		if _, err := io.ReadFull(r, payload[:h.Size]); err != nil {
			return Header{}, nil, apperr.Wrap("wire.ReadFrame", apperr.IO, err)
		}
	}
	return h, payload, nil
}
