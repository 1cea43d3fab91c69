// Package wire implements the front-end socket's framing and the
// Message sum type: a big-endian u32 length prefix followed by a
// CBOR-encoded message, protocol version v0, no version byte. A
// single codec serves both the front-end server and the liveness
// monitor's probe client. ReadMessage reads the full declared length
// into buf[0:length]; it never re-skips the 4-byte prefix a second
// time, which would read one frame short.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// MaxMessageLen bounds the declared length of an incoming frame. A client
// that declares more is misbehaving or attacking and its connection is
// closed.
const MaxMessageLen = 64 * 1024

// Kind discriminates the variants of Message.
type Kind uint8

const (
	KindAnnounce Kind = iota
	KindFetchActive
	KindPing
	KindPong
	KindAddressList
)

func (k Kind) String() string {
	switch k {
	case KindAnnounce:
		return "Announce"
	case KindFetchActive:
		return "FetchActive"
	case KindPing:
		return "Ping"
	case KindPong:
		return "Pong"
	case KindAddressList:
		return "AddressList"
	default:
		return "Unknown"
	}
}

// Message is the tagged union exchanged on the front-end socket.
type Message struct {
	Kind      Kind     `cbor:"1,keyasint"`
	Metadata  []byte   `cbor:"2,keyasint,omitempty"`  // Announce
	Address   string   `cbor:"3,keyasint,omitempty"`  // Pong
	Addresses []string `cbor:"4,keyasint,omitempty"`  // AddressList
}

func Announce(metadata []byte) Message { return Message{Kind: KindAnnounce, Metadata: metadata} }
func FetchActive() Message              { return Message{Kind: KindFetchActive} }
func Ping() Message                     { return Message{Kind: KindPing} }
func Pong(address string) Message       { return Message{Kind: KindPong, Address: address} }
func AddressList(addresses []string) Message {
	return Message{Kind: KindAddressList, Addresses: addresses}
}

// ReadMessage reads one framed message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Message{}, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxMessageLen {
		return Message{}, fmt.Errorf("wire: declared length %d exceeds ceiling %d", length, MaxMessageLen)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Message{}, err
	}

	var msg Message
	if err := cbor.Unmarshal(buf, &msg); err != nil {
		return Message{}, fmt.Errorf("wire: decode: %w", err)
	}
	return msg, nil
}

// WriteMessage writes one framed message to w.
func WriteMessage(w io.Writer, msg Message) error {
	body, err := cbor.Marshal(msg)
	if err != nil {
		return fmt.Errorf("wire: encode: %w", err)
	}
	if len(body) > MaxMessageLen {
		return fmt.Errorf("wire: encoded length %d exceeds ceiling %d", len(body), MaxMessageLen)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))

	full := make([]byte, 0, 4+len(body))
	full = append(full, lenBuf[:]...)
	full = append(full, body...)

	_, err = w.Write(full)
	return err
}
