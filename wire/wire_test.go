package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func roundTrip(t *testing.T, msg Message) Message {
	var buf bytes.Buffer
	assert.NoError(t, WriteMessage(&buf, msg))
	got, err := ReadMessage(&buf)
	assert.NoError(t, err)
	return got
}

func TestRoundTrip_Announce(t *testing.T) {
	got := roundTrip(t, Announce([]byte{1, 2, 3}))
	assert.Equal(t, KindAnnounce, got.Kind)
	assert.Equal(t, []byte{1, 2, 3}, got.Metadata)
}

func TestRoundTrip_FetchActive(t *testing.T) {
	got := roundTrip(t, FetchActive())
	assert.Equal(t, KindFetchActive, got.Kind)
}

func TestRoundTrip_Ping(t *testing.T) {
	got := roundTrip(t, Ping())
	assert.Equal(t, KindPing, got.Kind)
}

func TestRoundTrip_Pong(t *testing.T) {
	got := roundTrip(t, Pong("abc.onion:80"))
	assert.Equal(t, KindPong, got.Kind)
	assert.Equal(t, "abc.onion:80", got.Address)
}

func TestRoundTrip_AddressList(t *testing.T) {
	got := roundTrip(t, AddressList([]string{"a.onion:1", "b.onion:2"}))
	assert.Equal(t, KindAddressList, got.Kind)
	assert.Equal(t, []string{"a.onion:1", "b.onion:2"}, got.Addresses)
}

func TestReadMessage_RejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	_, err := ReadMessage(&buf)
	assert.Error(t, err)
}

func TestWriteMessage_PrefixIsPayloadLength(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteMessage(&buf, Ping()))

	length := uint32(buf.Bytes()[0])<<24 | uint32(buf.Bytes()[1])<<16 | uint32(buf.Bytes()[2])<<8 | uint32(buf.Bytes()[3])
	assert.Equal(t, buf.Len()-4, int(length))
}
