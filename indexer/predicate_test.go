package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func onionScript(payload []byte) []byte {
	script := []byte{0x6a}
	switch {
	case len(payload) <= 0x4b:
		script = append(script, byte(len(payload)))
	case len(payload) <= 0xff:
		script = append(script, 0x4c, byte(len(payload)))
	default:
		script = append(script, 0x4d, byte(len(payload)), byte(len(payload)>>8))
	}
	return append(script, payload...)
}

func TestExtractOnionPayload_Accepted(t *testing.T) {
	addr := "abcdefghijklmnopqrstuvwxyz234567abcdefghijklmnopqrstuvwxyz.onion:8080"
	got, ok := extractOnionPayload(onionScript([]byte(addr)))
	assert.True(t, ok)
	assert.Equal(t, addr, got)
}

func TestExtractOnionPayload_NotOpReturn(t *testing.T) {
	_, ok := extractOnionPayload([]byte{0x76, 0xa9})
	assert.False(t, ok)
}

func TestExtractOnionPayload_EmptyScript(t *testing.T) {
	_, ok := extractOnionPayload(nil)
	assert.False(t, ok)
}

func TestExtractOnionPayload_MaxDirectPush(t *testing.T) {
	payload := make([]byte, 0x4b)
	copy(payload, "x.onion:1")
	for i := len("x.onion:1"); i < len(payload); i++ {
		payload[i] = 'a'
	}
	_, ok := extractOnionPayload(onionScript(payload))
	// 75 bytes of garbage won't validate as an onion address, but the
	// framing itself (the 0x4b direct-push prefix) must be accepted and
	// parsed without error before validation rejects it.
	assert.False(t, ok)
}

func TestExtractOnionPayload_ZeroLengthOneByte(t *testing.T) {
	script := []byte{0x6a, 0x4c, 0x00}
	_, ok := extractOnionPayload(script)
	assert.False(t, ok)
}

func TestExtractOnionPayload_TruncatedScript(t *testing.T) {
	script := []byte{0x6a, 0x10, 0x01, 0x02}
	_, ok := extractOnionPayload(script)
	assert.False(t, ok)
}

func TestIsValidOnionAddress(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"foo.onion:1", true},
		{"foo.onion:65535", true},
		{"foo.onion:0", false},
		{"foo.onion:65536", false},
		{"foo.onion:abc", false},
		{"foo.com:80", false},
		{"foo.onion", false},
		{"foo.onion:1:2", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, isValidOnionAddress(c.in), c.in)
	}
}
