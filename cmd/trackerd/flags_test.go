package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProxyAuth_Valid(t *testing.T) {
	user, pass, err := parseProxyAuth("alice:s3cret")
	assert.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "s3cret", pass)
}

func TestParseProxyAuth_RejectsMissingColon(t *testing.T) {
	_, _, err := parseProxyAuth("alice")
	assert.Error(t, err)
}

func TestParseProxyAuth_RejectsExtraColon(t *testing.T) {
	_, _, err := parseProxyAuth("alice:s3cret:extra")
	assert.Error(t, err)
}

func TestParseProxyAuth_DefaultValueParses(t *testing.T) {
	user, pass, err := parseProxyAuth(RPCAuthFlag.Value)
	assert.NoError(t, err)
	assert.Equal(t, "username", user)
	assert.Equal(t, "password", pass)
}
