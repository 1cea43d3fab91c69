package trackererr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {
	assert.Equal(t, Continue, Policy(KindParsing))
	assert.Equal(t, Break, Policy(KindOracle))
	assert.Equal(t, Break, Policy(KindIO))
	assert.Equal(t, Break, Policy(KindGeneral))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(KindIO, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestErrorWithoutCause(t *testing.T) {
	err := New(KindShutdown, nil)
	assert.Equal(t, "Shutdown", err.Error())
}
