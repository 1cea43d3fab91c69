package frontend

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/theivess/trackerd/directory"
	"github.com/theivess/trackerd/status"
	"github.com/theivess/trackerd/wire"
)

func TestExchangePing_Success(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		msg, err := wire.ReadMessage(serverConn)
		if err != nil {
			return
		}
		if msg.Kind == wire.KindPing {
			wire.WriteMessage(serverConn, wire.Pong("a.onion:80"))
		}
	}()

	assert.True(t, exchangePing(clientConn, "a.onion:80"))
}

func TestExchangePing_WrongAddress(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		if _, err := wire.ReadMessage(serverConn); err != nil {
			return
		}
		wire.WriteMessage(serverConn, wire.Pong("b.onion:80"))
	}()

	assert.False(t, exchangePing(clientConn, "a.onion:80"))
}

func TestExchangePing_ConnectionClosed(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	serverConn.Close()

	assert.False(t, exchangePing(clientConn, "a.onion:80"))
}

func TestSweep_SkipsEntriesInsideCooldown(t *testing.T) {
	dirTx := make(chan directory.Request, 10)
	statusCh := make(chan status.Message, 1)
	go directory.Run(dirTx, status.ChanSender(statusCh))
	dirTx <- directory.Add("a.onion:80", directory.Record{Address: "a.onion:80", LastSeen: time.Now()})

	// A cooldown this long guarantees the just-added record never
	// becomes eligible for a probe, so sweep must return without
	// dialing anything.
	done := make(chan struct{})
	go func() {
		sweep(dirTx, 0, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not return for an all-fresh snapshot")
	}
}
