// Package frontend implements the front-end TCP listener (and, as its
// child, the liveness monitor): per-connection workers speak the
// framed wire protocol, dispatching FetchActive/Announce/Pong against
// the directory actor.
package frontend

import (
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/theivess/trackerd/directory"
	"github.com/theivess/trackerd/log"
	"github.com/theivess/trackerd/status"
	"github.com/theivess/trackerd/trackererr"
	"github.com/theivess/trackerd/wire"
)

// fetchActiveReplyTimeout bounds how long a worker waits for the
// directory to answer a QueryActive before giving up on the request.
const fetchActiveReplyTimeout = 5 * time.Second

// MonitorConfig controls the liveness monitor spawned alongside the
// listener.
type MonitorConfig struct {
	SocksPort      uint16
	SweepInterval  int64 // seconds; 0 selects the default
	CooldownPeriod int64 // seconds; 0 selects the default
}

// Run binds address and accepts connections until the listener itself
// fails, at which point it reports ServerDown and returns. Each
// accepted connection is served by its own goroutine and a failure
// there never brings down the listener.
func Run(address string, dirTx chan<- directory.Request, statusTx status.Sender, mcfg MonitorConfig) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		statusTx.Send(status.Down(status.OriginServer, trackererr.New(trackererr.KindIO, err)))
		return
	}
	defer ln.Close()

	go RunMonitor(dirTx, statusTx, mcfg)

	log.Info("front-end server listening", "address", address)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			statusTx.Send(status.Down(status.OriginServer, trackererr.New(trackererr.KindIO, err)))
			return
		}
		connID := uuid.New().String()
		log.Info("accepted connection", "conn", connID, "remote", conn.RemoteAddr())
		go serveConn(conn, connID, dirTx)
	}
}

// serveConn loops reading framed requests from conn until the client
// disconnects or a frame fails to decode; only this connection's
// goroutine exits on such a failure. connID is a correlation ID for
// log lines spanning this connection's lifetime.
func serveConn(conn net.Conn, connID string, dirTx chan<- directory.Request) {
	defer conn.Close()

	counted := &countingReader{r: conn}

	for {
		msg, err := wire.ReadMessage(counted)
		if err != nil {
			log.Debug("connection closed", "conn", connID, "remote", conn.RemoteAddr(), "err", err)
			return
		}
		log.Debug("read frame", "conn", connID, "kind", msg.Kind, "bytes", counted.n)
		counted.n = 0

		switch msg.Kind {
		case wire.KindFetchActive:
			reply := make(chan []string, 1)
			if !sendRequest(dirTx, directory.QueryActive(reply)) {
				return
			}
			select {
			case addresses := <-reply:
				if err := wire.WriteMessage(conn, wire.AddressList(addresses)); err != nil {
					return
				}
			case <-time.After(fetchActiveReplyTimeout):
				// The directory never answered (it crashed mid-request);
				// exit without responding rather than hang forever.
				return
			}

		case wire.KindAnnounce:
			// Reserved: accepted but not wired to the directory. A future
			// revision may validate metadata and forward an Add.
			continue

		case wire.KindPong:
			if !sendRequest(dirTx, directory.Update(msg.Address, directory.Record{
				Address:  msg.Address,
				LastSeen: time.Now(),
				Stale:    false,
			})) {
				return
			}

		default:
			continue
		}
	}
}

// countingReader wraps a net.Conn to tally bytes pulled through
// wire.ReadMessage, so each frame's size can be logged at debug level
// without wire needing to know about logging.
type countingReader struct {
	r net.Conn
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// sendRequest delivers req to the directory queue; it returns false if
// the send panicked because the queue's channel was already closed. A
// send on a queue that is full but not closed blocks until there is
// room.
func sendRequest(dirTx chan<- directory.Request, req directory.Request) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	dirTx <- req
	return true
}
