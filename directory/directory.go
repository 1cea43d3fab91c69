// Package directory implements the single-threaded actor owning the
// onion-address -> Record map. It follows peerSet's (tos/peerset.go)
// map-of-known-endpoints shape, translated from a mutex-guarded map
// into a channel-draining actor so no state is ever shared between
// goroutines.
package directory

import (
	"time"

	"github.com/theivess/trackerd/log"
	"github.com/theivess/trackerd/status"
	"github.com/theivess/trackerd/trackererr"
)

// Record is the directory's stored value for one maker endpoint.
type Record struct {
	Address  string    // <56-char-base32>.onion:<port>, equals the map key
	LastSeen time.Time // monotonic clock reading; never persisted
	Stale    bool
}

// Entry pairs an address with its Record, returned by QueryAll.
type Entry struct {
	Address string
	Record  Record
}

// opKind discriminates the variants of Request.
type opKind int

const (
	opAdd opKind = iota
	opUpdate
	opQuery
	opQueryAll
	opQueryActive
)

// Request is the sum type carried on the directory's inbound queue.
// Construct one with Add, Update, Query, QueryAll or QueryActive;
// never build it directly.
type Request struct {
	op      opKind
	address string
	record  Record

	queryReply      chan<- *Record
	queryAllReply   chan<- []Entry
	queryActiveReply chan<- []string
}

// Add inserts or wholesale-replaces the record for address.
func Add(address string, record Record) Request {
	return Request{op: opAdd, address: address, record: record}
}

// Update is semantically identical to Add; the distinction exists only so
// upstream callers (and their logs) can say which is meant.
func Update(address string, record Record) Request {
	return Request{op: opUpdate, address: address, record: record}
}

// Query asks for a single record. reply must have capacity >= 1; the
// actor never blocks attempting to deliver onto it.
func Query(address string, reply chan<- *Record) Request {
	return Request{op: opQuery, address: address, queryReply: reply}
}

// QueryAll asks for every (address, record) pair, in unspecified order.
func QueryAll(reply chan<- []Entry) Request {
	return Request{op: opQueryAll, queryAllReply: reply}
}

// QueryActive asks for the addresses of non-stale records only.
func QueryActive(reply chan<- []string) Request {
	return Request{op: opQueryActive, queryActiveReply: reply}
}

// Run drains reqs serially until it is closed, then reports a
// directory-exited status on statusTx and returns. It has no other
// exit path.
func Run(reqs <-chan Request, statusTx status.Sender) {
	servers := make(map[string]Record)
	log.Info("directory actor started")

	for req := range reqs {
		switch req.op {
		case opAdd, opUpdate:
			servers[req.address] = req.record
			log.Debug("directory: recorded address", "address", req.address, "stale", req.record.Stale)

		case opQuery:
			rec, ok := servers[req.address]
			var out *Record
			if ok {
				cp := rec
				out = &cp
			}
			trySend(req.queryReply, out)

		case opQueryAll:
			out := make([]Entry, 0, len(servers))
			for addr, rec := range servers {
				out = append(out, Entry{Address: addr, Record: rec})
			}
			trySendAll(req.queryAllReply, out)

		case opQueryActive:
			out := make([]string, 0, len(servers))
			for addr, rec := range servers {
				if !rec.Stale {
					out = append(out, addr)
				}
			}
			trySendActive(req.queryActiveReply, out)
		}
	}

	log.Warn("directory actor exited: inbound queue closed")
	statusTx.Send(status.Down(status.OriginDirectory, trackererr.New(trackererr.KindDirectoryExited, nil)))
}

// trySend delivers to a caller-owned single-slot channel without
// blocking if the caller has already walked away; a failed delivery
// is silently dropped.
func trySend(ch chan<- *Record, v *Record) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}

func trySendAll(ch chan<- []Entry, v []Entry) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}

func trySendActive(ch chan<- []string, v []string) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}
