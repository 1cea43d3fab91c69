// Package indexer implements the chain-scanning actor: every ten seconds
// it asks the chain oracle for the current tip, walks every block height
// it hasn't scanned yet, and looks for OP_RETURN announcements in each
// transaction's outputs. A transaction only carries an announcement when
// its locktime is nonzero and it has exactly two outputs, the heuristics
// used to tell a maker's announcement transaction apart from ordinary
// chain traffic.
package indexer

import (
	"time"

	"github.com/btcsuite/btcd/wire"

	"github.com/theivess/trackerd/chainrpc"
	"github.com/theivess/trackerd/directory"
	"github.com/theivess/trackerd/log"
	"github.com/theivess/trackerd/status"
	"github.com/theivess/trackerd/trackererr"
)

// pollInterval is the cadence between tip-height checks.
const pollInterval = 10 * time.Second

// Run scans the chain from height 0 onward, emitting directory.Add
// requests for every onion announcement it finds. A freshly (re)spawned
// Run always starts at height 0: scan progress is kept only in a local
// variable, never persisted, so a crash-and-restart simply rescans.
func Run(oracle chainrpc.Oracle, dirTx chan<- directory.Request, statusTx status.Sender) {
	log.Info("indexer actor started")

	var lastTip int64
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		tip, err := oracle.TipHeight()
		if !report(statusTx, trackererr.KindOracle, err) {
			return
		}

		for height := lastTip; height < tip; height++ {
			if !scanHeight(oracle, dirTx, statusTx, height) {
				return
			}
		}
		lastTip = tip
	}
}

// scanHeight fetches and scans one block. It returns false if the actor
// should exit.
func scanHeight(oracle chainrpc.Oracle, dirTx chan<- directory.Request, statusTx status.Sender, height int64) bool {
	hash, err := oracle.BlockHash(height)
	if !report(statusTx, trackererr.KindOracle, err) {
		return false
	}

	block, err := oracle.Block(hash)
	if !report(statusTx, trackererr.KindOracle, err) {
		return false
	}

	for _, tx := range block.Transactions {
		if !isAnnouncementCandidate(tx) {
			continue
		}
		address, ok := findOnionAddress(tx)
		if !ok {
			continue
		}

		log.Info("new address found", "address", address, "height", height)
		req := directory.Add(address, directory.Record{
			Address:  address,
			LastSeen: time.Now(),
			Stale:    false,
		})

		if !trySendRequest(dirTx, req, statusTx) {
			return false
		}
	}
	return true
}

// isAnnouncementCandidate rules out a transaction before its scripts are
// even inspected: a zero locktime or anything other than exactly two
// outputs means it is not an announcement.
func isAnnouncementCandidate(tx *wire.MsgTx) bool {
	if tx.LockTime == 0 {
		return false
	}
	return len(tx.TxOut) == 2
}

// findOnionAddress returns the first output whose script decodes as an
// onion announcement.
func findOnionAddress(tx *wire.MsgTx) (string, bool) {
	for _, out := range tx.TxOut {
		if address, ok := extractOnionPayload(out.PkScript); ok {
			return address, true
		}
	}
	return "", false
}

// trySendRequest delivers req to the directory actor's inbound queue,
// reporting and returning false if the queue has already been
// abandoned (the directory actor exited).
func trySendRequest(dirTx chan<- directory.Request, req directory.Request, statusTx status.Sender) bool {
	defer func() {
		if r := recover(); r != nil {
			statusTx.Send(status.Down(status.OriginIndexer, trackererr.New(trackererr.KindSend, nil)))
		}
	}()
	dirTx <- req
	return true
}

// report classifies err against the shared error policy: nil is a no-op
// (continue scanning), a parsing-class error is swallowed after logging,
// and anything else is reported as a fatal exit. It returns false when
// the caller should stop running.
func report(statusTx status.Sender, kind trackererr.Kind, err error) bool {
	if err == nil {
		return true
	}
	te := trackererr.New(kind, err)
	if trackererr.Policy(kind) == trackererr.Continue {
		log.Warn("indexer: recoverable error", "err", te)
		return true
	}
	log.Error("indexer actor exiting", "err", te)
	statusTx.Send(status.Down(status.OriginIndexer, te))
	return false
}
