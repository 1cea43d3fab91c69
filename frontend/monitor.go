package frontend

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"

	"github.com/theivess/trackerd/directory"
	"github.com/theivess/trackerd/log"
	"github.com/theivess/trackerd/status"
	"github.com/theivess/trackerd/wire"
)

const (
	defaultSweepInterval  = 1000 * time.Second
	defaultCooldownPeriod = 5 * time.Minute
	probeRetries          = 3
	probeRetryPause       = 1 * time.Second
)

// RunMonitor periodically sweeps every known record and probes any
// whose cooldown has elapsed through a SOCKS5 tunnel over the overlay
// transport, flipping stale on repeated failure and clearing it on a
// successful Pong.
func RunMonitor(dirTx chan<- directory.Request, statusTx status.Sender, cfg MonitorConfig) {
	interval := defaultSweepInterval
	if cfg.SweepInterval > 0 {
		interval = time.Duration(cfg.SweepInterval) * time.Second
	}
	cooldown := defaultCooldownPeriod
	if cfg.CooldownPeriod > 0 {
		cooldown = time.Duration(cfg.CooldownPeriod) * time.Second
	}

	log.Info("liveness monitor started", "interval", interval, "cooldown", cooldown)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		sweep(dirTx, cfg.SocksPort, cooldown)
	}
}

func sweep(dirTx chan<- directory.Request, socksPort uint16, cooldown time.Duration) {
	reply := make(chan []directory.Entry, 1)
	if !sendRequest(dirTx, directory.QueryAll(reply)) {
		return
	}

	var entries []directory.Entry
	select {
	case entries = <-reply:
	case <-time.After(fetchActiveReplyTimeout):
		return
	}

	// Probes are independent per address, so a sweep fans them out
	// concurrently instead of serializing on the slowest SOCKS dial.
	var g errgroup.Group
	for _, entry := range entries {
		entry := entry
		if time.Since(entry.Record.LastSeen) <= cooldown {
			continue
		}
		g.Go(func() error {
			probe(dirTx, socksPort, entry)
			return nil
		})
	}
	g.Wait()
}

// probe dials entry.Address through the SOCKS5 proxy at socksPort,
// retrying up to probeRetries times on connect failure. A successful
// round-trip clears stale; exhausting every retry sets it.
func probe(dirTx chan<- directory.Request, socksPort uint16, entry directory.Entry) {
	dialer, err := proxy.SOCKS5("tcp", fmt.Sprintf("127.0.0.1:%d", socksPort), nil, proxy.Direct)
	if err != nil {
		log.Error("monitor: socks dialer setup failed", "err", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt < probeRetries; attempt++ {
		conn, err := dialer.Dial("tcp", entry.Address)
		if err == nil {
			defer conn.Close()
			if updated := exchangePing(conn, entry.Address); updated {
				sendRequest(dirTx, directory.Update(entry.Address, directory.Record{
					Address:  entry.Address,
					LastSeen: time.Now(),
					Stale:    false,
				}))
			}
			return
		}
		lastErr = err
		if attempt < probeRetries-1 {
			time.Sleep(probeRetryPause)
		}
	}

	log.Warn("monitor: probe exhausted retries", "address", entry.Address, "err", lastErr)
	if !entry.Record.Stale {
		sendRequest(dirTx, directory.Update(entry.Address, directory.Record{
			Address:  entry.Address,
			LastSeen: entry.Record.LastSeen,
			Stale:    true,
		}))
	}
}

// exchangePing sends a framed Ping and expects a framed Pong carrying
// the same address back.
func exchangePing(conn net.Conn, address string) bool {
	if err := wire.WriteMessage(conn, wire.Ping()); err != nil {
		return false
	}
	msg, err := wire.ReadMessage(conn)
	if err != nil {
		return false
	}
	return msg.Kind == wire.KindPong && msg.Address == address
}
