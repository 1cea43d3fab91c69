// Package supervisor owns process startup: the overlay-transport
// handshake and hidden-endpoint publication, spawning the directory,
// indexer and front-end actors, and restarting whichever one reports
// itself down.
package supervisor

import (
	"fmt"

	"github.com/theivess/trackerd/chainrpc"
	"github.com/theivess/trackerd/directory"
	"github.com/theivess/trackerd/frontend"
	"github.com/theivess/trackerd/indexer"
	"github.com/theivess/trackerd/log"
	"github.com/theivess/trackerd/overlay"
	"github.com/theivess/trackerd/status"
	"github.com/theivess/trackerd/trackererr"
)

// directoryQueueCap and statusQueueCap bound the two system-wide
// queues; both block their senders once full, providing backpressure.
const (
	directoryQueueCap = 10
	statusQueueCap    = 10
)

// Config collects everything needed to bootstrap and run the daemon.
type Config struct {
	Overlay     overlay.Config
	ChainRPC    chainrpc.Config
	BindAddress string
	SocksPort   uint16

	SweepIntervalSeconds  int64
	CooldownPeriodSeconds int64
}

// Run performs the overlay bootstrap handshake, then launches and
// supervises the directory, indexer and front-end actors until the
// process is killed. It returns only on a fatal bootstrap error.
func Run(cfg Config) error {
	hostname, err := overlay.Bootstrap(cfg.Overlay)
	if err != nil {
		return err
	}
	log.Info("tracker is listening", "hostname", hostname)

	statusCh := make(chan status.Message, statusQueueCap)
	statusTx := status.ChanSender(statusCh)

	dirTx := spawnDirectory(statusTx)
	spawnIndexer(cfg.ChainRPC, dirTx, statusTx)
	spawnServer(cfg, dirTx, statusTx)

	log.Info("tracker started")

	for msg := range statusCh {
		switch msg.State {
		case status.StateHealthy:
			log.Info("system healthy", "origin", msg.Origin, "detail", msg.Text)

		case status.StateDown:
			log.Warn("actor exited, restarting", "origin", msg.Origin, "err", msg.Err)
			switch msg.Origin {
			case status.OriginDirectory:
				dirTx = spawnDirectory(statusTx)
			case status.OriginIndexer:
				spawnIndexer(cfg.ChainRPC, dirTx, statusTx)
			case status.OriginServer:
				spawnServer(cfg, dirTx, statusTx)
			}
		}
	}
	return nil
}

// supervise runs fn on its own goroutine and turns a panic anywhere
// inside it into a Down report instead of letting the panic unwind
// unrecovered, which would crash the whole process. Go only protects
// the goroutine that calls recover, so each actor needs its own
// deferred recover to keep a crash local to that actor.
func supervise(origin status.Origin, statusTx status.Sender, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				statusTx.Send(status.Down(origin, trackererr.New(trackererr.KindGeneral, fmt.Errorf("%v", r))))
			}
		}()
		fn()
	}()
}

// spawnDirectory creates a fresh directory queue and starts C1 against
// it, returning the sender other actors should (re)acquire. Actors
// still holding a sender to a previous, now-abandoned queue are not
// updated directly: their next send fails, which is itself the signal
// that triggers their own restart.
func spawnDirectory(statusTx status.Sender) chan directory.Request {
	reqs := make(chan directory.Request, directoryQueueCap)
	supervise(status.OriginDirectory, statusTx, func() { directory.Run(reqs, statusTx) })
	return reqs
}

func spawnIndexer(rpcCfg chainrpc.Config, dirTx chan<- directory.Request, statusTx status.Sender) {
	client, err := chainrpc.New(rpcCfg)
	if err != nil {
		statusTx.Send(status.Down(status.OriginIndexer, trackererr.New(trackererr.KindOracle, err)))
		return
	}
	supervise(status.OriginIndexer, statusTx, func() { indexer.Run(client, dirTx, statusTx) })
}

func spawnServer(cfg Config, dirTx chan<- directory.Request, statusTx status.Sender) {
	mcfg := frontend.MonitorConfig{
		SocksPort:      cfg.SocksPort,
		SweepInterval:  cfg.SweepIntervalSeconds,
		CooldownPeriod: cfg.CooldownPeriodSeconds,
	}
	supervise(status.OriginServer, statusTx, func() { frontend.Run(cfg.BindAddress, dirTx, statusTx, mcfg) })
}
