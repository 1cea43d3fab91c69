// Command trackerd runs the directory/tracker daemon: it indexes the
// chain for maker announcements, serves the resulting address list
// over an onion-published TCP socket, and keeps that list fresh with
// a background liveness monitor.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/theivess/trackerd/chainrpc"
	"github.com/theivess/trackerd/log"
	"github.com/theivess/trackerd/overlay"
	"github.com/theivess/trackerd/supervisor"
)

var gitCommit = ""
var gitDate = ""

var app *cli.App

func init() {
	app = &cli.App{
		Name:    "trackerd",
		Usage:   "onion-published directory for maker announcements",
		Version: versionString(),
		Flags:   appFlags,
		Action:  run,
	}
}

func versionString() string {
	if gitCommit == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s-%s", gitCommit, gitDate)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	log.SetLevel(log.Level(ctx.Int(VerbosityFlag.Name)))

	rpcUser, rpcPass, err := parseProxyAuth(ctx.String(RPCAuthFlag.Name))
	if err != nil {
		return err
	}

	cfg := supervisor.Config{
		Overlay: overlay.Config{
			ControlPort: uint16(ctx.Uint(ControlPortFlag.Name)),
			ControlPass: ctx.String(ControlPasswordFlag.Name),
			BindAddress: ctx.String(AddressFlag.Name),
			Datadir:     ctx.String(DatadirFlag.Name),
		},
		ChainRPC: chainrpc.Config{
			URL:      ctx.String(RPCFlag.Name),
			User:     rpcUser,
			Password: rpcPass,
		},
		BindAddress:           ctx.String(AddressFlag.Name),
		SocksPort:             uint16(ctx.Uint(SocksPortFlag.Name)),
		SweepIntervalSeconds:  ctx.Int64(SweepIntervalFlag.Name),
		CooldownPeriodSeconds: ctx.Int64(CooldownPeriodFlag.Name),
	}

	return supervisor.Run(cfg)
}
