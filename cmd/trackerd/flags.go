package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/theivess/trackerd/internal/flags"
)

var (
	RPCFlag = &cli.StringFlag{
		Name:     "rpc",
		Aliases:  []string{"r"},
		Usage:    "Chain RPC endpoint, ADDRESS:PORT",
		Value:    "127.0.0.1:48332",
		Category: flags.ChainCategory,
	}
	RPCAuthFlag = &cli.StringFlag{
		Name:     "rpc.auth",
		Aliases:  []string{"a"},
		Usage:    "Chain RPC USER:PASSWORD",
		Value:    "username:password",
		Category: flags.ChainCategory,
	}
	AddressFlag = &cli.StringFlag{
		Name:     "address",
		Aliases:  []string{"s"},
		Usage:    "Front-end server bind address, ADDRESS:PORT",
		Value:    "127.0.0.1:8080",
		Category: flags.ServerCategory,
	}
	SocksPortFlag = &cli.UintFlag{
		Name:     "socks-port",
		Usage:    "Overlay transport's local SOCKS5 egress port",
		Value:    9050,
		Category: flags.OverlayCategory,
	}
	ControlPortFlag = &cli.UintFlag{
		Name:     "control-port",
		Aliases:  []string{"c"},
		Usage:    "Overlay transport control port",
		Value:    9051,
		Category: flags.OverlayCategory,
	}
	ControlPasswordFlag = &cli.StringFlag{
		Name:     "control-password",
		Usage:    "Overlay transport control port authentication password",
		Category: flags.OverlayCategory,
	}
	DatadirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for persisted hidden-service key material",
		Value:    ".tracker",
		Category: flags.MiscCategory,
	}
	SweepIntervalFlag = &cli.Int64Flag{
		Name:     "monitor.sweep-interval",
		Usage:    "Seconds between liveness-monitor sweeps (0 = default)",
		Category: flags.ServerCategory,
	}
	CooldownPeriodFlag = &cli.Int64Flag{
		Name:     "monitor.cooldown",
		Usage:    "Seconds before a record becomes eligible for a liveness probe (0 = default)",
		Category: flags.ServerCategory,
	}
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=crit 1=error 2=warn 3=info 4=debug 5=trace",
		Value:    3,
		Category: flags.MiscCategory,
	}
)

var appFlags = []cli.Flag{
	RPCFlag,
	RPCAuthFlag,
	AddressFlag,
	SocksPortFlag,
	ControlPortFlag,
	ControlPasswordFlag,
	DatadirFlag,
	SweepIntervalFlag,
	CooldownPeriodFlag,
	VerbosityFlag,
}

// parseProxyAuth splits a "USER:PASSWORD" string into its two parts,
// rejecting anything that doesn't split into exactly two colon-
// separated fields.
func parseProxyAuth(s string) (user, pass string, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid rpc.auth %q: want USER:PASSWORD", s)
	}
	return parts[0], parts[1], nil
}
