package flags

import "github.com/urfave/cli/v2"

const (
	ChainCategory   = "CHAIN"
	OverlayCategory = "OVERLAY TRANSPORT"
	ServerCategory  = "FRONT-END SERVER"
	MiscCategory    = "MISC"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = MiscCategory
	cli.VersionFlag.(*cli.BoolFlag).Category = MiscCategory
}
