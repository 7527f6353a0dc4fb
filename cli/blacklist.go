package cli

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var blacklistCmd = &cli.Command{
	Name:  "blacklist",
	Usage: "Inspect blacklists",
	Subcommands: []*cli.Command{
		blacklistCheckCmd,
		blacklistListCmd,
	},
}

var blacklistCheckCmd = &cli.Command{
	Name:      "check",
	Usage:     "Check whether owner has blacklisted an address",
	ArgsUsage: "<owner> <address>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 2 {
			return ShowHelp(cctx, xerrors.New("expected owner and address"))
		}
		owner, err := parseAddress(cctx.Args().Get(0))
		if err != nil {
			return err
		}
		who, err := parseAddress(cctx.Args().Get(1))
		if err != nil {
			return err
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		listed, err := napi.BlacklistCheck(ctx, owner, who)
		if err != nil {
			return err
		}
		NewAppFmt(cctx.App).Println(listed)
		return nil
	},
}

var blacklistListCmd = &cli.Command{
	Name:      "list",
	Usage:     "List the addresses an owner has blacklisted",
	ArgsUsage: "<owner>",
	Action: func(cctx *cli.Context) error {
		owner, err := parseAddress(cctx.Args().First())
		if err != nil {
			return err
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)
		afmt := NewAppFmt(cctx.App)

		listed, err := napi.BlacklistList(ctx, owner)
		if err != nil {
			return err
		}
		for _, a := range listed {
			afmt.Println(a)
		}
		return nil
	},
}
