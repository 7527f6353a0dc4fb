package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/capmarket/capmarket/build"
)

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "Print version",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		afmt := NewAppFmt(cctx.App)

		v, err := napi.Version(ReqContext(cctx))
		if err != nil {
			return err
		}
		afmt.Printf("Daemon:  %s (api %s)\n", v.Version, v.APIVersion)
		afmt.Printf("Local:   %s (api %s)\n", build.UserVersion(), build.MarketAPIVersion)
		return nil
	},
}
