package cli

import (
	"github.com/urfave/cli/v2"
)

var benchmarksCmd = &cli.Command{
	Name:  "benchmarks",
	Usage: "List the benchmarks orders are measured by",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		infos, err := napi.BenchmarksList(ctx)
		if err != nil {
			return err
		}

		tw := newTabWriter(NewAppFmt(cctx.App))
		_, _ = tw.Write([]byte("ID\tCode\tType\tDescription\n"))
		for _, b := range infos {
			_, _ = tw.Write([]byte(fmtRow(b.ID, b.Code, b.Type, b.Description)))
		}
		return tw.Flush()
	},
}
