package cli

import (
	"strconv"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var adminCmd = &cli.Command{
	Name:  "admin",
	Usage: "Operator commands",
	Subcommands: []*cli.Command{
		adminCountsCmd,
		adminSetBenchmarksCmd,
		adminSetNetflagsCmd,
		adminRateCmd,
		adminSetRateCmd,
	},
}

var adminCountsCmd = &cli.Command{
	Name:  "counts",
	Usage: "Print the benchmark and netflag counts orders must fit",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)
		afmt := NewAppFmt(cctx.App)

		counts, err := napi.MarketCounts(ctx)
		if err != nil {
			return err
		}
		afmt.Printf("Benchmarks: %d\n", counts.Benchmarks)
		afmt.Printf("Netflags:   %d\n", counts.Netflags)
		return nil
	},
}

func countAction(set func(cctx *cli.Context, n uint64) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return ShowHelp(cctx, xerrors.New("expected a count"))
		}
		n, err := strconv.ParseUint(cctx.Args().First(), 10, 64)
		if err != nil {
			return ShowHelp(cctx, err)
		}
		return set(cctx, n)
	}
}

var adminSetBenchmarksCmd = &cli.Command{
	Name:      "set-benchmarks",
	Usage:     "Grow the benchmark vector length",
	ArgsUsage: "<count>",
	Action: countAction(func(cctx *cli.Context, n uint64) error {
		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		return napi.AdminSetBenchmarkCount(ReqContext(cctx), n)
	}),
}

var adminSetNetflagsCmd = &cli.Command{
	Name:      "set-netflags",
	Usage:     "Grow the netflags length",
	ArgsUsage: "<count>",
	Action: countAction(func(cctx *cli.Context, n uint64) error {
		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		return napi.AdminSetNetflagsCount(ReqContext(cctx), n)
	}),
}

var adminRateCmd = &cli.Command{
	Name:  "rate",
	Usage: "Print the current oracle rate",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()

		rate, err := napi.OracleRate(ReqContext(cctx))
		if err != nil {
			return err
		}
		NewAppFmt(cctx.App).Println(rate)
		return nil
	},
}

var adminSetRateCmd = &cli.Command{
	Name:      "set-rate",
	Usage:     "Override the oracle rate (scaled by 1e18)",
	ArgsUsage: "<rate>",
	Action: func(cctx *cli.Context) error {
		rate, err := parsePrice(cctx.Args().First())
		if err != nil {
			return ShowHelp(cctx, err)
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()

		return napi.AdminSetRate(ReqContext(cctx), rate)
	},
}
