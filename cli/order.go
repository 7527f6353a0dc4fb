package cli

import (
	"context"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/api"
	"github.com/capmarket/capmarket/chain/types"
)

var orderCmd = &cli.Command{
	Name:  "order",
	Usage: "Manage asks and bids",
	Subcommands: []*cli.Command{
		orderPlaceCmd,
		orderCancelCmd,
		orderInfoCmd,
		orderListCmd,
	},
}

var orderPlaceCmd = &cli.Command{
	Name:      "place",
	Usage:     "Place an ask or a bid",
	ArgsUsage: "<ask|bid>",
	Flags: []cli.Flag{
		fromFlag,
		&cli.StringFlag{
			Name:     "price",
			Usage:    "price per second in price units",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "deal duration, zero for a spot order",
		},
		&cli.StringFlag{
			Name:  "counterparty",
			Usage: "only match orders of this address",
		},
		&cli.StringFlag{
			Name:  "netflags",
			Usage: "comma separated booleans, e.g. true,false,true",
		},
		&cli.StringFlag{
			Name:  "identity",
			Usage: "required identity level of the counterparty",
			Value: types.IdentityAnonymous.String(),
		},
		&cli.StringFlag{
			Name:  "blacklist",
			Usage: "screen counterparties against the blacklist of this address",
		},
		&cli.StringFlag{
			Name:  "tag",
			Usage: "free-form order tag",
		},
		&cli.StringSliceFlag{
			Name:  "bench",
			Usage: "benchmark value as code=value, repeatable",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return ShowHelp(cctx, xerrors.New("expected order type"))
		}
		typ, err := types.ParseOrderType(cctx.Args().First())
		if err != nil {
			return ShowHelp(cctx, err)
		}

		from, err := fromAddress(cctx)
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

		price, err := parsePrice(cctx.String("price"))
		if err != nil {
			return err
		}
		counterparty, err := parseAddress(cctx.String("counterparty"))
		if err != nil {
			return err
		}
		bl, err := parseAddress(cctx.String("blacklist"))
		if err != nil {
			return err
		}
		netflags, err := parseNetflags(cctx.String("netflags"))
		if err != nil {
			return err
		}
		identity, err := types.ParseIdentityLevel(cctx.String("identity"))
		if err != nil {
			return err
		}

		values, err := parseBenchmarks(cctx.StringSlice("bench"))
		if err != nil {
			return err
		}
		vec, err := benchmarkVector(ctx, napi, values)
		if err != nil {
			return err
		}

		id, err := napi.OrderPlace(ctx, types.OrderSpec{
			Type:          typ,
			Counterparty:  counterparty,
			Duration:      durationSeconds(cctx.Duration("duration")),
			Price:         price,
			Netflags:      netflags,
			IdentityLevel: identity,
			Blacklist:     bl,
			Tag:           []byte(cctx.String("tag")),
			Benchmarks:    vec,
		}, from)
		if err != nil {
			return xerrors.Errorf("placing order: %w", err)
		}

		afmt.Printf("placed %s %d\n", typ, id)
		return nil
	},
}

// benchmarkVector sizes the vector to the market's current benchmark count.
func benchmarkVector(ctx context.Context, napi api.Market, values map[string]uint64) ([]uint64, error) {
	counts, err := napi.MarketCounts(ctx)
	if err != nil {
		return nil, err
	}
	infos, err := napi.BenchmarksList(ctx)
	if err != nil {
		return nil, err
	}

	list, err := benchmarkList(infos)
	if err != nil {
		return nil, err
	}
	return list.Vector(values, counts.Benchmarks)
}

var orderCancelCmd = &cli.Command{
	Name:      "cancel",
	Usage:     "Cancel an active order",
	ArgsUsage: "<orderID>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		id, err := parseID(cctx, 0, "order id")
		if err != nil {
			return err
		}
		from, err := fromAddress(cctx)
		if err != nil {
			return err
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		if err := napi.OrderCancel(ctx, id, from); err != nil {
			return xerrors.Errorf("canceling order %d: %w", id, err)
		}
		NewAppFmt(cctx.App).Printf("canceled order %d\n", id)
		return nil
	},
}

var orderInfoCmd = &cli.Command{
	Name:      "info",
	Usage:     "Print an order",
	ArgsUsage: "<orderID>",
	Action: func(cctx *cli.Context) error {
		id, err := parseID(cctx, 0, "order id")
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

		info, err := napi.OrderInfo(ctx, id)
		if err != nil {
			return err
		}
		params, err := napi.OrderParams(ctx, id)
		if err != nil {
			return err
		}

		afmt.Printf("Order:         %d\n", id)
		afmt.Printf("Type:          %s\n", info.Type)
		afmt.Printf("Status:        %s\n", fmtOrderStatus(params.Status))
		afmt.Printf("Author:        %s\n", info.Author)
		afmt.Printf("Counterparty:  %s\n", fmtAddr(info.Counterparty))
		afmt.Printf("Duration:      %s\n", fmtDuration(info.Duration))
		afmt.Printf("Price:         %s\n", info.Price)
		afmt.Printf("Identity:      %s\n", info.IdentityLevel)
		afmt.Printf("Blacklist:     %s\n", fmtAddr(info.Blacklist))
		afmt.Printf("Frozen:        %s\n", types.FormatToken(info.FrozenSum))
		if params.DealID != 0 {
			afmt.Printf("Deal:          %d\n", params.DealID)
		}
		afmt.Printf("Benchmarks:    %v\n", info.Benchmarks)
		return nil
	},
}

var orderListCmd = &cli.Command{
	Name:  "list",
	Usage: "List active orders",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "type",
			Usage: "only list asks or bids",
		},
	},
	Action: func(cctx *cli.Context) error {
		typ := types.OrderTypeUnknown
		if s := cctx.String("type"); s != "" {
			var err error
			if typ, err = types.ParseOrderType(s); err != nil {
				return err
			}
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		orders, err := napi.OrderList(ctx, typ)
		if err != nil {
			return err
		}

		tw := newTabWriter(NewAppFmt(cctx.App))
		_, _ = tw.Write([]byte("ID\tType\tAuthor\tDuration\tPrice\tFrozen\n"))
		for _, o := range orders {
			_, _ = tw.Write([]byte(fmtRow(o.ID, o.Type, o.Author, fmtDuration(o.Duration), o.Price, types.FormatToken(o.FrozenSum))))
		}
		return tw.Flush()
	},
}
