package cli

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"

	"github.com/capmarket/capmarket/chain/types"
)

var dealCmd = &cli.Command{
	Name:  "deal",
	Usage: "Open, bill and close deals",
	Subcommands: []*cli.Command{
		dealOpenCmd,
		dealQuickBuyCmd,
		dealBillCmd,
		dealCloseCmd,
		dealInfoCmd,
		dealListCmd,
	},
}

var dealOpenCmd = &cli.Command{
	Name:      "open",
	Usage:     "Open a deal from a matching ask and bid",
	ArgsUsage: "<askID> <bidID>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		askID, err := parseID(cctx, 0, "ask id")
		if err != nil {
			return err
		}
		bidID, err := parseID(cctx, 1, "bid id")
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

		id, err := napi.DealOpen(ctx, askID, bidID, from)
		if err != nil {
			return xerrors.Errorf("opening deal: %w", err)
		}
		NewAppFmt(cctx.App).Printf("opened deal %d\n", id)
		return nil
	},
}

var dealQuickBuyCmd = &cli.Command{
	Name:      "quickbuy",
	Usage:     "Buy an ask directly, without placing a bid",
	ArgsUsage: "<askID>",
	Flags: []cli.Flag{
		fromFlag,
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "deal duration, at most the ask duration; zero takes a spot ask as is",
		},
	},
	Action: func(cctx *cli.Context) error {
		askID, err := parseID(cctx, 0, "ask id")
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

		id, err := napi.DealQuickBuy(ctx, askID, durationSeconds(cctx.Duration("duration")), from)
		if err != nil {
			return xerrors.Errorf("buying ask %d: %w", askID, err)
		}
		NewAppFmt(cctx.App).Printf("opened deal %d\n", id)
		return nil
	},
}

var dealBillCmd = &cli.Command{
	Name:      "bill",
	Usage:     "Settle a deal up to now",
	ArgsUsage: "<dealID>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		id, err := parseID(cctx, 0, "deal id")
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

		paid, err := napi.DealBill(ctx, id, from)
		if err != nil {
			return xerrors.Errorf("billing deal %d: %w", id, err)
		}
		NewAppFmt(cctx.App).Printf("paid %s\n", types.FormatToken(paid))
		return nil
	},
}

var dealCloseCmd = &cli.Command{
	Name:      "close",
	Usage:     "Close a deal",
	ArgsUsage: "<dealID>",
	Flags: []cli.Flag{
		fromFlag,
		&cli.StringFlag{
			Name:  "blacklist",
			Usage: "blacklist the supplier side of the deal: nobody, worker or master",
			Value: types.BlacklistNobody.String(),
		},
	},
	Action: func(cctx *cli.Context) error {
		id, err := parseID(cctx, 0, "deal id")
		if err != nil {
			return err
		}
		from, err := fromAddress(cctx)
		if err != nil {
			return err
		}
		target, err := types.ParseBlacklistPerson(cctx.String("blacklist"))
		if err != nil {
			return err
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		if err := napi.DealClose(ctx, id, target, from); err != nil {
			return xerrors.Errorf("closing deal %d: %w", id, err)
		}
		NewAppFmt(cctx.App).Printf("closed deal %d\n", id)
		return nil
	},
}

var dealInfoCmd = &cli.Command{
	Name:      "info",
	Usage:     "Print a deal",
	ArgsUsage: "<dealID>",
	Action: func(cctx *cli.Context) error {
		id, err := parseID(cctx, 0, "deal id")
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

		d, err := napi.DealGet(ctx, id)
		if err != nil {
			return err
		}
		pending, err := napi.ChangeRequestsPending(ctx, id)
		if err != nil {
			return err
		}

		afmt.Printf("Deal:          %d\n", d.ID)
		afmt.Printf("Status:        %s\n", fmtDealStatus(d.Status))
		afmt.Printf("Ask/Bid:       %d/%d\n", d.AskID, d.BidID)
		afmt.Printf("Supplier:      %s\n", d.Supplier)
		afmt.Printf("Master:        %s\n", d.Master)
		afmt.Printf("Consumer:      %s\n", d.Consumer)
		afmt.Printf("Price:         %s\n", d.Price)
		afmt.Printf("Duration:      %s\n", fmtDuration(d.Duration))
		afmt.Printf("Started:       %s\n", fmtTime(d.StartTime))
		afmt.Printf("Ends:          %s\n", fmtTime(d.EndTime))
		afmt.Printf("Last billed:   %s\n", fmtTime(d.LastBillTS))
		afmt.Printf("Blocked:       %s\n", types.FormatToken(d.BlockedBalance))
		afmt.Printf("Paid out:      %s\n", types.FormatToken(d.TotalPayout))
		if pending.Consumer != 0 || pending.Supplier != 0 {
			afmt.Printf("Requests:      consumer %d, supplier %d\n", pending.Consumer, pending.Supplier)
		}

		infos, err := napi.BenchmarksList(ctx)
		if err != nil {
			return err
		}
		list, err := benchmarkList(infos)
		if err != nil {
			return err
		}
		afmt.Println("Benchmarks:")
		desc := list.Describe(d.Benchmarks)
		for _, code := range list.Codes() {
			if v := desc[code]; v != 0 {
				afmt.Printf("  %-22s %d\n", code, v)
			}
		}
		return nil
	},
}

var dealListCmd = &cli.Command{
	Name:  "list",
	Usage: "List deals",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "active",
			Usage: "only list deals that are not closed",
		},
		&cli.StringFlag{
			Name:  "party",
			Usage: "only list deals this address takes part in",
		},
	},
	Action: func(cctx *cli.Context) error {
		var filter types.DealFilter
		if cctx.Bool("active") {
			filter.Status = types.DealAccepted
		}
		if s := cctx.String("party"); s != "" {
			party, err := address.NewFromString(s)
			if err != nil {
				return err
			}
			filter.Party = party
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		deals, err := napi.DealList(ctx, filter)
		if err != nil {
			return err
		}

		tw := newTabWriter(NewAppFmt(cctx.App))
		_, _ = tw.Write([]byte("ID\tStatus\tSupplier\tConsumer\tDuration\tPrice\tBlocked\tPaid\n"))
		for _, d := range deals {
			_, _ = tw.Write([]byte(fmtRow(d.ID, d.Status, d.Supplier, d.Consumer, fmtDuration(d.Duration), d.Price,
				types.FormatToken(d.BlockedBalance), types.FormatToken(d.TotalPayout))))
		}
		return tw.Flush()
	},
}
