package cli

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var changeCmd = &cli.Command{
	Name:  "change",
	Usage: "Propose and manage deal change requests",
	Subcommands: []*cli.Command{
		changeCreateCmd,
		changeCancelCmd,
		changeInfoCmd,
	},
}

var changeCreateCmd = &cli.Command{
	Name:      "create",
	Usage:     "Propose a new price and duration for a deal",
	ArgsUsage: "<dealID>",
	Flags: []cli.Flag{
		fromFlag,
		&cli.StringFlag{
			Name:     "price",
			Usage:    "new price per second in price units",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "new total deal duration, zero for spot deals",
		},
	},
	Action: func(cctx *cli.Context) error {
		dealID, err := parseID(cctx, 0, "deal id")
		if err != nil {
			return err
		}
		from, err := fromAddress(cctx)
		if err != nil {
			return err
		}
		price, err := parsePrice(cctx.String("price"))
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

		id, err := napi.ChangeRequestCreate(ctx, dealID, price, durationSeconds(cctx.Duration("duration")), from)
		if err != nil {
			return xerrors.Errorf("creating change request: %w", err)
		}

		r, err := napi.ChangeRequestInfo(ctx, id)
		if err != nil {
			return err
		}
		afmt.Printf("change request %d is %s\n", id, fmtRequestStatus(r.Status))
		return nil
	},
}

var changeCancelCmd = &cli.Command{
	Name:      "cancel",
	Usage:     "Withdraw your change request or reject the counterparty's",
	ArgsUsage: "<requestID>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		id, err := parseID(cctx, 0, "request id")
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

		if err := napi.ChangeRequestCancel(ctx, id, from); err != nil {
			return xerrors.Errorf("canceling change request %d: %w", id, err)
		}
		r, err := napi.ChangeRequestInfo(ctx, id)
		if err != nil {
			return err
		}
		NewAppFmt(cctx.App).Printf("change request %d is %s\n", id, fmtRequestStatus(r.Status))
		return nil
	},
}

var changeInfoCmd = &cli.Command{
	Name:      "info",
	Usage:     "Print a change request",
	ArgsUsage: "<requestID>",
	Action: func(cctx *cli.Context) error {
		id, err := parseID(cctx, 0, "request id")
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

		r, err := napi.ChangeRequestInfo(ctx, id)
		if err != nil {
			return err
		}
		afmt.Printf("Request:   %d\n", r.ID)
		afmt.Printf("Deal:      %d\n", r.DealID)
		afmt.Printf("Proposer:  %s\n", r.Role)
		afmt.Printf("Price:     %s\n", r.Price)
		afmt.Printf("Duration:  %s\n", fmtDuration(r.Duration))
		afmt.Printf("Status:    %s\n", fmtRequestStatus(r.Status))
		return nil
	},
}
