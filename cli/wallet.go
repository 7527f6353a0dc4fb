package cli

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/chain/types"
)

var walletCmd = &cli.Command{
	Name:  "wallet",
	Usage: "Inspect and fund ledger balances",
	Subcommands: []*cli.Command{
		walletBalanceCmd,
		walletDepositCmd,
		walletListCmd,
	},
}

var walletBalanceCmd = &cli.Command{
	Name:      "balance",
	Usage:     "Print the free balance of an address",
	ArgsUsage: "<address>",
	Action: func(cctx *cli.Context) error {
		addr, err := parseAddress(cctx.Args().First())
		if err != nil {
			return err
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		bal, err := napi.WalletBalance(ctx, addr)
		if err != nil {
			return err
		}
		NewAppFmt(cctx.App).Println(types.FormatToken(bal))
		return nil
	},
}

var walletDepositCmd = &cli.Command{
	Name:      "deposit",
	Usage:     "Credit tokens to an address (development networks only)",
	ArgsUsage: "<address> <amount>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 2 {
			return ShowHelp(cctx, xerrors.New("expected address and amount"))
		}
		addr, err := parseAddress(cctx.Args().Get(0))
		if err != nil {
			return err
		}
		amt, err := types.ParseToken(cctx.Args().Get(1))
		if err != nil {
			return err
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		if err := napi.WalletDeposit(ctx, addr, amt); err != nil {
			return xerrors.Errorf("depositing: %w", err)
		}
		NewAppFmt(cctx.App).Printf("deposited %s to %s\n", types.FormatToken(amt), addr)
		return nil
	},
}

var walletListCmd = &cli.Command{
	Name:  "list",
	Usage: "List all ledger balances",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		balances, err := napi.WalletList(ctx)
		if err != nil {
			return err
		}

		tw := newTabWriter(NewAppFmt(cctx.App))
		_, _ = tw.Write([]byte("Address\tBalance\n"))
		for _, b := range balances {
			_, _ = tw.Write([]byte(fmtRow(b.Address, types.FormatToken(b.Balance))))
		}
		return tw.Flush()
	},
}
