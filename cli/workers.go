package cli

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var workerCmd = &cli.Command{
	Name:  "worker",
	Usage: "Manage worker to master relations",
	Subcommands: []*cli.Command{
		workerRegisterCmd,
		workerConfirmCmd,
		workerRemoveCmd,
		workerStatusCmd,
	},
}

var workerRegisterCmd = &cli.Command{
	Name:      "register",
	Usage:     "Announce a master for a worker, acting as the worker",
	ArgsUsage: "<master>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		master, err := parseAddress(cctx.Args().First())
		if err != nil {
			return err
		}
		worker, err := fromAddress(cctx)
		if err != nil {
			return err
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		if err := napi.WorkerRegister(ctx, master, worker); err != nil {
			return xerrors.Errorf("registering worker: %w", err)
		}
		NewAppFmt(cctx.App).Printf("worker %s announced master %s, waiting for confirmation\n", worker, master)
		return nil
	},
}

var workerConfirmCmd = &cli.Command{
	Name:      "confirm",
	Usage:     "Confirm a worker announcement, acting as the master",
	ArgsUsage: "<worker>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		worker, err := parseAddress(cctx.Args().First())
		if err != nil {
			return err
		}
		master, err := fromAddress(cctx)
		if err != nil {
			return err
		}

		napi, closer, err := GetMarketAPI(cctx)
		if err != nil {
			return err
		}
		defer closer()
		ctx := ReqContext(cctx)

		if err := napi.WorkerConfirm(ctx, worker, master); err != nil {
			return xerrors.Errorf("confirming worker: %w", err)
		}
		NewAppFmt(cctx.App).Printf("%s is now the master of %s\n", master, worker)
		return nil
	},
}

var workerRemoveCmd = &cli.Command{
	Name:      "remove",
	Usage:     "Dissolve a worker relation, acting as either side",
	ArgsUsage: "<worker> <master>",
	Flags:     []cli.Flag{fromFlag},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 2 {
			return ShowHelp(cctx, xerrors.New("expected worker and master"))
		}
		worker, err := parseAddress(cctx.Args().Get(0))
		if err != nil {
			return err
		}
		master, err := parseAddress(cctx.Args().Get(1))
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

		if err := napi.WorkerRemove(ctx, worker, master, from); err != nil {
			return xerrors.Errorf("removing worker: %w", err)
		}
		NewAppFmt(cctx.App).Printf("removed worker %s\n", worker)
		return nil
	},
}

var workerStatusCmd = &cli.Command{
	Name:      "status",
	Usage:     "Print the master of a worker",
	ArgsUsage: "<worker>",
	Action: func(cctx *cli.Context) error {
		worker, err := parseAddress(cctx.Args().First())
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

		st, err := napi.WorkerStatus(ctx, worker)
		if err != nil {
			return err
		}
		afmt.Printf("Worker:    %s\n", st.Worker)
		afmt.Printf("Master:    %s\n", st.Master)
		afmt.Printf("Confirmed: %t\n", st.Confirmed)
		afmt.Printf("Pending:   %s\n", fmtAddr(st.PendingMaster))
		return nil
	},
}
