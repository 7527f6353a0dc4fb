package main

import (
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/api"
	"github.com/capmarket/capmarket/build"
	lcli "github.com/capmarket/capmarket/cli"
	"github.com/capmarket/capmarket/node"
	"github.com/capmarket/capmarket/node/config"
	"github.com/capmarket/capmarket/node/modules/dtypes"
	"github.com/capmarket/capmarket/node/repo"
)

var log = logging.Logger("main")

// DaemonCmd is the `capmarket daemon` command
var DaemonCmd = &cli.Command{
	Name:  "daemon",
	Usage: "Start a capmarket daemon process",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "api",
			Usage: "override the API listen address from the config, host:port",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := lcli.ReqContext(cctx)

		r, err := repo.NewFS(cctx.String(lcli.FlagRepo.Name))
		if err != nil {
			return xerrors.Errorf("opening fs repo: %w", err)
		}

		if err := r.Init(); err != nil && err != repo.ErrRepoExists {
			return xerrors.Errorf("repo init error: %w", err)
		}

		shutdownChan := make(chan struct{})

		var (
			full api.Market
			cfg  *config.Root
		)
		stop, err := node.New(ctx,
			node.MarketAPI(&full),
			node.ExtractConfig(&cfg),

			node.Override(new(dtypes.ShutdownChan), shutdownChan),
			node.Repo(r),

			node.If(cctx.IsSet("api"),
				node.Override(new(dtypes.APIEndpoint), dtypes.APIEndpoint(cctx.String("api"))),
			),
		)
		if err != nil {
			return xerrors.Errorf("initializing node: %w", err)
		}

		endpoint, err := r.APIEndpoint()
		if err != nil {
			return xerrors.Errorf("getting api endpoint: %w", err)
		}

		h, err := node.MarketHandler(full, cfg.Metrics.Enabled)
		if err != nil {
			return xerrors.Errorf("failed to instantiate rpc handler: %w", err)
		}

		rpcStopper, err := node.ServeRPC(h, endpoint, time.Duration(cfg.API.Timeout))
		if err != nil {
			return xerrors.Errorf("failed to start json-rpc endpoint: %w", err)
		}

		log.Infow("capmarket daemon running", "version", build.UserVersion(), "api", endpoint)

		// Monitor for shutdown.
		finishCh := node.MonitorShutdown(shutdownChan,
			time.Duration(cfg.API.ShutdownTimeout),
			node.ShutdownHandler{Component: "rpc server", StopFunc: rpcStopper},
			node.ShutdownHandler{Component: "market node", StopFunc: stop},
		)
		<-finishCh

		return nil
	},
}
