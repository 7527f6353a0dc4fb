package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/filecoin-project/go-jsonrpc"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/api"
	"github.com/capmarket/capmarket/api/client"
	"github.com/capmarket/capmarket/node/repo"
)

var log = logging.Logger("cli")

const (
	metadataContext = "context"
	// metadataTestNode lets tests hand commands an in-process api.
	metadataTestNode = "testnode-market"
)

// FlagRepo is the global flag pointing at the daemon repo.
var FlagRepo = &cli.StringFlag{
	Name:    "repo",
	EnvVars: []string{"CAPMARKET_PATH"},
	Value:   "~/.capmarket",
	Usage:   "path to the market repo",
}

// GetMarketAPI connects to the daemon whose API endpoint is recorded in the
// repo.
func GetMarketAPI(ctx *cli.Context) (api.Market, jsonrpc.ClientCloser, error) {
	if tn, ok := ctx.App.Metadata[metadataTestNode]; ok {
		return tn.(api.Market), func() {}, nil
	}

	r, err := repo.NewFS(ctx.String(FlagRepo.Name))
	if err != nil {
		return nil, nil, err
	}

	addr, err := r.APIEndpoint()
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to get api endpoint: %w", err)
	}

	return client.NewMarketRPC(ReqContext(ctx), "ws://"+addr+"/rpc/v0", http.Header{})
}

// ReqContext returns context for cli execution. Calling it for the first time
// installs SIGTERM handler that will close returned context.
// Not safe for concurrent execution.
func ReqContext(cctx *cli.Context) context.Context {
	if uctx, ok := cctx.App.Metadata[metadataContext]; ok {
		// unchecked cast as if something else is in there
		// it is crash worthy either way
		return uctx.(context.Context)
	}

	ctx, done := context.WithCancel(cctx.Context)
	sigChan := make(chan os.Signal, 2)
	go func() {
		<-sigChan
		done()
	}()
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	if cctx.App.Metadata == nil {
		cctx.App.Metadata = map[string]interface{}{}
	}
	cctx.App.Metadata[metadataContext] = ctx
	return ctx
}

var Commands = []*cli.Command{
	orderCmd,
	dealCmd,
	changeCmd,
	workerCmd,
	walletCmd,
	blacklistCmd,
	benchmarksCmd,
	adminCmd,
	versionCmd,
}
