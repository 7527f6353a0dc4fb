package client

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"

	"github.com/capmarket/capmarket/api"
)

// NewMarketRPC creates a new http jsonrpc client.
func NewMarketRPC(ctx context.Context, addr string, requestHeader http.Header, opts ...jsonrpc.Option) (api.Market, jsonrpc.ClientCloser, error) {
	var res api.MarketStruct
	closer, err := jsonrpc.NewMergeClient(ctx, addr, "CapMarket",
		[]interface{}{
			&res.Internal,
		},
		requestHeader,
		append([]jsonrpc.Option{jsonrpc.WithErrors(api.RPCErrors)}, opts...)...,
	)

	return &res, closer, err
}
