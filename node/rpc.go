package node

import (
	"net"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/api"
	"github.com/capmarket/capmarket/metrics"
)

// MarketHandler returns a market handler, to be mounted as-is on the server.
func MarketHandler(a api.Market, withMetrics bool, opts ...jsonrpc.ServerOption) (http.Handler, error) {
	m := mux.NewRouter()

	rpcServer := jsonrpc.NewServer(append(opts, jsonrpc.WithServerErrors(api.RPCErrors))...)
	rpcServer.Register("CapMarket", a)
	m.Handle("/rpc/v0", rpcServer)

	if withMetrics {
		exporter, err := metrics.Exporter("capmarket")
		if err != nil {
			return nil, xerrors.Errorf("could not create metrics exporter: %w", err)
		}
		m.Handle("/debug/metrics", exporter)
		m.Use(requestDuration)
	}

	m.PathPrefix("/").Handler(http.DefaultServeMux) // pprof
	return m, nil
}

// requestDuration records the time spent serving each request, tagged by path.
func requestDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := tag.New(r.Context(), tag.Upsert(metrics.Endpoint, r.URL.Path))
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		stats.Record(ctx, metrics.APIRequestDuration.M(metrics.SinceInMilliseconds(start)))
	})
}

// ServeRPC serves an HTTP handler over the supplied listen address
func ServeRPC(h http.Handler, addr string, timeout time.Duration) (StopFunc, error) {
	lst, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("could not listen: %w", err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: timeout,
	}

	go func() {
		err := srv.Serve(lst)
		if err != http.ErrServerClosed {
			log.Warnf("rpc server failed: %s", err)
		}
	}()

	log.Infow("serving market api", "addr", lst.Addr().String())
	return srv.Shutdown, nil
}
