package modules

import (
	"context"
	"time"

	"go.uber.org/fx"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/build"
	"github.com/capmarket/capmarket/chain/benchmarks"
	"github.com/capmarket/capmarket/chain/blacklist"
	"github.com/capmarket/capmarket/chain/ledger"
	"github.com/capmarket/capmarket/chain/market"
	"github.com/capmarket/capmarket/chain/oracle"
	"github.com/capmarket/capmarket/journal"
	"github.com/capmarket/capmarket/markets/eventsink"
	"github.com/capmarket/capmarket/node/config"
	"github.com/capmarket/capmarket/node/modules/dtypes"
	"github.com/capmarket/capmarket/node/modules/helpers"
)

func Ledger(ds dtypes.MetadataDS) *ledger.Store {
	return ledger.NewStore(ds)
}

func Blacklist(ds dtypes.MetadataDS) *blacklist.Store {
	return blacklist.NewStore(ds)
}

// Oracle builds the price oracle. With a feed URL the rate is polled from
// the feed, otherwise it stays at the initial rate until an operator sets it.
func Oracle(cfg config.Oracle) func(mctx helpers.MetricsCtx, lc fx.Lifecycle) (oracle.PriceOracle, error) {
	return func(mctx helpers.MetricsCtx, lc fx.Lifecycle) (oracle.PriceOracle, error) {
		initial, err := big.FromString(cfg.InitialRate)
		if err != nil {
			return nil, xerrors.Errorf("parsing initial oracle rate: %w", err)
		}
		if initial.Sign() <= 0 {
			return nil, xerrors.Errorf("initial oracle rate must be positive, got %s", initial)
		}

		if cfg.FeedURL == "" {
			return oracle.NewStatic(initial), nil
		}

		feed := oracle.NewFeed(oracle.NewHTTPSource(cfg.FeedURL), initial, time.Duration(cfg.RefreshInterval), build.Clock)
		lc.Append(fx.Hook{
			OnStart: func(_ context.Context) error {
				feed.Start(helpers.LifecycleCtx(mctx, lc))
				return nil
			},
			OnStop: feed.Stop,
		})
		return feed, nil
	}
}

func Benchmarks(cfg config.Market) func(mctx helpers.MetricsCtx) (*benchmarks.List, error) {
	return func(mctx helpers.MetricsCtx) (*benchmarks.List, error) {
		if cfg.BenchmarksURL == "" {
			return benchmarks.Default(), nil
		}
		l, err := benchmarks.Load(mctx, cfg.BenchmarksURL)
		if err != nil {
			return nil, xerrors.Errorf("loading benchmark list: %w", err)
		}
		log.Infow("loaded benchmark list", "url", cfg.BenchmarksURL, "benchmarks", l.Len())
		return l, nil
	}
}

type MarketParams struct {
	fx.In

	Ds        dtypes.MetadataDS
	Ledger    *ledger.Store
	Oracle    oracle.PriceOracle
	Blacklist *blacklist.Store
	Journal   journal.Journal

	BenchmarkCount dtypes.BenchmarkCount
	NetflagsCount  dtypes.NetflagsCount
}

func Market(mctx helpers.MetricsCtx, lc fx.Lifecycle, p MarketParams) (*market.Market, error) {
	ctx := helpers.LifecycleCtx(mctx, lc)
	return market.New(ctx, market.Params{
		Datastore:      p.Ds,
		Ledger:         p.Ledger,
		Oracle:         p.Oracle,
		Blacklist:      p.Blacklist,
		Journal:        p.Journal,
		Clock:          build.Clock,
		BenchmarkCount: uint64(p.BenchmarkCount),
		NetflagsCount:  uint64(p.NetflagsCount),
	})
}

// RunEventSink publishes market events to kafka when brokers are
// configured.
func RunEventSink(cfg config.Events) func(lc fx.Lifecycle, m *market.Market) {
	return func(lc fx.Lifecycle, m *market.Market) {
		if len(cfg.KafkaBrokers) == 0 {
			log.Info("no kafka brokers configured, market events are not exported")
			return
		}

		w := eventsink.NewWriter(eventsink.Config{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			BatchTimeout: time.Duration(cfg.BatchTimeout),
		})
		sink := eventsink.New(w, time.Duration(cfg.BatchTimeout))

		var stop func(context.Context) error
		lc.Append(fx.Hook{
			OnStart: func(_ context.Context) error {
				stop = sink.Start(m)
				log.Infow("exporting market events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				if stop == nil {
					return nil
				}
				return stop(ctx)
			},
		})
	}
}
