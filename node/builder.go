package node

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/fx"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/api"
	"github.com/capmarket/capmarket/chain/benchmarks"
	"github.com/capmarket/capmarket/chain/blacklist"
	"github.com/capmarket/capmarket/chain/ledger"
	"github.com/capmarket/capmarket/chain/market"
	"github.com/capmarket/capmarket/chain/oracle"
	"github.com/capmarket/capmarket/journal"
	"github.com/capmarket/capmarket/node/config"
	marketimpl "github.com/capmarket/capmarket/node/impl/market"
	"github.com/capmarket/capmarket/node/modules"
	"github.com/capmarket/capmarket/node/modules/dtypes"
	"github.com/capmarket/capmarket/node/modules/helpers"
	"github.com/capmarket/capmarket/node/repo"
)

var log = logging.Logger("builder")

type invoke int

// Invokes are called in the order they are defined.
//
//nolint:golint
const (
	SetLogLevelsKey = invoke(iota)

	ExtractApiKey
	ExtractConfigKey
	RunEventSinkKey

	SetApiEndpointKey

	_nInvokes // keep this last
)

type Settings struct {
	// modules is a map of constructors for DI
	//
	// In most cases the index will be a reflect. Type of element returned by
	// the constructor.
	modules map[interface{}]fx.Option

	// invokes are separate from modules as they can't be referenced by return
	// type, and must be applied in correct order
	invokes []fx.Option

	Config bool // Config option applied
}

func defaults() []Option {
	return []Option{
		Override(new(helpers.MetricsCtx), context.Background),
		Override(new(dtypes.ShutdownChan), make(chan struct{})),
		Override(new(journal.Journal), journal.NilJournal()),

		Override(new(*ledger.Store), modules.Ledger),
		Override(new(*blacklist.Store), modules.Blacklist),
		Override(new(*market.Market), modules.Market),
	}
}

// ConfigMarket wires the config sections into the node.
func ConfigMarket(cfg *config.Root) Option {
	return Options(
		func(s *Settings) error { s.Config = true; return nil },

		Override(new(*config.Root), cfg),
		Override(SetLogLevelsKey, modules.SetLogLevels),

		Override(new(journal.Journal), modules.OpenFilesystemJournal(cfg.Journal)),

		Override(new(dtypes.BenchmarkCount), dtypes.BenchmarkCount(cfg.Market.BenchmarkCount)),
		Override(new(dtypes.NetflagsCount), dtypes.NetflagsCount(cfg.Market.NetflagsCount)),
		Override(new(dtypes.AllowDeposits), dtypes.AllowDeposits(cfg.Market.AllowDeposits)),
		Override(new(*benchmarks.List), modules.Benchmarks(cfg.Market)),
		Override(new(oracle.PriceOracle), modules.Oracle(cfg.Oracle)),

		Override(RunEventSinkKey, modules.RunEventSink(cfg.Events)),

		Override(new(dtypes.APIEndpoint), dtypes.APIEndpoint(cfg.API.ListenAddress)),
		Override(SetApiEndpointKey, func(lr repo.LockedRepo, ep dtypes.APIEndpoint) error {
			return lr.SetAPIEndpoint(string(ep))
		}),
	)
}

func Repo(r repo.Repo) Option {
	return func(settings *Settings) error {
		lr, err := r.Lock()
		if err != nil {
			return err
		}
		c, err := lr.Config()
		if err != nil {
			return err
		}

		return Options(
			Override(new(repo.LockedRepo), modules.LockedRepo(lr)), // module handles closing

			Override(new(dtypes.MetadataDS), modules.Datastore),

			ConfigMarket(c),
		)(settings)
	}
}

func MarketAPI(out *api.Market) Option {
	return func(s *Settings) error {
		resAPI := &marketimpl.MarketAPI{}
		s.invokes[ExtractApiKey] = fx.Populate(resAPI)
		*out = resAPI
		return nil
	}
}

// ExtractConfig hands out the config the node was built with.
func ExtractConfig(out **config.Root) Option {
	return func(s *Settings) error {
		s.invokes[ExtractConfigKey] = fx.Populate(out)
		return nil
	}
}

type StopFunc func(context.Context) error

// New builds and starts new market node
func New(ctx context.Context, opts ...Option) (StopFunc, error) {
	settings := Settings{
		modules: map[interface{}]fx.Option{},
		invokes: make([]fx.Option, _nInvokes),
	}

	// apply module options in the right order
	if err := Options(Options(defaults()...), Options(opts...))(&settings); err != nil {
		return nil, xerrors.Errorf("applying node options failed: %w", err)
	}
	if !settings.Config {
		return nil, xerrors.Errorf("node requires a config, use Repo or ConfigMarket")
	}

	// gather constructors for fx.Options
	ctors := make([]fx.Option, 0, len(settings.modules))
	for _, opt := range settings.modules {
		ctors = append(ctors, opt)
	}

	// fill holes in invokes for use in fx.Options
	for i, opt := range settings.invokes {
		if opt == nil {
			settings.invokes[i] = fx.Options()
		}
	}

	app := fx.New(
		fx.Options(ctors...),
		fx.Options(settings.invokes...),

		fx.NopLogger,
	)

	if err := app.Start(ctx); err != nil {
		// comment fx.NopLogger few lines above for easier debugging
		return nil, xerrors.Errorf("starting node: %w", err)
	}

	log.Info("market node started")
	return app.Stop, nil
}
