package modules

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/fx"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/journal"
	"github.com/capmarket/capmarket/journal/fsjournal"
	"github.com/capmarket/capmarket/lib/marketlog"
	"github.com/capmarket/capmarket/node/config"
	"github.com/capmarket/capmarket/node/modules/dtypes"
	"github.com/capmarket/capmarket/node/modules/helpers"
	"github.com/capmarket/capmarket/node/repo"
)

var log = logging.Logger("modules")

func LockedRepo(lr repo.LockedRepo) func(lc fx.Lifecycle) repo.LockedRepo {
	return func(lc fx.Lifecycle) repo.LockedRepo {
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return lr.Close()
			},
		})

		return lr
	}
}

func Datastore(mctx helpers.MetricsCtx, lc fx.Lifecycle, r repo.LockedRepo) (dtypes.MetadataDS, error) {
	ctx := helpers.LifecycleCtx(mctx, lc)
	ds, err := r.Datastore(ctx)
	if err != nil {
		return nil, xerrors.Errorf("opening metadata datastore: %w", err)
	}
	return ds, nil
}

// SetLogLevels applies the configured per-subsystem log levels on top of
// the defaults.
func SetLogLevels(cfg *config.Root) error {
	marketlog.SetupLogLevels()
	return marketlog.SetSubsystemLevels(cfg.Logging.SubsystemLevels)
}

// OpenFilesystemJournal opens the rolling journal under the repo, or a nil
// journal when the config disables it.
func OpenFilesystemJournal(cfg config.Journal) func(lr repo.LockedRepo, lc fx.Lifecycle) (journal.Journal, error) {
	return func(lr repo.LockedRepo, lc fx.Lifecycle) (journal.Journal, error) {
		if cfg.Disabled {
			return journal.NilJournal(), nil
		}

		disabled := journal.EnvDisabledEvents()
		if cfg.DisabledEvents != "" {
			parsed, err := journal.ParseDisabledEvents(cfg.DisabledEvents)
			if err != nil {
				return nil, xerrors.Errorf("parsing disabled journal events: %w", err)
			}
			disabled = append(disabled, parsed...)
		}

		jrnl, err := fsjournal.OpenFSJournal(lr, disabled)
		if err != nil {
			return nil, err
		}

		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error { return jrnl.Close() },
		})

		return jrnl, err
	}
}
