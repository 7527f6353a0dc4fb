package main

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	lcli "github.com/capmarket/capmarket/cli"
	"github.com/capmarket/capmarket/node/repo"
)

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "Initialize a capmarket repo",
	Action: func(cctx *cli.Context) error {
		r, err := repo.NewFS(cctx.String(lcli.FlagRepo.Name))
		if err != nil {
			return xerrors.Errorf("opening fs repo: %w", err)
		}

		ok, err := r.Exists()
		if err != nil {
			return err
		}
		if ok {
			return xerrors.Errorf("repo at '%s' is already initialized", cctx.String(lcli.FlagRepo.Name))
		}

		if err := r.Init(); err != nil {
			return xerrors.Errorf("repo init error: %w", err)
		}

		lr, err := r.Lock()
		if err != nil {
			return err
		}
		defer lr.Close() //nolint:errcheck

		log.Infow("initialized repo", "path", lr.Path())
		return nil
	},
}
