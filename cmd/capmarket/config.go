package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	lcli "github.com/capmarket/capmarket/cli"
	"github.com/capmarket/capmarket/node/config"
)

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "Manage node config",
	Subcommands: []*cli.Command{
		configDefaultCmd,
		configUpdateCmd,
	},
}

var configDefaultCmd = &cli.Command{
	Name:  "default",
	Usage: "Print default node config",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-comment",
			Usage: "don't comment default values",
		},
	},
	Action: func(cctx *cli.Context) error {
		return printConfig(cctx, config.Default())
	},
}

var configUpdateCmd = &cli.Command{
	Name:  "updated",
	Usage: "Print the repo config merged over the defaults",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-comment",
			Usage: "don't comment default values",
		},
	},
	Action: func(cctx *cli.Context) error {
		path, err := homedir.Expand(cctx.String(lcli.FlagRepo.Name))
		if err != nil {
			return err
		}

		c, err := config.FromFile(filepath.Join(path, "config.toml"), config.Default())
		if err != nil {
			return xerrors.Errorf("loading repo config: %w", err)
		}

		return printConfig(cctx, c)
	},
}

func printConfig(cctx *cli.Context, c *config.Root) error {
	if cctx.Bool("no-comment") {
		buf := new(bytes.Buffer)
		e := toml.NewEncoder(buf)
		if err := e.Encode(c); err != nil {
			return xerrors.Errorf("encoding config: %w", err)
		}

		fmt.Println(buf.String())
		return nil
	}

	cb, err := config.ConfigComment(c)
	if err != nil {
		return err
	}

	fmt.Println(string(cb))
	return nil
}
