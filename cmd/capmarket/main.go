package main

import (
	"github.com/urfave/cli/v2"

	"github.com/capmarket/capmarket/build"
	lcli "github.com/capmarket/capmarket/cli"
	"github.com/capmarket/capmarket/lib/marketlog"
)

func main() {
	marketlog.SetupLogLevels()

	local := []*cli.Command{
		DaemonCmd,
		initCmd,
		configCmd,
	}

	app := &cli.App{
		Name:                 "capmarket",
		Usage:                "Compute capacity marketplace settlement node",
		Version:              build.UserVersion(),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			lcli.FlagRepo,
		},

		Commands: append(local, lcli.Commands...),
	}

	lcli.RunApp(app)
}
