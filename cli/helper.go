package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

type PrintHelpErr struct {
	Err error
	Ctx *cli.Context
}

func (e *PrintHelpErr) Error() string {
	return e.Err.Error()
}

func (e *PrintHelpErr) Unwrap() error {
	return e.Err
}

func (e *PrintHelpErr) Is(o error) bool {
	_, ok := o.(*PrintHelpErr)
	return ok
}

func ShowHelp(cctx *cli.Context, err error) error {
	return &PrintHelpErr{Err: err, Ctx: cctx}
}

func RunApp(app *cli.App) {
	if err := app.Run(os.Args); err != nil {
		if os.Getenv("CAPMARKET_DEV") != "" {
			log.Warnf("%+v", err)
		} else {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err)
		}
		phe, ok := err.(*PrintHelpErr)
		if ok {
			_ = cli.ShowCommandHelp(phe.Ctx, phe.Ctx.Command.Name)
		}
		os.Exit(1)
	}
}

// AppFmt prints to the app writer so command output can be captured.
type AppFmt struct {
	app *cli.App
}

func NewAppFmt(a *cli.App) *AppFmt {
	return &AppFmt{app: a}
}

func (a *AppFmt) w() io.Writer {
	if a.app.Writer != nil {
		return a.app.Writer
	}
	return os.Stdout
}

func (a *AppFmt) Print(args ...interface{}) {
	fmt.Fprint(a.w(), args...)
}

func (a *AppFmt) Println(args ...interface{}) {
	fmt.Fprintln(a.w(), args...)
}

func (a *AppFmt) Printf(fmtstr string, args ...interface{}) {
	fmt.Fprintf(a.w(), fmtstr, args...)
}
