package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the backgammon server"`
	Client   ClientCmd        `cmd:"" help:"Play in the terminal client"`
	Hint     HintCmd          `cmd:"" help:"Ask the engine for the best turn in a position"`
	Simulate SimulateCmd      `cmd:"" help:"Play strategy-vs-strategy games in process and report results"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("gammond"),
		kong.Description("Authoritative backgammon server with engine-backed bots"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
