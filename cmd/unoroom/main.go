package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the room server"`
	Client   ClientCmd        `cmd:"" help:"Create or join a room and play in the terminal"`
	Bot      BotCmd           `cmd:"" help:"Run a built-in bot against a server"`
	Simulate SimulateCmd      `cmd:"" help:"Play bot games in process and report statistics"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("unoroom"),
		kong.Description("Multiplayer UNO rooms over HTTP"),
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
