package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Ingest  IngestCmd        `cmd:"" help:"Load hand-history files into the database"`
	Stats   StatsCmd         `cmd:"" help:"Recompute player sessions and win rates"`
	Top     TopCmd           `cmd:"" help:"Show the highest win-rate players"`
	Export  ExportCmd        `cmd:"" help:"Write a filtered hand dataset to disk"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("railbird"),
		kong.Description("Poker hand-history analytics: parse histories, reconstruct sessions, export datasets"),
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
