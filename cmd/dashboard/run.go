package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"
)

type runCmd struct {
	appFlags
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "rebuild the dashboard sheet once" }
func (*runCmd) Usage() string {
	return `run [-config <file>] [-workbook <file.xlsx>] [-mock]

  Reads the ticker from the TICKER name, fetches the last 30 days of prices
  and rewrites the "Stock Dashboard" sheet, then saves the workbook.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.load()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return subcommands.ExitUsageError
	}
	d := newDashboard(cfg, c.mock)
	defer d.Recorder.Close()

	if _, err := d.Run(ctx, cfg.Workbook.Path); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
