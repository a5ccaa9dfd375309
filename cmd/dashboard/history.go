package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"StockDashboard/internal/config"
	"StockDashboard/internal/notifier"
	"StockDashboard/internal/recorder"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
)

type historyCmd struct {
	configPath string
	limit      int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list recent dashboard runs" }
func (*historyCmd) Usage() string {
	return `history [-config <file>] [-n <count>]

  Prints the most recent runs recorded in database.sqlite_path, newest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	f.StringVar(&c.configPath, "config", def, "Path to the YAML config file.")
	f.IntVar(&c.limit, "n", 20, "Number of runs to show.")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		log.Printf("[ERROR] load config: %v", err)
		return subcommands.ExitUsageError
	}
	if cfg.Database.SQLitePath == "" {
		fmt.Fprintln(os.Stderr, "database.sqlite_path (or SQLITE_PATH) is not set; no history is kept")
		return subcommands.ExitUsageError
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return subcommands.ExitFailure
	}
	defer rec.Close()

	runs, err := rec.ListRuns(c.limit)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return subcommands.ExitFailure
	}
	writeHistory(os.Stdout, runs)
	return subcommands.ExitSuccess
}

func writeHistory(out io.Writer, runs []recorder.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTICKER\tOUTCOME\tROWS\tCLOSE\tCHANGE\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%+.2f%%\t%s\n",
			humanize.Time(r.Timestamp), r.Ticker, r.Outcome, r.Rows, notifier.FormatUSD(r.LatestClose), r.ChangePct, r.Source)
	}
	w.Flush()
}
