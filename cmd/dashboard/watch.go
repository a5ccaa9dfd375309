package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"StockDashboard/internal/scheduler"

	"github.com/google/subcommands"
)

type watchCmd struct {
	appFlags
	now bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "rebuild the dashboard on a cron schedule" }
func (*watchCmd) Usage() string {
	return `watch [-config <file>] [-workbook <file.xlsx>] [-mock] [-now]

  Rebuilds the dashboard whenever schedule.refresh_cron fires (six fields,
  seconds first) until interrupted. A run still in progress makes the next
  activation a no-op.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.now, "now", os.Getenv("RUN_ON_START") == "true", "Also run once immediately.")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.load()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return subcommands.ExitUsageError
	}
	d := newDashboard(cfg, c.mock)
	defer d.Recorder.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.NewScheduler(ctx, func(ctx context.Context) error {
		_, err := d.Run(ctx, cfg.Workbook.Path)
		return err
	})
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Printf("[ERROR] %v", err)
		return subcommands.ExitUsageError
	}
	sched.Start()
	defer sched.Stop()
	log.Printf("[INFO] watching %s, next refresh at %s", cfg.Workbook.Path, sched.Next().Format("2006-01-02 15:04:05"))

	if c.now {
		log.Println("[INFO] running initial refresh")
		sched.Trigger()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	return subcommands.ExitSuccess
}
