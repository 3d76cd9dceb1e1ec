package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/etnz/kite"
	"github.com/etnz/kite/quote"
	"github.com/etnz/kite/renderer"
	"github.com/google/subcommands"
)

// syncCmd fetches the latest closing prices once.
type syncCmd struct {
	json bool
}

func (*syncCmd) Name() string { return "sync" }
func (*syncCmd) Synopsis() string {
	return "fetch the latest prices from the exchanges and update holdings"
}
func (*syncCmd) Usage() string {
	return `kite sync [-json]

  Queries every configured exchange concurrently and updates the price of the
  held stocks. A failing exchange is reported without discarding the prices
  of the others.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the sync status as JSON")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, true, func(a *app) subcommands.ExitStatus {
		syncer, err := a.cfg.Sync.Syncer(a.logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating syncer: %v\n", err)
			return subcommands.ExitFailure
		}
		status := syncer.FetchAll(ctx)
		a.tracker.Apply(status)

		if c.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(status); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding status: %v\n", err)
				return subcommands.ExitFailure
			}
		} else {
			printMarkdown(renderer.RenderSyncStatus(status))
			if missing := a.tracker.Portfolio().Unquoted(status); len(missing) > 0 {
				fmt.Fprintf(os.Stderr, "no quote for: %s\n", strings.Join(missing, ", "))
			}
		}
		if !status.OK() && len(status.Prices) == 0 {
			// nothing to save, every source failed.
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

// watchCmd keeps prices up to date until interrupted.
type watchCmd struct {
	interval time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "sync prices periodically until interrupted" }
func (*watchCmd) Usage() string {
	return `kite watch [-i <interval>]

  Syncs prices immediately and then at every interval, saving the portfolio
  after each sync. A tick is skipped while the previous sync is still running.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.interval, "i", 0, "interval between two syncs, defaults to sync.interval from the configuration")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, false, func(a *app) subcommands.ExitStatus {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		refresher, err := newRefresher(ctx, a, c.interval)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating syncer: %v\n", err)
			return subcommands.ExitFailure
		}
		a.logger.WithField("interval", refresher.Interval()).Info("watching prices")
		refresher.Run(ctx)
		a.logger.Info("stopped watching prices")
		return subcommands.ExitSuccess
	})
}

// newRefresher creates a refresher that applies each sync to the portfolio
// and saves it.
func newRefresher(ctx context.Context, a *app, interval time.Duration) (*quote.Refresher, error) {
	syncer, err := a.cfg.Sync.Syncer(a.logger)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = a.cfg.Sync.Interval
	}
	apply := func(status kite.SyncStatus) {
		a.tracker.Apply(status)
		if err := a.tracker.Save(context.WithoutCancel(ctx)); err != nil {
			a.logger.Errorf("cannot save portfolio: %v", err)
			return
		}
		entry := a.logger.WithField("prices", len(status.Prices))
		if !status.OK() {
			entry.WithField("errors", status.Errors).Warn(status.Label())
			return
		}
		entry.Info(status.Label())
	}
	return quote.NewRefresher(syncer.FetchAll, apply, interval, a.logger), nil
}
