package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/kite"
	"github.com/etnz/kite/renderer"
	"github.com/google/subcommands"
)

// windCmd shows or sets the market mood.
type windCmd struct{}

func (*windCmd) Name() string     { return "wind" }
func (*windCmd) Synopsis() string { return "show or set the market mood" }
func (*windCmd) Usage() string {
	return `kite wind [<id>]

  Without argument, lists the moods and marks the current one.
  With an id, sets the current mood.
`
}

func (*windCmd) SetFlags(*flag.FlagSet) {}

func (*windCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	set := f.NArg() == 1
	return withApp(ctx, set, func(a *app) subcommands.ExitStatus {
		if set {
			id, err := strconv.Atoi(f.Arg(0))
			if err == nil {
				err = a.tracker.SetWind(id)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error setting wind: %v\n", err)
				return subcommands.ExitUsageError
			}
		}
		current := a.tracker.Portfolio().WindID
		var b strings.Builder
		b.WriteString("## 風度\n\n")
		for _, w := range kite.WindMoods {
			mark := ""
			if w.ID == current {
				mark = " ⬅"
			}
			fmt.Fprintf(&b, "%d. %s%s\n", w.ID, w.Name, mark)
		}
		printMarkdown(b.String())
		return subcommands.ExitSuccess
	})
}

// settleCmd records a snapshot of the portfolio value.
type settleCmd struct{}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "record a snapshot of the portfolio value" }
func (*settleCmd) Usage() string {
	return `kite settle

  Records the market value, unrealized profit and mood at the top of the
  history.
`
}

func (*settleCmd) SetFlags(*flag.FlagSet) {}

func (*settleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, true, func(a *app) subcommands.ExitStatus {
		snap := a.tracker.Settle()
		fmt.Printf("Settled on %s: market value %s, profit %s\n",
			snap.Date, kite.NT(snap.MarketValue), kite.NT(snap.TotalProfit).SignedString())
		return subcommands.ExitSuccess
	})
}

// historyCmd lists or clears the snapshots.
type historyCmd struct {
	clear bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list the settled snapshots" }
func (*historyCmd) Usage() string {
	return `kite history [-clear]

  Lists the snapshots, newest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.clear, "clear", false, "delete every snapshot")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, c.clear, func(a *app) subcommands.ExitStatus {
		if c.clear {
			a.tracker.ClearHistory()
			fmt.Println("History cleared")
			return subcommands.ExitSuccess
		}
		printMarkdown(renderer.RenderHistory(dashboard(a)))
		return subcommands.ExitSuccess
	})
}

func dashboard(a *app) *renderer.Dashboard {
	label, errs := a.tracker.LastSync()
	return renderer.NewDashboard(a.tracker.Portfolio(), label, errs)
}
