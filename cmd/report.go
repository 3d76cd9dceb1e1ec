package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/kite/advisor"
	"github.com/etnz/kite/renderer"
	"github.com/google/subcommands"
)

// summaryCmd prints the portfolio totals.
type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio totals" }
func (*summaryCmd) Usage() string {
	return `kite summary

  Displays the budget, invested capital, market value, unrealized profit,
  available cash and the current mood.
`
}

func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, false, func(a *app) subcommands.ExitStatus {
		printMarkdown(renderer.RenderSummary(dashboard(a)))
		return subcommands.ExitSuccess
	})
}

// holdingsCmd prints the holdings table.
type holdingsCmd struct {
	sync bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the stock positions" }
func (*holdingsCmd) Usage() string {
	return `kite holdings [-u]

  Displays every position with its value, profit, return and take profit or
  stop loss alerts.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.sync, "u", false, "sync prices before displaying the holdings")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, c.sync, func(a *app) subcommands.ExitStatus {
		if c.sync {
			if err := syncNow(ctx, a); err != nil {
				fmt.Fprintf(os.Stderr, "Error updating prices: %v\n", err)
				return subcommands.ExitFailure
			}
		}
		printMarkdown(renderer.RenderHoldings(dashboard(a)))
		return subcommands.ExitSuccess
	})
}

// syncNow runs a single sync and applies it.
func syncNow(ctx context.Context, a *app) error {
	syncer, err := a.cfg.Sync.Syncer(a.logger)
	if err != nil {
		return err
	}
	status := syncer.FetchAll(ctx)
	a.tracker.Apply(status)
	for _, e := range status.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}
	return nil
}

// reportCmd prints or exports the full report.
type reportCmd struct {
	html string
	sync bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display or export the full portfolio report" }
func (*reportCmd) Usage() string {
	return `kite report [-u] [-html <file>]

  Displays the totals, holdings and history. With -html, writes them as a
  standalone HTML page instead.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.html, "html", "", "write the report as HTML into this file")
	f.BoolVar(&c.sync, "u", false, "sync prices before the report")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, c.sync, func(a *app) subcommands.ExitStatus {
		if c.sync {
			if err := syncNow(ctx, a); err != nil {
				fmt.Fprintf(os.Stderr, "Error updating prices: %v\n", err)
				return subcommands.ExitFailure
			}
		}
		md := renderer.RenderReport(dashboard(a))
		if c.html == "" {
			printMarkdown(md)
			return subcommands.ExitSuccess
		}
		page, err := renderer.HTML("放風箏 投資報告", md)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering HTML: %v\n", err)
			return subcommands.ExitFailure
		}
		if err := os.WriteFile(c.html, page, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", c.html, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Report written to %s\n", c.html)
		return subcommands.ExitSuccess
	})
}

// adviseCmd asks the AI advisor for a review.
type adviseCmd struct{}

func (*adviseCmd) Name() string     { return "advise" }
func (*adviseCmd) Synopsis() string { return "ask the AI advisor to review the portfolio" }
func (*adviseCmd) Usage() string {
	return `kite advise

  Sends the holdings, totals and mood to Gemini and prints its advice.
  Requires advisor.api_key, or the KITE_ADVISOR_API_KEY environment variable.
`
}

func (*adviseCmd) SetFlags(*flag.FlagSet) {}

func (*adviseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, false, func(a *app) subcommands.ExitStatus {
		adv, err := a.cfg.Advisor.Advisor(ctx)
		if err == nil {
			var advice string
			advice, err = adv.Advise(ctx, a.tracker.Portfolio())
			if err == nil {
				printMarkdown(advice)
				return subcommands.ExitSuccess
			}
		}
		a.logger.WithError(err).Debug("advisor failure")
		fmt.Fprintln(os.Stderr, advisor.Explain(err))
		return subcommands.ExitFailure
	})
}
