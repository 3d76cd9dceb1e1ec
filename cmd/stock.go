package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/kite"
	"github.com/google/subcommands"
)

// addCmd adds a position to the portfolio.
type addCmd struct {
	stockFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a stock position" }
func (*addCmd) Usage() string {
	return `kite add -code <code> -shares <n> -cost <price> [-name <name>] [-p short|mid|long] [-tp <price>] [-sl <price>]

  Adds a position. Its current price is the cost until the next sync.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" || !c.shares.set || !c.cost.set {
		f.Usage()
		return subcommands.ExitUsageError
	}
	period, err := kite.ParsePeriod(c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
		return subcommands.ExitUsageError
	}
	s := kite.NewStock(c.name, c.code, c.shares.value, c.cost.value, period)
	if err := c.apply(f, &s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withApp(ctx, true, func(a *app) subcommands.ExitStatus {
		if err := a.tracker.AddStock(s); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding stock: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Added %s (%s), id %s\n", s.DisplayName(a.tracker.Portfolio().Names), s.Code, s.ID)
		return subcommands.ExitSuccess
	})
}

// editCmd edits a position in place.
type editCmd struct {
	stockFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit a stock position" }
func (*editCmd) Usage() string {
	return `kite edit [-code <code>] [-shares <n>] [-cost <price>] [-name <name>] [-p short|mid|long] [-tp <price>] [-sl <price>] <id or code>

  Changes only the fields given on the command line.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || f.NFlag() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ref := f.Arg(0)
	return withApp(ctx, true, func(a *app) subcommands.ExitStatus {
		var flagErr error
		err := a.tracker.UpdateStock(ref, func(s *kite.Stock) { flagErr = c.apply(f, s) })
		if flagErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", flagErr)
			return subcommands.ExitUsageError
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error editing stock: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Updated %s\n", ref)
		return subcommands.ExitSuccess
	})
}

// removeCmd removes a position.
type removeCmd struct{}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove a stock position" }
func (*removeCmd) Usage() string {
	return `kite remove <id or code>

  Removes the position with the given id, or the first one with the given code.
`
}

func (*removeCmd) SetFlags(*flag.FlagSet) {}

func (*removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withApp(ctx, true, func(a *app) subcommands.ExitStatus {
		s, err := a.tracker.RemoveStock(f.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error removing stock: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Removed %s (%s)\n", s.DisplayName(a.tracker.Portfolio().Names), s.Code)
		return subcommands.ExitSuccess
	})
}
