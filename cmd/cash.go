package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/kite"
	"github.com/google/subcommands"
)

// --- Deposit Command ---

type depositCmd struct {
	amount decimalFlag
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "record a cash deposit into the portfolio" }
func (*depositCmd) Usage() string {
	return `kite deposit -a <amount>

  Records a cash deposit. Deposits minus withdrawals make the total budget.
`
}
func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	c.amount = decimalFlag{}
	f.Var(&c.amount, "a", "Amount of cash to deposit, in TWD")
}
func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return recordCash(ctx, f, kite.Deposit, c.amount)
}

// --- Withdraw Command ---

type withdrawCmd struct {
	amount decimalFlag
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "record a cash withdrawal from the portfolio" }
func (*withdrawCmd) Usage() string {
	return `kite withdraw -a <amount>

  Records a cash withdrawal.
`
}
func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	c.amount = decimalFlag{}
	f.Var(&c.amount, "a", "Amount of cash to withdraw, in TWD")
}
func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return recordCash(ctx, f, kite.Withdraw, c.amount)
}

func recordCash(ctx context.Context, f *flag.FlagSet, typ kite.TransactionType, amount decimalFlag) subcommands.ExitStatus {
	if !amount.set {
		f.Usage()
		return subcommands.ExitUsageError
	}
	tx, err := kite.NewTransaction(typ, amount.value, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, true, func(a *app) subcommands.ExitStatus {
		a.tracker.Record(tx)
		fmt.Printf("Recorded %s of %s on %s\n", typ, kite.NT(tx.Amount), tx.Date)
		return subcommands.ExitSuccess
	})
}
