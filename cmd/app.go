// Package cmd implements the CLI application to track a Taiwan equity
// portfolio.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/kite"
	"github.com/etnz/kite/config"
	"github.com/etnz/kite/renderer"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
}

// Commands returns every subcommand, for shell completion.
func Commands() []subcommands.Command {
	var all []subcommands.Command
	for _, g := range groups {
		all = append(all, g.commands...)
	}
	return all
}

var groups = []struct {
	name     string
	commands []subcommands.Command
}{
	{"prices", []subcommands.Command{&syncCmd{}, &watchCmd{}}},
	{"holdings", []subcommands.Command{&addCmd{}, &editCmd{}, &removeCmd{}}},
	{"cash", []subcommands.Command{&depositCmd{}, &withdrawCmd{}}},
	{"market", []subcommands.Command{&windCmd{}, &settleCmd{}, &historyCmd{}}},
	{"reports", []subcommands.Command{&summaryCmd{}, &holdingsCmd{}, &reportCmd{}, &adviseCmd{}}},
	{"server", []subcommands.Command{&serveCmd{}}},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to a YAML configuration file. KITE_* environment variables override its values.")
var dataDir = flag.String("data", "", "Folder of the file store, overrides store.dir from the configuration")
var Verbose = flag.Bool("v", false, "Log debug messages")

// app is the state shared by the subcommands.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	store   kite.Store
	closer  io.Closer
	tracker *kite.Tracker
}

// openApp loads the configuration and the portfolio.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadAndValidate(ctx, *configFile, nil)
	if err != nil {
		return nil, err
	}
	if *dataDir != "" {
		cfg.Store.Kind, cfg.Store.Dir = "file", *dataDir
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	if *Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	store, closer, err := cfg.Store.Open(ctx)
	if err != nil {
		return nil, err
	}
	tracker, err := kite.Open(ctx, store)
	if err != nil {
		closer.Close()
		return nil, err
	}
	logger.WithFields(logrus.Fields{"store": cfg.Store.Kind}).Debug("portfolio loaded")
	return &app{cfg: cfg, logger: logger, store: store, closer: closer, tracker: tracker}, nil
}

func (a *app) Close() error { return a.closer.Close() }

// withApp opens the app, runs fn and optionally saves the portfolio.
func withApp(ctx context.Context, save bool, fn func(a *app) subcommands.ExitStatus) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	status := fn(a)
	if status != subcommands.ExitSuccess || !save {
		return status
	}
	if err := a.tracker.Save(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, or prints it as is when it
// cannot.
func printMarkdown(md string) {
	out, err := renderer.Terminal(md, 100)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
