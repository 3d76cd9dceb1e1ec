package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/kite/api"
	"github.com/google/subcommands"
)

// serveCmd serves the HTTP API.
type serveCmd struct {
	addr  string
	watch bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolio over HTTP" }
func (*serveCmd) Usage() string {
	return `kite serve [-addr <host:port>] [-watch=false]

  Serves GET /api/status, /api/holdings, /api/totals and POST /api/sync.
  Prices are synced in the background unless -watch=false.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address, defaults to server.addr from the configuration")
	f.BoolVar(&c.watch, "watch", true, "sync prices periodically in the background")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, false, func(a *app) subcommands.ExitStatus {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		refresher, err := newRefresher(ctx, a, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating syncer: %v\n", err)
			return subcommands.ExitFailure
		}
		addr := c.addr
		if addr == "" {
			addr = a.cfg.Server.Addr
		}
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           api.NewServer(a.tracker, refresher, a.logger).Handler(),
			ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
		}

		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			if c.watch {
				refresher.Run(ctx)
			}
		}()

		serverErrCh := make(chan error, 1)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrCh <- err
			}
		}()
		a.logger.WithField("addr", addr).Info("api server started")

		status := subcommands.ExitSuccess
		select {
		case <-ctx.Done():
			a.logger.Info("shutdown signal received")
		case err := <-serverErrCh:
			a.logger.Errorf("api server terminated unexpectedly: %v", err)
			status = subcommands.ExitFailure
			stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Errorf("graceful shutdown failed: %v", err)
			status = subcommands.ExitFailure
		}
		<-watchDone
		a.logger.Info("api server stopped")
		return status
	})
}
