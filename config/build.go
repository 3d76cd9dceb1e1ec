package config

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/etnz/kite"
	"github.com/etnz/kite/advisor"
	"github.com/etnz/kite/quote"
	"github.com/etnz/kite/store"
	"github.com/sirupsen/logrus"
)

var knownSources = []string{quote.TWSE.ID, quote.TPEx.ID}

// NewLogger creates the logger described by c.
func NewLogger(c LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", c.Level, err)
	}
	logger.SetLevel(level)

	switch c.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	}
	return logger, nil
}

// Fetcher creates the HTTP fetcher described by c.
func (c SyncConfig) Fetcher(logger logrus.FieldLogger) *quote.Fetcher {
	return quote.NewFetcher(
		quote.WithAttempts(c.Attempts),
		quote.WithTimeout(c.Timeout),
		quote.WithBackoff(c.Backoff),
		quote.WithLogger(logger),
	)
}

// SourceList returns the configured sources, with relay overrides applied.
func (c SyncConfig) SourceList() ([]quote.Source, error) {
	sources := make([]quote.Source, 0, len(c.Sources))
	for _, id := range c.Sources {
		src, err := quote.Lookup(id)
		if err != nil {
			return nil, err
		}
		relays := make([]quote.Relay, len(src.Relays))
		for i, r := range src.Relays {
			switch {
			case r.Name == quote.CorsProxy.Name && c.CorsProxy != "":
				r.Base = c.CorsProxy
			case r.Name == quote.AllOrigins.Name && c.AllOrigins != "":
				r.Base = c.AllOrigins
			}
			relays[i] = r
		}
		src.Relays = relays
		sources = append(sources, src)
	}
	return sources, nil
}

// Syncer creates the syncer described by c.
func (c SyncConfig) Syncer(logger logrus.FieldLogger) (*quote.Syncer, error) {
	sources, err := c.SourceList()
	if err != nil {
		return nil, err
	}
	return quote.NewSyncer(c.Fetcher(logger), sources, quote.WithSyncLogger(logger)), nil
}

// Open opens the configured store. The returned closer releases it.
func (c StoreConfig) Open(ctx context.Context) (kite.Store, io.Closer, error) {
	switch c.Kind {
	case "redis":
		r, err := store.NewRedis(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, c.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	case "file", "":
		return store.NewFile(c.Dir), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", c.Kind)
}

// Advisor creates the advisor described by c. It fails with
// advisor.ErrNoAPIKey when no key is configured.
func (c AdvisorConfig) Advisor(ctx context.Context) (*advisor.Advisor, error) {
	return advisor.Dial(ctx, c.APIKey,
		advisor.WithModel(c.Model),
		advisor.WithTemperature(c.Temperature),
		advisor.WithMaxTokens(c.MaxTokens),
	)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
