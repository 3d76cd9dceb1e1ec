package quote

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/etnz/kite"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// systemError is reported when the sync itself, not a source, fails.
const systemError = "系統核心異常，請檢查網路狀態"

// Syncer queries every source concurrently and merges their quotes.
type Syncer struct {
	fetcher *Fetcher
	sources []Source
	logger  logrus.FieldLogger
	now     func() time.Time
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithSyncLogger sets the logger source failures go to.
func WithSyncLogger(l logrus.FieldLogger) SyncerOption {
	return func(s *Syncer) { s.logger = l }
}

// WithClock sets the clock used to stamp statuses and bust relay caches.
func WithClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer creates a Syncer over sources. A nil fetcher uses the defaults.
func NewSyncer(f *Fetcher, sources []Source, opts ...SyncerOption) *Syncer {
	if f == nil {
		f = NewFetcher()
	}
	s := &Syncer{
		fetcher: f,
		sources: sources,
		logger:  logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// outcome is the settled result of one source.
type outcome struct {
	quotes Quotes
	err    error
}

// FetchAll queries all sources and returns the merged status. It never fails:
// a failing source only adds a labeled entry to the errors, and the quotes of
// the others are still returned.
func (s *Syncer) FetchAll(ctx context.Context) (status kite.SyncStatus) {
	status = kite.NewSyncStatus()
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("critical sync error")
			status.Errors = append(status.Errors, systemError)
		}
		status.Timestamp = kite.FormatTW(s.now())
	}()

	now := s.now()
	outcomes := make([]outcome, len(s.sources))
	// no WithContext: a failing source must not cancel its siblings.
	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			outcomes[i] = s.settle(ctx, src, now)
			return nil
		})
	}
	g.Wait()

	for i, src := range s.sources {
		o := outcomes[i]
		if o.err != nil {
			s.logger.WithField("source", src.ID).Errorf("sync failure: %v", o.err)
			status.Errors = append(status.Errors, fmt.Sprintf("%s: %v", src.Label, o.err))
			continue
		}
		maps.Copy(status.Prices, o.quotes.Prices)
		maps.Copy(status.Names, o.quotes.Names)
	}
	return status
}

// settle runs one source, turning a panic into that source's error.
func (s *Syncer) settle(ctx context.Context, src Source, now time.Time) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("unexpected failure: %v", r)}
		}
	}()
	q, err := src.Fetch(ctx, s.fetcher, now)
	return outcome{quotes: q, err: err}
}
