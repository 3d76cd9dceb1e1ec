package quote

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/etnz/kite"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultInterval is the period between two automatic refreshes.
const DefaultInterval = 5 * time.Minute

// Refresher periodically syncs prices and applies them. At most one sync is
// in flight at any time.
type Refresher struct {
	syncFn   func(context.Context) kite.SyncStatus
	apply    func(kite.SyncStatus)
	interval time.Duration
	logger   logrus.FieldLogger

	group singleflight.Group
	busy  atomic.Bool
}

// NewRefresher creates a Refresher running syncFn every interval and handing
// each status to apply.
func NewRefresher(syncFn func(context.Context) kite.SyncStatus, apply func(kite.SyncStatus), interval time.Duration, logger logrus.FieldLogger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Refresher{syncFn: syncFn, apply: apply, interval: interval, logger: logger}
}

// Refresh syncs and applies the result. A caller arriving while a refresh is
// in flight waits for it and shares its status instead of starting another.
func (r *Refresher) Refresh(ctx context.Context) (status kite.SyncStatus, shared bool) {
	v, _, shared := r.group.Do("refresh", func() (any, error) {
		r.busy.Store(true)
		defer r.busy.Store(false)
		st := r.syncFn(ctx)
		if r.apply != nil {
			r.apply(st)
		}
		return st, nil
	})
	return v.(kite.SyncStatus), shared
}

// Interval returns the period between two automatic refreshes.
func (r *Refresher) Interval() time.Duration { return r.interval }

// Busy reports whether a refresh is in flight.
func (r *Refresher) Busy() bool { return r.busy.Load() }

// Run refreshes immediately and then on every tick, until ctx is done. Ticks
// arriving while a refresh is still in flight are skipped. Run returns once
// the last refresh it started has completed.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	tick := func() {
		if r.Busy() {
			r.logger.Warn("refresh still in flight, skipping this tick")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Refresh(ctx)
		}()
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick()
		}
	}
}
