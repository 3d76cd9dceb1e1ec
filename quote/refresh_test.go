package quote

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/kite"
)

func TestRefresher_Refresh(t *testing.T) {
	var applied kite.SyncStatus
	r := NewRefresher(
		func(context.Context) kite.SyncStatus {
			st := kite.NewSyncStatus()
			st.Timestamp = "now"
			return st
		},
		func(st kite.SyncStatus) { applied = st },
		time.Minute, quietLogger(),
	)
	got, shared := r.Refresh(context.Background())
	if shared {
		t.Error("Refresh() shared = true, want false")
	}
	if got.Timestamp != "now" || applied.Timestamp != "now" {
		t.Errorf("Refresh() = %q, applied %q, want %q", got.Timestamp, applied.Timestamp, "now")
	}
	if r.Busy() {
		t.Error("Busy() = true after Refresh returned")
	}
}

func TestRefresher_SingleFlight(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	r := NewRefresher(
		func(context.Context) kite.SyncStatus {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			return kite.NewSyncStatus()
		},
		nil, time.Minute, quietLogger(),
	)

	var wg sync.WaitGroup
	var sharedCount atomic.Int32
	refresh := func() {
		defer wg.Done()
		if _, shared := r.Refresh(context.Background()); shared {
			sharedCount.Add(1)
		}
	}
	wg.Add(1)
	go refresh()
	<-started
	if !r.Busy() {
		t.Error("Busy() = false while a refresh is in flight")
	}
	wg.Add(1)
	go refresh()
	time.Sleep(50 * time.Millisecond) // let the second caller join
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("sync calls = %d, want 1", got)
	}
	if got := sharedCount.Load(); got != 2 {
		t.Errorf("shared results = %d, want 2", got)
	}
}

func TestRefresher_Run(t *testing.T) {
	var calls, running, overlap atomic.Int32
	r := NewRefresher(
		func(context.Context) kite.SyncStatus {
			if running.Add(1) > 1 {
				overlap.Add(1)
			}
			defer running.Add(-1)
			calls.Add(1)
			time.Sleep(15 * time.Millisecond) // longer than the interval
			return kite.NewSyncStatus()
		},
		nil, 5*time.Millisecond, quietLogger(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := r.Run(ctx)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want %v", err, context.DeadlineExceeded)
	}
	if calls.Load() < 2 {
		t.Errorf("sync calls = %d, want at least 2", calls.Load())
	}
	if overlap.Load() != 0 {
		t.Errorf("%d syncs overlapped", overlap.Load())
	}
	if r.Busy() {
		t.Error("Busy() = true after Run returned")
	}
}
