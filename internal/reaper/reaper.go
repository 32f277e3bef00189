// Package reaper deletes seat holds whose TTL has elapsed.  It runs on a
// fixed interval independently of request handling.  Deleting only rows
// that are already expired makes a sweep idempotent, so several processes
// may run their own reaper against the same store.
package reaper

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultInterval is the sweep period used when none is configured.
const DefaultInterval = 60 * time.Second

// Sweeper removes holds that expired at or before now.
type Sweeper interface {
	DeleteExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}

// Reaper periodically sweeps expired holds.  Start and Stop may be called
// from different goroutines.
type Reaper struct {
	store    Sweeper
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped Reaper.  A non-positive interval falls back to
// DefaultInterval.
func New(store Sweeper, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reaper{store: store, interval: interval, now: time.Now}
}

// Interval returns the sweep period.
func (r *Reaper) Interval() time.Duration { return r.interval }

// Sweep runs one cleanup pass and reports how many holds were removed.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	return r.store.DeleteExpiredHolds(ctx, r.now().UTC())
}

// Start launches the sweep loop.  The first pass runs immediately, then
// one per interval until ctx is cancelled or Stop is called.  Calling
// Start on a running Reaper has no effect.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Reaper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("reaper: started, sweeping expired holds every %s", r.interval)
	r.sweepAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("reaper: stopped")
			return
		case <-ticker.C:
			r.sweepAndLog(ctx)
		}
	}
}

// sweepAndLog never propagates failures; the next tick is the retry.
func (r *Reaper) sweepAndLog(ctx context.Context) {
	n, err := r.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("reaper: sweep failed: %v", err)
		}
		return
	}
	if n > 0 {
		log.Printf("reaper: removed %d expired holds", n)
	}
}
