package syncer

import (
	"context"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// DefaultPollInterval is how often a syncing run is re-read.
const DefaultPollInterval = 2 * time.Second

// FetchFunc reads the current sync run, typically from the API.
type FetchFunc func(ctx context.Context) (model.SyncRun, error)

// Update is one observation made by a Poller.
type Update struct {
	Run model.SyncRun
	Err error
}

// Poller re-reads sync status only while a run is syncing. Each Watch call
// starts one polling task owned by its caller; cancelling the context is
// the only way to stop it early.
type Poller struct {
	Interval time.Duration
}

// Watch fetches immediately and then every Interval while the observed run
// is syncing. Every observation is sent on the returned channel, which is
// closed once a non-syncing state is seen or ctx is cancelled. Fetch errors
// are sent and polling continues.
func (p Poller) Watch(ctx context.Context, fetch FetchFunc) <-chan Update {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	out := make(chan Update, 1)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			run, err := fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Update{Run: run, Err: err}:
			case <-ctx.Done():
				return
			}
			if err == nil && run.Status != model.SyncSyncing {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
