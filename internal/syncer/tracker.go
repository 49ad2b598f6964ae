// Package syncer tracks and runs CRM synchronisations and polls their status.
package syncer

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/morehouse/mhouse/internal/model"
)

var (
	// ErrAlreadySyncing is returned when a run is requested while one is in flight.
	ErrAlreadySyncing = errors.New("sync already in progress")
	// ErrNotSyncing is returned when finishing a run that is not in flight.
	ErrNotSyncing = errors.New("no sync in progress")
)

// Tracker holds the sync state machine:
//
//	idle -> syncing -> completed | error -> (next trigger) idle -> syncing
//
// Only one run may be syncing at a time; a second trigger is rejected.
type Tracker struct {
	mu      sync.Mutex
	run     model.SyncRun
	subs    map[int]chan model.SyncRun
	nextSub int
	now     func() time.Time
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{
		run:  model.SyncRun{Status: model.SyncIdle},
		subs: make(map[int]chan model.SyncRun),
		now:  time.Now,
	}
}

// Restore seeds the tracker from a persisted run. A run persisted as
// syncing was interrupted by a restart and is restored as an error.
func (t *Tracker) Restore(run model.SyncRun) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if run.Status == model.SyncSyncing {
		run.Status = model.SyncError
		run.Result = &model.SyncResult{Error: "interrupted by restart"}
	}
	t.run = run
}

// Begin moves the tracker into syncing with a fresh run ID.
func (t *Tracker) Begin() (model.SyncRun, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.run.Status == model.SyncSyncing {
		return t.run, ErrAlreadySyncing
	}
	if t.run.Status.Terminal() {
		t.run.Status = model.SyncIdle
		t.publishLocked()
	}

	started := t.now()
	t.run = model.SyncRun{
		ID:           uuid.NewString(),
		Status:       model.SyncSyncing,
		StartedAt:    &started,
		LastSyncedAt: t.run.LastSyncedAt,
	}
	t.publishLocked()
	return t.run, nil
}

// Complete finishes the current run successfully.
func (t *Tracker) Complete(result model.SyncResult) (model.SyncRun, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.run.Status != model.SyncSyncing {
		return t.run, ErrNotSyncing
	}
	finished := t.now()
	t.run.Status = model.SyncCompleted
	t.run.FinishedAt = &finished
	t.run.LastSyncedAt = &finished
	t.run.Result = &result
	t.publishLocked()
	return t.run, nil
}

// Fail finishes the current run with an error.
func (t *Tracker) Fail(cause error) (model.SyncRun, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.run.Status != model.SyncSyncing {
		return t.run, ErrNotSyncing
	}
	finished := t.now()
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	t.run.Status = model.SyncError
	t.run.FinishedAt = &finished
	t.run.Result = &model.SyncResult{Error: msg}
	t.publishLocked()
	return t.run, nil
}

// Reset returns a finished tracker to idle, keeping LastSyncedAt.
// It does nothing while a run is syncing.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.run.Status == model.SyncSyncing || t.run.Status == model.SyncIdle {
		return
	}
	t.run = model.SyncRun{Status: model.SyncIdle, LastSyncedAt: t.run.LastSyncedAt}
	t.publishLocked()
}

// Status returns a copy of the current run.
func (t *Tracker) Status() model.SyncRun {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run
}

// Subscribe returns a channel receiving every state transition and a
// function to unsubscribe. Slow subscribers miss transitions rather than
// blocking the tracker.
func (t *Tracker) Subscribe(buffer int) (<-chan model.SyncRun, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan model.SyncRun, buffer)

	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
			close(ch)
		})
	}
}

func (t *Tracker) publishLocked() {
	for _, ch := range t.subs {
		select {
		case ch <- t.run:
		default:
		}
	}
}
