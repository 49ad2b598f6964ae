package syncer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

func drain(t *testing.T, ch <-chan Update) []Update {
	t.Helper()
	var got []Update
	timeout := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, u)
		case <-timeout:
			t.Fatal("poller channel not closed")
		}
	}
}

func TestPoller_StopsOnTerminalState(t *testing.T) {
	states := []model.SyncState{model.SyncSyncing, model.SyncSyncing, model.SyncCompleted, model.SyncIdle}
	var calls atomic.Int32
	fetch := func(context.Context) (model.SyncRun, error) {
		i := calls.Add(1) - 1
		return model.SyncRun{Status: states[i]}, nil
	}

	got := drain(t, Poller{Interval: 5 * time.Millisecond}.Watch(context.Background(), fetch))
	if len(got) != 3 {
		t.Fatalf("updates = %d, want 3", len(got))
	}
	if got[2].Run.Status != model.SyncCompleted {
		t.Fatalf("last update = %q, want completed", got[2].Run.Status)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("fetches = %d, want 3 (no polling after terminal state)", n)
	}
}

func TestPoller_SingleFetchWhenNotSyncing(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (model.SyncRun, error) {
		calls.Add(1)
		return model.SyncRun{Status: model.SyncIdle}, nil
	}
	got := drain(t, Poller{Interval: time.Millisecond}.Watch(context.Background(), fetch))
	if len(got) != 1 || calls.Load() != 1 {
		t.Fatalf("updates = %d, fetches = %d, want 1 and 1", len(got), calls.Load())
	}
}

func TestPoller_ErrorsKeepPolling(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (model.SyncRun, error) {
		if calls.Add(1) == 1 {
			return model.SyncRun{}, errors.New("connection refused")
		}
		return model.SyncRun{Status: model.SyncError}, nil
	}
	got := drain(t, Poller{Interval: time.Millisecond}.Watch(context.Background(), fetch))
	if len(got) != 2 {
		t.Fatalf("updates = %d, want 2", len(got))
	}
	if got[0].Err == nil {
		t.Fatal("first update should carry the fetch error")
	}
	if got[1].Run.Status != model.SyncError {
		t.Fatalf("second update = %q, want error", got[1].Run.Status)
	}
}

func TestPoller_CancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(context.Context) (model.SyncRun, error) {
		return model.SyncRun{Status: model.SyncSyncing}, nil
	}
	ch := Poller{Interval: time.Hour}.Watch(ctx, fetch)

	select {
	case u := <-ch:
		if u.Run.Status != model.SyncSyncing {
			t.Fatalf("first update = %q, want syncing", u.Run.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial update")
	}

	cancel()
	drain(t, ch)
}
