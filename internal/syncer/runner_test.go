package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/monday"
	"github.com/morehouse/mhouse/internal/store"
)

type fakeCRM struct {
	boards map[string][]monday.Item
	errs   map[string]error
	gate   chan struct{}
}

func (f fakeCRM) BoardItems(ctx context.Context, boardID string) ([]monday.Item, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[boardID]; err != nil {
		return nil, err
	}
	return f.boards[boardID], nil
}

func cv(id, text string) monday.ColumnValue {
	return monday.ColumnValue{ID: id, Text: text}
}

func testBoards() (Boards, fakeCRM) {
	cols := monday.DefaultColumns()
	stay := func(from, to string) monday.ColumnValue {
		return monday.ColumnValue{ID: cols["length_of_stay"], Value: `{"from":"` + from + `","to":"` + to + `"}`}
	}
	b := Boards{Rooms: "rooms", Contracts: "won", Qualified: "leads"}
	crm := fakeCRM{boards: map[string][]monday.Item{
		"rooms": {
			{ID: "r1", Name: "1.01", ColumnValues: []monday.ColumnValue{cv(cols["room.floor"], "1"), cv(cols["room.weekly_rate"], "300")}},
			{ID: "r2", Name: "1.02"},
		},
		"won": {
			{ID: "d1", Name: "Ada", ColumnValues: []monday.ColumnValue{
				cv(cols["unit"], "1.01"), stay("2025-09-01", "2026-06-30"),
				cv(cols["instalment_1_amount"], "6000"), cv(cols["instalment_1_due"], "2025-09-01"),
				cv(cols["instalment_2_amount"], "6000"), cv(cols["instalment_2_due"], "2026-01-01"),
				cv(cols["viewing_date"], "2025-04-10"),
			}},
			{ID: "d2", Name: "Grace", ColumnValues: []monday.ColumnValue{
				cv(cols["unit"], "M10"), stay("2025-09-01", "2025-11-30"),
				cv(cols["gross_income"], "3000"), cv(cols["payment_plan"], "Single Payment"),
			}},
			{ID: "d3", Name: "No Dates", ColumnValues: []monday.ColumnValue{cv(cols["unit"], "1.02")}},
		},
		"leads": {
			{ID: "q1", Name: "Alan", ColumnValues: []monday.ColumnValue{cv(cols["qualified.viewing_date"], "2025-08-01")}},
		},
	}}
	return b, crm
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "mhouse.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRunner_Sync(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	boards, crm := testBoards()
	r := NewRunner(RunnerConfig{CRM: crm, Store: st, Boards: boards})

	result, err := r.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("Skipped = %d, want 1", result.Skipped)
	}
	if result.Changes["rooms"] != 3 {
		t.Fatalf("rooms change = %d, want 3 (two listed plus placeholder MEZZ 10)", result.Changes["rooms"])
	}
	if result.Changes["contracts"] != 2 {
		t.Fatalf("contracts change = %d, want 2", result.Changes["contracts"])
	}
	if result.Changes["payment_schedule"] != 3 {
		t.Fatalf("payment_schedule change = %d, want 3 (two instalments plus one generated)", result.Changes["payment_schedule"])
	}
	if result.Changes["viewings"] != 2 {
		t.Fatalf("viewings change = %d, want 2", result.Changes["viewings"])
	}

	again, err := r.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	for table, delta := range again.Changes {
		if delta != 0 {
			t.Fatalf("second sync changed %s by %d, want idempotent", table, delta)
		}
	}

	snap, err := st.LoadSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var total float64
	for _, p := range snap.Payments {
		total += p.Amount
	}
	if total != 15000 {
		t.Fatalf("scheduled total = %.2f, want 15000", total)
	}
}

func TestRunner_TriggerSingleFlight(t *testing.T) {
	st := openStore(t)
	boards, crm := testBoards()
	crm.gate = make(chan struct{})

	finished := make(chan model.SyncRun, 1)
	r := NewRunner(RunnerConfig{
		CRM: crm, Store: st, Boards: boards,
		OnFinish: func(run model.SyncRun) { finished <- run },
	})

	run, err := r.Trigger(context.Background())
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if run.Status != model.SyncSyncing {
		t.Fatalf("Trigger() status = %q, want syncing", run.Status)
	}

	if _, err := r.Trigger(context.Background()); !errors.Is(err, ErrAlreadySyncing) {
		t.Fatalf("concurrent Trigger() err = %v, want ErrAlreadySyncing", err)
	}
	close(crm.gate)

	select {
	case done := <-finished:
		if done.Status != model.SyncCompleted {
			t.Fatalf("finished status = %q (%+v), want completed", done.Status, done.Result)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}
	r.Wait()

	last, err := st.LastSyncRun(context.Background())
	if err != nil {
		t.Fatalf("LastSyncRun() error = %v", err)
	}
	if last.ID != run.ID || last.Status != model.SyncCompleted {
		t.Fatalf("persisted run = %s/%s, want %s/completed", last.ID, last.Status, run.ID)
	}
}

func TestRunner_ContractsBoardFailure(t *testing.T) {
	st := openStore(t)
	boards, crm := testBoards()
	crm.errs = map[string]error{"won": monday.ErrRateLimited}
	r := NewRunner(RunnerConfig{CRM: crm, Store: st, Boards: boards})

	if _, err := r.Trigger(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.Wait()

	got := r.Tracker().Status()
	if got.Status != model.SyncError {
		t.Fatalf("status = %q, want error", got.Status)
	}
	if got.Result == nil || !strings.Contains(got.Result.Error, "rate limited") {
		t.Fatalf("Result = %+v, want rate limited error", got.Result)
	}
}

func TestRunner_QualifiedBoardFailureTolerated(t *testing.T) {
	st := openStore(t)
	boards, crm := testBoards()
	crm.errs = map[string]error{"leads": errors.New("timeout")}
	r := NewRunner(RunnerConfig{CRM: crm, Store: st, Boards: boards})

	result, err := r.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Changes["viewings"] != 1 {
		t.Fatalf("viewings change = %d, want 1 from the won board only", result.Changes["viewings"])
	}
}

func TestRunner_TriggerWithoutCRM(t *testing.T) {
	r := NewRunner(RunnerConfig{Store: openStore(t)})
	if _, err := r.Trigger(context.Background()); err == nil {
		t.Fatal("Trigger() without CRM client should fail")
	}
	if got := r.Tracker().Status().Status; got != model.SyncIdle {
		t.Fatalf("status = %q, want idle", got)
	}
}
