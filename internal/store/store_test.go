package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morehouse/mhouse/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "mhouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertContractsMatchesExisting(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c := model.Contract{
		MondayID:     "5001",
		RoomID:       "2.04",
		ResidentName: "Ada Lovelace",
		StartDate:    day(2025, 9, 1),
		EndDate:      day(2026, 6, 30),
		TotalValue:   12000,
		PaymentPlan:  model.PlanInstallments,
		Status:       model.StatusSigned,
	}
	saved, created, err := s.UpsertContracts(ctx, []model.Contract{c})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, saved, 1)
	firstID := saved[0].ID
	assert.NotZero(t, firstID)

	c.TotalValue = 12500
	c.Status = model.StatusActive
	saved, created, err = s.UpsertContracts(ctx, []model.Contract{c})
	require.NoError(t, err)
	assert.Equal(t, 0, created, "same CRM item should update in place")
	assert.Equal(t, firstID, saved[0].ID)

	manual := model.Contract{
		RoomID:       "3.01",
		ResidentName: "Grace Hopper",
		StartDate:    day(2025, 10, 1),
		EndDate:      day(2026, 7, 31),
	}
	_, created, err = s.UpsertContracts(ctx, []model.Contract{manual, manual})
	require.NoError(t, err)
	assert.Equal(t, 1, created, "contracts without CRM IDs match on room, resident and start")

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Contracts, 2)
	assert.Equal(t, 12500.0, snap.Contracts[0].TotalValue)
	assert.Equal(t, model.StatusActive, snap.Contracts[0].Status)
	assert.Equal(t, model.StatusActive, snap.Contracts[1].Status, "empty status defaults to active")
	assert.True(t, snap.Contracts[1].EndDate.Equal(day(2026, 7, 31)))
}

func TestEnsureRoomsAndCounts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpsertRooms(ctx, []model.Room{
		{ID: "1.01", Floor: "1", Category: "Standard", WeeklyRate: 300},
	}))
	n, err := s.EnsureRooms(ctx, []string{"1.01", "MEZZ 10"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["rooms"])
	assert.Equal(t, 0, counts["contracts"])
	assert.Len(t, counts, len(countedTables))
}

func TestReplaceSchedule(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	saved, _, err := s.UpsertContracts(ctx, []model.Contract{{
		RoomID: "1.02", ResidentName: "Alan Turing",
		StartDate: day(2025, 9, 1), EndDate: day(2025, 11, 30),
	}})
	require.NoError(t, err)
	id := saved[0].ID

	first := []model.ScheduledPayment{
		{DueDate: day(2025, 9, 1), Amount: 1000},
		{DueDate: day(2025, 10, 1), Amount: 1000},
	}
	require.NoError(t, s.ReplaceSchedule(ctx, id, first))

	second := []model.ScheduledPayment{
		{DueDate: day(2025, 9, 1), Amount: 3000, Status: model.PaymentPaid, PaidDate: day(2025, 8, 30), PaidAmount: 3000},
	}
	require.NoError(t, s.ReplaceSchedule(ctx, id, second))

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Payments, 1)
	p := snap.Payments[0]
	assert.Equal(t, id, p.ContractID)
	assert.Equal(t, model.PaymentRent, p.PaymentType)
	assert.Equal(t, model.PaymentPaid, p.Status)
	assert.True(t, p.PaidDate.Equal(day(2025, 8, 30)))
}

func TestOpexAndViewings(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveOpex(ctx, []model.OpexBudget{
		{Month: day(2025, 9, 1), Category: "Utilities", Amount: 4000},
		{Month: day(2025, 9, 1), Category: "Utilities", Amount: 4200},
		{Month: day(2025, 10, 1), Category: "Staff", Amount: 9000},
	}))

	added, err := s.SaveViewings(ctx, []model.Viewing{
		{Name: "Grace", Date: day(2025, 8, 20), Board: "won"},
		{Name: "Grace", Date: day(2025, 8, 20), Board: "won"},
		{Name: "Undated", Board: "won"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Opex, 2)
	assert.Equal(t, 4200.0, snap.Opex[0].Amount, "later line for the same month and category wins")
	require.Len(t, snap.Viewings, 1)
}

func TestSaveSnapshotRoundTripKeepsIDs(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	snap := model.Snapshot{
		Rooms: []model.Room{{ID: "1.01", Floor: "1"}},
		Contracts: []model.Contract{{
			ID: 42, RoomID: "1.01", ResidentName: "Ada",
			StartDate: day(2025, 9, 1), EndDate: day(2026, 6, 30),
			Status: model.StatusActive,
		}},
		Payments: []model.ScheduledPayment{{
			ID: 9, ContractID: 42, DueDate: day(2025, 9, 1), Amount: 500,
			PaymentType: model.PaymentRent, Status: model.PaymentPending,
		}},
	}
	require.NoError(t, s.SaveSnapshot(ctx, snap))
	require.NoError(t, s.SaveSnapshot(ctx, snap), "mirroring twice replaces rather than duplicates")

	got, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got.Contracts, 1)
	assert.Equal(t, int64(42), got.Contracts[0].ID)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, int64(42), got.Payments[0].ContractID)
}

func TestSyncRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LastSyncRun(ctx)
	assert.ErrorIs(t, err, ErrNoSyncRun)

	t0 := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(90 * time.Second)
	require.NoError(t, s.SaveSyncRun(ctx, model.SyncRun{
		ID: "run-1", Status: model.SyncCompleted, StartedAt: &t0, FinishedAt: &t1,
		Result: &model.SyncResult{Changes: map[string]int{"contracts": 3}},
	}))

	t2 := t0.Add(time.Hour)
	t3 := t2.Add(time.Minute)
	require.NoError(t, s.SaveSyncRun(ctx, model.SyncRun{
		ID: "run-2", Status: model.SyncError, StartedAt: &t2, FinishedAt: &t3,
		Result: &model.SyncResult{Error: "rate limited"},
	}))

	run, err := s.LastSyncRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", run.ID)
	assert.Equal(t, model.SyncError, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, "rate limited", run.Result.Error)
	require.NotNil(t, run.LastSyncedAt)
	assert.True(t, run.LastSyncedAt.Equal(t1), "last synced comes from the latest completed run")
}
