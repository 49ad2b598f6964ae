package analytics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/morehouse/mhouse/internal/daemon"
	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/monday"
	"github.com/morehouse/mhouse/internal/pipeline"
	"github.com/morehouse/mhouse/internal/syncer"
)

// Local computes every view in-process from a loaded snapshot.
type Local struct {
	Snapshot       model.Snapshot
	Capacity       int
	OpeningBalance float64
	// Now defaults to time.Now.
	Now func() time.Time

	mu sync.RWMutex
}

// SetSnapshot replaces the snapshot views are computed from.
func (l *Local) SetSnapshot(snap model.Snapshot) {
	l.mu.Lock()
	l.Snapshot = snap
	l.mu.Unlock()
}

func (l *Local) snapshot() model.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.Snapshot
}

var _ Analytics = (*Local)(nil)

func (l *Local) today() time.Time {
	if l.Now != nil {
		return model.Day(l.Now())
	}
	return model.Today()
}

func (l *Local) OccupancySummary(context.Context) (model.OccupancySummary, error) {
	return pipeline.Summarize(l.snapshot(), l.Capacity, l.today()), nil
}

func (l *Local) OccupancyMonthly(_ context.Context, startMonth, endMonth time.Time) ([]model.OccupancyPeriod, error) {
	return pipeline.AggregateMonthly(l.snapshot().Contracts, l.Capacity, startMonth, endMonth), nil
}

func (l *Local) OccupancyWeekly(_ context.Context, start time.Time, weeks int) ([]model.OccupancyPeriod, error) {
	return pipeline.AggregateWeekly(l.snapshot().Contracts, l.Capacity, start, weeks), nil
}

func (l *Local) Vacancies(_ context.Context, days int) ([]model.Vacancy, error) {
	return pipeline.ForecastVacancies(l.snapshot().Contracts, l.today(), days), nil
}

func (l *Local) Rooms(context.Context) ([]model.RoomState, error) {
	return pipeline.RoomStates(l.snapshot(), l.Capacity, l.today()), nil
}

func (l *Local) RoomTimeline(_ context.Context, roomID string) (model.RoomTimeline, error) {
	return pipeline.RoomTimeline(l.snapshot(), l.Capacity, roomID, l.today())
}

func (l *Local) CashSummary(context.Context) (model.CashSummary, error) {
	return pipeline.SummarizeCash(l.snapshot().Payments, l.today()), nil
}

func (l *Local) CashMonthly(_ context.Context, startMonth, endMonth time.Time) ([]model.CashFlowPeriod, error) {
	return pipeline.AggregateCashFlow(l.snapshot().Payments, l.snapshot().Opex, startMonth, endMonth, l.OpeningBalance), nil
}

func (l *Local) CashWeekly(_ context.Context, start time.Time, weeks int) ([]model.WeeklyCashFlow, error) {
	return pipeline.AggregateCashFlowWeekly(l.snapshot().Payments, start, weeks), nil
}

func (l *Local) PaymentSchedule(_ context.Context, startMonth, endMonth time.Time) ([]model.PaymentScheduleRow, error) {
	return pipeline.PaymentSchedule(l.snapshot().Payments, startMonth, endMonth), nil
}

func (l *Local) ExpectedPayments(_ context.Context, from, to time.Time) ([]model.ExpectedPayment, error) {
	return pipeline.ExpectedPayments(l.snapshot(), from, to), nil
}

func (l *Local) OverduePayments(context.Context) ([]model.OverduePayment, error) {
	return pipeline.OverduePayments(l.snapshot(), l.today()), nil
}

func (l *Local) Activity(context.Context) (model.ActivitySummary, error) {
	return pipeline.ActivitySummary(l.snapshot().Viewings, l.snapshot().Contracts, l.today()), nil
}

// LocalSync drives an in-process runner.
type LocalSync struct {
	Runner *syncer.Runner
	Counts daemon.Counter
}

var _ SyncControl = (*LocalSync)(nil)

func (s *LocalSync) SyncStatus(ctx context.Context) (daemon.SyncStatus, error) {
	st := daemon.SyncStatus{Boards: []monday.Board{}, DBCounts: model.TableCounts{}}
	if s.Runner != nil {
		st.Sync = s.Runner.Tracker().Status()
	} else {
		st.Sync = model.SyncRun{Status: model.SyncIdle}
	}
	if s.Counts != nil {
		counts, err := s.Counts.Counts(ctx)
		if err != nil {
			return st, err
		}
		st.DBCounts = counts
	}
	return st, nil
}

func (s *LocalSync) TriggerSync(ctx context.Context) (TriggerResult, error) {
	if s.Runner == nil {
		return TriggerResult{}, errors.New("sync is not configured")
	}
	run, err := s.Runner.Trigger(ctx)
	if errors.Is(err, syncer.ErrAlreadySyncing) {
		return TriggerResult{Status: TriggerAlreadySyncing}, nil
	}
	if err != nil {
		return TriggerResult{}, err
	}
	return TriggerResult{Status: TriggerStarted, RunID: run.ID}, nil
}
