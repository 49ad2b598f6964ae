// Package analytics exposes the occupancy and cash-flow views behind one
// interface, computed locally from a snapshot or fetched from a running API.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/morehouse/mhouse/internal/daemon"
	"github.com/morehouse/mhouse/internal/model"
)

// Analytics serves the dashboard views.
type Analytics interface {
	OccupancySummary(ctx context.Context) (model.OccupancySummary, error)
	OccupancyMonthly(ctx context.Context, startMonth, endMonth time.Time) ([]model.OccupancyPeriod, error)
	OccupancyWeekly(ctx context.Context, start time.Time, weeks int) ([]model.OccupancyPeriod, error)
	Vacancies(ctx context.Context, days int) ([]model.Vacancy, error)
	Rooms(ctx context.Context) ([]model.RoomState, error)
	RoomTimeline(ctx context.Context, roomID string) (model.RoomTimeline, error)
	CashSummary(ctx context.Context) (model.CashSummary, error)
	CashMonthly(ctx context.Context, startMonth, endMonth time.Time) ([]model.CashFlowPeriod, error)
	CashWeekly(ctx context.Context, start time.Time, weeks int) ([]model.WeeklyCashFlow, error)
	PaymentSchedule(ctx context.Context, startMonth, endMonth time.Time) ([]model.PaymentScheduleRow, error)
	ExpectedPayments(ctx context.Context, from, to time.Time) ([]model.ExpectedPayment, error)
	OverduePayments(ctx context.Context) ([]model.OverduePayment, error)
	Activity(ctx context.Context) (model.ActivitySummary, error)
}

// TriggerResult is the answer to a sync request.
type TriggerResult struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
}

// Trigger statuses.
const (
	TriggerStarted        = "started"
	TriggerAlreadySyncing = "already_syncing"
)

// SyncControl reports on and starts CRM synchronisations.
type SyncControl interface {
	SyncStatus(ctx context.Context) (daemon.SyncStatus, error)
	TriggerSync(ctx context.Context) (TriggerResult, error)
}

// SyncRunFetcher adapts a SyncControl to the poller's fetch signature.
func SyncRunFetcher(sc SyncControl) func(ctx context.Context) (model.SyncRun, error) {
	return func(ctx context.Context) (model.SyncRun, error) {
		st, err := sc.SyncStatus(ctx)
		return st.Sync, err
	}
}

// Widget is one independently fetched dashboard view.
type Widget[T any] struct {
	Data T
	Err  error
}

// OK reports whether the widget has data to show.
func (w Widget[T]) OK() bool {
	return w.Err == nil
}

// Dashboard is every view shown on the dashboard. Each widget carries its
// own error; one failing never prevents the others from loading.
type Dashboard struct {
	FetchedAt time.Time

	Summary     Widget[model.OccupancySummary]
	Monthly     Widget[[]model.OccupancyPeriod]
	Weekly      Widget[[]model.OccupancyPeriod]
	Vacancies   Widget[[]model.Vacancy]
	Rooms       Widget[[]model.RoomState]
	CashSummary Widget[model.CashSummary]
	CashMonthly Widget[[]model.CashFlowPeriod]
	Overdue     Widget[[]model.OverduePayment]
	Activity    Widget[model.ActivitySummary]
}

// Fatal returns the error to show as a retryable banner: the top-level
// summary could not reach its source at all.
func (d *Dashboard) Fatal() error {
	if errors.Is(d.Summary.Err, ErrUnavailable) {
		return d.Summary.Err
	}
	return nil
}

// DashboardParams sets the ranges the dashboard covers.
type DashboardParams struct {
	Today        time.Time
	Months       int
	Weeks        int
	VacancyDays  int
	CashFromDate time.Time
}

func (p DashboardParams) withDefaults() DashboardParams {
	if p.Today.IsZero() {
		p.Today = model.Today()
	}
	if p.Months < 1 {
		p.Months = 12
	}
	if p.Weeks < 1 {
		p.Weeks = 8
	}
	if p.VacancyDays < 1 {
		p.VacancyDays = 60
	}
	if p.CashFromDate.IsZero() {
		p.CashFromDate = p.Today
	}
	return p
}

// FetchDashboard fetches every widget concurrently.
func FetchDashboard(ctx context.Context, a Analytics, p DashboardParams) *Dashboard {
	p = p.withDefaults()
	d := &Dashboard{FetchedAt: time.Now()}

	startMonth := time.Date(p.Today.Year(), p.Today.Month(), 1, 0, 0, 0, 0, time.UTC)
	endMonth := startMonth.AddDate(0, p.Months-1, 0)
	cashStart := time.Date(p.CashFromDate.Year(), p.CashFromDate.Month(), 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { d.Summary.Data, d.Summary.Err = a.OccupancySummary(ctx) })
	run(func() { d.Monthly.Data, d.Monthly.Err = a.OccupancyMonthly(ctx, startMonth, endMonth) })
	run(func() { d.Weekly.Data, d.Weekly.Err = a.OccupancyWeekly(ctx, p.Today, p.Weeks) })
	run(func() { d.Vacancies.Data, d.Vacancies.Err = a.Vacancies(ctx, p.VacancyDays) })
	run(func() { d.Rooms.Data, d.Rooms.Err = a.Rooms(ctx) })
	run(func() { d.CashSummary.Data, d.CashSummary.Err = a.CashSummary(ctx) })
	run(func() {
		d.CashMonthly.Data, d.CashMonthly.Err = a.CashMonthly(ctx, cashStart, cashStart.AddDate(0, p.Months-1, 0))
	})
	run(func() { d.Overdue.Data, d.Overdue.Err = a.OverduePayments(ctx) })
	run(func() { d.Activity.Data, d.Activity.Err = a.Activity(ctx) })

	wg.Wait()
	return d
}

// StatusError is a non-OK API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: HTTP %d", e.Code)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.Code, e.Message)
}

// ErrUnavailable wraps transport failures reaching the API.
var ErrUnavailable = errors.New("api unavailable")
