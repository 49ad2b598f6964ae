package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/monday"
	"github.com/morehouse/mhouse/internal/pipeline"
	"github.com/morehouse/mhouse/internal/syncer"
)

var testToday = time.Date(2025, 10, 15, 9, 30, 0, 0, time.UTC)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

type staticSource struct {
	snap model.Snapshot
	err  error
}

func (s staticSource) LoadSnapshot(context.Context) (model.Snapshot, error) {
	return s.snap, s.err
}

func fixture() model.Snapshot {
	return model.Snapshot{
		Rooms: []model.Room{
			{ID: "1.01", Floor: "1", Category: model.CategoryStandard, WeeklyRate: 300},
			{ID: "1.02", Floor: "1", Category: model.CategoryClassic, WeeklyRate: 350},
			{ID: "2.01", Floor: "2", Category: model.CategoryDeluxe, WeeklyRate: 420},
		},
		Contracts: []model.Contract{
			{
				ID: 1, RoomID: "1.01", ResidentName: "Ada",
				StartDate: d(2025, 9, 1), EndDate: d(2025, 11, 10), SignedDate: d(2025, 10, 14),
				WeeklyRate: 300, TotalValue: 3000,
				PaymentPlan: model.PlanInstallments, Status: model.StatusActive,
			},
			{
				ID: 2, RoomID: "1.02", ResidentName: "Bob",
				StartDate: d(2025, 9, 1), EndDate: d(2026, 6, 30),
				WeeklyRate: 350, PaymentPlan: model.PlanSpecialTerms, Status: model.StatusSigned,
			},
		},
	}
}

func newTestService(t *testing.T, src pipeline.Source, deps Deps) *Service {
	t.Helper()
	deps.Load = func(ctx context.Context) (*pipeline.LoadResult, error) {
		return pipeline.Load(ctx, src, nil)
	}
	s := New(Config{Capacity: 3, OpeningBalance: 500, EventsBuffer: 10}, deps)
	s.now = func() time.Time { return testToday }
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAPI_Endpoints(t *testing.T) {
	s := newTestService(t, staticSource{snap: fixture()}, Deps{})
	require.NoError(t, s.Reload(context.Background()))
	h := s.Handler()

	rec := get(t, h, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	sum := decode[model.OccupancySummary](t, get(t, h, "/api/occupancy/summary"))
	assert.Equal(t, 3, sum.TotalRooms)
	assert.Equal(t, 2, sum.Occupied)

	vac := decode[[]model.Vacancy](t, get(t, h, "/api/occupancy/vacancies/upcoming"))
	require.Len(t, vac, 1)
	assert.Equal(t, "1.01", vac[0].RoomID)
	assert.Equal(t, 26, vac[0].DaysUntilVacant)

	rec = get(t, h, "/api/occupancy/vacancies/upcoming?days=10")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	months := decode[[]model.OccupancyPeriod](t, get(t, h, "/api/occupancy/monthly?start_month=2025-09&end_month=2025-11"))
	require.Len(t, months, 3)
	assert.Equal(t, "2025-09", months[0].Month)
	assert.Equal(t, 2, months[0].MoveIns)
	assert.Equal(t, 1, months[2].MoveOuts)

	weeks := decode[[]model.OccupancyPeriod](t, get(t, h, "/api/occupancy/weekly?start_date=2025-10-13&end_date=2025-11-02"))
	assert.Len(t, weeks, 3, "end_date wins over the weeks default")

	cash := decode[[]model.CashFlowPeriod](t, get(t, h, "/api/cashflow/monthly?start_month=2025-09&end_month=2025-11"))
	require.Len(t, cash, 3)
	assert.Equal(t, 1000.0, cash[0].Inflows)
	assert.Equal(t, 3500.0, cash[2].RunningBalance, "running balance starts from the opening balance")

	tl := decode[model.RoomTimeline](t, get(t, h, "/api/occupancy/rooms/1.01/timeline"))
	require.Len(t, tl.Contracts, 1)
	assert.Equal(t, "Ada", tl.Contracts[0].ResidentName)

	act := decode[model.ActivitySummary](t, get(t, h, "/api/activity/summary"))
	assert.Equal(t, 1, act.Contracts["3d"].Count)
}

func TestAPI_ContractFilters(t *testing.T) {
	s := newTestService(t, staticSource{snap: fixture()}, Deps{})
	require.NoError(t, s.Reload(context.Background()))
	h := s.Handler()

	months := decode[[]model.OccupancyPeriod](t, get(t, h, "/api/occupancy/monthly?start_month=2025-09&end_month=2025-09&floor=2"))
	require.Len(t, months, 1)
	assert.Zero(t, months[0].MoveIns, "nothing booked on floor 2")

	months = decode[[]model.OccupancyPeriod](t, get(t, h, "/api/occupancy/monthly?start_month=2025-09&end_month=2025-09&room=1.02"))
	require.Len(t, months, 1)
	assert.Equal(t, 1, months[0].MoveIns)

	vac := decode[[]model.Vacancy](t, get(t, h, "/api/occupancy/vacancies/upcoming?resident=ADA"))
	require.Len(t, vac, 1)
	assert.Equal(t, "1.01", vac[0].RoomID)

	rec := get(t, h, "/api/occupancy/vacancies/upcoming?resident=bob")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestAPI_BadParams(t *testing.T) {
	s := newTestService(t, staticSource{snap: fixture()}, Deps{})
	require.NoError(t, s.Reload(context.Background()))
	h := s.Handler()

	for _, target := range []string{
		"/api/occupancy/monthly?start_month=September",
		"/api/occupancy/monthly?start_month=2025-12&end_month=2025-01",
		"/api/occupancy/weekly?weeks=0",
		"/api/occupancy/weekly?start_date=2025-13-01",
		"/api/occupancy/vacancies/upcoming?days=soon",
		"/api/occupancy/vacancies/upcoming?days=0",
		"/api/occupancy/monthly?start_month=0001-01&end_month=9999-12",
		"/api/cashflow/monthly?start_month=2025-01&end_month=2035-01",
		"/api/cashflow/payments/expected?start_date=2025-10-01&end_date=2025-09-01",
		"/api/cashflow/monthly?opening_balance=lots",
	} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, decode[map[string]string](t, rec)["error"], target)
	}

	rec := get(t, h, "/api/occupancy/rooms/9.99/timeline")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_DegradesBeforeFirstLoad(t *testing.T) {
	s := newTestService(t, staticSource{err: errors.New("relation \"rooms\" does not exist")}, Deps{})
	require.Error(t, s.Reload(context.Background()))
	h := s.Handler()

	for _, target := range []string{
		"/api/occupancy/rooms",
		"/api/occupancy/monthly",
		"/api/cashflow/payments/overdue",
	} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()), target)
	}

	sum := decode[model.OccupancySummary](t, get(t, h, "/api/occupancy/summary"))
	assert.Zero(t, sum.TotalRooms)

	st := decode[SyncStatus](t, get(t, h, "/api/sync/status"))
	assert.Contains(t, st.LastError, "does not exist")
	assert.Equal(t, model.SyncIdle, st.Sync.Status)
}

func TestAPI_ResponseCache(t *testing.T) {
	s := newTestService(t, staticSource{snap: fixture()}, Deps{Cache: NewMemoryKVStore()})
	require.NoError(t, s.Reload(context.Background()))
	h := s.Handler()

	first := get(t, h, "/api/occupancy/rooms")
	second := get(t, h, "/api/occupancy/rooms")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CacheMisses))

	rec := get(t, h, "/metrics")
	assert.Contains(t, rec.Body.String(), "mhouse_response_cache_hits_total 1")
}

type countsFunc func(context.Context) (model.TableCounts, error)

func (f countsFunc) Counts(ctx context.Context) (model.TableCounts, error) { return f(ctx) }

type boardsFunc func(context.Context, []string) ([]monday.Board, error)

func (f boardsFunc) Boards(ctx context.Context, ids []string) ([]monday.Board, error) {
	return f(ctx, ids)
}

func TestAPI_SyncStatus(t *testing.T) {
	s := newTestService(t, staticSource{snap: fixture()}, Deps{
		Counts: countsFunc(func(context.Context) (model.TableCounts, error) {
			return model.TableCounts{"rooms": 3, "contracts": 2}, nil
		}),
		CRM: boardsFunc(func(context.Context, []string) ([]monday.Board, error) {
			return nil, monday.ErrUnauthorized
		}),
		BoardIDs: []string{"1"},
	})
	require.NoError(t, s.Reload(context.Background()))

	rec := get(t, s.Handler(), "/api/sync/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.JSONEq(t, `[]`, string(body["boards"]), "board lookup failures leave the list empty")
	assert.JSONEq(t, `{"rooms":3,"contracts":2}`, string(body["db_counts"]))
	assert.Contains(t, string(body["sync"]), `"status":"idle"`)
}

type idleCRM struct{}

func (idleCRM) BoardItems(context.Context, string) ([]monday.Item, error) { return nil, nil }

func TestAPI_SyncRun(t *testing.T) {
	s := newTestService(t, staticSource{}, Deps{})
	post := func(h http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync/run", nil))
		return rec
	}

	rec := post(s.Handler())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "no runner configured")

	tracker := syncer.NewTracker()
	_, err := tracker.Begin()
	require.NoError(t, err)
	runner := syncer.NewRunner(syncer.RunnerConfig{Tracker: tracker, CRM: idleCRM{}})
	s = newTestService(t, staticSource{}, Deps{Runner: runner})

	rec = post(s.Handler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_syncing", decode[map[string]string](t, rec)["status"])
}

func TestAPI_SyncStream(t *testing.T) {
	tracker := syncer.NewTracker()
	s := newTestService(t, staticSource{snap: fixture()}, Deps{Tracker: tracker})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.watchSync(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sync/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan Event, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var ev Event
				if json.Unmarshal([]byte(data), &ev) == nil {
					events <- ev
				}
			}
		}
	}()

	next := func() Event {
		select {
		case ev := <-events:
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("no event received")
			return Event{}
		}
	}

	first := next()
	require.NotNil(t, first.Sync)
	assert.Equal(t, model.SyncIdle, first.Sync.Status)

	_, err = tracker.Begin()
	require.NoError(t, err)
	ev := next()
	assert.Equal(t, EventSync, ev.Type)
	require.NotNil(t, ev.Sync)
	assert.Equal(t, model.SyncSyncing, ev.Sync.Status)
}

func TestDiffSnapshots(t *testing.T) {
	prev := SnapshotInfo{Rooms: 120, Contracts: 95, Payments: 800, Viewings: 40}
	curr := SnapshotInfo{Rooms: 120, Contracts: 97, Payments: 818, Viewings: 43}

	delta := diffSnapshots(prev, curr)
	if delta.Rooms != 0 {
		t.Fatalf("Rooms delta = %d, want 0", delta.Rooms)
	}
	if delta.Contracts != 2 {
		t.Fatalf("Contracts delta = %d, want 2", delta.Contracts)
	}
	if delta.Payments != 18 {
		t.Fatalf("Payments delta = %d, want 18", delta.Payments)
	}
	if delta.Viewings != 3 {
		t.Fatalf("Viewings delta = %d, want 3", delta.Viewings)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots should have a zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	}, Deps{})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestReloadPublishesDeltas(t *testing.T) {
	src := &staticSource{snap: fixture()}
	s := New(Config{}, Deps{Load: func(ctx context.Context) (*pipeline.LoadResult, error) {
		return pipeline.Load(ctx, *src, nil)
	}})

	require.NoError(t, s.Reload(context.Background()))
	require.NoError(t, s.Reload(context.Background()))
	src.snap.Viewings = append(src.snap.Viewings, model.Viewing{Name: "Eve", Date: d(2025, 10, 14)})
	require.NoError(t, s.Reload(context.Background()))

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.events, 2, "unchanged reloads publish nothing")
	assert.Equal(t, EventSnapshot, s.events[0].Type)
	assert.Equal(t, EventSnapshotDelta, s.events[1].Type)
	assert.Equal(t, 1, s.events[1].Delta.Viewings)
}
