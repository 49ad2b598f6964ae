package daemon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/pipeline"
	"github.com/morehouse/mhouse/internal/syncer"
)

const (
	defaultWeeks        = 8
	maxWeeks            = 260
	maxMonths           = 120
	defaultExpectedDays = 90
)

// paramError is a malformed query parameter, reported as 400.
type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.name, e.err)
}

// view is what an analytics query reads.
type view struct {
	snap  model.Snapshot
	today time.Time
}

// queryFunc computes an endpoint's payload from the current snapshot.
type queryFunc func(r *http.Request, v view) (any, error)

// Handler returns the service's HTTP handler.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.handle(mux, "GET /api/health", s.handleAPIHealth)

	s.query(mux, "GET /api/occupancy/summary", model.OccupancySummary{}, s.occupancySummary)
	s.query(mux, "GET /api/occupancy/monthly", []model.OccupancyPeriod{}, s.occupancyMonthly)
	s.query(mux, "GET /api/occupancy/weekly", []model.OccupancyPeriod{}, s.occupancyWeekly)
	s.query(mux, "GET /api/occupancy/vacancies/upcoming", []model.Vacancy{}, s.upcomingVacancies)
	s.query(mux, "GET /api/occupancy/categories", []pipeline.CategoryStats{}, s.categories)
	s.query(mux, "GET /api/occupancy/rooms", []model.RoomState{}, s.rooms)
	s.query(mux, "GET /api/occupancy/rooms/timelines", []model.RoomTimeline{}, s.timelines)
	s.query(mux, "GET /api/occupancy/rooms/{id}/timeline", nil, s.roomTimeline)

	s.query(mux, "GET /api/cashflow/summary", model.CashSummary{}, s.cashSummary)
	s.query(mux, "GET /api/cashflow/monthly", []model.CashFlowPeriod{}, s.cashMonthly)
	s.query(mux, "GET /api/cashflow/weekly", []model.WeeklyCashFlow{}, s.cashWeekly)
	s.query(mux, "GET /api/cashflow/payments/schedule", []model.PaymentScheduleRow{}, s.paymentSchedule)
	s.query(mux, "GET /api/cashflow/payments/expected", []model.ExpectedPayment{}, s.expectedPayments)
	s.query(mux, "GET /api/cashflow/payments/overdue", []model.OverduePayment{}, s.overduePayments)

	s.query(mux, "GET /api/activity/summary", emptyActivity(), s.activity)

	s.handle(mux, "GET /api/sync/status", s.handleSyncStatus)
	s.handle(mux, "POST /api/sync/run", s.handleSyncRun)
	s.handle(mux, "GET /api/sync/stream", s.handleStream)
	s.handle(mux, "GET /api/events", s.handleEvents)

	return s.cors(mux)
}

func (s *Service) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, s.metrics.instrument(pattern, h))
}

// query registers an analytics endpoint. Until a snapshot has loaded the
// endpoint answers with empty, or with an empty list when empty is nil.
// Successful responses are cached per snapshot.
func (s *Service) query(mux *http.ServeMux, pattern string, empty any, fn queryFunc) {
	s.handle(mux, pattern, func(w http.ResponseWriter, r *http.Request) {
		snap, info, loaded := s.current()
		today := model.Day(s.now())

		key := fmt.Sprintf("mhouse:%d:%s:%s", info.LoadedAt.UnixNano(), today.Format(model.DateLayout), r.URL.RequestURI())
		if loaded && s.deps.Cache != nil {
			if body, err := s.deps.Cache.Get(r.Context(), key); err == nil {
				s.metrics.CacheHits.Inc()
				writeRaw(w, http.StatusOK, body)
				return
			} else if !errors.Is(err, ErrCacheMiss) {
				s.log.Debug("cache get", zap.Error(err))
			}
			s.metrics.CacheMisses.Inc()
		}

		out, err := fn(r, view{snap: snap, today: today})
		if err != nil {
			var pe *paramError
			switch {
			case errors.As(err, &pe):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, pipeline.ErrRoomNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			default:
				s.log.Error("query failed", zap.String("route", pattern), zap.Error(err))
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		if !loaded {
			out = empty
			if out == nil {
				out = []any{}
			}
		}

		body, err := json.Marshal(out)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if loaded && s.deps.Cache != nil {
			if err := s.deps.Cache.Set(r.Context(), key, body, s.cfg.CacheTTL); err != nil {
				s.log.Debug("cache set", zap.Error(err))
			}
		}
		writeRaw(w, http.StatusOK, body)
	})
}

func (s *Service) occupancySummary(_ *http.Request, v view) (any, error) {
	return pipeline.Summarize(v.snap, s.cfg.Capacity, v.today), nil
}

func (s *Service) occupancyMonthly(r *http.Request, v view) (any, error) {
	start, end, err := monthRange(r, v.today)
	if err != nil {
		return nil, err
	}
	return list(pipeline.AggregateMonthly(filterContracts(r, v.snap), s.cfg.Capacity, start, end)), nil
}

func (s *Service) occupancyWeekly(r *http.Request, v view) (any, error) {
	start, weeks, err := weekRange(r, v.today)
	if err != nil {
		return nil, err
	}
	return list(pipeline.AggregateWeekly(filterContracts(r, v.snap), s.cfg.Capacity, start, weeks)), nil
}

func (s *Service) upcomingVacancies(r *http.Request, v view) (any, error) {
	days, err := intParam(r, "days", s.cfg.VacancyHorizon, 1, 3650)
	if err != nil {
		return nil, err
	}
	return list(pipeline.ForecastVacancies(filterContracts(r, v.snap), v.today, days)), nil
}

// filterContracts narrows the snapshot's contracts by the optional floor,
// room and resident query parameters.
func filterContracts(r *http.Request, snap model.Snapshot) []model.Contract {
	q := r.URL.Query()
	contracts := snap.Contracts
	if floor := q.Get("floor"); floor != "" {
		contracts = pipeline.FilterByFloor(contracts, snap.Rooms, floor)
	}
	if room := q.Get("room"); room != "" {
		contracts = pipeline.FilterByRoom(contracts, room)
	}
	if name := q.Get("resident"); name != "" {
		contracts = pipeline.FilterByResident(contracts, name)
	}
	return contracts
}

func (s *Service) categories(_ *http.Request, v view) (any, error) {
	return list(pipeline.AggregateCategories(v.snap, s.cfg.Capacity, v.today)), nil
}

func (s *Service) rooms(_ *http.Request, v view) (any, error) {
	return list(pipeline.RoomStates(v.snap, s.cfg.Capacity, v.today)), nil
}

func (s *Service) timelines(_ *http.Request, v view) (any, error) {
	return list(pipeline.Timelines(v.snap, s.cfg.Capacity, v.today)), nil
}

func (s *Service) roomTimeline(r *http.Request, v view) (any, error) {
	tl, err := pipeline.RoomTimeline(v.snap, s.cfg.Capacity, r.PathValue("id"), v.today)
	if err != nil {
		return nil, err
	}
	if tl.Contracts == nil {
		tl.Contracts = []model.TimelineEntry{}
	}
	return tl, nil
}

func (s *Service) cashSummary(_ *http.Request, v view) (any, error) {
	return pipeline.SummarizeCash(v.snap.Payments, v.today), nil
}

func (s *Service) cashMonthly(r *http.Request, v view) (any, error) {
	start, end, err := monthRange(r, v.today)
	if err != nil {
		return nil, err
	}
	opening := s.cfg.OpeningBalance
	if raw := r.URL.Query().Get("opening_balance"); raw != "" {
		opening, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &paramError{"opening_balance", err}
		}
	}
	return list(pipeline.AggregateCashFlow(v.snap.Payments, v.snap.Opex, start, end, opening)), nil
}

func (s *Service) cashWeekly(r *http.Request, v view) (any, error) {
	start, weeks, err := weekRange(r, v.today)
	if err != nil {
		return nil, err
	}
	return list(pipeline.AggregateCashFlowWeekly(v.snap.Payments, start, weeks)), nil
}

func (s *Service) paymentSchedule(r *http.Request, v view) (any, error) {
	start, end, err := monthRange(r, v.today)
	if err != nil {
		return nil, err
	}
	return list(pipeline.PaymentSchedule(v.snap.Payments, start, end)), nil
}

func (s *Service) expectedPayments(r *http.Request, v view) (any, error) {
	from, err := dateParam(r, "start_date", v.today)
	if err != nil {
		return nil, err
	}
	to, err := dateParam(r, "end_date", from.AddDate(0, 0, defaultExpectedDays))
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, &paramError{"end_date", errors.New("before start_date")}
	}
	return list(pipeline.ExpectedPayments(v.snap, from, to)), nil
}

func (s *Service) overduePayments(_ *http.Request, v view) (any, error) {
	return list(pipeline.OverduePayments(v.snap, v.today)), nil
}

func (s *Service) activity(_ *http.Request, v view) (any, error) {
	return pipeline.ActivitySummary(v.snap.Viewings, v.snap.Contracts, v.today), nil
}

func emptyActivity() model.ActivitySummary {
	sum := model.ActivitySummary{
		Viewings:  make(map[string]int, len(pipeline.ActivityWindows)),
		Contracts: make(map[string]model.ContractWindow, len(pipeline.ActivityWindows)),
	}
	for _, w := range pipeline.ActivityWindows {
		sum.Viewings[w.Key] = 0
		sum.Contracts[w.Key] = model.ContractWindow{Contracts: []model.SignedContract{}}
	}
	return sum
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleAPIHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Service) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.syncStatus(r.Context()))
}

func (s *Service) handleSyncRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}
	run, err := s.deps.Runner.Trigger(r.Context())
	switch {
	case errors.Is(err, syncer.ErrAlreadySyncing):
		writeJSON(w, http.StatusOK, map[string]string{"status": "already_syncing"})
	case err != nil:
		s.log.Warn("sync trigger failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "started", "run_id": run.ID})
	}
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current sync state immediately.
	run := s.tracker.Status()
	writeSSE(w, Event{Type: EventSync, Timestamp: s.now(), Sync: &run})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, code, buf.Bytes())
}

func writeRaw(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	writeRaw(w, code, body)
}

func list[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// monthRange reads start_month and end_month, defaulting to the current
// month and twelve months ahead.
func monthRange(r *http.Request, today time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	start := pipeline.MonthStart(today)
	end := pipeline.MonthStart(today.AddDate(0, 0, 365))

	var err error
	if raw := q.Get("start_month"); raw != "" {
		if start, err = pipeline.ParseMonth(raw); err != nil {
			return start, end, &paramError{"start_month", err}
		}
	}
	if raw := q.Get("end_month"); raw != "" {
		if end, err = pipeline.ParseMonth(raw); err != nil {
			return start, end, &paramError{"end_month", err}
		}
	}
	if end.Before(start) {
		return start, end, &paramError{"end_month", errors.New("before start_month")}
	}
	if n := (end.Year()-start.Year())*12 + int(end.Month()-start.Month()) + 1; n > maxMonths {
		return start, end, &paramError{"end_month", fmt.Errorf("range exceeds %d months", maxMonths)}
	}
	return start, end, nil
}

// weekRange reads start_date plus either end_date or weeks. end_date wins
// when both are given.
func weekRange(r *http.Request, today time.Time) (time.Time, int, error) {
	start, err := dateParam(r, "start_date", today)
	if err != nil {
		return start, 0, err
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		end, err := pipeline.ParseDate(raw)
		if err != nil {
			return start, 0, &paramError{"end_date", err}
		}
		if end.Before(start) {
			return start, 0, &paramError{"end_date", errors.New("before start_date")}
		}
		weeks := pipeline.WeeksThrough(start, end)
		if weeks > maxWeeks {
			return start, 0, &paramError{"end_date", fmt.Errorf("range exceeds %d weeks", maxWeeks)}
		}
		return start, weeks, nil
	}
	weeks, err := intParam(r, "weeks", defaultWeeks, 1, maxWeeks)
	return start, weeks, err
}

func dateParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	t, err := pipeline.ParseDate(raw)
	if err != nil {
		return def, &paramError{name, err}
	}
	return t, nil
}

func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, &paramError{name, err}
	}
	if n < lo || n > hi {
		return def, &paramError{name, fmt.Errorf("must be between %d and %d", lo, hi)}
	}
	return n, nil
}
