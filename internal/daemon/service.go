// Package daemon provides the long-running analytics API service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/monday"
	"github.com/morehouse/mhouse/internal/pipeline"
	"github.com/morehouse/mhouse/internal/syncer"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr           string
	Capacity       int
	OpeningBalance float64
	VacancyHorizon int
	Interval       time.Duration
	EventsBuffer   int
	CORSOrigin     string
	CacheTTL       time.Duration
}

// LoadFunc produces a fresh snapshot for the service.
type LoadFunc func(ctx context.Context) (*pipeline.LoadResult, error)

// Counter reports stored row counts per table.
type Counter interface {
	Counts(ctx context.Context) (model.TableCounts, error)
}

// BoardLister describes CRM boards.
type BoardLister interface {
	Boards(ctx context.Context, ids []string) ([]monday.Board, error)
}

// Deps are the collaborators the service reads from. Only Load is required.
type Deps struct {
	Load     LoadFunc
	Runner   *syncer.Runner
	Tracker  *syncer.Tracker
	Counts   Counter
	CRM      BoardLister
	BoardIDs []string
	Cache    KVStore
	Metrics  *Metrics
	Logger   *zap.Logger
}

// SnapshotInfo is a compact description of the loaded snapshot.
type SnapshotInfo struct {
	LoadedAt          time.Time `json:"loaded_at"`
	Rooms             int       `json:"rooms"`
	Contracts         int       `json:"contracts"`
	Payments          int       `json:"payments"`
	GeneratedPayments int       `json:"generated_payments"`
	Viewings          int       `json:"viewings"`
}

// Delta captures snapshot deltas between reloads.
type Delta struct {
	Rooms     int `json:"rooms"`
	Contracts int `json:"contracts"`
	Payments  int `json:"payments"`
	Viewings  int `json:"viewings"`
}

func (d Delta) isZero() bool {
	return d.Rooms == 0 &&
		d.Contracts == 0 &&
		d.Payments == 0 &&
		d.Viewings == 0
}

// Event types published on the stream.
const (
	EventSnapshot      = "snapshot"
	EventSnapshotDelta = "snapshot_delta"
	EventSync          = "sync"
)

// Event is emitted whenever the snapshot changes or a sync run transitions.
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  *SnapshotInfo  `json:"snapshot,omitempty"`
	Delta     *Delta         `json:"delta,omitempty"`
	Sync      *model.SyncRun `json:"sync,omitempty"`
}

// SyncStatus is served at /api/sync/status.
type SyncStatus struct {
	Sync      model.SyncRun     `json:"sync"`
	Boards    []monday.Board    `json:"boards"`
	DBCounts  model.TableCounts `json:"db_counts"`
	Snapshot  SnapshotInfo      `json:"snapshot"`
	StartedAt time.Time         `json:"server_started_at"`
	LastError string            `json:"last_error,omitempty"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	deps    Deps
	log     *zap.Logger
	metrics *Metrics
	tracker *syncer.Tracker
	now     func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	loaded      bool
	snap        model.Snapshot
	info        SnapshotInfo
	lastError   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, deps Deps) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8002"
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 120
	}
	if cfg.VacancyHorizon < 1 {
		cfg.VacancyHorizon = pipeline.DefaultVacancyHorizon
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	tracker := deps.Tracker
	if tracker == nil && deps.Runner != nil {
		tracker = deps.Runner.Tracker()
	}
	if tracker == nil {
		tracker = syncer.NewTracker()
	}

	return &Service{
		cfg:       cfg,
		deps:      deps,
		log:       deps.Logger,
		metrics:   deps.Metrics,
		tracker:   tracker,
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and snapshot reloading until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("api listening", zap.String("addr", s.cfg.Addr), zap.Duration("refresh", s.cfg.Interval))

	// Seed initial snapshot so endpoints are useful immediately.
	_ = s.Reload(ctx)

	s.watchSync(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := server.Shutdown(shutdownCtx)
			if s.deps.Runner != nil {
				s.deps.Runner.Wait()
			}
			return err
		case <-ticker.C:
			_ = s.Reload(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Reload replaces the served snapshot. On failure the previous snapshot,
// if any, stays in place and the error is reported by the sync status.
func (s *Service) Reload(ctx context.Context) error {
	if s.deps.Load == nil {
		return errors.New("no snapshot loader configured")
	}
	res, err := s.deps.Load(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		s.metrics.Reloads.WithLabelValues("error").Inc()
		s.log.Warn("snapshot reload failed", zap.Error(err))
		return err
	}

	now := s.now()
	snap := res.Snapshot
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = now
	}
	info := SnapshotInfo{
		LoadedAt:          snap.LoadedAt,
		Rooms:             len(snap.Rooms),
		Contracts:         len(snap.Contracts),
		Payments:          len(snap.Payments),
		GeneratedPayments: res.GeneratedPayments,
		Viewings:          len(snap.Viewings),
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.info
	prevExists := s.loaded

	s.loaded = true
	s.snap = snap
	s.info = info
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: &info}
		publish = true
	} else if delta := diffSnapshots(prev, info); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshotDelta, Timestamp: now, Snapshot: &info, Delta: &delta}
		publish = true
	}
	s.mu.Unlock()

	s.metrics.Reloads.WithLabelValues("ok").Inc()
	s.metrics.SnapshotRecords.WithLabelValues("rooms").Set(float64(info.Rooms))
	s.metrics.SnapshotRecords.WithLabelValues("contracts").Set(float64(info.Contracts))
	s.metrics.SnapshotRecords.WithLabelValues("payments").Set(float64(info.Payments))
	s.metrics.SnapshotRecords.WithLabelValues("viewings").Set(float64(info.Viewings))

	if publish {
		s.publishEvent(ev)
	}
	return nil
}

// watchSync subscribes to tracker transitions and, until ctx ends, forwards
// them to stream subscribers and reloads the snapshot after a run completes.
func (s *Service) watchSync(ctx context.Context) {
	ch, unsubscribe := s.tracker.Subscribe(8)
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case run, ok := <-ch:
				if !ok {
					return
				}
				s.mu.Lock()
				s.nextEventID++
				ev := Event{ID: s.nextEventID, Type: EventSync, Timestamp: s.now(), Sync: &run}
				s.mu.Unlock()
				s.publishEvent(ev)

				if run.Status.Terminal() {
					s.metrics.SyncRuns.WithLabelValues(string(run.Status)).Inc()
				}
				if run.Status == model.SyncCompleted {
					_ = s.Reload(ctx)
				}
			}
		}
	}()
}

func diffSnapshots(prev, curr SnapshotInfo) Delta {
	return Delta{
		Rooms:     curr.Rooms - prev.Rooms,
		Contracts: curr.Contracts - prev.Contracts,
		Payments:  curr.Payments - prev.Payments,
		Viewings:  curr.Viewings - prev.Viewings,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// current returns the served snapshot and whether one has been loaded.
func (s *Service) current() (model.Snapshot, SnapshotInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.info, s.loaded
}

func (s *Service) syncStatus(ctx context.Context) SyncStatus {
	st := SyncStatus{
		Sync:     s.tracker.Status(),
		Boards:   []monday.Board{},
		DBCounts: model.TableCounts{},
	}

	if s.deps.CRM != nil && len(s.deps.BoardIDs) > 0 {
		bctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		boards, err := s.deps.CRM.Boards(bctx, s.deps.BoardIDs)
		cancel()
		if err != nil {
			s.log.Debug("listing boards", zap.Error(err))
		} else if boards != nil {
			st.Boards = boards
		}
	}
	if s.deps.Counts != nil {
		counts, err := s.deps.Counts.Counts(ctx)
		if err != nil {
			s.log.Debug("counting rows", zap.Error(err))
		} else {
			st.DBCounts = counts
		}
	}

	s.mu.RLock()
	st.Snapshot = s.info
	st.StartedAt = s.startedAt
	st.LastError = s.lastError
	s.mu.RUnlock()
	return st
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
