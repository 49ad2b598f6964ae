package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/monday"
	"github.com/morehouse/mhouse/internal/pipeline"
)

// Board labels recorded on viewings.
const (
	BoardWon       = "won"
	BoardQualified = "qualified"
)

const defaultRunTimeout = 10 * time.Minute

// BoardReader fetches every item on a CRM board.
type BoardReader interface {
	BoardItems(ctx context.Context, boardID string) ([]monday.Item, error)
}

// Store is where synced records land.
type Store interface {
	Counts(ctx context.Context) (model.TableCounts, error)
	UpsertRooms(ctx context.Context, rooms []model.Room) error
	EnsureRooms(ctx context.Context, roomIDs []string) (int, error)
	UpsertContracts(ctx context.Context, contracts []model.Contract) ([]model.Contract, int, error)
	ReplaceSchedule(ctx context.Context, contractID int64, payments []model.ScheduledPayment) error
	SaveViewings(ctx context.Context, viewings []model.Viewing) (int, error)
	SaveSyncRun(ctx context.Context, run model.SyncRun) error
}

// Boards names the CRM boards to read. An empty ID skips that board.
type Boards struct {
	Rooms     string
	Contracts string
	Qualified string
}

// IDs returns the configured board IDs.
func (b Boards) IDs() []string {
	var ids []string
	for _, id := range []string{b.Rooms, b.Contracts, b.Qualified} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Tracker *Tracker
	CRM     BoardReader
	Store   Store
	Boards  Boards
	Columns monday.Columns
	Logger  *zap.Logger
	Timeout time.Duration
	// OnFinish is called after every run reaches a terminal state.
	OnFinish func(model.SyncRun)
}

// Runner executes sync runs in the background, one at a time.
type Runner struct {
	cfg RunnerConfig
	wg  sync.WaitGroup
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Tracker == nil {
		cfg.Tracker = NewTracker()
	}
	if cfg.Columns == nil {
		cfg.Columns = monday.DefaultColumns()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRunTimeout
	}
	return &Runner{cfg: cfg}
}

// Tracker returns the runner's state tracker.
func (r *Runner) Tracker() *Tracker {
	return r.cfg.Tracker
}

// Trigger starts a run in a background goroutine and returns it in the
// syncing state. It returns ErrAlreadySyncing if a run is in flight.
// The run outlives ctx's cancellation but keeps its values.
func (r *Runner) Trigger(ctx context.Context) (model.SyncRun, error) {
	if r.cfg.CRM == nil {
		return model.SyncRun{}, errors.New("CRM client not configured (set MONDAY_API_TOKEN)")
	}
	run, err := r.cfg.Tracker.Begin()
	if err != nil {
		return run, err
	}
	r.persist(ctx, run)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
		defer cancel()
		r.execute(runCtx, run.ID)
	}()
	return run, nil
}

// Wait blocks until any in-flight run finishes.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(ctx context.Context, runID string) {
	log := r.cfg.Logger.With(zap.String("run_id", runID))
	log.Info("sync started")
	start := time.Now()

	result, err := r.Sync(ctx)

	var run model.SyncRun
	if err != nil {
		log.Error("sync failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		run, _ = r.cfg.Tracker.Fail(err)
	} else {
		log.Info("sync completed",
			zap.Any("changes", result.Changes),
			zap.Int("skipped", result.Skipped),
			zap.Duration("elapsed", time.Since(start)),
		)
		run, _ = r.cfg.Tracker.Complete(result)
	}
	r.persist(ctx, run)
	if r.cfg.OnFinish != nil {
		r.cfg.OnFinish(run)
	}
}

func (r *Runner) persist(ctx context.Context, run model.SyncRun) {
	if err := r.cfg.Store.SaveSyncRun(context.WithoutCancel(ctx), run); err != nil {
		r.cfg.Logger.Warn("saving sync run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

type boardItems struct {
	rooms, deals, leads []monday.Item
}

// Sync reads every configured board and writes rooms, contracts, payment
// schedules and viewings to the store. It runs synchronously.
func (r *Runner) Sync(ctx context.Context) (model.SyncResult, error) {
	var result model.SyncResult
	st := r.cfg.Store

	before, err := st.Counts(ctx)
	if err != nil {
		return result, fmt.Errorf("counting before sync: %w", err)
	}
	result.Before = before

	items, err := r.fetch(ctx)
	if err != nil {
		return result, err
	}

	if err := r.syncRooms(ctx, items.rooms); err != nil {
		return result, err
	}
	skipped, err := r.syncDeals(ctx, items.deals)
	if err != nil {
		return result, err
	}
	result.Skipped = skipped

	var viewings []model.Viewing
	for _, it := range items.deals {
		if v, ok := monday.MapViewing(it, r.cfg.Columns["viewing_date"], BoardWon); ok {
			viewings = append(viewings, v)
		}
	}
	for _, it := range items.leads {
		if v, ok := monday.MapViewing(it, r.cfg.Columns["qualified.viewing_date"], BoardQualified); ok {
			viewings = append(viewings, v)
		}
	}
	if _, err := st.SaveViewings(ctx, viewings); err != nil {
		return result, fmt.Errorf("saving viewings: %w", err)
	}

	after, err := st.Counts(ctx)
	if err != nil {
		return result, fmt.Errorf("counting after sync: %w", err)
	}
	result.After = after
	result.Changes = make(map[string]int, len(after))
	for table, n := range after {
		result.Changes[table] = n - before[table]
	}
	return result, nil
}

// fetch reads the boards concurrently. The qualified leads board only feeds
// activity counts, so its failure is logged and tolerated.
func (r *Runner) fetch(ctx context.Context) (boardItems, error) {
	var out boardItems
	b := r.cfg.Boards
	g, gctx := errgroup.WithContext(ctx)

	if b.Rooms != "" {
		g.Go(func() error {
			items, err := r.cfg.CRM.BoardItems(gctx, b.Rooms)
			if err != nil {
				return fmt.Errorf("fetching rooms board: %w", err)
			}
			out.rooms = items
			return nil
		})
	}
	if b.Contracts != "" {
		g.Go(func() error {
			items, err := r.cfg.CRM.BoardItems(gctx, b.Contracts)
			if err != nil {
				return fmt.Errorf("fetching contracts board: %w", err)
			}
			out.deals = items
			return nil
		})
	}
	if b.Qualified != "" {
		g.Go(func() error {
			items, err := r.cfg.CRM.BoardItems(gctx, b.Qualified)
			if err != nil {
				r.cfg.Logger.Warn("fetching qualified board", zap.Error(err))
				return nil
			}
			out.leads = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return boardItems{}, err
	}
	return out, nil
}

func (r *Runner) syncRooms(ctx context.Context, items []monday.Item) error {
	rooms := make([]model.Room, 0, len(items))
	for _, it := range items {
		if room, ok := monday.MapRoom(it, r.cfg.Columns); ok {
			rooms = append(rooms, room)
		}
	}
	if err := r.cfg.Store.UpsertRooms(ctx, rooms); err != nil {
		return fmt.Errorf("saving rooms: %w", err)
	}
	return nil
}

// syncDeals maps won deals to contracts, creating placeholder rooms for
// unknown units, and replaces each contract's payment schedule. Contracts
// without CRM instalments get a schedule generated from their payment plan.
func (r *Runner) syncDeals(ctx context.Context, items []monday.Item) (int, error) {
	deals := make([]monday.Deal, 0, len(items))
	skipped := 0
	for _, it := range items {
		deal, err := monday.MapDeal(it, r.cfg.Columns)
		if err != nil {
			r.cfg.Logger.Debug("skipping deal", zap.Error(err))
			skipped++
			continue
		}
		deals = append(deals, deal)
	}

	seen := make(map[string]struct{})
	var roomIDs []string
	contracts := make([]model.Contract, len(deals))
	for i, d := range deals {
		contracts[i] = d.Contract
		if _, ok := seen[d.Contract.RoomID]; !ok {
			seen[d.Contract.RoomID] = struct{}{}
			roomIDs = append(roomIDs, d.Contract.RoomID)
		}
	}

	created, err := r.cfg.Store.EnsureRooms(ctx, roomIDs)
	if err != nil {
		return skipped, fmt.Errorf("ensuring rooms: %w", err)
	}
	if created > 0 {
		r.cfg.Logger.Info("created placeholder rooms", zap.Int("count", created))
	}

	saved, _, err := r.cfg.Store.UpsertContracts(ctx, contracts)
	if err != nil {
		return skipped, fmt.Errorf("saving contracts: %w", err)
	}

	for i, c := range saved {
		payments := deals[i].Payments
		if len(payments) == 0 {
			payments = pipeline.GenerateSchedule(c)
		}
		if err := r.cfg.Store.ReplaceSchedule(ctx, c.ID, payments); err != nil {
			return skipped, fmt.Errorf("saving schedule: %w", err)
		}
	}
	return skipped, nil
}
