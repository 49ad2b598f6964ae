package importer

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/morehouse/mhouse/internal/model"
	"github.com/morehouse/mhouse/internal/pipeline"
)

// Sink stores imported records.
type Sink interface {
	UpsertRooms(ctx context.Context, rooms []model.Room) error
	UpsertContracts(ctx context.Context, contracts []model.Contract) ([]model.Contract, int, error)
	ReplaceSchedule(ctx context.Context, contractID int64, payments []model.ScheduledPayment) error
	SaveOpex(ctx context.Context, lines []model.OpexBudget) error
}

// Summary reports what an import wrote.
type Summary struct {
	Rooms            int
	Contracts        int
	ContractsCreated int
	Payments         int
	OpexLines        int
	Skipped          []string
}

// Importer writes file contents to a Sink.
type Importer struct {
	sink   Sink
	logger *zap.Logger
}

// New creates an importer.
func New(sink Sink, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{sink: sink, logger: logger}
}

// ImportContracts reads a workbook's booked units and stores its rooms and
// contracts. Each imported contract's schedule is regenerated from its
// payment plan.
func (im *Importer) ImportContracts(ctx context.Context, path string) (Summary, error) {
	var sum Summary

	f, err := os.Open(path)
	if err != nil {
		return sum, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	units, err := ReadBookedUnits(f)
	if err != nil {
		return sum, err
	}
	sum.Skipped = units.Skipped
	for _, s := range units.Skipped {
		im.logger.Warn("skipping row", zap.String("row", s))
	}

	if err := im.sink.UpsertRooms(ctx, units.Rooms); err != nil {
		return sum, fmt.Errorf("saving rooms: %w", err)
	}
	sum.Rooms = len(units.Rooms)

	saved, created, err := im.sink.UpsertContracts(ctx, units.Contracts)
	if err != nil {
		return sum, fmt.Errorf("saving contracts: %w", err)
	}
	sum.Contracts = len(saved)
	sum.ContractsCreated = created

	for _, c := range saved {
		payments := pipeline.GenerateSchedule(c)
		if err := im.sink.ReplaceSchedule(ctx, c.ID, payments); err != nil {
			return sum, fmt.Errorf("saving schedule for %s: %w", c.RoomID, err)
		}
		sum.Payments += len(payments)
	}

	im.logger.Info("imported contracts",
		zap.String("file", path),
		zap.Int("rooms", sum.Rooms),
		zap.Int("contracts", sum.Contracts),
		zap.Int("created", sum.ContractsCreated),
		zap.Int("payments", sum.Payments),
		zap.Int("skipped", len(sum.Skipped)),
	)
	return sum, nil
}

// ImportOpex reads a YAML budget and stores its monthly lines.
func (im *Importer) ImportOpex(ctx context.Context, path string) (Summary, error) {
	var sum Summary

	f, err := os.Open(path)
	if err != nil {
		return sum, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	lines, err := ReadOpex(f)
	if err != nil {
		return sum, err
	}
	if err := im.sink.SaveOpex(ctx, lines); err != nil {
		return sum, fmt.Errorf("saving opex: %w", err)
	}
	sum.OpexLines = len(lines)

	im.logger.Info("imported opex budget", zap.String("file", path), zap.Int("lines", sum.OpexLines))
	return sum, nil
}
