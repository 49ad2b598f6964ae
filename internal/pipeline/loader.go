package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/morehouse/mhouse/internal/model"
)

// Source supplies snapshots of stored records.
type Source interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
}

// LoadResult holds the output of the loading pipeline.
type LoadResult struct {
	Snapshot           model.Snapshot
	StoredPayments     int
	GeneratedPayments  int
	GeneratedContracts int
}

// ProgressFunc is called during loading to report progress.
// current is the number of contracts processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load reads a snapshot from src and fills in payment schedules for booked
// contracts that have none stored, using a bounded worker pool.
func Load(ctx context.Context, src Source, progressFn ProgressFunc) (*LoadResult, error) {
	snap, err := src.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return complete(snap, progressFn), nil
}

func complete(snap model.Snapshot, progressFn ProgressFunc) *LoadResult {
	result := &LoadResult{StoredPayments: len(snap.Payments)}

	toProcess := unscheduled(snap.Contracts, snap.Payments)
	if len(toProcess) == 0 {
		result.Snapshot = snap
		return result
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(toProcess) {
		numWorkers = len(toProcess)
	}

	work := make(chan int, len(toProcess))
	results := make([][]model.ScheduledPayment, len(toProcess))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range toProcess {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = GenerateSchedule(toProcess[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(toProcess))
				}
			}
		}()
	}

	wg.Wait()

	payments := make([]model.ScheduledPayment, len(snap.Payments), len(snap.Payments)+len(toProcess)*12)
	copy(payments, snap.Payments)
	for _, generated := range results {
		if len(generated) == 0 {
			continue
		}
		result.GeneratedContracts++
		result.GeneratedPayments += len(generated)
		payments = append(payments, generated...)
	}

	snap.Payments = payments
	result.Snapshot = snap
	return result
}
