package pipeline

import (
	"context"
	"fmt"

	"github.com/morehouse/mhouse/internal/model"
)

// Mirror is a local store that can stand in for an upstream source.
type Mirror interface {
	Source
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
}

// CachedLoadResult extends LoadResult with mirror metadata.
type CachedLoadResult struct {
	LoadResult
	FromMirror  bool
	UpstreamErr error
}

// LoadWithCache reads from upstream and refreshes the mirror with what it
// got. When upstream fails the last mirrored snapshot is served instead and
// the upstream error is reported alongside it.
func LoadWithCache(ctx context.Context, upstream Source, mirror Mirror, progressFn ProgressFunc) (*CachedLoadResult, error) {
	snap, err := upstream.LoadSnapshot(ctx)
	if err == nil {
		if saveErr := mirror.SaveSnapshot(ctx, snap); saveErr != nil {
			return nil, fmt.Errorf("mirroring snapshot: %w", saveErr)
		}
		return &CachedLoadResult{LoadResult: *complete(snap, progressFn)}, nil
	}

	cached, cacheErr := mirror.LoadSnapshot(ctx)
	if cacheErr != nil {
		return nil, fmt.Errorf("upstream: %w (mirror: %v)", err, cacheErr)
	}
	return &CachedLoadResult{
		LoadResult:  *complete(cached, progressFn),
		FromMirror:  true,
		UpstreamErr: err,
	}, nil
}
