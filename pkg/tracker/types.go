package tracker

import (
	"context"
	"time"

	"github.com/1kuna/kindle-lock/pkg/progress"
)

// SyncState is the cached outcome of the last successful refresh
// cycle, kept for display while later cycles fail.
type SyncState struct {
	Progress progress.TodayProgress `json:"progress"`
	SyncedAt time.Time              `json:"syncedAt"`
}

// Tracker runs refresh cycles: fetch the recent library, resolve each
// book's position and bounds, and commit the cycle's observations to
// the daily accounting in one step.
type Tracker interface {
	// RunCycle executes one full refresh cycle. Cycles are serialized:
	// a second caller blocks until the first finishes.
	RunCycle(ctx context.Context) (progress.TodayProgress, error)

	// LastSynced returns the cached result of the most recent
	// successful cycle, or ErrNeverSynced.
	LastSynced() (*SyncState, error)
}

// Config holds cycle settings.
type Config struct {
	// Parallelism bounds concurrent per-book fetches.
	Parallelism int
}
