package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/1kuna/kindle-lock/pkg/kindle"
	"github.com/1kuna/kindle-lock/pkg/logger"
	"github.com/1kuna/kindle-lock/pkg/progress"
	"github.com/1kuna/kindle-lock/pkg/store"
)

const (
	// syncKey caches the last successful cycle's progress for display.
	syncKey = "progress/lastSync"

	// boundsKeyPrefix namespaces per-book cached bounds.
	boundsKeyPrefix = "catalog/bounds/"

	defaultParallelism = 3
)

// boundsEntry is a cached book's start/end positions. Bounds are fixed
// per book, so one successful fetch serves all later cycles.
type boundsEntry struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// tracker implements Tracker.
type tracker struct {
	mu         sync.Mutex
	config     Config
	client     kindle.Client
	accountant progress.Accountant
	store      store.Store
	logger     logger.Logger

	// now is swapped in tests.
	now func() time.Time
}

// New creates a Tracker.
func New(config Config, client kindle.Client, accountant progress.Accountant, st store.Store, log logger.Logger) (Tracker, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if accountant == nil {
		return nil, fmt.Errorf("accountant is required")
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if log == nil {
		log = logger.Default()
	}
	if config.Parallelism <= 0 {
		config.Parallelism = defaultParallelism
	}

	return &tracker{
		config:     config,
		client:     client,
		accountant: accountant,
		store:      st,
		logger:     log.With("component", "tracker"),
		now:        time.Now,
	}, nil
}

// RunCycle implements Tracker.RunCycle. Scheduled and user-triggered
// refreshes share the same lock: the accounting's day-transition logic
// must never see two interleaved cycles.
func (t *tracker) RunCycle(ctx context.Context) (progress.TodayProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cycleID := uuid.NewString()
	log := t.logger.With("cycle_id", cycleID)
	log.Debug("refresh cycle starting")

	// Handshake and library fetch failures leave nothing to account:
	// the whole cycle aborts and retries on the next schedule.
	if _, err := t.client.EnsureSessionToken(ctx); err != nil {
		log.Warn("session token handshake failed", "error", err)
		return progress.TodayProgress{}, fmt.Errorf("session handshake: %w", err)
	}

	books, err := t.client.FetchRecent(ctx)
	if err != nil {
		log.Warn("library fetch failed", "error", err)
		return progress.TodayProgress{}, fmt.Errorf("library fetch: %w", err)
	}

	observations := t.fetchObservations(ctx, log, books)

	// Cancellation mid-fan-out must not commit a partial cycle.
	if err := ctx.Err(); err != nil {
		log.Warn("cycle cancelled before accounting")
		return progress.TodayProgress{}, err
	}

	result, err := t.accountant.Apply(observations, t.now())
	if err != nil {
		return progress.TodayProgress{}, fmt.Errorf("accounting: %w", err)
	}

	t.cacheSync(result)

	log.Info("refresh cycle complete",
		"books", len(books),
		"resolved", len(observations),
		"read", result.PercentageRead,
		"goal_met", result.GoalMet)
	return result, nil
}

// fetchObservations resolves positions and bounds for all books with
// bounded parallelism and waits for every fetch to settle. Per-book
// failures are contained: the book is simply absent from the result.
func (t *tracker) fetchObservations(ctx context.Context, log logger.Logger, books []kindle.Book) []progress.Observation {
	var (
		obsMu        sync.Mutex
		observations []progress.Observation
	)

	g := &errgroup.Group{}
	g.SetLimit(t.config.Parallelism)

	for _, book := range books {
		book := book
		g.Go(func() error {
			obs, ok := t.observeBook(ctx, log, book)
			if !ok {
				return nil
			}
			obsMu.Lock()
			observations = append(observations, obs)
			obsMu.Unlock()
			return nil
		})
	}

	// Goroutines never return errors; Wait is just the barrier.
	_ = g.Wait()
	return observations
}

// observeBook resolves one book's completion percentage. Any failure
// degrades only this book's contribution to the cycle.
func (t *tracker) observeBook(ctx context.Context, log logger.Logger, book kindle.Book) (progress.Observation, bool) {
	if ctx.Err() != nil {
		return progress.Observation{}, false
	}

	pos, err := t.client.FetchPosition(ctx, book.ASIN)
	if err != nil {
		log.Warn("position fetch failed", "asin", book.ASIN, "error", err)
		return progress.Observation{}, false
	}
	if !pos.HasPosition {
		return progress.Observation{}, false
	}

	bounds, err := t.boundsFor(ctx, book.ASIN, pos.MetadataURL)
	if err != nil {
		log.Warn("bounds unavailable", "asin", book.ASIN, "error", err)
		return progress.Observation{}, false
	}

	return progress.Observation{
		ASIN:       book.ASIN,
		Percentage: bounds.Percentage(pos.Value),
	}, true
}

// boundsFor reads bounds through the cache, fetching and caching on a
// miss.
func (t *tracker) boundsFor(ctx context.Context, asin, metadataURL string) (kindle.Bounds, error) {
	key := boundsKeyPrefix + asin

	raw, err := t.store.Get(key)
	if err == nil {
		var entry boundsEntry
		if err := json.Unmarshal(raw, &entry); err == nil {
			return kindle.Bounds{Start: entry.Start, End: entry.End}, nil
		}
		// Unreadable cache entry falls through to a refetch.
	} else if !errors.Is(err, store.ErrKeyNotFound) {
		return kindle.Bounds{}, err
	}

	bounds, err := t.client.FetchBounds(ctx, metadataURL)
	if err != nil {
		return kindle.Bounds{}, err
	}

	encoded, err := json.Marshal(boundsEntry{Start: bounds.Start, End: bounds.End})
	if err == nil {
		if err := t.store.Set(key, encoded); err != nil {
			t.logger.Warn("failed to cache bounds", "asin", asin, "error", err)
		}
	}
	return bounds, nil
}

// cacheSync stores the cycle outcome for stale display between syncs.
func (t *tracker) cacheSync(p progress.TodayProgress) {
	state := SyncState{Progress: p, SyncedAt: t.now()}
	encoded, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := t.store.Set(syncKey, encoded); err != nil {
		t.logger.Warn("failed to cache sync state", "error", err)
	}
}

// LastSynced implements Tracker.LastSynced.
func (t *tracker) LastSynced() (*SyncState, error) {
	raw, err := t.store.Get(syncKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrNeverSynced
	}
	if err != nil {
		return nil, err
	}

	var state SyncState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("corrupt sync cache: %w", err)
	}
	return &state, nil
}
