package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/1kuna/kindle-lock/pkg/logger"
	"github.com/1kuna/kindle-lock/pkg/store"
)

// statsKey is where DailyStats lives in the store.
const statsKey = "progress/daily"

// accountant implements Accountant over a key-value store.
type accountant struct {
	config Config
	store  store.Store
	logger logger.Logger
}

// New creates an Accountant.
func New(config Config, st store.Store, log logger.Logger) (Accountant, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if config.DailyPercentageGoal <= 0 {
		return nil, fmt.Errorf("%w: goal must be positive", ErrInvalidConfig)
	}
	if config.DayResetHour < 0 || config.DayResetHour > 23 {
		return nil, fmt.Errorf("%w: reset hour must be 0-23", ErrInvalidConfig)
	}
	if log == nil {
		log = logger.Default()
	}

	return &accountant{
		config: config,
		store:  st,
		logger: log.With("component", "progress"),
	}, nil
}

// effectiveDay maps a wall-clock instant to its accounting date. Hours
// before the reset hour still belong to the previous calendar day.
// Recomputed on every call, never cached across a boundary.
func (a *accountant) effectiveDay(now time.Time) string {
	if now.Hour() < a.config.DayResetHour {
		now = now.AddDate(0, 0, -1)
	}
	return now.Format(dateLayout)
}

// Apply implements Accountant.Apply. The whole read-modify-write runs
// inside a single store update so an interleaved cycle can never see
// (or clobber) half-applied state.
func (a *accountant) Apply(observations []Observation, now time.Time) (TodayProgress, error) {
	day := a.effectiveDay(now)

	var result TodayProgress
	err := a.store.Update(statsKey, func(current []byte) ([]byte, error) {
		stats, err := decodeStats(current)
		if err != nil {
			return nil, err
		}

		stats = a.rollToDay(stats, day)

		for _, obs := range observations {
			if _, seen := stats.StartOfDayPercentages[obs.ASIN]; !seen {
				// First sighting today: current becomes the baseline,
				// contributing nothing. Progress made before a book
				// was first observed is never credited.
				stats.StartOfDayPercentages[obs.ASIN] = obs.Percentage
			}
			stats.LastKnownPercentages[obs.ASIN] = obs.Percentage
		}

		stats.PercentageRead = sumPositiveDeltas(stats)

		if stats.GoalMetAt == nil && stats.PercentageRead >= a.config.DailyPercentageGoal {
			t := now
			stats.GoalMetAt = &t
			a.logger.Info("daily goal met",
				"date", stats.Date,
				"read", stats.PercentageRead,
				"goal", a.config.DailyPercentageGoal)
		}

		result = a.toProgress(stats)
		return json.Marshal(stats)
	})
	if err != nil {
		return TodayProgress{}, err
	}

	a.logger.Debug("cycle accounted",
		"date", result.Date,
		"books", len(observations),
		"read", result.PercentageRead)
	return result, nil
}

// Today implements Accountant.Today.
func (a *accountant) Today(now time.Time) (TodayProgress, error) {
	day := a.effectiveDay(now)

	raw, err := a.store.Get(statsKey)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return TodayProgress{}, err
	}

	stats, err := decodeStats(raw)
	if err != nil {
		return TodayProgress{}, err
	}

	// A stored day that is not the current effective day means no
	// reading has been accounted today yet.
	stats = a.rollToDay(stats, day)
	return a.toProgress(stats), nil
}

// rollToDay returns stats valid for the given effective day, applying
// the day-transition baseline inheritance when the stored day differs.
func (a *accountant) rollToDay(stats *DailyStats, day string) *DailyStats {
	if stats.Date == day {
		return stats
	}

	// Yesterday's last observed positions become today's baseline, so
	// reading done after midnight but before the first check of the
	// new day still gets counted once the next cycle lands.
	baseline := copyMap(stats.LastKnownPercentages)
	return &DailyStats{
		Date:                  day,
		StartOfDayPercentages: baseline,
		LastKnownPercentages:  copyMap(stats.LastKnownPercentages),
	}
}

func (a *accountant) toProgress(stats *DailyStats) TodayProgress {
	remaining := a.config.DailyPercentageGoal - stats.PercentageRead
	if remaining < 0 {
		remaining = 0
	}
	return TodayProgress{
		Date:                stats.Date,
		PercentageRead:      stats.PercentageRead,
		PercentageGoal:      a.config.DailyPercentageGoal,
		PercentageRemaining: remaining,
		GoalMet:             stats.GoalMetAt != nil,
		GoalMetAt:           stats.GoalMetAt,
	}
}

// sumPositiveDeltas recomputes the day's total from scratch against
// the fixed start-of-day baseline. Regressions clamp to zero; a book
// missing from this cycle keeps its last known contribution.
func sumPositiveDeltas(stats *DailyStats) float64 {
	var total float64
	for asin, last := range stats.LastKnownPercentages {
		baseline, ok := stats.StartOfDayPercentages[asin]
		if !ok {
			continue
		}
		if delta := last - baseline; delta > 0 {
			total += delta
		}
	}
	return total
}

func decodeStats(raw []byte) (*DailyStats, error) {
	stats := &DailyStats{
		StartOfDayPercentages: map[string]float64{},
		LastKnownPercentages:  map[string]float64{},
	}
	if len(raw) == 0 {
		return stats, nil
	}
	if err := json.Unmarshal(raw, stats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStats, err)
	}
	if stats.StartOfDayPercentages == nil {
		stats.StartOfDayPercentages = map[string]float64{}
	}
	if stats.LastKnownPercentages == nil {
		stats.LastKnownPercentages = map[string]float64{}
	}
	return stats, nil
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
