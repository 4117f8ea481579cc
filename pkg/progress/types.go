package progress

import "time"

// dateLayout formats effective-day dates.
const dateLayout = "2006-01-02"

// Observation is one book's resolved completion percentage for a
// refresh cycle. Books whose position or bounds could not be resolved
// are simply not observed.
type Observation struct {
	ASIN       string
	Percentage float64
}

// DailyStats is the persisted accounting state for one effective day.
type DailyStats struct {
	// Date is the effective day this state belongs to.
	Date string `json:"date"`

	// PercentageRead is the sum of positive per-book deltas against
	// the start-of-day baseline.
	PercentageRead float64 `json:"percentageRead"`

	// GoalMetAt is the first time PercentageRead crossed the goal
	// this day. Once set it is never cleared or moved.
	GoalMetAt *time.Time `json:"goalMetAt,omitempty"`

	// StartOfDayPercentages is the per-book baseline fixed at the day
	// transition (or at first observation for books new that day).
	StartOfDayPercentages map[string]float64 `json:"startOfDayPercentages"`

	// LastKnownPercentages is the most recent percentage observed per
	// book. It is carried to the next day as its baseline.
	LastKnownPercentages map[string]float64 `json:"lastKnownPercentages"`
}

// TodayProgress is the read model derived from DailyStats.
type TodayProgress struct {
	Date                string     `json:"date"`
	PercentageRead      float64    `json:"percentageRead"`
	PercentageGoal      float64    `json:"percentageGoal"`
	PercentageRemaining float64    `json:"percentageRemaining"`
	GoalMet             bool       `json:"goalMet"`
	GoalMetAt           *time.Time `json:"goalMetAt,omitempty"`
}

// Accountant applies refresh-cycle observations to the persisted daily
// state and answers progress queries.
type Accountant interface {
	// Apply commits one cycle's observations atomically and returns
	// the resulting progress. The whole cycle's accounting commits or
	// none of it does.
	Apply(observations []Observation, now time.Time) (TodayProgress, error)

	// Today reports current progress without modifying state.
	Today(now time.Time) (TodayProgress, error)
}

// Config holds accounting settings.
type Config struct {
	// DailyPercentageGoal is the sum of per-book completion deltas
	// that counts as meeting the day's goal.
	DailyPercentageGoal float64

	// DayResetHour is the wall-clock hour at which a new effective
	// day starts. Before it, observations count toward yesterday.
	DayResetHour int
}
