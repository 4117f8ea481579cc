package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/1kuna/kindle-lock/pkg/logger"
	"github.com/1kuna/kindle-lock/pkg/store"
)

func newTestAccountant(t *testing.T, goal float64, resetHour int) (Accountant, store.Store) {
	t.Helper()

	st := store.NewMemory()
	t.Cleanup(func() { _ = st.Close() })

	a, err := New(Config{DailyPercentageGoal: goal, DayResetHour: resetHour}, st, logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a, st
}

// at builds a time on the given date at the given hour.
func at(day string, hour int) time.Time {
	d, err := time.Parse(dateLayout, day)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour) * time.Hour)
}

func TestNewValidation(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()

	tests := []struct {
		name   string
		config Config
	}{
		{"zero goal", Config{DailyPercentageGoal: 0, DayResetHour: 4}},
		{"negative goal", Config{DailyPercentageGoal: -1, DayResetHour: 4}},
		{"reset hour too large", Config{DailyPercentageGoal: 5, DayResetHour: 24}},
		{"negative reset hour", Config{DailyPercentageGoal: 5, DayResetHour: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config, st, logger.Noop()); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestEffectiveDayResetHour(t *testing.T) {
	a, _ := newTestAccountant(t, 5.0, 4)
	acc := a.(*accountant)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"after reset hour", at("2026-03-10", 10), "2026-03-10"},
		{"exactly at reset hour", at("2026-03-10", 4), "2026-03-10"},
		{"before reset hour counts as yesterday", at("2026-03-10", 3), "2026-03-09"},
		{"midnight counts as yesterday", at("2026-03-10", 0), "2026-03-09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := acc.effectiveDay(tt.now); got != tt.want {
				t.Errorf("effectiveDay(%v) = %q, want %q", tt.now, got, tt.want)
			}
		})
	}
}

func TestApplyScenario(t *testing.T) {
	a, _ := newTestAccountant(t, 5.0, 4)

	// Establish the baseline: first-ever sighting contributes nothing.
	p, err := a.Apply([]Observation{{ASIN: "book1", Percentage: 20.0}}, at("2026-03-10", 9))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if p.PercentageRead != 0 {
		t.Errorf("PercentageRead = %v, want 0 for first sighting", p.PercentageRead)
	}

	// Progress below goal.
	p, err = a.Apply([]Observation{{ASIN: "book1", Percentage: 23.5}}, at("2026-03-10", 12))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if p.PercentageRead != 3.5 {
		t.Errorf("PercentageRead = %v, want 3.5", p.PercentageRead)
	}
	if p.GoalMet {
		t.Error("GoalMet = true, want false below goal")
	}

	// Crossing the goal stamps the time.
	crossedAt := at("2026-03-10", 15)
	p, err = a.Apply([]Observation{{ASIN: "book1", Percentage: 26.0}}, crossedAt)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if p.PercentageRead != 6.0 {
		t.Errorf("PercentageRead = %v, want 6.0", p.PercentageRead)
	}
	if !p.GoalMet {
		t.Error("GoalMet = false, want true")
	}
	if p.GoalMetAt == nil || !p.GoalMetAt.Equal(crossedAt) {
		t.Errorf("GoalMetAt = %v, want %v", p.GoalMetAt, crossedAt)
	}
}

func TestApplyIdempotent(t *testing.T) {
	a, _ := newTestAccountant(t, 5.0, 4)

	obs := []Observation{
		{ASIN: "A", Percentage: 30.0},
		{ASIN: "B", Percentage: 50.0},
	}
	now := at("2026-03-10", 9)

	first, err := a.Apply(obs, now)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	second, err := a.Apply(obs, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if first.PercentageRead != second.PercentageRead {
		t.Errorf("re-applied identical observations: read %v then %v",
			first.PercentageRead, second.PercentageRead)
	}
}

func TestApplyRegressionNeverSubtracts(t *testing.T) {
	a, _ := newTestAccountant(t, 5.0, 4)

	mustApply(t, a, []Observation{{ASIN: "A", Percentage: 40.0}}, at("2026-03-10", 9))
	p := mustApply(t, a, []Observation{{ASIN: "A", Percentage: 43.0}}, at("2026-03-10", 10))
	if p.PercentageRead != 3.0 {
		t.Fatalf("PercentageRead = %v, want 3.0", p.PercentageRead)
	}

	// Position regressed (re-read, corrected sync). Contribution clamps
	// to zero, never negative.
	p = mustApply(t, a, []Observation{{ASIN: "A", Percentage: 35.0}}, at("2026-03-10", 11))
	if p.PercentageRead != 0 {
		t.Errorf("PercentageRead after regression = %v, want 0", p.PercentageRead)
	}

	// Recovery counts against the original baseline.
	p = mustApply(t, a, []Observation{{ASIN: "A", Percentage: 45.0}}, at("2026-03-10", 12))
	if p.PercentageRead != 5.0 {
		t.Errorf("PercentageRead after recovery = %v, want 5.0", p.PercentageRead)
	}
}

func TestApplyMissingBookKeepsContribution(t *testing.T) {
	a, _ := newTestAccountant(t, 5.0, 4)

	mustApply(t, a, []Observation{
		{ASIN: "A", Percentage: 10.0},
		{ASIN: "B", Percentage: 20.0},
	}, at("2026-03-10", 9))

	p := mustApply(t, a, []Observation{
		{ASIN: "A", Percentage: 13.0},
		{ASIN: "B", Percentage: 21.0},
	}, at("2026-03-10", 10))
	if p.PercentageRead != 4.0 {
		t.Fatalf("PercentageRead = %v, want 4.0", p.PercentageRead)
	}

	// B's fetch fails this cycle: its earlier contribution stays.
	p = mustApply(t, a, []Observation{{ASIN: "A", Percentage: 14.0}}, at("2026-03-10", 11))
	if p.PercentageRead != 5.0 {
		t.Errorf("PercentageRead with B unresolved = %v, want 5.0", p.PercentageRead)
	}
}

func TestDayTransitionInheritsBaseline(t *testing.T) {
	a, st := newTestAccountant(t, 5.0, 4)

	mustApply(t, a, []Observation{{ASIN: "A", Percentage: 30.0}}, at("2026-03-10", 9))
	mustApply(t, a, []Observation{
		{ASIN: "A", Percentage: 40.0},
		{ASIN: "B", Percentage: 10.0},
	}, at("2026-03-10", 22))

	// First cycle of the next effective day, before any new reading:
	// yesterday's last known positions are the new baselines.
	p := mustApply(t, a, nil, at("2026-03-11", 8))
	if p.Date != "2026-03-11" {
		t.Errorf("Date = %q, want 2026-03-11", p.Date)
	}
	if p.PercentageRead != 0 {
		t.Errorf("PercentageRead at start of new day = %v, want 0", p.PercentageRead)
	}

	raw, err := st.Get(statsKey)
	if err != nil {
		t.Fatalf("Get(statsKey) error = %v", err)
	}
	stats, err := decodeStats(raw)
	if err != nil {
		t.Fatalf("decodeStats() error = %v", err)
	}
	want := map[string]float64{"A": 40.0, "B": 10.0}
	for asin, wantPct := range want {
		if got := stats.StartOfDayPercentages[asin]; got != wantPct {
			t.Errorf("StartOfDayPercentages[%s] = %v, want %v", asin, got, wantPct)
		}
	}

	// Overnight reading (after midnight, before the reset hour fence)
	// lands on the previous effective day; reading after the fence
	// counts against the inherited baseline.
	p = mustApply(t, a, []Observation{{ASIN: "A", Percentage: 47.0}}, at("2026-03-11", 9))
	if p.PercentageRead != 7.0 {
		t.Errorf("PercentageRead = %v, want 7.0", p.PercentageRead)
	}
}

func TestNewBookZeroCredit(t *testing.T) {
	a, _ := newTestAccountant(t, 5.0, 4)

	p := mustApply(t, a, []Observation{{ASIN: "X", Percentage: 62.0}}, at("2026-03-10", 9))
	if p.PercentageRead != 0 {
		t.Errorf("PercentageRead = %v, want 0 for a book first observed at 62.0", p.PercentageRead)
	}

	p = mustApply(t, a, []Observation{{ASIN: "X", Percentage: 63.0}}, at("2026-03-10", 10))
	if p.PercentageRead != 1.0 {
		t.Errorf("PercentageRead = %v, want 1.0 against the 62.0 baseline", p.PercentageRead)
	}
}

func TestGoalMetAtPermanent(t *testing.T) {
	a, _ := newTestAccountant(t, 5.0, 4)

	mustApply(t, a, []Observation{{ASIN: "A", Percentage: 10.0}}, at("2026-03-10", 9))
	crossedAt := at("2026-03-10", 10)
	p := mustApply(t, a, []Observation{{ASIN: "A", Percentage: 16.0}}, crossedAt)
	if p.GoalMetAt == nil {
		t.Fatal("GoalMetAt not set after crossing goal")
	}

	// Further progress does not move the stamp.
	p = mustApply(t, a, []Observation{{ASIN: "A", Percentage: 20.0}}, at("2026-03-10", 14))
	if p.GoalMetAt == nil || !p.GoalMetAt.Equal(crossedAt) {
		t.Errorf("GoalMetAt = %v, want frozen at %v", p.GoalMetAt, crossedAt)
	}

	// A regression below the goal does not clear it either.
	p = mustApply(t, a, []Observation{{ASIN: "A", Percentage: 11.0}}, at("2026-03-10", 15))
	if !p.GoalMet || p.GoalMetAt == nil || !p.GoalMetAt.Equal(crossedAt) {
		t.Errorf("goal stamp lost after regression: GoalMet=%v GoalMetAt=%v", p.GoalMet, p.GoalMetAt)
	}

	// The stamp resets only with a new effective day.
	p = mustApply(t, a, nil, at("2026-03-11", 9))
	if p.GoalMet || p.GoalMetAt != nil {
		t.Errorf("new day should reset the stamp: GoalMet=%v GoalMetAt=%v", p.GoalMet, p.GoalMetAt)
	}
}

func TestToday(t *testing.T) {
	a, _ := newTestAccountant(t, 5.0, 4)

	// Before anything is stored.
	p, err := a.Today(at("2026-03-10", 9))
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if p.PercentageRead != 0 || p.GoalMet {
		t.Errorf("fresh Today() = %+v, want zero progress", p)
	}
	if p.PercentageRemaining != 5.0 {
		t.Errorf("PercentageRemaining = %v, want 5.0", p.PercentageRemaining)
	}

	mustApply(t, a, []Observation{{ASIN: "A", Percentage: 10.0}}, at("2026-03-10", 9))
	mustApply(t, a, []Observation{{ASIN: "A", Percentage: 13.0}}, at("2026-03-10", 10))

	p, err = a.Today(at("2026-03-10", 11))
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if p.PercentageRead != 3.0 {
		t.Errorf("PercentageRead = %v, want 3.0", p.PercentageRead)
	}
	if p.PercentageRemaining != 2.0 {
		t.Errorf("PercentageRemaining = %v, want 2.0", p.PercentageRemaining)
	}

	// Reading Today across a day boundary reports the new day without
	// writing anything.
	p, err = a.Today(at("2026-03-11", 9))
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if p.Date != "2026-03-11" || p.PercentageRead != 0 {
		t.Errorf("Today() across boundary = %+v, want fresh day", p)
	}

	// The stored state still belongs to the old day.
	p, err = a.Today(at("2026-03-10", 23))
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if p.PercentageRead != 3.0 {
		t.Errorf("stored day mutated by read: PercentageRead = %v, want 3.0", p.PercentageRead)
	}
}

func TestApplyCorruptState(t *testing.T) {
	a, st := newTestAccountant(t, 5.0, 4)

	if err := st.Set(statsKey, []byte("not json")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	_, err := a.Apply([]Observation{{ASIN: "A", Percentage: 10.0}}, at("2026-03-10", 9))
	if !errors.Is(err, ErrCorruptStats) {
		t.Errorf("Apply() error = %v, want ErrCorruptStats", err)
	}
}

func mustApply(t *testing.T, a Accountant, obs []Observation, now time.Time) TodayProgress {
	t.Helper()
	p, err := a.Apply(obs, now)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return p
}
