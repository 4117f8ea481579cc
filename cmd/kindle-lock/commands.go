package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/1kuna/kindle-lock/pkg/config"
	"github.com/1kuna/kindle-lock/pkg/display"
	"github.com/1kuna/kindle-lock/pkg/kindle"
	"github.com/1kuna/kindle-lock/pkg/logger"
	"github.com/1kuna/kindle-lock/pkg/progress"
	"github.com/1kuna/kindle-lock/pkg/store"
	"github.com/1kuna/kindle-lock/pkg/tracker"
	"github.com/1kuna/kindle-lock/pkg/vault"
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// app bundles the wired components behind every command. Commands
// construct it, use it, and close it; there is no global state.
type app struct {
	cfg        *config.Config
	log        logger.Logger
	store      store.Store
	vault      vault.Vault
	client     kindle.Client
	accountant progress.Accountant
	tracker    tracker.Tracker
}

// newApp loads configuration and wires all components.
func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})

	st, err := store.NewBolt(store.Config{DBPath: cfg.Storage.DBPath}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	vlt, err := vault.New(vault.Config{KeyPath: cfg.Storage.KeyPath}, st, log)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	client, err := kindle.New(kindle.Config{
		BaseURL:          cfg.Upstream.BaseURL,
		RecentPageSize:   cfg.Upstream.RecentPageSize,
		MaxLibraryPages:  cfg.Upstream.MaxLibraryPages,
		RequestTimeout:   cfg.Refresh.RequestTimeout,
		HandshakeTimeout: cfg.Refresh.HandshakeTimeout,
	}, vlt, log)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	accountant, err := progress.New(progress.Config{
		DailyPercentageGoal: cfg.Goal.DailyPercentage,
		DayResetHour:        cfg.Goal.DayResetHour,
	}, st, log)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to create accountant: %w", err)
	}

	trk, err := tracker.New(tracker.Config{
		Parallelism: cfg.Refresh.Parallelism,
	}, client, accountant, st, log)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	return &app{
		cfg:        cfg,
		log:        log,
		store:      st,
		vault:      vlt,
		client:     client,
		accountant: accountant,
		tracker:    trk,
	}, nil
}

// applyGoal swaps in updated goal and refresh settings from a config
// reload. A rebuild failure keeps the previous components.
func (a *app) applyGoal(cfg *config.Config) {
	if cfg == a.cfg {
		return
	}

	accountant, err := progress.New(progress.Config{
		DailyPercentageGoal: cfg.Goal.DailyPercentage,
		DayResetHour:        cfg.Goal.DayResetHour,
	}, a.store, a.log)
	if err != nil {
		a.log.Warn("ignoring config update", "error", err)
		return
	}

	trk, err := tracker.New(tracker.Config{
		Parallelism: cfg.Refresh.Parallelism,
	}, a.client, accountant, a.store, a.log)
	if err != nil {
		a.log.Warn("ignoring config update", "error", err)
		return
	}

	a.accountant = accountant
	a.tracker = trk
	a.cfg = cfg
	a.log.Info("config updated",
		"goal", cfg.Goal.DailyPercentage,
		"reset_hour", cfg.Goal.DayResetHour)
}

// close releases app resources.
func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("failed to close store", "error", err)
	}
}

// statusCommand shows today's progress and session status.
type statusCommand struct {
	format     string
	compact    bool
	configPath string
}

// Execute runs the status command.
func (c *statusCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	formatter := display.New(display.Config{
		Format:         display.Format(c.format),
		ShowTimestamps: true,
		Compact:        c.compact,
	})

	if err := formatter.FormatSession(os.Stdout, sessionStatus(a.vault)); err != nil {
		return err
	}

	return formatter.FormatProgress(os.Stdout, currentReport(a))
}

// currentReport assembles today's progress with sync freshness. With
// no successful sync yet it falls back to the accountant's view, which
// reports zero progress for a fresh day.
func currentReport(a *app) display.ProgressReport {
	now := nowFunc()

	report := display.ProgressReport{}
	if p, err := a.accountant.Today(now); err == nil {
		report.TodayProgress = p
	}

	if state, err := a.tracker.LastSynced(); err == nil {
		report.SyncedAt = state.SyncedAt
	}
	return report
}

// sessionStatus summarizes vault contents without exposing values.
func sessionStatus(vlt vault.Vault) display.SessionStatus {
	sess, err := vlt.Load()
	if err != nil {
		return display.SessionStatus{}
	}
	return display.SessionStatus{
		Authenticated:   sess.Usable(),
		HasDeviceToken:  sess.DeviceToken != "",
		HasSessionToken: sess.SessionToken != "",
		CreatedAt:       sess.CreatedAt,
	}
}

// refreshCommand runs one refresh cycle and shows the result.
type refreshCommand struct {
	format     string
	compact    bool
	configPath string
}

// Execute runs the refresh command.
func (c *refreshCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	formatter := display.New(display.Config{
		Format:         display.Format(c.format),
		ShowTimestamps: true,
		Compact:        c.compact,
	})

	p, err := a.tracker.RunCycle(context.Background())
	if err != nil {
		if errors.Is(err, kindle.ErrUnauthorized) {
			return fmt.Errorf("session expired, run 'kindle-lock login' to re-authenticate")
		}

		// Transient failure: show the stale cached progress with its
		// sync marker rather than silently zeroing the display.
		if state, stateErr := a.tracker.LastSynced(); stateErr == nil {
			fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)
			return formatter.FormatProgress(os.Stdout, display.ProgressReport{
				TodayProgress: state.Progress,
				SyncedAt:      state.SyncedAt,
				Stale:         true,
			})
		}
		return fmt.Errorf("refresh failed: %w", err)
	}

	return formatter.FormatProgress(os.Stdout, display.ProgressReport{
		TodayProgress: p,
		SyncedAt:      nowFunc(),
	})
}

// libraryCommand lists books.
type libraryCommand struct {
	all        bool
	format     string
	compact    bool
	configPath string
}

// Execute runs the library command.
func (c *libraryCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()

	var books []kindle.Book
	if c.all {
		books, err = a.client.FetchAll(ctx)
	} else {
		books, err = a.client.FetchRecent(ctx)
	}
	if err != nil {
		if errors.Is(err, kindle.ErrUnauthorized) {
			return fmt.Errorf("session expired, run 'kindle-lock login' to re-authenticate")
		}
		return fmt.Errorf("library fetch failed: %w", err)
	}

	formatter := display.New(display.Config{
		Format:  display.Format(c.format),
		Compact: c.compact,
	})
	return formatter.FormatBooks(os.Stdout, books)
}
