package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/1kuna/kindle-lock/pkg/config"
	"github.com/1kuna/kindle-lock/pkg/display"
	"github.com/1kuna/kindle-lock/pkg/kindle"
)

// watchCommand runs refresh cycles on a schedule until interrupted.
type watchCommand struct {
	interval   time.Duration
	format     string
	configPath string
}

// Execute runs the watch command.
func (c *watchCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	interval := c.interval
	if interval <= 0 {
		interval = a.cfg.Refresh.Interval
	}
	if interval < minRefreshInterval {
		a.log.Warn("interval below rate-limit floor, clamping",
			"requested", interval,
			"floor", minRefreshInterval)
		interval = minRefreshInterval
	}

	formatter := display.New(display.Config{
		Format:         display.Format(c.format),
		ShowTimestamps: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Goal changes in the config file take effect between cycles
	// without restarting the loop.
	var liveCfg atomic.Pointer[config.Config]
	liveCfg.Store(a.cfg)
	if c.configPath != "" {
		go func() {
			err := config.Watch(ctx, c.configPath, a.log, func(updated *config.Config) {
				liveCfg.Store(updated)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Warn("config watch stopped", "error", err)
			}
		}()
	}

	a.log.Info("watch started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First cycle runs immediately.
	c.runOnce(ctx, a, formatter, &liveCfg)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nStopping.")
			return nil
		case <-ticker.C:
			c.runOnce(ctx, a, formatter, &liveCfg)
		}
	}
}

// runOnce executes a single cycle and prints the outcome. Failures are
// reported and the loop carries on; there is no retry before the next
// tick.
func (c *watchCommand) runOnce(ctx context.Context, a *app, formatter display.Formatter, liveCfg *atomic.Pointer[config.Config]) {
	if cfg := liveCfg.Load(); cfg != a.cfg {
		a.applyGoal(cfg)
	}

	p, err := a.tracker.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if errors.Is(err, kindle.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Session expired: run 'kindle-lock login' to re-authenticate.")
			return
		}
		fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)

		if state, stateErr := a.tracker.LastSynced(); stateErr == nil {
			_ = formatter.FormatProgress(os.Stdout, display.ProgressReport{
				TodayProgress: state.Progress,
				SyncedAt:      state.SyncedAt,
				Stale:         true,
			})
		}
		return
	}

	_ = formatter.FormatProgress(os.Stdout, display.ProgressReport{
		TodayProgress: p,
		SyncedAt:      nowFunc(),
	})
}
