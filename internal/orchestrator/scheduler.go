package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-co-op/gocron/v2"
)

// startScheduler wires the optional self-triggered refresh. New has
// already rejected configs that set both interval and cron.
func (o *Orchestrator) startScheduler(cfg Config) error {
	if cfg.RefreshInterval <= 0 && cfg.RefreshCron == "" {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create refresh scheduler: %w", err)
	}

	var def gocron.JobDefinition
	if cfg.RefreshCron != "" {
		def = gocron.CronJob(cfg.RefreshCron, false)
	} else {
		def = gocron.DurationJob(cfg.RefreshInterval)
	}
	if _, err := sched.NewJob(def, gocron.NewTask(o.scheduledRefresh), gocron.WithName("catalog-refresh")); err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule catalog refresh: %w", err)
	}

	o.scheduler = sched
	sched.Start()
	o.logger.Info("catalog refresh scheduled", "interval", cfg.RefreshInterval, "cron", cfg.RefreshCron)
	return nil
}

// scheduledRefresh runs on the scheduler goroutine. Ticks that land
// before a festival is active, or during shutdown, are quiet no-ops.
func (o *Orchestrator) scheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	err := o.Refresh(ctx)
	if err != nil && !errors.Is(err, ErrNoFestival) && !errors.Is(err, ErrClosed) {
		o.logger.Warn("scheduled catalog refresh failed", "error", err)
	}
}
