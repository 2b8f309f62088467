package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/do/v2"

	"github.com/buddyread/buddyread-server/internal/config"
	"github.com/buddyread/buddyread-server/internal/logger"
	"github.com/buddyread/buddyread-server/internal/metrics"
)

// SchedulerHandle runs the periodic maintenance jobs.
type SchedulerHandle struct {
	*cron.Cron
}

// Shutdown implements do.Shutdownable. It waits for running jobs to finish.
func (h *SchedulerHandle) Shutdown() error {
	ctx := h.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("scheduler: jobs still running after %s", shutdownTimeout)
	}
}

// ProvideScheduler registers the maintenance jobs and starts the scheduler.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sessionsHandle := do.MustInvoke[*SessionStoreHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger)))

	run := func(name string, job func() error) func() {
		return func() {
			start := time.Now()
			err := job()
			m.RecordJob(name, time.Since(start), err == nil)
			if err != nil {
				log.WithField("job", name).WithError(err).Warn("Scheduled job failed")
			}
		}
	}

	// Expired sessions drop out of Badger through their TTL; GC reclaims the space.
	if _, err := c.AddFunc(cfg.Jobs.SessionGCSchedule, run("session_gc", func() error {
		rewritten, err := sessionsHandle.RunGC(sessionGCDiscardRatio)
		if err != nil {
			return err
		}
		if rewritten > 0 {
			log.Info("Session store GC completed", "rewritten", rewritten)
		}
		return nil
	})); err != nil {
		return nil, fmt.Errorf("schedule session gc: %w", err)
	}

	if _, err := c.AddFunc(cfg.Jobs.ReindexSchedule, run("search_reindex", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		books, err := storeHandle.ListBooks(ctx)
		if err != nil {
			return err
		}
		indexed, err := indexHandle.Reconcile(ctx, books)
		if err != nil {
			return err
		}
		log.Info("Search reindex completed", "books", len(books), "indexed", indexed)
		return nil
	})); err != nil {
		return nil, fmt.Errorf("schedule search reindex: %w", err)
	}

	c.Start()

	log.Info("Maintenance jobs scheduled",
		"session_gc", cfg.Jobs.SessionGCSchedule,
		"search_reindex", cfg.Jobs.ReindexSchedule,
	)

	return &SchedulerHandle{Cron: c}, nil
}
