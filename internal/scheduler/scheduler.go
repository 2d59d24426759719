package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/ecopulse/environment-data-aggregation/internal/cache"
	"github.com/ecopulse/environment-data-aggregation/internal/telemetry"
)

// Scheduler periodically sweeps expired entries out of the snapshot cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     cache.Store
	interval  time.Duration
}

// New creates a new Scheduler. store may be nil when caching is disabled.
func New(store cache.Store, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		store:     store,
		interval:  interval,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.store == nil {
		log.Info().Msg("scheduler: cache disabled, nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		removed, err := s.store.SweepExpired(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("scheduler: cache sweep failed")
			return
		}
		if removed > 0 {
			telemetry.CacheSweptEntries.Add(float64(removed))
			log.Info().Int64("removed", removed).Msg("scheduler: swept expired cache entries")
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
