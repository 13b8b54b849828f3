// Package retention removes published posts past their retention age.
// Scheduled rows are never touched. This is data hygiene, not a
// reconciliation mechanism.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/post-scheduler/internal/metrics"
	"github.com/ErlanBelekov/post-scheduler/internal/repository"
	"github.com/robfig/cron/v3"
)

const purgeBatchSize = 500

type Sweeper struct {
	repo     repository.PostRepository
	schedule cron.Schedule
	maxAge   time.Duration
	logger   *slog.Logger
}

// NewSweeper parses the cron spec (standard 5-field syntax) that decides
// when sweeps run.
func NewSweeper(repo repository.PostRepository, cronSpec string, maxAge time.Duration, logger *slog.Logger) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(cronSpec)
	if err != nil {
		return nil, fmt.Errorf("parse purge cron spec %q: %w", cronSpec, err)
	}
	return &Sweeper{
		repo:     repo,
		schedule: schedule,
		maxAge:   maxAge,
		logger:   logger.With("component", "retention"),
	}, nil
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("retention sweeper started", "max_age", s.maxAge)

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("retention sweeper shut down")
			return
		case <-timer.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	cutoff := start.Add(-s.maxAge)
	total := 0

	for {
		n, err := s.repo.PurgePublishedBefore(ctx, cutoff, purgeBatchSize)
		if err != nil {
			s.logger.Error("purge published posts", "error", err)
			break
		}
		total += n
		if n < purgeBatchSize {
			break
		}
	}

	metrics.PurgedPostsTotal.Add(float64(total))
	metrics.PurgeCycleDuration.Observe(time.Since(start).Seconds())
	if total > 0 {
		s.logger.Info("purged published posts", "count", total, "cutoff", cutoff)
	}
}
