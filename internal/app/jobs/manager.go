// Package jobs runs the periodic maintenance work of the portal.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/pkg/filestorage"
)

const (
	sweepBatchSize = 100
	jobTimeout     = 2 * time.Minute
)

// Schedules are six-field cron expressions (with seconds)
type Schedules struct {
	Cleanup string
	Stats   string
	Tokens  string
}

// StatsWarmer precomputes cached dashboard aggregates
type StatsWarmer interface {
	Warm(ctx context.Context) error
}

// Manager manages all scheduled jobs
type Manager struct {
	cron    *cron.Cron
	cleanup repositories.IStorageCleanupRepository
	tokens  repositories.ITokenRepository
	store   filestorage.ObjectStore
	stats   StatsWarmer
	logger  zerolog.Logger
}

// NewManager creates a new job manager
func NewManager(cleanup repositories.IStorageCleanupRepository, tokens repositories.ITokenRepository, store filestorage.ObjectStore, stats StatsWarmer, logger zerolog.Logger) *Manager {
	return &Manager{
		cron:    cron.New(cron.WithSeconds()),
		cleanup: cleanup,
		tokens:  tokens,
		store:   store,
		stats:   stats,
		logger:  logger,
	}
}

// Start registers the jobs and starts the scheduler
func (m *Manager) Start(s Schedules) error {
	jobs := []struct {
		name     string
		schedule string
		run      func(ctx context.Context) error
	}{
		{"sweep_orphaned_uploads", s.Cleanup, m.SweepOrphanedUploads},
		{"warm_dashboard_stats", s.Stats, m.WarmStats},
		{"cleanup_expired_tokens", s.Tokens, m.CleanupExpiredTokens},
	}

	for _, j := range jobs {
		if j.schedule == "" {
			continue
		}
		if _, err := m.cron.AddFunc(j.schedule, func() { m.run(j.name, j.run) }); err != nil {
			return err
		}
		m.logger.Info().Str("job", j.name).Str("schedule", j.schedule).Msg("Job registered")
	}

	m.cron.Start()
	m.logger.Info().Msg("Job scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
	m.logger.Info().Msg("Job scheduler stopped")
}

func (m *Manager) run(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		m.logger.Error().Err(err).Str("job", name).Dur("took", time.Since(start)).Msg("Job failed")
		return
	}
	m.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("Job completed")
}

// SweepOrphanedUploads deletes objects flagged after a failed upload or
// removal. Keys that still fail stay pending for the next run.
func (m *Manager) SweepOrphanedUploads(ctx context.Context) error {
	pending, err := m.cleanup.ListPending(ctx, sweepBatchSize)
	if err != nil {
		return err
	}

	var deleted int
	for _, p := range pending {
		if err := m.store.Delete(ctx, p.ObjectKey); err != nil {
			m.logger.Warn().Err(err).Str("key", p.ObjectKey).Msg("Orphaned object still not deletable")
			continue
		}
		if err := m.cleanup.MarkProcessed(ctx, p.ID); err != nil {
			return err
		}
		deleted++
	}

	if len(pending) > 0 {
		m.logger.Info().Int("pending", len(pending)).Int("deleted", deleted).Msg("Orphaned uploads swept")
	}
	return nil
}

// WarmStats recomputes the admin dashboard into the cache
func (m *Manager) WarmStats(ctx context.Context) error {
	return m.stats.Warm(ctx)
}

// CleanupExpiredTokens removes expired and revoked refresh tokens
func (m *Manager) CleanupExpiredTokens(ctx context.Context) error {
	n, err := m.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		m.logger.Info().Int64("removed", n).Msg("Expired refresh tokens removed")
	}
	return nil
}
