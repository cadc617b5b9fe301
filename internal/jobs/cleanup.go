package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/repository"
)

// CleanupJob sweeps sessions whose last activity predates the retention
// window. Rows are deleted outright; a returning user starts fresh at the
// main menu.
type CleanupJob struct {
	sessionRepo repository.SessionRepository
	retention   time.Duration
	interval    time.Duration
	now         func() time.Time
	done        chan struct{}
}

func NewCleanupJob(sessionRepo repository.SessionRepository, retention, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		retention:   retention,
		interval:    interval,
		now:         time.Now,
		done:        make(chan struct{}),
	}
}

// WithClock replaces the time source. Intended for tests.
func (j *CleanupJob) WithClock(now func() time.Time) *CleanupJob {
	j.now = now
	return j
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("retention", j.retention).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.Sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep runs one cleanup pass and returns the number of sessions removed.
func (j *CleanupJob) Sweep() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	count, err := j.sessionRepo.DeleteIdleSince(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup idle sessions")
		return 0
	}
	if count > 0 {
		log.Info().Int64("count", count).Time("cutoff", cutoff).Msg("cleaned up idle sessions")
	}
	return count
}
