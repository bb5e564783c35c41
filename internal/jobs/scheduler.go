package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/ratelimit"
	"github.com/caesarius1187/tgh/internal/repository"
)

type Scheduler struct {
	cron     *cron.Cron
	sessions *repository.SessionRepository
	attempts *ratelimit.MemoryStore
	log      zerolog.Logger
}

// NewScheduler wires the periodic maintenance work. attempts may be nil when
// login attempts live in redis, which expires its own keys.
func NewScheduler(sessions *repository.SessionRepository, attempts *ratelimit.MemoryStore, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		attempts: attempts,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.cleanExpiredSessions); err != nil {
		return err
	}
	if s.attempts != nil {
		if _, err := s.cron.AddFunc("0 */5 * * * *", s.purgeLoginAttempts); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop waits for any in-flight job before returning.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) cleanExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("expired session cleanup failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired sessions removed")
	}
}

func (s *Scheduler) purgeLoginAttempts() {
	removed := s.attempts.Purge(time.Now())
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("stale login attempt records purged")
	}
}
