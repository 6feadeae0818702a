package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stellarreg/api/internal/config"
	"stellarreg/api/internal/metrics"
	"stellarreg/api/internal/ratelimit"
)

const sweepTimeout = 30 * time.Second

type SessionSweeper interface {
	SweepExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler runs housekeeping: pruning elapsed rate limiter windows and
// clearing expired admin sessions. Neither job changes what is allowed or
// rejected; both only bound stored state.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.JobsConfig
	rlCfg    config.RateLimitConfig
	limiter  ratelimit.Sweeper
	sessions SessionSweeper
	metrics  *metrics.Manager
	log      zerolog.Logger
}

// NewScheduler wires the sweeps. The limiter sweep is skipped when limiter
// keeps no state in process (the redis backend expires keys itself).
func NewScheduler(
	cfg config.JobsConfig,
	rlCfg config.RateLimitConfig,
	limiter ratelimit.Limiter,
	sessions SessionSweeper,
	m *metrics.Manager,
	log zerolog.Logger,
) *Scheduler {
	sweeper, _ := limiter.(ratelimit.Sweeper)
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		rlCfg:    rlCfg,
		limiter:  sweeper,
		sessions: sessions,
		metrics:  m,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.log.Info().Msg("scheduler disabled")
		return nil
	}

	if s.limiter != nil && s.rlCfg.SweepSchedule != "" {
		if _, err := s.cron.AddFunc(s.rlCfg.SweepSchedule, s.sweepRateLimiter); err != nil {
			return err
		}
	}
	if s.sessions != nil && s.cfg.SessionSweepSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.SessionSweepSchedule, s.sweepSessions); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish or ctx to end, whichever is first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) sweepRateLimiter() {
	removed := s.limiter.Sweep()
	if tracked, ok := s.limiter.(interface{ Len() int }); ok {
		s.metrics.GaugeRateLimitKeys.Set(float64(tracked.Len()))
	}
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("rate limiter swept")
	}
}

func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cleared, err := s.sessions.SweepExpiredSessions(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if cleared > 0 {
		s.log.Info().Int64("cleared", cleared).Msg("expired admin sessions cleared")
	}
}
