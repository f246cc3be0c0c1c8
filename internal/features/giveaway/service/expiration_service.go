package service

import (
	"context"
	"sync"
	"time"

	"community-automation-bot/internal/common/logger"
	"community-automation-bot/internal/features/giveaway/repository"

	"github.com/google/uuid"
)

// ExpirationService sweeps the store on a fixed interval and finalizes
// overdue giveaways. Polling the store instead of arming per-record timers
// means pending expirations survive process restarts; the conditional
// transition inside Finalize keeps overlapping sweeps harmless.
type ExpirationService struct {
	ctx      context.Context
	cancel   context.CancelFunc
	svc      Service
	repo     repository.Repository
	interval time.Duration
	wg       sync.WaitGroup
}

func NewExpirationService(svc Service, repo repository.Repository, interval time.Duration) *ExpirationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpirationService{
		ctx:      ctx,
		cancel:   cancel,
		svc:      svc,
		repo:     repo,
		interval: interval,
	}
}

func (s *ExpirationService) Start() {
	logger.Info().
		Dur("interval", s.interval).
		Msg("Starting giveaway expiration service")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *ExpirationService) Stop() {
	logger.Info().Msg("Stopping giveaway expiration service")
	s.cancel()
	s.wg.Wait()
	logger.Info().Msg("Giveaway expiration service stopped")
}

func (s *ExpirationService) sweep() {
	runID := uuid.NewString()

	expired, err := s.repo.GetExpired(s.ctx, time.Now())
	if err != nil {
		logger.Error().
			Str("run_id", runID).
			Err(err).
			Msg("Failed to list expired giveaways")
		return
	}
	if len(expired) == 0 {
		return
	}

	logger.Debug().
		Str("run_id", runID).
		Int("count", len(expired)).
		Msg("Finalizing expired giveaways")

	for _, giveawayID := range expired {
		if err := s.svc.Finalize(s.ctx, giveawayID); err != nil {
			logger.Warn().
				Str("run_id", runID).
				Str("giveaway_id", giveawayID).
				Err(err).
				Msg("Failed to finalize giveaway")
		}
	}
}
