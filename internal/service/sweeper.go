package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSweepInterval = 1 * time.Hour

// SweeperService periodically closes out overdue lifecycles: pending
// predictions past resolve_by become ambiguous, and overdue hypotheses are
// flagged or expired per the configured policy.
type SweeperService struct {
	hypotheses  *HypothesisService
	predictions *PredictionService
	logger      *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSweeperService(hs *HypothesisService, ps *PredictionService, logger *zap.Logger) *SweeperService {
	return &SweeperService{
		hypotheses:  hs,
		predictions: ps,
		logger:      logger,
		interval:    defaultSweepInterval,
		stopCh:      make(chan struct{}),
	}
}

func (s *SweeperService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the sweep on a periodic schedule in a background goroutine.
func (s *SweeperService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("overdue sweeper started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.RunOnce(ctx, time.Now().UTC())
				cancel()
			case <-s.stopCh:
				s.logger.Info("overdue sweeper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweeper.
func (s *SweeperService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunOnce performs a single sweep pass. It is also exposed through the API
// so operators can trigger a sweep out of schedule.
func (s *SweeperService) RunOnce(ctx context.Context, now time.Time) SweepResult {
	var result SweepResult

	n, err := s.predictions.ExpireOverdue(ctx, now)
	if err != nil {
		s.logger.Error("failed to expire overdue predictions", zap.Error(err))
	} else {
		result.AmbiguousPredictions = n
	}

	expired, flagged, err := s.hypotheses.ExpireOverdue(ctx, now)
	if err != nil {
		s.logger.Error("failed to sweep overdue hypotheses", zap.Error(err))
	} else {
		result.ExpiredHypotheses = expired
		result.FlaggedHypotheses = flagged
	}

	return result
}
