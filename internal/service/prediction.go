package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/store"
)

// PredictionService manages date-bound predictions and their one-way
// resolution to a scored outcome.
type PredictionService struct {
	predictions domain.PredictionStore
	logger      *zap.Logger
}

func NewPredictionService(ps domain.PredictionStore, logger *zap.Logger) *PredictionService {
	return &PredictionService{predictions: ps, logger: logger}
}

// Create validates and stores a new pending prediction. made_at defaults to
// today (UTC); resolve_by must not precede it.
func (s *PredictionService) Create(ctx context.Context, p *domain.Prediction) error {
	if strings.TrimSpace(p.Question) == "" {
		return fmt.Errorf("%w: question is required", ErrValidation)
	}
	if strings.TrimSpace(p.Prediction) == "" {
		return fmt.Errorf("%w: prediction is required", ErrValidation)
	}
	if p.Confidence < 1 || p.Confidence > 100 {
		return fmt.Errorf("%w: confidence %d outside [1,100]", ErrValidation, p.Confidence)
	}
	if !domain.ValidCategory(string(p.Category)) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, p.Category)
	}
	if p.Status != "" && p.Status != domain.PredictionPending {
		return fmt.Errorf("%w: new predictions must start pending", ErrValidation)
	}

	if p.MadeAt.IsZero() {
		p.MadeAt = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if p.ResolveBy.IsZero() {
		return fmt.Errorf("%w: resolve_by is required", ErrValidation)
	}
	if p.ResolveBy.Before(p.MadeAt) {
		return fmt.Errorf("%w: resolve_by precedes made_at", ErrValidation)
	}

	if err := s.predictions.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info("prediction created",
		zap.String("prediction_id", p.ID.String()),
		zap.String("category", string(p.Category)),
		zap.Int("confidence", p.Confidence),
		zap.Time("resolve_by", p.ResolveBy))
	return nil
}

func (s *PredictionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prediction, error) {
	p, err := s.predictions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: prediction %s", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

// Resolve closes a pending prediction with a terminal outcome. A second
// resolve of the same prediction, whatever the outcome, fails with
// ErrTerminalState and leaves the first result untouched.
func (s *PredictionService) Resolve(ctx context.Context, id uuid.UUID, outcome domain.PredictionStatus, notes string, at time.Time) (*domain.Prediction, error) {
	if !domain.ValidPredictionOutcome(string(outcome)) {
		return nil, fmt.Errorf("%w: %q is not a terminal outcome", ErrValidation, outcome)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if err := s.predictions.Resolve(ctx, id, outcome, notes, at); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		p, getErr := s.predictions.GetByID(ctx, id)
		if getErr != nil {
			if errors.Is(getErr, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: prediction %s", ErrNotFound, id)
			}
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: prediction %s already %s", ErrTerminalState, id, p.Status)
	}

	s.logger.Info("prediction resolved",
		zap.String("prediction_id", id.String()),
		zap.String("outcome", string(outcome)))
	return s.GetByID(ctx, id)
}

// Due lists pending predictions whose resolve-by date has passed.
func (s *PredictionService) Due(ctx context.Context, asOf time.Time) ([]domain.Prediction, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return s.predictions.Due(ctx, asOf)
}

// ExpireOverdue marks every overdue pending prediction ambiguous. Safe to
// run repeatedly; already-closed rows are skipped by the status guard.
func (s *PredictionService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	n, err := s.predictions.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("marked overdue predictions ambiguous", zap.Int64("count", n))
	}
	return n, nil
}
