package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/store"
)

// EntityService fronts the versioned entity-state ledger. Every write is an
// insert; the current belief about an entity is a projection, never a
// mutated row.
type EntityService struct {
	states domain.EntityStateStore
	logger *zap.Logger
}

func NewEntityService(es domain.EntityStateStore, logger *zap.Logger) *EntityService {
	return &EntityService{states: es, logger: logger}
}

// RecordState appends a new state version. Out-of-range confidence is
// rejected, not clamped.
func (s *EntityService) RecordState(ctx context.Context, st *domain.EntityState) error {
	if strings.TrimSpace(st.Entity) == "" {
		return fmt.Errorf("%w: entity is required", ErrValidation)
	}
	if strings.TrimSpace(st.Status) == "" {
		return fmt.Errorf("%w: status is required", ErrValidation)
	}
	if st.Confidence < 0 || st.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrValidation, st.Confidence)
	}

	if err := s.states.Append(ctx, st); err != nil {
		return err
	}
	s.logger.Info("entity state recorded",
		zap.String("entity", st.Entity),
		zap.String("status", st.Status),
		zap.Float64("confidence", st.Confidence))
	return nil
}

// Current returns the latest-wins projection: maximum as_of, ties (and
// missing as_of) broken by creation time.
func (s *EntityService) Current(ctx context.Context, entity string) (*domain.EntityState, error) {
	if strings.TrimSpace(entity) == "" {
		return nil, fmt.Errorf("%w: entity is required", ErrValidation)
	}
	st, err := s.states.Current(ctx, entity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: entity %q has no recorded state", ErrNotFound, entity)
		}
		return nil, err
	}
	return st, nil
}

// History is a pure ascending read over the immutable log; calling it again
// with the same range yields the same prefix plus anything appended since.
func (s *EntityService) History(ctx context.Context, entity string, r domain.StateRange) ([]domain.EntityState, error) {
	if strings.TrimSpace(entity) == "" {
		return nil, fmt.Errorf("%w: entity is required", ErrValidation)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return nil, fmt.Errorf("%w: range end precedes start", ErrValidation)
	}
	return s.states.History(ctx, entity, r)
}

func (s *EntityService) Entities(ctx context.Context) ([]string, error) {
	return s.states.Entities(ctx)
}
