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

// EventService guards the append-only event ledger.
type EventService struct {
	events domain.EventStore
	logger *zap.Logger
}

func NewEventService(es domain.EventStore, logger *zap.Logger) *EventService {
	return &EventService{events: es, logger: logger}
}

// Append validates and writes a new event. The id and created_at are
// assigned by the store.
func (s *EventService) Append(ctx context.Context, e *domain.Event) error {
	if strings.TrimSpace(e.Statement) == "" {
		return fmt.Errorf("%w: statement is required", ErrValidation)
	}
	if len(e.Entities) == 0 {
		return fmt.Errorf("%w: entities must be non-empty", ErrValidation)
	}
	if !domain.ValidActionType(string(e.ActionType)) {
		return fmt.Errorf("%w: unknown action_type %q", ErrValidation, e.ActionType)
	}
	if e.Status != "" && !domain.ValidEventStatus(string(e.Status)) {
		return fmt.Errorf("%w: unknown event status %q", ErrValidation, e.Status)
	}

	if err := s.events.Append(ctx, e); err != nil {
		return err
	}

	s.logger.Info("event appended",
		zap.String("event_id", e.ID.String()),
		zap.String("action_type", string(e.ActionType)),
		zap.Strings("entities", e.Entities))
	return nil
}

// Retract marks an event inert. It never deletes the row, and retracting an
// already-retracted event is a no-op.
func (s *EventService) Retract(ctx context.Context, id uuid.UUID) error {
	if err := s.events.Retract(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: event %s", ErrNotFound, id)
		}
		return err
	}
	s.logger.Info("event retracted", zap.String("event_id", id.String()))
	return nil
}

func (s *EventService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, id)
		}
		return nil, err
	}
	return e, nil
}

// Query is a read-only scan with optional entity/status/date filters.
func (s *EventService) Query(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	if f.Status != nil && !domain.ValidEventStatus(string(*f.Status)) {
		return nil, fmt.Errorf("%w: unknown event status %q", ErrValidation, *f.Status)
	}
	return s.events.Query(ctx, f)
}

// ActionsInWindow lists unretracted real-world actions in [start, end).
func (s *EventService) ActionsInWindow(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: window end precedes start", ErrValidation)
	}
	return s.events.ActionsInWindow(ctx, start, end)
}
