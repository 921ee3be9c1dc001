package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hindsightlabs/hindsight/internal/domain"
)

type EventStore struct {
	db *pgxpool.Pool
}

func NewEventStore(db *pgxpool.Pool) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, statement, occurred_at, sources, entities, tags, action_type, status, retracted, created_at`

func (s *EventStore) Append(ctx context.Context, e *domain.Event) error {
	sourcesJSON, err := json.Marshal(e.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	if e.Status == "" {
		e.Status = domain.EventStatusRaw
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO events (statement, occurred_at, sources, entities, tags, action_type, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		e.Statement, e.OccurredAt, sourcesJSON, e.Entities, e.Tags, e.ActionType, e.Status,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *EventStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EventStore) Retract(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE events SET retracted = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *EventStore) Query(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	conditions := []string{"TRUE"}
	var args []any

	if f.Entity != "" {
		args = append(args, f.Entity)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(entities)", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conditions = append(conditions, fmt.Sprintf("occurred_at < $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		`SELECT `+eventColumns+` FROM events
		 WHERE %s
		 ORDER BY created_at DESC
		 LIMIT $%d`,
		strings.Join(conditions, " AND "), len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *EventStore) ActionsInWindow(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE occurred_at >= $1 AND occurred_at < $2 AND retracted = FALSE
		 ORDER BY occurred_at ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("query actions in window: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var sourcesJSON []byte
	err := row.Scan(&e.ID, &e.Statement, &e.OccurredAt, &sourcesJSON, &e.Entities,
		&e.Tags, &e.ActionType, &e.Status, &e.Retracted, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &e.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
	}
	return e, nil
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
