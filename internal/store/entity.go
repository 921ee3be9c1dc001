package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hindsightlabs/hindsight/internal/domain"
)

// EntityStateStore is an append-only ledger. Rows are never updated or
// deleted; "current" is a projection ordered by as_of with created_at as
// tiebreak.
type EntityStateStore struct {
	db *pgxpool.Pool
}

func NewEntityStateStore(db *pgxpool.Pool) *EntityStateStore {
	return &EntityStateStore{db: db}
}

const entityStateColumns = `id, entity, status, as_of, confidence, source_id, created_at`

func (s *EntityStateStore) Append(ctx context.Context, st *domain.EntityState) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO entity_states (entity, status, as_of, confidence, source_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		st.Entity, st.Status, st.AsOf, st.Confidence, nullableString(st.SourceID),
	).Scan(&st.ID, &st.CreatedAt)
}

func (s *EntityStateStore) Current(ctx context.Context, entity string) (*domain.EntityState, error) {
	st, err := scanEntityState(s.db.QueryRow(ctx,
		`SELECT `+entityStateColumns+` FROM entity_states
		 WHERE entity = $1
		 ORDER BY as_of DESC NULLS LAST, created_at DESC
		 LIMIT 1`,
		entity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *EntityStateStore) History(ctx context.Context, entity string, r domain.StateRange) ([]domain.EntityState, error) {
	conditions := []string{"entity = $1"}
	args := []any{entity}

	if !r.From.IsZero() {
		args = append(args, r.From)
		conditions = append(conditions, fmt.Sprintf("COALESCE(as_of, created_at) >= $%d", len(args)))
	}
	if !r.To.IsZero() {
		args = append(args, r.To)
		conditions = append(conditions, fmt.Sprintf("COALESCE(as_of, created_at) < $%d", len(args)))
	}

	rows, err := s.db.Query(ctx, fmt.Sprintf(
		`SELECT `+entityStateColumns+` FROM entity_states
		 WHERE %s
		 ORDER BY as_of ASC NULLS FIRST, created_at ASC`,
		strings.Join(conditions, " AND ")), args...)
	if err != nil {
		return nil, fmt.Errorf("query entity history: %w", err)
	}
	defer rows.Close()

	var states []domain.EntityState
	for rows.Next() {
		st, err := scanEntityState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, *st)
	}
	return states, rows.Err()
}

func (s *EntityStateStore) Entities(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT entity FROM entity_states ORDER BY entity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func scanEntityState(row pgx.Row) (*domain.EntityState, error) {
	st := &domain.EntityState{}
	var sourceID *string
	err := row.Scan(&st.ID, &st.Entity, &st.Status, &st.AsOf, &st.Confidence, &sourceID, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sourceID != nil {
		st.SourceID = *sourceID
	}
	return st, nil
}
