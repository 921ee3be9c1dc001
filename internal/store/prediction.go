package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hindsightlabs/hindsight/internal/domain"
)

type PredictionStore struct {
	db *pgxpool.Pool
}

func NewPredictionStore(db *pgxpool.Pool) *PredictionStore {
	return &PredictionStore{db: db}
}

const predictionColumns = `id, question, prediction, confidence, reasoning, category, region,
	made_at, resolve_by, source_post_ids, source_fact_ids, report_id,
	status, resolution_notes, resolved_at, created_at`

func (s *PredictionStore) Create(ctx context.Context, p *domain.Prediction) error {
	if p.Status == "" {
		p.Status = domain.PredictionPending
	}
	if p.SourcePostIDs == nil {
		p.SourcePostIDs = []uuid.UUID{}
	}
	if p.SourceFactIDs == nil {
		p.SourceFactIDs = []uuid.UUID{}
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO predictions (question, prediction, confidence, reasoning, category, region,
		                          made_at, resolve_by, source_post_ids, source_fact_ids, report_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at`,
		p.Question, p.Prediction, p.Confidence, nullableString(p.Reasoning), p.Category,
		nullableString(p.Region), p.MadeAt, p.ResolveBy, p.SourcePostIDs, p.SourceFactIDs,
		p.ReportID, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
}

func (s *PredictionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prediction, error) {
	p, err := scanPrediction(s.db.QueryRow(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Resolve only lands while the row is still pending, so two racing
// resolvers produce exactly one winner.
func (s *PredictionStore) Resolve(ctx context.Context, id uuid.UUID, outcome domain.PredictionStatus, notes string, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE predictions SET status = $2, resolution_notes = $3, resolved_at = $4
		 WHERE id = $1 AND status = $5`,
		id, outcome, nullableString(notes), at, domain.PredictionPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PredictionStore) Due(ctx context.Context, asOf time.Time) ([]domain.Prediction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+predictionColumns+` FROM predictions
		 WHERE status = $1 AND resolve_by <= $2
		 ORDER BY resolve_by ASC`,
		domain.PredictionPending, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func (s *PredictionStore) MadeSince(ctx context.Context, since time.Time) ([]domain.Prediction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+predictionColumns+` FROM predictions
		 WHERE made_at >= $1
		 ORDER BY made_at ASC`,
		since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func (s *PredictionStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE predictions SET status = $1, resolution_notes = $2, resolved_at = $3
		 WHERE status = $4 AND resolve_by <= $3`,
		domain.PredictionAmbiguous, "resolve-by date passed without verification", now,
		domain.PredictionPending)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPrediction(row pgx.Row) (*domain.Prediction, error) {
	p := &domain.Prediction{}
	var reasoning, region, notes *string
	err := row.Scan(&p.ID, &p.Question, &p.Prediction, &p.Confidence, &reasoning,
		&p.Category, &region, &p.MadeAt, &p.ResolveBy, &p.SourcePostIDs,
		&p.SourceFactIDs, &p.ReportID, &p.Status, &notes, &p.ResolvedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if reasoning != nil {
		p.Reasoning = *reasoning
	}
	if region != nil {
		p.Region = *region
	}
	if notes != nil {
		p.ResolutionNotes = *notes
	}
	return p, nil
}

func scanPredictions(rows pgx.Rows) ([]domain.Prediction, error) {
	var ps []domain.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		ps = append(ps, *p)
	}
	return ps, rows.Err()
}
