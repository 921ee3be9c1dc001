package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hindsightlabs/hindsight/internal/domain"
)

type HypothesisStore struct {
	db *pgxpool.Pool
}

func NewHypothesisStore(db *pgxpool.Pool) *HypothesisStore {
	return &HypothesisStore{db: db}
}

const hypothesisColumns = `id, statement, based_on, falsifiable_condition, verification_deadline,
	status, support_count, refute_count, confidence, resolution_notes, created_at, resolved_at`

func openStatuses() []string {
	out := make([]string, len(domain.OpenHypothesisStatuses))
	for i, s := range domain.OpenHypothesisStatuses {
		out[i] = string(s)
	}
	return out
}

func (s *HypothesisStore) Create(ctx context.Context, h *domain.Hypothesis) error {
	if h.BasedOn == nil {
		h.BasedOn = []domain.EvidenceRef{}
	}
	basedOnJSON, err := json.Marshal(h.BasedOn)
	if err != nil {
		return fmt.Errorf("marshal based_on: %w", err)
	}

	if h.Status == "" {
		h.Status = domain.HypothesisProposed
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO hypotheses (statement, based_on, falsifiable_condition, verification_deadline, status, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		h.Statement, basedOnJSON, h.FalsifiableCondition, h.VerificationDeadline, h.Status, h.Confidence,
	).Scan(&h.ID, &h.CreatedAt)
}

func (s *HypothesisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	h, err := scanHypothesis(s.db.QueryRow(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// RecordEvidence is a single conditional update: counters, confidence
// re-derivation (only when both counters end up nonzero) and the evidence
// append all land atomically, and only while the row is still open.
func (s *HypothesisStore) RecordEvidence(ctx context.Context, id uuid.UUID, ref *domain.EvidenceRef, supportDelta, refuteDelta int, status domain.HypothesisStatus) (*domain.Hypothesis, error) {
	var refJSON []byte
	if ref != nil {
		var err error
		refJSON, err = json.Marshal(ref)
		if err != nil {
			return nil, fmt.Errorf("marshal evidence ref: %w", err)
		}
	}

	h, err := scanHypothesis(s.db.QueryRow(ctx,
		`UPDATE hypotheses
		 SET support_count = support_count + $2,
		     refute_count  = refute_count + $3,
		     status        = $4,
		     confidence    = CASE
		         WHEN support_count + $2 > 0 AND refute_count + $3 > 0
		         THEN (support_count + $2)::float / (support_count + $2 + refute_count + $3)
		         ELSE confidence
		     END,
		     based_on = CASE WHEN $5::jsonb IS NULL THEN based_on ELSE based_on || $5::jsonb END
		 WHERE id = $1 AND status = ANY($6)
		 RETURNING `+hypothesisColumns,
		id, supportDelta, refuteDelta, status, refJSON, openStatuses()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// Resolve races safely: the status guard means two concurrent resolvers
// produce exactly one affected row.
func (s *HypothesisStore) Resolve(ctx context.Context, id uuid.UUID, outcome domain.HypothesisStatus, notes string, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE hypotheses SET status = $2, resolution_notes = $3, resolved_at = $4
		 WHERE id = $1 AND status = ANY($5)`,
		id, outcome, nullableString(notes), at, openStatuses())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *HypothesisStore) Pending(ctx context.Context) ([]domain.Hypothesis, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses
		 WHERE status = ANY($1)
		 ORDER BY verification_deadline ASC NULLS LAST`,
		openStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHypotheses(rows)
}

func (s *HypothesisStore) Overdue(ctx context.Context, now time.Time) ([]domain.Hypothesis, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses
		 WHERE status = ANY($1) AND verification_deadline IS NOT NULL AND verification_deadline <= $2
		 ORDER BY verification_deadline ASC`,
		openStatuses(), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHypotheses(rows)
}

func (s *HypothesisStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE hypotheses SET status = $1, resolved_at = $2
		 WHERE status = ANY($3) AND verification_deadline IS NOT NULL AND verification_deadline <= $2`,
		domain.HypothesisExpired, now, openStatuses())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *HypothesisStore) RecentResolved(ctx context.Context, limit int) ([]domain.Hypothesis, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses
		 WHERE status = ANY($1)
		 ORDER BY resolved_at DESC
		 LIMIT $2`,
		[]string{
			string(domain.HypothesisVerified),
			string(domain.HypothesisRefuted),
			string(domain.HypothesisExpired),
		}, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHypotheses(rows)
}

func scanHypothesis(row pgx.Row) (*domain.Hypothesis, error) {
	h := &domain.Hypothesis{}
	var basedOnJSON []byte
	var notes *string
	err := row.Scan(&h.ID, &h.Statement, &basedOnJSON, &h.FalsifiableCondition,
		&h.VerificationDeadline, &h.Status, &h.SupportCount, &h.RefuteCount,
		&h.Confidence, &notes, &h.CreatedAt, &h.ResolvedAt)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		h.ResolutionNotes = *notes
	}
	if len(basedOnJSON) > 0 {
		if err := json.Unmarshal(basedOnJSON, &h.BasedOn); err != nil {
			return nil, fmt.Errorf("unmarshal based_on: %w", err)
		}
	}
	return h, nil
}

func scanHypotheses(rows pgx.Rows) ([]domain.Hypothesis, error) {
	var hs []domain.Hypothesis
	for rows.Next() {
		h, err := scanHypothesis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hypothesis row: %w", err)
		}
		hs = append(hs, *h)
	}
	return hs, rows.Err()
}
