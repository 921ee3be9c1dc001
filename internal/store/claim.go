package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hindsightlabs/hindsight/internal/domain"
)

type ClaimStore struct {
	db *pgxpool.Pool
}

func NewClaimStore(db *pgxpool.Pool) *ClaimStore {
	return &ClaimStore{db: db}
}

const claimColumns = `id, claim_text, attributed_to, source_url, claimed_at, batch_id, processing_status, created_at`

func (s *ClaimStore) Append(ctx context.Context, c *domain.Claim) error {
	if c.ProcessingStatus == "" {
		c.ProcessingStatus = domain.ClaimPending
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO claims (claim_text, attributed_to, source_url, claimed_at, batch_id, processing_status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.ClaimText, c.AttributedTo, nullableString(c.SourceURL), c.ClaimedAt, c.BatchID, c.ProcessingStatus,
	).Scan(&c.ID, &c.CreatedAt)
}

func (s *ClaimStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	c, err := scanClaim(s.db.QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// AdvanceStatus is a compare-and-set: the update only lands when the row is
// still in `from`, so racing processors get exactly one winner.
func (s *ClaimStore) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to domain.ClaimStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE claims SET processing_status = $3 WHERE id = $1 AND processing_status = $2`,
		id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ClaimStore) Pending(ctx context.Context, window time.Duration, limit int) ([]domain.Claim, error) {
	if limit <= 0 {
		limit = 50
	}
	cutoff := time.Now().UTC().Add(-window)
	rows, err := s.db.Query(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE processing_status = $1 AND created_at >= $2
		 ORDER BY created_at ASC
		 LIMIT $3`,
		domain.ClaimPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClaims(rows)
}

func (s *ClaimStore) ByActor(ctx context.Context, actor string, limit int) ([]domain.Claim, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE attributed_to = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		actor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClaims(rows)
}

func (s *ClaimStore) Search(ctx context.Context, query string, limit int) ([]domain.Claim, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE claim_text ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC
		 LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClaims(rows)
}

func scanClaim(row pgx.Row) (*domain.Claim, error) {
	c := &domain.Claim{}
	var sourceURL *string
	err := row.Scan(&c.ID, &c.ClaimText, &c.AttributedTo, &sourceURL,
		&c.ClaimedAt, &c.BatchID, &c.ProcessingStatus, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sourceURL != nil {
		c.SourceURL = *sourceURL
	}
	return c, nil
}

func scanClaims(rows pgx.Rows) ([]domain.Claim, error) {
	var claims []domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
