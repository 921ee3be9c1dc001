package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hindsightlabs/hindsight/internal/domain"
)

type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

const snapshotColumns = `id, snapshot_date, posts_json, context_json, markdown_content, key_hypotheses, key_entities, created_at`

// Upsert writes the day's frozen context. Without overwrite the insert is
// ON CONFLICT DO NOTHING, so a duplicate date surfaces as ErrConflict and
// the original row is untouched.
func (s *SnapshotStore) Upsert(ctx context.Context, snap *domain.Snapshot, overwrite bool) error {
	if snap.KeyHypotheses == nil {
		snap.KeyHypotheses = []string{}
	}
	if snap.KeyEntities == nil {
		snap.KeyEntities = []string{}
	}

	if overwrite {
		return s.db.QueryRow(ctx,
			`INSERT INTO daily_snapshots (snapshot_date, posts_json, context_json, markdown_content, key_hypotheses, key_entities)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (snapshot_date) DO UPDATE SET
			     posts_json = EXCLUDED.posts_json,
			     context_json = EXCLUDED.context_json,
			     markdown_content = EXCLUDED.markdown_content,
			     key_hypotheses = EXCLUDED.key_hypotheses,
			     key_entities = EXCLUDED.key_entities
			 RETURNING id, created_at`,
			snap.SnapshotDate, snap.PostsJSON, snap.ContextJSON, snap.MarkdownContent,
			snap.KeyHypotheses, snap.KeyEntities,
		).Scan(&snap.ID, &snap.CreatedAt)
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO daily_snapshots (snapshot_date, posts_json, context_json, markdown_content, key_hypotheses, key_entities)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (snapshot_date) DO NOTHING
		 RETURNING id, created_at`,
		snap.SnapshotDate, snap.PostsJSON, snap.ContextJSON, snap.MarkdownContent,
		snap.KeyHypotheses, snap.KeyEntities,
	).Scan(&snap.ID, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	return err
}

func (s *SnapshotStore) GetByDate(ctx context.Context, date time.Time) (*domain.Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM daily_snapshots WHERE snapshot_date = $1`, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

func (s *SnapshotStore) LatestBefore(ctx context.Context, date time.Time) (*domain.Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM daily_snapshots
		 WHERE snapshot_date < $1
		 ORDER BY snapshot_date DESC
		 LIMIT 1`,
		date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

func (s *SnapshotStore) Recent(ctx context.Context, days int) ([]domain.Snapshot, error) {
	if days <= 0 {
		days = 7
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+snapshotColumns+` FROM daily_snapshots
		 WHERE snapshot_date >= CURRENT_DATE - $1::int
		 ORDER BY snapshot_date DESC`,
		days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (s *SnapshotStore) Search(ctx context.Context, query string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+snapshotColumns+` FROM daily_snapshots
		 WHERE markdown_content ILIKE '%' || $1 || '%'
		 ORDER BY snapshot_date DESC
		 LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}
	err := row.Scan(&snap.ID, &snap.SnapshotDate, &snap.PostsJSON, &snap.ContextJSON,
		&snap.MarkdownContent, &snap.KeyHypotheses, &snap.KeyEntities, &snap.CreatedAt)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func scanSnapshots(rows pgx.Rows) ([]domain.Snapshot, error) {
	var snaps []domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}
