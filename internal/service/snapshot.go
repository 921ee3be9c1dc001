package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/store"
)

// SnapshotService maintains the daily continuity cache: at most one snapshot
// per calendar day, written once and overwritten only on request.
type SnapshotService struct {
	snapshots domain.SnapshotStore
	logger    *zap.Logger
}

func NewSnapshotService(ss domain.SnapshotStore, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{snapshots: ss, logger: logger}
}

// Upsert stores the snapshot under its date, truncated to midnight UTC. When
// a row for that date already exists the write fails with ErrConflict unless
// overwrite is set, in which case the existing row is replaced whole.
func (s *SnapshotService) Upsert(ctx context.Context, snap *domain.Snapshot, overwrite bool) error {
	if snap.SnapshotDate.IsZero() {
		return fmt.Errorf("%w: snapshot_date is required", ErrValidation)
	}
	snap.SnapshotDate = snap.SnapshotDate.UTC().Truncate(24 * time.Hour)

	if err := s.snapshots.Upsert(ctx, snap, overwrite); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("%w: snapshot for %s already exists", ErrConflict,
				snap.SnapshotDate.Format("2006-01-02"))
		}
		return err
	}
	s.logger.Info("snapshot stored",
		zap.Time("snapshot_date", snap.SnapshotDate),
		zap.Bool("overwrite", overwrite))
	return nil
}

func (s *SnapshotService) GetByDate(ctx context.Context, date time.Time) (*domain.Snapshot, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	snap, err := s.snapshots.GetByDate(ctx, date.UTC().Truncate(24*time.Hour))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: no snapshot for %s", ErrNotFound, date.Format("2006-01-02"))
		}
		return nil, err
	}
	return snap, nil
}

// LatestBefore returns the most recent snapshot strictly before date, for
// picking up yesterday's context when today has none yet.
func (s *SnapshotService) LatestBefore(ctx context.Context, date time.Time) (*domain.Snapshot, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	snap, err := s.snapshots.LatestBefore(ctx, date.UTC().Truncate(24*time.Hour))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: no snapshot before %s", ErrNotFound, date.Format("2006-01-02"))
		}
		return nil, err
	}
	return snap, nil
}

func (s *SnapshotService) Recent(ctx context.Context, days int) ([]domain.Snapshot, error) {
	if days <= 0 {
		days = 7
	}
	return s.snapshots.Recent(ctx, days)
}

func (s *SnapshotService) Search(ctx context.Context, query string, limit int) ([]domain.Snapshot, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	return s.snapshots.Search(ctx, query, limit)
}
