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

// OverduePolicy decides what the sweep does with an open hypothesis whose
// verification deadline has passed.
type OverduePolicy string

const (
	// OverdueFlag performs no writes: overdue hypotheses are surfaced to the
	// caller (and logged) but stay open for a human or the reasoning
	// component to resolve.
	OverdueFlag OverduePolicy = "flag"
	// OverdueExpire resolves overdue hypotheses to EXPIRED.
	OverdueExpire OverduePolicy = "expire"
)

func ValidOverduePolicy(p string) bool {
	switch OverduePolicy(p) {
	case OverdueFlag, OverdueExpire:
		return true
	}
	return false
}

// SweepResult reports one ExpireOverdue pass.
type SweepResult struct {
	ExpiredHypotheses    int64               `json:"expired_hypotheses"`
	FlaggedHypotheses    []domain.Hypothesis `json:"flagged_hypotheses,omitempty"`
	AmbiguousPredictions int64               `json:"ambiguous_predictions"`
}

// HypothesisService runs the hypothesis lifecycle state machine.
type HypothesisService struct {
	hypotheses domain.HypothesisStore
	policy     OverduePolicy
	logger     *zap.Logger
}

func NewHypothesisService(hs domain.HypothesisStore, policy OverduePolicy, logger *zap.Logger) *HypothesisService {
	if policy == "" {
		policy = OverdueFlag
	}
	return &HypothesisService{hypotheses: hs, policy: policy, logger: logger}
}

// Propose creates a new hypothesis. The falsifiable condition is a hard
// requirement: a hypothesis that cannot state what would prove it wrong is
// rejected before any row is written.
func (s *HypothesisService) Propose(ctx context.Context, h *domain.Hypothesis) error {
	if strings.TrimSpace(h.Statement) == "" {
		return fmt.Errorf("%w: statement is required", ErrValidation)
	}
	if strings.TrimSpace(h.FalsifiableCondition) == "" {
		return fmt.Errorf("%w: falsifiable_condition is required", ErrValidation)
	}
	if h.Confidence < 0 || h.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrValidation, h.Confidence)
	}
	if h.Status != "" && h.Status != domain.HypothesisProposed {
		return fmt.Errorf("%w: new hypotheses must start PROPOSED", ErrValidation)
	}

	if err := s.hypotheses.Create(ctx, h); err != nil {
		return err
	}
	s.logger.Info("hypothesis proposed",
		zap.String("hypothesis_id", h.ID.String()),
		zap.Timep("deadline", h.VerificationDeadline))
	return nil
}

// RecordSupport counts one piece of supporting evidence. Confidence is
// re-derived as support/(support+refute) only when both counters are
// nonzero; otherwise it keeps its prior value.
func (s *HypothesisService) RecordSupport(ctx context.Context, id uuid.UUID, ref *domain.EvidenceRef) (*domain.Hypothesis, error) {
	return s.recordEvidence(ctx, id, ref, 1, 0, domain.HypothesisStrengthened)
}

// RecordRefute counts one piece of refuting evidence.
func (s *HypothesisService) RecordRefute(ctx context.Context, id uuid.UUID, ref *domain.EvidenceRef) (*domain.Hypothesis, error) {
	return s.recordEvidence(ctx, id, ref, 0, 1, domain.HypothesisWeakened)
}

func (s *HypothesisService) recordEvidence(ctx context.Context, id uuid.UUID, ref *domain.EvidenceRef, supportDelta, refuteDelta int, status domain.HypothesisStatus) (*domain.Hypothesis, error) {
	h, err := s.hypotheses.RecordEvidence(ctx, id, ref, supportDelta, refuteDelta, status)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return nil, s.closedOrMissing(ctx, id)
}

// Resolve moves the hypothesis one-way into a terminal outcome, stamping
// resolved_at exactly once. The loser of a resolve race sees
// ErrTerminalState.
func (s *HypothesisService) Resolve(ctx context.Context, id uuid.UUID, outcome domain.HypothesisStatus, notes string, at time.Time) (*domain.Hypothesis, error) {
	if !outcome.Terminal() {
		return nil, fmt.Errorf("%w: %q is not a terminal outcome", ErrValidation, outcome)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if err := s.hypotheses.Resolve(ctx, id, outcome, notes, at); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, s.closedOrMissing(ctx, id)
		}
		return nil, err
	}

	s.logger.Info("hypothesis resolved",
		zap.String("hypothesis_id", id.String()),
		zap.String("outcome", string(outcome)))
	return s.GetByID(ctx, id)
}

// closedOrMissing disambiguates a failed conditional update: the row either
// never existed or is already terminal.
func (s *HypothesisService) closedOrMissing(ctx context.Context, id uuid.UUID) error {
	h, err := s.hypotheses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: hypothesis %s", ErrNotFound, id)
		}
		return err
	}
	return fmt.Errorf("%w: hypothesis %s already %s", ErrTerminalState, id, h.Status)
}

func (s *HypothesisService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	h, err := s.hypotheses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: hypothesis %s", ErrNotFound, id)
		}
		return nil, err
	}
	return h, nil
}

func (s *HypothesisService) Pending(ctx context.Context) ([]domain.Hypothesis, error) {
	return s.hypotheses.Pending(ctx)
}

func (s *HypothesisService) Overdue(ctx context.Context, now time.Time) ([]domain.Hypothesis, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return s.hypotheses.Overdue(ctx, now)
}

func (s *HypothesisService) RecentResolved(ctx context.Context, limit int) ([]domain.Hypothesis, error) {
	return s.hypotheses.RecentResolved(ctx, limit)
}

// ExpireOverdue applies the configured overdue policy. Both branches are
// idempotent: flag never writes, and expire's status guard skips rows a
// previous sweep already closed.
func (s *HypothesisService) ExpireOverdue(ctx context.Context, now time.Time) (int64, []domain.Hypothesis, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	switch s.policy {
	case OverdueExpire:
		n, err := s.hypotheses.ExpireOverdue(ctx, now)
		if err != nil {
			return 0, nil, err
		}
		if n > 0 {
			s.logger.Info("expired overdue hypotheses", zap.Int64("count", n))
		}
		return n, nil, nil
	default:
		flagged, err := s.hypotheses.Overdue(ctx, now)
		if err != nil {
			return 0, nil, err
		}
		for _, h := range flagged {
			s.logger.Warn("hypothesis overdue",
				zap.String("hypothesis_id", h.ID.String()),
				zap.Timep("deadline", h.VerificationDeadline))
		}
		return 0, flagged, nil
	}
}
