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

// ClaimService ingests raw attributed statements and walks them through the
// strict PENDING -> PROCESSING -> COMPLETED pipeline.
type ClaimService struct {
	claims domain.ClaimStore
	logger *zap.Logger
}

func NewClaimService(cs domain.ClaimStore, logger *zap.Logger) *ClaimService {
	return &ClaimService{claims: cs, logger: logger}
}

func (s *ClaimService) Append(ctx context.Context, c *domain.Claim) error {
	if strings.TrimSpace(c.ClaimText) == "" {
		return fmt.Errorf("%w: claim_text is required", ErrValidation)
	}
	if strings.TrimSpace(c.AttributedTo) == "" {
		return fmt.Errorf("%w: attributed_to is required", ErrValidation)
	}
	if c.ProcessingStatus != "" && c.ProcessingStatus != domain.ClaimPending {
		return fmt.Errorf("%w: new claims must start PENDING", ErrValidation)
	}
	return s.claims.Append(ctx, c)
}

// Advance moves a claim to the requested status. Only the next status in
// the pipeline is legal; anything else is ErrInvalidTransition. The store
// write is a compare-and-set keyed on the expected predecessor, so a racing
// advance loses cleanly instead of double-applying.
func (s *ClaimService) Advance(ctx context.Context, id uuid.UUID, to domain.ClaimStatus) error {
	if !domain.ValidClaimStatus(string(to)) {
		return fmt.Errorf("%w: unknown claim status %q", ErrValidation, to)
	}

	var from domain.ClaimStatus
	switch to {
	case domain.ClaimProcessing:
		from = domain.ClaimPending
	case domain.ClaimCompleted:
		from = domain.ClaimProcessing
	default:
		return fmt.Errorf("%w: claims cannot move to %s", ErrInvalidTransition, to)
	}

	err := s.claims.AdvanceStatus(ctx, id, from, to)
	if err == nil {
		s.logger.Info("claim advanced",
			zap.String("claim_id", id.String()),
			zap.String("status", string(to)))
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	// The conditional update missed: either the claim does not exist, or it
	// is not in the expected predecessor status.
	if _, getErr := s.claims.GetByID(ctx, id); getErr != nil {
		if errors.Is(getErr, store.ErrNotFound) {
			return fmt.Errorf("%w: claim %s", ErrNotFound, id)
		}
		return getErr
	}
	return fmt.Errorf("%w: claim %s is not %s", ErrInvalidTransition, id, from)
}

func (s *ClaimService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: claim %s", ErrNotFound, id)
		}
		return nil, err
	}
	return c, nil
}

// Pending lists unprocessed claims ingested within the window, oldest first.
func (s *ClaimService) Pending(ctx context.Context, window time.Duration, limit int) ([]domain.Claim, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return s.claims.Pending(ctx, window, limit)
}

func (s *ClaimService) ByActor(ctx context.Context, actor string, limit int) ([]domain.Claim, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}
	return s.claims.ByActor(ctx, actor, limit)
}

func (s *ClaimService) Search(ctx context.Context, query string, limit int) ([]domain.Claim, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	return s.claims.Search(ctx, query, limit)
}
