package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/store"
)

// mockClaimStore implements domain.ClaimStore for testing.
type mockClaimStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Claim
}

func newMockClaimStore() *mockClaimStore {
	return &mockClaimStore{items: make(map[uuid.UUID]*domain.Claim)}
}

func (m *mockClaimStore) Append(ctx context.Context, c *domain.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	if c.ProcessingStatus == "" {
		c.ProcessingStatus = domain.ClaimPending
	}
	c.CreatedAt = time.Now().UTC()
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *mockClaimStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockClaimStore) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to domain.ClaimStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || c.ProcessingStatus != from {
		return store.ErrNotFound
	}
	c.ProcessingStatus = to
	return nil
}

func (m *mockClaimStore) Pending(ctx context.Context, window time.Duration, limit int) ([]domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().UTC().Add(-window)
	var out []domain.Claim
	for _, c := range m.items {
		if c.ProcessingStatus == domain.ClaimPending && !c.CreatedAt.Before(cutoff) {
			out = append(out, *c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockClaimStore) ByActor(ctx context.Context, actor string, limit int) ([]domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Claim
	for _, c := range m.items {
		if c.AttributedTo == actor {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClaimStore) Search(ctx context.Context, query string, limit int) ([]domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Claim
	for _, c := range m.items {
		if strings.Contains(strings.ToLower(c.ClaimText), strings.ToLower(query)) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func setupClaimTest() (*ClaimService, *mockClaimStore) {
	cs := newMockClaimStore()
	return NewClaimService(cs, testLogger()), cs
}

func appendTestClaim(t *testing.T, svc *ClaimService) *domain.Claim {
	t.Helper()
	c := &domain.Claim{
		ClaimText:    "we will close the strait within a week",
		AttributedTo: "defense-ministry",
	}
	if err := svc.Append(context.Background(), c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return c
}

func TestClaimService_Append(t *testing.T) {
	svc, cs := setupClaimTest()

	c := appendTestClaim(t, svc)
	if c.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}
	if c.ProcessingStatus != domain.ClaimPending {
		t.Fatalf("expected PENDING, got %s", c.ProcessingStatus)
	}
	if len(cs.items) != 1 {
		t.Fatalf("expected 1 claim in store, got %d", len(cs.items))
	}
}

func TestClaimService_Append_Validation(t *testing.T) {
	svc, _ := setupClaimTest()
	ctx := context.Background()

	if err := svc.Append(ctx, &domain.Claim{AttributedTo: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty claim_text, got %v", err)
	}
	if err := svc.Append(ctx, &domain.Claim{ClaimText: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty attributed_to, got %v", err)
	}
	c := &domain.Claim{ClaimText: "x", AttributedTo: "y", ProcessingStatus: domain.ClaimCompleted}
	if err := svc.Append(ctx, c); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for non-pending start, got %v", err)
	}
}

func TestClaimService_Advance_FullPipeline(t *testing.T) {
	svc, _ := setupClaimTest()
	ctx := context.Background()
	c := appendTestClaim(t, svc)

	if err := svc.Advance(ctx, c.ID, domain.ClaimProcessing); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.Advance(ctx, c.ID, domain.ClaimCompleted); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, _ := svc.GetByID(ctx, c.ID)
	if got.ProcessingStatus != domain.ClaimCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.ProcessingStatus)
	}
}

func TestClaimService_Advance_SkipStep(t *testing.T) {
	svc, _ := setupClaimTest()
	c := appendTestClaim(t, svc)

	// PENDING -> COMPLETED skips PROCESSING.
	err := svc.Advance(context.Background(), c.ID, domain.ClaimCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestClaimService_Advance_Backwards(t *testing.T) {
	svc, _ := setupClaimTest()
	c := appendTestClaim(t, svc)

	err := svc.Advance(context.Background(), c.ID, domain.ClaimPending)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestClaimService_Advance_NotFound(t *testing.T) {
	svc, _ := setupClaimTest()

	err := svc.Advance(context.Background(), uuid.New(), domain.ClaimProcessing)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClaimService_Advance_Race(t *testing.T) {
	svc, _ := setupClaimTest()
	ctx := context.Background()
	c := appendTestClaim(t, svc)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Advance(ctx, c.ID, domain.ClaimProcessing)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning advance, got %d", wins)
	}
}

func TestClaimService_Pending_DefaultWindow(t *testing.T) {
	svc, cs := setupClaimTest()
	ctx := context.Background()

	fresh := appendTestClaim(t, svc)
	stale := appendTestClaim(t, svc)
	cs.items[stale.ID].CreatedAt = time.Now().UTC().Add(-48 * time.Hour)

	got, err := svc.Pending(ctx, 0, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 1 || got[0].ID != fresh.ID {
		t.Fatalf("expected only the fresh claim, got %d", len(got))
	}
}

func TestClaimService_ByActor_RequiresActor(t *testing.T) {
	svc, _ := setupClaimTest()

	if _, err := svc.ByActor(context.Background(), " ", 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
