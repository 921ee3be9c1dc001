package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hindsightlabs/hindsight/internal/domain"
	"github.com/hindsightlabs/hindsight/internal/store"
)

// mockHypothesisStore implements domain.HypothesisStore for testing. It is
// mutex-guarded so lifecycle races behave like the real conditional updates.
type mockHypothesisStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Hypothesis
}

func newMockHypothesisStore() *mockHypothesisStore {
	return &mockHypothesisStore{items: make(map[uuid.UUID]*domain.Hypothesis)}
}

func (m *mockHypothesisStore) Create(ctx context.Context, h *domain.Hypothesis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = uuid.New()
	if h.BasedOn == nil {
		h.BasedOn = []domain.EvidenceRef{}
	}
	if h.Status == "" {
		h.Status = domain.HypothesisProposed
	}
	h.CreatedAt = time.Now().UTC()
	cp := *h
	m.items[h.ID] = &cp
	return nil
}

func (m *mockHypothesisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *mockHypothesisStore) RecordEvidence(ctx context.Context, id uuid.UUID, ref *domain.EvidenceRef, supportDelta, refuteDelta int, status domain.HypothesisStatus) (*domain.Hypothesis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.items[id]
	if !ok || h.Status.Terminal() {
		return nil, store.ErrNotFound
	}
	h.SupportCount += supportDelta
	h.RefuteCount += refuteDelta
	h.Status = status
	if h.SupportCount > 0 && h.RefuteCount > 0 {
		h.Confidence = float64(h.SupportCount) / float64(h.SupportCount+h.RefuteCount)
	}
	if ref != nil {
		h.BasedOn = append(h.BasedOn, *ref)
	}
	cp := *h
	return &cp, nil
}

func (m *mockHypothesisStore) Resolve(ctx context.Context, id uuid.UUID, outcome domain.HypothesisStatus, notes string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.items[id]
	if !ok || h.Status.Terminal() {
		return store.ErrNotFound
	}
	h.Status = outcome
	h.ResolutionNotes = notes
	h.ResolvedAt = &at
	return nil
}

func (m *mockHypothesisStore) Pending(ctx context.Context) ([]domain.Hypothesis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Hypothesis
	for _, h := range m.items {
		if !h.Status.Terminal() {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *mockHypothesisStore) Overdue(ctx context.Context, now time.Time) ([]domain.Hypothesis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Hypothesis
	for _, h := range m.items {
		if !h.Status.Terminal() && h.VerificationDeadline != nil && !h.VerificationDeadline.After(now) {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *mockHypothesisStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, h := range m.items {
		if !h.Status.Terminal() && h.VerificationDeadline != nil && !h.VerificationDeadline.After(now) {
			h.Status = domain.HypothesisExpired
			at := now
			h.ResolvedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *mockHypothesisStore) RecentResolved(ctx context.Context, limit int) ([]domain.Hypothesis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Hypothesis
	for _, h := range m.items {
		if h.Status.Terminal() {
			out = append(out, *h)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func setupHypothesisTest(policy OverduePolicy) (*HypothesisService, *mockHypothesisStore) {
	hs := newMockHypothesisStore()
	return NewHypothesisService(hs, policy, testLogger()), hs
}

func proposeTestHypothesis(t *testing.T, svc *HypothesisService, deadline *time.Time) *domain.Hypothesis {
	t.Helper()
	h := &domain.Hypothesis{
		Statement:            "port closure precedes a blockade announcement",
		FalsifiableCondition: "no blockade announced within 14 days of closure",
		VerificationDeadline: deadline,
		Confidence:           0.5,
	}
	if err := svc.Propose(context.Background(), h); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return h
}

func TestHypothesisService_Propose(t *testing.T) {
	svc, hs := setupHypothesisTest(OverdueFlag)

	h := proposeTestHypothesis(t, svc, nil)
	if h.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}
	if h.Status != domain.HypothesisProposed {
		t.Fatalf("expected status PROPOSED, got %s", h.Status)
	}
	if h.Confidence != 0.5 {
		t.Fatalf("expected confidence 0.5, got %v", h.Confidence)
	}
	if len(hs.items) != 1 {
		t.Fatalf("expected 1 hypothesis in store, got %d", len(hs.items))
	}
}

func TestHypothesisService_Propose_ZeroConfidencePreserved(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)
	ctx := context.Background()

	h := &domain.Hypothesis{
		Statement:            "the ceasefire holds through March",
		FalsifiableCondition: "any confirmed violation before April 1",
		Confidence:           0,
	}
	if err := svc.Propose(ctx, h); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// 0 is a legal confidence, not a request for a default.
	got, err := svc.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected confidence 0 preserved, got %v", got.Confidence)
	}
}

func TestHypothesisService_Propose_NoFalsifiableCondition(t *testing.T) {
	svc, hs := setupHypothesisTest(OverdueFlag)

	h := &domain.Hypothesis{Statement: "something will happen"}
	err := svc.Propose(context.Background(), h)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(hs.items) != 0 {
		t.Fatalf("expected no row written, got %d", len(hs.items))
	}
}

func TestHypothesisService_Propose_ConfidenceOutOfRange(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)

	h := &domain.Hypothesis{
		Statement:            "s",
		FalsifiableCondition: "c",
		Confidence:           1.5,
	}
	if err := svc.Propose(context.Background(), h); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestHypothesisService_RecordSupport(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)
	ctx := context.Background()
	h := proposeTestHypothesis(t, svc, nil)

	got, err := svc.RecordSupport(ctx, h.ID, &domain.EvidenceRef{Type: "event", RefID: "e1", Weight: 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.SupportCount != 1 || got.RefuteCount != 0 {
		t.Fatalf("expected counters 1/0, got %d/%d", got.SupportCount, got.RefuteCount)
	}
	if got.Status != domain.HypothesisStrengthened {
		t.Fatalf("expected STRENGTHENED, got %s", got.Status)
	}
	// Only one counter is nonzero: confidence keeps its prior value.
	if got.Confidence != 0.5 {
		t.Fatalf("expected confidence unchanged at 0.5, got %v", got.Confidence)
	}
	if len(got.BasedOn) != 1 {
		t.Fatalf("expected 1 evidence ref, got %d", len(got.BasedOn))
	}
}

func TestHypothesisService_RecordEvidence_ConfidenceRederived(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)
	ctx := context.Background()
	h := proposeTestHypothesis(t, svc, nil)

	if _, err := svc.RecordSupport(ctx, h.ID, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.RecordSupport(ctx, h.ID, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := svc.RecordRefute(ctx, h.ID, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Both counters nonzero: confidence = 2/(2+1).
	want := 2.0 / 3.0
	if got.Confidence != want {
		t.Fatalf("expected confidence %v, got %v", want, got.Confidence)
	}
	if got.Status != domain.HypothesisWeakened {
		t.Fatalf("expected WEAKENED, got %s", got.Status)
	}
}

func TestHypothesisService_RecordEvidence_NotFound(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)

	_, err := svc.RecordSupport(context.Background(), uuid.New(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHypothesisService_RecordEvidence_Terminal(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)
	ctx := context.Background()
	h := proposeTestHypothesis(t, svc, nil)

	if _, err := svc.Resolve(ctx, h.ID, domain.HypothesisRefuted, "condition met", time.Time{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err := svc.RecordSupport(ctx, h.ID, nil)
	if !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}

func TestHypothesisService_Resolve(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)
	ctx := context.Background()
	h := proposeTestHypothesis(t, svc, nil)

	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.Resolve(ctx, h.ID, domain.HypothesisVerified, "blockade announced on day 9", at)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Status != domain.HypothesisVerified {
		t.Fatalf("expected VERIFIED, got %s", got.Status)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(at) {
		t.Fatalf("expected resolved_at %v, got %v", at, got.ResolvedAt)
	}
	if got.ResolutionNotes != "blockade announced on day 9" {
		t.Fatalf("unexpected resolution notes %q", got.ResolutionNotes)
	}
}

func TestHypothesisService_Resolve_NonTerminalOutcome(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)
	h := proposeTestHypothesis(t, svc, nil)

	_, err := svc.Resolve(context.Background(), h.ID, domain.HypothesisStrengthened, "", time.Time{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestHypothesisService_Resolve_Race(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)
	ctx := context.Background()
	h := proposeTestHypothesis(t, svc, nil)

	outcomes := []domain.HypothesisStatus{domain.HypothesisVerified, domain.HypothesisRefuted}
	errs := make([]error, len(outcomes))

	var wg sync.WaitGroup
	for i, outcome := range outcomes {
		wg.Add(1)
		go func(i int, outcome domain.HypothesisStatus) {
			defer wg.Done()
			_, errs[i] = svc.Resolve(ctx, h.ID, outcome, "", time.Time{})
		}(i, outcome)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrTerminalState):
			losses++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner, got %d wins / %d losses", wins, losses)
	}

	got, err := svc.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !got.Status.Terminal() || got.ResolvedAt == nil {
		t.Fatalf("expected a terminal resolved hypothesis, got %s", got.Status)
	}
}

func TestHypothesisService_ExpireOverdue_FlagPolicy(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueFlag)
	ctx := context.Background()

	past := time.Now().UTC().Add(-48 * time.Hour)
	h := proposeTestHypothesis(t, svc, &past)

	expired, flagged, err := svc.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if expired != 0 {
		t.Fatalf("flag policy must not write, got %d expirations", expired)
	}
	if len(flagged) != 1 || flagged[0].ID != h.ID {
		t.Fatalf("expected the overdue hypothesis flagged, got %v", flagged)
	}

	got, _ := svc.GetByID(ctx, h.ID)
	if got.Status != domain.HypothesisProposed {
		t.Fatalf("expected hypothesis left open, got %s", got.Status)
	}
}

func TestHypothesisService_ExpireOverdue_ExpirePolicy(t *testing.T) {
	svc, _ := setupHypothesisTest(OverdueExpire)
	ctx := context.Background()

	past := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(48 * time.Hour)
	overdue := proposeTestHypothesis(t, svc, &past)
	open := proposeTestHypothesis(t, svc, &future)

	expired, flagged, err := svc.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expiration, got %d", expired)
	}
	if len(flagged) != 0 {
		t.Fatalf("expected no flagged hypotheses, got %d", len(flagged))
	}

	got, _ := svc.GetByID(ctx, overdue.ID)
	if got.Status != domain.HypothesisExpired || got.ResolvedAt == nil {
		t.Fatalf("expected EXPIRED with resolved_at, got %s", got.Status)
	}
	still, _ := svc.GetByID(ctx, open.ID)
	if still.Status != domain.HypothesisProposed {
		t.Fatalf("expected future-deadline hypothesis untouched, got %s", still.Status)
	}

	// A second sweep finds nothing left to expire.
	expired, _, err = svc.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if expired != 0 {
		t.Fatalf("expected idempotent sweep, got %d expirations", expired)
	}
}
