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

// mockEventStore implements domain.EventStore for testing.
type mockEventStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Event
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{items: make(map[uuid.UUID]*domain.Event)}
}

func (m *mockEventStore) Append(ctx context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	if e.Status == "" {
		e.Status = domain.EventStatusRaw
	}
	e.CreatedAt = time.Now().UTC()
	cp := *e
	m.items[e.ID] = &cp
	return nil
}

func (m *mockEventStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEventStore) Retract(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Retracted = true
	return nil
}

func (m *mockEventStore) Query(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.items {
		if f.Entity != "" && !contains(e.Entities, f.Entity) {
			continue
		}
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEventStore) ActionsInWindow(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.items {
		if e.Retracted || e.OccurredAt == nil {
			continue
		}
		if !e.OccurredAt.Before(start) && e.OccurredAt.Before(end) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func setupEventTest() (*EventService, *mockEventStore) {
	es := newMockEventStore()
	return NewEventService(es, testLogger()), es
}

func validEvent() *domain.Event {
	return &domain.Event{
		Statement:  "carrier group departed home port",
		Entities:   []string{"5th-fleet"},
		ActionType: domain.ActionResourceDeployment,
	}
}

func TestEventService_Append(t *testing.T) {
	svc, es := setupEventTest()

	e := validEvent()
	if err := svc.Append(context.Background(), e); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}
	if e.Status != domain.EventStatusRaw {
		t.Fatalf("expected default status RAW, got %s", e.Status)
	}
	if len(es.items) != 1 {
		t.Fatalf("expected 1 event in store, got %d", len(es.items))
	}
}

func TestEventService_Append_Validation(t *testing.T) {
	svc, _ := setupEventTest()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*domain.Event)
	}{
		{"empty statement", func(e *domain.Event) { e.Statement = "  " }},
		{"no entities", func(e *domain.Event) { e.Entities = nil }},
		{"missing action_type", func(e *domain.Event) { e.ActionType = "" }},
		{"unknown action_type", func(e *domain.Event) { e.ActionType = "gossip" }},
		{"unknown status", func(e *domain.Event) { e.Status = "MAYBE" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validEvent()
			tc.mutate(e)
			if err := svc.Append(ctx, e); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestEventService_Retract(t *testing.T) {
	svc, es := setupEventTest()
	ctx := context.Background()

	e := validEvent()
	_ = svc.Append(ctx, e)

	if err := svc.Retract(ctx, e.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !es.items[e.ID].Retracted {
		t.Fatal("expected event marked retracted")
	}

	// Retracting again is a no-op, not an error.
	if err := svc.Retract(ctx, e.ID); err != nil {
		t.Fatalf("expected idempotent retract, got %v", err)
	}
}

func TestEventService_Retract_NotFound(t *testing.T) {
	svc, _ := setupEventTest()

	err := svc.Retract(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventService_Query_StatusFilter(t *testing.T) {
	svc, _ := setupEventTest()
	ctx := context.Background()

	raw := validEvent()
	_ = svc.Append(ctx, raw)
	verified := validEvent()
	verified.Status = domain.EventStatusVerified
	_ = svc.Append(ctx, verified)

	status := domain.EventStatusVerified
	got, err := svc.Query(ctx, domain.EventFilter{Status: &status})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 1 || got[0].ID != verified.ID {
		t.Fatalf("expected only the verified event, got %d", len(got))
	}

	bad := domain.EventStatus("MAYBE")
	if _, err := svc.Query(ctx, domain.EventFilter{Status: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEventService_ActionsInWindow(t *testing.T) {
	svc, _ := setupEventTest()
	ctx := context.Background()

	at := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	inside := validEvent()
	inside.OccurredAt = &at
	_ = svc.Append(ctx, inside)

	retracted := validEvent()
	retracted.OccurredAt = &at
	_ = svc.Append(ctx, retracted)
	_ = svc.Retract(ctx, retracted.ID)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.ActionsInWindow(ctx, start, end)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 1 || got[0].ID != inside.ID {
		t.Fatalf("expected the unretracted event only, got %d", len(got))
	}

	if _, err := svc.ActionsInWindow(ctx, end, start); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for inverted window, got %v", err)
	}
}
