package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFilter narrows an event query. Zero values mean "no constraint".
type EventFilter struct {
	Entity string
	Status *EventStatus
	From   time.Time
	To     time.Time
	Limit  int
}

type EventStore interface {
	Append(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	// Retract flags the row inert. Retracting an already-retracted event is
	// a no-op; an unknown id returns ErrNotFound.
	Retract(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, f EventFilter) ([]Event, error)
	// ActionsInWindow returns unretracted events that occurred in [start, end).
	ActionsInWindow(ctx context.Context, start, end time.Time) ([]Event, error)
}

type ClaimStore interface {
	Append(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	// AdvanceStatus moves a claim from exactly `from` to `to` in one
	// conditional update. ErrNotFound when no row matches both id and from.
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to ClaimStatus) error
	Pending(ctx context.Context, window time.Duration, limit int) ([]Claim, error)
	ByActor(ctx context.Context, actor string, limit int) ([]Claim, error)
	Search(ctx context.Context, query string, limit int) ([]Claim, error)
}

type EntityStateStore interface {
	Append(ctx context.Context, s *EntityState) error
	Current(ctx context.Context, entity string) (*EntityState, error)
	History(ctx context.Context, entity string, r StateRange) ([]EntityState, error)
	Entities(ctx context.Context) ([]string, error)
}

type HypothesisStore interface {
	Create(ctx context.Context, h *Hypothesis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hypothesis, error)
	// RecordEvidence atomically bumps counters, re-derives confidence,
	// moves the open-state marker, and appends ref to based_on. ErrNotFound
	// when no row with id is still in an open status.
	RecordEvidence(ctx context.Context, id uuid.UUID, ref *EvidenceRef, supportDelta, refuteDelta int, status HypothesisStatus) (*Hypothesis, error)
	// Resolve transitions an open hypothesis to a terminal outcome, stamping
	// resolved_at. ErrNotFound when no open row with id exists.
	Resolve(ctx context.Context, id uuid.UUID, outcome HypothesisStatus, notes string, at time.Time) error
	Pending(ctx context.Context) ([]Hypothesis, error)
	Overdue(ctx context.Context, now time.Time) ([]Hypothesis, error)
	// ExpireOverdue resolves every overdue open hypothesis to EXPIRED.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	RecentResolved(ctx context.Context, limit int) ([]Hypothesis, error)
}

type PredictionStore interface {
	Create(ctx context.Context, p *Prediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prediction, error)
	// Resolve transitions a pending prediction to a terminal outcome.
	// ErrNotFound when no pending row with id exists.
	Resolve(ctx context.Context, id uuid.UUID, outcome PredictionStatus, notes string, at time.Time) error
	// Due lists pending predictions whose resolve_by has passed.
	Due(ctx context.Context, asOf time.Time) ([]Prediction, error)
	MadeSince(ctx context.Context, since time.Time) ([]Prediction, error)
	// ExpireOverdue marks every overdue pending prediction ambiguous.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type SnapshotStore interface {
	// Upsert writes the snapshot for its date. A row already present for
	// that date returns ErrConflict unless overwrite is set.
	Upsert(ctx context.Context, s *Snapshot, overwrite bool) error
	GetByDate(ctx context.Context, date time.Time) (*Snapshot, error)
	LatestBefore(ctx context.Context, date time.Time) (*Snapshot, error)
	Recent(ctx context.Context, days int) ([]Snapshot, error)
	Search(ctx context.Context, query string, limit int) ([]Snapshot, error)
}
