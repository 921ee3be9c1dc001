package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityState is one versioned assertion about a named actor. The ledger is
// append-only: corrections are new rows, and "current" is a read-time
// projection over the history (latest as_of, created_at as tiebreak).
type EntityState struct {
	ID         uuid.UUID  `json:"id"`
	Entity     string     `json:"entity"`
	Status     string     `json:"status"`
	AsOf       *time.Time `json:"as_of,omitempty"`
	Confidence float64    `json:"confidence"`
	SourceID   string     `json:"source_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// StateRange bounds a history read. Zero values mean unbounded.
type StateRange struct {
	From time.Time
	To   time.Time
}
