package domain

import (
	"time"

	"github.com/google/uuid"
)

// HypothesisStatus is the lifecycle state of a hypothesis.
//
// PROPOSED -> STRENGTHENED / WEAKENED (repeatable, evidence counters move)
// then one-way into VERIFIED / REFUTED / EXPIRED.
type HypothesisStatus string

const (
	HypothesisProposed     HypothesisStatus = "PROPOSED"
	HypothesisStrengthened HypothesisStatus = "STRENGTHENED"
	HypothesisWeakened     HypothesisStatus = "WEAKENED"
	HypothesisVerified     HypothesisStatus = "VERIFIED"
	HypothesisRefuted      HypothesisStatus = "REFUTED"
	HypothesisExpired      HypothesisStatus = "EXPIRED"
)

// Terminal reports whether no further transition is permitted.
func (s HypothesisStatus) Terminal() bool {
	switch s {
	case HypothesisVerified, HypothesisRefuted, HypothesisExpired:
		return true
	}
	return false
}

// OpenHypothesisStatuses are the states a hypothesis can still move from.
var OpenHypothesisStatuses = []HypothesisStatus{
	HypothesisProposed, HypothesisStrengthened, HypothesisWeakened,
}

// ValidHypothesisOutcome reports whether s is a legal resolution outcome.
func ValidHypothesisOutcome(s string) bool {
	return HypothesisStatus(s).Terminal()
}

// EvidenceRef links a hypothesis to the material it rests on.
type EvidenceRef struct {
	Type   string  `json:"type"` // "event", "claim", "pattern", "inference"
	RefID  string  `json:"ref_id"`
	Layer  string  `json:"layer,omitempty"`
	Weight float64 `json:"weight"`
}

// Hypothesis is a falsifiable inference with a lifecycle. The statement and
// falsifiable condition are immutable; only lifecycle fields move.
type Hypothesis struct {
	ID                   uuid.UUID        `json:"id"`
	Statement            string           `json:"statement"`
	BasedOn              []EvidenceRef    `json:"based_on"`
	FalsifiableCondition string           `json:"falsifiable_condition"`
	VerificationDeadline *time.Time       `json:"verification_deadline,omitempty"`
	Status               HypothesisStatus `json:"status"`
	SupportCount         int              `json:"support_count"`
	RefuteCount          int              `json:"refute_count"`
	Confidence           float64          `json:"confidence"`
	ResolutionNotes      string           `json:"resolution_notes,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	ResolvedAt           *time.Time       `json:"resolved_at,omitempty"`
}
