package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the processing state of an ingested claim.
// Transitions are strictly ordered: PENDING -> PROCESSING -> COMPLETED.
type ClaimStatus string

const (
	ClaimPending    ClaimStatus = "PENDING"
	ClaimProcessing ClaimStatus = "PROCESSING"
	ClaimCompleted  ClaimStatus = "COMPLETED"
)

func ValidClaimStatus(s string) bool {
	switch ClaimStatus(s) {
	case ClaimPending, ClaimProcessing, ClaimCompleted:
		return true
	}
	return false
}

// Next returns the only status this one may advance to, or "" if terminal.
func (s ClaimStatus) Next() ClaimStatus {
	switch s {
	case ClaimPending:
		return ClaimProcessing
	case ClaimProcessing:
		return ClaimCompleted
	}
	return ""
}

// Claim is a raw attributed statement, stored as-is with no truth judgment.
// Immutable once created; only ProcessingStatus transitions.
type Claim struct {
	ID               uuid.UUID   `json:"id"`
	ClaimText        string      `json:"claim_text"`
	AttributedTo     string      `json:"attributed_to"`
	SourceURL        string      `json:"source_url,omitempty"`
	ClaimedAt        *time.Time  `json:"claimed_at,omitempty"`
	BatchID          *uuid.UUID  `json:"batch_id,omitempty"`
	ProcessingStatus ClaimStatus `json:"processing_status"`
	CreatedAt        time.Time   `json:"created_at"`
}
