package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus tracks where an event sits in the corroboration pipeline.
type EventStatus string

const (
	EventStatusRaw      EventStatus = "RAW"      // unverified, from a proactive sweep
	EventStatusVerified EventStatus = "VERIFIED" // corroborated against a specific claim
	EventStatusStale    EventStatus = "STALE"    // no longer relevant or superseded
)

func ValidEventStatus(s string) bool {
	switch EventStatus(s) {
	case EventStatusRaw, EventStatusVerified, EventStatusStale:
		return true
	}
	return false
}

// ActionType classifies real-world actions distilled from claims.
type ActionType string

const (
	ActionResourceDeployment ActionType = "resource_deployment"
	ActionLegalDocument      ActionType = "legal_document"
	ActionPersonnelChange    ActionType = "personnel_change"
	ActionDiplomaticAction   ActionType = "diplomatic_action"
	ActionIrreversibleEvent  ActionType = "irreversible_event"
)

func ValidActionType(a string) bool {
	switch ActionType(a) {
	case ActionResourceDeployment, ActionLegalDocument, ActionPersonnelChange,
		ActionDiplomaticAction, ActionIrreversibleEvent:
		return true
	}
	return false
}

// SourceRef points at the material an event was distilled from.
type SourceRef struct {
	SourceID          string  `json:"source_id"`
	URL               string  `json:"url,omitempty"`
	Quote             string  `json:"quote,omitempty"`
	ReliabilityRating float64 `json:"reliability_rating"`
}

// Event is a verified real-world action. Rows are append-only: a retraction
// sets the Retracted flag and keeps the row for audit.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Statement  string      `json:"statement"`
	OccurredAt *time.Time  `json:"occurred_at,omitempty"`
	Sources    []SourceRef `json:"sources"`
	Entities   []string    `json:"entities"`
	Tags       []string    `json:"tags,omitempty"`
	ActionType ActionType  `json:"action_type"`
	Status     EventStatus `json:"status"`
	Retracted  bool        `json:"retracted"`
	CreatedAt  time.Time   `json:"created_at"`
}
