package domain

import (
	"time"

	"github.com/google/uuid"
)

// PredictionStatus is the lifecycle state of a scored prediction.
// Everything except pending is terminal.
type PredictionStatus string

const (
	PredictionPending   PredictionStatus = "pending"
	PredictionCorrect   PredictionStatus = "correct"
	PredictionWrong     PredictionStatus = "wrong"
	PredictionCancelled PredictionStatus = "cancelled"
	PredictionAmbiguous PredictionStatus = "ambiguous"
)

func (s PredictionStatus) Terminal() bool {
	return s != PredictionPending && s != ""
}

// ValidPredictionOutcome reports whether s is a legal resolution outcome.
func ValidPredictionOutcome(s string) bool {
	switch PredictionStatus(s) {
	case PredictionCorrect, PredictionWrong, PredictionCancelled, PredictionAmbiguous:
		return true
	}
	return false
}

// Category buckets predictions for the accuracy scorecard. The set is
// closed: anything else fails validation.
type Category string

const (
	CategoryMilitary  Category = "military"
	CategoryTrade     Category = "trade"
	CategoryPersonnel Category = "personnel"
	CategoryMarket    Category = "market"
	CategoryPolicy    Category = "policy"
	CategoryOther     Category = "other"
)

// Categories lists every category in scorecard order.
var Categories = []Category{
	CategoryMilitary, CategoryTrade, CategoryPersonnel,
	CategoryMarket, CategoryPolicy, CategoryOther,
}

func ValidCategory(c string) bool {
	switch Category(c) {
	case CategoryMilitary, CategoryTrade, CategoryPersonnel,
		CategoryMarket, CategoryPolicy, CategoryOther:
		return true
	}
	return false
}

// Prediction is a date-bound hypothesis scored against ground truth once
// its resolve-by date passes.
type Prediction struct {
	ID              uuid.UUID        `json:"id"`
	Question        string           `json:"question"`
	Prediction      string           `json:"prediction"`
	Confidence      int              `json:"confidence"` // 1..100
	Reasoning       string           `json:"reasoning,omitempty"`
	Category        Category         `json:"category"`
	Region          string           `json:"region,omitempty"`
	MadeAt          time.Time        `json:"made_at"`
	ResolveBy       time.Time        `json:"resolve_by"`
	SourcePostIDs   []uuid.UUID      `json:"source_post_ids,omitempty"`
	SourceFactIDs   []uuid.UUID      `json:"source_fact_ids,omitempty"`
	ReportID        *uuid.UUID       `json:"report_id,omitempty"`
	Status          PredictionStatus `json:"status"`
	ResolutionNotes string           `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
