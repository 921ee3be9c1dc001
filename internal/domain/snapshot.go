package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot freezes one calendar day's input context and the report generated
// from it. At most one row per date; the reasoning component reads back
// yesterday's snapshot for cross-day continuity.
type Snapshot struct {
	ID              uuid.UUID `json:"id"`
	SnapshotDate    time.Time `json:"snapshot_date"` // date precision, UTC
	PostsJSON       string    `json:"posts_json"`
	ContextJSON     string    `json:"context_json"`
	MarkdownContent string    `json:"markdown_content"`
	KeyHypotheses   []string  `json:"key_hypotheses,omitempty"`
	KeyEntities     []string  `json:"key_entities,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
