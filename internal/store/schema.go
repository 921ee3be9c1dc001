package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddl is idempotent: every statement is IF NOT EXISTS, so Migrate can run on
// every startup.
const ddl = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    statement TEXT NOT NULL,
    occurred_at TIMESTAMPTZ,
    sources JSONB DEFAULT '[]',
    entities TEXT[] NOT NULL,
    tags TEXT[] DEFAULT '{}',
    action_type VARCHAR NOT NULL,
    status VARCHAR NOT NULL DEFAULT 'RAW',
    retracted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_events_occurred ON events(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_events_entities ON events USING GIN(entities);
CREATE INDEX IF NOT EXISTS idx_events_tags ON events USING GIN(tags);

CREATE TABLE IF NOT EXISTS claims (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    claim_text TEXT NOT NULL,
    attributed_to VARCHAR NOT NULL,
    source_url VARCHAR,
    claimed_at TIMESTAMPTZ,
    batch_id UUID,
    processing_status VARCHAR NOT NULL DEFAULT 'PENDING',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_claims_attributed ON claims(attributed_to, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(processing_status);

CREATE TABLE IF NOT EXISTS entity_states (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    entity VARCHAR NOT NULL,
    status VARCHAR NOT NULL,
    as_of TIMESTAMPTZ,
    confidence FLOAT NOT NULL DEFAULT 0.5,
    source_id VARCHAR,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_entity_states_entity ON entity_states(entity, created_at DESC);

CREATE TABLE IF NOT EXISTS hypotheses (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    statement TEXT NOT NULL,
    based_on JSONB DEFAULT '[]',
    falsifiable_condition TEXT NOT NULL,
    verification_deadline TIMESTAMPTZ,
    status VARCHAR NOT NULL DEFAULT 'PROPOSED',
    support_count INT NOT NULL DEFAULT 0,
    refute_count INT NOT NULL DEFAULT 0,
    confidence FLOAT NOT NULL DEFAULT 0.5,
    resolution_notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    resolved_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_hypotheses_status ON hypotheses(status);
CREATE INDEX IF NOT EXISTS idx_hypotheses_deadline ON hypotheses(verification_deadline);

CREATE TABLE IF NOT EXISTS predictions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    question TEXT NOT NULL,
    prediction TEXT NOT NULL,
    confidence INT NOT NULL,
    reasoning TEXT,
    category VARCHAR NOT NULL,
    region VARCHAR,
    made_at DATE NOT NULL,
    resolve_by DATE NOT NULL,
    source_post_ids UUID[] DEFAULT '{}',
    source_fact_ids UUID[] DEFAULT '{}',
    report_id UUID,
    status VARCHAR NOT NULL DEFAULT 'pending',
    resolution_notes TEXT,
    resolved_at DATE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_predictions_status ON predictions(status, resolve_by);
CREATE INDEX IF NOT EXISTS idx_predictions_made ON predictions(made_at DESC);

CREATE TABLE IF NOT EXISTS daily_snapshots (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    snapshot_date DATE NOT NULL UNIQUE,
    posts_json TEXT NOT NULL DEFAULT '[]',
    context_json TEXT NOT NULL DEFAULT '{}',
    markdown_content TEXT NOT NULL DEFAULT '',
    key_hypotheses TEXT[] DEFAULT '{}',
    key_entities TEXT[] DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
