package postgres

import (
	"context"
	"database/sql"
)

// Schema statements are idempotent so EnsureSchema can run at every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        email        TEXT PRIMARY KEY,
        usage_count  BIGINT NOT NULL DEFAULT 0,
        created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
        last_active  TIMESTAMPTZ,
        is_active    BOOLEAN NOT NULL DEFAULT TRUE,
        region       TEXT NOT NULL DEFAULT '',
        language     TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE TABLE IF NOT EXISTS rewrite_history (
        record_id        TEXT PRIMARY KEY,
        user_id          TEXT,
        original_message TEXT NOT NULL,
        safe_version     TEXT NOT NULL,
        region           TEXT NOT NULL,
        created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
        response_time_ms BIGINT NOT NULL,
        cached           BOOLEAN NOT NULL,
        red_flags_fixed  INT NOT NULL,
        differences      JSONB NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS rewrite_history_user_created
        ON rewrite_history (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS rewrite_history_created
        ON rewrite_history (created_at)`,
	`CREATE TABLE IF NOT EXISTS scam_patterns (
        pattern_hash TEXT PRIMARY KEY,
        category     TEXT NOT NULL,
        frequency    BIGINT NOT NULL DEFAULT 1,
        examples     JSONB NOT NULL DEFAULT '[]'::jsonb,
        severity     TEXT NOT NULL,
        created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
        last_seen    TIMESTAMPTZ NOT NULL DEFAULT now(),
        is_active    BOOLEAN NOT NULL DEFAULT TRUE
    )`,
	`CREATE INDEX IF NOT EXISTS scam_patterns_frequency
        ON scam_patterns (frequency DESC)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
