package postgres

import "database/sql"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS identities (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS completed_sessions (
		session_id    TEXT PRIMARY KEY,
		first_id      TEXT NOT NULL,
		first_name    TEXT NOT NULL,
		second_id     TEXT NOT NULL,
		second_name   TEXT NOT NULL,
		second_is_bot BOOLEAN NOT NULL DEFAULT FALSE,
		winner_id     TEXT,
		reason        TEXT NOT NULL,
		board         JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_completed_sessions_first
		ON completed_sessions (first_id)`,
	`CREATE INDEX IF NOT EXISTS idx_completed_sessions_second
		ON completed_sessions (second_id)`,
}

// RunMigrations applies the schema. Statements are idempotent.
func RunMigrations(db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
