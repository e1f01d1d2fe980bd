package store

import (
	"context"
	"fmt"
)

type migration struct {
	version string
	sql     string
}

// Migrations are append-only; applied versions are recorded in
// schema_migrations and never re-run.
var migrations = []migration{
	{
		version: "0001_attention_states",
		sql: `CREATE TABLE attention_states (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    recorded_at TEXT NOT NULL,
    score REAL NOT NULL,
    confidence REAL NOT NULL,
    factors_json TEXT NOT NULL,
    insights_json TEXT NOT NULL,
    context_json TEXT NOT NULL
);
CREATE INDEX idx_attention_states_session ON attention_states(session_id);
CREATE INDEX idx_attention_states_recorded ON attention_states(recorded_at);`,
	},
	{
		version: "0002_context_samples",
		sql: `CREATE TABLE context_samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    recorded_at TEXT NOT NULL,
    active_app TEXT NOT NULL,
    active_website TEXT NOT NULL,
    thermal_state TEXT NOT NULL,
    battery_level REAL NOT NULL,
    fullscreen INTEGER NOT NULL,
    window_count INTEGER NOT NULL,
    keyboard_activity INTEGER NOT NULL,
    mouse_activity INTEGER NOT NULL,
    screen_brightness REAL NOT NULL
);
CREATE INDEX idx_context_samples_session ON context_samples(session_id);`,
	},
	{
		version: "0003_behavioral_patterns",
		sql: `CREATE TABLE behavioral_patterns (
    id TEXT PRIMARY KEY,
    pattern_type TEXT NOT NULL,
    frequency INTEGER NOT NULL,
    average_interval_ms INTEGER NOT NULL,
    time_of_day INTEGER,
    day_of_week INTEGER,
    application_context TEXT NOT NULL DEFAULT '',
    trend TEXT NOT NULL,
    confidence REAL NOT NULL,
    last_observed TEXT NOT NULL,
    active INTEGER NOT NULL
);`,
	},
}

func (s *Store) applyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, migration := range migrations {
		var count int
		row := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", migration.version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, migration.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", migration.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", migration.version); err != nil {
			return fmt.Errorf("record migration %s: %w", migration.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}
