package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Migration is one forward-only schema step. Versions sort lexically and are
// applied at most once.
type Migration struct {
	Version string
	Up      string
}

// EventMigrations creates the event log and subscriber cursor tables.
var EventMigrations = []Migration{
	{
		Version: "event_2025_08_16_04_00",
		Up: `
CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	version INTEGER NOT NULL,
	data BLOB NOT NULL,
	metadata BLOB NULL,
	routing_key TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_aggregate_id ON event(aggregate_id);
CREATE INDEX IF NOT EXISTS idx_event_aggregate_type ON event(aggregate_type);
CREATE INDEX IF NOT EXISTS idx_event_routing ON event(routing_key, aggregate_type);
CREATE UNIQUE INDEX IF NOT EXISTS idx_event_version ON event(aggregate_id, aggregate_type, version);

CREATE TABLE IF NOT EXISTS subscriber (
	key TEXT PRIMARY KEY,
	cursor INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);`,
	},
}

// Migrate applies every migration not yet recorded in schema_migrations.
func Migrate(ctx context.Context, db *sql.DB, migrations []Migration) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&n); err != nil {
			return fmt.Errorf("check migration %s: %w", m.Version, err)
		}
		if n > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, time.Now().Unix()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Version, err)
		}
		slog.Info("migration applied", "version", m.Version)
	}
	return nil
}
