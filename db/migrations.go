package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration func(*sqlx.Tx) error

// migrate brings the schema from its recorded PRAGMA user_version up to
// len(steps), in one transaction.
func migrate(db *sqlx.DB, steps []migration) error {
	tx, err := db.BeginTxx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin schema migration: %w", err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	switch {
	case version == len(steps):
		return nil
	case version > len(steps):
		return fmt.Errorf("schema version %d is newer than the %d this binary knows", version, len(steps))
	}

	for i, step := range steps[version:] {
		if err := step(tx); err != nil {
			return fmt.Errorf("migrating schema to version %d: %w", version+i+1, err)
		}
	}

	// PRAGMA statements don't accept ? placeholders.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", len(steps))); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema migration: %w", err)
	}
	return nil
}

func execAll(stmts ...string) migration {
	return func(tx *sqlx.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

var schema = []migration{
	execAll(`CREATE TABLE sources (
           id INTEGER PRIMARY KEY,
           path TEXT,
           mtime_sec INTEGER,
           mtime_nano INTEGER,
           size INTEGER,
           hash TEXT,
           replay_error TEXT NOT NULL DEFAULT '',
           ingested_sec INTEGER
         )`,
		`CREATE UNIQUE INDEX sources_path_idx ON sources (path)`,
		`CREATE TABLE profiles (
           id INTEGER PRIMARY KEY,
           source_id INTEGER REFERENCES sources (id) ON DELETE CASCADE,
           seq INTEGER,
           name TEXT,
           start REAL,
           duration REAL,
           nodes INTEGER,
           tree TEXT
         )`,
		`CREATE UNIQUE INDEX profiles_source_seq_idx ON profiles (source_id, seq)`,
		`CREATE INDEX profiles_name_idx ON profiles (name)`),
}
