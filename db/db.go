package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type DB struct {
	db *sqlx.DB
}

func Open(path string) (*DB, error) {
	db, err := sqlx.Connect("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	// One writer at a time keeps sqlite from reporting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %q: %w", path, err)
	}

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
