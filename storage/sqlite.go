package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// defaultServerID is the partition assigned to rows that predate the
// server dimension (back-filled columns, legacy flat-table migration).
const defaultServerID = 426

// timestampLayout is fixed-width so that lexicographic order on the
// stored TEXT column equals chronological order. RFC3339Nano would trim
// trailing zeros and break ORDER BY timestamp.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store owns the single SQLite database file. One Store is constructed
// at process start and handed to every component that needs it; each
// operation runs its own short-lived transaction.
type Store struct {
	db              *sql.DB
	legacyDualWrite bool
}

func NewStore(dbPath string, legacyDualWrite bool) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, legacyDualWrite: legacyDualWrite}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
