package storage

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

const legacyMigratedKey = "legacy_migrated"

// migrate runs the three-phase schema migration on every open:
// create-if-absent, server-column back-fill, one-shot legacy copy.
// Phases 1 and 2 tolerate individual DDL failures (column or index
// already present) so that a restart against any schema revision comes
// up serving.
func (s *Store) migrate() error {
	if err := s.createTables(); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	s.backfillServerColumns()
	s.createIndexes()
	if err := s.migrateLegacyData(); err != nil {
		return fmt.Errorf("legacy migration: %w", err)
	}
	return nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		item_name TEXT NOT NULL,
		price REAL NOT NULL,
		price_in_won REAL NOT NULL,
		currency TEXT NOT NULL,
		quantity TEXT NOT NULL,
		seller TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server_id INTEGER NOT NULL DEFAULT 426,
		timestamp TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS offers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL,
		server_id INTEGER NOT NULL DEFAULT 426,
		item_name TEXT NOT NULL,
		price REAL NOT NULL,
		price_in_won REAL NOT NULL,
		currency TEXT NOT NULL,
		quantity TEXT NOT NULL,
		seller TEXT NOT NULL,
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS fetch_runs (
		id TEXT PRIMARY KEY,
		server_id INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		listings_found INTEGER DEFAULT 0,
		offers_persisted INTEGER DEFAULT 0,
		error TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS schema_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// backfillServerColumns adds the server dimension to normalized tables
// created before it existed. Rows present at that point belong to the
// default server.
func (s *Store) backfillServerColumns() {
	for _, table := range []string{"snapshots", "offers"} {
		has, err := s.hasColumn(table, "server_id")
		if err != nil {
			log.Printf("migrate: inspect %s: %v", table, err)
			continue
		}
		if has {
			continue
		}

		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN server_id INTEGER NOT NULL DEFAULT %d", table, defaultServerID)
		if _, err := s.db.Exec(ddl); err != nil {
			log.Printf("migrate: add server_id to %s: %v", table, err)
			continue
		}
		log.Printf("migrate: added server_id to %s (default %d)", table, defaultServerID)
	}

	// The pre-server uniqueness was on timestamp alone; the composite
	// index below supersedes it.
	if _, err := s.db.Exec("DROP INDEX IF EXISTS idx_snapshots_timestamp"); err != nil {
		log.Printf("migrate: drop old snapshot index: %v", err)
	}
}

func (s *Store) createIndexes() {
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_server_timestamp ON snapshots(server_id, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_offers_snapshot_item ON offers(snapshot_id, item_name)",
		"CREATE INDEX IF NOT EXISTS idx_offers_server_item ON offers(server_id, item_name)",
		"CREATE INDEX IF NOT EXISTS idx_offers_item_price ON offers(item_name, price_in_won)",
		"CREATE INDEX IF NOT EXISTS idx_history_timestamp ON price_history(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_history_item_timestamp ON price_history(item_name, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_runs_server_started ON fetch_runs(server_id, started_at)",
	}
	for _, ddl := range indexes {
		if _, err := s.db.Exec(ddl); err != nil {
			log.Printf("migrate: index: %v", err)
		}
	}
}

func (s *Store) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// migrateLegacyData copies the flat price_history table into the
// snapshot/offer model, once per database lifetime. Completion is
// recorded in schema_meta rather than inferred from the destination
// being non-empty, so an unrelated first write cannot suppress it; the
// emptiness check remains as a guard for databases that were populated
// before the marker existed.
func (s *Store) migrateLegacyData() error {
	var marker string
	err := s.db.QueryRow("SELECT value FROM schema_meta WHERE key = ?", legacyMigratedKey).Scan(&marker)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	var legacyCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM price_history").Scan(&legacyCount); err != nil {
		return err
	}
	if legacyCount == 0 {
		return s.setMarker(legacyMigratedKey, "empty")
	}

	var snapshotCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&snapshotCount); err != nil {
		return err
	}
	if snapshotCount > 0 {
		log.Printf("migrate: normalized tables already populated, skipping legacy copy")
		return s.setMarker(legacyMigratedKey, "skipped")
	}

	log.Printf("migrate: copying %d legacy rows into snapshot/offer tables", legacyCount)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT DISTINCT timestamp FROM price_history ORDER BY timestamp")
	if err != nil {
		return err
	}
	var timestamps []string
	for rows.Next() {
		var ts string
		if err := rows.Scan(&ts); err != nil {
			rows.Close()
			return err
		}
		timestamps = append(timestamps, ts)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	var migrated int64
	for _, ts := range timestamps {
		snapshotID, err := snapshotForTimestamp(tx, defaultServerID, ts)
		if err != nil {
			return err
		}

		res, err := tx.Exec(`
			INSERT INTO offers (snapshot_id, server_id, item_name, price, price_in_won, currency, quantity, seller)
			SELECT ?, ?, item_name, price, price_in_won, currency, quantity, seller
			FROM price_history
			WHERE timestamp = ? AND price_in_won > 0`,
			snapshotID, defaultServerID, ts)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		migrated += n
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO schema_meta (key, value) VALUES (?, ?)",
		legacyMigratedKey, formatTimestamp(time.Now())); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("migrate: copied %d offers across %d snapshots", migrated, len(timestamps))
	return nil
}

func (s *Store) setMarker(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO schema_meta (key, value) VALUES (?, ?)", key, value)
	return err
}
