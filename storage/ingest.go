package storage

import (
	"database/sql"
	"log"
	"time"

	"m2tracker/models"
)

// Ingest persists one batch of raw listings as a snapshot for serverID.
// Listings that resolve to a positive won price become offers; the rest
// are dropped and only counted. The whole batch is one transaction: a
// reader never observes the snapshot without its offers. Returns the
// number of offers persisted.
func (s *Store) Ingest(serverID int, listings []models.RawListing) (int, error) {
	return s.ingestAt(serverID, formatTimestamp(time.Now()), listings)
}

func (s *Store) ingestAt(serverID int, timestamp string, listings []models.RawListing) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	snapshotID, err := snapshotForTimestamp(tx, serverID, timestamp)
	if err != nil {
		return 0, err
	}

	persisted, dropped := 0, 0
	for _, raw := range listings {
		offer, ok := models.ResolveOffer(raw)
		if !ok {
			dropped++
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO offers (snapshot_id, server_id, item_name, price, price_in_won, currency, quantity, seller)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snapshotID, serverID, offer.ItemName, offer.Price, offer.PriceInWon,
			offer.Currency, offer.Quantity, offer.Seller); err != nil {
			return 0, err
		}

		if s.legacyDualWrite {
			if _, err := tx.Exec(`
				INSERT INTO price_history (timestamp, item_name, price, price_in_won, currency, quantity, seller)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				timestamp, offer.ItemName, offer.Price, offer.PriceInWon,
				offer.Currency, offer.Quantity, offer.Seller); err != nil {
				return 0, err
			}
		}

		persisted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if dropped > 0 {
		log.Printf("ingest: server %d: dropped %d unpriced listings", serverID, dropped)
	}
	log.Printf("ingest: server %d: %d offers in snapshot %s", serverID, persisted, timestamp)
	return persisted, nil
}

// snapshotForTimestamp inserts the (server, timestamp) snapshot or, when
// it already exists, returns the existing row id.
func snapshotForTimestamp(tx *sql.Tx, serverID int, timestamp string) (int64, error) {
	res, err := tx.Exec(
		"INSERT OR IGNORE INTO snapshots (server_id, timestamp) VALUES (?, ?)",
		serverID, timestamp)
	if err != nil {
		return 0, err
	}

	if n, _ := res.RowsAffected(); n > 0 {
		return res.LastInsertId()
	}

	var id int64
	err = tx.QueryRow(
		"SELECT id FROM snapshots WHERE server_id = ? AND timestamp = ?",
		serverID, timestamp).Scan(&id)
	return id, err
}

// Purge deletes legacy flat-table rows and fetch runs older than
// daysToKeep. The normalized tables are never purged here; the legacy
// table keeps its timestamp semantics for backward compatibility.
func (s *Store) Purge(daysToKeep int) (int64, error) {
	cutoff := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -daysToKeep)

	res, err := s.db.Exec("DELETE FROM price_history WHERE timestamp < ?", formatTimestamp(cutoff))
	if err != nil {
		return 0, err
	}
	deleted, _ := res.RowsAffected()

	if _, err := s.db.Exec("DELETE FROM fetch_runs WHERE started_at < ?", cutoff); err != nil {
		return deleted, err
	}

	if deleted > 0 {
		log.Printf("purge: removed %d legacy rows older than %d days", deleted, daysToKeep)
	}
	return deleted, nil
}

// CreateRun records the start of one fetch+ingest attempt.
func (s *Store) CreateRun(run *models.FetchRun) error {
	_, err := s.db.Exec(`
		INSERT INTO fetch_runs (id, server_id, started_at, status, listings_found, offers_persisted, error)
		VALUES (?, ?, ?, ?, 0, 0, '')`,
		run.ID.String(), run.ServerID, run.StartedAt, run.Status)
	return err
}

// FinishRun stores the outcome of a fetch run.
func (s *Store) FinishRun(run *models.FetchRun) error {
	_, err := s.db.Exec(`
		UPDATE fetch_runs SET finished_at = ?, status = ?, listings_found = ?, offers_persisted = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsFound, run.OffersPersisted, run.Error, run.ID.String())
	return err
}
