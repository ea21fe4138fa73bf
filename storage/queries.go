package storage

import (
	"database/sql"
	"sort"
	"strings"
	"time"

	"m2tracker/models"
)

const (
	// maxHistorySnapshots bounds how many snapshots a history query may
	// touch; histories at 5-minute cadence grow far beyond what any
	// consumer can chart.
	maxHistorySnapshots = 500
	maxHistoryRows      = 10000
	searchLimit         = 100
	latestPageLimit     = 100
)

// ListItems returns the distinct item names with at least one priced
// offer on the server, ascending.
func (s *Store) ListItems(serverID int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT item_name FROM offers
		WHERE server_id = ? AND price_in_won > 0
		ORDER BY item_name ASC`, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

// SearchItems is a case-insensitive substring search over item names on
// the server. The result is capped at searchLimit regardless of the
// requested limit.
func (s *Store) SearchItems(serverID int, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > searchLimit {
		limit = searchLimit
	}

	rows, err := s.db.Query(`
		SELECT DISTINCT item_name FROM offers
		WHERE server_id = ? AND price_in_won > 0 AND LOWER(item_name) LIKE LOWER(?)
		ORDER BY item_name ASC
		LIMIT ?`, serverID, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// latestSnapshot returns the newest snapshot row for the server, or nil
// when the server has never been ingested.
func (s *Store) latestSnapshot(serverID int) (*models.Snapshot, error) {
	snap := models.Snapshot{ServerID: serverID}
	err := s.db.QueryRow(`
		SELECT id, timestamp, created_at FROM snapshots
		WHERE server_id = ?
		ORDER BY timestamp DESC LIMIT 1`, serverID).Scan(&snap.ID, &snap.Timestamp, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ItemHistory returns the offers for an exact item name on a server,
// ordered by snapshot time ascending then insertion order. Selection is
// two-phase: first the most recent qualifying snapshots (bounded), then
// the offers for that snapshot set only, so long histories never force a
// scan and re-sort of the full offer table. limit caps returned rows,
// days bounds the lookback window; zero means unset.
func (s *Store) ItemHistory(serverID int, itemName string, limit, days int) ([]models.HistoryEntry, error) {
	itemName = strings.TrimSpace(itemName)
	if limit > maxHistoryRows {
		limit = maxHistoryRows
	}

	snapshotBudget := maxHistorySnapshots
	if limit > 0 {
		// Roughly ten offers per snapshot per item.
		if budget := limit / 10; budget > 0 && budget < snapshotBudget {
			snapshotBudget = budget
		}
	}

	snapshotQuery := `
		SELECT DISTINCT s.id, s.timestamp
		FROM snapshots s
		INNER JOIN offers o ON s.id = o.snapshot_id
		WHERE o.item_name = ? AND o.server_id = ? AND o.price_in_won > 0`
	args := []any{itemName, serverID}

	if days > 0 {
		cutoff := formatTimestamp(time.Now().AddDate(0, 0, -days))
		snapshotQuery += " AND s.timestamp >= ?"
		args = append(args, cutoff)
	}

	snapshotQuery += " ORDER BY s.timestamp DESC LIMIT ?"
	args = append(args, snapshotBudget)

	rows, err := s.db.Query(snapshotQuery, args...)
	if err != nil {
		return nil, err
	}
	var snapshotIDs []any
	for rows.Next() {
		var id int64
		var ts string
		if err := rows.Scan(&id, &ts); err != nil {
			rows.Close()
			return nil, err
		}
		snapshotIDs = append(snapshotIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snapshotIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(snapshotIDs)), ",")
	offerQuery := `
		SELECT s.timestamp, o.item_name, o.price, o.price_in_won, o.currency, o.quantity, o.seller
		FROM offers o
		INNER JOIN snapshots s ON o.snapshot_id = s.id
		WHERE o.snapshot_id IN (` + placeholders + `)
		AND o.item_name = ? AND o.price_in_won > 0
		ORDER BY s.timestamp ASC, o.id ASC`
	offerArgs := append(append([]any{}, snapshotIDs...), itemName)

	if limit > 0 {
		offerQuery += " LIMIT ?"
		offerArgs = append(offerArgs, limit)
	}

	offerRows, err := s.db.Query(offerQuery, offerArgs...)
	if err != nil {
		return nil, err
	}
	defer offerRows.Close()

	var history []models.HistoryEntry
	for offerRows.Next() {
		var e models.HistoryEntry
		var currency string
		if err := offerRows.Scan(&e.Timestamp, &e.ItemName, &e.Price, &e.PriceInWon, &currency, &e.Quantity, &e.Seller); err != nil {
			return nil, err
		}
		e.Currency = models.Currency(currency)
		history = append(history, e)
	}
	return history, offerRows.Err()
}

// LatestView aggregates the most recent snapshot of a server into one
// row per item, paginated by item name. A server with no snapshots
// yields an empty view.
func (s *Store) LatestView(serverID, limit, offset int) (*models.LatestView, error) {
	if limit <= 0 || limit > latestPageLimit {
		limit = latestPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	snap, err := s.latestSnapshot(serverID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return &models.LatestView{Items: []models.LatestItem{}}, nil
	}

	rows, err := s.db.Query(`
		SELECT item_name, price, price_in_won, currency, quantity, seller
		FROM offers
		WHERE snapshot_id = ? AND price_in_won > 0`, snap.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type itemAgg struct {
		best     models.Offer
		bestUnit float64
		minUnit  float64
		maxUnit  float64
		sumUnit  float64
		count    int
	}

	aggs := make(map[string]*itemAgg)
	var totalQuantity int64

	for rows.Next() {
		var o models.Offer
		var currency string
		if err := rows.Scan(&o.ItemName, &o.Price, &o.PriceInWon, &currency, &o.Quantity, &o.Seller); err != nil {
			return nil, err
		}
		o.Currency = models.Currency(currency)

		unit := o.PricePerUnit()
		totalQuantity += models.ParseQuantity(o.Quantity)

		agg, ok := aggs[o.ItemName]
		if !ok {
			aggs[o.ItemName] = &itemAgg{best: o, bestUnit: unit, minUnit: unit, maxUnit: unit, sumUnit: unit, count: 1}
			continue
		}
		if unit < agg.bestUnit {
			agg.best, agg.bestUnit = o, unit
		}
		if unit < agg.minUnit {
			agg.minUnit = unit
		}
		if unit > agg.maxUnit {
			agg.maxUnit = unit
		}
		agg.sumUnit += unit
		agg.count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(aggs))
	for name := range aggs {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]models.LatestItem, 0, len(names))
	for _, name := range names {
		agg := aggs[name]
		items = append(items, models.LatestItem{
			ItemName:        name,
			Timestamp:       snap.Timestamp,
			Price:           agg.best.Price,
			PriceInWon:      agg.best.PriceInWon,
			Currency:        agg.best.Currency,
			Quantity:        agg.best.Quantity,
			Seller:          agg.best.Seller,
			MinPricePerUnit: agg.minUnit,
			MaxPricePerUnit: agg.maxUnit,
			AvgPricePerUnit: agg.sumUnit / float64(agg.count),
		})
	}

	view := &models.LatestView{
		TotalCount:    len(items),
		TotalQuantity: totalQuantity,
		LastUpdate:    snap.Timestamp,
	}

	if offset >= len(items) {
		view.Items = []models.LatestItem{}
		return view, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	view.Items = items[offset:end]
	return view, nil
}
