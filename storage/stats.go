package storage

import (
	"sort"
	"strings"
	"time"

	"m2tracker/models"
)

const (
	// statsWindowDays bounds per-item statistics to recent history so the
	// per-unit price list stays small enough for an exact median.
	statsWindowDays = 90
	unitLotSize     = 200
)

// ItemStatistics computes per-unit price statistics for one item on one
// server over the recent window. Returns nil when the item has no priced
// offers in the window.
func (s *Store) ItemStatistics(serverID int, itemName string) (*models.ItemStats, error) {
	itemName = strings.TrimSpace(itemName)
	cutoff := formatTimestamp(time.Now().AddDate(0, 0, -statsWindowDays))

	rows, err := s.db.Query(`
		SELECT o.price_in_won, o.quantity
		FROM offers o
		INNER JOIN snapshots s ON o.snapshot_id = s.id
		WHERE o.item_name = ? AND o.server_id = ? AND o.price_in_won > 0 AND s.timestamp >= ?`,
		itemName, serverID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perUnit []float64
	var totalQuantity int64
	for rows.Next() {
		var priceInWon float64
		var quantity string
		if err := rows.Scan(&priceInWon, &quantity); err != nil {
			return nil, err
		}
		qty := models.ParseQuantity(quantity)
		perUnit = append(perUnit, priceInWon/float64(qty))
		totalQuantity += qty
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(perUnit) == 0 {
		return nil, nil
	}

	sort.Float64s(perUnit)
	n := len(perUnit)

	var sum float64
	for _, p := range perUnit {
		sum += p
	}

	var median float64
	if n%2 == 0 {
		median = (perUnit[n/2-1] + perUnit[n/2]) / 2
	} else {
		median = perUnit[n/2]
	}

	stats := &models.ItemStats{
		MinPrice:      perUnit[0],
		MaxPrice:      perUnit[n-1],
		AvgPrice:      sum / float64(n),
		MedianPrice:   median,
		DataPoints:    n,
		TotalOffers:   n,
		TotalQuantity: totalQuantity,
	}
	stats.MinPrice200 = stats.MinPrice * unitLotSize
	stats.MaxPrice200 = stats.MaxPrice * unitLotSize
	stats.AvgPrice200 = stats.AvgPrice * unitLotSize
	stats.MedianPrice200 = stats.MedianPrice * unitLotSize
	return stats, nil
}

// Statistics summarizes whole-offer prices per item across all history
// on a server: min/max/avg of the normalized price, the data point
// count, and the most recent price seen.
func (s *Store) Statistics(serverID int) (map[string]models.ItemOverview, error) {
	rows, err := s.db.Query(`
		SELECT item_name, MIN(price_in_won), MAX(price_in_won), AVG(price_in_won), COUNT(*)
		FROM offers
		WHERE server_id = ? AND price_in_won > 0
		GROUP BY item_name`, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]models.ItemOverview)
	for rows.Next() {
		var name string
		var overview models.ItemOverview
		if err := rows.Scan(&name, &overview.MinPrice, &overview.MaxPrice, &overview.AvgPrice, &overview.DataPoints); err != nil {
			return nil, err
		}
		stats[name] = overview
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return stats, nil
	}

	current, err := s.db.Query(`
		SELECT item_name, price_in_won FROM (
			SELECT o.item_name, o.price_in_won,
				ROW_NUMBER() OVER (PARTITION BY o.item_name ORDER BY s.timestamp DESC, o.id DESC) AS rn
			FROM offers o
			INNER JOIN snapshots s ON o.snapshot_id = s.id
			WHERE o.server_id = ? AND o.price_in_won > 0
		) WHERE rn = 1`, serverID)
	if err != nil {
		return nil, err
	}
	defer current.Close()

	for current.Next() {
		var name string
		var price float64
		if err := current.Scan(&name, &price); err != nil {
			return nil, err
		}
		if overview, ok := stats[name]; ok {
			overview.CurrentPrice = price
			stats[name] = overview
		}
	}
	return stats, current.Err()
}
