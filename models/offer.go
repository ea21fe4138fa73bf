package models

import (
	"strconv"
	"strings"
	"time"
)

// RawListing is one store listing as produced by the fetcher. Numeric
// fields are kept as strings because the upstream data mixes formats
// (thousands separators, empty values, plain integers).
type RawListing struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Yang     string `json:"yang"`
	Won      string `json:"won"`
	Seller   string `json:"seller"`
}

// Snapshot is one ingestion cycle for one server. The (server_id,
// timestamp) pair is unique; re-ingesting at the same timestamp reuses
// the existing row.
type Snapshot struct {
	ID        int64     `json:"id" db:"id"`
	ServerID  int       `json:"server_id" db:"server_id"`
	Timestamp string    `json:"timestamp" db:"timestamp"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Offer is one listing captured within a snapshot. PriceInWon is always
// the won-normalized price regardless of the listing currency. ServerID
// is denormalized from the snapshot for query-path efficiency.
type Offer struct {
	ID         int64    `json:"id" db:"id"`
	SnapshotID int64    `json:"snapshot_id" db:"snapshot_id"`
	ServerID   int      `json:"server_id" db:"server_id"`
	ItemName   string   `json:"item_name" db:"item_name"`
	Price      float64  `json:"price" db:"price"`
	PriceInWon float64  `json:"price_in_won" db:"price_in_won"`
	Currency   Currency `json:"currency" db:"currency"`
	Quantity   string   `json:"quantity" db:"quantity"`
	Seller     string   `json:"seller" db:"seller"`
}

// HistoryEntry is an offer joined with its snapshot timestamp, the shape
// served to history consumers.
type HistoryEntry struct {
	Timestamp  string   `json:"timestamp"`
	ItemName   string   `json:"item_name"`
	Price      float64  `json:"price"`
	PriceInWon float64  `json:"price_in_won"`
	Currency   Currency `json:"currency"`
	Quantity   string   `json:"quantity"`
	Seller     string   `json:"seller"`
}

// ResolveOffer turns a raw listing into an offer, or reports that the
// listing has no usable price. Won is preferred over yang; only positive
// prices resolve. Listings that fail to resolve are dropped by ingestion.
func ResolveOffer(raw RawListing) (*Offer, bool) {
	name := raw.Name
	if name == "" {
		name = "Unknown"
	}

	if won, ok := parsePrice(raw.Won); ok {
		return &Offer{
			ItemName:   name,
			Price:      won,
			PriceInWon: won,
			Currency:   CurrencyWon,
			Quantity:   raw.Quantity,
			Seller:     raw.Seller,
		}, true
	}

	if yang, ok := parsePrice(raw.Yang); ok {
		return &Offer{
			ItemName:   name,
			Price:      yang,
			PriceInWon: ToWon(yang, CurrencyYang),
			Currency:   CurrencyYang,
			Quantity:   raw.Quantity,
			Seller:     raw.Seller,
		}, true
	}

	return nil, false
}

// parsePrice accepts integers with comma/dot thousands separators and
// surrounding whitespace. Anything else, including zero and negative
// values, does not parse.
func parsePrice(s string) (float64, bool) {
	cleaned := strings.NewReplacer(",", "", ".", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return float64(n), true
}

// ParseQuantity extracts the lot size from a quantity string by stripping
// every non-digit character. Empty, non-numeric and non-positive values
// default to 1 so that price-per-unit math never divides by zero. The
// same parsing backs both ingestion and aggregation.
func ParseQuantity(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 1
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// PricePerUnit is the won price divided by the parsed lot size, the unit
// every cross-listing comparison uses.
func (o *Offer) PricePerUnit() float64 {
	return o.PriceInWon / float64(ParseQuantity(o.Quantity))
}
