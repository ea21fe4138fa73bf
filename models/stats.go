package models

// ItemStats are per-unit price statistics for one item over the recent
// window. The *200 fields are the per-unit figures projected to a
// 200-unit lot, a convenience for the common trade size.
type ItemStats struct {
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
	AvgPrice       float64 `json:"avg_price"`
	MedianPrice    float64 `json:"median_price"`
	MinPrice200    float64 `json:"min_price_200"`
	MaxPrice200    float64 `json:"max_price_200"`
	AvgPrice200    float64 `json:"avg_price_200"`
	MedianPrice200 float64 `json:"median_price_200"`
	DataPoints     int     `json:"data_points"`
	TotalOffers    int     `json:"total_offers"`
	TotalQuantity  int64   `json:"total_quantity"`
}

// ItemOverview summarizes whole-offer prices seen for one item across all
// history. Unlike ItemStats this deliberately uses offer prices, not
// per-unit prices: it answers "what prices appeared", not "what did a
// unit cost".
type ItemOverview struct {
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	AvgPrice     float64 `json:"avg_price"`
	DataPoints   int     `json:"data_points"`
	CurrentPrice float64 `json:"current_price"`
}

// LatestItem is one item's aggregate within the most recent snapshot. The
// representative offer fields come from the offer with the lowest
// per-unit price.
type LatestItem struct {
	ItemName        string   `json:"item_name"`
	Timestamp       string   `json:"timestamp"`
	Price           float64  `json:"price"`
	PriceInWon      float64  `json:"price_in_won"`
	Currency        Currency `json:"currency"`
	Quantity        string   `json:"quantity"`
	Seller          string   `json:"seller"`
	MinPricePerUnit float64  `json:"min_price_per_unit"`
	MaxPricePerUnit float64  `json:"max_price_per_unit"`
	AvgPricePerUnit float64  `json:"avg_price_per_unit"`
}

// LatestView is one page of the latest-snapshot item list. TotalCount and
// TotalQuantity cover the whole snapshot, not just the returned page.
type LatestView struct {
	Items         []LatestItem `json:"items"`
	TotalCount    int          `json:"total_count"`
	TotalQuantity int64        `json:"total_quantity"`
	LastUpdate    string       `json:"last_update"`
}
