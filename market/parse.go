package market

import (
	"bytes"
	"encoding/json"
	"fmt"

	"m2tracker/models"
)

// Candidate keys tried, in priority order, for each logical attribute of
// a raw listing. The upstream payload is not a stable contract: key
// casing and naming have changed between deployments, so the priority
// order is data, not branching.
var (
	vnumKeys     = []string{"vnum", "VNum", "VNUM", "id", "item_id", "itemId"}
	nameKeys     = []string{"name", "item_name", "title", "item", "itemName"}
	quantityKeys = []string{"quantity", "count", "qty", "amount", "stock"}
	yangKeys     = []string{"yangPrice", "yang", "price_yang", "yang_price", "price"}
	wonKeys      = []string{"wonPrice", "won", "price_won", "won_price"}
	sellerKeys   = []string{"seller", "seller_name", "sellerName", "owner", "player", "player_name"}

	listKeys = []string{"items", "data", "products", "list", "results"}
)

// ParseListings decodes a store payload into raw listings. The payload
// may be a bare array or an object wrapping the array under one of
// listKeys; a single object is treated as a one-element list. Items
// without a name are skipped. translations maps vnum -> localized name
// and may be nil.
func ParseListings(payload []byte, translations map[string]string) ([]models.RawListing, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode store payload: %w", err)
	}

	items, err := extractList(data)
	if err != nil {
		return nil, err
	}

	var listings []models.RawListing
	for _, entry := range items {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		name := firstString(item, nameKeys)
		if vnum := firstString(item, vnumKeys); vnum != "" && translations != nil {
			if translated := translations[vnum]; translated != "" {
				name = translated
			}
		}
		if name == "" {
			continue
		}

		listings = append(listings, models.RawListing{
			Name:     name,
			Quantity: firstString(item, quantityKeys),
			Yang:     firstString(item, yangKeys),
			Won:      firstString(item, wonKeys),
			Seller:   firstString(item, sellerKeys),
		})
	}

	return listings, nil
}

func extractList(data any) ([]any, error) {
	switch v := data.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range listKeys {
			if list, ok := v[key].([]any); ok {
				return list, nil
			}
		}
		// No wrapper key matched; take the first non-empty array value,
		// else treat the object as a single listing.
		for _, value := range v {
			if list, ok := value.([]any); ok && len(list) > 0 {
				return list, nil
			}
		}
		return []any{v}, nil
	default:
		return nil, fmt.Errorf("unexpected store payload type %T", data)
	}
}

// firstString returns the value of the first present, non-nil candidate
// key, rendered as a string. json.Number keeps integer prices exact.
func firstString(item map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := item[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return s
		case json.Number:
			return s.String()
		default:
			return fmt.Sprintf("%v", s)
		}
	}
	return ""
}
