package market

import (
	"os"
	"path/filepath"
	"testing"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func TestParseListings_Array(t *testing.T) {
	listings, err := ParseListings(loadFixture(t, "store_array.json"), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings (nameless item skipped), got %d", len(listings))
	}

	first := listings[0]
	if first.Name != "Piece of Black Stone" {
		t.Fatalf("unexpected name %q", first.Name)
	}
	if first.Quantity != "200" {
		t.Fatalf("expected quantity 200, got %q", first.Quantity)
	}
	if first.Yang != "150000000" {
		t.Fatalf("expected exact yang price, got %q", first.Yang)
	}
	if first.Won != "0" {
		t.Fatalf("expected won 0 passed through, got %q", first.Won)
	}
	if first.Seller != "MoonShop" {
		t.Fatalf("unexpected seller %q", first.Seller)
	}

	second := listings[1]
	if second.Name != "Blessing Marble" {
		t.Fatalf("expected title fallback for name, got %q", second.Name)
	}
	if second.Quantity != "1,000" {
		t.Fatalf("expected count fallback, got %q", second.Quantity)
	}
	if second.Yang != "" {
		t.Fatalf("null yang must stay empty, got %q", second.Yang)
	}
	if second.Won != "12" {
		t.Fatalf("expected won 12, got %q", second.Won)
	}
	if second.Seller != "Trader88" {
		t.Fatalf("expected owner fallback for seller, got %q", second.Seller)
	}
}

func TestParseListings_WrappedObject(t *testing.T) {
	listings, err := ParseListings(loadFixture(t, "store_wrapped.json"), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].Name != "Energy Fragment" {
		t.Fatalf("unexpected name %q", listings[0].Name)
	}
	if listings[0].Yang != "2500000" {
		t.Fatalf("unexpected yang %q", listings[0].Yang)
	}
}

func TestParseListings_Translations(t *testing.T) {
	translations := map[string]string{"25040": "Kamień Czarny"}

	listings, err := ParseListings(loadFixture(t, "store_array.json"), translations)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if listings[0].Name != "Kamień Czarny" {
		t.Fatalf("expected translated name, got %q", listings[0].Name)
	}
	if listings[1].Name != "Blessing Marble" {
		t.Fatalf("untranslated vnum must keep original name, got %q", listings[1].Name)
	}
}

func TestParseListings_SingleObject(t *testing.T) {
	payload := []byte(`{"name": "Lone Item", "quantity": 1, "wonPrice": 2}`)
	listings, err := ParseListings(payload, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(listings) != 1 || listings[0].Name != "Lone Item" {
		t.Fatalf("expected single-object payload to parse, got %+v", listings)
	}
}

func TestParseListings_KeyPriority(t *testing.T) {
	payload := []byte(`[{"name": "x", "yangPrice": 100, "yang": 999, "wonPrice": 1, "won": 999}]`)
	listings, err := ParseListings(payload, nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if listings[0].Yang != "100" || listings[0].Won != "1" {
		t.Fatalf("candidate priority violated: yang=%q won=%q", listings[0].Yang, listings[0].Won)
	}
}

func TestParseListings_BadPayload(t *testing.T) {
	if _, err := ParseListings([]byte(`"just a string"`), nil); err == nil {
		t.Fatalf("expected error for scalar payload")
	}
	if _, err := ParseListings([]byte(`{not json`), nil); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
