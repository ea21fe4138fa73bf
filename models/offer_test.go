package models

import (
	"math"
	"testing"
)

func TestToWonRoundTrip(t *testing.T) {
	amounts := []float64{1, 250, 100_000_000, 3_500_000_000}
	for _, yang := range amounts {
		won := ToWon(yang, CurrencyYang)
		back := float64(WonToYang(won))
		if math.Abs(back-yang) > 1e-6 {
			t.Fatalf("round trip for %v yang: got %v", yang, back)
		}
	}

	if got := ToWon(42, CurrencyWon); got != 42 {
		t.Fatalf("won must pass through unchanged, got %v", got)
	}
}

func TestResolveOffer_PrefersWon(t *testing.T) {
	offer, ok := ResolveOffer(RawListing{
		Name:     "Piece of Black Stone",
		Quantity: "200",
		Yang:     "150000000",
		Won:      "3",
		Seller:   "shop1",
	})
	if !ok {
		t.Fatalf("expected offer to resolve")
	}
	if offer.Currency != CurrencyWon {
		t.Fatalf("expected won to win over yang, got %s", offer.Currency)
	}
	if offer.Price != 3 || offer.PriceInWon != 3 {
		t.Fatalf("expected price 3 won, got %v / %v", offer.Price, offer.PriceInWon)
	}
}

func TestResolveOffer_YangFallback(t *testing.T) {
	offer, ok := ResolveOffer(RawListing{
		Name: "Piece of Black Stone",
		Yang: "150,000,000",
	})
	if !ok {
		t.Fatalf("expected offer to resolve")
	}
	if offer.Currency != CurrencyYang {
		t.Fatalf("expected yang fallback, got %s", offer.Currency)
	}
	if offer.Price != 150000000 {
		t.Fatalf("expected separators stripped, got %v", offer.Price)
	}
	if offer.PriceInWon != 1.5 {
		t.Fatalf("expected 1.5 won, got %v", offer.PriceInWon)
	}
}

func TestResolveOffer_Unpriced(t *testing.T) {
	cases := []RawListing{
		{Name: "x"},
		{Name: "x", Won: "0", Yang: "0"},
		{Name: "x", Won: "-5"},
		{Name: "x", Won: "abc", Yang: "12x"},
	}
	for _, raw := range cases {
		if _, ok := ResolveOffer(raw); ok {
			t.Fatalf("expected %+v to be dropped", raw)
		}
	}
}

func TestResolveOffer_DefaultsName(t *testing.T) {
	offer, ok := ResolveOffer(RawListing{Won: "5"})
	if !ok {
		t.Fatalf("expected offer to resolve")
	}
	if offer.ItemName != "Unknown" {
		t.Fatalf("expected Unknown name, got %q", offer.ItemName)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"200", 200},
		{"1,000", 1000},
		{" 2 000 ", 2000},
		{"x250", 250},
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-3", 3}, // sign stripped, digits remain
	}
	for _, c := range cases {
		if got := ParseQuantity(c.in); got != c.want {
			t.Fatalf("ParseQuantity(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPricePerUnit(t *testing.T) {
	o := Offer{PriceInWon: 10, Quantity: "200"}
	if got := o.PricePerUnit(); got != 0.05 {
		t.Fatalf("expected 0.05 won per unit, got %v", got)
	}

	o = Offer{PriceInWon: 10, Quantity: ""}
	if got := o.PricePerUnit(); got != 10 {
		t.Fatalf("empty quantity must default to 1 unit, got %v", got)
	}
}
