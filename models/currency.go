package models

// Currency is a price tag as it appears in the marketplace data.
type Currency string

const (
	CurrencyWon  Currency = "won"
	CurrencyYang Currency = "yang"
)

// YangPerWon is the fixed conversion ratio: 1 won = 100,000,000 yang.
const YangPerWon = 100_000_000

// ToWon expresses an amount of the given currency in won. Won passes
// through unchanged. Callers are expected to pass a valid currency tag.
func ToWon(amount float64, currency Currency) float64 {
	if currency == CurrencyYang {
		return amount / YangPerWon
	}
	return amount
}

// WonToYang converts a won amount back into whole yang.
func WonToYang(won float64) int64 {
	return int64(won * YangPerWon)
}
