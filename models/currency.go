package models

import "strings"

// Currency ids as used by the tour search API.
const (
	CurrencyUSD = 1
	CurrencyUAH = 2
	CurrencyEUR = 10
)

// CurrencySymbols maps currency ids to display symbols.
var CurrencySymbols = map[int]string{
	CurrencyUSD: "$",
	CurrencyUAH: "₴",
	CurrencyEUR: "€",
}

var currencyHints = map[string]int{
	"uah":     CurrencyUAH,
	"грн":     CurrencyUAH,
	"гривня":  CurrencyUAH,
	"гривні":  CurrencyUAH,
	"usd":     CurrencyUSD,
	"дол":     CurrencyUSD,
	"долар":   CurrencyUSD,
	"долари":  CurrencyUSD,
	"доларів": CurrencyUSD,
	"$":       CurrencyUSD,
	"eur":     CurrencyEUR,
	"євро":    CurrencyEUR,
	"€":       CurrencyEUR,
}

// CurrencyIDForHint resolves a currency hint, returning fallback when unknown or empty.
func CurrencyIDForHint(hint string, fallback int) int {
	if id, ok := currencyHints[strings.ToLower(strings.TrimSpace(hint))]; ok {
		return id
	}
	return fallback
}

// CurrencySymbol returns the symbol for id, or "" when unknown.
func CurrencySymbol(id int) string {
	return CurrencySymbols[id]
}
