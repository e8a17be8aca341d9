package types

import (
	"strings"

	"github.com/samber/lo"
)

// currencySymbols maps lower-case ISO currency codes to display symbols
var currencySymbols = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"aud": "AU$",
	"cad": "CA$",
	"nzd": "NZ$",
	"jpy": "¥",
	"inr": "₹",
	"mxn": "MX$",
}

// zeroDecimalCurrencies have no minor unit; amounts are whole units
var zeroDecimalCurrencies = []string{
	"bif", "clp", "djf", "gnf", "jpy", "kmf", "krw", "mga",
	"pyg", "rwf", "ugx", "vnd", "vuv", "xaf", "xof", "xpf",
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[strings.ToLower(code)]; ok {
		return symbol
	}
	return code
}

// IsZeroDecimalCurrency reports whether amounts in code carry no minor unit
func IsZeroDecimalCurrency(code string) bool {
	return lo.Contains(zeroDecimalCurrencies, strings.ToLower(code))
}
