package utils

import (
	"strings"
)

// Common Vietnamese listed-company aliases and normalizations.
var symbolAliases = map[string]string{
	"VINAMILK":         "VNM",
	"VNM":              "VNM",
	"VIETCOMBANK":      "VCB",
	"VCB":              "VCB",
	"VIETINBANK":       "CTG",
	"CTG":              "CTG",
	"BIDV":             "BID",
	"BID":              "BID",
	"TECHCOMBANK":      "TCB",
	"TCB":              "TCB",
	"MBBANK":           "MBB",
	"MB BANK":          "MBB",
	"MBB":              "MBB",
	"ACB":              "ACB",
	"VPBANK":           "VPB",
	"VPB":              "VPB",
	"FPT":              "FPT",
	"HOA PHAT":         "HPG",
	"HOAPHAT":          "HPG",
	"HPG":              "HPG",
	"VINGROUP":         "VIC",
	"VIC":              "VIC",
	"VINHOMES":         "VHM",
	"VHM":              "VHM",
	"MASAN":            "MSN",
	"MSN":              "MSN",
	"SABECO":           "SAB",
	"SAB":              "SAB",
	"MOBILE WORLD":     "MWG",
	"MWG":              "MWG",
	"PV GAS":           "GAS",
	"PVGAS":            "GAS",
	"GAS":              "GAS",
	"VIETJET":          "VJC",
	"VJC":              "VJC",
	"SSI":              "SSI",
	"VNDIRECT":         "VND",
	"REE":              "REE",
	"PETROLIMEX":       "PLX",
	"PLX":              "PLX",
	"VIETNAM AIRLINES": "HVN",
	"HVN":              "HVN",
}

// Vietnamese market index symbols.
var indexSymbols = map[string]string{
	"VNINDEX":     "VN-Index",
	"VN-INDEX":    "VN-Index",
	"VN INDEX":    "VN-Index",
	"VN30":        "VN30",
	"VN-30":       "VN30",
	"HNXINDEX":    "HNX-Index",
	"HNX-INDEX":   "HNX-Index",
	"HNX INDEX":   "HNX-Index",
	"HNX30":       "HNX30",
	"UPCOM":       "UPCoM-Index",
	"UPCOM-INDEX": "UPCoM-Index",
}

// NormalizeSymbol normalizes a user-input symbol to the canonical
// exchange ticker. It handles aliases, uppercasing, and whitespace.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Remove $ prefix if present (common in chat)
	symbol = strings.TrimPrefix(symbol, "$")

	// Check if it's an index
	if idx, ok := indexSymbols[symbol]; ok {
		return idx
	}

	// Check aliases
	if canonical, ok := symbolAliases[symbol]; ok {
		return canonical
	}

	return symbol
}

// IsValidSymbol reports whether the symbol looks like a Vietnamese
// listed-equity ticker: exactly three ASCII letters.
func IsValidSymbol(symbol string) bool {
	symbol = strings.TrimSpace(strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(symbol), "$")))
	if len(symbol) != 3 {
		return false
	}
	for _, r := range symbol {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// IsIndex checks if the symbol refers to a market index (not a stock).
func IsIndex(symbol string) bool {
	symbol = NormalizeSymbol(symbol)
	if _, ok := indexSymbols[symbol]; ok {
		return true
	}
	// Also check if it was already resolved to an index name
	for _, v := range indexSymbols {
		if v == symbol {
			return true
		}
	}
	return false
}
