package mapping

import (
	"strconv"
	"strings"
)

// currencyTokens are stripped from amount strings before parsing: symbol,
// ISO code, and the localized currency word.
var currencyTokens = []string{"฿", "THB", "บาท", "Baht", "baht"}

// ParseAmount parses an amount string after stripping currency tokens and
// thousands separators. Negative amounts are rejected; a transfer slip never
// carries one. Returns false when nothing parseable remains.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, token := range currencyTokens {
		s = strings.ReplaceAll(s, token, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
