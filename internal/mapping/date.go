// Package mapping translates the flat generic field set into the bank-slip
// domain slots: date, amount, recipient, account, memo.
package mapping

import (
	"strconv"
	"strings"
	"time"
)

// Buddhist-era years sit 543 ahead of Gregorian; Thai slips print 4-digit
// years in the 2500s.
const buddhistEraOffset = 543

// dateLayouts are tried in order against the normalized (slash-separated)
// date string. Slips are day-first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	"02/01/2006 15:04:05",
	"2006/01/02",
	"02/01/06",
}

// ParseDate parses a slip date string. Buddhist-era detection runs first
// (a 4-digit year in the 2500s is shifted back 543 years), then a direct
// calendar parse. Separators -, . and space are all treated as /.
// Returns false when no attempt succeeds; the caller decides the fallback.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	normalized := normalizeDateSeparators(s)
	// Buddhist-era detection runs first: a 4-digit 25xx year would otherwise
	// parse verbatim as a far-future Gregorian year.
	if converted, ok := convertBuddhistYear(normalized); ok {
		if t, ok := parseLayouts(converted); ok {
			return t, true
		}
	}
	if t, ok := parseLayouts(normalized); ok {
		return t, true
	}
	return time.Time{}, false
}

func parseLayouts(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDateSeparators maps the separators vendors actually print onto
// slashes, collapsing a single date-time space into one.
func normalizeDateSeparators(s string) string {
	replacer := strings.NewReplacer("-", "/", ".", "/")
	s = replacer.Replace(s)
	// "01 02 2567" style: spaces between digit groups act as separators,
	// but a trailing time component keeps its space.
	fields := strings.Fields(s)
	if len(fields) == 3 && allDigits(fields[0]) && allDigits(fields[1]) && allDigits(fields[2]) {
		return strings.Join(fields, "/")
	}
	return strings.Join(fields, " ")
}

// convertBuddhistYear rewrites the first 4-digit 25xx digit run as its
// Gregorian equivalent, splicing at the run's own position so an unrelated
// longer digit run containing the same digits is never touched.
// Returns false when no such run exists.
func convertBuddhistYear(s string) (string, bool) {
	for i := 0; i < len(s); {
		if s[i] < '0' || s[i] > '9' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j-i == 4 {
			if year, err := strconv.Atoi(s[i:j]); err == nil && year >= 2500 && year <= 2599 {
				return s[:i] + strconv.Itoa(year-buddhistEraOffset) + s[j:], true
			}
		}
		i = j
	}
	return "", false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
