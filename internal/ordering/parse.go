// Package ordering implements menu browsing, cart pricing, cost estimation,
// and receipt creation over the catalog.
//
// Money, ETA, and rating-count fields in the catalog come from scraped data
// and may be numbers or free text. The parsers here produce a canonical
// numeric value and report whether parsing succeeded, so callers can flag
// unparsed text instead of silently pricing it as zero.
package ordering

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nomnoms/nomnoms/internal/catalog"
)

var (
	decimalRe = regexp.MustCompile(`(\d+\.?\d*)`)
	minutesRe = regexp.MustCompile(`(\d+)\s*min`)
	integerRe = regexp.MustCompile(`(\d+)`)
)

// ParseMoney extracts a monetary amount from a loose scalar.
// Text is scanned left to right for the first decimal number, so
// "$$16.99" yields 16.99 and "$0 delivery fee, first order" yields 0.
// ok is false when the field is absent or no number could be found.
func ParseMoney(s catalog.Scalar) (amount float64, ok bool) {
	if !s.Present {
		return 0, false
	}
	if s.IsNumber {
		return s.Number, true
	}
	m := decimalRe.FindStringSubmatch(s.Raw)
	if m == nil {
		return 0, false
	}
	return parseFloat(m[1]), true
}

// PriceRangeString renders a price range as dollar signs. An integer value n
// converts to n "$" characters; text passes through unchanged.
func PriceRangeString(s catalog.Scalar) string {
	if !s.Present {
		return ""
	}
	if s.IsNumber {
		n := int(s.Number)
		if n < 0 {
			return ""
		}
		return strings.Repeat("$", n)
	}
	return s.Raw
}

// ParseETA extracts delivery minutes from values like 36, "36 min", or
// "3.1 mi • 36 min": the integer immediately preceding "min".
func ParseETA(s catalog.Scalar) (minutes int, ok bool) {
	if !s.Present {
		return 0, false
	}
	if s.IsNumber {
		return int(s.Number), true
	}
	m := minutesRe.FindStringSubmatch(s.Raw)
	if m == nil {
		return 0, false
	}
	return int(parseFloat(m[1])), true
}

// ParseRatingCount extracts a review count from values like 100, "(3k+)", or
// "1.2k". A "k+" suffix multiplies by 1000.
func ParseRatingCount(s catalog.Scalar) (count int, ok bool) {
	if !s.Present {
		return 0, false
	}
	if s.IsNumber {
		return int(s.Number), true
	}

	cleaned := strings.Trim(s.Raw, "()")
	if strings.Contains(strings.ToLower(cleaned), "k+") {
		if m := decimalRe.FindStringSubmatch(cleaned); m != nil {
			return int(parseFloat(m[1]) * 1000), true
		}
	}
	if m := integerRe.FindStringSubmatch(cleaned); m != nil {
		return int(parseFloat(m[1])), true
	}
	return 0, false
}

// parseFloat converts a digits-and-dot string already matched by one of the
// package regexps. The patterns guarantee it parses.
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	return f
}
