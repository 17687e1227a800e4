package price

import (
	"regexp"
	"strconv"
	"strings"

	"ticket-price-tracker/internal/types"
)

// leadingNumber matches the longest numeric prefix of a cleaned token, so
// "1.2.3" reads as 1.2.
var leadingNumber = regexp.MustCompile(`^[0-9]*\.?[0-9]*`)

// ParsePrice keeps only digits and dots from raw and parses the leading
// number. It reports false when nothing numeric is left.
func ParsePrice(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)

	number := leadingNumber.FindString(cleaned)
	if strings.Trim(number, ".") == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(number, "."), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Extract picks the cheapest candidate. Candidates without a link are
// attributed to pageURL. On equal prices the later candidate wins.
func Extract(candidates []types.Candidate, pageURL string) (types.Quote, bool) {
	var (
		best  types.Quote
		found bool
	)

	for _, c := range candidates {
		p, ok := ParsePrice(c.RawPrice)
		if !ok {
			continue
		}

		link := c.Link
		if link == "" {
			link = pageURL
		}

		if !found || p <= best.Price {
			best = types.Quote{Price: p, Link: link}
			found = true
		}
	}

	return best, found
}
