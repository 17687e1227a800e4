package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-price-tracker/internal/types"
)

const pageURL = "https://tickets.example.com/event/1"

func TestExtractEqualMinimumKeepsLastCandidate(t *testing.T) {
	quote, ok := Extract([]types.Candidate{
		{RawPrice: "10", Link: "A"},
		{RawPrice: "10", Link: "B"},
	}, pageURL)

	require.True(t, ok)
	assert.Equal(t, 10.0, quote.Price)
	assert.Equal(t, "B", quote.Link)
}

func TestExtractTieAfterLowerPriceStillPicksLastOfMinimum(t *testing.T) {
	quote, ok := Extract([]types.Candidate{
		{RawPrice: "12", Link: "A"},
		{RawPrice: "9", Link: "B"},
		{RawPrice: "15", Link: "C"},
		{RawPrice: "9", Link: "D"},
		{RawPrice: "11", Link: "E"},
	}, pageURL)

	require.True(t, ok)
	assert.Equal(t, 9.0, quote.Price)
	assert.Equal(t, "D", quote.Link)
}

func TestExtractSkipsUnparsableTokens(t *testing.T) {
	quote, ok := Extract([]types.Candidate{
		{RawPrice: "N/A", Link: "A"},
		{RawPrice: "$ 42.50", Link: "B"},
		{RawPrice: "", Link: "C"},
	}, pageURL)

	require.True(t, ok)
	assert.Equal(t, 42.5, quote.Price)
	assert.Equal(t, "B", quote.Link)
}

func TestExtractAllUnparsableIsNoQuote(t *testing.T) {
	_, ok := Extract([]types.Candidate{
		{RawPrice: "N/A", Link: "A"},
		{RawPrice: "sold out", Link: "B"},
	}, pageURL)
	assert.False(t, ok)

	_, ok = Extract(nil, pageURL)
	assert.False(t, ok)
}

func TestExtractFallsBackToPageURL(t *testing.T) {
	quote, ok := Extract([]types.Candidate{
		{RawPrice: "CA $120.00"},
	}, pageURL)

	require.True(t, ok)
	assert.Equal(t, 120.0, quote.Price)
	assert.Equal(t, pageURL, quote.Link)
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"$1,234.56", 1234.56, true},
		{" 89 ", 89, true},
		{"€ 0", 0, true},
		{".75", 0.75, true},
		{"12.", 12, true},
		{"1.2.3", 1.2, true},
		{"-15", 15, true},
		{"N/A", 0, false},
		{"...", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		got, ok := ParsePrice(c.raw)
		assert.Equal(t, c.valid, ok, "valid for %q", c.raw)
		if c.valid {
			assert.InDelta(t, c.want, got, 1e-9, "value for %q", c.raw)
		}
	}
}
