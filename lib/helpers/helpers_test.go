package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPriceUS(t *testing.T) {
	assert.Equal(t, "38", FormatPriceUS(38, false))
	assert.Equal(t, "1,234.50", FormatPriceUS(1234.5, false))
	assert.Equal(t, "1,234\\.50", FormatPriceUS(1234.5, true))
	assert.Equal(t, "0.99", FormatPriceUS(0.99, false))
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, "Price Drop\\! \\(VIP\\)", EscapeMarkdownV2("Price Drop! (VIP)"))
	assert.Equal(t, "a\\\\b", EscapeMarkdownV2(`a\b`))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "", FormatAge(time.Time{}))
	assert.Equal(t, "2 hours ago", FormatAge(time.Now().Add(-2*time.Hour)))
}
