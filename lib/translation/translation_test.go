package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateFallsBackToMessageID(t *testing.T) {
	assert.Equal(t, "Price Drop for Show!", Translate("Price Drop for %s!", "Show"))
}
