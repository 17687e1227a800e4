package translation

import (
	"github.com/leonelquinteros/gotext"
)

// Configure loads the "default" domain for lang from localesDir.
func Configure(localesDir, lang string) {
	gotext.Configure(localesDir, lang, "default")
}

// Translate looks up msgID and formats it with vars. Message ids are the
// English texts, so a missing catalog falls back to English.
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
