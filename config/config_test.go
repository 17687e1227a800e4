package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	t.Setenv("CHECK_INTERVAL", "")
	t.Setenv("FETCH_TIMEOUT", "")
	t.Setenv("NAVIGATION_TIMEOUT", "")
	t.Setenv("NOTIFY_TIMEOUT", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("BROWSER_HEADLESS", "")
	t.Setenv("SMTP_FROM", "")
	t.Setenv("SMTP_USERNAME", "tracker@example.com")

	assert.Equal(t, time.Minute, GetDuration("check_interval"))
	assert.Equal(t, 25*time.Second, GetDuration("fetch_timeout"))
	assert.Equal(t, 30*time.Second, GetDuration("navigation_timeout"))
	assert.Equal(t, 30*time.Second, GetDuration("notify_timeout"))
	assert.Equal(t, 3001, GetInt("http_port"))
	assert.True(t, GetBool("browser_headless"))
	assert.Equal(t, `"Ticket Tracker" <tracker@example.com>`, SMTPFrom())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHECK_INTERVAL", "90s")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("SMTP_FROM", "alerts@example.com")

	assert.Equal(t, 90*time.Second, GetDuration("check_interval"))
	assert.Equal(t, 5*time.Second, GetDuration("fetch_timeout"))
	assert.Equal(t, 8080, GetInt("http_port"))
	assert.False(t, GetBool("browser_headless"))
	assert.Equal(t, "alerts@example.com", SMTPFrom())
}
