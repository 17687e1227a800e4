package config

import (
	"github.com/spf13/viper"
	"sync"
	"time"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("database_path", "DATABASE_PATH")
		viper.BindEnv("http_port", "HTTP_PORT")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("metrics_save_interval", "METRICS_SAVE_INTERVAL")
		viper.BindEnv("check_interval", "CHECK_INTERVAL")
		viper.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
		viper.BindEnv("navigation_timeout", "NAVIGATION_TIMEOUT")
		viper.BindEnv("browser_headless", "BROWSER_HEADLESS")
		viper.BindEnv("browser_no_sandbox", "BROWSER_NO_SANDBOX")
		viper.BindEnv("debug_html_path", "DEBUG_HTML_PATH")
		viper.BindEnv("smtp_host", "SMTP_HOST")
		viper.BindEnv("smtp_port", "SMTP_PORT")
		viper.BindEnv("smtp_username", "SMTP_USERNAME")
		viper.BindEnv("smtp_password", "SMTP_PASSWORD")
		viper.BindEnv("smtp_from", "SMTP_FROM")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("telegram_chat_id", "TELEGRAM_CHAT_ID")
		viper.BindEnv("notify_timeout", "NOTIFY_TIMEOUT")

		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("database_path", "data/tracker.db")
		viper.SetDefault("http_port", 3001)
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("metrics_save_interval", 5*time.Minute)
		viper.SetDefault("check_interval", time.Minute)
		viper.SetDefault("fetch_timeout", 25*time.Second)
		viper.SetDefault("navigation_timeout", 30*time.Second)
		viper.SetDefault("browser_headless", true)
		viper.SetDefault("browser_no_sandbox", false)
		viper.SetDefault("debug_html_path", "debug.html")
		viper.SetDefault("smtp_host", "smtp.gmail.com")
		viper.SetDefault("smtp_port", 587)
		viper.SetDefault("notify_timeout", 30*time.Second)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

// GetDuration accepts Go duration strings ("90s", "2m") from the environment.
func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// SMTPFrom falls back to a display-named sender built from the SMTP username.
func SMTPFrom() string {
	if from := GetString("smtp_from"); from != "" {
		return from
	}
	return `"Ticket Tracker" <` + GetString("smtp_username") + `>`
}
