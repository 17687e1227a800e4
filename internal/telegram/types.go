package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token  string
	ChatID int64
	Debug  bool
	// Timeout bounds every Bot API request, 30 seconds when unset.
	Timeout time.Duration
	// Endpoint overrides tgbotapi.APIEndpoint.
	Endpoint string
}

// Bot telegram interaction client
type Bot struct {
	Bot    *tgbotapi.BotAPI
	Config BotConfig
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}
