package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"ticket-price-tracker/internal/types"
	"ticket-price-tracker/lib/helpers"
	"ticket-price-tracker/lib/translation"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig) (*Bot, error) {
	if c.ChatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Endpoint == "" {
		c.Endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(c.Token, c.Endpoint, &http.Client{Timeout: c.Timeout})
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
	}, nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

func (b *Bot) Name() string {
	return "telegram"
}

// Notify posts a price drop to the configured chat. The request is bounded
// by the client timeout since the Bot API client takes no context.
func (b *Bot) Notify(ctx context.Context, n types.Notification) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "telegram notification cancelled")
	}
	return b.SendMessage(Message{
		ChatID: b.Config.ChatID,
		Text:   FormatNotification(n),
	})
}

// FormatNotification renders n as MarkdownV2.
func FormatNotification(n types.Notification) string {
	link := fmt.Sprintf("[%s](%s)", helpers.EscapeMarkdownV2(n.Link), escapeLinkURL(n.Link))
	return translation.Translate("🎟 *Price Drop for %s\\!*\n\nTicket price is now *$%s*\n%s",
		helpers.EscapeMarkdownV2(n.ConcertName),
		helpers.FormatPriceUS(n.Price, true),
		link,
	)
}

// escapeLinkURL escapes the characters MarkdownV2 reserves inside (...).
func escapeLinkURL(url string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(url)
}
