package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// TelegramConfig configuration of the telegram notifier
type TelegramConfig struct {
	Token  string
	ChatID int64
	Debug  bool
	// APIEndpoint overrides tgbotapi.APIEndpoint, mostly for tests.
	APIEndpoint string
}

// Telegram posts alerts to a single telegram chat
type Telegram struct {
	Bot    *tgbotapi.BotAPI
	Config TelegramConfig
}

// NewTelegram creates new telegram notifier
func NewTelegram(c TelegramConfig) (*Telegram, error) {
	endpoint := c.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(c.Token, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Telegram{
		Bot:    bot,
		Config: c,
	}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Send posts the message to the configured chat. The email recipient is not used.
func (t *Telegram) Send(_ context.Context, m Message) error {
	msg := tgbotapi.NewMessage(t.Config.ChatID, m.Subject+"\n\n"+m.Body)
	msg.DisableWebPagePreview = true
	_, err := t.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", t.Config.ChatID)
}
