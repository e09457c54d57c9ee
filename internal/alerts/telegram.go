package alerts

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends alerts to a Telegram chat, retrying transient failures
// with linear backoff.
type Telegram struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewTelegram creates a Telegram sender.
func NewTelegram(botToken string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &Telegram{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     3,
		retryDelayBase: time.Second,
	}, nil
}

// SendMessage delivers one plain-text message.
func (t *Telegram) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(t.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("sending message after %d retries: %w", t.maxRetries, lastErr)
}
