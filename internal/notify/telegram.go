package notify

import (
	"context"

	"radiantbloom/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier pushes short alerts to the staff group chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	api.Debug = cfg.Debug

	return &TelegramNotifier{api: api, chatID: cfg.ChatID}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := t.api.Send(msg)
	return err
}
