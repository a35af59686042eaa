package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abelzeko/erfiume-bot/internal/entities"
	"github.com/abelzeko/erfiume-bot/internal/usecases"
)

// TelegramNotifier delivers fired alerts through the Bot API. It only sends,
// so it can run in the fetcher next to the polling bot.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier creates a sender for the bot identified by botToken
func NewTelegramNotifier(botToken string) (*TelegramNotifier, error) {
	return newTelegramNotifier(botToken, tgbotapi.APIEndpoint, &http.Client{Timeout: 30 * time.Second})
}

func newTelegramNotifier(botToken, apiEndpoint string, client *http.Client) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, apiEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

// NotifyAlert sends the alert message to the subscribed chat
func (n *TelegramNotifier) NotifyAlert(ctx context.Context, alert entities.Alert, st entities.Station) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(alert.ChatID, usecases.FormatAlertNotification(alert, st))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send alert to chat %d: %w", alert.ChatID, err)
	}
	return nil
}
