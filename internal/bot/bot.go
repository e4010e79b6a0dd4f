// Package bot liga o serviço a um chat do Telegram: avisos de alerta e
// comandos de administração.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pricing-service/internal/notify"
)

// ErrMissingToken indica que TELEGRAM_BOT_TOKEN não foi configurado.
var ErrMissingToken = errors.New("telegram bot token not configured")

// Sender é a parte do BotAPI usada para enviar mensagens.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Init conecta ao Telegram com o token do bot
func Init(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	api.Debug = false
	slog.Info("telegram bot authorized", slog.String("username", api.Self.UserName))
	return api, nil
}

// Dispatcher repassa os avisos de alerta para um chat fixo
type Dispatcher struct {
	sender Sender
	chatID int64
}

// NewDispatcher cria o despachante para o chat chatID.
func NewDispatcher(sender Sender, chatID int64) *Dispatcher {
	return &Dispatcher{sender: sender, chatID: chatID}
}

func (d *Dispatcher) Send(ctx context.Context, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := tgbotapi.NewMessage(d.chatID, formatNotification(msg))
	out.DisableWebPagePreview = true
	if _, err := d.sender.Send(out); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatNotification(msg notify.Message) string {
	text := "🎉 " + msg.Subject + "\n\n" + msg.Text
	if len(msg.Recipients) > 0 {
		text += "\n\nOwner: " + msg.Recipients[0]
	}
	return text
}

var _ notify.Dispatcher = (*Dispatcher)(nil)
