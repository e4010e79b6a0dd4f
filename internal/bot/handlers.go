package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pricing-service/internal/models"
	"pricing-service/internal/monitor"
	"pricing-service/internal/service"
)

// AlertLister lista os alertas com itens resolvidos.
type AlertLister interface {
	ListAll(ctx context.Context) ([]service.AlertDetail, error)
}

// AlertChecker verifica um alerta na hora.
type AlertChecker interface {
	CheckAlert(ctx context.Context, alertID string) (monitor.Outcome, error)
}

const helpText = `🤖 <b>Price alerts</b>

<b>/alerts</b> - list every alert with its latest price
<b>/check &lt;alert-id&gt;</b> - fetch the price now and notify if below the limit
<b>/help</b> - show this message`

// Handler responde aos comandos do chat autorizado
type Handler struct {
	sender  Sender
	alerts  AlertLister
	checker AlertChecker
	chatID  int64
	logger  *slog.Logger
}

// NewHandler cria o tratador de comandos. Só chatID pode usar comandos além de /help.
func NewHandler(sender Sender, alerts AlertLister, checker AlertChecker, chatID int64, logger *slog.Logger) *Handler {
	return &Handler{sender: sender, alerts: alerts, checker: checker, chatID: chatID, logger: logger}
}

// Listen consome as atualizações do bot até ctx ser cancelado.
func (h *Handler) Listen(ctx context.Context, api *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				h.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// parseCommand separa o comando (sem @botname, minúsculo) dos argumentos.
func parseCommand(text string) (string, []string) {
	parts := strings.Fields(text)
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "/") {
		return "", nil
	}
	command := strings.ToLower(parts[0])
	if idx := strings.Index(command, "@"); idx > 0 {
		command = command[:idx]
	}
	return command, parts[1:]
}

// HandleMessage executa um comando recebido.
func (h *Handler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	command, args := parseCommand(message.Text)
	if command == "" {
		return
	}
	chatID := message.Chat.ID

	if command != "/start" && command != "/help" && chatID != h.chatID {
		h.reply(chatID, "You are not authorized to use this bot.", false)
		return
	}

	switch command {
	case "/start", "/help":
		h.reply(chatID, helpText, true)
	case "/alerts":
		h.handleAlerts(ctx, chatID)
	case "/check":
		h.handleCheck(ctx, chatID, args)
	default:
		h.reply(chatID, "Unknown command. Use /help to see the available commands.", false)
	}
}

func (h *Handler) handleAlerts(ctx context.Context, chatID int64) {
	details, err := h.alerts.ListAll(ctx)
	if err != nil {
		h.logger.Error("failed to list alerts", slog.String("error", err.Error()))
		h.reply(chatID, "❌ Failed to list alerts.", false)
		return
	}
	h.reply(chatID, formatAlertList(details), true)
}

func (h *Handler) handleCheck(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.reply(chatID, "❌ Usage: /check <alert-id>", false)
		return
	}

	out, err := h.checker.CheckAlert(ctx, args[0])
	switch {
	case errors.Is(err, service.ErrAlertNotFound):
		h.reply(chatID, "❌ Alert not found.", false)
		return
	case err != nil:
		h.logger.Error("check failed", slog.String("alert_id", args[0]), slog.String("error", err.Error()))
		h.reply(chatID, "❌ Failed to check alert.", false)
		return
	}
	h.reply(chatID, formatOutcome(out), false)
}

func formatOutcome(out monitor.Outcome) string {
	if out.Err != nil {
		return fmt.Sprintf("❌ Price check failed for %s: %v", out.AlertID, out.Err)
	}
	text := fmt.Sprintf("📊 Alert %s\nCurrent price: %s", out.AlertID, models.FormatPrice(*out.Price))
	switch {
	case out.Notified:
		text += "\n✅ Below the limit, owner notified."
	case out.Triggered:
		text += "\n⚠️ Below the limit, but no notification channel is configured."
	}
	return text
}

// formatAlertList monta a lista de alertas em HTML do Telegram.
func formatAlertList(details []service.AlertDetail) string {
	if len(details) == 0 {
		return "📋 No alerts registered."
	}

	var b strings.Builder
	b.WriteString("📋 <b>Alerts:</b>\n\n")
	for _, d := range details {
		fmt.Fprintf(&b, "🆔 <code>%s</code>\n", d.Alert.ID)
		fmt.Fprintf(&b, "📦 %s\n", html.EscapeString(d.Alert.Name))
		fmt.Fprintf(&b, "🎯 Limit: %s\n", models.FormatPrice(d.Alert.PriceFloor))
		switch {
		case d.Item == nil:
			b.WriteString("⚠️ Item missing\n\n")
			continue
		case d.Item.Price == nil:
			b.WriteString("💰 Price: not checked yet\n")
		default:
			fmt.Fprintf(&b, "💰 Price: %s\n", models.FormatPrice(*d.Item.Price))
		}
		fmt.Fprintf(&b, "🔗 %s\n\n", html.EscapeString(d.Item.URL))
	}
	return b.String()
}

func (h *Handler) reply(chatID int64, text string, asHTML bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if asHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if _, err := h.sender.Send(msg); err != nil {
		h.logger.Error("failed to send telegram message", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
	}
}
