package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"pricing-service/internal/models"
	"pricing-service/internal/monitor"
	"pricing-service/internal/notify"
	"pricing-service/internal/service"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type fakeAlerts struct {
	listFn  func(ctx context.Context) ([]service.AlertDetail, error)
	checkFn func(ctx context.Context, id string) (monitor.Outcome, error)
}

func (f *fakeAlerts) ListAll(ctx context.Context) ([]service.AlertDetail, error) {
	return f.listFn(ctx)
}

func (f *fakeAlerts) CheckAlert(ctx context.Context, id string) (monitor.Outcome, error) {
	return f.checkFn(ctx, id)
}

const adminChat int64 = 42

func newTestHandler(alerts *fakeAlerts) (*Handler, *fakeSender) {
	sender := &fakeSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(sender, alerts, alerts, adminChat, logger), sender
}

func message(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		command string
		args    int
	}{
		{"/check abc", "/check", 1},
		{"/Alerts@PriceBot", "/alerts", 0},
		{"  /help  ", "/help", 0},
		{"hello", "", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		command, args := parseCommand(tt.text)
		if command != tt.command || len(args) != tt.args {
			t.Errorf("parseCommand(%q) = %q, %v", tt.text, command, args)
		}
	}
}

func TestHandleMessage_Unauthorized(t *testing.T) {
	h, sender := newTestHandler(&fakeAlerts{})

	h.HandleMessage(context.Background(), message(7, "/alerts"))

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Text, "not authorized") {
		t.Fatalf("sent = %+v", sender.sent)
	}
}

func TestHandleMessage_HelpIsPublic(t *testing.T) {
	h, sender := newTestHandler(&fakeAlerts{})

	h.HandleMessage(context.Background(), message(7, "/help"))

	if len(sender.sent) != 1 || sender.sent[0].ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("sent = %+v", sender.sent)
	}
}

func TestHandleMessage_Alerts(t *testing.T) {
	price := decimal.RequireFromString("12.5")
	h, sender := newTestHandler(&fakeAlerts{
		listFn: func(ctx context.Context) ([]service.AlertDetail, error) {
			return []service.AlertDetail{
				{
					Alert: &models.Alert{ID: "a1", Name: "<Cable>", PriceFloor: decimal.RequireFromString("20")},
					Item:  &models.Item{URL: "https://shop.example/p/1", Price: &price},
				},
				{Alert: &models.Alert{ID: "a2", Name: "Ghost", PriceFloor: decimal.RequireFromString("5")}},
			}, nil
		},
	})

	h.HandleMessage(context.Background(), message(adminChat, "/alerts"))

	text := sender.sent[0].Text
	for _, want := range []string{"a1", "&lt;Cable&gt;", "12.50", "20.00", "Item missing"} {
		if !strings.Contains(text, want) {
			t.Errorf("list missing %q:\n%s", want, text)
		}
	}
}

func TestHandleMessage_Check(t *testing.T) {
	price := decimal.RequireFromString("9.99")
	h, sender := newTestHandler(&fakeAlerts{
		checkFn: func(ctx context.Context, id string) (monitor.Outcome, error) {
			if id != "a1" {
				return monitor.Outcome{}, service.ErrAlertNotFound
			}
			return monitor.Outcome{AlertID: id, Price: &price, Notified: true}, nil
		},
	})

	h.HandleMessage(context.Background(), message(adminChat, "/check a1"))
	h.HandleMessage(context.Background(), message(adminChat, "/check nope"))
	h.HandleMessage(context.Background(), message(adminChat, "/check"))

	if len(sender.sent) != 3 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Text, "9.99") || !strings.Contains(sender.sent[0].Text, "notified") {
		t.Errorf("check reply = %q", sender.sent[0].Text)
	}
	if !strings.Contains(sender.sent[1].Text, "not found") {
		t.Errorf("missing reply = %q", sender.sent[1].Text)
	}
	if !strings.Contains(sender.sent[2].Text, "Usage") {
		t.Errorf("usage reply = %q", sender.sent[2].Text)
	}
}

func TestFormatOutcome_TriggeredWithoutChannels(t *testing.T) {
	price := decimal.RequireFromString("9.99")
	text := formatOutcome(monitor.Outcome{AlertID: "a1", Price: &price, Triggered: true})
	if !strings.Contains(text, "no notification channel") || strings.Contains(text, "owner notified") {
		t.Errorf("text = %q", text)
	}
}

func TestDispatcher_Send(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, adminChat)

	err := d.Send(context.Background(), notify.Message{
		Recipients: []string{"jane@example.com"},
		Subject:    "Price alert: Cable",
		Text:       "now 9.99",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got := sender.sent[0]
	if got.ChatID != adminChat || !strings.Contains(got.Text, "Cable") || !strings.Contains(got.Text, "jane@example.com") {
		t.Errorf("sent = %+v", got)
	}

	sender.err = errors.New("boom")
	if err := d.Send(context.Background(), notify.Message{}); err == nil {
		t.Error("expected error")
	}
}
