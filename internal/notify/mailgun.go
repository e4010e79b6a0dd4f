package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// DefaultMailgunAPIBase é a base da API v3 do Mailgun.
const DefaultMailgunAPIBase = mailgun.APIBase

// ErrMissingCredentials indica que a chave ou o domínio do Mailgun não foram configurados.
var ErrMissingCredentials = errors.New("mailgun api key or domain not configured")

// SendError indica que o Mailgun respondeu com status diferente de 200.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("mailgun returned %d: %s", e.StatusCode, e.Body)
}

// MailgunConfig reúne as credenciais do Mailgun.
type MailgunConfig struct {
	APIKey  string
	Domain  string
	APIBase string
	From    string
}

// Mailgun envia emails pela API HTTP do Mailgun
type Mailgun struct {
	cfg MailgunConfig
	mg  *mailgun.MailgunImpl
}

// NewMailgun cria o despachante de email. client nil usa timeout de 15s.
func NewMailgun(cfg MailgunConfig, client *http.Client) *Mailgun {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultMailgunAPIBase
	}
	if cfg.From == "" && cfg.Domain != "" {
		cfg.From = "Pricing Service <do-not-reply@" + cfg.Domain + ">"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	mg.SetAPIBase(strings.TrimRight(cfg.APIBase, "/"))
	mg.SetClient(client)
	return &Mailgun{cfg: cfg, mg: mg}
}

// Send publica a mensagem em {base}/{domain}/messages.
func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	if m.cfg.APIKey == "" || m.cfg.Domain == "" {
		return ErrMissingCredentials
	}
	if len(msg.Recipients) == 0 {
		return errors.New("mailgun: no recipients")
	}

	message := m.mg.NewMessage(m.cfg.From, msg.Subject, msg.Text, msg.Recipients...)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}

	if _, _, err := m.mg.Send(ctx, message); err != nil {
		var unexpected *mailgun.UnexpectedResponseError
		if errors.As(err, &unexpected) {
			return &SendError{StatusCode: unexpected.Actual, Body: strings.TrimSpace(string(unexpected.Data))}
		}
		return fmt.Errorf("mailgun: send: %w", err)
	}
	return nil
}
