// Package monitor roda o lote que atualiza preços e avalia os alertas.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"pricing-service/internal/metrics"
	"pricing-service/internal/models"
	"pricing-service/internal/notify"
	"pricing-service/internal/scraper"
	"pricing-service/internal/service"
)

// ErrDanglingItem indica um alerta cujo item não existe mais.
var ErrDanglingItem = errors.New("alert references a missing item")

// Outcome é o resultado de um alerta dentro do lote.
type Outcome struct {
	AlertID string
	ItemID  string
	Price   *decimal.Decimal
	// Triggered indica preço abaixo do piso; Notified, que ao menos um canal entregou.
	Triggered bool
	Notified  bool
	Err       error
}

// Monitor gerencia a verificação periódica dos alertas
type Monitor struct {
	alerts    *service.Alerts
	items     *service.Items
	users     *service.Users
	evaluator *Evaluator
	metrics   metrics.Recorder
	logger    *slog.Logger
	interval  time.Duration
}

// New cria o monitor. rec nil desliga as métricas.
func New(alerts *service.Alerts, items *service.Items, users *service.Users, evaluator *Evaluator, rec metrics.Recorder, logger *slog.Logger, interval time.Duration) *Monitor {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Monitor{
		alerts:    alerts,
		items:     items,
		users:     users,
		evaluator: evaluator,
		metrics:   rec,
		logger:    logger,
		interval:  interval,
	}
}

// Start roda um lote imediatamente e depois a cada intervalo, até ctx ser
// cancelado. Um lote nunca começa enquanto o anterior ainda roda.
func (m *Monitor) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", m.interval)
	clog := cronLogger{m.logger}
	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.SkipIfStillRunning(clog)))

	if _, err := c.AddFunc(spec, func() { m.run(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	m.logger.Info("monitor started", slog.String("spec", spec))
	m.run(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	m.logger.Info("monitor stopped")
	return nil
}

func (m *Monitor) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := m.RunOnce(ctx); err != nil {
		m.logger.Error("batch failed", slog.String("error", err.Error()))
	}
}

// RunOnce processa todos os alertas em sequência. Falhas de um alerta ficam
// no seu Outcome e o lote segue; só a listagem dos alertas aborta.
func (m *Monitor) RunOnce(ctx context.Context) ([]Outcome, error) {
	start := time.Now()
	alerts, err := m.alerts.All(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(alerts))
	notified, failed := 0, 0
	for _, a := range alerts {
		out := m.check(ctx, a)
		if out.Notified {
			notified++
		}
		if out.Err != nil {
			failed++
		}
		outcomes = append(outcomes, out)
	}

	elapsed := time.Since(start)
	m.metrics.RecordBatch(elapsed, len(alerts))
	m.logger.Info("batch finished",
		slog.Int("alerts", len(alerts)),
		slog.Int("notified", notified),
		slog.Int("failed", failed),
		slog.Duration("duration", elapsed),
	)
	return outcomes, nil
}

// CheckAlert roda a verificação de um único alerta, como no lote.
func (m *Monitor) CheckAlert(ctx context.Context, alertID string) (Outcome, error) {
	alert, err := m.alerts.Get(ctx, alertID)
	if err != nil {
		return Outcome{}, err
	}
	return m.check(ctx, alert), nil
}

func (m *Monitor) check(ctx context.Context, alert *models.Alert) Outcome {
	out := Outcome{AlertID: alert.ID, ItemID: alert.ItemID}
	log := m.logger.With(slog.String("alert_id", alert.ID), slog.String("item_id", alert.ItemID))

	item, err := m.items.Get(ctx, alert.ItemID)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			out.Err = ErrDanglingItem
		} else {
			out.Err = fmt.Errorf("load item %s: %w", alert.ItemID, err)
		}
		log.Warn("skipping alert", slog.String("error", out.Err.Error()))
		return out
	}

	user, err := m.users.Get(ctx, alert.UserID)
	if err != nil {
		out.Err = fmt.Errorf("owner %s: %w", alert.UserID, err)
		log.Warn("skipping alert", slog.String("error", out.Err.Error()))
		return out
	}

	price, err := m.items.RefreshPrice(ctx, item)
	if err != nil {
		kind := scraper.Kind(err)
		m.metrics.RecordFetchFailure(kind)
		out.Err = err
		log.Warn("price check failed",
			slog.String("url", item.URL),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return out
	}
	m.metrics.RecordFetchSuccess()
	out.Price = &price

	fired, err := m.evaluator.Evaluate(ctx, alert, item, user)
	out.Triggered = fired
	if !fired {
		return out
	}
	attrs := []any{
		slog.String("price", models.FormatPrice(price)),
		slog.String("floor", models.FormatPrice(alert.PriceFloor)),
	}

	var partial *notify.PartialError
	switch {
	case errors.Is(err, notify.ErrNoChannels):
		m.metrics.RecordNotification("skipped")
		log.Info("alert triggered without notification channels", attrs...)
	case errors.As(err, &partial):
		m.metrics.RecordNotification("partial")
		out.Notified = true
		log.Warn("alert triggered, some channels failed", append(attrs, slog.String("error", err.Error()))...)
	case err != nil:
		m.metrics.RecordNotification("error")
		out.Err = err
		log.Error("notification failed", append(attrs, slog.String("error", err.Error()))...)
	default:
		m.metrics.RecordNotification("sent")
		out.Notified = true
		log.Info("alert triggered", attrs...)
	}
	return out
}

// cronLogger adapta o slog ao logger do cron.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append([]any{slog.String("error", err.Error())}, keysAndValues...)...)
}
