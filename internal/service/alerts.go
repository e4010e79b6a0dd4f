package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"pricing-service/internal/database"
	"pricing-service/internal/models"
	"pricing-service/internal/security"
)

// AlertDetail junta o alerta ao seu item. Item é nil quando a referência está pendente.
type AlertDetail struct {
	Alert *models.Alert
	Item  *models.Item
	// FetchErr guarda a falha da busca inicial de preço na criação.
	FetchErr error
}

// AlertsConfig ajusta a validação de URLs de itens.
type AlertsConfig struct {
	AllowPrivateURLs bool
}

// Alerts cuida dos alertas de um usuário
type Alerts struct {
	repos  *Repos
	stores *Stores
	items  *Items
	cfg    AlertsConfig
	logger *slog.Logger
}

// NewAlerts cria o serviço de alertas.
func NewAlerts(repos *Repos, stores *Stores, items *Items, cfg AlertsConfig, logger *slog.Logger) *Alerts {
	return &Alerts{repos: repos, stores: stores, items: items, cfg: cfg, logger: logger}
}

// ListForUser retorna os alertas do usuário com os itens resolvidos.
func (s *Alerts) ListForUser(ctx context.Context, userID string) ([]AlertDetail, error) {
	alerts, err := s.repos.Alerts.FindSkipping(ctx, database.Query{"user_id": userID}, s.skipAlert)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return s.details(ctx, alerts), nil
}

// ListAll retorna todos os alertas com os itens resolvidos.
func (s *Alerts) ListAll(ctx context.Context) ([]AlertDetail, error) {
	alerts, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, alerts), nil
}

// All retorna todos os alertas legíveis; documentos corrompidos são
// registrados no log e ignorados.
func (s *Alerts) All(ctx context.Context) ([]*models.Alert, error) {
	alerts, err := s.repos.Alerts.FindSkipping(ctx, database.Query{}, s.skipAlert)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

func (s *Alerts) skipAlert(id string, err error) {
	s.logger.Warn("skipping unreadable alert",
		slog.String("alert_id", id),
		slog.String("error", err.Error()),
	)
}

// details resolve os itens; item ausente ou ilegível fica nil.
func (s *Alerts) details(ctx context.Context, alerts []*models.Alert) []AlertDetail {
	out := make([]AlertDetail, 0, len(alerts))
	for _, a := range alerts {
		item, err := s.items.Get(ctx, a.ItemID)
		if err != nil && !errors.Is(err, ErrItemNotFound) {
			s.logger.Warn("failed to load item for alert",
				slog.String("alert_id", a.ID),
				slog.String("item_id", a.ItemID),
				slog.String("error", err.Error()),
			)
		}
		out = append(out, AlertDetail{Alert: a, Item: item})
	}
	return out
}

// Get busca o alerta pelo id.
func (s *Alerts) Get(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := s.repos.Alerts.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAlertNotFound
	}
	return alert, err
}

// Create resolve a loja pela URL, cria o item com a regra da loja, tenta a
// primeira busca de preço e grava o alerta. Falha na busca não impede a
// criação: o item fica sem preço e o erro volta em AlertDetail.FetchErr.
func (s *Alerts) Create(ctx context.Context, userID, name, itemURL string, floor decimal.Decimal) (*AlertDetail, error) {
	name = cleanText(name)
	itemURL = strings.TrimSpace(itemURL)
	if name == "" {
		return nil, invalid("item name is required")
	}
	if !floor.IsPositive() {
		return nil, invalid("price limit must be positive")
	}
	if !s.cfg.AllowPrivateURLs {
		if err := security.ValidateURL(itemURL); err != nil {
			return nil, invalid("item url: %v", err)
		}
	}

	store, err := s.stores.FindByURL(ctx, itemURL)
	if err != nil {
		return nil, err
	}

	item := models.NewItem(itemURL, store)
	_, fetchErr := s.items.RefreshPrice(ctx, item)
	if fetchErr != nil {
		s.logger.Warn("initial price fetch failed",
			slog.String("item_id", item.ID),
			slog.String("url", item.URL),
			slog.String("error", fetchErr.Error()),
		)
		if err := s.items.Save(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to save item: %w", err)
		}
	}

	alert := models.NewAlert(name, item.ID, floor, userID)
	if err := s.repos.Alerts.Save(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}
	return &AlertDetail{Alert: alert, Item: item, FetchErr: fetchErr}, nil
}

// UpdateFloor muda o piso de um alerta do próprio usuário.
func (s *Alerts) UpdateFloor(ctx context.Context, userID, alertID string, floor decimal.Decimal) (*models.Alert, error) {
	if !floor.IsPositive() {
		return nil, invalid("price limit must be positive")
	}
	alert, err := s.owned(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}
	alert.PriceFloor = floor
	if err := s.repos.Alerts.Save(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}
	return alert, nil
}

// Delete remove um alerta do próprio usuário. O item permanece.
func (s *Alerts) Delete(ctx context.Context, userID, alertID string) error {
	if _, err := s.owned(ctx, userID, alertID); err != nil {
		return err
	}
	err := s.repos.Alerts.Delete(ctx, alertID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrAlertNotFound
	}
	return err
}

func (s *Alerts) owned(ctx context.Context, userID, alertID string) (*models.Alert, error) {
	alert, err := s.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.UserID != userID {
		return nil, ErrForbidden
	}
	return alert, nil
}
