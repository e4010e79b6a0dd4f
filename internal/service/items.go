package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pricing-service/internal/database"
	"pricing-service/internal/models"
	"pricing-service/internal/scraper"
)

// ErrItemNotFound indica referência a um item inexistente.
var ErrItemNotFound = errors.New("item not found")

// Items busca e grava o preço atual dos itens
type Items struct {
	repos   *Repos
	fetcher scraper.PriceFetcher
	now     func() time.Time
}

// NewItems cria o serviço de itens.
func NewItems(repos *Repos, fetcher scraper.PriceFetcher) *Items {
	return &Items{repos: repos, fetcher: fetcher, now: time.Now}
}

// Get busca o item pelo id.
func (s *Items) Get(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.repos.Items.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	return item, err
}

// Save grava o item.
func (s *Items) Save(ctx context.Context, item *models.Item) error {
	return s.repos.Items.Save(ctx, item)
}

// RefreshPrice busca o preço atual, atualiza item e grava. Em qualquer
// falha o item (em memória e armazenado) fica como estava.
func (s *Items) RefreshPrice(ctx context.Context, item *models.Item) (decimal.Decimal, error) {
	price, err := s.fetcher.FetchPrice(ctx, item.URL, item.Rule)
	if err != nil {
		return decimal.Zero, err
	}

	updated := *item
	updated.Price = &price
	updated.CheckedAt = s.now().UTC()
	if err := s.repos.Items.Save(ctx, &updated); err != nil {
		return decimal.Zero, fmt.Errorf("failed to save item %s: %w", item.ID, err)
	}

	*item = updated
	return price, nil
}
