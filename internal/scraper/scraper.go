// Package scraper busca páginas de produtos e extrai o preço.
package scraper

import (
	"context"

	"github.com/shopspring/decimal"

	"pricing-service/internal/models"
)

// PriceFetcher define a busca do preço atual de uma página
type PriceFetcher interface {
	FetchPrice(ctx context.Context, url string, rule models.TagRule) (decimal.Decimal, error)
}

var _ PriceFetcher = (*Fetcher)(nil)
