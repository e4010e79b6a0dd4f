package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"pricing-service/internal/models"
)

const (
	// DefaultTimeout limita cada busca.
	DefaultTimeout     = 15 * time.Second
	DefaultMaxBodySize = 5 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Fetcher baixa a página do item e localiza o elemento do preço
type Fetcher struct {
	client      *http.Client
	maxBodySize int64
}

// NewFetcher cria um Fetcher. client nil usa um http.Client com DefaultTimeout.
func NewFetcher(client *http.Client, maxBodySize int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &Fetcher{client: client, maxBodySize: maxBodySize}
}

// FetchPrice faz GET em url, procura o primeiro elemento que casa com a
// regra (tag e todos os atributos, valores exatos) e extrai o preço do seu
// texto. Não há novas tentativas.
func (f *Fetcher) FetchPrice(ctx context.Context, url string, rule models.TagRule) (decimal.Decimal, error) {
	doc, err := f.fetchDocument(ctx, url)
	if err != nil {
		return decimal.Zero, err
	}

	el := FindElement(doc, rule)
	if el == nil {
		return decimal.Zero, &ElementNotFoundError{URL: url, Rule: rule}
	}

	return ParsePrice(strings.TrimSpace(el.Text()))
}

func (f *Fetcher) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("parse html: %w", err)}
	}
	return doc, nil
}

// FindElement retorna o primeiro elemento, em ordem de documento, cuja tag é
// rule.TagName e que tem todos os atributos de rule.Attributes com valor
// idêntico. Retorna nil quando nada casa.
func FindElement(doc *goquery.Document, rule models.TagRule) *goquery.Selection {
	tag := strings.ToLower(strings.TrimSpace(rule.TagName))
	if tag == "" {
		return nil
	}

	match := doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) != tag {
			return false
		}
		for name, want := range rule.Attributes {
			got, ok := s.Attr(name)
			if !ok || got != want {
				return false
			}
		}
		return true
	}).First()

	if match.Length() == 0 {
		return nil
	}
	return match
}
