package scraper

import (
	"errors"
	"fmt"

	"pricing-service/internal/models"
)

// ParseError indica que o texto não contém um valor no formato de preço.
type ParseError struct {
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no price found in %q", e.Text)
}

// ElementNotFoundError indica que a regra da loja não encontrou nenhum elemento na página.
type ElementNotFoundError struct {
	URL  string
	Rule models.TagRule
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element matching %s at %s", e.Rule, e.URL)
}

// FetchError indica falha de transporte ou status HTTP sem sucesso.
// StatusCode é zero quando a requisição nem chegou a ter resposta.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Kind classifica o erro para logs e métricas: parse, element, fetch ou other.
func Kind(err error) string {
	var (
		parseErr   *ParseError
		elementErr *ElementNotFoundError
		fetchErr   *FetchError
	)
	switch {
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &elementErr):
		return "element"
	case errors.As(err, &fetchErr):
		return "fetch"
	default:
		return "other"
	}
}
