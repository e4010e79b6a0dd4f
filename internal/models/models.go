// Package models define as entidades persistidas do serviço.
package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coleções do armazenamento de documentos
const (
	StoresCollection   = "stores"
	ItemsCollection    = "items"
	AlertsCollection   = "alerts"
	UsersCollection    = "users"
	SessionsCollection = "sessions"
)

// NewID gera um identificador opaco (uuid v4 em hexadecimal).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// TagRule localiza o elemento HTML que contém o preço.
type TagRule struct {
	TagName    string
	Attributes map[string]string
}

// String formata a regra como seletor legível, ex.: span[class="price"].
func (r TagRule) String() string {
	var b strings.Builder
	b.WriteString(r.TagName)
	for _, k := range sortedKeys(r.Attributes) {
		fmt.Fprintf(&b, "[%s=%q]", k, r.Attributes[k])
	}
	return b.String()
}

// FormatPrice mostra o valor com duas casas, ou todas quando houver mais.
func FormatPrice(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}
