package models

import (
	"github.com/shopspring/decimal"

	"pricing-service/internal/database"
)

// Alert é o pedido de aviso quando o preço do item cai abaixo do piso
type Alert struct {
	ID         string
	Name       string
	ItemID     string
	PriceFloor decimal.Decimal
	UserID     string
}

// NewAlert cria um alerta com id novo.
func NewAlert(name, itemID string, floor decimal.Decimal, userID string) *Alert {
	return &Alert{ID: NewID(), Name: name, ItemID: itemID, PriceFloor: floor, UserID: userID}
}

func (a *Alert) DocumentID() string { return a.ID }

func (a *Alert) ToDocument() database.Document {
	return database.Document{
		"item_name":   a.Name,
		"item_id":     a.ItemID,
		"price_limit": a.PriceFloor.String(),
		"user_id":     a.UserID,
	}
}

// AlertFromDocument reconstrói o alerta a partir do documento.
func AlertFromDocument(d database.Document) (*Alert, error) {
	floor, err := parseDecimal("price_limit", d.String("price_limit"))
	if err != nil {
		return nil, err
	}
	return &Alert{
		ID:         d.String(database.IDKey),
		Name:       d.String("item_name"),
		ItemID:     d.String("item_id"),
		PriceFloor: floor,
		UserID:     d.String("user_id"),
	}, nil
}
