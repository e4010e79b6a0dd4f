package models

import (
	"time"

	"github.com/shopspring/decimal"

	"pricing-service/internal/database"
)

// Item representa um produto monitorado e seu último preço conhecido
type Item struct {
	ID        string
	URL       string
	Rule      TagRule          // copiada da loja na criação
	Price     *decimal.Decimal // nil até a primeira busca com sucesso
	CheckedAt time.Time
}

// NewItem cria um item herdando a regra da loja.
func NewItem(url string, store *Store) *Item {
	attrs := make(map[string]string, len(store.Rule.Attributes))
	for k, v := range store.Rule.Attributes {
		attrs[k] = v
	}
	return &Item{
		ID:   NewID(),
		URL:  url,
		Rule: TagRule{TagName: store.Rule.TagName, Attributes: attrs},
	}
}

func (i *Item) DocumentID() string { return i.ID }

func (i *Item) ToDocument() database.Document {
	doc := database.Document{
		"url":                 i.URL,
		"html_tag_name":       i.Rule.TagName,
		"html_tag_attributes": i.Rule.Attributes,
		"price":               nil,
	}
	if i.Price != nil {
		doc["price"] = i.Price.String()
	}
	if !i.CheckedAt.IsZero() {
		doc["checked_at"] = i.CheckedAt.UTC().Format(time.RFC3339Nano)
	}
	return doc
}

// ItemFromDocument reconstrói o item a partir do documento.
func ItemFromDocument(d database.Document) (*Item, error) {
	item := &Item{
		ID:  d.String(database.IDKey),
		URL: d.String("url"),
		Rule: TagRule{
			TagName:    d.String("html_tag_name"),
			Attributes: d.StringMap("html_tag_attributes"),
		},
	}
	if s := d.String("price"); s != "" {
		p, err := parseDecimal("price", s)
		if err != nil {
			return nil, err
		}
		item.Price = &p
	}
	checked, err := d.Time("checked_at")
	if err != nil {
		return nil, err
	}
	item.CheckedAt = checked
	return item, nil
}
