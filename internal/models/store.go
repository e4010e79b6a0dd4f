package models

import (
	"sort"
	"strings"

	"pricing-service/internal/database"
)

// Store representa uma loja: domínio e regra de localização do preço
type Store struct {
	ID     string
	Name   string
	Domain string
	Rule   TagRule
}

// NewStore cria uma loja com id novo.
func NewStore(name, domain string, rule TagRule) *Store {
	return &Store{ID: NewID(), Name: name, Domain: domain, Rule: rule}
}

// Matches informa se a URL pertence ao domínio da loja (prefixo).
func (s *Store) Matches(url string) bool {
	return s.Domain != "" && strings.HasPrefix(url, s.Domain)
}

func (s *Store) DocumentID() string { return s.ID }

func (s *Store) ToDocument() database.Document {
	return database.Document{
		"name":                s.Name,
		"domain":              s.Domain,
		"html_tag_name":       s.Rule.TagName,
		"html_tag_attributes": s.Rule.Attributes,
	}
}

// StoreFromDocument reconstrói a loja a partir do documento.
func StoreFromDocument(d database.Document) (*Store, error) {
	return &Store{
		ID:     d.String(database.IDKey),
		Name:   d.String("name"),
		Domain: d.String("domain"),
		Rule: TagRule{
			TagName:    d.String("html_tag_name"),
			Attributes: d.StringMap("html_tag_attributes"),
		},
	}, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
