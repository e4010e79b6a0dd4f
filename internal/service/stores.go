package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"pricing-service/internal/database"
	"pricing-service/internal/models"
)

// StoreInput são os campos editáveis de uma loja.
type StoreInput struct {
	Name       string
	Domain     string
	TagName    string
	Attributes map[string]string
}

func (in StoreInput) validate() (StoreInput, error) {
	in.Name = cleanText(in.Name)
	in.Domain = strings.TrimSpace(in.Domain)
	in.TagName = strings.ToLower(strings.TrimSpace(in.TagName))

	if in.Name == "" {
		return in, invalid("store name is required")
	}
	u, err := url.Parse(in.Domain)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return in, invalid("store domain must be an http(s) URL, got %q", in.Domain)
	}
	if in.TagName == "" {
		return in, invalid("tag name is required")
	}
	if in.Attributes == nil {
		in.Attributes = map[string]string{}
	}
	return in, nil
}

// Stores mantém o cadastro de lojas
type Stores struct {
	repos *Repos
}

// NewStores cria o serviço de lojas.
func NewStores(repos *Repos) *Stores {
	return &Stores{repos: repos}
}

// List retorna todas as lojas.
func (s *Stores) List(ctx context.Context) ([]*models.Store, error) {
	return s.repos.Stores.All(ctx)
}

// Get busca a loja pelo id.
func (s *Stores) Get(ctx context.Context, id string) (*models.Store, error) {
	store, err := s.repos.Stores.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrStoreNotFound
	}
	return store, err
}

// Create cadastra uma loja.
func (s *Stores) Create(ctx context.Context, in StoreInput) (*models.Store, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	store := models.NewStore(in.Name, in.Domain, models.TagRule{TagName: in.TagName, Attributes: in.Attributes})
	if err := s.repos.Stores.Save(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to save store: %w", err)
	}
	return store, nil
}

// Update substitui os campos da loja. Itens já criados mantêm a regra que copiaram.
func (s *Stores) Update(ctx context.Context, id string, in StoreInput) (*models.Store, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	store, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	store.Name = in.Name
	store.Domain = in.Domain
	store.Rule = models.TagRule{TagName: in.TagName, Attributes: in.Attributes}
	if err := s.repos.Stores.Save(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to save store: %w", err)
	}
	return store, nil
}

// Delete remove a loja.
func (s *Stores) Delete(ctx context.Context, id string) error {
	err := s.repos.Stores.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrStoreNotFound
	}
	return err
}

// FindByURL escolhe a loja cujo domínio é o prefixo mais longo da URL.
func (s *Stores) FindByURL(ctx context.Context, itemURL string) (*models.Store, error) {
	stores, err := s.repos.Stores.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	var best *models.Store
	for _, store := range stores {
		if store.Matches(itemURL) && (best == nil || len(store.Domain) > len(best.Domain)) {
			best = store
		}
	}
	if best == nil {
		return nil, ErrNoMatchingStore
	}
	return best, nil
}
