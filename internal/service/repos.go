package service

import (
	"pricing-service/internal/database"
	"pricing-service/internal/models"
)

// Repos agrupa os repositórios de todas as entidades sobre o mesmo Store.
type Repos struct {
	Stores   *database.Repository[*models.Store]
	Items    *database.Repository[*models.Item]
	Alerts   *database.Repository[*models.Alert]
	Users    *database.Repository[*models.User]
	Sessions *database.Repository[*models.Session]
}

// NewRepos cria os repositórios.
func NewRepos(store database.Store) *Repos {
	return &Repos{
		Stores:   database.NewRepository(store, models.StoresCollection, models.StoreFromDocument),
		Items:    database.NewRepository(store, models.ItemsCollection, models.ItemFromDocument),
		Alerts:   database.NewRepository(store, models.AlertsCollection, models.AlertFromDocument),
		Users:    database.NewRepository(store, models.UsersCollection, models.UserFromDocument),
		Sessions: database.NewRepository(store, models.SessionsCollection, models.SessionFromDocument),
	}
}
