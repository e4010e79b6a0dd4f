package models

import (
	"time"

	"pricing-service/internal/database"
)

// User é uma conta; Password guarda apenas o hash.
type User struct {
	ID       string
	Email    string
	Password string
}

func (u *User) DocumentID() string { return u.ID }

func (u *User) ToDocument() database.Document {
	return database.Document{"email": u.Email, "password": u.Password}
}

// UserFromDocument reconstrói o usuário a partir do documento.
func UserFromDocument(d database.Document) (*User, error) {
	return &User{
		ID:       d.String(database.IDKey),
		Email:    d.String("email"),
		Password: d.String("password"),
	}, nil
}

// Session liga o cookie de sessão ao usuário autenticado.
type Session struct {
	ID        string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Expired informa se a sessão venceu em now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *Session) DocumentID() string { return s.ID }

func (s *Session) ToDocument() database.Document {
	return database.Document{
		"user_id":    s.UserID,
		"email":      s.Email,
		"expires_at": s.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}
}

// SessionFromDocument reconstrói a sessão a partir do documento.
func SessionFromDocument(d database.Document) (*Session, error) {
	exp, err := d.Time("expires_at")
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        d.String(database.IDKey),
		UserID:    d.String("user_id"),
		Email:     d.String("email"),
		ExpiresAt: exp,
	}, nil
}
