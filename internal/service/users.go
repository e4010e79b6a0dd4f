package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pricing-service/internal/auth"
	"pricing-service/internal/database"
	"pricing-service/internal/models"
)

var emailPattern = regexp.MustCompile(`^[\w-]+@([\w-]+\.)+[\w]+$`)

// ValidEmail aplica a regra de formato de email das contas.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Users cuida de cadastro, login e sessões
type Users struct {
	repos  *Repos
	maxAge time.Duration
	now    func() time.Time
}

// NewUsers cria o serviço de contas. maxAge é a validade das sessões.
func NewUsers(repos *Repos, maxAge time.Duration) *Users {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Users{repos: repos, maxAge: maxAge, now: time.Now}
}

// Register cria uma conta com a senha em hash.
func (s *Users) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if password == "" {
		return nil, invalid("password is required")
	}

	_, err := s.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrAlreadyRegistered
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{ID: models.NewID(), Email: email, Password: hash}
	if err := s.repos.Users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return user, nil
}

// Login confere email e senha.
func (s *Users) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	ok, err := auth.VerifyPassword(password, user.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password for %s: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrIncorrectPassword
	}
	return user, nil
}

// FindByEmail busca a conta pelo email. Retorna ErrUserNotFound se não existir.
func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repos.Users.FindOne(ctx, database.Query{"email": email})
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Get busca a conta pelo id.
func (s *Users) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repos.Users.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// CreateSession abre uma sessão para o usuário.
func (s *Users) CreateSession(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		ID:        models.NewID(),
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: s.now().Add(s.maxAge),
	}
	if err := s.repos.Sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// FindSession retorna a sessão válida ou nil. Sessões vencidas são removidas.
func (s *Users) FindSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repos.Sessions.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session.Expired(s.now()) {
		if err := s.repos.Sessions.Delete(ctx, id); err != nil && !errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, nil
	}
	return session, nil
}

// Logout encerra a sessão; sessão inexistente não é erro.
func (s *Users) Logout(ctx context.Context, sessionID string) error {
	err := s.repos.Sessions.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// MaxAge é a validade das sessões criadas.
func (s *Users) MaxAge() time.Duration {
	return s.maxAge
}
