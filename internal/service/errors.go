// Package service implementa os casos de uso de contas, lojas e alertas.
package service

import "errors"

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrAlreadyRegistered = errors.New("there is already a user registered with this email")
	ErrUserNotFound      = errors.New("no user account was found with this email address")
	ErrIncorrectPassword = errors.New("your password was incorrect")
	ErrStoreNotFound     = errors.New("store not found")
	ErrNoMatchingStore   = errors.New("no store matches this URL")
	ErrAlertNotFound     = errors.New("alert not found")
	ErrForbidden         = errors.New("alert belongs to another user")
	ErrInvalidInput      = errors.New("invalid input")
)
