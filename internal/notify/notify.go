// Package notify entrega avisos de preço aos donos dos alertas.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Message é o conteúdo de um aviso.
type Message struct {
	Recipients []string
	Subject    string
	Text       string
	HTML       string
}

// Dispatcher envia uma mensagem por algum canal.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoChannels indica que nenhum canal de aviso está configurado.
var ErrNoChannels = errors.New("no notification channel configured")

// PartialError indica que parte dos canais entregou a mensagem.
type PartialError struct {
	Delivered int
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("delivered on %d channel(s), failed on others: %v", e.Delivered, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Multi envia a mensagem por todos os canais. Sem canais retorna
// ErrNoChannels; com falha só em parte deles retorna *PartialError.
type Multi []Dispatcher

func (m Multi) Send(ctx context.Context, msg Message) error {
	if len(m) == 0 {
		return ErrNoChannels
	}
	var errs []error
	for _, d := range m {
		if err := d.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	switch {
	case len(errs) == 0:
		return nil
	case len(errs) < len(m):
		return &PartialError{Delivered: len(m) - len(errs), Err: errors.Join(errs...)}
	default:
		return errors.Join(errs...)
	}
}
