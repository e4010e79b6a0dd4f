package database

import (
	"context"
	"fmt"
	"time"
)

// Entity é qualquer valor persistido como documento.
type Entity interface {
	DocumentID() string
	ToDocument() Document
}

// Repository oferece o CRUD comum a todas as entidades de uma coleção.
type Repository[T Entity] struct {
	store      Store
	collection string
	decode     func(Document) (T, error)
}

// NewRepository cria um repositório para a coleção informada; decode
// reconstrói a entidade a partir do documento armazenado.
func NewRepository[T Entity](store Store, collection string, decode func(Document) (T, error)) *Repository[T] {
	return &Repository[T]{store: store, collection: collection, decode: decode}
}

// Collection retorna o nome da coleção.
func (r *Repository[T]) Collection() string {
	return r.collection
}

// Get busca a entidade pelo id. Retorna ErrNotFound se não existir.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	return r.FindOne(ctx, ByID(id))
}

// FindOne busca a primeira entidade que satisfaz a consulta.
func (r *Repository[T]) FindOne(ctx context.Context, q Query) (T, error) {
	var zero T
	doc, err := r.store.FindOne(ctx, r.collection, q)
	if err != nil {
		return zero, err
	}
	e, err := r.decode(doc)
	if err != nil {
		return zero, fmt.Errorf("failed to decode %s: %w", r.collection, err)
	}
	return e, nil
}

// Find busca todas as entidades que satisfazem a consulta.
func (r *Repository[T]) Find(ctx context.Context, q Query) ([]T, error) {
	docs, err := r.store.FindMany(ctx, r.collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		e, err := r.decode(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", r.collection, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// FindSkipping busca como Find, mas pula documentos que não decodificam,
// informando cada um a onErr.
func (r *Repository[T]) FindSkipping(ctx context.Context, q Query, onErr func(id string, err error)) ([]T, error) {
	docs, err := r.store.FindMany(ctx, r.collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		e, err := r.decode(doc)
		if err != nil {
			if onErr != nil {
				onErr(doc.String(IDKey), fmt.Errorf("failed to decode %s: %w", r.collection, err))
			}
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// All retorna todas as entidades da coleção.
func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	return r.Find(ctx, Query{})
}

// Save grava a entidade (upsert pelo id).
func (r *Repository[T]) Save(ctx context.Context, e T) error {
	return r.store.Upsert(ctx, r.collection, ByID(e.DocumentID()), e.ToDocument())
}

// Delete remove a entidade pelo id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.store.DeleteOne(ctx, r.collection, ByID(id))
}

// String lê um campo texto; ausente ou de outro tipo vira "".
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// StringMap lê um objeto com valores texto.
func (d Document) StringMap(key string) map[string]string {
	out := map[string]string{}
	switch m := d[key].(type) {
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Time lê um instante gravado em RFC 3339; ausente vira o zero.
func (d Document) Time(key string) (time.Time, error) {
	s := d.String(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}
