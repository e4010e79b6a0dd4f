// Package database implementa o armazenamento de documentos sobre SQLite.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// IDKey é o campo que identifica um documento dentro da coleção.
const IDKey = "_id"

var (
	// ErrNotFound indica que nenhum documento corresponde à consulta.
	ErrNotFound = errors.New("document not found")
	// ErrMissingID indica uma chave de upsert sem _id.
	ErrMissingID = errors.New("key query has no _id")
)

// Document é um documento plano chave/valor.
type Document map[string]any

// Query filtra documentos por igualdade dos campos de primeiro nível.
type Query map[string]any

// ByID monta a consulta pela chave do documento.
func ByID(id string) Query {
	return Query{IDKey: id}
}

// Store é o contrato de persistência consumido pelas entidades.
type Store interface {
	FindOne(ctx context.Context, collection string, q Query) (Document, error)
	FindMany(ctx context.Context, collection string, q Query) ([]Document, error)
	Upsert(ctx context.Context, collection string, key Query, doc Document) error
	DeleteOne(ctx context.Context, collection string, key Query) error
}

// DB encapsula a conexão com o banco de dados
type DB struct {
	conn *sql.DB
}

// New aplica as migrações e abre o banco em dbPath
func New(dbPath string) (*DB, error) {
	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializa as escritas; uma conexão evita SQLITE_BUSY entre goroutines.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database ready", slog.String("path", dbPath))
	return &DB{conn: conn}, nil
}

// Close fecha a conexão com o banco de dados
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifica se o banco responde.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// FindOne retorna o primeiro documento da consulta ou ErrNotFound.
func (db *DB) FindOne(ctx context.Context, collection string, q Query) (Document, error) {
	docs, err := db.find(ctx, collection, q, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

// FindMany retorna os documentos da consulta em ordem de inserção.
func (db *DB) FindMany(ctx context.Context, collection string, q Query) ([]Document, error) {
	return db.find(ctx, collection, q, 0)
}

func (db *DB) find(ctx context.Context, collection string, q Query, limit int) ([]Document, error) {
	where, args := whereClause(collection, q)
	stmt := "SELECT body FROM documents WHERE " + where + " ORDER BY rowid"
	if limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		doc := Document{}
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Upsert grava doc sob o _id da chave, criando ou substituindo o documento.
func (db *DB) Upsert(ctx context.Context, collection string, key Query, doc Document) error {
	id, ok := key[IDKey].(string)
	if !ok || id == "" {
		return ErrMissingID
	}

	stored := make(Document, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored[IDKey] = id

	body, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", collection, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`,
		collection, id, string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// DeleteOne remove o primeiro documento da consulta. Retorna ErrNotFound se nada foi removido.
func (db *DB) DeleteOne(ctx context.Context, collection string, key Query) error {
	where, args := whereClause(collection, key)
	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM documents WHERE rowid = (SELECT rowid FROM documents WHERE "+where+" ORDER BY rowid LIMIT 1)",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// whereClause traduz a consulta em filtros json_extract. As chaves são
// ordenadas para que o SQL gerado seja estável.
func whereClause(collection string, q Query) (string, []any) {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := []string{"collection = ?"}
	args := []any{collection}
	for _, k := range keys {
		if k == IDKey {
			conds = append(conds, "id = ?")
			args = append(args, q[k])
			continue
		}
		conds = append(conds, "json_extract(body, ?) = ?")
		args = append(args, jsonPath(k), q[k])
	}
	return strings.Join(conds, " AND "), args
}

func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}
