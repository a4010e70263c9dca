// Package sqlitestore хранит JSON-документы в локальном файле SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"image-recon/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    data       TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (collection, id)
)`

type Store struct {
	db   *sql.DB
	path string
}

// Open создаёт файл базы (или открывает существующий) и применяет схему.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) MaxBatch() int { return store.MaxBatch }

func (s *Store) Scan(ctx context.Context, collection, startAfter string, limit int) ([]store.Document, error) {
	if limit <= 0 {
		limit = -1 // без ограничения
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? AND id > ? ORDER BY id LIMIT ?`,
		collection, startAfter, limit)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	defer rows.Close()

	var out []store.Document
	for rows.Next() {
		var (
			id  string
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		data, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("document %s/%s: %w", collection, id, err)
		}
		out = append(out, store.Document{ID: id, Data: data})
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	data, err := decode(raw)
	if err != nil {
		return store.Document{}, fmt.Errorf("document %s/%s: %w", collection, id, err)
	}
	return store.Document{ID: id, Data: data}, nil
}

// Commit: вся пачка в одной транзакции, всё или ничего.
func (s *Store) Commit(ctx context.Context, collection string, updates []store.Update) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, u := range updates {
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, u.ID).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s/%s: %w", collection, u.ID, store.ErrNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("read %s/%s: %w", collection, u.ID, err)
		}
		data, err := decode(raw)
		if err != nil {
			return 0, fmt.Errorf("document %s/%s: %w", collection, u.ID, err)
		}
		for k, v := range u.Set {
			data[k] = v
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return 0, fmt.Errorf("marshal %s/%s: %w", collection, u.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
			string(encoded), now, collection, u.ID); err != nil {
			return 0, fmt.Errorf("update %s/%s: %w", collection, u.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(updates), nil
}

// Put вставляет или заменяет документы.
func (s *Store) Put(ctx context.Context, collection string, docs []store.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, d := range docs {
		encoded, err := json.Marshal(d.Data)
		if err != nil {
			return fmt.Errorf("marshal %s/%s: %w", collection, d.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
             ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			collection, d.ID, string(encoded), now); err != nil {
			return fmt.Errorf("put %s/%s: %w", collection, d.ID, err)
		}
	}
	return tx.Commit()
}

func decode(raw string) (map[string]any, error) {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if data == nil { // "null"
		data = map[string]any{}
	}
	return data, nil
}
