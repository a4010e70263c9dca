// Package store: документное хранилище, из которого сверка читает и в которое
// пишет. Бэкенды лежат в подпакетах.
package store

import (
	"context"
	"errors"
	"fmt"
)

// MaxBatch: наибольшая атомарная пачка, которую принимает любой бэкенд.
const MaxBatch = 500

var ErrNotFound = errors.New("document not found")

// Document: сырой документ ключ-значение со своим идентификатором.
type Document struct {
	ID   string
	Data map[string]any
}

// Update задаёт поля верхнего уровня одного документа.
type Update struct {
	ID  string
	Set map[string]any
}

// Store: постраничное чтение и пакетные обновления.
type Store interface {
	// Scan: до limit документов по возрастанию ID, строго после startAfter.
	Scan(ctx context.Context, collection, startAfter string, limit int) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Commit применяет обновления (каждое атомарно) и возвращает число применённых.
	Commit(ctx context.Context, collection string, updates []Update) (int, error)
	MaxBatch() int
	Close(ctx context.Context) error
}

// Writer реализуют бэкенды, в которые можно загрузить документы (import).
type Writer interface {
	Put(ctx context.Context, collection string, docs []Document) error
}

// All читает коллекцию целиком, страница за страницей.
func All(ctx context.Context, s Store, collection string, pageSize int) ([]Document, error) {
	if pageSize <= 0 {
		pageSize = 200
	}
	var (
		out   []Document
		after string
	)
	for {
		page, err := s.Scan(ctx, collection, after, pageSize)
		if err != nil {
			return out, fmt.Errorf("scan %s after %q: %w", collection, after, err)
		}
		if len(page) == 0 {
			return out, nil
		}
		out = append(out, page...)
		after = page[len(page)-1].ID
	}
}
