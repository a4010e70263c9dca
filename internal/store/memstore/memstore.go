// Package memstore: store.Store в памяти для тестов и пробных прогонов.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"image-recon/internal/store"
)

// CommitHook, если задан, вызывается перед каждым Commit; ошибка
// отклоняет всю пачку целиком.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	maxBatch    int

	CommitHook func(collection string, updates []store.Update) error
	Commits    int // число вызовов Commit
	Scans      int
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]map[string]any), maxBatch: store.MaxBatch}
}

func (s *Store) Put(_ context.Context, collection string, docs []store.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]map[string]any)
		s.collections[collection] = c
	}
	for _, d := range docs {
		c[d.ID] = maps.Clone(d.Data)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, collection, startAfter string, limit int) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scans++

	c := s.collections[collection]
	ids := make([]string, 0, len(c))
	for id := range c {
		if id > startAfter {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, store.Document{ID: id, Data: maps.Clone(c[id])})
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.collections[collection][id]
	if !ok {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return store.Document{ID: id, Data: maps.Clone(d)}, nil
}

func (s *Store) Commit(ctx context.Context, collection string, updates []store.Update) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Commits++
	if s.CommitHook != nil {
		if err := s.CommitHook(collection, updates); err != nil {
			return 0, err
		}
	}
	c := s.collections[collection]
	for i, u := range updates {
		d, ok := c[u.ID]
		if !ok {
			return i, fmt.Errorf("%s/%s: %w", collection, u.ID, store.ErrNotFound)
		}
		maps.Copy(d, u.Set)
	}
	return len(updates), nil
}

func (s *Store) MaxBatch() int { return s.maxBatch }

func (s *Store) Close(context.Context) error { return nil }
