package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"image-recon/internal/config"
	"image-recon/internal/reconcile/model"
	"image-recon/internal/reconcile/service"
	"image-recon/internal/store"
	"image-recon/internal/store/memstore"
	"image-recon/internal/store/mongostore"
	"image-recon/internal/store/sqlitestore"
)

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	switch config.StoreKind(cfg.Store.URI) {
	case "mongo":
		s, err := mongostore.Open(ctx, cfg.Store.URI, cfg.Store.Database, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlitestore.Open(ctx, config.SQLitePath(cfg.Store.URI))
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", s.Path()).Msg("sqlite store opened")
		return s, nil
	case "mem":
		logger.Warn().Msg("in-memory store: nothing will persist")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported store uri scheme", config.ErrInvalid)
	}
}

// loadIndex читает всю коллекцию imagens и строит индекс.
func loadIndex(ctx context.Context, st store.Store, pageSize int, logger zerolog.Logger) (*service.Index, error) {
	logger.Info().Str("collection", model.CollectionImages).Msg("indexing images")
	docs, err := store.All(ctx, st, model.CollectionImages, pageSize)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	images := make([]model.ImageRecord, 0, len(docs))
	for _, d := range docs {
		images = append(images, model.ImageFromDocument(d.ID, d.Data))
	}
	idx := service.BuildIndex(images)
	stats := idx.Stats()
	logger.Info().
		Int("images", stats.Images).
		Int("exact_keys", stats.ExactKeys).
		Int("filenames", stats.Filenames).
		Int("buckets", stats.Buckets).
		Int("skipped_paths", stats.SkippedPaths).
		Msg("index built")
	return idx, nil
}

// closeStore закрывает хранилище с отдельным таймаутом: контекст команды
// к этому моменту может быть уже отменён.
func closeStore(st store.Store, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		logger.Warn().Err(err).Msg("store close")
	}
}
